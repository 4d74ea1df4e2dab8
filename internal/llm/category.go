package llm

import (
	"sort"
	"strings"
)

// Category is the document profile used to select an instruction template
// and an expected experience depth.
type Category string

const (
	CategoryAssistant Category = "assistant"
	CategoryTechnical Category = "technical"
	CategoryBusiness  Category = "business"
	CategoryLuxury    Category = "luxury"
	CategoryGeneral   Category = "general"
)

// CategoryScore is one ranked classification outcome. Confidence is the
// category's share of all keyword hits, in [0,1].
type CategoryScore struct {
	Category   Category
	Hits       int
	Confidence float64
}

// categoryPriority breaks score ties: lower wins.
var categoryPriority = map[Category]int{
	CategoryAssistant: 0,
	CategoryTechnical: 1,
	CategoryBusiness:  2,
	CategoryLuxury:    3,
	CategoryGeneral:   4,
}

var categoryKeywords = map[Category][]string{
	CategoryAssistant: {
		"assistant", "assistante", "secretaire", "secretary", "agenda",
		"office manager", "accueil", "reception", "administratif",
		"administrative", "organisation de reunions", "prise de rendez-vous",
		"gestion de l'agenda", "deplacements", "travel arrangements",
		"executive assistant", "assistanat",
	},
	CategoryTechnical: {
		"developpeur", "developer", "ingenieur", "engineer", "python",
		"java", "javascript", "golang", "devops", "cloud", "aws", "azure",
		"kubernetes", "docker", "sql", "api", "backend", "frontend",
		"fullstack", "data scientist", "machine learning", "ci/cd", "git",
	},
	CategoryBusiness: {
		"commercial", "commerciale", "ventes", "sales", "business developer",
		"marketing", "chiffre d'affaires", "prospection", "negociation",
		"account manager", "client portfolio", "portefeuille client",
		"strategy", "strategie", "croissance", "partenariats",
	},
	CategoryLuxury: {
		"luxe", "luxury", "mode", "fashion", "maison", "couture",
		"haute couture", "boutique", "pret-a-porter", "joaillerie",
		"horlogerie", "cosmetique", "parfum", "retail excellence",
		"client experience", "vip",
	},
}

// minExperienceByCategory is the expected minimum number of work-experience
// entries a complete extraction should carry for each profile. Responses
// below the minimum are tagged low-confidence, never replaced.
var minExperienceByCategory = map[Category]int{
	CategoryAssistant: 2,
	CategoryTechnical: 2,
	CategoryBusiness:  2,
	CategoryLuxury:    1,
	CategoryGeneral:   1,
}

// MinExperience returns the expected experience depth for a category.
func MinExperience(c Category) int {
	if n, ok := minExperienceByCategory[c]; ok {
		return n
	}
	return minExperienceByCategory[CategoryGeneral]
}

// Classify scores the text against each category's keyword table and returns
// all categories ranked by confidence. The first element is the winner; ties
// resolve by fixed priority. Empty or keyword-free text ranks general first
// with zero confidence.
func Classify(text string) []CategoryScore {
	folded := foldForMatch(text)

	total := 0
	hits := map[Category]int{}
	for cat, words := range categoryKeywords {
		for _, w := range words {
			n := strings.Count(folded, foldForMatch(w))
			hits[cat] += n
			total += n
		}
	}

	out := make([]CategoryScore, 0, len(categoryPriority))
	for cat := range categoryPriority {
		s := CategoryScore{Category: cat, Hits: hits[cat]}
		if total > 0 {
			s.Confidence = float64(s.Hits) / float64(total)
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Hits != out[j].Hits {
			return out[i].Hits > out[j].Hits
		}
		// No signal at all: nothing distinguishes the profiles, so the
		// general template wins instead of the priority order.
		if total == 0 {
			return out[i].Category == CategoryGeneral
		}
		return categoryPriority[out[i].Category] < categoryPriority[out[j].Category]
	})
	return out
}

// TopCategory is a convenience wrapper over Classify.
func TopCategory(text string) CategoryScore {
	return Classify(text)[0]
}

var accentFolder = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i",
	"ô", "o", "ö", "o",
	"ù", "u", "û", "u", "ü", "u",
	"ç", "c", "œ", "oe",
)

func foldForMatch(s string) string {
	return accentFolder.Replace(strings.ToLower(s))
}
