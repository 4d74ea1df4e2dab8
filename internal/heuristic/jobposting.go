package heuristic

import (
	"regexp"
	"strings"

	"cvparse-backend/internal/records"
)

var (
	experienceYearsRe = regexp.MustCompile(`(?i)(\d{1,2})\s*(?:\+|ans?|years?)[\s\w]*(?:d['’]?\s*)?(?:experience|expérience)?`)
	locationLabelRe   = regexp.MustCompile(`(?i)^(?:lieu|localisation|location|ville|based in|poste basé à)\s*[:\-]\s*(.+)$`)
)

var (
	responsibilitySectionWords = []string{"mission", "missions", "responsibilities", "responsabilites", "vos missions", "le poste", "your role"}
	requirementSectionWords    = []string{"profil", "profile", "requirements", "qualifications", "profil recherche", "exigences"}
	benefitSectionWords        = []string{"avantages", "benefits", "ce que nous offrons", "we offer", "perks"}
	preferredSkillWords        = []string{"souhaite", "souhaitee", "apprecie", "appreciee", "nice to have", "bonus", "plus", "preferred", "optional", "un atout"}
)

// ExtractJobPosting parses a job description into a structured posting.
// Empty input yields the all-placeholder posting.
func ExtractJobPosting(text string) records.JobPosting {
	posting := records.EmptyJobPosting()
	if strings.TrimSpace(text) == "" {
		return posting
	}

	lines := normalizeLines(text)

	posting.Title = extractPostingTitle(lines)
	posting.Company = extractPostingCompany(lines)
	posting.Location = extractPostingLocation(lines)
	posting.ContractType = extractContractType(text)
	posting.Experience = extractExperienceRequirement(text)

	posting.Responsibilities = collectSectionItems(lines, responsibilitySectionWords)
	posting.Requirements = collectSectionItems(lines, requirementSectionWords)
	posting.Benefits = collectSectionItems(lines, benefitSectionWords)

	required, preferred := extractPostingSkills(text, posting.Requirements)
	posting.RequiredSkills = required
	posting.PreferredSkills = preferred
	return posting
}

func extractPostingTitle(lines []string) string {
	limit := len(lines)
	if limit > 6 {
		limit = 6
	}
	for _, line := range lines[:limit] {
		if len(line) > maxItemLen || isSectionHeader(line) {
			continue
		}
		if containsAnyFold(line, roleWords) {
			return strings.TrimSpace(strings.TrimSuffix(line, "(H/F)"))
		}
	}
	if len(lines) > 0 && len(lines[0]) <= maxItemLen {
		return lines[0]
	}
	return records.Placeholder
}

func extractPostingCompany(lines []string) string {
	limit := len(lines)
	if limit > 12 {
		limit = 12
	}
	for _, line := range lines[:limit] {
		for _, part := range splitWindowLine(line) {
			if looksLikeCompany(part) && !containsAnyFold(part, contractTypes) {
				return part
			}
		}
	}
	return records.Placeholder
}

func extractPostingLocation(lines []string) string {
	for _, line := range lines {
		if m := locationLabelRe.FindStringSubmatch(line); m != nil {
			loc := strings.TrimSpace(m[1])
			if len(loc) >= minItemLen && len(loc) <= maxItemLen {
				return loc
			}
		}
	}
	return records.Placeholder
}

func extractContractType(text string) string {
	folded := foldAccents(strings.ToLower(text))
	for _, ct := range contractTypes {
		if containsWordFold(folded, ct) {
			return strings.ToUpper(ct[:1]) + ct[1:]
		}
	}
	return records.Placeholder
}

func extractExperienceRequirement(text string) string {
	folded := foldAccents(strings.ToLower(text))
	if !strings.Contains(folded, "experience") {
		return records.Placeholder
	}
	if m := experienceYearsRe.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	return records.Placeholder
}

func collectSectionItems(lines []string, sectionWords []string) []string {
	items := []string{}
	for _, line := range sectionLines(lines, sectionWords) {
		if len(line) < minItemLen || len(line) > maxItemLen*2 {
			continue
		}
		items = append(items, line)
	}
	return dedupeFold(items)
}

// extractPostingSkills scans the posting for known skill/software terms.
// Terms on "nice to have"-flavored lines land in preferred, the rest in
// required.
func extractPostingSkills(text string, requirementLines []string) ([]string, []string) {
	required := []string{}
	preferred := []string{}
	seen := map[string]struct{}{}

	classify := func(line string) {
		folded := foldAccents(strings.ToLower(line))
		optional := containsAnyFold(line, preferredSkillWords)
		for _, table := range [][]string{skillWords, softwareWords} {
			for _, kw := range table {
				if !containsWordFold(folded, kw) {
					continue
				}
				if _, ok := seen[kw]; ok {
					continue
				}
				seen[kw] = struct{}{}
				if optional {
					preferred = append(preferred, capitalizeFirst(kw))
				} else {
					required = append(required, capitalizeFirst(kw))
				}
			}
		}
	}

	if len(requirementLines) > 0 {
		for _, line := range requirementLines {
			classify(line)
		}
	}
	for _, line := range normalizeLines(text) {
		classify(line)
	}
	return required, preferred
}
