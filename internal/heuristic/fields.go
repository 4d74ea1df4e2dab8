// Package heuristic implements keyword- and regex-based extraction of
// structured records from free-form CV and job-posting text. Every extractor
// is a pure function of its input: identical text and tables always yield the
// identical record, and no extractor consults another's output.
package heuristic

import (
	"regexp"
	"strings"

	"cvparse-backend/internal/records"
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`(?:\+\d{1,3}[\s.]?)?(?:\(0\)[\s.]?)?\d(?:[\s.\-]?\d{1,2}){4,9}`)
	yearRe  = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

const (
	minItemLen = 2
	maxItemLen = 100
	// skill and software tokens longer than this are section prose, not items
	maxSkillLen = 60
)

// ExtractCandidate runs every field extractor over the text and assembles a
// CandidateRecord. Empty input yields the all-placeholder record.
func ExtractCandidate(text string) records.CandidateRecord {
	rec := records.EmptyCandidate()
	if strings.TrimSpace(text) == "" {
		rec.WorkExperience = []records.Experience{records.PlaceholderExperience()}
		return rec
	}

	lines := normalizeLines(text)

	rec.PersonalInfo = ExtractPersonalInfo(text)
	rec.Skills = ExtractSkills(text)
	rec.Software = ExtractSoftware(text)
	rec.Languages = ExtractLanguages(text)
	rec.Education = ExtractEducation(text)
	rec.WorkExperience = ParseExperience(text)
	rec.CurrentPosition = extractCurrentPosition(lines, rec.WorkExperience)
	return rec
}

// ExtractPersonalInfo pulls name, email and phone from anywhere in the text.
func ExtractPersonalInfo(text string) records.PersonalInfo {
	info := records.PersonalInfo{
		Name:  records.Placeholder,
		Email: records.Placeholder,
		Phone: records.Placeholder,
	}

	if m := emailRe.FindString(text); m != "" {
		info.Email = m
	}
	if m := findPhone(text); m != "" {
		info.Phone = m
	}

	// The name is usually one of the first lines: a short capitalized phrase
	// that is neither contact data nor a section header.
	lines := normalizeLines(text)
	limit := len(lines)
	if limit > 8 {
		limit = 8
	}
	for _, line := range lines[:limit] {
		if looksLikeName(line) {
			info.Name = line
			break
		}
	}
	return info
}

func findPhone(text string) string {
	for _, m := range phoneRe.FindAllString(text, -1) {
		digits := 0
		for _, r := range m {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		// Below 9 digits it is a date or reference number, above 13 noise.
		if digits >= 9 && digits <= 13 && !yearRangeLike(m) {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

func yearRangeLike(s string) bool {
	return len(yearRe.FindAllString(s, -1)) >= 2
}

func looksLikeName(line string) bool {
	if isSectionHeader(line) || emailRe.MatchString(line) || yearRe.MatchString(line) {
		return false
	}
	if containsAnyFold(line, roleWords) {
		return false
	}
	words := strings.Fields(line)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		r := []rune(w)
		if len(r) < 2 {
			return false
		}
		first := r[0]
		if !(first >= 'A' && first <= 'Z') && !strings.ContainsRune("ÀÂÄÉÈÊËÎÏÔÖÙÛÜÇ", first) {
			return false
		}
	}
	return true
}

// ExtractSkills collects skill items from the skills section, falling back to
// a whole-document scan against the known skill table.
func ExtractSkills(text string) []string {
	return extractListField(text, skillsSectionWords, skillWords)
}

// ExtractSoftware collects tool/software items the same way skills are
// collected, against the software table.
func ExtractSoftware(text string) []string {
	return extractListField(text, softwareSectionWords, softwareWords)
}

func extractListField(text string, sectionWords, fallbackTable []string) []string {
	lines := normalizeLines(text)

	var items []string
	for _, line := range sectionLines(lines, sectionWords) {
		items = append(items, splitItems(line, minItemLen, maxSkillLen)...)
	}
	items = dedupeFold(items)
	if len(items) > 0 {
		return items
	}

	// No dedicated section: scan the full text for known entries, keeping
	// table order so the result stays deterministic.
	folded := foldAccents(strings.ToLower(text))
	for _, kw := range fallbackTable {
		if containsWordFold(folded, kw) {
			items = append(items, capitalizeFirst(kw))
		}
	}
	return dedupeFold(items)
}

// containsWordFold matches kw in pre-folded text on word boundaries, so that
// "r" or "go"-like short entries do not fire inside other words.
func containsWordFold(foldedText, kw string) bool {
	kw = foldAccents(strings.ToLower(kw))
	idx := 0
	for {
		i := strings.Index(foldedText[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		beforeOK := start == 0 || !isWordByte(foldedText[start-1])
		afterOK := end == len(foldedText) || !isWordByte(foldedText[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// ExtractLanguages finds language/level pairs in the languages section, then
// anywhere in the text.
func ExtractLanguages(text string) []records.Language {
	lines := normalizeLines(text)
	out := []records.Language{}
	seen := map[string]struct{}{}

	scan := func(candidate []string) {
		for _, line := range candidate {
			folded := foldAccents(strings.ToLower(line))
			for spelled, canonical := range languageNames {
				if !containsWordFold(folded, spelled) {
					continue
				}
				if _, ok := seen[canonical]; ok {
					continue
				}
				seen[canonical] = struct{}{}
				out = append(out, records.Language{
					Language: canonical,
					Level:    languageLevel(folded),
				})
			}
		}
	}

	section := sectionLines(lines, languagesSectionWords)
	scan(section)
	if len(out) == 0 {
		scan(lines)
	}

	sortLanguages(out)
	return out
}

func languageLevel(foldedLine string) string {
	for _, level := range languageLevels {
		if containsWordFold(foldedLine, level) {
			return level
		}
	}
	return records.Placeholder
}

// sortLanguages orders by canonical name; map iteration above is unordered
// and the pipeline promises deterministic output.
func sortLanguages(langs []records.Language) {
	for i := 1; i < len(langs); i++ {
		for j := i; j > 0 && langs[j].Language < langs[j-1].Language; j-- {
			langs[j], langs[j-1] = langs[j-1], langs[j]
		}
	}
}

// ExtractEducation pulls degree entries out of the education section, or from
// any line carrying a degree keyword when no section exists.
func ExtractEducation(text string) []records.Education {
	lines := normalizeLines(text)
	section := sectionLines(lines, educationSectionWords)
	if len(section) == 0 {
		for _, line := range lines {
			if containsAnyFold(line, degreeWords) && !containsAnyFold(line, experienceSectionWords) {
				section = append(section, line)
			}
		}
	}

	out := []records.Education{}
	for _, line := range section {
		if len(line) < minItemLen || len(line) > maxItemLen {
			continue
		}
		if !containsAnyFold(line, degreeWords) && !yearRe.MatchString(line) {
			continue
		}
		entry := records.Education{
			Degree:      records.Placeholder,
			Institution: records.Placeholder,
			Year:        records.Placeholder,
		}
		if y := yearRe.FindString(line); y != "" {
			entry.Year = y
		}
		degree, institution := splitEducationLine(line)
		if degree != "" {
			entry.Degree = degree
		}
		if institution != "" {
			entry.Institution = institution
		}
		if entry.Degree == records.Placeholder && entry.Institution == records.Placeholder {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// splitEducationLine separates "Master Droit des Affaires - Université Paris 1"
// style lines into degree and institution halves.
func splitEducationLine(line string) (string, string) {
	line = yearRe.ReplaceAllString(line, "")
	line = strings.Trim(line, " -–—,:")

	for _, sep := range []string{" - ", " – ", " — ", ", ", " | ", " / "} {
		if i := strings.Index(line, sep); i > 0 {
			left := strings.TrimSpace(line[:i])
			right := strings.TrimSpace(line[i+len(sep):])
			if containsAnyFold(left, degreeWords) {
				return left, right
			}
			if containsAnyFold(right, degreeWords) {
				return right, left
			}
		}
	}
	if containsAnyFold(line, degreeWords) {
		return line, ""
	}
	return "", strings.TrimSpace(line)
}

func extractCurrentPosition(lines []string, experience []records.Experience) string {
	// Prefer the title of an ongoing position.
	for _, exp := range experience {
		if exp.EndDate == records.PresentSentinel && exp.Title != records.Placeholder {
			return exp.Title
		}
	}
	// Otherwise the first role-looking line near the top of the document.
	limit := len(lines)
	if limit > 10 {
		limit = 10
	}
	for _, line := range lines[:limit] {
		if len(line) <= maxItemLen && containsAnyFold(line, roleWords) && !isSectionHeader(line) {
			return line
		}
	}
	// Fall back to the most recent parsed title.
	for _, exp := range experience {
		if exp.Title != records.Placeholder {
			return exp.Title
		}
	}
	return records.Placeholder
}
