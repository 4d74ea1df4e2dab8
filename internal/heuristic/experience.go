package heuristic

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cvparse-backend/internal/records"
)

// Date-range shapes recognized in CV text. The end side is either a date of
// the same shape or a free-text token checked against the present synonyms.
var (
	monthRangeRe = regexp.MustCompile(`\b(0?[1-9]|1[0-2])/((?:19|20)\d{2})\s*[–—-]\s*((0?[1-9]|1[0-2])/((?:19|20)\d{2})|[A-Za-zÀ-ÿ'’ ]{2,24})`)
	yearRangeRe  = regexp.MustCompile(`\b((?:19|20)\d{2})\s*[–—-]\s*(((?:19|20)\d{2})|[A-Za-zÀ-ÿ'’ ]{2,24})`)

	// window lines that carry another range belong to the next entry
	anyRangeRe = regexp.MustCompile(`\b(?:(?:0?[1-9]|1[0-2])/)?(?:19|20)\d{2}\s*[–—-]`)
)

const experienceWindow = 5

// ParseExperience extracts the work history from the full document text.
// Two passes run: one scoped to the experience section, one over the whole
// document; results are merged with (title, company) deduplication and sorted
// most-recent-first. Text without a single date range yields exactly one
// placeholder entry.
func ParseExperience(text string) []records.Experience {
	lines := normalizeLines(text)

	var entries []records.Experience
	if section := sectionLines(lines, experienceSectionWords); len(section) > 0 {
		entries = scanRanges(section)
	}
	entries = mergeEntries(entries, scanRanges(lines))

	if len(entries) == 0 {
		return []records.Experience{records.PlaceholderExperience()}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return parseStart(entries[i].StartDate).After(parseStart(entries[j].StartDate))
	})
	return entries
}

// scanRanges walks the lines, emits one candidate entry per date range found,
// and classifies the following window of lines as title and company.
func scanRanges(lines []string) []records.Experience {
	var out []records.Experience
	for i, line := range lines {
		start, end, rest, ok := matchRange(line)
		if !ok {
			continue
		}

		window := make([]string, 0, experienceWindow+1)
		if rest != "" {
			window = append(window, rest)
		}
		for j := i + 1; j < len(lines) && len(window) < experienceWindow; j++ {
			if anyRangeRe.MatchString(lines[j]) {
				break
			}
			window = append(window, lines[j])
		}

		entry := classifyWindow(window)
		if entry == nil {
			continue
		}
		entry.StartDate = start
		entry.EndDate = end
		out = append(out, *entry)
	}
	return out
}

// matchRange finds the first date range in a line. It returns the literal
// start token, the normalized end token, and any text trailing the match on
// the same line (often "06/2023 - 05/2024 : Executive Assistant, Acme").
func matchRange(line string) (start, end, rest string, ok bool) {
	if m := monthRangeRe.FindStringSubmatchIndex(line); m != nil {
		sub := monthRangeRe.FindStringSubmatch(line)
		start = sub[1] + "/" + sub[2]
		endTok := strings.TrimSpace(sub[3])
		end, ok = normalizeEnd(endTok, sub[4] != "")
		if !ok {
			return "", "", "", false
		}
		rest = strings.Trim(line[m[1]:], " :,-–—")
		return start, end, rest, true
	}
	if m := yearRangeRe.FindStringSubmatchIndex(line); m != nil {
		sub := yearRangeRe.FindStringSubmatch(line)
		start = sub[1]
		endTok := strings.TrimSpace(sub[2])
		end, ok = normalizeEnd(endTok, sub[3] != "")
		if !ok {
			return "", "", "", false
		}
		rest = strings.Trim(line[m[1]:], " :,-–—")
		return start, end, rest, true
	}
	return "", "", "", false
}

// normalizeEnd maps present synonyms to the canonical sentinel and keeps
// literal date text as-is. A free-text end that is not a present synonym
// disqualifies the match.
func normalizeEnd(token string, isDate bool) (string, bool) {
	if isDate {
		return token, true
	}
	folded := foldAccents(strings.ToLower(strings.TrimSpace(token)))
	for _, w := range presentWords {
		if strings.HasPrefix(folded, foldAccents(w)) {
			return records.PresentSentinel, true
		}
	}
	return "", false
}

// classifyWindow picks a title and a company out of the lines following a
// date range. A window with neither yields nil; with exactly one, the other
// side defaults to the placeholder.
func classifyWindow(window []string) *records.Experience {
	title := ""
	company := ""
	for _, line := range window {
		for _, part := range splitWindowLine(line) {
			if title == "" && looksLikeTitle(part) {
				title = part
				continue
			}
			if company == "" && looksLikeCompany(part) {
				company = part
			}
		}
		if title != "" && company != "" {
			break
		}
	}

	if title == "" && company == "" {
		return nil
	}
	if title == "" {
		title = records.Placeholder
	}
	if company == "" {
		company = records.Placeholder
	}
	return &records.Experience{Title: title, Company: company}
}

// splitWindowLine breaks "Executive Assistant — Acme Corp" style lines at
// strong separators so title and company can be classified independently.
func splitWindowLine(line string) []string {
	for _, sep := range []string{" — ", " – ", " - ", " | ", " chez ", " at ", ", "} {
		if i := strings.Index(line, sep); i > 0 {
			return []string{
				strings.TrimSpace(line[:i]),
				strings.TrimSpace(line[i+len(sep):]),
			}
		}
	}
	return []string{strings.TrimSpace(line)}
}

func looksLikeTitle(s string) bool {
	if len(s) < minItemLen || len(s) > maxItemLen {
		return false
	}
	return containsAnyFold(s, roleWords)
}

// looksLikeCompany accepts a legal-entity suffix or a short capitalized
// proper-noun phrase that is not itself a role line.
func looksLikeCompany(s string) bool {
	if len(s) < minItemLen || len(s) > maxItemLen {
		return false
	}
	if containsAnyFold(s, roleWords) || isSectionHeader(s) {
		return false
	}
	folded := foldAccents(strings.ToLower(s))
	for _, suffix := range legalSuffixes {
		if containsWordFold(folded, suffix) {
			return true
		}
	}
	words := strings.Fields(s)
	if len(words) == 0 || len(words) > 6 {
		return false
	}
	capitalized := 0
	for _, w := range words {
		r := []rune(w)
		if r[0] >= 'A' && r[0] <= 'Z' {
			capitalized++
		}
	}
	return capitalized == len(words)
}

// mergeEntries appends b onto a, dropping entries whose (title, company) pair
// was already seen. Date fields do not participate in the key: the section
// pass and the whole-document pass find the same job with the same pair.
func mergeEntries(a, b []records.Experience) []records.Experience {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]records.Experience, 0, len(a)+len(b))
	for _, entry := range append(append([]records.Experience{}, a...), b...) {
		key := foldAccents(strings.ToLower(entry.Title)) + "\x00" + foldAccents(strings.ToLower(entry.Company))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entry)
	}
	return out
}

// parseStart turns a literal "MM/YYYY" or "YYYY" start token into a sortable
// time. Unparseable tokens (including the placeholder) sort oldest.
func parseStart(token string) time.Time {
	token = strings.TrimSpace(token)
	if i := strings.IndexByte(token, '/'); i > 0 {
		month, errM := strconv.Atoi(token[:i])
		year, errY := strconv.Atoi(token[i+1:])
		if errM == nil && errY == nil && month >= 1 && month <= 12 {
			return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		}
	}
	if year, err := strconv.Atoi(token); err == nil && year >= 1900 && year <= 2100 {
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}
