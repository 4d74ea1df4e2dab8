package heuristic

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	bulletPrefixRe = regexp.MustCompile(`^[\s]*[•●▪◦·*>–—-]+[\s]*`)
	spaceRunRe     = regexp.MustCompile(`[\t ]+`)
)

// normalizeLines splits raw text into trimmed, bullet-stripped lines.
// Blank lines are dropped; interior whitespace runs collapse to one space.
func normalizeLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		line = bulletPrefixRe.ReplaceAllString(line, "")
		line = spaceRunRe.ReplaceAllString(line, " ")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// sectionLines returns the lines between a header matching one of the start
// keywords and the next line that looks like a different section header.
// Matching is case- and accent-insensitive on the header line.
func sectionLines(lines []string, startKeywords []string) []string {
	start := -1
	for i, line := range lines {
		if isSectionHeader(line) && containsAnyFold(line, startKeywords) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}
	end := len(lines)
	for i := start; i < len(lines); i++ {
		if isSectionHeader(lines[i]) && !containsAnyFold(lines[i], startKeywords) {
			end = i
			break
		}
	}
	return lines[start:end]
}

// isSectionHeader reports whether a line looks like a CV section header:
// short, no trailing sentence punctuation, and matching a known header word.
func isSectionHeader(line string) bool {
	if len(line) > 48 {
		return false
	}
	trimmed := strings.TrimRight(line, " :")
	if trimmed == "" {
		return false
	}
	return containsAnyFold(trimmed, sectionHeaderWords)
}

// capitalizeFirst upper-cases the first letter of a keyword so table entries
// read as display values.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// containsAnyFold reports whether s contains any keyword, ignoring case and
// common French accents.
func containsAnyFold(s string, keywords []string) bool {
	folded := foldAccents(strings.ToLower(s))
	for _, kw := range keywords {
		if strings.Contains(folded, foldAccents(strings.ToLower(kw))) {
			return true
		}
	}
	return false
}

var accentReplacer = strings.NewReplacer(
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"à", "a", "â", "a", "ä", "a",
	"î", "i", "ï", "i",
	"ô", "o", "ö", "o",
	"ù", "u", "û", "u", "ü", "u",
	"ç", "c",
)

func foldAccents(s string) string {
	return accentReplacer.Replace(s)
}

// splitItems breaks a line into discrete tokens on commas, semicolons,
// slashes and interior bullets, keeping only tokens within length bounds.
func splitItems(line string, minLen, maxLen int) []string {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		switch r {
		case ',', ';', '•', '|', '/', '·':
			return true
		}
		return false
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if len(f) < minLen || len(f) > maxLen {
			continue
		}
		out = append(out, f)
	}
	return out
}

// dedupeFold removes duplicates ignoring case/accents, preserving the first
// occurrence and its original spelling.
func dedupeFold(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		key := foldAccents(strings.ToLower(strings.TrimSpace(item)))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
