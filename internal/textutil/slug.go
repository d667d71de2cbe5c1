// Package textutil provides slug generation and title normalization used to
// deduplicate ideas.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// slugRegex matches non-alphanumeric characters (except hyphens)
	slugRegex = regexp.MustCompile(`[^a-z0-9-]+`)
	// multipleHyphens matches multiple consecutive hyphens
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// MaxSlugLength matches the WordPress post_name column
const MaxSlugLength = 200

// Slugify converts a string to a URL-friendly slug: lowercase, accents
// removed, whitespace as hyphens, everything else alphanumeric.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)

	result = strings.ToLower(result)
	result = strings.Join(strings.Fields(result), "-")
	result = slugRegex.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if len(result) > MaxSlugLength {
		result = strings.TrimRight(result[:MaxSlugLength], "-")
	}
	return result
}

// TitleKey is the normalized form two titles are compared by. It keeps
// letters, marks and digits of any script, lowercased and NFKC-folded, with runs of
// anything else collapsed to a single space.
func TitleKey(title string) string {
	title = strings.ToLower(norm.NFKC.String(title))

	var b strings.Builder
	b.Grow(len(title))
	gap := false
	for _, r := range title {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsMark(r) {
			gap = b.Len() > 0
			continue
		}
		if gap {
			b.WriteByte(' ')
			gap = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Dedupe trims titles and drops blanks and titles whose key is in seen or
// repeats an earlier title. seen is updated with every title kept.
func Dedupe(titles []string, seen map[string]bool) []string {
	out := make([]string, 0, len(titles))
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		key := TitleKey(title)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, title)
	}
	return out
}

// KeySet builds the seen set for Dedupe from existing titles
func KeySet(titles []string) map[string]bool {
	seen := make(map[string]bool, len(titles))
	for _, t := range titles {
		if key := TitleKey(t); key != "" {
			seen[key] = true
		}
	}
	return seen
}
