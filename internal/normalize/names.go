package normalize

import (
	"regexp"
	"strings"
)

var (
	multiSpace = regexp.MustCompile(`\s+`)
	keyUnsafe  = regexp.MustCompile(`[^a-z0-9]+`)
)

// Key turns a dataset header such as "Date of Admission" into a field key
// ("date_of_admission").
func Key(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	s = keyUnsafe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// Category trims and collapses whitespace in a categorical value. Case is kept:
// the category text is what gets persisted in the schema.
func Category(v string) string {
	s := strings.TrimSpace(v)
	return multiSpace.ReplaceAllString(s, " ")
}

// Categories applies Category to every element, dropping empties and repeats
// while keeping first-seen order.
func Categories(vs []string) []string {
	out := make([]string, 0, len(vs))
	seen := make(map[string]bool, len(vs))
	for _, v := range vs {
		c := Category(v)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
