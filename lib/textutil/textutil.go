package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases the name and strips all whitespace out of it.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.TrimSpace(name)
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// MatchName reports if the normalized name contains any of the matchers.
func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, NormalizeName(m)) {
			return true
		}
	}
	return false
}

// SubjectSimilarityThreshold is the minimum Jaro-Winkler similarity for two
// subject names to be considered the same subject.
const SubjectSimilarityThreshold = 0.88

// MatchSubject reports if a subject name (as it appears in the portal) refers to
// the subject the user typed in, tolerating typos and abbreviations by prefix.
func MatchSubject(subject, query string) bool {
	normalizedQuery := NormalizeName(query)
	if normalizedQuery == "" {
		return true
	}
	if MatchName(subject, []string{query}) {
		return true
	}
	similarity := matchr.JaroWinkler(NormalizeName(subject), normalizedQuery, false)
	return similarity >= SubjectSimilarityThreshold
}
