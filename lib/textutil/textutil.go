package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// BestMatch returns the index of the candidate most similar to target
// (Jaro-Winkler over normalized names) along with its similarity.
// idx is -1 when there are no candidates.
func BestMatch(target string, candidates []string) (idx int, similarity float64) {
	idx = -1
	target = NormalizeName(target)
	for i, c := range candidates {
		sim := matchr.JaroWinkler(target, NormalizeName(c), false)
		if sim > similarity {
			similarity = sim
			idx = i
		}
	}
	return idx, similarity
}
