package places

import (
	"github.com/agnivade/levenshtein"
)

const minSuggestLen = 4

// maxDistance is the edit budget for a typed name of n letters.
func maxDistance(n int) int {
	switch {
	case n <= 5:
		return 1
	case n <= 8:
		return 2
	default:
		return 3
	}
}

// Suggest returns the known name of the given kind closest to typed, when
// typed is a plausible misspelling of it. Exact matches are not
// misspellings and return false. Candidates must share the first letter; on
// a tie the alphabetically first name wins.
func Suggest(typed string, kind Kind) (string, bool) {
	t := Normalize(typed)
	if len(t) < minSuggestLen {
		return "", false
	}
	if _, known := Lookup(t); known {
		return "", false
	}
	budget := maxDistance(len(t))
	best, bestDist := "", budget+1
	for _, name := range Names(kind) {
		if name[0] != t[0] {
			continue
		}
		if diff := len(name) - len(t); diff > budget || -diff > budget {
			continue
		}
		d := levenshtein.ComputeDistance(t, name)
		if d < bestDist {
			best, bestDist = name, d
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}
