package textnorm

import "strings"

// MatchSubject finds label in a catalog of canonical subject names using
// case and diacritic insensitive containment in either direction. An exact
// folded match wins; otherwise the longest containing name is chosen, ties
// going to the earlier catalog entry. The index of the match is returned.
func MatchSubject(label string, names []string) (int, bool) {
	want := Fold(label)
	if want == "" {
		return -1, false
	}

	best, bestLen := -1, 0
	for i, name := range names {
		have := Fold(name)
		if have == "" {
			continue
		}
		if have == want {
			return i, true
		}
		if strings.Contains(want, have) || strings.Contains(have, want) {
			if len(have) > bestLen {
				best, bestLen = i, len(have)
			}
		}
	}
	return best, best >= 0
}
