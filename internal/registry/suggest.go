package registry

import "github.com/agnivade/levenshtein"

// Suggest returns the known module name closest to input, or "" when
// nothing is within a sensible edit distance.
func (r *Registry) Suggest(input string) string {
	const maxDistance = 3

	best := ""
	bestDist := maxDistance + 1
	for _, name := range r.Names() {
		if d := levenshtein.ComputeDistance(input, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}
