package builtin

import "github.com/lithammer/fuzzysearch/fuzzy"

// Suggest returns the closest registered builtin name to an unresolved
// command name, for a "command not found, did you mean ...?" hint on
// the process spawner's exec-not-found path. It returns "" when nothing
// is close enough to be useful.
func Suggest(name string) string {
	ranks := fuzzy.RankFindNormalizedFuzzy(name, Names())
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}
