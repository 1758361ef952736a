package session

import "sort"

// sortedKeys returns the keys of a map of comparable values sorted by
// their string form, used so printSummary's output is deterministic.
func sortedKeys[K comparable](m map[K]int, str func(K) string) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return str(keys[i]) < str(keys[j]) })
	return keys
}
