package engine

import "strings"

// requested reports whether paths ask for the named relation, either bare
// ("company") or as the head of a nested path ("company.address").
func requested(paths []string, name string) bool {
	for _, p := range paths {
		if p == name || strings.HasPrefix(p, name+".") {
			return true
		}
	}
	return false
}

// pathsInto computes the sub-paths to forward when descending into the named
// relation: paths prefixed "<name>." keep their suffix, bare matches and
// unrelated paths contribute nothing, duplicates and empties are dropped.
// Pure string arithmetic; a path addressing an undeclared relation simply
// never matches anything.
func pathsInto(paths []string, name string) []string {
	var out []string
	var seen map[string]bool

	for _, p := range paths {
		rest, ok := strings.CutPrefix(p, name+".")
		if !ok || rest == "" {
			continue
		}
		if seen == nil {
			seen = make(map[string]bool)
		}
		if seen[rest] {
			continue
		}
		seen[rest] = true
		out = append(out, rest)
	}
	return out
}
