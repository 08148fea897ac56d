package core

import (
	"slices"
	"strings"
)

// NormalizeStaff trims, drops blanks and duplicates, and sorts ascending.
func NormalizeStaff(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// InsertStaff adds name to a normalized list. It reports false, leaving the
// list unchanged, when the trimmed name is blank or already present.
func InsertStaff(names []string, name string) ([]string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || slices.Contains(names, name) {
		return names, false
	}
	out := append(slices.Clone(names), name)
	slices.Sort(out)
	return out, true
}

// RemoveStaff drops name from the list. It reports false when absent.
func RemoveStaff(names []string, name string) ([]string, bool) {
	name = strings.TrimSpace(name)
	i := slices.Index(names, name)
	if i < 0 {
		return names, false
	}
	return slices.Delete(slices.Clone(names), i, i+1), true
}
