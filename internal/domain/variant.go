package domain

import (
	"strings"
)

// ParseCombination reads "Size=S;Color=Red" into combination parts.
// Parts may also be separated by "," and use ":" between group and variant.
func ParseCombination(s string) ([]CombinationPart, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })
	parts := make([]CombinationPart, 0, len(fields))
	for _, f := range fields {
		group, variant, ok := strings.Cut(f, "=")
		if !ok {
			group, variant, ok = strings.Cut(f, ":")
		}
		group, variant = strings.TrimSpace(group), strings.TrimSpace(variant)
		if !ok || group == "" || variant == "" {
			return nil, Invalid("combination", "expected group=variant, got "+strings.TrimSpace(f))
		}
		parts = append(parts, CombinationPart{GroupName: group, VariantName: variant})
	}
	return parts, nil
}

// GroupsFromCombinations derives variant groups from combination parts in
// order of first appearance.
func GroupsFromCombinations(combos []VariantCombination) []VariantGroup {
	var groups []VariantGroup
	index := map[string]int{}
	seen := map[string]bool{}
	for _, c := range combos {
		for _, part := range c.Combination {
			i, ok := index[part.GroupName]
			if !ok {
				i = len(groups)
				index[part.GroupName] = i
				groups = append(groups, VariantGroup{GroupName: part.GroupName})
			}
			key := part.GroupName + "\x00" + part.VariantName
			if seen[key] {
				continue
			}
			seen[key] = true
			groups[i].Variants = append(groups[i].Variants, VariantOption{VariantName: part.VariantName})
		}
	}
	return groups
}
