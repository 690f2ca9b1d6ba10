package domain

import (
	"slices"
	"sort"
)

// RulesModeKind selects how the active rule set is computed.
type RulesModeKind uint8

const (
	// RulesDefault enables the default rules minus Disabled plus OptIn.
	RulesDefault RulesModeKind = iota
	// RulesOnly enables exactly the rules listed in Only.
	RulesOnly
	// RulesAllEnabled enables every rule except Disabled.
	RulesAllEnabled
)

func (k RulesModeKind) String() string {
	switch k {
	case RulesOnly:
		return "only"
	case RulesAllEnabled:
		return "all_enabled"
	default:
		return "default"
	}
}

// RulesMode is the rule selection of a single configuration.
type RulesMode struct {
	Kind     RulesModeKind
	Disabled []string
	OptIn    []string
	Only     []string
}

// Merged layers child's rule selection over r. The child wins on every conflicting selection.
func (r RulesMode) Merged(child RulesMode) RulesMode {
	switch child.Kind {
	case RulesAllEnabled:
		return RulesMode{Kind: RulesAllEnabled, Disabled: sortedUnique(child.Disabled)}
	case RulesOnly:
		return RulesMode{Kind: RulesOnly, Only: sortedUnique(child.Only)}
	}

	switch r.Kind {
	case RulesOnly:
		only := union(child.OptIn, difference(r.Only, child.Disabled))
		return RulesMode{Kind: RulesOnly, Only: only}
	case RulesAllEnabled:
		return RulesMode{Kind: RulesAllEnabled, Disabled: sortedUnique(child.Disabled)}
	default:
		return RulesMode{
			Kind:     RulesDefault,
			Disabled: union(child.Disabled, difference(r.Disabled, child.OptIn)),
			OptIn:    union(child.OptIn, difference(r.OptIn, child.Disabled)),
		}
	}
}

func difference(a, b []string) []string {
	out := make([]string, 0, len(a))
	for _, s := range a {
		if !slices.Contains(b, s) {
			out = append(out, s)
		}
	}
	return out
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return sortedUnique(out)
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := slices.Clone(in)
	sort.Strings(out)
	return slices.Compact(out)
}
