package tools

import (
	"sort"

	"github.com/xStarless-Skyx/skparse/core"
	"github.com/xStarless-Skyx/skparse/match"
)

// Overlap is a pair of entries with the same kind and priority that
// can match the same text.
type Overlap struct {
	Kind     string `json:"kind" yaml:"kind"`
	Priority int    `json:"priority" yaml:"priority"`
	Pattern  string `json:"pattern" yaml:"pattern"`
	Owner    string `json:"owner" yaml:"owner"`
	Other    string `json:"other" yaml:"other"`
	OtherOwn string `json:"otherOwner" yaml:"otherOwner"`
}

// RegistryAnalysis summarizes a registry snapshot.
type RegistryAnalysis struct {
	Entries   int            `json:"entries" yaml:"entries"`
	Kinds     map[string]int `json:"kinds" yaml:"kinds"`
	Owners    map[string]int `json:"owners" yaml:"owners"`
	Terminals []string       `json:"terminals,omitempty" yaml:"terminals,omitempty"`
	Overlaps  []Overlap      `json:"overlaps,omitempty" yaml:"overlaps,omitempty"`

	// UnusedTypes are types no entry accepts or returns.
	UnusedTypes []string `json:"unusedTypes,omitempty" yaml:"unusedTypes,omitempty"`
}

// Analyze looks at a registry.  The limit caps the pattern
// combinations compared when looking for overlaps.
func Analyze(reg *core.Registry, limit int) *RegistryAnalysis {
	s := reg.Snapshot()
	a := &RegistryAnalysis{
		Entries: s.Len(),
		Kinds:   make(map[string]int),
		Owners:  make(map[string]int),
	}

	used := make(map[*core.Type]bool)
	for _, e := range s.All() {
		a.Kinds[e.Kind.String()]++
		a.Owners[e.Owner]++
		used[e.Returns] = true
		for _, ts := range e.Accepts {
			for _, t := range ts {
				used[t] = true
			}
		}
		if e.Compiled == nil {
			a.Terminals = append(a.Terminals, e.Pattern)
		}
	}

	for _, k := range []core.Kind{core.Expression, core.Condition, core.Effect} {
		es := s.Entries(k)
		for i, e := range es {
			if e.Compiled == nil {
				continue
			}
			for _, other := range es[i+1:] {
				if other.Compiled == nil || other.Priority != e.Priority {
					continue
				}
				if !match.Overlaps(e.Compiled, other.Compiled, limit) {
					continue
				}
				a.Overlaps = append(a.Overlaps, Overlap{
					Kind:     k.String(),
					Priority: e.Priority,
					Pattern:  e.Pattern,
					Owner:    e.Owner,
					Other:    other.Pattern,
					OtherOwn: other.Owner,
				})
			}
		}
	}

	tt := reg.Types()
	for _, name := range tt.Names() {
		t := tt.Get(name)
		if t == core.TypeObject || used[t] {
			continue
		}
		a.UnusedTypes = append(a.UnusedTypes, name)
	}
	sort.Strings(a.Terminals)

	return a
}
