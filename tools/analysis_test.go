package tools

import (
	"testing"

	"github.com/xStarless-Skyx/skparse/core"
	"github.com/xStarless-Skyx/skparse/syntax"
)

func TestAnalyze(t *testing.T) {
	reg := core.NewRegistry(nil, nil)
	if err := syntax.Standard(reg); err != nil {
		t.Fatal(err)
	}

	a := Analyze(reg, 64)
	if a.Entries != reg.Snapshot().Len() || a.Owners[syntax.Owner] != a.Entries {
		t.Fatal(a)
	}
	if a.Kinds["condition"] != 2 || a.Kinds["effect"] != 2 {
		t.Fatal(a.Kinds)
	}
	if len(a.Terminals) != 4 {
		t.Fatal(a.Terminals)
	}
	if len(a.Overlaps) != 0 {
		t.Fatal(a.Overlaps)
	}

	if _, err := reg.Types().Define("widget", "widgets"); err != nil {
		t.Fatal(err)
	}
	for _, owner := range []string{"a", "b"} {
		reg.MustRegister(core.Registration{
			Owner:    owner,
			Pattern:  "[the] widget count",
			Priority: core.PrioritySimple,
			New: func() core.Element {
				return &core.ElementFuncs{}
			},
		})
	}

	a = Analyze(reg, 64)
	if len(a.Overlaps) != 1 {
		t.Fatal(a.Overlaps)
	}
	o := a.Overlaps[0]
	if o.Owner != "a" || o.OtherOwn != "b" || o.Kind != "expression" {
		t.Fatal(o)
	}
	found := false
	for _, name := range a.UnusedTypes {
		if name == "widget" {
			found = true
		}
	}
	if !found {
		t.Fatal(a.UnusedTypes)
	}
}
