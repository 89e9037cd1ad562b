package tools

import (
	"strings"
	"testing"

	"github.com/xStarless-Skyx/skparse/core"
	"github.com/xStarless-Skyx/skparse/syntax"
)

func parse(t *testing.T, text string) core.Node {
	t.Helper()
	p, err := syntax.NewParser(nil)
	if err != nil {
		t.Fatal(err)
	}
	n, err := p.Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestDump(t *testing.T) {
	m := Dump(parse(t, `the length of "ab" + {x}`))

	if m["op"] != "+" || m["type"] != "number" {
		t.Fatal(m)
	}
	left, is := m["left"].(map[string]interface{})
	if !is {
		t.Fatalf("%#v", m["left"])
	}
	if left["pattern"] != "[the] length of %string%" || left["kind"] != "expression" {
		t.Fatal(left)
	}
	args := left["args"].([]interface{})
	if len(args) != 1 || args[0].(map[string]interface{})["literal"] != "ab" {
		t.Fatal(args)
	}
	right := m["right"].(map[string]interface{})
	if right["variable"] != "x" || right["scope"] != "global" {
		t.Fatal(right)
	}

	if Dump(nil) != nil {
		t.Fatal("dumped nil")
	}
}

func TestDumpTags(t *testing.T) {
	m := Dump(parse(t, `2.5 rounded up`))
	tags, is := m["tags"].([]string)
	if !is || len(tags) != 1 || tags[0] != "up" {
		t.Fatal(m)
	}
}

func TestDumpYAML(t *testing.T) {
	bs, err := DumpYAML(parse(t, `{_total} * 2`))
	if err != nil {
		t.Fatal(err)
	}
	s := string(bs)
	for _, want := range []string{"op: '*'", "variable: total", "scope: local", "literal: 2"} {
		if !strings.Contains(s, want) {
			t.Fatalf("%q not in\n%s", want, s)
		}
	}
}
