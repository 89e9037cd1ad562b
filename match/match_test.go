/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package match

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type MatchTest struct {
	Title   string
	Pattern string
	Inputs  []string
	Fails   []string
}

func TestMatchTable(t *testing.T) {
	tests := []MatchTest{
		{
			Title:   "optional groups",
			Pattern: "[the] [current[ly] running] thing [name]",
			Inputs: []string{
				"thing",
				"the thing",
				"currently running thing name",
				"the current running thing",
				"THE Currently Running Thing",
				"  the   thing  name ",
			},
			Fails: []string{
				"the the thing",
				// The inner group is "current[ly] running", so
				// "running" isn't optional.
				"the current thing",
				"thingname",
				"the thing name name",
				"running thing",
				"",
			},
		},
		{
			Title:   "choice",
			Pattern: "%object% (is|=) %object%",
			Inputs:  []string{"1 is 2", "1 = 2", "{a} is not {b}"},
			Fails:   []string{"1 is", "is 2", "1 == 2"},
		},
		{
			Title:   "escapes",
			Pattern: `a \| b \(c\)`,
			Inputs:  []string{"a | b (c)", "A | B (C)"},
			Fails:   []string{"a b c", "a or b (c)"},
		},
		{
			Title:   "nested empty optionals",
			Pattern: "[[a]] x",
			Inputs:  []string{"x", "a x"},
			Fails:   []string{"a a x"},
		},
		{
			Title:   "no space",
			Pattern: "%string% in (:upper|:lower)[ ]case",
			Inputs:  []string{`"x" in uppercase`, `"x" in lower case`},
			Fails:   []string{`"x" in upper  case x`},
		},
		{
			Title:   "folding",
			Pattern: "café",
			Inputs:  []string{"CAFÉ", "Café"},
			Fails:   []string{"cafe"},
		},
	}

	for i, test := range tests {
		p, err := Compile(test.Pattern)
		if err != nil {
			t.Fatalf("%d %s: %s", i, test.Title, err)
		}
		for _, in := range test.Inputs {
			t.Run(test.Title+"/"+in, func(t *testing.T) {
				ok, err := DefaultMatcher.Test(p, in)
				if err != nil {
					t.Fatal(err)
				}
				if !ok {
					t.Fatalf("%q should match %q", p, in)
				}
			})
		}
		for _, in := range test.Fails {
			t.Run(test.Title+"/not "+in, func(t *testing.T) {
				ok, err := DefaultMatcher.Test(p, in)
				if err != nil {
					t.Fatal(err)
				}
				if ok {
					t.Fatalf("%q shouldn't match %q", p, in)
				}
			})
		}
	}
}

func TestMatchGreedy(t *testing.T) {
	p := MustCompile("%object% and %object%")
	rs, err := Match(p, "x and y and z")
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 2 {
		t.Fatalf("expected 2 results, got %d", len(rs))
	}

	var got [][]string
	for _, r := range rs {
		a, _ := r.Text(0)
		b, _ := r.Text(1)
		got = append(got, []string{a, b})
	}
	want := [][]string{
		{"x and y", "z"},
		{"x", "y and z"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestMatchSpans(t *testing.T) {
	p := MustCompile("set %object% to %object%")
	rs, err := Match(p, "SET   {x}\tto 5")
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 1 {
		t.Fatal(len(rs))
	}
	r := rs[0]
	if r.Input != "SET {x} to 5" {
		t.Fatal(r.Input)
	}
	if r.Consumed != len(r.Input) {
		t.Fatal(r.Consumed)
	}
	if s, ok := r.Span(0); !ok || s != (Span{Start: 4, End: 7}) {
		t.Fatal(s)
	}
	if x, _ := r.Text(1); x != "5" {
		t.Fatal(x)
	}
	if _, ok := r.Span(2); ok {
		t.Fatal("no third placeholder")
	}
}

func TestMatchAbsentPlaceholder(t *testing.T) {
	p := MustCompile("delete [all of %object% in] %object%")
	rs, err := Match(p, "delete {x}")
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 1 {
		t.Fatal(len(rs))
	}
	if _, ok := rs[0].Text(0); ok {
		t.Fatal("first placeholder should be absent")
	}
	if x, _ := rs[0].Text(1); x != "{x}" {
		t.Fatal(x)
	}
}

func TestMatchTags(t *testing.T) {
	p := MustCompile("%number% rounded [(:up|:down)]")

	tests := []struct {
		in   string
		tags []string
	}{
		{"5 rounded up", []string{"up"}},
		{"5 rounded DOWN", []string{"down"}},
		{"5 rounded", nil},
	}

	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			rs, err := Match(p, test.in)
			if err != nil {
				t.Fatal(err)
			}
			if len(rs) != 1 {
				t.Fatal(len(rs))
			}
			got := rs[0].Tags()
			if len(got) == 0 {
				got = nil
			}
			if diff := cmp.Diff(test.tags, got); diff != "" {
				t.Fatal(diff)
			}
			for _, tag := range test.tags {
				if !rs[0].HasTag(tag) {
					t.Fatal(tag)
				}
			}
		})
	}
}

func TestMatchOptionalTag(t *testing.T) {
	p := MustCompile("%object% is [:not] set")
	rs, err := Match(p, "{x} is not set")
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 1 || !rs[0].HasTag("not") {
		t.Fatal(rs)
	}
}

func TestMatchStop(t *testing.T) {
	p := MustCompile("%object% and %object%")
	n := 0
	_, err := DefaultMatcher.Walk(p, "a and b and c and d", func(r *Result) bool {
		n++
		return false
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatal(n)
	}
}

func TestFurthest(t *testing.T) {
	p := MustCompile("[the] length of %string%")
	at, err := DefaultMatcher.Furthest(p, "the length from x")
	if err != nil {
		t.Fatal(err)
	}
	if at != len("the length") {
		t.Fatal(at)
	}
}

func TestFrameBudget(t *testing.T) {
	var (
		p  = MustCompile("%object% %object% %object% %object% x")
		in = "a b c d e f g h i j k l m n o p"
	)

	m := &Matcher{MaxFrames: 50}
	_, err := m.Matches(p, in)
	if !errors.Is(err, ErrFrameBudget) {
		t.Fatalf("expected ErrFrameBudget, got %v", err)
	}

	unlimited := &Matcher{}
	rs, err := unlimited.Matches(p, in)
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 0 {
		t.Fatal(len(rs))
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"  a  b ":          "a b",
		"say  \"a   b\"  now": `say "a   b" now`,
		"a\t\nb":           "a b",
		"":                 "",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
