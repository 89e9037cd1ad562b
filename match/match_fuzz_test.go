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

// Fuzz patterns and inputs.  Every combination of a pattern, with
// words substituted for placeholders, should match that pattern.

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"
)

// Fuzz has parameters used to generate random patterns and inputs.
type Fuzz struct {
	Width       int
	ChoiceWidth int
	Alphabet    string
	WordWidth   int

	Words        float64
	Optionals    float64
	Choices      float64
	Placeholders float64

	// generated counts the number of segments generated.
	generated int64
}

// NewFuzz returns a reasonable, general-purpose Fuzz.
func NewFuzz() *Fuzz {
	return &Fuzz{
		Width:       5,
		ChoiceWidth: 3,
		Alphabet:    "abcde",
		WordWidth:   3,

		Words:        4,
		Optionals:    2,
		Choices:      2,
		Placeholders: 1,
	}
}

// Gen generates random pattern text.
func (f *Fuzz) Gen(r *rand.Rand, d int) string {
	n := r.Intn(f.Width) + 1
	parts := make([]string, n)
	for i := range parts {
		parts[i] = f.genSegment(r, d)
	}
	return strings.Join(parts, " ")
}

func (f *Fuzz) genSegment(r *rand.Rand, d int) string {
	f.generated++

	m := f.Words + f.Placeholders
	if 0 < d {
		m += f.Optionals + f.Choices
	}

	t := r.Float64() * m
	if t < f.Words {
		return f.genWord(r)
	} else if t < f.Words+f.Placeholders {
		return "%object%"
	} else if t < f.Words+f.Placeholders+f.Optionals {
		return "[" + f.Gen(r, d-1) + "]"
	} else {
		alts := make([]string, r.Intn(f.ChoiceWidth)+1)
		for i := range alts {
			alts[i] = f.Gen(r, d-1)
			if c := alts[i][0]; 'a' <= c && c <= 'z' && r.Intn(3) == 0 {
				alts[i] = ":" + alts[i]
			}
		}
		return "(" + strings.Join(alts, "|") + ")"
	}
}

func (f *Fuzz) genWord(r *rand.Rand) string {
	n := r.Intn(f.WordWidth) + 1
	s := make([]byte, n)
	for i := range s {
		s[i] = f.Alphabet[r.Intn(len(f.Alphabet))]
	}
	return string(s)
}

// TestMatchFuzz matches every combination of a bunch of patterns.
//
// Verifies the spans of the results.
func TestMatchFuzz(t *testing.T) {
	var (
		pats = 500
		d    = 2
		r    = rand.New(rand.NewSource(42))
		f    = NewFuzz()
		m    = &Matcher{}

		attempted  = 0
		ambiguous  = 0
		maxResults = 0
	)

	then := time.Now()
	for i := 0; i < pats; i++ {
		src := f.Gen(r, d)
		p, err := Compile(src)
		if err != nil {
			t.Fatalf("%s: %s", src, err)
		}
		for _, c := range p.Combinations(64) {
			in := c
			for strings.Contains(in, "%*%") {
				in = strings.Replace(in, "%*%", f.genWord(r), 1)
			}
			attempted++
			rs, err := m.Matches(p, in)
			if err != nil {
				t.Fatal(err)
			}
			if len(rs) == 0 {
				t.Fatalf("%q didn't match %q", src, in)
			}
			if 1 < len(rs) {
				ambiguous++
			}
			if maxResults < len(rs) {
				maxResults = len(rs)
			}
			for _, res := range rs {
				for j := range p.Placeholders {
					s, ok := res.Text(j)
					if !ok {
						continue
					}
					if s == "" || strings.TrimSpace(s) != s {
						t.Fatalf("%q against %q: bad span %q", src, in, s)
					}
				}
			}
		}
	}
	elapsed := time.Now().Sub(then)

	fmt.Printf(`fuzzed      %d
ambiguous   %f%%
elapsed     %fms
maxResults  %d
generated   %d
`,
		attempted,
		100*float64(ambiguous)/float64(attempted),
		elapsed.Seconds()*1000,
		maxResults,
		f.generated)
}
