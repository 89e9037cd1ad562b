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

// Package match implements the pattern model and the backtracking
// matcher.
package match

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type Matcher struct {
	// MaxFrames caps the number of backtrack frames a single
	// Walk may use.  Zero means no limit.
	//
	// Every segment attempt is a frame.  A pattern with many
	// adjacent placeholders matched against long input can
	// otherwise take a very long time to fail.
	MaxFrames int
}

var DefaultMatcher = &Matcher{
	MaxFrames: 1 << 16,
}

// Span is a placeholder binding given as byte offsets into the
// normalized input.
type Span struct {
	Start, End int
}

var absent = Span{Start: -1, End: -1}

// Result is one successful way to match a pattern against input.
//
// Results are immutable.
type Result struct {
	Pattern *Pattern

	// Input is the normalized input.
	Input string

	// Consumed is the length of input consumed, which is all of
	// it.
	Consumed int

	spans []Span
	tags  []string
}

// Span returns the binding for the given placeholder index.  The
// second value is false when the placeholder was in an optional
// group that wasn't present.
func (r *Result) Span(i int) (Span, bool) {
	if i < 0 || len(r.spans) <= i {
		return absent, false
	}
	s := r.spans[i]
	return s, s.Start >= 0
}

// Text returns the input bound to the given placeholder index.
func (r *Result) Text(i int) (string, bool) {
	s, ok := r.Span(i)
	if !ok {
		return "", false
	}
	return r.Input[s.Start:s.End], true
}

// HasTag reports whether a choice branch or optional group that
// activates the given tag was taken.
func (r *Result) HasTag(tag string) bool {
	tag = strings.ToLower(tag)
	for _, t := range r.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Tags returns the activated tags in activation order.
func (r *Result) Tags() []string {
	acc := make([]string, len(r.tags))
	copy(acc, r.tags)
	return acc
}

// Normalize trims the input and collapses whitespace runs outside
// double-quoted strings to a single space.
func Normalize(s string) string {
	var (
		b      strings.Builder
		quoted bool
		space  bool
	)
	b.Grow(len(s))
	for _, r := range strings.TrimSpace(s) {
		if r == '"' {
			quoted = !quoted
		}
		if !quoted && unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Walk calls fn with each Result of matching the pattern against the
// text, in backtracking order, until fn returns false or there are
// no more results.
//
// The returned offset is the furthest position into the normalized
// input that any attempt reached, which is useful for reporting
// failures.
func (m *Matcher) Walk(p *Pattern, text string, fn func(*Result) bool) (int, error) {
	return m.WalkExact(p, Normalize(text), fn)
}

// WalkExact is Walk for text that's already normalized.  Spans of a
// Result are valid for such text, so they can be walked in turn.
func (m *Matcher) WalkExact(p *Pattern, text string, fn func(*Result) bool) (int, error) {
	w := &walker{
		m:     m,
		p:     p,
		in:    text,
		spans: make([]Span, len(p.Placeholders)),
		fn:    fn,
	}
	for i := range w.spans {
		w.spans[i] = absent
	}
	w.seq(p.Seq, 0, w.done)
	return w.furthest, w.err
}

// Matches returns all Results.
//
// A pattern that's ambiguous for the given text has more than one.
func (m *Matcher) Matches(p *Pattern, text string) ([]*Result, error) {
	var acc []*Result
	_, err := m.Walk(p, text, func(r *Result) bool {
		acc = append(acc, r)
		return true
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Test reports whether the pattern matches the text at all.
func (m *Matcher) Test(p *Pattern, text string) (bool, error) {
	found := false
	_, err := m.Walk(p, text, func(r *Result) bool {
		found = true
		return false
	})
	return found, err
}

// Furthest returns the furthest offset into the normalized text that
// any attempt reached.  Zero means not even the first literal
// matched.
func (m *Matcher) Furthest(p *Pattern, text string) (int, error) {
	return m.Walk(p, text, func(r *Result) bool {
		return false
	})
}

// Match uses the DefaultMatcher.
func Match(p *Pattern, text string) ([]*Result, error) {
	return DefaultMatcher.Matches(p, text)
}

type walker struct {
	m        *Matcher
	p        *Pattern
	in       string
	spans    []Span
	tags     []string
	frames   int
	furthest int
	fn       func(*Result) bool
	err      error
}

// done is the final continuation.  Returns true to stop the walk.
func (w *walker) done(pos int) bool {
	if pos > w.furthest {
		w.furthest = pos
	}
	if pos != len(w.in) {
		return false
	}

	spans := make([]Span, len(w.spans))
	copy(spans, w.spans)

	var tags []string
	for _, t := range w.tags {
		dup := false
		for _, have := range tags {
			if have == t {
				dup = true
				break
			}
		}
		if !dup {
			tags = append(tags, t)
		}
	}

	r := &Result{
		Pattern:  w.p,
		Input:    w.in,
		Consumed: pos,
		spans:    spans,
		tags:     tags,
	}
	return !w.fn(r)
}

// seq matches segs starting at pos and then calls k.  Returns true
// when the walk should stop.
func (w *walker) seq(segs Sequence, pos int, k func(int) bool) bool {
	if w.err != nil {
		return true
	}
	w.frames++
	if 0 < w.m.MaxFrames && w.m.MaxFrames < w.frames {
		w.err = ErrFrameBudget
		return true
	}

	if len(segs) == 0 {
		return k(pos)
	}

	rest := segs[1:]
	next := func(at int) bool {
		return w.seq(rest, at, k)
	}

	switch s := segs[0].(type) {
	case *Literal:
		at, ok := w.literal(s.Text, pos)
		if !ok {
			return false
		}
		return next(at)

	case *Optional:
		// Present first.
		if s.Tag != "" {
			w.tags = append(w.tags, s.Tag)
		}
		stop := w.seq(s.Seq, pos, next)
		if s.Tag != "" {
			w.tags = w.tags[:len(w.tags)-1]
		}
		if stop {
			return true
		}
		return next(pos)

	case *Choice:
		for _, alt := range s.Alts {
			if alt.Tag != "" {
				w.tags = append(w.tags, alt.Tag)
			}
			stop := w.seq(alt.Seq, pos, next)
			if alt.Tag != "" {
				w.tags = w.tags[:len(w.tags)-1]
			}
			if stop {
				return true
			}
		}
		return false

	case *Placeholder:
		return w.placeholder(s, pos, next)
	}

	return false
}

// placeholder tries the longest span first.  A span never starts or
// ends with a space.
func (w *walker) placeholder(ph *Placeholder, pos int, next func(int) bool) bool {
	if len(w.in) <= pos || w.in[pos] == ' ' {
		return false
	}
	for end := len(w.in); pos < end; end-- {
		if end < len(w.in) && !utf8.RuneStart(w.in[end]) {
			continue
		}
		if w.in[end-1] == ' ' {
			continue
		}
		w.spans[ph.Index] = Span{Start: pos, End: end}
		if next(end) {
			return true
		}
	}
	w.spans[ph.Index] = absent
	return false
}

// literal matches text at pos.
//
// A space in the literal matches a space in the input or, when the
// input is already at a word boundary, nothing.
func (w *walker) literal(text string, pos int) (int, bool) {
	at := pos
	for _, r := range text {
		if r == ' ' {
			switch {
			case at < len(w.in) && w.in[at] == ' ':
				at++
			case at == 0 || at == len(w.in) || w.in[at-1] == ' ':
			default:
				return pos, false
			}
			continue
		}
		if len(w.in) <= at {
			return pos, false
		}
		got, size := utf8.DecodeRuneInString(w.in[at:])
		if !foldEqual(r, got) {
			return pos, false
		}
		at += size
		if at > w.furthest {
			w.furthest = at
		}
	}
	return at, true
}

func foldEqual(a, b rune) bool {
	if a == b {
		return true
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}
