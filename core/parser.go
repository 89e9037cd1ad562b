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

package core

import (
	"sort"
	"strings"

	"github.com/xStarless-Skyx/skparse/match"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"
)

// DefaultMaxDepth is the default Parser.MaxDepth.
const DefaultMaxDepth = 64

// Parser turns text into trees using the entries in a Registry.
//
// A Parser is safe for concurrent use as long as its fields aren't
// changed.  Each parse works from one Snapshot of the Registry, so a
// concurrent registration is either completely visible to a parse or
// not at all.
type Parser struct {
	Registry *Registry

	// Matcher defaults to match.DefaultMatcher.
	Matcher *match.Matcher

	// MaxDepth caps the nesting of resolutions.  Zero means
	// DefaultMaxDepth.
	MaxDepth int

	Logger *zap.Logger

	// OnWarning, if not nil, gets each ambiguity warning.
	OnWarning func(*AmbiguousCandidateWarning)
}

// NewParser makes a Parser with the defaults.  The logger can be nil.
func NewParser(reg *Registry, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		Registry: reg,
		Matcher:  match.DefaultMatcher,
		MaxDepth: DefaultMaxDepth,
		Logger:   logger,
	}
}

// Parse parses an expression that produces one of the expected
// types.  With no expected types, any expression will do.
//
// The tree is simplified.  A returned error is a *ParseFailure.
func (p *Parser) Parse(text string, expected ...*Type) (Node, error) {
	return p.ParseKind(Expression, text, expected...)
}

// ParseCondition parses a condition.
func (p *Parser) ParseCondition(text string) (Node, error) {
	return p.ParseKind(Condition, text)
}

// ParseEffect parses an effect.
func (p *Parser) ParseEffect(text string) (Node, error) {
	return p.ParseKind(Effect, text)
}

// ParseKind parses text as the given kind of element.
func (p *Parser) ParseKind(kind Kind, text string, expected ...*Type) (Node, error) {
	s := &session{
		p:      p,
		snap:   p.Registry.Snapshot(),
		in:     match.Normalize(text),
		logger: p.logger(),
		memo:   make(map[memoKey]memoVal),
		warned: make(map[string]bool),
	}

	n, ok := s.resolve(s.in, 0, kind, expected, 0)
	s.flushWarnings()
	if !ok {
		return nil, s.failure(kind, expected)
	}
	return Simplify(n), nil
}

func (p *Parser) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func (p *Parser) matcher() *match.Matcher {
	if p.Matcher == nil {
		return match.DefaultMatcher
	}
	return p.Matcher
}

func (p *Parser) maxDepth() int {
	if p.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return p.MaxDepth
}

type memoKey struct {
	base   int
	text   string
	kind   Kind
	accept string
}

type memoVal struct {
	n  Node
	ok bool
}

// session is the state of one parse.
type session struct {
	p      *Parser
	snap   *Snapshot
	in     string
	logger *zap.Logger

	memo     map[memoKey]memoVal
	furthest int
	err      error

	warnings []*AmbiguousCandidateWarning
	warned   map[string]bool
}

// resolve finds the first candidate that accounts for all of the
// text.  The base is the text's offset in the input.
func (s *session) resolve(text string, base int, kind Kind, accept []*Type, depth int) (Node, bool) {
	if s.err != nil {
		return nil, false
	}
	if s.p.maxDepth() < depth {
		s.err = TooDeep
		return nil, false
	}
	if text == "" || (0 < depth && !balanced(text)) {
		return nil, false
	}

	key := memoKey{
		base:   base,
		text:   text,
		kind:   kind,
		accept: typesKey(accept),
	}
	if m, have := s.memo[key]; have {
		return m.n, m.ok
	}

	// A placeholder that covers all of the text comes straight back
	// here with the same key.  That attempt fails, and the candidate
	// backtracks.
	s.memo[key] = memoVal{}

	n, ok := s.candidates(text, base, kind, accept, depth)
	if s.err != nil {
		return nil, false
	}
	s.memo[key] = memoVal{n: n, ok: ok}
	return n, ok
}

func (s *session) candidates(text string, base int, kind Kind, accept []*Type, depth int) (Node, bool) {
	if kind == Expression {
		if inner, off, is := unwrap(text); is {
			if n, ok := s.resolve(inner, base+off, kind, accept, depth+1); ok {
				return n, true
			}
			if s.err != nil {
				return nil, false
			}
		}
	}

	entries := s.snap.Entries(kind)
	for i, e := range entries {
		if kind == Expression && !accepts(accept, e.Returns) {
			continue
		}

		var (
			n  Node
			ok bool
		)
		if e.Terminal != nil {
			r := &resolver{
				s:     s,
				base:  base,
				depth: depth,
			}
			n, ok = e.Terminal(r, text)
			if ok && kind == Expression && !accepts(accept, n.Returns()) {
				ok = false
			}
		} else {
			n, ok = s.try(e, text, base, depth)
		}
		if s.err != nil {
			return nil, false
		}
		if ok {
			s.checkAmbiguity(e, entries[i+1:], text, kind, accept)
			return n, true
		}
	}
	return nil, false
}

// try matches one pattern entry against the text, resolving the
// placeholders of each match until an Element accepts.
func (s *session) try(e *Entry, text string, base int, depth int) (Node, bool) {
	var found Node

	furthest, err := s.p.matcher().WalkExact(e.Compiled, text, func(r *match.Result) bool {
		args := make([]Node, len(e.Accepts))
		for i := range args {
			span, present := r.Span(i)
			if !present {
				continue
			}
			a, ok := s.resolve(text[span.Start:span.End], base+span.Start, Expression, e.Accepts[i], depth+1)
			if !ok {
				return s.err == nil
			}
			args[i] = Simplify(a)
		}

		b := &Binding{
			Result: r,
			Handle: e.Handle,
			Plural: e.Plural,
		}
		el := e.New()
		if err := el.Init(args, b); err != nil {
			s.logger.Debug("candidate rejected",
				zap.String("text", text),
				zap.String("pattern", e.Pattern),
				zap.String("owner", e.Owner),
				zap.Error(err))
			return true
		}

		if bl, is := el.(Builder); is {
			n, err := bl.Build(args, b)
			if err != nil {
				s.logger.Debug("candidate build failed",
					zap.String("text", text),
					zap.String("pattern", e.Pattern),
					zap.Error(err))
				return true
			}
			found = n
			return false
		}

		found = &Call{
			Handle:  e.Handle,
			Kind:    e.Kind,
			Pattern: e.Pattern,
			Element: el,
			Args:    args,
			Binding: b,
			Type:    e.Returns,
		}
		return false
	})

	if s.furthest < base+furthest {
		s.furthest = base + furthest
	}
	if err != nil {
		if s.err == nil {
			s.err = err
		}
		return nil, false
	}
	return found, found != nil
}

// checkAmbiguity looks for later entries with the same priority as
// the accepted one that also match the text.
func (s *session) checkAmbiguity(accepted *Entry, rest []*Entry, text string, kind Kind, accept []*Type) {
	if accepted.Compiled == nil {
		return
	}
	var others []string
	for _, o := range rest {
		if o.Priority != accepted.Priority {
			break
		}
		if o.Compiled == nil || (kind == Expression && !accepts(accept, o.Returns)) {
			continue
		}
		matched := false
		_, err := s.p.matcher().WalkExact(o.Compiled, text, func(*match.Result) bool {
			matched = true
			return false
		})
		if err == nil && matched {
			others = append(others, o.Pattern)
		}
	}
	if len(others) == 0 {
		return
	}

	key := text + "\x00" + string(accepted.Handle)
	if s.warned[key] {
		return
	}
	s.warned[key] = true
	s.warnings = append(s.warnings, &AmbiguousCandidateWarning{
		Text:     text,
		Priority: accepted.Priority,
		Accepted: accepted.Pattern,
		Others:   others,
	})
}

func (s *session) flushWarnings() {
	for _, w := range s.warnings {
		s.logger.Warn("ambiguous text",
			zap.String("text", w.Text),
			zap.String("accepted", w.Accepted),
			zap.Strings("others", w.Others),
			zap.Int("priority", w.Priority))
		if s.p.OnWarning != nil {
			s.p.OnWarning(w)
		}
	}
}

func (s *session) failure(kind Kind, expected []*Type) *ParseFailure {
	f := &ParseFailure{
		Text:   s.in,
		Kind:   kind,
		Offset: s.furthest,
		Err:    s.err,
	}
	for _, t := range expected {
		f.Expected = append(f.Expected, t.Name)
	}
	f.Suggestion = Suggest(s.snap, kind, s.in)

	s.logger.Debug("parse failed",
		zap.String("text", s.in),
		zap.String("kind", kind.String()),
		zap.Int("offset", f.Offset),
		zap.Error(s.err))

	return f
}

// resolver gives terminals access to their session.
type resolver struct {
	s     *session
	base  int
	depth int
}

func (r *resolver) Resolve(text string, offset int, accept ...*Type) (Node, bool) {
	return r.s.resolve(text, r.base+offset, Expression, accept, r.depth+1)
}

func (r *resolver) Types() *TypeTable {
	return r.s.p.Registry.Types()
}

func accepts(accept []*Type, t *Type) bool {
	if len(accept) == 0 {
		return true
	}
	for _, a := range accept {
		if Compatible(t, a) {
			return true
		}
	}
	return false
}

func typesKey(ts []*Type) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name
	}
	return strings.Join(names, "/")
}

// balanced reports whether quotes, parentheses, and braces are
// balanced outside of quoted text.
func balanced(text string) bool {
	var (
		parens, braces int
		quoted         bool
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quoted {
			if c == '"' {
				quoted = false
			}
			continue
		}
		switch c {
		case '"':
			quoted = true
		case '(':
			parens++
		case ')':
			if parens--; parens < 0 {
				return false
			}
		case '{':
			braces++
		case '}':
			if braces--; braces < 0 {
				return false
			}
		}
	}
	return !quoted && parens == 0 && braces == 0
}

// unwrap strips parentheses that enclose all of the text.  Returns
// the trimmed inside and its offset.
func unwrap(text string) (string, int, bool) {
	if len(text) < 2 || text[0] != '(' || text[len(text)-1] != ')' {
		return "", 0, false
	}
	var (
		depth  int
		quoted bool
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quoted {
			if c == '"' {
				quoted = false
			}
			continue
		}
		switch c {
		case '"':
			quoted = true
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i < len(text)-1 {
				return "", 0, false
			}
		}
	}
	if depth != 0 {
		return "", 0, false
	}

	inner := text[1 : len(text)-1]
	trimmed := strings.TrimLeft(inner, " ")
	off := 1 + len(inner) - len(trimmed)
	return strings.TrimRight(trimmed, " "), off, true
}

// Suggest returns the registered form closest to the text.
func Suggest(s *Snapshot, kind Kind, text string) string {
	var forms []string
	for _, e := range s.Entries(kind) {
		if e.Compiled == nil {
			continue
		}
		forms = append(forms, e.Compiled.Combinations(16)...)
	}
	if len(forms) == 0 || text == "" {
		return ""
	}

	ranks := fuzzy.RankFindFold(text, forms)
	if 0 < len(ranks) {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	var (
		best     string
		distance = len(text)/2 + 1
		lower    = strings.ToLower(text)
	)
	for _, f := range forms {
		if d := fuzzy.LevenshteinDistance(lower, strings.ToLower(f)); d < distance {
			best, distance = f, d
		}
	}
	return best
}
