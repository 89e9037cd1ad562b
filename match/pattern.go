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
	"fmt"
	"strings"
)

// Segment is one piece of a compiled Pattern: a *Literal, an
// *Optional, a *Choice, or a *Placeholder.
type Segment interface {
	segment()
}

// Sequence is a list of segments matched left to right.
type Sequence []Segment

// Literal is text that must appear in the input.  Matching is
// case-insensitive.
type Literal struct {
	Text string
}

// Optional is a group that may be present or absent.  When present
// and Tag isn't empty, the tag is activated.
type Optional struct {
	Tag string
	Seq Sequence
}

// Alternative is one branch of a Choice.
type Alternative struct {
	Tag string
	Seq Sequence
}

// Choice requires exactly one of its alternatives.  Alternatives are
// tried in declaration order.
type Choice struct {
	Alts []Alternative
}

// Placeholder is a typed gap in a pattern.
//
// Types are the names as written in the pattern ("number",
// "string/number").  Resolving those names is the caller's business.
type Placeholder struct {
	Types  []string
	Single bool
	Index  int
}

func (*Literal) segment()     {}
func (*Optional) segment()    {}
func (*Choice) segment()      {}
func (*Placeholder) segment() {}

// Pattern is a compiled pattern.
type Pattern struct {
	// Source is the text that was compiled.
	Source string

	Seq Sequence

	// Placeholders is indexed by Placeholder.Index.
	Placeholders []*Placeholder
}

func (p *Pattern) String() string {
	return p.Source
}

// Compile parses pattern text.
//
// Grammar:
//
//	[x]          optional
//	(a|b)        choice
//	tag:a        alternative that activates "tag"
//	:word        shorthand for word:word
//	%type%       placeholder; %a/b% accepts either type
//	%*type%      plural placeholder
//	\x           literal x
func Compile(src string) (*Pattern, error) {
	c := &compiler{src: src}
	alts, err := c.alternatives(0)
	if err != nil {
		return nil, err
	}
	if c.pos < len(c.src) {
		return nil, c.errorf("unexpected '%c'", c.src[c.pos])
	}

	var seq Sequence
	if len(alts) == 1 && alts[0].Tag == "" {
		seq = alts[0].Seq
	} else {
		seq = Sequence{&Choice{Alts: alts}}
	}

	return &Pattern{
		Source:       src,
		Seq:          seq,
		Placeholders: c.placeholders,
	}, nil
}

// MustCompile is Compile that panics on error.
func MustCompile(src string) *Pattern {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return p
}

type compiler struct {
	src          string
	pos          int
	placeholders []*Placeholder
}

func (c *compiler) errorf(format string, args ...interface{}) error {
	return &PatternCompileError{
		Pattern: c.src,
		Offset:  c.pos,
		Msg:     fmt.Sprintf(format, args...),
	}
}

func isTagChar(b byte) bool {
	return b == '_' || b == '-' ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

// tag consumes a leading "name:" or ":" at the start of an
// alternative.
func (c *compiler) tag() (string, error) {
	if c.pos < len(c.src) && c.src[c.pos] == ':' {
		// ":word" keeps the word as literal text.
		c.pos++
		end := c.pos
		for end < len(c.src) && isTagChar(c.src[end]) {
			end++
		}
		if end == c.pos {
			return "", c.errorf("empty tag")
		}
		return strings.ToLower(c.src[c.pos:end]), nil
	}

	end := c.pos
	for end < len(c.src) && isTagChar(c.src[end]) {
		end++
	}
	if end < len(c.src) && c.src[end] == ':' && end > c.pos {
		name := strings.ToLower(c.src[c.pos:end])
		c.pos = end + 1
		return name, nil
	}
	return "", nil
}

// alternatives parses '|'-separated sequences up to (but not
// including) the close byte.  A close of zero means end of input.
func (c *compiler) alternatives(close byte) ([]Alternative, error) {
	var alts []Alternative
	for {
		tag, err := c.tag()
		if err != nil {
			return nil, err
		}
		seq, err := c.sequence(close)
		if err != nil {
			return nil, err
		}
		alts = append(alts, Alternative{Tag: tag, Seq: seq})
		if c.pos < len(c.src) && c.src[c.pos] == '|' {
			c.pos++
			continue
		}
		return alts, nil
	}
}

func (c *compiler) sequence(close byte) (Sequence, error) {
	var (
		seq Sequence
		lit strings.Builder
	)

	flush := func() {
		if lit.Len() == 0 {
			return
		}
		seq = append(seq, &Literal{Text: lit.String()})
		lit.Reset()
	}

	for {
		if c.pos >= len(c.src) {
			if close != 0 {
				return nil, c.errorf("missing '%c'", close)
			}
			flush()
			return seq, nil
		}

		b := c.src[c.pos]
		switch b {
		case '|':
			flush()
			return seq, nil

		case ')', ']':
			if b != close {
				return nil, c.errorf("unbalanced '%c'", b)
			}
			flush()
			return seq, nil

		case '[':
			flush()
			c.pos++
			alts, err := c.alternatives(']')
			if err != nil {
				return nil, err
			}
			c.pos++
			if len(alts) == 1 {
				seq = append(seq, &Optional{Tag: alts[0].Tag, Seq: alts[0].Seq})
			} else {
				seq = append(seq, &Optional{Seq: Sequence{&Choice{Alts: alts}}})
			}

		case '(':
			flush()
			c.pos++
			alts, err := c.alternatives(')')
			if err != nil {
				return nil, err
			}
			c.pos++
			seq = append(seq, &Choice{Alts: alts})

		case '%':
			flush()
			ph, err := c.placeholder()
			if err != nil {
				return nil, err
			}
			seq = append(seq, ph)

		case '\\':
			c.pos++
			if c.pos >= len(c.src) {
				return nil, c.errorf("trailing '\\'")
			}
			lit.WriteByte(c.src[c.pos])
			c.pos++

		default:
			lit.WriteByte(b)
			c.pos++
		}
	}
}

func (c *compiler) placeholder() (*Placeholder, error) {
	start := c.pos
	c.pos++
	end := strings.IndexByte(c.src[c.pos:], '%')
	if end < 0 {
		c.pos = start
		return nil, c.errorf("unterminated placeholder")
	}
	body := c.src[c.pos : c.pos+end]
	c.pos += end + 1

	ph := &Placeholder{
		Single: true,
		Index:  len(c.placeholders),
	}
	if strings.HasPrefix(body, "*") {
		ph.Single = false
		body = body[1:]
	}
	for _, t := range strings.Split(body, "/") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			c.pos = start
			return nil, c.errorf("empty placeholder type")
		}
		ph.Types = append(ph.Types, t)
	}

	c.placeholders = append(c.placeholders, ph)
	return ph, nil
}
