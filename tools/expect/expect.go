/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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

// Package expect is a tool for testing syntax.
//
// You construct a Session, which has cases: script text and what
// should come of it.  Then run the session against a parser to see if
// the expectations hold.
//
// An expectation can be a tree, a value, or an error.
//
// See the "check" command of ../../cmd/skparse for command-line use.
package expect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xStarless-Skyx/skparse/core"
	"github.com/xStarless-Skyx/skparse/storage"
	"github.com/xStarless-Skyx/skparse/storage/mem"

	"github.com/google/go-cmp/cmp"
	"github.com/jsccast/yaml"
	"go.uber.org/zap"
)

// Case is one text and its expected outcome.
type Case struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	Text string `json:"text" yaml:"text"`

	// Kind is expression (the default), condition, or effect.
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Expect is an optional type name the expression must produce.
	Expect string `json:"expect,omitempty" yaml:"expect,omitempty"`

	// Tree, if given, must equal the String() of the parsed tree.
	Tree string `json:"tree,omitempty" yaml:"tree,omitempty"`

	// Eval requests evaluation.  A Value implies Eval.
	Eval bool `json:"eval,omitempty" yaml:"eval,omitempty"`

	// Value is the expected value, compared after both are
	// canonicalized as JSON.
	Value interface{} `json:"value,omitempty" yaml:"value,omitempty"`

	// Error, if given, must be a substring of the parse or
	// evaluation error.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Locals are set before evaluation.
	Locals map[string]interface{} `json:"locals,omitempty" yaml:"locals,omitempty"`

	// Globals are expected global variable values after
	// evaluation.
	Globals map[string]interface{} `json:"globals,omitempty" yaml:"globals,omitempty"`
}

// Session is mostly a sequence of Cases.
type Session struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Globals are set before the first case.  Cases share the
	// global variables.
	Globals map[string]interface{} `json:"globals,omitempty" yaml:"globals,omitempty"`

	Cases []Case `json:"cases" yaml:"cases"`

	// Now is the clock for evaluation as an RFC 3339 string.
	// Defaults to the current time.
	Now string `json:"now,omitempty" yaml:"now,omitempty"`

	// Timeout is the optional timeout for each evaluation.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	Logger *zap.Logger `json:"-" yaml:"-"`
}

// Failure reports a case that didn't go as expected.
type Failure struct {
	Index int
	Text  string
	Msg   string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("case %d (%q): %s", f.Index, f.Text, f.Msg)
}

// Parse reads a Session from YAML (or JSON).
func Parse(bs []byte) (*Session, error) {
	var s Session
	if err := yaml.Unmarshal(bs, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Run processes all the Cases in the Session.  The returned error
// joins a *Failure for every case that failed.
func (s *Session) Run(ctx context.Context, p *core.Parser) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var clock func() time.Time
	if s.Now != "" {
		now, err := time.Parse(time.RFC3339, s.Now)
		if err != nil {
			return err
		}
		clock = func() time.Time {
			return now
		}
	}

	st := mem.NewStorage()
	for name, v := range s.Globals {
		if err := st.Put(ctx, name, core.FromData(v)); err != nil {
			return err
		}
	}

	var fails []error
	for i := range s.Cases {
		c := &s.Cases[i]
		env := storage.NewEnv(st)
		env.Clock = clock
		env.SetLocals(locals(c.Locals))
		msg := s.run(ctx, p, env, c)
		if msg == "" {
			logger.Debug("case passed", zap.Int("case", i), zap.String("text", c.Text))
			continue
		}
		logger.Info("case failed", zap.Int("case", i), zap.String("text", c.Text), zap.String("why", msg))
		fails = append(fails, &Failure{
			Index: i,
			Text:  c.Text,
			Msg:   msg,
		})
	}
	return errors.Join(fails...)
}

// run returns a description of what went wrong, if anything.
func (s *Session) run(ctx context.Context, p *core.Parser, env *storage.Env, c *Case) string {
	kind, err := core.ParseKind(c.Kind)
	if err != nil {
		return err.Error()
	}

	var expected []*core.Type
	if c.Expect != "" {
		t := p.Registry.Types().Get(c.Expect)
		if t == nil {
			return fmt.Sprintf("unknown type %q", c.Expect)
		}
		expected = append(expected, t)
	}

	failed := func(err error) string {
		if c.Error == "" {
			return "unexpected error: " + err.Error()
		}
		if !strings.Contains(err.Error(), c.Error) {
			return fmt.Sprintf("error %q doesn't contain %q", err, c.Error)
		}
		return ""
	}

	n, err := p.ParseKind(kind, c.Text, expected...)
	if err != nil {
		return failed(err)
	}
	if c.Tree != "" && n.String() != c.Tree {
		return fmt.Sprintf("tree %s, expected %s", n, c.Tree)
	}

	if !c.Eval && c.Value == nil && c.Globals == nil {
		if c.Error != "" {
			return "no error"
		}
		return ""
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	var v core.Value
	if kind == core.Condition {
		v, err = core.Test(ctx, n, env)
	} else {
		v, err = core.Evaluate(ctx, n, env)
	}
	if err != nil {
		return failed(err)
	}
	if c.Error != "" {
		return "no error"
	}

	if c.Value != nil {
		if diff, err := compare(c.Value, v); err != nil {
			return err.Error()
		} else if diff != "" {
			return "value (-want +got):\n" + diff
		}
	}

	for name, want := range c.Globals {
		got, err := env.Get(ctx, name, core.Global)
		if err != nil {
			return err.Error()
		}
		if diff, err := compare(want, got); err != nil {
			return err.Error()
		} else if diff != "" {
			return fmt.Sprintf("global %s (-want +got):\n%s", name, diff)
		}
	}

	return ""
}

func locals(m map[string]interface{}) map[string]core.Value {
	acc := make(map[string]core.Value, len(m))
	for k, v := range m {
		acc[k] = core.FromData(v)
	}
	return acc
}

func compare(want, got interface{}) (string, error) {
	w, err := core.Canonicalize(want)
	if err != nil {
		return "", err
	}
	g, err := core.Canonicalize(got)
	if err != nil {
		return "", err
	}
	return cmp.Diff(w, g), nil
}
