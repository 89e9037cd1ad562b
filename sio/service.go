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

// Package sio exposes parsing and evaluation to the outside world:
// JSON requests over stdio, WebSockets, and MQTT.
package sio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/xStarless-Skyx/skparse/core"
	"github.com/xStarless-Skyx/skparse/storage"
	"github.com/xStarless-Skyx/skparse/tools"

	"go.uber.org/zap"
)

// Request asks for text to be parsed and maybe evaluated.
type Request struct {
	ID string `json:"id,omitempty"`

	Text string `json:"text"`

	// Kind is expression (the default), condition, or effect.
	Kind string `json:"kind,omitempty"`

	// Expect is an optional type name.
	Expect string `json:"expect,omitempty"`

	Eval bool `json:"eval,omitempty"`

	// Locals are the local variables for evaluation.
	Locals map[string]interface{} `json:"locals,omitempty"`

	// ReplyTo overrides the reply topic for MQTT.
	ReplyTo string `json:"replyTo,omitempty"`
}

// Response is the answer to a Request.
type Response struct {
	ID string `json:"id,omitempty"`

	// Tree is the parse tree as rendered by tools.Dump.
	Tree map[string]interface{} `json:"tree,omitempty"`

	// Source is the tree's String().
	Source string `json:"source,omitempty"`

	Value interface{} `json:"value,omitempty"`

	// Locals are the local variables after evaluation.
	Locals map[string]interface{} `json:"locals,omitempty"`

	Warnings []string `json:"warnings,omitempty"`

	Error *ErrorReport `json:"error,omitempty"`
}

// ErrorReport describes a failure.  Offset and Suggestion are only
// given for parse failures.
type ErrorReport struct {
	Offset     int      `json:"offset"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Expected   []string `json:"expected,omitempty"`
}

// Report makes an ErrorReport.
func Report(err error) *ErrorReport {
	r := &ErrorReport{
		Message: err.Error(),
	}
	var pf *core.ParseFailure
	if errors.As(err, &pf) {
		r.Offset = pf.Offset
		r.Suggestion = pf.Suggestion
		r.Expected = pf.Expected
	}
	return r
}

// Service answers Requests.
type Service struct {
	Parser  *core.Parser
	Storage storage.Storage
	Logger  *zap.Logger

	// Timeout caps each evaluation.  Zero means no limit.
	Timeout time.Duration

	// Clock is given to each evaluation's Env.
	Clock func() time.Time

	// mu serializes evaluations, which can read and write the
	// same global variables.
	mu sync.Mutex
}

// NewService makes a Service.  The logger can be nil.
func NewService(p *core.Parser, s storage.Storage, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Parser:  p,
		Storage: s,
		Logger:  logger,
	}
}

// Handle processes one Request.  Problems are reported in the
// Response.
func (s *Service) Handle(ctx context.Context, req *Request) *Response {
	r := &Response{
		ID: req.ID,
	}
	fail := func(err error) *Response {
		s.Logger.Debug("request failed", zap.String("id", req.ID), zap.String("text", req.Text), zap.Error(err))
		r.Error = Report(err)
		return r
	}

	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		return fail(err)
	}
	var expected []*core.Type
	if req.Expect != "" {
		t := s.Parser.Registry.Types().Get(req.Expect)
		if t == nil {
			return fail(&core.UnknownType{Name: req.Expect})
		}
		expected = append(expected, t)
	}

	p := *s.Parser
	p.OnWarning = func(w *core.AmbiguousCandidateWarning) {
		r.Warnings = append(r.Warnings, w.Error())
	}

	n, err := p.ParseKind(kind, req.Text, expected...)
	if err != nil {
		return fail(err)
	}
	r.Tree = tools.Dump(n)
	r.Source = n.String()

	if !req.Eval {
		return r
	}

	if s.Storage == nil {
		return fail(errors.New("no storage for evaluation"))
	}
	env := storage.NewEnv(s.Storage)
	env.Clock = s.Clock
	locals := make(map[string]core.Value, len(req.Locals))
	for name, v := range req.Locals {
		locals[name] = core.FromData(v)
	}
	env.SetLocals(locals)

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	s.mu.Lock()
	var v core.Value
	if kind == core.Condition {
		v, err = core.Test(ctx, n, env)
	} else {
		v, err = core.Evaluate(ctx, n, env)
	}
	s.mu.Unlock()
	if err != nil {
		return fail(err)
	}

	r.Value = v
	if locals := env.Locals(); 0 < len(locals) {
		r.Locals = make(map[string]interface{}, len(locals))
		for k, v := range locals {
			r.Locals[k] = v
		}
	}
	return r
}

// HandleJSON decodes a Request, handles it, and encodes the
// Response.
func (s *Service) HandleJSON(ctx context.Context, bs []byte) ([]byte, *Request) {
	var req Request
	d := json.NewDecoder(bytes.NewReader(bs))
	d.UseNumber()

	var r *Response
	if err := d.Decode(&req); err != nil {
		r = &Response{
			Error: Report(err),
		}
	} else {
		r = s.Handle(ctx, &req)
	}

	js, err := json.Marshal(r)
	if err != nil {
		// A value JSON can't represent.
		r.Value = core.FormatValue(r.Value)
		r.Locals = nil
		if js, err = json.Marshal(r); err != nil {
			js, _ = json.Marshal(&Response{ID: r.ID, Error: Report(err)})
		}
	}
	return js, &req
}
