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
	"context"
	"time"

	"github.com/xStarless-Skyx/skparse/match"
)

// Element is the semantic half of a registered pattern.
//
// A Registration's New makes a fresh Element for every match
// attempt, so an Element can remember what Init saw.
type Element interface {
	// Init accepts or rejects a structural match.  The args are
	// already simplified, one per placeholder, nil for a placeholder
	// in an absent optional group.
	//
	// A non-nil error rejects the candidate, and resolution moves on
	// to the next one.
	Init(args []Node, b *Binding) error

	// Eval computes the element's value from the values of its
	// arguments.  A condition returns a bool.  An effect does its
	// work through the Env and returns nil.
	Eval(ctx context.Context, env Env, args []Value) (Value, error)
}

// Builder is an Element that produces its own Node rather than a
// *Call.  Build is called after Init succeeds.
type Builder interface {
	Element
	Build(args []Node, b *Binding) (Node, error)
}

// Binding is what the matcher found: the placeholder spans and the
// activated tags.
type Binding struct {
	*match.Result

	Handle Handle

	// Plural is the entry's Plural.
	Plural []bool
}

// ElementFuncs makes an Element from functions.  A nil InitFunc
// accepts everything.  A nil EvalFunc returns nil.
type ElementFuncs struct {
	InitFunc func(args []Node, b *Binding) error
	EvalFunc func(ctx context.Context, env Env, args []Value) (Value, error)
}

func (e *ElementFuncs) Init(args []Node, b *Binding) error {
	if e.InitFunc == nil {
		return nil
	}
	return e.InitFunc(args, b)
}

func (e *ElementFuncs) Eval(ctx context.Context, env Env, args []Value) (Value, error) {
	if e.EvalFunc == nil {
		return nil, nil
	}
	return e.EvalFunc(ctx, env, args)
}

// Resolver lets a terminal producer parse pieces of its text.
type Resolver interface {
	// Resolve parses text as an expression of one of the accepted
	// types.  The offset is the text's position within the text
	// given to the terminal.
	Resolve(text string, offset int, accept ...*Type) (Node, bool)

	Types() *TypeTable
}

// TerminalFunc tries to produce a Node directly from text.
type TerminalFunc func(r Resolver, text string) (Node, bool)

// Env is what evaluation needs from the outside world.
type Env interface {
	// Get returns nil for an unset variable.
	Get(ctx context.Context, name string, scope Scope) (Value, error)

	Set(ctx context.Context, name string, scope Scope, v Value) error

	Delete(ctx context.Context, name string, scope Scope) error

	Now() time.Time
}
