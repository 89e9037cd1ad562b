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

// Parse failures are user errors.  Registration errors are module
// errors.  Evaluation errors are script errors.

import (
	"errors"
	"fmt"
	"strings"
)

// ParseFailure occurs when no candidate (or combination of
// candidates) accounts for the text.
type ParseFailure struct {
	// Text is the normalized input.
	Text string

	Kind Kind

	// Offset is the furthest position into Text that any attempt
	// reached.
	Offset int

	// Expected names the accepted types, if any.
	Expected []string

	// Suggestion is the closest registered form, if any.
	Suggestion string

	// Err is set when parsing was cut off rather than exhausted:
	// TooDeep or match.ErrFrameBudget.
	Err error
}

func (e *ParseFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "can't understand %s %q", e.Kind, e.Text)
	if 0 < e.Offset && e.Offset < len(e.Text) {
		fmt.Fprintf(&b, " after %q", e.Text[:e.Offset])
	}
	if 0 < len(e.Expected) {
		fmt.Fprintf(&b, " (expected %s)", strings.Join(e.Expected, " or "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %s", e.Err)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "; did you mean %q?", e.Suggestion)
	}
	return b.String()
}

func (e *ParseFailure) Unwrap() error {
	return e.Err
}

// TooDeep occurs when resolution nests deeper than Parser.MaxDepth.
var TooDeep = errors.New("expression nested too deeply")

// AmbiguousCandidateWarning reports that candidates with the same
// priority as the accepted one also match the text.
//
// The accepted candidate is the one registered first.
type AmbiguousCandidateWarning struct {
	Text     string
	Priority int
	Accepted string
	Others   []string
}

func (w *AmbiguousCandidateWarning) Error() string {
	return fmt.Sprintf("%q matches %q and also %s at priority %d",
		w.Text, w.Accepted, quoteAll(w.Others), w.Priority)
}

func quoteAll(ss []string) string {
	acc := make([]string, len(ss))
	for i, s := range ss {
		acc[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(acc, ", ")
}

// ErrDuplicateHandle occurs when a registration would duplicate an
// existing entry: same owner, kind, pattern, and return type.
var ErrDuplicateHandle = errors.New("duplicate pattern handle")

// UnknownType occurs when a type name isn't in the TypeTable.
type UnknownType struct {
	Name string
}

func (e *UnknownType) Error() string {
	return fmt.Sprintf("unknown type %q", e.Name)
}

// BadRegistration occurs when a Registration is incomplete.
type BadRegistration struct {
	Owner   string
	Pattern string
	Msg     string
}

func (e *BadRegistration) Error() string {
	return fmt.Sprintf("bad registration of %q by %q: %s", e.Pattern, e.Owner, e.Msg)
}

// DivisionByZero occurs when evaluation divides by zero.
//
// Division by a literal zero is not folded away at parse time, so
// this error only ever comes from evaluation.
var DivisionByZero = errors.New("division by zero")

// NumericDomainError occurs when an operation on finite numbers has
// no real result, such as a fractional power of a negative number.
type NumericDomainError struct {
	Op          Operator
	Left, Right Value
}

func (e *NumericDomainError) Error() string {
	return fmt.Sprintf("%s %s %s has no real result",
		FormatValue(e.Left), e.Op, FormatValue(e.Right))
}

// OperandTypeError occurs when an arithmetic operand isn't a number.
type OperandTypeError struct {
	Op    Operator
	Value Value
}

func (e *OperandTypeError) Error() string {
	return fmt.Sprintf("'%s' needs a number, not %s", e.Op, FormatValue(e.Value))
}
