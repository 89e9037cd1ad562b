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
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func arith(op Operator, l, r Node) *Arithmetic {
	return &Arithmetic{
		Op:    op,
		Left:  l,
		Right: r,
		Type:  ResultType(op, l, r),
	}
}

func TestSimplify(t *testing.T) {
	x := &VariableRef{Name: "x"}

	tests := []struct {
		title string
		in    Node
		want  Node
	}{
		{
			"literal",
			NewLiteral(3),
			NewLiteral(int64(3)),
		},
		{
			"variable",
			x,
			x,
		},
		{
			"fold",
			arith(Add, NewLiteral(2), arith(Mul, NewLiteral(3), NewLiteral(4))),
			NewLiteral(int64(14)),
		},
		{
			"partial",
			arith(Add, arith(Sub, NewLiteral(5), NewLiteral(10)), x),
			&Arithmetic{
				Op:    Add,
				Left:  NewLiteral(int64(-5)),
				Right: x,
				Type:  TypeNumber,
			},
		},
		{
			"division by zero stays",
			arith(Div, NewLiteral(1), NewLiteral(0)),
			arith(Div, NewLiteral(1), NewLiteral(0)),
		},
		{
			"power",
			arith(Pow, NewLiteral(2), arith(Pow, NewLiteral(3), NewLiteral(2))),
			NewLiteral(512.0),
		},
	}

	for _, test := range tests {
		t.Run(test.title, func(t *testing.T) {
			got := Simplify(test.in)
			if diff := cmp.Diff(test.want, got, typeComparer); diff != "" {
				t.Fatal(diff)
			}
			again := Simplify(got)
			if diff := cmp.Diff(got, again, typeComparer); diff != "" {
				t.Fatalf("not idempotent: %s", diff)
			}
		})
	}
}

func TestSimplifyDoesNotModify(t *testing.T) {
	inner := arith(Mul, NewLiteral(3), NewLiteral(4))
	outer := arith(Add, &VariableRef{Name: "x"}, inner)
	before := outer.String()

	got := Simplify(outer)
	if got == Node(outer) {
		t.Fatal("expected a new node")
	}
	if outer.String() != before {
		t.Fatalf("modified: %s", outer)
	}
	if outer.Right != Node(inner) {
		t.Fatal("child replaced")
	}
}

func TestSimplifyUnchanged(t *testing.T) {
	n := arith(Add, &VariableRef{Name: "x"}, &VariableRef{Name: "y", Scope: Local})
	if got := Simplify(n); got != Node(n) {
		t.Fatalf("got a copy: %s", got)
	}
}

type testEnv map[string]Value

func (e testEnv) key(name string, scope Scope) string {
	if scope == Local {
		return "_" + name
	}
	return name
}

func (e testEnv) Get(_ context.Context, name string, scope Scope) (Value, error) {
	return e[e.key(name, scope)], nil
}

func (e testEnv) Set(_ context.Context, name string, scope Scope, v Value) error {
	e[e.key(name, scope)] = v
	return nil
}

func (e testEnv) Delete(_ context.Context, name string, scope Scope) error {
	delete(e, e.key(name, scope))
	return nil
}

func (e testEnv) Now() time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func TestSimplifyPreservesValue(t *testing.T) {
	ctx := context.Background()
	env := testEnv{"x": int64(7)}

	n := arith(Mul,
		arith(Add, NewLiteral(1), NewLiteral(2)),
		arith(Sub, &VariableRef{Name: "x"}, arith(Pow, NewLiteral(2), NewLiteral(2))))

	want, err := Evaluate(ctx, n, env)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Evaluate(ctx, Simplify(n), env)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("%v != %v", got, want)
	}
	if want != 9.0 {
		t.Fatal(want)
	}
}

func TestEvaluateNil(t *testing.T) {
	ctx := context.Background()
	env := testEnv{}
	x := &VariableRef{Name: "x"}

	v, err := Evaluate(ctx, arith(Add, x, NewLiteral(1)), env)
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(1) {
		t.Fatalf("%#v", v)
	}

	v, err = Evaluate(ctx, arith(Sub, NewLiteral(1), x), env)
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(1) {
		t.Fatalf("%#v", v)
	}

	v, err = Evaluate(ctx, arith(Add, x, x), env)
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Fatalf("%#v", v)
	}

	v, err = Evaluate(ctx, arith(Mul, arith(Add, x, x), NewLiteral(2)), env)
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Fatalf("%#v", v)
	}

	_, err = Evaluate(ctx, arith(Div, NewLiteral(1), NewLiteral(0)), env)
	if !errors.Is(err, DivisionByZero) {
		t.Fatal(err)
	}
}
