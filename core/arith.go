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
	"errors"
	"fmt"
	"math"
	"strings"
)

// Operator is an arithmetic operator.
type Operator byte

const (
	Add Operator = '+'
	Sub Operator = '-'
	Mul Operator = '*'
	Div Operator = '/'
	Pow Operator = '^'
)

func (op Operator) String() string {
	return string(op)
}

// Binding power.  Higher binds tighter.
var precedence = map[Operator]int{
	Add: 50,
	Sub: 50,
	Mul: 60,
	Div: 60,
	Pow: 80,
}

// unaryPrecedence is between multiplication and exponentiation, so
// "-2 ^ 2" is -4 and "-2 * 3" is (-2) * 3.
const unaryPrecedence = 70

func isOperator(b byte) bool {
	_, is := precedence[Operator(b)]
	return is
}

// Apply computes an operator on two values.
//
// On two integers, "+", "-", and "*" are exact, falling back to
// float64 on overflow.  "/" and "^" always produce a float64, as does
// any operation with a float64 operand.
func Apply(op Operator, left, right Value) (Value, error) {
	li, lf, lint, err := numeric(op, left)
	if err != nil {
		return nil, err
	}
	ri, rf, rint, err := numeric(op, right)
	if err != nil {
		return nil, err
	}
	ints := lint && rint

	switch op {
	case Add:
		if ints {
			if sum := li + ri; (li^sum)&(ri^sum) >= 0 {
				return sum, nil
			}
		}
		return lf + rf, nil

	case Sub:
		if ints {
			if diff := li - ri; (li^ri)&(li^diff) >= 0 {
				return diff, nil
			}
		}
		return lf - rf, nil

	case Mul:
		if ints {
			if p, ok := mulExact(li, ri); ok {
				return p, nil
			}
		}
		return lf * rf, nil

	case Div:
		if rf == 0 {
			return nil, DivisionByZero
		}
		return lf / rf, nil

	case Pow:
		x := math.Pow(lf, rf)
		if math.IsNaN(x) && !math.IsNaN(lf) && !math.IsNaN(rf) {
			return nil, &NumericDomainError{
				Op:    op,
				Left:  left,
				Right: right,
			}
		}
		return x, nil
	}

	return nil, fmt.Errorf("unknown operator '%s'", op)
}

func numeric(op Operator, v Value) (int64, float64, bool, error) {
	switch vv := v.(type) {
	case int64:
		return vv, float64(vv), true, nil
	case int:
		return int64(vv), float64(vv), true, nil
	case float64:
		return 0, vv, false, nil
	default:
		return 0, 0, false, &OperandTypeError{
			Op:    op,
			Value: v,
		}
	}
}

func mulExact(x, y int64) (int64, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}
	p := x * y
	if (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
		return 0, false
	}
	if p/y != x {
		return 0, false
	}
	return p, true
}

// ResultType is integer when both operands are integers and the
// operator keeps integers integral.  Otherwise it's number.
func ResultType(op Operator, left, right Node) *Type {
	switch op {
	case Add, Sub, Mul:
		if left.Returns().AssignableTo(TypeInteger) && right.Returns().AssignableTo(TypeInteger) {
			return TypeInteger
		}
	}
	return TypeNumber
}

// Token is an element of an arithmetic chain: either an operand
// (Node set) or an operator (Op set).
type Token struct {
	Op   Operator
	Node Node
}

func (t Token) String() string {
	if t.Node != nil {
		return t.Node.String()
	}
	return t.Op.String()
}

// MalformedChain occurs when an arithmetic chain doesn't alternate
// operands and operators correctly.
var MalformedChain = errors.New("malformed arithmetic chain")

// BuildArithmetic builds a tree from a chain of operands and
// operators.
//
// "^" binds tightest and is right-associative.  Then comes unary
// "-", then "*" and "/", then "+" and "-", all left-associative.  A
// "-" where an operand is expected is unary minus, which is built as
// 0 - x.
func BuildArithmetic(tokens []Token) (Node, error) {
	b := &chain{tokens: tokens}
	n, err := b.expression(0)
	if err != nil {
		return nil, err
	}
	if b.pos < len(b.tokens) {
		return nil, fmt.Errorf("%w: unexpected %s at %d", MalformedChain, b.tokens[b.pos], b.pos)
	}
	return n, nil
}

type chain struct {
	tokens []Token
	pos    int
}

// operator returns the binding power of the operator at the current
// position, or zero.
func (b *chain) operator() (Operator, int) {
	if b.pos < len(b.tokens) && b.tokens[b.pos].Node == nil {
		op := b.tokens[b.pos].Op
		return op, precedence[op]
	}
	return 0, 0
}

func (b *chain) expression(rbp int) (Node, error) {
	left, err := b.prefix()
	if err != nil {
		return nil, err
	}

	for {
		op, bp := b.operator()
		if bp <= rbp {
			return left, nil
		}
		b.pos++

		if op == Pow {
			bp-- // Right-associative.
		}
		right, err := b.expression(bp)
		if err != nil {
			return nil, err
		}
		left = &Arithmetic{
			Op:    op,
			Left:  left,
			Right: right,
			Type:  ResultType(op, left, right),
		}
	}
}

func (b *chain) prefix() (Node, error) {
	if len(b.tokens) <= b.pos {
		return nil, fmt.Errorf("%w: missing operand at end", MalformedChain)
	}
	t := b.tokens[b.pos]
	b.pos++

	if t.Node != nil {
		return t.Node, nil
	}
	if t.Op != Sub {
		return nil, fmt.Errorf("%w: unexpected '%s' at %d", MalformedChain, t.Op, b.pos-1)
	}

	x, err := b.expression(unaryPrecedence)
	if err != nil {
		return nil, err
	}
	zero := NewLiteral(int64(0))
	return &Arithmetic{
		Op:    Sub,
		Left:  zero,
		Right: x,
		Type:  ResultType(Sub, zero, x),
	}, nil
}

// Lexeme is a piece of arithmetic text: an operand or an operator.
// Offset is relative to the text that was split.
type Lexeme struct {
	Text   string
	Op     Operator
	Offset int
}

// SplitArithmetic splits text at top-level operators.  Text in
// parentheses, braces, or double quotes is never split.
//
// A "-" is an operator only at the start, after another operator, or
// after whitespace, a digit, ')', or '}', so "loop-value" stays
// whole.  Operand text is trimmed.
//
// Returns nil if the text has no top-level operator or is
// unbalanced.
func SplitArithmetic(text string) []Lexeme {
	var (
		acc    []Lexeme
		depth  int
		quoted bool
		start  int
		lastOp = true
		sawOp  bool
	)

	operand := func(end int) {
		s := text[start:end]
		t := strings.TrimLeft(s, " ")
		off := start + len(s) - len(t)
		if t = strings.TrimRight(t, " "); t != "" {
			acc = append(acc, Lexeme{Text: t, Offset: off})
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if quoted {
			if c == '"' {
				quoted = false
			}
			continue
		}
		switch c {
		case ' ':
			continue
		case '"':
			quoted = true
			lastOp = false
			continue
		case '(', '{':
			depth++
			lastOp = false
			continue
		case ')', '}':
			if depth--; depth < 0 {
				return nil
			}
			lastOp = false
			continue
		}
		if 0 < depth || !isOperator(c) {
			lastOp = false
			continue
		}

		if c == '-' && !lastOp {
			switch p := text[i-1]; {
			case p == ' ', p == ')', p == '}', '0' <= p && p <= '9':
			default:
				continue
			}
		}

		operand(i)
		acc = append(acc, Lexeme{Op: Operator(c), Offset: i})
		lastOp = true
		sawOp = true
		start = i + 1
	}
	if depth != 0 || quoted || !sawOp {
		return nil
	}
	operand(len(text))
	return acc
}
