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
	"strconv"
	"strings"
)

// Value is what evaluating a Node produces: int64, float64, string,
// bool, nil (nothing), or a domain value from some Element.
type Value interface{}

// Node is an expression tree node: a *Literal, a *VariableRef, an
// *Arithmetic, or a *Call.
//
// A Node owns its children.  Nodes are immutable once built.
type Node interface {
	// Returns is the type of the values the node produces.
	Returns() *Type

	String() string

	node()
}

// Literal is a constant.
type Literal struct {
	Value Value
	Type  *Type
}

// NewLiteral makes a Literal with the standard type for the value.
func NewLiteral(v Value) *Literal {
	if i, is := v.(int); is {
		v = int64(i)
	}
	return &Literal{
		Value: v,
		Type:  TypeOfValue(v),
	}
}

// Scope says where a variable lives.
type Scope int

const (
	// Global variables ("{name}") are persisted.
	Global Scope = iota

	// Local variables ("{_name}") live as long as one script
	// invocation.
	Local
)

func (s Scope) String() string {
	if s == Local {
		return "local"
	}
	return "global"
}

// VariableRef is a reference to a variable that's looked up at
// evaluation time.
type VariableRef struct {
	Name  string
	Scope Scope
}

// Arithmetic applies a binary operator.
type Arithmetic struct {
	Op          Operator
	Left, Right Node
	Type        *Type
}

// Call is an instance of a registered pattern with its bound
// arguments.
type Call struct {
	Handle  Handle
	Kind    Kind
	Pattern string
	Element Element

	// Args has one entry per placeholder.  An entry is nil when its
	// placeholder was in an absent optional group.
	Args []Node

	Binding *Binding
	Type    *Type
}

func (*Literal) node()     {}
func (*VariableRef) node() {}
func (*Arithmetic) node()  {}
func (*Call) node()        {}

func (n *Literal) Returns() *Type {
	if n.Type == nil {
		return TypeOfValue(n.Value)
	}
	return n.Type
}

func (n *VariableRef) Returns() *Type { return TypeObject }

func (n *Arithmetic) Returns() *Type { return n.Type }

func (n *Call) Returns() *Type { return n.Type }

func (n *Literal) String() string {
	return FormatValue(n.Value)
}

func (n *VariableRef) String() string {
	if n.Scope == Local {
		return "{_" + n.Name + "}"
	}
	return "{" + n.Name + "}"
}

func (n *Arithmetic) String() string {
	return "(" + operand(n.Left) + " " + n.Op.String() + " " + operand(n.Right) + ")"
}

// operand parenthesizes a negative number so that "-8 ^ x" isn't read
// back as "-(8 ^ x)".
func operand(n Node) string {
	s := n.String()
	if l, is := n.(*Literal); is && strings.HasPrefix(s, "-") {
		switch l.Value.(type) {
		case int64, float64:
			return "(" + s + ")"
		}
	}
	return s
}

func (n *Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		if a == nil {
			args[i] = "_"
			continue
		}
		args[i] = a.String()
	}
	return n.Pattern + "(" + strings.Join(args, ", ") + ")"
}

// FormatValue renders a Value the way script text would write it.
func FormatValue(v Value) string {
	switch vv := v.(type) {
	case nil:
		return "<none>"
	case int64:
		return strconv.FormatInt(vv, 10)
	case float64:
		return strconv.FormatFloat(vv, 'g', -1, 64)
	case string:
		return `"` + strings.ReplaceAll(vv, `"`, `""`) + `"`
	case bool:
		return strconv.FormatBool(vv)
	case interface{ String() string }:
		return vv.String()
	default:
		return "<" + TypeOfValue(v).Name + ">"
	}
}

// IsLiteral reports whether the node is a *Literal.
func IsLiteral(n Node) bool {
	_, is := n.(*Literal)
	return is
}
