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

// Simplify folds constant subtrees into literals.
//
// The rewrite is post-order: children first, then an *Arithmetic
// whose children are both literals becomes a literal holding the
// result of Apply.  A fold that would fail (division by zero, for
// example) is left for evaluation to report.  Other nodes are base
// cases.
//
// Simplify never modifies its argument, and Simplify(Simplify(x)) is
// structurally identical to Simplify(x).
func Simplify(n Node) Node {
	a, is := n.(*Arithmetic)
	if !is {
		return n
	}

	left := Simplify(a.Left)
	right := Simplify(a.Right)

	if l, is := left.(*Literal); is {
		if r, is := right.(*Literal); is {
			if v, err := Apply(a.Op, l.Value, r.Value); err == nil {
				return NewLiteral(v)
			}
		}
	}

	if left == a.Left && right == a.Right {
		return a
	}
	return &Arithmetic{
		Op:    a.Op,
		Left:  left,
		Right: right,
		Type:  a.Type,
	}
}
