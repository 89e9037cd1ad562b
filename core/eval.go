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
	"fmt"
)

// Evaluate computes the value of a tree against the given Env.
//
// A nothing (nil) operand in arithmetic counts as zero, unless it
// came from another arithmetic node or both operands are nothing, in
// which case the result is nothing.
func Evaluate(ctx context.Context, n Node, env Env) (Value, error) {
	switch nn := n.(type) {
	case *Literal:
		return nn.Value, nil

	case *VariableRef:
		return env.Get(ctx, nn.Name, nn.Scope)

	case *Arithmetic:
		l, err := Evaluate(ctx, nn.Left, env)
		if err != nil {
			return nil, err
		}
		if l == nil {
			if _, is := nn.Left.(*Arithmetic); is {
				return nil, nil
			}
		}
		r, err := Evaluate(ctx, nn.Right, env)
		if err != nil {
			return nil, err
		}
		if r == nil {
			if _, is := nn.Right.(*Arithmetic); is {
				return nil, nil
			}
		}
		switch {
		case l == nil && r == nil:
			return nil, nil
		case l == nil:
			l = int64(0)
		case r == nil:
			r = int64(0)
		}
		return Apply(nn.Op, l, r)

	case *Call:
		args := make([]Value, len(nn.Args))
		for i, a := range nn.Args {
			if a == nil {
				continue
			}
			v, err := Evaluate(ctx, a, env)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return nn.Element.Eval(ctx, env, args)

	case nil:
		return nil, nil
	}

	return nil, fmt.Errorf("can't evaluate %T", n)
}

// Test evaluates a condition.  A non-boolean result is false.
func Test(ctx context.Context, n Node, env Env) (bool, error) {
	v, err := Evaluate(ctx, n, env)
	if err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}
