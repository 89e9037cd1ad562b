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

// Package core turns script text into typed expression trees.
//
// Modules register patterns in a Registry.  A pattern is text like
// "[the] length of %string%": literal words, optional groups,
// choices, and typed placeholders (see package match).  Each
// registration has a priority and a factory for an Element, which
// gets to accept or reject a structural match in its Init.
//
// A Parser resolves text against the Registry.  For each placeholder
// span, it tries the candidates whose return type fits, highest
// priority first and then in registration order, recursively
// resolving their placeholders in turn.  The first candidate whose
// Element accepts wins.  The result is a tree of Nodes: Literals,
// VariableRefs, Arithmetic, and Calls.
//
// Arithmetic chains ("5 * 2 - {x}") are built by BuildArithmetic
// with the usual precedence, and Simplify folds constant subtrees
// into Literals once, at parse time.  Evaluate computes a tree's
// value against an Env, as many times as you like.
//
// To use this package, make a TypeTable and a Registry, register
// some syntax (see package syntax for the standard set), make a
// Parser, and Parse.
package core
