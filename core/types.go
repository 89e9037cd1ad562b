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
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Type is a semantic tag for the values an expression produces.
//
// Types form a partial order via their supertypes.  Compare types by
// pointer; a TypeTable never makes two Types with the same name.
type Type struct {
	Name   string
	Plural string

	supers []*Type
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// AssignableTo reports whether a value of type t can be used where a
// value of type u is accepted.
//
// The relation is reflexive and transitive.  A nil type is assignable
// only to itself.
func (t *Type) AssignableTo(u *Type) bool {
	if t == u {
		return true
	}
	if t == nil || u == nil {
		return false
	}
	for _, s := range t.supers {
		if s.AssignableTo(u) {
			return true
		}
	}
	return false
}

// Compatible reports whether either type is assignable to the other.
func Compatible(t, u *Type) bool {
	return t.AssignableTo(u) || u.AssignableTo(t)
}

// The standard types.  Every TypeTable starts with these.
var (
	TypeObject  = &Type{Name: "object", Plural: "objects"}
	TypeNumber  = &Type{Name: "number", Plural: "numbers", supers: []*Type{TypeObject}}
	TypeInteger = &Type{Name: "integer", Plural: "integers", supers: []*Type{TypeNumber}}
	TypeString  = &Type{Name: "string", Plural: "strings", supers: []*Type{TypeObject}}
	TypeBoolean = &Type{Name: "boolean", Plural: "booleans", supers: []*Type{TypeObject}}
)

// TypeOfValue returns the standard type for a Value.
func TypeOfValue(v Value) *Type {
	switch v.(type) {
	case int64, int:
		return TypeInteger
	case float64:
		return TypeNumber
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	default:
		return TypeObject
	}
}

// TypeTable maps type names, singular or plural, to Types.
//
// A TypeTable is safe for concurrent use.
type TypeTable struct {
	mu sync.RWMutex

	byName map[string]*Type
	plural map[string]bool
}

// NewTypeTable makes a table that holds the standard types.
func NewTypeTable() *TypeTable {
	tt := &TypeTable{
		byName: make(map[string]*Type),
		plural: make(map[string]bool),
	}
	for _, t := range []*Type{TypeObject, TypeNumber, TypeInteger, TypeString, TypeBoolean} {
		tt.add(t)
	}
	// Skript calls strings "text".
	tt.byName["text"] = TypeString
	tt.byName["texts"] = TypeString
	tt.plural["texts"] = true
	return tt
}

func (tt *TypeTable) add(t *Type) {
	tt.byName[t.Name] = t
	if t.Plural != "" && t.Plural != t.Name {
		tt.byName[t.Plural] = t
		tt.plural[t.Plural] = true
	}
}

// Define adds a new type with the given supertypes.  With no
// supertypes, the new type is a subtype of object.
//
// Redefining an existing name is an error.
func (tt *TypeTable) Define(name, plural string, supers ...string) (*Type, error) {
	name = strings.ToLower(name)
	plural = strings.ToLower(plural)

	tt.mu.Lock()
	defer tt.mu.Unlock()

	if _, have := tt.byName[name]; have {
		return nil, fmt.Errorf("type %q already defined", name)
	}
	if _, have := tt.byName[plural]; have && plural != "" {
		return nil, fmt.Errorf("type name %q already defined", plural)
	}

	t := &Type{Name: name, Plural: plural}
	if len(supers) == 0 {
		supers = []string{TypeObject.Name}
	}
	for _, s := range supers {
		st, have := tt.byName[strings.ToLower(s)]
		if !have {
			return nil, &UnknownType{Name: s}
		}
		t.supers = append(t.supers, st)
	}
	tt.add(t)
	return t, nil
}

// Lookup finds a type by its singular or plural name.  The second
// value reports whether the plural name was used.
func (tt *TypeTable) Lookup(name string) (*Type, bool, bool) {
	name = strings.ToLower(strings.TrimSpace(name))

	tt.mu.RLock()
	defer tt.mu.RUnlock()

	t, have := tt.byName[name]
	if !have {
		return nil, false, false
	}
	return t, tt.plural[name], true
}

// Get is Lookup for code that doesn't care about plurality.  Returns
// nil for an unknown name.
func (tt *TypeTable) Get(name string) *Type {
	t, _, _ := tt.Lookup(name)
	return t
}

// Names returns the singular names of the types in the table, sorted.
func (tt *TypeTable) Names() []string {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	seen := make(map[*Type]bool, len(tt.byName))
	var acc []string
	for _, t := range tt.byName {
		if seen[t] {
			continue
		}
		seen[t] = true
		acc = append(acc, t.Name)
	}
	sort.Strings(acc)
	return acc
}
