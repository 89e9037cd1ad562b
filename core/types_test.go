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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAssignable(t *testing.T) {
	tests := []struct {
		t, u *Type
		want bool
	}{
		{TypeInteger, TypeNumber, true},
		{TypeInteger, TypeObject, true},
		{TypeNumber, TypeInteger, false},
		{TypeString, TypeNumber, false},
		{TypeObject, TypeObject, true},
		{nil, TypeObject, false},
	}
	for _, test := range tests {
		if got := test.t.AssignableTo(test.u); got != test.want {
			t.Fatalf("%s to %s: %v", test.t, test.u, got)
		}
	}

	if !Compatible(TypeNumber, TypeInteger) || !Compatible(TypeObject, TypeNumber) {
		t.Fatal("expected compatible")
	}
	if Compatible(TypeString, TypeBoolean) {
		t.Fatal("string and boolean compatible")
	}
}

func TestTypeTable(t *testing.T) {
	tt := NewTypeTable()

	if typ, plural, have := tt.Lookup("Numbers"); !have || !plural || typ != TypeNumber {
		t.Fatal(typ, plural, have)
	}
	if typ, plural, have := tt.Lookup("text"); !have || plural || typ != TypeString {
		t.Fatal(typ, plural, have)
	}
	if _, _, have := tt.Lookup("player"); have {
		t.Fatal("player")
	}

	player, err := tt.Define("player", "players")
	if err != nil {
		t.Fatal(err)
	}
	if !player.AssignableTo(TypeObject) || player.AssignableTo(TypeString) {
		t.Fatal(player.supers)
	}
	if tt.Get("players") != player {
		t.Fatal("players")
	}

	count, err := tt.Define("count", "counts", "integer")
	if err != nil {
		t.Fatal(err)
	}
	if !count.AssignableTo(TypeNumber) {
		t.Fatal("count isn't a number")
	}

	if _, err = tt.Define("player", "players"); err == nil {
		t.Fatal("redefined player")
	}
	var ut *UnknownType
	if _, err = tt.Define("thing", "things", "widget"); !errors.As(err, &ut) {
		t.Fatal(err)
	}

	want := []string{"boolean", "count", "integer", "number", "object", "player", "string"}
	if diff := cmp.Diff(want, tt.Names()); diff != "" {
		t.Fatal(diff)
	}
}

func TestTypeOfValue(t *testing.T) {
	for v, want := range map[Value]*Type{
		int64(1): TypeInteger,
		1.5:      TypeNumber,
		"x":      TypeString,
		true:     TypeBoolean,
		nil:      TypeObject,
	} {
		if got := TypeOfValue(v); got != want {
			t.Fatalf("%#v: %s", v, got)
		}
	}
}
