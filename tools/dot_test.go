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

package tools

import (
	"bytes"
	"strings"
	"testing"
)

func TestDot(t *testing.T) {
	var buf bytes.Buffer
	if err := Dot(parse(t, `the length of "a<b" * {x}`), &buf); err != nil {
		t.Fatal(err)
	}
	g := buf.String()

	if !strings.HasPrefix(g, "digraph G {") || !strings.HasSuffix(g, "}\n") {
		t.Fatal(g)
	}
	for _, want := range []string{
		`label=<*<BR/>`,
		`[the] length of %string%`,
		`&quot;a&lt;b&quot;`,
		`{x}`,
		`n1 -> n2`,
		`n1 -> n4`,
		`n2 -> n3 [label="0"]`,
	} {
		if !strings.Contains(g, want) {
			t.Fatalf("%q not in\n%s", want, g)
		}
	}
}
