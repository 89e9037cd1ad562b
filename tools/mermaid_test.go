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

func TestMermaid(t *testing.T) {
	n := parse(t, `the length of "ab" - 1`)

	var buf bytes.Buffer
	if err := Mermaid(n, &buf, nil); err != nil {
		t.Fatal(err)
	}
	g := buf.String()
	for _, want := range []string{
		"graph TB\n",
		`n1(("- : integer"))`,
		`n2["[the] length of %string% : integer"]`,
		"style n2 fill:#bcf2db",
		`n3("#quot;ab#quot; : string")`,
		"n2 -- 0 --> n3",
		"n1 --> n2",
		"n1 --> n4",
	} {
		if !strings.Contains(g, want) {
			t.Fatalf("%q not in\n%s", want, g)
		}
	}

	buf.Reset()
	if err := Mermaid(n, &buf, &MermaidOpts{CallClass: "call"}); err != nil {
		t.Fatal(err)
	}
	g = buf.String()
	if !strings.Contains(g, "class n2 call") || strings.Contains(g, " : ") {
		t.Fatal(g)
	}
}
