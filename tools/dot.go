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

// skparse parse --dot 'the length of "x" + 1' | dot -Tpng > g.png

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/xStarless-Skyx/skparse/core"
)

// Node fill colors.
var (
	LiteralFill    = "#99ddc8"
	VariableFill   = "#f9e79f"
	ArithmeticFill = "#52aa5e"
	CallFill       = "#2d93ad"
)

// Dot writes a Graphviz dot graph of the tree.  Edges to a call's
// arguments are labeled with the argument's position.
func Dot(n core.Node, w io.Writer) error {
	out := bufio.NewWriter(w)

	fmt.Fprintf(out, "digraph G {\n")
	fmt.Fprintf(out, `  graph [ordering=out,rankdir=TB,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "10"]
`)

	num := 0
	var walk func(n core.Node) string
	walk = func(n core.Node) string {
		num++
		id := fmt.Sprintf("n%d", num)

		var (
			label string
			fill  string
			shape = "record"
		)
		switch vv := n.(type) {
		case nil:
			fmt.Fprintf(out, "  %s [shape=\"point\"]\n", id)
			return id
		case *core.Literal:
			label, fill = vv.String(), LiteralFill
		case *core.VariableRef:
			label, fill = vv.String(), VariableFill
		case *core.Arithmetic:
			label, fill, shape = vv.Op.String(), ArithmeticFill, "circle"
		case *core.Call:
			label, fill = vv.Pattern, CallFill
		default:
			label, fill = n.String(), "white"
		}
		label = escape(label)
		if t := n.Returns(); t != nil {
			label += "<BR/><FONT POINT-SIZE='8'>" + escape(t.Name) + "</FONT>"
		}
		fmt.Fprintf(out, "  %s [shape=\"%s\", fillcolor=\"%s\", label=<%s> ]\n", id, shape, fill, label)

		switch vv := n.(type) {
		case *core.Arithmetic:
			l := walk(vv.Left)
			r := walk(vv.Right)
			fmt.Fprintf(out, "  %s -> %s\n", id, l)
			fmt.Fprintf(out, "  %s -> %s\n", id, r)
		case *core.Call:
			for i, a := range vv.Args {
				to := walk(a)
				fmt.Fprintf(out, "  %s -> %s [label=\"%d\"]\n", id, to, i)
			}
		}
		return id
	}
	walk(n)

	fmt.Fprintf(out, "}\n")
	return out.Flush()
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string {
	return escaper.Replace(s)
}
