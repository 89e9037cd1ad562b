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
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/xStarless-Skyx/skparse/core"
)

type MermaidOpts struct {
	// ShowTypes adds the node's type to its label.
	ShowTypes bool `json:"showTypes"`

	// CallFill is the fill color for calls.  Does not apply if
	// CallClass is set.
	CallFill string `json:"callFill,omitempty"`

	// CallClass will be the CSS class for call nodes.
	CallClass string `json:"callClass,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) flowchart
// for the given tree.
func Mermaid(n core.Node, w io.Writer, opts *MermaidOpts) error {
	if opts == nil {
		opts = &MermaidOpts{
			ShowTypes: true,
			CallFill:  "#bcf2db",
		}
	}

	out := bufio.NewWriter(w)
	fmt.Fprintf(out, "graph TB\n")

	num := 0
	var walk func(n core.Node) string
	walk = func(n core.Node) string {
		num++
		nid := fmt.Sprintf("n%d", num)

		if n == nil {
			fmt.Fprintf(out, "  %s((\" \"))\n", nid)
			return nid
		}

		var label string
		switch vv := n.(type) {
		case *core.Arithmetic:
			label = vv.Op.String()
		case *core.Call:
			label = vv.Pattern
		default:
			label = n.String()
		}
		if opts.ShowTypes && n.Returns() != nil {
			label += " : " + n.Returns().Name
		}
		label = strings.ReplaceAll(label, `"`, "#quot;")

		switch vv := n.(type) {
		case *core.Arithmetic:
			fmt.Fprintf(out, "  %s((\"%s\"))\n", nid, label)
			fmt.Fprintf(out, "  %s --> %s\n", nid, walk(vv.Left))
			fmt.Fprintf(out, "  %s --> %s\n", nid, walk(vv.Right))
		case *core.Call:
			fmt.Fprintf(out, "  %s[\"%s\"]\n", nid, label)
			if opts.CallClass != "" {
				fmt.Fprintf(out, "  class %s %s\n", nid, opts.CallClass)
			} else if opts.CallFill != "" {
				fmt.Fprintf(out, "  style %s fill:%s\n", nid, opts.CallFill)
			}
			for i, a := range vv.Args {
				fmt.Fprintf(out, "  %s -- %d --> %s\n", nid, i, walk(a))
			}
		default:
			fmt.Fprintf(out, "  %s(\"%s\")\n", nid, label)
		}
		return nid
	}
	walk(n)

	fmt.Fprintf(out, "\n")
	return out.Flush()
}
