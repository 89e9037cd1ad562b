// Package tools has utilities for looking at parse trees and
// registries: renderings, an analysis, and a test case runner.
package tools

import (
	"github.com/xStarless-Skyx/skparse/core"

	"gopkg.in/yaml.v2"
)

// Dump renders a tree as maps and slices that encode nicely as JSON
// or YAML.
func Dump(n core.Node) map[string]interface{} {
	if n == nil {
		return nil
	}
	m := map[string]interface{}{
		"type": typeName(n.Returns()),
	}
	switch vv := n.(type) {
	case *core.Literal:
		m["literal"] = dumpValue(vv.Value)
	case *core.VariableRef:
		m["variable"] = vv.Name
		m["scope"] = vv.Scope.String()
	case *core.Arithmetic:
		m["op"] = vv.Op.String()
		m["left"] = Dump(vv.Left)
		m["right"] = Dump(vv.Right)
	case *core.Call:
		m["pattern"] = vv.Pattern
		m["kind"] = vv.Kind.String()
		m["handle"] = string(vv.Handle)
		if vv.Binding != nil {
			if tags := vv.Binding.Tags(); 0 < len(tags) {
				m["tags"] = tags
			}
		}
		args := make([]interface{}, len(vv.Args))
		for i, a := range vv.Args {
			if a != nil {
				args[i] = Dump(a)
			}
		}
		m["args"] = args
	default:
		m["node"] = n.String()
	}
	return m
}

// DumpYAML is Dump rendered as YAML.
func DumpYAML(n core.Node) ([]byte, error) {
	return yaml.Marshal(Dump(n))
}

func typeName(t *core.Type) string {
	if t == nil {
		return ""
	}
	return t.Name
}

// dumpValue keeps the values JSON knows and renders the rest.
func dumpValue(v core.Value) interface{} {
	switch v.(type) {
	case nil, int64, float64, string, bool:
		return v
	}
	return core.FormatValue(v)
}
