package syntax

import (
	"strconv"
	"strings"

	"github.com/xStarless-Skyx/skparse/core"
)

func literals() []core.Registration {
	return []core.Registration{
		{
			Kind:     core.Expression,
			Pattern:  "<number>",
			Priority: core.PrioritySimple,
			Returns:  core.TypeNumber,
			Terminal: NumberLiteral,
			Doc:      "An integer like 42 or -7, or a decimal like 3.5.",
		},
		{
			Kind:     core.Expression,
			Pattern:  "<string>",
			Priority: core.PrioritySimple,
			Returns:  core.TypeString,
			Terminal: StringLiteral,
			Doc:      `Text in double quotes.  Write "" for a quote.`,
		},
		{
			Kind:     core.Expression,
			Pattern:  "<variable>",
			Priority: core.PrioritySimple,
			Returns:  core.TypeObject,
			Terminal: Variable,
			Doc:      "{name} is a global variable; {_name} is local.",
		},
		{
			Kind:     core.Expression,
			Pattern:  "(:true|:yes|:on|false|no|off)",
			Priority: core.PrioritySimple,
			Returns:  core.TypeBoolean,
			New: func() core.Element {
				return &boolean{}
			},
			Doc: "A boolean.",
		},
	}
}

// NumberLiteral accepts an optionally negative integer or decimal.
// Integers that fit in an int64 are int64s; everything else is a
// float64.
func NumberLiteral(_ core.Resolver, text string) (core.Node, bool) {
	if !isNumeric(text) {
		return nil, false
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return core.NewLiteral(i), true
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, false
	}
	return core.NewLiteral(f), true
}

func isNumeric(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	dot := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case '0' <= c && c <= '9':
		case c == '.' && !dot && 0 < i && i < len(s)-1:
			dot = true
		default:
			return false
		}
	}
	return true
}

// StringLiteral accepts text in double quotes.  Inside, "" is one
// quote, and a lone quote isn't allowed.
func StringLiteral(_ core.Resolver, text string) (core.Node, bool) {
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return nil, false
	}
	inner := text[1 : len(text)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '"' {
			if i+1 < len(inner) && inner[i+1] == '"' {
				i++
			} else {
				return nil, false
			}
		}
		b.WriteByte(c)
	}
	return core.NewLiteral(b.String()), true
}

// Variable accepts "{name}" and "{_name}".
func Variable(_ core.Resolver, text string) (core.Node, bool) {
	if len(text) < 3 || text[0] != '{' || text[len(text)-1] != '}' {
		return nil, false
	}
	name := text[1 : len(text)-1]
	if strings.ContainsAny(name, "{}\"") {
		return nil, false
	}
	scope := core.Global
	if strings.HasPrefix(name, "_") {
		scope = core.Local
		name = name[1:]
	}
	if strings.TrimSpace(name) == "" {
		return nil, false
	}
	return &core.VariableRef{
		Name:  strings.ToLower(name),
		Scope: scope,
	}, true
}

// boolean builds a literal from the tag of the alternative taken.
type boolean struct {
	core.ElementFuncs
}

func (e *boolean) Build(_ []core.Node, b *core.Binding) (core.Node, error) {
	v := b.HasTag("true") || b.HasTag("yes") || b.HasTag("on")
	return core.NewLiteral(v), nil
}
