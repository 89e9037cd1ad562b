package syntax

import (
	"github.com/xStarless-Skyx/skparse/core"
)

func arithmetic() core.Registration {
	return core.Registration{
		Kind:     core.Expression,
		Pattern:  "<arithmetic>",
		Priority: core.PriorityPatternMatchesEverything,
		Returns:  core.TypeNumber,
		Terminal: Arithmetic,
		Doc:      "Numbers combined with + - * / and ^.",
	}
}

// Arithmetic accepts a chain of number expressions joined by
// operators.  Each operand is resolved on its own, so an operand can
// be a parenthesized chain.
func Arithmetic(r core.Resolver, text string) (core.Node, bool) {
	lexemes := core.SplitArithmetic(text)
	if lexemes == nil {
		return nil, false
	}

	tokens := make([]core.Token, 0, len(lexemes))
	for _, l := range lexemes {
		if l.Text == "" {
			tokens = append(tokens, core.Token{Op: l.Op})
			continue
		}
		n, ok := r.Resolve(l.Text, l.Offset, core.TypeNumber)
		if !ok {
			return nil, false
		}
		tokens = append(tokens, core.Token{Node: n})
	}

	n, err := core.BuildArithmetic(tokens)
	if err != nil {
		return nil, false
	}
	return n, true
}
