package goja

import (
	"context"
	"fmt"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// InlineRequires replaces each top-level require("name") statement
// with the source the provider returns for that name.
//
// Other require() calls are left alone.
func InlineRequires(ctx context.Context, src string, provider func(context.Context, string) (string, error)) (string, error) {
	// Parse as a function body, since that's how scripts run.
	const prefix = "function f() {\n"
	p, err := parser.ParseFile(nil, "", prefix+src+"\n}", 0)
	if err != nil {
		return "", err
	}
	offset := len(prefix)

	fd, is := p.Body[0].(*ast.FunctionDeclaration)
	if !is {
		return "", fmt.Errorf("unexpected %T", p.Body[0])
	}

	type required struct {
		from, to int
		name     string
	}

	var requires []required

	for _, s := range fd.Function.Body.List {
		exps, is := s.(*ast.ExpressionStatement)
		if !is {
			continue
		}
		call, is := exps.Expression.(*ast.CallExpression)
		if !is {
			continue
		}
		id, is := call.Callee.(*ast.Identifier)
		if !is || id.Name != "require" {
			continue
		}
		if len(call.ArgumentList) != 1 {
			return "", fmt.Errorf("bad require args: %d", len(call.ArgumentList))
		}
		lit, is := call.ArgumentList[0].(*ast.StringLiteral)
		if !is {
			return "", fmt.Errorf("bad require arg: %T", call.ArgumentList[0])
		}

		// Idx is 1-based.
		from := int(exps.Idx0()) - 1 - offset
		to := int(exps.Idx1()) - 1 - offset
		if to < len(src) && src[to] == ';' {
			to++
		}
		requires = append(requires, required{
			from: from,
			to:   to,
			name: lit.Value.String(),
		})
	}

	if len(requires) == 0 {
		return src, nil
	}

	var b strings.Builder
	at := 0
	for _, r := range requires {
		lib, err := provider(ctx, r.name)
		if err != nil {
			return "", err
		}
		b.WriteString(src[at:r.from])
		b.WriteString(lib)
		b.WriteString("\n")
		at = r.to
	}
	b.WriteString(src[at:])
	return b.String(), nil
}
