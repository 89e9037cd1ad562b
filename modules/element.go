package modules

import (
	"context"
	"errors"
	"fmt"

	"github.com/xStarless-Skyx/skparse/core"
	"github.com/xStarless-Skyx/skparse/interpreters/goja"

	js "github.com/dop251/goja"
)

// Rejected is the Init error when an init script returns a falsy
// value.
var Rejected = errors.New("rejected by init script")

// script is a compiled Syntax.
type script struct {
	module string
	syntax Syntax
	kind   core.Kind
	interp *goja.Interpreter
	init   *js.Program
	code   *js.Program
	loader *Loader
}

// element is the core.Element for a module pattern.
type element struct {
	s    *script
	tags []string
}

func (e *element) Init(args []core.Node, b *core.Binding) error {
	e.tags = b.Tags()
	if e.s.init == nil {
		return nil
	}

	vals := make([]core.Value, len(args))
	for i, a := range args {
		if lit, is := a.(*core.Literal); is {
			vals[i] = lit.Value
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.s.loader.timeout())
	defer cancel()

	v, err := e.s.interp.Exec(ctx, e.s.init, &goja.Call{
		Args: vals,
		Tags: e.tags,
	})
	if err != nil {
		return fmt.Errorf("init script of %q in %s: %w", e.s.syntax.Pattern, e.s.module, err)
	}
	if msg, is := v.(string); is {
		if msg == "" {
			return Rejected
		}
		return errors.New(msg)
	}
	if !truthy(v) {
		return Rejected
	}
	return nil
}

func (e *element) Eval(ctx context.Context, env core.Env, args []core.Value) (core.Value, error) {
	ctx, cancel := context.WithTimeout(ctx, e.s.loader.timeout())
	defer cancel()

	v, err := e.s.interp.Exec(ctx, e.s.code, &goja.Call{
		Args: args,
		Tags: e.tags,
		Now:  env.Now(),
		Vars: &vars{ctx: ctx, env: env},
	})
	if err != nil {
		return nil, fmt.Errorf("%q in %s: %w", e.s.syntax.Pattern, e.s.module, err)
	}

	switch e.s.kind {
	case core.Condition:
		return truthy(v), nil
	case core.Effect:
		return nil, nil
	}
	return v, nil
}

func truthy(v core.Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	}
	return true
}

// vars gives scripts the global variables.
type vars struct {
	ctx context.Context
	env core.Env
}

func (vs *vars) Get(name string) (core.Value, error) {
	return vs.env.Get(vs.ctx, name, core.Global)
}

func (vs *vars) Set(name string, v core.Value) error {
	if v == nil {
		return vs.env.Delete(vs.ctx, name, core.Global)
	}
	return vs.env.Set(vs.ctx, name, core.Global, v)
}
