package syntax

import (
	"context"
	"fmt"

	"github.com/xStarless-Skyx/skparse/core"
)

func effects() []core.Registration {
	return []core.Registration{
		{
			Kind:     core.Effect,
			Pattern:  "set %object% to %object%",
			Priority: core.PriorityCombined,
			New: func() core.Element {
				return &set{}
			},
		},
		{
			Kind:     core.Effect,
			Pattern:  "(delete|clear) %object%",
			Priority: core.PriorityCombined,
			New: func() core.Element {
				return &del{}
			},
		},
	}
}

// target requires a variable.
func target(n core.Node) (*core.VariableRef, error) {
	v, is := n.(*core.VariableRef)
	if !is {
		return nil, fmt.Errorf("%s isn't a variable", n)
	}
	return v, nil
}

type set struct {
	v *core.VariableRef
}

func (e *set) Init(args []core.Node, _ *core.Binding) error {
	v, err := target(args[0])
	if err != nil {
		return err
	}
	e.v = v
	return nil
}

func (e *set) Eval(ctx context.Context, env core.Env, args []core.Value) (core.Value, error) {
	if args[1] == nil {
		return nil, env.Delete(ctx, e.v.Name, e.v.Scope)
	}
	return nil, env.Set(ctx, e.v.Name, e.v.Scope, args[1])
}

type del struct {
	v *core.VariableRef
}

func (e *del) Init(args []core.Node, _ *core.Binding) error {
	v, err := target(args[0])
	if err != nil {
		return err
	}
	e.v = v
	return nil
}

func (e *del) Eval(ctx context.Context, env core.Env, _ []core.Value) (core.Value, error) {
	return nil, env.Delete(ctx, e.v.Name, e.v.Scope)
}
