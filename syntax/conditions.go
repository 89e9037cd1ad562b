package syntax

import (
	"context"
	"fmt"
	"reflect"

	"github.com/xStarless-Skyx/skparse/core"
)

func conditions() []core.Registration {
	return []core.Registration{
		{
			Kind:     core.Condition,
			Pattern:  "%number% is (:greater|:less) than %number%",
			Priority: core.PriorityCombined,
			New: func() core.Element {
				return &comparison{}
			},
		},
		{
			// Nearly anything with "is" in it matches.
			Kind:     core.Condition,
			Pattern:  "%object% (is|=) %object%",
			Priority: core.PriorityPatternMatchesEverything,
			New: func() core.Element {
				return &core.ElementFuncs{EvalFunc: equal}
			},
		},
	}
}

func equal(_ context.Context, _ core.Env, args []core.Value) (core.Value, error) {
	return Equal(args[0], args[1]), nil
}

// Equal compares values.  Numbers compare by value regardless of
// representation.
func Equal(x, y core.Value) bool {
	if a, ok := toFloat(x); ok {
		if b, ok := toFloat(y); ok {
			if ai, is := x.(int64); is {
				if bi, is := y.(int64); is {
					return ai == bi
				}
			}
			return a == b
		}
		return false
	}
	switch a := x.(type) {
	case string:
		b, is := y.(string)
		return is && a == b
	case bool:
		b, is := y.(bool)
		return is && a == b
	case *Schedule:
		b, is := y.(*Schedule)
		return is && a.Spec == b.Spec
	}
	return reflect.DeepEqual(x, y)
}

type comparison struct {
	greater bool
}

func (e *comparison) Init(_ []core.Node, b *core.Binding) error {
	e.greater = b.HasTag("greater")
	return nil
}

func (e *comparison) Eval(_ context.Context, _ core.Env, args []core.Value) (core.Value, error) {
	if args[0] == nil || args[1] == nil {
		return false, nil
	}
	a, ok := toFloat(args[0])
	if !ok {
		return nil, fmt.Errorf("can't compare %s", core.FormatValue(args[0]))
	}
	b, ok := toFloat(args[1])
	if !ok {
		return nil, fmt.Errorf("can't compare %s", core.FormatValue(args[1]))
	}
	if e.greater {
		return a > b, nil
	}
	return a < b, nil
}
