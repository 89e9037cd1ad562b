package syntax

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/xStarless-Skyx/skparse/core"
)

// NegativeRoot occurs when taking the square root of a negative
// number.
var NegativeRoot = errors.New("square root of a negative number")

func expressions(ts *Types) []core.Registration {
	return []core.Registration{
		{
			Kind:     core.Expression,
			Pattern:  "[the] absolute value of %number%",
			Priority: core.PriorityProperty,
			Returns:  core.TypeNumber,
			New: func() core.Element {
				return &core.ElementFuncs{EvalFunc: absolute}
			},
		},
		{
			Kind:     core.Expression,
			Pattern:  "[the] square root of %number%",
			Priority: core.PriorityProperty,
			Returns:  core.TypeNumber,
			New: func() core.Element {
				return &core.ElementFuncs{
					InitFunc: initRoot,
					EvalFunc: root,
				}
			},
		},
		{
			Kind:     core.Expression,
			Pattern:  "%number% rounded [(:up|:down)]",
			Priority: core.PriorityCombined,
			Returns:  core.TypeInteger,
			New: func() core.Element {
				return &rounded{}
			},
		},
		{
			Kind:     core.Expression,
			Pattern:  "[the] length of %string%",
			Priority: core.PriorityProperty,
			Returns:  core.TypeInteger,
			New: func() core.Element {
				return &core.ElementFuncs{EvalFunc: length}
			},
		},
		{
			Kind:     core.Expression,
			Pattern:  "%string% in (:upper|:lower)[ ]case",
			Priority: core.PriorityCombined,
			Returns:  core.TypeString,
			New: func() core.Element {
				return &letterCase{}
			},
		},
		{
			Kind:     core.Expression,
			Pattern:  "cron schedule %string%",
			Priority: core.PriorityCombined,
			Returns:  ts.Schedule,
			New: func() core.Element {
				return &schedule{typ: ts.Schedule}
			},
			Doc: "A schedule from a cron expression.",
		},
		{
			Kind:     core.Expression,
			Pattern:  "[the] next run of %schedule%",
			Priority: core.PriorityProperty,
			Returns:  ts.Date,
			New: func() core.Element {
				return &core.ElementFuncs{EvalFunc: nextRun}
			},
			Doc: "The next time a schedule fires, or nothing if it never will.",
		},
	}
}

func absolute(_ context.Context, _ core.Env, args []core.Value) (core.Value, error) {
	switch x := args[0].(type) {
	case nil:
		return nil, nil
	case int64:
		if x == math.MinInt64 {
			return -float64(x), nil
		}
		if x < 0 {
			return -x, nil
		}
		return x, nil
	case float64:
		return math.Abs(x), nil
	default:
		return nil, fmt.Errorf("absolute value of %s", core.FormatValue(x))
	}
}

func initRoot(args []core.Node, _ *core.Binding) error {
	if lit, is := args[0].(*core.Literal); is {
		if f, ok := toFloat(lit.Value); ok && f < 0 {
			return NegativeRoot
		}
	}
	return nil
}

func root(_ context.Context, _ core.Env, args []core.Value) (core.Value, error) {
	if args[0] == nil {
		return nil, nil
	}
	f, ok := toFloat(args[0])
	if !ok {
		return nil, fmt.Errorf("square root of %s", core.FormatValue(args[0]))
	}
	if f < 0 {
		return nil, NegativeRoot
	}
	return math.Sqrt(f), nil
}

func toFloat(v core.Value) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

type rounded struct {
	round func(float64) float64
}

func (e *rounded) Init(_ []core.Node, b *core.Binding) error {
	switch {
	case b.HasTag("up"):
		e.round = math.Ceil
	case b.HasTag("down"):
		e.round = math.Floor
	default:
		e.round = math.Round
	}
	return nil
}

func (e *rounded) Eval(_ context.Context, _ core.Env, args []core.Value) (core.Value, error) {
	switch x := args[0].(type) {
	case nil:
		return nil, nil
	case int64:
		return x, nil
	case float64:
		r := e.round(x)
		if r < math.MinInt64 || math.MaxInt64 <= r || math.IsNaN(r) {
			return r, nil
		}
		return int64(r), nil
	default:
		return nil, fmt.Errorf("can't round %s", core.FormatValue(x))
	}
}

func length(_ context.Context, _ core.Env, args []core.Value) (core.Value, error) {
	switch x := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return int64(utf8.RuneCountInString(x)), nil
	default:
		return int64(utf8.RuneCountInString(core.FormatValue(x))), nil
	}
}

type letterCase struct {
	upper bool
}

func (e *letterCase) Init(_ []core.Node, b *core.Binding) error {
	e.upper = b.HasTag("upper")
	return nil
}

func (e *letterCase) Eval(_ context.Context, _ core.Env, args []core.Value) (core.Value, error) {
	s, is := args[0].(string)
	if !is {
		if args[0] == nil {
			return nil, nil
		}
		s = core.FormatValue(args[0])
	}
	if e.upper {
		return strings.ToUpper(s), nil
	}
	return strings.ToLower(s), nil
}

// schedule folds a literal cron expression into a literal Schedule.
type schedule struct {
	typ    *core.Type
	parsed *Schedule
}

func (e *schedule) Init(args []core.Node, _ *core.Binding) error {
	lit, is := args[0].(*core.Literal)
	if !is {
		return nil
	}
	spec, is := lit.Value.(string)
	if !is {
		return fmt.Errorf("cron schedule needs a string, not %s", lit)
	}
	s, err := ParseSchedule(spec)
	if err != nil {
		return err
	}
	e.parsed = s
	return nil
}

func (e *schedule) Build(args []core.Node, b *core.Binding) (core.Node, error) {
	if e.parsed != nil {
		return &core.Literal{
			Value: e.parsed,
			Type:  e.typ,
		}, nil
	}
	return &core.Call{
		Handle:  b.Handle,
		Kind:    core.Expression,
		Pattern: b.Pattern.Source,
		Element: e,
		Args:    args,
		Binding: b,
		Type:    e.typ,
	}, nil
}

func (e *schedule) Eval(_ context.Context, _ core.Env, args []core.Value) (core.Value, error) {
	switch x := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		s, err := ParseSchedule(x)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("cron schedule needs a string, not %s", core.FormatValue(x))
	}
}

func nextRun(_ context.Context, env core.Env, args []core.Value) (core.Value, error) {
	switch x := args[0].(type) {
	case nil:
		return nil, nil
	case *Schedule:
		t := x.Next(env.Now())
		if t.IsZero() {
			return nil, nil
		}
		return t, nil
	default:
		return nil, fmt.Errorf("next run of %s", core.FormatValue(x))
	}
}
