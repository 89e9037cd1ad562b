// Package syntax provides the standard set of patterns: literals,
// variables, arithmetic, and a few expressions, conditions, and
// effects.
package syntax

import (
	"github.com/xStarless-Skyx/skparse/core"

	"go.uber.org/zap"
)

// Owner is the owner of the standard registrations.
const Owner = "skparse"

// Types holds the types the standard syntax adds to a TypeTable.
type Types struct {
	Schedule *core.Type
	Date     *core.Type
}

// DefineTypes adds the "schedule" and "date" types to the table, or
// finds them if they're already there.
func DefineTypes(tt *core.TypeTable) (*Types, error) {
	get := func(name, plural string) (*core.Type, error) {
		if t := tt.Get(name); t != nil {
			return t, nil
		}
		return tt.Define(name, plural)
	}
	s, err := get("schedule", "schedules")
	if err != nil {
		return nil, err
	}
	d, err := get("date", "dates")
	if err != nil {
		return nil, err
	}
	return &Types{
		Schedule: s,
		Date:     d,
	}, nil
}

// Standard registers the standard syntax.
func Standard(reg *core.Registry) error {
	ts, err := DefineTypes(reg.Types())
	if err != nil {
		return err
	}

	var regs []core.Registration
	regs = append(regs, literals()...)
	regs = append(regs, arithmetic())
	regs = append(regs, expressions(ts)...)
	regs = append(regs, conditions()...)
	regs = append(regs, effects()...)

	for _, r := range regs {
		r.Owner = Owner
		if _, err := reg.Register(r); err != nil {
			reg.UnregisterOwner(Owner)
			return err
		}
	}
	return nil
}

// NewParser makes a TypeTable, a Registry with the standard syntax,
// and a Parser that uses them.  The logger can be nil.
func NewParser(logger *zap.Logger) (*core.Parser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := core.NewRegistry(core.NewTypeTable(), logger.Named("registry"))
	if err := Standard(reg); err != nil {
		return nil, err
	}
	return core.NewParser(reg, logger.Named("parser")), nil
}
