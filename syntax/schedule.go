package syntax

import (
	"time"

	"github.com/gorhill/cronexpr"
)

// Schedule is a parsed cron expression.
type Schedule struct {
	Spec string

	expr *cronexpr.Expression
}

// ParseSchedule parses a cron expression.  Five, six, and seven
// fields work, as do macros like "@hourly".
func ParseSchedule(spec string) (*Schedule, error) {
	expr, err := cronexpr.Parse(spec)
	if err != nil {
		return nil, err
	}
	return &Schedule{
		Spec: spec,
		expr: expr,
	}, nil
}

// Next returns the first time after t that the schedule fires.  The
// zero time means never.
func (s *Schedule) Next(t time.Time) time.Time {
	return s.expr.Next(t)
}

func (s *Schedule) String() string {
	return `cron schedule "` + s.Spec + `"`
}

// MarshalText renders the cron expression.
func (s *Schedule) MarshalText() ([]byte, error) {
	return []byte(s.Spec), nil
}
