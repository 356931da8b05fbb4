// Package daterange parses and compiles inclusive date ranges for HYDAT
// queries. A nil range means "all available data"; there is no string
// sentinel.
package daterange

import (
	"fmt"
	"log"
	"time"
)

// Layout is the only accepted literal date format.
const Layout = "2006-01-02"

// Range is an inclusive start/end date pair in YYYY-MM-DD form.
type Range struct {
	Start string
	End   string
}

// FormatError reports a literal date that does not parse as YYYY-MM-DD.
type FormatError struct {
	Field string
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s %q: must be a valid date in YYYY-MM-DD format", e.Field, e.Value)
}

// OrderError reports a range whose start falls after its end.
type OrderError struct {
	Start string
	End   string
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("start date %s is after end date %s", e.Start, e.End)
}

// Plan is a compiled range ready for query pushdown. The year bounds narrow
// the SQL query before row materialization; the exact bounds are applied
// after dates are reconstructed, so partial months at the range edges are
// not discarded early.
type Plan struct {
	Filtered  bool
	Start     time.Time
	End       time.Time
	StartYear int
	EndYear   int
}

// Compile validates a range and derives its pushdown plan. A nil range
// compiles to an unfiltered plan and logs that the full period will be
// returned.
func Compile(r *Range) (Plan, error) {
	if r == nil {
		log.Printf("daterange: no start/end dates provided, all dates available will be returned")
		return Plan{}, nil
	}

	start, err := time.ParseInLocation(Layout, r.Start, time.UTC)
	if err != nil {
		return Plan{}, &FormatError{Field: "start date", Value: r.Start}
	}
	end, err := time.ParseInLocation(Layout, r.End, time.UTC)
	if err != nil {
		return Plan{}, &FormatError{Field: "end date", Value: r.End}
	}
	if start.After(end) {
		return Plan{}, &OrderError{Start: r.Start, End: r.End}
	}

	return Plan{
		Filtered:  true,
		Start:     start,
		End:       end,
		StartYear: start.Year(),
		EndYear:   end.Year(),
	}, nil
}

// Contains reports whether t falls inside the plan's inclusive bounds.
// An unfiltered plan contains every date.
func (p Plan) Contains(t time.Time) bool {
	if !p.Filtered {
		return true
	}
	return !t.Before(p.Start) && !t.After(p.End)
}
