// Package reshape flattens HYDAT's row-per-month daily tables into one
// observation per (station, date).
//
// Each wide row carries up to 31 paired value/symbol columns plus a NO_DAYS
// count. The count is authoritative: day columns past it are calendar
// padding (day 30 of February, day 31 of April) and are never emitted, so
// leap years and short months need no hard-coded calendar tables.
package reshape

import (
	"database/sql"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cshydro/hydat-go/internal/hyschema"
)

// WideRow is one (station, year, month) row read from a wide table. Values
// are kept as raw text so that non-numeric placeholders can be coerced to
// missing rather than failing the scan.
type WideRow struct {
	StationNumber string
	Year          int
	Month         time.Month
	DaysInMonth   int
	Values        [hyschema.MaxDays]sql.NullString
	Symbols       [hyschema.MaxDays]sql.NullString
}

// Observation is one tidy (station, date) measurement.
type Observation struct {
	StationNumber string
	Date          time.Time
	Value         sql.NullFloat64
	Symbol        sql.NullString
}

// Long converts wide rows into tidy observations, sorted ascending by date
// (then station number for determinism). Days beyond a row's DaysInMonth
// are discarded; values that fail numeric coercion become missing.
func Long(rows []WideRow) []Observation {
	var out []Observation
	for _, row := range rows {
		days := row.DaysInMonth
		if days > hyschema.MaxDays {
			days = hyschema.MaxDays
		}
		for day := 1; day <= days; day++ {
			out = append(out, Observation{
				StationNumber: row.StationNumber,
				Date:          time.Date(row.Year, row.Month, day, 0, 0, 0, 0, time.UTC),
				Value:         coerceNumeric(row.Values[day-1]),
				Symbol:        row.Symbols[day-1],
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StationNumber < out[j].StationNumber
	})
	return out
}

// coerceNumeric parses a raw column value as a float. NULLs and non-numeric
// text (placeholder strings in some archive releases) come out missing.
func coerceNumeric(raw sql.NullString) sql.NullFloat64 {
	if !raw.Valid {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw.String), 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
