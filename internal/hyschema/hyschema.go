// Package hyschema enumerates the wide-table layouts of the HYDAT archive.
//
// HYDAT stores daily datasets one row per (station, year, month), with a
// value column and (for most tables) a symbol column per day of month:
//
//	STATION_NUMBER | YEAR | MONTH | NO_DAYS | FLOW1 | FLOW_SYMBOL1 | ... | FLOW31 | FLOW_SYMBOL31
//
// The column names are resolved here once, per table, instead of being
// discovered by name-pattern matching at query time.
package hyschema

import "fmt"

// MaxDays is the number of day-indexed column pairs each wide table carries.
const MaxDays = 31

// WideTable describes one day-per-column HYDAT table.
type WideTable struct {
	// Name is the SQL table name.
	Name string
	// Parameter labels the measurement in tidy output rows.
	Parameter string
	// ValuePrefix is the prefix of the 31 value columns (e.g. "FLOW" -> FLOW1..FLOW31).
	ValuePrefix string
	// SymbolPrefix is the prefix of the 31 symbol columns, or "" when the
	// table has no symbol channel (SED_DLY_LOADS).
	SymbolPrefix string
}

// The wide tables this library reads. SED_DLY_LOADS carries no symbol columns.
var (
	DailyFlows = WideTable{
		Name:         "DLY_FLOWS",
		Parameter:    "Flow",
		ValuePrefix:  "FLOW",
		SymbolPrefix: "FLOW_SYMBOL",
	}
	DailyLevels = WideTable{
		Name:         "DLY_LEVELS",
		Parameter:    "Level",
		ValuePrefix:  "LEVEL",
		SymbolPrefix: "LEVEL_SYMBOL",
	}
	SedimentDailyLoads = WideTable{
		Name:        "SED_DLY_LOADS",
		Parameter:   "Load",
		ValuePrefix: "LOAD",
	}
)

// HasSymbols reports whether the table carries per-day symbol columns.
func (t WideTable) HasSymbols() bool {
	return t.SymbolPrefix != ""
}

// ValueColumn returns the value column name for a 1-based day of month.
func (t WideTable) ValueColumn(day int) string {
	return fmt.Sprintf("%s%d", t.ValuePrefix, day)
}

// SymbolColumn returns the symbol column name for a 1-based day of month.
// Only meaningful when HasSymbols is true.
func (t WideTable) SymbolColumn(day int) string {
	return fmt.Sprintf("%s%d", t.SymbolPrefix, day)
}

// SelectColumns returns the full ordered column list for reading the table:
// STATION_NUMBER, YEAR, MONTH, NO_DAYS, then the interleaved value/symbol
// pair (or the bare value column) for each day 1..31.
func (t WideTable) SelectColumns() []string {
	cols := make([]string, 0, 4+2*MaxDays)
	cols = append(cols, "STATION_NUMBER", "YEAR", "MONTH", "NO_DAYS")
	for day := 1; day <= MaxDays; day++ {
		cols = append(cols, t.ValueColumn(day))
		if t.HasSymbols() {
			cols = append(cols, t.SymbolColumn(day))
		}
	}
	return cols
}
