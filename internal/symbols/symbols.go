// Package symbols translates HYDAT quality symbols (estimated, ice
// conditions, and so on) into their English or French descriptions using the
// archive's own SYMBOLS lookup table.
package symbols

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// Output selects how a symbol is rendered in tidy rows.
type Output string

const (
	// Code keeps the raw one-letter symbol code. Default.
	Code Output = "code"
	// English renders the English description.
	English Output = "english"
	// French renders the French description.
	French Output = "french"
)

// InvalidOutputError reports an Output value outside the allowed set.
type InvalidOutputError struct {
	Value Output
}

func (e *InvalidOutputError) Error() string {
	return fmt.Sprintf("invalid symbol output %q: must be one of code, english, french", string(e.Value))
}

// Validate checks an Output value. The empty string is accepted as Code so
// the zero Query value works.
func Validate(out Output) error {
	switch out {
	case "", Code, English, French:
		return nil
	default:
		return &InvalidOutputError{Value: out}
	}
}

// Symbol is one row of the SYMBOLS lookup table.
type Symbol struct {
	SymbolID string `gorm:"column:SYMBOL_ID;primaryKey"`
	SymbolEN string `gorm:"column:SYMBOL_EN"`
	SymbolFR string `gorm:"column:SYMBOL_FR"`
}

// TableName maps the model onto the HYDAT table.
func (Symbol) TableName() string {
	return "SYMBOLS"
}

// Table is the symbol lookup keyed by code.
type Table map[string]Symbol

// Load reads the full SYMBOLS table.
func Load(ctx context.Context, gdb *gorm.DB) (Table, error) {
	var rows []Symbol
	if err := gdb.WithContext(ctx).Order("SYMBOL_ID").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load symbol table: %w", err)
	}

	table := make(Table, len(rows))
	for _, s := range rows {
		table[s.SymbolID] = s
	}
	return table, nil
}

// All returns the lookup rows ordered by code.
func (t Table) All() []Symbol {
	out := make([]Symbol, 0, len(t))
	for _, s := range t {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SymbolID < out[j].SymbolID })
	return out
}

// Render resolves a raw symbol code for the selected output. Behaves as a
// left join: a code with no lookup entry renders as a null label instead of
// failing.
func (t Table) Render(code sql.NullString, out Output) sql.NullString {
	if !code.Valid || out == "" || out == Code {
		return code
	}

	entry, ok := t[code.String]
	if !ok {
		return sql.NullString{}
	}
	switch out {
	case English:
		return sql.NullString{String: entry.SymbolEN, Valid: true}
	case French:
		return sql.NullString{String: entry.SymbolFR, Valid: true}
	default:
		return code
	}
}
