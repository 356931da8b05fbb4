package hydat

import (
	"github.com/cshydro/hydat-go/internal/daterange"
	"github.com/cshydro/hydat-go/internal/symbols"
)

// DateRange is an inclusive YYYY-MM-DD start/end pair. A nil *DateRange in a
// Query means "all available data".
type DateRange = daterange.Range

// SymbolOutput selects how quality symbols are rendered.
type SymbolOutput = symbols.Output

// Symbol output values. The zero value behaves as SymbolCode.
const (
	SymbolCode    = symbols.Code
	SymbolEnglish = symbols.English
	SymbolFrench  = symbols.French
)

// Query is the shared parameter surface of the dataset functions.
//
// Stations are used verbatim; their existence is not pre-checked. Provinces
// are validated against the closed jurisdiction set. When both are given the
// result covers the union of the explicit stations and every station in the
// listed jurisdictions. With neither, all stations are returned.
type Query struct {
	Stations  []string
	Provinces []string
	Range     *DateRange
	Symbols   SymbolOutput
}
