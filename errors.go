package hydat

import (
	"errors"

	"github.com/cshydro/hydat-go/internal/daterange"
	"github.com/cshydro/hydat-go/internal/stations"
	"github.com/cshydro/hydat-go/internal/symbols"
)

// ErrNoData indicates a well-formed query matched zero observations after
// station and date filtering. Query functions return it instead of an empty
// table.
var ErrNoData = errors.New("no data for the requested stations and dates")

// ErrNoPath indicates no archive location was supplied and the HYDAT_PATH
// environment variable is unset.
var ErrNoPath = errors.New("no hydat database path: pass hydat.Path or set HYDAT_PATH")

// ErrNotHydat indicates the SQLite file opened is not a HYDAT archive.
var ErrNotHydat = errors.New("database is not a hydat archive (STATIONS table missing)")

// Validation error types, usable with errors.As. They are raised before any
// query executes.
type (
	// InvalidJurisdictionError names unrecognized jurisdiction codes.
	InvalidJurisdictionError = stations.InvalidJurisdictionError
	// DateFormatError reports a date literal that is not YYYY-MM-DD.
	DateFormatError = daterange.FormatError
	// DateOrderError reports a range whose start falls after its end.
	DateOrderError = daterange.OrderError
	// InvalidSymbolOutputError reports a SymbolOutput outside code/english/french.
	InvalidSymbolOutputError = symbols.InvalidOutputError
)
