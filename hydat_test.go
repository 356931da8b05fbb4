package hydat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cshydro/hydat-go/internal/hyschema"
)

// newFixture builds a miniature HYDAT archive with three stations and a few
// months of flow, level and sediment data.
func newFixture(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "Hydat.sqlite3")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE STATIONS (
		STATION_NUMBER TEXT PRIMARY KEY,
		STATION_NAME TEXT,
		PROV_TERR_STATE_LOC TEXT,
		REGIONAL_OFFICE_ID TEXT,
		HYD_STATUS TEXT,
		SED_STATUS TEXT,
		LATITUDE REAL,
		LONGITUDE REAL,
		DRAINAGE_AREA_GROSS REAL,
		DRAINAGE_AREA_EFFECT REAL,
		RHBN INTEGER,
		REAL_TIME INTEGER,
		CONTRIBUTOR_ID INTEGER,
		OPERATOR_ID INTEGER,
		DATUM_ID INTEGER
	)`)
	require.NoError(t, err)

	type stn struct {
		number, name, prov string
		lat, lon           float64
	}
	for _, s := range []stn{
		{"02HC003", "HUMBER RIVER AT WESTON", "ON", 43.7063, -79.5184},
		{"05AA008", "CROWSNEST RIVER AT FRANK", "AB", 49.5975, -114.4089},
		{"08MF005", "FRASER RIVER AT HOPE", "BC", 49.3860, -121.4540},
	} {
		_, err = db.Exec(`INSERT INTO STATIONS
			(STATION_NUMBER, STATION_NAME, PROV_TERR_STATE_LOC, LATITUDE, LONGITUDE, RHBN, REAL_TIME)
			VALUES (?, ?, ?, ?, ?, 0, 1)`,
			s.number, s.name, s.prov, s.lat, s.lon)
		require.NoError(t, err)
	}

	for _, table := range []hyschema.WideTable{
		hyschema.DailyFlows, hyschema.DailyLevels, hyschema.SedimentDailyLoads,
	} {
		createWideTable(t, db, table)
	}

	// Flows. 1976-02 is a leap February; the FLOW30/31 padding columns hold
	// values that must never surface.
	insertMonth(t, db, hyschema.DailyFlows, "05AA008", 1976, 2, 29,
		seq(1, 29, 10), map[int]string{1: "E", 30: "", 31: ""})
	insertMonth(t, db, hyschema.DailyFlows, "05AA008", 1981, 4, 30,
		withPadding(seq(1, 30, 0), 31), nil)
	insertMonth(t, db, hyschema.DailyFlows, "08MF005", 1981, 1, 31,
		seq(1, 31, 100), nil)
	insertMonth(t, db, hyschema.DailyFlows, "08MF005", 1981, 2, 28,
		withPadding(seq(1, 28, 200), 29, 30, 31), nil)

	// Levels.
	insertMonth(t, db, hyschema.DailyLevels, "08MF005", 1990, 1, 31,
		seq(1, 31, 1), map[int]string{2: "B"})

	// Sediment loads.
	insertMonth(t, db, hyschema.SedimentDailyLoads, "05AA008", 1985, 6, 30,
		seq(1, 30, 50), nil)

	_, err = db.Exec(`CREATE TABLE SYMBOLS (
		SYMBOL_ID TEXT PRIMARY KEY,
		SYMBOL_EN TEXT,
		SYMBOL_FR TEXT
	)`)
	require.NoError(t, err)
	for _, s := range [][3]string{
		{"A", "Partial Day", "Journée incomplète"},
		{"B", "Ice Conditions", "Conditions à glace"},
		{"E", "Estimate", "Estimé"},
	} {
		_, err = db.Exec(`INSERT INTO SYMBOLS (SYMBOL_ID, SYMBOL_EN, SYMBOL_FR) VALUES (?, ?, ?)`,
			s[0], s[1], s[2])
		require.NoError(t, err)
	}

	_, err = db.Exec(`CREATE TABLE VERSION (Version TEXT, Date DATE)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO VERSION (Version, Date) VALUES (?, ?)`,
		"2.01", time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	return path
}

func createWideTable(t *testing.T, db *sql.DB, table hyschema.WideTable) {
	t.Helper()

	cols := []string{
		"STATION_NUMBER TEXT", "YEAR INTEGER", "MONTH INTEGER", "NO_DAYS INTEGER",
	}
	for day := 1; day <= hyschema.MaxDays; day++ {
		cols = append(cols, table.ValueColumn(day)+" REAL")
		if table.HasSymbols() {
			cols = append(cols, table.SymbolColumn(day)+" TEXT")
		}
	}
	_, err := db.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", table.Name, strings.Join(cols, ", ")))
	require.NoError(t, err)
}

func insertMonth(t *testing.T, db *sql.DB, table hyschema.WideTable, station string, year, month, noDays int, values map[int]float64, syms map[int]string) {
	t.Helper()

	cols := []string{"STATION_NUMBER", "YEAR", "MONTH", "NO_DAYS"}
	args := []interface{}{station, year, month, noDays}
	for day := 1; day <= hyschema.MaxDays; day++ {
		if v, ok := values[day]; ok {
			cols = append(cols, table.ValueColumn(day))
			args = append(args, v)
		}
		if s, ok := syms[day]; ok && s != "" {
			cols = append(cols, table.SymbolColumn(day))
			args = append(args, s)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table.Name, strings.Join(cols, ", "), placeholders)
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}

// seq fills days from..to with base+day.
func seq(from, to int, base float64) map[int]float64 {
	out := make(map[int]float64)
	for d := from; d <= to; d++ {
		out[d] = base + float64(d)
	}
	return out
}

// withPadding adds sentinel values in the calendar-padding columns past
// NO_DAYS; they must never appear in tidy output.
func withPadding(values map[int]float64, days ...int) map[int]float64 {
	for _, d := range days {
		values[d] = 999
	}
	return values
}

func stationSet(readings []Reading) map[string]struct{} {
	out := make(map[string]struct{})
	for _, r := range readings {
		out[r.StationNumber] = struct{}{}
	}
	return out
}

func TestDailyFlows_SingleStation(t *testing.T) {
	path := newFixture(t)

	readings, err := DailyFlows(context.Background(), Path(path), Query{
		Stations: []string{"08MF005"},
	})
	require.NoError(t, err)

	// January and February 1981.
	require.Len(t, readings, 31+28)
	for _, r := range readings {
		assert.Equal(t, "08MF005", r.StationNumber)
		assert.Equal(t, "Flow", r.Parameter)
	}
	for i := 1; i < len(readings); i++ {
		assert.True(t, !readings[i].Date.Before(readings[i-1].Date), "dates out of order")
	}
}

func TestDailyFlows_DateBounds(t *testing.T) {
	path := newFixture(t)

	readings, err := DailyFlows(context.Background(), Path(path), Query{
		Stations: []string{"08MF005"},
		Range:    &DateRange{Start: "1981-01-05", End: "1981-02-10"},
	})
	require.NoError(t, err)

	require.Len(t, readings, 27+10)
	assert.Equal(t, time.Date(1981, 1, 5, 0, 0, 0, 0, time.UTC), readings[0].Date)
	assert.Equal(t, time.Date(1981, 2, 10, 0, 0, 0, 0, time.UTC), readings[len(readings)-1].Date)
}

func TestDailyFlows_LeapDay(t *testing.T) {
	path := newFixture(t)

	readings, err := DailyFlows(context.Background(), Path(path), Query{
		Stations: []string{"05AA008"},
		Range:    &DateRange{Start: "1976-02-29", End: "1976-02-29"},
	})
	require.NoError(t, err)

	require.Len(t, readings, 1)
	assert.Equal(t, time.Date(1976, 2, 29, 0, 0, 0, 0, time.UTC), readings[0].Date)
	require.True(t, readings[0].Value.Valid)
	assert.InDelta(t, 39, readings[0].Value.Float64, 1e-9)
}

func TestDailyFlows_NoCalendarPadding(t *testing.T) {
	path := newFixture(t)

	readings, err := DailyFlows(context.Background(), Path(path), Query{
		Stations: []string{"05AA008", "08MF005"},
	})
	require.NoError(t, err)

	for _, r := range readings {
		switch {
		case r.Date.Month() == time.April:
			assert.LessOrEqual(t, r.Date.Day(), 30)
		case r.Date.Month() == time.February && r.Date.Year() == 1981:
			assert.LessOrEqual(t, r.Date.Day(), 28)
		case r.Date.Month() == time.February && r.Date.Year() == 1976:
			assert.LessOrEqual(t, r.Date.Day(), 29)
		}
		if r.Value.Valid {
			assert.NotEqual(t, 999.0, r.Value.Float64, "padding value leaked into %v", r.Date)
		}
	}
}

func TestDailyFlows_InvalidProvince(t *testing.T) {
	path := newFixture(t)

	_, err := DailyFlows(context.Background(), Path(path), Query{
		Provinces: []string{"BCD"},
	})
	require.Error(t, err)

	var jerr *InvalidJurisdictionError
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, []string{"BCD"}, jerr.Codes)
}

func TestDailyFlows_InvalidSymbolOutput(t *testing.T) {
	path := newFixture(t)

	_, err := DailyFlows(context.Background(), Path(path), Query{
		Stations: []string{"08MF005"},
		Symbols:  SymbolOutput("latin"),
	})
	require.Error(t, err)

	var serr *InvalidSymbolOutputError
	assert.ErrorAs(t, err, &serr)
}

func TestDailyFlows_BadDates(t *testing.T) {
	path := newFixture(t)

	_, err := DailyFlows(context.Background(), Path(path), Query{
		Stations: []string{"08MF005"},
		Range:    &DateRange{Start: "1981/01/01", End: "1981-02-01"},
	})
	var ferr *DateFormatError
	require.ErrorAs(t, err, &ferr)

	_, err = DailyFlows(context.Background(), Path(path), Query{
		Stations: []string{"08MF005"},
		Range:    &DateRange{Start: "1982-01-01", End: "1981-01-01"},
	})
	var oerr *DateOrderError
	require.ErrorAs(t, err, &oerr)
}

func TestDailyFlows_NoData(t *testing.T) {
	path := newFixture(t)

	_, err := DailyFlows(context.Background(), Path(path), Query{
		Stations: []string{"99ZZ999"},
	})
	assert.ErrorIs(t, err, ErrNoData)

	// A real station outside its period of record behaves the same.
	_, err = DailyFlows(context.Background(), Path(path), Query{
		Stations: []string{"08MF005"},
		Range:    &DateRange{Start: "1950-01-01", End: "1950-12-31"},
	})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDailyFlows_SymbolOutputs(t *testing.T) {
	path := newFixture(t)
	q := Query{
		Stations: []string{"05AA008"},
		Range:    &DateRange{Start: "1976-02-01", End: "1976-02-01"},
	}

	readings, err := DailyFlows(context.Background(), Path(path), q)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	require.True(t, readings[0].Symbol.Valid)
	assert.Equal(t, "E", readings[0].Symbol.String)

	q.Symbols = SymbolEnglish
	readings, err = DailyFlows(context.Background(), Path(path), q)
	require.NoError(t, err)
	assert.Equal(t, "Estimate", readings[0].Symbol.String)

	q.Symbols = SymbolFrench
	readings, err = DailyFlows(context.Background(), Path(path), q)
	require.NoError(t, err)
	assert.Equal(t, "Estimé", readings[0].Symbol.String)
}

func TestDailyFlows_ProvinceUnion(t *testing.T) {
	path := newFixture(t)
	ctx := context.Background()

	ab, err := DailyFlows(ctx, Path(path), Query{Provinces: []string{"AB"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"05AA008": {}}, stationSet(ab))

	bc, err := DailyFlows(ctx, Path(path), Query{Provinces: []string{"BC"}})
	require.NoError(t, err)

	both, err := DailyFlows(ctx, Path(path), Query{Provinces: []string{"AB", "BC"}})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(both), len(ab))
	assert.GreaterOrEqual(t, len(both), len(bc))
	assert.Len(t, both, len(ab)+len(bc))
}

func TestDailyFlows_StationPlusProvinceIsUnion(t *testing.T) {
	path := newFixture(t)

	// 02HC003 has no flow data; the AB stations supply the rows, and the
	// missing station only triggers a notice.
	readings, err := DailyFlows(context.Background(), Path(path), Query{
		Stations:  []string{"02HC003"},
		Provinces: []string{"AB"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"05AA008": {}}, stationSet(readings))
}

func TestDailyFlows_AllStations(t *testing.T) {
	path := newFixture(t)

	readings, err := DailyFlows(context.Background(), Path(path), Query{})
	require.NoError(t, err)

	set := stationSet(readings)
	assert.Contains(t, set, "05AA008")
	assert.Contains(t, set, "08MF005")
}

func TestDailyLevels(t *testing.T) {
	path := newFixture(t)

	readings, err := DailyLevels(context.Background(), Path(path), Query{
		Stations: []string{"08MF005"},
		Symbols:  SymbolEnglish,
	})
	require.NoError(t, err)

	require.Len(t, readings, 31)
	assert.Equal(t, "Level", readings[0].Parameter)
	require.True(t, readings[1].Symbol.Valid)
	assert.Equal(t, "Ice Conditions", readings[1].Symbol.String)
	assert.False(t, readings[0].Symbol.Valid)
}

func TestSedimentDailyLoads(t *testing.T) {
	path := newFixture(t)

	readings, err := SedimentDailyLoads(context.Background(), Path(path), Query{
		Stations: []string{"05AA008"},
	})
	require.NoError(t, err)

	require.Len(t, readings, 30)
	for _, r := range readings {
		assert.Equal(t, "Load", r.Parameter)
		assert.False(t, r.Symbol.Valid)
	}
}

func TestHandle_BorrowedConnectionStaysOpen(t *testing.T) {
	path := newFixture(t)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = DailyFlows(context.Background(), Handle(db), Query{Stations: []string{"08MF005"}})
	require.NoError(t, err)
	_, err = DailyLevels(context.Background(), Handle(db), Query{Stations: []string{"08MF005"}})
	require.NoError(t, err)

	// Still usable: the library must not have closed the borrowed handle.
	assert.NoError(t, db.Ping())
}

func TestPath_RejectsNonHydatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE notes (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = DailyFlows(context.Background(), Path(path), Query{})
	assert.ErrorIs(t, err, ErrNotHydat)
}

func TestPath_MissingFile(t *testing.T) {
	_, err := DailyFlows(context.Background(), Path(filepath.Join(t.TempDir(), "absent.sqlite3")), Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestPath_NoPathConfigured(t *testing.T) {
	t.Setenv("HYDAT_PATH", "")

	_, err := DailyFlows(context.Background(), Path(""), Query{})
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestPath_DefaultFromEnvironment(t *testing.T) {
	path := newFixture(t)
	t.Setenv("HYDAT_PATH", path)

	readings, err := DailyFlows(context.Background(), nil, Query{Stations: []string{"08MF005"}})
	require.NoError(t, err)
	assert.NotEmpty(t, readings)
}

func TestStations_Metadata(t *testing.T) {
	path := newFixture(t)

	out, err := Stations(context.Background(), Path(path), Query{Provinces: []string{"BC"}})
	require.NoError(t, err)

	require.Len(t, out, 1)
	s := out[0]
	assert.Equal(t, "08MF005", s.StationNumber)
	assert.Equal(t, "FRASER RIVER AT HOPE", s.StationName)
	assert.Equal(t, "BC", s.Province)
	require.True(t, s.Latitude.Valid)
	assert.InDelta(t, 49.386, s.Latitude.Float64, 1e-6)
	assert.True(t, s.RealTime)
	assert.False(t, s.RHBN)
}

func TestStations_All(t *testing.T) {
	path := newFixture(t)

	out, err := Stations(context.Background(), Path(path), Query{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "02HC003", out[0].StationNumber)
}

func TestAllStationNumbers(t *testing.T) {
	path := newFixture(t)

	numbers, err := AllStationNumbers(context.Background(), Path(path))
	require.NoError(t, err)
	assert.Equal(t, []string{"02HC003", "05AA008", "08MF005"}, numbers)
}

func TestArchiveVersion(t *testing.T) {
	path := newFixture(t)

	v, err := ArchiveVersion(context.Background(), Path(path))
	require.NoError(t, err)
	assert.Equal(t, "2.01", v.Version)
	assert.Equal(t, 2025, v.Date.Year())
}

func TestSymbolTable(t *testing.T) {
	path := newFixture(t)

	syms, err := SymbolTable(context.Background(), Path(path))
	require.NoError(t, err)

	require.Len(t, syms, 3)
	assert.Equal(t, "A", syms[0].SymbolID)
	assert.Equal(t, "Estimate", syms[2].SymbolEN)
}

func TestErrNoData_Wrapping(t *testing.T) {
	path := newFixture(t)

	_, err := DailyFlows(context.Background(), Path(path), Query{Stations: []string{"99ZZ999"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoData))
	assert.Contains(t, err.Error(), "99ZZ999")
}
