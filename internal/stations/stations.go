// Package stations resolves the set of station numbers a query targets,
// validating jurisdiction filters against the closed set of codes that
// appear in the HYDAT archive.
package stations

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sort"
	"strings"
)

// jurisdictions is the closed set of PROV_TERR_STATE_LOC codes: the thirteen
// Canadian provinces and territories plus the US border states with gauges
// in the archive.
var jurisdictions = map[string]struct{}{
	"AB": {}, "BC": {}, "MB": {}, "NB": {}, "NL": {}, "NS": {}, "NT": {},
	"NU": {}, "ON": {}, "PE": {}, "QC": {}, "SK": {}, "YT": {},
	"AK": {}, "ID": {}, "ME": {}, "MI": {}, "MN": {}, "MT": {}, "ND": {},
	"NY": {}, "OH": {}, "VT": {}, "WA": {}, "WI": {},
}

// InvalidJurisdictionError names every unrecognized jurisdiction code in a
// request. The request fails as a whole; there are no partial results.
type InvalidJurisdictionError struct {
	Codes []string
}

func (e *InvalidJurisdictionError) Error() string {
	return fmt.Sprintf("invalid jurisdiction code(s): %s", strings.Join(e.Codes, ", "))
}

// ValidateProvinces checks every code against the closed jurisdiction set.
func ValidateProvinces(provinces []string) error {
	var bad []string
	for _, p := range provinces {
		if _, ok := jurisdictions[p]; !ok {
			bad = append(bad, p)
		}
	}
	if len(bad) > 0 {
		return &InvalidJurisdictionError{Codes: bad}
	}
	return nil
}

// Resolve computes the definitive station set for a query.
//
// With neither filter it returns every station in the archive and all=true,
// which lets callers skip the station predicate entirely. Explicit station
// numbers are taken verbatim (existence is not pre-checked). When both
// filters are present the result is the union of the explicit list and the
// jurisdiction members; this mirrors the long-standing behavior of the
// source query functions and is kept for compatibility.
func Resolve(ctx context.Context, db *sql.DB, stationNumbers, provinces []string) (numbers []string, all bool, err error) {
	if err := ValidateProvinces(provinces); err != nil {
		return nil, false, err
	}

	if len(stationNumbers) == 0 && len(provinces) == 0 {
		numbers, err = allStations(ctx, db)
		if err != nil {
			return nil, false, err
		}
		return numbers, true, nil
	}

	set := make(map[string]struct{}, len(stationNumbers))
	for _, s := range stationNumbers {
		set[s] = struct{}{}
	}
	if len(provinces) > 0 {
		members, err := provinceStations(ctx, db, provinces)
		if err != nil {
			return nil, false, err
		}
		for _, s := range members {
			set[s] = struct{}{}
		}
	}

	numbers = make([]string, 0, len(set))
	for s := range set {
		numbers = append(numbers, s)
	}
	sort.Strings(numbers)
	return numbers, false, nil
}

// ReportMissing logs an informational notice for requested stations that
// produced no rows. It never fails the call.
func ReportMissing(requested []string, returned map[string]struct{}) {
	var missing []string
	for _, s := range requested {
		if _, ok := returned[s]; !ok {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		log.Printf("stations: no data found for station(s): %s", strings.Join(missing, ", "))
	}
}

func allStations(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT STATION_NUMBER FROM STATIONS ORDER BY STATION_NUMBER`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()
	return scanNumbers(rows)
}

func provinceStations(ctx context.Context, db *sql.DB, provinces []string) ([]string, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(provinces)), ",")
	args := make([]interface{}, len(provinces))
	for i, p := range provinces {
		args[i] = p
	}

	query := fmt.Sprintf(
		`SELECT STATION_NUMBER FROM STATIONS WHERE PROV_TERR_STATE_LOC IN (%s) ORDER BY STATION_NUMBER`,
		placeholders,
	)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations by jurisdiction: %w", err)
	}
	defer rows.Close()
	return scanNumbers(rows)
}

func scanNumbers(rows *sql.Rows) ([]string, error) {
	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan station number: %w", err)
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating station numbers: %w", err)
	}
	return numbers, nil
}
