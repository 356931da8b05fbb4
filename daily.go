package hydat

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cshydro/hydat-go/internal/daterange"
	"github.com/cshydro/hydat-go/internal/hyschema"
	"github.com/cshydro/hydat-go/internal/reshape"
	"github.com/cshydro/hydat-go/internal/stations"
	"github.com/cshydro/hydat-go/internal/symbols"
)

// dailyTable runs the fixed query pipeline shared by the wide daily
// datasets: validate, resolve connection and stations, plan the date range,
// pull the wide rows narrowed by year, reshape to long, apply the exact
// date filter, translate symbols and sort.
func dailyTable(ctx context.Context, src ConnectionSource, q Query, table hyschema.WideTable) ([]Reading, error) {
	if err := symbols.Validate(q.Symbols); err != nil {
		return nil, err
	}
	if err := stations.ValidateProvinces(q.Provinces); err != nil {
		return nil, err
	}
	plan, err := daterange.Compile(q.Range)
	if err != nil {
		return nil, err
	}

	db, owned, err := acquire(ctx, src)
	if err != nil {
		return nil, err
	}
	defer release(db, owned)

	numbers, all, err := stations.Resolve(ctx, db, q.Stations, q.Provinces)
	if err != nil {
		return nil, err
	}

	wide, err := queryWide(ctx, db, table, numbers, all, plan)
	if err != nil {
		return nil, err
	}

	observations := reshape.Long(wide)

	// The year-range pushdown keeps whole months; the exact filter trims the
	// boundary months here, after dates exist.
	filtered := observations[:0]
	for _, o := range observations {
		if plan.Contains(o.Date) {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("%s for station(s) %s: %w",
			table.Name, strings.Join(numbers, ", "), ErrNoData)
	}

	var lookup symbols.Table
	if table.HasSymbols() && q.Symbols != "" && q.Symbols != SymbolCode {
		gdb, err := gormOver(db)
		if err != nil {
			return nil, err
		}
		lookup, err = symbols.Load(ctx, gdb)
		if err != nil {
			return nil, err
		}
	}

	readings := make([]Reading, 0, len(filtered))
	returned := make(map[string]struct{})
	for _, o := range filtered {
		symbol := o.Symbol
		if lookup != nil {
			symbol = lookup.Render(o.Symbol, q.Symbols)
		}
		readings = append(readings, Reading{
			StationNumber: o.StationNumber,
			Date:          o.Date,
			Parameter:     table.Parameter,
			Value:         o.Value,
			Symbol:        symbol,
		})
		returned[o.StationNumber] = struct{}{}
	}

	stations.ReportMissing(q.Stations, returned)
	return readings, nil
}

// queryWide reads the wide table rows for the resolved stations, narrowed by
// year range when a date filter is in effect. When all stations are wanted
// the station predicate is omitted entirely.
func queryWide(ctx context.Context, db *sql.DB, table hyschema.WideTable, numbers []string, all bool, plan daterange.Plan) ([]reshape.WideRow, error) {
	cols := table.SelectColumns()
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), table.Name)

	var clauses []string
	var args []interface{}
	if !all {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(numbers)), ",")
		clauses = append(clauses, fmt.Sprintf("STATION_NUMBER IN (%s)", placeholders))
		for _, n := range numbers {
			args = append(args, n)
		}
	}
	if plan.Filtered {
		clauses = append(clauses, "YEAR BETWEEN ? AND ?")
		args = append(args, plan.StartYear, plan.EndYear)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY STATION_NUMBER, YEAR, MONTH"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table.Name, err)
	}
	defer rows.Close()

	var wide []reshape.WideRow
	for rows.Next() {
		row, err := scanWideRow(rows, table)
		if err != nil {
			return nil, err
		}
		wide = append(wide, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", table.Name, err)
	}
	return wide, nil
}

func scanWideRow(rows *sql.Rows, table hyschema.WideTable) (reshape.WideRow, error) {
	var (
		row    reshape.WideRow
		year   int
		month  int
		noDays sql.NullInt64
	)

	dest := make([]interface{}, 0, 4+2*hyschema.MaxDays)
	dest = append(dest, &row.StationNumber, &year, &month, &noDays)
	for day := 1; day <= hyschema.MaxDays; day++ {
		dest = append(dest, &row.Values[day-1])
		if table.HasSymbols() {
			dest = append(dest, &row.Symbols[day-1])
		}
	}

	if err := rows.Scan(dest...); err != nil {
		return reshape.WideRow{}, fmt.Errorf("failed to scan %s row: %w", table.Name, err)
	}

	row.Year = year
	row.Month = time.Month(month)
	if noDays.Valid {
		row.DaysInMonth = int(noDays.Int64)
	}
	return row, nil
}
