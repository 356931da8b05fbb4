package hydat

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/cshydro/hydat-go/internal/daterange"
	"github.com/cshydro/hydat-go/internal/realtime"
	"github.com/cshydro/hydat-go/internal/stations"
	"github.com/cshydro/hydat-go/internal/symbols"
)

// Realtime reporting periods.
const (
	RealtimeHourly = realtime.PeriodHourly
	RealtimeDaily  = realtime.PeriodDaily
)

// ErrNoRealtimeFilter indicates RealtimeData was called with neither
// stations nor provinces; fetching every realtime station in the country is
// never done implicitly.
var ErrNoRealtimeFilter = errors.New("realtime queries require stations or provinces")

// RealtimeReading is one provisional observation from the datamart. Unlike
// archive readings it carries a full timestamp plus the datamart's grade and
// QA/QC code channels.
type RealtimeReading struct {
	StationNumber string
	Province      string
	Timestamp     time.Time
	Parameter     string
	Value         sql.NullFloat64
	Grade         sql.NullString
	Symbol        sql.NullString
	Code          sql.NullString
}

// RealtimeStation is one entry of the datamart station list.
type RealtimeStation = realtime.Station

// RealtimeData fetches provisional observations from the ECCC datamart for
// the stations matched by q, one CSV file per station. Rows arrive already
// long, so no reshaping happens; symbols stay raw datamart codes (the HYDAT
// symbol lookup does not cover provisional data). The date range filter
// applies to the civil date (UTC) of each timestamp.
//
// Requested stations absent from the datamart are reported in a notice and
// skipped; they fail the call only if nothing at all was found.
func RealtimeData(ctx context.Context, q Query, period string) ([]RealtimeReading, error) {
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
	if len(q.Stations) == 0 && len(q.Provinces) == 0 {
		return nil, ErrNoRealtimeFilter
	}

	client := realtime.NewClient()
	list, err := client.StationList(ctx)
	if err != nil {
		return nil, err
	}

	provinceOf := make(map[string]string, len(list))
	byProvince := make(map[string][]string)
	for _, s := range list {
		provinceOf[s.StationNumber] = s.Province
		byProvince[s.Province] = append(byProvince[s.Province], s.StationNumber)
	}

	// Same union semantics as the archive queries: explicit stations plus
	// every realtime station in the listed provinces.
	targets := make(map[string]struct{})
	for _, s := range q.Stations {
		if _, ok := provinceOf[s]; ok {
			targets[s] = struct{}{}
		}
	}
	for _, p := range q.Provinces {
		for _, s := range byProvince[p] {
			targets[s] = struct{}{}
		}
	}

	numbers := make([]string, 0, len(targets))
	for s := range targets {
		numbers = append(numbers, s)
	}
	sort.Strings(numbers)

	var readings []RealtimeReading
	returned := make(map[string]struct{})
	for _, number := range numbers {
		province := provinceOf[number]
		obs, err := client.Data(ctx, province, number, period)
		if errors.Is(err, realtime.ErrStationNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		for _, o := range obs {
			if !plan.Contains(civilDate(o.Timestamp)) {
				continue
			}
			readings = append(readings, RealtimeReading{
				StationNumber: o.StationNumber,
				Province:      province,
				Timestamp:     o.Timestamp,
				Parameter:     o.Parameter,
				Value:         o.Value,
				Grade:         o.Grade,
				Symbol:        o.Symbol,
				Code:          o.Code,
			})
			returned[o.StationNumber] = struct{}{}
		}
	}

	if len(readings) == 0 {
		return nil, ErrNoData
	}

	sort.Slice(readings, func(i, j int) bool {
		a, b := readings[i], readings[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.StationNumber != b.StationNumber {
			return a.StationNumber < b.StationNumber
		}
		return a.Parameter < b.Parameter
	})

	stations.ReportMissing(q.Stations, returned)
	return readings, nil
}

// RealtimeStations returns the datamart station list, optionally narrowed to
// the given jurisdictions.
func RealtimeStations(ctx context.Context, provinces []string) ([]RealtimeStation, error) {
	if err := stations.ValidateProvinces(provinces); err != nil {
		return nil, err
	}

	client := realtime.NewClient()
	list, err := client.StationList(ctx)
	if err != nil {
		return nil, err
	}
	if len(provinces) == 0 {
		return list, nil
	}

	wanted := make(map[string]struct{}, len(provinces))
	for _, p := range provinces {
		wanted[p] = struct{}{}
	}
	var out []RealtimeStation
	for _, s := range list {
		if _, ok := wanted[s.Province]; ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	return out, nil
}

// civilDate truncates a timestamp to its UTC calendar date.
func civilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
