// Package realtime fetches provisional hydrometric observations from the
// ECCC datamart. The datamart serves one CSV file per (province, station,
// period); rows arrive already long, one timestamp per row with a water
// level and a discharge reading, so no wide-to-long reshaping happens here.
package realtime

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cshydro/hydat-go/internal/config"
)

// Reporting periods available on the datamart.
const (
	PeriodHourly = "hourly"
	PeriodDaily  = "daily"
)

const (
	defaultTimeout     = 30 * time.Second
	maxRetries         = 3
	initialRetryDelay  = 1 * time.Second
	maxRetryDelay      = 30 * time.Second
	retryBackoffFactor = 2
)

// Observation is one timestamped parameter reading for a station.
type Observation struct {
	StationNumber string
	Timestamp     time.Time
	Parameter     string // "Level" or "Flow"
	Value         sql.NullFloat64
	Grade         sql.NullString
	Symbol        sql.NullString
	Code          sql.NullString // QA/QC code
}

// Station is one row of the datamart station list.
type Station struct {
	StationNumber string
	Name          string
	Latitude      float64
	Longitude     float64
	Province      string
	Timezone      string
}

// Client fetches CSV files from the datamart.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clock      clockwork.Clock
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the datamart root URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient overrides the HTTP client (timeout included).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock overrides the clock used for retry backoff.
func WithClock(clk clockwork.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

// NewClient creates a datamart client with configured defaults.
func NewClient(opts ...Option) *Client {
	cfg := config.NewConfig()
	timeout := cfg.Datamart.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.Datamart.BaseURL, "/"),
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Data fetches the observation file for one station and parses it into long
// rows. Each CSV record yields a Level and a Flow observation.
func (c *Client) Data(ctx context.Context, province, stationNumber, period string) ([]Observation, error) {
	if period != PeriodHourly && period != PeriodDaily {
		return nil, fmt.Errorf("invalid period %q: must be %q or %q", period, PeriodHourly, PeriodDaily)
	}

	url := fmt.Sprintf("%s/csv/%s/%s/%s_%s_%s_hydrometric.csv",
		c.baseURL, province, period, province, stationNumber, period)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return parseObservations(body)
}

// StationList fetches the datamart's list of realtime stations.
func (c *Client) StationList(ctx context.Context) ([]Station, error) {
	body, err := c.get(ctx, c.baseURL+"/doc/hydrometric_StationList.csv")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return parseStationList(body)
}

// get issues a GET with bounded retries on rate limits and server errors.
func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-c.clock.After(retryDelay(attempt)):
			}
		}

		var body io.ReadCloser
		body, lastErr = c.doGet(ctx, url)
		if lastErr == nil {
			return body, nil
		}
		if !isRetryable(lastErr) {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doGet(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.Body, nil
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrStationNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		resp.Body.Close()
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		resp.Body.Close()
		return nil, &ServerError{StatusCode: resp.StatusCode}
	default:
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// Datamart observation files:
//
//	ID, Date, Water Level (m), Grade, Symbol, QA/QC, Discharge (cms), Grade, Symbol, QA/QC
func parseObservations(r io.Reader) ([]Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var out []Observation
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse observation CSV: %w", err)
		}
		if first {
			first = false // header row
			continue
		}
		if len(record) < 10 {
			return nil, fmt.Errorf("malformed observation row: expected 10 columns, got %d", len(record))
		}

		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(record[1]))
		if err != nil {
			return nil, fmt.Errorf("failed to parse observation timestamp %q: %w", record[1], err)
		}
		station := strings.TrimSpace(record[0])

		out = append(out,
			Observation{
				StationNumber: station,
				Timestamp:     ts,
				Parameter:     "Level",
				Value:         parseValue(record[2]),
				Grade:         nullable(record[3]),
				Symbol:        nullable(record[4]),
				Code:          nullable(record[5]),
			},
			Observation{
				StationNumber: station,
				Timestamp:     ts,
				Parameter:     "Flow",
				Value:         parseValue(record[6]),
				Grade:         nullable(record[7]),
				Symbol:        nullable(record[8]),
				Code:          nullable(record[9]),
			},
		)
	}
	return out, nil
}

// Station list file:
//
//	ID, Name, Latitude, Longitude, Prov/Terr, Timezone
func parseStationList(r io.Reader) ([]Station, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var out []Station
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse station list CSV: %w", err)
		}
		if first {
			first = false
			continue
		}
		if len(record) < 6 {
			return nil, fmt.Errorf("malformed station list row: expected 6 columns, got %d", len(record))
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse latitude %q: %w", record[2], err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse longitude %q: %w", record[3], err)
		}

		out = append(out, Station{
			StationNumber: strings.TrimSpace(record[0]),
			Name:          strings.TrimSpace(record[1]),
			Latitude:      lat,
			Longitude:     lon,
			Province:      strings.TrimSpace(record[4]),
			Timezone:      strings.TrimSpace(record[5]),
		})
	}
	return out, nil
}

func parseValue(s string) sql.NullFloat64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func nullable(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func retryDelay(attempt int) time.Duration {
	delay := initialRetryDelay
	for i := 1; i < attempt; i++ {
		delay *= time.Duration(retryBackoffFactor)
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func isRetryable(err error) bool {
	if err == ErrRateLimited {
		return true
	}
	if _, ok := err.(*ServerError); ok {
		return true
	}
	return false
}
