// Command hydat-poll polls the ECCC datamart for realtime hydrometric
// observations on a cron schedule and appends them as tidy CSV rows.
// Usage: hydat-poll -stations 08MF005,02HC003 [-schedule "*/15 * * * *"] [-out readings.csv]
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	hydat "github.com/cshydro/hydat-go"
	"github.com/cshydro/hydat-go/internal/config"
)

func main() {
	cfg := config.NewConfig()

	stationsFlag := flag.String("stations", "", "comma-separated station numbers to poll")
	provincesFlag := flag.String("provinces", "", "comma-separated jurisdiction codes to poll")
	period := flag.String("period", hydat.RealtimeHourly, "datamart period: hourly or daily")
	schedule := flag.String("schedule", cfg.Poll.Schedule, "cron schedule for polling")
	once := flag.Bool("once", false, "poll a single time and exit")
	out := flag.String("out", "-", "output CSV file, or - for stdout")
	flag.Parse()

	query := hydat.Query{
		Stations:  splitList(*stationsFlag),
		Provinces: splitList(*provincesFlag),
	}
	if len(query.Stations) == 0 && len(query.Provinces) == 0 {
		log.Fatalf("hydat-poll: at least one of -stations or -provinces is required")
	}

	if *once {
		if err := poll(query, *period, *out); err != nil {
			log.Fatalf("hydat-poll: %v", err)
		}
		return
	}

	c := cron.New()
	_, err := c.AddFunc(*schedule, func() {
		if err := poll(query, *period, *out); err != nil {
			log.Printf("hydat-poll: poll failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("hydat-poll: invalid schedule %q: %v", *schedule, err)
	}

	c.Start()
	log.Printf("hydat-poll: started with schedule %q", *schedule)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	// Let a poll in flight finish before exiting.
	ctx := c.Stop()
	<-ctx.Done()
	log.Printf("hydat-poll: stopped")
}

func poll(query hydat.Query, period, out string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	readings, err := hydat.RealtimeData(ctx, query, period)
	if err != nil {
		return err
	}

	if err := writeCSV(out, readings); err != nil {
		return err
	}
	log.Printf("hydat-poll: wrote %d readings in %v", len(readings), time.Since(start).Round(time.Millisecond))
	return nil
}

func writeCSV(out string, readings []hydat.RealtimeReading) error {
	var w io.Writer = os.Stdout
	if out != "-" {
		f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	writer := csv.NewWriter(w)
	for _, r := range readings {
		record := []string{
			r.StationNumber,
			r.Province,
			r.Timestamp.Format(time.RFC3339),
			r.Parameter,
			formatValue(r.Value.Float64, r.Value.Valid),
			r.Grade.String,
			r.Symbol.String,
			r.Code.String,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatValue(v float64, valid bool) string {
	if !valid {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
