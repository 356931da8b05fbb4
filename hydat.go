// Package hydat is a data-access client for Canadian hydrometric data. It
// reads the local HYDAT SQLite archive (daily flows, daily levels, sediment
// loads, station metadata) and the ECCC datamart (realtime observations),
// returning tidy tables with one row per station, date and parameter.
//
// # Usage
//
//	readings, err := hydat.DailyFlows(ctx, hydat.Path("/data/Hydat.sqlite3"), hydat.Query{
//		Stations: []string{"08MF005"},
//		Range:    &hydat.DateRange{Start: "1990-01-01", End: "1990-12-31"},
//	})
//
// The archive is opened read-only for the duration of the call. Callers who
// hold their own *sql.DB can pass it with hydat.Handle; the library then
// borrows the connection and never closes it.
package hydat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cshydro/hydat-go/internal/config"
)

// ConnectionSource tells a query function where the HYDAT archive lives:
// either a file path the library opens and closes itself, or a live handle
// the caller owns.
type ConnectionSource interface {
	source()
}

type pathSource struct {
	path string
}

type handleSource struct {
	db *sql.DB
}

func (pathSource) source()   {}
func (handleSource) source() {}

// Path points at a HYDAT SQLite file. An empty path falls back to the
// HYDAT_PATH environment variable. The connection is scoped to the call and
// closed on every exit path.
func Path(path string) ConnectionSource {
	return pathSource{path: path}
}

// Handle borrows an already-open connection. Ownership stays with the
// caller; the library never closes it.
func Handle(db *sql.DB) ConnectionSource {
	return handleSource{db: db}
}

// acquire opens or borrows the archive connection and validates that it
// looks like a HYDAT database. owned reports whether release must close it.
func acquire(ctx context.Context, src ConnectionSource) (db *sql.DB, owned bool, err error) {
	if src == nil {
		src = Path("")
	}

	switch s := src.(type) {
	case pathSource:
		path := s.path
		if path == "" {
			path = config.NewConfig().Database.Path
		}
		if path == "" {
			return nil, false, ErrNoPath
		}
		if _, err := os.Stat(path); err != nil {
			return nil, false, fmt.Errorf("hydat database not found at %s: %w", path, err)
		}

		db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
		if err != nil {
			return nil, false, fmt.Errorf("failed to open hydat database: %w", err)
		}
		if err := validateArchive(ctx, db); err != nil {
			db.Close()
			return nil, false, err
		}
		return db, true, nil

	case handleSource:
		if s.db == nil {
			return nil, false, errors.New("nil database handle")
		}
		if err := validateArchive(ctx, s.db); err != nil {
			return nil, false, err
		}
		return s.db, false, nil

	default:
		return nil, false, fmt.Errorf("unsupported connection source %T", src)
	}
}

func release(db *sql.DB, owned bool) {
	if owned {
		_ = db.Close()
	}
}

// validateArchive checks that the connection points at a HYDAT file rather
// than an arbitrary SQLite database.
func validateArchive(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to hydat database: %w", err)
	}

	var name string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'STATIONS'`,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return ErrNotHydat
	}
	if err != nil {
		return fmt.Errorf("failed to inspect database schema: %w", err)
	}
	return nil
}

// gormOver layers gorm on a borrowed connection for the long reference
// tables (STATIONS, SYMBOLS, VERSION). The underlying *sql.DB stays owned
// by acquire/release.
func gormOver(db *sql.DB) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.New(sqlite.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to prepare database session: %w", err)
	}
	return gdb, nil
}
