package hydat

import (
	"database/sql"
	"time"
)

// Reading is one tidy daily observation: a single value and quality symbol
// for a station on a calendar date. Date is always a valid calendar day;
// days past a month's recorded length are never emitted.
type Reading struct {
	StationNumber string
	Date          time.Time
	Parameter     string
	Value         sql.NullFloat64
	Symbol        sql.NullString
}
