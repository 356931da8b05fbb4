package realtime

import (
	"errors"
	"fmt"
)

// ErrStationNotFound indicates the datamart has no file for the station,
// usually because the station is not reporting in realtime.
var ErrStationNotFound = errors.New("station not found on datamart")

// ErrRateLimited indicates the datamart rejected the request for volume.
var ErrRateLimited = errors.New("datamart rate limit exceeded")

// ServerError represents a 5xx error from the datamart.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("datamart server error: HTTP %d", e.StatusCode)
}
