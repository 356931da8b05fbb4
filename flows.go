package hydat

import (
	"context"

	"github.com/cshydro/hydat-go/internal/hyschema"
)

// DailyFlows returns daily mean discharge (m³/s) from the DLY_FLOWS table as
// tidy readings with Parameter "Flow", sorted ascending by date.
func DailyFlows(ctx context.Context, src ConnectionSource, q Query) ([]Reading, error) {
	return dailyTable(ctx, src, q, hyschema.DailyFlows)
}
