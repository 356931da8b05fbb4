package hydat

import (
	"context"

	"github.com/cshydro/hydat-go/internal/hyschema"
)

// SedimentDailyLoads returns daily sediment loads (tonnes) from the
// SED_DLY_LOADS table as tidy readings with Parameter "Load", sorted
// ascending by date. The table carries no symbol columns, so Symbol is
// always null and the Symbols query option has no effect.
func SedimentDailyLoads(ctx context.Context, src ConnectionSource, q Query) ([]Reading, error) {
	return dailyTable(ctx, src, q, hyschema.SedimentDailyLoads)
}
