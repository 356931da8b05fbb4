package hydat

import (
	"context"

	"github.com/cshydro/hydat-go/internal/hyschema"
)

// DailyLevels returns daily mean water levels (m) from the DLY_LEVELS table
// as tidy readings with Parameter "Level", sorted ascending by date.
func DailyLevels(ctx context.Context, src ConnectionSource, q Query) ([]Reading, error) {
	return dailyTable(ctx, src, q, hyschema.DailyLevels)
}
