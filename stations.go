package hydat

import (
	"context"
	"database/sql"

	"github.com/cshydro/hydat-go/internal/stations"
	"github.com/cshydro/hydat-go/internal/symbols"
)

// Station is one row of HYDAT station metadata.
type Station struct {
	StationNumber      string          `gorm:"column:STATION_NUMBER;primaryKey"`
	StationName        string          `gorm:"column:STATION_NAME"`
	Province           string          `gorm:"column:PROV_TERR_STATE_LOC"`
	RegionalOfficeID   sql.NullString  `gorm:"column:REGIONAL_OFFICE_ID"`
	HydStatus          sql.NullString  `gorm:"column:HYD_STATUS"`
	SedStatus          sql.NullString  `gorm:"column:SED_STATUS"`
	Latitude           sql.NullFloat64 `gorm:"column:LATITUDE"`
	Longitude          sql.NullFloat64 `gorm:"column:LONGITUDE"`
	DrainageAreaGross  sql.NullFloat64 `gorm:"column:DRAINAGE_AREA_GROSS"`
	DrainageAreaEffect sql.NullFloat64 `gorm:"column:DRAINAGE_AREA_EFFECT"`
	RHBN               bool            `gorm:"column:RHBN"`
	RealTime           bool            `gorm:"column:REAL_TIME"`
	ContributorID      sql.NullInt64   `gorm:"column:CONTRIBUTOR_ID"`
	OperatorID         sql.NullInt64   `gorm:"column:OPERATOR_ID"`
	DatumID            sql.NullInt64   `gorm:"column:DATUM_ID"`
}

// TableName maps the model onto the HYDAT table.
func (Station) TableName() string {
	return "STATIONS"
}

// Stations returns station metadata for the stations matched by q. Only the
// Stations and Provinces filters apply; the metadata table carries no dates
// or symbols. With no filters every station in the archive is returned.
func Stations(ctx context.Context, src ConnectionSource, q Query) ([]Station, error) {
	if err := stations.ValidateProvinces(q.Provinces); err != nil {
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

	gdb, err := gormOver(db)
	if err != nil {
		return nil, err
	}

	tx := gdb.WithContext(ctx).Order("STATION_NUMBER")
	if !all {
		tx = tx.Where("STATION_NUMBER IN ?", numbers)
	}

	var out []Station
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}

	returned := make(map[string]struct{}, len(out))
	for _, s := range out {
		returned[s.StationNumber] = struct{}{}
	}
	stations.ReportMissing(q.Stations, returned)

	return out, nil
}

// AllStationNumbers returns every station number in the archive, sorted.
func AllStationNumbers(ctx context.Context, src ConnectionSource) ([]string, error) {
	db, owned, err := acquire(ctx, src)
	if err != nil {
		return nil, err
	}
	defer release(db, owned)

	numbers, _, err := stations.Resolve(ctx, db, nil, nil)
	return numbers, err
}

// Symbol is one row of the SYMBOLS lookup: a quality code with its English
// and French descriptions.
type Symbol = symbols.Symbol

// SymbolTable returns the full symbol lookup bundled in the archive, ordered
// by code.
func SymbolTable(ctx context.Context, src ConnectionSource) ([]Symbol, error) {
	db, owned, err := acquire(ctx, src)
	if err != nil {
		return nil, err
	}
	defer release(db, owned)

	gdb, err := gormOver(db)
	if err != nil {
		return nil, err
	}

	table, err := symbols.Load(ctx, gdb)
	if err != nil {
		return nil, err
	}
	return table.All(), nil
}
