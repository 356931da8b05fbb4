package hydat

import (
	"context"
	"time"
)

// Version describes the HYDAT release the archive was built from.
type Version struct {
	Version string    `gorm:"column:Version"`
	Date    time.Time `gorm:"column:Date"`
}

// TableName maps the model onto the HYDAT table.
func (Version) TableName() string {
	return "VERSION"
}

// ArchiveVersion returns the release version and date recorded in the
// archive's VERSION table.
func ArchiveVersion(ctx context.Context, src ConnectionSource) (*Version, error) {
	db, owned, err := acquire(ctx, src)
	if err != nil {
		return nil, err
	}
	defer release(db, owned)

	gdb, err := gormOver(db)
	if err != nil {
		return nil, err
	}

	var v Version
	if err := gdb.WithContext(ctx).Take(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}
