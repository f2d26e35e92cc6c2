package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/javiermolinar/campus/internal/schedule"
)

// scheduleRow is the gorm model of the schedules table.
type scheduleRow struct {
	ClassroomID string                            `gorm:"primaryKey;size:128"`
	WeekStart   time.Time                         `gorm:"primaryKey;type:date"`
	Data        datatypes.JSONType[schedule.Week] `gorm:"not null"`
	Revision    string                            `gorm:"size:64;not null"`
	UpdatedAt   time.Time                         `gorm:"autoUpdateTime:false;not null"`
}

func (scheduleRow) TableName() string { return "schedules" }

// Postgres implements schedule.Repository on PostgreSQL through gorm.
type Postgres struct {
	db *gorm.DB
}

// NewPostgres connects to dsn and migrates the schedules table.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.AutoMigrate(&scheduleRow{}); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Postgres{db: db}, nil
}

// Load retrieves the stored week for key.
func (p *Postgres) Load(ctx context.Context, key schedule.WeekKey) (schedule.Snapshot, bool, error) {
	key = key.Normalized()

	var row scheduleRow
	err := p.db.WithContext(ctx).
		Where("classroom_id = ? AND week_start = ?", key.ClassroomID, key.Date()).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return schedule.Snapshot{Key: key}, false, nil
	}
	if err != nil {
		return schedule.Snapshot{}, false, fmt.Errorf("querying schedule %s: %w", key, err)
	}

	return row.snapshot(key), true, nil
}

// Save upserts snap.
func (p *Postgres) Save(ctx context.Context, snap schedule.Snapshot) error {
	row := newScheduleRow(snap)
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "classroom_id"}, {Name: "week_start"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "revision", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("saving schedule %s: %w", snap.Key, err)
	}
	return nil
}

// SaveIfRevision stores snap only if the stored revision still equals expected.
func (p *Postgres) SaveIfRevision(ctx context.Context, snap schedule.Snapshot, expected string) error {
	row := newScheduleRow(snap)
	key := snap.Key.Normalized()

	if expected == "" {
		res := p.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return fmt.Errorf("saving schedule %s: %w", key, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%s: %w", key, schedule.ErrStaleRevision)
		}
		return nil
	}

	res := p.db.WithContext(ctx).Model(&scheduleRow{}).
		Where("classroom_id = ? AND week_start = ? AND revision = ?", key.ClassroomID, key.Date(), expected).
		Updates(map[string]any{
			"data":       row.Data,
			"revision":   row.Revision,
			"updated_at": row.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("saving schedule %s: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", key, schedule.ErrStaleRevision)
	}
	return nil
}

// ListWeeks returns the stored week keys of a classroom, oldest first.
func (p *Postgres) ListWeeks(ctx context.Context, classroomID string) ([]schedule.WeekKey, error) {
	var starts []time.Time
	err := p.db.WithContext(ctx).Model(&scheduleRow{}).
		Where("classroom_id = ?", classroomID).
		Order("week_start").
		Pluck("week_start", &starts).Error
	if err != nil {
		return nil, fmt.Errorf("querying weeks: %w", err)
	}

	keys := make([]schedule.WeekKey, 0, len(starts))
	for _, s := range starts {
		keys = append(keys, schedule.WeekKey{ClassroomID: classroomID, WeekStart: s}.Normalized())
	}
	return keys, nil
}

// Close closes the underlying connection pool.
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newScheduleRow(snap schedule.Snapshot) scheduleRow {
	key := snap.Key.Normalized()
	updated := snap.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	return scheduleRow{
		ClassroomID: key.ClassroomID,
		WeekStart:   key.WeekStart,
		Data:        datatypes.NewJSONType(snap.Week),
		Revision:    snap.Revision,
		UpdatedAt:   updated.UTC(),
	}
}

func (r scheduleRow) snapshot(key schedule.WeekKey) schedule.Snapshot {
	return schedule.Snapshot{
		Key:       key,
		Week:      r.Data.Data(),
		Revision:  r.Revision,
		UpdatedAt: r.UpdatedAt,
		Exists:    true,
	}
}
