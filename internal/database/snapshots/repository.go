// Package snapshots provides database operations for daily snapshots.
//
// A snapshot is keyed by its calendar date. Writing a snapshot for a date that
// already has one replaces its totals and line items in place.
package snapshots

import (
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/academic-program/reporting-api/internal/entities"
)

const lineItemBatchSize = 100

// Repository handles snapshot database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new snapshots repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ReplaceForDate writes the snapshot for date from the fetched universities.
// An existing snapshot for the same date keeps its ID and loses its old line items.
func (r *Repository) ReplaceForDate(date string, fetched []entities.University) (*entities.Snapshot, error) {
	var snapshot entities.Snapshot
	err := r.db.Where("snapshot_date = ?", date).First(&snapshot).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		snapshot = entities.Snapshot{SnapshotDate: date}
		if err := r.db.Omit("Universities").Create(&snapshot).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := r.db.Where("snapshot_id = ?", snapshot.ID).Delete(&entities.SnapshotUniversity{}).Error; err != nil {
			return nil, err
		}
	}

	items := make([]entities.SnapshotUniversity, 0, len(fetched))
	var researchers, students int
	for _, uni := range fetched {
		researchers += uni.Researchers
		students += uni.Students
		items = append(items, lineItem(snapshot.ID, uni))
	}

	snapshot.TotalUniversities = len(fetched)
	snapshot.TotalResearchers = researchers
	snapshot.TotalStudents = students

	err = r.db.Model(&snapshot).Updates(map[string]any{
		"total_universities": snapshot.TotalUniversities,
		"total_researchers":  snapshot.TotalResearchers,
		"total_students":     snapshot.TotalStudents,
	}).Error
	if err != nil {
		return nil, err
	}

	if len(items) > 0 {
		if err := r.db.CreateInBatches(&items, lineItemBatchSize).Error; err != nil {
			return nil, err
		}
	}

	snapshot.Universities = items
	return &snapshot, nil
}

func lineItem(snapshotID uint, uni entities.University) entities.SnapshotUniversity {
	return entities.SnapshotUniversity{
		SnapshotID:     snapshotID,
		ExternalID:     uni.ExternalID,
		Name:           uni.Name,
		Researchers:    uni.Researchers,
		Students:       uni.Students,
		HardwareTypes:  entities.UniqueLabels(uni.HardwareTypes),
		PointOfContact: uni.PointOfContact,
		CreatedAt:      uni.CreatedAt,
	}
}

// GetByDate returns the snapshot for date. Returns gorm.ErrRecordNotFound when absent.
func (r *Repository) GetByDate(date string) (*entities.Snapshot, error) {
	var snapshot entities.Snapshot
	err := r.db.Preload("Universities").Where("snapshot_date = ?", date).First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Range returns snapshots with start <= date <= end, oldest first.
func (r *Repository) Range(start, end string) ([]entities.Snapshot, error) {
	var snapshots []entities.Snapshot
	err := r.db.Where("snapshot_date >= ? AND snapshot_date <= ?", start, end).
		Order("snapshot_date ASC").
		Find(&snapshots).Error
	return snapshots, err
}

// LatestOnOrBefore returns the most recent snapshot dated on or before date,
// or nil when none exists.
func (r *Repository) LatestOnOrBefore(date string) (*entities.Snapshot, error) {
	var snapshot entities.Snapshot
	err := r.db.Where("snapshot_date <= ?", date).
		Order("snapshot_date DESC").
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// UniversityHistory returns up to limit snapshot line items for one university,
// newest date first.
func (r *Repository) UniversityHistory(externalID string, limit int) ([]entities.UniversityHistoryEntry, error) {
	var rows []struct {
		SnapshotDate  string
		Researchers   int
		Students      int
		HardwareTypes datatypes.JSONSlice[string]
	}
	err := r.db.Table("university_snapshots").
		Select("snapshots.snapshot_date, university_snapshots.researchers, university_snapshots.students, university_snapshots.hardware_types").
		Joins("JOIN snapshots ON snapshots.id = university_snapshots.snapshot_id").
		Where("university_snapshots.external_id = ?", externalID).
		Order("snapshots.snapshot_date DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]entities.UniversityHistoryEntry, 0, len(rows))
	for _, row := range rows {
		hardware := []string(row.HardwareTypes)
		if hardware == nil {
			hardware = []string{}
		}
		entries = append(entries, entities.UniversityHistoryEntry{
			Date:          row.SnapshotDate,
			Researchers:   row.Researchers,
			Students:      row.Students,
			HardwareTypes: hardware,
		})
	}
	return entries, nil
}
