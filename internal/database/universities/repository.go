// Package universities provides database operations for the current-state mirror.
//
// The mirror holds one row per active external entity. Reconcile is the only
// writer; everything else is read-only.
package universities

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/academic-program/reporting-api/internal/entities"
)

// SortField selects the ordering of List results.
type SortField string

const (
	SortByName        SortField = "university_name"
	SortByResearchers SortField = "researchers_count"
	SortByStudents    SortField = "students_count"
	SortByCreatedAt   SortField = "created_at"
)

// orderClauses maps each sort field to its ORDER BY. Name sorts ascending,
// counts and dates descending.
var orderClauses = map[SortField]string{
	SortByName:        "name ASC",
	SortByResearchers: "researchers DESC",
	SortByStudents:    "students DESC",
	SortByCreatedAt:   "created_at DESC",
}

// ParseSortField returns the sort field for raw, falling back to SortByName
// for empty or unknown values.
func ParseSortField(raw string) SortField {
	field := SortField(raw)
	if _, ok := orderClauses[field]; ok {
		return field
	}
	return SortByName
}

// ListFilter narrows List results.
type ListFilter struct {
	Search      string // case-insensitive substring on name
	SortBy      SortField
	HasHardware bool // only universities holding at least one hardware type
}

// ReconcileResult summarizes one reconciliation pass.
type ReconcileResult struct {
	Inserted int
	Updated  int
	Deleted  int64
}

// Repository handles current-state database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new universities repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Reconcile upserts every fetched university by external ID and deletes rows
// whose external ID was not fetched. An empty fetch deletes nothing.
func (r *Repository) Reconcile(fetched []entities.University, now time.Time) (*ReconcileResult, error) {
	result := &ReconcileResult{}
	activeIDs := make([]string, 0, len(fetched))

	for _, uni := range fetched {
		activeIDs = append(activeIDs, uni.ExternalID)

		inserted, err := r.upsert(uni, now)
		if err != nil {
			return nil, err
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	if len(activeIDs) == 0 {
		return result, nil
	}

	deleted, err := r.deleteAbsent(activeIDs)
	if err != nil {
		return nil, err
	}
	result.Deleted = deleted
	return result, nil
}

func (r *Repository) upsert(uni entities.University, now time.Time) (bool, error) {
	var existing entities.UniversityCurrent
	err := r.db.Where("external_id = ?", uni.ExternalID).First(&existing).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		createdAt := now
		if uni.CreatedAt != nil {
			createdAt = *uni.CreatedAt
		}
		row := entities.UniversityCurrent{
			ExternalID:     uni.ExternalID,
			Name:           uni.Name,
			Researchers:    uni.Researchers,
			Students:       uni.Students,
			PointOfContact: uni.PointOfContact,
			CreatedAt:      createdAt,
			LastSyncedAt:   now,
		}
		if err := r.db.Omit("Hardware").Create(&row).Error; err != nil {
			return false, err
		}
		return true, r.replaceHardware(row.ID, uni.HardwareTypes)

	case err != nil:
		return false, err
	}

	err = r.db.Model(&existing).Updates(map[string]any{
		"name":             uni.Name,
		"researchers":      uni.Researchers,
		"students":         uni.Students,
		"point_of_contact": uni.PointOfContact,
		"last_synced_at":   now,
		"updated_at":       now,
	}).Error
	if err != nil {
		return false, err
	}
	return false, r.replaceHardware(existing.ID, uni.HardwareTypes)
}

func (r *Repository) replaceHardware(universityID uint, labels []string) error {
	if err := r.db.Where("university_id = ?", universityID).Delete(&entities.UniversityHardware{}).Error; err != nil {
		return err
	}

	labels = entities.UniqueLabels(labels)
	if len(labels) == 0 {
		return nil
	}

	rows := make([]entities.UniversityHardware, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, entities.UniversityHardware{UniversityID: universityID, Label: label})
	}
	return r.db.Create(&rows).Error
}

func (r *Repository) deleteAbsent(activeIDs []string) (int64, error) {
	stale := r.db.Model(&entities.UniversityCurrent{}).
		Select("id").
		Where("external_id NOT IN ?", activeIDs)

	if err := r.db.Where("university_id IN (?)", stale).Delete(&entities.UniversityHardware{}).Error; err != nil {
		return 0, err
	}

	result := r.db.Where("external_id NOT IN ?", activeIDs).Delete(&entities.UniversityCurrent{})
	return result.RowsAffected, result.Error
}

// All returns every current-state row with its hardware labels.
func (r *Repository) All() ([]entities.UniversityCurrent, error) {
	var rows []entities.UniversityCurrent
	err := r.db.Preload("Hardware").Order("id ASC").Find(&rows).Error
	return rows, err
}

// List returns current-state rows matching filter.
func (r *Repository) List(filter ListFilter) ([]entities.UniversityCurrent, error) {
	query := r.db.Preload("Hardware")

	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	if filter.HasHardware {
		query = query.Where("EXISTS (SELECT 1 FROM university_hardware h WHERE h.university_id = universities_current.id)")
	}

	order, ok := orderClauses[filter.SortBy]
	if !ok {
		order = orderClauses[SortByName]
	}

	var rows []entities.UniversityCurrent
	err := query.Order(order).Order("id ASC").Find(&rows).Error
	return rows, err
}

// GetByExternalID returns one row. Returns gorm.ErrRecordNotFound when absent.
func (r *Repository) GetByExternalID(externalID string) (*entities.UniversityCurrent, error) {
	var row entities.UniversityCurrent
	err := r.db.Preload("Hardware").Where("external_id = ?", externalID).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// HardwareCount is the number of universities holding one hardware label.
type HardwareCount struct {
	Label string
	Count int
}

// HardwareDistribution counts universities per hardware label.
func (r *Repository) HardwareDistribution() ([]HardwareCount, error) {
	var counts []HardwareCount
	err := r.db.Model(&entities.UniversityHardware{}).
		Select("label, COUNT(DISTINCT university_id) AS count").
		Group("label").
		Order("label ASC").
		Scan(&counts).Error
	return counts, err
}
