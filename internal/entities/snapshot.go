package entities

import (
	"time"

	"gorm.io/datatypes"
)

// DateLayout is the calendar-date format used for snapshot keys.
const DateLayout = "2006-01-02"

// Snapshot is the aggregate rollup for one calendar date. At most one exists per date.
type Snapshot struct {
	ID                uint                 `gorm:"primaryKey" json:"id"`
	SnapshotDate      string               `gorm:"size:10;uniqueIndex;not null" json:"snapshot_date"`
	TotalUniversities int                  `gorm:"not null;default:0" json:"total_universities"`
	TotalResearchers  int                  `gorm:"not null;default:0" json:"total_researchers"`
	TotalStudents     int                  `gorm:"not null;default:0" json:"total_students"`
	Universities      []SnapshotUniversity `gorm:"foreignKey:SnapshotID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt         time.Time            `json:"created_at"`
}

func (Snapshot) TableName() string {
	return "snapshots"
}

// SnapshotUniversity is one university's line item inside a snapshot.
type SnapshotUniversity struct {
	ID             uint                        `gorm:"primaryKey"`
	SnapshotID     uint                        `gorm:"not null;index"`
	ExternalID     string                      `gorm:"size:64;not null;index"`
	Name           string                      `gorm:"size:512;not null"`
	Researchers    int                         `gorm:"not null;default:0"`
	Students       int                         `gorm:"not null;default:0"`
	HardwareTypes  datatypes.JSONSlice[string] `gorm:"type:text"`
	PointOfContact *string                     `gorm:"size:512"`
	CreatedAt      *time.Time
}

func (SnapshotUniversity) TableName() string {
	return "university_snapshots"
}

// UniversityHistoryEntry is one university's state on one snapshot date.
type UniversityHistoryEntry struct {
	Date          string   `json:"date"`
	Researchers   int      `json:"researchers_count"`
	Students      int      `json:"students_count"`
	HardwareTypes []string `json:"hardware_types"`
}
