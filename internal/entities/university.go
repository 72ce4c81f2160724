package entities

import (
	"sort"
	"time"
)

// University is the normalized form of one external task. It is produced
// fresh on every sync and never stored directly.
type University struct {
	ExternalID     string
	Name           string
	Researchers    int
	Students       int
	HardwareTypes  []string
	PointOfContact *string
	CreatedAt      *time.Time
}

// HasHardware reports whether the university holds at least one hardware type.
func (u University) HasHardware() bool {
	return len(u.HardwareTypes) > 0
}

// UniversityCurrent is the latest known state of one active external entity.
// Exactly one row exists per external ID seen in the most recent successful fetch.
type UniversityCurrent struct {
	ID             uint                 `gorm:"primaryKey" json:"-"`
	ExternalID     string               `gorm:"size:64;uniqueIndex;not null" json:"asana_task_gid"`
	Name           string               `gorm:"size:512;not null;index" json:"university_name"`
	Researchers    int                  `gorm:"not null;default:0" json:"researchers_count"`
	Students       int                  `gorm:"not null;default:0" json:"students_count"`
	Hardware       []UniversityHardware `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"-"`
	PointOfContact *string              `gorm:"size:512" json:"point_of_contact"`
	CreatedAt      time.Time            `json:"created_at"`
	LastSyncedAt   time.Time            `gorm:"index" json:"last_synced_at"`
	UpdatedAt      time.Time            `json:"-"`
}

func (UniversityCurrent) TableName() string {
	return "universities_current"
}

// HardwareTypes returns the hardware labels as a sorted slice.
func (u UniversityCurrent) HardwareTypes() []string {
	labels := make([]string, 0, len(u.Hardware))
	for _, h := range u.Hardware {
		labels = append(labels, h.Label)
	}
	sort.Strings(labels)
	return labels
}

// UniversityHardware is one hardware label held by a current-state university.
type UniversityHardware struct {
	ID           uint   `gorm:"primaryKey"`
	UniversityID uint   `gorm:"not null;uniqueIndex:idx_university_hardware"`
	Label        string `gorm:"size:255;not null;uniqueIndex:idx_university_hardware;index"`
}

func (UniversityHardware) TableName() string {
	return "university_hardware"
}

// UniqueLabels returns labels with blanks and duplicates removed, keeping first-seen order.
func UniqueLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
