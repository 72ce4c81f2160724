// Package metrics computes read-only aggregates over the current-state mirror
// and the daily snapshots.
package metrics

import (
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/academic-program/reporting-api/internal/database/snapshots"
	"github.com/academic-program/reporting-api/internal/database/universities"
	"github.com/academic-program/reporting-api/internal/entities"
)

const (
	DefaultTimelineDays = 90
	DefaultGrowthPeriod = 30
	MinGrowthPeriod     = 7
	MaxGrowthPeriod     = 365
)

// Current is the aggregate view of the current-state mirror.
type Current struct {
	TotalUniversities        int        `json:"total_universities"`
	TotalResearchers         int        `json:"total_researchers"`
	TotalStudents            int        `json:"total_students"`
	UniversitiesWithHardware int        `json:"universities_with_tt_hardware"`
	ResearchersOnHardware    int        `json:"researchers_on_tt_hardware"`
	StudentsOnHardware       int        `json:"students_on_tt_hardware"`
	LastUpdated              *time.Time `json:"last_updated"`
}

// TimelinePoint is one snapshot's totals.
type TimelinePoint struct {
	Date         string `json:"date"`
	Universities int    `json:"universities"`
	Researchers  int    `json:"researchers"`
	Students     int    `json:"students"`
}

// Timeline is the snapshot series between two inclusive dates.
type Timeline struct {
	Data      []TimelinePoint `json:"data"`
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
}

// Growth compares current totals with the latest snapshot at least periodDays old.
type Growth struct {
	UniversitiesGrowth   float64 `json:"universities_growth"`
	ResearchersGrowth    float64 `json:"researchers_growth"`
	StudentsGrowth       float64 `json:"students_growth"`
	PeriodDays           int     `json:"period_days"`
	CurrentUniversities  int     `json:"current_universities"`
	CurrentResearchers   int     `json:"current_researchers"`
	CurrentStudents      int     `json:"current_students"`
	PreviousUniversities int     `json:"previous_universities"`
	PreviousResearchers  int     `json:"previous_researchers"`
	PreviousStudents     int     `json:"previous_students"`
}

// Service computes metrics. It never writes.
type Service struct {
	universities *universities.Repository
	snapshots    *snapshots.Repository
	now          func() time.Time
}

// NewService creates a metrics service reading from db.
func NewService(db *gorm.DB) *Service {
	return NewServiceWithClock(db, func() time.Time { return time.Now().UTC() })
}

// NewServiceWithClock creates a metrics service that reads "today" from now.
func NewServiceWithClock(db *gorm.DB, now func() time.Time) *Service {
	return &Service{
		universities: universities.NewRepository(db),
		snapshots:    snapshots.NewRepository(db),
		now:          now,
	}
}

// Today returns the current UTC calendar date.
func (s *Service) Today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Current scans the current-state mirror and sums its totals.
func (s *Service) Current() (*Current, error) {
	rows, err := s.universities.All()
	if err != nil {
		return nil, err
	}

	current := &Current{TotalUniversities: len(rows)}
	for i := range rows {
		row := &rows[i]
		current.TotalResearchers += row.Researchers
		current.TotalStudents += row.Students

		if len(row.Hardware) > 0 {
			current.UniversitiesWithHardware++
			current.ResearchersOnHardware += row.Researchers
			current.StudentsOnHardware += row.Students
		}

		if current.LastUpdated == nil || row.LastSyncedAt.After(*current.LastUpdated) {
			synced := row.LastSyncedAt
			current.LastUpdated = &synced
		}
	}

	return current, nil
}

// Timeline returns one point per snapshot with start <= date <= end, oldest first.
func (s *Service) Timeline(start, end time.Time) (*Timeline, error) {
	startDate := start.Format(entities.DateLayout)
	endDate := end.Format(entities.DateLayout)

	rows, err := s.snapshots.Range(startDate, endDate)
	if err != nil {
		return nil, err
	}

	points := make([]TimelinePoint, 0, len(rows))
	for _, snap := range rows {
		points = append(points, TimelinePoint{
			Date:         snap.SnapshotDate,
			Universities: snap.TotalUniversities,
			Researchers:  snap.TotalResearchers,
			Students:     snap.TotalStudents,
		})
	}

	return &Timeline{Data: points, StartDate: startDate, EndDate: endDate}, nil
}

// Growth compares current totals with the latest snapshot dated on or before
// today minus periodDays. Without such a snapshot the previous totals are zero.
func (s *Service) Growth(periodDays int) (*Growth, error) {
	current, err := s.Current()
	if err != nil {
		return nil, err
	}

	cutoff := s.Today().AddDate(0, 0, -periodDays).Format(entities.DateLayout)
	previous, err := s.snapshots.LatestOnOrBefore(cutoff)
	if err != nil {
		return nil, err
	}

	growth := &Growth{
		PeriodDays:          periodDays,
		CurrentUniversities: current.TotalUniversities,
		CurrentResearchers:  current.TotalResearchers,
		CurrentStudents:     current.TotalStudents,
	}
	if previous != nil {
		growth.PreviousUniversities = previous.TotalUniversities
		growth.PreviousResearchers = previous.TotalResearchers
		growth.PreviousStudents = previous.TotalStudents
	}

	growth.UniversitiesGrowth = GrowthPercent(growth.CurrentUniversities, growth.PreviousUniversities)
	growth.ResearchersGrowth = GrowthPercent(growth.CurrentResearchers, growth.PreviousResearchers)
	growth.StudentsGrowth = GrowthPercent(growth.CurrentStudents, growth.PreviousStudents)

	return growth, nil
}

// HardwareDistribution maps each hardware label to the number of universities holding it.
func (s *Service) HardwareDistribution() (map[string]int, error) {
	counts, err := s.universities.HardwareDistribution()
	if err != nil {
		return nil, err
	}

	distribution := make(map[string]int, len(counts))
	for _, c := range counts {
		distribution[c.Label] = c.Count
	}
	return distribution, nil
}

// GrowthPercent returns the change from previous to current in percent,
// rounded to one decimal. A zero baseline yields 100 for any increase and 0 otherwise.
func GrowthPercent(current, previous int) float64 {
	if previous == 0 {
		if current > 0 {
			return 100.0
		}
		return 0.0
	}
	pct := float64(current-previous) / float64(previous) * 100
	return roundOneDecimal(pct)
}

// roundOneDecimal rounds the exact binary value of v to one decimal, ties to
// even. 0.25 becomes 0.2 and 0.45 (stored as 0.4500000000000000111) becomes 0.5.
func roundOneDecimal(v float64) float64 {
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return rounded
}
