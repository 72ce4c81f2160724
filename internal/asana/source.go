package asana

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/academic-program/reporting-api/internal/entities"
)

const (
	descopedSection = "de-scoped"
	unknownName     = "Unknown"
)

// createdAtLayouts are tried in order when parsing a task's creation time.
// Values without a zone are read as UTC.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// TaskLister fetches every task of a project.
type TaskLister interface {
	GetProjectTasks(ctx context.Context, projectGID string) ([]Task, error)
}

// Source adapts project tasks into normalized universities.
type Source struct {
	tasks      TaskLister
	projectGID string
	mapping    FieldMapping
}

// NewSource creates a university source reading tasks of projectGID.
func NewSource(tasks TaskLister, projectGID string, mapping FieldMapping) *Source {
	return &Source{
		tasks:      tasks,
		projectGID: projectGID,
		mapping:    mapping,
	}
}

// FetchActiveUniversities returns one university per active task: tasks that are
// completed or sit in the de-scoped section are left out. Any transport or
// decode failure is returned as *UpstreamError.
func (s *Source) FetchActiveUniversities(ctx context.Context) ([]entities.University, error) {
	if s.projectGID == "" {
		return nil, &UpstreamError{Op: "fetch tasks", Err: ErrNotConfigured}
	}

	tasks, err := s.tasks.GetProjectTasks(ctx, s.projectGID)
	if err != nil {
		return nil, &UpstreamError{Op: "fetch tasks", Err: err}
	}
	log.Printf("Asana: fetched %d tasks from project %s", len(tasks), s.projectGID)

	universities := make([]entities.University, 0, len(tasks))
	for _, task := range tasks {
		if task.Completed || isDescoped(task) {
			continue
		}
		if task.GID == "" {
			log.Printf("Asana: skipping task %q without a gid", task.Name)
			continue
		}
		universities = append(universities, s.toUniversity(task))
	}

	log.Printf("Asana: %d active universities after filtering", len(universities))
	return universities, nil
}

func isDescoped(task Task) bool {
	for _, membership := range task.Memberships {
		if membership.Section != nil && strings.ToLower(membership.Section.Name) == descopedSection {
			return true
		}
	}
	return false
}

func (s *Source) toUniversity(task Task) entities.University {
	fields := indexFields(task.CustomFields)

	uni := entities.University{
		ExternalID:    task.GID,
		Name:          task.Name,
		HardwareTypes: []string{},
		CreatedAt:     parseCreatedAt(task.CreatedAt),
	}
	if uni.Name == "" {
		uni.Name = unknownName
	}

	if v, ok := Extract(fields, s.mapping.Researchers); ok {
		uni.Researchers = v.Int()
	}
	if v, ok := Extract(fields, s.mapping.Students); ok {
		uni.Students = v.Int()
	}
	if v, ok := Extract(fields, s.mapping.HardwareTypes); ok {
		uni.HardwareTypes = v.Labels
	}
	if v, ok := Extract(fields, s.mapping.PointOfContact); ok {
		uni.PointOfContact = v.Text
	}

	return uni
}

// parseCreatedAt returns nil for empty or unparseable values.
func parseCreatedAt(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	log.Printf("Asana: could not parse created_at %q", raw)
	return nil
}
