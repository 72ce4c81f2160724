package asana

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	tasks []Task
	err   error
}

func (s *stubLister) GetProjectTasks(ctx context.Context, projectGID string) ([]Task, error) {
	return s.tasks, s.err
}

var testMapping = NewFieldMapping("f-researchers", "f-students", "f-hardware", "f-contact")

func num(v float64) *float64 { return &v }
func str(v string) *string    { return &v }

func section(name string) []Membership {
	return []Membership{{Section: &Section{Name: name}}}
}

func TestSource_FetchActiveUniversities_Filters(t *testing.T) {
	lister := &stubLister{tasks: []Task{
		{GID: "1", Name: "Active", Memberships: section("In Progress")},
		{GID: "2", Name: "Done", Completed: true},
		{GID: "3", Name: "Dropped", Memberships: section("De-Scoped")},
		{GID: "4", Name: "Dropped upper", Memberships: section("DE-SCOPED")},
		{GID: "", Name: "No gid"},
		{GID: "5", Name: "Two sections", Memberships: []Membership{{Section: nil}, {Section: &Section{Name: "Backlog"}}}},
	}}

	source := NewSource(lister, "proj", testMapping)
	unis, err := source.FetchActiveUniversities(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(unis))
	for _, u := range unis {
		ids = append(ids, u.ExternalID)
	}
	assert.Equal(t, []string{"1", "5"}, ids)
}

func TestSource_FetchActiveUniversities_MapsFields(t *testing.T) {
	lister := &stubLister{tasks: []Task{
		{
			GID:       "1",
			Name:      "MIT",
			CreatedAt: "2024-01-15T10:30:00.000Z",
			CustomFields: []CustomField{
				{GID: "f-researchers", NumberValue: num(12)},
				{GID: "f-students", NumberValue: num(40.9)},
				{GID: "f-hardware", MultiEnumValues: []EnumOption{{Name: "Wormhole"}, {Name: "Blackhole"}}},
				{GID: "f-contact", TextValue: str("Dr. Smith")},
				{GID: "unrelated", TextValue: str("ignored")},
			},
		},
	}}

	unis, err := NewSource(lister, "proj", testMapping).FetchActiveUniversities(context.Background())
	require.NoError(t, err)
	require.Len(t, unis, 1)

	uni := unis[0]
	assert.Equal(t, "MIT", uni.Name)
	assert.Equal(t, 12, uni.Researchers)
	assert.Equal(t, 40, uni.Students)
	assert.Equal(t, []string{"Wormhole", "Blackhole"}, uni.HardwareTypes)
	require.NotNil(t, uni.PointOfContact)
	assert.Equal(t, "Dr. Smith", *uni.PointOfContact)
	require.NotNil(t, uni.CreatedAt)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), *uni.CreatedAt)
}

func TestSource_FetchActiveUniversities_Defaults(t *testing.T) {
	lister := &stubLister{tasks: []Task{
		{
			GID:       "1",
			CreatedAt: "not a date",
			CustomFields: []CustomField{
				{GID: "f-researchers"},
				{GID: "f-contact"},
			},
		},
	}}

	unis, err := NewSource(lister, "proj", testMapping).FetchActiveUniversities(context.Background())
	require.NoError(t, err)
	require.Len(t, unis, 1)

	uni := unis[0]
	assert.Equal(t, "Unknown", uni.Name)
	assert.Zero(t, uni.Researchers)
	assert.Zero(t, uni.Students)
	assert.NotNil(t, uni.HardwareTypes)
	assert.Empty(t, uni.HardwareTypes)
	assert.Nil(t, uni.PointOfContact)
	assert.Nil(t, uni.CreatedAt)
}

func TestSource_FetchActiveUniversities_UnmappedFields(t *testing.T) {
	lister := &stubLister{tasks: []Task{
		{GID: "1", Name: "MIT", CustomFields: []CustomField{{GID: "f-researchers", NumberValue: num(3)}}},
	}}

	source := NewSource(lister, "proj", NewFieldMapping("", "", "", ""))
	unis, err := source.FetchActiveUniversities(context.Background())
	require.NoError(t, err)
	require.Len(t, unis, 1)
	assert.Zero(t, unis[0].Researchers)
}

func TestSource_FetchActiveUniversities_UpstreamError(t *testing.T) {
	cause := errors.New("connection refused")
	source := NewSource(&stubLister{err: cause}, "proj", testMapping)

	_, err := source.FetchActiveUniversities(context.Background())
	require.Error(t, err)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.ErrorIs(t, err, cause)
}

func TestSource_FetchActiveUniversities_NotConfigured(t *testing.T) {
	tests := []struct {
		name    string
		lister  TaskLister
		project string
	}{
		{"missing project", &stubLister{}, ""},
		{"missing token", NewClient("http://127.0.0.1:0", ""), "proj-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSource(tt.lister, tt.project, testMapping).FetchActiveUniversities(context.Background())

			var upstream *UpstreamError
			require.True(t, errors.As(err, &upstream))
			assert.ErrorIs(t, err, ErrNotConfigured)
		})
	}
}

func TestSource_WithHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"gid":"1","name":"A","completed":false},
			{"gid":"2","name":"B","completed":true},
			{"gid":"3","name":"C","memberships":[{"section":{"name":"De-scoped"}}]}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	unis, err := NewSource(client, "proj", testMapping).FetchActiveUniversities(context.Background())
	require.NoError(t, err)
	require.Len(t, unis, 1)
	assert.Equal(t, "1", unis[0].ExternalID)
}

func TestParseCreatedAt(t *testing.T) {
	tests := []struct {
		raw  string
		want *time.Time
	}{
		{"", nil},
		{"garbage", nil},
		{"2024-01-15T10:30:00Z", tp(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))},
		{"2024-01-15T10:30:00.123Z", tp(time.Date(2024, 1, 15, 10, 30, 0, 123000000, time.UTC))},
		{"2024-01-15T12:30:00+02:00", tp(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))},
		{"2024-01-15T10:30:00", tp(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := parseCreatedAt(tt.raw)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v want %v", *got, *tt.want)
		})
	}
}

func tp(t time.Time) *time.Time { return &t }
