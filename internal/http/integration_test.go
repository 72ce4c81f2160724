package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academic-program/reporting-api/internal/asana"
	"github.com/academic-program/reporting-api/internal/entities"
	"github.com/academic-program/reporting-api/internal/metrics"
)

const projectTasksPage = `{
	"data": [
		{
			"gid": "101",
			"name": "MIT",
			"completed": false,
			"created_at": "2024-01-15T10:30:00.000Z",
			"memberships": [{"section": {"name": "Active"}}],
			"custom_fields": [
				{"gid": "f-researchers", "number_value": 12},
				{"gid": "f-students", "number_value": 30},
				{"gid": "f-hardware", "multi_enum_values": [{"name": "Wormhole"}]},
				{"gid": "f-contact", "text_value": "Dr. Smith"}
			]
		},
		{
			"gid": "102",
			"name": "Stanford",
			"completed": false,
			"custom_fields": [
				{"gid": "f-researchers", "number_value": 4},
				{"gid": "f-students", "number_value": 6},
				{"gid": "f-hardware", "multi_enum_values": []}
			]
		},
		{"gid": "103", "name": "Finished", "completed": true},
		{"gid": "104", "name": "Dropped", "completed": false, "memberships": [{"section": {"name": "De-scoped"}}]}
	],
	"next_page": null
}`

func TestIntegration_TriggerSyncFromAsana(t *testing.T) {
	asanaServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/proj-1/tasks", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(projectTasksPage))
	}))
	defer asanaServer.Close()

	source := asana.NewSource(
		asana.NewClient(asanaServer.URL, "test-token"),
		"proj-1",
		asana.NewFieldMapping("f-researchers", "f-students", "f-hardware", "f-contact"),
	)
	env := setupAPI(t, source)

	w := env.do("POST", "/api/v1/sync/trigger")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env.dispatcher.Wait()

	var current metrics.Current
	env.getJSON(t, "/api/v1/metrics/current", &current)
	assert.Equal(t, 2, current.TotalUniversities)
	assert.Equal(t, 16, current.TotalResearchers)
	assert.Equal(t, 36, current.TotalStudents)
	assert.Equal(t, 1, current.UniversitiesWithHardware)
	assert.Equal(t, 12, current.ResearchersOnHardware)

	var list UniversityListResponse
	env.getJSON(t, "/api/v1/universities/", &list)
	require.Equal(t, 2, list.Total)
	assert.Equal(t, "MIT", list.Universities[0].Name)
	require.NotNil(t, list.Universities[0].PointOfContact)
	assert.Equal(t, "Dr. Smith", *list.Universities[0].PointOfContact)
	assert.Equal(t, "Stanford", list.Universities[1].Name)
	assert.Empty(t, list.Universities[1].HardwareTypes)

	var status SyncStatusResponse
	env.getJSON(t, "/api/v1/sync/status", &status)
	require.NotNil(t, status.LastSyncStatus)
	assert.Equal(t, entities.SyncStatusSuccess, *status.LastSyncStatus)
	assert.Equal(t, 2, *status.LastSyncTasks)

	var timeline metrics.Timeline
	env.getJSON(t, "/api/v1/metrics/timeline", &timeline)
	require.Len(t, timeline.Data, 1)
	assert.Equal(t, 2, timeline.Data[0].Universities)
}

func TestIntegration_UpstreamFailureIsRecorded(t *testing.T) {
	asanaServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"message":"Not Authorized"}]}`))
	}))
	defer asanaServer.Close()

	source := asana.NewSource(asana.NewClient(asanaServer.URL, "bad"), "proj-1", asana.NewFieldMapping("", "", "", ""))
	env := setupAPI(t, source)

	w := env.do("POST", "/api/v1/sync/trigger")
	require.Equal(t, http.StatusOK, w.Code)
	env.dispatcher.Wait()

	var history SyncHistoryResponse
	env.getJSON(t, "/api/v1/sync/history", &history)
	require.Len(t, history.History, 1)
	assert.Equal(t, entities.SyncStatusFailed, history.History[0].Status)
	require.NotNil(t, history.History[0].ErrorMessage)
	assert.NotEmpty(t, *history.History[0].ErrorMessage)

	var current metrics.Current
	env.getJSON(t, "/api/v1/metrics/current", &current)
	assert.Zero(t, current.TotalUniversities)
}
