package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
)

type stubTaskStatus struct {
	statuses map[string]backlite.TaskStatus
	err      error
}

func (s *stubTaskStatus) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	if s.err != nil {
		return backlite.TaskStatusNotFound, s.err
	}
	status, ok := s.statuses[taskID]
	if !ok {
		return backlite.TaskStatusNotFound, nil
	}
	return status, nil
}

func newTasksRouter(reader TaskStatusReader) *gin.Engine {
	controller := NewTasksController(reader)
	router := gin.New()
	router.GET("/api/v1/tasks/types", controller.ListTaskTypes)
	router.GET("/api/v1/tasks/:id", controller.GetTaskStatus)
	return router
}

func TestTasksController_GetTaskStatus(t *testing.T) {
	router := newTasksRouter(&stubTaskStatus{statuses: map[string]backlite.TaskStatus{
		"a": backlite.TaskStatusRunning,
		"b": backlite.TaskStatusSuccess,
	}})

	tests := []struct {
		id         string
		wantStatus int
		wantBody   string
	}{
		{"a", http.StatusOK, `{"id":"a","status":"running"}`},
		{"b", http.StatusOK, `{"id":"b","status":"success"}`},
		{"missing", http.StatusNotFound, `{"error":"Task not found"}`},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/api/v1/tasks/"+tt.id, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestTasksController_GetTaskStatus_Error(t *testing.T) {
	router := newTasksRouter(&stubTaskStatus{err: errors.New("db locked")})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/tasks/a", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db locked")
}

func TestTasksController_ListTaskTypes(t *testing.T) {
	router := newTasksRouter(&stubTaskStatus{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/tasks/types", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"sync_universities"`)
}

func TestTaskStatusToString(t *testing.T) {
	assert.Equal(t, "pending", taskStatusToString(backlite.TaskStatusPending))
	assert.Equal(t, "running", taskStatusToString(backlite.TaskStatusRunning))
	assert.Equal(t, "success", taskStatusToString(backlite.TaskStatusSuccess))
	assert.Equal(t, "failure", taskStatusToString(backlite.TaskStatusFailure))
	assert.Equal(t, "not_found", taskStatusToString(backlite.TaskStatusNotFound))
}
