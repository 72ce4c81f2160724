package asana

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	c := NewClient(serverURL, "test-token")
	c.retryDelay = time.Millisecond
	return c
}

func TestClient_GetProjectTasks_Pagination(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)

		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/projects/proj-1/tasks", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Contains(t, r.URL.Query().Get("opt_fields"), "memberships.section.name")
		assert.Contains(t, r.URL.Query().Get("opt_fields"), "custom_fields.multi_enum_values")

		var resp TasksResponse
		switch r.URL.Query().Get("offset") {
		case "":
			resp = TasksResponse{
				Data:     []Task{{GID: "1", Name: "MIT"}, {GID: "2", Name: "ETH"}},
				NextPage: &NextPage{Offset: "page-2"},
			}
		case "page-2":
			resp = TasksResponse{Data: []Task{{GID: "3", Name: "KTH"}}}
		default:
			t.Errorf("unexpected offset %q", r.URL.Query().Get("offset"))
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	tasks, err := client.GetProjectTasks(context.Background(), "proj-1")
	require.NoError(t, err)

	require.Len(t, tasks, 3)
	assert.Equal(t, "1", tasks[0].GID)
	assert.Equal(t, "3", tasks[2].GID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_GetProjectTasks_RepeatedOffsetStops(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n > 2 {
			t.Errorf("pagination did not stop, request %d", n)
		}
		resp := TasksResponse{
			Data:     []Task{{GID: strconv.Itoa(int(n)), Name: "Loop"}},
			NextPage: &NextPage{Offset: "stuck"},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	tasks, err := newTestClient(server.URL).GetProjectTasks(context.Background(), "proj-1")
	require.NoError(t, err)

	require.Len(t, tasks, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_GetProjectTasks_MissingToken(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "").GetProjectTasks(context.Background(), "proj-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestClient_GetProjectTasks_DecodesCustomFields(t *testing.T) {
	body := `{
		"data": [{
			"gid": "42",
			"name": "Stanford",
			"completed": false,
			"created_at": "2024-01-15T10:30:00.000Z",
			"memberships": [{"section": {"gid": "s1", "name": "Active"}}],
			"custom_fields": [
				{"gid": "f1", "name": "Researchers", "number_value": 12},
				{"gid": "f2", "name": "Hardware", "multi_enum_values": [{"gid": "o1", "name": "Wormhole"}]},
				{"gid": "f3", "name": "Contact", "text_value": "Dr. Smith"}
			]
		}],
		"next_page": null
	}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	tasks, err := newTestClient(server.URL).GetProjectTasks(context.Background(), "p")
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	task := tasks[0]
	assert.Equal(t, "Stanford", task.Name)
	require.Len(t, task.Memberships, 1)
	assert.Equal(t, "Active", task.Memberships[0].Section.Name)
	require.Len(t, task.CustomFields, 3)
	require.NotNil(t, task.CustomFields[0].NumberValue)
	assert.Equal(t, 12.0, *task.CustomFields[0].NumberValue)
	assert.Equal(t, "Wormhole", task.CustomFields[1].MultiEnumValues[0].Name)
	assert.Equal(t, "Dr. Smith", *task.CustomFields[2].TextValue)
}

func TestClient_GetProjectTasks_Errors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantCalls  int32
		check      func(t *testing.T, err error)
	}{
		{
			name:       "invalid token",
			statusCode: http.StatusUnauthorized,
			wantCalls:  1,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInvalidToken)
			},
		},
		{
			name:       "rate limited until retries run out",
			statusCode: http.StatusTooManyRequests,
			wantCalls:  maxRetries,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrRateLimited)
				assert.Contains(t, err.Error(), "max retries exceeded")
			},
		},
		{
			name:       "server error until retries run out",
			statusCode: http.StatusBadGateway,
			wantCalls:  maxRetries,
			check: func(t *testing.T, err error) {
				var serverErr *ServerError
				require.True(t, errors.As(err, &serverErr))
				assert.Equal(t, http.StatusBadGateway, serverErr.StatusCode)
			},
		},
		{
			name:       "not found surfaces API message",
			statusCode: http.StatusNotFound,
			body:       `{"errors":[{"message":"project: Unknown object: 123"}]}`,
			wantCalls:  1,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "unexpected status 404")
				assert.Contains(t, err.Error(), "Unknown object")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).GetProjectTasks(context.Background(), "p")
			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestClient_RateLimitRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data":[{"gid":"1","name":"MIT"}]}`))
	}))
	defer server.Close()

	tasks, err := newTestClient(server.URL).GetProjectTasks(context.Background(), "p")
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	client.retryDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GetProjectTasks(ctx, "p")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client := NewClient("https://app.asana.com/api/1.0/", "tok")
	assert.False(t, strings.HasSuffix(client.baseURL, "/"))
}

func TestCalculateRetryDelay(t *testing.T) {
	client := NewClient("http://example.invalid", "tok")

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{10, maxRetryDelay},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, client.calculateRetryDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", ErrRateLimited, true},
		{"server error", &ServerError{StatusCode: 503}, true},
		{"invalid token", ErrInvalidToken, false},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}
