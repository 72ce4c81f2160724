package asana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout     = 30 * time.Second
	maxRetries         = 3
	initialRetryDelay  = 1 * time.Second
	maxRetryDelay      = 30 * time.Second
	retryBackoffFactor = 2

	pageSize = 100
)

// taskOptFields are the task attributes requested from the tasks endpoint.
var taskOptFields = []string{
	"name",
	"gid",
	"completed",
	"created_at",
	"memberships.section.name",
	"custom_fields.gid",
	"custom_fields.name",
	"custom_fields.text_value",
	"custom_fields.number_value",
	"custom_fields.enum_value",
	"custom_fields.multi_enum_values",
	"custom_fields.display_value",
}

// Client interfaces with the Asana REST API
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	retryDelay time.Duration
}

// NewClient creates a new Asana API client
func NewClient(baseURL, token string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		retryDelay: initialRetryDelay,
	}
}

// TasksResponse represents one page of the project tasks endpoint
type TasksResponse struct {
	Data     []Task    `json:"data"`
	NextPage *NextPage `json:"next_page"`
}

// NextPage carries the pagination cursor for the following page
type NextPage struct {
	Offset string `json:"offset"`
	Path   string `json:"path"`
	URI    string `json:"uri"`
}

// Task represents a task from the Asana API
type Task struct {
	GID          string        `json:"gid"`
	Name         string        `json:"name"`
	Completed    bool          `json:"completed"`
	CreatedAt    string        `json:"created_at"`
	Memberships  []Membership  `json:"memberships"`
	CustomFields []CustomField `json:"custom_fields"`
}

// Membership places a task in a project section
type Membership struct {
	Section *Section `json:"section"`
}

// Section is a named column or group within a project
type Section struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

// CustomField is one custom field value attached to a task
type CustomField struct {
	GID             string       `json:"gid"`
	Name            string       `json:"name"`
	TextValue       *string      `json:"text_value"`
	NumberValue     *float64     `json:"number_value"`
	EnumValue       *EnumOption  `json:"enum_value"`
	MultiEnumValues []EnumOption `json:"multi_enum_values"`
	DisplayValue    *string      `json:"display_value"`
}

// EnumOption is a single selectable value of an enum field
type EnumOption struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// GetProjectTasksPage fetches one page of tasks for a project
func (c *Client) GetProjectTasksPage(ctx context.Context, projectGID, offset string) (*TasksResponse, error) {
	u, err := url.Parse(c.baseURL + "/projects/" + url.PathEscape(projectGID) + "/tasks")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("opt_fields", strings.Join(taskOptFields, ","))
	q.Set("limit", strconv.Itoa(pageSize))
	if offset != "" {
		q.Set("offset", offset)
	}
	u.RawQuery = q.Encode()

	var resp *TasksResponse
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateRetryDelay(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, lastErr = c.doTasksRequest(ctx, u.String())
		if lastErr == nil {
			return resp, nil
		}

		// Only retry on rate limits or server errors
		if !isRetryableError(lastErr) {
			return nil, lastErr
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// GetProjectTasks fetches every task of a project by following next_page
// offsets. It stops when an offset repeats.
func (c *Client) GetProjectTasks(ctx context.Context, projectGID string) ([]Task, error) {
	if c.token == "" {
		return nil, ErrNotConfigured
	}

	var allTasks []Task
	var offset string
	seen := make(map[string]bool)

	for {
		resp, err := c.GetProjectTasksPage(ctx, projectGID, offset)
		if err != nil {
			return nil, err
		}

		allTasks = append(allTasks, resp.Data...)

		if resp.NextPage == nil || resp.NextPage.Offset == "" {
			break
		}
		offset = resp.NextPage.Offset
		if seen[offset] {
			log.Printf("Asana: next_page offset %q repeated, stopping pagination", offset)
			break
		}
		seen[offset] = true
	}

	return allTasks, nil
}

func (c *Client) doTasksRequest(ctx context.Context, url string) (*TasksResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return nil, &ServerError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, errorMessage(body))
	}

	var tasksResp TasksResponse
	if err := json.NewDecoder(resp.Body).Decode(&tasksResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &tasksResp, nil
}

// errorMessage extracts the first API error message, falling back to the raw body.
func errorMessage(body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 && parsed.Errors[0].Message != "" {
		return parsed.Errors[0].Message
	}
	return string(body)
}

func (c *Client) calculateRetryDelay(attempt int) time.Duration {
	delay := c.retryDelay
	for i := 0; i < attempt; i++ {
		delay *= time.Duration(retryBackoffFactor)
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func isRetryableError(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var serverErr *ServerError
	return errors.As(err, &serverErr)
}
