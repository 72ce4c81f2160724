package http

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/academic-program/reporting-api/internal/entities"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// ValidationDetail describes one rejected query parameter.
type ValidationDetail struct {
	Param   string `json:"param"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// --- Error Response Helpers ---

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondConflict sends a 409 Conflict response.
func respondConflict(c *gin.Context, message string) {
	c.JSON(http.StatusConflict, ErrorResponse{Error: message, Code: "conflict"})
}

// respondValidationError sends a 422 Unprocessable Entity response for a
// malformed query parameter.
func respondValidationError(c *gin.Context, param, value, message string) {
	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "invalid " + param,
		Code:    "validation_error",
		Details: []ValidationDetail{{Param: param, Value: value, Message: message}},
	})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondError sends an error response with the given status code.
// Use the specific helpers (respondNotFound, respondConflict, etc.) when possible.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// --- Parameter Parsing ---

// parseIntQuery reads an optional integer query parameter bounded by
// [min, max]. Responds with 422 and returns false on a malformed or
// out-of-range value.
func parseIntQuery(c *gin.Context, name string, def, min, max int) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		respondValidationError(c, name, raw, "must be an integer")
		return 0, false
	}
	if value < min || value > max {
		respondValidationError(c, name, raw, "must be between "+strconv.Itoa(min)+" and "+strconv.Itoa(max))
		return 0, false
	}
	return value, true
}

// parseBoolQuery reads an optional boolean query parameter.
func parseBoolQuery(c *gin.Context, name string, def bool) (bool, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, true
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		respondValidationError(c, name, raw, "must be a boolean")
		return false, false
	}
	return value, true
}

// parseDateQuery reads an optional YYYY-MM-DD query parameter. A missing
// parameter yields a nil time.
func parseDateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, true
	}
	date, err := time.Parse(entities.DateLayout, raw)
	if err != nil {
		respondValidationError(c, name, raw, "must be a date in YYYY-MM-DD format")
		return nil, false
	}
	return &date, true
}
