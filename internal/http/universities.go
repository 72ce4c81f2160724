package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/academic-program/reporting-api/internal/database/universities"
	"github.com/academic-program/reporting-api/internal/entities"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 365
)

// UniversityResponse is the public view of one current-state university.
type UniversityResponse struct {
	ExternalID     string    `json:"asana_task_gid"`
	Name           string    `json:"university_name"`
	Researchers    int       `json:"researchers_count"`
	Students       int       `json:"students_count"`
	HardwareTypes  []string  `json:"hardware_types"`
	PointOfContact *string   `json:"point_of_contact"`
	CreatedAt      time.Time `json:"created_at"`
	LastSyncedAt   time.Time `json:"last_synced_at"`
}

type UniversityListResponse struct {
	Universities []UniversityResponse `json:"universities"`
	Total        int                  `json:"total"`
}

func toUniversityResponse(u *entities.UniversityCurrent) UniversityResponse {
	return UniversityResponse{
		ExternalID:     u.ExternalID,
		Name:           u.Name,
		Researchers:    u.Researchers,
		Students:       u.Students,
		HardwareTypes:  u.HardwareTypes(),
		PointOfContact: u.PointOfContact,
		CreatedAt:      u.CreatedAt,
		LastSyncedAt:   u.LastSyncedAt,
	}
}

// UniversitiesController serves the current-state mirror and per-university history.
type UniversitiesController struct {
	store   UniversityStore
	history UniversityHistoryReader
}

func NewUniversitiesController(store UniversityStore, history UniversityHistoryReader) *UniversitiesController {
	return &UniversitiesController{store: store, history: history}
}

// List handles GET /api/v1/universities/?search&sort_by&has_tenstorrent
// Unknown sort_by values fall back to sorting by name.
func (uc *UniversitiesController) List(c *gin.Context) {
	hasHardware, ok := parseBoolQuery(c, "has_tenstorrent", false)
	if !ok {
		return
	}

	rows, err := uc.store.List(universities.ListFilter{
		Search:      c.Query("search"),
		SortBy:      universities.ParseSortField(c.Query("sort_by")),
		HasHardware: hasHardware,
	})
	if err != nil {
		respondInternalError(c, err, "list universities")
		return
	}

	response := UniversityListResponse{
		Universities: make([]UniversityResponse, 0, len(rows)),
		Total:        len(rows),
	}
	for i := range rows {
		response.Universities = append(response.Universities, toUniversityResponse(&rows[i]))
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/v1/universities/:id
func (uc *UniversitiesController) Get(c *gin.Context) {
	uni, err := uc.store.GetByExternalID(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "University")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get university")
		return
	}

	c.JSON(http.StatusOK, toUniversityResponse(uni))
}

// History handles GET /api/v1/universities/:id/history?limit
// An unknown id yields an empty list rather than 404.
func (uc *UniversitiesController) History(c *gin.Context) {
	limit, ok := parseIntQuery(c, "limit", defaultHistoryLimit, 1, maxHistoryLimit)
	if !ok {
		return
	}

	history, err := uc.history.UniversityHistory(c.Param("id"), limit)
	if err != nil {
		respondInternalError(c, err, "university history")
		return
	}
	if history == nil {
		history = []entities.UniversityHistoryEntry{}
	}

	c.JSON(http.StatusOK, history)
}
