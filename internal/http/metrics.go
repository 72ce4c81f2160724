package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/academic-program/reporting-api/internal/metrics"
)

// MetricsController serves the dashboard aggregates.
type MetricsController struct {
	metrics MetricsReader
}

func NewMetricsController(reader MetricsReader) *MetricsController {
	return &MetricsController{metrics: reader}
}

// Current handles GET /api/v1/metrics/current
func (mc *MetricsController) Current(c *gin.Context) {
	current, err := mc.metrics.Current()
	if err != nil {
		respondInternalError(c, err, "current metrics")
		return
	}
	c.JSON(http.StatusOK, current)
}

// Timeline handles GET /api/v1/metrics/timeline?start_date&end_date
// Both dates are optional: end defaults to today and start to 90 days before end.
func (mc *MetricsController) Timeline(c *gin.Context) {
	start, ok := parseDateQuery(c, "start_date")
	if !ok {
		return
	}
	end, ok := parseDateQuery(c, "end_date")
	if !ok {
		return
	}

	if end == nil {
		today := mc.metrics.Today()
		end = &today
	}
	if start == nil {
		from := end.AddDate(0, 0, -metrics.DefaultTimelineDays)
		start = &from
	}

	timeline, err := mc.metrics.Timeline(*start, *end)
	if err != nil {
		respondInternalError(c, err, "metrics timeline")
		return
	}
	c.JSON(http.StatusOK, timeline)
}

// Growth handles GET /api/v1/metrics/growth?period_days
func (mc *MetricsController) Growth(c *gin.Context) {
	period, ok := parseIntQuery(c, "period_days", metrics.DefaultGrowthPeriod, metrics.MinGrowthPeriod, metrics.MaxGrowthPeriod)
	if !ok {
		return
	}

	growth, err := mc.metrics.Growth(period)
	if err != nil {
		respondInternalError(c, err, "growth metrics")
		return
	}
	c.JSON(http.StatusOK, growth)
}

// HardwareDistribution handles GET /api/v1/metrics/hardware-distribution
func (mc *MetricsController) HardwareDistribution(c *gin.Context) {
	distribution, err := mc.metrics.HardwareDistribution()
	if err != nil {
		respondInternalError(c, err, "hardware distribution")
		return
	}
	c.JSON(http.StatusOK, distribution)
}
