package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duda4418/dishwise-backend/internal/http/response"
	"github.com/duda4418/dishwise-backend/internal/services"
)

type MetricsHandler struct {
	metrics services.MetricsService
}

func NewMetricsHandler(metrics services.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// GET /api/admin/metrics/usage
func (h *MetricsHandler) Usage(c *gin.Context) {
	summary, err := h.metrics.UsageSummary(c.Request.Context())
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "metrics_failed", err)
		return
	}
	response.RespondOK(c, summary)
}
