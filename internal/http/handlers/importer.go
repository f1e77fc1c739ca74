package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duda4418/dishwise-backend/internal/http/response"
	"github.com/duda4418/dishwise-backend/internal/services"
)

type ImportHandler struct {
	importer services.ImportService
}

func NewImportHandler(importer services.ImportService) *ImportHandler {
	return &ImportHandler{importer: importer}
}

// POST /api/admin/troubleshooting/import
func (h *ImportHandler) ImportCatalogue(c *gin.Context) {
	var payload services.ImportCatalogue
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := h.importer.ImportCatalogue(c.Request.Context(), payload)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "import_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"result": result})
}
