package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/duda4418/dishwise-backend/internal/http/response"
	"github.com/duda4418/dishwise-backend/internal/services"
)

type CatalogueHandler struct {
	catalogue services.CatalogueService
}

func NewCatalogueHandler(catalogue services.CatalogueService) *CatalogueHandler {
	return &CatalogueHandler{catalogue: catalogue}
}

// GET /api/catalogue/categories
func (h *CatalogueHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogue.ListCategories(c.Request.Context())
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_categories_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"categories": categories})
}

// POST /api/catalogue/categories
func (h *CatalogueHandler) CreateCategory(c *gin.Context) {
	var in services.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	category, err := h.catalogue.CreateCategory(c.Request.Context(), in)
	if err != nil {
		h.respondCatalogueError(c, "create_category_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"category": category})
}

// PUT /api/catalogue/categories/:id
func (h *CatalogueHandler) UpdateCategory(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_category_id", err)
		return
	}
	var in services.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	category, err := h.catalogue.UpdateCategory(c.Request.Context(), categoryID, in)
	if err != nil {
		h.respondCatalogueError(c, "update_category_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"category": category})
}

// DELETE /api/catalogue/categories/:id
func (h *CatalogueHandler) DeleteCategory(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_category_id", err)
		return
	}
	if err := h.catalogue.DeleteCategory(c.Request.Context(), categoryID); err != nil {
		h.respondCatalogueError(c, "delete_category_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"status": "deleted"})
}

// GET /api/catalogue/categories/:id/causes
func (h *CatalogueHandler) ListCauses(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_category_id", err)
		return
	}
	causes, err := h.catalogue.ListCauses(c.Request.Context(), categoryID)
	if err != nil {
		h.respondCatalogueError(c, "list_causes_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"causes": causes})
}

// POST /api/catalogue/categories/:id/causes
func (h *CatalogueHandler) CreateCause(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_category_id", err)
		return
	}
	var in services.CauseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	cause, err := h.catalogue.CreateCause(c.Request.Context(), categoryID, in)
	if err != nil {
		h.respondCatalogueError(c, "create_cause_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"cause": cause})
}

// PUT /api/catalogue/causes/:id
func (h *CatalogueHandler) UpdateCause(c *gin.Context) {
	causeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_cause_id", err)
		return
	}
	var in services.CauseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	cause, err := h.catalogue.UpdateCause(c.Request.Context(), causeID, in)
	if err != nil {
		h.respondCatalogueError(c, "update_cause_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"cause": cause})
}

// DELETE /api/catalogue/causes/:id
func (h *CatalogueHandler) DeleteCause(c *gin.Context) {
	causeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_cause_id", err)
		return
	}
	if err := h.catalogue.DeleteCause(c.Request.Context(), causeID); err != nil {
		h.respondCatalogueError(c, "delete_cause_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"status": "deleted"})
}

// GET /api/catalogue/causes/:id/solutions
func (h *CatalogueHandler) ListSolutions(c *gin.Context) {
	causeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_cause_id", err)
		return
	}
	solutions, err := h.catalogue.ListSolutions(c.Request.Context(), causeID)
	if err != nil {
		h.respondCatalogueError(c, "list_solutions_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"solutions": solutions})
}

// POST /api/catalogue/causes/:id/solutions
func (h *CatalogueHandler) CreateSolution(c *gin.Context) {
	causeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_cause_id", err)
		return
	}
	var in services.SolutionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	solution, err := h.catalogue.CreateSolution(c.Request.Context(), causeID, in)
	if err != nil {
		h.respondCatalogueError(c, "create_solution_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"solution": solution})
}

// PUT /api/catalogue/solutions/:id
func (h *CatalogueHandler) UpdateSolution(c *gin.Context) {
	solutionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_solution_id", err)
		return
	}
	var in services.SolutionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	solution, err := h.catalogue.UpdateSolution(c.Request.Context(), solutionID, in)
	if err != nil {
		h.respondCatalogueError(c, "update_solution_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"solution": solution})
}

// DELETE /api/catalogue/solutions/:id
func (h *CatalogueHandler) DeleteSolution(c *gin.Context) {
	solutionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_solution_id", err)
		return
	}
	if err := h.catalogue.DeleteSolution(c.Request.Context(), solutionID); err != nil {
		h.respondCatalogueError(c, "delete_solution_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"status": "deleted"})
}

func (h *CatalogueHandler) respondCatalogueError(c *gin.Context, fallbackCode string, err error) {
	switch {
	case errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrCauseNotFound),
		errors.Is(err, services.ErrSolutionNotFound):
		response.RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, services.ErrDuplicateSlug):
		response.RespondError(c, http.StatusConflict, "duplicate_slug", err)
	case errors.Is(err, services.ErrCategoryInUse), errors.Is(err, services.ErrCauseInUse):
		response.RespondError(c, http.StatusConflict, "in_use", err)
	default:
		response.RespondError(c, http.StatusInternalServerError, fallbackCode, err)
	}
}
