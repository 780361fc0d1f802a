package handler

import (
	"github.com/Lennart897/ProPlan-sub001/internal/workflow/service"
	"github.com/gin-gonic/gin"
)

// HistoryHandler serves the audit-trail read endpoints.
type HistoryHandler struct {
	svc *service.HistoryService
}

func NewHistoryHandler(svc *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// ListByProject GET /api/v1/projects/:id/history?order=asc|desc
// Default order is desc (newest first) for display; asc replays the trail.
func (h *HistoryHandler) ListByProject(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		BadRequest(c, "Project ID is required")
		return
	}

	newestFirst := c.DefaultQuery("order", "desc") != "asc"
	page, pageSize := GetPagination(c)

	items, total, err := h.svc.ListByProject(c.Request.Context(), projectID, newestFirst, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// ListByActor GET /api/v1/history/actor/:actorId
func (h *HistoryHandler) ListByActor(c *gin.Context) {
	actorID := c.Param("actorId")
	if actorID == "" {
		BadRequest(c, "Actor ID is required")
		return
	}

	page, pageSize := GetPagination(c)

	items, total, err := h.svc.ListByActor(c.Request.Context(), GetActor(c), actorID, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}
