package handler

import (
	"strconv"

	"github.com/Lennart897/ProPlan-sub001/internal/workflow/service"
	"github.com/gin-gonic/gin"
)

// ProjectHandler serves the project endpoints: submission, the review
// transitions, archiving and the read paths.
type ProjectHandler struct {
	workflow *service.WorkflowService
	projects *service.ProjectService
}

func NewProjectHandler(workflow *service.WorkflowService, projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{workflow: workflow, projects: projects}
}

// Create POST /api/v1/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req service.SubmitProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	project, err := h.workflow.Submit(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	Created(c, project)
}

// List GET /api/v1/projects?search=&page=&page_size=
func (h *ProjectHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	items, total, err := h.projects.ListProjects(c.Request.Context(), GetActor(c), c.Query("search"), page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Get GET /api/v1/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Project ID is required")
		return
	}

	project, err := h.projects.GetProject(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	Success(c, project)
}

// GetByNumber GET /api/v1/projects/number/:number
// Numbers are what people quote on the phone; ids are opaque.
func (h *ProjectHandler) GetByNumber(c *gin.Context) {
	number, err := strconv.ParseInt(c.Param("number"), 10, 64)
	if err != nil {
		BadRequest(c, "Invalid project number: "+c.Param("number"))
		return
	}

	project, err := h.projects.GetProjectByNumber(c.Request.Context(), number)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	Success(c, project)
}

// Approve POST /api/v1/projects/:id/approve
func (h *ProjectHandler) Approve(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Project ID is required")
		return
	}

	project, err := h.workflow.Approve(c.Request.Context(), GetActor(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	Success(c, project)
}

// ApproveLocation POST /api/v1/projects/:id/approve-location
// The location field is optional for location-scoped planners; their role
// already names the site.
func (h *ProjectHandler) ApproveLocation(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Project ID is required")
		return
	}

	var req struct {
		Location string `json:"location"`
	}
	c.ShouldBindJSON(&req)

	project, err := h.workflow.ApproveLocation(c.Request.Context(), GetActor(c), id, req.Location)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	Success(c, project)
}

// Reject POST /api/v1/projects/:id/reject
func (h *ProjectHandler) Reject(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Project ID is required")
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	project, err := h.workflow.Reject(c.Request.Context(), GetActor(c), id, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	Success(c, project)
}

// Correct POST /api/v1/projects/:id/correct
func (h *ProjectHandler) Correct(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Project ID is required")
		return
	}

	var req service.CorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	project, result, err := h.workflow.Correct(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	Success(c, gin.H{
		"project":           project,
		"distributed_total": result.DistributedTotal,
		"over_distributed":  result.OverDistributed,
		"warnings":          result.Warnings,
	})
}

// Archive POST /api/v1/projects/:id/archive
func (h *ProjectHandler) Archive(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Project ID is required")
		return
	}

	project, err := h.workflow.Archive(c.Request.Context(), GetActor(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	Success(c, project)
}

// ListArchive GET /api/v1/projects/archive?status=&page=&page_size=
func (h *ProjectHandler) ListArchive(c *gin.Context) {
	page, pageSize := GetPagination(c)

	precededBy := 0
	if s := c.Query("status"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			BadRequest(c, "Invalid status filter: "+s)
			return
		}
		precededBy = v
	}

	items, total, err := h.projects.ListArchive(c.Request.Context(), precededBy, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// LocationApprovals GET /api/v1/projects/:id/location-approvals
func (h *ProjectHandler) LocationApprovals(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Project ID is required")
		return
	}

	approvals, err := h.projects.LocationApprovals(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	Success(c, gin.H{"items": approvals})
}
