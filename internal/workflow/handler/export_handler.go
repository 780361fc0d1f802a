package handler

import (
	"strconv"

	"github.com/Lennart897/ProPlan-sub001/internal/workflow/service"
	"github.com/gin-gonic/gin"
)

// ExportHandler streams archive exports as xlsx downloads.
type ExportHandler struct {
	svc *service.ExportService
}

func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// ExportArchive GET /api/v1/projects/archive/export?status=
func (h *ExportHandler) ExportArchive(c *gin.Context) {
	precededBy := 0
	if s := c.Query("status"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			BadRequest(c, "Invalid status filter: "+s)
			return
		}
		precededBy = v
	}

	f, filename, err := h.svc.ExportArchive(c.Request.Context(), precededBy)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
