package handler

import (
	"errors"
	"strconv"

	"github.com/Lennart897/ProPlan-sub001/internal/workflow/entity"
	"github.com/Lennart897/ProPlan-sub001/internal/workflow/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers bundles the HTTP layer.
type Handlers struct {
	Project *ProjectHandler
	History *HistoryHandler
	Export  *ExportHandler
	User    *UserHandler
	SSE     *SSEHandler
}

func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Project: NewProjectHandler(svc.Workflow, svc.Project),
		History: NewHistoryHandler(svc.History),
		Export:  NewExportHandler(svc.Export),
		User:    NewUserHandler(svc.User),
		SSE:     NewSSEHandler(),
	}
}

// Response is the uniform envelope for every endpoint.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse wraps paginated collections.
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination describes the returned page.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func NewPagination(page, pageSize int, total int64) *Pagination {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return &Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: totalPages}
}

// Success writes a 200 envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error writes an error envelope. The HTTP status is the leading three
// digits of the business code.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest reports invalid input.
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Forbidden reports a permission failure.
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound reports a missing resource.
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// InternalError reports an unexpected failure.
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// respondServiceError maps the service error taxonomy onto the response
// envelope. Unknown errors (transient store failures and the like) are
// logged server-side; the caller only sees a generic retry prompt.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case service.IsValidation(err):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		Forbidden(c, err.Error())
	case errors.Is(err, service.ErrProjectNotFound):
		NotFound(c, err.Error())
	default:
		zap.L().Error("unhandled service error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		InternalError(c, "Internal error, please try again later")
	}
}

// GetUserID reads the authenticated user id from the context.
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetActor assembles the authenticated caller from the context the JWT
// middleware populated.
func GetActor(c *gin.Context) service.Actor {
	actor := service.Actor{ID: GetUserID(c)}
	if name, ok := c.Get("user_name"); ok {
		actor.Name, _ = name.(string)
	}
	if role, ok := c.Get("role"); ok {
		actor.Role, _ = role.(entity.Role)
	}
	return actor
}

// GetPagination reads page/page_size query params with sane bounds.
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
