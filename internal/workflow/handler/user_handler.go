package handler

import (
	"github.com/Lennart897/ProPlan-sub001/internal/workflow/service"
	"github.com/gin-gonic/gin"
)

// UserHandler serves the current-user endpoint.
type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Me GET /api/v1/users/me
// Provisions the local mirror row on first contact.
func (h *UserHandler) Me(c *gin.Context) {
	email, _ := c.Get("user_email")
	emailStr, _ := email.(string)

	user, err := h.svc.EnsureUser(c.Request.Context(), GetActor(c), emailStr)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	Success(c, user)
}
