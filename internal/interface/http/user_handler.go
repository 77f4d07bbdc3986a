package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-rbac/internal/application"
	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
	"github.com/oksasatya/go-task-rbac/pkg/response"
)

type UserHandler struct {
	Svc    *application.RoleService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.RoleService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type assignRoleRequest struct {
	UID  string `json:"uid" binding:"uid"`
	Role string `json:"role"`
}

type meResponse struct {
	Firebase entity.Identity     `json:"firebase"`
	App      *entity.UserProfile `json:"app"`
}

// Me returns the caller's token identity next to the stored profile, which
// is null until a role has been assigned.
func (h *UserHandler) Me(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	p, err := h.Svc.Profile(c.Request.Context(), id.UID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, meResponse{Firebase: id, App: p})
}

func (h *UserHandler) AssignRole(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req assignRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.Svc.AssignRole(c.Request.Context(), id, req.UID, req.Role)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"message": "Role assigned", "user": p})
}
