package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-rbac/internal/application"
	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
	"github.com/oksasatya/go-task-rbac/internal/interface/middleware"
	"github.com/oksasatya/go-task-rbac/pkg/response"
	"github.com/oksasatya/go-task-rbac/pkg/validation"
)

// writeError maps a service error to its status and public message.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	var ae *application.Error
	if errors.As(err, &ae) {
		if ae.Kind == application.KindDependency && logger != nil {
			logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error(ae.Message)
		}
		response.Error(c, ae.Status(), ae.Message, nil)
		return
	}
	if logger != nil {
		logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("unhandled error")
	}
	response.Error(c, http.StatusInternalServerError, "Internal server error", nil)
}

// caller returns the authenticated identity or writes 401.
func caller(c *gin.Context) (entity.Identity, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, application.ErrIdentityMissing.Message, nil)
	}
	return id, ok
}

// bindJSON binds the request body into dst. An empty body leaves dst untouched.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "Invalid request", validation.ToDetails(err))
		return false
	}
	return true
}
