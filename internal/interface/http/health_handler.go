package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-task-rbac/pkg/response"
)

func Health(c *gin.Context) {
	response.OK(c, http.StatusOK, gin.H{"status": "ok"})
}
