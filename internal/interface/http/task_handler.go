package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-rbac/internal/application"
	"github.com/oksasatya/go-task-rbac/pkg/response"
)

type TaskHandler struct {
	Svc    *application.TaskService
	Logger *logrus.Logger
}

func NewTaskHandler(svc *application.TaskService, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{Svc: svc, Logger: logger}
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// updateTaskRequest uses pointers so absent fields stay untouched.
type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	OwnerUID    *string `json:"ownerUid"`
}

func (h *TaskHandler) List(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	tasks, err := h.Svc.List(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.Svc.Create(c.Request.Context(), id, application.CreateTaskInput{Title: req.Title, Description: req.Description})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusCreated, t)
}

func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req updateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.Svc.Update(c.Request.Context(), id, c.Param("id"), application.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		OwnerUID:    req.OwnerUID,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, t)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id, c.Param("id")); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.NoContent(c)
}

// Search handles GET /tasks/search?q=&size=.
func (h *TaskHandler) Search(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))
	tasks, err := h.Svc.Search(c.Request.Context(), id, c.Query("q"), size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, tasks)
}

func (h *TaskHandler) Export(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	res, err := h.Svc.Export(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, res)
}
