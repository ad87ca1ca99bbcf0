package handlers

import (
	"net/http"

	"farm_ops_backend/internal/services"
	"farm_ops_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TaskHandler serves farm tasks.
type TaskHandler struct {
	taskService services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(ts services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: ts}
}

// ListTasks returns all tasks to admins and only assigned tasks to staff.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	tasks, err := h.taskService.ListTasks(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	task, err := h.taskService.GetTask(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req services.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.taskService.CreateTask(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// UpdateTask serves PUT /tasks/:id and the older PUT /tasks with the id in the body.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var req services.UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	var id int64
	if c.Param("id") != "" {
		if id, ok = parseIDParam(c, "id"); !ok {
			return
		}
	} else if req.ID != nil && *req.ID > 0 {
		id = *req.ID
	} else {
		utils.RespondValidationFailed(c, "Task ID is required", "id")
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), caller, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask serves DELETE /tasks/:id and DELETE /tasks?id=.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	raw := c.Param("id")
	if raw == "" {
		raw = c.Query("id")
	}
	if raw == "" {
		utils.RespondValidationFailed(c, "Task ID is required", "id")
		return
	}
	id, ok := utils.ParsePositiveID(raw)
	if !ok {
		utils.RespondValidationFailed(c, "Invalid ID format", "id")
		return
	}
	if err := h.taskService.DeleteTask(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
