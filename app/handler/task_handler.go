package handler

import (
	"net/http"

	"greenidle/internal/model"
	"greenidle/internal/service"
	"greenidle/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TaskHandler handles the task poll/report surface machines talk to
type TaskHandler struct {
	taskService *service.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// Next hands the polling machine at most one task
// @Summary Poll for a task
// @Description Returns the next pending task, or 204 when none is available or the machine is disabled
// @Tags task
// @Produce json
// @Param machine_id query string true "Machine ID"
// @Success 200 {object} model.TaskAssignment
// @Success 204 "No task available"
// @Router /task [get]
func (h *TaskHandler) Next(c *gin.Context) {
	machineID := c.Query("machine_id")
	if machineID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "machine_id required"})
		return
	}

	assignment := h.taskService.NextTask(c.Request.Context(), machineID)
	if assignment == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// Report accepts a task result
// @Summary Report a task result
// @Description Accumulates machine seconds and marks the task done; unknown task ids are logged, not rejected
// @Tags task
// @Accept json
// @Produce json
// @Param request body model.ReportRequest true "Report"
// @Success 200 {object} map[string]string
// @Router /report [post]
func (h *TaskHandler) Report(c *gin.Context) {
	var req model.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnCtx(c.Request.Context(), "invalid report request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "machine_id and task_id required"})
		return
	}

	h.taskService.Report(c.Request.Context(), &req)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AdminRelease puts an assigned task back to pending (manual requeue)
func (h *TaskHandler) AdminRelease(c *gin.Context) {
	taskID := c.Param("task_id")
	if err := h.taskService.ReleaseTask(c.Request.Context(), taskID); err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
