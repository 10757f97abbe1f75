package handler

import (
	"errors"
	"net/http"

	"greenidle/internal/model"
	"greenidle/internal/service"
	"greenidle/internal/store"
	"greenidle/pkg/logger"

	"github.com/gin-gonic/gin"
)

// JobHandler handles the administrative job surface
type JobHandler struct {
	jobService *service.JobService
	aggregator *service.Aggregator
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobService *service.JobService, aggregator *service.Aggregator) *JobHandler {
	return &JobHandler{jobService: jobService, aggregator: aggregator}
}

// Create submits a job, splitting it into chunk_count tasks
func (h *JobHandler) Create(c *gin.Context) {
	var req model.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnCtx(c.Request.Context(), "invalid job request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, task_type and chunk_count required"})
		return
	}

	job, err := h.jobService.CreateJob(c.Request.Context(), &req)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// List returns all jobs in creation order
func (h *JobHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobService.ListJobs(c.Request.Context()))
}

// Get returns a job with its tasks
func (h *JobHandler) Get(c *gin.Context) {
	job, tasks, err := h.jobService.GetJob(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": job, "tasks": tasks})
}

// Aggregate combines completed task results into the job-level answer
func (h *JobHandler) Aggregate(c *gin.Context) {
	result, err := h.aggregator.Aggregate(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		if errors.Is(err, service.ErrNotAggregatable) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondStoreError maps store sentinel errors onto status codes.
func respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.ErrorCtx(c.Request.Context(), "request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
