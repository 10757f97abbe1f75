package handler

import (
	"net/http"

	"greenidle/internal/model"
	"greenidle/internal/service"
	"greenidle/pkg/logger"

	"github.com/gin-gonic/gin"
)

// MachineHandler handles machine-facing registry operations
type MachineHandler struct {
	machineService *service.MachineService
}

// NewMachineHandler creates a new machine handler
func NewMachineHandler(machineService *service.MachineService) *MachineHandler {
	return &MachineHandler{machineService: machineService}
}

// Register registers a machine and issues signing credentials
// @Summary Register a machine
// @Description Creates the machine record and issues/accepts client credentials
// @Tags machine
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Registration"
// @Success 200 {object} model.RegisterResponse
// @Router /register [post]
func (h *MachineHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnCtx(c.Request.Context(), "invalid register request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "machine_id required"})
		return
	}

	resp := h.machineService.Register(c.Request.Context(), &req)
	c.JSON(http.StatusOK, resp)
}

// Heartbeat updates machine liveness
// @Summary Machine heartbeat
// @Description Machine reports it is alive along with its current CPU load
// @Tags machine
// @Accept json
// @Produce json
// @Param request body model.HeartbeatRequest true "Heartbeat"
// @Success 200 {object} map[string]string
// @Router /heartbeat [post]
func (h *MachineHandler) Heartbeat(c *gin.Context) {
	var req model.HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "machine_id required"})
		return
	}

	h.machineService.Heartbeat(c.Request.Context(), &req)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetConfig returns the machine's operating policy
// @Summary Get machine config
// @Tags machine
// @Produce json
// @Param machine_id query string true "Machine ID"
// @Success 200 {object} model.MachineConfig
// @Router /config [get]
func (h *MachineHandler) GetConfig(c *gin.Context) {
	machineID := c.Query("machine_id")
	if machineID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "machine_id required"})
		return
	}

	cfg := h.machineService.GetConfig(c.Request.Context(), machineID)
	c.JSON(http.StatusOK, cfg)
}

// AdminGetConfig returns a machine's config (admin view)
func (h *MachineHandler) AdminGetConfig(c *gin.Context) {
	machineID := c.Param("machine_id")
	cfg := h.machineService.GetConfig(c.Request.Context(), machineID)
	c.JSON(http.StatusOK, cfg)
}

// AdminSetConfig applies a partial config update
func (h *MachineHandler) AdminSetConfig(c *gin.Context) {
	machineID := c.Param("machine_id")

	var update model.MachineConfigUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config"})
		return
	}

	cfg := h.machineService.SetConfig(c.Request.Context(), machineID, update)
	c.JSON(http.StatusOK, cfg)
}

// AdminEnable allows the machine to receive work again
func (h *MachineHandler) AdminEnable(c *gin.Context) {
	h.machineService.SetEnabled(c.Request.Context(), c.Param("machine_id"), true)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AdminDisable stops handing the machine any work
func (h *MachineHandler) AdminDisable(c *gin.Context) {
	h.machineService.SetEnabled(c.Request.Context(), c.Param("machine_id"), false)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AdminRename sets the machine's display name
func (h *MachineHandler) AdminRename(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	h.machineService.Rename(c.Request.Context(), c.Param("machine_id"), req.Name)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
