package handlers

import (
	"net/http"

	"farm_ops_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// PresetTaskHandler serves task templates.
type PresetTaskHandler struct {
	presetService services.PresetTaskService
}

// NewPresetTaskHandler creates a new PresetTaskHandler.
func NewPresetTaskHandler(ps services.PresetTaskService) *PresetTaskHandler {
	return &PresetTaskHandler{presetService: ps}
}

func (h *PresetTaskHandler) ListPresetTasks(c *gin.Context) {
	presets, err := h.presetService.ListPresetTasks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presets)
}

func (h *PresetTaskHandler) GetPresetTask(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	preset, err := h.presetService.GetPresetTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preset)
}

func (h *PresetTaskHandler) CreatePresetTask(c *gin.Context) {
	var req services.PresetTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	preset, err := h.presetService.CreatePresetTask(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, preset)
}

func (h *PresetTaskHandler) UpdatePresetTask(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.PresetTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	preset, err := h.presetService.UpdatePresetTask(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preset)
}

func (h *PresetTaskHandler) DeletePresetTask(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.presetService.DeletePresetTask(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Preset task deleted successfully"})
}
