package handlers

import (
	"net/http"

	"farm_ops_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// CropHandler serves crop plots and the plot pickers.
type CropHandler struct {
	cropService services.CropService
}

// NewCropHandler creates a new CropHandler.
func NewCropHandler(cs services.CropService) *CropHandler {
	return &CropHandler{cropService: cs}
}

func (h *CropHandler) ListCrops(c *gin.Context) {
	crops, err := h.cropService.ListCrops(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, crops)
}

func (h *CropHandler) GetCrop(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	crop, err := h.cropService.GetCrop(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, crop)
}

func (h *CropHandler) CreateCrop(c *gin.Context) {
	var req services.CropRequest
	if !bindJSON(c, &req) {
		return
	}
	crop, err := h.cropService.CreateCrop(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, crop)
}

func (h *CropHandler) UpdateCrop(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.CropRequest
	if !bindJSON(c, &req) {
		return
	}
	crop, err := h.cropService.UpdateCrop(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, crop)
}

func (h *CropHandler) DeleteCrop(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.cropService.DeleteCrop(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAssignableCrops returns plots that can take new tasks.
func (h *CropHandler) ListAssignableCrops(c *gin.Context) {
	options, err := h.cropService.ListAssignableCrops(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

func (h *CropHandler) ListAssignablePlots(c *gin.Context) {
	options, err := h.cropService.ListAssignablePlots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}
