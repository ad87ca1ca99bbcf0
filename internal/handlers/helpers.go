package handlers

import (
	"errors"
	"net/http"

	"farm_ops_backend/internal/middleware"
	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/services"
	"farm_ops_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondError renders a service error. Internal failures never expose their cause.
func respondError(c *gin.Context, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		utils.LogError(err, "unclassified handler error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Internal server error", "Internal error"))
		return
	}

	apiErr := utils.NewAPIError(utils.StatusForCode(string(se.Kind)), string(se.Kind), se.Message, "")
	switch {
	case se.Kind == services.KindInternal:
		apiErr.Message = "Internal server error"
		apiErr.Details = "Internal error"
	case se.Field != "":
		apiErr.Details = se.Field
	}

	if se.Data != nil {
		if a, ok := se.Data.(*models.Attendance); ok {
			utils.RespondWithErrorAndData(c, apiErr, gin.H{"success": false, "message": se.Message, "attendance": a})
			return
		}
		utils.RespondWithErrorAndData(c, apiErr, gin.H{"data": se.Data})
		return
	}
	utils.RespondWithError(c, apiErr)
}

// parseIDParam reads a positive integer path parameter, responding 400 when it is malformed.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, ok := utils.ParsePositiveID(c.Param(name))
	if !ok {
		utils.RespondValidationFailed(c, "Invalid ID format", name)
		return 0, false
	}
	return id, true
}

// bindJSON decodes the body into req, responding 400 on malformed input.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.RespondValidationFailed(c, "Invalid request payload", err.Error())
		return false
	}
	return true
}

// callerOrAbort returns the identity set by the access guard.
func callerOrAbort(c *gin.Context) (*models.Identity, bool) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required", ""))
		return nil, false
	}
	return identity, true
}
