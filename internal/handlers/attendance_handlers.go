package handlers

import (
	"net/http"
	"strconv"
	"time"

	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/services"
	"farm_ops_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AttendanceHandler serves the staff punch clock and the admin attendance listing.
type AttendanceHandler struct {
	attendanceService services.AttendanceService
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(as services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: as}
}

// TodayStatus handles GET /attendance.
func (h *AttendanceHandler) TodayStatus(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	status, err := h.attendanceService.TodayStatus(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"punchedIn":  status.PunchedIn,
		"punchedOut": status.PunchedOut,
		"attendance": status.Attendance,
	})
}

// PunchIn handles POST /attendance.
func (h *AttendanceHandler) PunchIn(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	attendance, err := h.attendanceService.PunchIn(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Successfully punched in", "attendance": attendance})
}

// PunchOut handles PUT /attendance.
func (h *AttendanceHandler) PunchOut(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	attendance, err := h.attendanceService.PunchOut(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Successfully punched out", "attendance": attendance})
}

// ListAttendance handles GET /admin/attendance?startDate&endDate&staffId&page&limit.
func (h *AttendanceHandler) ListAttendance(c *gin.Context) {
	filter := models.AttendanceFilter{}

	var err error
	if filter.StartDate, err = optionalDate(c.Query("startDate")); err != nil {
		utils.RespondValidationFailed(c, "Invalid startDate, expected YYYY-MM-DD", "startDate")
		return
	}
	if filter.EndDate, err = optionalDate(c.Query("endDate")); err != nil {
		utils.RespondValidationFailed(c, "Invalid endDate, expected YYYY-MM-DD", "endDate")
		return
	}
	if raw := c.Query("staffId"); raw != "" {
		id, ok := utils.ParsePositiveID(raw)
		if !ok {
			utils.RespondValidationFailed(c, "Invalid staffId", "staffId")
			return
		}
		filter.StaffID = &id
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultAttendancePageSize)))

	reports, pagination, err := h.attendanceService.ListAttendance(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reports, "pagination": pagination})
}

func optionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
