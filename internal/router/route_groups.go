package router

import (
	"farm_ops_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// accessGuards holds one middleware per role set, built once per engine.
type accessGuards struct {
	admin   gin.HandlerFunc
	staff   gin.HandlerFunc
	anyRole gin.HandlerFunc
}

// SetupAuthRoutes sets up the authentication routes. Login is public.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler, guards accessGuards) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(guards.anyRole)
		{
			authRequiredRoutes.POST("/logout", authHandler.Logout)
			authRequiredRoutes.GET("/me", authHandler.Me)
		}
	}
}

// SetupAttendanceRoutes exposes punch in/out to staff and the report to admins.
func SetupAttendanceRoutes(apiGroup *gin.RouterGroup, attendanceHandler *handlers.AttendanceHandler, guards accessGuards) {
	attendanceRoutes := apiGroup.Group("/attendance")
	attendanceRoutes.Use(guards.staff)
	{
		attendanceRoutes.GET("", attendanceHandler.TodayStatus)
		attendanceRoutes.POST("", attendanceHandler.PunchIn)
		attendanceRoutes.PUT("", attendanceHandler.PunchOut)
	}

	adminAttendanceRoutes := apiGroup.Group("/admin/attendance")
	adminAttendanceRoutes.Use(guards.admin)
	{
		adminAttendanceRoutes.GET("", attendanceHandler.ListAttendance)
	}
}

// SetupUserRoutes sets up account administration and the assignee lookup.
func SetupUserRoutes(apiGroup *gin.RouterGroup, userHandler *handlers.UserHandler, guards accessGuards) {
	adminRoutes := apiGroup.Group("/admin")
	adminRoutes.Use(guards.admin)
	{
		adminRoutes.GET("/users", userHandler.ListUsers)
		adminRoutes.POST("/users", userHandler.CreateUser)
		adminRoutes.PUT("/users/:id", userHandler.UpdateUser)
		adminRoutes.PATCH("/users/:id/toggle-status", userHandler.ToggleStatus)
		adminRoutes.PUT("/users/:id/password", userHandler.ResetPassword)
		adminRoutes.GET("/unassigned-staff", userHandler.ListUnassignedStaff)
	}

	userRoutes := apiGroup.Group("/users")
	userRoutes.Use(guards.anyRole)
	{
		userRoutes.GET("/assignable", userHandler.ListAssignableUsers)
	}

	apiGroup.GET("/staff/users-without-staff", guards.admin, userHandler.ListUsersWithoutStaff)
}

// SetupStaffRoutes sets up the staff directory. Admin only.
func SetupStaffRoutes(apiGroup *gin.RouterGroup, staffHandler *handlers.StaffHandler, guards accessGuards) {
	staffRoutes := apiGroup.Group("/staff")
	staffRoutes.Use(guards.admin)
	{
		staffRoutes.GET("", staffHandler.ListStaff)
		staffRoutes.GET("/:id", staffHandler.GetStaff)
		staffRoutes.POST("", staffHandler.CreateStaff)
		staffRoutes.PUT("/:id", staffHandler.UpdateStaff)
		staffRoutes.DELETE("/:id", staffHandler.DeleteStaff)
	}
}

// SetupCropRoutes sets up crop plots; reads are open to every role that can log in to the API.
func SetupCropRoutes(apiGroup *gin.RouterGroup, cropHandler *handlers.CropHandler, guards accessGuards) {
	cropRoutes := apiGroup.Group("/crops")
	{
		cropRoutes.GET("/assignable", guards.admin, cropHandler.ListAssignableCrops)
		cropRoutes.GET("", guards.anyRole, cropHandler.ListCrops)
		cropRoutes.GET("/:id", guards.anyRole, cropHandler.GetCrop)
		cropRoutes.POST("", guards.admin, cropHandler.CreateCrop)
		cropRoutes.PUT("/:id", guards.admin, cropHandler.UpdateCrop)
		cropRoutes.DELETE("/:id", guards.admin, cropHandler.DeleteCrop)
	}

	apiGroup.GET("/plots/assignable", guards.anyRole, cropHandler.ListAssignablePlots)
}

// SetupTaskRoutes sets up tasks. The id-less PUT and DELETE forms read the id from the body or query.
func SetupTaskRoutes(apiGroup *gin.RouterGroup, taskHandler *handlers.TaskHandler, guards accessGuards) {
	taskRoutes := apiGroup.Group("/tasks")
	{
		taskRoutes.GET("", guards.anyRole, taskHandler.ListTasks)
		taskRoutes.GET("/:id", guards.anyRole, taskHandler.GetTask)
		taskRoutes.POST("", guards.admin, taskHandler.CreateTask)
		taskRoutes.PUT("", guards.anyRole, taskHandler.UpdateTask)
		taskRoutes.PUT("/:id", guards.anyRole, taskHandler.UpdateTask)
		taskRoutes.DELETE("", guards.admin, taskHandler.DeleteTask)
		taskRoutes.DELETE("/:id", guards.admin, taskHandler.DeleteTask)
	}
}

// SetupPresetTaskRoutes sets up the preset task catalogue.
func SetupPresetTaskRoutes(apiGroup *gin.RouterGroup, presetTaskHandler *handlers.PresetTaskHandler, guards accessGuards) {
	presetRoutes := apiGroup.Group("/preset-tasks")
	{
		presetRoutes.GET("", guards.anyRole, presetTaskHandler.ListPresetTasks)
		presetRoutes.GET("/:id", guards.anyRole, presetTaskHandler.GetPresetTask)
		presetRoutes.POST("", guards.admin, presetTaskHandler.CreatePresetTask)
		presetRoutes.PUT("/:id", guards.admin, presetTaskHandler.UpdatePresetTask)
		presetRoutes.DELETE("/:id", guards.admin, presetTaskHandler.DeletePresetTask)
	}
}
