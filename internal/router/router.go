package router

import (
	"database/sql"
	"time"

	"farm_ops_backend/internal/config"
	"farm_ops_backend/internal/handlers"
	"farm_ops_backend/internal/middleware"
	"farm_ops_backend/internal/observability/metrics"
	"farm_ops_backend/internal/repositories"
	"farm_ops_backend/internal/services"
	"farm_ops_backend/internal/tokenstore"
	"farm_ops_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Dependencies are the storage-facing collaborators behind the route table.
type Dependencies struct {
	Users       repositories.UserRepository
	Staff       repositories.StaffRepository
	Attendance  repositories.AttendanceRepository
	Crops       repositories.CropRepository
	Tasks       repositories.TaskRepository
	PresetTasks repositories.PresetTaskRepository

	Executor   repositories.SQLExecutor
	Transactor repositories.Transactor
	Pinger     handlers.Pinger

	Tokens             *utils.TokenManager
	Revoked            tokenstore.Store
	AllowLegacyIDToken bool
	Location           *time.Location
}

// NewDependencies wires the PostgreSQL repositories around db.
func NewDependencies(db *sql.DB, cfg *config.Config, revoked tokenstore.Store) Dependencies {
	return Dependencies{
		Users:              repositories.NewUserRepository(db),
		Staff:              repositories.NewStaffRepository(db),
		Attendance:         repositories.NewAttendanceRepository(db),
		Crops:              repositories.NewCropRepository(db),
		Tasks:              repositories.NewTaskRepository(db),
		PresetTasks:        repositories.NewPresetTaskRepository(db),
		Executor:           db,
		Transactor:         repositories.NewTransactor(db),
		Pinger:             db,
		Tokens:             utils.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL),
		Revoked:            revoked,
		AllowLegacyIDToken: cfg.AllowLegacyIDToken,
		Location:           cfg.AttendanceLocation(),
	}
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Dependencies) {
	// Initialize Services
	authService := services.NewAuthService(deps.Users, deps.Executor, deps.Tokens, deps.Revoked, deps.AllowLegacyIDToken)
	userService := services.NewUserService(deps.Users, deps.Staff, deps.Executor, deps.Transactor)
	staffService := services.NewStaffService(deps.Staff, deps.Users, deps.Executor)
	attendanceService := services.NewAttendanceService(deps.Attendance, deps.Executor, deps.Location)
	cropService := services.NewCropService(deps.Crops, deps.Executor)
	taskService := services.NewTaskService(deps.Tasks, deps.Users, deps.Crops, deps.Executor)
	presetTaskService := services.NewPresetTaskService(deps.PresetTasks, deps.Executor)

	// Initialize Handlers
	healthHandler := handlers.NewHealthHandler(deps.Pinger)
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	staffHandler := handlers.NewStaffHandler(staffService)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceService)
	cropHandler := handlers.NewCropHandler(cropService)
	taskHandler := handlers.NewTaskHandler(taskService)
	presetTaskHandler := handlers.NewPresetTaskHandler(presetTaskService)

	engine.GET("/ping", healthHandler.Ping)
	engine.GET("/healthz", healthHandler.Healthz)
	engine.GET("/metrics", metrics.Handler())

	apiV1 := engine.Group("/api/v1")

	guards := accessGuards{
		admin:   middleware.ForAdmin(authService),
		staff:   middleware.ForStaff(authService),
		anyRole: middleware.ForAnyAuthenticated(authService),
	}

	SetupAuthRoutes(apiV1, authHandler, guards)
	SetupAttendanceRoutes(apiV1, attendanceHandler, guards)
	SetupUserRoutes(apiV1, userHandler, guards)
	SetupStaffRoutes(apiV1, staffHandler, guards)
	SetupCropRoutes(apiV1, cropHandler, guards)
	SetupTaskRoutes(apiV1, taskHandler, guards)
	SetupPresetTaskRoutes(apiV1, presetTaskHandler, guards)
}
