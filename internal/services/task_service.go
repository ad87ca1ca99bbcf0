package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/repositories"
	"farm_ops_backend/pkg/utils"
)

// --- DTOs ---

type CreateTaskRequest struct {
	TaskID      string  `json:"taskId"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	UserID      int64   `json:"userId"`
	CropID      *int64  `json:"cropId"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	Notes       *string `json:"notes"`
	Attachments *string `json:"attachments"`
}

// UpdateTaskRequest is a partial update; nil fields are left unchanged.
// A CropID of 0 detaches the task from its plot.
type UpdateTaskRequest struct {
	ID          *int64  `json:"id"`
	TaskID      *string `json:"taskId"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	UserID      *int64  `json:"userId"`
	CropID      *int64  `json:"cropId"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	Notes       *string `json:"notes"`
	Attachments *string `json:"attachments"`
}

// touchesOnlyProgress reports whether the request changes nothing but status and notes.
func (r UpdateTaskRequest) touchesOnlyProgress() bool {
	return r.TaskID == nil && r.Name == nil && r.Description == nil && r.UserID == nil &&
		r.CropID == nil && r.StartDate == nil && r.EndDate == nil && r.Priority == nil && r.Attachments == nil
}

// --- TaskService Interface ---
type TaskService interface {
	// ListTasks returns every task for admins and only the caller's own tasks otherwise.
	ListTasks(ctx context.Context, caller *models.Identity) ([]models.Task, error)
	GetTask(ctx context.Context, caller *models.Identity, id int64) (*models.Task, error)
	CreateTask(ctx context.Context, req CreateTaskRequest) (*models.Task, error)
	UpdateTask(ctx context.Context, caller *models.Identity, id int64, req UpdateTaskRequest) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

type taskService struct {
	taskRepo repositories.TaskRepository
	userRepo repositories.UserRepository
	cropRepo repositories.CropRepository
	db       repositories.SQLExecutor
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(taskRepo repositories.TaskRepository, userRepo repositories.UserRepository, cropRepo repositories.CropRepository, db repositories.SQLExecutor) TaskService {
	return &taskService{taskRepo: taskRepo, userRepo: userRepo, cropRepo: cropRepo, db: db}
}

var (
	errTaskNotFound     = newError(KindNotFound, "Task not found", ErrTaskNotFound)
	errAssigneeNotFound = &Error{Kind: KindNotFound, Message: "Assigned user not found", Field: "userId", Err: ErrUserNotFound}
	errTaskCropNotFound = &Error{Kind: KindNotFound, Message: "Crop plot not found", Field: "cropId", Err: ErrCropNotFound}
)

func (s *taskService) ListTasks(ctx context.Context, caller *models.Identity) ([]models.Task, error) {
	var assignee *int64
	if !caller.HasRole(models.RoleAdmin) {
		assignee = &caller.ID
	}
	tasks, err := s.taskRepo.ListTasks(ctx, assignee)
	if err != nil {
		return nil, internalError("TaskService.ListTasks", err)
	}
	return tasks, nil
}

func (s *taskService) GetTask(ctx context.Context, caller *models.Identity, id int64) (*models.Task, error) {
	task, err := s.taskRepo.GetTaskByID(ctx, id)
	if err != nil {
		return nil, fromRepository("TaskService.GetTask", err, errTaskNotFound)
	}
	if !caller.HasRole(models.RoleAdmin) && task.UserID != caller.ID {
		// Other users' tasks are indistinguishable from missing ones.
		return nil, errTaskNotFound
	}
	return task, nil
}

func (s *taskService) checkReferences(ctx context.Context, op string, userID *int64, cropID *int64) error {
	if userID != nil {
		if _, err := s.userRepo.FindUserByID(ctx, *userID); err != nil {
			return fromRepository(op+": checking assignee", err, errAssigneeNotFound)
		}
	}
	if cropID != nil && *cropID != 0 {
		if _, err := s.cropRepo.GetCropByID(ctx, *cropID); err != nil {
			return fromRepository(op+": checking crop", err, errTaskCropNotFound)
		}
	}
	return nil
}

func validateTaskEnums(status, priority string) error {
	if !models.ValidTaskStatus(status) {
		return validationError("status", "Status must be one of: belum selesai, sedang dijalankan, selesai, dibatalkan")
	}
	if !models.ValidTaskPriority(priority) {
		return validationError("priority", "Priority must be one of: low, medium, high")
	}
	return nil
}

func validateTaskDates(start, end time.Time) error {
	if end.Before(start) {
		return validationError("endDate", "End date must not be before start date")
	}
	return nil
}

func (s *taskService) CreateTask(ctx context.Context, req CreateTaskRequest) (*models.Task, error) {
	if utils.IsEmpty(req.TaskID) || utils.IsEmpty(req.Name) || req.UserID == 0 ||
		utils.IsEmpty(req.StartDate) || utils.IsEmpty(req.EndDate) || utils.IsEmpty(req.Status) {
		return nil, validationError("", "Incomplete task information (task ID, name, user, start date, end date and status are required)")
	}
	priority := orDefault(req.Priority, models.TaskPriorityMedium)
	if err := validateTaskEnums(req.Status, priority); err != nil {
		return nil, err
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, validationError("startDate", "Invalid start date")
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, validationError("endDate", "Invalid end date")
	}
	if err := validateTaskDates(start, end); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, "TaskService.CreateTask", &req.UserID, req.CropID); err != nil {
		return nil, err
	}

	var cropID *int64
	if req.CropID != nil && *req.CropID != 0 {
		cropID = req.CropID
	}
	task := &models.Task{
		TaskID:      strings.TrimSpace(req.TaskID),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		UserID:      req.UserID,
		CropID:      cropID,
		StartDate:   start,
		EndDate:     end,
		Status:      req.Status,
		Priority:    priority,
		Notes:       req.Notes,
		Attachments: req.Attachments,
	}
	created, err := s.taskRepo.CreateTask(ctx, s.db, task)
	if err != nil {
		return nil, taskWriteError("TaskService.CreateTask", err)
	}
	utils.LogInfo("Task created", map[string]interface{}{"task_id": created.TaskID, "user_id": created.UserID})
	return created, nil
}

func taskWriteError(op string, err error) error {
	if errors.Is(err, repositories.ErrForeignKey) {
		return newError(KindNotFound, "Assigned user or crop plot not found", err)
	}
	return fromRepository(op, err, errTaskNotFound)
}

// UpdateTask applies req to the task. Staff may only change status and notes on their own tasks.
func (s *taskService) UpdateTask(ctx context.Context, caller *models.Identity, id int64, req UpdateTaskRequest) (*models.Task, error) {
	task, err := s.taskRepo.GetTaskByID(ctx, id)
	if err != nil {
		return nil, fromRepository("TaskService.UpdateTask", err, errTaskNotFound)
	}

	isAdmin := caller.HasRole(models.RoleAdmin)
	if !isAdmin {
		if task.UserID != caller.ID {
			return nil, newError(KindForbidden, "You can only update your own tasks", ErrNotTaskOwner)
		}
		if !req.touchesOnlyProgress() {
			return nil, newError(KindForbidden, "You can only update the status and notes of a task", ErrTaskFieldDeny)
		}
	}

	if req.Status != nil && *req.Status != "" {
		task.Status = *req.Status
	}
	if req.Notes != nil {
		task.Notes = req.Notes
	}

	if isAdmin {
		if err := s.checkReferences(ctx, "TaskService.UpdateTask", req.UserID, req.CropID); err != nil {
			return nil, err
		}
		if req.TaskID != nil && *req.TaskID != "" {
			task.TaskID = strings.TrimSpace(*req.TaskID)
		}
		if req.Name != nil && *req.Name != "" {
			task.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			task.Description = req.Description
		}
		if req.UserID != nil && *req.UserID != 0 {
			task.UserID = *req.UserID
		}
		if req.CropID != nil {
			if *req.CropID == 0 {
				task.CropID = nil
			} else {
				task.CropID = req.CropID
			}
		}
		if req.StartDate != nil && *req.StartDate != "" {
			if task.StartDate, err = parseDate(*req.StartDate); err != nil {
				return nil, validationError("startDate", "Invalid start date")
			}
		}
		if req.EndDate != nil && *req.EndDate != "" {
			if task.EndDate, err = parseDate(*req.EndDate); err != nil {
				return nil, validationError("endDate", "Invalid end date")
			}
		}
		if req.Priority != nil && *req.Priority != "" {
			task.Priority = *req.Priority
		}
		if req.Attachments != nil {
			task.Attachments = req.Attachments
		}
		if err := validateTaskDates(task.StartDate, task.EndDate); err != nil {
			return nil, err
		}
	}
	if err := validateTaskEnums(task.Status, task.Priority); err != nil {
		return nil, err
	}

	updated, err := s.taskRepo.UpdateTask(ctx, s.db, task)
	if err != nil {
		return nil, taskWriteError("TaskService.UpdateTask", err)
	}
	return updated, nil
}

func (s *taskService) DeleteTask(ctx context.Context, id int64) error {
	if err := s.taskRepo.DeleteTask(ctx, s.db, id); err != nil {
		return fromRepository("TaskService.DeleteTask", err, errTaskNotFound)
	}
	utils.LogInfo("Task deleted", map[string]interface{}{"id": id})
	return nil
}
