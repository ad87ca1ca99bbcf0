package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/repositories"
	"farm_ops_backend/pkg/utils"
)

const (
	presetTaskIDPrefix = "TSK"
	// presetCreateAttempts bounds retries when a concurrent insert takes the generated id.
	presetCreateAttempts = 3
)

type PresetTaskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// --- PresetTaskService Interface ---
type PresetTaskService interface {
	ListPresetTasks(ctx context.Context) ([]models.PresetTask, error)
	GetPresetTask(ctx context.Context, id int64) (*models.PresetTask, error)
	CreatePresetTask(ctx context.Context, req PresetTaskRequest) (*models.PresetTask, error)
	UpdatePresetTask(ctx context.Context, id int64, req PresetTaskRequest) (*models.PresetTask, error)
	DeletePresetTask(ctx context.Context, id int64) error
}

type presetTaskService struct {
	repo repositories.PresetTaskRepository
	db   repositories.SQLExecutor
}

// NewPresetTaskService creates a new instance of PresetTaskService.
func NewPresetTaskService(repo repositories.PresetTaskRepository, db repositories.SQLExecutor) PresetTaskService {
	return &presetTaskService{repo: repo, db: db}
}

var errPresetNotFound = newError(KindNotFound, "Preset task not found", ErrPresetMissing)

// nextPresetTaskID returns the id following last, e.g. TSK007 -> TSK008.
func nextPresetTaskID(last string) string {
	next := 1
	if n, err := strconv.Atoi(strings.TrimPrefix(last, presetTaskIDPrefix)); err == nil {
		next = n + 1
	}
	return fmt.Sprintf("%s%03d", presetTaskIDPrefix, next)
}

func validatePreset(req PresetTaskRequest) error {
	if utils.IsEmpty(req.Name) || utils.IsEmpty(req.Description) {
		return validationError("", "Name and description are required")
	}
	return nil
}

func (s *presetTaskService) ListPresetTasks(ctx context.Context) ([]models.PresetTask, error) {
	presets, err := s.repo.ListPresetTasks(ctx)
	if err != nil {
		return nil, internalError("PresetTaskService.ListPresetTasks", err)
	}
	return presets, nil
}

func (s *presetTaskService) GetPresetTask(ctx context.Context, id int64) (*models.PresetTask, error) {
	preset, err := s.repo.GetPresetTaskByID(ctx, id)
	if err != nil {
		return nil, fromRepository("PresetTaskService.GetPresetTask", err, errPresetNotFound)
	}
	return preset, nil
}

func (s *presetTaskService) CreatePresetTask(ctx context.Context, req PresetTaskRequest) (*models.PresetTask, error) {
	if err := validatePreset(req); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < presetCreateAttempts; attempt++ {
		last, err := s.repo.LastTaskID(ctx, s.db)
		if err != nil {
			return nil, internalError("PresetTaskService.CreatePresetTask: reading last id", err)
		}
		preset := &models.PresetTask{
			TaskID:      nextPresetTaskID(last),
			Name:        strings.TrimSpace(req.Name),
			Description: strings.TrimSpace(req.Description),
		}
		created, err := s.repo.CreatePresetTask(ctx, s.db, preset)
		if err == nil {
			utils.LogInfo("Preset task created", map[string]interface{}{"task_id": created.TaskID})
			return created, nil
		}
		if !errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, internalError("PresetTaskService.CreatePresetTask", err)
		}
		lastErr = err
	}
	return nil, &Error{Kind: KindConflict, Message: "Generated task ID already exists. Please try again.", Field: "taskId", Err: lastErr}
}

func (s *presetTaskService) UpdatePresetTask(ctx context.Context, id int64, req PresetTaskRequest) (*models.PresetTask, error) {
	if err := validatePreset(req); err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdatePresetTask(ctx, s.db, &models.PresetTask{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		return nil, fromRepository("PresetTaskService.UpdatePresetTask", err, errPresetNotFound)
	}
	return updated, nil
}

func (s *presetTaskService) DeletePresetTask(ctx context.Context, id int64) error {
	if err := s.repo.DeletePresetTask(ctx, s.db, id); err != nil {
		return fromRepository("PresetTaskService.DeletePresetTask", err, errPresetNotFound)
	}
	return nil
}
