package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"farm_ops_backend/internal/models"
)

// PresetTaskRepository defines the interface for task template database operations.
type PresetTaskRepository interface {
	CreatePresetTask(ctx context.Context, executor SQLExecutor, preset *models.PresetTask) (*models.PresetTask, error)
	GetPresetTaskByID(ctx context.Context, id int64) (*models.PresetTask, error)
	ListPresetTasks(ctx context.Context) ([]models.PresetTask, error)
	// LastTaskID returns the highest task id, or "" when the table is empty.
	LastTaskID(ctx context.Context, executor SQLExecutor) (string, error)
	UpdatePresetTask(ctx context.Context, executor SQLExecutor, preset *models.PresetTask) (*models.PresetTask, error)
	DeletePresetTask(ctx context.Context, executor SQLExecutor, id int64) error
}

type presetTaskRepository struct {
	db *sql.DB
}

// NewPresetTaskRepository creates a new instance of PresetTaskRepository.
func NewPresetTaskRepository(db *sql.DB) PresetTaskRepository {
	return &presetTaskRepository{db: db}
}

const presetTaskColumns = `id, task_id, name, description, created_at, updated_at`

func scanPresetTask(row scanner) (*models.PresetTask, error) {
	var p models.PresetTask
	if err := row.Scan(&p.ID, &p.TaskID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *presetTaskRepository) CreatePresetTask(ctx context.Context, executor SQLExecutor, preset *models.PresetTask) (*models.PresetTask, error) {
	query := `INSERT INTO preset_tasks (task_id, name, description, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $4)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query, preset.TaskID, preset.Name, preset.Description, time.Now()).
		Scan(&preset.ID, &preset.CreatedAt, &preset.UpdatedAt)
	if err != nil {
		return nil, classifyError(err, "creating preset task")
	}
	return preset, nil
}

func (r *presetTaskRepository) GetPresetTaskByID(ctx context.Context, id int64) (*models.PresetTask, error) {
	query := `SELECT ` + presetTaskColumns + ` FROM preset_tasks WHERE id = $1`
	preset, err := scanPresetTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting preset task %d", id))
	}
	return preset, nil
}

func (r *presetTaskRepository) ListPresetTasks(ctx context.Context) ([]models.PresetTask, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+presetTaskColumns+` FROM preset_tasks ORDER BY created_at DESC`)
	if err != nil {
		return nil, classifyError(err, "querying preset tasks")
	}
	defer rows.Close()

	presets := []models.PresetTask{}
	for rows.Next() {
		p, err := scanPresetTask(rows)
		if err != nil {
			return nil, classifyError(err, "scanning preset task")
		}
		presets = append(presets, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "iterating preset tasks")
	}
	return presets, nil
}

func (r *presetTaskRepository) LastTaskID(ctx context.Context, executor SQLExecutor) (string, error) {
	if executor == nil {
		executor = r.db
	}
	var taskID string
	query := `SELECT task_id FROM preset_tasks
	          WHERE task_id ~ '^TSK[0-9]+$'
	          ORDER BY CAST(SUBSTRING(task_id FROM 4) AS BIGINT) DESC
	          LIMIT 1`
	err := executor.QueryRowContext(ctx, query).Scan(&taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", classifyError(err, "reading last preset task id")
	}
	return taskID, nil
}

func (r *presetTaskRepository) UpdatePresetTask(ctx context.Context, executor SQLExecutor, preset *models.PresetTask) (*models.PresetTask, error) {
	query := `UPDATE preset_tasks SET name = $1, description = $2, updated_at = $3
	          WHERE id = $4
	          RETURNING ` + presetTaskColumns
	updated, err := scanPresetTask(executor.QueryRowContext(ctx, query, preset.Name, preset.Description, time.Now(), preset.ID))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("updating preset task %d", preset.ID))
	}
	return updated, nil
}

func (r *presetTaskRepository) DeletePresetTask(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM preset_tasks WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, fmt.Sprintf("deleting preset task %d", id))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classifyError(err, "checking affected rows")
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
