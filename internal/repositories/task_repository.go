package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"farm_ops_backend/internal/models"
)

// TaskRepository defines the interface for task database operations.
type TaskRepository interface {
	CreateTask(ctx context.Context, executor SQLExecutor, task *models.Task) (*models.Task, error)
	GetTaskByID(ctx context.Context, id int64) (*models.Task, error)
	// ListTasks returns all tasks, or only those assigned to assigneeID when it is set.
	ListTasks(ctx context.Context, assigneeID *int64) ([]models.Task, error)
	UpdateTask(ctx context.Context, executor SQLExecutor, task *models.Task) (*models.Task, error)
	DeleteTask(ctx context.Context, executor SQLExecutor, id int64) error
}

type taskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new instance of TaskRepository.
func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskSelect = `SELECT t.id, t.task_id, t.name, t.description, t.user_id, t.crop_id, t.start_date, t.end_date,
	       t.status, t.priority, t.notes, t.attachments, t.created_at, t.updated_at,
	       u.id, u.username, c.id, c.plot_id
	  FROM tasks t
	  LEFT JOIN users u ON u.id = t.user_id
	  LEFT JOIN crops c ON c.id = t.crop_id`

func scanTask(row scanner) (*models.Task, error) {
	var t models.Task
	var description, notes, attachments sql.NullString
	var cropID, uID, cID sql.NullInt64
	var username, plotID sql.NullString
	if err := row.Scan(
		&t.ID, &t.TaskID, &t.Name, &description, &t.UserID, &cropID, &t.StartDate, &t.EndDate,
		&t.Status, &t.Priority, &notes, &attachments, &t.CreatedAt, &t.UpdatedAt,
		&uID, &username, &cID, &plotID,
	); err != nil {
		return nil, err
	}
	t.Description = stringPtr(description)
	t.Notes = stringPtr(notes)
	t.Attachments = stringPtr(attachments)
	t.CropID = int64Ptr(cropID)
	if uID.Valid {
		t.AssignedTo = &models.TaskAssignee{ID: uID.Int64, Username: username.String}
	}
	if cID.Valid {
		t.Crop = &models.TaskCrop{ID: cID.Int64, PlotID: plotID.String}
	}
	return &t, nil
}

func (r *taskRepository) CreateTask(ctx context.Context, executor SQLExecutor, task *models.Task) (*models.Task, error) {
	query := `INSERT INTO tasks (task_id, name, description, user_id, crop_id, start_date, end_date,
	              status, priority, notes, attachments, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	          RETURNING id`

	var id int64
	err := executor.QueryRowContext(ctx, query,
		task.TaskID, task.Name, task.Description, task.UserID, nullInt64(task.CropID), task.StartDate, task.EndDate,
		task.Status, task.Priority, task.Notes, task.Attachments, time.Now(),
	).Scan(&id)
	if err != nil {
		return nil, classifyError(err, "creating task")
	}
	return r.getTask(ctx, executor, id)
}

func (r *taskRepository) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	return r.getTask(ctx, r.db, id)
}

func (r *taskRepository) getTask(ctx context.Context, executor SQLExecutor, id int64) (*models.Task, error) {
	task, err := scanTask(executor.QueryRowContext(ctx, taskSelect+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting task %d", id))
	}
	return task, nil
}

func (r *taskRepository) ListTasks(ctx context.Context, assigneeID *int64) ([]models.Task, error) {
	query := taskSelect
	var args []interface{}
	if assigneeID != nil {
		query += ` WHERE t.user_id = $1`
		args = append(args, *assigneeID)
	}
	query += ` ORDER BY t.start_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyError(err, "querying tasks")
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, classifyError(err, "scanning task")
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "iterating tasks")
	}
	return tasks, nil
}

// UpdateTask writes every mutable column of task and returns the refreshed row.
func (r *taskRepository) UpdateTask(ctx context.Context, executor SQLExecutor, task *models.Task) (*models.Task, error) {
	query := `UPDATE tasks
	          SET task_id = $1, name = $2, description = $3, user_id = $4, crop_id = $5, start_date = $6,
	              end_date = $7, status = $8, priority = $9, notes = $10, attachments = $11, updated_at = $12
	          WHERE id = $13`

	result, err := executor.ExecContext(ctx, query,
		task.TaskID, task.Name, task.Description, task.UserID, nullInt64(task.CropID), task.StartDate,
		task.EndDate, task.Status, task.Priority, task.Notes, task.Attachments, time.Now(), task.ID,
	)
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("updating task %d", task.ID))
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, classifyError(err, "checking affected rows")
	} else if n == 0 {
		return nil, ErrNotFound
	}
	return r.getTask(ctx, executor, task.ID)
}

func (r *taskRepository) DeleteTask(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, fmt.Sprintf("deleting task %d", id))
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
