package models

import "time"

// Task statuses.
const (
	TaskStatusPending    = "belum selesai"
	TaskStatusInProgress = "sedang dijalankan"
	TaskStatusDone       = "selesai"
	TaskStatusCancelled  = "dibatalkan"
)

// Task priorities.
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone, TaskStatusCancelled:
		return true
	}
	return false
}

func ValidTaskPriority(p string) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task is a unit of farm work assigned to a user, optionally on a crop plot.
type Task struct {
	ID          int64     `json:"id" db:"id"`
	TaskID      string    `json:"taskId" db:"task_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	UserID      int64     `json:"userId" db:"user_id"`
	CropID      *int64    `json:"cropId" db:"crop_id"`
	StartDate   time.Time `json:"startDate" db:"start_date"`
	EndDate     time.Time `json:"endDate" db:"end_date"`
	Status      string    `json:"status" db:"status"`
	Priority    string    `json:"priority" db:"priority"`
	Notes       *string   `json:"notes" db:"notes"`
	Attachments *string   `json:"attachments" db:"attachments"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	AssignedTo *TaskAssignee `json:"assignedTo,omitempty"`
	Crop       *TaskCrop     `json:"crop"`
}

type TaskAssignee struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type TaskCrop struct {
	ID     int64  `json:"id"`
	PlotID string `json:"plotId"`
}

// PresetTask is a reusable task template.
type PresetTask struct {
	ID          int64     `json:"id" db:"id"`
	TaskID      string    `json:"taskId" db:"task_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}
