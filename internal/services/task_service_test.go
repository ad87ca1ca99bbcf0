package services

import (
	"context"
	"errors"
	"testing"

	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/repositories/repotest"
)

type taskFixture struct {
	store *repotest.Store
	svc   TaskService
	admin *models.Identity
	owner *models.Identity
	other *models.Identity
	task  *models.Task
}

func strPtr(s string) *string { return &s }

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	store := repotest.NewStore()
	admin := seedUser(t, store, "vani", "rahsia1", models.RoleAdmin, models.StatusActive)
	owner := seedUser(t, store, "wan", "rahsia1", models.RoleStaff, models.StatusActive)
	other := seedUser(t, store, "xin", "rahsia1", models.RoleStaff, models.StatusActive)

	f := &taskFixture{
		store: store,
		svc:   NewTaskService(store, store, store, nil),
		admin: identityFor(t, store, admin.ID),
		owner: identityFor(t, store, owner.ID),
		other: identityFor(t, store, other.ID),
	}
	task, err := f.svc.CreateTask(context.Background(), CreateTaskRequest{
		TaskID: "TASK-1", Name: "Baja", UserID: owner.ID,
		StartDate: "2024-05-01", EndDate: "2024-05-02", Status: models.TaskStatusPending,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	f.task = task
	return f
}

func TestCreateTaskDefaultsAndReferences(t *testing.T) {
	f := newTaskFixture(t)
	if f.task.Priority != models.TaskPriorityMedium {
		t.Fatalf("expected default priority medium, got %q", f.task.Priority)
	}
	if f.task.AssignedTo == nil || f.task.AssignedTo.Username != "wan" {
		t.Fatalf("expected assignee summary, got %+v", f.task.AssignedTo)
	}

	ctx := context.Background()
	base := CreateTaskRequest{TaskID: "TASK-2", Name: "Racun", UserID: f.owner.ID,
		StartDate: "2024-05-01", EndDate: "2024-05-02", Status: models.TaskStatusPending}

	req := base
	req.UserID = 5555
	_, err := f.svc.CreateTask(ctx, req)
	requireKind(t, err, KindNotFound)

	missingCrop := int64(5556)
	req = base
	req.CropID = &missingCrop
	_, err = f.svc.CreateTask(ctx, req)
	requireKind(t, err, KindNotFound)

	req = base
	req.Status = "done"
	_, err = f.svc.CreateTask(ctx, req)
	requireKind(t, err, KindValidation)

	req = base
	req.Priority = "urgent"
	_, err = f.svc.CreateTask(ctx, req)
	requireKind(t, err, KindValidation)

	req = base
	req.TaskID = "TASK-1"
	_, err = f.svc.CreateTask(ctx, req)
	se := requireKind(t, err, KindConflict)
	if se.Field != "taskId" {
		t.Fatalf("expected conflict on taskId, got %q", se.Field)
	}
}

func TestListTasksScopesStaffToOwnTasks(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	mine, err := f.svc.ListTasks(ctx, f.owner)
	if err != nil || len(mine) != 1 {
		t.Fatalf("owner should see 1 task, got %d (%v)", len(mine), err)
	}
	theirs, _ := f.svc.ListTasks(ctx, f.other)
	if len(theirs) != 0 {
		t.Fatalf("other staff should see no tasks, got %d", len(theirs))
	}
	all, _ := f.svc.ListTasks(ctx, f.admin)
	if len(all) != 1 {
		t.Fatalf("admin should see every task, got %d", len(all))
	}
	if _, err := f.svc.GetTask(ctx, f.other, f.task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("other staff must not read the task, got %v", err)
	}
}

func TestStaffTaskUpdateRestrictions(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateTask(ctx, f.other, f.task.ID, UpdateTaskRequest{Status: strPtr(models.TaskStatusDone)})
	requireKind(t, err, KindForbidden)
	if !errors.Is(err, ErrNotTaskOwner) {
		t.Fatalf("expected ErrNotTaskOwner, got %v", err)
	}

	_, err = f.svc.UpdateTask(ctx, f.owner, f.task.ID, UpdateTaskRequest{Name: strPtr("Renamed")})
	requireKind(t, err, KindForbidden)
	if !errors.Is(err, ErrTaskFieldDeny) {
		t.Fatalf("expected ErrTaskFieldDeny, got %v", err)
	}

	updated, err := f.svc.UpdateTask(ctx, f.owner, f.task.ID, UpdateTaskRequest{
		Status: strPtr(models.TaskStatusInProgress),
		Notes:  strPtr("Separuh siap"),
	})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Status != models.TaskStatusInProgress || updated.Notes == nil || *updated.Notes != "Separuh siap" {
		t.Fatalf("unexpected task after update: %+v", updated)
	}
	if updated.Name != "Baja" {
		t.Fatalf("name must be unchanged, got %q", updated.Name)
	}

	_, err = f.svc.UpdateTask(ctx, f.owner, f.task.ID, UpdateTaskRequest{Status: strPtr("siap")})
	requireKind(t, err, KindValidation)
}

func TestAdminTaskUpdate(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	updated, err := f.svc.UpdateTask(ctx, f.admin, f.task.ID, UpdateTaskRequest{
		Name:     strPtr("Baja organik"),
		UserID:   &f.other.ID,
		Priority: strPtr(models.TaskPriorityHigh),
	})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if updated.Name != "Baja organik" || updated.UserID != f.other.ID || updated.Priority != models.TaskPriorityHigh {
		t.Fatalf("unexpected task after update: %+v", updated)
	}

	_, err = f.svc.UpdateTask(ctx, f.admin, f.task.ID, UpdateTaskRequest{EndDate: strPtr("2024-04-01")})
	requireKind(t, err, KindValidation)

	_, err = f.svc.UpdateTask(ctx, f.admin, 999, UpdateTaskRequest{Name: strPtr("x")})
	requireKind(t, err, KindNotFound)

	if err := f.svc.DeleteTask(ctx, f.task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	requireKind(t, f.svc.DeleteTask(ctx, f.task.ID), KindNotFound)
}
