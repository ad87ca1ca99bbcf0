package services

import (
	"context"
	"testing"

	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/repositories/repotest"
)

func TestNextPresetTaskID(t *testing.T) {
	tests := map[string]string{
		"":        "TSK001",
		"TSK001":  "TSK002",
		"TSK099":  "TSK100",
		"TSK1000": "TSK1001",
		"custom":  "TSK001",
	}
	for last, want := range tests {
		if got := nextPresetTaskID(last); got != want {
			t.Errorf("nextPresetTaskID(%q) = %q, want %q", last, got, want)
		}
	}
}

func TestCreatePresetTaskSequence(t *testing.T) {
	store := repotest.NewStore()
	svc := NewPresetTaskService(store, nil)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"Siram", "Baja", "Tuai"} {
		p, err := svc.CreatePresetTask(ctx, PresetTaskRequest{Name: name, Description: name + " pokok"})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		ids = append(ids, p.TaskID)
	}
	want := []string{"TSK001", "TSK002", "TSK003"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}

	// Ids continue from the highest number, not the most recent row.
	if _, err := store.CreatePresetTask(ctx, nil, &models.PresetTask{TaskID: "TSK010", Name: "x", Description: "y"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	p, err := svc.CreatePresetTask(ctx, PresetTaskRequest{Name: "Cantas", Description: "Cantas daun"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.TaskID != "TSK011" {
		t.Fatalf("expected TSK011, got %s", p.TaskID)
	}
}

func TestPresetTaskValidationAndNotFound(t *testing.T) {
	svc := NewPresetTaskService(repotest.NewStore(), nil)
	ctx := context.Background()

	_, err := svc.CreatePresetTask(ctx, PresetTaskRequest{Name: "Siram"})
	requireKind(t, err, KindValidation)

	_, err = svc.UpdatePresetTask(ctx, 42, PresetTaskRequest{Name: "a", Description: "b"})
	requireKind(t, err, KindNotFound)

	requireKind(t, svc.DeletePresetTask(ctx, 42), KindNotFound)
}
