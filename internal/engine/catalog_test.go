package engine_test

import (
	"context"
	"testing"

	"classtask-client/internal/domain"
	"classtask-client/internal/engine"
)

func TestCatalogRefreshReplacesSnapshot(t *testing.T) {
	lister := &staticLister{tasks: []domain.Task{
		{ID: "t1", Status: domain.StatusAvailable},
		{ID: "t2", Status: domain.StatusPending},
	}}
	catalog := engine.NewCatalog(lister)

	if len(catalog.Tasks()) != 0 {
		t.Fatalf("fresh catalog must be empty")
	}
	if _, err := catalog.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := len(catalog.Tasks()); got != 2 {
		t.Fatalf("expected 2 tasks, got %d", got)
	}

	// A refresh replaces the snapshot wholesale, including removals.
	lister.mu.Lock()
	lister.tasks = []domain.Task{{ID: "t2", Status: domain.StatusCompleted}}
	lister.mu.Unlock()
	if _, err := catalog.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, ok := catalog.Find("t1"); ok {
		t.Fatalf("t1 should be gone after refresh")
	}
	task, ok := catalog.Find("t2")
	if !ok || task.Status != domain.StatusCompleted {
		t.Fatalf("expected updated t2, got %+v ok=%v", task, ok)
	}
}
