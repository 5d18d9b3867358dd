package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"classtask-client/internal/domain"
)

// TaskLister fetches the user's current task list from the authority.
type TaskLister interface {
	FetchTasks(ctx context.Context) ([]domain.Task, error)
}

// Catalog holds the most recently fetched task snapshot. A refresh replaces
// the snapshot wholesale; there is no incremental patching. Overlapping
// refreshes are collapsed so a burst of update notifications costs one fetch.
type Catalog struct {
	lister TaskLister
	sf     singleflight.Group

	mu    sync.RWMutex
	tasks []domain.Task
}

func NewCatalog(lister TaskLister) *Catalog {
	return &Catalog{lister: lister}
}

// Refresh fetches the task list and replaces the cached snapshot.
func (c *Catalog) Refresh(ctx context.Context) ([]domain.Task, error) {
	result, err, _ := c.sf.Do("tasks", func() (interface{}, error) {
		tasks, err := c.lister.FetchTasks(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.tasks = tasks
		c.mu.Unlock()
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Task), nil
}

// Tasks returns a copy of the current snapshot in fetch order.
func (c *Catalog) Tasks() []domain.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Task(nil), c.tasks...)
}

// Find looks a task up by ID in the current snapshot.
func (c *Catalog) Find(taskID string) (domain.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, task := range c.tasks {
		if task.ID == taskID {
			return task, true
		}
	}
	return domain.Task{}, false
}
