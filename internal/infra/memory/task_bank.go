package memory

import (
	"context"

	"classtask-client/internal/authority"
)

// StaticTaskBank serves a fixed keyed task set (useful for demos and tests).
type StaticTaskBank struct {
	tasks []authority.KeyedTask
}

func NewStaticTaskBank(tasks []authority.KeyedTask) *StaticTaskBank {
	return &StaticTaskBank{tasks: tasks}
}

func (b *StaticTaskBank) LoadTasks(_ context.Context) ([]authority.KeyedTask, error) {
	out := make([]authority.KeyedTask, len(b.tasks))
	copy(out, b.tasks)
	return out, nil
}
