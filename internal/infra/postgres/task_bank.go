package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"classtask-client/internal/authority"
)

// TaskBank loads keyed tasks stored as JSONB rows in Postgres.
type TaskBank struct {
	pool *pgxpool.Pool
}

func NewTaskBank(pool *pgxpool.Pool) *TaskBank {
	return &TaskBank{pool: pool}
}

func (b *TaskBank) LoadTasks(ctx context.Context) ([]authority.KeyedTask, error) {
	rows, err := b.pool.Query(ctx, `SELECT data FROM tasks ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	defer rows.Close()

	var tasks []authority.KeyedTask
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		var task authority.KeyedTask
		if err := json.Unmarshal(raw, &task); err != nil {
			return nil, fmt.Errorf("unmarshal task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return tasks, nil
}
