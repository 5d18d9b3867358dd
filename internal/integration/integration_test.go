package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"classtask-client/internal/authority"
	"classtask-client/internal/domain"
	pgbank "classtask-client/internal/infra/postgres"
	pgmigrations "classtask-client/internal/infra/postgres/migrations"
	redisstore "classtask-client/internal/infra/redis"
)

func TestSubmitEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedTasks(t, ctx, pgURL, sampleKeyedTasks())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	service := authority.NewService(
		pgbank.NewTaskBank(pool),
		redisstore.NewStore(redisClient, 5*time.Minute),
	)

	tasks, err := service.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "mc-1" {
		t.Fatalf("unexpected tasks %+v", tasks)
	}

	result, err := service.Submit(ctx, "mc-1", authority.SubmitRequest{UserID: "u1", Choice: "4"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Correct || result.PointsEarned != 5 {
		t.Fatalf("expected correct with 5 points, got %+v", result)
	}

	points, err := service.Points(ctx, "u1")
	if err != nil || points != 5 {
		t.Fatalf("expected redis-backed balance 5, got %d err=%v", points, err)
	}

	if _, err := service.Submit(ctx, "poll-1", authority.SubmitRequest{UserID: "u1", Choice: "Yes"}); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := service.Submit(ctx, "poll-1", authority.SubmitRequest{UserID: "u2", Choice: "No"}); err != nil {
		t.Fatalf("vote: %v", err)
	}
	results, err := service.PollResults(ctx, "poll-1")
	if err != nil {
		t.Fatalf("poll results: %v", err)
	}
	if results.Total != 2 || results.Percentages["Yes"] != 50 {
		t.Fatalf("unexpected poll results %+v", results)
	}

	tasks, err = service.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if tasks[0].Status != domain.StatusCompleted {
		t.Fatalf("expected completed status from redis, got %s", tasks[0].Status)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "classtask", "POSTGRES_PASSWORD": "classpass", "POSTGRES_DB": "taskdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://classtask:classpass@%s:%s/taskdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedTasks(t *testing.T, ctx context.Context, dsn string, tasks []authority.KeyedTask) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for i, task := range tasks {
		data, err := json.Marshal(task)
		if err != nil {
			t.Fatalf("marshal task: %v", err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO tasks (id, position, data) VALUES (?, ?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, task.ID, i, string(data)); err != nil {
			t.Fatalf("insert task: %v", err)
		}
	}
}

func sampleKeyedTasks() []authority.KeyedTask {
	return []authority.KeyedTask{
		{
			Task: domain.Task{
				ID: "mc-1", Title: "Quick check", Type: domain.TypeMultipleChoice,
				Status: domain.StatusAvailable, Points: 5,
				Description: "What is 2 + 2?", Options: []string{"3", "4", "5"},
			},
			CorrectChoice: "4",
		},
		{
			Task: domain.Task{
				ID: "poll-1", Title: "Pizza friday?", Type: domain.TypePoll,
				Status: domain.StatusAvailable, Options: []string{"Yes", "No"},
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
