package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"classtask-client/internal/authority"
	"classtask-client/internal/config"
	"classtask-client/internal/domain"
	"classtask-client/internal/infra/memory"
	pgbank "classtask-client/internal/infra/postgres"
	redisstore "classtask-client/internal/infra/redis"
	transport "classtask-client/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand that runs the dev scoring authority.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a development scoring authority with sample tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath, *port)
		},
	}
}

func runServe(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		// The dev authority works without a config file.
		log.Printf("no config loaded (%v), using defaults", err)
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var bank authority.TaskBank = memory.NewStaticTaskBank(sampleTasks())
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		bank = pgbank.NewTaskBank(pool)
	}

	var store authority.Store = memory.NewStore()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = redisstore.NewStore(client, config.TTLDuration(cfg.Redis.TTL, 8*time.Hour))
	}

	service := authority.NewService(bank, store)
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewServer(service).Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting dev authority on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down dev authority...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down dev authority...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleTasks seeds one task of every type so each client flow can be tried.
func sampleTasks() []authority.KeyedTask {
	return []authority.KeyedTask{
		{
			Task: domain.Task{
				ID: "task-1", Title: "Warmup question", Type: domain.TypeQuestion,
				Status: domain.StatusAvailable, Points: 10,
				Description:  "Explain photosynthesis in one sentence.",
				Instructions: "Answers are reviewed by your teacher.",
			},
		},
		{
			Task: domain.Task{
				ID: "task-2", Title: "Quick check", Type: domain.TypeMultipleChoice,
				Status: domain.StatusAvailable, Points: 5,
				Description: "What is 2 + 2?", Options: []string{"3", "4", "5"},
			},
			CorrectChoice: "4",
		},
		{
			Task: domain.Task{
				ID: "task-3", Title: "Pizza friday?", Type: domain.TypePoll,
				Status: domain.StatusAvailable,
				Description: "Vote on the class party menu.", Options: []string{"Yes", "No"},
			},
		},
		{
			Task: domain.Task{
				ID: "task-4", Title: "Geography mini quiz", Type: domain.TypeQuiz,
				Status: domain.StatusAvailable, Points: 10,
				Description: "Two quick questions.",
				QuizPages: []domain.QuizPage{
					{Kind: domain.PageInfo, Title: "Heads up", Content: "No going back after finishing."},
					{Kind: domain.PageQuestion, Question: "2+2?", Options: []string{"3", "4", "5"}},
					{Kind: domain.PageQuestion, Question: "Capital of France?", Options: []string{"Paris", "Lyon"}},
				},
			},
			QuizKey: []string{"4", "Paris"},
		},
		{
			Task: domain.Task{
				ID: "task-5", Title: "Reading list", Type: domain.TypeMarkAsDone,
				Status: domain.StatusAvailable, Points: 2,
				Description:      "Read chapter 4.",
				TaskInstructions: "Only mark done after finishing the whole chapter.",
			},
		},
		{
			Task: domain.Task{
				ID: "task-6", Title: "Formula sheet", Type: domain.TypeQuestion,
				Status: domain.StatusResource,
				Description:     "Reference material for the upcoming test.",
				ResourceContent: "Area of a circle: pi * r^2",
			},
		},
	}
}
