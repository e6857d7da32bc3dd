package redis

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/lineuphq/lineup/redis/config"
)

// Server wraps the asynq worker server consuming sync tasks.
type Server struct {
	server *asynq.Server
	cfg    *config.RedisConfig
	log    *zap.Logger
}

// NewServer creates a new worker server with the provided configuration.
func NewServer(cfg *config.RedisConfig, logger *zap.Logger) *Server {
	log := logger.Named("queue")

	redisOpt := asynq.RedisClientOpt{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Workers,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				if n >= cfg.MaxRetries {
					log.Warn("task exhausted retries",
						zap.String("task", task.Type()),
						zap.Error(err),
					)

					return -1 * time.Second
				}

				// exponential backoff capped at the configured interval
				delay := time.Duration(1<<uint(n)) * time.Second
				if delay > cfg.RetryInterval {
					delay = cfg.RetryInterval
				}

				log.Info("task retry scheduled",
					zap.String("task", task.Type()),
					zap.Int("attempt", n),
					zap.Duration("delay", delay),
					zap.Error(err),
				)

				return delay
			},
			Queues:         cfg.QueuePriorities,
			StrictPriority: true,
		},
	)

	return &Server{
		server: srv,
		cfg:    cfg,
		log:    log,
	}
}

// Run starts the server with the provided handler mux and blocks until the
// context is cancelled.
func (s *Server) Run(ctx context.Context, mux *asynq.ServeMux) error {
	if err := s.server.Start(mux); err != nil {
		return err
	}

	<-ctx.Done()

	s.log.Info("shutting down queue server")
	s.server.Shutdown()

	return nil
}
