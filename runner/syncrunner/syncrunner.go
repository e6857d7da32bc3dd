// Package syncrunner wires the sync engine and runs it as a queue worker,
// a web server, or both.
package syncrunner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lineuphq/lineup/models"
	"github.com/lineuphq/lineup/pkg/encryption"
	"github.com/lineuphq/lineup/postgres"
	"github.com/lineuphq/lineup/redis"
	redisconfig "github.com/lineuphq/lineup/redis/config"
	"github.com/lineuphq/lineup/redis/tasks"
	"github.com/lineuphq/lineup/runner"
	"github.com/lineuphq/lineup/web"
	"github.com/lineuphq/lineup/zoho"
)

type syncRunner struct {
	cfg    *runner.Config
	log    *zap.Logger
	db     *sql.DB
	rdb    *goredis.Client
	queue  *redis.Client
	server *redis.Server

	handler      *tasks.SyncHandler
	webServer    *web.Server
	integrations models.IntegrationRepository
}

// New builds a fully wired runner for the configured mode.
func New(cfg *runner.Config, logger *zap.Logger) (runner.Runner, error) {
	if cfg.Dsn == "" {
		return nil, errors.New("a postgres connection string is required")
	}

	if cfg.ZohoClientID == "" || cfg.ZohoClientSecret == "" {
		return nil, errors.New("zoho client credentials are required")
	}

	codec, err := encryption.NewCodec([]byte(cfg.EncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}

	db, err := postgres.Open(context.Background(), cfg.Dsn)
	if err != nil {
		return nil, err
	}

	redisCfg, err := redisconfig.NewRedisConfig()
	if err != nil {
		db.Close()

		return nil, err
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     redisCfg.GetRedisAddr(),
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	integrations := postgres.NewIntegrationRepository(db, codec)

	clientOpts := []zoho.ClientOption{}
	if cfg.ZohoAccountsURL != "" {
		clientOpts = append(clientOpts, zoho.WithAccountsURL(cfg.ZohoAccountsURL))
	}
	if cfg.ZohoAPIURL != "" {
		clientOpts = append(clientOpts, zoho.WithAPIBaseURL(cfg.ZohoAPIURL))
	}

	client := zoho.NewClient(cfg.ZohoClientID, cfg.ZohoClientSecret, logger, clientOpts...)
	oauth := zoho.NewOAuth(client, integrations, logger)
	mapper := zoho.NewMapper(postgres.NewFieldMappingRepository(db))

	syncer := zoho.NewSyncer(zoho.SyncerDeps{
		Client:       client,
		OAuth:        oauth,
		Mapper:       mapper,
		Integrations: integrations,
		Candidates:   postgres.NewCandidateRepository(db),
		Stages:       postgres.NewStageRepository(db),
		Users:        postgres.NewUserRepository(db),
		Members:      postgres.NewTenantMemberRepository(db),
		Locker:       redis.NewLocker(rdb),
		Logger:       logger,
	})

	r := &syncRunner{
		cfg:          cfg,
		log:          logger,
		db:           db,
		rdb:          rdb,
		integrations: integrations,
	}

	if cfg.RunMode == runner.RunModeWorker || cfg.RunMode == runner.RunModeAll {
		r.server = redis.NewServer(redisCfg, logger)
		r.handler = tasks.NewSyncHandler(syncer, integrations, logger)
	}

	if cfg.RunMode == runner.RunModeWeb || cfg.RunMode == runner.RunModeAll {
		queue, err := redis.NewClient(redisCfg)
		if err != nil {
			db.Close()
			rdb.Close()

			return nil, err
		}

		r.queue = queue
		limiter := redis.NewRateLimiter(rdb, cfg.SyncRateLimit, cfg.SyncRateWindow)
		r.webServer = web.NewServer(oauth, integrations, postgres.NewWebhookRepository(db), queue, limiter, logger)
	}

	return r, nil
}

func (r *syncRunner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if r.server != nil {
		g.Go(func() error {
			mux := asynq.NewServeMux()
			r.handler.Register(mux)

			r.log.Info("starting sync worker")

			return r.server.Run(ctx, mux)
		})
	}

	if r.webServer != nil {
		g.Go(func() error {
			r.log.Info("starting web server", zap.String("addr", r.cfg.Addr))

			return web.Start(ctx, web.Config{Addr: r.cfg.Addr, Debug: r.cfg.Debug}, r.webServer)
		})
	}

	return g.Wait()
}

func (r *syncRunner) Close(context.Context) error {
	if r.queue != nil {
		_ = r.queue.Close()
	}

	if r.rdb != nil {
		_ = r.rdb.Close()
	}

	if r.db != nil {
		return r.db.Close()
	}

	return nil
}
