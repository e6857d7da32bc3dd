// Package web exposes the HTTP surface of the sync engine: the OAuth
// connect/callback flow, user-triggered sync requests, and webhook
// ingestion. Authentication of these endpoints is handled by middleware
// outside this package.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/lineuphq/lineup/models"
	"github.com/lineuphq/lineup/redis/tasks"
	"github.com/lineuphq/lineup/zoho"
)

// TaskQueue enqueues background sync jobs.
type TaskQueue interface {
	EnqueueTask(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error
}

// RateLimiter caps user-triggered syncs per tenant.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type Config struct {
	Addr  string
	Debug bool
}

// Server wires the sync engine to HTTP.
type Server struct {
	oauth        *zoho.OAuth
	integrations models.IntegrationRepository
	webhooks     models.WebhookRepository
	queue        TaskQueue
	limiter      RateLimiter
	log          *zap.Logger
}

func NewServer(
	oauth *zoho.OAuth,
	integrations models.IntegrationRepository,
	webhooks models.WebhookRepository,
	queue TaskQueue,
	limiter RateLimiter,
	logger *zap.Logger,
) *Server {
	return &Server{
		oauth:        oauth,
		integrations: integrations,
		webhooks:     webhooks,
		queue:        queue,
		limiter:      limiter,
		log:          logger.Named("web"),
	}
}

// Register attaches all routes to an echo instance.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/api/integrations/zoho/connect", s.handleConnect)
	e.GET("/api/integrations/zoho/callback", s.handleCallback)
	e.GET("/api/integrations/zoho/status", s.handleStatus)
	e.POST("/api/integrations/zoho/sync", s.handleTriggerSync)
	e.POST("/api/webhooks/zoho/:tenant_id", s.handleWebhook)
}

// Start runs the HTTP server until the context is cancelled.
func Start(ctx context.Context, cfg Config, srv *Server) error {
	e := echo.New()
	e.Debug = cfg.Debug
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	srv.Register(e)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_ = e.Shutdown(shutdownCtx)
	}()

	if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) handleConnect(c echo.Context) error {
	tenantID := c.QueryParam("tenant_id")
	redirectURI := c.QueryParam("redirect_uri")

	if tenantID == "" || redirectURI == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tenant_id and redirect_uri are required")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"url": s.oauth.AuthorizationURL(tenantID, redirectURI),
	})
}

func (s *Server) handleCallback(c echo.Context) error {
	code := c.QueryParam("code")
	tenantID := c.QueryParam("state")
	redirectURI := c.QueryParam("redirect_uri")

	if code == "" || tenantID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code and state are required")
	}

	result, err := s.oauth.ExchangeCode(c.Request().Context(), tenantID, code, redirectURI)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"connected":   true,
		"reconnected": result.Reconnected,
	})
}

func (s *Server) handleStatus(c echo.Context) error {
	tenantID := c.QueryParam("tenant_id")
	if tenantID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tenant_id is required")
	}

	integration, err := s.integrations.Get(c.Request().Context(), tenantID, zoho.Provider)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no zoho integration for this tenant")
		}

		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":         integration.Status,
		"last_error":     integration.LastError,
		"last_synced_at": integration.LastSyncedAt,
		"stale":          zoho.IsSyncStale(integration.LastSyncedAt, 0),
	})
}

type triggerSyncRequest struct {
	TenantID string `json:"tenant_id"`
	Module   string `json:"module"`
	Type     string `json:"type"`
}

func (s *Server) handleTriggerSync(c echo.Context) error {
	var req triggerSyncRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.TenantID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tenant_id is required")
	}

	ctx := c.Request().Context()

	allowed, err := s.limiter.Allow(ctx, "sync:rate:"+req.TenantID)
	if err != nil {
		return err
	}

	if !allowed {
		return echo.NewHTTPError(http.StatusTooManyRequests, "sync limit reached for this tenant, try again later")
	}

	task, err := tasks.CreateSyncTask(&tasks.SyncPayload{
		TenantID: req.TenantID,
		Module:   req.Module,
		Type:     req.Type,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.queue.EnqueueTask(ctx, task, asynq.Queue("default")); err != nil {
		return err
	}

	s.log.Info("sync job queued",
		zap.String("tenant_id", req.TenantID),
		zap.String("module", req.Module),
		zap.String("type", req.Type),
	)

	return c.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
}

type webhookRequest struct {
	Module string         `json:"module"`
	Event  string         `json:"event"`
	ID     string         `json:"id"`
	Data   map[string]any `json:"data"`
}

// handleWebhook persists the raw delivery as an audit record. The payload
// signature is not verified, and ingestion does not trigger a sync.
func (s *Server) handleWebhook(c echo.Context) error {
	tenantID := c.Param("tenant_id")

	var req webhookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid webhook payload")
	}

	event := &models.WebhookEvent{
		TenantID: tenantID,
		Provider: zoho.Provider,
		Module:   req.Module,
		Event:    req.Event,
		RemoteID: req.ID,
	}

	if req.Data != nil {
		raw, err := json.Marshal(req.Data)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid webhook data")
		}

		event.Data = raw
	}

	if err := s.webhooks.Create(c.Request().Context(), event); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
