package zoho

import (
	"context"
	"errors"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/lineuphq/lineup/models"
)

// Sync job modules.
const (
	ModuleAll      = "all"
	ModuleLeads    = "leads"
	ModuleContacts = "contacts"
	ModuleBoth     = "both"
	ModuleStages   = "stages"
	ModuleUsers    = "users"
)

const (
	SyncTypeFull  = "full"
	SyncTypeDelta = "delta"

	// StaleAfter is the default threshold for IsSyncStale.
	StaleAfter = 15 * time.Minute

	// lockTTL bounds how long a crashed worker can hold a tenant's sync
	// lock before it expires on its own.
	lockTTL = 10 * time.Minute
)

// Locker keeps at most one sync in flight per tenant across workers.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Syncer orchestrates stage, user and candidate synchronization for a
// tenant. Steps run sequentially so stages exist before candidate sync
// infers them; record-level work is sequential too, trading throughput for
// predictable rate-limit behavior against the remote API.
type Syncer struct {
	client       *Client
	oauth        *OAuth
	mapper       *Mapper
	integrations models.IntegrationRepository
	candidates   models.CandidateRepository
	stages       models.StageRepository
	users        models.UserRepository
	members      models.TenantMemberRepository
	locker       Locker
	log          *zap.Logger
}

// SyncerDeps collects everything a Syncer needs.
type SyncerDeps struct {
	Client       *Client
	OAuth        *OAuth
	Mapper       *Mapper
	Integrations models.IntegrationRepository
	Candidates   models.CandidateRepository
	Stages       models.StageRepository
	Users        models.UserRepository
	Members      models.TenantMemberRepository
	Locker       Locker
	Logger       *zap.Logger
}

func NewSyncer(deps SyncerDeps) *Syncer {
	return &Syncer{
		client:       deps.Client,
		oauth:        deps.OAuth,
		mapper:       deps.Mapper,
		integrations: deps.Integrations,
		candidates:   deps.Candidates,
		stages:       deps.Stages,
		users:        deps.Users,
		members:      deps.Members,
		locker:       deps.Locker,
		log:          deps.Logger.Named("zoho.sync"),
	}
}

// SyncAll runs stage sync, then user sync, then candidate sync for the
// requested module. Each step is isolated: a failed step is recorded in its
// slot of the report and the remaining steps still run.
func (s *Syncer) SyncAll(ctx context.Context, tenantID, module string, since *time.Time) (*models.SyncReport, error) {
	release, err := s.lockTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer release()

	module = normalizeCandidateModule(module)

	report := &models.SyncReport{
		Module:   module,
		SyncType: SyncTypeFull,
	}
	if since != nil {
		report.SyncType = SyncTypeDelta
	}

	var stepErrs error

	if res, err := s.syncStages(ctx, tenantID); err != nil {
		report.Stages.Error = err.Error()
		stepErrs = multierr.Append(stepErrs, err)
	} else {
		report.Stages.Result = res
	}

	if res, err := s.syncUsers(ctx, tenantID); err != nil {
		report.Users.Error = err.Error()
		stepErrs = multierr.Append(stepErrs, err)
	} else {
		report.Users.Result = res
	}

	if res, err := s.syncCandidateModules(ctx, tenantID, module, since); err != nil {
		report.Candidates.Error = err.Error()
		report.Candidates.Result = res // partial counts when "both" half-failed
		stepErrs = multierr.Append(stepErrs, err)
	} else {
		report.Candidates.Result = res
	}

	if stepErrs != nil {
		s.log.Warn("sync completed with step failures",
			zap.String("tenant_id", tenantID),
			zap.String("module", module),
			zap.Error(stepErrs),
		)
	}

	return report, nil
}

// DemandDrivenSync is the production entry point for user-triggered syncs.
// It runs in delta mode from the last successful sync, or full when the
// tenant has never synced.
func (s *Syncer) DemandDrivenSync(ctx context.Context, tenantID, module string) (*models.SyncReport, error) {
	integration, err := s.integrations.Get(ctx, tenantID, Provider)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrNotConfigured
		}

		return nil, err
	}

	return s.SyncAll(ctx, tenantID, module, integration.LastSyncedAt)
}

// IsSyncStale reports whether a sync should be triggered at all. A nil
// timestamp (never synced) is always stale.
func IsSyncStale(lastSyncedAt *time.Time, threshold time.Duration) bool {
	if threshold <= 0 {
		threshold = StaleAfter
	}

	if lastSyncedAt == nil {
		return true
	}

	return time.Since(*lastSyncedAt) >= threshold
}

// SyncStages is the locked single-entity entry point for stage sync.
func (s *Syncer) SyncStages(ctx context.Context, tenantID string) (*models.SyncResult, error) {
	release, err := s.lockTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.syncStages(ctx, tenantID)
}

// SyncUsers is the locked single-entity entry point for user sync.
func (s *Syncer) SyncUsers(ctx context.Context, tenantID string) (*models.SyncResult, error) {
	release, err := s.lockTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.syncUsers(ctx, tenantID)
}

// SyncCandidates is the locked single-entity entry point for candidate
// sync of one module (leads or contacts).
func (s *Syncer) SyncCandidates(ctx context.Context, tenantID, module string, since *time.Time) (*models.SyncResult, error) {
	release, err := s.lockTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.syncCandidates(ctx, tenantID, module, since)
}

func (s *Syncer) syncCandidateModules(ctx context.Context, tenantID, module string, since *time.Time) (*models.SyncResult, error) {
	if module != ModuleBoth {
		return s.syncCandidates(ctx, tenantID, module, since)
	}

	combined := &models.SyncResult{}

	var errs error

	for _, m := range []string{ModuleLeads, ModuleContacts} {
		res, err := s.syncCandidates(ctx, tenantID, m, since)
		if err != nil {
			errs = multierr.Append(errs, err)

			continue
		}

		combined.Add(res)
	}

	return combined, errs
}

func normalizeCandidateModule(module string) string {
	switch module {
	case "", ModuleAll:
		return ModuleBoth
	default:
		return module
	}
}

func (s *Syncer) lockTenant(ctx context.Context, tenantID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	key := "sync:lock:" + tenantID + ":" + Provider

	ok, err := s.locker.Acquire(ctx, key, lockTTL)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrSyncInProgress
	}

	release := func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key); err != nil {
			s.log.Warn("failed to release sync lock",
				zap.String("tenant_id", tenantID), zap.Error(err))
		}
	}

	return release, nil
}

// withToken resolves the access token, runs call, and retries once through
// a refresh when the provider rejected the token as expired. A refresh that
// itself fails with an auth classification surfaces ErrAuthRequired.
func (s *Syncer) withToken(ctx context.Context, tenantID string, call func(token string) error) error {
	token, err := s.oauth.AccessToken(ctx, tenantID)
	if err != nil {
		return err
	}

	err = call(token)
	if err == nil || !IsAuthError(err) || errors.Is(err, ErrAuthRequired) {
		return err
	}

	token, rerr := s.oauth.Refresh(ctx, tenantID)
	if rerr != nil {
		return rerr
	}

	return call(token)
}

// markSyncError records a batch-level failure on the integration, unless
// the failure is the auth_required condition which the OAuth manager has
// already recorded (and which must not be downgraded to plain error).
func (s *Syncer) markSyncError(ctx context.Context, tenantID string, err error) {
	if errors.Is(err, ErrAuthRequired) || errors.Is(err, ErrNotConfigured) {
		return
	}

	if uerr := s.integrations.UpdateStatus(ctx, tenantID, Provider, models.IntegrationError, err.Error()); uerr != nil {
		s.log.Error("failed to record sync error status",
			zap.String("tenant_id", tenantID), zap.Error(uerr))
	}
}
