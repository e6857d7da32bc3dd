package zoho

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lineuphq/lineup/models"
)

type fakeIntegrationRepo struct {
	mu           sync.Mutex
	integrations map[string]*models.Integration
}

func newFakeIntegrationRepo() *fakeIntegrationRepo {
	return &fakeIntegrationRepo{integrations: make(map[string]*models.Integration)}
}

func (f *fakeIntegrationRepo) key(tenantID, provider string) string {
	return tenantID + "|" + provider
}

func (f *fakeIntegrationRepo) seed(i *models.Integration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *i
	f.integrations[f.key(i.TenantID, i.Provider)] = &cp
}

func (f *fakeIntegrationRepo) Get(_ context.Context, tenantID, provider string) (*models.Integration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.integrations[f.key(tenantID, provider)]
	if !ok {
		return nil, models.ErrNotFound
	}

	cp := *i

	return &cp, nil
}

func (f *fakeIntegrationRepo) Upsert(_ context.Context, integration *models.Integration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if integration.ID == "" {
		integration.ID = uuid.NewString()
	}

	cp := *integration
	if prior, ok := f.integrations[f.key(integration.TenantID, integration.Provider)]; ok {
		cp.LastSyncedAt = prior.LastSyncedAt
	}

	f.integrations[f.key(integration.TenantID, integration.Provider)] = &cp

	return nil
}

func (f *fakeIntegrationRepo) UpdateStatus(_ context.Context, tenantID, provider string, status models.IntegrationStatus, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.integrations[f.key(tenantID, provider)]
	if !ok {
		return models.ErrNotFound
	}

	i.Status = status
	i.LastError = lastError

	return nil
}

func (f *fakeIntegrationRepo) TouchLastSynced(_ context.Context, tenantID, provider string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.integrations[f.key(tenantID, provider)]
	if !ok {
		return models.ErrNotFound
	}

	i.LastSyncedAt = &at

	return nil
}

type fakeMappingRepo struct {
	mu       sync.Mutex
	mappings map[string]map[string]string
}

func newFakeMappingRepo() *fakeMappingRepo {
	return &fakeMappingRepo{mappings: make(map[string]map[string]string)}
}

func (f *fakeMappingRepo) Get(_ context.Context, tenantID, provider, module string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.mappings[tenantID+"|"+provider+"|"+module], nil
}

func (f *fakeMappingRepo) Save(_ context.Context, tenantID, provider, module string, mapping map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mappings[tenantID+"|"+provider+"|"+module] = mapping

	return nil
}

type fakeCandidateRepo struct {
	mu         sync.Mutex
	candidates []*models.Candidate

	// failCreateExternalIDs injects per-record create failures.
	failCreateExternalIDs map[string]bool
}

func newFakeCandidateRepo() *fakeCandidateRepo {
	return &fakeCandidateRepo{failCreateExternalIDs: make(map[string]bool)}
}

func (f *fakeCandidateRepo) seed(c *models.Candidate) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	cp := *c
	f.candidates = append(f.candidates, &cp)
}

func (f *fakeCandidateRepo) all() []*models.Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*models.Candidate, 0, len(f.candidates))
	for _, c := range f.candidates {
		cp := *c
		out = append(out, &cp)
	}

	return out
}

func (f *fakeCandidateRepo) byExternalID(externalID string) *models.Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.candidates {
		if c.ExternalID == externalID {
			cp := *c

			return &cp
		}
	}

	return nil
}

func (f *fakeCandidateRepo) GetByExternalID(_ context.Context, tenantID, externalID, externalSource string) (*models.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.candidates {
		if c.TenantID == tenantID && c.ExternalID == externalID && c.ExternalSource == externalSource {
			cp := *c

			return &cp, nil
		}
	}

	return nil, models.ErrNotFound
}

func (f *fakeCandidateRepo) GetByEmail(_ context.Context, tenantID, email string) (*models.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.candidates {
		if c.TenantID == tenantID && strings.EqualFold(c.Email, email) && c.Email != "" {
			cp := *c

			return &cp, nil
		}
	}

	return nil, models.ErrNotFound
}

func (f *fakeCandidateRepo) Create(_ context.Context, candidate *models.Candidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failCreateExternalIDs[candidate.ExternalID] {
		return fmt.Errorf("simulated create failure for %s", candidate.ExternalID)
	}

	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}

	cp := *candidate
	f.candidates = append(f.candidates, &cp)

	return nil
}

func (f *fakeCandidateRepo) Update(_ context.Context, candidate *models.Candidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, c := range f.candidates {
		if c.ID == candidate.ID {
			cp := *candidate
			f.candidates[i] = &cp

			return nil
		}
	}

	return models.ErrNotFound
}

type fakeStageRepo struct {
	mu     sync.Mutex
	stages []*models.HiringStage
}

func newFakeStageRepo() *fakeStageRepo {
	return &fakeStageRepo{}
}

func (f *fakeStageRepo) seed(s *models.HiringStage) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	cp := *s
	f.stages = append(f.stages, &cp)
}

func (f *fakeStageRepo) all() []*models.HiringStage {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*models.HiringStage, 0, len(f.stages))
	for _, s := range f.stages {
		cp := *s
		out = append(out, &cp)
	}

	return out
}

func (f *fakeStageRepo) GetByName(_ context.Context, tenantID, name string) (*models.HiringStage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.stages {
		if s.TenantID == tenantID && s.Name == name {
			cp := *s

			return &cp, nil
		}
	}

	return nil, models.ErrNotFound
}

func (f *fakeStageRepo) Create(_ context.Context, stage *models.HiringStage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if stage.ID == "" {
		stage.ID = uuid.NewString()
	}

	cp := *stage
	f.stages = append(f.stages, &cp)

	return nil
}

func (f *fakeStageRepo) UpdatePosition(_ context.Context, id string, position int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.stages {
		if s.ID == id {
			s.Position = position

			return nil
		}
	}

	return models.ErrNotFound
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users []*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{}
}

func (f *fakeUserRepo) seed(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	cp := *u
	f.users = append(f.users, &cp)
}

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.users)
}

func (f *fakeUserRepo) allUsers() []*models.User {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*models.User, 0, len(f.users))
	for _, u := range f.users {
		cp := *u
		out = append(out, &cp)
	}

	return out
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u

			return &cp, nil
		}
	}

	return nil, models.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	cp := *user
	f.users = append(f.users, &cp)

	return nil
}

type fakeMemberRepo struct {
	mu      sync.Mutex
	members []*models.TenantMember
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{}
}

func (f *fakeMemberRepo) all() []*models.TenantMember {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*models.TenantMember, 0, len(f.members))
	for _, m := range f.members {
		cp := *m
		out = append(out, &cp)
	}

	return out
}

func (f *fakeMemberRepo) Create(_ context.Context, member *models.TenantMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if member.ID == "" {
		member.ID = uuid.NewString()
	}

	cp := *member
	f.members = append(f.members, &cp)

	return nil
}

type fakeLocker struct {
	mu      sync.Mutex
	held    map[string]bool
	reject  bool
	acquire int
	release int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (f *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.reject || f.held[key] {
		return false, nil
	}

	f.held[key] = true
	f.acquire++

	return true, nil
}

func (f *fakeLocker) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.held, key)
	f.release++

	return nil
}
