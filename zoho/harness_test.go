package zoho

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lineuphq/lineup/models"
)

// testEnv wires a Syncer against in-memory repositories and a fake Zoho
// server.
type testEnv struct {
	t   *testing.T
	mux *http.ServeMux

	requests atomic.Int64

	client *Client
	oauth  *OAuth
	syncer *Syncer

	integrations *fakeIntegrationRepo
	mappings     *fakeMappingRepo
	candidates   *fakeCandidateRepo
	stages       *fakeStageRepo
	users        *fakeUserRepo
	members      *fakeMemberRepo
	locker       *fakeLocker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		t:            t,
		mux:          http.NewServeMux(),
		integrations: newFakeIntegrationRepo(),
		mappings:     newFakeMappingRepo(),
		candidates:   newFakeCandidateRepo(),
		stages:       newFakeStageRepo(),
		users:        newFakeUserRepo(),
		members:      newFakeMemberRepo(),
		locker:       newFakeLocker(),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.requests.Add(1)
		env.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	logger := zap.NewNop()

	env.client = NewClient("client-id", "client-secret", logger,
		WithAccountsURL(server.URL),
		WithAPIBaseURL(server.URL),
		WithHTTPClient(server.Client()),
	)
	env.oauth = NewOAuth(env.client, env.integrations, logger)

	env.syncer = NewSyncer(SyncerDeps{
		Client:       env.client,
		OAuth:        env.oauth,
		Mapper:       NewMapper(env.mappings),
		Integrations: env.integrations,
		Candidates:   env.candidates,
		Stages:       env.stages,
		Users:        env.users,
		Members:      env.members,
		Locker:       env.locker,
		Logger:       logger,
	})

	return env
}

func (e *testEnv) seedIntegration(tenantID string, status models.IntegrationStatus) {
	e.integrations.seed(&models.Integration{
		ID:       "int-" + tenantID,
		TenantID: tenantID,
		Provider: Provider,
		Tokens: models.TokenBundle{
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
		},
		Status: status,
	})
}

func (e *testEnv) handleRecords(module string, records []Record) {
	e.mux.HandleFunc("GET /crm/v2/"+module, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"data": records,
			"info": map[string]any{"more_records": false},
		})
	})
}

func (e *testEnv) handleQuery(records []Record, capture *string) {
	e.mux.HandleFunc("POST /crm/v2/coql", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			SelectQuery string `json:"select_query"`
		}

		_ = json.NewDecoder(r.Body).Decode(&body)

		if capture != nil {
			*capture = body.SelectQuery
		}

		writeJSON(w, map[string]any{
			"data": records,
			"info": map[string]any{"more_records": false},
		})
	})
}

func (e *testEnv) handlePicklist(values []string) {
	picks := make([]map[string]any, 0, len(values))
	for _, v := range values {
		picks = append(picks, map[string]any{"display_value": v})
	}

	e.mux.HandleFunc("GET /crm/v2/settings/fields", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"fields": []map[string]any{
				{"api_name": "Company", "pick_list_values": []map[string]any{}},
				{"api_name": "Lead_Status", "pick_list_values": picks},
			},
		})
	})
}

func (e *testEnv) handleUsers(users []map[string]any) {
	e.mux.HandleFunc("GET /crm/v2/users", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"users": users,
			"info":  map[string]any{"more_records": false},
		})
	})
}

func (e *testEnv) handleToken(status int, body map[string]any) {
	e.mux.HandleFunc("POST /oauth/v2/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
