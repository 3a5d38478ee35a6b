package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video_importer/internal/domain"
)

type fakeSyncer struct {
	summary *domain.RunSummary
	err     error
	calls   []domain.Trigger
	ctx     context.Context
}

func (f *fakeSyncer) Sync(ctx context.Context, trigger domain.Trigger) (*domain.RunSummary, error) {
	f.ctx = ctx
	f.calls = append(f.calls, trigger)
	return f.summary, f.err
}

type fakeSettings struct {
	values map[string]string
	err    error
}

func (f *fakeSettings) Get(_ context.Context, key string) (string, error) {
	return f.values[key], f.err
}

func (f *fakeSettings) Set(_ context.Context, key, value string) error {
	if f.err != nil {
		return f.err
	}
	f.values[key] = value
	return nil
}

// settingsCredentials reads credentials straight from the fake store.
type settingsCredentials struct {
	store *fakeSettings
}

func (s settingsCredentials) Credentials(ctx context.Context) (domain.Credentials, error) {
	key, err := s.store.Get(ctx, domain.SettingAPIKey)
	if err != nil {
		return domain.Credentials{}, err
	}
	channel, _ := s.store.Get(ctx, domain.SettingChannelID)
	return domain.Credentials{APIKey: key, ChannelID: channel}, nil
}

type fakeRuns struct {
	runs      []domain.RunSummary
	err       error
	lastLimit int
}

func (f *fakeRuns) Recent(_ context.Context, limit int) ([]domain.RunSummary, error) {
	f.lastLimit = limit
	return f.runs, f.err
}

type testEnv struct {
	router   *gin.Engine
	syncer   *fakeSyncer
	settings *fakeSettings
	runs     *fakeRuns
}

func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		syncer:   &fakeSyncer{},
		settings: &fakeSettings{values: map[string]string{}},
		runs:     &fakeRuns{},
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	env.router = NewRouter(Deps{
		Syncer:      env.syncer,
		Settings:    env.settings,
		Credentials: settingsCredentials{store: env.settings},
		Runs:        env.runs,
	}, logger)
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestTriggerSync_Completed(t *testing.T) {
	env := newTestEnv()
	env.syncer.summary = &domain.RunSummary{
		ID:       "run-1",
		Trigger:  domain.TriggerManual,
		Status:   domain.RunCompleted,
		Listed:   1,
		Imported: 1,
		Items: []domain.ItemResult{
			{VideoID: "abc123", Outcome: domain.OutcomeImported, ArticleID: 7, FeaturedImage: true},
		},
	}

	w := env.do(http.MethodPost, "/v1/sync", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []domain.Trigger{domain.TriggerManual}, env.syncer.calls)

	var summary domain.RunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "run-1", summary.ID)
	assert.Equal(t, 1, summary.Imported)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, "abc123", summary.Items[0].VideoID)
}

func TestTriggerSync_ClientDisconnectDoesNotCancelRun(t *testing.T) {
	env := newTestEnv()
	env.syncer.summary = &domain.RunSummary{Status: domain.RunEmpty}

	reqCtx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/v1/sync", nil).WithContext(reqCtx)
	cancel()

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.syncer.ctx)
	assert.Error(t, reqCtx.Err())
	assert.NoError(t, env.syncer.ctx.Err())
	_, hasDeadline := env.syncer.ctx.Deadline()
	assert.False(t, hasDeadline)
}

func TestTriggerSync_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		run    *domain.RunSummary
		status int
	}{
		{"in progress", domain.ErrRunInProgress, nil, http.StatusConflict},
		{"missing config", domain.ErrConfigurationMissing, &domain.RunSummary{Status: domain.RunAborted}, http.StatusUnprocessableEntity},
		{"listing failed", errors.Join(domain.ErrListing, errors.New("timeout")), &domain.RunSummary{Status: domain.RunAborted}, http.StatusBadGateway},
		{"other", errors.New("acquire run lock: redis down"), nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.syncer.err = tt.err
			env.syncer.summary = tt.run

			w := env.do(http.MethodPost, "/v1/sync", "")
			assert.Equal(t, tt.status, w.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
			if tt.run != nil {
				assert.Contains(t, resp, "run")
			} else {
				assert.NotContains(t, resp, "run")
			}
		})
	}
}

func TestListRuns(t *testing.T) {
	env := newTestEnv()
	env.runs.runs = []domain.RunSummary{{ID: "b"}, {ID: "a"}}

	w := env.do(http.MethodGet, "/v1/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultRunsLimit, env.runs.lastLimit)

	var resp struct {
		Runs []domain.RunSummary `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Runs, 2)
	assert.Equal(t, "b", resp.Runs[0].ID)

	w = env.do(http.MethodGet, "/v1/runs?limit=500", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, maxRunsLimit, env.runs.lastLimit)

	w = env.do(http.MethodGet, "/v1/runs?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.runs.err = errors.New("db down")
	w = env.do(http.MethodGet, "/v1/runs", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListRuns_Empty(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodGet, "/v1/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"runs":[]}`, w.Body.String())
}

func TestSettings_GetMasksKey(t *testing.T) {
	env := newTestEnv()
	env.settings.values[domain.SettingAPIKey] = "AIzaSySecretKey1234"
	env.settings.values[domain.SettingChannelID] = "UC123"

	w := env.do(http.MethodGet, "/v1/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"api_key":"****1234","channel_id":"UC123","configured":true}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "Secret")
}

func TestSettings_Update(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodPut, "/v1/settings", `{"api_key":"  new-key-9876 ","channel_id":"UCnew"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new-key-9876", env.settings.values[domain.SettingAPIKey])
	assert.Equal(t, "UCnew", env.settings.values[domain.SettingChannelID])
	assert.True(t, strings.Contains(w.Body.String(), `"api_key":"****9876"`))

	w = env.do(http.MethodPut, "/v1/settings", `{"channel_id":"UCother"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new-key-9876", env.settings.values[domain.SettingAPIKey])
	assert.Equal(t, "UCother", env.settings.values[domain.SettingChannelID])
}

func TestSettings_UpdateInvalid(t *testing.T) {
	env := newTestEnv()

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, "/v1/settings", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, "/v1/settings", `{}`).Code)

	env.settings.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, env.do(http.MethodPut, "/v1/settings", `{"api_key":"k"}`).Code)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "****", maskSecret("abcd"))
	assert.Equal(t, "****bcde", maskSecret("abcde"))
}
