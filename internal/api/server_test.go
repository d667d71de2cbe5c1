package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/content-agent/internal/activity"
	"github.com/content-agent/internal/agent/clusters"
	"github.com/content-agent/internal/agent/drafter"
	"github.com/content-agent/internal/agent/ideas"
	"github.com/content-agent/internal/agent/publisher"
	"github.com/content-agent/internal/agent/styleguide"
	"github.com/content-agent/internal/ai"
	"github.com/content-agent/internal/auth"
	"github.com/content-agent/internal/automation"
	"github.com/content-agent/internal/config"
	"github.com/content-agent/internal/license"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/settings"
	"github.com/content-agent/internal/storage/sqlite"
	"github.com/content-agent/pkg/logger"
)

const adminToken = "admin-token"

type fakeCompleter struct{ reply string }

func (f *fakeCompleter) Complete(context.Context, string, string) (string, error) {
	return f.reply, nil
}

type testServer struct {
	handler http.Handler
	repo    *sqlite.Repository
	llm     *fakeCompleter
	nonce   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, repo.Migrate())
	t.Cleanup(func() { _ = repo.Close() })

	log := logger.Nop()
	act := activity.New(repo, log)
	llm := &fakeCompleter{}
	gen := ai.NewGenerator(llm, log)

	lic := license.NewService(config.LicenseConfig{}, repo, act, log)
	store := settings.NewStore(repo, act, lic, false, log)
	styles := styleguide.NewAgent(repo, gen, nil, act, log)
	ideaAgent := ideas.NewAgent(repo, gen, nil, styles, store, nil, act, ideas.Options{}, log)
	drafts := drafter.NewAgent(repo, gen, nil, store, styles, nil, act, log)
	pub := publisher.NewAgent(repo, nil, store, nil, act, log)

	nonces := auth.NewNonces(adminToken, strings.Repeat("s", 32), time.Hour)
	srv := NewServer(Deps{
		Nonces:     nonces,
		Settings:   store,
		Styles:     styles,
		Ideas:      ideaAgent,
		Drafts:     drafts,
		Publisher:  pub,
		Clusters:   clusters.NewAgent(repo, gen, act, log),
		Activity:   act,
		License:    lic,
		Dispatcher: automation.NewDispatcher(repo, store, pub, ideaAgent, drafts, styles, act, log),
	}, log)

	nonce, _, err := nonces.Issue()
	require.NoError(t, err)

	return &testServer{handler: srv.Router(), repo: repo, llm: llm, nonce: nonce}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, Namespace+path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(NonceHeader, s.nonce)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	body := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, code, body.Code)
	assert.Equal(t, status, body.Data.Status)
	assert.NotEmpty(t, body.Message)
}

func TestHealthIsOpen(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", Namespace + "/health"} {
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestSession(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid token", header: "Bearer " + adminToken, status: http.StatusOK},
		{name: "wrong token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + adminToken, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, Namespace+"/session", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.handler.ServeHTTP(rec, req)

			if tt.status != http.StatusOK {
				assertError(t, rec, tt.status, "rest_forbidden")
				return
			}
			assert.Equal(t, http.StatusOK, rec.Code)
			session := decodeBody[SessionResponse](t, rec)
			assert.NotEmpty(t, session.Nonce)
			assert.True(t, session.ExpiresAt.After(time.Now()))
		})
	}
}

func TestRequireNonce(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		nonce string
	}{
		{name: "missing", nonce: ""},
		{name: "garbage", nonce: "not-a-nonce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, Namespace+"/ideas", nil)
			if tt.nonce != "" {
				req.Header.Set(NonceHeader, tt.nonce)
			}
			rec := httptest.NewRecorder()
			s.handler.ServeHTTP(rec, req)
			assertError(t, rec, http.StatusUnauthorized, "rest_forbidden")
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	assertError(t, s.do(t, http.MethodGet, "/nope", ""), http.StatusNotFound, "rest_no_route")
}

func TestIdeasEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.llm.reply = `{"ideas":[{"title":"Go Generics in Practice","keywords":["go"]},{"title":"Testing with testify"}]}`

	rec := s.do(t, http.MethodPost, "/ideas", `{"count":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	generated := decodeBody[[]models.Idea](t, rec)
	require.Len(t, generated, 2)

	rec = s.do(t, http.MethodPost, "/ideas/manual", `{"title":"A Manual Idea"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/ideas?source=manual", "")
	require.Equal(t, http.StatusOK, rec.Code)
	manual := decodeBody[[]models.Idea](t, rec)
	require.Len(t, manual, 1)
	assert.Equal(t, "A Manual Idea", manual[0].Title)

	id := generated[0].ID
	rec = s.do(t, http.MethodPut, "/ideas/"+itoa(id), `{"status":"approved"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.IdeaStatusApproved, decodeBody[models.Idea](t, rec).Status)

	assertError(t, s.do(t, http.MethodPut, "/ideas/"+itoa(id), `{"status":"pending"}`),
		http.StatusConflict, "invalid_transition")
	assertError(t, s.do(t, http.MethodPut, "/ideas/"+itoa(id), `{"status":"bogus"}`),
		http.StatusBadRequest, "invalid_status")
	assertError(t, s.do(t, http.MethodGet, "/ideas?status=bogus", ""), http.StatusBadRequest, "invalid_status")
	assertError(t, s.do(t, http.MethodGet, "/ideas?limit=-1", ""), http.StatusBadRequest, "invalid_param")
	assertError(t, s.do(t, http.MethodPut, "/ideas/abc", `{"status":"approved"}`), http.StatusBadRequest, "invalid_param")

	rec = s.do(t, http.MethodDelete, "/ideas/"+itoa(id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, deletedResponse{Deleted: true, ID: id}, decodeBody[deletedResponse](t, rec))

	assertError(t, s.do(t, http.MethodDelete, "/ideas/"+itoa(id), ""), http.StatusNotFound, "not_found")
}

func TestPostsEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/posts", `{"title":"Hello World","content":"Some **bold** text"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	draft := decodeBody[models.Draft](t, rec)
	assert.Equal(t, "hello-world", draft.Slug)
	path := "/posts/" + itoa(draft.ID)

	rec = s.do(t, http.MethodPut, path, `{"metaTitle":"Hello"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Hello", decodeBody[models.Draft](t, rec).MetaTitle)

	assertError(t, s.do(t, http.MethodPost, path+"/schedule", `{"scheduledFor":"tomorrow"}`),
		http.StatusBadRequest, "invalid_date")
	past := time.Now().Add(-time.Hour).Format(time.RFC3339)
	assertError(t, s.do(t, http.MethodPost, path+"/schedule", `{"scheduledFor":"`+past+`"}`),
		http.StatusBadRequest, "invalid_date")

	future := time.Now().Add(time.Hour).Format(time.RFC3339)
	rec = s.do(t, http.MethodPost, path+"/schedule", `{"scheduledFor":"`+future+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotNil(t, decodeBody[models.Draft](t, rec).ScheduledFor)

	rec = s.do(t, http.MethodPost, path+"/publish", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	published := decodeBody[models.Draft](t, rec)
	assert.Equal(t, models.DraftStatusPublished, published.Status)
	assert.Nil(t, published.ScheduledFor)

	assertError(t, s.do(t, http.MethodPost, path+"/publish", ""), http.StatusConflict, "already_published")

	rec = s.do(t, http.MethodGet, "/posts?status=published", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]models.Draft](t, rec), 1)

	assertError(t, s.do(t, http.MethodGet, "/posts?status=trash", ""), http.StatusBadRequest, "invalid_status")
	assertError(t, s.do(t, http.MethodPost, "/posts", `{"title":"  "}`), http.StatusBadRequest, "invalid_title")
	assertError(t, s.do(t, http.MethodGet, "/posts/999", ""), http.StatusNotFound, "not_found")
	assertError(t, s.do(t, http.MethodPost, "/create-draft", `{}`), http.StatusBadRequest, "invalid_param")
	assertError(t, s.do(t, http.MethodPost, "/posts", `{"title":`), http.StatusBadRequest, "invalid_param")
}

func TestSettingsPartialSave(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/settings", `{"autoPublish":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[models.AppSettings](t, rec)
	assert.True(t, got.AutoPublish)
	assert.Equal(t, models.DefaultSettings().SemiAutoIdeaFrequency, got.SemiAutoIdeaFrequency)

	assertError(t, s.do(t, http.MethodPost, "/settings", `{"mode":"sometimes"}`),
		http.StatusBadRequest, "invalid_setting")
}

func TestStyleGuideSave(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/style-guide", `{"tone":"friendly"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/style-guide", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "friendly", decodeBody[models.StyleGuide](t, rec).Tone)

	assertError(t, s.do(t, http.MethodPost, "/analyze-style", ""), http.StatusBadRequest, "no_content")
}

func TestAutomationRunManualMode(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/automation/run", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeBody[automation.RunResult](t, rec)
	assert.Equal(t, models.ModeManual, result.Mode)
	assert.Zero(t, result.IdeasGenerated)
}

func TestSearchConsoleNotConfigured(t *testing.T) {
	s := newTestServer(t)

	assertError(t, s.do(t, http.MethodGet, "/gsc/connect", ""), http.StatusBadRequest, "invalid_setting")

	rec := s.do(t, http.MethodGet, "/gsc/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[gscStatusResponse](t, rec).Connected)

	// the callback is reachable without a nonce
	req := httptest.NewRequest(http.MethodGet, Namespace+"/gsc/callback?state=x&code=y", nil)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assertError(t, rec, http.StatusBadRequest, "invalid_setting")
}

func TestLicenseStatusDefaultsInactive(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/license", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.LicenseInactive, decodeBody[models.LicenseStatus](t, rec).Status)

	assertError(t, s.do(t, http.MethodPost, "/license/verify", `{"licenseKey":""}`),
		http.StatusBadRequest, "invalid_license")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
