// Package api exposes the content agent over a WordPress-style REST
// namespace (/aca/v1).
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"

	"github.com/content-agent/internal/activity"
	"github.com/content-agent/internal/agent/clusters"
	"github.com/content-agent/internal/agent/drafter"
	"github.com/content-agent/internal/agent/ideas"
	"github.com/content-agent/internal/agent/publisher"
	"github.com/content-agent/internal/agent/styleguide"
	"github.com/content-agent/internal/auth"
	"github.com/content-agent/internal/automation"
	"github.com/content-agent/internal/license"
	"github.com/content-agent/internal/searchconsole"
	"github.com/content-agent/internal/settings"
	"github.com/content-agent/pkg/logger"
)

// Namespace is the REST route prefix
const Namespace = "/aca/v1"

// NonceHeader carries the session nonce on every authenticated request
const NonceHeader = "X-ACA-Nonce"

// Deps holds the services the handlers call
type Deps struct {
	Nonces     *auth.Nonces
	Settings   *settings.Store
	Styles     *styleguide.Agent
	Ideas      *ideas.Agent
	Drafts     *drafter.Agent
	Publisher  *publisher.Agent
	Clusters   *clusters.Agent
	Activity   *activity.Log
	License    *license.Service
	Dispatcher *automation.Dispatcher
	GSC        *searchconsole.OAuthManager // nil when no OAuth client is configured
}

// Server is the REST API
type Server struct {
	deps Deps
	log  *logger.Logger
}

// NewServer creates the API server
func NewServer(deps Deps, log *logger.Logger) *Server {
	return &Server{
		deps: deps,
		log:  log.WithComponent("api"),
	}
}

// Router builds the HTTP handler
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(hlog.NewHandler(s.log.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", chimw.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request")
	}))
	r.Use(chimw.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route(Namespace, func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/session", s.handleSession)
		r.Get("/gsc/callback", s.handleGSCCallback)

		r.Group(func(r chi.Router) {
			r.Use(s.requireNonce)

			r.Get("/settings", s.handleGetSettings)
			r.Post("/settings", s.handleSaveSettings)

			r.Get("/style-guide", s.handleGetStyleGuide)
			r.Post("/style-guide", s.handleSaveStyleGuide)
			r.Post("/analyze-style", s.handleAnalyzeStyle)

			r.Get("/ideas", s.handleListIdeas)
			r.Post("/ideas", s.handleGenerateIdeas)
			r.Post("/ideas/similar", s.handleSimilarIdeas)
			r.Post("/ideas/manual", s.handleManualIdeas)
			r.Post("/ideas/search-console", s.handleSearchConsoleIdeas)
			r.Put("/ideas/{id}", s.handleUpdateIdea)
			r.Delete("/ideas/{id}", s.handleDeleteIdea)

			r.Get("/posts", s.handleListPosts)
			r.Post("/posts", s.handleCreatePost)
			r.Get("/posts/{id}", s.handleGetPost)
			r.Put("/posts/{id}", s.handleUpdatePost)
			r.Delete("/posts/{id}", s.handleDeletePost)
			r.Post("/posts/{id}/publish", s.handlePublishPost)
			r.Post("/posts/{id}/schedule", s.handleSchedulePost)
			r.Post("/create-draft", s.handleCreateDraft)

			r.Get("/activity-logs", s.handleActivity)

			r.Get("/clusters", s.handleListClusters)
			r.Post("/clusters", s.handleGenerateCluster)
			r.Get("/clusters/{id}", s.handleGetCluster)
			r.Delete("/clusters/{id}", s.handleDeleteCluster)
			r.Post("/clusters/{id}/ideas", s.handlePromoteCluster)

			r.Get("/license", s.handleLicenseStatus)
			r.Post("/license/verify", s.handleVerifyLicense)

			r.Post("/automation/run", s.handleAutomationRun)

			r.Get("/gsc/connect", s.handleGSCConnect)
			r.Get("/gsc/status", s.handleGSCStatus)
			r.Post("/gsc/disconnect", s.handleGSCDisconnect)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "rest_no_route", "No route was found matching the URL and request method.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "rest_no_route", "No route was found matching the URL and request method.")
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
