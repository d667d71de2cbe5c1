package api

import (
	"errors"
	"net/http"

	"github.com/content-agent/internal/activity"
	"github.com/content-agent/internal/searchconsole"
	"github.com/content-agent/internal/service"
)

type verifyLicenseRequest struct {
	LicenseKey string `json:"licenseKey"`
}

type gscConnectResponse struct {
	AuthURL string `json:"authUrl"`
}

type gscStatusResponse struct {
	Connected bool `json:"connected"`
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", activity.DefaultLimit)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	entries, err := s.deps.Activity.List(r.Context(), limit)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, entries)
}

func (s *Server) handleLicenseStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.deps.License.Status(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

func (s *Server) handleVerifyLicense(w http.ResponseWriter, r *http.Request) {
	var req verifyLicenseRequest
	if err := decode(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	status, err := s.deps.License.Verify(r.Context(), req.LicenseKey)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

func (s *Server) handleAutomationRun(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Dispatcher.Run(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleGSCConnect(w http.ResponseWriter, r *http.Request) {
	if s.deps.GSC == nil {
		writeErr(w, r, gscNotConfigured())
		return
	}

	url, _, err := s.deps.GSC.AuthURL()
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, gscConnectResponse{AuthURL: url})
}

func (s *Server) handleGSCStatus(w http.ResponseWriter, r *http.Request) {
	connected := s.deps.GSC != nil && s.deps.GSC.IsConnected(r.Context())
	WriteJSON(w, http.StatusOK, gscStatusResponse{Connected: connected})
}

func (s *Server) handleGSCDisconnect(w http.ResponseWriter, r *http.Request) {
	if s.deps.GSC == nil {
		writeErr(w, r, gscNotConfigured())
		return
	}
	if err := s.deps.GSC.Disconnect(r.Context()); err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, gscStatusResponse{Connected: false})
}

// handleGSCCallback completes the OAuth flow. Google redirects the browser
// here, so the request carries the state instead of a nonce.
func (s *Server) handleGSCCallback(w http.ResponseWriter, r *http.Request) {
	if s.deps.GSC == nil {
		writeErr(w, r, gscNotConfigured())
		return
	}

	q := r.URL.Query()
	if err := s.deps.GSC.CheckState(q.Get("state")); err != nil {
		if errors.Is(err, searchconsole.ErrInvalidState) {
			WriteError(w, http.StatusForbidden, service.CodeForbidden, "Invalid or expired OAuth state.")
			return
		}
		writeErr(w, r, err)
		return
	}
	if denied := q.Get("error"); denied != "" {
		writeErr(w, r, service.New(service.CodeGSCNotConnected, http.StatusBadRequest, "authorization denied: %s", denied))
		return
	}
	code := q.Get("code")
	if code == "" {
		writeErr(w, r, service.InvalidParam("code is required"))
		return
	}

	if _, err := s.deps.GSC.Exchange(r.Context(), code); err != nil {
		writeErr(w, r, service.Wrap(err, service.CodeUpstream, http.StatusBadGateway, "failed to connect Search Console"))
		return
	}
	WriteJSON(w, http.StatusOK, gscStatusResponse{Connected: true})
}

func gscNotConfigured() error {
	return service.New(service.CodeInvalidSetting, http.StatusBadRequest, "Search Console OAuth client is not configured")
}
