package api

import (
	"net/http"
)

// Settings and style guide saves decode over the stored values, so a
// client may send only the fields it changes.

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Settings.Load(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Settings.Load(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := decode(w, r, &settings); err != nil {
		writeErr(w, r, err)
		return
	}

	saved, err := s.deps.Settings.Save(r.Context(), settings)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, saved)
}

func (s *Server) handleGetStyleGuide(w http.ResponseWriter, r *http.Request) {
	guide, err := s.deps.Styles.Get(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, guide)
}

func (s *Server) handleSaveStyleGuide(w http.ResponseWriter, r *http.Request) {
	guide, err := s.deps.Styles.Get(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	updated := *guide
	if err := decode(w, r, &updated); err != nil {
		writeErr(w, r, err)
		return
	}

	saved, err := s.deps.Styles.Save(r.Context(), updated)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, saved)
}

func (s *Server) handleAnalyzeStyle(w http.ResponseWriter, r *http.Request) {
	guide, err := s.deps.Styles.Analyze(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, guide)
}
