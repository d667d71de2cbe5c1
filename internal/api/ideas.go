package api

import (
	"net/http"
	"strings"

	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/service"
	"github.com/content-agent/internal/storage"
)

type generateIdeasRequest struct {
	Count int `json:"count"`
}

type similarIdeasRequest struct {
	IdeaID uint `json:"ideaId"`
	Count  int  `json:"count"`
}

type manualIdeasRequest struct {
	Title  string   `json:"title"`
	Titles []string `json:"titles"`
}

type updateIdeaRequest struct {
	Status models.IdeaStatus `json:"status"`
}

func (s *Server) handleListIdeas(w http.ResponseWriter, r *http.Request) {
	filter := storage.DefaultIdeaFilter()

	limit, offset, err := page(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	filter.Limit, filter.Offset = limit, offset

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.IdeaStatus(raw)
		if !status.Valid() {
			writeErr(w, r, service.New(service.CodeInvalidStatus, http.StatusBadRequest, "unknown idea status %q", raw))
			return
		}
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("source"); raw != "" {
		source := models.IdeaSource(raw)
		switch source {
		case models.IdeaSourceAI, models.IdeaSourceManual, models.IdeaSourceSearchConsole:
		default:
			writeErr(w, r, service.InvalidParam("unknown idea source %q", raw))
			return
		}
		filter.Source = &source
	}

	list, err := s.deps.Ideas.List(r.Context(), filter)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleGenerateIdeas(w http.ResponseWriter, r *http.Request) {
	var req generateIdeasRequest
	if err := decode(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	list, err := s.deps.Ideas.Generate(r.Context(), req.Count)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, list)
}

func (s *Server) handleSimilarIdeas(w http.ResponseWriter, r *http.Request) {
	var req similarIdeasRequest
	if err := decode(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.IdeaID == 0 {
		writeErr(w, r, service.InvalidParam("ideaId is required"))
		return
	}

	list, err := s.deps.Ideas.GenerateSimilar(r.Context(), req.IdeaID, req.Count)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, list)
}

func (s *Server) handleManualIdeas(w http.ResponseWriter, r *http.Request) {
	var req manualIdeasRequest
	if err := decode(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	titles := req.Titles
	if strings.TrimSpace(req.Title) != "" {
		titles = append(titles, req.Title)
	}

	list, err := s.deps.Ideas.AddManual(r.Context(), titles)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, list)
}

func (s *Server) handleSearchConsoleIdeas(w http.ResponseWriter, r *http.Request) {
	var req generateIdeasRequest
	if err := decode(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	list, err := s.deps.Ideas.GenerateFromSearchConsole(r.Context(), req.Count)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, list)
}

func (s *Server) handleUpdateIdea(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	var req updateIdeaRequest
	if err := decode(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	idea, err := s.deps.Ideas.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, idea)
}

func (s *Server) handleDeleteIdea(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	if err := s.deps.Ideas.Delete(r.Context(), id); err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, deletedResponse{Deleted: true, ID: id})
}

type deletedResponse struct {
	Deleted bool `json:"deleted"`
	ID      uint `json:"id"`
}
