package api

import (
	"net/http"
	"time"

	"github.com/content-agent/internal/agent/drafter"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/service"
	"github.com/content-agent/internal/storage"
)

type createDraftRequest struct {
	IdeaID uint `json:"ideaId"`
}

type scheduleRequest struct {
	ScheduledFor string `json:"scheduledFor"`
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	filter := storage.DefaultDraftFilter()

	limit, offset, err := page(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	filter.Limit, filter.Offset = limit, offset

	switch raw := r.URL.Query().Get("status"); raw {
	case "", "any":
	case string(models.DraftStatusDraft), string(models.DraftStatusPublished):
		status := models.DraftStatus(raw)
		filter.Status = &status
		if status == models.DraftStatusPublished {
			filter.OrderBy = "published_at"
		}
	default:
		writeErr(w, r, service.New(service.CodeInvalidStatus, http.StatusBadRequest, "unknown post status %q", raw))
		return
	}

	list, err := s.deps.Drafts.List(r.Context(), filter)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var in drafter.DraftInput
	if err := decode(w, r, &in); err != nil {
		writeErr(w, r, err)
		return
	}

	draft, err := s.deps.Drafts.CreateManual(r.Context(), in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, draft)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	draft, err := s.deps.Drafts.Get(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, draft)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	var patch drafter.DraftPatch
	if err := decode(w, r, &patch); err != nil {
		writeErr(w, r, err)
		return
	}

	draft, err := s.deps.Drafts.Update(r.Context(), id, patch)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, draft)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	if err := s.deps.Drafts.Delete(r.Context(), id); err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, deletedResponse{Deleted: true, ID: id})
}

func (s *Server) handlePublishPost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	draft, err := s.deps.Publisher.Publish(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, draft)
}

func (s *Server) handleSchedulePost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	var req scheduleRequest
	if err := decode(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	at, err := time.Parse(time.RFC3339, req.ScheduledFor)
	if err != nil {
		writeErr(w, r, service.New(service.CodeInvalidDate, http.StatusBadRequest,
			"scheduledFor must be an RFC 3339 timestamp"))
		return
	}

	draft, err := s.deps.Publisher.Schedule(r.Context(), id, at)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, draft)
}

func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var req createDraftRequest
	if err := decode(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.IdeaID == 0 {
		writeErr(w, r, service.InvalidParam("ideaId is required"))
		return
	}

	draft, err := s.deps.Drafts.CreateFromIdea(r.Context(), req.IdeaID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, draft)
}
