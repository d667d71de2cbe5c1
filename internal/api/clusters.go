package api

import (
	"net/http"
)

type generateClusterRequest struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

func (s *Server) handleListClusters(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := page(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	list, err := s.deps.Clusters.List(r.Context(), limit, offset)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleGenerateCluster(w http.ResponseWriter, r *http.Request) {
	var req generateClusterRequest
	if err := decode(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	cluster, err := s.deps.Clusters.Generate(r.Context(), req.Topic, req.Count)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, cluster)
}

func (s *Server) handleGetCluster(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	cluster, err := s.deps.Clusters.Get(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, cluster)
}

func (s *Server) handleDeleteCluster(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	if err := s.deps.Clusters.Delete(r.Context(), id); err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, deletedResponse{Deleted: true, ID: id})
}

// handlePromoteCluster turns the cluster's items into pending ideas
func (s *Server) handlePromoteCluster(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	list, err := s.deps.Clusters.PromoteToIdeas(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, list)
}
