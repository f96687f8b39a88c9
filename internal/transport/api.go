package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"floodguard/internal/logging"
	"floodguard/internal/projects"
	"floodguard/internal/retrieval"
	"floodguard/internal/tools"
)

const maxBodyBytes = 1 << 20

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Filters *projects.Filters `json:"filters,omitempty"`
	Spatial *projects.Spatial `json:"spatial,omitempty"`
	Limit   int               `json:"limit,omitempty"`
	Sort    *SortSpec         `json:"sort,omitempty"`
}

// SortSpec orders search results.
type SortSpec struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// SearchResponse is the body returned by POST /api/search.
type SearchResponse struct {
	Projects []projects.Record `json:"projects"`
	Total    int               `json:"total"`
	Stats    projects.Stats    `json:"stats"`
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	q := projects.Query{Filters: req.Filters, Spatial: req.Spatial, Limit: req.Limit}
	if req.Sort != nil {
		q.SortField, q.SortOrder = req.Sort.Field, req.Sort.Order
	}

	s.deps.Metrics.Query("api")
	res, err := s.deps.Engine.Search(q)
	if err != nil {
		logging.TransportWarn("search failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Projects: res.Records, Total: len(res.Records), Stats: res.Stats})
}

// NewsResponse is the body returned by GET /api/news.
type NewsResponse struct {
	Articles []retrieval.Article `json:"articles"`
	Count    int                 `json:"count"`
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if s.deps.News == nil {
		writeJSON(w, http.StatusOK, NewsResponse{Articles: []retrieval.Article{}})
		return
	}
	q := r.URL.Query()
	articles := s.deps.News.Search(r.Context(), retrieval.Request{
		Query:      q.Get("query"),
		ProjectID:  q.Get("project_id"),
		Contractor: q.Get("contractor"),
		Location:   q.Get("location"),
		MaxResults: s.cfg.NewsResults,
	})
	if articles == nil {
		articles = []retrieval.Article{}
	}
	writeJSON(w, http.StatusOK, NewsResponse{Articles: articles, Count: len(articles)})
}

// ToolInfo describes one registered tool.
type ToolInfo struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Category    tools.ToolCategory `json:"category"`
	Schema      tools.ToolSchema   `json:"schema"`
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	out := []ToolInfo{}
	if s.deps.Tools != nil {
		for _, t := range s.deps.Tools.All() {
			out = append(out, ToolInfo{Name: t.Name, Description: t.Description, Category: t.Category, Schema: t.Schema})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": out})
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	if s.deps.Tools == nil {
		writeError(w, http.StatusNotFound, tools.ErrToolNotFound.Error())
		return
	}
	args := map[string]any{}
	if err := decodeBody(r, &args); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	res, err := s.deps.Tools.Execute(r.Context(), r.PathValue("name"), args)
	if err != nil {
		writeError(w, toolStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// toolStatus maps registry errors onto HTTP statuses.
func toolStatus(err error) int {
	switch {
	case errors.Is(err, tools.ErrToolNotFound):
		return http.StatusNotFound
	case errors.Is(err, tools.ErrMissingRequiredArg),
		errors.Is(err, tools.ErrInvalidArgType),
		errors.Is(err, tools.ErrInvalidArgValue):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	ProjectsLoaded int    `json:"projects_loaded"`
	VectorDBReady  bool   `json:"vector_db_ready"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "healthy"}
	if s.deps.Engine != nil {
		resp.ProjectsLoaded = s.deps.Engine.Len()
	}
	if s.deps.VectorReady != nil {
		resp.VectorDBReady = s.deps.VectorReady()
	}
	writeJSON(w, http.StatusOK, resp)
}
