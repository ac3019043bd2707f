package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/kurobon/gitgraph/internal/layout"
	"github.com/kurobon/gitgraph/internal/refresh"
	"github.com/kurobon/gitgraph/internal/render"
)

type Server struct {
	Session   *refresh.Session
	TextStyle *render.Style
	Mux       *http.ServeMux
}

func NewServer(session *refresh.Session) *Server {
	s := &Server{
		Session: session,
		Mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Mux.HandleFunc("/ping", s.handlePing)
	s.Mux.HandleFunc("/api/graph", s.handleGetGraph)
	s.Mux.HandleFunc("/api/graph/reload", s.handleReload)
	s.Mux.HandleFunc("/api/graph/more", s.handleLoadMore)
	s.Mux.HandleFunc("/api/graph/text", s.handleGetText)
	s.Mux.HandleFunc("/api/navigate", s.handleNavigate)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Server: failed to encode response: %v", err)
	}
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"message": "pong",
		"system":  "gitgraph",
	})
}

// GraphResponse is the node-link view of the loaded history.
type GraphResponse struct {
	render.Scene
	State refresh.State `json:"state"`
}

func (s *Server) graphResponse(res layout.Result) GraphResponse {
	var resp GraphResponse
	render.Draw(&resp.Scene, res)
	resp.State = s.Session.State()
	return resp
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.graphResponse(s.Session.Layout()))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	res, err := s.Session.Reload(r.Context())
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, s.graphResponse(res))
}

func (s *Server) handleLoadMore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	res, err := s.Session.LoadMore(r.Context())
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, s.graphResponse(res))
}

func writeFetchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, refresh.ErrStale):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, refresh.ErrFetch):
		log.Printf("Server: %v", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type TextResponse struct {
	Rows  []render.Row  `json:"rows"`
	State refresh.State `json:"state"`
}

func (s *Server) handleGetText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	opts := render.Options{Style: s.TextStyle}
	if v := r.URL.Query().Get("width"); v != "" {
		width, err := strconv.Atoi(v)
		if err != nil || width <= 0 {
			http.Error(w, "width must be a positive integer", http.StatusBadRequest)
			return
		}
		opts.Width = width
	}

	if r.URL.Query().Get("format") == "plain" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, line := range s.Session.Text(opts) {
			if _, err := w.Write([]byte(line + "\n")); err != nil {
				log.Printf("Server: failed to write text response: %v", err)
				return
			}
		}
		return
	}

	resp := TextResponse{Rows: []render.Row{}, State: s.Session.State()}
	for row := range render.Rows(s.Session.Layout(), opts) {
		resp.Rows = append(resp.Rows, row)
	}
	writeJSON(w, resp)
}
