package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/kurobon/gitgraph/internal/navigation"
	"github.com/kurobon/gitgraph/internal/refresh"
)

type NavigateRequest struct {
	Key string `json:"key"`
}

type NavigateResponse struct {
	Commands []navigation.Command `json:"commands"`
	State    refresh.State        `json:"state"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Printf("Navigate received: key=%q", req.Key)

	cmds, err := s.Session.Navigate(req.Key)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if cmds == nil {
		cmds = []navigation.Command{}
	}

	writeJSON(w, NavigateResponse{Commands: cmds, State: s.Session.State()})
}
