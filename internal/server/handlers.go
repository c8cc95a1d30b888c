package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vitals/internal/engine"
	"vitals/internal/graph"
	"vitals/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	nodes := len(s.engine.Topology().Nodes)
	last := s.engine.LastUpdate()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"version":     s.version,
		"uptime":      time.Since(s.started).Seconds(),
		"nodes":       nodes,
		"last_update": last,
	})
}

func (s *Server) handlePressures(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p := s.engine.Pressures()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"pressures": p})
}

func (s *Server) handleGates(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	all, err := s.engine.Gates()
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"gates": all})
}

func (s *Server) handleGate(w http.ResponseWriter, r *http.Request) {
	node := chi.URLParam(r, "node")

	s.mu.Lock()
	g, err := s.engine.Gate(node)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	hist := s.engine.History()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"history": hist})
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snaps, err := s.engine.ListSnapshots()
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snaps})
}

type applyRequest struct {
	Node     string  `json:"node"`
	Motion   string  `json:"motion"`
	Delta    float64 `json:"delta"`
	Friction float64 `json:"friction"`
	Source   string  `json:"source"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	s.mu.Lock()
	res, err := s.engine.Apply(req.Node, graph.Motion(req.Motion), req.Delta, req.Friction, req.Source)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePropagate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dt float64 `json:"dt"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	s.mu.Lock()
	applied, err := s.engine.Propagate(req.Dt)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"applied": applied})
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ElapsedHours float64 `json:"elapsed_hours"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	s.mu.Lock()
	decayed, err := s.engine.Tick(time.Duration(req.ElapsedHours * float64(time.Hour)))
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"decayed": decayed})
}

func (s *Server) handleOutcome(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Node      string `json:"node"`
		Predicted bool   `json:"predicted"`
		Actual    bool   `json:"actual"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	s.mu.Lock()
	err := s.engine.RecordOutcome(req.Node, req.Predicted, req.Actual)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"recorded": true})
}

func (s *Server) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Node string `json:"node"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	// Empty node calibrates everything.
	if req.Node == "" {
		s.mu.Lock()
		all, err := s.engine.CalibrateAll()
		s.mu.Unlock()
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"adjustments": all})
		return
	}

	s.mu.Lock()
	adj, err := s.engine.Calibrate(req.Node)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adj)
}

func (s *Server) handleTakeSnapshot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	s.mu.Lock()
	info, err := s.engine.Snapshot(req.Name)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, info)
}

// decodeBody strictly decodes a JSON request body.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

// writeError maps engine and store errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrNotFound), errors.Is(err, store.ErrSnapshotNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrUnknownMotion):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrSnapshotExists):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrNoStore):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
