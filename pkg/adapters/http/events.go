package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

func startStream(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "streaming not supported"})
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	return flusher, true
}

func (s *Server) ticker() (<-chan time.Time, func()) {
	if s.heartbeat <= 0 {
		return nil, func() {}
	}
	t := time.NewTicker(s.heartbeat)
	return t.C, t.Stop
}

// subscribeSession streams the diffs applied to one session.
// The stream ends when the client disconnects or the session is deleted.
func (s *Server) subscribeSession(w http.ResponseWriter, r *http.Request) {
	var sessionID string
	if !s.pathParam(w, r, "sessionId", &sessionID) {
		return
	}
	if _, err := s.engine.Get(r.Context(), sessionID); err != nil {
		s.fail(w, r, err)
		return
	}

	diffs, cancel := s.engine.Subscribe(sessionID)
	defer cancel()

	flusher, ok := startStream(w)
	if !ok {
		return
	}
	s.logger.Info("SSE: Subscribed to session", "session_id", sessionID)

	beat, stop := s.ticker()
	defer stop()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected", "session_id", sessionID)
			return
		case <-beat:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case diff, ok := <-diffs:
			if !ok {
				fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			payload, err := json.Marshal(diff)
			if err != nil {
				s.logger.Error("SSE: Failed to encode diff", "err", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// watchScenarios streams the ids of changed scenario documents (hot reload).
func (s *Server) watchScenarios(w http.ResponseWriter, r *http.Request) {
	events, err := s.engine.Watch(r.Context())
	if err != nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: err.Error()})
		return
	}
	flusher, ok := startStream(w)
	if !ok {
		return
	}

	beat, stop := s.ticker()
	defer stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-beat:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case id, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", id)
			flusher.Flush()
		}
	}
}
