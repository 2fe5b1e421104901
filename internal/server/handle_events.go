package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/brainlab/internal/session"
)

func handleEvents(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		// Subscribe before the lookup so a concurrent delete always closes
		// this stream.
		ch := sessions.broker.Subscribe(id)
		defer sessions.broker.Unsubscribe(id, ch)

		var snap session.Snapshot
		err := sessions.With(id, func(s *session.Session) error {
			snap = s.Snapshot()
			return nil
		})
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		data, _ := json.Marshal(snap)
		fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case msg, ok := <-ch:
				if !ok {
					fmt.Fprintf(w, "event: closed\ndata: {}\n\n")
					flusher.Flush()
					return
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, msg.Data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
