package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/brainlab/internal/session"
)

// wsMessage is what the stream pushes: either a raw session event, a command
// result or an error.
type wsMessage struct {
	Type   string          `json:"type"`
	Event  json.RawMessage `json:"event,omitempty"`
	Result *CommandResult  `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// handleStream drives a session from a WebSocket: every text frame is a
// Command, and every session notification is pushed back.
func handleStream(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		logger := sessions.logger.With("session", id)

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

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Hour)
		defer cancel()

		if err := wsjson.Write(ctx, conn, wsMessage{Type: "snapshot", Result: &CommandResult{Snapshot: snap}}); err != nil {
			return
		}

		go func() {
			defer cancel()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-ch:
					if !ok {
						conn.Close(websocket.StatusNormalClosure, "session closed")
						return
					}
					if err := wsjson.Write(ctx, conn, wsMessage{Type: msg.Type, Event: msg.Data}); err != nil {
						logger.Debug("websocket write failed", "error", err)
						return
					}
				}
			}
		}()

		for {
			var cmd Command
			if err := wsjson.Read(ctx, conn, &cmd); err != nil {
				logger.Debug("websocket read ended", "error", err)
				return
			}

			var res CommandResult
			err := sessions.With(id, func(s *session.Session) error {
				var err error
				res, err = apply(s, cmd)
				return err
			})
			reply := wsMessage{Type: "result", Result: &res}
			if err != nil {
				reply = wsMessage{Type: "error", Error: err.Error()}
			}
			if err := wsjson.Write(ctx, conn, reply); err != nil {
				logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}
