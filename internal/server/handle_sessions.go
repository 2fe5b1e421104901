package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/brainlab/internal/brainlab"
	"github.com/playperu/brainlab/internal/quiz"
	"github.com/playperu/brainlab/internal/session"
)

type DeltaRequest struct {
	Delta float64 `json:"delta"`
}

type ModeRequest struct {
	Mode brainlab.Mode `json:"mode"`
}

type SelectRequest struct {
	Name string `json:"name"`
}

func handleCreateSession(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := sessions.Create(r.Context())
		if err != nil {
			sessions.logger.Error("creating session", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, snap)
	}
}

func handleGetSession(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var snap session.Snapshot
		err := sessions.With(id, func(s *session.Session) error {
			snap = s.Snapshot()
			return nil
		})
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			sessions.logger.Error("reading session", "session", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleDeleteSession(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Delete(chi.URLParam(r, "id")); errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleCommand decodes a request body into a Command of the given type and
// applies it to the session.
func handleCommand(sessions *Sessions, typ string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd := Command{Type: typ}
		switch typ {
		case cmdTick, cmdStep:
			var req DeltaRequest
			if err := readJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			cmd.Delta = req.Delta
		case cmdMode:
			var req ModeRequest
			if err := readJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			cmd.Mode = req.Mode
		case cmdSelect:
			var req SelectRequest
			if err := readJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			cmd.Name = req.Name
		}

		var res CommandResult
		err := sessions.With(chi.URLParam(r, "id"), func(s *session.Session) error {
			var err error
			res, err = apply(s, cmd)
			return err
		})
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, quiz.ErrUnknownMode), errors.Is(err, errBadDelta):
			writeError(w, http.StatusBadRequest, err.Error())
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
		default:
			writeJSON(w, http.StatusOK, res)
		}
	}
}
