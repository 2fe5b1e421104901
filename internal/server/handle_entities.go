package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/brainlab/internal/catalog"
)

// CatalogStore is the entity storage behind the catalog endpoints.
type CatalogStore interface {
	EntitySource
	Get(ctx context.Context, name string) (catalog.Doc, error)
	Put(ctx context.Context, d catalog.Doc) error
	Delete(ctx context.Context, name string) error
	Count(ctx context.Context) (int, error)
}

func handleListEntities(store CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := store.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, docs)
	}
}

func handleGetEntity(store CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := store.Get(r.Context(), chi.URLParam(r, "name"))
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "entity not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

// handlePutEntity creates or replaces an entity. Existing sessions keep the
// catalog they were created with.
func handlePutEntity(store CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		var doc catalog.Doc
		if err := readJSON(r, &doc); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		doc.Name = strings.TrimSpace(doc.Name)
		if doc.Name == "" {
			doc.Name = name
		}
		if doc.Name != name {
			writeError(w, http.StatusBadRequest, "name in body does not match URL")
			return
		}
		if err := doc.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		status := http.StatusOK
		if _, err := store.Get(r.Context(), name); errors.Is(err, catalog.ErrNotFound) {
			status = http.StatusCreated
		}
		if err := store.Put(r.Context(), doc); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, status, doc)
	}
}

func handleDeleteEntity(store CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.Delete(r.Context(), chi.URLParam(r, "name"))
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "entity not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
