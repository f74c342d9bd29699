package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snippets-guru/internal/guru"
	"github.com/sakif/snippets-guru/internal/repository"
)

// BlobHandler serves /api/blobs and /api/revisions.
type BlobHandler struct {
	store  repository.RemoteRepository
	users  Authenticator
	logger *slog.Logger
}

func NewBlobHandler(store repository.RemoteRepository, users Authenticator, logger *slog.Logger) *BlobHandler {
	return &BlobHandler{store: store, users: users, logger: logger}
}

// HTTP: GET /api/blobs/{id}
func (h *BlobHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	who, err := viewer(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	blob, err := h.store.GetBlob(r.Context(), who, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, blob)
}

// HandleCreate adds a blob to the snippet named by its "snippet" IRI.
//
// HTTP: POST /api/blobs
func (h *BlobHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	who, err := viewer(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	var in guru.BlobInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	blob, err := h.store.CreateBlob(r.Context(), who, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, blob)
}

// HTTP: PUT /api/blobs/{id}
func (h *BlobHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	who, err := viewer(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	var in guru.BlobInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	blob, err := h.store.UpdateBlob(r.Context(), who, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, blob)
}

// HTTP: DELETE /api/blobs/{id}
func (h *BlobHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	who, err := viewer(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.store.DeleteBlob(r.Context(), who, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HTTP: GET /api/revisions/{id}
func (h *BlobHandler) HandleRevision(w http.ResponseWriter, r *http.Request) {
	who, err := viewer(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	rev, err := h.store.GetRevision(r.Context(), who, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rev)
}
