package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/sakif/snippets-guru/internal/apperror"
	"github.com/sakif/snippets-guru/internal/guru"
	"github.com/sakif/snippets-guru/internal/repository"
)

const maxNameLength = 255

// SnippetHandler serves /api/snippets.
type SnippetHandler struct {
	store  repository.RemoteRepository
	users  Authenticator
	logger *slog.Logger
}

func NewSnippetHandler(store repository.RemoteRepository, users Authenticator, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{store: store, users: users, logger: logger}
}

func validateSnippetInput(in guru.SnippetInput) error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Namespace, validation.Required, validation.Length(1, maxNameLength)),
		validation.Field(&in.Name, validation.Required, validation.Length(1, maxNameLength)),
	)
	if err != nil {
		return apperror.ValidationFailed("", err.Error())
	}
	return nil
}

func parseFilter(r *http.Request) (repository.SnippetFilter, error) {
	q := r.URL.Query()
	f := repository.SnippetFilter{
		Namespace:   q.Get("namespace"),
		Name:        q.Get("name"),
		Description: q.Get("description"),
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return f, apperror.ValidationFailed("page", "page must be a positive integer")
		}
		f.Page = page
	}

	if raw := q.Get("isPublic"); raw != "" {
		public, err := strconv.ParseBool(raw)
		if err != nil {
			return f, apperror.ValidationFailed("isPublic", "isPublic must be true or false")
		}
		f.IsPublic = &public
	}

	return f, nil
}

// HandleList returns a Hydra collection of the snippets the caller can see.
//
// HTTP: GET /api/snippets?page=&namespace=&name=&description=&isPublic=
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	who, err := viewer(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	f, err := parseFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, total, err := h.store.ListSnippets(r.Context(), who, f)
	if err != nil {
		h.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, guru.Collection[guru.Snippet]{
		IRI:        guru.SnippetsPath,
		Members:    page,
		TotalItems: total,
	})
}

// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	who, err := viewer(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.store.GetSnippet(r.Context(), who, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleCreate stores a snippet and its embedded blobs.
//
// HTTP: POST /api/snippets
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	who, err := viewer(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	var in guru.SnippetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	if err := validateSnippetInput(in); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.store.CreateSnippet(r.Context(), who, in)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("remote snippet created",
		slog.String("uuid", snippet.UUID),
		slog.String("owner", who.Username),
	)

	writeJSON(w, http.StatusCreated, snippet)
}

// HandleUpdate replaces a snippet. Embedded blobs with an @id replace that
// blob's content; blobs without one are added.
//
// HTTP: PUT /api/snippets/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	who, err := viewer(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	var in guru.SnippetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	if err := validateSnippetInput(in); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.store.UpdateSnippet(r.Context(), who, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HTTP: DELETE /api/snippets/{id}
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	who, err := viewer(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.store.DeleteSnippet(r.Context(), who, id); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("remote snippet deleted", slog.String("uuid", id))
	w.WriteHeader(http.StatusNoContent)
}

// HandleBlobs returns the blobs of a snippet as a Hydra collection.
//
// HTTP: GET /api/snippets/{id}/blobs
func (h *SnippetHandler) HandleBlobs(w http.ResponseWriter, r *http.Request) {
	who, err := viewer(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	blobs, err := h.store.SnippetBlobs(r.Context(), who, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, guru.Collection[guru.Blob]{
		IRI:        guru.SnippetIRI(id) + "/blobs",
		Members:    blobs,
		TotalItems: len(blobs),
	})
}
