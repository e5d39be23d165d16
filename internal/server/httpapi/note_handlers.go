package httpapi

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/services"
)

func ownerID(r *http.Request) string {
	return currentUser(r.Context()).ID
}

func (h *Handler) listNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.NoteFilter{Search: q.Get("search")}
	if !utf8.ValidString(filter.Search) {
		h.renderError(w, r, fmt.Errorf("%w: search must be valid UTF-8", common.ErrValidation))
		return
	}

	if raw := q.Get("is_favorite"); raw != "" {
		fav, err := strconv.ParseBool(raw)
		if err != nil {
			h.renderError(w, r, fmt.Errorf("%w: is_favorite must be true or false", common.ErrValidation))
			return
		}
		filter.IsFavorite = &fav
	}

	notes, err := h.notes.List(r.Context(), ownerID(r), filter)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, newNoteResponses(notes))
}

func (h *Handler) createNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	note, err := h.notes.Create(r.Context(), ownerID(r), &models.NoteInput{
		Title:      req.Title,
		Content:    req.Content,
		IsFavorite: req.IsFavorite,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newNoteResponse(note))
}

func (h *Handler) favoriteNotes(w http.ResponseWriter, r *http.Request) {
	notes, count, err := h.notes.ListFavorites(r.Context(), ownerID(r))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, favoritesResponse{Count: count, Results: newNoteResponses(notes)})
}

func (h *Handler) getNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.notes.Get(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, newNoteResponse(note))
}

func (h *Handler) updateNote(w http.ResponseWriter, r *http.Request) {
	var req updateNoteRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	note, err := h.notes.Update(r.Context(), ownerID(r), chi.URLParam(r, "id"), &models.NoteUpdate{
		Title:      req.Title,
		Content:    req.Content,
		IsFavorite: req.IsFavorite,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, newNoteResponse(note))
}

func (h *Handler) deleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.notes.Delete(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		h.renderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	note, msg, err := h.notes.ToggleFavorite(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, toggleFavoriteResponse{Message: msg, Note: newNoteResponse(note)})
}

func exportFormat(r *http.Request) string {
	if f := r.URL.Query().Get("format"); f != "" {
		return f
	}
	return services.FormatMarkdown
}

func (h *Handler) downloadNote(w http.ResponseWriter, r *http.Request) {
	doc, err := h.exports.Download(r.Context(), ownerID(r), chi.URLParam(r, "id"), exportFormat(r))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Body); err != nil {
		h.logger.Warn(r.Context(), "writing download body", "error", err)
	}
}

func (h *Handler) exportNote(w http.ResponseWriter, r *http.Request) {
	res, err := h.exports.Export(r.Context(), ownerID(r), chi.URLParam(r, "id"), exportFormat(r))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, newExportResponse(res))
}

func (h *Handler) listExports(w http.ResponseWriter, r *http.Request) {
	items, err := h.exports.ListExports(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	out := make([]exportResponse, 0, len(items))
	for _, it := range items {
		out = append(out, newExportResponse(it))
	}
	render.JSON(w, r, out)
}
