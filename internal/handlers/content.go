package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kivlab.dev/portfolio-web/internal/content"
	"kivlab.dev/portfolio-web/internal/logging"
	mw "kivlab.dev/portfolio-web/internal/middleware"
	"kivlab.dev/portfolio-web/internal/render"
)

const maxDraftBody = 64 << 10

// UpdatesFragment renders the updates grid alone.
func (h *Handlers) UpdatesFragment(w http.ResponseWriter, r *http.Request) {
	h.writeUpdates(w, r)
}

// Reload refetches items and updates, then answers with the refreshed
// updates grid so the retry control can swap it in place.
func (h *Handlers) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.lib.Load(r.Context()); err != nil {
		logging.FromContext(r.Context()).Warn("handlers: reload interrupted", zap.Error(err))
		mw.WriteError(w, r, http.StatusServiceUnavailable, "reload interrupted")
		return
	}
	h.writeUpdates(w, r)
}

func (h *Handlers) writeUpdates(w http.ResponseWriter, r *http.Request) {
	if h.lib.Updates == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	lang := mw.Lang(r, h.bundle.Fallback())
	var buf bytes.Buffer
	err := h.renderer.RenderUpdates(&buf, render.TargetUpdates, h.lib.Updates.Latest(h.latest), h.lib.Updates.Status(), render.UpdatesOptions{Lang: lang})
	if err != nil {
		logging.FromContext(r.Context()).Error("handlers: render updates", zap.Error(err))
		mw.WriteError(w, r, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// CreateItem handles POST /api/items.
func (h *Handlers) CreateItem(w http.ResponseWriter, r *http.Request) {
	d, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}
	h.writeMutation(w, r, h.lib.Store.Add(r.Context(), d))
}

// EditItem handles PATCH /api/items/{id}.
func (h *Handlers) EditItem(w http.ResponseWriter, r *http.Request) {
	d, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}
	h.writeMutation(w, r, h.lib.Store.Edit(r.Context(), chi.URLParam(r, "id"), d))
}

// DeleteItem handles DELETE /api/items/{id}.
func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	h.writeMutation(w, r, h.lib.Store.Delete(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handlers) decodeDraft(w http.ResponseWriter, r *http.Request) (content.Draft, bool) {
	var d content.Draft
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDraftBody))
	if err := dec.Decode(&d); err != nil {
		mw.WriteError(w, r, http.StatusBadRequest, "invalid item payload")
		return d, false
	}
	return d, true
}

func (h *Handlers) writeMutation(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, content.ErrNotFound):
		mw.WriteError(w, r, http.StatusNotFound, "item not found")
	case errors.Is(err, content.ErrReadOnly):
		w.Header().Set("Allow", http.MethodGet)
		mw.WriteError(w, r, http.StatusMethodNotAllowed, content.ErrReadOnly.Error())
	case err != nil:
		mw.WriteError(w, r, http.StatusInternalServerError, "request failed")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
