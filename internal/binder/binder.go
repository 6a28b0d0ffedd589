package binder

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kivlab.dev/portfolio-web/internal/content"
	"kivlab.dev/portfolio-web/internal/logging"
	mw "kivlab.dev/portfolio-web/internal/middleware"
	"kivlab.dev/portfolio-web/internal/render"
)

// Form fields posted by a section's filter form.
const (
	FieldFilter        = "filter"
	FieldCurrentFilter = "current_filter"
	FieldSort          = "sort"
)

// Interaction is the kind of control that fired.
type Interaction int

const (
	InteractionNone Interaction = iota
	InteractionFilter
	InteractionSort
)

func (i Interaction) String() string {
	switch i {
	case InteractionFilter:
		return "filter"
	case InteractionSort:
		return "sort"
	default:
		return "none"
	}
}

// Binder answers the delegated filter form of each section. Controls are
// re-rendered on every interaction, so it only relies on the stable form.
type Binder struct {
	store    *content.Store
	renderer *render.Renderer
	lang     string
	logger   *zap.Logger
}

// New wires a Binder. lang is used when the locale middleware did not run.
func New(store *content.Store, renderer *render.Renderer, lang string, logger *zap.Logger) *Binder {
	return &Binder{
		store:    store,
		renderer: renderer,
		lang:     lang,
		logger:   logging.OrNop(logger),
	}
}

// Routes mounts one interaction endpoint per section. The paths are static so
// they win over the /{section}/{id} detail routes. Each endpoint also answers
// under /{filter}/{sort}, the form a static export writes to disk.
func (b *Binder) Routes(r chi.Router) {
	for _, typ := range []content.ItemType{content.TypeDIY, content.TypeProject} {
		_, items := SectionPaths(typ)
		r.Get(items, b.Handler(typ))
		r.Get(items+"/{filter}/{sort}", b.StateHandler(typ))
		r.Get(items+"/{filter}/{sort}/", b.StateHandler(typ))
	}
}

// Classify decides which control fired. HX-Trigger-Name wins when it names a
// control; otherwise a submitted filter value means a toggle click and
// anything else is a sort change.
func Classify(q url.Values, info mw.HTMXInfo) Interaction {
	switch info.TriggerName {
	case FieldFilter:
		return InteractionFilter
	case FieldSort:
		return InteractionSort
	}
	if q.Has(FieldFilter) {
		return InteractionFilter
	}
	if q.Has(FieldSort) {
		return InteractionSort
	}
	return InteractionNone
}

// StateFromQuery rebuilds the section state carried by a request. A filter
// value beats the hidden current filter; missing values take defaults.
func StateFromQuery(q url.Values) content.FilterState {
	st := content.DefaultFilterState()
	filter := q.Get(FieldFilter)
	if filter == "" {
		filter = q.Get(FieldCurrentFilter)
	}
	st = st.WithFilter(filter)
	if s := q.Get(FieldSort); s != "" {
		st = st.WithSort(s)
	}
	return st
}

// OnFilter applies a filter-toggle click.
func OnFilter(st content.FilterState, id string) content.FilterState {
	return st.WithFilter(id)
}

// OnSort applies a sort-selector change.
func OnSort(st content.FilterState, key string) content.FilterState {
	return st.WithSort(key)
}

// Query encodes a state as page query parameters, omitting defaults.
func Query(st content.FilterState) url.Values {
	q := url.Values{}
	if st.Filter != content.FilterAll {
		q.Set(FieldFilter, st.Filter)
	}
	if st.Sort != content.SortDate {
		q.Set(FieldSort, string(st.Sort))
	}
	return q
}

// Handler serves the interaction endpoint of one section.
func (b *Binder) Handler(typ content.ItemType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.handle(w, r, typ)
	}
}

// StateHandler serves a section state addressed by path, as in
// /diy/items/woodworking/title.
func (b *Binder) StateHandler(typ content.ItemType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := url.PathUnescape(chi.URLParam(r, "filter"))
		if err != nil {
			mw.WriteError(w, r, http.StatusBadRequest, "invalid filter")
			return
		}
		st := content.DefaultFilterState().WithFilter(filter).WithSort(chi.URLParam(r, "sort"))
		b.serve(w, r, typ, InteractionNone, st)
	}
}

// StatePath is the path StateHandler answers for st.
func StatePath(typ content.ItemType, st content.FilterState) string {
	_, items := SectionPaths(typ)
	return items + "/" + url.PathEscape(st.Filter) + "/" + string(st.Sort)
}

func (b *Binder) handle(w http.ResponseWriter, r *http.Request, typ content.ItemType) {
	q := r.URL.Query()
	info := mw.HTMXInfoFromContext(r.Context())

	prev := content.DefaultFilterState().WithFilter(q.Get(FieldCurrentFilter))
	if s := q.Get(FieldSort); s != "" {
		prev = prev.WithSort(s)
	}
	kind := Classify(q, info)
	st := prev
	switch kind {
	case InteractionFilter:
		st = OnFilter(prev, q.Get(FieldFilter))
	case InteractionSort:
		st = OnSort(prev, q.Get(FieldSort))
	}
	b.serve(w, r, typ, kind, st)
}

func (b *Binder) serve(w http.ResponseWriter, r *http.Request, typ content.ItemType, kind Interaction, st content.FilterState) {
	info := mw.HTMXInfoFromContext(r.Context())
	if !info.Request {
		// No-JS fallback: the full page renders the same state.
		target, _ := SectionPaths(typ)
		if enc := Query(st).Encode(); enc != "" {
			target += "?" + enc
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	logging.FromContext(r.Context()).Debug("binder: interaction",
		zap.String("section", typ.Section()),
		zap.Stringer("kind", kind),
		zap.String("filter", st.Filter),
		zap.String("sort", string(st.Sort)),
	)

	var buf bytes.Buffer
	if err := b.Render(&buf, typ, st, mw.Lang(r, b.lang)); err != nil {
		b.logger.Error("binder: render failed", zap.String("section", typ.Section()), zap.Error(err))
		mw.WriteError(w, r, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// Render queries the store with st and writes the section's list as the main
// swap plus filter controls (and featured projects) as out-of-band swaps.
func (b *Binder) Render(buf io.Writer, typ content.ItemType, st content.FilterState, lang string) error {
	items := b.store.QueryState(typ, st)
	cats := b.store.Categories()
	list := render.ListOptions{Categories: cats, Lang: lang}
	oob := render.ListOptions{Categories: cats, Lang: lang, OOB: true}

	switch typ {
	case content.TypeProject:
		if err := b.renderer.RenderList(buf, render.TargetAllProjects, items, list); err != nil {
			return err
		}
		if err := b.renderer.RenderList(buf, render.TargetFeaturedProjects, Featured(items), oob); err != nil {
			return err
		}
	default:
		if err := b.renderer.RenderList(buf, render.TargetDIYList, items, list); err != nil {
			return err
		}
	}
	return b.renderer.RenderFilterControls(buf, render.FiltersTarget(typ), cats.List(typ), st, render.FilterOptions{
		Type: typ,
		Lang: lang,
		OOB:  true,
	})
}

// Featured keeps the featured items of a query result, in order.
func Featured(items []content.Item) []content.Item {
	out := make([]content.Item, 0, len(items))
	for _, it := range items {
		if it.Featured {
			out = append(out, it)
		}
	}
	return out
}

// SectionPaths returns the page path and the interaction endpoint of a type.
func SectionPaths(typ content.ItemType) (page, items string) {
	page = "/" + strings.TrimPrefix(typ.Section(), "/")
	return page, page + "/items"
}
