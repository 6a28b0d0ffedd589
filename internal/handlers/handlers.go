package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kivlab.dev/portfolio-web/internal/binder"
	"kivlab.dev/portfolio-web/internal/content"
	"kivlab.dev/portfolio-web/internal/i18n"
	"kivlab.dev/portfolio-web/internal/logging"
	mw "kivlab.dev/portfolio-web/internal/middleware"
	"kivlab.dev/portfolio-web/internal/nav"
	"kivlab.dev/portfolio-web/internal/render"
	"kivlab.dev/portfolio-web/internal/seo"
)

// Dependencies wires the page handlers. Notes is optional. StaticExport points
// the section filter forms at pre-rendered /{section}/items/{filter}/{sort}/
// files instead of the query endpoint.
type Dependencies struct {
	Library       *content.Library
	Notes         *content.Notes
	Renderer      *render.Renderer
	Bundle        *i18n.Bundle
	Site          Site
	LatestUpdates int
	StaticExport  bool
	Logger        *zap.Logger
}

// Handlers serves the site's pages and content endpoints.
type Handlers struct {
	lib      *content.Library
	notes    *content.Notes
	renderer *render.Renderer
	bundle   *i18n.Bundle
	site     Site
	latest   int
	static   bool
	logger   *zap.Logger
}

// New validates deps and builds Handlers.
func New(deps Dependencies) (*Handlers, error) {
	if deps.Library == nil || deps.Library.Store == nil {
		return nil, errors.New("handlers: library with a store is required")
	}
	if deps.Renderer == nil {
		return nil, errors.New("handlers: renderer is required")
	}
	if deps.Bundle == nil {
		return nil, errors.New("handlers: i18n bundle is required")
	}
	latest := deps.LatestUpdates
	if latest <= 0 {
		latest = content.DefaultLatestUpdates
	}
	return &Handlers{
		lib:      deps.Library,
		notes:    deps.Notes,
		renderer: deps.Renderer,
		bundle:   deps.Bundle,
		site:     deps.Site,
		latest:   latest,
		static:   deps.StaticExport,
		logger:   logging.OrNop(deps.Logger),
	}, nil
}

// Routes mounts pages, fragments and the item API.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/diy", h.SectionPage(content.TypeDIY))
	r.Get("/projects", h.SectionPage(content.TypeProject))
	r.Get("/diy/{id}", h.ItemPage(content.TypeDIY))
	r.Get("/projects/{id}", h.ItemPage(content.TypeProject))
	r.Get("/about", h.About)

	r.Get("/updates", h.UpdatesFragment)
	r.Post("/content/reload", h.Reload)

	r.Route("/api/items", func(r chi.Router) {
		r.Post("/", h.CreateItem)
		r.Patch("/{id}", h.EditItem)
		r.Delete("/{id}", h.DeleteItem)
	})

	r.NotFound(h.NotFound)
}

func (h *Handlers) basePage(r *http.Request, titleKey string) PageData {
	lang := mw.Lang(r, h.bundle.Fallback())
	path := r.URL.Path
	title := h.site.Name
	if titleKey != "" {
		title = h.bundle.T(lang, titleKey) + " | " + h.site.Name
	}
	return PageData{
		Title:    title,
		Lang:     lang,
		Langs:    h.bundle.Supported(),
		SEO:      h.meta(path, title, lang),
		Site:     h.site,
		CSRF:     mw.CSRFToken(r.Context()),
		Degraded: h.lib.Store.Status().Degraded(),
		Path:     path,
		Nav:      nav.Build(path),
	}
}

func (h *Handlers) meta(path, title, lang string) seo.Meta {
	m := seo.Meta{
		Title:       title,
		Description: h.bundle.T(lang, "site.tagline"),
		OG: seo.OpenGraph{
			Type:        "website",
			Title:       title,
			Description: h.bundle.T(lang, "site.tagline"),
			SiteName:    h.site.Name,
		},
	}
	if base := strings.TrimRight(h.site.BaseURL, "/"); base != "" {
		m.Canonical = base + path
		m.OG.URL = m.Canonical
		for _, l := range h.bundle.Supported() {
			m.Alternates = append(m.Alternates, seo.Alternate{Href: base + path + "?hl=" + l, Hreflang: l})
		}
	}
	return m
}

func (h *Handlers) absURL(path string) string {
	return strings.TrimRight(h.site.BaseURL, "/") + path
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, name string, data PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	var buf bytes.Buffer
	if err := h.renderer.Page(&buf, name, data); err != nil {
		logging.FromContext(r.Context()).Error("handlers: render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Home renders the landing page with the latest updates.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	data := h.basePage(r, "")
	data.SEO.JSONLD = append(data.SEO.JSONLD,
		seo.Script(seo.WebSite(h.site.Name, h.absURL("/"), data.Lang)),
		seo.Script(seo.Person(h.site.Author, h.absURL("/about"), h.site.Email, h.site.GitHub)),
	)
	data.Home = &HomeView{Updates: h.updatesView(data.Lang, false)}
	h.render(w, r, http.StatusOK, "home", data)
}

func (h *Handlers) updatesView(lang string, oob bool) *render.UpdatesView {
	if h.lib.Updates == nil {
		return nil
	}
	v := render.NewUpdatesView(render.TargetUpdates, h.lib.Updates.Latest(h.latest), h.lib.Updates.Status(), render.UpdatesOptions{
		Lang: lang,
		OOB:  oob,
	})
	return &v
}

// SectionPage renders the filterable list page of a type. The filter state
// comes from the query so the no-JS form submission lands on the same view.
func (h *Handlers) SectionPage(typ content.ItemType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		titleKey := typ.Section() + ".title"
		data := h.basePage(r, titleKey)
		data.Breadcrumbs = nav.Breadcrumbs(r.URL.Path, "")
		data.SEO.JSONLD = append(data.SEO.JSONLD, seo.Script(seo.BreadcrumbList([]seo.BreadcrumbItem{
			{Name: h.bundle.T(data.Lang, "nav.home"), Item: h.absURL("/")},
			{Name: h.bundle.T(data.Lang, titleKey), Item: h.absURL(r.URL.Path)},
		})))

		st := binder.StateFromQuery(r.URL.Query())
		store := h.lib.Store
		items := store.QueryState(typ, st)
		cats := store.Categories()
		page, itemsPath := binder.SectionPaths(typ)
		opts := render.ListOptions{Categories: cats, Lang: data.Lang}

		listTarget := render.TargetDIYList
		if typ == content.TypeProject {
			listTarget = render.TargetAllProjects
		}
		section := &SectionView{
			FormID:      typ.Section() + "-filter-form",
			PagePath:    page,
			ItemsPath:   itemsPath,
			StaticItems: h.static,
			Filters: render.NewFilterControlsView(render.FiltersTarget(typ), cats.List(typ), st, render.FilterOptions{
				Type: typ,
				Lang: data.Lang,
			}),
			List: render.NewListView(listTarget, items, opts),
		}
		if typ == content.TypeProject {
			featured := render.NewListView(render.TargetFeaturedProjects, binder.Featured(items), opts)
			section.Featured = &featured
		}
		data.Section = section
		h.render(w, r, http.StatusOK, typ.Section(), data)
	}
}

// ItemPage renders one item with its optional markdown note.
func (h *Handlers) ItemPage(typ content.ItemType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		it, err := h.lib.Store.Item(id)
		if err != nil || it.Type != typ {
			h.NotFound(w, r)
			return
		}
		data := h.basePage(r, "")
		data.Title = it.Title + " | " + h.site.Name
		data.SEO.Title = data.Title
		data.SEO.Description = it.Description
		data.SEO.OG.Type = "article"
		data.SEO.OG.Title = it.Title
		data.SEO.OG.Description = it.Description
		data.Breadcrumbs = nav.Breadcrumbs(r.URL.Path, it.Title)

		card := render.NewCard(it, h.lib.Store.Categories())
		card.Lang = data.Lang
		page, _ := binder.SectionPaths(typ)
		view := &ItemView{Card: card, BackHref: page}

		if h.notes != nil {
			note, err := h.notes.Get(r.Context(), typ, it.ID, data.Lang)
			switch {
			case err == nil:
				view.Note = &note
			case !errors.Is(err, content.ErrNotFound):
				logging.FromContext(r.Context()).Warn("handlers: note unavailable",
					zap.String("id", it.ID),
					zap.Error(err),
				)
			}
		}
		data.Item = view

		data.SEO.JSONLD = append(data.SEO.JSONLD,
			seo.Script(seo.CreativeWork(it.Title, it.Description, h.absURL(card.Href), h.site.Author, it.Links.GitHub, it.Date, it.TechStack)),
			seo.Script(seo.BreadcrumbList([]seo.BreadcrumbItem{
				{Name: h.bundle.T(data.Lang, "nav.home"), Item: h.absURL("/")},
				{Name: h.bundle.T(data.Lang, typ.Section()+".title"), Item: h.absURL(page)},
				{Name: it.Title, Item: h.absURL(card.Href)},
			})),
		)
		h.render(w, r, http.StatusOK, "item", data)
	}
}

// About renders the static about page.
func (h *Handlers) About(w http.ResponseWriter, r *http.Request) {
	data := h.basePage(r, "about.title")
	data.Breadcrumbs = nav.Breadcrumbs(r.URL.Path, "")
	h.render(w, r, http.StatusOK, "about", data)
}

// NotFound renders the error page with 404. htmx and API callers get JSON.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if mw.IsHTMX(r.Context()) || strings.HasPrefix(r.URL.Path, "/api/") {
		mw.WriteError(w, r, http.StatusNotFound, "not found")
		return
	}
	data := h.basePage(r, "error.not_found")
	data.Error = &ErrorView{Status: http.StatusNotFound, MessageKey: "error.not_found"}
	h.render(w, r, http.StatusNotFound, "error", data)
}
