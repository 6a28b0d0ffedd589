package handlers

import (
	"kivlab.dev/portfolio-web/internal/content"
	"kivlab.dev/portfolio-web/internal/nav"
	"kivlab.dev/portfolio-web/internal/render"
	"kivlab.dev/portfolio-web/internal/seo"
)

// PageData is the view model handed to the shared layout.
type PageData struct {
	Title    string
	Lang     string
	Langs    []string
	SEO      seo.Meta
	Site     Site
	CSRF     string
	Degraded bool

	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb

	// Per-page payloads; at most one is set.
	Home    *HomeView
	Section *SectionView
	Item    *ItemView
	Error   *ErrorView
}

// Site is the identity shown in the header, footer and structured data.
type Site struct {
	Name    string
	Author  string
	Email   string
	GitHub  string
	BaseURL string
}

// HomeView carries the landing page's updates grid.
type HomeView struct {
	Updates *render.UpdatesView
}

// SectionView is a filterable list page (DIY or projects). Featured is only
// set for projects. StaticItems rewrites each form request to
// ItemsPath/{filter}/{sort}/ for static hosting.
type SectionView struct {
	FormID      string
	PagePath    string
	ItemsPath   string
	StaticItems bool
	Filters     render.FilterControlsView
	List        render.ListView
	Featured    *render.ListView
}

// ItemView is the detail page of one item.
type ItemView struct {
	Card     render.Card
	Note     *content.Note
	BackHref string
}

// ErrorView renders a status page.
type ErrorView struct {
	Status     int
	MessageKey string
}
