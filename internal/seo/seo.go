package seo

import "html/template"

// OpenGraph holds og:* values.
type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	SiteName    string
}

// Alternate is one hreflang link.
type Alternate struct {
	Href     string
	Hreflang string
}

// Meta is the head metadata of a page.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	OG          OpenGraph
	Alternates  []Alternate
	JSONLD      []template.JS
}
