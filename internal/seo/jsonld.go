package seo

import (
	"encoding/json"
	"html/template"
	"time"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Script marshals v for an application/ld+json script block. encoding/json
// escapes <, > and & so the payload cannot close the script element.
func Script(v any) template.JS {
	return template.JS(JSON(v))
}

// Person returns a minimal Person schema for the site owner.
func Person(name, url, email string, sameAs ...string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Person",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if email != "" {
		m["email"] = "mailto:" + email
	}
	links := make([]string, 0, len(sameAs))
	for _, s := range sameAs {
		if s != "" {
			links = append(links, s)
		}
	}
	if len(links) > 0 {
		m["sameAs"] = links
	}
	return m
}

// WebSite returns a minimal WebSite schema.
func WebSite(name, url, lang string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if lang != "" {
		m["inLanguage"] = lang
	}
	return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// CreativeWork describes one portfolio item. Coding projects are typed as
// SoftwareSourceCode when a repository link exists.
func CreativeWork(name, description, url, authorName, repo string, created time.Time, keywords []string) map[string]any {
	typ := "CreativeWork"
	if repo != "" {
		typ = "SoftwareSourceCode"
	}
	m := map[string]any{
		"@context":    "https://schema.org",
		"@type":       typ,
		"name":        name,
		"description": description,
	}
	if url != "" {
		m["url"] = url
	}
	if repo != "" {
		m["codeRepository"] = repo
	}
	if authorName != "" {
		m["author"] = map[string]any{"@type": "Person", "name": authorName}
	}
	if !created.IsZero() {
		m["dateCreated"] = created.Format("2006-01-02")
	}
	if len(keywords) > 0 {
		m["keywords"] = keywords
	}
	return m
}
