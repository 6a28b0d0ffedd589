package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kivlab.dev/portfolio-web/internal/content"
	"kivlab.dev/portfolio-web/internal/testutil"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(Options{Dir: "../../templates"})
	require.NoError(t, err)
	return r
}

func sampleCategories() content.CategoryTable {
	return content.NewCategoryTable(map[content.ItemType][]content.Category{
		content.TypeDIY: {
			{ID: "woodworking", Name: "木工", Icon: "fas fa-hammer"},
			{ID: "electronics", Name: "電子製作", Icon: "fas fa-microchip"},
		},
	})
}

func sampleItems() []content.Item {
	return []content.Item{
		{
			ID: "desk", Type: content.TypeDIY, Title: "Desk", Category: "woodworking",
			Date:      time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			TechStack: []string{"Walnut", "Oil"},
			Features:  []string{"Dovetails"},
		},
		{
			ID: "clock", Type: content.TypeDIY, Title: "Clock", Category: "electronics",
			Links: content.Links{GitHub: "https://github.com/kiv/clock"},
		},
	}
}

func TestRenderListKeepsOrderAndInputs(t *testing.T) {
	r := newTestRenderer(t)
	items := sampleItems()
	before := make([]content.Item, len(items))
	copy(before, items)

	var buf bytes.Buffer
	require.NoError(t, r.RenderList(&buf, TargetDIYList, items, ListOptions{Categories: sampleCategories(), Lang: "en"}))
	require.Equal(t, before, items)

	doc := testutil.ParseHTML(t, buf.Bytes())
	require.Equal(t, 1, doc.Find("#diy-list").Length())
	require.Equal(t, []string{"desk", "clock"}, testutil.Attrs(doc.Find("#diy-list .project-card"), "data-id"))
	require.Equal(t, "Walnut • Oil", doc.Find(".project-card").First().Find(".tech-stack").Text())
	require.Equal(t, "2025-01-02", doc.Find(".project-card time").AttrOr("datetime", ""))
	require.Contains(t, doc.Find(".project-card").First().Find(".category-label").Text(), "木工")
	require.Equal(t, "/diy/desk", doc.Find(".project-title a").First().AttrOr("href", ""))
	require.Equal(t, 0, doc.Find(".empty-state").Length())
}

func TestRenderListEscapesItemFields(t *testing.T) {
	r := newTestRenderer(t)
	items := []content.Item{{
		ID:          `x" onmouseover="alert(1)`,
		Type:        content.TypeDIY,
		Title:       `<script>alert("t")</script>`,
		Description: `<img src=x onerror=alert(1)>`,
		Features:    []string{`<b>bold</b>`},
		Links:       content.Links{Demo: "javascript:alert(1)"},
	}}

	var buf bytes.Buffer
	require.NoError(t, r.RenderList(&buf, TargetDIYList, items, ListOptions{Lang: "en"}))

	doc := testutil.ParseHTML(t, buf.Bytes())
	require.Equal(t, 0, doc.Find("#diy-list script").Length())
	require.Equal(t, 0, doc.Find("#diy-list img").Length())
	require.Equal(t, 0, doc.Find(".feature-tag b").Length())
	require.Equal(t, `<script>alert("t")</script>`, doc.Find(".project-title a").Text())
	require.Equal(t, `x" onmouseover="alert(1)`, doc.Find(".project-card").AttrOr("data-id", ""))
	_, hasHandler := doc.Find(".project-card").Attr("onmouseover")
	require.False(t, hasHandler)
	require.NotContains(t, doc.Find(".project-link.demo").AttrOr("href", ""), "javascript:")
}

func TestRenderListEmptyPlaceholder(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.RenderList(&buf, TargetAllProjects, nil, ListOptions{Lang: "en"}))
	doc := testutil.ParseHTML(t, buf.Bytes())
	require.Equal(t, 1, doc.Find("#all-projects .empty-state").Length())
	require.Equal(t, 0, doc.Find(".project-card").Length())

	buf.Reset()
	require.NoError(t, r.RenderList(&buf, TargetFeaturedProjects, []content.Item{}, ListOptions{Lang: "en"}))
	doc = testutil.ParseHTML(t, buf.Bytes())
	require.Equal(t, 1, doc.Find("#featured-projects").Length())
	require.Equal(t, 0, doc.Find(".empty-state").Length())
}

func TestRenderIsIdempotent(t *testing.T) {
	r := newTestRenderer(t)
	opts := ListOptions{Categories: sampleCategories(), Lang: "zh-TW"}

	var first, second bytes.Buffer
	require.NoError(t, r.RenderList(&first, TargetDIYList, sampleItems(), opts))
	require.NoError(t, r.RenderList(&second, TargetDIYList, sampleItems(), opts))
	require.Equal(t, first.String(), second.String())

	state := content.DefaultFilterState().WithFilter("electronics")
	cats := sampleCategories().List(content.TypeDIY)
	first.Reset()
	second.Reset()
	require.NoError(t, r.RenderFilterControls(&first, TargetDIYFilters, cats, state, FilterOptions{Type: content.TypeDIY}))
	require.NoError(t, r.RenderFilterControls(&second, TargetDIYFilters, cats, state, FilterOptions{Type: content.TypeDIY}))
	require.Equal(t, first.String(), second.String())
}

func TestRenderFilterControls(t *testing.T) {
	r := newTestRenderer(t)
	cats := sampleCategories().List(content.TypeDIY)

	for _, filter := range []string{content.FilterAll, "woodworking", "electronics"} {
		state := content.DefaultFilterState().WithFilter(filter).WithSort("title")

		var buf bytes.Buffer
		require.NoError(t, r.RenderFilterControls(&buf, TargetDIYFilters, cats, state, FilterOptions{Type: content.TypeDIY, Lang: "en"}))
		doc := testutil.ParseHTML(t, buf.Bytes())

		require.Equal(t, []string{"all", "woodworking", "electronics"}, testutil.Attrs(doc.Find(".filter-btn"), "value"))
		active := doc.Find(".filter-btn.active")
		require.Equal(t, 1, active.Length(), "filter %s", filter)
		require.Equal(t, filter, active.AttrOr("value", ""))
		require.Equal(t, "true", active.AttrOr("aria-pressed", ""))
		require.Equal(t, filter, doc.Find(`input[name="current_filter"]`).AttrOr("value", ""))

		options := doc.Find(`select[name="sort"] option`)
		require.Equal(t, []string{"date", "title", "category"}, testutil.Attrs(options, "value"))
		require.Equal(t, 1, doc.Find("option[selected]").Length())
		require.Equal(t, "title", doc.Find("option[selected]").AttrOr("value", ""))
	}
}

func TestRenderFilterControlsWithoutCategories(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.RenderFilterControls(&buf, TargetProjectFilters, nil, content.DefaultFilterState(), FilterOptions{Type: content.TypeProject}))
	doc := testutil.ParseHTML(t, buf.Bytes())
	require.Equal(t, 1, doc.Find("#project-filters .filter-btn").Length())
	require.Equal(t, "projects-sort", doc.Find("select").AttrOr("id", ""))
}

func TestMissingContainerIsNoop(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	missing := Target{ID: "sidebar", Template: "fragment/sidebar"}
	require.NoError(t, r.RenderList(&buf, missing, sampleItems(), ListOptions{}))
	require.NoError(t, r.RenderList(&buf, Target{Template: tmplItemList}, sampleItems(), ListOptions{}))
	require.Zero(t, buf.Len())

	require.ErrorIs(t, r.Fragment(&buf, "fragment/sidebar", nil), ErrMissingContainer)
}

func TestRenderUpdatesRetryAffordance(t *testing.T) {
	r := newTestRenderer(t)
	updates := []content.Update{
		{Type: "code", Title: "Shipped", Link: "/projects", Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Type: "unknown", Title: "Misc"},
	}

	var buf bytes.Buffer
	require.NoError(t, r.RenderUpdates(&buf, TargetUpdates, updates, content.LoadStatus{Source: content.SourceRemote}, UpdatesOptions{Lang: "en"}))
	doc := testutil.ParseHTML(t, buf.Bytes())
	require.Equal(t, 2, doc.Find("#updates-grid .update-card").Length())
	require.Equal(t, 0, doc.Find(".retry-btn").Length())
	require.True(t, doc.Find(".update-card").Eq(1).Find("i").HasClass("fa-info-circle"))

	buf.Reset()
	require.NoError(t, r.RenderUpdates(&buf, TargetUpdates, updates, content.LoadStatus{Source: content.SourceFallback}, UpdatesOptions{Lang: "en"}))
	doc = testutil.ParseHTML(t, buf.Bytes())
	retry := doc.Find(".retry-btn")
	require.Equal(t, 1, retry.Length())
	require.Equal(t, "/content/reload", retry.AttrOr("hx-post", ""))
	require.Equal(t, "#updates-grid", retry.AttrOr("hx-target", ""))
}

func TestOOBFragments(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.RenderList(&buf, TargetFeaturedProjects, nil, ListOptions{OOB: true}))
	doc := testutil.ParseHTML(t, buf.Bytes())
	require.Equal(t, "true", doc.Find("#featured-projects").AttrOr("hx-swap-oob", ""))
}

func TestMarkdownSanitises(t *testing.T) {
	out := string(Markdown("## Wiring\n\n<script>alert(1)</script>\n\n[link](https://example.com) and `code`"))
	require.NotContains(t, out, "<script")
	require.Contains(t, out, `<h2 id="wiring">Wiring</h2>`)
	require.Contains(t, out, `rel="nofollow"`)
	require.Contains(t, out, "<code>code</code>")
}

func TestUnknownPage(t *testing.T) {
	r := newTestRenderer(t)
	require.True(t, r.HasPage("home"))
	require.False(t, r.HasPage("missing"))
	require.Error(t, r.Page(&bytes.Buffer{}, "missing", nil))
}

func TestDevModeReparses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fragments", "list.tmpl")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	write := func(body string) {
		require.NoError(t, os.WriteFile(path, []byte(`{{define "fragment/item-list"}}`+body+`{{end}}`), 0o600))
	}
	write("one")

	r, err := New(Options{Dir: dir, DevMode: true})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.RenderList(&buf, TargetDIYList, nil, ListOptions{}))
	require.Equal(t, "one", buf.String())

	write("two")
	buf.Reset()
	require.NoError(t, r.RenderList(&buf, TargetDIYList, nil, ListOptions{}))
	require.Equal(t, "two", strings.TrimSpace(buf.String()))
}

func TestNewFailsWithoutTemplates(t *testing.T) {
	_, err := New(Options{Dir: t.TempDir()})
	require.Error(t, err)
}
