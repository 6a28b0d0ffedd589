package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kivlab.dev/portfolio-web/internal/config"
	"kivlab.dev/portfolio-web/internal/testutil"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Server: config.ServerConfig{Addr: ":0", Dev: true},
		Paths: config.PathsConfig{
			Templates: "../../templates",
			Public:    "../../public",
			Locales:   "../../locales",
			Notes:     "../../notes",
			Data:      "../../data",
			Export:    t.TempDir(),
		},
		Content: config.ContentConfig{
			ItemsURL:      "../../data/projects.json",
			UpdatesURL:    "../../data/updates.json",
			FetchTimeout:  time.Second,
			LatestUpdates: 3,
		},
		Site: config.SiteConfig{
			Name:      "Kiv's Lab",
			Author:    "Kiv",
			Lang:      "zh-TW",
			Languages: []string{"zh-TW", "en"},
		},
		Log: config.LogConfig{Level: "info"},
	}
}

// newTestApp builds the app like runServe does, with content already loaded.
func newTestApp(t *testing.T) *app {
	t.Helper()
	a, err := newApp(testConfig(t), zap.NewNop(), false)
	require.NoError(t, err)
	require.NoError(t, a.lib.Load(context.Background()))
	return a
}

func TestHealthzOK(t *testing.T) {
	srv := newTestApp(t).handler
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", strings.TrimSpace(rec.Body.String()))
}

func TestDataFilesLoad(t *testing.T) {
	a := newTestApp(t)
	require.False(t, a.lib.Store.Status().Degraded(), "bundled data/projects.json must decode")
	require.False(t, a.lib.Updates.Status().Degraded(), "bundled data/updates.json must decode")
	require.NotEmpty(t, a.lib.Store.Items())
}

func TestHomeLocalizedNav_EN(t *testing.T) {
	srv := newTestApp(t).handler
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	var labels []string
	doc.Find(".nav-link").Each(func(_ int, s *goquery.Selection) {
		labels = append(labels, strings.TrimSpace(s.Text()))
	})
	require.Equal(t, []string{"Home", "DIY", "Projects", "About"}, labels)
	require.NotEmpty(t, doc.Find("body").AttrOr("hx-headers", ""))
}

func TestSectionEndpointIsNotShadowedByDetailRoute(t *testing.T) {
	srv := newTestApp(t).handler
	req := httptest.NewRequest(http.MethodGet, "/diy/items?filter=all&sort=title", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, 1, doc.Find("#diy-list").Length())
	require.Equal(t, "true", doc.Find("#diy-filters").AttrOr("hx-swap-oob", ""))
	require.Contains(t, rec.Header().Values("Vary"), "HX-Request")
}

func TestUnsafeRequestsNeedCSRFToken(t *testing.T) {
	srv := newTestApp(t).handler

	req := httptest.NewRequest(http.MethodPost, "/content/reload", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	var token *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "csrf_token" {
			token = c
		}
	}
	require.NotNil(t, token)

	req = httptest.NewRequest(http.MethodPost, "/content/reload", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("X-CSRF-Token", token.Value)
	req.AddCookie(token)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `id="updates-grid"`)
}

func TestAssetsServedWithETag(t *testing.T) {
	srv := newTestApp(t).handler
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/css/style.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("ETag"))
}

func TestExportWritesPages(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, runExport(context.Background(), cfg, zap.NewNop()))

	for _, p := range []string{"index.html", "diy/index.html", "projects/index.html", "about/index.html", "404.html", "assets/css/style.css", "data/projects.json"} {
		_, err := os.Stat(filepath.Join(cfg.Paths.Export, filepath.FromSlash(p)))
		require.NoError(t, err, p)
	}

	f, err := os.Open(filepath.Join(cfg.Paths.Export, "diy", "esp32-weather-station", "index.html"))
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Contains(t, string(body), `class="item-notes"`)
}

func readExported(t *testing.T, cfg config.Config, rel string) []byte {
	t.Helper()
	body, err := os.ReadFile(filepath.Join(cfg.Paths.Export, filepath.FromSlash(rel)))
	require.NoError(t, err, rel)
	return body
}

func TestExportWritesFilterFragments(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, runExport(context.Background(), cfg, zap.NewNop()))

	page := testutil.ParseHTML(t, readExported(t, cfg, "diy/index.html"))
	form := page.Find("#diy-filter-form")
	require.Equal(t, 1, form.Length())
	items, _ := form.Attr("data-static-items")
	require.Equal(t, "/diy/items", items)
	script, ok := form.Attr("hx-on:htmx:config-request")
	require.True(t, ok)
	require.Contains(t, script, "event.detail.path")

	// Every toggle and sort option resolves to a written file.
	for _, filter := range []string{"all", "electronics", "woodworking", "3d-printing"} {
		for _, sort := range []string{"date", "title", "category"} {
			readExported(t, cfg, "diy/items/"+filter+"/"+sort+"/index.html")
		}
	}
	for _, filter := range []string{"all", "web", "tool"} {
		readExported(t, cfg, "projects/items/"+filter+"/date/index.html")
	}

	frag := testutil.ParseHTML(t, readExported(t, cfg, "diy/items/woodworking/title/index.html"))
	cards := frag.Find("#diy-list article.project-card")
	require.Equal(t, 1, cards.Length())
	require.Equal(t, []string{"woodworking"}, testutil.Attrs(cards, "data-category"))
	controls := frag.Find("#diy-filters")
	_, oob := controls.Attr("hx-swap-oob")
	require.True(t, oob)
	require.Equal(t, []string{"woodworking"}, testutil.Attrs(controls.Find("button.filter-btn.active"), "value"))
	selected, _ := controls.Find("select option[selected]").Attr("value")
	require.Equal(t, "title", selected)

	projects := testutil.ParseHTML(t, readExported(t, cfg, "projects/items/tool/date/index.html"))
	require.Equal(t, 1, projects.Find("#all-projects article.project-card").Length())
	require.Equal(t, 1, projects.Find("#featured-projects").Length())
}

func TestServedPagesKeepQueryEndpoint(t *testing.T) {
	a := newTestApp(t)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/diy", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	form := testutil.ParseHTML(t, rec.Body.Bytes()).Find("#diy-filter-form")
	require.Equal(t, 1, form.Length())
	_, static := form.Attr("data-static-items")
	require.False(t, static)
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := newRootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	require.Contains(t, names, "serve")
	require.Contains(t, names, "export")
	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}
