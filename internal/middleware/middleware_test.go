package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"kivlab.dev/portfolio-web/internal/i18n"
	"kivlab.dev/portfolio-web/internal/logging"
)

func TestHTMXCapturesHeaders(t *testing.T) {
	var got HTMXInfo
	h := HTMX(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = HTMXInfoFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/diy/items", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Trigger", "diy-controls")
	req.Header.Set("HX-Trigger-Name", "sort")
	req.Header.Set("HX-Target", "diy-list")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, got.Request)
	require.Equal(t, "sort", got.TriggerName)
	require.Equal(t, "diy-controls", got.TriggerID)
	require.Equal(t, "diy-list", got.Target)
	require.Contains(t, rec.Header().Values("Vary"), "HX-Request")

	require.False(t, IsHTMX(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestLoggerEmitsOneEntryPerRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var inner *zap.Logger
	h := HTMX(Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = logging.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set("HX-Request", "true")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, inner)
	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.EqualValues(t, http.StatusTeapot, fields["status"])
	require.EqualValues(t, len("short and stout"), fields["bytes"])
	require.Equal(t, true, fields["htmx"])
	require.Equal(t, "/projects", fields["path"])
}

func TestTraceContinuesIncomingTrace(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var traceID string
	h := Trace(Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = TraceID(r)
	})))

	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", traceID)
	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	require.Equal(t, traceID, entries[0].ContextMap()["trace_id"])

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/about", nil))
	require.Empty(t, traceID, "requests without traceparent carry no trace id")
}

func TestSanitizeDropsControlCharacters(t *testing.T) {
	require.Equal(t, "/a[31mb", sanitize("/a\x1b[31m\nb", 100))
	require.Equal(t, "GET", sanitize("GETTING", 3))
}

func TestLoggerErrorsOnServerFailures(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, 1, logs.FilterLevelExact(zap.ErrorLevel).Len())
}

func TestLocaleResolutionOrder(t *testing.T) {
	bundle, err := i18n.Load("../../locales", "zh-TW", []string{"zh-TW", "en"})
	require.NoError(t, err)

	var lang string
	h := Locale(bundle)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang = Lang(r, "zz")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "en", lang)
	require.Equal(t, "en", rec.Header().Get("Content-Language"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en")
	req.AddCookie(&http.Cookie{Name: "hl", Value: "zh-TW"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "zh-TW", lang)

	req = httptest.NewRequest(http.MethodGet, "/?hl=en", nil)
	req.AddCookie(&http.Cookie{Name: "hl", Value: "zh-TW"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "en", lang)
	require.Contains(t, rec.Header().Get("Set-Cookie"), "hl=en")

	req = httptest.NewRequest(http.MethodGet, "/?hl=klingon", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "zh-TW", lang)

	require.Equal(t, "zz", Lang(httptest.NewRequest(http.MethodGet, "/", nil), "zz"))
}

func TestCSRF(t *testing.T) {
	var token string
	h := CSRF(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = CSRFToken(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, token, 32)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	require.Equal(t, token, cookie.Value)

	t.Run("post without token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/content/reload", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("post with mismatched header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/content/reload", nil)
		req.AddCookie(cookie)
		req.Header.Set("X-CSRF-Token", strings.Repeat("0", 32))
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()
		HTMX(h).ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	})

	t.Run("post with header token passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/content/reload", nil)
		req.AddCookie(cookie)
		req.Header.Set("X-CSRF-Token", cookie.Value)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Empty(t, rec.Result().Cookies(), "existing cookie is reused")
	})

	t.Run("post with form token passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/content/reload", strings.NewReader("csrf_token="+cookie.Value))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestAssetsWithCache(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "style.css"), []byte("body{}"), 0o600))

	h := http.StripPrefix("/assets", AssetsWithCache(dir, ""))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/css/style.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.True(t, strings.HasPrefix(etag, `W/"`))
	require.Contains(t, rec.Header().Get("Cache-Control"), "max-age=604800")

	req := httptest.NewRequest(http.MethodGet, "/assets/css/style.css", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)
}
