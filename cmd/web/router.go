package main

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"kivlab.dev/portfolio-web/internal/binder"
	"kivlab.dev/portfolio-web/internal/config"
	handlersPkg "kivlab.dev/portfolio-web/internal/handlers"
	"kivlab.dev/portfolio-web/internal/i18n"
	mw "kivlab.dev/portfolio-web/internal/middleware"
)

type routerDeps struct {
	cfg      config.Config
	logger   *zap.Logger
	bundle   *i18n.Bundle
	binder   *binder.Binder
	handlers *handlersPkg.Handlers
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// RealIP trusts X-Forwarded-For; only deploy behind a proxy that sets it.
	r.Use(chimw.RealIP)
	r.Use(mw.HTMX)
	r.Use(mw.Trace)
	r.Use(mw.Logger(d.logger))
	r.Use(mw.Locale(d.bundle))
	r.Use(mw.CSRF(strings.HasPrefix(d.cfg.Site.BaseURL, "https://")))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	assets := http.StripPrefix("/assets", mw.AssetsWithCache(filepath.Join(d.cfg.Paths.Public, "assets"), ""))
	r.Handle("/assets/*", assets)
	data := http.StripPrefix("/data", mw.AssetsWithCache(d.cfg.Paths.Data, "public, max-age=300"))
	r.Handle("/data/*", data)

	d.binder.Routes(r)
	d.handlers.Routes(r)
	return r
}
