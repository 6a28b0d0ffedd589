package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"kivlab.dev/portfolio-web/internal/binder"
	"kivlab.dev/portfolio-web/internal/config"
	"kivlab.dev/portfolio-web/internal/content"
	handlersPkg "kivlab.dev/portfolio-web/internal/handlers"
	"kivlab.dev/portfolio-web/internal/i18n"
	"kivlab.dev/portfolio-web/internal/logging"
	"kivlab.dev/portfolio-web/internal/render"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "portfolio-web",
		Short:         "Serve the Kiv's Lab portfolio site",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, cfgFile)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("templates", "", "templates directory")
	pf.String("public", "", "public assets directory")
	pf.String("addr", "", "HTTP listen address")
	pf.Bool("dev", false, "reparse templates on every request")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, cfgFile)
		},
	}

	export := &cobra.Command{
		Use:   "export",
		Short: "Render every page to static files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd, cfgFile)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return runExport(cmd.Context(), cfg, logger)
		},
	}
	export.Flags().String("out", "", "output directory")

	root.AddCommand(serve, export)
	return root
}

// setup resolves configuration with explicitly set flags taking precedence.
func setup(cmd *cobra.Command, cfgFile string) (config.Config, *zap.Logger, error) {
	flags := cmd.Flags()
	cfg, err := config.Load(
		config.WithConfigFile(cfgFile),
		config.WithFlag("server.addr", flags.Lookup("addr")),
		config.WithFlag("server.dev", flags.Lookup("dev")),
		config.WithFlag("log.level", flags.Lookup("log-level")),
		config.WithFlag("paths.templates", flags.Lookup("templates")),
		config.WithFlag("paths.public", flags.Lookup("public")),
		config.WithFlag("paths.export", flags.Lookup("out")),
	)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// app is the wired site: content, rendering and the HTTP handler.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	lib     *content.Library
	bundle  *i18n.Bundle
	handler http.Handler
}

// newApp wires the site. static renders pages for the export, whose filter
// forms fetch pre-rendered fragment files.
func newApp(cfg config.Config, logger *zap.Logger, static bool) (*app, error) {
	bundle, err := i18n.Load(cfg.Paths.Locales, cfg.Site.Lang, cfg.Site.Languages)
	if err != nil {
		return nil, fmt.Errorf("load i18n: %w", err)
	}
	renderer, err := render.New(render.Options{
		Dir:     cfg.Paths.Templates,
		DevMode: cfg.Server.Dev,
		Funcs:   template.FuncMap{"t": bundle.T},
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	client := &http.Client{Timeout: cfg.Content.FetchTimeout}
	opts := []content.Option{
		content.WithLogger(logger),
		content.WithCollation(language.Make(cfg.Site.Lang)),
	}
	lib := content.NewLibrary(
		content.NewStore(content.NewSource(cfg.Content.ItemsURL, client), opts...),
		content.NewUpdateFeed(content.NewSource(cfg.Content.UpdatesURL, client), opts...),
		logger,
	)
	notes := content.NewNotes(cfg.Paths.Notes, content.WithNoteLanguages(bundle.Supported()...))

	h, err := handlersPkg.New(handlersPkg.Dependencies{
		Library:  lib,
		Notes:    notes,
		Renderer: renderer,
		Bundle:   bundle,
		Site: handlersPkg.Site{
			Name:    cfg.Site.Name,
			Author:  cfg.Site.Author,
			Email:   cfg.Site.Email,
			GitHub:  cfg.Site.GitHub,
			BaseURL: cfg.Site.BaseURL,
		},
		LatestUpdates: cfg.Content.LatestUpdates,
		StaticExport:  static,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		lib:    lib,
		bundle: bundle,
		handler: newRouter(routerDeps{
			cfg:      cfg,
			logger:   logger,
			bundle:   bundle,
			binder:   binder.New(lib.Store, renderer, bundle.Fallback(), logger),
			handlers: h,
		}),
	}, nil
}

func runServe(cmd *cobra.Command, cfgFile string) error {
	cfg, logger, err := setup(cmd, cfgFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cfg, logger, false)
	if err != nil {
		return err
	}
	if err := a.lib.Load(ctx); err != nil {
		return err
	}
	stopRefresh := a.lib.StartRefresh(ctx, cfg.Content.RefreshInterval)
	defer stopRefresh()
	if cfg.Content.Watch {
		stopWatch, err := a.lib.Watch(ctx, content.DefaultWatchDebounce)
		if err != nil {
			logger.Warn("content watcher disabled", zap.Error(err))
		} else {
			defer stopWatch()
		}
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web listening",
			zap.String("addr", cfg.Server.Addr),
			zap.Bool("dev", cfg.Server.Dev),
			zap.String("config", cfg.File),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
