package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kivlab.dev/portfolio-web/internal/binder"
	"kivlab.dev/portfolio-web/internal/config"
	"kivlab.dev/portfolio-web/internal/content"
)

// runExport renders every page through the router and writes the result
// under cfg.Paths.Export, alongside the public assets and data files.
func runExport(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(cfg, logger, true)
	if err != nil {
		return err
	}
	if err := a.lib.Load(ctx); err != nil {
		return err
	}
	out := cfg.Paths.Export
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	pages := exportPaths(a.lib.Store)
	fragments := fragmentPaths(a.lib.Store)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, p := range pages {
		p := p
		g.Go(func() error {
			return exportPage(gctx, a.handler, out, p, false)
		})
	}
	for _, p := range fragments {
		p := p
		g.Go(func() error {
			return exportPage(gctx, a.handler, out, p, true)
		})
	}
	g.Go(func() error {
		return copyTree(filepath.Join(cfg.Paths.Public, "assets"), filepath.Join(out, "assets"))
	})
	g.Go(func() error {
		return copyTree(cfg.Paths.Data, filepath.Join(out, "data"))
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if err := exportNotFound(a.handler, out); err != nil {
		return err
	}
	logger.Info("export complete",
		zap.String("out", out),
		zap.Int("pages", len(pages)),
		zap.Int("fragments", len(fragments)),
	)
	return nil
}

// exportPaths lists the landing pages plus one detail page per item.
func exportPaths(store *content.Store) []string {
	paths := []string{"/", "/about"}
	for _, typ := range []content.ItemType{content.TypeDIY, content.TypeProject} {
		page, _ := binder.SectionPaths(typ)
		paths = append(paths, page)
	}
	for _, it := range store.Items() {
		page, _ := binder.SectionPaths(it.Type)
		paths = append(paths, path.Join(page, it.ID))
	}
	return paths
}

// fragmentPaths lists one binder response per section, filter and sort, so
// the exported filter forms have a file to fetch for every state they can
// reach.
func fragmentPaths(store *content.Store) []string {
	cats := store.Categories()
	var paths []string
	for _, typ := range []content.ItemType{content.TypeDIY, content.TypeProject} {
		filters := []string{content.FilterAll}
		for _, c := range cats.List(typ) {
			filters = append(filters, c.ID)
		}
		for _, filter := range filters {
			for _, key := range content.SortKeys() {
				st := content.FilterState{Filter: filter, Sort: key}
				paths = append(paths, binder.StatePath(typ, st))
			}
		}
	}
	return paths
}

// exportPage writes urlPath to out/<path>/index.html. Fragments are requested
// the way htmx requests them.
func exportPage(ctx context.Context, h http.Handler, out, urlPath string, fragment bool) error {
	req := httptest.NewRequest(http.MethodGet, urlPath, nil).WithContext(ctx)
	if fragment {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		return fmt.Errorf("export %s: status %d", urlPath, rec.Code)
	}
	// Static hosts look files up by the decoded request path.
	name, err := url.PathUnescape(urlPath)
	if err != nil {
		return fmt.Errorf("export %s: %w", urlPath, err)
	}
	dest := filepath.Join(out, filepath.FromSlash(name), "index.html")
	return writeFile(dest, rec.Body.Bytes())
}

func exportNotFound(h http.Handler, out string) error {
	req := httptest.NewRequest(http.MethodGet, "/404.html", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return writeFile(filepath.Join(out, "404.html"), rec.Body.Bytes())
}

func writeFile(dest string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := os.WriteFile(dest, body, 0o644); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// copyTree copies src into dst. A missing src is skipped.
func copyTree(src, dst string) error {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(p, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
