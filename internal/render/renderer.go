package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"kivlab.dev/portfolio-web/internal/format"
)

// ErrMissingContainer reports a target whose fragment template is not defined.
// Render methods treat it as a no-op.
var ErrMissingContainer = errors.New("render: container not defined")

const pagesDir = "pages"

// Options configures a Renderer.
type Options struct {
	// Dir holds layouts/, partials/, fragments/ and pages/ *.tmpl files.
	Dir string
	// DevMode reparses templates on every render.
	DevMode bool
	// Funcs are merged over the built-in template functions.
	Funcs  template.FuncMap
	Logger *zap.Logger
}

// Renderer turns view models into HTML using html/template.
type Renderer struct {
	dir    string
	dev    bool
	funcs  template.FuncMap
	logger *zap.Logger

	mu  sync.RWMutex
	set *templateSet
}

type templateSet struct {
	root  *template.Template
	pages map[string]*template.Template
}

// New parses the template directory. Parse errors are returned even in dev
// mode so a broken checkout fails at startup.
func New(opts Options) (*Renderer, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		dir = "templates"
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Renderer{dir: dir, dev: opts.DevMode, logger: logger}
	r.funcs = r.baseFuncs()
	for name, fn := range opts.Funcs {
		r.funcs[name] = fn
	}
	set, err := r.parse()
	if err != nil {
		return nil, err
	}
	r.set = set
	return r, nil
}

func (r *Renderer) baseFuncs() template.FuncMap {
	return template.FuncMap{
		"now":      time.Now,
		"t":        func(_, key string) string { return key },
		"fmtDate":  format.FmtDate,
		"isoDate":  format.ISODate,
		"joinTech": format.JoinTech,
		"markdown": Markdown,
	}
}

func (r *Renderer) parse() (*templateSet, error) {
	// ParseGlob doesn't support **, so walk the tree.
	var shared, pages []string
	err := filepath.WalkDir(r.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".tmpl") {
			return nil
		}
		if filepath.Base(filepath.Dir(path)) == pagesDir {
			pages = append(pages, path)
		} else {
			shared = append(shared, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("render: walk %s: %w", r.dir, err)
	}
	if len(shared) == 0 {
		return nil, fmt.Errorf("render: no templates found under %s", r.dir)
	}
	root, err := template.New("_root").Funcs(r.funcs).ParseFiles(shared...)
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	set := &templateSet{root: root, pages: make(map[string]*template.Template, len(pages))}
	for _, path := range pages {
		name := strings.TrimSuffix(filepath.Base(path), ".tmpl")
		clone, err := root.Clone()
		if err != nil {
			return nil, fmt.Errorf("render: clone for %s: %w", name, err)
		}
		if _, err := clone.ParseFiles(path); err != nil {
			return nil, fmt.Errorf("render: parse page %s: %w", name, err)
		}
		set.pages[name] = clone
	}
	return set, nil
}

func (r *Renderer) templates() (*templateSet, error) {
	if r.dev {
		return r.parse()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.set == nil {
		return nil, errors.New("render: templates not initialised")
	}
	return r.set, nil
}

// Reload reparses the template directory and swaps it in on success.
func (r *Renderer) Reload() error {
	set, err := r.parse()
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.set = set
	r.mu.Unlock()
	return nil
}

// Page renders a full page through the "base" layout.
func (r *Renderer) Page(w io.Writer, name string, data any) error {
	set, err := r.templates()
	if err != nil {
		return err
	}
	page, ok := set.pages[name]
	if !ok {
		return fmt.Errorf("render: unknown page %q", name)
	}
	return execute(w, page, "base", data)
}

// HasPage reports whether a page template exists.
func (r *Renderer) HasPage(name string) bool {
	set, err := r.templates()
	if err != nil {
		return false
	}
	_, ok := set.pages[name]
	return ok
}

// Fragment renders a named shared template. It returns ErrMissingContainer
// when the template is not defined.
func (r *Renderer) Fragment(w io.Writer, name string, data any) error {
	set, err := r.templates()
	if err != nil {
		return err
	}
	if set.root.Lookup(name) == nil {
		return ErrMissingContainer
	}
	return execute(w, set.root, name, data)
}

// fragment renders into target, treating a missing container as a no-op.
func (r *Renderer) fragment(w io.Writer, target Target, data any) error {
	if target.ID == "" {
		r.logger.Debug("render: skipping target without container id", zap.String("template", target.Template))
		return nil
	}
	err := r.Fragment(w, target.Template, data)
	if errors.Is(err, ErrMissingContainer) {
		r.logger.Debug("render: container not present, skipping",
			zap.String("target", target.ID),
			zap.String("template", target.Template),
		)
		return nil
	}
	return err
}

// execute buffers output so a failing template never writes half a document.
func execute(w io.Writer, t *template.Template, name string, data any) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render: execute %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
