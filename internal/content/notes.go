package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultNotesDir = "notes"
	defaultNotesTTL = 5 * time.Minute
)

// Note is the long-form write-up of an item, authored as markdown with an
// optional YAML front matter block.
type Note struct {
	ItemType  ItemType
	ItemID    string
	Lang      string
	Title     string
	Summary   string
	Body      string
	UpdatedAt time.Time
}

type noteFrontMatter struct {
	Title     string `yaml:"title"`
	Summary   string `yaml:"summary"`
	Lang      string `yaml:"lang"`
	UpdatedAt string `yaml:"updated_at"`
}

// Notes reads notes from <dir>/<type>/<lang>/<id>.md with a short in-memory cache.
type Notes struct {
	dir   string
	langs []string
	ttl   time.Duration
	now   func() time.Time

	mu    sync.RWMutex
	cache map[string]noteCacheEntry
}

type noteCacheEntry struct {
	note    Note
	expires time.Time
}

// NotesOption customises Notes.
type NotesOption func(*Notes)

// WithNoteLanguages sets the languages tried after the requested one.
func WithNoteLanguages(langs ...string) NotesOption {
	return func(n *Notes) { n.langs = append([]string(nil), langs...) }
}

// WithNoteCacheDuration overrides how long a parsed note is reused.
func WithNoteCacheDuration(d time.Duration) NotesOption {
	return func(n *Notes) {
		if d <= 0 {
			d = time.Minute
		}
		n.ttl = d
	}
}

// NewNotes constructs a note reader rooted at dir.
func NewNotes(dir string, opts ...NotesOption) *Notes {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = defaultNotesDir
	}
	n := &Notes{
		dir:   dir,
		langs: []string{"zh-TW", "en"},
		ttl:   defaultNotesTTL,
		now:   time.Now,
		cache: map[string]noteCacheEntry{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Get returns the note for an item, trying lang first and then the
// configured fallback languages.
func (n *Notes) Get(ctx context.Context, typ ItemType, id, lang string) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	id = sanitizeSlug(id)
	if id == "" {
		return Note{}, ErrNotFound
	}
	key := strings.Join([]string{string(typ), lang, id}, "|")
	if note, ok := n.cached(key); ok {
		return note, nil
	}
	priority := []string{lang}
	for _, l := range n.langs {
		if l != lang {
			priority = append(priority, l)
		}
	}
	for _, candidate := range priority {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		note, err := n.read(typ, id, candidate)
		if err == nil {
			n.store(key, note)
			return note, nil
		}
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return Note{}, err
	}
	return Note{}, ErrNotFound
}

func (n *Notes) read(typ ItemType, id, lang string) (Note, error) {
	file := filepath.Join(n.dir, string(typ), lang, id+".md")
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Note{}, ErrNotFound
		}
		return Note{}, err
	}
	fm, body := splitFrontMatter(string(data))
	front := noteFrontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Note{}, fmt.Errorf("content: parse front matter %s: %w", file, err)
		}
	}
	note := Note{
		ItemType:  typ,
		ItemID:    id,
		Lang:      firstNonEmpty(strings.TrimSpace(front.Lang), lang),
		Title:     strings.TrimSpace(front.Title),
		Summary:   strings.TrimSpace(front.Summary),
		Body:      body,
		UpdatedAt: parseDate(front.UpdatedAt),
	}
	if note.UpdatedAt.IsZero() {
		if info, err := os.Stat(file); err == nil {
			note.UpdatedAt = info.ModTime()
		}
	}
	return note, nil
}

func (n *Notes) cached(key string) (Note, bool) {
	n.mu.RLock()
	entry, ok := n.cache[key]
	n.mu.RUnlock()
	if !ok || n.now().After(entry.expires) {
		return Note{}, false
	}
	return entry.note, true
}

func (n *Notes) store(key string, note Note) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cache[key] = noteCacheEntry{note: note, expires: n.now().Add(n.ttl)}
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func sanitizeSlug(slug string) string {
	slug = strings.TrimSpace(slug)
	slug = strings.Trim(slug, "/")
	if slug == "" || strings.Contains(slug, "..") {
		return ""
	}
	if strings.ContainsAny(slug, `/\`) {
		return ""
	}
	return slug
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
