package content

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ErrNotFound is returned when an item or note does not exist.
var ErrNotFound = errors.New("content: not found")

var errNoSource = errors.New("no source configured")

// Store holds the portfolio items and category table loaded from a static
// JSON document. Collections are swapped wholesale on every load.
type Store struct {
	source    Source
	logger    *zap.Logger
	collation language.Tag
	now       func() time.Time
	metrics   loadMetrics

	mu         sync.RWMutex
	items      []Item
	categories CategoryTable
	status     LoadStatus
}

// Option customises a Store or UpdateFeed.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	collation language.Tag
	now       func() time.Time
	meter     metric.Meter
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithCollation sets the language whose collation rules order titles and categories.
func WithCollation(tag language.Tag) Option {
	return func(o *options) { o.collation = tag }
}

// WithMeter sets the OpenTelemetry meter used for load counters. The global
// meter provider is used otherwise.
func WithMeter(meter metric.Meter) Option {
	return func(o *options) { o.meter = meter }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{collation: language.TraditionalChinese, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// NewStore constructs an empty Store reading from src.
func NewStore(src Source, opts ...Option) *Store {
	o := buildOptions(opts)
	return &Store{
		source:    src,
		logger:    o.logger,
		collation: o.collation,
		now:       o.now,
		metrics:   newLoadMetrics(o.meter, o.logger),
		items:     []Item{},
	}
}

// Load fetches and decodes the items document. Any fetch or decode failure is
// logged and replaced by the fallback dataset; only context cancellation is
// returned to the caller.
func (s *Store) Load(ctx context.Context) error {
	ctx, span := startLoadSpan(ctx, "content.Store.Load", sourceName(s.source))
	defer span.End()

	items, cats, err := s.fetch(ctx)
	if err != nil {
		s.logger.Warn("content: items unavailable, serving fallback dataset",
			zap.String("source", sourceName(s.source)),
			zap.Error(err),
		)
		status := LoadStatus{Source: SourceFallback, Err: err, LoadedAt: s.now()}
		s.replace(fallbackItems(), fallbackCategories(), status)
		s.metrics.finishLoad(ctx, span, "items", status)
		return ctx.Err()
	}
	status := LoadStatus{Source: SourceRemote, LoadedAt: s.now()}
	s.replace(items, cats, status)
	s.metrics.finishLoad(ctx, span, "items", status)
	s.logger.Info("content: items loaded",
		zap.String("source", sourceName(s.source)),
		zap.Int("items", len(items)),
		zap.Int("categories", cats.Len()),
	)
	return nil
}

func (s *Store) fetch(ctx context.Context) ([]Item, CategoryTable, error) {
	if s.source == nil {
		return nil, CategoryTable{}, &LoadError{Resource: "items", Kind: FailureNetwork, Err: errNoSource}
	}
	body, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, CategoryTable{}, err
	}
	items, cats, err := decodeItemsDocument(body)
	if err != nil {
		return nil, CategoryTable{}, &LoadError{Resource: s.source.String(), Kind: FailureParse, Err: err}
	}
	return items, cats, nil
}

func (s *Store) replace(items []Item, cats CategoryTable, status LoadStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.categories = cats
	s.status = status
}

func (s *Store) snapshot() ([]Item, CategoryTable) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items, s.categories
}

// Query selects items of typ in the given category ("all" for every category)
// ordered by sortKey. The result is a copy; ties keep collection order.
func (s *Store) Query(typ ItemType, filter string, sortKey SortKey) []Item {
	items, _ := s.snapshot()
	filter = strings.TrimSpace(filter)
	if filter == "" {
		filter = FilterAll
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Type != typ {
			continue
		}
		if filter != FilterAll && it.Category != filter {
			continue
		}
		out = append(out, cloneItem(it))
	}
	sortItems(out, sortKey, s.collation)
	return out
}

// QueryState is Query driven by a FilterState.
func (s *Store) QueryState(typ ItemType, st FilterState) []Item {
	return s.Query(typ, st.Filter, st.Sort)
}

// Item returns the item with the given id.
func (s *Store) Item(id string) (Item, error) {
	items, _ := s.snapshot()
	id = strings.TrimSpace(id)
	for _, it := range items {
		if it.ID == id {
			return cloneItem(it), nil
		}
	}
	return Item{}, ErrNotFound
}

// Items returns every loaded item in collection order.
func (s *Store) Items() []Item {
	items, _ := s.snapshot()
	return cloneItems(items)
}

// Categories returns the category table.
func (s *Store) Categories() CategoryTable {
	_, cats := s.snapshot()
	return cats.clone()
}

// Status reports how the current collection was obtained.
func (s *Store) Status() LoadStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func sortItems(items []Item, key SortKey, tag language.Tag) {
	switch key {
	case SortDate:
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i].Date, items[j].Date
			switch {
			case a.IsZero() && b.IsZero():
				return false
			case a.IsZero():
				return false
			case b.IsZero():
				return true
			}
			return a.After(b)
		})
	case SortTitle:
		c := collate.New(tag, collate.IgnoreCase)
		sort.SliceStable(items, func(i, j int) bool {
			return c.CompareString(items[i].Title, items[j].Title) < 0
		})
	case SortCategory:
		c := collate.New(tag, collate.IgnoreCase)
		sort.SliceStable(items, func(i, j int) bool {
			return c.CompareString(items[i].Category, items[j].Category) < 0
		})
	}
}

type itemsDocument struct {
	Items      []rawItem     `json:"items"`
	Projects   []rawItem     `json:"projects"`
	Categories CategoryTable `json:"categories"`
}

type rawItem struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	TechStack   []string `json:"techStack"`
	Features    []string `json:"features"`
	Date        string   `json:"date"`
	Category    string   `json:"category"`
	Icon        string   `json:"icon"`
	Links       rawLinks `json:"links"`
	Featured    bool     `json:"featured"`
}

type rawLinks struct {
	Demo          string `json:"demo"`
	GitHub        string `json:"github"`
	Documentation string `json:"documentation"`
}

var errEmptyDocument = errors.New("document contains no items")

func decodeItemsDocument(body []byte) ([]Item, CategoryTable, error) {
	var doc itemsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, CategoryTable{}, err
	}
	raws := doc.Items
	if len(raws) == 0 {
		raws = doc.Projects
	}
	items := make([]Item, 0, len(raws))
	for i, raw := range raws {
		items = append(items, mapRawItem(raw, i))
	}
	if len(items) == 0 {
		return nil, CategoryTable{}, errEmptyDocument
	}
	return items, doc.Categories, nil
}

// mapRawItem normalises one document entry. Entries without an id take the
// slug of their title, or "item-<position>" when the title has no ASCII
// letters to slug (CJK titles, for instance).
func mapRawItem(raw rawItem, index int) Item {
	title := strings.TrimSpace(raw.Title)
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		id = slugify(title)
	}
	if id == "" {
		id = "item-" + strconv.Itoa(index+1)
	}
	return Item{
		ID:          id,
		Type:        ItemType(strings.ToLower(strings.TrimSpace(raw.Type))),
		Title:       title,
		Description: strings.TrimSpace(raw.Description),
		TechStack:   trimAll(raw.TechStack),
		Features:    trimAll(raw.Features),
		Date:        parseDate(raw.Date),
		Category:    strings.TrimSpace(raw.Category),
		Icon:        strings.TrimSpace(raw.Icon),
		Links: Links{
			Demo:          strings.TrimSpace(raw.Links.Demo),
			GitHub:        strings.TrimSpace(raw.Links.GitHub),
			Documentation: strings.TrimSpace(raw.Links.Documentation),
		},
		Featured: raw.Featured,
	}
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		"2006/01/02",
		"2006-1-2",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func sourceName(src Source) string {
	if src == nil {
		return ""
	}
	return src.String()
}
