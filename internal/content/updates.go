package content

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultLatestUpdates is how many updates the home page shows.
const DefaultLatestUpdates = 3

// UpdateFeed holds the "recent updates" list loaded from its own resource.
type UpdateFeed struct {
	source  Source
	logger  *zap.Logger
	now     func() time.Time
	metrics loadMetrics

	mu      sync.RWMutex
	updates []Update
	status  LoadStatus
}

// NewUpdateFeed constructs an empty feed reading from src.
func NewUpdateFeed(src Source, opts ...Option) *UpdateFeed {
	o := buildOptions(opts)
	return &UpdateFeed{
		source:  src,
		logger:  o.logger,
		now:     o.now,
		metrics: newLoadMetrics(o.meter, o.logger),
		updates: []Update{},
	}
}

// Load fetches {updates: [...]}; failures fall back to fixed updates.
func (f *UpdateFeed) Load(ctx context.Context) error {
	ctx, span := startLoadSpan(ctx, "content.UpdateFeed.Load", sourceName(f.source))
	defer span.End()

	updates, err := f.fetch(ctx)
	if err != nil {
		f.logger.Warn("content: updates unavailable, serving fallback updates",
			zap.String("source", sourceName(f.source)),
			zap.Error(err),
		)
		status := LoadStatus{Source: SourceFallback, Err: err, LoadedAt: f.now()}
		f.replace(fallbackUpdates(), status)
		f.metrics.finishLoad(ctx, span, "updates", status)
		return ctx.Err()
	}
	status := LoadStatus{Source: SourceRemote, LoadedAt: f.now()}
	f.replace(updates, status)
	f.metrics.finishLoad(ctx, span, "updates", status)
	f.logger.Info("content: updates loaded",
		zap.String("source", sourceName(f.source)),
		zap.Int("updates", len(updates)),
	)
	return nil
}

func (f *UpdateFeed) fetch(ctx context.Context) ([]Update, error) {
	if f.source == nil {
		return nil, &LoadError{Resource: "updates", Kind: FailureNetwork, Err: errNoSource}
	}
	body, err := f.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	updates, err := decodeUpdatesDocument(body)
	if err != nil {
		return nil, &LoadError{Resource: f.source.String(), Kind: FailureParse, Err: err}
	}
	return updates, nil
}

func (f *UpdateFeed) replace(updates []Update, status LoadStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = updates
	f.status = status
}

// All returns every update in document order.
func (f *UpdateFeed) All() []Update {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Update{}, f.updates...)
}

// Latest returns the n most recent updates, newest first.
func (f *UpdateFeed) Latest(n int) []Update {
	out := f.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// FilterByType returns the updates of one type in document order.
func (f *UpdateFeed) FilterByType(typ string) []Update {
	typ = strings.ToLower(strings.TrimSpace(typ))
	out := []Update{}
	for _, u := range f.All() {
		if strings.ToLower(u.Type) == typ {
			out = append(out, u)
		}
	}
	return out
}

// Status reports how the current updates were obtained.
func (f *UpdateFeed) Status() LoadStatus {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.status
}

type updatesDocument struct {
	Updates []rawUpdate `json:"updates"`
}

type rawUpdate struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Link        string `json:"link"`
}

var errNoUpdates = errors.New("document contains no updates")

func decodeUpdatesDocument(body []byte) ([]Update, error) {
	var doc updatesDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	out := make([]Update, 0, len(doc.Updates))
	for _, raw := range doc.Updates {
		title := strings.TrimSpace(raw.Title)
		if title == "" {
			continue
		}
		out = append(out, Update{
			Type:        strings.ToLower(strings.TrimSpace(raw.Type)),
			Title:       title,
			Description: strings.TrimSpace(raw.Description),
			Date:        parseDate(raw.Date),
			Link:        strings.TrimSpace(raw.Link),
		})
	}
	if len(out) == 0 {
		return nil, errNoUpdates
	}
	return out, nil
}
