package content

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrReadOnly is returned by every mutation: the site is served from static
// files and has nowhere to persist writes.
var ErrReadOnly = errors.New("content: this site is statically hosted and cannot accept changes; edit the data file and redeploy")

// Draft carries the editable fields of an item.
type Draft struct {
	Type        ItemType `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	TechStack   []string `json:"techStack"`
	Features    []string `json:"features"`
	Category    string   `json:"category"`
	Icon        string   `json:"icon"`
	Links       Links    `json:"links"`
	Featured    bool     `json:"featured"`
}

// Add logs the item that would have been created and returns ErrReadOnly.
func (s *Store) Add(ctx context.Context, d Draft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("content: add ignored on read-only store",
		zap.String("id", generateItemID(d.Title, s.now().UnixMilli())),
		zap.String("type", string(d.Type)),
		zap.String("title", d.Title),
	)
	return ErrReadOnly
}

// Edit returns ErrNotFound for unknown ids and ErrReadOnly otherwise.
func (s *Store) Edit(ctx context.Context, id string, d Draft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.Item(id); err != nil {
		return err
	}
	s.logger.Info("content: edit ignored on read-only store",
		zap.String("id", id),
		zap.String("title", d.Title),
	)
	return ErrReadOnly
}

// Delete returns ErrNotFound for unknown ids and ErrReadOnly otherwise.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.Item(id); err != nil {
		return err
	}
	s.logger.Info("content: delete ignored on read-only store", zap.String("id", id))
	return ErrReadOnly
}

var (
	slugStrip  = regexp.MustCompile(`[^\w\s-]`)
	slugSpaces = regexp.MustCompile(`\s+`)
)

func slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// generateItemID derives an id from the title plus a millisecond timestamp.
func generateItemID(title string, millis int64) string {
	slug := slugify(title)
	if slug == "" {
		slug = "item"
	}
	return slug + "-" + strconv.FormatInt(millis, 10)
}
