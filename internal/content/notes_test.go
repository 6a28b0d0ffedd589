package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeNote(t *testing.T, dir string, typ ItemType, lang, id, body string) {
	t.Helper()
	path := filepath.Join(dir, string(typ), lang, id+".md")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestNotesReadsFrontMatter(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, TypeDIY, "zh-TW", "esp32-weather-station", "---\ntitle: 氣象站筆記\nsummary: 校正紀錄\nupdated_at: 2025-02-03\n---\n\n## 感測器\n\n內容")

	notes := NewNotes(dir)
	note, err := notes.Get(context.Background(), TypeDIY, "esp32-weather-station", "zh-TW")
	require.NoError(t, err)
	require.Equal(t, "氣象站筆記", note.Title)
	require.Equal(t, "校正紀錄", note.Summary)
	require.Equal(t, "zh-TW", note.Lang)
	require.Equal(t, time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), note.UpdatedAt)
	require.Equal(t, "## 感測器\n\n內容", note.Body)
}

func TestNotesFallsBackToOtherLanguage(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, TypeProject, "en", "site", "Plain body without front matter")

	notes := NewNotes(dir, WithNoteLanguages("zh-TW", "en"))
	note, err := notes.Get(context.Background(), TypeProject, "site", "zh-TW")
	require.NoError(t, err)
	require.Equal(t, "en", note.Lang)
	require.Equal(t, "Plain body without front matter", note.Body)
	require.False(t, note.UpdatedAt.IsZero(), "file mtime is used when front matter has no date")
}

func TestNotesMissingAndUnsafeIDs(t *testing.T) {
	notes := NewNotes(t.TempDir())
	ctx := context.Background()

	_, err := notes.Get(ctx, TypeDIY, "nothing-here", "en")
	require.ErrorIs(t, err, ErrNotFound)

	for _, id := range []string{"", "../secrets", "a/b", `a\b`} {
		_, err := notes.Get(ctx, TypeDIY, id, "en")
		require.ErrorIs(t, err, ErrNotFound, "id %q", id)
	}
}

func TestNotesRejectsBrokenFrontMatter(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, TypeDIY, "en", "broken", "---\ntitle: [unterminated\n---\nbody")

	_, err := NewNotes(dir).Get(context.Background(), TypeDIY, "broken", "en")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestNotesCachesParsedNotes(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, TypeDIY, "en", "cached", "---\ntitle: First\n---\nbody")

	notes := NewNotes(dir, WithNoteCacheDuration(time.Hour))
	ctx := context.Background()
	first, err := notes.Get(ctx, TypeDIY, "cached", "en")
	require.NoError(t, err)

	writeNote(t, dir, TypeDIY, "en", "cached", "---\ntitle: Second\n---\nbody")
	second, err := notes.Get(ctx, TypeDIY, "cached", "en")
	require.NoError(t, err)
	require.Equal(t, first.Title, second.Title)
}
