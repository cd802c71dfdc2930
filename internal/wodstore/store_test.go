package wodstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/nicolasdagostino/a615-sub000/internal/logger"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleWOD(date string) models.WOD {
	return models.WOD{
		Date:     date,
		Title:    "  Fran  ",
		Intent:   "Sprint",
		Warmup:   []string{"400m row", "  ", "PVC pass-throughs"},
		Strength: nil,
		Metcon:   []string{"21-15-9 thrusters and pull-ups"},
		RX:       []string{"43/29 kg"},
		Scaled:   []string{"30/20 kg", ""},
	}
}

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "wods.json")
	store, err := NewFileStore(path, logger.Nop())
	require.NoError(t, err)
	return store, path
}

func TestNormalizeTrimsAndDropsEmptyEntries(t *testing.T) {
	wod, err := Normalize(sampleWOD("2026-03-10"))
	require.NoError(t, err)
	assert.Equal(t, "Fran", wod.Title)
	assert.Equal(t, []string{"400m row", "PVC pass-throughs"}, wod.Warmup)
	assert.Equal(t, []string{}, wod.Strength)
	assert.Equal(t, []string{"30/20 kg"}, wod.Scaled)
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	_, err := Normalize(models.WOD{Date: "10/03/2026", Title: "Fran"})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = Normalize(models.WOD{Date: "2026-03-10", Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidWOD)
}

func TestFileStoreUpsertReplacesByDate(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestFileStore(t)

	_, created, err := store.Upsert(ctx, sampleWOD("2026-03-10"))
	require.NoError(t, err)
	assert.True(t, created)

	updated := sampleWOD("2026-03-10")
	updated.Title = "Grace"
	_, created, err = store.Upsert(ctx, updated)
	require.NoError(t, err)
	assert.False(t, created)

	_, _, err = store.Upsert(ctx, sampleWOD("2026-03-11"))
	require.NoError(t, err)

	wods, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, wods, 2)
	assert.Equal(t, "2026-03-11", wods[0].Date)
	assert.Equal(t, "Grace", wods[1].Title)
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	store, path := newTestFileStore(t)

	_, _, err := store.Upsert(ctx, sampleWOD("2026-03-10"))
	require.NoError(t, err)
	_, err = store.AddComment(ctx, "2026-03-10", "  new PR!  ")
	require.NoError(t, err)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	reopened, err := NewFileStore(path, logger.Nop())
	require.NoError(t, err)

	wod, err := reopened.Get(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, "Fran", wod.Title)

	comments, err := reopened.Comments(ctx, "2026-03-10")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "new PR!", comments[0].Text)
	assert.NotEmpty(t, comments[0].ID)
}

func TestFileStoreLoadsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wods.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	store, err := NewFileStore(path, logger.Nop())
	require.NoError(t, err)
	wods, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, wods)
}

func TestFileStoreCommentsOrderAndDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestFileStore(t)
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	_, err := store.AddComment(ctx, "2026-03-10", "no wod yet")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = store.Upsert(ctx, sampleWOD("2026-03-10"))
	require.NoError(t, err)

	first, err := store.AddComment(ctx, "2026-03-10", "first")
	require.NoError(t, err)
	_, err = store.AddComment(ctx, "2026-03-10", "second")
	require.NoError(t, err)

	_, err = store.AddComment(ctx, "2026-03-10", "   ")
	assert.ErrorIs(t, err, ErrInvalidComment)

	comments, err := store.Comments(ctx, "2026-03-10")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Text)

	removed, err := store.DeleteComment(ctx, "2026-03-10", first.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.DeleteComment(ctx, "2026-03-10", first.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFileStoreDeleteRemovesComments(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestFileStore(t)

	_, _, err := store.Upsert(ctx, sampleWOD("2026-03-10"))
	require.NoError(t, err)
	_, err = store.AddComment(ctx, "2026-03-10", "hello")
	require.NoError(t, err)

	removed, err := store.Delete(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = store.Get(ctx, "2026-03-10")
	assert.ErrorIs(t, err, ErrNotFound)
	comments, err := store.Comments(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Empty(t, comments)

	removed, err = store.Delete(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(Options{Backend: "sqlite"}, logger.Nop())
	assert.Error(t, err)

	_, err = New(Options{Backend: "redis"}, logger.Nop())
	assert.Error(t, err)
}

func TestNormalizeSectionEntryLimit(t *testing.T) {
	wod := models.WOD{Date: "2026-03-10", Title: "Murph"}
	wod.Metcon = make([]string, maxSectionEntries)
	for i := range wod.Metcon {
		wod.Metcon[i] = "1 mile run"
	}
	_, err := Normalize(wod)
	require.NoError(t, err)

	wod.Metcon = append(wod.Metcon, "100 pull-ups")
	_, err = Normalize(wod)
	assert.ErrorIs(t, err, ErrInvalidWOD)
}

func TestFileStoreCommentLengthCountsRunes(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestFileStore(t)
	_, _, err := store.Upsert(ctx, sampleWOD("2026-03-10"))
	require.NoError(t, err)

	comment, err := store.AddComment(ctx, "2026-03-10", strings.Repeat("é", maxCommentRunes))
	require.NoError(t, err)
	assert.Equal(t, maxCommentRunes, utf8.RuneCountInString(comment.Text))

	_, err = store.AddComment(ctx, "2026-03-10", strings.Repeat("é", maxCommentRunes+1))
	assert.ErrorIs(t, err, ErrInvalidComment)

	comments, err := store.Comments(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestFileStoreGetReturnsIndependentCopy(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestFileStore(t)
	_, _, err := store.Upsert(ctx, sampleWOD("2026-03-10"))
	require.NoError(t, err)

	wod, err := store.Get(ctx, "2026-03-10")
	require.NoError(t, err)
	wod.Warmup[0] = "burpees"

	listed, err := store.List(ctx)
	require.NoError(t, err)
	listed[0].Metcon[0] = "burpees"

	again, err := store.Get(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, "400m row", again.Warmup[0])
	assert.Equal(t, "21-15-9 thrusters and pull-ups", again.Metcon[0])
}

func TestFileStoreFailedWriteKeepsState(t *testing.T) {
	ctx := context.Background()
	store, path := newTestFileStore(t)
	_, _, err := store.Upsert(ctx, sampleWOD("2026-03-10"))
	require.NoError(t, err)

	// A directory in place of the temp file makes every save fail.
	require.NoError(t, os.MkdirAll(path+".tmp", 0o755))

	_, _, err = store.Upsert(ctx, sampleWOD("2026-03-11"))
	require.Error(t, err)
	_, err = store.Get(ctx, "2026-03-11")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.AddComment(ctx, "2026-03-10", "Sub 5")
	require.Error(t, err)
	comments, err := store.Comments(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Empty(t, comments)

	_, err = store.Delete(ctx, "2026-03-10")
	require.Error(t, err)
	_, err = store.Get(ctx, "2026-03-10")
	require.NoError(t, err)

	require.NoError(t, os.Remove(path+".tmp"))
	reopened, err := NewFileStore(path, logger.Nop())
	require.NoError(t, err)
	wods, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, wods, 1)
	assert.Equal(t, "2026-03-10", wods[0].Date)
}
