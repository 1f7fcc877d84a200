package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViniZap4/lumi-notes/domain"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func TestDecodeEncode(t *testing.T) {
	note := domain.Note{
		ID:        "n1",
		Title:     "Groceries",
		Content:   "milk\n---\neggs",
		Tags:      []string{"home"},
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
	}
	data, err := Encode(note)
	require.NoError(t, err)
	assert.Contains(t, string(data), "created_at:")

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, note, got)
}

func TestDecodeRejectsMissingFrontmatter(t *testing.T) {
	_, err := Decode([]byte("# just markdown"))
	assert.Error(t, err)

	_, err = Decode([]byte("---\ntitle: [unterminated\n---\nbody"))
	assert.Error(t, err)
}

func TestDecodeKeepsBodyVerbatim(t *testing.T) {
	for _, content := range []string{"    code block\n", "\n\nlead and trail\n\n", "", "---\nnot a fence for the frontmatter"} {
		data, err := Encode(domain.Note{ID: "n1", Title: "t", Content: content})
		require.NoError(t, err)
		got, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, content, got.Content)
	}
}

func TestDecodeFenceIsAWholeLine(t *testing.T) {
	got, err := Decode([]byte("---\r\ntitle: a---b\r\n---\r\nbody"))
	require.NoError(t, err)
	assert.Equal(t, "a---b", got.Title)
	assert.Equal(t, "body", got.Content)

	_, err = Decode([]byte("---\ntitle: never closed\n--- \nbody"))
	assert.Error(t, err)
}

func TestStoreRoundTripsDashes(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, domain.NoteInput{Title: "Q1---Q2", Content: "body", Tags: []string{"x", "a---b", "---"}})
	require.NoError(t, err)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q1---Q2", got.Title)
	assert.Equal(t, []string{"x", "a---b", "---"}, got.Tags)
	assert.Equal(t, "body", got.Content)

	updated, err := s.Update(ctx, created.ID, domain.NoteInput{Title: "Q1---Q2", Content: "    indented\n"})
	require.NoError(t, err)
	got, err = s.Get(ctx, updated.ID)
	require.NoError(t, err)
	assert.Equal(t, "    indented\n", got.Content)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)
}

func TestStoreCRUD(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, domain.NoteInput{Title: "  First ", Content: "body", Tags: []string{"a", " "}})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "First", created.Title)
	assert.Equal(t, []string{"a"}, created.Tags)
	assert.FileExists(t, filepath.Join(s.Dir(), created.ID+".md"))

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "body", got.Content)

	updated, err := s.Update(ctx, created.ID, domain.NoteInput{Title: "Renamed", Content: "new"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, []string{"a"}, updated.Tags, "nil tags keep existing ones")
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	require.NoError(t, s.Delete(ctx, created.ID))
	_, err = s.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, created.ID), domain.ErrNotFound)
}

func TestStoreListsNewestFirst(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"one", "two", "three"} {
		n, err := s.Create(ctx, domain.NoteInput{Title: title})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "broken.md"), []byte("no frontmatter"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "readme.txt"), []byte("ignored"), 0o644))

	notes, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{notes[0].ID, notes[1].ID, notes[2].ID})
}

func TestStoreValidates(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, domain.NoteInput{Title: "   "})
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = s.Get(ctx, "../escape")
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}
