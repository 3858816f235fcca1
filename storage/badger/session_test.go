package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) storage.SessionRepository {
	t.Helper()
	repo, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleRecord(id string) *storage.SessionRecord {
	return &storage.SessionRecord{
		ID:           id,
		DocumentID:   core.IDFromContent([]byte(id)),
		DocumentName: id + ".pdf",
		Language:     core.LanguageEnglish,
		History: []core.Turn{
			{Role: core.RoleUser, Content: "question", Status: core.TurnComplete},
			{Role: core.RoleAssistant, Content: "answer", Status: core.TurnComplete},
		},
		Chunks:   []string{"chunk"},
		FullText: "full text",
		Axioms:   []core.Axiom{{Term: "t", Definition: "d", Significance: "s"}},
		Metadata: core.Metadata{Title: "Title " + id},
		Snippets: []string{"snippet"},
	}
}

func TestSessionRepository_SaveAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	record := sampleRecord("s1")
	require.NoError(t, repo.SaveSession(ctx, record))
	assert.False(t, record.CreatedAt.IsZero())
	assert.False(t, record.UpdatedAt.IsZero())

	got, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, record.History, got.History)
	assert.Equal(t, record.Axioms, got.Axioms)
	assert.Equal(t, record.DocumentID, got.DocumentID)
	assert.Equal(t, "Title s1", got.Metadata.Title)
}

func TestSessionRepository_SaveReplaces(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	record := sampleRecord("s1")
	require.NoError(t, repo.SaveSession(ctx, record))
	created := record.CreatedAt

	record.History = append(record.History, core.Turn{Role: core.RoleUser, Content: "again"})
	require.NoError(t, repo.SaveSession(ctx, record))

	got, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, got.History, 3)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestSessionRepository_NotFound(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = repo.DeleteSession(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSessionRepository_InvalidID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	assert.ErrorIs(t, repo.SaveSession(ctx, &storage.SessionRecord{}), storage.ErrInvalidID)
	assert.ErrorIs(t, repo.SaveSession(ctx, nil), storage.ErrInvalidID)
	_, err := repo.GetSession(ctx, " ")
	assert.ErrorIs(t, err, storage.ErrInvalidID)
	assert.ErrorIs(t, repo.DeleteSession(ctx, ""), storage.ErrInvalidID)
}

func TestSessionRepository_Delete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveSession(ctx, sampleRecord("s1")))
	require.NoError(t, repo.DeleteSession(ctx, "s1"))

	_, err := repo.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSessionRepository_List(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	empty, err := repo.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		record := sampleRecord(id)
		record.UpdatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.SaveSession(ctx, record))
	}
	// A later change to "a" makes it the most recent, whenever it is saved.
	a, err := repo.GetSession(ctx, "a")
	require.NoError(t, err)
	a.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, repo.SaveSession(ctx, a))

	summaries, err := repo.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "a", summaries[0].ID)
	assert.Equal(t, "c", summaries[1].ID)
	assert.Equal(t, "b", summaries[2].ID)
	assert.Equal(t, 2, summaries[0].Turns)
	assert.Equal(t, "a.pdf", summaries[0].DocumentName)
}

func TestSessionRepository_SaveKeepsUpdatedAt(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	changed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	late := sampleRecord("late")
	late.UpdatedAt = changed
	require.NoError(t, repo.SaveSession(ctx, late))

	fresh := sampleRecord("fresh")
	require.NoError(t, repo.SaveSession(ctx, fresh))
	assert.Equal(t, fresh.CreatedAt, fresh.UpdatedAt)

	got, err := repo.GetSession(ctx, "late")
	require.NoError(t, err)
	assert.True(t, changed.Equal(got.UpdatedAt), "save time must not replace the session's own timestamp")

	summaries, err := repo.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "fresh", summaries[0].ID)
}

func TestSessionRepository_SharedBackend(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	repo, err := NewSessionRepository(backend)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// The backend stays open for other users.
	assert.False(t, backend.IsClosed())

	_, err = NewSessionRepository(nil)
	assert.Error(t, err)
}

func TestSessionRepository_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := OpenSessionRepository(dir, false)
	require.NoError(t, err)
	require.NoError(t, repo.SaveSession(ctx, sampleRecord("durable")))
	require.NoError(t, repo.Close())

	reopened, err := OpenSessionRepository(dir, false)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetSession(ctx, "durable")
	require.NoError(t, err)
	assert.Equal(t, "full text", got.FullText)
}
