package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/folio/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleExtraction() *core.Extraction {
	return &core.Extraction{
		Axioms:   []core.Axiom{{Term: "Virtue", Definition: "Excellence", Significance: "Thesis"}},
		Snippets: []string{"one", "two"},
		Metadata: core.Metadata{Title: "Ethics", Author: "Aristotle"},
		FullText: "text",
	}
}

func TestNew(t *testing.T) {
	s := New("id-1")
	assert.Equal(t, "id-1", s.ID())
	assert.Equal(t, core.LanguageEnglish, s.Language())
	assert.Empty(t, s.History())
	assert.Empty(t, s.Snippets())
	assert.False(t, s.Ingested())
}

func TestResetForNewDocument(t *testing.T) {
	s := New("id")
	s.BeginDocument("ethics.pdf", []byte("%PDF"), core.LanguageArabic)
	assert.Equal(t, []byte("%PDF"), s.Document())

	_, err := s.AppendTurn(core.RoleUser, "old question")
	require.NoError(t, err)

	docID := core.IDFromContent([]byte("%PDF"))
	s.ResetForNewDocument(docID, sampleExtraction(), []string{"c1", "c2"})

	assert.Nil(t, s.Document(), "raw bytes are released")
	assert.Empty(t, s.History(), "history is cleared")
	assert.Equal(t, []string{"one", "two"}, s.Snippets())
	assert.Equal(t, "Aristotle", s.Metadata().Author)
	assert.Equal(t, []string{"c1", "c2"}, s.Chunks())
	assert.Equal(t, "text", s.FullText())
	assert.Len(t, s.Axioms(), 1)
	assert.Equal(t, docID, s.DocumentID())
	assert.Equal(t, "ethics.pdf", s.DocumentName())
	assert.Equal(t, core.LanguageArabic, s.Language())
	assert.True(t, s.Ingested())
}

func TestReleaseDocument_KeepsPriorDocument(t *testing.T) {
	s := New("id")
	s.BeginDocument("first.pdf", []byte("%PDF-1"), core.LanguageFrench)
	s.ResetForNewDocument(1, sampleExtraction(), []string{"c1"})
	_, err := s.AppendTurn(core.RoleUser, "q")
	require.NoError(t, err)

	s.BeginDocument("second.pdf", []byte("%PDF-2"), core.LanguageGerman)
	s.ReleaseDocument()

	assert.Nil(t, s.Document())
	assert.Equal(t, "first.pdf", s.DocumentName())
	assert.Equal(t, core.LanguageFrench, s.Language())
	assert.Equal(t, core.ID(1), s.DocumentID())
	assert.Len(t, s.History(), 1)
	assert.Equal(t, []string{"c1"}, s.Chunks())
}

func TestResetForNewDocument_ReplacesWholesale(t *testing.T) {
	s := New("id")
	s.ResetForNewDocument(1, sampleExtraction(), []string{"c1"})
	s.ResetForNewDocument(2, &core.Extraction{}, nil)

	assert.Empty(t, s.Snippets())
	assert.Empty(t, s.Axioms())
	assert.True(t, s.Metadata().IsZero())
	assert.Empty(t, s.Chunks())
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := New("id")
	s.ResetForNewDocument(1, sampleExtraction(), []string{"c1"})

	snippets := s.Snippets()
	snippets[0] = "changed"
	assert.Equal(t, "one", s.Snippets()[0])

	chunks := s.Chunks()
	chunks[0] = "changed"
	assert.Equal(t, "c1", s.Chunks()[0])
}

func TestAppendTurn(t *testing.T) {
	s := New("id")

	turn, err := s.AppendTurn(core.RoleUser, "hello")
	require.NoError(t, err)
	assert.Equal(t, core.TurnComplete, turn.Status)
	assert.False(t, turn.At.IsZero())

	_, err = s.AppendTurn(core.RoleAssistant, "")
	require.NoError(t, err, "an empty assistant answer is allowed")

	_, err = s.AppendTurn(core.RoleUser, "")
	assert.ErrorIs(t, err, core.ErrInvalidTurn)

	_, err = s.AppendTurn("narrator", "x")
	assert.ErrorIs(t, err, core.ErrInvalidRole)

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, core.RoleUser, history[0].Role)
	assert.Equal(t, core.RoleAssistant, history[1].Role)
}

func TestMarkLastFailedAndRollback(t *testing.T) {
	s := New("id")
	assert.ErrorIs(t, s.MarkLastFailed(), ErrNoFailedTurn)
	assert.ErrorIs(t, s.RollbackLastTurn(), ErrNoFailedTurn)

	_, err := s.AppendTurn(core.RoleUser, "q1")
	require.NoError(t, err)
	require.NoError(t, s.MarkLastFailed())

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, core.TurnFailed, history[0].Status)

	_, err = s.AppendTurn(core.RoleUser, "q2")
	require.NoError(t, err)
	require.NoError(t, s.RollbackLastTurn())
	assert.Len(t, s.History(), 1)

	_, err = s.AppendTurn(core.RoleAssistant, "a")
	require.NoError(t, err)
	assert.ErrorIs(t, s.MarkLastFailed(), ErrNoFailedTurn)
}

func TestWindow(t *testing.T) {
	s := New("id")
	add := func(role core.Role, content string) {
		_, err := s.AppendTurn(role, content)
		require.NoError(t, err)
	}
	add(core.RoleUser, "q1")
	add(core.RoleAssistant, "a1")
	add(core.RoleUser, "q2")
	require.NoError(t, s.MarkLastFailed())
	add(core.RoleUser, "q3")
	add(core.RoleAssistant, "a3")

	contents := func(turns []core.Turn) []string {
		out := make([]string, 0, len(turns))
		for _, t := range turns {
			out = append(out, t.Content)
		}
		return out
	}

	tests := []struct {
		name     string
		max      int
		expected []string
	}{
		{name: "unlimited skips failed", max: 0, expected: []string{"q1", "a1", "q3", "a3"}},
		{name: "negative is unlimited", max: -1, expected: []string{"q1", "a1", "q3", "a3"}},
		{name: "last two", max: 2, expected: []string{"q3", "a3"}},
		{name: "never opens on assistant", max: 3, expected: []string{"q3", "a3"}},
		{name: "larger than history", max: 10, expected: []string{"q1", "a1", "q3", "a3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, contents(s.Window(tt.max)))
		})
	}

	// Stored history keeps everything.
	assert.Len(t, s.History(), 5)
}

func TestLock(t *testing.T) {
	s := New("id")

	unlock, err := s.Lock(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Lock(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // idempotent

	unlock2, err := s.Lock(context.Background())
	require.NoError(t, err)
	unlock2()
}

func TestConcurrentAppends(t *testing.T) {
	s := New("id")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AppendTurn(core.RoleUser, "q")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, s.History(), 50)
}

func TestSnapshotRestore(t *testing.T) {
	s := New("id")
	s.BeginDocument("ethics.pdf", []byte("%PDF"), core.LanguageFrench)
	s.ResetForNewDocument(42, sampleExtraction(), []string{"c1"})
	_, err := s.AppendTurn(core.RoleUser, "q")
	require.NoError(t, err)
	require.NoError(t, s.MarkLastFailed())

	record := s.Snapshot()
	assert.Equal(t, "id", record.ID)
	assert.Equal(t, core.ID(42), record.DocumentID)
	assert.Equal(t, core.LanguageFrench, record.Language)
	assert.False(t, record.IngestedAt.IsZero())

	restored, err := Restore(record)
	require.NoError(t, err)
	assert.Equal(t, s.History(), restored.History())
	assert.Equal(t, s.Snippets(), restored.Snippets())
	assert.Equal(t, s.Chunks(), restored.Chunks())
	assert.Equal(t, s.Metadata(), restored.Metadata())
	assert.Equal(t, "ethics.pdf", restored.DocumentName())
	assert.True(t, restored.Ingested())
	assert.Nil(t, restored.Document())
}

func TestRestore_Invalid(t *testing.T) {
	_, err := Restore(nil)
	assert.Error(t, err)

	record := New("id").Snapshot()
	record.History = []core.Turn{{Role: "bot", Content: "x"}}
	_, err = Restore(record)
	assert.ErrorIs(t, err, core.ErrInvalidRole)
}
