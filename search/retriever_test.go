package search

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRetriever(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		r, err := NewRetriever()
		require.NoError(t, err)
		assert.Equal(t, DefaultTopK, r.TopK())
	})

	t.Run("with custom logger", func(t *testing.T) {
		r, err := NewRetriever(WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, r)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		r, err := NewRetriever(WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, r.logger)
	})

	t.Run("invalid topK", func(t *testing.T) {
		_, err := NewRetriever(WithTopK(0))
		assert.Equal(t, ErrInvalidTopK, err)
	})

	t.Run("negative weights", func(t *testing.T) {
		_, err := NewRetriever(WithMinScore(-1))
		assert.Equal(t, ErrInvalidWeight, err)
		_, err = NewRetriever(WithMatchPoints(-1))
		assert.Equal(t, ErrInvalidWeight, err)
		_, err = NewRetriever(WithAuthorBoost(-1))
		assert.Equal(t, ErrInvalidWeight, err)
	})

	t.Run("negative token length", func(t *testing.T) {
		_, err := NewRetriever(WithTokenMinLength(-1))
		assert.Equal(t, ErrInvalidTokenLength, err)
	})
}

func TestRetrieve_EmptyChunks(t *testing.T) {
	monitor := &recordingMonitor{}
	r, err := NewRetriever(WithMonitor(monitor))
	require.NoError(t, err)

	results := r.Retrieve("anything about solitude", nil)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.False(t, monitor.started, "no scoring should happen for an empty chunk set")
}

func TestRetrieve_NoMatchingTokens(t *testing.T) {
	r, err := NewRetriever()
	require.NoError(t, err)

	chunks := []string{"The pond was frozen.", "Economy of living."}
	assert.Empty(t, r.Retrieve("quantum chromodynamics", chunks))
}

func TestRetrieve_ShortTokensIgnored(t *testing.T) {
	r, err := NewRetriever(WithMinScore(1))
	require.NoError(t, err)

	// Every query token has three characters or fewer.
	chunks := []string{"the cat sat on the mat"}
	assert.Empty(t, r.Retrieve("the cat sat", chunks))
}

func TestRetrieve_ScoreFloor(t *testing.T) {
	r, err := NewRetriever()
	require.NoError(t, err)

	chunks := []string{
		"Walden pond in winter, covered with snow.",
		"Only the pond is mentioned here.",
		"Nothing relevant.",
	}

	results := r.RetrieveScored("walden pond", chunks)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, 4, results[0].Score)
}

func TestRetrieve_CaseInsensitiveSubstring(t *testing.T) {
	r, err := NewRetriever()
	require.NoError(t, err)

	chunks := []string{"SOLITUDE and Simplicity are virtues"}
	results := r.RetrieveScored("solitude SIMPLICITY", chunks)
	require.Len(t, results, 1)
	assert.Equal(t, 4, results[0].Score)

	// substring match: "simple" is contained in "simplest"
	results = r.RetrieveScored("simple solitude", []string{"the simplest solitude"})
	require.Len(t, results, 1)
}

func TestRetrieve_RepeatedTokensCountTwice(t *testing.T) {
	r, err := NewRetriever()
	require.NoError(t, err)

	results := r.RetrieveScored("pond pond", []string{"a pond"})
	require.Len(t, results, 1)
	assert.Equal(t, 4, results[0].Score)
}

func TestRetrieve_OrderingAndTopK(t *testing.T) {
	r, err := NewRetriever(WithTopK(2))
	require.NoError(t, err)

	chunks := []string{
		"alpha beta",              // 4
		"alpha beta gamma delta",  // 8
		"alpha beta gamma",        // 6
		"alpha beta gamma delta!", // 8, after chunk 1
	}

	results := r.RetrieveScored("alpha beta gamma delta", chunks)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Index)
	assert.Equal(t, 3, results[1].Index)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestRetrieve_StableTies(t *testing.T) {
	r, err := NewRetriever(WithTopK(10))
	require.NoError(t, err)

	chunks := []string{"walden pond", "pond walden", "walden pond again"}
	results := r.RetrieveScored("walden pond", chunks)
	require.Len(t, results, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{results[0].Index, results[1].Index, results[2].Index})
}

func TestRetrieve_AuthorBoost(t *testing.T) {
	r, err := NewRetriever()
	require.NoError(t, err)

	chunks := []string{
		"WALDEN; or, LIFE IN THE WOODS. By Henry David Thoreau.",
		"When I wrote the following pages, or rather the bulk of them...",
	}

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "english", query: "Who is the author?", want: 5},
		{name: "arabic writer", query: "من هو الكاتب؟", want: 5},
		{name: "arabic author", query: "من المؤلف", want: 5},
		{name: "not an author question", query: "who", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := r.RetrieveScored(tt.query, chunks)
			if tt.want == 0 {
				assert.Empty(t, results)
				return
			}
			require.NotEmpty(t, results)
			assert.Equal(t, 0, results[0].Index)
			assert.GreaterOrEqual(t, results[0].Score, tt.want)
		})
	}
}

func TestRetrieve_AuthorBoostOnlyFirstPosition(t *testing.T) {
	r, err := NewRetriever(WithTopK(5), WithMinScore(1))
	require.NoError(t, err)

	// Identical text at positions 0 and 1: only position 0 is boosted.
	chunks := []string{"same text", "same text"}
	results := r.RetrieveScored("author", chunks)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Index)
}

func TestRetrieve_CustomWeights(t *testing.T) {
	r, err := NewRetriever(WithMatchPoints(1), WithMinScore(1), WithAuthorWords("writer"), WithTokenMinLength(2))
	require.NoError(t, err)

	results := r.RetrieveScored("the writer", []string{"the title page", "by the writer"})
	require.Len(t, results, 2)
	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, 1+DefaultAuthorBoost, results[0].Score)
	assert.Equal(t, 1, results[1].Index)
	assert.Equal(t, 2, results[1].Score)
}

func TestRetrieve_Monitor(t *testing.T) {
	monitor := &recordingMonitor{}
	r, err := NewRetriever(WithMonitor(monitor))
	require.NoError(t, err)

	chunks := []string{strings.Repeat("pond ", 10), "woods"}
	r.Retrieve("pond woods author", chunks)

	assert.True(t, monitor.started)
	assert.True(t, monitor.authorQuery)
	assert.Equal(t, []string{"pond", "woods", "author"}, monitor.tokens)
	assert.Len(t, monitor.scores, 2)
	assert.True(t, monitor.finished)
}

type recordingMonitor struct {
	started     bool
	finished    bool
	authorQuery bool
	tokens      []string
	scores      map[int]int
}

func (m *recordingMonitor) Start(_ string, tokens []string, authorQuery bool) {
	m.started = true
	m.tokens = tokens
	m.authorQuery = authorQuery
	m.scores = map[int]int{}
}

func (m *recordingMonitor) Scored(index, score int) {
	m.scores[index] = score
}

func (m *recordingMonitor) Finish(_ []Scored) {
	m.finished = true
}
