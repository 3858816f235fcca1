package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockExtractor(t *testing.T) {
	m := NewMockExtractor()

	result, report, err := m.Extract(context.Background(), ai.ExtractRequest{Document: []byte("doc")})
	require.NoError(t, err)
	assert.True(t, report.Complete())
	assert.Equal(t, "Mock Manuscript", result.Metadata.Title)
	assert.Equal(t, 1, m.CallCount())
	assert.Equal(t, []byte("doc"), m.LastRequest().Document)

	boom := errors.New("boom")
	m.ExtractFunc = func(context.Context, ai.ExtractRequest) (*core.Extraction, core.DecodeReport, error) {
		return nil, core.DecodeReport{}, boom
	}
	_, _, err = m.Extract(context.Background(), ai.ExtractRequest{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, m.CallCount())

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	assert.Nil(t, m.ExtractFunc)
}

func TestMockStreamer(t *testing.T) {
	t.Run("echo", func(t *testing.T) {
		m := NewMockStreamer()
		var got []string
		full, err := m.Stream(context.Background(), []core.Turn{{Role: core.RoleUser, Content: "hello there"}}, func(s string) error {
			got = append(got, s)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"hello ", "there "}, got)
		assert.Equal(t, "hello there ", full)
	})

	t.Run("fragments skip empty", func(t *testing.T) {
		m := NewMockStreamer()
		m.Fragments = []string{"a", "", "b"}
		full, err := m.Stream(context.Background(), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "ab", full)
		assert.Equal(t, 1, m.CallCount())
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		m := NewMockStreamer()
		m.Fragments = []string{"a"}
		_, err := m.Stream(ctx, nil, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	mp := p.(*MockProvider)

	assert.Same(t, mp.GetMockExtractor(), p.Extractor())
	assert.Same(t, mp.GetMockStreamer(), p.ChatStreamer())
	assert.Equal(t, "scan: q", p.Prompts().AugmentedPrompt("q", nil))
	assert.Equal(t, "context[a|b]: q", p.Prompts().AugmentedPrompt("q", []string{"a", "b"}))

	require.NoError(t, p.Close())
	assert.True(t, mp.Closed())
}
