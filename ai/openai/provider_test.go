package openai

import (
	"testing"

	"github.com/poiesic/folio/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_MissingCredential(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	provider, err := NewProvider(ai.DefaultConfig())
	assert.ErrorIs(t, err, ai.ErrMissingCredential)
	assert.Nil(t, provider)
}

func TestNewProvider_PlaceholderCredential(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "undefined")

	_, err := NewProvider(ai.DefaultConfig())
	assert.ErrorIs(t, err, ai.ErrMissingCredential)

	_, err = NewExtractor(ai.DefaultConfig())
	assert.ErrorIs(t, err, ai.ErrMissingCredential)

	_, err = NewChatStreamer(ai.DefaultConfig())
	assert.ErrorIs(t, err, ai.ErrMissingCredential)
}

func TestNewProvider(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")

	provider, err := NewProvider(ai.DefaultConfig())
	require.NoError(t, err)
	defer provider.Close()

	assert.NotNil(t, provider.Extractor())
	assert.NotNil(t, provider.ChatStreamer())
	assert.IsType(t, Prompts{}, provider.Prompts())
}
