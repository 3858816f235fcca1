package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/core"
)

// MockStreamer is a test double for ai.ChatStreamer.
// By default it streams Fragments, or echoes the last message word by word.
type MockStreamer struct {
	// StreamFunc is called by Stream if set.
	StreamFunc func(ctx context.Context, messages []core.Turn, onFragment ai.FragmentFunc) (string, error)

	// Fragments are streamed in order by the default behavior when non-empty.
	Fragments []string

	mu    sync.Mutex
	calls [][]core.Turn
}

// NewMockStreamer creates a mock streamer with default echo behavior.
func NewMockStreamer() *MockStreamer {
	return &MockStreamer{}
}

// Stream records the messages and streams the configured fragments.
func (m *MockStreamer) Stream(ctx context.Context, messages []core.Turn, onFragment ai.FragmentFunc) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]core.Turn(nil), messages...))
	fn := m.StreamFunc
	fragments := m.Fragments
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages, onFragment)
	}

	if len(fragments) == 0 && len(messages) > 0 {
		for _, word := range strings.Fields(messages[len(messages)-1].Content) {
			fragments = append(fragments, word+" ")
		}
	}
	return StreamFragments(ctx, fragments, onFragment)
}

// StreamFragments delivers fragments to onFragment the way a real streamer
// does: empty fragments are skipped and the concatenation is returned.
func StreamFragments(ctx context.Context, fragments []string, onFragment ai.FragmentFunc) (string, error) {
	var full strings.Builder
	for _, f := range fragments {
		if err := ctx.Err(); err != nil {
			return full.String(), err
		}
		if f == "" {
			continue
		}
		if onFragment != nil {
			if err := onFragment(f); err != nil {
				return full.String(), err
			}
		}
		full.WriteString(f)
	}
	return full.String(), nil
}

// CallCount returns the number of times Stream was called.
func (m *MockStreamer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastMessages returns a copy of the messages of the most recent call.
func (m *MockStreamer) LastMessages() []core.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return append([]core.Turn(nil), m.calls[len(m.calls)-1]...)
}

// Reset clears the call history and custom behavior.
func (m *MockStreamer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.StreamFunc = nil
	m.Fragments = nil
}
