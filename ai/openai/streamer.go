package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/core"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"
)

// ChatStreamer implements ai.ChatStreamer over a langchaingo streaming call.
type ChatStreamer struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

func newChatStreamer(client llms.Model, config *ai.Config) *ChatStreamer {
	return &ChatStreamer{
		client:      client,
		temperature: config.Temperature,
		logger:      slog.Default().With("component", "openai-streamer"),
	}
}

// NewChatStreamer creates a streaming chat client using the provided configuration.
func NewChatStreamer(config *ai.Config) (ai.ChatStreamer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newClient(config)
	if err != nil {
		return nil, err
	}
	return newChatStreamer(client, config), nil
}

// Stream issues the chat call and forwards each non-empty fragment to
// onFragment before adding it to the accumulated response.
func (s *ChatStreamer) Stream(ctx context.Context, messages []core.Turn, onFragment ai.FragmentFunc) (string, error) {
	if len(messages) == 0 {
		return "", core.ErrEmptyContent
	}

	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		role, err := messageType(m.Role)
		if err != nil {
			return "", err
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	var (
		full      strings.Builder
		fragments int
		aborted   error
		progress  = &rate.Sometimes{First: 1, Interval: 2 * time.Second}
	)
	stream := func(ctx context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}
		fragment := string(chunk)
		if onFragment != nil {
			if err := onFragment(fragment); err != nil {
				aborted = err
				return err
			}
		}
		full.WriteString(fragment)
		fragments++
		progress.Do(func() {
			s.logger.Debug("streaming response", "fragments", fragments, "chars", full.Len())
		})
		return nil
	}

	_, err := s.client.GenerateContent(ctx, content,
		llms.WithTemperature(s.temperature),
		llms.WithStreamingFunc(stream))
	if aborted != nil {
		s.logger.Debug("stream aborted by caller", "err", aborted, "fragments", fragments)
		return full.String(), aborted
	}
	if err != nil {
		s.logger.Error("stream error", "err", err, "fragments", fragments)
		return full.String(), fmt.Errorf("%w: %w", ai.ErrTransport, err)
	}

	s.logger.Debug("stream complete", "fragments", fragments, "chars", full.Len())
	return full.String(), nil
}

func messageType(role core.Role) (llms.ChatMessageType, error) {
	switch role {
	case core.RoleSystem:
		return llms.ChatMessageTypeSystem, nil
	case core.RoleUser:
		return llms.ChatMessageTypeHuman, nil
	case core.RoleAssistant:
		return llms.ChatMessageTypeAI, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrInvalidRole, role)
	}
}
