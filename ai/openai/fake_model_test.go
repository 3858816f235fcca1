package openai

import (
	"context"
	"errors"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// fakeModel is an in-package llms.Model that records requests and replays
// canned responses or stream fragments.
type fakeModel struct {
	mu        sync.Mutex
	calls     []fakeCall
	content   string
	noChoices bool
	fragments []string
	err       error
}

type fakeCall struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}

	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{messages: messages, opts: opts})
	f.mu.Unlock()

	var streamed string
	if opts.StreamingFunc != nil {
		for _, fragment := range f.fragments {
			if err := opts.StreamingFunc(ctx, []byte(fragment)); err != nil {
				return nil, err
			}
			streamed += fragment
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.noChoices {
		return &llms.ContentResponse{}, nil
	}
	content := f.content
	if opts.StreamingFunc != nil {
		content = streamed
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not supported")
}

func (f *fakeModel) lastCall() fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
