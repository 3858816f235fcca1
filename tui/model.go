// Package tui is the interactive terminal chat over one session.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/core"
)

// ChatPort is the part of the conversation service the TUI needs.
type ChatPort interface {
	ChatStream(ctx context.Context, sessionID, prompt string, lang core.Language, onChunk ai.FragmentFunc) error
}

// Options describe the session being chatted with.
type Options struct {
	SessionID string
	Title     string
	Author    string
	Language  core.Language
}

// fragmentMsg carries one streamed fragment.
type fragmentMsg struct {
	text   string
	stream <-chan tea.Msg
}

// doneMsg ends a stream.
type doneMsg struct {
	err error
}

type exchange struct {
	question string
	answer   string
	err      error
}

// Model is the Bubble Tea model for a chat session.
type Model struct {
	ctx  context.Context
	port ChatPort
	opts Options

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	exchanges []exchange
	streaming bool
	status    string
	ready     bool
}

// New creates a chat model.
func New(ctx context.Context, port ChatPort, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the manuscript and press Enter"
	ti.CharLimit = 0
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle))

	return Model{
		ctx:      ctx,
		port:     port,
		opts:     opts,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "Ready. Ctrl+C to quit.",
	}
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles keys, window size and stream messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := transcriptStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		height := msg.Height - 3 - fh - ih - 1
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, height)
		m.input.Width = max(10, msg.Width-6)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.streaming {
				return m, nil
			}
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.input.Reset()
			m.exchanges = append(m.exchanges, exchange{question: question})
			m.streaming = true
			m.status = "Thinking"
			m.refresh()
			return m, tea.Batch(m.ask(question), m.spinner.Tick)
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case fragmentMsg:
		if n := len(m.exchanges); n > 0 {
			m.exchanges[n-1].answer += msg.text
		}
		m.refresh()
		return m, waitForStream(msg.stream)

	case doneMsg:
		m.streaming = false
		if n := len(m.exchanges); n > 0 {
			m.exchanges[n-1].err = msg.err
		}
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = "Ready. Ctrl+C to quit."
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the header, transcript, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	status := statusStyle.Render(m.status)
	if m.streaming {
		status = m.spinner.View() + " " + status
	}
	return headerStyle.Render(m.header()) + "\n" +
		transcriptStyle.Render(m.viewport.View()) + "\n" +
		inputStyle.Render(m.input.View()) + "\n" +
		status
}

func (m Model) header() string {
	title := m.opts.Title
	if title == "" {
		title = "Untitled"
	}
	if m.opts.Author != "" {
		title += " by " + m.opts.Author
	}
	if m.opts.Language != "" {
		title += fmt.Sprintf(" [%s]", m.opts.Language.Name())
	}
	return title
}

// ask starts the stream in the background. Fragments and the final result
// come back as messages on the returned command chain.
func (m Model) ask(question string) tea.Cmd {
	stream := make(chan tea.Msg, 16)
	ctx, port, opts := m.ctx, m.port, m.opts
	go func() {
		defer close(stream)
		err := port.ChatStream(ctx, opts.SessionID, question, opts.Language, func(fragment string) error {
			select {
			case stream <- fragmentMsg{text: fragment, stream: stream}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		select {
		case stream <- doneMsg{err: err}:
		case <-ctx.Done():
		}
	}()
	return waitForStream(stream)
}

func waitForStream(stream <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-stream
		if !ok {
			return doneMsg{}
		}
		return msg
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.transcript())
	m.viewport.GotoBottom()
}

func (m Model) transcript() string {
	if len(m.exchanges) == 0 {
		return hintStyle.Render("No questions yet.")
	}
	var b strings.Builder
	for i, ex := range m.exchanges {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(userStyle.Render("You: "))
		b.WriteString(ex.question)
		b.WriteString("\n")
		b.WriteString(assistantStyle.Render("Folio: "))
		b.WriteString(ex.answer)
		if ex.err != nil {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render("(failed: " + ex.err.Error() + ")"))
		}
	}
	return lipgloss.NewStyle().Width(m.viewport.Width).Render(b.String())
}

// Run starts the full-screen chat and blocks until the user quits.
func Run(ctx context.Context, port ChatPort, opts Options) error {
	p := tea.NewProgram(New(ctx, port, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	assistantStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	spinnerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)
