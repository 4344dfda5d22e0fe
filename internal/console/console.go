// Package console is a terminal chat transport for running the bot without Telegram.
package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alkime/fictionbot/internal/bot"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// Handler processes one inbound message.
type Handler interface {
	Handle(ctx context.Context, msg bot.Message) []bot.Reply
}

// Renderer formats reply text for the terminal.
type Renderer func(text string) string

// PlainRenderer returns text unchanged.
func PlainRenderer(text string) string {
	return text
}

// NewGlamourRenderer renders replies as markdown wrapped at width columns.
// It falls back to plain text when rendering fails.
func NewGlamourRenderer(width int) (Renderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return func(text string) string {
		out, err := r.Render(text)
		if err != nil {
			return text
		}
		return strings.TrimRight(out, "\n")
	}, nil
}

type keyMap struct {
	Send key.Binding
	Quit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// repliesMsg carries the controller's answer to one message.
type repliesMsg struct {
	replies []bot.Reply
}

// progressMsg carries an interim notice emitted while a message is handled.
type progressMsg string

// Model is the bubbletea model of the chat.
type Model struct {
	ctx      context.Context
	handler  Handler
	senderID int64
	render   Renderer

	input    textarea.Model
	viewport viewport.Model
	working  working
	keys     keyMap

	transcript []string
	progress   chan string
	busy       bool
	ready      bool
}

// New creates the chat model. Messages are sent as senderID.
func New(ctx context.Context, handler Handler, senderID int64, render Renderer) *Model {
	if render == nil {
		render = PlainRenderer
	}

	ta := textarea.New()
	ta.Placeholder = "Type a command, e.g. /help"
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	return &Model{
		ctx:      ctx,
		handler:  handler,
		senderID: senderID,
		render:   render,
		input:    ta,
		working:  newWorking(),
		keys:     defaultKeyMap(),
		progress: make(chan string, 8),
	}
}

// Run starts the full-screen chat and blocks until the operator quits.
func Run(ctx context.Context, handler Handler, senderID int64, render Renderer) error {
	p := tea.NewProgram(New(ctx, handler, senderID, render), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run console: %w", err)
	}
	return nil
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.waitForProgress())
}

func (m *Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Send):
			return m, m.submit()
		}

	case progressMsg:
		m.working = m.working.relabel(string(msg))
		m.appendLine(Notice.Render(string(msg)))
		return m, m.waitForProgress()

	case repliesMsg:
		m.busy = false
		for _, r := range msg.replies {
			m.appendReply(r)
		}
		return m, nil

	}

	if m.busy {
		var cmd tea.Cmd
		if m.working, cmd = m.working.Update(teaMsg); cmd != nil {
			return m, cmd
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(teaMsg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(teaMsg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	if !m.ready {
		return "Starting..."
	}

	var sb strings.Builder

	sb.WriteString(Title.Render("Fiction Writing Bot"))
	sb.WriteString("\n")
	sb.WriteString(Viewport.Render(m.viewport.View()))
	sb.WriteString("\n")

	if m.busy {
		sb.WriteString(m.working.View(time.Now()))
		sb.WriteString("\n")
	} else {
		sb.WriteString("\n")
	}

	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	sb.WriteString(Help.Render(fmt.Sprintf("%s %s • alt+enter newline • %s %s",
		m.keys.Send.Help().Key, m.keys.Send.Help().Desc,
		m.keys.Quit.Help().Key, m.keys.Quit.Help().Desc)))

	return sb.String()
}

// Transcript returns everything shown so far.
func (m *Model) Transcript() string {
	return strings.Join(m.transcript, "\n\n")
}

func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.busy {
		return nil
	}

	m.input.Reset()
	m.busy = true
	m.working = m.working.start(time.Now())
	m.appendLine(Operator.Render("> " + text))

	ctx, handler, progress := m.ctx, m.handler, m.progress
	msg := bot.Message{
		SenderID: m.senderID,
		Text:     text,
		Progress: func(notice string) {
			select {
			case progress <- notice:
			default:
			}
		},
	}

	return tea.Batch(m.working.Tick(), func() tea.Msg {
		return repliesMsg{replies: handler.Handle(ctx, msg)}
	})
}

func (m *Model) waitForProgress() tea.Cmd {
	ch := m.progress
	return func() tea.Msg {
		return progressMsg(<-ch)
	}
}

func (m *Model) appendReply(r bot.Reply) {
	if r.Document != nil {
		m.appendLine(Attachment.Render(fmt.Sprintf("📎 %s (%d bytes)\n%s",
			r.Document.Name, len(r.Document.Bytes), r.Document.Caption)))
		return
	}
	m.appendLine(m.render(r.Text))
}

func (m *Model) appendLine(s string) {
	m.transcript = append(m.transcript, s)
	if m.ready {
		m.viewport.SetContent(m.Transcript())
		m.viewport.GotoBottom()
	}
}

func (m *Model) resize(width, height int) {
	// Title, spinner line, input, help and the viewport border.
	chrome := 1 + 1 + m.input.Height() + 1 + 2
	vpHeight := max(height-chrome-1, 3)
	vpWidth := max(width-4, 10)

	if !m.ready {
		m.viewport = viewport.New(vpWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = vpWidth
		m.viewport.Height = vpHeight
	}
	m.input.SetWidth(max(width-2, 10))

	m.viewport.SetContent(m.Transcript())
	m.viewport.GotoBottom()
}
