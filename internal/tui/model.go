package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/readalong/internal/models"
	"github.com/diogo/readalong/internal/render"
	"github.com/diogo/readalong/internal/session"
)

// Message types for the TUI
type (
	// replyMsg carries the result of a finished turn. turn guards against
	// results of a turn the user already abandoned.
	replyMsg struct {
		turn  int
		reply models.Message
	}
	errMsg struct {
		turn int
		err  error
	}
)

// ChatSession is what the chat needs from a session
type ChatSession interface {
	ID() string
	Submit(ctx context.Context, utterance string) (models.Message, error)
	All() []models.Message
	LastReply() (string, bool)
}

// Model represents the TUI state
type Model struct {
	ctx       context.Context
	session   ChatSession
	modelName string
	markdown  render.Options
	copyText  func(string) error

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	loading bool
	turn    int
	cancel  context.CancelFunc
	pending string
	ready   bool
	err     error
	notice  string

	// transcript length when the pending turn was sent
	pendingLen int

	width  int
	height int
}

// Option configures the chat model
type Option func(*Model)

// WithMarkdown sets the markdown options for assistant replies
func WithMarkdown(opts render.Options) Option {
	return func(m *Model) {
		m.markdown = opts
	}
}

// WithClipboard replaces the clipboard writer used by /copy
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) {
		m.copyText = fn
	}
}

// NewChatModel creates a new chat TUI model
func NewChatModel(ctx context.Context, session ChatSession, modelName string, opts ...Option) Model {
	ta := textarea.New()
	ta.Placeholder = "Paste a story (or part of one) and press Enter..."
	ta.CharLimit = 16000
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = loadingStyle

	m := Model{
		ctx:       ctx,
		session:   session,
		modelName: modelName,
		markdown:  render.DefaultOptions(),
		copyText:  clipboard.WriteAll,
		textarea:  ta,
		spinner:   s,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.abortTurn()
			return m, tea.Quit

		case tea.KeyEsc:
			if m.loading {
				if m.abortTurn() {
					m.notice = "Cancelled. The story is back in the input box."
				} else {
					m.notice = "The reply arrived before the turn could be cancelled."
				}
				m.updateViewport()
				m.viewport.GotoBottom()
				return m, nil
			}
			return m, tea.Quit

		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			return m.handleInput()
		}

	case replyMsg:
		if msg.turn != m.turn {
			return m, nil
		}
		m.finishTurn()
		m.updateViewport()
		m.viewport.GotoBottom()

	case errMsg:
		if msg.turn != m.turn {
			return m, nil
		}
		input := m.pending
		m.finishTurn()
		if !errors.Is(msg.err, context.Canceled) {
			m.err = msg.err
		}
		m.textarea.SetValue(input)
		m.updateViewport()

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Only keys reach the textarea, and only while idle
	if _, ok := msg.(tea.KeyMsg); ok && !m.loading {
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleInput acts on the text in the input box after Enter
func (m Model) handleInput() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		m.textarea.Reset()
		return m, nil
	}

	switch input {
	case "/exit", "/quit":
		return m, tea.Quit
	case "/copy":
		m.textarea.Reset()
		m.copyLastReply()
		return m, nil
	}
	if input == "/save" || strings.HasPrefix(input, "/save ") {
		m.textarea.Reset()
		m.saveTranscript(strings.TrimSpace(strings.TrimPrefix(input, "/save")))
		return m, nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.turn++
	m.loading = true
	m.pending = input
	m.pendingLen = len(m.session.All())
	m.err = nil
	m.notice = ""
	m.textarea.Reset()
	m.updateViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(m.submit(ctx, m.turn, input), m.spinner.Tick)
}

func (m *Model) copyLastReply() {
	reply, ok := m.session.LastReply()
	if !ok {
		m.notice = "Nothing to copy yet."
		return
	}
	if err := m.copyText(reply); err != nil {
		m.err = fmt.Errorf("copy to clipboard: %w", err)
		return
	}
	m.notice = "Last reply copied to the clipboard."
}

// saveTranscript writes the conversation to path; the extension picks the format
func (m *Model) saveTranscript(path string) {
	messages := m.session.All()
	if len(messages) == 0 {
		m.notice = "Nothing to save yet."
		return
	}
	if path == "" {
		path = fmt.Sprintf("readalong-%s.md", time.Now().Format("20060102-150405"))
	}

	transcript := session.Transcript{
		SessionID:  m.session.ID(),
		Model:      m.modelName,
		ExportedAt: time.Now(),
		Messages:   messages,
	}
	data, err := transcript.Export(session.FormatForPath(path))
	if err == nil {
		err = os.WriteFile(path, data, 0o644)
	}
	if err != nil {
		m.err = fmt.Errorf("save transcript: %w", err)
		return
	}
	m.notice = "Transcript saved to " + path
}

// abortTurn cancels the in-flight turn. The text goes back in the input only
// when the turn has not already landed in the transcript; it reports whether
// it did so.
func (m *Model) abortTurn() bool {
	if !m.loading {
		return false
	}
	input := m.pending
	landed := len(m.session.All()) > m.pendingLen
	m.cancel()
	m.turn++
	m.finishTurn()
	if landed {
		m.textarea.Reset()
		return false
	}
	m.textarea.SetValue(input)
	return true
}

func (m *Model) finishTurn() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.loading = false
	m.pending = ""
}

// submit runs one turn in the background
func (m Model) submit(ctx context.Context, turn int, input string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		reply, err := session.Submit(ctx, input)
		if err != nil {
			return errMsg{turn: turn, err: err}
		}
		return replyMsg{turn: turn, reply: reply}
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 3
	inputHeight := 7
	statusHeight := 2
	vpHeight := height - headerHeight - inputHeight - statusHeight - 2
	if vpHeight < 5 {
		vpHeight = 5
	}
	contentWidth := width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)
	m.updateViewport()
}

// updateViewport redraws the transcript plus the pending user message
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	bubbleWidth := m.viewport.Width - 6
	var content strings.Builder

	for _, msg := range m.session.All() {
		content.WriteString(m.renderMessage(msg, bubbleWidth))
		content.WriteString("\n")
	}
	if m.pending != "" {
		content.WriteString(userLabelStyle.Render("You"))
		content.WriteString("\n")
		content.WriteString(pendingStyle.Width(bubbleWidth).Render(m.pending))
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

func (m Model) renderMessage(msg models.Message, width int) string {
	if msg.Role == models.RoleUser {
		return userLabelStyle.Render("You") + "\n" +
			userBubbleStyle.Width(width).Render(msg.Content)
	}

	rendered := render.MarkdownOrPlain(msg.Content, m.markdown.WithWidth(width-4))
	return assistantLabelStyle.Render("Assistant") + "\n" +
		assistantBubbleStyle.Width(width).Render(rendered)
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Starting...")
	}

	contentWidth := m.width - 4
	var sections []string

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("readalong"),
		subtitleStyle.Render("  ·  "+m.modelName),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(header))

	body := m.viewport.View()
	if len(m.session.All()) == 0 && m.pending == "" {
		body = m.renderWelcome()
	}
	sections = append(sections, messagesAreaStyle.Width(contentWidth).Height(m.viewport.Height).Render(body))

	var input string
	if m.loading {
		input = m.spinner.View() + loadingStyle.Render(" The assistant is reading the story...") +
			subtitleStyle.Render("  (Esc to cancel)")
	} else {
		input = lipgloss.JoinVertical(lipgloss.Left, inputLabelStyle.Render("Story"), m.textarea.View())
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(input))

	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	} else if m.notice != "" {
		sections = append(sections, noticeStyle.Render(m.notice))
	}

	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 2
	lines := []string{
		"",
		welcomeTitleStyle.Width(width).Render("Read a story together"),
		"",
		welcomeStyle.Width(width).Render("Paste a children's story below. The assistant answers with"),
		welcomeStyle.Width(width).Render("five questions to talk about after reading."),
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStatusBar(width int) string {
	shortcuts := [][2]string{
		{"Enter", "Send"},
		{"Esc", "Cancel/Quit"},
		{"/copy", "Copy reply"},
		{"/save", "Save"},
		{"↑↓", "Scroll"},
	}

	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s[0])+statusDescStyle.Render(" "+s[1]))
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// RunChat starts the chat TUI and blocks until the user quits
func RunChat(ctx context.Context, session ChatSession, modelName string, opts ...Option) error {
	m := NewChatModel(ctx, session, modelName, opts...)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
