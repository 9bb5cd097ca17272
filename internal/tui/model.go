package tui

import (
	"context"
	"fmt"
	"strings"

	"careconnect/internal/dto"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ChatPort is the TUI-facing subset of the chat API.
type ChatPort interface {
	Ask(ctx context.Context, question string) (*dto.AskResponse, error)
	UpdateSettings(ctx context.Context, settings dto.SettingsDTO) error
	ClearHistory(ctx context.Context) error
}

type line struct {
	role string
	text string
}

type answerMsg struct {
	res *dto.AskResponse
	err error
}

type settingsMsg struct {
	settings dto.SettingsDTO
	err      error
}

type clearedMsg struct{ err error }

// Model is the Bubble Tea model for the terminal chat.
type Model struct {
	chat     ChatPort
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	settings dto.SettingsDTO
	lines    []line
	status   string
	waiting  bool
	ready    bool
}

func New(chat ChatPort, settings dto.SettingsDTO) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What do you want to know about your products?"
	ti.Focus()
	ti.CharLimit = 4000
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		chat:     chat,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		settings: settings,
		status:   "Type a question. /rag, /model <name>, /category <name>, /clear, /quit",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + settings, status, input box, spacer
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-ch)
		m.refresh()
		return m, nil
	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.lines = append(m.lines, line{role: "assistant", text: renderAnswer(msg.res)})
		m.status = "Ready."
		if msg.res.Warning != "" {
			m.status = msg.res.Warning
		}
		m.refresh()
		return m, nil
	case settingsMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.settings = msg.settings
		m.status = "Settings updated."
		return m, nil
	case clearedMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.lines = nil
		m.status = "History cleared."
		m.refresh()
		return m, nil
	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.waiting {
		return m, nil
	}
	m.input.Reset()

	if strings.HasPrefix(text, "/") {
		return m.command(text)
	}

	m.lines = append(m.lines, line{role: "user", text: text})
	m.waiting = true
	m.status = "Thinking..."
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, m.ask(text))
}

func (m Model) command(text string) (tea.Model, tea.Cmd) {
	name, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)
	next := m.settings
	switch name {
	case "/quit":
		return m, tea.Quit
	case "/clear":
		return m, m.clear()
	case "/rag":
		next.UseRAG = !next.UseRAG
	case "/model":
		next.ModelName = arg
	case "/category":
		next.Category = arg
	default:
		m.status = "Unknown command " + name
		return m, nil
	}
	return m, m.updateSettings(next)
}

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.chat.Ask(context.Background(), question)
		return answerMsg{res: res, err: err}
	}
}

func (m Model) updateSettings(next dto.SettingsDTO) tea.Cmd {
	return func() tea.Msg {
		err := m.chat.UpdateSettings(context.Background(), next)
		return settingsMsg{settings: next, err: err}
	}
}

func (m Model) clear() tea.Cmd {
	return func() tea.Msg {
		return clearedMsg{err: m.chat.ClearHistory(context.Background())}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("CareConnect Chat Assistant")
	rag := "off"
	if m.settings.UseRAG {
		rag = "on"
	}
	settings := mutedStyle.Render(fmt.Sprintf("model=%s  category=%s  rag=%s", m.settings.ModelName, m.settings.Category, rag))
	status := statusStyle.Render(m.status)
	if m.waiting {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + settings + "\n" + chatBoxStyle.Render(m.viewport.View()) + "\n" +
		queryBoxStyle.Render(m.input.View()) + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.lines) == 0 {
		return mutedStyle.Render("No messages yet.")
	}
	var b strings.Builder
	for _, l := range m.lines {
		if l.role == "user" {
			b.WriteString(userStyle.Render("You: "))
		} else {
			b.WriteString(assistantStyle.Render("Assistant: "))
		}
		b.WriteString(l.text)
		b.WriteString("\n\n")
	}
	return b.String()
}

func renderAnswer(res *dto.AskResponse) string {
	if len(res.Related) == 0 {
		return res.Answer
	}
	var b strings.Builder
	b.WriteString(res.Answer)
	b.WriteString("\n")
	for _, r := range res.Related {
		b.WriteString(mutedStyle.Render("  related: " + r.Path + " " + r.URL))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

var (
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)
