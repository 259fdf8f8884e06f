package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"document-qa/internal/models"
	"document-qa/internal/rag"
	"document-qa/internal/render"
	"document-qa/internal/session"
)

const (
	cmdOpen = "/open"
	cmdAll  = "/all"
	cmdDoc  = "/doc"
	cmdQuit = "/quit"

	helpLine = "/open <path>  /all toggle all chunks  /doc toggle document  /quit"
)

// SessionPort is the TUI-facing subset of the document session.
type SessionPort interface {
	Upload(ctx context.Context, filename string, data []byte) error
	Ask(ctx context.Context, query string, showAll bool) (*models.QueryResult, error)
	Document() *models.Document
}

// uploadDoneMsg reports an /open. unread is set when the file could not be
// read, in which case the session still holds its previous document.
type uploadDoneMsg struct {
	doc    *models.Document
	err    error
	unread bool
}

type answerDoneMsg struct {
	result *models.QueryResult
	err    error
}

// Model is the Bubble Tea model for an interactive question session.
// Only one session call runs at a time; input is ignored while busy.
type Model struct {
	ctx      context.Context
	session  SessionPort
	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	initialFile string
	doc         *models.Document
	result      *models.QueryResult
	showAll     bool
	showDoc     bool
	busy        string
	status      string
	failed      bool
	ready       bool
}

// New creates the model. A non-empty file is opened on start.
func New(ctx context.Context, s SessionPort, file string, showAll bool) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about the document"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(busyStyle))

	return Model{
		ctx:         ctx,
		session:     s,
		input:       ti,
		spinner:     sp,
		viewport:    viewport.New(0, 0),
		initialFile: file,
		showAll:     showAll,
		status:      "Open a pdf, docx, or txt file with /open <path>",
	}
}

func (m Model) Init() tea.Cmd {
	if m.initialFile != "" {
		return tea.Batch(textinput.Blink, m.openCmd(m.initialFile), m.spinner.Tick)
	}
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 3 + qh + 1 // header, help, status and a spacer
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.content())
		return m, nil

	case uploadDoneMsg:
		m.busy = ""
		if !msg.unread {
			m.result = nil
			m.doc = msg.doc
		}
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus(fmt.Sprintf("Indexed %s (%d pages). Ask a question.", msg.doc.Name, len(msg.doc.Pages)))
		}
		m.viewport.SetContent(m.content())
		m.viewport.GotoTop()
		return m, nil

	case answerDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.result = msg.result
			m.setStatus(fmt.Sprintf("%d sources", len(msg.result.Sources)))
			m.input.Reset()
		}
		m.viewport.SetContent(m.content())
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			if m.busy != "" {
				return m, nil
			}
			return m.submit(strings.TrimSpace(m.input.Value()))
		}
		if m.busy != "" {
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(line string) (tea.Model, tea.Cmd) {
	switch {
	case line == cmdQuit:
		return m, tea.Quit

	case line == cmdAll:
		m.showAll = !m.showAll
		m.input.Reset()
		m.setStatus(fmt.Sprintf("Show all chunks: %t", m.showAll))
		if m.result != nil {
			m.result = withSources(m.result, m.showAll)
			m.viewport.SetContent(m.content())
		}
		return m, nil

	case line == cmdDoc:
		m.showDoc = !m.showDoc
		m.input.Reset()
		m.setStatus(fmt.Sprintf("Show document: %t", m.showDoc))
		m.viewport.SetContent(m.content())
		return m, nil

	case strings.HasPrefix(line, cmdOpen):
		path := strings.TrimSpace(strings.TrimPrefix(line, cmdOpen))
		if path == "" {
			m.setStatus("Usage: /open <path>")
			return m, nil
		}
		m.input.Reset()
		m.busy = "Indexing document... This may take a while"
		return m, tea.Batch(m.openCmd(path), m.spinner.Tick)

	case line == "":
		if m.doc == nil {
			m.setError(models.ErrMissingDocument)
		} else {
			m.setError(models.ErrMissingQuery)
		}
		return m, nil
	}

	m.busy = "Thinking..."
	return m, tea.Batch(m.askCmd(line, m.showAll), m.spinner.Tick)
}

func (m Model) openCmd(path string) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return uploadDoneMsg{err: err, unread: true}
		}
		if err := s.Upload(ctx, filepath.Base(path), data); err != nil {
			return uploadDoneMsg{err: err}
		}
		return uploadDoneMsg{doc: s.Document()}
	}
}

func (m Model) askCmd(query string, showAll bool) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		result, err := s.Ask(ctx, query, showAll)
		return answerDoneMsg{result: result, err: err}
	}
}

// withSources returns a copy of result whose sources follow showAll.
func withSources(result *models.QueryResult, showAll bool) *models.QueryResult {
	out := *result
	if showAll {
		out.Sources = result.Candidates
	} else {
		out.Sources = rag.CitedChunks(result.Candidates, result.Answer.CitedSourceIDs)
	}
	return &out
}

func (m *Model) setStatus(text string) {
	m.status = text
	m.failed = false
}

func (m *Model) setError(err error) {
	m.status = session.UserMessage(err)
	m.failed = true
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("Document Q&A")
	if m.doc != nil {
		header += " " + docStyle.Render(m.doc.Name)
	}
	help := helpStyle.Render(helpLine)
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())

	var status string
	switch {
	case m.busy != "":
		status = m.spinner.View() + " " + busyStyle.Render(m.busy)
	case m.failed:
		status = errorStyle.Render(m.status)
	default:
		status = statusStyle.Render(m.status)
	}
	return header + "\n" + help + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) content() string {
	var sb strings.Builder
	if m.showDoc && m.doc != nil {
		sb.WriteString(render.DocumentText(m.doc.Pages))
		sb.WriteString("\n")
	}
	if m.result != nil {
		sb.WriteString(questionStyle.Render(m.result.Question))
		sb.WriteString("\n\n")
		sb.WriteString(render.Markdown(m.result))
	}
	if sb.Len() == 0 {
		return "No answer yet."
	}
	return lipgloss.NewStyle().Width(m.viewport.Width).Render(sb.String())
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
	docStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	questionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	busyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD93D"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
