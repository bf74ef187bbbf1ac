package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/openclaw/axon/internal/agent"
	"github.com/openclaw/axon/internal/dispatch"
)

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failureStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	metaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	inputStyle     = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderTop(true)
)

// chatLine is one rendered transcript entry.
type chatLine struct {
	role   string
	text   string
	status dispatch.Status
	meta   string
}

// responseMsg carries a completed Process call back into the update loop.
type responseMsg struct {
	res agent.Response
}

// chatModel is the bubbletea model for the chat session.
type chatModel struct {
	rt       *runtime
	input    textinput.Model
	viewport viewport.Model
	lines    []chatLine
	waiting  bool
	ready    bool
	width    int
	height   int
}

// runChat starts the interactive session and blocks until exit.
func runChat(rt *runtime) error {
	input := textinput.New()
	input.Placeholder = "Type a message, /health for status, /quit to exit"
	input.Focus()
	input.CharLimit = 4000

	m := chatModel{rt: rt, input: input}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - inputHeight
		}
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.waiting {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			if cmd, handled := m.handleSlashCommand(text); handled {
				m.refreshViewport()
				return m, cmd
			}
			m.lines = append(m.lines, chatLine{role: "user", text: text})
			m.waiting = true
			m.refreshViewport()
			return m, m.processCmd(text)
		}

	case responseMsg:
		m.waiting = false
		line := chatLine{
			role:   "assistant",
			text:   msg.res.Text,
			status: msg.res.Status,
			meta:   fmt.Sprintf("%s in %dms", msg.res.Status, msg.res.Duration.Milliseconds()),
		}
		m.lines = append(m.lines, line)
		m.refreshViewport()
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleSlashCommand runs local commands without touching the agent
// pipeline. Returns handled=false for normal messages.
func (m *chatModel) handleSlashCommand(text string) (tea.Cmd, bool) {
	switch {
	case text == "/quit" || text == "/exit":
		return tea.Quit, true
	case text == "/health":
		report := m.rt.ag.Health()
		var b strings.Builder
		fmt.Fprintf(&b, "status: %s, trend: %s, samples: %d", report.Status, m.rt.ag.Trend(0), report.SampleCount)
		for _, rec := range report.Recommendations {
			fmt.Fprintf(&b, "\n-> %s", rec)
		}
		m.lines = append(m.lines, chatLine{role: "system", text: b.String()})
		return nil, true
	case text == "/safety":
		m.lines = append(m.lines, chatLine{
			role: "system",
			text: "safety level: " + m.rt.gate.Level().String(),
		})
		return nil, true
	case strings.HasPrefix(text, "/recall "):
		query := strings.TrimPrefix(text, "/recall ")
		hits, err := m.rt.ag.Recall(query, 5)
		if err != nil {
			m.lines = append(m.lines, chatLine{role: "system", text: "recall failed: " + err.Error()})
			return nil, true
		}
		if len(hits) == 0 {
			m.lines = append(m.lines, chatLine{role: "system", text: "no matches"})
			return nil, true
		}
		var b strings.Builder
		for _, hit := range hits {
			fmt.Fprintf(&b, "%.2f %s\n", hit.Score, hit.Text)
		}
		m.lines = append(m.lines, chatLine{role: "system", text: strings.TrimRight(b.String(), "\n")})
		return nil, true
	}
	return nil, false
}

// processCmd runs the agent pipeline off the update loop.
func (m chatModel) processCmd(text string) tea.Cmd {
	rt := m.rt
	return func() tea.Msg {
		return responseMsg{res: rt.ag.Process(context.Background(), text)}
	}
}

// refreshViewport rerenders the transcript and pins to the bottom.
func (m *chatModel) refreshViewport() {
	if !m.ready {
		return
	}
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	for _, line := range m.lines {
		switch line.role {
		case "user":
			b.WriteString(userStyle.Render("you: "))
			b.WriteString(wordwrap.String(line.text, width-6))
		case "assistant":
			style := assistantStyle
			if line.status != "" && line.status != dispatch.StatusOK {
				style = failureStyle
			}
			b.WriteString(style.Render("axon: "))
			b.WriteString(wordwrap.String(line.text, width-7))
			if line.meta != "" {
				b.WriteString("\n")
				b.WriteString(metaStyle.Render("  " + line.meta))
			}
		default:
			b.WriteString(metaStyle.Render(wordwrap.String(line.text, width)))
		}
		b.WriteString("\n\n")
	}
	if m.waiting {
		b.WriteString(metaStyle.Render("thinking..."))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m chatModel) View() string {
	if !m.ready {
		return "starting..."
	}
	return m.viewport.View() + "\n" + inputStyle.Width(m.width).Render(m.input.View())
}
