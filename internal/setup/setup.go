// Package setup provides the interactive setup wizard.
package setup

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openclaw/axon/internal/config"
)

// Step is one screen of the wizard.
type Step int

const (
	StepWelcome Step = iota
	StepProvider
	StepModel
	StepSafety
	StepStorage
	StepDone
)

type choice struct {
	id   string
	desc string
}

var providers = []choice{
	{"none", "No LLM, offline heuristics only"},
	{"anthropic", "Anthropic (Claude models)"},
	{"openai", "OpenAI (GPT models)"},
	{"google", "Google (Gemini models)"},
	{"groq", "Groq (fast open models)"},
	{"mistral", "Mistral"},
}

var safetyLevels = []choice{
	{"permissive", "Run everything, including risky capabilities"},
	{"standard", "Block capabilities that fail their safety check"},
	{"strict", "Disable capability invocation entirely; reply and plan only"},
}

// defaultModels suggests a model per provider.
var defaultModels = map[string]string{
	"anthropic": "claude-sonnet-4-5",
	"openai":    "gpt-4o",
	"google":    "gemini-2.0-flash",
	"groq":      "llama-3.3-70b-versatile",
	"mistral":   "mistral-large-latest",
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// Model is the wizard's bubbletea model.
type Model struct {
	step   Step
	cursor int
	input  textinput.Model

	provider string
	model    string
	safety   string
	storage  string

	outputPath string
	err        error
	quitting   bool
}

// New creates a wizard writing to the given config path.
func New(outputPath string) Model {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 50
	return Model{
		step:       StepWelcome,
		input:      ti,
		safety:     "standard",
		storage:    "~/.local/axon",
		outputPath: outputPath,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case tea.KeyDown:
		if m.cursor < m.maxCursor() {
			m.cursor++
		}
		return m, nil
	case tea.KeyEnter:
		return m.handleEnter()
	}

	if m.isTextInputStep() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// maxCursor returns the last selectable index for the current step.
func (m Model) maxCursor() int {
	switch m.step {
	case StepProvider:
		return len(providers) - 1
	case StepSafety:
		return len(safetyLevels) - 1
	default:
		return 0
	}
}

func (m Model) isTextInputStep() bool {
	return m.step == StepModel || m.step == StepStorage
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.step {
	case StepWelcome:
		m.step = StepProvider
		m.cursor = 0

	case StepProvider:
		m.provider = providers[m.cursor].id
		if m.provider == "none" {
			m.step = StepSafety
			m.cursor = m.findSafetyIndex()
			break
		}
		m.step = StepModel
		m.input.SetValue(defaultModels[m.provider])
		m.input.Focus()

	case StepModel:
		m.model = strings.TrimSpace(m.input.Value())
		if m.model == "" {
			m.model = defaultModels[m.provider]
		}
		m.input.Blur()
		m.step = StepSafety
		m.cursor = m.findSafetyIndex()

	case StepSafety:
		m.safety = safetyLevels[m.cursor].id
		m.step = StepStorage
		m.input.SetValue(m.storage)
		m.input.Focus()

	case StepStorage:
		if v := strings.TrimSpace(m.input.Value()); v != "" {
			m.storage = v
		}
		m.input.Blur()
		m.err = m.writeConfig()
		m.step = StepDone

	case StepDone:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) findSafetyIndex() int {
	for i, lvl := range safetyLevels {
		if lvl.id == m.safety {
			return i
		}
	}
	return 0
}

// writeConfig renders the chosen settings as a TOML config file.
func (m Model) writeConfig() error {
	cfg := config.New()
	if m.provider != "none" {
		cfg.LLM.Provider = m.provider
		cfg.LLM.Model = m.model
		cfg.Classifier.Provider = m.provider
		cfg.Classifier.Model = m.model
	}
	cfg.Safety.Level = m.safety
	cfg.Storage.Path = m.storage

	f, err := os.Create(m.outputPath)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	switch m.step {
	case StepWelcome:
		b.WriteString(titleStyle.Render("axon setup"))
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render("A few questions, then a ready-to-use config file."))
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("enter to begin, esc to quit"))

	case StepProvider:
		b.WriteString(titleStyle.Render("LLM provider"))
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render("Used for replies and intent classification."))
		b.WriteString("\n\n")
		m.renderChoices(&b, providers)

	case StepModel:
		b.WriteString(titleStyle.Render("Model"))
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("Set the API key via %s.", config.DefaultAPIKeyEnv(m.provider))))
		b.WriteString("\n\n")
		b.WriteString(m.input.View())

	case StepSafety:
		b.WriteString(titleStyle.Render("Safety level"))
		b.WriteString("\n\n")
		m.renderChoices(&b, safetyLevels)

	case StepStorage:
		b.WriteString(titleStyle.Render("Storage directory"))
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render("Sessions, checkpoints, and the recall archive live here."))
		b.WriteString("\n\n")
		b.WriteString(m.input.View())

	case StepDone:
		if m.err != nil {
			b.WriteString(errorStyle.Render("Setup failed: " + m.err.Error()))
		} else {
			b.WriteString(successStyle.Render("Config written to " + m.outputPath))
			b.WriteString("\n\n")
			b.WriteString(normalStyle.Render("Start chatting with: axon chat"))
		}
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("enter to exit"))
	}

	b.WriteString("\n")
	return b.String()
}

func (m Model) renderChoices(b *strings.Builder, choices []choice) {
	for i, c := range choices {
		line := fmt.Sprintf("%-12s %s", c.id, dimStyle.Render(c.desc))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(normalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
}

// Run starts the wizard.
func Run(outputPath string) error {
	p := tea.NewProgram(New(outputPath))
	_, err := p.Run()
	return err
}
