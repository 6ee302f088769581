package bundletui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/droidforge/droidforge/pkg/bundle"
)

// AssembleModel displays pipeline progress: a spinner with the running stage,
// a progress bar over all stages, and a check or cross per completed stage.
type AssembleModel struct {
	err          error
	output       string
	currentStage string
	caser        cases.Caser
	spinner      spinner.Model
	progress     progress.Model
	totalStages  int
	doneStages   int
	width        int
	height       int
	mu           sync.RWMutex
	done         bool
}

func NewAssembleModel() *AssembleModel {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	s := spinner.New()
	s.Style = spinnerStyle

	return &AssembleModel{
		spinner:     s,
		progress:    p,
		totalStages: len(bundle.Stages),
		caser:       cases.Title(language.English),
		mu:          sync.RWMutex{},
	}
}

func (m *AssembleModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.progress.SetPercent(0))
}

// stageTitle renders a stage identifier for display, e.g. "build-bundle"
// becomes "Build Bundle".
func (m *AssembleModel) stageTitle(stage bundle.Stage) string {
	return m.caser.String(strings.ReplaceAll(string(stage), "-", " "))
}

//nolint:ireturn // Third-party.
func (m *AssembleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		if keyExits(msg) {
			return m, tea.Quit
		}

	case teaMsgWriteLog:
		return m, writeLog(msg, m.width)

	case bundle.EventStageStarted:
		m.mu.Lock()
		defer m.mu.Unlock()

		m.currentStage = m.stageTitle(msg.Stage)

	case bundle.EventStageDone:
		m.mu.Lock()
		defer m.mu.Unlock()

		icon := checkMark
		if msg.Err != nil {
			icon = errorMark
		}

		m.doneStages++
		progressCmd := m.progress.SetPercent(float64(m.doneStages) / float64(m.totalStages))

		return m, tea.Batch(
			progressCmd,
			tea.Printf("%s %s", icon, m.stageTitle(msg.Stage)),
		)

	case bundle.EventDone:
		m.mu.Lock()
		defer m.mu.Unlock()

		m.err = msg.Err
		m.output = msg.Output
		m.done = true

		return m, tea.Sequence(finalPause(), tea.Quit)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case progress.FrameMsg:
		newModel, cmd := m.progress.Update(msg)
		if newModel, ok := newModel.(progress.Model); ok {
			m.progress = newModel
		}

		return m, cmd
	}

	return m, nil
}

func (m *AssembleModel) View() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.done {
		if m.err != nil {
			return getErrorMessage(m.err, m.width)
		}

		return doneStyle.Render(fmt.Sprintf("Done! Assembled %s.\n", m.output))
	}

	spin := m.spinner.View() + " "
	prog := m.progress.View()

	cellsAvail := max(0, m.width-lipgloss.Width(spin+prog))

	stage := currentStageStyle.Render(m.currentStage)
	info := lipgloss.NewStyle().MaxWidth(cellsAvail).Render("Running " + stage)

	cellsRemaining := max(0, m.width-lipgloss.Width(spin+info+prog))
	gap := strings.Repeat(" ", cellsRemaining)

	return spin + info + gap + prog + "\n"
}
