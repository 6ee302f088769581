package bundletui

import (
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/droidforge/droidforge/pkg/log"
)

// Assembler is the pipeline surface the TUI drives.
type Assembler interface {
	Assemble(input string) (string, error)
	Subscribe(f func(any))
}

// AssembleTUI wraps a pipeline, rendering its events while the run executes
// on a background goroutine. Log output is rerouted above the progress view.
type AssembleTUI struct {
	pipeline Assembler
	p        *tea.Program
	w        io.Writer
}

// New creates an AssembleTUI and installs a default slog handler that writes
// through the TUI, keeping log lines above the progress display.
func New(w io.Writer, logLevel string, pipeline Assembler) (*AssembleTUI, error) {
	c := &AssembleTUI{
		pipeline: pipeline,
		w:        w,
	}

	c.pipeline.Subscribe(c.broadcastEvent)

	h, err := log.CreateHandler(c, logLevel, log.FormatText)
	if err != nil {
		return nil, fmt.Errorf("failed to create log handler: %w", err)
	}

	slog.SetDefault(slog.New(h))

	return c, nil
}

func (c *AssembleTUI) broadcastEvent(evt any) {
	if c.p != nil {
		c.p.Send(evt)
	}
}

// Write implements [io.Writer] for log rerouting.
func (c *AssembleTUI) Write(p []byte) (int, error) {
	c.broadcastEvent(teaMsgWriteLog(string(p)))

	return len(p), nil
}

// Assemble runs the pipeline behind a progress display and returns the signed
// bundle path.
func (c *AssembleTUI) Assemble(input string) (string, error) {
	c.p = tea.NewProgram(NewAssembleModel(), tea.WithOutput(c.w))

	var (
		output string
		aerr   error
	)

	done := make(chan struct{})

	go func() {
		defer close(done)

		output, aerr = c.pipeline.Assemble(input)
	}()

	if _, err := c.p.Run(); err != nil {
		return "", fmt.Errorf("failed to launch tui: %w", err)
	}

	<-done

	return output, aerr
}
