package tui

import (
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/joegoldin/decipher/internal/ffmpeg"
)

// Reporter receives pipeline events. Progress may be called from the
// goroutine draining ffmpeg's stderr.
type Reporter interface {
	Stage(label string)
	Progress(p ffmpeg.Progress)
	// Finish ends reporting and blocks until the display is torn down.
	Finish(err error)
}

// NewReporter returns the interactive progress display when out is a
// terminal and plain is false, and a log-line reporter otherwise. cancel is
// called when the user aborts from the display.
func NewReporter(out *os.File, plain bool, logger *log.Logger, cancel func()) Reporter {
	if !plain && isTerminal(out) {
		return newProgramReporter(out, cancel)
	}
	return NewPlainReporter(logger)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type programReporter struct {
	program *tea.Program
	done    chan struct{}
	once    sync.Once
}

func newProgramReporter(out *os.File, cancel func()) *programReporter {
	r := &programReporter{
		program: tea.NewProgram(NewModel(cancel), tea.WithOutput(out)),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		if _, err := r.program.Run(); err != nil {
			log.Warn("progress display failed", "error", err)
		}
	}()
	return r
}

func (r *programReporter) Stage(label string) { r.program.Send(StageMsg{Label: label}) }

func (r *programReporter) Progress(p ffmpeg.Progress) { r.program.Send(ProgressMsg(p)) }

func (r *programReporter) Finish(err error) {
	r.once.Do(func() {
		r.program.Send(DoneMsg{Err: err})
		<-r.done
	})
}

// PlainReporter logs each step and every tenth of its progress.
type PlainReporter struct {
	logger *log.Logger
	mu     sync.Mutex
	label  string
	decile int
}

func NewPlainReporter(logger *log.Logger) *PlainReporter {
	if logger == nil {
		logger = log.Default()
	}
	return &PlainReporter{logger: logger, decile: -1}
}

func (r *PlainReporter) Stage(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.label = label
	r.decile = -1
}

func (r *PlainReporter) Progress(p ffmpeg.Progress) {
	f := p.Fraction()
	if f < 0 {
		return
	}
	d := int(f * 10)

	r.mu.Lock()
	if p.Label != r.label {
		r.label = p.Label
		r.decile = -1
	}
	if d <= r.decile {
		r.mu.Unlock()
		return
	}
	r.decile = d
	r.mu.Unlock()

	kv := []any{"percent", d * 10}
	if p.Source != "" {
		kv = append(kv, "source", p.Source)
	}
	r.logger.Info(p.Label, kv...)
}

func (r *PlainReporter) Finish(err error) {}
