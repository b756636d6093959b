package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/joegoldin/decipher/internal/logging"
)

const tailLines = 20

// ErrOverwritePrompt means ffmpeg stopped to ask before overwriting a file.
// Every job passes -y, so seeing it indicates a malformed argument list.
var ErrOverwritePrompt = errors.New("ffmpeg asked for overwrite confirmation")

// Job is a single ffmpeg invocation.
type Job struct {
	Label string
	Args  []string
	// Dir is the working directory; ass= and subtitles= filters resolve
	// relative paths against it.
	Dir string
	// Duration seeds the progress total (seconds) when the caller already
	// probed the input. Zero means "take it from ffmpeg's banner".
	Duration float64
	// Stdout receives the process's standard output, if set.
	Stdout io.Writer
}

// ExitError reports a failed ffmpeg run with the tail of its stderr.
type ExitError struct {
	Label   string
	Command string
	Code    int
	Tail    []string
	Err     error
}

// Error leads with the stage and last stderr line, then the command line
// and the whole tail.
func (e *ExitError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: ffmpeg exited with code %d", e.Label, e.Code)
	if len(e.Tail) > 0 {
		fmt.Fprintf(&b, ": %s", e.Tail[len(e.Tail)-1])
	}
	if e.Command != "" {
		fmt.Fprintf(&b, "\ncommand: %s", e.Command)
	}
	for _, line := range e.Tail {
		fmt.Fprintf(&b, "\n  %s", line)
	}
	return b.String()
}

func (e *ExitError) Unwrap() error { return e.Err }

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Runner executes ffmpeg jobs, turning stderr into progress updates.
type Runner struct {
	binary     string
	logger     *log.Logger
	onProgress ProgressFunc
	command    commandFunc
}

func NewRunner(binary string, logger *log.Logger) *Runner {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Runner{
		binary:  binary,
		logger:  logging.Component(logger, "ffmpeg"),
		command: exec.CommandContext,
	}
}

func (r *Runner) Binary() string { return r.binary }

// OnProgress installs the progress callback used by subsequent runs.
func (r *Runner) OnProgress(fn ProgressFunc) { r.onProgress = fn }

func (r *Runner) Run(ctx context.Context, job Job) error {
	args := append([]string{"-hide_banner"}, job.Args...)
	// -hide_banner drops the build info but keeps the input dump that
	// carries Duration/fps/source.
	cmd := r.command(ctx, r.binary, args...)
	cmd.Dir = job.Dir
	if job.Stdout != nil {
		cmd.Stdout = job.Stdout
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	r.logger.Debug("running", "label", job.Label, "dir", job.Dir, "args", strings.Join(args, " "))

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: failed to start %s: %w", job.Label, r.binary, err)
	}

	parser := newProgressParser(job.Label, job.Duration)
	tail, prompted := r.drain(stderr, parser)
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", job.Label, ctx.Err())
	}
	if waitErr != nil {
		exitErr := &ExitError{
			Label:   job.Label,
			Command: r.binary + " " + strings.Join(args, " "),
			Code:    -1,
			Tail:    tail,
			Err:     waitErr,
		}
		var ee *exec.ExitError
		if errors.As(waitErr, &ee) {
			exitErr.Code = ee.ExitCode()
		}
		if prompted {
			exitErr.Err = ErrOverwritePrompt
		}
		r.logger.Debug("ffmpeg failed", "label", job.Label, "code", exitErr.Code)
		return exitErr
	}

	if r.onProgress != nil {
		r.onProgress(parser.final())
	}
	return nil
}

// drain reads stderr a byte at a time. ffmpeg redraws its status line with
// '\r', so both '\r' and '\n' terminate a line.
func (r *Runner) drain(stderr io.Reader, parser *progressParser) (tail []string, prompted bool) {
	br := bufio.NewReader(stderr)
	var acc bytes.Buffer

	flush := func() {
		line := strings.TrimSpace(acc.String())
		acc.Reset()
		if line == "" {
			return
		}
		tail = append(tail, line)
		if len(tail) > tailLines {
			tail = tail[1:]
		}
		if p, ok := parser.feed(line); ok && r.onProgress != nil {
			r.onProgress(p)
		}
	}

	for {
		c, err := br.ReadByte()
		if err != nil {
			flush()
			return tail, prompted
		}
		if c == '\r' || c == '\n' {
			flush()
			continue
		}
		acc.WriteByte(c)
		if bytes.HasSuffix(acc.Bytes(), []byte("[y/N] ")) {
			prompted = true
			flush()
		}
	}
}
