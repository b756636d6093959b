// Package pipeline drives a run end to end: demux audio, transcribe it to
// SRT and optionally put the subtitles back into the video.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"github.com/joegoldin/decipher/internal/config"
	"github.com/joegoldin/decipher/internal/ffmpeg"
	"github.com/joegoldin/decipher/internal/language"
	"github.com/joegoldin/decipher/internal/logging"
	"github.com/joegoldin/decipher/internal/probe"
	"github.com/joegoldin/decipher/internal/transcribe"
)

const lockName = ".decipher.lock"

var (
	ErrNoAudioStream   = errors.New("input has no audio stream")
	ErrNoVideoStream   = errors.New("input has no video stream")
	ErrLocked          = errors.New("output directory is in use by another run")
	ErrSRTNotGenerated = errors.New("SRT file not generated")
	ErrNoSpeech        = errors.New("no speech detected")
)

// Action says what to do with the subtitles once they exist.
type Action string

const (
	ActionAdd  Action = "add"
	ActionBurn Action = "burn"
)

// ParseAction validates a --subs or --task value. Empty is allowed and
// means no action.
func ParseAction(s string) (Action, error) {
	switch s {
	case "":
		return "", nil
	case "add":
		return ActionAdd, nil
	case "burn":
		return ActionBurn, nil
	default:
		return "", fmt.Errorf("invalid subtitle action %q (choose add or burn)", s)
	}
}

type TranscribeRequest struct {
	Input     string
	OutputDir string
	Model     string
	Language  string // any form language.Normalize accepts; empty auto-detects
	Task      transcribe.Task
	Backend   string // empty uses the configured or auto-detected backend
	// SubtitleAction, when set, continues into Subtitle with the new SRT.
	SubtitleAction Action
	// Transcript, when set, also writes <output>/<stem>.<ext> in that format.
	Transcript transcribe.OutputFormat
}

type SubtitleRequest struct {
	Input     string
	Subtitles string
	OutputDir string
	Action    Action
	// Language is tagged on the added track when known.
	Language string
}

// PathStore is what a run produced. VideoFile is empty when no subtitle
// action ran.
type PathStore struct {
	OutputDir      string
	SubtitleFile   string
	TranscriptFile string
	VideoFile      string
}

// Runner is the part of ffmpeg.Runner the pipeline needs.
type Runner interface {
	Run(ctx context.Context, job ffmpeg.Job) error
}

// Pipeline holds the collaborators for a run. Construct with New.
type Pipeline struct {
	cfg    *config.Config
	logger *log.Logger
	runner Runner

	probe          func(ctx context.Context, path string) (probe.Result, bool, error)
	newTranscriber func(backend string) (transcribe.Transcriber, error)

	onStage    func(label string)
	onProgress ffmpeg.ProgressFunc
}

func New(cfg *config.Config, runner *ffmpeg.Runner, logger *log.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		logger: logging.Component(logger, "pipeline"),
		runner: runner,
		probe: func(ctx context.Context, path string) (probe.Result, bool, error) {
			return probeWith(ctx, cfg.FFmpeg.FFprobe, path)
		},
		newTranscriber: func(backend string) (transcribe.Transcriber, error) {
			return transcribe.NewDispatcher(cfg, backend, runner)
		},
	}
}

// OnStage registers a callback fired when a step begins.
func (p *Pipeline) OnStage(fn func(label string)) { p.onStage = fn }

// OnProgress receives progress for steps that do not run through ffmpeg,
// such as in-process transcription.
func (p *Pipeline) OnProgress(fn ffmpeg.ProgressFunc) { p.onProgress = fn }

func (p *Pipeline) stage(label string) {
	p.logger.Info(label)
	if p.onStage != nil {
		p.onStage(label)
	}
}

// probeWith runs ffprobe when it is installed. ok is false when ffprobe is
// missing, which is not an error.
func probeWith(ctx context.Context, binary, path string) (probe.Result, bool, error) {
	if _, err := exec.LookPath(binary); err != nil {
		return probe.Result{}, false, nil
	}
	res, err := probe.Inspect(ctx, binary, path)
	if err != nil {
		return probe.Result{}, false, err
	}
	return res, true, nil
}

// prepare makes input absolute, checks it exists and creates outputDir.
func prepare(input, outputDir string) (string, string, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", "", fmt.Errorf("input file: %w", err)
	}
	if info.IsDir() {
		return "", "", fmt.Errorf("input %s is a directory", abs)
	}

	if outputDir == "" {
		outputDir = "result"
	}
	outAbs, err := filepath.Abs(outputDir)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(outAbs, 0755); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}
	return abs, outAbs, nil
}

// lockOutput takes the per-directory run lock. The returned func releases it.
func (p *Pipeline) lockOutput(outputDir string) (func(), error) {
	lock := flock.New(filepath.Join(outputDir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", outputDir, ErrLocked)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			p.logger.Warn("failed to release lock", "path", lock.Path(), "error", err)
		}
	}, nil
}

// metadataLanguage turns whatever language hint is available into the
// ISO 639-2 code containers expect, or "".
func metadataLanguage(hints ...string) string {
	for _, h := range hints {
		code, ok, err := language.Normalize(h)
		if err == nil && ok {
			return code.ISO3()
		}
	}
	return ""
}
