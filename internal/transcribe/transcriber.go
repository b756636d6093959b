package transcribe

import (
	"context"
	"errors"
	"fmt"
)

type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatSRT  OutputFormat = "srt"
	FormatVTT  OutputFormat = "vtt"
)

func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "srt":
		return FormatSRT, nil
	case "vtt":
		return FormatVTT, nil
	default:
		return "", fmt.Errorf("invalid transcript format %q (choose text, json, srt or vtt)", s)
	}
}

// Ext is the file extension for the format, without the dot.
func (f OutputFormat) Ext() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// Task selects same-language transcription or translation into English.
type Task string

const (
	TaskTranscribe Task = "transcribe"
	TaskTranslate  Task = "translate"
)

func ParseTask(s string) (Task, error) {
	switch s {
	case "", "transcribe":
		return TaskTranscribe, nil
	case "translate":
		return TaskTranslate, nil
	default:
		return "", fmt.Errorf("invalid task %q (choose transcribe or translate)", s)
	}
}

// ErrUnsupportedTask is returned by backends that cannot translate.
var ErrUnsupportedTask = errors.New("task not supported by backend")

type TranscribeOpts struct {
	Model    string
	Language string // short code, empty for auto-detect
	Task     Task
	// Progress, when set, receives completion in [0,1] from backends that
	// can report it.
	Progress func(float64)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, opts TranscribeOpts) (*Result, error)
	Name() string
}

// AudioFormat names the audio file a backend is handed.
type AudioFormat string

const (
	AudioAAC AudioFormat = "aac"
	AudioM4A AudioFormat = "m4a"
	AudioWAV AudioFormat = "wav"
)

// AudioInput is implemented by backends that cannot read the raw AAC
// stream the pipeline extracts.
type AudioInput interface {
	AudioInput() AudioFormat
}

// InputFormat reports the audio format tr wants, AAC unless it says
// otherwise.
func InputFormat(tr Transcriber) AudioFormat {
	if in, ok := tr.(AudioInput); ok {
		if f := in.AudioInput(); f != "" {
			return f
		}
	}
	return AudioAAC
}

// PCMDecoder turns an audio file into 16 kHz mono samples.
type PCMDecoder interface {
	DecodePCM(ctx context.Context, audioPath string) ([]float32, error)
}

func validateTask(backend string, opts TranscribeOpts, canTranslate bool) error {
	if opts.Task == TaskTranslate && !canTranslate {
		return fmt.Errorf("%s: translate: %w (use whisper, whispercpp or openai)", backend, ErrUnsupportedTask)
	}
	return nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
