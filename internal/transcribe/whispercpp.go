//go:build whispercpp

package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperCppCompiled reports whether the in-process backend is available.
const WhisperCppCompiled = true

// WhisperCpp runs a ggml model in-process. Audio is decoded to PCM by the
// supplied decoder (ffmpeg) since the bindings only accept raw samples.
type WhisperCpp struct {
	modelPath string
	threads   uint
	decoder   PCMDecoder
}

func NewWhisperCpp(modelPath string, threads uint, decoder PCMDecoder) (*WhisperCpp, error) {
	if modelPath == "" {
		return nil, errors.New("whispercpp model_path not configured")
	}
	if decoder == nil {
		return nil, errors.New("whispercpp needs a PCM decoder")
	}
	return &WhisperCpp{modelPath: modelPath, threads: threads, decoder: decoder}, nil
}

func (w *WhisperCpp) Name() string { return "whispercpp" }

func (w *WhisperCpp) Transcribe(ctx context.Context, audioPath string, opts TranscribeOpts) (*Result, error) {
	if err := validateTask(w.Name(), opts, true); err != nil {
		return nil, err
	}

	samples, err := w.decoder.DecodePCM(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}

	model, err := whisper.New(w.modelPath)
	if err != nil {
		return nil, fmt.Errorf("load whisper model: %w", err)
	}
	defer model.Close()

	wctx, err := model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("create whisper context: %w", err)
	}

	lang := opts.Language
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil && lang != "auto" {
		return nil, fmt.Errorf("set language %q: %w", lang, err)
	}
	wctx.SetTranslate(opts.Task == TaskTranslate)
	if w.threads > 0 {
		wctx.SetThreads(w.threads)
	}

	var progress whisper.ProgressCallback
	if opts.Progress != nil {
		progress = func(pct int) { opts.Progress(float64(pct) / 100) }
	}
	// returning false from the encoder callback aborts the run
	encoderBegin := func() bool { return ctx.Err() == nil }
	if err := wctx.Process(samples, encoderBegin, nil, progress); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("whisper process: %w", err)
	}

	result := &Result{
		Language: wctx.DetectedLanguage(),
		Duration: float64(len(samples)) / whisper.SampleRate,
	}
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("get segment: %w", err)
		}
		result.Segments = append(result.Segments, Segment{
			Start: seg.Start.Seconds(),
			End:   seg.End.Seconds(),
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	result.Text = joinSegments(result.Segments)
	return result, nil
}
