//go:build !whispercpp

package transcribe

import (
	"context"
	"errors"
)

// WhisperCppCompiled reports whether the in-process backend is available.
const WhisperCppCompiled = false

var errWhisperCppMissing = errors.New("whispercpp backend not compiled in (rebuild with -tags whispercpp)")

type WhisperCpp struct{}

func NewWhisperCpp(modelPath string, threads uint, decoder PCMDecoder) (*WhisperCpp, error) {
	return nil, errWhisperCppMissing
}

func (w *WhisperCpp) Name() string { return "whispercpp" }

func (w *WhisperCpp) Transcribe(ctx context.Context, audioPath string, opts TranscribeOpts) (*Result, error) {
	return nil, errWhisperCppMissing
}
