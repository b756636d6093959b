package transcribe

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/joegoldin/decipher/internal/config"
)

// Backends lists the names NewDispatcher accepts.
var Backends = []string{"whisper", "whispercpp", "openai", "deepgram", "mistral"}

// NewDispatcher picks a backend: the explicit override, then the configured
// default, then the first one that is usable on this machine. Local
// backends win over hosted ones during auto-detection.
func NewDispatcher(cfg *config.Config, backendOverride string, decoder PCMDecoder) (Transcriber, error) {
	backend := backendOverride
	if backend == "" {
		backend = cfg.Transcribe.Backend
	}

	if backend != "" {
		return newBackend(cfg, backend, decoder)
	}

	tc := cfg.Transcribe

	binary := tc.Whisper.Binary
	if _, err := exec.LookPath(binary); err == nil {
		return NewWhisper(binary, tc.Whisper.Model, tc.Whisper.Device), nil
	}
	// whisper.cpp's CLI as a fallback
	if _, err := exec.LookPath("whisper-cli"); err == nil {
		return NewWhisper("whisper-cli", tc.Whisper.Model, ""), nil
	}
	if WhisperCppCompiled && tc.WhisperCpp.ModelPath != "" && decoder != nil {
		return newWhisperCpp(cfg, decoder)
	}

	if tc.OpenAI.APIKey != "" {
		return NewOpenAI(tc.OpenAI.APIKey, tc.OpenAI.Model, tc.OpenAI.BaseURL), nil
	}
	if tc.Deepgram.APIKey != "" {
		return NewDeepgram(tc.Deepgram.APIKey, tc.Deepgram.Model), nil
	}
	if tc.Mistral.APIKey != "" {
		return NewMistral(tc.Mistral.APIKey, tc.Mistral.Model), nil
	}

	return nil, fmt.Errorf("no transcription backend available. Install whisper locally or set an API key (OPENAI_API_KEY, DEEPGRAM_API_KEY, MISTRAL_API_KEY)")
}

func newBackend(cfg *config.Config, name string, decoder PCMDecoder) (Transcriber, error) {
	tc := cfg.Transcribe
	switch name {
	case "whisper":
		return NewWhisper(tc.Whisper.Binary, tc.Whisper.Model, tc.Whisper.Device), nil
	case "whispercpp":
		return newWhisperCpp(cfg, decoder)
	case "openai":
		if tc.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		return NewOpenAI(tc.OpenAI.APIKey, tc.OpenAI.Model, tc.OpenAI.BaseURL), nil
	case "deepgram":
		if tc.Deepgram.APIKey == "" {
			return nil, fmt.Errorf("deepgram API key not configured")
		}
		return NewDeepgram(tc.Deepgram.APIKey, tc.Deepgram.Model), nil
	case "mistral":
		if tc.Mistral.APIKey == "" {
			return nil, fmt.Errorf("mistral API key not configured")
		}
		return NewMistral(tc.Mistral.APIKey, tc.Mistral.Model), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s (available: %s)", name, strings.Join(Backends, ", "))
	}
}

func newWhisperCpp(cfg *config.Config, decoder PCMDecoder) (Transcriber, error) {
	w, err := NewWhisperCpp(cfg.Transcribe.WhisperCpp.ModelPath, cfg.Transcribe.WhisperCpp.Threads, decoder)
	if err != nil {
		return nil, err
	}
	return w, nil
}
