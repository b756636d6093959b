package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI calls the hosted audio API. Translation goes through the
// translations endpoint, which always produces English.
type OpenAI struct {
	apiKey       string
	defaultModel string
	baseURL      string
}

// NewOpenAI creates the backend. An empty baseURL uses api.openai.com;
// otherwise it must include the version prefix, e.g. http://host/v1.
func NewOpenAI(apiKey, defaultModel, baseURL string) *OpenAI {
	if defaultModel == "" {
		defaultModel = openai.Whisper1
	}
	return &OpenAI{
		apiKey:       apiKey,
		defaultModel: defaultModel,
		baseURL:      baseURL,
	}
}

func (o *OpenAI) Name() string { return "openai" }

// AudioInput asks for an MP4 container; the upload endpoint rejects raw
// ADTS .aac files.
func (o *OpenAI) AudioInput() AudioFormat { return AudioM4A }

func (o *OpenAI) client() *openai.Client {
	cfg := openai.DefaultConfig(o.apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = strings.TrimRight(o.baseURL, "/")
	}
	return openai.NewClientWithConfig(cfg)
}

func (o *OpenAI) Transcribe(ctx context.Context, audioPath string, opts TranscribeOpts) (*Result, error) {
	if o.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured (set OPENAI_API_KEY or config)")
	}
	if err := validateTask(o.Name(), opts, true); err != nil {
		return nil, err
	}
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}

	req := o.buildRequest(audioPath, opts)

	var (
		resp openai.AudioResponse
		err  error
	)
	if opts.Task == TaskTranslate {
		resp, err = o.client().CreateTranslation(ctx, req)
	} else {
		resp, err = o.client().CreateTranscription(ctx, req)
	}
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("openai API error (%d): %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	return convertAudioResponse(resp), nil
}

func (o *OpenAI) buildRequest(audioPath string, opts TranscribeOpts) openai.AudioRequest {
	model := opts.Model
	if model == "" {
		model = o.defaultModel
	}
	req := openai.AudioRequest{
		Model:    model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}
	// the translations endpoint rejects a language field
	if opts.Language != "" && opts.Task != TaskTranslate {
		req.Language = opts.Language
	}
	return req
}

func convertAudioResponse(resp openai.AudioResponse) *Result {
	result := &Result{
		Text:     strings.TrimSpace(resp.Text),
		Language: resp.Language,
		Duration: resp.Duration,
	}
	for _, seg := range resp.Segments {
		result.Segments = append(result.Segments, Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return result
}
