package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Mistral uses the Voxtral transcription endpoint with segment timestamps.
type Mistral struct {
	apiKey       string
	defaultModel string
	baseURL      string
}

func NewMistral(apiKey, defaultModel string) *Mistral {
	return &Mistral{apiKey: apiKey, defaultModel: defaultModel, baseURL: "https://api.mistral.ai"}
}

func (m *Mistral) Name() string { return "mistral" }

func (m *Mistral) Transcribe(ctx context.Context, audioPath string, opts TranscribeOpts) (*Result, error) {
	if m.apiKey == "" {
		return nil, fmt.Errorf("Mistral API key not configured (set MISTRAL_API_KEY or config)")
	}
	if err := validateTask(m.Name(), opts, false); err != nil {
		return nil, err
	}

	audio, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer audio.Close()

	form, contentType := m.streamForm(audio, filepath.Base(audioPath), firstOf(opts.Model, m.defaultModel))
	defer form.Close()

	body, err := post(ctx, upload{
		backend:     m.Name(),
		url:         m.baseURL + "/v1/audio/transcriptions",
		auth:        "Bearer " + m.apiKey,
		contentType: contentType,
		body:        form,
	})
	if err != nil {
		return nil, err
	}
	return m.parseResponse(body)
}

// streamForm encodes the multipart body on the fly so long recordings are
// not held in memory. Closing the returned reader stops the writer.
func (m *Mistral) streamForm(audio io.Reader, filename, model string) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			if err := w.WriteField("model", model); err != nil {
				return err
			}
			// the API refuses a language together with timestamps, so
			// detection is left to the service
			if err := w.WriteField("timestamp_granularities", "segment"); err != nil {
				return err
			}
			part, err := w.CreateFormFile("file", filename)
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, audio); err != nil {
				return err
			}
			return w.Close()
		}()
		pw.CloseWithError(err)
	}()

	return pr, w.FormDataContentType()
}

type mistralSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type mistralResponse struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []mistralSegment `json:"segments"`
	Usage    struct {
		PromptAudioSeconds float64 `json:"prompt_audio_seconds"`
	} `json:"usage"`
}

func (m *Mistral) parseResponse(data []byte) (*Result, error) {
	var resp mistralResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode mistral response: %w", err)
	}

	result := &Result{Text: resp.Text, Language: resp.Language, Duration: resp.Usage.PromptAudioSeconds}
	result.Segments = make([]Segment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		result.Segments = append(result.Segments, Segment(seg))
	}
	if result.Duration == 0 && len(result.Segments) > 0 {
		result.Duration = result.Segments[len(result.Segments)-1].End
	}
	return result, nil
}
