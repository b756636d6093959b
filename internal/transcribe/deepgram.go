package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
)

// Deepgram streams the audio file to the prerecorded listen endpoint and
// turns utterances into cues. It has no translate mode.
type Deepgram struct {
	apiKey       string
	defaultModel string
	baseURL      string
}

func NewDeepgram(apiKey, defaultModel string) *Deepgram {
	return &Deepgram{apiKey: apiKey, defaultModel: defaultModel, baseURL: "https://api.deepgram.com"}
}

func (d *Deepgram) Name() string { return "deepgram" }

func (d *Deepgram) Transcribe(ctx context.Context, audioPath string, opts TranscribeOpts) (*Result, error) {
	if d.apiKey == "" {
		return nil, fmt.Errorf("deepgram API key not configured (set DEEPGRAM_API_KEY or config)")
	}
	if err := validateTask(d.Name(), opts, false); err != nil {
		return nil, err
	}

	audio, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer audio.Close()

	body, err := post(ctx, upload{
		backend:     d.Name(),
		url:         d.baseURL + "/v1/listen?" + d.buildQuery(opts).Encode(),
		auth:        "Token " + d.apiKey,
		contentType: audioContentType(audioPath),
		body:        audio,
	})
	if err != nil {
		return nil, err
	}
	return d.parseResponse(body)
}

func (d *Deepgram) buildQuery(opts TranscribeOpts) url.Values {
	q := url.Values{}
	q.Set("model", firstOf(opts.Model, d.defaultModel))
	// utterances are subtitle-sized and carry timestamps
	q.Set("utterances", "true")
	q.Set("smart_format", "true")
	q.Set("punctuate", "true")
	if opts.Language == "" {
		q.Set("detect_language", "true")
	} else {
		q.Set("language", opts.Language)
	}
	return q
}

type deepgramUtterance struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Transcript string  `json:"transcript"`
}

type deepgramChannel struct {
	DetectedLanguage string `json:"detected_language"`
	Alternatives     []struct {
		Transcript string `json:"transcript"`
	} `json:"alternatives"`
}

type deepgramResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels   []deepgramChannel   `json:"channels"`
		Utterances []deepgramUtterance `json:"utterances"`
	} `json:"results"`
}

func (d *Deepgram) parseResponse(data []byte) (*Result, error) {
	var resp deepgramResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode deepgram response: %w", err)
	}

	result := &Result{Duration: resp.Metadata.Duration}
	if chans := resp.Results.Channels; len(chans) > 0 {
		result.Language = chans[0].DetectedLanguage
		if alts := chans[0].Alternatives; len(alts) > 0 {
			result.Text = alts[0].Transcript
		}
	}
	result.Segments = make([]Segment, 0, len(resp.Results.Utterances))
	for _, u := range resp.Results.Utterances {
		result.Segments = append(result.Segments, Segment{Start: u.Start, End: u.End, Text: u.Transcript})
	}
	return result, nil
}
