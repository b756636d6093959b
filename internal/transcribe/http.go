package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

const maxErrorBody = 512

// APIError is a non-2xx reply from a hosted backend.
type APIError struct {
	Backend string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Backend, e.Status, e.Message)
}

type upload struct {
	backend     string
	url         string
	auth        string
	contentType string
	body        io.Reader
}

// post sends one upload and returns the response body of a 200 reply.
func post(ctx context.Context, u upload) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, u.body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", u.auth)
	req.Header.Set("Content-Type", u.contentType)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", u.backend, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s response: %w", u.backend, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Backend: u.backend, Status: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

// errorMessage pulls the human readable part out of an error body. Deepgram
// uses err_msg, Mistral message or detail.
func errorMessage(body []byte) string {
	var fields map[string]any
	if json.Unmarshal(body, &fields) == nil {
		for _, key := range []string{"err_msg", "message", "detail", "error"} {
			if s, ok := fields[key].(string); ok && s != "" {
				return s
			}
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	if msg == "" {
		msg = "empty response"
	}
	return msg
}

func audioContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".aac":
		return "audio/aac"
	case ".wav":
		return "audio/wav"
	case ".ogg", ".opus":
		return "audio/ogg"
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".m4a":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}
