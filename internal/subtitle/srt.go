package subtitle

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrEmptySubtitles is returned for an SRT file without any cue.
var ErrEmptySubtitles = errors.New("subtitle file has no cues")

// CountCues counts blank-line separated blocks that carry a timing line.
func CountCues(content string) int {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	count := 0
	for _, block := range strings.Split(strings.TrimSpace(content), "\n\n") {
		if strings.Contains(block, "-->") {
			count++
		}
	}
	return count
}

// ValidateSRT checks that path is a readable SRT file with at least one cue.
func ValidateSRT(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read subtitles: %w", err)
	}
	n := CountCues(string(data))
	if n == 0 {
		return 0, fmt.Errorf("%s: %w", path, ErrEmptySubtitles)
	}
	return n, nil
}
