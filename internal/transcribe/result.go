package transcribe

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

type Result struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func (r *Result) Format(f OutputFormat) string {
	switch f {
	case FormatJSON:
		return r.formatJSON()
	case FormatSRT:
		return r.formatSRT()
	case FormatVTT:
		return r.formatVTT()
	default:
		return r.Text
	}
}

// Empty reports whether the result carries no speech at all.
func (r *Result) Empty() bool {
	return len(r.cues()) == 0
}

func (r *Result) formatJSON() string {
	b, _ := json.MarshalIndent(r, "", "  ")
	return string(b)
}

// cues returns the segments worth rendering. A result with text but no
// segments becomes one cue spanning the whole duration.
func (r *Result) cues() []Segment {
	var out []Segment
	for _, seg := range r.Segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		out = append(out, seg)
	}
	if len(out) > 0 {
		return out
	}
	if strings.TrimSpace(r.Text) == "" {
		return nil
	}
	end := r.Duration
	if end <= 0 {
		end = 1
	}
	return []Segment{{Start: 0, End: end, Text: r.Text}}
}

func (r *Result) formatSRT() string {
	var b strings.Builder
	for i, seg := range r.cues() {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", srtTime(seg.Start), srtTime(seg.End))
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(seg.Text))
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func (r *Result) formatVTT() string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, seg := range r.cues() {
		fmt.Fprintf(&b, "%s --> %s\n", vttTime(seg.Start), vttTime(seg.End))
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(seg.Text))
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func splitTime(seconds float64) (h, m, s, ms int) {
	if seconds < 0 {
		seconds = 0
	}
	total := int(math.Round(seconds * 1000))
	ms = total % 1000
	total /= 1000
	return total / 3600, (total % 3600) / 60, total % 60, ms
}

func srtTime(seconds float64) string {
	h, m, s, ms := splitTime(seconds)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func vttTime(seconds float64) string {
	h, m, s, ms := splitTime(seconds)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
