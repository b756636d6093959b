package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type whisperVariant int

const (
	variantWhisper    whisperVariant = iota // openai-whisper Python CLI
	variantWhisperCPP                       // whisper.cpp whisper-cli
	variantWhisperX                         // whisperx
)

func detectVariant(binary string) whisperVariant {
	switch filepath.Base(binary) {
	case "whisper-cli", "whisper-cpp", "main":
		return variantWhisperCPP
	case "whisperx":
		return variantWhisperX
	default:
		return variantWhisper
	}
}

// Whisper runs a locally installed whisper CLI and reads its JSON output.
type Whisper struct {
	binary       string
	defaultModel string
	device       string
	variant      whisperVariant
}

func NewWhisper(binary, defaultModel, device string) *Whisper {
	return &Whisper{
		binary:       binary,
		defaultModel: defaultModel,
		device:       device,
		variant:      detectVariant(binary),
	}
}

func (w *Whisper) Name() string {
	switch w.variant {
	case variantWhisperCPP:
		return "whisper-cpp"
	case variantWhisperX:
		return "whisperx"
	default:
		return "whisper"
	}
}

// AudioInput is WAV for whisper-cli, which decodes only WAV, FLAC, MP3 and
// OGG. The Python CLIs read anything ffmpeg can.
func (w *Whisper) AudioInput() AudioFormat {
	if w.variant == variantWhisperCPP {
		return AudioWAV
	}
	return AudioAAC
}

func (w *Whisper) Transcribe(ctx context.Context, audioPath string, opts TranscribeOpts) (*Result, error) {
	if _, err := exec.LookPath(w.binary); err != nil {
		return nil, fmt.Errorf("whisper binary %q not found on PATH: %w", w.binary, err)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}
	if err := validateTask(w.Name(), opts, true); err != nil {
		return nil, err
	}

	// whisper writes <input stem>.json into --output_dir
	tmpDir, err := os.MkdirTemp("", "decipher-whisper-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	cmd := exec.CommandContext(ctx, w.binary, w.buildArgs(audioPath, tmpDir, opts)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s failed: %w: %s", w.Name(), err, lastLine(stderr.String()))
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	data, err := os.ReadFile(filepath.Join(tmpDir, base+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s output: %w", w.Name(), err)
	}

	if w.variant == variantWhisperCPP {
		return parseWhisperCPPOutput(data)
	}
	return parseWhisperOutput(data)
}

func (w *Whisper) model(opts TranscribeOpts) string {
	if opts.Model != "" {
		return opts.Model
	}
	return w.defaultModel
}

func (w *Whisper) buildArgs(audioPath, outDir string, opts TranscribeOpts) []string {
	model := w.model(opts)

	if w.variant == variantWhisperCPP {
		base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
		args := []string{
			"-m", resolveWhisperCPPModel(model),
			"-f", audioPath,
			"-oj",
			"-of", filepath.Join(outDir, base),
			"-np",
		}
		if opts.Language != "" {
			args = append(args, "-l", opts.Language)
		} else {
			args = append(args, "-l", "auto")
		}
		if opts.Task == TaskTranslate {
			args = append(args, "-tr")
		}
		return args
	}

	task := opts.Task
	if task == "" {
		task = TaskTranscribe
	}
	args := []string{
		"--model", model,
		"--task", string(task),
		"--output_format", "json",
		"--output_dir", outDir,
	}
	if w.variant == variantWhisper {
		args = append(args, "--verbose", "False")
	}
	if opts.Language != "" {
		args = append(args, "--language", opts.Language)
	}
	if w.device != "" {
		args = append(args, "--device", w.device)
	}
	return append(args, audioPath)
}

// resolveWhisperCPPModel maps a bare model name like "base" to a ggml file
// in the usual download locations.
func resolveWhisperCPPModel(model string) string {
	if strings.ContainsRune(model, os.PathSeparator) || strings.HasSuffix(model, ".bin") {
		return model
	}
	file := "ggml-" + model + ".bin"
	if home, err := os.UserHomeDir(); err == nil {
		for _, dir := range []string{
			filepath.Join(home, ".local", "share", "whisper-cpp"),
			filepath.Join(home, ".local", "share", "whisper"),
			filepath.Join(home, ".cache", "whisper"),
		} {
			p := filepath.Join(dir, file)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return file
}

type whisperOutput struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
}

type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func parseWhisperOutput(data []byte) (*Result, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse whisper JSON: %w", err)
	}

	result := &Result{
		Text:     strings.TrimSpace(out.Text),
		Language: out.Language,
	}
	for _, seg := range out.Segments {
		result.Segments = append(result.Segments, Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	if result.Text == "" {
		result.Text = joinSegments(result.Segments)
	}
	if len(result.Segments) > 0 {
		result.Duration = result.Segments[len(result.Segments)-1].End
	}
	return result, nil
}

type whisperCPPOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func parseWhisperCPPOutput(data []byte) (*Result, error) {
	var out whisperCPPOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse whisper-cpp JSON: %w", err)
	}
	result := &Result{Language: out.Result.Language}
	for _, t := range out.Transcription {
		result.Segments = append(result.Segments, Segment{
			Start: float64(t.Offsets.From) / 1000,
			End:   float64(t.Offsets.To) / 1000,
			Text:  strings.TrimSpace(t.Text),
		})
	}
	result.Text = joinSegments(result.Segments)
	if len(result.Segments) > 0 {
		result.Duration = result.Segments[len(result.Segments)-1].End
	}
	return result, nil
}

func joinSegments(segs []Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, " ")
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
