package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joegoldin/decipher/internal/config"
	"github.com/joegoldin/decipher/internal/ffmpeg"
	"github.com/joegoldin/decipher/internal/transcribe"
)

var errFFmpegMissing = errors.New("ffmpeg not found on PATH")

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check ffmpeg and speech backend availability",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rows, ok := doctorRows(cfg)
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Component", "Status", "Detail"}, rows))
		if !ok {
			return errFFmpegMissing
		}
		return nil
	},
}

// doctorRows reports each dependency. ok is false when ffmpeg itself is
// missing, which makes every command fail.
func doctorRows(cfg *config.Config) (rows [][]string, ok bool) {
	ok = true
	binaryRow := func(name, binary string) []string {
		path, err := ffmpeg.Locate(binary)
		if err != nil {
			return []string{name, "missing", binary + " not on PATH"}
		}
		return []string{name, "ok", path}
	}

	ffmpegRow := binaryRow("ffmpeg", cfg.FFmpeg.Binary)
	if ffmpegRow[1] != "ok" {
		ok = false
	}
	rows = append(rows, ffmpegRow)

	probeRow := binaryRow("ffprobe", cfg.FFmpeg.FFprobe)
	if probeRow[1] != "ok" {
		probeRow[1] = "optional"
	}
	rows = append(rows, probeRow)

	rows = append(rows, binaryRow("whisper", cfg.Transcribe.Whisper.Binary))
	rows = append(rows, binaryRow("whisper-cli", "whisper-cli"))
	rows = append(rows, whisperCppRow(cfg.Transcribe.WhisperCpp))
	rows = append(rows, keyRow("openai", cfg.Transcribe.OpenAI.APIKey, "OPENAI_API_KEY"))
	rows = append(rows, keyRow("deepgram", cfg.Transcribe.Deepgram.APIKey, "DEEPGRAM_API_KEY"))
	rows = append(rows, keyRow("mistral", cfg.Transcribe.Mistral.APIKey, "MISTRAL_API_KEY"))

	selected := "none available"
	if tr, err := transcribe.NewDispatcher(cfg, "", nil); err == nil {
		selected = tr.Name()
	} else if cfg.Transcribe.Backend != "" {
		selected = fmt.Sprintf("%s (%v)", cfg.Transcribe.Backend, err)
	}
	rows = append(rows, []string{"backend", "selected", selected})
	return rows, ok
}

func whisperCppRow(wc config.WhisperCppConfig) []string {
	if !transcribe.WhisperCppCompiled {
		return []string{"whispercpp", "missing", "not compiled in (build with -tags whispercpp)"}
	}
	if wc.ModelPath == "" {
		return []string{"whispercpp", "missing", "whispercpp.model_path not set"}
	}
	if _, err := os.Stat(wc.ModelPath); err != nil {
		return []string{"whispercpp", "missing", err.Error()}
	}
	return []string{"whispercpp", "ok", wc.ModelPath}
}

func keyRow(name, key, env string) []string {
	if key == "" {
		return []string{name, "missing", "set " + env + " or config"}
	}
	return []string{name, "ok", "API key " + maskKey(key)}
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "…" + key[len(key)-4:]
}
