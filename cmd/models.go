package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joegoldin/decipher/internal/config"
)

// whisperModels are the checkpoint names the whisper CLIs accept.
var whisperModels = []struct {
	name, params, note string
}{
	{"tiny", "39M", ""},
	{"tiny.en", "39M", "English only"},
	{"base", "74M", ""},
	{"base.en", "74M", "English only"},
	{"small", "244M", ""},
	{"small.en", "244M", "English only"},
	{"medium", "769M", ""},
	{"medium.en", "769M", "English only"},
	{"large", "1550M", "alias of the newest large"},
	{"large-v1", "1550M", ""},
	{"large-v2", "1550M", ""},
	{"large-v3", "1550M", ""},
	{"large-v3-turbo", "809M", "no translate"},
	{"turbo", "809M", "alias of large-v3-turbo, no translate"},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List whisper models and each backend's default model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, renderTable([]string{"Whisper model", "Parameters", "Notes"}, whisperModelRows(cfg.Transcribe.Whisper.Model)))
		fmt.Fprintln(out, renderTable([]string{"Backend", "Default model"}, backendModelRows(cfg)))
		return nil
	},
}

func whisperModelRows(current string) [][]string {
	rows := make([][]string, 0, len(whisperModels))
	for _, m := range whisperModels {
		note := m.note
		if m.name == current {
			note = strings.TrimPrefix(note+", configured", ", ")
		}
		rows = append(rows, []string{m.name, m.params, note})
	}
	return rows
}

func backendModelRows(cfg *config.Config) [][]string {
	tc := cfg.Transcribe
	whisperCpp := tc.WhisperCpp.ModelPath
	if whisperCpp == "" {
		whisperCpp = "(model_path not set)"
	}
	return [][]string{
		{"whisper", tc.Whisper.Model},
		{"whispercpp", whisperCpp},
		{"openai", tc.OpenAI.Model},
		{"deepgram", tc.Deepgram.Model},
		{"mistral", tc.Mistral.Model},
	}
}
