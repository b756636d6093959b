package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joegoldin/decipher/internal/pipeline"
	"github.com/joegoldin/decipher/internal/transcribe"
)

var (
	tInput    string
	tOutput   string
	tModel    string
	tTask     string
	tLanguage string
	tSubs     string
	tBackend  string
	tFormat   string
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe -i <video> [flags]",
	Short: "Transcribe a video's audio into an SRT file",
	Long: `Extract the audio track, run speech recognition and write
<output>/<video name>.srt. With --subs the subtitles are then added as a
soft track (add) or rendered into the frames (burn).

If --input is a directory, the most recently modified video in it is used.

Examples:
  decipher transcribe -i talk.mp4
  decipher transcribe -i talk.mp4 -l French --task translate
  decipher transcribe -i talk.mp4 -s burn -o out
  decipher transcribe -i talk.mp4 --transcript json
  decipher transcribe -i ~/Videos -b openai`,
	Args: cobra.NoArgs,
	RunE: runTranscribe,
}

func init() {
	transcribeCmd.Flags().StringVarP(&tInput, "input", "i", "", "input video file (or directory)")
	transcribeCmd.Flags().StringVarP(&tOutput, "output", "o", "", "output directory (default from config, \"result\")")
	transcribeCmd.Flags().StringVar(&tModel, "model", "", "model name (backend default if empty)")
	transcribeCmd.Flags().StringVar(&tTask, "task", "", "transcribe or translate (into English)")
	transcribeCmd.Flags().StringVarP(&tLanguage, "language", "l", "", "spoken language, code or name (auto-detect if empty)")
	transcribeCmd.Flags().StringVarP(&tSubs, "subs", "s", "", "then add or burn the subtitles into the video")
	transcribeCmd.Flags().StringVarP(&tBackend, "backend", "b", "", "speech backend (whisper, whispercpp, openai, deepgram, mistral)")
	transcribeCmd.Flags().StringVar(&tFormat, "transcript", "", "also write the transcript as text, json or vtt")
	transcribeCmd.MarkFlagRequired("input")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	taskName := tTask
	if taskName == "" {
		taskName = cfg.Transcribe.Task
	}
	task, err := transcribe.ParseTask(taskName)
	if err != nil {
		return err
	}
	action, err := pipeline.ParseAction(tSubs)
	if err != nil {
		return err
	}
	var transcript transcribe.OutputFormat
	if tFormat != "" {
		if transcript, err = transcribe.ParseFormat(tFormat); err != nil {
			return err
		}
	}

	input, err := resolveInput(tInput)
	if err != nil {
		return err
	}
	if input != tInput {
		fmt.Fprintf(os.Stderr, "Using %s\n", input)
	}

	outputDir := tOutput
	if outputDir == "" {
		outputDir = cfg.ResolveOutputDir()
	}
	lang := tLanguage
	if lang == "" {
		lang = cfg.Transcribe.Language
	}

	req := pipeline.TranscribeRequest{
		Input:          input,
		OutputDir:      outputDir,
		Model:          tModel,
		Language:       lang,
		Task:           task,
		Backend:        tBackend,
		SubtitleAction: action,
		Transcript:     transcript,
	}
	return run(cfg, func(ctx context.Context, p *pipeline.Pipeline) (pipeline.PathStore, error) {
		return p.Transcribe(ctx, req)
	})
}
