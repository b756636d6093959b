package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/joegoldin/decipher/internal/pipeline"
)

var (
	sInput    string
	sSubs     string
	sOutput   string
	sTask     string
	sLanguage string
)

var subtitleCmd = &cobra.Command{
	Use:   "subtitle -i <video> -s <file.srt> [flags]",
	Short: "Burn or add an existing SRT file into a video",
	Long: `burn renders the subtitles into the picture (re-encodes the video);
add muxes them as a selectable track (stream copy, mp4 or mkv per
subtitle.add_format). The result is <output>/<video name>_out<ext>.

Examples:
  decipher subtitle -i talk.mp4 -s result/talk.srt
  decipher subtitle -i talk.mp4 -s talk.srt --task add -l de`,
	Args: cobra.NoArgs,
	RunE: runSubtitle,
}

func init() {
	subtitleCmd.Flags().StringVarP(&sInput, "input", "i", "", "input video file")
	subtitleCmd.Flags().StringVarP(&sSubs, "subs", "s", "", "SRT subtitle file")
	subtitleCmd.Flags().StringVarP(&sOutput, "output", "o", "", "output directory (default from config, \"result\")")
	subtitleCmd.Flags().StringVar(&sTask, "task", "burn", "add or burn")
	subtitleCmd.Flags().StringVarP(&sLanguage, "language", "l", "", "language tag for the added track")
	subtitleCmd.MarkFlagRequired("input")
	subtitleCmd.MarkFlagRequired("subs")
}

func runSubtitle(cmd *cobra.Command, args []string) error {
	action, err := pipeline.ParseAction(sTask)
	if err != nil {
		return err
	}
	if action == "" {
		action = pipeline.ActionBurn
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	outputDir := sOutput
	if outputDir == "" {
		outputDir = cfg.ResolveOutputDir()
	}

	req := pipeline.SubtitleRequest{
		Input:     sInput,
		Subtitles: sSubs,
		OutputDir: outputDir,
		Action:    action,
		Language:  sLanguage,
	}
	return run(cfg, func(ctx context.Context, p *pipeline.Pipeline) (pipeline.PathStore, error) {
		return p.Subtitle(ctx, req)
	})
}
