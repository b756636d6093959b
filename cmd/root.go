package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagVerbose bool
	flagNoTUI   bool
)

var rootCmd = &cobra.Command{
	Use:   "decipher",
	Short: "Generate and embed video subtitles with speech recognition",
	Long: `Extract the audio track of a video, transcribe it to an SRT file and
optionally burn or add the subtitles back into the video with ffmpeg.

Examples:
  decipher transcribe -i talk.mp4
  decipher transcribe -i talk.mp4 --task translate -s burn
  decipher subtitle -i talk.mp4 -s result/talk.srt --task add`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoTUI, "no-tui", false, "plain log output instead of the progress display")

	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(subtitleCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(configCmd)
}

func ExecuteRoot() {
	execute()
}

// ExecuteTranscribe runs the transcribe subcommand directly, for a binary
// invoked as "transcribe".
func ExecuteTranscribe() {
	rootCmd.SetArgs(append([]string{"transcribe"}, os.Args[1:]...))
	execute()
}

// ExecuteSubtitle runs the subtitle subcommand directly, for a binary
// invoked as "subtitle".
func ExecuteSubtitle() {
	rootCmd.SetArgs(append([]string{"subtitle"}, os.Args[1:]...))
	execute()
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
