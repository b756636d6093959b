package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/joegoldin/decipher/internal/config"
	"github.com/joegoldin/decipher/internal/ffmpeg"
	"github.com/joegoldin/decipher/internal/logging"
	"github.com/joegoldin/decipher/internal/pipeline"
	"github.com/joegoldin/decipher/internal/tui"
)

func loadConfig() (*config.Config, error) {
	config.LoadDotEnv()
	var cfg *config.Config
	var err error
	if flagConfig != "" {
		cfg, err = config.LoadFrom(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func newLogger(cfg *config.Config) (*log.Logger, error) {
	return logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Verbose: flagVerbose,
		Output:  os.Stderr,
	})
}

// run wires a pipeline to the progress display and a signal-aware context,
// calls fn and prints the produced paths to stdout.
func run(cfg *config.Config, fn func(ctx context.Context, p *pipeline.Pipeline) (pipeline.PathStore, error)) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reporter := tui.NewReporter(os.Stderr, flagNoTUI, logger, cancel)
	if _, plain := reporter.(*tui.PlainReporter); !plain && !flagVerbose {
		// log lines would tear the progress display
		logger.SetLevel(log.WarnLevel)
	}

	runner := ffmpeg.NewRunner(cfg.FFmpeg.Binary, logger)
	runner.OnProgress(reporter.Progress)

	p := pipeline.New(cfg, runner, logger)
	p.OnStage(reporter.Stage)
	p.OnProgress(reporter.Progress)

	store, err := fn(ctx, p)
	reporter.Finish(err)
	if err != nil {
		return err
	}

	printResult(store)
	return nil
}

// printResult writes the final artifacts to stdout, one per line, so the
// output can be piped.
func printResult(store pipeline.PathStore) {
	fmt.Println(store.SubtitleFile)
	if store.TranscriptFile != "" {
		fmt.Println(store.TranscriptFile)
	}
	if store.VideoFile != "" {
		fmt.Println(store.VideoFile)
	}
}
