package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joegoldin/decipher/internal/ffmpeg"
	"github.com/joegoldin/decipher/internal/subtitle"
)

// Subtitle burns or adds req.Subtitles into req.Input, writing
// <output>/<stem>_out<ext>. The input video is never modified.
func (p *Pipeline) Subtitle(ctx context.Context, req SubtitleRequest) (PathStore, error) {
	if req.Action == "" {
		req.Action = ActionBurn
	}
	if _, err := ParseAction(string(req.Action)); err != nil {
		return PathStore{}, err
	}

	input, outputDir, err := prepare(req.Input, req.OutputDir)
	if err != nil {
		return PathStore{}, err
	}
	subs, err := filepath.Abs(req.Subtitles)
	if err != nil {
		return PathStore{}, err
	}
	cues, err := subtitle.ValidateSRT(subs)
	if err != nil {
		return PathStore{}, fmt.Errorf("subtitle file: %w", err)
	}
	p.logger.Debug("subtitles validated", "path", subs, "cues", cues)

	unlock, err := p.lockOutput(outputDir)
	if err != nil {
		return PathStore{}, err
	}
	defer unlock()

	var duration float64
	info, probed, err := p.probe(ctx, input)
	if err != nil {
		return PathStore{}, err
	}
	if probed {
		if info.VideoStreamCount() == 0 {
			return PathStore{}, fmt.Errorf("%s: %w", input, ErrNoVideoStream)
		}
		duration = info.DurationSeconds()
		if n := info.SubtitleStreamCount(); n > 0 {
			p.logger.Debug("input already carries subtitle tracks", "count", n)
		}
	}

	store := PathStore{OutputDir: outputDir, SubtitleFile: subs}
	switch req.Action {
	case ActionBurn:
		store.VideoFile, err = p.burn(ctx, input, subs, outputDir, duration)
	case ActionAdd:
		lang := metadataLanguage(req.Language, info.AudioLanguage())
		store.VideoFile, err = p.add(ctx, input, subs, outputDir, lang, duration)
	}
	if err != nil {
		return PathStore{}, err
	}
	p.logger.Info("video written", "path", store.VideoFile)
	return store, nil
}

// burnASSName is the file name the ass filter reads during a burn.
const burnASSName = "subtitles.ass"

func (p *Pipeline) burn(ctx context.Context, input, subs, outputDir string, duration float64) (string, error) {
	assName := subtitle.ChangeExtension(input, "ass")
	assPath := filepath.Join(outputDir, assName)

	p.stage("Converting subtitles")
	if err := p.runner.Run(ctx, ffmpeg.Job{
		Label: "Converting subtitles",
		Args:  ffmpeg.SRTToASSArgs(subs, assPath),
	}); err != nil {
		return "", err
	}
	if _, err := os.Stat(assPath); err != nil {
		return "", fmt.Errorf("ASS file not generated: %w", err)
	}

	if err := subtitle.RewriteStyle(assPath, p.styleLine()); err != nil {
		return "", fmt.Errorf("rewrite style: %w", err)
	}

	// the ass filter sees only a fixed bare name in a scratch directory, so
	// nothing from the input's file name reaches the filter graph
	stageDir, err := os.MkdirTemp("", "decipher-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(stageDir)
	data, err := os.ReadFile(assPath)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(stageDir, burnASSName), data, 0o644); err != nil {
		return "", fmt.Errorf("stage ASS file: %w", err)
	}

	out := filepath.Join(outputDir, subtitle.OutputName(input, "_out", "", ".mp4"))
	p.stage("Burning subtitles")
	if err := p.runner.Run(ctx, ffmpeg.Job{
		Label:    "Burning subtitles",
		Args:     ffmpeg.BurnArgs(input, burnASSName, out),
		Dir:      stageDir,
		Duration: duration,
	}); err != nil {
		return "", err
	}
	return out, nil
}

func (p *Pipeline) add(ctx context.Context, input, subs, outputDir, lang string, duration float64) (string, error) {
	format := ffmpeg.ParseMuxFormat(p.cfg.Subtitle.AddFormat)
	out := filepath.Join(outputDir, subtitle.OutputName(input, "_out", format.Ext(), ""))

	p.stage("Adding subtitles")
	if err := p.runner.Run(ctx, ffmpeg.Job{
		Label:    "Adding subtitles",
		Args:     ffmpeg.MuxArgs(input, subs, out, format, lang),
		Duration: duration,
	}); err != nil {
		return "", err
	}
	return out, nil
}

func (p *Pipeline) styleLine() string {
	custom := p.cfg.Subtitle.Style
	if custom == "" {
		return subtitle.DefaultStyle.Line()
	}
	parsed, err := subtitle.ParseStyle(custom)
	if err != nil {
		p.logger.Warn("ignoring subtitle.style", "err", err)
		return subtitle.DefaultStyle.Line()
	}
	return parsed.Line()
}
