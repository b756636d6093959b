package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joegoldin/decipher/internal/ffmpeg"
	"github.com/joegoldin/decipher/internal/language"
	"github.com/joegoldin/decipher/internal/subtitle"
	"github.com/joegoldin/decipher/internal/transcribe"
)

// Transcribe extracts the audio track of req.Input, transcribes it and
// writes <output>/<stem>.srt. With a SubtitleAction it goes on to add or
// burn the subtitles.
func (p *Pipeline) Transcribe(ctx context.Context, req TranscribeRequest) (PathStore, error) {
	input, outputDir, err := prepare(req.Input, req.OutputDir)
	if err != nil {
		return PathStore{}, err
	}

	lang, ok, err := language.Normalize(req.Language)
	if err != nil {
		return PathStore{}, err
	}
	shortLang := ""
	if ok {
		shortLang = lang.String()
		p.logger.Debug("spoken language", "code", shortLang, "name", lang.Name())
	}

	tr, err := p.newTranscriber(req.Backend)
	if err != nil {
		return PathStore{}, err
	}

	store, detected, err := p.transcribeLocked(ctx, input, outputDir, tr, req, shortLang)
	if err != nil {
		return PathStore{}, err
	}
	if req.SubtitleAction == "" {
		return store, nil
	}

	subLang := firstNonEmpty(shortLang, detected)
	if req.Task == transcribe.TaskTranslate {
		subLang = "en"
	}
	subbed, err := p.Subtitle(ctx, SubtitleRequest{
		Input:     input,
		Subtitles: store.SubtitleFile,
		OutputDir: outputDir,
		Action:    req.SubtitleAction,
		Language:  subLang,
	})
	if err != nil {
		return PathStore{}, err
	}
	subbed.TranscriptFile = store.TranscriptFile
	return subbed, nil
}

// transcribeLocked holds the output lock only for the transcription half,
// so Subtitle can take it again for its own half.
func (p *Pipeline) transcribeLocked(ctx context.Context, input, outputDir string, tr transcribe.Transcriber, req TranscribeRequest, lang string) (store PathStore, detected string, err error) {
	unlock, err := p.lockOutput(outputDir)
	if err != nil {
		return PathStore{}, "", err
	}
	defer unlock()

	info, probed, err := p.probe(ctx, input)
	if err != nil {
		return PathStore{}, "", err
	}
	var duration float64
	if probed {
		if info.AudioStreamCount() == 0 {
			return PathStore{}, "", fmt.Errorf("%s: %w", input, ErrNoAudioStream)
		}
		duration = info.DurationSeconds()
	}

	tmpDir, err := os.MkdirTemp("", "decipher-*")
	if err != nil {
		return PathStore{}, "", err
	}
	defer os.RemoveAll(tmpDir)

	audio := filepath.Join(tmpDir, "audio.aac")
	p.stage("Extracting audio")
	if err := p.runner.Run(ctx, ffmpeg.Job{
		Label:    "Extracting audio",
		Args:     ffmpeg.ExtractAudioArgs(input, audio),
		Duration: duration,
	}); err != nil {
		return PathStore{}, "", err
	}
	if format := transcribe.InputFormat(tr); format != transcribe.AudioAAC {
		converted := filepath.Join(tmpDir, "audio."+string(format))
		p.stage("Converting audio")
		if err := p.runner.Run(ctx, ffmpeg.Job{
			Label:    "Converting audio",
			Args:     ffmpeg.ConvertAudioArgs(audio, converted, string(format)),
			Duration: duration,
		}); err != nil {
			return PathStore{}, "", err
		}
		audio = converted
	}

	p.stage("Transcribing")
	p.logger.Info("transcribing", "backend", tr.Name(), "model", req.Model, "task", req.Task, "language", lang)
	result, err := tr.Transcribe(ctx, audio, transcribe.TranscribeOpts{
		Model:    req.Model,
		Language: lang,
		Task:     req.Task,
		Progress: p.transcribeProgress(),
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return PathStore{}, "", fmt.Errorf("transcribing: %w", err)
		}
		return PathStore{}, "", fmt.Errorf("%s transcription failed: %w", tr.Name(), err)
	}
	if result.Duration == 0 {
		result.Duration = duration
	}
	if result.Empty() {
		return PathStore{}, "", fmt.Errorf("%s: %w", input, ErrNoSpeech)
	}

	store = PathStore{OutputDir: outputDir}
	store.SubtitleFile = filepath.Join(outputDir, subtitle.ChangeExtension(input, "srt"))
	if err := os.WriteFile(store.SubtitleFile, []byte(result.Format(transcribe.FormatSRT)), 0644); err != nil {
		return PathStore{}, "", fmt.Errorf("write subtitles: %w", err)
	}
	if _, err := os.Stat(store.SubtitleFile); err != nil {
		return PathStore{}, "", ErrSRTNotGenerated
	}
	p.logger.Info("subtitles written", "path", store.SubtitleFile)

	if req.Transcript != "" && req.Transcript != transcribe.FormatSRT {
		store.TranscriptFile = filepath.Join(outputDir, subtitle.ChangeExtension(input, req.Transcript.Ext()))
		if err := os.WriteFile(store.TranscriptFile, []byte(result.Format(req.Transcript)), 0644); err != nil {
			return PathStore{}, "", fmt.Errorf("write transcript: %w", err)
		}
		p.logger.Info("transcript written", "path", store.TranscriptFile, "format", req.Transcript)
	}
	return store, result.Language, nil
}

func (p *Pipeline) transcribeProgress() func(float64) {
	if p.onProgress == nil {
		return nil
	}
	return func(f float64) {
		p.onProgress(ffmpeg.Progress{
			Label:   "Transcribing",
			Current: int(f * 100),
			Total:   100,
			Unit:    ffmpeg.UnitPercent,
			Done:    f >= 1,
		})
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
