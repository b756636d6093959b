package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"github.com/joegoldin/decipher/internal/config"
	"github.com/joegoldin/decipher/internal/ffmpeg"
	"github.com/joegoldin/decipher/internal/logging"
	"github.com/joegoldin/decipher/internal/probe"
	"github.com/joegoldin/decipher/internal/subtitle"
	"github.com/joegoldin/decipher/internal/transcribe"
)

const generatedASS = "[Script Info]\r\nScriptType: v4.00+\r\n\r\n[V4+ Styles]\r\n" +
	"Format: Name, Fontname, Fontsize\r\n" +
	"Style: Default,Arial,16,&Hffffff,&Hffffff,&H0,&H0,0,0,0,0,100,100,0,0,1,1,0,2,10,10,10,0\r\n" +
	"\r\n[Events]\r\n"

// fakeRunner records jobs and creates the file each ffmpeg job would write.
type fakeRunner struct {
	mu   sync.Mutex
	jobs []ffmpeg.Job
	fail string // label to fail
	// staged holds the ASS file the burn job read from its directory
	staged string
}

func (f *fakeRunner) Run(ctx context.Context, job ffmpeg.Job) error {
	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if job.Label == f.fail {
		return &ffmpeg.ExitError{Label: job.Label, Code: 1, Tail: []string{"boom"}}
	}
	if job.Dir != "" {
		if data, err := os.ReadFile(filepath.Join(job.Dir, burnASSName)); err == nil {
			f.staged = string(data)
		}
	}
	out := job.Args[len(job.Args)-1]
	if !filepath.IsAbs(out) {
		out = filepath.Join(job.Dir, out)
	}
	content := "data"
	if strings.HasSuffix(out, ".ass") {
		content = generatedASS
	}
	return os.WriteFile(out, []byte(content), 0644)
}

func (f *fakeRunner) labels() []string {
	var out []string
	for _, j := range f.jobs {
		out = append(out, j.Label)
	}
	return out
}

type fakeTranscriber struct {
	result *transcribe.Result
	err    error
	opts   transcribe.TranscribeOpts
	audio  string
}

func (f *fakeTranscriber) Name() string { return "fake" }

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string, opts transcribe.TranscribeOpts) (*transcribe.Result, error) {
	f.audio = audioPath
	f.opts = opts
	if _, err := os.Stat(audioPath); err != nil {
		return nil, err
	}
	if opts.Progress != nil {
		opts.Progress(1)
	}
	return f.result, f.err
}

// formatTranscriber is a fakeTranscriber that asks for a converted input.
type formatTranscriber struct {
	fakeTranscriber
	format transcribe.AudioFormat
}

func (f *formatTranscriber) AudioInput() transcribe.AudioFormat { return f.format }

func speech() *transcribe.Result {
	return &transcribe.Result{
		Text:     "hello there",
		Language: "en",
		Segments: []transcribe.Segment{
			{Start: 0, End: 1.5, Text: "hello"},
			{Start: 1.5, End: 3, Text: "there"},
		},
	}
}

func audioVideo() probe.Result {
	return probe.Result{
		Streams: []probe.Stream{
			{CodecType: "video"},
			{CodecType: "audio", Tags: map[string]string{"language": "spa"}},
		},
		Format: probe.Format{Duration: "12.5"},
	}
}

func newTestPipeline(t *testing.T, tr transcribe.Transcriber) (*Pipeline, *fakeRunner) {
	t.Helper()
	runner := &fakeRunner{}
	p := &Pipeline{
		cfg:    config.Default(),
		logger: logging.Discard(),
		runner: runner,
		probe: func(ctx context.Context, path string) (probe.Result, bool, error) {
			return audioVideo(), true, nil
		},
		newTranscriber: func(backend string) (transcribe.Transcriber, error) {
			if tr == nil {
				return nil, errors.New("no backend")
			}
			return tr, nil
		},
	}
	return p, runner
}

func writeInput(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    Action
		wantErr bool
	}{
		{"", "", false},
		{"add", ActionAdd, false},
		{"burn", ActionBurn, false},
		{"Burn", "", true},
		{"hard", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAction(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseAction(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestTranscribeWritesSRT(t *testing.T) {
	tr := &fakeTranscriber{result: speech()}
	p, runner := newTestPipeline(t, tr)
	input := writeInput(t, "talk.mp4")
	out := filepath.Join(t.TempDir(), "result")

	store, err := p.Transcribe(t.Context(), TranscribeRequest{
		Input:     input,
		OutputDir: out,
		Model:     "small",
		Language:  "French",
		Task:      transcribe.TaskTranslate,
	})
	if err != nil {
		t.Fatal(err)
	}

	wantSRT := filepath.Join(out, "talk.srt")
	if store.SubtitleFile != wantSRT || store.OutputDir != out || store.VideoFile != "" {
		t.Errorf("unexpected store %+v", store)
	}
	data, err := os.ReadFile(wantSRT)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "1\n00:00:00,000 --> 00:00:01,500\nhello\n") {
		t.Errorf("unexpected SRT:\n%s", data)
	}

	if got := runner.labels(); !slices.Equal(got, []string{"Extracting audio"}) {
		t.Errorf("unexpected jobs %v", got)
	}
	job := runner.jobs[0]
	if job.Args[2] != input || filepath.Base(job.Args[len(job.Args)-1]) != "audio.aac" {
		t.Errorf("unexpected extract args %v", job.Args)
	}
	if job.Duration != 12.5 {
		t.Errorf("probe duration not passed to job: %v", job.Duration)
	}

	if tr.opts.Language != "fr" || tr.opts.Task != transcribe.TaskTranslate || tr.opts.Model != "small" {
		t.Errorf("unexpected transcribe opts %+v", tr.opts)
	}
	if _, err := os.Stat(filepath.Dir(tr.audio)); !os.IsNotExist(err) {
		t.Errorf("temp dir should be removed, stat err = %v", err)
	}
}

func TestTranscribeConvertsAudioForBackend(t *testing.T) {
	tests := []struct {
		format transcribe.AudioFormat
		want   []string
	}{
		{transcribe.AudioM4A, []string{"-c:a", "copy"}},
		{transcribe.AudioWAV, []string{"-ar", "16000", "-ac", "1", "-c:a", "pcm_s16le"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			tr := &formatTranscriber{fakeTranscriber: fakeTranscriber{result: speech()}, format: tt.format}
			p, runner := newTestPipeline(t, tr)
			if _, err := p.Transcribe(t.Context(), TranscribeRequest{Input: writeInput(t, "talk.mp4"), OutputDir: t.TempDir()}); err != nil {
				t.Fatal(err)
			}
			if got := runner.labels(); !slices.Equal(got, []string{"Extracting audio", "Converting audio"}) {
				t.Fatalf("unexpected jobs %v", got)
			}
			extracted := runner.jobs[0].Args[len(runner.jobs[0].Args)-1]
			convert := runner.jobs[1].Args
			if convert[0] != "-y" || convert[2] != extracted {
				t.Errorf("conversion should read the extracted audio: %v", convert)
			}
			for _, arg := range tt.want {
				if !slices.Contains(convert, arg) {
					t.Errorf("expected %s in %v", arg, convert)
				}
			}
			if want := "audio." + string(tt.format); filepath.Base(tr.audio) != want {
				t.Errorf("backend got %s, want %s", tr.audio, want)
			}
			if convert[len(convert)-1] != tr.audio {
				t.Errorf("backend should get the converted file, got %s", tr.audio)
			}
		})
	}
}

func TestTranscribeConvertAudioFailure(t *testing.T) {
	tr := &formatTranscriber{fakeTranscriber: fakeTranscriber{result: speech()}, format: transcribe.AudioWAV}
	p, runner := newTestPipeline(t, tr)
	runner.fail = "Converting audio"
	_, err := p.Transcribe(t.Context(), TranscribeRequest{Input: writeInput(t, "talk.mp4"), OutputDir: t.TempDir()})
	var exitErr *ffmpeg.ExitError
	if !errors.As(err, &exitErr) || exitErr.Label != "Converting audio" {
		t.Fatalf("expected conversion ExitError, got %v", err)
	}
	if tr.audio != "" {
		t.Error("backend should not run after a failed conversion")
	}
}

func TestTranscribeTextOnlyResult(t *testing.T) {
	tr := &fakeTranscriber{result: &transcribe.Result{Text: "just text"}}
	p, _ := newTestPipeline(t, tr)
	store, err := p.Transcribe(t.Context(), TranscribeRequest{
		Input:     writeInput(t, "clip.mov"),
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(store.SubtitleFile)
	if !strings.Contains(string(data), "00:00:00,000 --> 00:00:12,500\njust text") {
		t.Errorf("expected one cue spanning the probed duration:\n%s", data)
	}
}

func TestTranscribeNoSpeech(t *testing.T) {
	tr := &fakeTranscriber{result: &transcribe.Result{}}
	p, _ := newTestPipeline(t, tr)
	out := t.TempDir()
	_, err := p.Transcribe(t.Context(), TranscribeRequest{Input: writeInput(t, "quiet.mp4"), OutputDir: out})
	if !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("expected ErrNoSpeech, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "quiet.srt")); !os.IsNotExist(err) {
		t.Error("no SRT should be written for an empty result")
	}
}

func TestTranscribeMissingInput(t *testing.T) {
	p, runner := newTestPipeline(t, &fakeTranscriber{result: speech()})
	_, err := p.Transcribe(t.Context(), TranscribeRequest{Input: "/nonexistent/video.mp4", OutputDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	if len(runner.jobs) != 0 {
		t.Error("ffmpeg should not run for a missing input")
	}
}

func TestTranscribeNoAudioStream(t *testing.T) {
	p, runner := newTestPipeline(t, &fakeTranscriber{result: speech()})
	p.probe = func(ctx context.Context, path string) (probe.Result, bool, error) {
		return probe.Result{Streams: []probe.Stream{{CodecType: "video"}}}, true, nil
	}
	_, err := p.Transcribe(t.Context(), TranscribeRequest{Input: writeInput(t, "silent.mp4"), OutputDir: t.TempDir()})
	if !errors.Is(err, ErrNoAudioStream) {
		t.Fatalf("expected ErrNoAudioStream, got %v", err)
	}
	if len(runner.jobs) != 0 {
		t.Error("ffmpeg should not run without an audio stream")
	}
}

func TestTranscribeWithoutProbe(t *testing.T) {
	p, runner := newTestPipeline(t, &fakeTranscriber{result: speech()})
	p.probe = func(ctx context.Context, path string) (probe.Result, bool, error) {
		return probe.Result{}, false, nil
	}
	if _, err := p.Transcribe(t.Context(), TranscribeRequest{Input: writeInput(t, "a.mp4"), OutputDir: t.TempDir()}); err != nil {
		t.Fatal(err)
	}
	if runner.jobs[0].Duration != 0 {
		t.Error("duration should be left to ffmpeg's banner")
	}
}

func TestTranscribeBadLanguage(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeTranscriber{result: speech()})
	_, err := p.Transcribe(t.Context(), TranscribeRequest{Input: writeInput(t, "a.mp4"), OutputDir: t.TempDir(), Language: "klingonish"})
	if err == nil {
		t.Fatal("expected error for unknown language")
	}
}

func TestTranscribeExtractFailure(t *testing.T) {
	p, runner := newTestPipeline(t, &fakeTranscriber{result: speech()})
	runner.fail = "Extracting audio"
	_, err := p.Transcribe(t.Context(), TranscribeRequest{Input: writeInput(t, "a.mp4"), OutputDir: t.TempDir()})
	var exitErr *ffmpeg.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ffmpeg ExitError, got %v", err)
	}
}

func TestTranscribeBackendError(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeTranscriber{err: transcribe.ErrUnsupportedTask})
	_, err := p.Transcribe(t.Context(), TranscribeRequest{Input: writeInput(t, "a.mp4"), OutputDir: t.TempDir()})
	if !errors.Is(err, transcribe.ErrUnsupportedTask) {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}
}

func TestTranscribeCancelled(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeTranscriber{result: speech()})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := p.Transcribe(ctx, TranscribeRequest{Input: writeInput(t, "a.mp4"), OutputDir: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTranscribeLocked(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeTranscriber{result: speech()})
	out := t.TempDir()
	held := flock.New(filepath.Join(out, lockName))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("could not take lock: %v", err)
	}
	defer held.Unlock()

	_, err = p.Transcribe(t.Context(), TranscribeRequest{Input: writeInput(t, "a.mp4"), OutputDir: out})
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestTranscribeReportsStagesAndProgress(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeTranscriber{result: speech()})
	var stages []string
	var progress []ffmpeg.Progress
	p.OnStage(func(label string) { stages = append(stages, label) })
	p.OnProgress(func(pr ffmpeg.Progress) { progress = append(progress, pr) })

	if _, err := p.Transcribe(t.Context(), TranscribeRequest{Input: writeInput(t, "a.mp4"), OutputDir: t.TempDir()}); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(stages, []string{"Extracting audio", "Transcribing"}) {
		t.Errorf("unexpected stages %v", stages)
	}
	if len(progress) != 1 || progress[0].Unit != ffmpeg.UnitPercent || !progress[0].Done {
		t.Errorf("unexpected progress %+v", progress)
	}
}

func TestTranscribeThenBurn(t *testing.T) {
	p, runner := newTestPipeline(t, &fakeTranscriber{result: speech()})
	input := writeInput(t, "a.b.mp4")
	out := t.TempDir()

	store, err := p.Transcribe(t.Context(), TranscribeRequest{Input: input, OutputDir: out, SubtitleAction: ActionBurn})
	if err != nil {
		t.Fatal(err)
	}
	if store.VideoFile != filepath.Join(out, "a.b_out.mp4") {
		t.Errorf("unexpected video file %s", store.VideoFile)
	}
	want := []string{"Extracting audio", "Converting subtitles", "Burning subtitles"}
	if got := runner.labels(); !slices.Equal(got, want) {
		t.Errorf("jobs = %v, want %v", got, want)
	}
}

func srtFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subs.srt")
	if err := os.WriteFile(path, []byte("1\n00:00:00,000 --> 00:00:01,000\nhi\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSubtitleBurn(t *testing.T) {
	p, runner := newTestPipeline(t, nil)
	input := writeInput(t, "talk.mkv")
	out := t.TempDir()

	store, err := p.Subtitle(t.Context(), SubtitleRequest{Input: input, Subtitles: srtFile(t), OutputDir: out, Action: ActionBurn})
	if err != nil {
		t.Fatal(err)
	}
	if store.VideoFile != filepath.Join(out, "talk_out.mkv") {
		t.Errorf("unexpected video file %s", store.VideoFile)
	}

	ass, err := os.ReadFile(filepath.Join(out, "talk.ass"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(ass), subtitle.DefaultStyle.Line()+"\r\n") {
		t.Errorf("style line not rewritten:\n%s", ass)
	}

	burn := runner.jobs[1]
	if burn.Dir == "" || burn.Dir == out {
		t.Errorf("burn should run from a scratch directory, got %q", burn.Dir)
	}
	if !slices.Contains(burn.Args, "ass="+burnASSName) {
		t.Errorf("burn should reference the staged ASS file: %v", burn.Args)
	}
	if runner.staged != string(ass) {
		t.Errorf("staged ASS differs from the written one:\n%s", runner.staged)
	}
	if _, err := os.Stat(burn.Dir); !os.IsNotExist(err) {
		t.Errorf("scratch directory should be removed, stat err = %v", err)
	}
	if burn.Args[len(burn.Args)-1] != store.VideoFile {
		t.Errorf("unexpected burn output %v", burn.Args)
	}
	if data, _ := os.ReadFile(input); string(data) != "video" {
		t.Error("input video must not be modified")
	}
}

func TestSubtitleBurnCustomStyle(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	p.cfg.Subtitle.Style = "Style: Default,Arial,20,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,1,0,2,10,10,10,1"
	out := t.TempDir()
	if _, err := p.Subtitle(t.Context(), SubtitleRequest{Input: writeInput(t, "x.mp4"), Subtitles: srtFile(t), OutputDir: out}); err != nil {
		t.Fatal(err)
	}
	ass, _ := os.ReadFile(filepath.Join(out, "x.ass"))
	if !strings.Contains(string(ass), p.cfg.Subtitle.Style) {
		t.Errorf("custom style not applied:\n%s", ass)
	}
}

func TestSubtitleBurnBareCustomStyle(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	p.cfg.Subtitle.Style = "Default,Arial,20,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,1,0,2,10,10,10,1"
	out := t.TempDir()
	if _, err := p.Subtitle(t.Context(), SubtitleRequest{Input: writeInput(t, "x.mp4"), Subtitles: srtFile(t), OutputDir: out}); err != nil {
		t.Fatal(err)
	}
	ass, _ := os.ReadFile(filepath.Join(out, "x.ass"))
	if !strings.Contains(string(ass), "\nStyle: Default,Arial,20,&H00FFFFFF,") {
		t.Errorf("bare style should be written as a full Style line:\n%s", ass)
	}
}

func TestSubtitleBurnAwkwardFileName(t *testing.T) {
	p, runner := newTestPipeline(t, nil)
	input := writeInput(t, "Don't Stop: live, [1].mp4")
	out := t.TempDir()

	store, err := p.Subtitle(t.Context(), SubtitleRequest{Input: input, Subtitles: srtFile(t), OutputDir: out})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(store.VideoFile) != "Don't Stop: live, [1]_out.mp4" {
		t.Errorf("unexpected output %s", store.VideoFile)
	}
	if _, err := os.Stat(filepath.Join(out, "Don't Stop: live, [1].ass")); err != nil {
		t.Errorf("ASS artifact should keep the input stem: %v", err)
	}
	burn := runner.jobs[1]
	for _, arg := range burn.Args {
		if strings.HasPrefix(arg, "ass=") && arg != "ass="+burnASSName {
			t.Errorf("input name leaked into the filter graph: %q", arg)
		}
	}
	if !strings.Contains(runner.staged, subtitle.DefaultStyle.Line()) {
		t.Errorf("burn should read the restyled ASS:\n%s", runner.staged)
	}
}

func TestSubtitleBurnNoExtension(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	out := t.TempDir()
	store, err := p.Subtitle(t.Context(), SubtitleRequest{Input: writeInput(t, "recording"), Subtitles: srtFile(t), OutputDir: out, Action: ActionBurn})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(store.VideoFile) != "recording_out.mp4" {
		t.Errorf("unexpected output %s", store.VideoFile)
	}
}

func TestSubtitleAdd(t *testing.T) {
	tests := []struct {
		format   string
		wantOut  string
		wantCode string
	}{
		{"mp4", "talk_out.mp4", "mov_text"},
		{"mkv", "talk_out.mkv", "srt"},
		{"", "talk_out.mp4", "mov_text"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			p, runner := newTestPipeline(t, nil)
			p.cfg.Subtitle.AddFormat = tt.format
			out := t.TempDir()
			store, err := p.Subtitle(t.Context(), SubtitleRequest{
				Input:     writeInput(t, "talk.avi"),
				Subtitles: srtFile(t),
				OutputDir: out,
				Action:    ActionAdd,
			})
			if err != nil {
				t.Fatal(err)
			}
			if filepath.Base(store.VideoFile) != tt.wantOut {
				t.Errorf("output = %s, want %s", store.VideoFile, tt.wantOut)
			}
			args := runner.jobs[0].Args
			if !slices.Contains(args, tt.wantCode) {
				t.Errorf("expected codec %s in %v", tt.wantCode, args)
			}
			// language comes from the probed audio track
			if !slices.Contains(args, "language=spa") {
				t.Errorf("expected language metadata in %v", args)
			}
		})
	}
}

func TestSubtitleAddExplicitLanguage(t *testing.T) {
	p, runner := newTestPipeline(t, nil)
	_, err := p.Subtitle(t.Context(), SubtitleRequest{
		Input:     writeInput(t, "a.mp4"),
		Subtitles: srtFile(t),
		OutputDir: t.TempDir(),
		Action:    ActionAdd,
		Language:  "de",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(runner.jobs[0].Args, "language=deu") {
		t.Errorf("expected language=deu in %v", runner.jobs[0].Args)
	}
}

func TestSubtitleMissingSubtitles(t *testing.T) {
	p, runner := newTestPipeline(t, nil)
	_, err := p.Subtitle(t.Context(), SubtitleRequest{Input: writeInput(t, "a.mp4"), Subtitles: "/nonexistent.srt", OutputDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected error for missing subtitles")
	}
	if len(runner.jobs) != 0 {
		t.Error("ffmpeg should not run")
	}
}

func TestSubtitleEmptySubtitles(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	empty := filepath.Join(t.TempDir(), "empty.srt")
	os.WriteFile(empty, nil, 0644)
	_, err := p.Subtitle(t.Context(), SubtitleRequest{Input: writeInput(t, "a.mp4"), Subtitles: empty, OutputDir: t.TempDir()})
	if !errors.Is(err, subtitle.ErrEmptySubtitles) {
		t.Fatalf("expected ErrEmptySubtitles, got %v", err)
	}
}

func TestSubtitleInvalidAction(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	_, err := p.Subtitle(t.Context(), SubtitleRequest{Input: writeInput(t, "a.mp4"), Subtitles: srtFile(t), Action: "soft"})
	if err == nil {
		t.Fatal("expected error for invalid action")
	}
}

func TestMetadataLanguage(t *testing.T) {
	if got := metadataLanguage("", "english"); got != "eng" {
		t.Errorf("expected eng, got %q", got)
	}
	if got := metadataLanguage("", ""); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestTranscribeWritesTranscript(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeTranscriber{result: speech()})
	out := t.TempDir()
	store, err := p.Transcribe(t.Context(), TranscribeRequest{
		Input:      writeInput(t, "talk.mp4"),
		OutputDir:  out,
		Transcript: transcribe.FormatText,
	})
	if err != nil {
		t.Fatal(err)
	}
	if store.TranscriptFile != filepath.Join(out, "talk.txt") {
		t.Fatalf("unexpected transcript path %q", store.TranscriptFile)
	}
	data, err := os.ReadFile(store.TranscriptFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello there" {
		t.Errorf("unexpected transcript %q", data)
	}
}

func TestTranscribeTranscriptSurvivesSubtitleAction(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeTranscriber{result: speech()})
	out := t.TempDir()
	store, err := p.Transcribe(t.Context(), TranscribeRequest{
		Input:          writeInput(t, "talk.mp4"),
		OutputDir:      out,
		Transcript:     transcribe.FormatVTT,
		SubtitleAction: ActionAdd,
	})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(store.TranscriptFile) != "talk.vtt" || store.VideoFile == "" {
		t.Errorf("unexpected store %+v", store)
	}
}

func TestSubtitleNoVideoStream(t *testing.T) {
	p, runner := newTestPipeline(t, nil)
	p.probe = func(ctx context.Context, path string) (probe.Result, bool, error) {
		return probe.Result{Streams: []probe.Stream{{CodecType: "audio"}}}, true, nil
	}
	_, err := p.Subtitle(t.Context(), SubtitleRequest{Input: writeInput(t, "song.m4a"), Subtitles: srtFile(t), OutputDir: t.TempDir()})
	if !errors.Is(err, ErrNoVideoStream) {
		t.Fatalf("expected ErrNoVideoStream, got %v", err)
	}
	if len(runner.jobs) != 0 {
		t.Error("ffmpeg should not run without a video stream")
	}
}

func TestSubtitleBurnInvalidStyleFallsBack(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	p.cfg.Subtitle.Style = "Style: Default,Arial,20"
	out := t.TempDir()
	if _, err := p.Subtitle(t.Context(), SubtitleRequest{Input: writeInput(t, "x.mp4"), Subtitles: srtFile(t), OutputDir: out}); err != nil {
		t.Fatal(err)
	}
	ass, _ := os.ReadFile(filepath.Join(out, "x.ass"))
	if !strings.Contains(string(ass), subtitle.DefaultStyle.Line()) {
		t.Errorf("default style expected after invalid custom style:\n%s", ass)
	}
}
