package ffmpeg

import (
	"os/exec"
	"strconv"
	"strings"
)

// PCMSampleRate is the rate whisper models are trained on.
const PCMSampleRate = 16000

// ExtractAudioArgs drops the video stream and re-encodes the audio to AAC.
// Re-encoding (rather than -c:a copy) keeps the output valid when the
// source track is not AAC.
func ExtractAudioArgs(video, audio string) []string {
	return []string{"-y", "-i", video, "-vn", "-c:a", "aac", audio}
}

// ConvertAudioArgs rewrites extracted AAC audio for backends that cannot
// read it: "m4a" rewraps the stream in an MP4 container, "wav" decodes to
// 16 kHz mono 16-bit PCM.
func ConvertAudioArgs(in, out, format string) []string {
	if format == "wav" {
		return []string{"-y", "-i", in, "-vn", "-ar", strconv.Itoa(PCMSampleRate), "-ac", "1", "-c:a", "pcm_s16le", out}
	}
	return []string{"-y", "-i", in, "-vn", "-c:a", "copy", out}
}

// SRTToASSArgs converts a SubRip file into Advanced SubStation Alpha.
func SRTToASSArgs(srt, ass string) []string {
	return []string{"-y", "-i", srt, "-f", "ass", ass}
}

// BurnArgs renders the ASS file into the video frames. assName is resolved
// relative to the job's working directory.
func BurnArgs(video, assName, out string) []string {
	return []string{"-y", "-i", video, "-vf", "ass=" + EscapeFilterValue(assName), out}
}

// MuxFormat selects the container for soft subtitles.
type MuxFormat string

const (
	MuxMP4 MuxFormat = "mp4"
	MuxMKV MuxFormat = "mkv"
)

func ParseMuxFormat(s string) MuxFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mkv", "matroska":
		return MuxMKV
	default:
		return MuxMP4
	}
}

// Ext returns the file extension (with dot) for the container.
func (f MuxFormat) Ext() string {
	return "." + string(f)
}

// MuxArgs adds the subtitle file as a soft track without re-encoding the
// audio or video. language is an ISO 639-2 code or empty.
func MuxArgs(video, subs, out string, format MuxFormat, language string) []string {
	subCodec := "mov_text"
	if format == MuxMKV {
		subCodec = "srt"
	}
	args := []string{
		"-y", "-i", video, "-i", subs,
		"-map", "0:v", "-map", "0:a?", "-map", "1:s",
		"-c:v", "copy", "-c:a", "copy", "-c:s", subCodec,
	}
	if language != "" {
		args = append(args, "-metadata:s:s:0", "language="+language)
	}
	return append(args, out)
}

// PCMArgs decodes audio to 16 kHz mono little-endian float32 on stdout.
func PCMArgs(audio string) []string {
	return []string{
		"-y",
		"-i", audio,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(PCMSampleRate),
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"pipe:1",
	}
}

var (
	optionEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	graphEscaper  = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)
)

// EscapeFilterValue escapes s for use as a filter option value inside an
// -vf graph. The graph parser unescapes once and the option parser again,
// so both levels are applied.
func EscapeFilterValue(s string) string {
	return graphEscaper.Replace(optionEscaper.Replace(s))
}

// Locate resolves a binary on PATH, returning the absolute path.
func Locate(binary string) (string, error) {
	return exec.LookPath(binary)
}
