package subtitle

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const maxFilenameLen = 250 // stay under typical 255-byte filesystem limit

// Stem returns the base name of path without its final extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ChangeExtension returns the base name of path with ext in place of its
// extension, e.g. ("/v/talk.mp4", "srt") -> "talk.srt".
func ChangeExtension(path, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return fitName(Stem(path), "."+ext)
}

// OutputName builds "<stem><suffix><ext>". An empty ext keeps the input's
// extension, and an input without one gets fallbackExt.
func OutputName(path, suffix, ext, fallbackExt string) string {
	if ext == "" {
		ext = filepath.Ext(path)
	}
	if ext == "" {
		ext = fallbackExt
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fitName(Stem(path)+suffix, ext)
}

// fitName truncates base so that base+ext fits the filename limit, keeping
// the extension intact. The cut never splits a multi-byte rune.
func fitName(base, ext string) string {
	if len(base)+len(ext) > maxFilenameLen {
		n := max(maxFilenameLen-len(ext), 0)
		for n > 0 && !utf8.RuneStart(base[n]) {
			n--
		}
		base = strings.TrimRight(base[:n], "-_. ")
	}
	return base + ext
}
