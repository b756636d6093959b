// Package language normalizes user-supplied language codes and names into
// the short codes speech backends expect.
package language

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// whisperCodes lists the languages whisper models were trained on.
var whisperCodes = []string{
	"en", "zh", "de", "es", "ru", "ko", "fr", "ja", "pt", "tr", "pl", "ca", "nl",
	"ar", "sv", "it", "id", "hi", "fi", "vi", "he", "uk", "el", "ms", "cs", "ro",
	"da", "hu", "ta", "no", "th", "ur", "hr", "bg", "lt", "la", "mi", "ml", "cy",
	"sk", "te", "fa", "lv", "bn", "sr", "az", "sl", "kn", "et", "mk", "br", "eu",
	"is", "hy", "ne", "mn", "bs", "kk", "sq", "sw", "gl", "mr", "pa", "si", "km",
	"sn", "yo", "so", "af", "oc", "ka", "be", "tg", "sd", "gu", "am", "yi", "lo",
	"uz", "fo", "ht", "ps", "tk", "nn", "mt", "sa", "lb", "my", "bo", "tl", "mg",
	"as", "tt", "haw", "ln", "ha", "ba", "jv", "su", "yue",
}

var (
	namesOnce sync.Once
	byName    map[string]language.Base
)

func buildNames() {
	byName = make(map[string]language.Base, len(whisperCodes))
	namer := display.English.Languages()
	for _, code := range whisperCodes {
		tag := language.Make(code)
		base, _ := tag.Base()
		if name := namer.Name(tag); name != "" {
			byName[strings.ToLower(name)] = base
		}
	}
}

// Code is a normalized language.
type Code struct {
	base language.Base
}

// String returns the shortest code: ISO 639-1 where one exists.
func (c Code) String() string { return c.base.String() }

// ISO3 returns the ISO 639-2/T code used in container metadata.
func (c Code) ISO3() string { return c.base.ISO3() }

// Name returns the English display name, e.g. "French".
func (c Code) Name() string {
	return display.English.Languages().Name(language.Make(c.base.String()))
}

// Normalize accepts ISO 639-1/2/3 codes, BCP 47 tags ("pt-BR") or English
// names ("Portuguese") and returns the base language. An empty input is
// not an error: it means auto-detect, and ok is false.
func Normalize(input string) (code Code, ok bool, err error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.EqualFold(input, "auto") {
		return Code{}, false, nil
	}

	namesOnce.Do(buildNames)
	if base, found := byName[strings.ToLower(input)]; found {
		return Code{base: base}, true, nil
	}

	tag, err := language.Parse(input)
	if err != nil {
		return Code{}, false, fmt.Errorf("unrecognized language %q", input)
	}
	base, conf := tag.Base()
	if conf == language.No || base.String() == "und" {
		return Code{}, false, fmt.Errorf("unrecognized language %q", input)
	}
	return Code{base: base}, true, nil
}
