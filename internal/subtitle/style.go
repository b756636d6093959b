package subtitle

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrNoStyleLine is returned when an ASS file has no Style line to replace.
var ErrNoStyleLine = errors.New("no Style line found")

// Style is one ASS V4+ style definition. Colours are &HAABBGGRR strings.
type Style struct {
	Name            string
	Fontname        string
	Fontsize        int
	PrimaryColour   string
	SecondaryColour string
	OutlineColour   string
	BackColour      string
	Bold            int // -1 true, 0 false
	Italic          int
	Underline       int
	StrikeOut       int
	ScaleX          int
	ScaleY          int
	Spacing         int
	Angle           int
	BorderStyle     int // 1 outline+shadow, 3 opaque box, 4 box per line
	Outline         int
	Shadow          int
	Alignment       int // numpad layout, 2 = bottom centre
	MarginL         int
	MarginR         int
	MarginV         int
	Encoding        int
}

// DefaultStyle is bold white Verdana on a translucent black box, bottom centre.
var DefaultStyle = Style{
	Name:            "Default",
	Fontname:        "Verdana",
	Fontsize:        14,
	PrimaryColour:   "&H00FFFFFF",
	SecondaryColour: "&H000000FF",
	OutlineColour:   "&H80000000",
	BackColour:      "&H80000000",
	Bold:            -1,
	ScaleX:          100,
	ScaleY:          100,
	BorderStyle:     4,
	Alignment:       2,
	MarginL:         10,
	MarginR:         10,
	MarginV:         10,
	Encoding:        1,
}

const styleFieldCount = 23

// Line renders the style as an ASS "Style:" line without a line ending.
func (s Style) Line() string {
	return fmt.Sprintf("Style: %s,%s,%d,%s,%s,%s,%s,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d",
		s.Name, s.Fontname, s.Fontsize,
		s.PrimaryColour, s.SecondaryColour, s.OutlineColour, s.BackColour,
		s.Bold, s.Italic, s.Underline, s.StrikeOut,
		s.ScaleX, s.ScaleY, s.Spacing, s.Angle,
		s.BorderStyle, s.Outline, s.Shadow, s.Alignment,
		s.MarginL, s.MarginR, s.MarginV, s.Encoding,
	)
}

// ParseStyle reads a "Style:" line (the prefix is optional).
func ParseStyle(line string) (Style, error) {
	body := strings.TrimSpace(line)
	body = strings.TrimSpace(strings.TrimPrefix(body, "Style:"))
	fields := strings.Split(body, ",")
	if len(fields) != styleFieldCount {
		return Style{}, fmt.Errorf("style: expected %d fields, got %d", styleFieldCount, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	ints := make([]int, 0, styleFieldCount-6)
	for i, f := range fields {
		switch i {
		case 0, 1, 3, 4, 5, 6:
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return Style{}, fmt.Errorf("style: field %d: %w", i+1, err)
		}
		ints = append(ints, n)
	}

	return Style{
		Name:            fields[0],
		Fontname:        fields[1],
		Fontsize:        ints[0],
		PrimaryColour:   fields[3],
		SecondaryColour: fields[4],
		OutlineColour:   fields[5],
		BackColour:      fields[6],
		Bold:            ints[1],
		Italic:          ints[2],
		Underline:       ints[3],
		StrikeOut:       ints[4],
		ScaleX:          ints[5],
		ScaleY:          ints[6],
		Spacing:         ints[7],
		Angle:           ints[8],
		BorderStyle:     ints[9],
		Outline:         ints[10],
		Shadow:          ints[11],
		Alignment:       ints[12],
		MarginL:         ints[13],
		MarginR:         ints[14],
		MarginV:         ints[15],
		Encoding:        ints[16],
	}, nil
}

// RewriteStyle replaces the first line starting with "Style" in the ASS file
// at path. Other lines, including their CRLF/LF endings, are left untouched.
func RewriteStyle(path, styleLine string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	lines := bytes.SplitAfter(data, []byte("\n"))
	replaced := false
	for i, line := range lines {
		if !bytes.HasPrefix(line, []byte("Style")) {
			continue
		}
		ending := "\n"
		if bytes.HasSuffix(line, []byte("\r\n")) {
			ending = "\r\n"
		} else if !bytes.HasSuffix(line, []byte("\n")) {
			ending = ""
		}
		lines[i] = []byte(styleLine + ending)
		replaced = true
		break
	}
	if !replaced {
		return fmt.Errorf("%s: %w", path, ErrNoStyleLine)
	}
	return os.WriteFile(path, bytes.Join(lines, nil), info.Mode().Perm())
}
