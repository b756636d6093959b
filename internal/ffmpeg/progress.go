package ffmpeg

import (
	"math"
	"path/filepath"
	"regexp"
	"strconv"
)

var (
	durationPattern = regexp.MustCompile(`Duration: (\d{2}):(\d{2}):(\d{2})\.\d{2}`)
	timePattern     = regexp.MustCompile(`time=(\d{2}):(\d{2}):(\d{2})\.\d{2}`)
	sourcePattern   = regexp.MustCompile(`from '(.*)':`)
	fpsPattern      = regexp.MustCompile(`(\d{2}\.\d{2}|\d{2}) fps`)
)

// Unit names the quantity a Progress counts.
type Unit string

const (
	UnitSeconds Unit = "seconds"
	UnitFrames  Unit = "frames"
	// UnitPercent is used for non-ffmpeg stages that report a percentage.
	UnitPercent Unit = "percent"
)

// Progress is one update parsed from ffmpeg's stderr.
type Progress struct {
	Label   string
	Source  string
	Current int
	Total   int // 0 when the input duration is unknown
	Unit    Unit
	Done    bool
}

// Fraction returns completion in [0,1], or -1 when the total is unknown.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return -1
	}
	f := float64(p.Current) / float64(p.Total)
	return math.Max(0, math.Min(1, f))
}

// ProgressFunc receives progress updates. It is called from the goroutine
// draining stderr and must not block for long.
type ProgressFunc func(Progress)

// progressParser accumulates the sticky fields ffmpeg prints once in its
// banner (duration, source, fps) and turns each time= line into a Progress.
type progressParser struct {
	label    string
	duration int
	source   string
	fps      int
	haveDur  bool
	haveSrc  bool
	haveFPS  bool
}

func newProgressParser(label string, knownDuration float64) *progressParser {
	p := &progressParser{label: label}
	if knownDuration > 0 {
		p.duration = int(knownDuration)
		p.haveDur = true
	}
	return p
}

// feed consumes one stderr line and reports whether it carried progress.
func (p *progressParser) feed(line string) (Progress, bool) {
	if !p.haveDur {
		if m := durationPattern.FindStringSubmatch(line); m != nil {
			p.duration = hms(m[1], m[2], m[3])
			p.haveDur = true
		}
	}
	if !p.haveSrc {
		if m := sourcePattern.FindStringSubmatch(line); m != nil {
			p.source = filepath.Base(m[1])
			p.haveSrc = true
		}
	}
	if !p.haveFPS {
		if m := fpsPattern.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				p.fps = int(math.Round(v))
				p.haveFPS = true
			}
		}
	}

	m := timePattern.FindStringSubmatch(line)
	if m == nil {
		return Progress{}, false
	}
	return p.progress(hms(m[1], m[2], m[3])), true
}

func (p *progressParser) progress(current int) Progress {
	pr := Progress{
		Label:   p.label,
		Source:  p.source,
		Current: current,
		Total:   p.duration,
		Unit:    UnitSeconds,
	}
	if p.haveFPS && p.fps > 0 {
		pr.Unit = UnitFrames
		pr.Current *= p.fps
		pr.Total *= p.fps
	}
	return pr
}

// final is emitted after a successful exit so consumers can close out a bar
// whose last time= line fell short of the banner duration.
func (p *progressParser) final() Progress {
	pr := p.progress(p.duration)
	pr.Done = true
	return pr
}

func hms(h, m, s string) int {
	hi, _ := strconv.Atoi(h)
	mi, _ := strconv.Atoi(m)
	si, _ := strconv.Atoi(s)
	return (hi*60+mi)*60 + si
}
