package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".mov":  true,
	".avi":  true,
	".webm": true,
	".m4v":  true,
	".flv":  true,
	".wmv":  true,
	".ts":   true,
	".mpg":  true,
	".mpeg": true,
}

// resolveInput returns path unchanged for files. For a directory it picks
// the newest video inside it.
func resolveInput(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("input file: %w", err)
	}
	if !info.IsDir() {
		return path, nil
	}
	return findLatestVideo(path)
}

func findLatestVideo(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("cannot read directory %s: %w", dir, err)
	}

	var latestPath string
	var latestTime int64

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !videoExtensions[ext] {
			continue
		}
		// skip our own outputs when the output dir is the input dir
		if strings.HasSuffix(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())), "_out") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if t := info.ModTime().UnixNano(); t > latestTime {
			latestTime = t
			latestPath = filepath.Join(dir, e.Name())
		}
	}

	if latestPath == "" {
		return "", fmt.Errorf("no video files found in %s", dir)
	}
	return latestPath, nil
}
