package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joegoldin/decipher/cmd"
)

func main() {
	name := strings.TrimSuffix(filepath.Base(os.Args[0]), ".exe")
	switch name {
	case "transcribe":
		cmd.ExecuteTranscribe()
	case "subtitle":
		cmd.ExecuteSubtitle()
	default:
		cmd.ExecuteRoot()
	}
}
