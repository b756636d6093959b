package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

const appName = "decipher"

type Config struct {
	OutputDir  string           `toml:"output_dir"`
	FFmpeg     FFmpegConfig     `toml:"ffmpeg"`
	Transcribe TranscribeConfig `toml:"transcribe"`
	Subtitle   SubtitleConfig   `toml:"subtitle"`
	Log        LogConfig        `toml:"log"`
}

type FFmpegConfig struct {
	Binary  string `toml:"binary"`
	FFprobe string `toml:"ffprobe"`
}

type TranscribeConfig struct {
	Backend    string           `toml:"backend"`
	Language   string           `toml:"language"`
	Task       string           `toml:"task"`
	Whisper    WhisperConfig    `toml:"whisper"`
	WhisperCpp WhisperCppConfig `toml:"whispercpp"`
	OpenAI     OpenAIConfig     `toml:"openai"`
	Deepgram   DeepgramConfig   `toml:"deepgram"`
	Mistral    MistralConfig    `toml:"mistral"`
}

type WhisperConfig struct {
	Binary string `toml:"binary"`
	Model  string `toml:"model"`
	Device string `toml:"device"`
}

type WhisperCppConfig struct {
	ModelPath string `toml:"model_path"`
	Threads   uint   `toml:"threads"`
}

type OpenAIConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

type DeepgramConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

type MistralConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

type SubtitleConfig struct {
	// AddFormat selects the container for soft subtitles: "mp4" or "mkv".
	AddFormat string `toml:"add_format"`
	// Style replaces the first Style line of the generated ASS file when burning.
	Style string `toml:"style"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func Default() *Config {
	return &Config{
		OutputDir: "result",
		FFmpeg:    FFmpegConfig{Binary: "ffmpeg", FFprobe: "ffprobe"},
		Transcribe: TranscribeConfig{
			Task:     "transcribe",
			Whisper:  WhisperConfig{Binary: "whisper", Model: "small"},
			OpenAI:   OpenAIConfig{Model: "whisper-1"},
			Deepgram: DeepgramConfig{Model: "nova-3"},
			Mistral:  MistralConfig{Model: "voxtral-mini-latest"},
		},
		Subtitle: SubtitleConfig{AddFormat: "mp4"},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Dir returns the directory holding config.toml and the optional .env file.
func Dir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, appName)
}

func DefaultPath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

func Load() (*Config, error) {
	path := DefaultPath()
	if path == "" {
		return Default(), nil
	}
	return LoadFrom(path)
}

func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Save() error {
	path := DefaultPath()
	if path == "" {
		return fmt.Errorf("cannot determine config path")
	}
	return c.SaveTo(path)
}

func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// LoadDotEnv reads .env files from the working directory and the config
// directory. Variables already set in the environment win.
func LoadDotEnv() {
	candidates := []string{".env"}
	if dir := Dir(); dir != "" {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

func (c *Config) ApplyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Transcribe.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Transcribe.OpenAI.BaseURL = v
	}
	if v := os.Getenv("DEEPGRAM_API_KEY"); v != "" {
		c.Transcribe.Deepgram.APIKey = v
	}
	if v := os.Getenv("MISTRAL_API_KEY"); v != "" {
		c.Transcribe.Mistral.APIKey = v
	}
}

func (c *Config) ResolveOutputDir() string {
	return expandHome(c.OutputDir)
}

func expandHome(dir string) string {
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			dir = filepath.Join(home, dir[2:])
		}
	}
	return dir
}

// SettableKeys lists the keys accepted by Set, in display order.
var SettableKeys = []string{
	"output_dir",
	"transcribe.backend",
	"transcribe.language",
	"transcribe.task",
	"whisper.binary",
	"whisper.model",
	"whisper.device",
	"whispercpp.model_path",
	"whispercpp.threads",
	"openai.model",
	"subtitle.add_format",
	"subtitle.style",
	"log.level",
	"log.format",
}

func (c *Config) Set(key, value string) error {
	switch key {
	case "output_dir":
		c.OutputDir = value
	case "transcribe.backend":
		c.Transcribe.Backend = value
	case "transcribe.language":
		c.Transcribe.Language = value
	case "transcribe.task":
		if value != "transcribe" && value != "translate" {
			return fmt.Errorf("task must be transcribe or translate, got %q", value)
		}
		c.Transcribe.Task = value
	case "whisper.binary":
		c.Transcribe.Whisper.Binary = value
	case "whisper.model":
		c.Transcribe.Whisper.Model = value
	case "whisper.device":
		c.Transcribe.Whisper.Device = value
	case "whispercpp.model_path":
		c.Transcribe.WhisperCpp.ModelPath = expandHome(value)
	case "whispercpp.threads":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("threads must be a non-negative integer: %w", err)
		}
		c.Transcribe.WhisperCpp.Threads = uint(n)
	case "openai.model":
		c.Transcribe.OpenAI.Model = value
	case "subtitle.add_format":
		if value != "mp4" && value != "mkv" {
			return fmt.Errorf("add_format must be mp4 or mkv, got %q", value)
		}
		c.Subtitle.AddFormat = value
	case "subtitle.style":
		c.Subtitle.Style = value
	case "log.level":
		c.Log.Level = value
	case "log.format":
		if value != "text" && value != "json" && value != "logfmt" {
			return fmt.Errorf("log format must be text, json or logfmt, got %q", value)
		}
		c.Log.Format = value
	default:
		return fmt.Errorf("unknown key %q (settable: %s)", key, strings.Join(SettableKeys, ", "))
	}
	return nil
}
