package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joegoldin/decipher/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the configuration",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), configPath())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	Long:  "Print the configuration after defaults, the config file and environment overrides. API keys are masked.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		masked := *cfg
		masked.Transcribe.OpenAI.APIKey = maskIfSet(cfg.Transcribe.OpenAI.APIKey)
		masked.Transcribe.Deepgram.APIKey = maskIfSet(cfg.Transcribe.Deepgram.APIKey)
		masked.Transcribe.Mistral.APIKey = maskIfSet(cfg.Transcribe.Mistral.APIKey)
		data, err := masked.Marshal()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save",
	Long:  "Set a config value and save the file. Keys: " + joinKeys(),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// load the file alone so env overrides are not written back
		path := configPath()
		cfg, err := config.LoadFrom(path)
		if err != nil {
			return err
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.SaveTo(path); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s = %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.DefaultPath()
}

func maskIfSet(key string) string {
	if key == "" {
		return ""
	}
	return maskKey(key)
}

func joinKeys() string {
	return strings.Join(config.SettableKeys, ", ")
}
