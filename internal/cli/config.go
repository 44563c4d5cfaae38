package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maildummy/s3-magiclink/internal/config"
	"github.com/maildummy/s3-magiclink/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change stored defaults",
	Long: `Manage magiclink configuration.

Values resolve as: command-line flag > MAGICLINK_<KEY> environment
variable > config file > built-in default.

Examples:
  magiclink config show
  magiclink config set region us-east-1
  magiclink config set endpoint http://localhost:4566`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A file holding a bad value has to stay repairable with config set.
		if err := initConfig(); err != nil && !errors.Is(err, config.ErrInvalidValue) {
			return err
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Available keys:
  region     - AWS region (default: eu-central-1)
  prefix     - key prefix of stored emails (default: raw/)
  endpoint   - S3-compatible endpoint URL
  output     - default output format: pretty, json
  log-level  - debug, info, warn, error

Examples:
  magiclink config set region us-west-2
  magiclink config set output json`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, err := config.Path()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if cfgFile != "" {
		configPath = cfgFile
	}

	effective := map[string]string{
		"configFile": configPath,
		"region":     config.GetRegion(),
		"prefix":     config.GetPrefix(),
		"endpoint":   config.GetEndpoint(),
		"output":     config.GetDefaultOutput(),
		"logLevel":   config.GetLogLevel(),
	}

	if getOutput(cmd) == "json" {
		return outputJSON(cmd.OutOrStdout(), effective)
	}

	p := output.NewPrinter(cmd.OutOrStdout())
	p.Info("Config file: " + configPath)
	p.Field("region:", effective["region"])
	p.Field("prefix:", effective["prefix"])
	endpoint := effective["endpoint"]
	if endpoint == "" {
		endpoint = "(aws default)"
	}
	p.Field("endpoint:", endpoint)
	p.Field("output:", effective["output"])
	p.Field("log-level:", effective["logLevel"])
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch key {
	case "region":
		cfg.Region = value
	case "prefix":
		cfg.Prefix = value
	case "endpoint":
		cfg.Endpoint = value
	case "output":
		if value != "pretty" && value != "json" {
			return fmt.Errorf("invalid output format: %s (valid: pretty, json)", value)
		}
		cfg.DefaultOutput = value
	case "log-level":
		if _, err := newLogger(cmd.ErrOrStderr(), value); err != nil {
			return err
		}
		cfg.LogLevel = value
	default:
		return fmt.Errorf("unknown config key: %s (valid keys: region, prefix, endpoint, output, log-level)", key)
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	output.NewPrinter(cmd.OutOrStdout()).Success(fmt.Sprintf("Set %s successfully", key))
	return nil
}
