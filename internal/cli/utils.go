package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/maildummy/s3-magiclink/internal/config"
)

// flagOrConfig returns the flag value when set on the command line,
// otherwise the env/config/default value.
func flagOrConfig(cmd *cobra.Command, name string, fallback func() string) string {
	if flag := cmd.Flag(name); flag != nil && flag.Changed {
		return flag.Value.String()
	}
	return fallback()
}

// getOutput returns the output format with priority: flag > env > config > default.
func getOutput(cmd *cobra.Command) string {
	return flagOrConfig(cmd, "output", config.GetDefaultOutput)
}

// getLogLevel returns the log level with priority: flag > env > config > default.
func getLogLevel(cmd *cobra.Command) string {
	return flagOrConfig(cmd, "log-level", config.GetLogLevel)
}

// outputJSON marshals v to indented JSON and prints it to w.
func outputJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}
