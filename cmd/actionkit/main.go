package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"actionkit/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "actionkit",
	Short:         "Server actions transform for client and server builds",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// .env feeds ACTIONKIT_* variables; existing environment wins.
		if path, _ := cmd.Flags().GetString("env-file"); path != "" {
			if err := godotenv.Load(path); err != nil {
				return err
			}
		} else {
			_ = godotenv.Load()
		}
		logging.InitFromEnv()
		level, _ := cmd.Flags().GetString("log-level")
		asJSON, _ := cmd.Flags().GetBool("log-json")
		if level != "" || asJSON {
			logging.Configure(logging.Options{Level: level, JSON: asJSON})
		}
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			color.NoColor = true
		}
		return nil
	},
}

func newRootCmd() *cobra.Command {
	rootCmd.AddCommand(buildCmd, keyCmd, manifestCmd, engineCmd)

	rootCmd.PersistentFlags().String("env-file", "", "load environment from this file (default .env when present)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
