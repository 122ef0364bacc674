package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"actionkit/internal/engine"
	"actionkit/internal/pipeline"
	"actionkit/internal/target"
)

var buildCmd = &cobra.Command{
	Use:   "build [paths...]",
	Short: "Rewrite server actions in every file for each target",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().String("config", "actionkit.yml", "build config (yaml or toml)")
	buildCmd.Flags().StringSlice("target", nil, "targets to build (client|server); default from config")
	buildCmd.Flags().Int("jobs", 0, "parallel files per target")
	buildCmd.Flags().String("out", "", "write rewritten files under this directory")
	buildCmd.Flags().Int("metrics-port", 0, "serve prometheus metrics on this port")
	buildCmd.Flags().BoolP("verbose", "v", false, "print one line per file")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := engine.Config{Paths: args}
	cfg.ConfigPath, _ = cmd.Flags().GetString("config")
	cfg.Jobs, _ = cmd.Flags().GetInt("jobs")
	cfg.OutDir, _ = cmd.Flags().GetString("out")
	cfg.MetricsPort, _ = cmd.Flags().GetInt("metrics-port")
	cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	cfg.LogJSON, _ = cmd.Flags().GetBool("log-json")
	names, _ := cmd.Flags().GetStringSlice("target")
	for _, n := range names {
		t, err := target.Parse(n)
		if err != nil {
			return err
		}
		cfg.Targets = append(cfg.Targets, t)
	}
	verbose, _ := cmd.Flags().GetBool("verbose")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := engine.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	out := cmd.ErrOrStderr()
	if verbose {
		e.Runner().Subscribe(func(ev pipeline.Event) {
			mark := color.GreenString("ok")
			switch ev.Status {
			case pipeline.StatusFailed:
				mark = color.RedString("FAIL")
			case pipeline.StatusSkipped:
				mark = color.YellowString("skip")
			}
			fmt.Fprintf(out, "%-4s [%s] %s\n", mark, ev.Target, ev.File)
		})
	}

	reports, err := e.Run(ctx)
	printSummary(cmd, reports)
	return err
}

func printSummary(cmd *cobra.Command, reports []*pipeline.Report) {
	for _, rep := range reports {
		if rep == nil {
			continue
		}
		actions := 0
		for _, rec := range rep.Records {
			actions += len(rec.Actions)
		}
		line := fmt.Sprintf("[%s] %d files, %d actions, %d skipped, %d failed",
			rep.Target, len(rep.Records), actions, rep.Skipped, len(rep.Failures))
		if len(rep.Failures) > 0 {
			line = color.RedString(line)
		} else {
			line = color.GreenString(line)
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
}
