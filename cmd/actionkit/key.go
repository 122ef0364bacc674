package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"actionkit/internal/actions"
	"actionkit/internal/identity"
	"actionkit/internal/target"
	"actionkit/sink/manifest"
)

var keyCmd = &cobra.Command{
	Use:   "key <path> [target...]",
	Short: "Print the identity key of a file for each target",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		targets := target.All()
		if len(args) > 1 {
			targets = targets[:0]
			for _, n := range args[1:] {
				t, err := target.Parse(n)
				if err != nil {
					return err
				}
				targets = append(targets, t)
			}
		}
		names, _ := cmd.Flags().GetStringSlice("action")
		for _, t := range targets {
			key, err := identity.Derive(args[0], t)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			for _, n := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", actions.ID(key, n), n)
			}
		}
		return nil
	},
}

var manifestCmd = &cobra.Command{
	Use:   "manifest <file>",
	Short: "Dump an action manifest as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manifest.Read(args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	},
}

func init() {
	keyCmd.Flags().StringSlice("action", nil, "also print the action id for these export names")
}
