package main

import (
	"github.com/spf13/cobra"

	"geniectl/internal/app"
)

var killLabels []string

func init() {
	rootCmd.AddCommand(cmdKill)
	cmdKill.Flags().StringSliceVarP(&killLabels, "pattern", "P", nil, "Only kill these patterns by label (repeatable; default: all)")
}

var cmdKill = &cobra.Command{
	Use:   "kill [TARGET]",
	Short: "Kill the client on a device",
	Long:  "Lists the device's processes and SIGKILLs every one whose command fully matches a configured pattern (launcher, genie, spotifyd, pulseaudio by default).",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := controller().Kill(cmd.Context(), app.KillParams{
			Target: targetArg(args),
			Labels: killLabels,
		})
		if len(report) > 0 {
			printReport(cmd.OutOrStdout(), report)
		}
		return err
	},
}
