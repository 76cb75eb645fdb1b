package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdRemove)
}

var cmdRemove = &cobra.Command{
	Use:   "remove [TARGET]",
	Short: "Kill the client and delete its installation",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := controller().Remove(cmd.Context(), targetArg(args))
		if len(report) > 0 {
			printReport(cmd.OutOrStdout(), report)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Client installation removed"))
		return nil
	},
}
