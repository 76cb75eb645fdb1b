package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdClean)
}

var cmdClean = &cobra.Command{
	Use:   "clean",
	Short: "Remove the build output directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return controller().Clean()
	},
}
