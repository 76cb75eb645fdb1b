package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdTail)
}

var cmdTail = &cobra.Command{
	Use:   "tail [TARGET]",
	Short: "Follow the client log on the device until interrupted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return controller().Tail(cmd.Context(), targetArg(args))
	},
}
