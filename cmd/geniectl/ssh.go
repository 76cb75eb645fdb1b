package main

import (
	"github.com/spf13/cobra"

	"geniectl/internal/app"
)

var sshPorts []string

func init() {
	rootCmd.AddCommand(cmdSSH)
	cmdSSH.Flags().StringArrayVarP(&sshPorts, "port", "p", nil, "Reverse-forward PORT or DEVICE:LOCAL back to this host (repeatable; default 8080)")
}

var cmdSSH = &cobra.Command{
	Use:   "ssh [TARGET]",
	Short: "Open a shell on the device with reverse port forwards",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return controller().SSH(cmd.Context(), app.SSHParams{Target: targetArg(args), Ports: sshPorts})
	},
}
