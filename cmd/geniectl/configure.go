package main

import (
	"github.com/spf13/cobra"

	"geniectl/internal/app"
)

var (
	configureName   string
	configureTarget string
)

func init() {
	rootCmd.AddCommand(cmdConfigure)
	cmdConfigure.AddCommand(cmdConfigureApply, cmdConfigureShow)

	cmdConfigure.PersistentFlags().StringVarP(&configureName, "name", "n", app.DefaultProfileConfig, "Config template (directory under the profiles path)")
	cmdConfigureApply.Flags().StringVarP(&configureTarget, "target", "t", "", "Device host or ssh destination (default from current context)")
}

var cmdConfigure = &cobra.Command{
	Use:     "configure",
	Aliases: []string{"cfg"},
	Short:   "Configure a device",
}

var cmdConfigureApply = &cobra.Command{
	Use:   "apply ACCESS_TOKEN",
	Short: "Render config.ini with an access token and write it to the device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var target *string
		if cmd.Flags().Changed("target") {
			target = &configureTarget
		}
		return controller().ConfigureApply(cmd.Context(), app.ConfigureApplyParams{
			Config:      configureName,
			Target:      target,
			AccessToken: args[0],
		})
	},
}

var cmdConfigureShow = &cobra.Command{
	Use:   "show",
	Short: "Print a config template, with its base chain resolved, as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := controller().ConfigureShow(configureName)
		if err != nil {
			return err
		}
		out, err := doc.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}
