package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"geniectl/internal/app"
	"geniectl/internal/deploy"
)

var (
	deployOnly    []string
	deployExe     bool
	deployAssets  bool
	deployBuild   bool
	deployPlain   bool
	deployArch    string
	deployStatic  bool
	deployClean   bool
	deployRestart bool

	toolsTarget string
	toolsArch   string
	toolsTmp    bool
)

func init() {
	rootCmd.AddCommand(cmdDeploy)
	cmdDeploy.AddCommand(cmdDeployTools)

	cmdDeploy.Flags().StringSliceVarP(&deployOnly, "only", "o", nil, "Deploy only these items: lib, assets, launch, asoundrc, config, exe (repeatable)")
	cmdDeploy.Flags().BoolVarP(&deployExe, "exe", "x", false, "Deploy the executable (shorthand for --only exe; builds exe-only with --build)")
	cmdDeploy.Flags().BoolVar(&deployAssets, "assets", false, "Deploy the assets (shorthand for --only assets)")
	cmdDeploy.Flags().BoolVarP(&deployBuild, "build", "b", false, "Build before deploying")
	cmdDeploy.Flags().BoolVarP(&deployPlain, "plain", "p", false, "Pass --progress plain to docker build (real Docker only)")
	cmdDeploy.Flags().StringVarP(&deployArch, "arch", "a", "", "Build architecture (default from config)")
	cmdDeploy.Flags().BoolVar(&deployStatic, "static", false, "Build statically linked")
	cmdDeploy.Flags().BoolVar(&deployClean, "clean", false, "Remove the install directory on the device first")
	cmdDeploy.Flags().BoolVarP(&deployRestart, "restart", "r", false, "Start the client when done")

	cmdDeployTools.Flags().StringVarP(&toolsTarget, "target", "t", "", "ssh destination or 'adb' (default from current context)")
	cmdDeployTools.Flags().StringVarP(&toolsArch, "arch", "a", "", "Builder image to copy from (default from config)")
	cmdDeployTools.Flags().BoolVar(&toolsTmp, "tmp", false, "Copy to a temporary location that disappears on reboot")
}

func deployNames() []string {
	names := append([]string(nil), deployOnly...)
	if deployExe && !slices.Contains(names, "exe") {
		names = append(names, "exe")
	}
	if deployAssets && !slices.Contains(names, "assets") {
		names = append(names, "assets")
	}
	return names
}

var cmdDeploy = &cobra.Command{
	Use:   "deploy [TARGET]",
	Short: "Push build artifacts to a device",
	Long: `Pushes build artifacts to TARGET (an ssh destination or 'adb'; default from
the current context). Without a selection everything is deployed after a
full stop of the client; a selection stops only what it has to.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl := controller()
		names := deployNames()
		var res deploy.Result
		err := withSpinner("Deploying...", func() error {
			var err error
			res, err = ctrl.Deploy(cmd.Context(), app.DeployParams{
				Target: targetArg(args),
				Build:  deployBuild,
				BuildParams: app.BuildParams{
					Arch:    deployArch,
					Static:  deployStatic,
					ExeOnly: deployExe,
					Plain:   deployPlain,
				},
				Names:   names,
				Clean:   deployClean,
				Restart: deployRestart,
			})
			return err
		})

		out := cmd.OutOrStdout()
		if len(res.Stopped) > 0 {
			header(out, "Stopped")
			printReport(out, res.Stopped)
		}
		if len(res.Pushed) > 0 {
			header(out, "Deployed")
			for _, name := range res.Pushed {
				fmt.Fprintf(out, "  %s %s\n", okStyle.Render("✓"), name)
			}
		}
		if res.Restarted {
			fmt.Fprintln(out, okStyle.Render("Client started"))
		}
		if err != nil {
			return err
		}
		if len(names) == 0 && !res.Restarted {
			fmt.Fprintln(out, dimStyle.Render("Client not started (pass --restart to launch it)"))
		}
		return nil
	},
}

var cmdDeployTools = &cobra.Command{
	Use:   "tools NAME...",
	Short: "Copy tools from the builder image to the device",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var target *string
		if cmd.Flags().Changed("target") {
			target = &toolsTarget
		}
		written, err := controller().DeployTools(cmd.Context(), app.DeployToolsParams{
			Target: target,
			Names:  args,
			Arch:   toolsArch,
			Tmp:    toolsTmp,
		})
		for _, p := range written {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okStyle.Render("✓"), p)
		}
		if err != nil {
			return err
		}
		if toolsTmp {
			fmt.Fprintln(os.Stderr, warnStyle.Render("Tools in the temporary bin dir are gone after a reboot"))
		}
		return nil
	},
}
