package main

import (
	"github.com/spf13/cobra"

	"geniectl/internal/app"
	"geniectl/internal/build"
)

var (
	buildArch    string
	buildStatic  bool
	buildExeOnly bool
	buildPlain   bool
	buildClean   bool

	buildShellArch  string
	buildShellMount string
)

func init() {
	rootCmd.AddCommand(cmdBuild)
	cmdBuild.AddCommand(cmdBuildShell)
	cmdBuild.Flags().StringVarP(&buildArch, "arch", "a", "", "Target architecture: arm32v7, amd64 or arm64v8 (default from config)")
	cmdBuild.Flags().BoolVar(&buildStatic, "static", false, "Link statically")
	cmdBuild.Flags().BoolVarP(&buildExeOnly, "exe", "x", false, "Only copy the executable out of the container")
	cmdBuild.Flags().BoolVarP(&buildPlain, "plain", "p", false, "Pass --progress plain to docker build (real Docker only)")
	cmdBuild.Flags().BoolVar(&buildClean, "clean", false, "Remove the output directory first")

	cmdBuildShell.Flags().StringVarP(&buildShellArch, "arch", "a", "", "Builder image architecture (default from config)")
	cmdBuildShell.Flags().StringVarP(&buildShellMount, "mount", "m", string(build.MountRepo), "What to mount: repo or out")
}

func buildParams() app.BuildParams {
	return app.BuildParams{
		Arch:    buildArch,
		Static:  buildStatic,
		ExeOnly: buildExeOnly,
		Plain:   buildPlain,
		Clean:   buildClean,
	}
}

var cmdBuild = &cobra.Command{
	Use:   "build",
	Short: "Build the client in the builder container",
	Long:  "Builds the builder image for the architecture and runs the packaging script in it, leaving artifacts under the output directory.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return controller().Build(cmd.Context(), buildParams())
	},
}

var cmdBuildShell = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive shell in the builder image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return controller().BuildShell(cmd.Context(), app.BuildShellParams{
			Arch:  buildShellArch,
			Mount: build.Mount(buildShellMount),
		})
	},
}
