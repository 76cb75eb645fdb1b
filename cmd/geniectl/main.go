package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"geniectl/internal/config"
	"geniectl/internal/exitcode"
	"geniectl/internal/logging"
)

var (
	configPath string
	verbose    bool
	quiet      bool

	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "geniectl [command]",
	Short: "geniectl: build, deploy and poke at genie client devices",
	Long: `geniectl drives the containerised client build and manages devices reached
over ssh or adb: deploying artifacts, killing the client, wifi/DNS setup,
audio stream capture and named contexts holding per-device defaults.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.New(os.Stderr, logging.Options{Verbose: verbose, Quiet: quiet})
		loaded, err := config.Load(configPath)
		if err != nil {
			return exitcode.Wrap(exitcode.ErrUsage, "", err)
		}
		cfg = loaded
		logger.Debug("Loaded config", "repo", cfg.Paths.Repo, "contexts", cfg.Contexts.Backend)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a geniectl.toml (default: $GENIECTL_CONFIG or <repo>/geniectl.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		os.Exit(exitcode.Code(err))
	}
}
