package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"geniectl/internal/proctable"
	"geniectl/internal/tui"
)

var runTUI = tui.Run

func init() {
	rootCmd.AddCommand(cmdTop)
}

var cmdTop = &cobra.Command{
	Use:   "top [TARGET]",
	Short: "Browse and kill device processes interactively",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patterns, err := proctable.CompileSet(cfg.KillPatterns)
		if err != nil {
			return err
		}
		if err := runTUI(controller(), tui.Options{Target: targetArg(args), Patterns: patterns}); err != nil {
			return fmt.Errorf("top exited with error: %w", err)
		}
		return nil
	},
}
