package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdStreams)
	cmdStreams.AddCommand(cmdStreamsFetch, cmdStreamsPlay, cmdStreamsRecord)
}

var cmdStreams = &cobra.Command{
	Use:   "streams",
	Short: "Fetch, play and record the client's audio streams",
}

var cmdStreamsFetch = &cobra.Command{
	Use:   "fetch [TARGET]",
	Short: "Pull the dumped input/playback/filter streams into a new numbered directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := controller().StreamsFetch(cmd.Context(), targetArg(args))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dir)
		return nil
	},
}

var cmdStreamsPlay = &cobra.Command{
	Use:   "play FILE",
	Short: "Play a fetched raw stream (16 kHz mono s16le) with ffplay",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return controller().StreamsPlay(cmd.Context(), args[0])
	},
}

var cmdStreamsRecord = &cobra.Command{
	Use:   "record [TARGET]",
	Short: "Record the device's echo-cancelled source until Enter is pressed",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stop := make(chan struct{})
		go func() {
			_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			close(stop)
		}()
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("Recording... press Enter to stop"))
		path, err := controller().StreamsRecord(cmd.Context(), targetArg(args), stop)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}
