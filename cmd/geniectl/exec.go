package main

import (
	"os"

	"github.com/spf13/cobra"

	"geniectl/internal/app"
	"geniectl/internal/sshexec"
)

var (
	execUser         string
	execPort         int
	execPassword     string
	execAskPassword  bool
	readExecPassword = func() (string, error) {
		return sshexec.ReadPassword(os.Stdin, os.Stderr, "Password: ")
	}
)

func init() {
	rootCmd.AddCommand(cmdExec)
	cmdExec.Flags().StringVarP(&execUser, "user", "u", "", "Login user (default root)")
	cmdExec.Flags().IntVarP(&execPort, "port", "p", 0, "SSH port (default 22)")
	cmdExec.Flags().StringVar(&execPassword, "password", "", "Login password (default: none auth)")
	cmdExec.Flags().BoolVarP(&execAskPassword, "ask-password", "P", false, "Prompt for the login password")
	cmdExec.Flags().SetInterspersed(false)
}

var cmdExec = &cobra.Command{
	Use:   "exec HOST CMD...",
	Short: "Run a command on a device over the built-in SSH client",
	Long:  "Runs CMD on HOST without the system ssh. Output lines are printed as they arrive, stdout prefixed with '> ' and stderr with '! '.",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := execPassword
		if execAskPassword {
			pw, err := readExecPassword()
			if err != nil {
				return err
			}
			password = pw
		}
		return controller().Exec(cmd.Context(), app.ExecParams{
			Host:     args[0],
			Command:  args[1:],
			User:     execUser,
			Port:     execPort,
			Password: password,
		})
	},
}
