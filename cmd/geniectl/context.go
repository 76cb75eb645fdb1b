package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"geniectl/internal/app"
)

var (
	contextCurrentList bool

	contextSetTarget       string
	contextSetWifiName     string
	contextSetWifiPassword string
	contextSetDNSServers   []string
)

func init() {
	rootCmd.AddCommand(cmdContext)
	cmdContext.AddCommand(cmdContextList, cmdContextCurrent, cmdContextGet, cmdContextSet, cmdContextUnset)

	cmdContextCurrent.Flags().BoolVarP(&contextCurrentList, "list", "l", false, "Show the current context's values")

	cmdContextSet.Flags().StringVarP(&contextSetTarget, "target", "t", "", "ssh destination or 'adb'")
	cmdContextSet.Flags().StringVarP(&contextSetWifiName, "wifi-name", "n", "", "WiFi network name (SSID)")
	cmdContextSet.Flags().StringVarP(&contextSetWifiPassword, "wifi-password", "p", "", "WiFi password")
	cmdContextSet.Flags().StringArrayVarP(&contextSetDNSServers, "dns-servers", "d", nil, "DNS server for resolv.conf (repeatable)")
}

var cmdContext = &cobra.Command{
	Use:   "context",
	Short: "Get and set named device contexts",
	Long:  "Contexts hold per-device defaults (target, wifi credentials, DNS servers). Commands fall back to the current context for anything not given on the command line.",
}

var cmdContextList = &cobra.Command{
	Use:   "list",
	Short: "List saved contexts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := controller().ContextList(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No contexts saved")
			return nil
		}
		for _, c := range list {
			if c.Current {
				fmt.Fprintf(out, "* %s\n", okStyle.Render(c.Name))
			} else {
				fmt.Fprintf(out, "  %s\n", c.Name)
			}
		}
		return nil
	},
}

var cmdContextCurrent = &cobra.Command{
	Use:   "current [NAME]",
	Short: "Get or set the current context",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := app.ContextCurrentParams{List: contextCurrentList}
		if len(args) == 1 {
			params.Name = args[0]
		}
		res, err := controller().ContextCurrent(cmd.Context(), params)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if res.Context != nil {
			return printYAML(cmd, res.Context)
		}
		if res.Name == "" {
			fmt.Fprintln(out, dimStyle.Render("No current context"))
			return nil
		}
		fmt.Fprintln(out, res.Name)
		return nil
	},
}

var cmdContextGet = &cobra.Command{
	Use:   "get NAME",
	Short: "Show the values in a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := controller().ContextGet(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printYAML(cmd, c)
	},
}

var cmdContextSet = &cobra.Command{
	Use:   "set NAME",
	Short: "Set values in a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := app.ContextSetParams{Name: args[0]}
		flags := cmd.Flags()
		if flags.Changed("target") {
			params.Target = &contextSetTarget
		}
		if flags.Changed("wifi-name") {
			params.WifiName = &contextSetWifiName
		}
		if flags.Changed("wifi-password") {
			params.WifiPassword = &contextSetWifiPassword
		}
		if flags.Changed("dns-servers") {
			params.DNSServers = contextSetDNSServers
		}
		return controller().ContextSet(cmd.Context(), params)
	},
}

var cmdContextUnset = &cobra.Command{
	Use:   "unset NAME FIELD",
	Short: "Remove a value from a context (target, wifi-name, wifi-password, dns-servers)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return controller().ContextUnset(cmd.Context(), args[0], args[1])
	},
}

func printYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
