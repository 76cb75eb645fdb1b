package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"geniectl/internal/app"
)

var (
	wifiNetwork     string
	wifiPassword    string
	wifiReconfigure bool

	dnsServers []string
)

func init() {
	rootCmd.AddCommand(cmdWifi, cmdDNS)
	cmdWifi.AddCommand(cmdWifiGet, cmdWifiSet)
	cmdDNS.AddCommand(cmdDNSSet)

	cmdWifiSet.Flags().StringVarP(&wifiNetwork, "network", "n", "", "Network name (default: wifi-name from current context)")
	cmdWifiSet.Flags().StringVarP(&wifiPassword, "password", "p", "", "Pre-shared key; empty for an open network (default: wifi-password from current context)")
	cmdWifiSet.Flags().BoolVar(&wifiReconfigure, "reconfigure", true, "Run wpa_cli reconfigure after writing")

	cmdDNSSet.Flags().StringArrayVarP(&dnsServers, "server", "s", nil, "Name server IP (repeatable; default: dns-servers from current context)")
}

var cmdWifi = &cobra.Command{
	Use:   "wifi",
	Short: "Get and set WiFi configuration",
}

var cmdWifiGet = &cobra.Command{
	Use:   "get [TARGET]",
	Short: "Show the supplicant config and interface state",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := controller().WifiGet(cmd.Context(), targetArg(args))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		header(out, st.ConfigPath)
		fmt.Fprintln(out, boxStyle.Render(strings.TrimRight(st.Config, "\n")))
		header(out, st.Interface)
		fmt.Fprintln(out, boxStyle.Render(strings.TrimRight(st.Addr, "\n")))
		return nil
	},
}

var cmdWifiSet = &cobra.Command{
	Use:   "set [TARGET]",
	Short: "Write the supplicant config",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := app.WifiSetParams{Target: targetArg(args), Reconfigure: wifiReconfigure}
		if cmd.Flags().Changed("network") {
			params.Network = &wifiNetwork
		}
		if cmd.Flags().Changed("password") {
			params.Password = &wifiPassword
		}
		return controller().WifiSet(cmd.Context(), params)
	},
}

var cmdDNS = &cobra.Command{
	Use:   "dns",
	Short: "Set DNS configuration",
}

var cmdDNSSet = &cobra.Command{
	Use:   "set [TARGET]",
	Short: "Write resolv.conf",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return controller().DNSSet(cmd.Context(), app.DNSSetParams{Target: targetArg(args), Servers: dnsServers})
	},
}
