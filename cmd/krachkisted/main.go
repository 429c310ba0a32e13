// Krachkisted is the krachkiste connectivity daemon.
//
// It manages the device's WiFi lifecycle: station mode with stored
// credentials, fallback to a self-hosted access point when no usable
// credentials exist, and a small configuration portal on that access point.
//
// Usage:
//
//	krachkisted serve [flags]
//
// See 'krachkisted serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mischback/krachkiste/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "krachkisted",
	Short: "Krachkiste connectivity daemon",
	Long: `The krachkiste connectivity daemon.

Brings the device online: joins the configured WiFi network when stored
credentials work, otherwise opens a local access point with a captive
configuration portal where new credentials can be entered.

Note: For interacting with a running device, use the separate
'krachkiste-cfg' utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("krachkisted %s (commit: %s)\n", version.Version, version.Commit)
	},
}
