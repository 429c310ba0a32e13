// Krachkiste-cfg is an operator utility for krachkiste devices.
//
// It provides device discovery, credential management and a live status
// monitor for devices running the krachkiste connectivity daemon.
//
// Usage:
//
//	krachkiste-cfg [command] [flags]
//
// See 'krachkiste-cfg --help' for available commands.
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
	Use:   "krachkiste-cfg",
	Short: "Krachkiste device utility",
	Long: `A standalone utility for krachkiste devices.

Discovers devices on the local network, manages stored WiFi credentials
and follows a device's connection state live.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("krachkiste-cfg %s (commit: %s)\n", version.Version, version.Commit)
	},
}
