// Package cmd implements the nanorelay command-line entry points: running
// the agent process, chatting with it directly from a terminal, and basic
// environment diagnostics.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X github.com/nanorelay/nanorelay/cmd.Version=v1.0.0"
var Version = "dev"

var cfgFile string
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "nanorelay",
	Short: "Nanorelay — a personal AI agent",
	Long:  "Nanorelay runs one agent loop against a workspace, reachable over chat channels, cron, and a local terminal session.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGateway()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.json or $NANORELAY_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(gatewayCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(doctorCmd())
	rootCmd.AddCommand(versionCmd())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("nanorelay " + Version)
		},
	}
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("NANORELAY_CONFIG"); v != "" {
		return v
	}
	return "config.json"
}

// Execute runs the root cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
