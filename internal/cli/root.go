// Package cli defines the Cobra command tree for the bloomcart CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// version, commit, date are set via -ldflags at build time.
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// configPath is bound to the persistent --config flag.
var configPath string

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bloomcart",
	Short: "Storefront sales assistant with inquiry capture and notifications",
	Long: `Bloomcart runs the conversational sales assistant of a storefront.

It answers customers from the published catalog, services and FAQs,
remembers their preferences, records sales inquiries and sends summaries
to the business over WhatsApp or email.

Run 'bloomcart serve' to start the HTTP API, or 'bloomcart chat' to talk
to the assistant from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute(v, c, d string) {
	version, commit, date = v, c, d
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default ./bloomcart.toml when present)")

	rootCmd.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newHistoryCmd(),
		newForgetCmd(),
		newInquiryCmd(),
		newCatalogCmd(),
		newSettingsCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bloomcart %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
