package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for SurfaceScore.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "surfacescore",
		Short: "Score how ready a website is for Apple surfaces",
		Long: `SurfaceScore rates a website in four categories: Safari Reader mode,
Apple Intelligence readiness, structured data and WCAG compliance.

Each category gets a score between 60 and 100 together with details and
prioritized recommendations. Results can be printed, exported as JSON or
Markdown, stored in a local history database and served over HTTP.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", "text", "Log format: text or json")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewNeuroCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
