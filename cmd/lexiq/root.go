package main

import (
	"io"

	"github.com/spf13/cobra"

	"lexiq-backend/internal/shared/telemetry"
)

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:   "lexiq",
		Short: "Contract clause and risk review",
		Long: `lexiq identifies the clauses of a PDF contract with a hosted model,
assesses each for risk and reports findings with suggested rewrites.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose || cmd.Name() == "serve" {
				telemetry.SetOutput(cmd.ErrOrStderr())
				return
			}
			telemetry.SetOutput(io.Discard)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "write structured logs to stderr")
	root.AddCommand(newServeCmd(), newAnalyzeCmd())
	return root
}
