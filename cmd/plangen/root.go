package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "plangen",
		Short:         "Inspect and dry-run running plan generation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPromptCmd(), newExtractCmd(), newGenerateCmd())
	return root
}
