package main

import (
	"alcyxob/runplan/internal/planner"
	"fmt"

	"github.com/spf13/cobra"
)

func newPromptCmd() *cobra.Command {
	var profilePath string

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the prompt that would be sent for a profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := loadProfile(profilePath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), planner.BuildPrompt(*profile))
			return nil
		},
	}
	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "profile file (.yaml, .toml or .json)")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}
