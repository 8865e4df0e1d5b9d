package main

import (
	"alcyxob/runplan/internal/config"
	"alcyxob/runplan/internal/logger"
	"alcyxob/runplan/internal/planner"
	"alcyxob/runplan/internal/provider"
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var (
		profilePath string
		configDir   string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a plan with the configured providers and print it (nothing is stored)",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := loadProfile(profilePath)
			if err != nil {
				return err
			}
			cfg, err := config.LoadConfig(configDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			log := logger.NewNop()
			if verbose {
				if log, err = logger.New("development"); err != nil {
					return err
				}
				defer log.Sync()
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Generation.RequestTimeout)
			defer cancel()

			chain, err := provider.BuildChain(ctx, cfg.Generation.Providers)
			if err != nil {
				return err
			}
			router, err := provider.NewRouter(chain,
				provider.WithPolicy(cfg.Generation.FallbackPolicy),
				provider.WithAttemptTimeout(cfg.Generation.ProviderTimeout),
				provider.WithLogger(log),
			)
			if err != nil {
				return err
			}

			result, err := router.Generate(ctx, planner.BuildPrompt(*profile))
			if err != nil {
				return err
			}
			green := color.New(color.FgGreen, color.Bold).SprintFunc()
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s (after %d failed attempts)\n", green("generated by"), result.GeneratedBy(), len(result.Attempts))

			plan, report, err := planner.ReadPlan(result.Text)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), result.Text)
				return err
			}
			return printPlan(cmd.OutOrStdout(), cmd.ErrOrStderr(), plan, report)
		},
	}
	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "profile file (.yaml, .toml or .json)")
	cmd.Flags().StringVarP(&configDir, "config", "c", ".", "directory holding config.yaml")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log provider attempts to stderr")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}
