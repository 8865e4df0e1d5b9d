package main

import (
	"alcyxob/runplan/internal/domain"
	"alcyxob/runplan/internal/planner"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [reply-file]",
		Short: "Read a raw model reply (file or stdin) and print the normalized plan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if len(args) == 1 && args[0] != "-" {
				raw, err = os.ReadFile(args[0])
			} else {
				raw, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read reply: %w", err)
			}

			plan, report, err := planner.ReadPlan(string(raw))
			if err != nil {
				return err
			}
			return printPlan(cmd.OutOrStdout(), cmd.ErrOrStderr(), plan, report)
		},
	}
	return cmd
}

// printPlan writes the plan as indented JSON to out and repair warnings to warn.
func printPlan(out, warn io.Writer, plan domain.WorkoutPlan, report planner.NormalizeReport) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plan); err != nil {
		return err
	}

	if report.Clean() {
		return nil
	}
	yellow := color.New(color.FgYellow).SprintFunc()
	if len(report.MissingWeeks) > 0 {
		fmt.Fprintf(warn, "%s missing weeks filled empty: %s\n", yellow("warning:"), strings.Join(report.MissingWeeks, ", "))
	}
	if report.DroppedEntries > 0 {
		fmt.Fprintf(warn, "%s dropped %d entries without day/type\n", yellow("warning:"), report.DroppedEntries)
	}
	if report.CoercedDurations > 0 {
		fmt.Fprintf(warn, "%s coerced %d durations\n", yellow("warning:"), report.CoercedDurations)
	}
	return nil
}
