package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-life-planner/internal/lifeplan"
	"ai-life-planner/internal/session"
	"ai-life-planner/internal/todo"
	"ai-life-planner/internal/tui"

	"github.com/spf13/cobra"
)

func tuiCmd(rt *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive planner (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), rt)
		},
	}
}

func runTUI(ctx context.Context, rt *cliEnv) error {
	feed := tui.NewFeed()
	ctrl := rt.app.NewController(ctx, session.WithListener(feed.Listen))
	defer ctrl.Wait()

	m := tui.New(ctrl, feed, todo.NewList(), rt.logger.Named("tui"))
	return tui.Run(ctx, m)
}

func planCmd(rt *cliEnv) *cobra.Command {
	var (
		input    lifeplan.UserInput
		focus    string
		markdown bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a plan from flags and print it",
		Long: `Generate a plan without the interactive interface.

Focus areas:
  ` + strings.Join(focusLabels(), "\n  ") + `

Examples:
  ai-life-planner plan --name Sam --focus "Health & Fitness" \
    --short-term "Run a 5k" --long-term "Run a marathon" \
    --availability "1 hour in the evening" --obstacle "Low energy after work"
  ai-life-planner plan ... --markdown > plan.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if area, ok := lifeplan.ParseFocusArea(focus); ok {
				input.PrimaryFocus = area
			} else {
				input.PrimaryFocus = lifeplan.FocusArea(focus)
			}

			err := rt.app.GenerateLifePlan(cmd.Context(), input, cmd.OutOrStdout(), markdown)
			var fieldErrs lifeplan.FieldErrors
			if errors.As(err, &fieldErrs) {
				for _, f := range lifeplan.Fields {
					if msg, ok := fieldErrs[f]; ok {
						fmt.Fprintf(cmd.ErrOrStderr(), "  --%s: %s\n", flagNames[f], msg)
					}
				}
				return errors.New("incomplete input")
			}
			return err
		},
	}

	cmd.Flags().StringVar(&input.Name, flagNames[lifeplan.FieldName], "", "Your name")
	cmd.Flags().StringVar(&focus, flagNames[lifeplan.FieldPrimaryFocus], "", "Primary focus area")
	cmd.Flags().StringVar(&input.ShortTermGoal, flagNames[lifeplan.FieldShortTermGoal], "", "Goal for the next 1-3 months")
	cmd.Flags().StringVar(&input.LongTermGoal, flagNames[lifeplan.FieldLongTermGoal], "", "Goal for the next 1-3 years")
	cmd.Flags().StringVar(&input.DailyAvailability, flagNames[lifeplan.FieldDailyAvailability], "", "Free time per day")
	cmd.Flags().StringVar(&input.BiggestObstacle, flagNames[lifeplan.FieldBiggestObstacle], "", "What holds you back")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print raw Markdown instead of styled output")

	return cmd
}

var flagNames = map[lifeplan.Field]string{
	lifeplan.FieldName:              "name",
	lifeplan.FieldPrimaryFocus:      "focus",
	lifeplan.FieldShortTermGoal:     "short-term",
	lifeplan.FieldLongTermGoal:      "long-term",
	lifeplan.FieldDailyAvailability: "availability",
	lifeplan.FieldBiggestObstacle:   "obstacle",
}

func focusLabels() []string {
	labels := make([]string, len(lifeplan.FocusAreas))
	for i, area := range lifeplan.FocusAreas {
		labels[i] = string(area)
	}
	return labels
}

func metricsCmd(rt *cliEnv) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show token usage and system health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.app.PrintMetrics(cmd.OutOrStdout(), days)
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to report")
	return cmd
}

func metricsCleanupCmd(rt *cliEnv) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "metrics-cleanup",
		Short: "Remove old metric records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			affected, err := rt.app.CleanupMetrics(days)
			if err != nil {
				return fmt.Errorf("cleanup failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed %d old metric records.\n", affected)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Keep records for the last N days")
	return cmd
}
