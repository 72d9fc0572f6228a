package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
	"github.com/jakechorley/ninebox-weightage/pkg/core/services"
)

func addLineFlags(cmd *cobra.Command) {
	cmd.Flags().String("priority", "", "Priority: low, medium or high")
	cmd.Flags().String("metric", "", "Metric: percentage, count, rating or score")
	cmd.Flags().String("actual", "", "Actual value")
	cmd.Flags().String("target", "", "Target value")
	cmd.Flags().String("weightage", "", "Distributed weightage")
	cmd.Flags().String("sequence", "", "Display order")
}

func lineChanges(cmd *cobra.Command) (services.LineChanges, error) {
	var changes services.LineChanges
	var err error

	if changes.Priority, err = priorityFlag(cmd, "priority"); err != nil {
		return changes, err
	}
	if changes.Metric, err = metricFlag(cmd, "metric"); err != nil {
		return changes, err
	}
	if changes.ActualValue, err = decimalFlag(cmd, "actual"); err != nil {
		return changes, err
	}
	if changes.TargetValue, err = decimalFlag(cmd, "target"); err != nil {
		return changes, err
	}
	if changes.DistributedWeightage, err = decimalFlag(cmd, "weightage"); err != nil {
		return changes, err
	}
	if changes.Sequence, err = intFlag(cmd, "sequence"); err != nil {
		return changes, err
	}
	return changes, nil
}

func printLine(cmd *cobra.Command, verb string, line *model.Line) {
	out := cmd.OutOrStdout()
	progress := line.Progress()
	fmt.Fprintf(out, "✓ Key result %s\n\n", verb)
	fmt.Fprintf(out, "Line ID:   %s\n", line.ID)
	fmt.Fprintf(out, "Table:     %s %s\n", line.Axis.Label(), line.Category.Label())
	fmt.Fprintf(out, "Team:      %s\n", line.TeamID)
	fmt.Fprintf(out, "Objective: %s (%s)\n", line.ObjectiveBreakdown, line.Priority)
	fmt.Fprintf(out, "Weightage: %s%%\n", line.DistributedWeightage.StringFixed(2))
	fmt.Fprintf(out, "Progress:  %s%% (%s)\n", progress.StringFixed(2), model.ProgressBand(progress))
}

// AddLineCmd creates the addLine command
func AddLineCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addLine <template_id> <axis> <category> <team> <objective>",
		Short: "Add a key result line to one of the six key result tables",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			axis, err := model.ParseAxis(args[1])
			if err != nil {
				return err
			}
			category, err := model.ParseCategory(args[2])
			if err != nil {
				return err
			}
			changes, err := lineChanges(cmd)
			if err != nil {
				return err
			}
			changes.TeamID = &args[3]
			changes.ObjectiveBreakdown = &args[4]

			line, err := services.AddLine(app.Ctx, app.Store, app.Rules(), app.Logger, args[0], axis, category, changes)
			if err != nil {
				return err
			}
			printLine(cmd, "added", line)
			return nil
		},
	}

	addLineFlags(cmd)

	return cmd
}

// UpdateLineCmd creates the updateLine command
func UpdateLineCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "updateLine <template_id> <line_id>",
		Short: "Change a key result line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := lineChanges(cmd)
			if err != nil {
				return err
			}
			changes.TeamID = stringFlag(cmd, "team")
			changes.ObjectiveBreakdown = stringFlag(cmd, "objective")

			line, err := services.UpdateLine(app.Ctx, app.Store, app.Rules(), app.Logger, args[0], args[1], changes)
			if err != nil {
				return err
			}
			printLine(cmd, "updated", line)
			return nil
		},
	}

	addLineFlags(cmd)
	cmd.Flags().String("team", "", "Team the key result belongs to")
	cmd.Flags().String("objective", "", "Objective breakdown")

	return cmd
}

// RemoveLineCmd creates the removeLine command
func RemoveLineCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "removeLine <template_id> <line_id>",
		Short: "Remove a key result line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := services.RemoveLine(app.Ctx, app.Store, app.Rules(), app.Logger, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Key result removed, %d lines left\n", len(tpl.Lines))
			return nil
		},
	}
}
