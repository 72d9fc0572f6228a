package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
	"github.com/jakechorley/ninebox-weightage/pkg/core/services"
)

func addLedgerFlags(cmd *cobra.Command) {
	cmd.Flags().String("department", "", "Department weightage allocated to the team")
	cmd.Flags().String("role", "", "Role weightage allocated to the team")
	cmd.Flags().String("common", "", "Common weightage (ignored, always derived)")
	cmd.Flags().String("sequence", "", "Display order")
}

func ledgerChanges(cmd *cobra.Command) (services.LedgerRowChanges, error) {
	var changes services.LedgerRowChanges
	var err error

	if changes.DepartmentWeightage, err = decimalFlag(cmd, "department"); err != nil {
		return changes, err
	}
	if changes.RoleWeightage, err = decimalFlag(cmd, "role"); err != nil {
		return changes, err
	}
	if changes.CommonWeightage, err = decimalFlag(cmd, "common"); err != nil {
		return changes, err
	}
	if changes.Sequence, err = intFlag(cmd, "sequence"); err != nil {
		return changes, err
	}
	return changes, nil
}

func printLedgerRow(cmd *cobra.Command, verb string, row *model.LedgerRow) {
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Team weightage %s\n\n", verb)
	fmt.Fprintf(cmd.OutOrStdout(), "Row ID:     %s\n", row.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "Team:       %s (%s)\n", row.TeamID, row.Axis.Label())
	fmt.Fprintf(cmd.OutOrStdout(), "Department: %s%%  Role: %s%%  Common: %s%%\n",
		row.DepartmentWeightage.StringFixed(2), row.RoleWeightage.StringFixed(2), row.CommonWeightage.StringFixed(2))
}

// AddTeamCmd creates the addTeam command
func AddTeamCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addTeam <template_id> <axis> <team>",
		Short: "Allocate part of a template's budget to a team on the performance or potential axis",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			axis, err := model.ParseAxis(args[1])
			if err != nil {
				return err
			}
			changes, err := ledgerChanges(cmd)
			if err != nil {
				return err
			}
			changes.TeamID = &args[2]

			row, err := services.AddLedgerRow(app.Ctx, app.Store, app.Rules(), app.Logger, args[0], axis, changes)
			if err != nil {
				return err
			}
			printLedgerRow(cmd, "added", row)
			return nil
		},
	}

	addLedgerFlags(cmd)

	return cmd
}

// UpdateTeamCmd creates the updateTeam command
func UpdateTeamCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "updateTeam <template_id> <row_id>",
		Short: "Change a team weightage row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := ledgerChanges(cmd)
			if err != nil {
				return err
			}
			changes.TeamID = stringFlag(cmd, "team")

			row, err := services.UpdateLedgerRow(app.Ctx, app.Store, app.Rules(), app.Logger, args[0], args[1], changes)
			if err != nil {
				return err
			}
			printLedgerRow(cmd, "updated", row)
			return nil
		},
	}

	addLedgerFlags(cmd)
	cmd.Flags().String("team", "", "Team the row allocates to")

	return cmd
}

// RemoveTeamCmd creates the removeTeam command
func RemoveTeamCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "removeTeam <template_id> <row_id>",
		Short: "Remove a team weightage row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := services.RemoveLedgerRow(app.Ctx, app.Store, app.Rules(), app.Logger, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Team weightage row removed, %d rows left\n", len(tpl.Ledger))
			return nil
		},
	}
}
