package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ninebox-weightage/pkg/core/services"
)

// CreateTemplateCmd creates the createTemplate command
func CreateTemplateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "createTemplate <name> <department>",
		Short: "Create a 9-box template and fetch its department budget",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			industry, _ := cmd.Flags().GetString("industry")
			inactive, _ := cmd.Flags().GetBool("inactive")

			tpl, err := services.CreateTemplate(app.Ctx, app.Store, app.Weightages, app.Logger, services.CreateTemplateInput{
				Name:         args[0],
				DepartmentID: args[1],
				IndustryID:   industry,
				Active:       !inactive,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n✓ Template created successfully!\n\n")
			fmt.Fprintf(out, "Template ID: %s\n", tpl.ID)
			fmt.Fprintf(out, "Budget:      department %s%%  role %s%%  common %s%%\n\n",
				tpl.DeptWeightage.StringFixed(2), tpl.RoleWeightage.StringFixed(2), tpl.CommonWeightage.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().String("industry", "", "Industry used to pick the department weightage")
	cmd.Flags().Bool("inactive", false, "Create the template as inactive")

	return cmd
}

// ListTemplatesCmd creates the listTemplates command
func ListTemplatesCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listTemplates",
		Short: "List templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			activeOnly, _ := cmd.Flags().GetBool("active")

			templates, err := services.ListTemplates(app.Ctx, app.Store, activeOnly)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(templates) == 0 {
				fmt.Fprintln(out, "No templates found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDEPARTMENT\tACTIVE\tSYNC")
			for _, t := range templates {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", t.ID, t.Name, t.DepartmentID, t.Active, t.SyncStatus)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Bool("active", false, "Only list active templates")

	return cmd
}

// ShowCmd creates the show command
func ShowCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <template_id>",
		Short: "Show a template's budget, team weightages and key results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := services.BuildSummary(app.Ctx, app.Store, args[0], app.now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", summary.Text())
			return nil
		},
	}
}

// RenameCmd creates the rename command
func RenameCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <template_id> <name>",
		Short: "Rename a template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := services.RenameTemplate(app.Ctx, app.Store, app.Rules(), app.Logger, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Template renamed to %q\n", tpl.Name)
			return nil
		},
	}
}

// SetActiveCmd creates the setActive command
func SetActiveCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "setActive <template_id> <true|false>",
		Short: "Activate or deactivate a template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			active, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("active must be true or false, got: %s", args[1])
			}

			tpl, err := services.SetTemplateActive(app.Ctx, app.Store, app.Rules(), app.Logger, args[0], active)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Template %s active: %t\n", tpl.Name, tpl.Active)
			return nil
		},
	}
}

// SetDepartmentCmd creates the setDepartment command
func SetDepartmentCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setDepartment <template_id> <department>",
		Short: "Move a template to another department, resetting splits and the OKR selection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			industry, _ := cmd.Flags().GetString("industry")

			tpl, err := services.ChangeDepartment(app.Ctx, app.Store, app.Weightages, app.Rules(), app.Logger, args[0], args[1], industry)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Template moved to department %s\n", tpl.DepartmentID)
			fmt.Fprintf(out, "Budget: department %s%%  role %s%%  common %s%%\n",
				tpl.DeptWeightage.StringFixed(2), tpl.RoleWeightage.StringFixed(2), tpl.CommonWeightage.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().String("industry", "", "Industry used to pick the department weightage")

	return cmd
}

// RefreshBudgetCmd creates the refreshBudget command
func RefreshBudgetCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refreshBudget <template_id>",
		Short: "Fetch the template budget from the department weightage configuration again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := services.RefreshBudget(app.Ctx, app.Store, app.Weightages, app.Rules(), app.Logger, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Budget: department %s%%  role %s%%  common %s%%\n",
				tpl.DeptWeightage.StringFixed(2), tpl.RoleWeightage.StringFixed(2), tpl.CommonWeightage.StringFixed(2))
			return nil
		},
	}
}

// SetSplitCmd creates the setSplit command
func SetSplitCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "setSplit <template_id> <performance> <potential>",
		Short: "Split the department budget between the performance and potential axes",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			performance, err := parseDecimal("performance", args[1])
			if err != nil {
				return err
			}
			potential, err := parseDecimal("potential", args[2])
			if err != nil {
				return err
			}

			tpl, err := services.ApplySplit(app.Ctx, app.Store, app.Rules(), app.Logger, args[0], performance, potential)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Split set: performance %s%%  potential %s%%\n",
				tpl.PerformanceSplit.StringFixed(2), tpl.PotentialSplit.StringFixed(2))
			return nil
		},
	}
}

// DeleteTemplateCmd creates the deleteTemplate command
func DeleteTemplateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deleteTemplate <template_id>",
		Short: "Delete a template with its team weightages and key results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.DeleteTemplate(app.Ctx, app.Store, app.Logger, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Template %s deleted\n", args[0])
			return nil
		},
	}
}

// ExportCmd creates the export command
func ExportCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <template_id>",
		Short: "Archive the template's allocation summary to the export store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Blobs == nil {
				return fmt.Errorf("export is not configured, set export.driver in the config file")
			}

			app.Logger.Debug("export command", zap.String("template_id", args[0]), zap.String("driver", string(app.Blobs.Driver())))

			key, err := services.ExportTemplate(app.Ctx, app.Store, app.Blobs, app.Logger, args[0], app.now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Summary exported to %s (%s)\n", key, app.Blobs.Driver())
			return nil
		},
	}
}
