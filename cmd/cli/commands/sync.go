package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ninebox-weightage/pkg/core/services"
)

// ListOKRTemplatesCmd creates the listOKRTemplates command
func ListOKRTemplatesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listOKRTemplates <template_id>",
		Short: "List the OKR templates a template can sync from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			okrs, err := services.SelectableOKRTemplates(app.Ctx, app.Store, app.OKRs, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(okrs) == 0 {
				fmt.Fprintln(out, "No active OKR templates for this template's department.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTEAMS\tKEY RESULTS")
			for _, o := range okrs {
				krs := len(o.DepartmentKeyResults) + len(o.RoleKeyResults) + len(o.CommonKeyResults)
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", o.ID, o.Name, len(o.Weightages), krs)
			}
			return w.Flush()
		},
	}
}

// SelectOKRCmd creates the selectOKR command
func SelectOKRCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "selectOKR <template_id> [okr_template_id]",
		Short: "Select the OKR template to sync from (omit the id to clear it)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var okrID string
			if len(args) > 1 {
				okrID = args[1]
			}

			tpl, err := services.SelectOKRTemplate(app.Ctx, app.Store, app.OKRs, app.Rules(), app.Logger, args[0], okrID)
			if err != nil {
				return err
			}

			if tpl.SelectedOKRTemplateID == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "✓ OKR template selection cleared")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Selected OKR template %s (%s)\n", tpl.SelectedOKRTemplateName, tpl.SelectedOKRTemplateID)
			return nil
		},
	}
}

// SyncCmd creates the sync command
func SyncCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <template_id>",
		Short: "Replace team weightages and key results with the selected OKR template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := services.SyncKeyResults(app.Ctx, app.Store, app.OKRs, app.Rules(), app.Logger, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if action == nil {
				fmt.Fprintln(out, "Nothing to sync: select a department and an OKR template first.")
				return nil
			}

			fmt.Fprintln(out, "✓ Key results synced")
			printAction(out, action)
			return nil
		},
	}
}

// UnsyncCmd creates the unsync command
func UnsyncCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unsync <template_id>",
		Short: "Delete every key result line and clear the sync state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := services.UnsyncKeyResults(app.Ctx, app.Store, app.Rules(), app.Logger, args[0])
			if err != nil {
				return err
			}
			printAction(cmd.OutOrStdout(), action)
			return nil
		},
	}
}

// PreviewSyncCmd creates the previewSync command
func PreviewSyncCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "previewSync <template_id>",
		Short: "Show what a sync would change without saving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preview, err := services.PreviewSync(app.Ctx, app.Store, app.OKRs, app.Rules(), app.Logger, args[0])
			if err != nil {
				return err
			}

			app.Logger.Debug("previewSync command", zap.String("template_id", args[0]), zap.Bool("has_violation", preview.Violation != ""))

			out := cmd.OutOrStdout()
			if preview.Diff == "" {
				fmt.Fprintln(out, "Sync would not change anything.")
			} else {
				fmt.Fprintf(out, "\n%s\n", preview.Diff)
			}
			if preview.Violation != "" {
				fmt.Fprintf(out, "⚠️  Sync would be rejected: %s\n", preview.Violation)
			}
			return nil
		},
	}
}
