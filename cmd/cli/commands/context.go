package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ninebox-weightage/internal/config"
	"github.com/jakechorley/ninebox-weightage/pkg/blob"
	"github.com/jakechorley/ninebox-weightage/pkg/core/budget"
	"github.com/jakechorley/ninebox-weightage/pkg/core/services"
	"github.com/jakechorley/ninebox-weightage/pkg/db"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg        *config.Config
	Store      db.Database
	Weightages budget.WeightageSource
	OKRs       services.OKRTemplateSource
	// Blobs is nil when export is not configured
	Blobs  blob.Store
	Logger *zap.Logger
	Ctx    context.Context
	Now    func() time.Time
}

// Rules returns the configured constraint toggles
func (a *AppContext) Rules() budget.Rules {
	if a.Cfg == nil {
		return budget.Rules{}
	}
	return a.Cfg.Rules
}

func (a *AppContext) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Register adds every command to the root command
func Register(root *cobra.Command, app *AppContext) {
	root.AddCommand(CreateTemplateCmd(app))
	root.AddCommand(ListTemplatesCmd(app))
	root.AddCommand(ShowCmd(app))
	root.AddCommand(RenameCmd(app))
	root.AddCommand(SetActiveCmd(app))
	root.AddCommand(SetDepartmentCmd(app))
	root.AddCommand(RefreshBudgetCmd(app))
	root.AddCommand(SetSplitCmd(app))
	root.AddCommand(DeleteTemplateCmd(app))

	root.AddCommand(AddTeamCmd(app))
	root.AddCommand(UpdateTeamCmd(app))
	root.AddCommand(RemoveTeamCmd(app))

	root.AddCommand(AddLineCmd(app))
	root.AddCommand(UpdateLineCmd(app))
	root.AddCommand(RemoveLineCmd(app))

	root.AddCommand(ListOKRTemplatesCmd(app))
	root.AddCommand(SelectOKRCmd(app))
	root.AddCommand(SyncCmd(app))
	root.AddCommand(UnsyncCmd(app))
	root.AddCommand(PreviewSyncCmd(app))

	root.AddCommand(ExportCmd(app))
	root.AddCommand(InteractiveCmd(app))
}
