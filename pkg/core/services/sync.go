package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/ninebox-weightage/pkg/core/budget"
	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
	"github.com/jakechorley/ninebox-weightage/pkg/db"
	"github.com/jakechorley/ninebox-weightage/pkg/metrics"
	"github.com/jakechorley/ninebox-weightage/pkg/report"
)

// Notices returned by UnsyncKeyResults
const (
	UnsyncClearedMessage = "Key result tables have been cleared successfully!"
	UnsyncEmptyMessage   = "Tables are already empty"
)

// OKRTemplateSource provides read-only access to external OKR templates
type OKRTemplateSource interface {
	GetOKRTemplate(ctx context.Context, id string) (*model.OKRTemplate, error)
	ListOKRTemplates(ctx context.Context, departmentID string) ([]model.OKRTemplate, error)
}

// SelectableOKRTemplates returns the OKR templates a template may sync from: active ones
// of the same department
func SelectableOKRTemplates(ctx context.Context, store db.TemplateStore, okrs OKRTemplateSource, templateID string) ([]model.OKRTemplate, error) {
	tpl, err := store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	if tpl.DepartmentID == "" {
		return nil, nil
	}

	all, err := okrs.ListOKRTemplates(ctx, tpl.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list OKR templates: %w", err)
	}

	var out []model.OKRTemplate
	for _, o := range all {
		if o.Active && o.DepartmentID == tpl.DepartmentID {
			out = append(out, o)
		}
	}
	return out, nil
}

// SelectOKRTemplate sets the OKR template to sync from
func SelectOKRTemplate(
	ctx context.Context,
	store db.TemplateStore,
	okrs OKRTemplateSource,
	rules budget.Rules,
	logger *zap.Logger,
	templateID, okrTemplateID string,
) (*model.Template, error) {
	return mutateTemplate(ctx, store, rules, logger, "select_okr_template", templateID, func(t *model.Template) error {
		if okrTemplateID == "" {
			t.SelectedOKRTemplateID = ""
			t.SelectedOKRTemplateName = ""
			return nil
		}

		okr, err := okrs.GetOKRTemplate(ctx, okrTemplateID)
		if err != nil {
			return fmt.Errorf("failed to get OKR template: %w", err)
		}
		if okr == nil || !okr.Active || okr.DepartmentID != t.DepartmentID {
			return model.NewValidationError("OKR template %s is not an active template of department %s", okrTemplateID, t.DepartmentID)
		}

		logger.Debug("Selected OKR template", zap.String("okr_template_id", okr.ID), zap.String("name", okr.Name))
		t.SelectedOKRTemplateID = okr.ID
		t.SelectedOKRTemplateName = okr.Name
		return nil
	})
}

// applySync replaces the template's ledger rows and lines with copies from the OKR template.
// Only the performance axis is seeded. Key results whose team has no weightage row on the
// OKR template are skipped. It returns the number of lines created.
func applySync(t *model.Template, okr *model.OKRTemplate, logger *zap.Logger) int {
	t.Ledger = nil
	t.Lines = nil

	t.PerformanceSplit = okr.BudgetFunctional
	t.RoleWeightage = okr.BudgetRole
	t.CommonWeightage = okr.BudgetCommon

	teams := make(map[string]string, len(okr.Weightages))
	for _, w := range okr.Weightages {
		row := model.LedgerRow{
			ID:                  uuid.New().String(),
			TemplateID:          t.ID,
			TeamID:              w.TeamID,
			Axis:                model.AxisPerformance,
			Sequence:            model.DefaultSequence,
			DepartmentWeightage: w.DepartmentWeightage,
			RoleWeightage:       w.RoleWeightage,
		}
		t.Ledger = append(t.Ledger, row)
		teams[w.TeamID] = row.ID
	}

	created := 0
	for _, cat := range model.Categories {
		for _, kr := range okr.KeyResults(cat) {
			if _, ok := teams[kr.TeamID]; !ok {
				logger.Debug("Skipping key result for team without weightage row",
					zap.String("team_id", kr.TeamID),
					zap.String("category", string(cat)),
					zap.String("objective", kr.ObjectiveItem))
				continue
			}

			priority := kr.Priority
			if priority == "" {
				priority = model.PriorityMedium
			}

			t.Lines = append(t.Lines, model.Line{
				ID:                   uuid.New().String(),
				TemplateID:           t.ID,
				Axis:                 model.AxisPerformance,
				Category:             cat,
				TeamID:               kr.TeamID,
				Sequence:             model.DefaultSequence,
				ObjectiveBreakdown:   kr.ObjectiveItem,
				Priority:             priority,
				Metric:               kr.Metric,
				ActualValue:          kr.ActualValue,
				TargetValue:          kr.TargetValue,
				DistributedWeightage: kr.DistributedWeightage,
			})
			created++
		}
	}

	t.IsSynced = true
	return created
}

// loadSelectedOKR fetches the template's selected OKR template, or returns nil when the
// template has no department or no selection
func loadSelectedOKR(ctx context.Context, okrs OKRTemplateSource, t *model.Template) (*model.OKRTemplate, error) {
	if t.DepartmentID == "" || t.SelectedOKRTemplateID == "" {
		return nil, nil
	}
	okr, err := okrs.GetOKRTemplate(ctx, t.SelectedOKRTemplateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get OKR template: %w", err)
	}
	if okr == nil {
		return nil, model.NewValidationError("OKR template %s no longer exists", t.SelectedOKRTemplateID)
	}
	return okr, nil
}

// SyncKeyResults overwrites the template's team weightages and key result lines with the
// selected OKR template. Nothing happens when no department or OKR template is selected.
// The whole import is rejected if the copied values break any budget limit.
func SyncKeyResults(
	ctx context.Context,
	store db.TemplateStore,
	okrs OKRTemplateSource,
	rules budget.Rules,
	logger *zap.Logger,
	templateID string,
) (*model.ClientAction, error) {
	created := 0
	skipped := false

	saved, err := mutateTemplate(ctx, store, rules, logger, "sync_key_results", templateID, func(t *model.Template) error {
		okr, err := loadSelectedOKR(ctx, okrs, t)
		if err != nil {
			return err
		}
		if okr == nil {
			skipped = true
			return errSkip
		}

		logger.Debug("Syncing key results",
			zap.String("okr_template_id", okr.ID),
			zap.Int("weightage_rows", len(okr.Weightages)),
			zap.Int("department_key_results", len(okr.DepartmentKeyResults)),
			zap.Int("role_key_results", len(okr.RoleKeyResults)),
			zap.Int("common_key_results", len(okr.CommonKeyResults)))

		created = applySync(t, okr, logger)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if skipped {
		logger.Info("Nothing to sync, template has no department or OKR template selected", zap.String("template_id", templateID))
		return nil, nil
	}

	metrics.AddSyncedLines(created)
	logger.Info("Key results synced",
		zap.String("template_id", saved.ID),
		zap.String("sync_status", saved.SyncStatus),
		zap.Int("ledger_rows", len(saved.Ledger)),
		zap.Int("lines", created))

	return &model.ClientAction{Tag: model.ActionReload}, nil
}

// UnsyncKeyResults deletes every key result line and clears the sync state. Team weightage
// rows and budgets are kept.
func UnsyncKeyResults(
	ctx context.Context,
	store db.TemplateStore,
	rules budget.Rules,
	logger *zap.Logger,
	templateID string,
) (*model.ClientAction, error) {
	message := UnsyncEmptyMessage

	_, err := mutateTemplate(ctx, store, rules, logger, "unsync_key_results", templateID, func(t *model.Template) error {
		if len(t.Lines) > 0 {
			logger.Debug("Clearing key result lines", zap.Int("count", len(t.Lines)))
			t.Lines = nil
			message = UnsyncClearedMessage
		}
		t.IsSynced = false
		t.SelectedOKRTemplateID = ""
		t.SelectedOKRTemplateName = ""
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Key results unsynced", zap.String("template_id", templateID), zap.String("message", message))

	return &model.ClientAction{
		Tag: model.ActionDisplayNotification,
		Notification: &model.Notification{
			Title:   "Success",
			Message: message,
			Type:    "success",
			Sticky:  false,
		},
		Next: &model.ClientAction{Tag: model.ActionReload},
	}, nil
}

// SyncPreview shows what a sync would change without saving it
type SyncPreview struct {
	Before *report.Summary
	After  *report.Summary
	Diff   string
	// Violation is the validation error the sync would hit, if any
	Violation string
}

// PreviewSync runs a sync on a copy of the template and diffs the result
func PreviewSync(
	ctx context.Context,
	store db.TemplateStore,
	okrs OKRTemplateSource,
	rules budget.Rules,
	logger *zap.Logger,
	templateID string,
) (*SyncPreview, error) {
	current, err := store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	budget.Recompute(current)

	okr, err := loadSelectedOKR(ctx, okrs, current)
	if err != nil {
		return nil, err
	}
	if okr == nil {
		return nil, model.NewValidationError("Select a department and an OKR template before syncing")
	}

	now := time.Now()
	synced := current.Clone()
	applySync(synced, okr, logger)
	budget.Recompute(synced)

	preview := &SyncPreview{
		Before: report.Build(current, now),
		After:  report.Build(synced, now),
	}
	if err := budget.Validate(synced, rules); err != nil {
		if !model.IsValidationError(err) {
			return nil, err
		}
		preview.Violation = err.Error()
	}

	preview.Diff, err = report.Diff(preview.Before, preview.After, "current", "synced")
	if err != nil {
		return nil, err
	}

	logger.Debug("Sync preview computed",
		zap.String("template_id", templateID),
		zap.Int("diff_bytes", len(preview.Diff)),
		zap.String("violation", preview.Violation))

	return preview, nil
}
