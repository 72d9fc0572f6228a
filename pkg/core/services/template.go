package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jakechorley/ninebox-weightage/pkg/core/budget"
	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
	"github.com/jakechorley/ninebox-weightage/pkg/db"
	"github.com/jakechorley/ninebox-weightage/pkg/metrics"
)

// CreateTemplateInput describes a new template
type CreateTemplateInput struct {
	Name         string
	DepartmentID string
	IndustryID   string
	Active       bool
}

// CreateTemplate creates a template and fetches its budget from the department configuration
func CreateTemplate(
	ctx context.Context,
	store db.TemplateStore,
	source budget.WeightageSource,
	logger *zap.Logger,
	in CreateTemplateInput,
) (tpl *model.Template, err error) {
	start := time.Now()
	defer func() {
		metrics.Observe("create_template", err, time.Since(start))
	}()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, model.NewValidationError("Template name is required")
	}

	now := time.Now().UTC()
	tpl = &model.Template{
		ID:           uuid.New().String(),
		Name:         name,
		DepartmentID: in.DepartmentID,
		IndustryID:   in.IndustryID,
		Active:       in.Active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	logger.Debug("Creating template",
		zap.String("id", tpl.ID),
		zap.String("name", tpl.Name),
		zap.String("department_id", tpl.DepartmentID),
		zap.String("industry_id", tpl.IndustryID))

	if err = ensureUniqueName(ctx, store, tpl); err != nil {
		return nil, err
	}

	if err = budget.RefreshBudget(ctx, source, tpl); err != nil {
		return nil, err
	}

	budget.Recompute(tpl)
	if err = budget.Validate(tpl, budget.Rules{}); err != nil {
		return nil, err
	}

	if err = store.SaveTemplate(ctx, tpl); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}

	logger.Info("Template created",
		zap.String("id", tpl.ID),
		zap.String("name", tpl.Name),
		zap.String("dept_weightage", tpl.DeptWeightage.StringFixed(2)))

	return tpl, nil
}

// GetTemplate returns a template with freshly computed derived fields
func GetTemplate(ctx context.Context, store db.TemplateStore, templateID string) (*model.Template, error) {
	tpl, err := store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	budget.Recompute(tpl)
	return tpl, nil
}

// ListTemplates returns all templates, or only active ones, with derived fields recomputed
func ListTemplates(ctx context.Context, store db.TemplateStore, activeOnly bool) ([]*model.Template, error) {
	templates, err := store.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	out := make([]*model.Template, 0, len(templates))
	for _, t := range templates {
		if activeOnly && !t.Active {
			continue
		}
		budget.Recompute(t)
		out = append(out, t)
	}
	return out, nil
}

// RenameTemplate changes a template's name, keeping names unique per department
func RenameTemplate(ctx context.Context, store db.TemplateStore, rules budget.Rules, logger *zap.Logger, templateID, name string) (*model.Template, error) {
	return mutateTemplate(ctx, store, rules, logger, "rename_template", templateID, func(t *model.Template) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return model.NewValidationError("Template name is required")
		}
		t.Name = name
		return ensureUniqueName(ctx, store, t)
	})
}

// SetTemplateActive toggles the active flag
func SetTemplateActive(ctx context.Context, store db.TemplateStore, rules budget.Rules, logger *zap.Logger, templateID string, active bool) (*model.Template, error) {
	return mutateTemplate(ctx, store, rules, logger, "set_active", templateID, func(t *model.Template) error {
		t.Active = active
		return nil
	})
}

// ChangeDepartment moves a template to another department/industry. The splits and the
// selected OKR template are reset and the budget is fetched again. Existing ledger rows
// must still fit the new budget or the change is rejected.
func ChangeDepartment(
	ctx context.Context,
	store db.TemplateStore,
	source budget.WeightageSource,
	rules budget.Rules,
	logger *zap.Logger,
	templateID, departmentID, industryID string,
) (*model.Template, error) {
	return mutateTemplate(ctx, store, rules, logger, "change_department", templateID, func(t *model.Template) error {
		logger.Debug("Changing department",
			zap.String("from", t.DepartmentID),
			zap.String("to", departmentID),
			zap.String("industry_id", industryID))

		if err := budget.ChangeDepartment(ctx, source, t, departmentID, industryID); err != nil {
			return err
		}
		return ensureUniqueName(ctx, store, t)
	})
}

// RefreshBudget reloads the budget from the department configuration
func RefreshBudget(
	ctx context.Context,
	store db.TemplateStore,
	source budget.WeightageSource,
	rules budget.Rules,
	logger *zap.Logger,
	templateID string,
) (*model.Template, error) {
	return mutateTemplate(ctx, store, rules, logger, "refresh_budget", templateID, func(t *model.Template) error {
		if err := budget.RefreshBudget(ctx, source, t); err != nil {
			return err
		}
		logger.Debug("Budget refreshed",
			zap.String("dept_weightage", t.DeptWeightage.StringFixed(2)),
			zap.String("role_weightage", t.RoleWeightage.StringFixed(2)),
			zap.String("common_weightage", t.CommonWeightage.StringFixed(2)))
		return nil
	})
}

// ApplySplit assigns the department budget to the performance and potential axes
func ApplySplit(
	ctx context.Context,
	store db.TemplateStore,
	rules budget.Rules,
	logger *zap.Logger,
	templateID string,
	performance, potential decimal.Decimal,
) (*model.Template, error) {
	return mutateTemplate(ctx, store, rules, logger, "apply_split", templateID, func(t *model.Template) error {
		return budget.ApplySplit(t, performance, potential)
	})
}

// DeleteTemplate removes a template with all of its rows and lines
func DeleteTemplate(ctx context.Context, store db.TemplateStore, logger *zap.Logger, templateID string) (err error) {
	start := time.Now()
	defer func() {
		metrics.Observe("delete_template", err, time.Since(start))
	}()

	if err = store.DeleteTemplate(ctx, templateID); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	logger.Info("Template deleted", zap.String("id", templateID))
	return nil
}
