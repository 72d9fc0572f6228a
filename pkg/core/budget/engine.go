// Package budget cascades a department's weightage budget down the 9-box grid
// (template → axis split → team ledger → key-result line) and validates that no
// level over-allocates the capacity handed down from the level above it.
//
// Every function here is a pure function of the template aggregate. Callers
// mutate a clone, run Recompute and Validate, and only persist on success.
package budget

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
)

// WeightageSource looks up the active department weightage configuration.
// It returns nil (and no error) when nothing matches.
type WeightageSource interface {
	FindDepartmentWeightage(ctx context.Context, departmentID, industryID string) (*model.DepartmentWeightage, error)
}

// RefreshBudget reloads the template's dept/role/common weightage from the source.
// An industry-specific miss falls back to the department-only configuration and a
// total miss yields a zero budget. Only the three budget fields are touched.
func RefreshBudget(ctx context.Context, source WeightageSource, t *model.Template) error {
	t.DeptWeightage = decimal.Zero
	t.RoleWeightage = decimal.Zero
	t.CommonWeightage = decimal.Zero

	if t.DepartmentID == "" || source == nil {
		return nil
	}

	cfg, err := source.FindDepartmentWeightage(ctx, t.DepartmentID, t.IndustryID)
	if err != nil {
		return fmt.Errorf("failed to look up department weightage: %w", err)
	}

	// Fallback: if no config found with industry, try without
	if cfg == nil && t.IndustryID != "" {
		cfg, err = source.FindDepartmentWeightage(ctx, t.DepartmentID, "")
		if err != nil {
			return fmt.Errorf("failed to look up department weightage: %w", err)
		}
	}

	if cfg == nil {
		return nil
	}

	t.DeptWeightage = cfg.Functional
	t.RoleWeightage = cfg.Role
	t.CommonWeightage = cfg.Common
	return nil
}

// ChangeDepartment points the template at a new department/industry. Both splits reset
// to zero and the selected OKR template is cleared so a stale cross-department sync
// target can never be used.
func ChangeDepartment(ctx context.Context, source WeightageSource, t *model.Template, departmentID, industryID string) error {
	t.DepartmentID = departmentID
	t.IndustryID = industryID
	t.PerformanceSplit = decimal.Zero
	t.PotentialSplit = decimal.Zero
	t.SelectedOKRTemplateID = ""
	t.SelectedOKRTemplateName = ""
	return RefreshBudget(ctx, source, t)
}

// ApplySplit sets the performance/potential split and validates it
func ApplySplit(t *model.Template, performance, potential decimal.Decimal) error {
	t.PerformanceSplit = performance
	t.PotentialSplit = potential
	return ValidateSplit(t)
}

// ValidateSplit enforces performance_split + potential_split <= dept_weightage with
// both splits non-negative
func ValidateSplit(t *model.Template) error {
	if t.PerformanceSplit.IsNegative() || t.PotentialSplit.IsNegative() {
		return model.NewValidationError("Split percentages cannot be negative")
	}

	total := t.PerformanceSplit.Add(t.PotentialSplit)
	if total.GreaterThan(t.DeptWeightage) {
		return model.NewValidationError(
			"Total of Performance (%s%%) and Potential (%s%%) splits cannot exceed the available Department weightage (%s%%)",
			pct(t.PerformanceSplit), pct(t.PotentialSplit), pct(t.DeptWeightage),
		)
	}
	return nil
}

// pct formats a percentage with two decimals
func pct(d decimal.Decimal) string {
	return d.StringFixed(2)
}
