package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jakechorley/ninebox-weightage/pkg/core/budget"
	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
	"github.com/jakechorley/ninebox-weightage/pkg/db"
)

// LedgerRowChanges carries the fields a caller wants to set on a team weightage row.
// Nil fields are left unchanged.
type LedgerRowChanges struct {
	TeamID              *string
	Sequence            *int
	DepartmentWeightage *decimal.Decimal
	RoleWeightage       *decimal.Decimal
	// CommonWeightage is accepted but ignored; the share is always derived
	CommonWeightage *decimal.Decimal
}

func (c LedgerRowChanges) touchesLockedFields() bool {
	return c.DepartmentWeightage != nil || c.RoleWeightage != nil
}

func (c LedgerRowChanges) applyTo(row *model.LedgerRow) {
	if c.TeamID != nil {
		row.TeamID = *c.TeamID
	}
	if c.Sequence != nil {
		row.Sequence = *c.Sequence
	}
	if c.DepartmentWeightage != nil {
		row.DepartmentWeightage = *c.DepartmentWeightage
	}
	if c.RoleWeightage != nil {
		row.RoleWeightage = *c.RoleWeightage
	}
}

func checkSyncLock(t *model.Template, changes LedgerRowChanges) error {
	if t.IsSynced && changes.touchesLockedFields() {
		return model.NewValidationError("Cannot modify weightages while template is synced with OKR template")
	}
	return nil
}

func logIgnoredCommon(logger *zap.Logger, changes LedgerRowChanges) {
	if changes.CommonWeightage != nil {
		logger.Debug("Ignoring common weightage write, value is derived from the template budget",
			zap.String("requested", changes.CommonWeightage.StringFixed(2)))
	}
}

// AddLedgerRow allocates part of the template budget to a team on one axis
func AddLedgerRow(
	ctx context.Context,
	store db.TemplateStore,
	rules budget.Rules,
	logger *zap.Logger,
	templateID string,
	axis model.Axis,
	changes LedgerRowChanges,
) (*model.LedgerRow, error) {
	rowID := uuid.New().String()

	saved, err := mutateTemplate(ctx, store, rules, logger, "add_ledger_row", templateID, func(t *model.Template) error {
		if err := checkSyncLock(t, changes); err != nil {
			return err
		}
		if !axis.Valid() {
			return model.NewValidationError("Invalid axis %q on team weightage row", axis)
		}
		logIgnoredCommon(logger, changes)

		row := model.LedgerRow{
			ID:         rowID,
			TemplateID: t.ID,
			Axis:       axis,
			Sequence:   model.DefaultSequence,
		}
		changes.applyTo(&row)
		if row.TeamID == "" {
			return model.NewValidationError("Team is required on team weightage rows")
		}
		if _, exists := t.FindTeamRow(row.TeamID, axis); exists {
			return model.NewValidationError("Team %s already has a %s weightage row", row.TeamID, axis.Label())
		}

		t.Ledger = append(t.Ledger, row)

		logger.Debug("Adding team weightage row",
			zap.String("row_id", row.ID),
			zap.String("team_id", row.TeamID),
			zap.String("axis", string(axis)),
			zap.String("department_weightage", row.DepartmentWeightage.StringFixed(2)),
			zap.String("role_weightage", row.RoleWeightage.StringFixed(2)))

		return budget.CheckLedgerRowLimits(t, row.ID)
	})
	if err != nil {
		return nil, err
	}

	row, _ := saved.FindLedgerRow(rowID)
	return row, nil
}

// UpdateLedgerRow changes a team weightage row. While the template is synced the department
// and role values are locked.
func UpdateLedgerRow(
	ctx context.Context,
	store db.TemplateStore,
	rules budget.Rules,
	logger *zap.Logger,
	templateID, rowID string,
	changes LedgerRowChanges,
) (*model.LedgerRow, error) {
	saved, err := mutateTemplate(ctx, store, rules, logger, "update_ledger_row", templateID, func(t *model.Template) error {
		row, ok := t.FindLedgerRow(rowID)
		if !ok {
			return fmt.Errorf("failed to find team weightage row %s: %w", rowID, db.ErrNotFound)
		}
		if err := checkSyncLock(t, changes); err != nil {
			return err
		}
		logIgnoredCommon(logger, changes)

		if changes.TeamID != nil && *changes.TeamID != row.TeamID {
			if _, exists := t.FindTeamRow(*changes.TeamID, row.Axis); exists {
				return model.NewValidationError("Team %s already has a %s weightage row", *changes.TeamID, row.Axis.Label())
			}
		}

		changes.applyTo(row)
		return budget.CheckLedgerRowLimits(t, row.ID)
	})
	if err != nil {
		return nil, err
	}

	row, _ := saved.FindLedgerRow(rowID)
	return row, nil
}

// RemoveLedgerRow deletes a team weightage row. The common budget is shared again among
// the remaining rows of the axis.
func RemoveLedgerRow(
	ctx context.Context,
	store db.TemplateStore,
	rules budget.Rules,
	logger *zap.Logger,
	templateID, rowID string,
) (*model.Template, error) {
	return mutateTemplate(ctx, store, rules, logger, "remove_ledger_row", templateID, func(t *model.Template) error {
		for i := range t.Ledger {
			if t.Ledger[i].ID == rowID {
				logger.Debug("Removing team weightage row",
					zap.String("row_id", rowID),
					zap.String("team_id", t.Ledger[i].TeamID))
				t.Ledger = append(t.Ledger[:i], t.Ledger[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("failed to find team weightage row %s: %w", rowID, db.ErrNotFound)
	})
}
