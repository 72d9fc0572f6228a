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

// LineChanges carries the fields a caller wants to set on a key result line.
// Nil fields are left unchanged.
type LineChanges struct {
	TeamID               *string
	Sequence             *int
	ObjectiveBreakdown   *string
	Priority             *model.Priority
	Metric               *model.Metric
	ActualValue          *decimal.Decimal
	TargetValue          *decimal.Decimal
	DistributedWeightage *decimal.Decimal
}

func (c LineChanges) applyTo(l *model.Line) {
	if c.TeamID != nil {
		l.TeamID = *c.TeamID
	}
	if c.Sequence != nil {
		l.Sequence = *c.Sequence
	}
	if c.ObjectiveBreakdown != nil {
		l.ObjectiveBreakdown = *c.ObjectiveBreakdown
	}
	if c.Priority != nil {
		l.Priority = *c.Priority
	}
	if c.Metric != nil {
		l.Metric = *c.Metric
	}
	if c.ActualValue != nil {
		l.ActualValue = *c.ActualValue
	}
	if c.TargetValue != nil {
		l.TargetValue = *c.TargetValue
	}
	if c.DistributedWeightage != nil {
		l.DistributedWeightage = *c.DistributedWeightage
	}
}

// checkLineCapacity runs the capacity checks that apply to a single candidate line
func checkLineCapacity(t *model.Template, rules budget.Rules, line model.Line) error {
	if err := budget.CheckLineDistribution(t, line); err != nil {
		return err
	}
	if rules.EnforceTeamCapacity {
		return budget.CheckTeamCapacity(t, line)
	}
	return nil
}

// AddLine creates a key result line on an axis and category
func AddLine(
	ctx context.Context,
	store db.TemplateStore,
	rules budget.Rules,
	logger *zap.Logger,
	templateID string,
	axis model.Axis,
	category model.Category,
	changes LineChanges,
) (*model.Line, error) {
	lineID := uuid.New().String()

	saved, err := mutateTemplate(ctx, store, rules, logger, "add_line", templateID, func(t *model.Template) error {
		switch {
		case !axis.Valid():
			return model.NewValidationError("Invalid axis %q on key result line", axis)
		case !category.Valid():
			return model.NewValidationError("Invalid category %q on key result line", category)
		case changes.ObjectiveBreakdown == nil:
			return model.NewValidationError("Objective breakdown is required")
		case changes.TargetValue == nil:
			return model.NewValidationError("Target value is required")
		case changes.DistributedWeightage == nil:
			return model.NewValidationError("Distributed weightage is required")
		}

		line := model.Line{
			ID:         lineID,
			TemplateID: t.ID,
			Axis:       axis,
			Category:   category,
			Sequence:   model.DefaultSequence,
			Priority:   model.PriorityMedium,
		}
		changes.applyTo(&line)

		logger.Debug("Adding key result line",
			zap.String("line_id", line.ID),
			zap.String("axis", string(axis)),
			zap.String("category", string(category)),
			zap.String("team_id", line.TeamID),
			zap.String("distributed_weightage", line.DistributedWeightage.StringFixed(2)))

		if err := checkLineCapacity(t, rules, line); err != nil {
			return err
		}
		t.Lines = append(t.Lines, line)
		return nil
	})
	if err != nil {
		return nil, err
	}

	line, _ := saved.FindLine(lineID)
	return line, nil
}

// UpdateLine changes a key result line. Axis and category are fixed once created.
func UpdateLine(
	ctx context.Context,
	store db.TemplateStore,
	rules budget.Rules,
	logger *zap.Logger,
	templateID, lineID string,
	changes LineChanges,
) (*model.Line, error) {
	saved, err := mutateTemplate(ctx, store, rules, logger, "update_line", templateID, func(t *model.Template) error {
		existing, ok := t.FindLine(lineID)
		if !ok {
			return fmt.Errorf("failed to find key result line %s: %w", lineID, db.ErrNotFound)
		}

		candidate := *existing
		changes.applyTo(&candidate)
		if err := checkLineCapacity(t, rules, candidate); err != nil {
			return err
		}

		logger.Debug("Updating key result line",
			zap.String("line_id", lineID),
			zap.String("distributed_weightage", candidate.DistributedWeightage.StringFixed(2)))

		*existing = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	line, _ := saved.FindLine(lineID)
	return line, nil
}

// RemoveLine deletes a key result line
func RemoveLine(
	ctx context.Context,
	store db.TemplateStore,
	rules budget.Rules,
	logger *zap.Logger,
	templateID, lineID string,
) (*model.Template, error) {
	return mutateTemplate(ctx, store, rules, logger, "remove_line", templateID, func(t *model.Template) error {
		for i := range t.Lines {
			if t.Lines[i].ID == lineID {
				t.Lines = append(t.Lines[:i], t.Lines[i+1:]...)
				logger.Debug("Removed key result line", zap.String("line_id", lineID))
				return nil
			}
		}
		return fmt.Errorf("failed to find key result line %s: %w", lineID, db.ErrNotFound)
	})
}
