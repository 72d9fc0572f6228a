package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/ninebox-weightage/pkg/core/budget"
	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
	"github.com/jakechorley/ninebox-weightage/pkg/db"
	"github.com/jakechorley/ninebox-weightage/pkg/metrics"
)

// errSkip aborts a mutation without saving and without reporting a failure
var errSkip = errors.New("nothing to change")

// mutateTemplate loads a template, applies mutate to a copy, recomputes derived fields and
// validates every invariant. The copy is saved only when all of that succeeds, so any
// failure leaves the stored template exactly as it was.
func mutateTemplate(
	ctx context.Context,
	store db.TemplateStore,
	rules budget.Rules,
	logger *zap.Logger,
	operation string,
	templateID string,
	mutate func(t *model.Template) error,
) (saved *model.Template, err error) {
	start := time.Now()
	defer func() {
		metrics.Observe(operation, err, time.Since(start))
	}()

	logger.Debug("Loading template", zap.String("operation", operation), zap.String("template_id", templateID))
	current, err := store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	working := current.Clone()
	if err = mutate(working); err != nil {
		if errors.Is(err, errSkip) {
			logger.Debug("Mutation skipped", zap.String("operation", operation), zap.String("template_id", templateID))
			return current, nil
		}
		return nil, err
	}

	// the remainder of the common share lands on the first row in stored order
	working.SortBySequence()
	budget.Recompute(working)
	if err = budget.Validate(working, rules); err != nil {
		logger.Debug("Mutation rejected",
			zap.String("operation", operation),
			zap.String("template_id", templateID),
			zap.Error(err))
		return nil, err
	}

	working.UpdatedAt = time.Now().UTC()
	if err = store.SaveTemplate(ctx, working); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}

	logger.Debug("Template saved",
		zap.String("operation", operation),
		zap.String("template_id", templateID),
		zap.Int("ledger_rows", len(working.Ledger)),
		zap.Int("lines", len(working.Lines)))

	return working, nil
}

// ensureUniqueName rejects a (name, department) pair already used by another template
func ensureUniqueName(ctx context.Context, store db.TemplateStore, t *model.Template) error {
	templates, err := store.ListTemplates(ctx)
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}
	for _, other := range templates {
		if other.ID != t.ID && other.Name == t.Name && other.DepartmentID == t.DepartmentID {
			return model.NewValidationError("Template name must be unique per department!")
		}
	}
	return nil
}
