package budget

import (
	"github.com/shopspring/decimal"

	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
)

// Rules toggles the optional constraint checks
type Rules struct {
	// EnforceTeamCapacity caps each team's lines by that team's ledger allocation
	EnforceTeamCapacity bool `yaml:"enforceTeamCapacity"`
}

// CheckCascadeLimits walks every axis and category and verifies that ledger rows fit
// the template budget and lines fit what is still available. The first violation wins.
func CheckCascadeLimits(t *model.Template) error {
	allocated := ComputeAllocated(t)
	available := ComputeAvailable(t)
	distributed := ComputeDistributed(t)

	for _, axis := range model.Axes {
		for _, cat := range model.Categories {
			// Common shares are derived from the budget and checked separately
			if cat != model.CategoryCommon {
				budget := t.AxisBudget(axis, cat)
				if total := allocated.Get(axis, cat); total.GreaterThan(budget) {
					return model.NewValidationError(
						"Total %s %s weightage allocated to teams (%s%%) cannot exceed the template budget (%s%%)",
						axis.Label(), cat.Label(), pct(total), pct(budget),
					)
				}
			}

			avail := available.Get(axis, cat)
			if total := distributed.Get(axis, cat); total.GreaterThan(avail) {
				return model.NewValidationError(
					"Total %s %s weightage (%s%%) cannot exceed available weightage (%s%%)",
					axis.Label(), cat.Label(), pct(total), pct(avail),
				)
			}
		}
	}
	return nil
}

// CheckCommonDistribution verifies the derived common shares still add up to the budget
func CheckCommonDistribution(t *model.Template) error {
	for _, axis := range model.Axes {
		idx := t.LedgerFor(axis)
		if len(idx) == 0 {
			continue
		}
		total := decimal.Zero
		for _, i := range idx {
			total = total.Add(t.Ledger[i].CommonWeightage)
		}
		if total.Sub(t.CommonWeightage).Abs().GreaterThan(commonTolerance) {
			return model.NewValidationError(
				"%s common weightage shares (%s%%) do not add up to the common budget (%s%%)",
				axis.Label(), pct(total), pct(t.CommonWeightage),
			)
		}
	}
	return nil
}

// CheckLedgerRowLimits checks a single ledger row against its axis siblings. The row's
// own values plus every other row on the same axis must fit the template cap.
func CheckLedgerRowLimits(t *model.Template, rowID string) error {
	row, ok := t.FindLedgerRow(rowID)
	if !ok {
		return model.NewValidationError("Team weightage row %s does not exist", rowID)
	}

	for _, cat := range []model.Category{model.CategoryDepartment, model.CategoryRole} {
		total := row.Amount(cat)
		for _, other := range t.Ledger {
			if other.ID == row.ID || other.Axis != row.Axis {
				continue
			}
			total = total.Add(other.Amount(cat))
		}

		limit := t.AxisBudget(row.Axis, cat)
		if total.GreaterThan(limit) {
			return model.NewValidationError(
				"Total %s weightage for %s teams (%s%%) cannot exceed the template %s budget (%s%%)",
				cat.Label(), row.Axis.Label(), pct(total), cat.Label(), pct(limit),
			)
		}
	}
	return nil
}

// CheckLineDistribution checks a candidate line together with its siblings of the same
// axis and category against the available weightage. The candidate replaces any stored
// line with the same id.
func CheckLineDistribution(t *model.Template, line model.Line) error {
	total := line.DistributedWeightage
	for _, other := range t.Lines {
		if other.ID == line.ID || other.Axis != line.Axis || other.Category != line.Category {
			continue
		}
		total = total.Add(other.DistributedWeightage)
	}

	avail := ComputeAvailable(t).Get(line.Axis, line.Category)
	if total.GreaterThan(avail) {
		return model.NewValidationError(
			"Total %s %s weightage (%s%%) cannot exceed available weightage (%s%%)",
			line.Axis.Label(), line.Category.Label(), pct(total), pct(avail),
		)
	}
	return nil
}

// CheckTeamCapacity caps a team's lines of one category by that team's ledger row
func CheckTeamCapacity(t *model.Template, line model.Line) error {
	row, ok := t.FindTeamRow(line.TeamID, line.Axis)
	if !ok {
		return model.NewValidationError("Team %s has no %s weightage row", line.TeamID, line.Axis.Label())
	}

	total := line.DistributedWeightage
	for _, other := range t.Lines {
		if other.ID == line.ID || other.Axis != line.Axis || other.Category != line.Category || other.TeamID != line.TeamID {
			continue
		}
		total = total.Add(other.DistributedWeightage)
	}

	limit := row.Amount(line.Category)
	if total.GreaterThan(limit) {
		return model.NewValidationError(
			"Total %s %s weightage for team %s (%s%%) cannot exceed the team allocation (%s%%)",
			line.Axis.Label(), line.Category.Label(), line.TeamID, pct(total), pct(limit),
		)
	}
	return nil
}

// Validate runs the full post-mutation constraint pass
func Validate(t *model.Template, rules Rules) error {
	if err := ValidateSplit(t); err != nil {
		return err
	}
	if err := validateLedgerFields(t); err != nil {
		return err
	}
	if err := validateLineFields(t); err != nil {
		return err
	}
	if err := CheckCommonDistribution(t); err != nil {
		return err
	}
	if err := CheckCascadeLimits(t); err != nil {
		return err
	}

	if rules.EnforceTeamCapacity {
		for _, l := range t.Lines {
			if err := CheckTeamCapacity(t, l); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateLedgerFields(t *model.Template) error {
	seen := make(map[string]bool, len(t.Ledger))
	for _, row := range t.Ledger {
		if !row.Axis.Valid() {
			return model.NewValidationError("Invalid axis %q on team weightage row", row.Axis)
		}
		if row.TeamID == "" {
			return model.NewValidationError("Team is required on team weightage rows")
		}
		key := string(row.Axis) + "/" + row.TeamID
		if seen[key] {
			return model.NewValidationError("Team %s already has a %s weightage row", row.TeamID, row.Axis.Label())
		}
		seen[key] = true

		if row.DepartmentWeightage.IsNegative() || row.RoleWeightage.IsNegative() {
			return model.NewValidationError("Team weightages cannot be negative")
		}
	}
	return nil
}

func validateLineFields(t *model.Template) error {
	for _, l := range t.Lines {
		if !l.Axis.Valid() {
			return model.NewValidationError("Invalid axis %q on key result line", l.Axis)
		}
		if !l.Category.Valid() {
			return model.NewValidationError("Invalid category %q on key result line", l.Category)
		}
		if l.ObjectiveBreakdown == "" {
			return model.NewValidationError("Objective breakdown is required")
		}
		if l.TeamID == "" {
			return model.NewValidationError("Team is required on key result lines")
		}
		if !l.Priority.Valid() {
			return model.NewValidationError("Invalid priority %q", l.Priority)
		}
		if !l.Metric.Valid() {
			return model.NewValidationError("Invalid metric %q", l.Metric)
		}
		if l.DistributedWeightage.IsNegative() {
			return model.NewValidationError("Distributed weightage cannot be negative")
		}
	}
	return nil
}
