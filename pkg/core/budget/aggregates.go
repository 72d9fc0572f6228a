package budget

import (
	"github.com/shopspring/decimal"

	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
)

// commonTolerance is the largest drift allowed between the common budget and the sum of
// the rows' common shares
var commonTolerance = decimal.RequireFromString("0.01")

// ComputeAllocated sums ledger rows per axis and category
func ComputeAllocated(t *model.Template) model.AxisAmounts {
	var out model.AxisAmounts
	for _, row := range t.Ledger {
		for _, cat := range model.Categories {
			out.Set(row.Axis, cat, out.Get(row.Axis, cat).Add(row.Amount(cat)))
		}
	}
	return out
}

// ComputeAvailable returns the budget left after ledger allocation per axis and category.
// The department budget of an axis is its split; role and common use the template totals.
func ComputeAvailable(t *model.Template) model.AxisAmounts {
	allocated := ComputeAllocated(t)
	var out model.AxisAmounts
	for _, axis := range model.Axes {
		for _, cat := range model.Categories {
			out.Set(axis, cat, t.AxisBudget(axis, cat).Sub(allocated.Get(axis, cat)))
		}
	}
	return out
}

// ComputeDistributed sums line weightages per axis and category
func ComputeDistributed(t *model.Template) model.AxisAmounts {
	var out model.AxisAmounts
	for _, l := range t.Lines {
		out.Set(l.Axis, l.Category, out.Get(l.Axis, l.Category).Add(l.DistributedWeightage))
	}
	return out
}

// RedistributeCommon spreads the template's common budget evenly over each axis's ledger
// rows. Shares are rounded to two decimals and the remainder goes to the first row in
// stored order, so the shares always sum to the budget exactly. An axis with no rows is
// left alone.
func RedistributeCommon(t *model.Template) {
	budget := t.CommonWeightage
	for _, axis := range model.Axes {
		idx := t.LedgerFor(axis)
		if len(idx) == 0 {
			continue
		}

		share := budget.Div(decimal.NewFromInt(int64(len(idx)))).Round(2)
		total := decimal.Zero
		for _, i := range idx {
			t.Ledger[i].CommonWeightage = share
			total = total.Add(share)
		}

		if diff := budget.Sub(total); !diff.IsZero() {
			first := &t.Ledger[idx[0]]
			first.CommonWeightage = first.CommonWeightage.Add(diff)
		}
	}
}

// Recompute refreshes every derived field on the template. Running it twice yields the
// same result.
func Recompute(t *model.Template) {
	RedistributeCommon(t)
	t.Allocated = ComputeAllocated(t)
	t.Available = ComputeAvailable(t)
	t.Distributed = ComputeDistributed(t)
	t.SyncStatus = model.SyncStatusFor(t.IsSynced, t.SelectedOKRTemplateName, t.SelectedOKRTemplateID)
}
