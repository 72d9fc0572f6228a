package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Sync status strings shown next to the template
const (
	SyncStatusNotSynced  = "Not synced"
	syncStatusSyncedWith = "Synced with: "
)

// CategoryAmounts holds one percentage per category
type CategoryAmounts struct {
	Department decimal.Decimal `json:"department"`
	Role       decimal.Decimal `json:"role"`
	Common     decimal.Decimal `json:"common"`
}

// Get returns the amount for a category
func (c CategoryAmounts) Get(cat Category) decimal.Decimal {
	switch cat {
	case CategoryDepartment:
		return c.Department
	case CategoryRole:
		return c.Role
	case CategoryCommon:
		return c.Common
	}
	return decimal.Zero
}

// Set stores the amount for a category
func (c *CategoryAmounts) Set(cat Category, v decimal.Decimal) {
	switch cat {
	case CategoryDepartment:
		c.Department = v
	case CategoryRole:
		c.Role = v
	case CategoryCommon:
		c.Common = v
	}
}

// AxisAmounts holds a CategoryAmounts table per axis
type AxisAmounts struct {
	Performance CategoryAmounts `json:"performance"`
	Potential   CategoryAmounts `json:"potential"`
}

// Get returns the amount for an axis and category
func (a AxisAmounts) Get(axis Axis, cat Category) decimal.Decimal {
	if axis == AxisPotential {
		return a.Potential.Get(cat)
	}
	return a.Performance.Get(cat)
}

// Set stores the amount for an axis and category
func (a *AxisAmounts) Set(axis Axis, cat Category, v decimal.Decimal) {
	if axis == AxisPotential {
		a.Potential.Set(cat, v)
		return
	}
	a.Performance.Set(cat, v)
}

// Template is the root aggregate for one department's 9-box grid configuration.
// Ledger rows and lines are owned by the template and deleted with it.
type Template struct {
	ID           string
	Name         string
	DepartmentID string
	IndustryID   string
	Active       bool

	// Budget fetched from the department weightage configuration
	DeptWeightage   decimal.Decimal
	RoleWeightage   decimal.Decimal
	CommonWeightage decimal.Decimal

	// Portions of DeptWeightage assigned to each axis
	PerformanceSplit decimal.Decimal
	PotentialSplit   decimal.Decimal

	IsSynced                bool
	SelectedOKRTemplateID   string
	SelectedOKRTemplateName string
	SyncStatus              string

	Ledger []LedgerRow
	Lines  []Line

	// Derived aggregates, refreshed by budget.Recompute
	Allocated   AxisAmounts
	Available   AxisAmounts
	Distributed AxisAmounts

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LedgerRow is a per-team, per-axis capacity allocation
type LedgerRow struct {
	ID                  string
	TemplateID          string
	TeamID              string
	Axis                Axis
	Sequence            int
	DepartmentWeightage decimal.Decimal
	RoleWeightage       decimal.Decimal
	// CommonWeightage is always derived from the template's common budget
	CommonWeightage decimal.Decimal
}

// Amount returns the row's allocation for a category
func (r LedgerRow) Amount(cat Category) decimal.Decimal {
	switch cat {
	case CategoryDepartment:
		return r.DepartmentWeightage
	case CategoryRole:
		return r.RoleWeightage
	case CategoryCommon:
		return r.CommonWeightage
	}
	return decimal.Zero
}

// Line is a leaf key-result allocation on either axis
type Line struct {
	ID                   string
	TemplateID           string
	Axis                 Axis
	Category             Category
	TeamID               string
	Sequence             int
	ObjectiveBreakdown   string
	Priority             Priority
	Metric               Metric
	ActualValue          decimal.Decimal
	TargetValue          decimal.Decimal
	DistributedWeightage decimal.Decimal
}

// DefaultSequence matches the sequence assigned to new rows and lines
const DefaultSequence = 10

// AxisBudget returns the template-level budget for an axis and category
func (t *Template) AxisBudget(axis Axis, cat Category) decimal.Decimal {
	switch cat {
	case CategoryDepartment:
		if axis == AxisPotential {
			return t.PotentialSplit
		}
		return t.PerformanceSplit
	case CategoryRole:
		return t.RoleWeightage
	case CategoryCommon:
		return t.CommonWeightage
	}
	return decimal.Zero
}

// LedgerFor returns indexes into t.Ledger for an axis, in stored order
func (t *Template) LedgerFor(axis Axis) []int {
	var idx []int
	for i := range t.Ledger {
		if t.Ledger[i].Axis == axis {
			idx = append(idx, i)
		}
	}
	return idx
}

// LinesFor returns the lines of an axis and category ordered by sequence then creation order
func (t *Template) LinesFor(axis Axis, cat Category) []Line {
	var lines []Line
	for _, l := range t.Lines {
		if l.Axis == axis && l.Category == cat {
			lines = append(lines, l)
		}
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Sequence < lines[j].Sequence
	})
	return lines
}

// SortBySequence orders ledger rows and lines by sequence, keeping creation order
// among equal sequences. Stores return aggregates in this order.
func (t *Template) SortBySequence() {
	sort.SliceStable(t.Ledger, func(i, j int) bool {
		return t.Ledger[i].Sequence < t.Ledger[j].Sequence
	})
	sort.SliceStable(t.Lines, func(i, j int) bool {
		return t.Lines[i].Sequence < t.Lines[j].Sequence
	})
}

// FindLedgerRow returns the row with the given id
func (t *Template) FindLedgerRow(id string) (*LedgerRow, bool) {
	for i := range t.Ledger {
		if t.Ledger[i].ID == id {
			return &t.Ledger[i], true
		}
	}
	return nil, false
}

// FindTeamRow returns the ledger row for (team, axis), the logical key of the ledger
func (t *Template) FindTeamRow(teamID string, axis Axis) (*LedgerRow, bool) {
	for i := range t.Ledger {
		if t.Ledger[i].TeamID == teamID && t.Ledger[i].Axis == axis {
			return &t.Ledger[i], true
		}
	}
	return nil, false
}

// FindLine returns the line with the given id
func (t *Template) FindLine(id string) (*Line, bool) {
	for i := range t.Lines {
		if t.Lines[i].ID == id {
			return &t.Lines[i], true
		}
	}
	return nil, false
}

// SyncStatusFor computes the display string for the sync state
func SyncStatusFor(isSynced bool, okrName string, okrID string) string {
	if isSynced && okrID != "" {
		return syncStatusSyncedWith + okrName
	}
	return SyncStatusNotSynced
}

// Clone returns a deep copy of the template so a mutation can be discarded
func (t *Template) Clone() *Template {
	c := *t
	c.Ledger = append([]LedgerRow(nil), t.Ledger...)
	c.Lines = append([]Line(nil), t.Lines...)
	return &c
}
