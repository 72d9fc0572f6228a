package model

import "github.com/shopspring/decimal"

// DepartmentWeightage is a department-level configuration row supplied by the
// weightage source
type DepartmentWeightage struct {
	DepartmentID string
	IndustryID   string
	Active       bool
	Functional   decimal.Decimal
	Role         decimal.Decimal
	Common       decimal.Decimal
}

// OKRTemplate is the read-only view of an external OKR template used by sync
type OKRTemplate struct {
	ID           string
	Name         string
	DepartmentID string
	Active       bool

	BudgetFunctional decimal.Decimal
	BudgetRole       decimal.Decimal
	BudgetCommon     decimal.Decimal

	Weightages           []OKRTeamWeightage
	DepartmentKeyResults []OKRKeyResult
	RoleKeyResults       []OKRKeyResult
	CommonKeyResults     []OKRKeyResult
}

// OKRTeamWeightage is a per-team allocation row on an OKR template
type OKRTeamWeightage struct {
	TeamID              string
	DepartmentWeightage decimal.Decimal
	RoleWeightage       decimal.Decimal
}

// OKRKeyResult is a key-result row on an OKR template
type OKRKeyResult struct {
	ObjectiveItem        string
	Priority             Priority
	TeamID               string
	Metric               Metric
	ActualValue          decimal.Decimal
	TargetValue          decimal.Decimal
	DistributedWeightage decimal.Decimal
}

// KeyResults returns the key-result collection for a category
func (o *OKRTemplate) KeyResults(cat Category) []OKRKeyResult {
	switch cat {
	case CategoryDepartment:
		return o.DepartmentKeyResults
	case CategoryRole:
		return o.RoleKeyResults
	case CategoryCommon:
		return o.CommonKeyResults
	}
	return nil
}

// Client action tags returned by user-facing actions
const (
	ActionReload              = "reload"
	ActionDisplayNotification = "display_notification"
)

// Notification is a user-facing notice
type Notification struct {
	Title   string
	Message string
	Type    string
	Sticky  bool
}

// ClientAction tells the presenting layer what to do after an action
type ClientAction struct {
	Tag          string
	Notification *Notification
	Next         *ClientAction
}
