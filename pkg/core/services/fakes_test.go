package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/ninebox-weightage/pkg/core/budget"
	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
	"github.com/jakechorley/ninebox-weightage/pkg/db"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

// fakeWeightages serves department weightages keyed by "department|industry"
type fakeWeightages map[string]*model.DepartmentWeightage

func (f fakeWeightages) FindDepartmentWeightage(ctx context.Context, departmentID, industryID string) (*model.DepartmentWeightage, error) {
	return f[departmentID+"|"+industryID], nil
}

// fakeOKRs serves OKR templates by id
type fakeOKRs map[string]*model.OKRTemplate

func (f fakeOKRs) GetOKRTemplate(ctx context.Context, id string) (*model.OKRTemplate, error) {
	return f[id], nil
}

func (f fakeOKRs) ListOKRTemplates(ctx context.Context, departmentID string) ([]model.OKRTemplate, error) {
	var out []model.OKRTemplate
	for _, o := range f {
		if o.DepartmentID == departmentID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func defaultWeightages() fakeWeightages {
	return fakeWeightages{
		"eng|":   {DepartmentID: "eng", Active: true, Functional: dec("60"), Role: dec("30"), Common: dec("30")},
		"sales|": {DepartmentID: "sales", Active: true, Functional: dec("50"), Role: dec("25"), Common: dec("25")},
	}
}

// scenarioOKRs is an OKR template with budgets 40/30/30 and one team T (dept 20, role 15)
func scenarioOKRs() fakeOKRs {
	return fakeOKRs{
		"okr-1": {
			ID:               "okr-1",
			Name:             "Eng OKR",
			DepartmentID:     "eng",
			Active:           true,
			BudgetFunctional: dec("40"),
			BudgetRole:       dec("30"),
			BudgetCommon:     dec("30"),
			Weightages: []model.OKRTeamWeightage{
				{TeamID: "T", DepartmentWeightage: dec("20"), RoleWeightage: dec("15")},
			},
			DepartmentKeyResults: []model.OKRKeyResult{
				{
					ObjectiveItem:        "Improve uptime",
					Priority:             model.PriorityHigh,
					TeamID:               "T",
					Metric:               model.MetricPercentage,
					ActualValue:          dec("25"),
					TargetValue:          dec("50"),
					DistributedWeightage: dec("20"),
				},
				// Team U has no weightage row and must be skipped
				{ObjectiveItem: "Hire", TeamID: "U", TargetValue: dec("1"), DistributedWeightage: dec("5")},
			},
			RoleKeyResults: []model.OKRKeyResult{
				{ObjectiveItem: "Mentor", TeamID: "U", TargetValue: dec("2"), DistributedWeightage: dec("5")},
			},
		},
		"okr-inactive": {ID: "okr-inactive", Name: "Old", DepartmentID: "eng", Active: false},
		"okr-sales":    {ID: "okr-sales", Name: "Sales OKR", DepartmentID: "sales", Active: true},
	}
}

// setupTemplate stores an "eng" template with budget 60/30/30 and split 40/20
func setupTemplate(t *testing.T) (*db.MemoryDB, *model.Template) {
	t.Helper()
	ctx := context.Background()
	store := db.NewMemoryDB()

	tpl, err := CreateTemplate(ctx, store, defaultWeightages(), zap.NewNop(), CreateTemplateInput{
		Name:         "FY Engineering",
		DepartmentID: "eng",
		Active:       true,
	})
	require.NoError(t, err)

	tpl, err = ApplySplit(ctx, store, budget.Rules{}, zap.NewNop(), tpl.ID, dec("40"), dec("20"))
	require.NoError(t, err)
	return store, tpl
}

// mustGet loads a template from the store
func mustGet(t *testing.T, store db.TemplateStore, id string) *model.Template {
	t.Helper()
	tpl, err := store.GetTemplate(context.Background(), id)
	require.NoError(t, err)
	return tpl
}

// columnStore drops derived fields on read the way the SQL stores do
type columnStore struct {
	*db.MemoryDB
}

func stripDerived(t *model.Template) {
	t.SyncStatus = ""
	t.Allocated = model.AxisAmounts{}
	t.Available = model.AxisAmounts{}
	t.Distributed = model.AxisAmounts{}
}

func (s columnStore) GetTemplate(ctx context.Context, id string) (*model.Template, error) {
	t, err := s.MemoryDB.GetTemplate(ctx, id)
	if err == nil {
		stripDerived(t)
	}
	return t, err
}

func (s columnStore) ListTemplates(ctx context.Context) ([]*model.Template, error) {
	list, err := s.MemoryDB.ListTemplates(ctx)
	for _, t := range list {
		stripDerived(t)
	}
	return list, err
}
