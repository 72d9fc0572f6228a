package budget

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
	"github.com/jakechorley/ninebox-weightage/pkg/sources/yamlsource"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeSource serves department weightages keyed by department and industry
type fakeSource struct {
	configs map[string]*model.DepartmentWeightage
	calls   []string
	err     error
}

func (f *fakeSource) FindDepartmentWeightage(ctx context.Context, departmentID, industryID string) (*model.DepartmentWeightage, error) {
	f.calls = append(f.calls, departmentID+"|"+industryID)
	if f.err != nil {
		return nil, f.err
	}
	return f.configs[departmentID+"|"+industryID], nil
}

func newTemplate() *model.Template {
	return &model.Template{
		ID:               "tpl-1",
		Name:             "FY Engineering",
		DepartmentID:     "eng",
		DeptWeightage:    d("40"),
		RoleWeightage:    d("30"),
		CommonWeightage:  d("30"),
		PerformanceSplit: d("40"),
	}
}

func ledgerRow(id, team string, axis model.Axis, dept, role string) model.LedgerRow {
	return model.LedgerRow{
		ID:                  id,
		TemplateID:          "tpl-1",
		TeamID:              team,
		Axis:                axis,
		Sequence:            model.DefaultSequence,
		DepartmentWeightage: d(dept),
		RoleWeightage:       d(role),
	}
}

func line(id, team string, axis model.Axis, cat model.Category, weight string) model.Line {
	return model.Line{
		ID:                   id,
		TemplateID:           "tpl-1",
		Axis:                 axis,
		Category:             cat,
		TeamID:               team,
		Sequence:             model.DefaultSequence,
		ObjectiveBreakdown:   "Ship the thing",
		Priority:             model.PriorityMedium,
		TargetValue:          d("100"),
		DistributedWeightage: d(weight),
	}
}

func TestRefreshBudget(t *testing.T) {
	source := &fakeSource{configs: map[string]*model.DepartmentWeightage{
		"eng|":        {DepartmentID: "eng", Active: true, Functional: d("50"), Role: d("25"), Common: d("25")},
		"eng|fintech": {DepartmentID: "eng", IndustryID: "fintech", Active: true, Functional: d("60"), Role: d("20"), Common: d("20")},
	}}

	t.Run("industry specific config wins", func(t *testing.T) {
		tpl := &model.Template{DepartmentID: "eng", IndustryID: "fintech"}
		require.NoError(t, RefreshBudget(context.Background(), source, tpl))

		assert.Equal(t, "60.00", tpl.DeptWeightage.StringFixed(2))
		assert.Equal(t, "20.00", tpl.RoleWeightage.StringFixed(2))
		assert.Equal(t, "20.00", tpl.CommonWeightage.StringFixed(2))
	})

	t.Run("industry miss falls back to department only", func(t *testing.T) {
		source.calls = nil
		tpl := &model.Template{DepartmentID: "eng", IndustryID: "retail"}
		require.NoError(t, RefreshBudget(context.Background(), source, tpl))

		assert.Equal(t, []string{"eng|retail", "eng|"}, source.calls)
		assert.Equal(t, "50.00", tpl.DeptWeightage.StringFixed(2))
	})

	t.Run("no config yields zero budget", func(t *testing.T) {
		tpl := &model.Template{DepartmentID: "sales", DeptWeightage: d("10"), RoleWeightage: d("10"), CommonWeightage: d("10")}
		require.NoError(t, RefreshBudget(context.Background(), source, tpl))

		assert.True(t, tpl.DeptWeightage.IsZero())
		assert.True(t, tpl.RoleWeightage.IsZero())
		assert.True(t, tpl.CommonWeightage.IsZero())
	})

	t.Run("no department yields zero budget without lookup", func(t *testing.T) {
		source.calls = nil
		tpl := &model.Template{DeptWeightage: d("10")}
		require.NoError(t, RefreshBudget(context.Background(), source, tpl))

		assert.Empty(t, source.calls)
		assert.True(t, tpl.DeptWeightage.IsZero())
	})

	t.Run("only budget fields change", func(t *testing.T) {
		tpl := &model.Template{DepartmentID: "eng", PerformanceSplit: d("5"), SelectedOKRTemplateID: "okr-1"}
		require.NoError(t, RefreshBudget(context.Background(), source, tpl))

		assert.Equal(t, "5.00", tpl.PerformanceSplit.StringFixed(2))
		assert.Equal(t, "okr-1", tpl.SelectedOKRTemplateID)
	})

	t.Run("source error is wrapped", func(t *testing.T) {
		failing := &fakeSource{err: errors.New("connection refused")}
		err := RefreshBudget(context.Background(), failing, &model.Template{DepartmentID: "eng"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to look up department weightage")
		assert.False(t, model.IsValidationError(err))
	})
}

func TestRefreshBudget_Catalog(t *testing.T) {
	src, err := yamlsource.Parse([]byte(`
departmentWeightages:
  - department: eng
    industry: retail
    functional: 60
    role: 30
    common: 10
`))
	require.NoError(t, err)

	tests := []struct {
		name     string
		industry string
	}{
		{"no industry matches any industry row", ""},
		{"industry miss falls back to the department", "banking"},
		{"exact industry", "retail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := &model.Template{DepartmentID: "eng", IndustryID: tt.industry}
			require.NoError(t, RefreshBudget(context.Background(), src, tpl))

			assert.Equal(t, "60.00", tpl.DeptWeightage.StringFixed(2))
			assert.Equal(t, "30.00", tpl.RoleWeightage.StringFixed(2))
			assert.Equal(t, "10.00", tpl.CommonWeightage.StringFixed(2))
		})
	}

	tpl := &model.Template{DepartmentID: "ops", DeptWeightage: d("5")}
	require.NoError(t, RefreshBudget(context.Background(), src, tpl))
	assert.True(t, tpl.DeptWeightage.IsZero())
}

func TestChangeDepartment_ResetsSplitsAndSelection(t *testing.T) {
	source := &fakeSource{configs: map[string]*model.DepartmentWeightage{
		"ops|": {DepartmentID: "ops", Active: true, Functional: d("70"), Role: d("15"), Common: d("15")},
	}}
	tpl := newTemplate()
	tpl.PotentialSplit = d("0")
	tpl.SelectedOKRTemplateID = "okr-1"
	tpl.SelectedOKRTemplateName = "Engineering OKR"

	require.NoError(t, ChangeDepartment(context.Background(), source, tpl, "ops", ""))

	assert.Equal(t, "ops", tpl.DepartmentID)
	assert.True(t, tpl.PerformanceSplit.IsZero())
	assert.True(t, tpl.PotentialSplit.IsZero())
	assert.Empty(t, tpl.SelectedOKRTemplateID)
	assert.Empty(t, tpl.SelectedOKRTemplateName)
	assert.Equal(t, "70.00", tpl.DeptWeightage.StringFixed(2))
}

func TestValidateSplit(t *testing.T) {
	tests := []struct {
		name        string
		dept        string
		performance string
		potential   string
		wantErr     string
	}{
		{name: "within budget", dept: "100", performance: "60", potential: "40"},
		{name: "partial use", dept: "100", performance: "10", potential: "0"},
		{
			name: "over budget", dept: "100", performance: "50", potential: "60",
			wantErr: "Total of Performance (50.00%) and Potential (60.00%) splits cannot exceed the available Department weightage (100.00%)",
		},
		{name: "negative split", dept: "100", performance: "-1", potential: "10", wantErr: "Split percentages cannot be negative"},
		{
			name: "zero budget rejects any split", dept: "0", performance: "0.01", potential: "0",
			wantErr: "Total of Performance (0.01%) and Potential (0.00%) splits cannot exceed the available Department weightage (0.00%)",
		},
		{name: "zero budget zero split", dept: "0", performance: "0", potential: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := &model.Template{DeptWeightage: d(tt.dept)}
			err := ApplySplit(tpl, d(tt.performance), d(tt.potential))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, model.IsValidationError(err))
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestRedistributeCommon(t *testing.T) {
	t.Run("remainder goes to first row", func(t *testing.T) {
		tpl := newTemplate()
		tpl.CommonWeightage = d("10")
		tpl.Ledger = []model.LedgerRow{
			ledgerRow("r1", "a", model.AxisPerformance, "0", "0"),
			ledgerRow("r2", "b", model.AxisPerformance, "0", "0"),
			ledgerRow("r3", "c", model.AxisPerformance, "0", "0"),
		}

		RedistributeCommon(tpl)

		assert.Equal(t, "3.34", tpl.Ledger[0].CommonWeightage.StringFixed(2))
		assert.Equal(t, "3.33", tpl.Ledger[1].CommonWeightage.StringFixed(2))
		assert.Equal(t, "3.33", tpl.Ledger[2].CommonWeightage.StringFixed(2))

		sum := tpl.Ledger[0].CommonWeightage.Add(tpl.Ledger[1].CommonWeightage).Add(tpl.Ledger[2].CommonWeightage)
		assert.True(t, sum.Equal(d("10")), "shares should sum to the budget, got %s", sum)
	})

	t.Run("axes are independent", func(t *testing.T) {
		tpl := newTemplate()
		tpl.CommonWeightage = d("30")
		tpl.Ledger = []model.LedgerRow{
			ledgerRow("r1", "a", model.AxisPerformance, "0", "0"),
			ledgerRow("r2", "a", model.AxisPotential, "0", "0"),
			ledgerRow("r3", "b", model.AxisPerformance, "0", "0"),
		}

		RedistributeCommon(tpl)

		assert.Equal(t, "15.00", tpl.Ledger[0].CommonWeightage.StringFixed(2))
		assert.Equal(t, "30.00", tpl.Ledger[1].CommonWeightage.StringFixed(2))
		assert.Equal(t, "15.00", tpl.Ledger[2].CommonWeightage.StringFixed(2))
	})

	t.Run("no rows is a no-op", func(t *testing.T) {
		tpl := newTemplate()
		assert.NotPanics(t, func() { RedistributeCommon(tpl) })
		assert.Empty(t, tpl.Ledger)
	})

	t.Run("recompute is idempotent", func(t *testing.T) {
		tpl := newTemplate()
		tpl.CommonWeightage = d("20")
		tpl.Ledger = []model.LedgerRow{
			ledgerRow("r1", "a", model.AxisPerformance, "10", "5"),
			ledgerRow("r2", "b", model.AxisPerformance, "10", "5"),
			ledgerRow("r3", "c", model.AxisPerformance, "10", "5"),
		}

		Recompute(tpl)
		first := tpl.Clone()
		Recompute(tpl)

		for i := range tpl.Ledger {
			assert.True(t, first.Ledger[i].CommonWeightage.Equal(tpl.Ledger[i].CommonWeightage))
		}
		assert.Equal(t, first.Available, tpl.Available)
		assert.Equal(t, first.Allocated, tpl.Allocated)
	})
}

func TestComputeAvailable(t *testing.T) {
	tpl := newTemplate()
	tpl.Ledger = []model.LedgerRow{
		ledgerRow("r1", "a", model.AxisPerformance, "15", "10"),
	}
	Recompute(tpl)

	assert.Equal(t, "25.00", tpl.Available.Get(model.AxisPerformance, model.CategoryDepartment).StringFixed(2))
	assert.Equal(t, "20.00", tpl.Available.Get(model.AxisPerformance, model.CategoryRole).StringFixed(2))
	// The single row absorbs the whole common budget so nothing is left for common lines
	assert.Equal(t, "0.00", tpl.Available.Get(model.AxisPerformance, model.CategoryCommon).StringFixed(2))

	// Potential has no split and no rows
	assert.Equal(t, "0.00", tpl.Available.Get(model.AxisPotential, model.CategoryDepartment).StringFixed(2))
	assert.Equal(t, "30.00", tpl.Available.Get(model.AxisPotential, model.CategoryRole).StringFixed(2))
	assert.Equal(t, "30.00", tpl.Available.Get(model.AxisPotential, model.CategoryCommon).StringFixed(2))

	assert.Equal(t, "15.00", tpl.Allocated.Get(model.AxisPerformance, model.CategoryDepartment).StringFixed(2))
	assert.Equal(t, "30.00", tpl.Allocated.Get(model.AxisPerformance, model.CategoryCommon).StringFixed(2))
}

func TestRecompute_SyncStatus(t *testing.T) {
	tpl := newTemplate()
	Recompute(tpl)
	assert.Equal(t, "Not synced", tpl.SyncStatus)

	tpl.IsSynced = true
	tpl.SelectedOKRTemplateID = "okr-1"
	tpl.SelectedOKRTemplateName = "Engineering OKR"
	Recompute(tpl)
	assert.Equal(t, "Synced with: Engineering OKR", tpl.SyncStatus)
}

func TestCheckCascadeLimits(t *testing.T) {
	t.Run("ledger over split", func(t *testing.T) {
		tpl := newTemplate()
		tpl.Ledger = []model.LedgerRow{
			ledgerRow("r1", "a", model.AxisPerformance, "30", "0"),
			ledgerRow("r2", "b", model.AxisPerformance, "15", "0"),
		}
		Recompute(tpl)

		err := CheckCascadeLimits(tpl)
		require.Error(t, err)
		assert.Equal(t, "Total Performance Department weightage allocated to teams (45.00%) cannot exceed the template budget (40.00%)", err.Error())
	})

	t.Run("lines over available", func(t *testing.T) {
		tpl := newTemplate()
		tpl.Ledger = []model.LedgerRow{ledgerRow("r1", "a", model.AxisPerformance, "20", "0")}
		tpl.Lines = []model.Line{
			line("l1", "a", model.AxisPerformance, model.CategoryDepartment, "15"),
			line("l2", "a", model.AxisPerformance, model.CategoryDepartment, "10"),
		}
		Recompute(tpl)

		err := CheckCascadeLimits(tpl)
		require.Error(t, err)
		assert.Equal(t, "Total Performance Department weightage (25.00%) cannot exceed available weightage (20.00%)", err.Error())
	})

	t.Run("exactly at limit passes", func(t *testing.T) {
		tpl := newTemplate()
		tpl.Ledger = []model.LedgerRow{ledgerRow("r1", "a", model.AxisPerformance, "20", "10")}
		tpl.Lines = []model.Line{
			line("l1", "a", model.AxisPerformance, model.CategoryDepartment, "20"),
			line("l2", "a", model.AxisPerformance, model.CategoryRole, "20"),
		}
		Recompute(tpl)

		assert.NoError(t, CheckCascadeLimits(tpl))
	})

	t.Run("common lines fail once rows exist", func(t *testing.T) {
		tpl := newTemplate()
		tpl.Ledger = []model.LedgerRow{ledgerRow("r1", "a", model.AxisPerformance, "0", "0")}
		tpl.Lines = []model.Line{line("l1", "a", model.AxisPerformance, model.CategoryCommon, "1")}
		Recompute(tpl)

		err := CheckCascadeLimits(tpl)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Total Performance Common weightage (1.00%)")
	})
}

func TestCheckLedgerRowLimits(t *testing.T) {
	tpl := newTemplate()
	tpl.Ledger = []model.LedgerRow{
		ledgerRow("r1", "a", model.AxisPerformance, "25", "10"),
		ledgerRow("r2", "b", model.AxisPerformance, "20", "10"),
		ledgerRow("r3", "b", model.AxisPotential, "0", "30"),
	}

	err := CheckLedgerRowLimits(tpl, "r2")
	require.Error(t, err)
	assert.Equal(t, "Total Department weightage for Performance teams (45.00%) cannot exceed the template Department budget (40.00%)", err.Error())

	tpl.Ledger[1].DepartmentWeightage = d("15")
	assert.NoError(t, CheckLedgerRowLimits(tpl, "r2"))
	assert.NoError(t, CheckLedgerRowLimits(tpl, "r3"))

	err = CheckLedgerRowLimits(tpl, "missing")
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))
}

func TestCheckLineDistribution(t *testing.T) {
	tpl := newTemplate()
	tpl.Ledger = []model.LedgerRow{ledgerRow("r1", "a", model.AxisPerformance, "20", "0")}
	tpl.Lines = []model.Line{line("l1", "a", model.AxisPerformance, model.CategoryDepartment, "15")}
	Recompute(tpl)

	t.Run("new line counted with siblings", func(t *testing.T) {
		err := CheckLineDistribution(tpl, line("l2", "a", model.AxisPerformance, model.CategoryDepartment, "10"))
		require.Error(t, err)
		assert.Equal(t, "Total Performance Department weightage (25.00%) cannot exceed available weightage (20.00%)", err.Error())
	})

	t.Run("update replaces stored value", func(t *testing.T) {
		assert.NoError(t, CheckLineDistribution(tpl, line("l1", "a", model.AxisPerformance, model.CategoryDepartment, "20")))
	})

	t.Run("other category is separate", func(t *testing.T) {
		assert.NoError(t, CheckLineDistribution(tpl, line("l3", "a", model.AxisPerformance, model.CategoryRole, "30")))
	})
}

func TestCheckTeamCapacity(t *testing.T) {
	tpl := newTemplate()
	tpl.Ledger = []model.LedgerRow{
		ledgerRow("r1", "a", model.AxisPerformance, "10", "5"),
		ledgerRow("r2", "b", model.AxisPerformance, "10", "5"),
	}
	tpl.Lines = []model.Line{line("l1", "a", model.AxisPerformance, model.CategoryDepartment, "6")}

	err := CheckTeamCapacity(tpl, line("l2", "a", model.AxisPerformance, model.CategoryDepartment, "5"))
	require.Error(t, err)
	assert.Equal(t, "Total Performance Department weightage for team a (11.00%) cannot exceed the team allocation (10.00%)", err.Error())

	assert.NoError(t, CheckTeamCapacity(tpl, line("l2", "b", model.AxisPerformance, model.CategoryDepartment, "10")))

	err = CheckTeamCapacity(tpl, line("l3", "c", model.AxisPerformance, model.CategoryDepartment, "1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Team c has no Performance weightage row")
}

func TestValidate(t *testing.T) {
	t.Run("valid template", func(t *testing.T) {
		tpl := newTemplate()
		tpl.Ledger = []model.LedgerRow{ledgerRow("r1", "a", model.AxisPerformance, "20", "10")}
		tpl.Lines = []model.Line{line("l1", "a", model.AxisPerformance, model.CategoryDepartment, "20")}
		Recompute(tpl)

		assert.NoError(t, Validate(tpl, Rules{EnforceTeamCapacity: true}))
	})

	t.Run("missing objective", func(t *testing.T) {
		tpl := newTemplate()
		l := line("l1", "a", model.AxisPerformance, model.CategoryRole, "1")
		l.ObjectiveBreakdown = ""
		tpl.Lines = []model.Line{l}
		Recompute(tpl)

		err := Validate(tpl, Rules{})
		require.Error(t, err)
		assert.Equal(t, "Objective breakdown is required", err.Error())
	})

	t.Run("duplicate team row on axis", func(t *testing.T) {
		tpl := newTemplate()
		tpl.Ledger = []model.LedgerRow{
			ledgerRow("r1", "a", model.AxisPerformance, "1", "1"),
			ledgerRow("r2", "a", model.AxisPerformance, "1", "1"),
		}
		Recompute(tpl)

		err := Validate(tpl, Rules{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already has a Performance weightage row")
	})

	t.Run("team capacity only when enabled", func(t *testing.T) {
		tpl := newTemplate()
		tpl.Ledger = []model.LedgerRow{ledgerRow("r1", "a", model.AxisPerformance, "10", "10")}
		tpl.Lines = []model.Line{line("l1", "b", model.AxisPerformance, model.CategoryDepartment, "5")}
		Recompute(tpl)

		assert.NoError(t, Validate(tpl, Rules{}))
		assert.Error(t, Validate(tpl, Rules{EnforceTeamCapacity: true}))
	})
}
