package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/ninebox-weightage/pkg/core/budget"
	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
	"github.com/jakechorley/ninebox-weightage/pkg/db"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "ninebox.db")
	d, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d, path
}

func sampleTemplate(id, name string) *model.Template {
	now := time.Date(2025, 2, 3, 4, 5, 6, 7, time.UTC)
	return &model.Template{
		ID:                      id,
		Name:                    name,
		DepartmentID:            "eng",
		Active:                  true,
		DeptWeightage:           dec("60"),
		RoleWeightage:           dec("30"),
		CommonWeightage:         dec("10"),
		PerformanceSplit:        dec("33.33"),
		PotentialSplit:          dec("26.67"),
		IsSynced:                true,
		SelectedOKRTemplateID:   "okr-1",
		SelectedOKRTemplateName: "Eng OKR",
		CreatedAt:               now,
		UpdatedAt:               now,
		Ledger: []model.LedgerRow{
			{ID: id + "-r1", TeamID: "platform", Axis: model.AxisPerformance, Sequence: 10, DepartmentWeightage: dec("20.5"), RoleWeightage: dec("15"), CommonWeightage: dec("3.34")},
			{ID: id + "-r2", TeamID: "data", Axis: model.AxisPotential, Sequence: 5, DepartmentWeightage: dec("1"), CommonWeightage: dec("10")},
		},
		Lines: []model.Line{
			{ID: id + "-l1", Axis: model.AxisPerformance, Category: model.CategoryDepartment, TeamID: "platform", Sequence: 10,
				ObjectiveBreakdown: "Improve uptime", Priority: model.PriorityHigh, Metric: model.MetricPercentage,
				ActualValue: dec("25"), TargetValue: dec("50"), DistributedWeightage: dec("12.25")},
		},
	}
}

func TestSaveAndGetTemplate(t *testing.T) {
	d, _ := openTestDB(t)
	ctx := context.Background()

	tpl := sampleTemplate("tpl-1", "FY Engineering")
	require.NoError(t, d.SaveTemplate(ctx, tpl))

	got, err := d.GetTemplate(ctx, "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "FY Engineering", got.Name)
	assert.True(t, got.Active)
	assert.True(t, got.IsSynced)
	assert.Equal(t, "Eng OKR", got.SelectedOKRTemplateName)
	assert.True(t, got.DeptWeightage.Equal(dec("60")))
	assert.Equal(t, "33.33", got.PerformanceSplit.String())
	assert.True(t, got.CreatedAt.Equal(tpl.CreatedAt))

	require.Len(t, got.Ledger, 2)
	// Ordered by sequence
	assert.Equal(t, "data", got.Ledger[0].TeamID)
	assert.Equal(t, model.AxisPotential, got.Ledger[0].Axis)
	assert.Equal(t, "3.34", got.Ledger[1].CommonWeightage.String())
	assert.Equal(t, "tpl-1", got.Ledger[1].TemplateID)

	require.Len(t, got.Lines, 1)
	line := got.Lines[0]
	assert.Equal(t, model.CategoryDepartment, line.Category)
	assert.Equal(t, model.PriorityHigh, line.Priority)
	assert.Equal(t, model.MetricPercentage, line.Metric)
	assert.Equal(t, "12.25", line.DistributedWeightage.String())
}

func TestSaveTemplate_ReplacesChildren(t *testing.T) {
	d, _ := openTestDB(t)
	ctx := context.Background()

	tpl := sampleTemplate("tpl-1", "FY Engineering")
	require.NoError(t, d.SaveTemplate(ctx, tpl))

	tpl.Name = "FY Engineering H2"
	tpl.Ledger = tpl.Ledger[:1]
	tpl.Lines = nil
	require.NoError(t, d.SaveTemplate(ctx, tpl))

	got, err := d.GetTemplate(ctx, "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "FY Engineering H2", got.Name)
	assert.Len(t, got.Ledger, 1)
	assert.Empty(t, got.Lines)
}

func TestSaveTemplate_RollsBackOnFailure(t *testing.T) {
	d, _ := openTestDB(t)
	ctx := context.Background()

	tpl := sampleTemplate("tpl-1", "FY Engineering")
	require.NoError(t, d.SaveTemplate(ctx, tpl))

	// Duplicate line ids violate the primary key after the old children were cleared
	broken := sampleTemplate("tpl-1", "Renamed")
	broken.Lines = append(broken.Lines, broken.Lines[0])
	require.Error(t, d.SaveTemplate(ctx, broken))

	got, err := d.GetTemplate(ctx, "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "FY Engineering", got.Name)
	assert.Len(t, got.Lines, 1)
}

func TestSaveTemplate_UniqueNamePerDepartment(t *testing.T) {
	d, _ := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, d.SaveTemplate(ctx, sampleTemplate("tpl-1", "FY")))
	assert.Error(t, d.SaveTemplate(ctx, sampleTemplate("tpl-2", "FY")))
}

func TestListAndDelete(t *testing.T) {
	d, _ := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, d.SaveTemplate(ctx, sampleTemplate("tpl-b", "Beta")))
	require.NoError(t, d.SaveTemplate(ctx, sampleTemplate("tpl-a", "Alpha")))

	list, err := d.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0].Name)
	assert.Len(t, list[0].Ledger, 2)

	require.NoError(t, d.DeleteTemplate(ctx, "tpl-a"))
	_, err = d.GetTemplate(ctx, "tpl-a")
	assert.True(t, errors.Is(err, db.ErrNotFound))
	assert.True(t, errors.Is(d.DeleteTemplate(ctx, "tpl-a"), db.ErrNotFound))

	// Children are removed with the template
	var n int
	require.NoError(t, d.db.QueryRow(`SELECT COUNT(*) FROM ninebox_ledger_row WHERE template_id = 'tpl-a'`).Scan(&n))
	assert.Zero(t, n)
}

func TestOpen_Reopens(t *testing.T) {
	d, path := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, d.SaveTemplate(ctx, sampleTemplate("tpl-1", "FY")))
	d.Close()

	again, err := Open(ctx, path)
	require.NoError(t, err)
	defer again.Close()

	got, err := again.GetTemplate(ctx, "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "FY", got.Name)
}

func TestGetTemplate_KeepsCreationOrder(t *testing.T) {
	d, _ := openTestDB(t)
	ctx := context.Background()

	tpl := sampleTemplate("tpl-1", "FY")
	tpl.Ledger = nil
	tpl.Lines = nil
	// ids sort opposite to creation order
	for i, team := range []string{"first", "second", "third"} {
		tpl.Ledger = append(tpl.Ledger, model.LedgerRow{
			ID: []string{"zz", "mm", "aa"}[i], TeamID: team, Axis: model.AxisPerformance, Sequence: model.DefaultSequence,
		})
		tpl.Lines = append(tpl.Lines, model.Line{
			ID: []string{"l-zz", "l-mm", "l-aa"}[i], Axis: model.AxisPerformance, Category: model.CategoryDepartment,
			TeamID: team, Sequence: model.DefaultSequence, ObjectiveBreakdown: team, Priority: model.PriorityMedium,
		})
	}
	tpl.Lines[2].Sequence = 1
	require.NoError(t, d.SaveTemplate(ctx, tpl))

	for i := 0; i < 3; i++ {
		got, err := d.GetTemplate(ctx, "tpl-1")
		require.NoError(t, err)
		require.Len(t, got.Ledger, 3)
		assert.Equal(t, "first", got.Ledger[0].TeamID)
		assert.Equal(t, "second", got.Ledger[1].TeamID)
		assert.Equal(t, "third", got.Ledger[2].TeamID)

		budget.Recompute(got)
		assert.Equal(t, "3.34", got.Ledger[0].CommonWeightage.StringFixed(2))
		assert.Equal(t, "3.33", got.Ledger[2].CommonWeightage.StringFixed(2))

		require.Len(t, got.Lines, 3)
		assert.Equal(t, []string{"third", "first", "second"},
			[]string{got.Lines[0].TeamID, got.Lines[1].TeamID, got.Lines[2].TeamID})

		require.NoError(t, d.SaveTemplate(ctx, got))
	}
}

func TestOpen_AddsPositionToOlderFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	conn, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = conn.Exec(`
		CREATE TABLE ninebox_ledger_row (id TEXT PRIMARY KEY, template_id TEXT NOT NULL, team_id TEXT NOT NULL,
			axis TEXT NOT NULL, sequence INTEGER NOT NULL DEFAULT 10, department_weightage TEXT NOT NULL DEFAULT '0',
			role_weightage TEXT NOT NULL DEFAULT '0', common_weightage TEXT NOT NULL DEFAULT '0');
		CREATE TABLE ninebox_line (id TEXT PRIMARY KEY, template_id TEXT NOT NULL, axis TEXT NOT NULL, category TEXT NOT NULL,
			team_id TEXT NOT NULL, sequence INTEGER NOT NULL DEFAULT 10, objective_breakdown TEXT NOT NULL,
			priority TEXT NOT NULL DEFAULT 'medium', metric TEXT NOT NULL DEFAULT '', actual_value TEXT NOT NULL DEFAULT '0',
			target_value TEXT NOT NULL DEFAULT '0', distributed_weightage TEXT NOT NULL DEFAULT '0');`)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	d, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.SaveTemplate(context.Background(), sampleTemplate("tpl-1", "FY")))
	got, err := d.GetTemplate(context.Background(), "tpl-1")
	require.NoError(t, err)
	assert.Len(t, got.Ledger, 2)
}
