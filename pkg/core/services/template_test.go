package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/ninebox-weightage/pkg/core/budget"
	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
	"github.com/jakechorley/ninebox-weightage/pkg/db"
)

func TestCreateTemplate(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryDB()

	tpl, err := CreateTemplate(ctx, store, defaultWeightages(), zap.NewNop(), CreateTemplateInput{
		Name:         "  FY Engineering ",
		DepartmentID: "eng",
		Active:       true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tpl.ID)
	assert.Equal(t, "FY Engineering", tpl.Name)
	assert.Equal(t, "60.00", tpl.DeptWeightage.StringFixed(2))
	assert.Equal(t, "Not synced", tpl.SyncStatus)
	assert.False(t, tpl.CreatedAt.IsZero())

	stored := mustGet(t, store, tpl.ID)
	assert.Equal(t, tpl.Name, stored.Name)
}

func TestCreateTemplate_UniquePerDepartment(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryDB()
	in := CreateTemplateInput{Name: "FY", DepartmentID: "eng"}

	_, err := CreateTemplate(ctx, store, defaultWeightages(), zap.NewNop(), in)
	require.NoError(t, err)

	_, err = CreateTemplate(ctx, store, defaultWeightages(), zap.NewNop(), in)
	require.Error(t, err)
	assert.Equal(t, "Template name must be unique per department!", err.Error())

	// Same name in another department is allowed
	_, err = CreateTemplate(ctx, store, defaultWeightages(), zap.NewNop(), CreateTemplateInput{Name: "FY", DepartmentID: "sales"})
	assert.NoError(t, err)

	_, err = CreateTemplate(ctx, store, defaultWeightages(), zap.NewNop(), CreateTemplateInput{Name: " "})
	assert.True(t, model.IsValidationError(err))
}

func TestApplySplit(t *testing.T) {
	ctx := context.Background()
	store, tpl := setupTemplate(t)

	_, err := ApplySplit(ctx, store, budget.Rules{}, zap.NewNop(), tpl.ID, dec("50"), dec("20"))
	require.Error(t, err)
	assert.Equal(t, "Total of Performance (50.00%) and Potential (20.00%) splits cannot exceed the available Department weightage (60.00%)", err.Error())

	got := mustGet(t, store, tpl.ID)
	assert.Equal(t, "40.00", got.PerformanceSplit.StringFixed(2))
	assert.Equal(t, "20.00", got.PotentialSplit.StringFixed(2))

	got, err = ApplySplit(ctx, store, budget.Rules{}, zap.NewNop(), tpl.ID, dec("30"), dec("30"))
	require.NoError(t, err)
	assert.Equal(t, "30.00", got.Available.Get(model.AxisPotential, model.CategoryDepartment).StringFixed(2))
}

func TestApplySplit_CannotStrandTeamAllocation(t *testing.T) {
	ctx := context.Background()
	store, tpl := setupTemplate(t)

	_, err := AddLedgerRow(ctx, store, budget.Rules{}, zap.NewNop(), tpl.ID, model.AxisPerformance, LedgerRowChanges{
		TeamID:              ptr("a"),
		DepartmentWeightage: ptr(dec("35")),
	})
	require.NoError(t, err)

	_, err = ApplySplit(ctx, store, budget.Rules{}, zap.NewNop(), tpl.ID, dec("30"), dec("20"))
	require.Error(t, err)
	assert.Equal(t, "Total Performance Department weightage allocated to teams (35.00%) cannot exceed the template budget (30.00%)", err.Error())
}

func TestRefreshBudget_RejectsShrinkBelowSplit(t *testing.T) {
	ctx := context.Background()
	store, tpl := setupTemplate(t)

	shrunk := defaultWeightages()
	shrunk["eng|"] = &model.DepartmentWeightage{DepartmentID: "eng", Active: true, Functional: dec("50"), Role: dec("30"), Common: dec("30")}

	_, err := RefreshBudget(ctx, store, shrunk, budget.Rules{}, zap.NewNop(), tpl.ID)
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))
	assert.Equal(t, "60.00", mustGet(t, store, tpl.ID).DeptWeightage.StringFixed(2))

	grown := defaultWeightages()
	grown["eng|"] = &model.DepartmentWeightage{DepartmentID: "eng", Active: true, Functional: dec("80"), Role: dec("10"), Common: dec("10")}
	got, err := RefreshBudget(ctx, store, grown, budget.Rules{}, zap.NewNop(), tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "80.00", got.DeptWeightage.StringFixed(2))
	assert.Equal(t, "10.00", got.CommonWeightage.StringFixed(2))
}

func TestRenameAndActivate(t *testing.T) {
	ctx := context.Background()
	store, tpl := setupTemplate(t)

	other, err := CreateTemplate(ctx, store, defaultWeightages(), zap.NewNop(), CreateTemplateInput{Name: "Other", DepartmentID: "eng"})
	require.NoError(t, err)

	_, err = RenameTemplate(ctx, store, budget.Rules{}, zap.NewNop(), other.ID, "FY Engineering")
	require.Error(t, err)
	assert.Equal(t, "Template name must be unique per department!", err.Error())

	renamed, err := RenameTemplate(ctx, store, budget.Rules{}, zap.NewNop(), other.ID, "FY Engineering H2")
	require.NoError(t, err)
	assert.Equal(t, "FY Engineering H2", renamed.Name)

	_, err = SetTemplateActive(ctx, store, budget.Rules{}, zap.NewNop(), tpl.ID, false)
	require.NoError(t, err)

	active, err := ListTemplates(ctx, store, true)
	require.NoError(t, err)
	require.Len(t, active, 0)

	all, err := ListTemplates(ctx, store, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListTemplates_RecomputesDerivedFields(t *testing.T) {
	ctx := context.Background()
	mem, tpl := setupTemplate(t)
	store := columnStore{mem}

	_, err := AddLedgerRow(ctx, store, budget.Rules{}, zap.NewNop(), tpl.ID, model.AxisPerformance, LedgerRowChanges{
		TeamID:              ptr("platform"),
		DepartmentWeightage: ptr(dec("15")),
	})
	require.NoError(t, err)

	synced, err := mem.GetTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	synced.IsSynced = true
	synced.SelectedOKRTemplateID = "okr-1"
	synced.SelectedOKRTemplateName = "Eng OKR"
	require.NoError(t, mem.SaveTemplate(ctx, synced))

	for _, activeOnly := range []bool{false, true} {
		list, err := ListTemplates(ctx, store, activeOnly)
		require.NoError(t, err)
		require.Len(t, list, 1)

		got := list[0]
		assert.Equal(t, "Synced with: Eng OKR", got.SyncStatus)
		assert.Equal(t, "15.00", got.Allocated.Get(model.AxisPerformance, model.CategoryDepartment).StringFixed(2))
		assert.Equal(t, "25.00", got.Available.Get(model.AxisPerformance, model.CategoryDepartment).StringFixed(2))
		assert.Equal(t, "30.00", got.Ledger[0].CommonWeightage.StringFixed(2))
	}
}

func TestDeleteTemplate(t *testing.T) {
	ctx := context.Background()
	store, tpl := setupTemplate(t)

	require.NoError(t, DeleteTemplate(ctx, store, zap.NewNop(), tpl.ID))

	_, err := GetTemplate(ctx, store, tpl.ID)
	assert.True(t, errors.Is(err, db.ErrNotFound))
	assert.Error(t, DeleteTemplate(ctx, store, zap.NewNop(), tpl.ID))
}

type recordingBlobs struct {
	keys        []string
	data        map[string][]byte
	contentType string
}

func (r *recordingBlobs) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if r.data == nil {
		r.data = map[string][]byte{}
	}
	r.keys = append(r.keys, key)
	r.data[key] = data
	r.contentType = contentType
	return nil
}

func TestExportTemplate(t *testing.T) {
	ctx := context.Background()
	store, tpl := setupLedger(t)
	blobs := &recordingBlobs{}
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	key, err := ExportTemplate(ctx, store, blobs, zap.NewNop(), tpl.ID, now)
	require.NoError(t, err)
	assert.Equal(t, "templates/"+tpl.ID+"/20250301T093000Z.json", key)
	assert.Equal(t, "application/json", blobs.contentType)
	assert.Contains(t, string(blobs.data[key]), `"name": "FY Engineering"`)
	assert.Contains(t, string(blobs.data[key]), `"teamId": "a"`)
}
