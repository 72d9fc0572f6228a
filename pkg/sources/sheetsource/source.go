// Package sheetsource loads the weightage catalog from a Google spreadsheet.
//
// Tabs: department_weightage, okr_template, okr_team_weightage, okr_key_result.
// Missing tabs are created with their header and type rows on first connect.
package sheetsource

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
	"github.com/jakechorley/ninebox-weightage/pkg/sheetssql"
	"github.com/jakechorley/ninebox-weightage/pkg/sources/yamlsource"
)

// DepartmentWeightage is a row of the department_weightage tab
type DepartmentWeightage struct {
	Department string          `sheet:"department,text"`
	Industry   string          `sheet:"industry,text"`
	Active     bool            `sheet:"active,bool"`
	Functional decimal.Decimal `sheet:"functional,decimal"`
	Role       decimal.Decimal `sheet:"role,decimal"`
	Common     decimal.Decimal `sheet:"common,decimal"`
}

// OkrTemplate is a row of the okr_template tab
type OkrTemplate struct {
	ID         string          `sheet:"id,text"`
	Name       string          `sheet:"name,text"`
	Department string          `sheet:"department,text"`
	Active     bool            `sheet:"active,bool"`
	Functional decimal.Decimal `sheet:"functional,decimal"`
	Role       decimal.Decimal `sheet:"role,decimal"`
	Common     decimal.Decimal `sheet:"common,decimal"`
}

// OkrTeamWeightage is a row of the okr_team_weightage tab
type OkrTeamWeightage struct {
	OkrTemplateID string          `sheet:"okr_template_id,text"`
	Team          string          `sheet:"team,text"`
	Department    decimal.Decimal `sheet:"department,decimal"`
	Role          decimal.Decimal `sheet:"role,decimal"`
}

// OkrKeyResult is a row of the okr_key_result tab
type OkrKeyResult struct {
	OkrTemplateID string          `sheet:"okr_template_id,text"`
	Category      string          `sheet:"category,text"`
	Objective     string          `sheet:"objective,text"`
	Priority      string          `sheet:"priority,text"`
	Team          string          `sheet:"team,text"`
	Metric        string          `sheet:"metric,text"`
	Actual        decimal.Decimal `sheet:"actual,decimal"`
	Target        decimal.Decimal `sheet:"target,decimal"`
	Weightage     decimal.Decimal `sheet:"weightage,decimal"`
}

// Schema describes the catalog tabs
func Schema() (*sheetssql.Schema, error) {
	return sheetssql.Describe(
		DepartmentWeightage{},
		OkrTemplate{},
		OkrTeamWeightage{},
		OkrKeyResult{},
	)
}

// Load reads every catalog tab and returns a source over a snapshot of the spreadsheet
func Load(db *sheetssql.DB) (*yamlsource.Source, error) {
	weightages, err := sheetssql.Select[DepartmentWeightage](db, "department_weightage")
	if err != nil {
		return nil, err
	}
	templates, err := sheetssql.Select[OkrTemplate](db, "okr_template")
	if err != nil {
		return nil, err
	}
	teams, err := sheetssql.Select[OkrTeamWeightage](db, "okr_team_weightage")
	if err != nil {
		return nil, err
	}
	keyResults, err := sheetssql.Select[OkrKeyResult](db, "okr_key_result")
	if err != nil {
		return nil, err
	}

	cat, err := buildCatalog(weightages, templates, teams, keyResults)
	if err != nil {
		return nil, err
	}
	return yamlsource.FromCatalog(cat)
}

func buildCatalog(weightages []DepartmentWeightage, templates []OkrTemplate, teams []OkrTeamWeightage, keyResults []OkrKeyResult) (yamlsource.Catalog, error) {
	var cat yamlsource.Catalog

	for _, w := range weightages {
		active := w.Active
		cat.DepartmentWeightages = append(cat.DepartmentWeightages, yamlsource.DepartmentWeightage{
			Department: w.Department,
			Industry:   w.Industry,
			Active:     &active,
			Functional: w.Functional,
			Role:       w.Role,
			Common:     w.Common,
		})
	}

	index := make(map[string]int, len(templates))
	for _, o := range templates {
		active := o.Active
		index[o.ID] = len(cat.OKRTemplates)
		cat.OKRTemplates = append(cat.OKRTemplates, yamlsource.OKRTemplate{
			ID:         o.ID,
			Name:       o.Name,
			Department: o.Department,
			Active:     &active,
			Functional: o.Functional,
			Role:       o.Role,
			Common:     o.Common,
		})
	}

	for _, tw := range teams {
		i, ok := index[tw.OkrTemplateID]
		if !ok {
			return cat, fmt.Errorf("okr_team_weightage references unknown OKR template %s", tw.OkrTemplateID)
		}
		cat.OKRTemplates[i].Teams = append(cat.OKRTemplates[i].Teams, yamlsource.TeamWeightage{
			Team:       tw.Team,
			Department: tw.Department,
			Role:       tw.Role,
		})
	}

	for _, kr := range keyResults {
		i, ok := index[kr.OkrTemplateID]
		if !ok {
			return cat, fmt.Errorf("okr_key_result references unknown OKR template %s", kr.OkrTemplateID)
		}
		category, err := model.ParseCategory(kr.Category)
		if err != nil {
			return cat, fmt.Errorf("okr_key_result for %s: %w", kr.OkrTemplateID, err)
		}

		row := yamlsource.KeyResult{
			Objective: kr.Objective,
			Priority:  strings.ToLower(kr.Priority),
			Team:      kr.Team,
			Metric:    strings.ToLower(kr.Metric),
			Actual:    kr.Actual,
			Target:    kr.Target,
			Weightage: kr.Weightage,
		}

		tpl := &cat.OKRTemplates[i]
		switch category {
		case model.CategoryDepartment:
			tpl.DepartmentKeys = append(tpl.DepartmentKeys, row)
		case model.CategoryRole:
			tpl.RoleKeys = append(tpl.RoleKeys, row)
		case model.CategoryCommon:
			tpl.CommonKeys = append(tpl.CommonKeys, row)
		}
	}

	return cat, nil
}
