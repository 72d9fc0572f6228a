// Package yamlsource serves department weightages and OKR templates from a YAML catalog file.
package yamlsource

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
)

// DepartmentWeightage is a catalog row with the department-level budget
type DepartmentWeightage struct {
	Department string          `yaml:"department" validate:"required"`
	Industry   string          `yaml:"industry,omitempty"`
	Active     *bool           `yaml:"active,omitempty"`
	Functional decimal.Decimal `yaml:"functional"`
	Role       decimal.Decimal `yaml:"role"`
	Common     decimal.Decimal `yaml:"common"`
}

// TeamWeightage is a per-team allocation on an OKR template
type TeamWeightage struct {
	Team       string          `yaml:"team" validate:"required"`
	Department decimal.Decimal `yaml:"department"`
	Role       decimal.Decimal `yaml:"role"`
}

// KeyResult is a key-result row on an OKR template
type KeyResult struct {
	Objective string          `yaml:"objective" validate:"required"`
	Priority  string          `yaml:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Team      string          `yaml:"team" validate:"required"`
	Metric    string          `yaml:"metric,omitempty" validate:"omitempty,oneof=percentage count rating score"`
	Actual    decimal.Decimal `yaml:"actual"`
	Target    decimal.Decimal `yaml:"target"`
	Weightage decimal.Decimal `yaml:"weightage"`
}

// OKRTemplate is an OKR template definition in the catalog
type OKRTemplate struct {
	ID         string          `yaml:"id" validate:"required"`
	Name       string          `yaml:"name" validate:"required"`
	Department string          `yaml:"department" validate:"required"`
	Active     *bool           `yaml:"active,omitempty"`
	Functional decimal.Decimal `yaml:"functional"`
	Role       decimal.Decimal `yaml:"role"`
	Common     decimal.Decimal `yaml:"common"`

	Teams          []TeamWeightage `yaml:"teams,omitempty" validate:"dive"`
	DepartmentKeys []KeyResult     `yaml:"departmentKeyResults,omitempty" validate:"dive"`
	RoleKeys       []KeyResult     `yaml:"roleKeyResults,omitempty" validate:"dive"`
	CommonKeys     []KeyResult     `yaml:"commonKeyResults,omitempty" validate:"dive"`
}

// Catalog is the root of the YAML catalog file
type Catalog struct {
	DepartmentWeightages []DepartmentWeightage `yaml:"departmentWeightages" validate:"dive"`
	OKRTemplates         []OKRTemplate         `yaml:"okrTemplates,omitempty" validate:"dive"`
}

var validate = validator.New()

// Source implements budget.WeightageSource and services.OKRTemplateSource over a loaded catalog
type Source struct {
	weightages []model.DepartmentWeightage
	okrs       []model.OKRTemplate
}

// Load reads, validates and indexes a catalog file
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse validates and indexes catalog YAML
func Parse(data []byte) (*Source, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	return FromCatalog(cat)
}

// FromCatalog validates a catalog assembled in memory and indexes it
func FromCatalog(cat Catalog) (*Source, error) {
	if err := validate.Struct(&cat); err != nil {
		return nil, fmt.Errorf("catalog validation failed: %w", err)
	}

	seen := make(map[string]bool, len(cat.OKRTemplates))
	for _, o := range cat.OKRTemplates {
		if seen[o.ID] {
			return nil, fmt.Errorf("catalog validation failed: duplicate OKR template id %s", o.ID)
		}
		seen[o.ID] = true
	}

	return NewSource(cat), nil
}

// NewSource converts catalog rows into model types
func NewSource(cat Catalog) *Source {
	src := &Source{}
	for _, w := range cat.DepartmentWeightages {
		src.weightages = append(src.weightages, model.DepartmentWeightage{
			DepartmentID: w.Department,
			IndustryID:   w.Industry,
			Active:       activeOrDefault(w.Active),
			Functional:   w.Functional,
			Role:         w.Role,
			Common:       w.Common,
		})
	}

	for _, o := range cat.OKRTemplates {
		okr := model.OKRTemplate{
			ID:               o.ID,
			Name:             o.Name,
			DepartmentID:     o.Department,
			Active:           activeOrDefault(o.Active),
			BudgetFunctional: o.Functional,
			BudgetRole:       o.Role,
			BudgetCommon:     o.Common,
		}
		for _, tw := range o.Teams {
			okr.Weightages = append(okr.Weightages, model.OKRTeamWeightage{
				TeamID:              tw.Team,
				DepartmentWeightage: tw.Department,
				RoleWeightage:       tw.Role,
			})
		}
		okr.DepartmentKeyResults = keyResults(o.DepartmentKeys)
		okr.RoleKeyResults = keyResults(o.RoleKeys)
		okr.CommonKeyResults = keyResults(o.CommonKeys)
		src.okrs = append(src.okrs, okr)
	}

	return src
}

func activeOrDefault(b *bool) bool {
	return b == nil || *b
}

func keyResults(in []KeyResult) []model.OKRKeyResult {
	out := make([]model.OKRKeyResult, 0, len(in))
	for _, kr := range in {
		out = append(out, model.OKRKeyResult{
			ObjectiveItem:        kr.Objective,
			Priority:             model.Priority(kr.Priority),
			TeamID:               kr.Team,
			Metric:               model.Metric(kr.Metric),
			ActualValue:          kr.Actual,
			TargetValue:          kr.Target,
			DistributedWeightage: kr.Weightage,
		})
	}
	return out
}

// FindDepartmentWeightage returns the first active row for the department and industry.
// An empty industryID matches any industry of the department.
func (s *Source) FindDepartmentWeightage(ctx context.Context, departmentID, industryID string) (*model.DepartmentWeightage, error) {
	for i := range s.weightages {
		w := s.weightages[i]
		if !w.Active || w.DepartmentID != departmentID {
			continue
		}
		if industryID == "" || w.IndustryID == industryID {
			return &w, nil
		}
	}
	return nil, nil
}

// GetOKRTemplate returns the OKR template with the given id, or nil
func (s *Source) GetOKRTemplate(ctx context.Context, id string) (*model.OKRTemplate, error) {
	for i := range s.okrs {
		if s.okrs[i].ID == id {
			okr := s.okrs[i]
			return &okr, nil
		}
	}
	return nil, nil
}

// ListOKRTemplates returns every OKR template of a department
func (s *Source) ListOKRTemplates(ctx context.Context, departmentID string) ([]model.OKRTemplate, error) {
	var out []model.OKRTemplate
	for _, o := range s.okrs {
		if o.DepartmentID == departmentID {
			out = append(out, o)
		}
	}
	return out, nil
}
