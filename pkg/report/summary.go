// Package report renders a template's allocation as a summary that can be printed,
// archived as JSON or diffed against another version.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
)

// Summary is a flattened view of a template and its derived totals
type Summary struct {
	TemplateID   string `json:"templateId"`
	Name         string `json:"name"`
	DepartmentID string `json:"departmentId"`
	IndustryID   string `json:"industryId,omitempty"`
	Active       bool   `json:"active"`
	SyncStatus   string `json:"syncStatus"`

	Budget BudgetSummary   `json:"budget"`
	Axes   []AxisSummary   `json:"axes"`
	Ledger []LedgerSummary `json:"ledger"`
	Lines  []LineSummary   `json:"lines"`

	GeneratedAt time.Time `json:"generatedAt"`
}

// BudgetSummary holds the template level budget
type BudgetSummary struct {
	Department       string `json:"department"`
	Role             string `json:"role"`
	Common           string `json:"common"`
	PerformanceSplit string `json:"performanceSplit"`
	PotentialSplit   string `json:"potentialSplit"`
}

// AxisSummary holds the per category totals of one axis
type AxisSummary struct {
	Axis       string            `json:"axis"`
	Categories []CategorySummary `json:"categories"`
}

// CategorySummary holds the cascade totals of one axis and category
type CategorySummary struct {
	Category    string `json:"category"`
	Budget      string `json:"budget"`
	Allocated   string `json:"allocated"`
	Available   string `json:"available"`
	Distributed string `json:"distributed"`
}

// LedgerSummary is one team weightage row
type LedgerSummary struct {
	TeamID     string `json:"teamId"`
	Axis       string `json:"axis"`
	Department string `json:"department"`
	Role       string `json:"role"`
	Common     string `json:"common"`
}

// LineSummary is one key result line with its progress
type LineSummary struct {
	ID                 string `json:"id"`
	Axis               string `json:"axis"`
	Category           string `json:"category"`
	TeamID             string `json:"teamId"`
	ObjectiveBreakdown string `json:"objectiveBreakdown"`
	Priority           string `json:"priority"`
	Metric             string `json:"metric,omitempty"`
	Actual             string `json:"actual"`
	Target             string `json:"target"`
	Weightage          string `json:"weightage"`
	Progress           string `json:"progress"`
	Band               string `json:"band"`
}

// Build summarises a template. Derived fields are read as stored, so callers should
// recompute the template first.
func Build(t *model.Template, now time.Time) *Summary {
	s := &Summary{
		TemplateID:   t.ID,
		Name:         t.Name,
		DepartmentID: t.DepartmentID,
		IndustryID:   t.IndustryID,
		Active:       t.Active,
		SyncStatus:   t.SyncStatus,
		Budget: BudgetSummary{
			Department:       t.DeptWeightage.StringFixed(2),
			Role:             t.RoleWeightage.StringFixed(2),
			Common:           t.CommonWeightage.StringFixed(2),
			PerformanceSplit: t.PerformanceSplit.StringFixed(2),
			PotentialSplit:   t.PotentialSplit.StringFixed(2),
		},
		GeneratedAt: now.UTC(),
	}

	for _, axis := range model.Axes {
		as := AxisSummary{Axis: string(axis)}
		for _, cat := range model.Categories {
			as.Categories = append(as.Categories, CategorySummary{
				Category:    string(cat),
				Budget:      t.AxisBudget(axis, cat).StringFixed(2),
				Allocated:   t.Allocated.Get(axis, cat).StringFixed(2),
				Available:   t.Available.Get(axis, cat).StringFixed(2),
				Distributed: t.Distributed.Get(axis, cat).StringFixed(2),
			})
		}
		s.Axes = append(s.Axes, as)

		for _, i := range t.LedgerFor(axis) {
			row := t.Ledger[i]
			s.Ledger = append(s.Ledger, LedgerSummary{
				TeamID:     row.TeamID,
				Axis:       string(row.Axis),
				Department: row.DepartmentWeightage.StringFixed(2),
				Role:       row.RoleWeightage.StringFixed(2),
				Common:     row.CommonWeightage.StringFixed(2),
			})
		}

		for _, cat := range model.Categories {
			for _, l := range t.LinesFor(axis, cat) {
				progress := l.Progress()
				s.Lines = append(s.Lines, LineSummary{
					ID:                 l.ID,
					Axis:               string(l.Axis),
					Category:           string(l.Category),
					TeamID:             l.TeamID,
					ObjectiveBreakdown: l.ObjectiveBreakdown,
					Priority:           string(l.Priority),
					Metric:             string(l.Metric),
					Actual:             l.ActualValue.StringFixed(2),
					Target:             l.TargetValue.StringFixed(2),
					Weightage:          l.DistributedWeightage.StringFixed(2),
					Progress:           progress.StringFixed(2),
					Band:               model.ProgressBand(progress),
				})
			}
		}
	}

	return s
}

// JSON encodes the summary for archiving
func (s *Summary) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode summary: %w", err)
	}
	return data, nil
}

// Text renders the summary as aligned tables. Line ids and the generation time are left
// out so two renderings of equivalent templates compare equal.
func (s *Summary) Text() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (%s)\n", s.Name, s.TemplateID)
	fmt.Fprintf(&b, "Department: %s", s.DepartmentID)
	if s.IndustryID != "" {
		fmt.Fprintf(&b, "  Industry: %s", s.IndustryID)
	}
	fmt.Fprintf(&b, "  Active: %t\n", s.Active)
	fmt.Fprintf(&b, "Sync: %s\n\n", s.SyncStatus)

	fmt.Fprintf(&b, "Budget: department %s%%  role %s%%  common %s%%\n",
		s.Budget.Department, s.Budget.Role, s.Budget.Common)
	fmt.Fprintf(&b, "Split:  performance %s%%  potential %s%%\n\n",
		s.Budget.PerformanceSplit, s.Budget.PotentialSplit)

	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AXIS\tCATEGORY\tBUDGET\tTEAMS\tAVAILABLE\tDISTRIBUTED")
	for _, a := range s.Axes {
		for _, c := range a.Categories {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", a.Axis, c.Category, c.Budget, c.Allocated, c.Available, c.Distributed)
		}
	}
	w.Flush()

	if len(s.Ledger) > 0 {
		b.WriteString("\nTeam weightages\n")
		w = tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "AXIS\tTEAM\tDEPARTMENT\tROLE\tCOMMON")
		for _, r := range s.Ledger {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Axis, r.TeamID, r.Department, r.Role, r.Common)
		}
		w.Flush()
	}

	if len(s.Lines) > 0 {
		b.WriteString("\nKey results\n")
		w = tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "AXIS\tCATEGORY\tTEAM\tOBJECTIVE\tPRIORITY\tWEIGHTAGE\tPROGRESS")
		for _, l := range s.Lines {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s%% (%s)\n",
				l.Axis, l.Category, l.TeamID, l.ObjectiveBreakdown, l.Priority, l.Weightage, l.Progress, l.Band)
		}
		w.Flush()
	}

	return b.String()
}
