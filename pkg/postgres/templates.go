package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
	"github.com/jakechorley/ninebox-weightage/pkg/db"
)

const templateColumns = `id, name, department_id, industry_id, active,
	dept_weightage, role_weightage, common_weightage, performance_split, potential_split,
	is_synced, selected_okr_template_id, selected_okr_template_name, created_at, updated_at`

// querier is satisfied by both the pool and a transaction
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanTemplate(row pgx.Row) (*model.Template, error) {
	var t model.Template
	err := row.Scan(&t.ID, &t.Name, &t.DepartmentID, &t.IndustryID, &t.Active,
		&t.DeptWeightage, &t.RoleWeightage, &t.CommonWeightage, &t.PerformanceSplit, &t.PotentialSplit,
		&t.IsSynced, &t.SelectedOKRTemplateID, &t.SelectedOKRTemplateName, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTemplate loads a template with its ledger rows and lines
func (d *DB) GetTemplate(ctx context.Context, id string) (*model.Template, error) {
	tpl, err := scanTemplate(d.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM ninebox_template WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get template %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template %s: %w", id, err)
	}

	if err := loadChildren(ctx, d.pool, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// ListTemplates loads every template ordered by name
func (d *DB) ListTemplates(ctx context.Context) ([]*model.Template, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+templateColumns+` FROM ninebox_template ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}

	var templates []*model.Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, tpl)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	for _, tpl := range templates {
		if err := loadChildren(ctx, d.pool, tpl); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

func loadChildren(ctx context.Context, q querier, tpl *model.Template) error {
	rows, err := q.Query(ctx, `
		SELECT id, team_id, axis, sequence, department_weightage, role_weightage, common_weightage
		FROM ninebox_ledger_row
		WHERE template_id = $1
		ORDER BY sequence, position
	`, tpl.ID)
	if err != nil {
		return fmt.Errorf("failed to query ledger rows: %w", err)
	}
	for rows.Next() {
		r := model.LedgerRow{TemplateID: tpl.ID}
		if err := rows.Scan(&r.ID, &r.TeamID, &r.Axis, &r.Sequence, &r.DepartmentWeightage, &r.RoleWeightage, &r.CommonWeightage); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan ledger row: %w", err)
		}
		tpl.Ledger = append(tpl.Ledger, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating ledger rows: %w", err)
	}

	rows, err = q.Query(ctx, `
		SELECT id, axis, category, team_id, sequence, objective_breakdown, priority, metric,
			actual_value, target_value, distributed_weightage
		FROM ninebox_line
		WHERE template_id = $1
		ORDER BY sequence, position
	`, tpl.ID)
	if err != nil {
		return fmt.Errorf("failed to query lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		l := model.Line{TemplateID: tpl.ID}
		if err := rows.Scan(&l.ID, &l.Axis, &l.Category, &l.TeamID, &l.Sequence, &l.ObjectiveBreakdown, &l.Priority, &l.Metric,
			&l.ActualValue, &l.TargetValue, &l.DistributedWeightage); err != nil {
			return fmt.Errorf("failed to scan line: %w", err)
		}
		tpl.Lines = append(tpl.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating lines: %w", err)
	}
	return nil
}

// SaveTemplate upserts the template and replaces its rows and lines in one transaction
func (d *DB) SaveTemplate(ctx context.Context, tpl *model.Template) error {
	if tpl.ID == "" {
		return fmt.Errorf("failed to save template: missing id")
	}

	return pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO ninebox_template (`+templateColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				department_id = EXCLUDED.department_id,
				industry_id = EXCLUDED.industry_id,
				active = EXCLUDED.active,
				dept_weightage = EXCLUDED.dept_weightage,
				role_weightage = EXCLUDED.role_weightage,
				common_weightage = EXCLUDED.common_weightage,
				performance_split = EXCLUDED.performance_split,
				potential_split = EXCLUDED.potential_split,
				is_synced = EXCLUDED.is_synced,
				selected_okr_template_id = EXCLUDED.selected_okr_template_id,
				selected_okr_template_name = EXCLUDED.selected_okr_template_name,
				updated_at = EXCLUDED.updated_at
		`, tpl.ID, tpl.Name, tpl.DepartmentID, tpl.IndustryID, tpl.Active,
			tpl.DeptWeightage, tpl.RoleWeightage, tpl.CommonWeightage, tpl.PerformanceSplit, tpl.PotentialSplit,
			tpl.IsSynced, tpl.SelectedOKRTemplateID, tpl.SelectedOKRTemplateName, tpl.CreatedAt.UTC(), tpl.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to upsert template: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM ninebox_ledger_row WHERE template_id = $1`, tpl.ID); err != nil {
			return fmt.Errorf("failed to clear ledger rows: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM ninebox_line WHERE template_id = $1`, tpl.ID); err != nil {
			return fmt.Errorf("failed to clear lines: %w", err)
		}

		batch := &pgx.Batch{}
		for pos, r := range tpl.Ledger {
			batch.Queue(`
				INSERT INTO ninebox_ledger_row (id, template_id, team_id, axis, sequence, position, department_weightage, role_weightage, common_weightage)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, r.ID, tpl.ID, r.TeamID, string(r.Axis), r.Sequence, pos, r.DepartmentWeightage, r.RoleWeightage, r.CommonWeightage)
		}
		for pos, l := range tpl.Lines {
			batch.Queue(`
				INSERT INTO ninebox_line (id, template_id, axis, category, team_id, sequence, position, objective_breakdown, priority, metric,
					actual_value, target_value, distributed_weightage)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			`, l.ID, tpl.ID, string(l.Axis), string(l.Category), l.TeamID, l.Sequence, pos, l.ObjectiveBreakdown, string(l.Priority), string(l.Metric),
				l.ActualValue, l.TargetValue, l.DistributedWeightage)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert rows and lines: %w", err)
		}
		return nil
	})
}

// DeleteTemplate removes a template; rows and lines cascade
func (d *DB) DeleteTemplate(ctx context.Context, id string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM ninebox_template WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete template %s: %w", id, db.ErrNotFound)
	}
	return nil
}
