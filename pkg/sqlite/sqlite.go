// Package sqlite stores templates in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
	"github.com/jakechorley/ninebox-weightage/pkg/db"
)

var _ db.Database = (*DB)(nil)

// Decimals are stored as TEXT so values round-trip exactly
const schema = `
CREATE TABLE IF NOT EXISTS ninebox_template (
	id                         TEXT PRIMARY KEY,
	name                       TEXT NOT NULL,
	department_id              TEXT NOT NULL DEFAULT '',
	industry_id                TEXT NOT NULL DEFAULT '',
	active                     INTEGER NOT NULL DEFAULT 1,
	dept_weightage             TEXT NOT NULL DEFAULT '0',
	role_weightage             TEXT NOT NULL DEFAULT '0',
	common_weightage           TEXT NOT NULL DEFAULT '0',
	performance_split          TEXT NOT NULL DEFAULT '0',
	potential_split            TEXT NOT NULL DEFAULT '0',
	is_synced                  INTEGER NOT NULL DEFAULT 0,
	selected_okr_template_id   TEXT NOT NULL DEFAULT '',
	selected_okr_template_name TEXT NOT NULL DEFAULT '',
	created_at                 TEXT NOT NULL,
	updated_at                 TEXT NOT NULL,
	UNIQUE (name, department_id)
);
CREATE TABLE IF NOT EXISTS ninebox_ledger_row (
	id                   TEXT PRIMARY KEY,
	template_id          TEXT NOT NULL REFERENCES ninebox_template (id) ON DELETE CASCADE,
	team_id              TEXT NOT NULL,
	axis                 TEXT NOT NULL,
	sequence             INTEGER NOT NULL DEFAULT 10,
	position             INTEGER NOT NULL DEFAULT 0,
	department_weightage TEXT NOT NULL DEFAULT '0',
	role_weightage       TEXT NOT NULL DEFAULT '0',
	common_weightage     TEXT NOT NULL DEFAULT '0'
);
CREATE TABLE IF NOT EXISTS ninebox_line (
	id                    TEXT PRIMARY KEY,
	template_id           TEXT NOT NULL REFERENCES ninebox_template (id) ON DELETE CASCADE,
	axis                  TEXT NOT NULL,
	category              TEXT NOT NULL,
	team_id               TEXT NOT NULL,
	sequence              INTEGER NOT NULL DEFAULT 10,
	position              INTEGER NOT NULL DEFAULT 0,
	objective_breakdown   TEXT NOT NULL,
	priority              TEXT NOT NULL DEFAULT 'medium',
	metric                TEXT NOT NULL DEFAULT '',
	actual_value          TEXT NOT NULL DEFAULT '0',
	target_value          TEXT NOT NULL DEFAULT '0',
	distributed_weightage TEXT NOT NULL DEFAULT '0'
);
CREATE INDEX IF NOT EXISTS ninebox_ledger_row_template_idx ON ninebox_ledger_row (template_id);
CREATE INDEX IF NOT EXISTS ninebox_line_template_idx ON ninebox_line (template_id);
`

const templateColumns = `id, name, department_id, industry_id, active,
	dept_weightage, role_weightage, common_weightage, performance_split, potential_split,
	is_synced, selected_okr_template_id, selected_okr_template_name, created_at, updated_at`

// DB stores templates in a SQLite database file
type DB struct {
	db *sql.DB
}

// Open creates the file and schema if needed
func Open(ctx context.Context, path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// One writer at a time keeps SaveTemplate transactions serialised
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	// Files created before rows kept their position lack the column
	for _, table := range []string{"ninebox_ledger_row", "ninebox_line"} {
		if err := addPositionColumn(ctx, conn, table); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return &DB{db: conn}, nil
}

func addPositionColumn(ctx context.Context, conn *sql.DB, table string) error {
	var n int
	err := conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = 'position'`, table).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	if _, err := conn.ExecContext(ctx, `ALTER TABLE `+table+` ADD COLUMN position INTEGER NOT NULL DEFAULT 0`); err != nil {
		return fmt.Errorf("failed to add position to %s: %w", table, err)
	}
	return nil
}

// Close closes the database file
func (d *DB) Close() {
	_ = d.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*model.Template, error) {
	var t model.Template
	var createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.Name, &t.DepartmentID, &t.IndustryID, &t.Active,
		&t.DeptWeightage, &t.RoleWeightage, &t.CommonWeightage, &t.PerformanceSplit, &t.PotentialSplit,
		&t.IsSynced, &t.SelectedOKRTemplateID, &t.SelectedOKRTemplateName, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &t, nil
}

// GetTemplate loads a template with its ledger rows and lines
func (d *DB) GetTemplate(ctx context.Context, id string) (*model.Template, error) {
	tpl, err := scanTemplate(d.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM ninebox_template WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get template %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template %s: %w", id, err)
	}

	if err := d.loadChildren(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// ListTemplates loads every template ordered by name
func (d *DB) ListTemplates(ctx context.Context) ([]*model.Template, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+templateColumns+` FROM ninebox_template ORDER BY name, id`)
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
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}
	rows.Close()

	for _, tpl := range templates {
		if err := d.loadChildren(ctx, tpl); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

func (d *DB) loadChildren(ctx context.Context, tpl *model.Template) error {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, team_id, axis, sequence, department_weightage, role_weightage, common_weightage
		FROM ninebox_ledger_row WHERE template_id = ? ORDER BY sequence, position`, tpl.ID)
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
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("error iterating ledger rows: %w", err)
	}
	rows.Close()

	rows, err = d.db.QueryContext(ctx, `
		SELECT id, axis, category, team_id, sequence, objective_breakdown, priority, metric,
			actual_value, target_value, distributed_weightage
		FROM ninebox_line WHERE template_id = ? ORDER BY sequence, position`, tpl.ID)
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
func (d *DB) SaveTemplate(ctx context.Context, tpl *model.Template) (retErr error) {
	if tpl.ID == "" {
		return fmt.Errorf("failed to save template: missing id")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ninebox_template (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			department_id = excluded.department_id,
			industry_id = excluded.industry_id,
			active = excluded.active,
			dept_weightage = excluded.dept_weightage,
			role_weightage = excluded.role_weightage,
			common_weightage = excluded.common_weightage,
			performance_split = excluded.performance_split,
			potential_split = excluded.potential_split,
			is_synced = excluded.is_synced,
			selected_okr_template_id = excluded.selected_okr_template_id,
			selected_okr_template_name = excluded.selected_okr_template_name,
			updated_at = excluded.updated_at`,
		tpl.ID, tpl.Name, tpl.DepartmentID, tpl.IndustryID, tpl.Active,
		tpl.DeptWeightage.String(), tpl.RoleWeightage.String(), tpl.CommonWeightage.String(),
		tpl.PerformanceSplit.String(), tpl.PotentialSplit.String(),
		tpl.IsSynced, tpl.SelectedOKRTemplateID, tpl.SelectedOKRTemplateName,
		tpl.CreatedAt.UTC().Format(time.RFC3339Nano), tpl.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to upsert template: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ninebox_ledger_row WHERE template_id = ?`, tpl.ID); err != nil {
		return fmt.Errorf("failed to clear ledger rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ninebox_line WHERE template_id = ?`, tpl.ID); err != nil {
		return fmt.Errorf("failed to clear lines: %w", err)
	}

	// position keeps creation order among rows sharing a sequence
	for pos, r := range tpl.Ledger {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ninebox_ledger_row (id, template_id, team_id, axis, sequence, position, department_weightage, role_weightage, common_weightage)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, tpl.ID, r.TeamID, string(r.Axis), r.Sequence, pos,
			r.DepartmentWeightage.String(), r.RoleWeightage.String(), r.CommonWeightage.String())
		if err != nil {
			return fmt.Errorf("failed to insert ledger row %s: %w", r.ID, err)
		}
	}

	for pos, l := range tpl.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ninebox_line (id, template_id, axis, category, team_id, sequence, position, objective_breakdown, priority, metric,
				actual_value, target_value, distributed_weightage)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, tpl.ID, string(l.Axis), string(l.Category), l.TeamID, l.Sequence, pos, l.ObjectiveBreakdown,
			string(l.Priority), string(l.Metric),
			l.ActualValue.String(), l.TargetValue.String(), l.DistributedWeightage.String())
		if err != nil {
			return fmt.Errorf("failed to insert line %s: %w", l.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit template: %w", err)
	}
	return nil
}

// DeleteTemplate removes a template; rows and lines cascade
func (d *DB) DeleteTemplate(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM ninebox_template WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete template %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("failed to delete template %s: %w", id, db.ErrNotFound)
	}
	return nil
}
