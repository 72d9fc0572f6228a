package sheetssql

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode"
)

// Describe derives one Table per model from `sheet:"header,kind"` tags.
// Untagged fields are ignored; a model with no tagged field is an error.
func Describe(models ...any) (*Schema, error) {
	schema := &Schema{}
	for _, m := range models {
		t := reflect.TypeOf(m)
		if t != nil && t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t == nil || t.Kind() != reflect.Struct {
			return nil, fmt.Errorf("model %T must be a struct", m)
		}

		table := Table{Name: TableName(t)}
		for _, f := range reflect.VisibleFields(t) {
			col, ok, err := parseTag(f)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", t.Name(), f.Name, err)
			}
			if ok {
				table.Columns = append(table.Columns, col)
			}
		}
		if len(table.Columns) == 0 {
			return nil, fmt.Errorf("%s has no sheet columns", t.Name())
		}
		schema.Tables = append(schema.Tables, table)
	}
	return schema, nil
}

func parseTag(f reflect.StructField) (Column, bool, error) {
	tag, ok := f.Tag.Lookup("sheet")
	if !ok || tag == "-" {
		return Column{}, false, nil
	}
	header, kind, _ := strings.Cut(tag, ",")
	if header == "" || kind == "" {
		return Column{}, false, fmt.Errorf(`sheet tag %q must be "header,kind"`, tag)
	}
	return Column{Header: header, Kind: kind}, true, nil
}

// TableName is the tab name for a model type: OkrKeyResult becomes okr_key_result
func TableName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := []rune(t.Name())
	var b strings.Builder
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			prev := name[i-1]
			nextLower := i+1 < len(name) && unicode.IsLower(name[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func (db *DB) migrate(schema *Schema) error {
	tabs, err := db.client.ListSheets(db.spreadsheetID)
	if err != nil {
		return fmt.Errorf("failed to list tabs: %w", err)
	}

	for _, table := range schema.Tables {
		if !slices.Contains(tabs, table.Name) {
			if _, err := db.client.CreateSheet(db.spreadsheetID, table.Name); err != nil {
				return fmt.Errorf("failed to add tab %s: %w", table.Name, err)
			}
			if err := db.client.AppendRows(db.spreadsheetID, table.Name, table.headerRows()); err != nil {
				return fmt.Errorf("failed to write header rows of %s: %w", table.Name, err)
			}
			continue
		}
		if err := db.check(table); err != nil {
			return fmt.Errorf("tab %s does not match: %w", table.Name, err)
		}
	}
	return nil
}

// check compares the leading columns of a tab's two header rows with table.
// Columns past the schema are left alone for notes.
func (db *DB) check(table Table) error {
	got, err := db.client.GetValues(db.spreadsheetID, table.Name+"!1:2")
	if err != nil {
		return fmt.Errorf("failed to read header rows: %w", err)
	}
	if len(got) < 2 {
		return fmt.Errorf("expected a header row and a kind row, found %d rows", len(got))
	}

	for i, col := range table.Columns {
		if h := cellAt(got[0], i); h != col.Header {
			return fmt.Errorf("column %d header is %q, want %q", i+1, h, col.Header)
		}
		if k := cellAt(got[1], i); k != col.Kind {
			return fmt.Errorf("column %d (%s) kind is %q, want %q", i+1, col.Header, k, col.Kind)
		}
	}
	return nil
}

func cellAt(row []interface{}, i int) string {
	if i >= len(row) {
		return ""
	}
	s, _ := row[i].(string)
	return s
}
