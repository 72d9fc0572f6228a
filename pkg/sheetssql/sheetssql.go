// Package sheetssql reads tabs of a Google spreadsheet as typed tables.
//
// Each tab starts with two fixed rows: column headers, then column kinds
// (text, decimal, bool, int). Data starts on row 3.
package sheetssql

import "fmt"

// SheetsClient is the subset of the Sheets API the package calls
type SheetsClient interface {
	GetValues(spreadsheetID, sheetRange string) ([][]interface{}, error)
	AppendRows(spreadsheetID, sheetRange string, values [][]interface{}) error
	CreateSheet(spreadsheetID, sheetTitle string) (int64, error)
	ListSheets(spreadsheetID string) ([]string, error)
}

// Column is one header/kind pair
type Column struct {
	Header string
	Kind   string
}

type Table struct {
	Name    string
	Columns []Column
}

// headerRows returns the two leading rows written when a tab is created
func (t Table) headerRows() [][]interface{} {
	headers := make([]interface{}, 0, len(t.Columns))
	kinds := make([]interface{}, 0, len(t.Columns))
	for _, c := range t.Columns {
		headers = append(headers, c.Header)
		kinds = append(kinds, c.Kind)
	}
	return [][]interface{}{headers, kinds}
}

type Schema struct {
	Tables []Table
}

// DB is a spreadsheet whose tabs match a Schema
type DB struct {
	client        SheetsClient
	spreadsheetID string
}

// Open checks the spreadsheet against schema, adding any tab it lacks.
// A nil schema skips the check.
func Open(client SheetsClient, spreadsheetID string, schema *Schema) (*DB, error) {
	db := &DB{client: client, spreadsheetID: spreadsheetID}
	if schema == nil {
		return db, nil
	}
	if err := db.migrate(schema); err != nil {
		return nil, fmt.Errorf("spreadsheet %s: %w", spreadsheetID, err)
	}
	return db, nil
}

func (db *DB) SpreadsheetID() string {
	return db.spreadsheetID
}
