package sheetssql

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Select decodes every data row of table into a T, matching tab headers
// to `sheet` tags. Blank rows are skipped and unknown headers ignored.
func Select[T any](db *DB, table string) ([]T, error) {
	values, err := db.client.GetValues(db.spreadsheetID, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}

	out := []T{}
	if len(values) <= 2 {
		return out, nil
	}

	slots := bind(reflect.TypeOf(out).Elem(), values[0])
	for i, row := range values[2:] {
		if blank(row) {
			continue
		}

		var item T
		dst := reflect.ValueOf(&item).Elem()
		for _, s := range slots {
			if s.col >= len(row) || row[s.col] == nil {
				continue
			}
			if err := decode(dst.FieldByIndex(s.field), row[s.col]); err != nil {
				// +3 turns the data index into the sheet's 1-based row number
				return nil, fmt.Errorf("%s row %d, column %s: %w", table, i+3, s.header, err)
			}
		}
		out = append(out, item)
	}
	return out, nil
}

type slot struct {
	header string
	col    int
	field  []int
}

// bind pairs each tagged field of t with its column in headers
func bind(t reflect.Type, headers []interface{}) []slot {
	fields := map[string][]int{}
	for _, f := range reflect.VisibleFields(t) {
		if col, ok, err := parseTag(f); ok && err == nil {
			fields[col.Header] = f.Index
		}
	}

	var slots []slot
	for col, h := range headers {
		name, _ := h.(string)
		if idx, ok := fields[name]; ok {
			slots = append(slots, slot{header: name, col: col, field: idx})
		}
	}
	return slots
}

func blank(row []interface{}) bool {
	for _, cell := range row {
		if s, ok := cell.(string); !ok || strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// decode parses a formatted cell into dst. Empty cells leave the zero value.
func decode(dst reflect.Value, cell interface{}) error {
	raw, ok := cell.(string)
	if !ok {
		return fmt.Errorf("expected a formatted string, got %T", cell)
	}
	raw = strings.TrimSpace(raw)

	switch p := dst.Addr().Interface().(type) {
	case *string:
		*p = raw
		return nil
	case *decimal.Decimal:
		*p = decimal.Zero
		if raw == "" {
			return nil
		}
		d, err := decimal.NewFromString(strings.TrimSuffix(raw, "%"))
		if err != nil {
			return fmt.Errorf("invalid decimal %q", raw)
		}
		*p = d
		return nil
	case *bool:
		*p = false
		if raw == "" {
			return nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid bool %q", raw)
		}
		*p = b
		return nil
	case *int:
		*p = 0
		if raw == "" {
			return nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid int %q", raw)
		}
		*p = n
		return nil
	default:
		return fmt.Errorf("unsupported field type %s", dst.Type())
	}
}
