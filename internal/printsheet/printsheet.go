// file: internal/printsheet/printsheet.go
// version: 1.0.0
// guid: 3a5c7e9b-1d2f-4b6a-8c0e-5f7a9b1d3c48

// Package printsheet renders the printable sheet a distributor takes on a
// round: the distributor's contact block and the merchants assigned to them,
// each with a box count and a checkbox to tick.
package printsheet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Table names used by the spreadsheet export.
const (
	DefaultDistributorTable = "Distributeurs_2025"
	DefaultMerchantTable    = "T2024_commercants"
)

// ErrDistributorNotFound is returned when no distributor row has the id.
var ErrDistributorNotFound = errors.New("distributor not found")

// Table is one spreadsheet table in columnar form: column name to values,
// all aligned on the "id" column.
type Table map[string][]any

// Record is one row of a table.
type Record map[string]any

// ID returns the row id as text, or "" when the row has none.
func (r Record) ID() string {
	return refKey(r["id"])
}

// Text returns the column value the way the sheet prints it. Missing,
// null, empty, false and zero values print as "".
func (r Record) Text(col string) string {
	return text(r[col])
}

// ReadTables decodes a JSON object of columnar tables.
func ReadTables(r io.Reader) (map[string]Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var tables map[string]Table
	if err := dec.Decode(&tables); err != nil {
		return nil, fmt.Errorf("failed to parse tables: %w", err)
	}
	return tables, nil
}

// ConvertColumnar turns a columnar table into rows. A column shorter than
// the id column is left out of the rows it does not reach. Rows without an
// id are dropped.
func ConvertColumnar(t Table) []Record {
	ids, ok := t["id"]
	if !ok {
		return []Record{}
	}
	rows := make([]Record, 0, len(ids))
	for i := range ids {
		rec := Record{}
		for col, values := range t {
			if len(values) > i {
				rec[col] = values[i]
			}
		}
		if rec["id"] == nil {
			continue
		}
		rows = append(rows, rec)
	}
	return rows
}

// LinkedMerchants returns the merchants whose Distributeur reference list
// contains distributorID. The list may carry the spreadsheet's leading "L"
// marker. An empty id links nothing.
func LinkedMerchants(distributorID string, merchants []Record) []Record {
	out := []Record{}
	if distributorID == "" {
		return out
	}
	for _, m := range merchants {
		refs, ok := m["Distributeur"].([]any)
		if !ok {
			continue
		}
		for _, ref := range refs {
			if refKey(ref) == distributorID {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// Sheet is what gets printed. A nil Distributor prints the
// "no distributor selected" notice.
type Sheet struct {
	Distributor Record
	Merchants   []Record
}

// NewSheet picks the distributor with id from tables and links its merchants.
func NewSheet(tables map[string]Table, distributorID string) (Sheet, error) {
	for _, d := range ConvertColumnar(tables[DefaultDistributorTable]) {
		if d.ID() == distributorID {
			return Sheet{
				Distributor: d,
				Merchants:   LinkedMerchants(distributorID, ConvertColumnar(tables[DefaultMerchantTable])),
			}, nil
		}
	}
	return Sheet{}, fmt.Errorf("%w: %s", ErrDistributorNotFound, distributorID)
}

// TotalBoxes sums the merchants' Tirelires, counting non-numbers as zero.
func (s Sheet) TotalBoxes() int {
	total := 0
	for _, m := range s.Merchants {
		if f, ok := number(m["Tirelires"]); ok {
			total += int(f)
		}
	}
	return total
}

// refKey normalizes an id or reference so 12, 12.0 and "12" compare equal.
func refKey(v any) string {
	if f, ok := number(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f)
	}
	return 0, false
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return ""
	case json.Number, float64, int, int64:
		f, _ := number(x)
		if f == 0 {
			return ""
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// PrintDate formats t like "17.10.2026, 14:05".
func PrintDate(t time.Time) string {
	return t.Format("02.01.2006, 15:04")
}
