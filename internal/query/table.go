package query

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/knakk/sparql"
)

const xsd = "http://www.w3.org/2001/XMLSchema#"

// ColumnKind is the value type of a result column.
type ColumnKind string

const (
	KindString  ColumnKind = "string"
	KindNumber  ColumnKind = "number"
	KindBoolean ColumnKind = "boolean"
	KindTime    ColumnKind = "time"
)

// Column describes one projected variable.
type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"type"`
}

// Table is the tabular form of a SELECT result. Rows hold string, float64,
// bool or time.Time values according to the column kind, and nil where the
// variable is unbound.
type Table struct {
	RefID   string          `json:"refId"`
	Columns []Column        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

var datatypeKinds = map[string]ColumnKind{
	xsd + "integer":            KindNumber,
	xsd + "decimal":            KindNumber,
	xsd + "float":              KindNumber,
	xsd + "double":             KindNumber,
	xsd + "int":                KindNumber,
	xsd + "long":               KindNumber,
	xsd + "short":              KindNumber,
	xsd + "byte":               KindNumber,
	xsd + "nonNegativeInteger": KindNumber,
	xsd + "nonPositiveInteger": KindNumber,
	xsd + "positiveInteger":    KindNumber,
	xsd + "negativeInteger":    KindNumber,
	xsd + "unsignedLong":       KindNumber,
	xsd + "unsignedInt":        KindNumber,
	xsd + "unsignedShort":      KindNumber,
	xsd + "unsignedByte":       KindNumber,
	xsd + "boolean":            KindBoolean,
	xsd + "dateTime":           KindTime,
	xsd + "dateTimeStamp":      KindTime,
	xsd + "date":               KindTime,
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02Z07:00", "2006-01-02"}

// NewTable converts SPARQL JSON results into a Table. A column is typed
// only when every bound value carries the same typed-literal datatype kind
// and converts cleanly, otherwise it holds strings.
func NewTable(refID string, res *sparql.Results) *Table {
	t := &Table{RefID: refID, Columns: []Column{}, Rows: [][]interface{}{}}
	if res == nil {
		return t
	}

	vars := res.Head.Vars
	bindings := res.Results.Bindings

	for _, name := range vars {
		t.Columns = append(t.Columns, Column{Name: name, Kind: columnKind(name, res)})
	}

	for _, b := range bindings {
		row := make([]interface{}, len(vars))
		for i, name := range vars {
			v, ok := b[name]
			if !ok {
				continue
			}
			row[i] = v.Value
		}
		t.Rows = append(t.Rows, row)
	}

	for i := range t.Columns {
		if t.Columns[i].Kind != KindString && !convertColumn(t.Rows, i, t.Columns[i].Kind) {
			t.Columns[i].Kind = KindString
		}
	}
	return t
}

func columnKind(name string, res *sparql.Results) ColumnKind {
	kind := ColumnKind("")
	for _, b := range res.Results.Bindings {
		v, ok := b[name]
		if !ok {
			continue
		}
		k, typed := datatypeKinds[v.DataType]
		if !typed || (v.Type != "literal" && v.Type != "typed-literal") {
			return KindString
		}
		if kind != "" && kind != k {
			return KindString
		}
		kind = k
	}
	if kind == "" {
		return KindString
	}
	return kind
}

// convertColumn replaces the strings of column i with typed values. It
// reports false, leaving the rows untouched, if any value does not convert.
func convertColumn(rows [][]interface{}, i int, kind ColumnKind) bool {
	converted := make([]interface{}, len(rows))
	for r, row := range rows {
		s, ok := row[i].(string)
		if !ok {
			continue
		}
		v, err := convert(s, kind)
		if err != nil {
			return false
		}
		converted[r] = v
	}
	for r, row := range rows {
		row[i] = converted[r]
	}
	return true
}

func convert(s string, kind ColumnKind) (interface{}, error) {
	switch kind {
	case KindNumber:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		// INF, -INF and NaN are valid xsd:double but have no JSON form
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("non-finite number %q", s)
		}
		return f, nil
	case KindBoolean:
		return strconv.ParseBool(s)
	case KindTime:
		var err error
		for _, layout := range timeLayouts {
			var t time.Time
			if t, err = time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return nil, err
	}
	return s, nil
}
