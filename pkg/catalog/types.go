// Package catalog provides the type system, schema definitions, and catalog management.
package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DataType represents a column or expression data type.
type DataType int

const (
	TypeUnknown DataType = iota
	TypeInt32
	TypeFloat32
	TypeChar // fixed-width string; width carried on the Column
	TypeBool
	TypeDate // stored as epoch seconds
)

// String returns the SQL name of the type.
func (t DataType) String() string {
	switch t {
	case TypeInt32:
		return "INT"
	case TypeFloat32:
		return "FLOAT"
	case TypeChar:
		return "CHAR"
	case TypeBool:
		return "BOOL"
	case TypeDate:
		return "DATE"
	default:
		return "UNKNOWN"
	}
}

// ParseDataType converts a string to DataType. Width (for CHAR) is parsed
// separately by the caller (pkg/sql's CREATE TABLE grammar).
func ParseDataType(s string) DataType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INT", "INT32", "INTEGER":
		return TypeInt32
	case "FLOAT", "FLOAT32", "REAL", "DOUBLE":
		return TypeFloat32
	case "CHAR", "VARCHAR", "TEXT", "STRING":
		return TypeChar
	case "BOOL", "BOOLEAN":
		return TypeBool
	case "DATE":
		return TypeDate
	default:
		return TypeUnknown
	}
}

// DateTemplate is the fixed external rendering of a DATE value.
const DateTemplate = "2006-01-02"

// FixedWidth returns the on-disk byte width for a column of this type.
// CHAR's width is carried separately on Column.Width.
func (t DataType) FixedWidth(charWidth int) int {
	switch t {
	case TypeInt32:
		return 4
	case TypeFloat32:
		return 4
	case TypeBool:
		return 1
	case TypeDate:
		return 8
	case TypeChar:
		return charWidth
	default:
		return 0
	}
}

// Value represents a typed value that can be stored in a column or produced
// by expression evaluation (spec's "evaluated value").
type Value struct {
	Type   DataType
	IsNull bool
	Int32  int32
	Float  float32
	Text   string // used for TypeChar; caller truncates/pads to column width
	Bool   bool
	Date   time.Time // used for TypeDate; only the date portion (UTC midnight) is meaningful
}

// NewInt32 creates an INT value.
func NewInt32(v int32) Value { return Value{Type: TypeInt32, Int32: v} }

// NewFloat32 creates a FLOAT value.
func NewFloat32(v float32) Value { return Value{Type: TypeFloat32, Float: v} }

// NewChar creates a fixed-width string value.
func NewChar(v string) Value { return Value{Type: TypeChar, Text: v} }

// NewBool creates a BOOL value.
func NewBool(v bool) Value { return Value{Type: TypeBool, Bool: v} }

// NewDate creates a DATE value.
func NewDate(v time.Time) Value { return Value{Type: TypeDate, Date: v} }

// Null creates a NULL value of the given type.
func Null(t DataType) Value { return Value{Type: t, IsNull: true} }

// String returns a human-readable representation.
func (v Value) String() string {
	if v.IsNull {
		return "NULL"
	}
	switch v.Type {
	case TypeInt32:
		return strconv.FormatInt(int64(v.Int32), 10)
	case TypeFloat32:
		return strconv.FormatFloat(float64(v.Float), 'f', 6, 32)
	case TypeChar:
		return v.Text
	case TypeBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case TypeDate:
		return v.Date.UTC().Format(DateTemplate)
	default:
		return "?"
	}
}

// Column defines a column in a table schema.
type Column struct {
	ID         int
	Name       string
	Type       DataType
	Width      int // meaningful for TypeChar only
	NotNull    bool
	PrimaryKey bool
	HasDefault bool
	Default    *Value // nil for no default
	HasIndex   bool   // whether a B+ tree index exists for this column
}

// FixedWidth returns this column's on-disk byte width.
func (c Column) FixedWidth() int { return c.Type.FixedWidth(c.Width) }

// Schema represents the structure of a table, including the hidden
// trailing __rowid__ column every table carries.
type Schema struct {
	Columns []Column
}

// RowIDColumn is the name of the hidden monotonic row identifier column.
const RowIDColumn = "__rowid__"

// NewSchema creates a schema from user-declared columns, appending the
// hidden __rowid__ column and assigning IDs.
func NewSchema(cols []Column) *Schema {
	out := make([]Column, 0, len(cols)+1)
	for i, c := range cols {
		c.ID = i
		out = append(out, c)
	}
	out = append(out, Column{
		ID:       len(out),
		Name:     RowIDColumn,
		Type:     TypeInt32,
		NotNull:  true,
		HasIndex: true,
	})
	return &Schema{Columns: out}
}

// UserColumns returns every column except the hidden __rowid__ column.
func (s *Schema) UserColumns() []Column {
	if len(s.Columns) == 0 {
		return nil
	}
	return s.Columns[:len(s.Columns)-1]
}

// RowIDColumnID returns the column index of the hidden __rowid__ column.
func (s *Schema) RowIDColumnID() int {
	return len(s.Columns) - 1
}

// ColumnByName finds a column by name (case-insensitive).
func (s *Schema) ColumnByName(name string) (*Column, int) {
	nameUpper := strings.ToUpper(name)
	for i, c := range s.Columns {
		if strings.ToUpper(c.Name) == nameUpper {
			return &s.Columns[i], i
		}
	}
	return nil, -1
}

// Validate checks that values match the schema (by position, all columns
// including __rowid__).
func (s *Schema) Validate(values []Value) error {
	if len(values) != len(s.Columns) {
		return fmt.Errorf("expected %d values, got %d", len(s.Columns), len(values))
	}
	for i, col := range s.Columns {
		v := values[i]
		if v.IsNull && col.NotNull {
			return fmt.Errorf("column %q does not allow NULL", col.Name)
		}
		if !v.IsNull && v.Type != col.Type {
			return fmt.Errorf("column %q expects %s, got %s", col.Name, col.Type, v.Type)
		}
	}
	return nil
}
