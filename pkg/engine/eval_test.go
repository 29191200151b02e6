package engine

import (
	"testing"

	"github.com/JayabrataBasu/VeridicalDB/pkg/catalog"
	"github.com/JayabrataBasu/VeridicalDB/pkg/sql"
)

func boolLit(v bool) sql.Expr    { return &sql.Literal{Value: catalog.NewBool(v)} }
func nullBoolLit() sql.Expr      { return &sql.Literal{Value: catalog.Null(catalog.TypeBool)} }
func evalBool(t *testing.T, e sql.Expr) catalog.Value {
	t.Helper()
	v, err := NewEvaluator().Eval(e)
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}
	return v
}

func TestAndThreeValuedLogicIsCommutative(t *testing.T) {
	cases := []struct {
		name       string
		left       sql.Expr
		right      sql.Expr
		wantIsNull bool
		wantBool   bool
	}{
		{"FALSE AND NULL", boolLit(false), nullBoolLit(), false, false},
		{"NULL AND FALSE", nullBoolLit(), boolLit(false), false, false},
		{"TRUE AND NULL", boolLit(true), nullBoolLit(), true, false},
		{"NULL AND TRUE", nullBoolLit(), boolLit(true), true, false},
		{"NULL AND NULL", nullBoolLit(), nullBoolLit(), true, false},
		{"TRUE AND TRUE", boolLit(true), boolLit(true), false, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v := evalBool(t, &sql.BinaryOp{Op: "AND", Left: c.left, Right: c.right})
			if v.IsNull != c.wantIsNull {
				t.Fatalf("IsNull = %v, want %v", v.IsNull, c.wantIsNull)
			}
			if !v.IsNull && v.Bool != c.wantBool {
				t.Fatalf("Bool = %v, want %v", v.Bool, c.wantBool)
			}
		})
	}
}

func TestOrThreeValuedLogicIsCommutative(t *testing.T) {
	cases := []struct {
		name       string
		left       sql.Expr
		right      sql.Expr
		wantIsNull bool
		wantBool   bool
	}{
		{"TRUE OR NULL", boolLit(true), nullBoolLit(), false, true},
		{"NULL OR TRUE", nullBoolLit(), boolLit(true), false, true},
		{"FALSE OR NULL", boolLit(false), nullBoolLit(), true, false},
		{"NULL OR FALSE", nullBoolLit(), boolLit(false), true, false},
		{"NULL OR NULL", nullBoolLit(), nullBoolLit(), true, false},
		{"FALSE OR FALSE", boolLit(false), boolLit(false), false, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v := evalBool(t, &sql.BinaryOp{Op: "OR", Left: c.left, Right: c.right})
			if v.IsNull != c.wantIsNull {
				t.Fatalf("IsNull = %v, want %v", v.IsNull, c.wantIsNull)
			}
			if !v.IsNull && v.Bool != c.wantBool {
				t.Fatalf("Bool = %v, want %v", v.Bool, c.wantBool)
			}
		})
	}
}
