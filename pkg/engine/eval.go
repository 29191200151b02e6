package engine

import (
	"github.com/JayabrataBasu/VeridicalDB/pkg/catalog"
	"github.com/JayabrataBasu/VeridicalDB/pkg/sql"
)

// Evaluator reduces an expression tree to a tagged value, resolving column
// references against a row cache shared for the lifetime of one statement.
type Evaluator struct {
	cache *rowCache
}

// NewEvaluator creates an Evaluator bound to a fresh row cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{cache: newRowCache()}
}

// CacheRow records a table's decoded column values for the row currently
// under evaluation.
func (e *Evaluator) CacheRow(table string, values map[string]catalog.Value) {
	for col, v := range values {
		e.cache.put(table, col, v)
	}
}

// CacheClear drops every cached column value; bound to a scoped guard at
// statement boundaries.
func (e *Evaluator) CacheClear() { e.cache.clear() }

// ClearGuard returns a deferrable cleanup that clears the cache, for use
// as `defer eval.ClearGuard()()` at the top of a dispatcher.
func (e *Evaluator) ClearGuard() func() { return e.cache.clearGuard() }

// IsAggregate reports whether the root of the expression is an aggregate
// function call.
func IsAggregate(node sql.Expr) bool {
	_, ok := node.(*sql.AggregateExpr)
	return ok
}

// Eval recursively reduces node to a concrete value.
func (e *Evaluator) Eval(node sql.Expr) (catalog.Value, error) {
	switch n := node.(type) {
	case *sql.Literal:
		return n.Value, nil

	case *sql.ColumnRef:
		v, ok := e.cache.get(n.Table, n.Column)
		if !ok {
			name := n.Column
			if n.Table != "" {
				name = n.Table + "." + n.Column
			}
			return catalog.Value{}, errUnresolvedColumn(name)
		}
		return v, nil

	case *sql.UnaryOp:
		return e.evalUnary(n)

	case *sql.BinaryOp:
		return e.evalBinary(n)

	case *sql.AggregateExpr:
		return catalog.Value{}, errSchema("aggregate expression cannot be evaluated outside aggregate mode")

	default:
		return catalog.Value{}, errSchema("unknown expression node")
	}
}

func (e *Evaluator) evalUnary(n *sql.UnaryOp) (catalog.Value, error) {
	switch n.Op {
	case "IS NULL":
		v, err := e.Eval(n.Operand)
		if err != nil {
			return catalog.Value{}, err
		}
		return catalog.NewBool(v.IsNull), nil

	case "NOT":
		v, err := e.Eval(n.Operand)
		if err != nil {
			return catalog.Value{}, err
		}
		if v.IsNull {
			return catalog.Null(catalog.TypeBool), nil
		}
		return catalog.NewBool(!ExprToBool(v)), nil

	case "-":
		v, err := e.Eval(n.Operand)
		if err != nil {
			return catalog.Value{}, err
		}
		if v.IsNull {
			return catalog.Null(v.Type), nil
		}
		switch v.Type {
		case catalog.TypeInt32:
			return catalog.NewInt32(-v.Int32), nil
		case catalog.TypeFloat32:
			return catalog.NewFloat32(-v.Float), nil
		default:
			return catalog.Value{}, errArithmetic("cannot negate %s value", v.Type)
		}

	default:
		return catalog.Value{}, errSchema("unknown unary operator %q", n.Op)
	}
}

func (e *Evaluator) evalBinary(n *sql.BinaryOp) (catalog.Value, error) {
	switch n.Op {
	case "AND":
		l, err := e.Eval(n.Left)
		if err != nil {
			return catalog.Value{}, err
		}
		// FALSE AND anything is FALSE regardless of which side is NULL, so
		// a non-null FALSE on the left short-circuits without evaluating
		// the right operand at all.
		if !l.IsNull && !ExprToBool(l) {
			return catalog.NewBool(false), nil
		}
		r, err := e.Eval(n.Right)
		if err != nil {
			return catalog.Value{}, err
		}
		if !r.IsNull && !ExprToBool(r) {
			return catalog.NewBool(false), nil
		}
		if l.IsNull || r.IsNull {
			return catalog.Null(catalog.TypeBool), nil
		}
		return catalog.NewBool(true), nil

	case "OR":
		l, err := e.Eval(n.Left)
		if err != nil {
			return catalog.Value{}, err
		}
		// TRUE OR anything is TRUE regardless of which side is NULL.
		if !l.IsNull && ExprToBool(l) {
			return catalog.NewBool(true), nil
		}
		r, err := e.Eval(n.Right)
		if err != nil {
			return catalog.Value{}, err
		}
		if !r.IsNull && ExprToBool(r) {
			return catalog.NewBool(true), nil
		}
		if l.IsNull || r.IsNull {
			return catalog.Null(catalog.TypeBool), nil
		}
		return catalog.NewBool(false), nil
	}

	l, err := e.Eval(n.Left)
	if err != nil {
		return catalog.Value{}, err
	}
	r, err := e.Eval(n.Right)
	if err != nil {
		return catalog.Value{}, err
	}

	switch n.Op {
	case "+", "-", "*", "/":
		return evalArithmetic(n.Op, l, r)
	case "=", "<>", "<", "<=", ">", ">=":
		return evalComparison(n.Op, l, r)
	case "LIKE":
		return evalLike(l, r)
	default:
		return catalog.Value{}, errSchema("unknown binary operator %q", n.Op)
	}
}

func evalArithmetic(op string, l, r catalog.Value) (catalog.Value, error) {
	if l.IsNull || r.IsNull {
		if resultIsFloat(l, r) {
			return catalog.Null(catalog.TypeFloat32), nil
		}
		return catalog.Null(catalog.TypeInt32), nil
	}

	if !resultIsFloat(l, r) {
		a, b := l.Int32, r.Int32
		switch op {
		case "+":
			return catalog.NewInt32(a + b), nil
		case "-":
			return catalog.NewInt32(a - b), nil
		case "*":
			return catalog.NewInt32(a * b), nil
		case "/":
			if b == 0 {
				return catalog.Value{}, errArithmetic("division by zero")
			}
			return catalog.NewInt32(a / b), nil // Go integer division truncates toward zero
		}
	}

	af, bf, err := numericPromote(l, r)
	if err != nil {
		return catalog.Value{}, err
	}
	switch op {
	case "+":
		return catalog.NewFloat32(float32(af + bf)), nil
	case "-":
		return catalog.NewFloat32(float32(af - bf)), nil
	case "*":
		return catalog.NewFloat32(float32(af * bf)), nil
	case "/":
		if bf == 0 {
			return catalog.Value{}, errArithmetic("division by zero")
		}
		return catalog.NewFloat32(float32(af / bf)), nil
	}
	return catalog.Value{}, errSchema("unreachable arithmetic operator %q", op)
}

func evalComparison(op string, l, r catalog.Value) (catalog.Value, error) {
	if l.IsNull || r.IsNull {
		return catalog.Null(catalog.TypeBool), nil
	}
	cmp, err := compareValues(l, r)
	if err != nil {
		return catalog.Value{}, err
	}
	var result bool
	switch op {
	case "=":
		result = cmp == 0
	case "<>":
		result = cmp != 0
	case "<":
		result = cmp < 0
	case "<=":
		result = cmp <= 0
	case ">":
		result = cmp > 0
	case ">=":
		result = cmp >= 0
	}
	return catalog.NewBool(result), nil
}

func evalLike(l, r catalog.Value) (catalog.Value, error) {
	if l.IsNull || r.IsNull {
		return catalog.Null(catalog.TypeBool), nil
	}
	if l.Type != catalog.TypeChar || r.Type != catalog.TypeChar {
		return catalog.Value{}, errTypeMismatch("LIKE requires string operands, got %s and %s", l.Type, r.Type)
	}
	return catalog.NewBool(likeMatch(l.Text, r.Text)), nil
}

// likeMatch anchors the pattern at both ends: % matches any run (including
// empty), _ matches exactly one character.
func likeMatch(text, pattern string) bool {
	return likeMatchRunes([]rune(text), []rune(pattern))
}

func likeMatchRunes(text, pattern []rune) bool {
	if len(pattern) == 0 {
		return len(text) == 0
	}
	switch pattern[0] {
	case '%':
		if likeMatchRunes(text, pattern[1:]) {
			return true
		}
		for i := 0; i < len(text); i++ {
			if likeMatchRunes(text[i+1:], pattern[1:]) {
				return true
			}
		}
		return false
	case '_':
		if len(text) == 0 {
			return false
		}
		return likeMatchRunes(text[1:], pattern[1:])
	default:
		if len(text) == 0 || text[0] != pattern[0] {
			return false
		}
		return likeMatchRunes(text[1:], pattern[1:])
	}
}

// ExprToBool converts a non-null value to boolean truthiness: INT/FLOAT
// nonzero, STRING non-empty, BOOL as-is. NULL is handled by callers before
// reaching here (three-valued logic).
func ExprToBool(v catalog.Value) bool {
	switch v.Type {
	case catalog.TypeBool:
		return v.Bool
	case catalog.TypeInt32:
		return v.Int32 != 0
	case catalog.TypeFloat32:
		return v.Float != 0
	case catalog.TypeChar:
		return v.Text != ""
	default:
		return false
	}
}

// ToString produces the stable canonical rendering of an expression used
// as a result-set header label.
func ToString(node sql.Expr) string {
	switch n := node.(type) {
	case *sql.Literal:
		return n.Value.String()
	case *sql.ColumnRef:
		if n.Table != "" {
			return n.Table + "." + n.Column
		}
		return n.Column
	case *sql.Star:
		return "*"
	case *sql.UnaryOp:
		if n.Op == "IS NULL" {
			return ToString(n.Operand) + " IS NULL"
		}
		return n.Op + ToString(n.Operand)
	case *sql.BinaryOp:
		return ToString(n.Left) + " " + n.Op + " " + ToString(n.Right)
	case *sql.AggregateExpr:
		if n.Arg == nil {
			return n.Func + "(*)"
		}
		return n.Func + "(" + ToString(n.Arg) + ")"
	default:
		return "?"
	}
}
