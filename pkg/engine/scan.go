package engine

import (
	"github.com/JayabrataBasu/VeridicalDB/pkg/catalog"
	"github.com/JayabrataBasu/VeridicalDB/pkg/sql"
	"github.com/JayabrataBasu/VeridicalDB/pkg/storage"
)

// RowFunc is invoked for each row a scan/join/plan produces once it has
// passed the predicate. Returning false stops iteration at the next row
// boundary (spec §5: no mid-row cancellation).
type RowFunc func(rid storage.RID) (bool, error)

// ScanTable performs a full sequential scan of table in insertion order,
// evaluating predicate per row (nil predicate matches every row) and
// invoking visit only for matching rows. An evaluator failure aborts the
// whole iteration and surfaces the error (§4.3).
func ScanTable(eval *Evaluator, t *Table, predicate sql.Expr, visit RowFunc) error {
	return t.Scan(func(rid storage.RID, values []catalog.Value) (bool, error) {
		if err := t.PopulateCache(eval, values); err != nil {
			return false, err
		}
		ok, err := evalPredicate(eval, predicate)
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}
		return visit(rid)
	})
}

// evalPredicate evaluates predicate (nil means "no predicate", always
// true) and reduces the result to boolean truthiness under three-valued
// logic: NULL is treated as false.
func evalPredicate(eval *Evaluator, predicate sql.Expr) (bool, error) {
	if predicate == nil {
		return true, nil
	}
	v, err := eval.Eval(predicate)
	if err != nil {
		return false, err
	}
	if v.IsNull {
		return false, nil
	}
	return ExprToBool(v), nil
}
