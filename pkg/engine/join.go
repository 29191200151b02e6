package engine

import (
	"github.com/JayabrataBasu/VeridicalDB/pkg/catalog"
	"github.com/JayabrataBasu/VeridicalDB/pkg/sql"
	"github.com/JayabrataBasu/VeridicalDB/pkg/storage"
)

// VisitFunc is invoked once per row tuple produced by a join or the
// N-table planner, after the full predicate has already been checked and
// every participating table's row is cached. Unlike single-table scans,
// multi-table iteration never feeds UPDATE/DELETE (those are always
// single-table per the statement grammar), so no rid is threaded through.
type VisitFunc func() (bool, error)

// decomposeAnd flattens a conjunction into its top-level AND operands.
// A nil predicate decomposes to an empty list.
func decomposeAnd(e sql.Expr) []sql.Expr {
	if e == nil {
		return nil
	}
	if bin, ok := e.(*sql.BinaryOp); ok && bin.Op == "AND" {
		return append(decomposeAnd(bin.Left), decomposeAnd(bin.Right)...)
	}
	return []sql.Expr{e}
}

// equiJoinClause describes one `a.x = b.y` conjunct.
type equiJoinClause struct {
	leftTable, leftCol   string
	rightTable, rightCol string
}

// findEquiJoin scans conjuncts for an equality between column refs on
// table a and table b (in either order).
func findEquiJoin(conjuncts []sql.Expr, a, b string) (equiJoinClause, bool) {
	for _, c := range conjuncts {
		bin, ok := c.(*sql.BinaryOp)
		if !ok || bin.Op != "=" {
			continue
		}
		lc, lok := bin.Left.(*sql.ColumnRef)
		rc, rok := bin.Right.(*sql.ColumnRef)
		if !lok || !rok {
			continue
		}
		if lc.Table == a && rc.Table == b {
			return equiJoinClause{a, lc.Column, b, rc.Column}, true
		}
		if lc.Table == b && rc.Table == a {
			return equiJoinClause{a, rc.Column, b, lc.Column}, true
		}
	}
	return equiJoinClause{}, false
}

// TryTwoTableJoin implements §4.4: when exactly two tables are required
// and an indexed equi-join clause connects them, drive the outer (non-
// indexed, or either if both indexed) table by scan and the inner
// (indexed) table by lower-bound probe. Returns applied=false if no such
// clause exists, so callers fall back to the N-table planner.
func TryTwoTableJoin(eval *Evaluator, db *Engine, tables []string, predicate sql.Expr, visit VisitFunc) (applied bool, err error) {
	if len(tables) != 2 {
		return false, nil
	}
	a, b := tables[0], tables[1]
	clause, ok := findEquiJoin(decomposeAnd(predicate), a, b)
	if !ok {
		return false, nil
	}

	ta, err := db.Table(a)
	if err != nil {
		return false, err
	}
	tb, err := db.Table(b)
	if err != nil {
		return false, err
	}

	aIndexed, err := hasIndex(ta, clause.leftCol)
	if err != nil {
		return false, err
	}
	bIndexed, err := hasIndex(tb, clause.rightCol)
	if err != nil {
		return false, err
	}
	if !aIndexed && !bIndexed {
		return false, nil
	}

	outer, inner := ta, tb
	outerCol, innerCol := clause.leftCol, clause.rightCol
	if !bIndexed {
		// only a is indexed from b's perspective is impossible here since
		// we already required at least one side indexed; if b isn't
		// indexed, a must be, so invert orientation (scan b, probe a).
		outer, inner = tb, ta
		outerCol, innerCol = clause.rightCol, clause.leftCol
	}

	return joinDrive(eval, outer, inner, outerCol, innerCol, predicate, visit)
}

func hasIndex(t *Table, column string) (bool, error) {
	schema, err := t.Schema()
	if err != nil {
		return false, err
	}
	col, _ := schema.ColumnByName(column)
	return col != nil && col.HasIndex, nil
}

// joinDrive scans outer, and for each outer row probes inner's index at
// outer's key, consuming matches in key order until the first mismatch
// (the monotone break the spec relies on), evaluating the full predicate
// on every candidate pair before invoking visit.
func joinDrive(eval *Evaluator, outer, inner *Table, outerCol, innerCol string, predicate sql.Expr, visit VisitFunc) (bool, error) {
	stopAll := false
	scanErr := outer.Scan(func(_ storage.RID, outerValues []catalog.Value) (bool, error) {
		if err := outer.PopulateCache(eval, outerValues); err != nil {
			return false, err
		}
		outerSchema, err := outer.Schema()
		if err != nil {
			return false, err
		}
		_, outerColID := outerSchema.ColumnByName(outerCol)
		outerKeyVal := outerValues[outerColID]
		if outerKeyVal.IsNull {
			return true, nil
		}
		key, err := encodeIndexKey(outerKeyVal)
		if err != nil {
			return false, err
		}

		rids, err := inner.LowerBoundRIDs(innerCol, key)
		if err != nil {
			return false, err
		}
		innerSchema, err := inner.Schema()
		if err != nil {
			return false, err
		}
		_, innerColID := innerSchema.ColumnByName(innerCol)

		for _, rid := range rids {
			innerValues, err := inner.FetchValues(rid)
			if err != nil {
				return false, err
			}
			cmp, err := compareValues(innerValues[innerColID], outerKeyVal)
			if err != nil {
				return false, err
			}
			if cmp != 0 {
				break // index ordering guarantees no more matches follow
			}
			if err := inner.PopulateCache(eval, innerValues); err != nil {
				return false, err
			}
			ok, err := evalPredicate(eval, predicate)
			if err != nil {
				return false, err
			}
			if !ok {
				continue
			}
			cont, err := visit()
			if err != nil {
				return false, err
			}
			if !cont {
				stopAll = true
				return false, nil
			}
		}
		return !stopAll, nil
	})
	if scanErr != nil {
		return true, scanErr
	}
	return true, nil
}
