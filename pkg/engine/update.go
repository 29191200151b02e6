package engine

import (
	"fmt"

	"github.com/JayabrataBasu/VeridicalDB/pkg/catalog"
	"github.com/JayabrataBasu/VeridicalDB/pkg/sql"
	"github.com/JayabrataBasu/VeridicalDB/pkg/storage"
)

// ExecuteUpdate iterates the single target table, overwriting the target
// column for every row matching the predicate. A per-row evaluation or
// type-check failure counts against that row only; the scan continues.
func ExecuteUpdate(db *Engine, stmt *sql.UpdateStmt) (*Result, error) {
	t, err := db.Table(stmt.Table)
	if err != nil {
		return nil, err
	}
	schema, err := t.Schema()
	if err != nil {
		return nil, err
	}
	col, colID := schema.ColumnByName(stmt.Column)
	if col == nil {
		return nil, errSchema("column %q does not exist on table %q", stmt.Column, stmt.Table)
	}

	eval := NewEvaluator()
	defer eval.ClearGuard()()

	// Rows are collected during the scan and rewritten after it, since the
	// scan holds the table manager's read lock for its whole duration.
	type pendingUpdate struct {
		rid storage.RID
		val catalog.Value
	}
	var pending []pendingUpdate

	succeeded, failed := 0, 0
	err = ScanTable(eval, t, stmt.Where, func(rid storage.RID) (bool, error) {
		newVal, evalErr := eval.Eval(stmt.Value)
		if evalErr != nil {
			failed++
			return true, nil
		}
		if !newVal.IsNull && newVal.Type != col.Type {
			failed++
			return true, nil
		}
		if newVal.IsNull && col.NotNull {
			failed++
			return true, nil
		}
		pending = append(pending, pendingUpdate{rid: rid, val: newVal})
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	for _, p := range pending {
		if err := t.ModifyRecord(p.rid, colID, p.val); err != nil {
			failed++
			continue
		}
		succeeded++
	}

	return &Result{
		Message: fmt.Sprintf("[Info] %d row(s) updated, %d failed.", succeeded, failed),
	}, nil
}
