package engine

import (
	"fmt"

	"github.com/JayabrataBasu/VeridicalDB/pkg/sql"
	"github.com/JayabrataBasu/VeridicalDB/pkg/storage"
)

// ExecuteDelete removes every row matching the predicate, in two phases
// per §4.2: a read-only collection pass, then a delete pass (mutating the
// heap mid-scan is undefined, so the scan must finish first). The delete
// pass stops at the first failing row and returns its error; rows removed
// before it stay removed.
func ExecuteDelete(db *Engine, stmt *sql.DeleteStmt) (*Result, error) {
	t, err := db.Table(stmt.Table)
	if err != nil {
		return nil, err
	}

	eval := NewEvaluator()
	defer eval.ClearGuard()()

	var rids []storage.RID
	err = ScanTable(eval, t, stmt.Where, func(rid storage.RID) (bool, error) {
		rids = append(rids, rid)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	removed := 0
	for _, rid := range rids {
		if err := t.RemoveRecord(rid); err != nil {
			return nil, err
		}
		removed++
	}

	return &Result{
		Message: fmt.Sprintf("[Info] %d row(s) deleted.", removed),
	}, nil
}
