package engine

import (
	"fmt"

	"github.com/JayabrataBasu/VeridicalDB/pkg/catalog"
	"github.com/JayabrataBasu/VeridicalDB/pkg/sql"
)

// ExecuteInsert evaluates and appends each value tuple per §4.2: a tuple
// with the wrong arity or an incompatible value fails that tuple alone
// (counted as a failure) and the statement continues with the rest.
func ExecuteInsert(db *Engine, stmt *sql.InsertStmt) (*Result, error) {
	t, err := db.Table(stmt.Table)
	if err != nil {
		return nil, err
	}
	schema, err := t.Schema()
	if err != nil {
		return nil, err
	}
	userCols := schema.UserColumns()

	targetCols := stmt.Columns
	if len(targetCols) == 0 {
		targetCols = make([]string, len(userCols))
		for i, c := range userCols {
			targetCols[i] = c.Name
		}
	}

	colIndex := make(map[string]int, len(schema.Columns))
	for i, c := range schema.Columns {
		colIndex[c.Name] = i
	}

	eval := NewEvaluator()
	defer eval.ClearGuard()()

	succeeded, failed := 0, 0
	for _, rowExprs := range stmt.Rows {
		if err := insertOneRow(t, schema, colIndex, targetCols, eval, rowExprs); err != nil {
			failed++
			continue
		}
		succeeded++
	}

	return &Result{
		Message: fmt.Sprintf("[Info] %d row(s) inserted, %d failed.", succeeded, failed),
	}, nil
}

func insertOneRow(t *Table, schema *catalog.Schema, colIndex map[string]int, targetCols []string, eval *Evaluator, rowExprs []sql.Expr) error {
	if len(rowExprs) != len(targetCols) {
		return errSchema("expected %d values, got %d", len(targetCols), len(rowExprs))
	}

	full := make([]catalog.Value, len(schema.Columns))
	for i, col := range schema.Columns {
		if col.HasDefault && col.Default != nil {
			full[i] = *col.Default
		} else {
			full[i] = catalog.Null(col.Type)
		}
	}

	for i, name := range targetCols {
		idx, ok := colIndex[name]
		if !ok {
			return errSchema("column %q does not exist on table %q", name, t.Name())
		}
		v, err := eval.Eval(rowExprs[i])
		if err != nil {
			return err
		}
		col := schema.Columns[idx]
		if !v.IsNull && v.Type != col.Type {
			return errTypeMismatch("column %q expects %s, got %s", name, col.Type, v.Type)
		}
		if v.IsNull && col.NotNull {
			return errSchema("column %q does not allow NULL", name)
		}
		full[idx] = v
	}

	for idx, col := range schema.Columns {
		if !col.PrimaryKey {
			continue
		}
		exists, err := t.ValueExists(col.Name, full[idx])
		if err != nil {
			return err
		}
		if exists {
			return errConstraint("duplicate value %s for primary key column %q", full[idx], col.Name)
		}
	}

	_, err := t.InsertRecord(full)
	return err
}
