package engine

import (
	"fmt"

	"github.com/JayabrataBasu/VeridicalDB/pkg/catalog"
	"github.com/JayabrataBasu/VeridicalDB/pkg/sql"
	"github.com/JayabrataBasu/VeridicalDB/pkg/storage"
)

// resolveTables validates that every FROM entry names an existing table and
// builds the alias-or-name -> physical-name map used to rewrite column
// references before evaluation.
func resolveTables(db *Engine, from []sql.TableRef) ([]string, map[string]string, error) {
	names := make([]string, len(from))
	aliases := make(map[string]string, len(from))
	for i, ref := range from {
		if _, err := db.Table(ref.Name); err != nil {
			return nil, nil, err
		}
		names[i] = ref.Name
		label := ref.Name
		if ref.Alias != "" {
			label = ref.Alias
		}
		aliases[label] = ref.Name
	}
	return names, aliases, nil
}

// rewriteColumnRefs walks an expression tree, replacing any ColumnRef whose
// Table names an alias with the underlying physical table name, so the row
// cache (keyed by physical name) resolves it.
func rewriteColumnRefs(e sql.Expr, aliases map[string]string) {
	switch n := e.(type) {
	case *sql.ColumnRef:
		if phys, ok := aliases[n.Table]; ok {
			n.Table = phys
		}
	case *sql.UnaryOp:
		rewriteColumnRefs(n.Operand, aliases)
	case *sql.BinaryOp:
		rewriteColumnRefs(n.Left, aliases)
		rewriteColumnRefs(n.Right, aliases)
	case *sql.AggregateExpr:
		if n.Arg != nil {
			rewriteColumnRefs(n.Arg, aliases)
		}
	}
}

// driveRows runs visit once per row matching stmt's FROM/WHERE clause,
// picking the cheapest applicable strategy: a single-table scan, the
// two-table index join fast path, or the N-table planner.
func driveRows(eval *Evaluator, db *Engine, names []string, where sql.Expr, diagnostics *[]string, visit func() error) error {
	wrap := func() (bool, error) {
		if err := visit(); err != nil {
			return false, err
		}
		return true, nil
	}

	switch len(names) {
	case 0:
		return errSchema("SELECT requires at least one table")

	case 1:
		t, err := db.Table(names[0])
		if err != nil {
			return err
		}
		return ScanTable(eval, t, where, func(_ storage.RID) (bool, error) {
			if err := visit(); err != nil {
				return false, err
			}
			return true, nil
		})

	case 2:
		applied, err := TryTwoTableJoin(eval, db, names, where, wrap)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
		if diagnostics != nil {
			appendPlanDiagnostics(db, names, where, diagnostics)
		}
		return RunPlan(eval, db, names, where, wrap)

	default:
		if diagnostics != nil {
			appendPlanDiagnostics(db, names, where, diagnostics)
		}
		return RunPlan(eval, db, names, where, wrap)
	}
}

func appendPlanDiagnostics(db *Engine, names []string, where sql.Expr, diagnostics *[]string) {
	order, err := PlanIterationOrder(db, names, where)
	if err == nil {
		*diagnostics = append(*diagnostics, "[Info] Iteration order: "+joinStrings(order, " -> "))
	}
	uses, err := PlanIndexUse(db, names, where)
	if err == nil {
		label := "(none)"
		if len(uses) > 0 {
			label = joinStrings(uses, ", ")
		}
		*diagnostics = append(*diagnostics, "[Info] Index use: "+label)
	}
}

func joinStrings(ss []string, sep string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += sep
		}
		out += s
	}
	return out
}

// ExecuteSelect runs a SELECT (including the aggregate form) and builds the
// projected result set per §4.2/§4.6.
func ExecuteSelect(db *Engine, stmt *sql.SelectStmt) (*Result, error) {
	eval := NewEvaluator()
	defer eval.ClearGuard()()

	names, aliases, err := resolveTables(db, stmt.From)
	if err != nil {
		return nil, err
	}
	for _, p := range stmt.Projection {
		rewriteColumnRefs(p, aliases)
	}
	if stmt.Where != nil {
		rewriteColumnRefs(stmt.Where, aliases)
	}

	aggregateMode := len(stmt.Projection) == 1 && IsAggregate(stmt.Projection[0])
	if aggregateMode {
		return executeAggregateSelect(db, eval, names, stmt)
	}
	return executeProjectedSelect(db, eval, names, stmt)
}

func executeAggregateSelect(db *Engine, eval *Evaluator, names []string, stmt *sql.SelectStmt) (*Result, error) {
	aggExpr := stmt.Projection[0].(*sql.AggregateExpr)
	var diagnostics []string

	drive := func(visit func() error) error {
		return driveRows(eval, db, names, stmt.Where, &diagnostics, visit)
	}

	results, err := EvalAggregates(eval, []*sql.AggregateExpr{aggExpr}, drive)
	if err != nil {
		return nil, err
	}

	return &Result{
		Headers:     []string{ToString(aggExpr)},
		Rows:        [][]catalog.Value{results},
		Diagnostics: diagnostics,
		Message:     "[Info] 1 row(s) selected.",
	}, nil
}

func executeProjectedSelect(db *Engine, eval *Evaluator, names []string, stmt *sql.SelectStmt) (*Result, error) {
	star := len(stmt.Projection) == 0
	var headers []string
	var starCols [][2]string // (tableName, columnName) pairs, in order

	if star {
		for _, tn := range names {
			t, err := db.Table(tn)
			if err != nil {
				return nil, err
			}
			schema, err := t.Schema()
			if err != nil {
				return nil, err
			}
			for _, col := range schema.UserColumns() {
				headers = append(headers, tn+"."+col.Name)
				starCols = append(starCols, [2]string{tn, col.Name})
			}
		}
	} else {
		for _, e := range stmt.Projection {
			headers = append(headers, ToString(e))
		}
	}

	var rows [][]catalog.Value
	var diagnostics []string

	err := driveRows(eval, db, names, stmt.Where, &diagnostics, func() error {
		row := make([]catalog.Value, 0, len(headers))
		if star {
			for _, tc := range starCols {
				v, ok := eval.cache.get(tc[0], tc[1])
				if !ok {
					return errUnresolvedColumn(tc[0] + "." + tc[1])
				}
				row = append(row, v)
			}
		} else {
			for _, e := range stmt.Projection {
				v, err := eval.Eval(e)
				if err != nil {
					return err
				}
				row = append(row, v)
			}
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Headers:     headers,
		Rows:        rows,
		Diagnostics: diagnostics,
		Message:     fmt.Sprintf("[Info] %d row(s) selected.", len(rows)),
	}, nil
}
