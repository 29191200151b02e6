package engine

import (
	"sort"

	"github.com/JayabrataBasu/VeridicalDB/pkg/catalog"
	"github.com/JayabrataBasu/VeridicalDB/pkg/sql"
	"github.com/JayabrataBasu/VeridicalDB/pkg/storage"
)

// maxPlannerTables bounds the N-table planner's DFS, which is O(k!) in
// the worst case over k required tables (spec §9, "Longest-path search").
const maxPlannerTables = 16

// planEdge is a directed join-graph edge: walking table `from`'s fromCol
// value lets the engine probe table `to`'s index on toCol.
type planEdge struct {
	to               int
	fromCol, toCol   string
}

// planStep is one level of the nested iteration the planner builds.
type planStep struct {
	table     string
	indexed   bool
	probeCol  string // column on this table's index to probe (if indexed)
	viaTable  string // the outer table supplying the probe value
	viaCol    string // the column on viaTable supplying the probe value
}

// extractJoinEdges builds the directed join graph: for every `a.x = b.y`
// conjunct where at least one side is indexed, add edge(s) oriented so
// that walking the non-indexed (or either) side feeds a lookup on the
// indexed side.
func extractJoinEdges(db *Engine, tableNames []string, conjuncts []sql.Expr) (map[int][]planEdge, error) {
	idx := make(map[string]int, len(tableNames))
	for i, n := range tableNames {
		idx[n] = i
	}
	handles := make(map[string]*Table, len(tableNames))
	for _, n := range tableNames {
		t, err := db.Table(n)
		if err != nil {
			return nil, err
		}
		handles[n] = t
	}

	edges := make(map[int][]planEdge)
	for _, c := range conjuncts {
		bin, ok := c.(*sql.BinaryOp)
		if !ok || bin.Op != "=" {
			continue
		}
		lc, lok := bin.Left.(*sql.ColumnRef)
		rc, rok := bin.Right.(*sql.ColumnRef)
		if !lok || !rok || lc.Table == "" || rc.Table == "" {
			continue
		}
		li, liok := idx[lc.Table]
		ri, riok := idx[rc.Table]
		if !liok || !riok || li == ri {
			continue
		}
		lIndexed, err := hasIndex(handles[lc.Table], lc.Column)
		if err != nil {
			return nil, err
		}
		rIndexed, err := hasIndex(handles[rc.Table], rc.Column)
		if err != nil {
			return nil, err
		}
		if rIndexed {
			edges[li] = append(edges[li], planEdge{to: ri, fromCol: lc.Column, toCol: rc.Column})
		}
		if lIndexed {
			edges[ri] = append(edges[ri], planEdge{to: li, fromCol: rc.Column, toCol: lc.Column})
		}
	}
	return edges, nil
}

type pathResult struct {
	vertices []int
	edges    []planEdge // edges[i] connects vertices[i] -> vertices[i+1]
}

// longestPath performs bounded DFS from every start vertex (ascending)
// to find the longest simple path through the join graph, exploring
// outgoing edges in ascending destination-vertex order so that ties
// resolve deterministically to the lowest-indexed vertex and edge
// (spec §4.5 step 2 and §9's determinism requirement).
func longestPath(k int, edgesByVertex map[int][]planEdge) pathResult {
	best := pathResult{}
	for start := 0; start < k; start++ {
		visited := make([]bool, k)
		visited[start] = true
		cur := extendPath(pathResult{vertices: []int{start}}, visited, edgesByVertex)
		if len(cur.vertices) > len(best.vertices) {
			best = cur
		}
	}
	return best
}

func extendPath(cur pathResult, visited []bool, edgesByVertex map[int][]planEdge) pathResult {
	best := cur
	last := cur.vertices[len(cur.vertices)-1]
	es := append([]planEdge(nil), edgesByVertex[last]...)
	sort.Slice(es, func(i, j int) bool { return es[i].to < es[j].to })

	for _, e := range es {
		if visited[e.to] {
			continue
		}
		visited[e.to] = true
		next := pathResult{
			vertices: append(append([]int(nil), cur.vertices...), e.to),
			edges:    append(append([]planEdge(nil), cur.edges...), e),
		}
		candidate := extendPath(next, visited, edgesByVertex)
		if len(candidate.vertices) > len(best.vertices) {
			best = candidate
		}
		visited[e.to] = false
	}
	return best
}

// buildPlan computes the full nested iteration order for tableNames under
// predicate: the longest index-connected path first (outermost table
// first, as in the worked three-table example: edges C->B, B->A yield
// order C,B,A with C scanned and B,A index-probed), then any tables the
// path didn't reach, appended in their original order and full-scanned.
func buildPlan(db *Engine, tableNames []string, predicate sql.Expr) ([]planStep, error) {
	if len(tableNames) > maxPlannerTables {
		return nil, errSchema("query requires %d tables, exceeding the %d-table planner limit", len(tableNames), maxPlannerTables)
	}

	edges, err := extractJoinEdges(db, tableNames, decomposeAnd(predicate))
	if err != nil {
		return nil, err
	}
	best := longestPath(len(tableNames), edges)

	inPath := make(map[int]bool, len(best.vertices))
	for _, v := range best.vertices {
		inPath[v] = true
	}
	order := append([]int(nil), best.vertices...)
	for i := range tableNames {
		if !inPath[i] {
			order = append(order, i)
		}
	}

	steps := make([]planStep, len(order))
	for i, vid := range order {
		steps[i] = planStep{table: tableNames[vid]}
		if i > 0 && i <= len(best.edges) {
			e := best.edges[i-1]
			steps[i].indexed = true
			steps[i].probeCol = e.toCol
			steps[i].viaCol = e.fromCol
			steps[i].viaTable = tableNames[order[i-1]]
		}
	}
	return steps, nil
}

// PlanIterationOrder exposes the chosen table nesting order for
// diagnostics (`[Info] Iteration order: ...`).
func PlanIterationOrder(db *Engine, tableNames []string, predicate sql.Expr) ([]string, error) {
	steps, err := buildPlan(db, tableNames, predicate)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.table
	}
	return names, nil
}

// PlanIndexUse exposes the "table.column" probes the plan performs, in
// nesting order, for diagnostics (`[Info] Index use: ...`).
func PlanIndexUse(db *Engine, tableNames []string, predicate sql.Expr) ([]string, error) {
	steps, err := buildPlan(db, tableNames, predicate)
	if err != nil {
		return nil, err
	}
	var uses []string
	for _, s := range steps {
		if s.indexed {
			uses = append(uses, s.table+"."+s.probeCol)
		}
	}
	return uses, nil
}

// RunPlan drives the nested iteration described by buildPlan, evaluating
// the full predicate at the innermost level before invoking visit
// (§4.5 steps 5-6).
func RunPlan(eval *Evaluator, db *Engine, tableNames []string, predicate sql.Expr, visit VisitFunc) error {
	steps, err := buildPlan(db, tableNames, predicate)
	if err != nil {
		return err
	}
	handles := make([]*Table, len(steps))
	for i, s := range steps {
		t, err := db.Table(s.table)
		if err != nil {
			return err
		}
		handles[i] = t
	}

	stopped := false
	var recurse func(level int) error
	recurse = func(level int) error {
		if stopped {
			return nil
		}
		if level == len(steps) {
			ok, err := evalPredicate(eval, predicate)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			cont, err := visit()
			if err != nil {
				return err
			}
			if !cont {
				stopped = true
			}
			return nil
		}

		step := steps[level]
		t := handles[level]

		if !step.indexed {
			return t.Scan(func(_ storage.RID, values []catalog.Value) (bool, error) {
				if err := t.PopulateCache(eval, values); err != nil {
					return false, err
				}
				if err := recurse(level + 1); err != nil {
					return false, err
				}
				return !stopped, nil
			})
		}

		outerVal, ok := eval.cache.get(step.viaTable, step.viaCol)
		if !ok || outerVal.IsNull {
			return nil
		}
		key, err := encodeIndexKey(outerVal)
		if err != nil {
			return err
		}
		rids, err := t.LowerBoundRIDs(step.probeCol, key)
		if err != nil {
			return err
		}
		schema, err := t.Schema()
		if err != nil {
			return err
		}
		_, probeColID := schema.ColumnByName(step.probeCol)

		for _, rid := range rids {
			if stopped {
				break
			}
			values, err := t.FetchValues(rid)
			if err != nil {
				return err
			}
			cmp, err := compareValues(values[probeColID], outerVal)
			if err != nil {
				return err
			}
			if cmp != 0 {
				break
			}
			if err := t.PopulateCache(eval, values); err != nil {
				return err
			}
			if err := recurse(level + 1); err != nil {
				return err
			}
		}
		return nil
	}

	return recurse(0)
}
