package engine

import "github.com/JayabrataBasu/VeridicalDB/pkg/catalog"

// rowCache is a per-table mapping from column name to the most recently
// decoded value for the row currently under evaluation. Each Evaluator owns
// one instance (one per statement) and it is cleared at every statement
// boundary by a scoped guard, per spec's row-cache design note.
type rowCache struct {
	tables map[string]map[string]catalog.Value
}

func newRowCache() *rowCache {
	return &rowCache{tables: make(map[string]map[string]catalog.Value)}
}

// put stores the decoded value for table.column in the current row.
func (c *rowCache) put(table, column string, v catalog.Value) {
	cols, ok := c.tables[table]
	if !ok {
		cols = make(map[string]catalog.Value)
		c.tables[table] = cols
	}
	cols[column] = v
}

// get resolves a (possibly unqualified) column reference against the
// cache. If table is empty, the column must be unambiguous across every
// table currently populated.
func (c *rowCache) get(table, column string) (catalog.Value, bool) {
	if table != "" {
		cols, ok := c.tables[table]
		if !ok {
			return catalog.Value{}, false
		}
		v, ok := cols[column]
		return v, ok
	}

	var found catalog.Value
	count := 0
	for _, cols := range c.tables {
		if v, ok := cols[column]; ok {
			found = v
			count++
		}
	}
	if count != 1 {
		return catalog.Value{}, false
	}
	return found, true
}

// clear drops every cached column value. Bound to a scoped guard that runs
// on every exit path of a statement, including failure.
func (c *rowCache) clear() {
	c.tables = make(map[string]map[string]catalog.Value)
}

// clearGuard returns a function to defer at statement entry, guaranteeing
// the cache is cleared however the statement exits.
func (c *rowCache) clearGuard() func() {
	return func() { c.clear() }
}
