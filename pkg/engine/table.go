package engine

import (
	"fmt"
	"sync"

	"github.com/JayabrataBasu/VeridicalDB/pkg/btree"
	"github.com/JayabrataBasu/VeridicalDB/pkg/catalog"
	"github.com/JayabrataBasu/VeridicalDB/pkg/storage"
)

// Table is the engine's storage-layer handle for one table: schema lookup,
// row cache population, index access, and the insert/remove/modify
// mutators the dispatchers drive. It wraps catalog.TableManager (heap +
// catalog) and btree.IndexManager (per-column indexes), and owns the
// hidden __rowid__ counter.
type Table struct {
	name string
	tm   *catalog.TableManager
	idx  *btree.IndexManager

	mu        sync.Mutex
	nextRowID int32
}

// newTable constructs a Table handle, scanning the heap once to recover
// the next __rowid__ value after a restart (rowids are never reused).
func newTable(name string, tm *catalog.TableManager, idx *btree.IndexManager) (*Table, error) {
	t := &Table{name: name, tm: tm, idx: idx}

	meta, err := tm.Catalog().GetTable(name)
	if err != nil {
		return nil, errCatalog(err, "table %q not found", name)
	}
	rowIDCol := meta.Schema.RowIDColumnID()

	max := int32(-1)
	err = tm.Scan(name, func(_ storage.RID, values []catalog.Value) (bool, error) {
		if values[rowIDCol].Int32 > max {
			max = values[rowIDCol].Int32
		}
		return true, nil
	})
	if err != nil {
		return nil, errStorage(err, "scan table %q to recover rowid counter", name)
	}
	t.nextRowID = max + 1
	return t, nil
}

// Name returns the table's name.
func (t *Table) Name() string { return t.name }

// Schema returns the table's schema, including the hidden __rowid__ column.
func (t *Table) Schema() (*catalog.Schema, error) {
	meta, err := t.tm.Catalog().GetTable(t.name)
	if err != nil {
		return nil, errCatalog(err, "table %q not found", t.name)
	}
	return meta.Schema, nil
}

// LookupColumn resolves a column name to its ordinal index, or -1.
func (t *Table) LookupColumn(name string) (int, error) {
	schema, err := t.Schema()
	if err != nil {
		return -1, err
	}
	_, idx := schema.ColumnByName(name)
	return idx, nil
}

// GetColumnType returns the type of the column at the given index.
func (t *Table) GetColumnType(colID int) (catalog.DataType, error) {
	schema, err := t.Schema()
	if err != nil {
		return catalog.TypeUnknown, err
	}
	if colID < 0 || colID >= len(schema.Columns) {
		return catalog.TypeUnknown, errSchema("column index %d out of range", colID)
	}
	return schema.Columns[colID].Type, nil
}

// GetColumnNum returns the number of columns, including the hidden
// __rowid__ column.
func (t *Table) GetColumnNum() (int, error) {
	schema, err := t.Schema()
	if err != nil {
		return 0, err
	}
	return len(schema.Columns), nil
}

// indexName derives the on-disk index identifier for a column of this
// table: one B+ tree per indexed column.
func (t *Table) indexName(column string) string {
	return fmt.Sprintf("%s_%s", t.name, column)
}

// GetIndex returns the index manager handle for a column's index, or nil
// if the column has no index.
func (t *Table) GetIndex(column string) (*btree.IndexMeta, error) {
	schema, err := t.Schema()
	if err != nil {
		return nil, err
	}
	col, _ := schema.ColumnByName(column)
	if col == nil || !col.HasIndex {
		return nil, nil
	}
	meta, err := t.idx.GetIndex(t.indexName(column))
	if err != nil {
		return nil, errIndex(err, "index for %s.%s", t.name, column)
	}
	return meta, nil
}

// CacheRecord decodes every column of a row into the named cache entry
// under the given evaluator.
func (t *Table) CacheRecord(eval *Evaluator, rid storage.RID) error {
	schema, err := t.Schema()
	if err != nil {
		return err
	}
	values, err := t.tm.Fetch(t.name, rid)
	if err != nil {
		return errStorage(err, "fetch row %s", rid)
	}
	cached := make(map[string]catalog.Value, len(schema.Columns))
	for i, col := range schema.Columns {
		cached[col.Name] = values[i]
	}
	eval.CacheRow(t.name, cached)
	return nil
}

// PopulateCache stores already-decoded column values into the evaluator's
// row cache for this table, without re-fetching from storage. Used by
// iteration (scan.go, join.go, planner.go) which already has the decoded
// row in hand from a Scan/LowerBoundRIDs callback.
func (t *Table) PopulateCache(eval *Evaluator, values []catalog.Value) error {
	schema, err := t.Schema()
	if err != nil {
		return err
	}
	cached := make(map[string]catalog.Value, len(schema.Columns))
	for i, col := range schema.Columns {
		cached[col.Name] = values[i]
	}
	eval.CacheRow(t.name, cached)
	return nil
}

// FetchValues decodes the full row at rid without touching the cache.
func (t *Table) FetchValues(rid storage.RID) ([]catalog.Value, error) {
	values, err := t.tm.Fetch(t.name, rid)
	if err != nil {
		return nil, errStorage(err, "fetch row %s", rid)
	}
	return values, nil
}

// InsertRecord assigns the hidden __rowid__, type-checks and encodes the
// row, appends it to the heap, and updates every indexed column.
func (t *Table) InsertRecord(values []catalog.Value) (storage.RID, error) {
	t.mu.Lock()
	rowID := t.nextRowID
	t.nextRowID++
	t.mu.Unlock()

	schema, err := t.Schema()
	if err != nil {
		return storage.RID{}, err
	}
	full := make([]catalog.Value, len(schema.Columns))
	copy(full, values)
	full[schema.RowIDColumnID()] = catalog.NewInt32(rowID)

	rid, err := t.tm.Insert(t.name, full)
	if err != nil {
		return storage.RID{}, errStorage(err, "insert into %q", t.name)
	}

	for i, col := range schema.Columns {
		if !col.HasIndex {
			continue
		}
		key, err := encodeIndexKey(full[i])
		if err != nil {
			return rid, err
		}
		if err := t.idx.Insert(t.indexName(col.Name), key, rid); err != nil {
			return rid, errIndex(err, "update index %s.%s", t.name, col.Name)
		}
	}
	return rid, nil
}

// RemoveRecord deletes a row from the heap and every index entry it
// participates in.
func (t *Table) RemoveRecord(rid storage.RID) error {
	schema, err := t.Schema()
	if err != nil {
		return err
	}
	values, err := t.tm.Fetch(t.name, rid)
	if err != nil {
		return errStorage(err, "fetch row %s before delete", rid)
	}
	for i, col := range schema.Columns {
		if !col.HasIndex {
			continue
		}
		key, err := encodeIndexKey(values[i])
		if err != nil {
			return err
		}
		if err := t.idx.DeleteRID(t.indexName(col.Name), key, rid); err != nil && err != btree.ErrKeyNotFound {
			return errIndex(err, "remove index entry %s.%s", t.name, col.Name)
		}
	}
	if err := t.tm.Delete(rid); err != nil {
		return errStorage(err, "delete row %s", rid)
	}
	return nil
}

// ModifyRecord overwrites a single column's value for rid, keeping the
// index for that column (if any) consistent.
func (t *Table) ModifyRecord(rid storage.RID, colID int, newValue catalog.Value) error {
	schema, err := t.Schema()
	if err != nil {
		return err
	}
	if colID < 0 || colID >= len(schema.Columns) {
		return errSchema("column index %d out of range", colID)
	}
	values, err := t.tm.Fetch(t.name, rid)
	if err != nil {
		return errStorage(err, "fetch row %s before update", rid)
	}
	col := schema.Columns[colID]

	if col.HasIndex {
		oldKey, err := encodeIndexKey(values[colID])
		if err != nil {
			return err
		}
		if err := t.idx.DeleteRID(t.indexName(col.Name), oldKey, rid); err != nil && err != btree.ErrKeyNotFound {
			return errIndex(err, "remove stale index entry %s.%s", t.name, col.Name)
		}
	}

	values[colID] = newValue
	if err := t.tm.Update(t.name, rid, values); err != nil {
		return errStorage(err, "update row %s", rid)
	}

	if col.HasIndex {
		newKey, err := encodeIndexKey(newValue)
		if err != nil {
			return err
		}
		if err := t.idx.Insert(t.indexName(col.Name), newKey, rid); err != nil {
			return errIndex(err, "insert updated index entry %s.%s", t.name, col.Name)
		}
	}
	return nil
}

// ValueExists reports whether any live row has the given value in column
// column. Uses the column's index when available; otherwise scans.
func (t *Table) ValueExists(column string, v catalog.Value) (bool, error) {
	schema, err := t.Schema()
	if err != nil {
		return false, err
	}
	col, colID := schema.ColumnByName(column)
	if col == nil {
		return false, errSchema("column %q not found on table %q", column, t.name)
	}

	if col.HasIndex {
		key, err := encodeIndexKey(v)
		if err != nil {
			return false, err
		}
		rids, err := t.idx.SearchAll(t.indexName(column), key)
		if err != nil {
			if err == btree.ErrKeyNotFound {
				return false, nil
			}
			return false, errIndex(err, "lookup %s.%s", t.name, column)
		}
		return len(rids) > 0, nil
	}

	found := false
	err = t.tm.Scan(t.name, func(_ storage.RID, values []catalog.Value) (bool, error) {
		cmp, err := compareValues(values[colID], v)
		if err == nil && cmp == 0 {
			found = true
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return false, errStorage(err, "scan table %q", t.name)
	}
	return found, nil
}

// BuildIndex scans every record and populates a fresh B+ tree index for
// column, used by CREATE INDEX.
func (t *Table) BuildIndex(column string) error {
	schema, err := t.Schema()
	if err != nil {
		return err
	}
	col, colID := schema.ColumnByName(column)
	if col == nil {
		return errSchema("column %q not found on table %q", column, t.name)
	}

	name := t.indexName(column)
	if err := t.idx.CreateIndex(btree.IndexMeta{
		Name:      name,
		TableName: t.name,
		Columns:   []string{column},
		Unique:    col.PrimaryKey,
	}); err != nil {
		return errIndex(err, "create index on %s.%s", t.name, column)
	}

	err = t.tm.Scan(t.name, func(rid storage.RID, values []catalog.Value) (bool, error) {
		key, err := encodeIndexKey(values[colID])
		if err != nil {
			return false, err
		}
		if err := t.idx.Insert(name, key, rid); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return errIndex(err, "populate index on %s.%s", t.name, column)
	}

	col.HasIndex = true
	meta, err := t.tm.Catalog().GetTable(t.name)
	if err != nil {
		return errCatalog(err, "table %q not found", t.name)
	}
	meta.Columns[colID].HasIndex = true
	return t.tm.Catalog().UpdateTable(meta)
}

// DropIndex removes a column's B+ tree and clears its HasIndex flag.
func (t *Table) DropIndex(column string) error {
	schema, err := t.Schema()
	if err != nil {
		return err
	}
	col, colID := schema.ColumnByName(column)
	if col == nil || !col.HasIndex {
		return errSchema("column %q has no index on table %q", column, t.name)
	}
	if err := t.idx.DropIndex(t.indexName(column)); err != nil {
		return errIndex(err, "drop index on %s.%s", t.name, column)
	}

	meta, err := t.tm.Catalog().GetTable(t.name)
	if err != nil {
		return errCatalog(err, "table %q not found", t.name)
	}
	meta.Columns[colID].HasIndex = false
	return t.tm.Catalog().UpdateTable(meta)
}

// Scan visits every live row in insertion order.
func (t *Table) Scan(fn func(rid storage.RID, values []catalog.Value) (bool, error)) error {
	return t.tm.Scan(t.name, fn)
}

// LowerBoundRIDs returns every RID whose index key is >= startKey, in
// key-then-insertion order (SearchRange already sorts by key; ties within
// a key are in insertion order because inserts append after existing
// equal-key entries, see pkg/btree.insertIntoLeaf).
func (t *Table) LowerBoundRIDs(column string, startKey []byte) ([]storage.RID, error) {
	rids, err := t.idx.SearchRange(t.indexName(column), startKey, nil)
	if err != nil {
		return nil, errIndex(err, "range scan %s.%s", t.name, column)
	}
	return rids, nil
}

// encodeIndexKey converts a value into the byte key used by the B+ tree,
// ordering numerics so comparisons stay correct across the tree.
func encodeIndexKey(v catalog.Value) ([]byte, error) {
	switch v.Type {
	case catalog.TypeInt32:
		return btree.EncodeIntKey(int64(v.Int32)), nil
	case catalog.TypeFloat32:
		return btree.EncodeIntKey(int64(v.Float * 1000)), nil
	case catalog.TypeChar:
		return btree.EncodeStringKey(v.Text), nil
	case catalog.TypeBool:
		if v.Bool {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case catalog.TypeDate:
		return btree.EncodeIntKey(v.Date.Unix()), nil
	default:
		return nil, errTypeMismatch("cannot index value of type %s", v.Type)
	}
}
