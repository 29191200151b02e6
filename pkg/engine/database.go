package engine

import (
	"path/filepath"
	"sync"

	"github.com/JayabrataBasu/VeridicalDB/internal/logger"
	"github.com/JayabrataBasu/VeridicalDB/pkg/btree"
	"github.com/JayabrataBasu/VeridicalDB/pkg/catalog"
)

// Engine is the single open database instance a statement dispatcher acts
// against. Exactly one database is open at a time (spec's concurrency
// model: single-threaded, one database per engine instance).
type Engine struct {
	mu       sync.Mutex
	dbm      *catalog.DatabaseManager
	pageSize int

	current    string
	tm         *catalog.TableManager
	idx        *btree.IndexManager
	tableCache map[string]*Table
	log        *logger.Logger
}

// NewEngine creates an engine rooted at dataDir, opening (or creating) the
// default database.
func NewEngine(dataDir string, pageSize int) (*Engine, error) {
	dbm, err := catalog.NewDatabaseManager(dataDir)
	if err != nil {
		return nil, errCatalog(err, "open database manager")
	}
	e := &Engine{dbm: dbm, pageSize: pageSize}
	if err := e.useDatabase("default"); err != nil {
		return nil, err
	}
	return e, nil
}

// SetLogger attaches a logger for structural events: catalog load/save,
// index rebuild, and heap file creation. A nil logger (the default)
// disables these log calls.
func (e *Engine) SetLogger(log *logger.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = log
	e.dbm.SetLogger(log)
}

// CurrentDatabase returns the name of the open database.
func (e *Engine) CurrentDatabase() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// useDatabase switches the open database, discarding cached table handles.
func (e *Engine) useDatabase(name string) error {
	if !e.dbm.DatabaseExists(name) {
		return errCatalog(nil, "database %q does not exist", name)
	}
	cat, err := e.dbm.GetCatalog(name)
	if err != nil {
		return errCatalog(err, "open catalog for %q", name)
	}
	dbPath, err := e.dbm.GetDatabasePath(name)
	if err != nil {
		return errCatalog(err, "resolve path for %q", name)
	}

	newTM, err := catalog.NewTableManagerWithCatalog(cat, dbPath, e.pageSize)
	if err != nil {
		return errStorage(err, "open table manager for %q", name)
	}
	idx, err := btree.NewIndexManager(filepath.Join(dbPath, "indexes"), e.pageSize)
	if err != nil {
		return errIndex(err, "open index manager for %q", name)
	}

	e.current = name
	e.tm = newTM
	e.idx = idx
	e.tableCache = make(map[string]*Table)
	return nil
}

// UseDatabase is the dispatcher-facing entry for USE <name>. If the target
// database was created with an owner credential, password must match it.
func (e *Engine) UseDatabase(name, password string) error {
	if err := e.dbm.AuthenticateOwner(name, password); err != nil {
		return errCatalog(err, "authenticate database %q", name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.useDatabase(name)
}

// CreateDatabase creates a new database, optionally owned by owner and
// protected by password (hashed with bcrypt, never stored in the clear).
func (e *Engine) CreateDatabase(name, owner, password string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.dbm.CreateDatabase(name, owner, password)
	if err != nil {
		return errCatalog(err, "create database %q", name)
	}
	return nil
}

// DropDatabase removes a database other than the one currently open.
func (e *Engine) DropDatabase(name string, ifExists bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if name == e.current {
		return errCatalog(nil, "cannot drop the currently open database %q", name)
	}
	if err := e.dbm.DropDatabase(name, ifExists); err != nil {
		return errCatalog(err, "drop database %q", name)
	}
	return nil
}

// ListDatabases returns every known database name.
func (e *Engine) ListDatabases() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dbm.ListDatabases()
}

// ListTables returns every table name in the open database.
func (e *Engine) ListTables() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tm.ListTables()
}

// Table resolves (and caches) an engine Table handle by name.
func (e *Engine) Table(name string) (*Table, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tableLocked(name)
}

func (e *Engine) tableLocked(name string) (*Table, error) {
	if t, ok := e.tableCache[name]; ok {
		return t, nil
	}
	if _, err := e.tm.Catalog().GetTable(name); err != nil {
		return nil, errSchema("table %q does not exist", name)
	}
	t, err := newTable(name, e.tm, e.idx)
	if err != nil {
		return nil, err
	}
	e.tableCache[name] = t
	return t, nil
}

// CreateTable registers a new table with the given columns. Any PRIMARY
// KEY column gets a unique B+ tree index built immediately, matching the
// hidden __rowid__ index every table already carries.
func (e *Engine) CreateTable(name string, cols []catalog.Column) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.tm.CreateTable(name, cols); err != nil {
		return errSchema("create table %q: %v", name, err)
	}
	_ = e.dbm.RecordTableCreated(e.current, name)
	if e.log != nil {
		e.log.Info("heap file created", "database", e.current, "table", name)
	}

	rt, err := e.tableLocked(name)
	if err != nil {
		return errSchema("build rowid index on %q: %v", name, err)
	}
	if err := e.idx.CreateIndex(btree.IndexMeta{
		Name:      rt.indexName(catalog.RowIDColumn),
		TableName: name,
		Columns:   []string{catalog.RowIDColumn},
		Unique:    true,
	}); err != nil {
		return errIndex(err, "create rowid index on %q", name)
	}

	for _, col := range cols {
		if !col.PrimaryKey {
			continue
		}
		t, err := e.tableLocked(name)
		if err != nil {
			return errSchema("build primary key index on %q: %v", name, err)
		}
		if err := t.BuildIndex(col.Name); err != nil {
			return errIndex(err, "build primary key index on %s.%s", name, col.Name)
		}
		if e.log != nil {
			e.log.Info("index rebuilt", "database", e.current, "table", name, "column", col.Name, "reason", "primary key")
		}
	}
	return nil
}

// DropTable removes a table. DROP unlinks the heap and index files rather
// than tombstoning them, matching this engine's append-only, no-recovery
// storage model (spec's open question on DROP semantics).
func (e *Engine) DropTable(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	meta, err := e.tm.Catalog().GetTable(name)
	if err != nil {
		return errSchema("table %q does not exist", name)
	}
	t, err := e.tableLocked(name)
	if err == nil {
		for _, col := range meta.Columns {
			if col.HasIndex {
				_ = e.idx.DropIndex(t.indexName(col.Name))
			}
		}
	}
	if err := e.tm.DropTable(name); err != nil {
		return errStorage(err, "drop table %q", name)
	}
	delete(e.tableCache, name)
	_ = e.dbm.RecordTableDropped(e.current, name)
	return nil
}
