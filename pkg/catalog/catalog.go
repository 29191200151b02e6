package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/JayabrataBasu/VeridicalDB/internal/logger"
)

// TableMeta holds metadata for a table.
type TableMeta struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Schema  *Schema  `json:"-"`
	Columns []Column `json:"columns"`
}

// Catalog manages table metadata for a single database, persisted to a
// JSON file alongside the database's heap and index files.
type Catalog struct {
	mu      sync.RWMutex
	dataDir string
	tables  map[string]*TableMeta
	nextID  int
	log     *logger.Logger
}

// NewCatalog creates or loads a catalog from dataDir.
func NewCatalog(dataDir string) (*Catalog, error) {
	c := &Catalog{
		dataDir: dataDir,
		tables:  make(map[string]*TableMeta),
		nextID:  1,
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	if err := c.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return c, nil
}

// SetLogger attaches a logger for structural events (catalog load/save). A
// nil logger (the default) disables these log calls entirely. Since the
// catalog is loaded during NewCatalog, before a caller has a chance to
// attach a logger, this also announces the load that already happened.
func (c *Catalog) SetLogger(log *logger.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = log
	if log != nil {
		log.Debug("catalog loaded", "dir", c.dataDir, "tables", len(c.tables))
	}
}

func (c *Catalog) catalogPath() string {
	return filepath.Join(c.dataDir, "catalog.json")
}

func (c *Catalog) load() error {
	data, err := os.ReadFile(c.catalogPath())
	if err != nil {
		return err
	}
	var state struct {
		Tables []*TableMeta `json:"tables"`
		NextID int          `json:"next_id"`
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	c.nextID = state.NextID
	for _, t := range state.Tables {
		// Saved columns already end with the hidden __rowid__ column.
		t.Schema = &Schema{Columns: t.Columns}
		c.tables[t.Name] = t
	}
	return nil
}

func (c *Catalog) save() error {
	tables := make([]*TableMeta, 0, len(c.tables))
	for _, t := range c.tables {
		tables = append(tables, t)
	}
	state := struct {
		Tables []*TableMeta `json:"tables"`
		NextID int          `json:"next_id"`
	}{
		Tables: tables,
		NextID: c.nextID,
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.catalogPath(), data, 0o644); err != nil {
		return err
	}
	if c.log != nil {
		c.log.Debug("catalog saved", "dir", c.dataDir, "tables", len(c.tables))
	}
	return nil
}

// CreateTable registers a new table with the given (user-declared) columns.
// The hidden __rowid__ column is appended automatically.
func (c *Catalog) CreateTable(name string, cols []Column) (*TableMeta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[name]; exists {
		return nil, fmt.Errorf("table %q already exists", name)
	}

	schema := NewSchema(cols)
	meta := &TableMeta{
		ID:      c.nextID,
		Name:    name,
		Columns: schema.Columns,
		Schema:  schema,
	}
	c.nextID++
	c.tables[name] = meta

	if err := c.save(); err != nil {
		delete(c.tables, name)
		c.nextID--
		return nil, err
	}
	return meta, nil
}

// DropTable removes a table from the catalog.
func (c *Catalog) DropTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[name]; !exists {
		return fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	delete(c.tables, name)
	return c.save()
}

// GetTable returns metadata for a table.
func (c *Catalog) GetTable(name string) (*TableMeta, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, exists := c.tables[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	return t, nil
}

// ListTables returns all table names.
func (c *Catalog) ListTables() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	return names
}

// UpdateTable persists changed table metadata (e.g. after CREATE INDEX
// flips a column's HasIndex flag).
func (c *Catalog) UpdateTable(meta *TableMeta) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[meta.Name]; !exists {
		return fmt.Errorf("table %q does not exist", meta.Name)
	}

	meta.Schema = NewSchema(meta.Schema.UserColumns())
	meta.Columns = meta.Schema.Columns
	c.tables[meta.Name] = meta
	return c.save()
}

// ErrTableNotFound is returned when a table doesn't exist.
var ErrTableNotFound = errors.New("table not found")
