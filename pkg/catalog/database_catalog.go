package catalog

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// MaxNameLen is the fixed width, in bytes, reserved for a database or table
// name in the on-disk catalog file.
const MaxNameLen = 64

// MaxTables is the maximum number of tables a single database's on-disk
// catalog file can name.
const MaxTables = 1024

// ErrTooManyTables is returned when a database would exceed MaxTables.
var ErrTooManyTables = errors.New("catalog: too many tables for database catalog file")

// ErrNameTooLong is returned when a name does not fit in MaxNameLen bytes.
var ErrNameTooLong = errors.New("catalog: name exceeds maximum length")

// DatabaseCatalog is the fixed-layout on-disk record naming the tables that
// belong to one database: a MaxNameLen-byte name field, a uint32 table
// count, then up to MaxTables fixed MaxNameLen-byte table name slots.
// In memory the table list is an ordinary growable slice; only the disk
// representation is fixed-width.
type DatabaseCatalog struct {
	Name   string
	Tables []string
}

// databaseCatalogPath returns the path of the "<db>.database" file.
func databaseCatalogPath(dir, dbName string) string {
	return filepath.Join(dir, dbName+".database")
}

// LoadDatabaseCatalog reads a database's on-disk catalog file.
func LoadDatabaseCatalog(dir, dbName string) (*DatabaseCatalog, error) {
	path := databaseCatalogPath(dir, dbName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	r := bytes.NewReader(data)

	nameBuf := make([]byte, MaxNameLen)
	if _, err := r.Read(nameBuf); err != nil {
		return nil, fmt.Errorf("read database name: %w", err)
	}

	var tableCount uint32
	if err := binary.Read(r, binary.LittleEndian, &tableCount); err != nil {
		return nil, fmt.Errorf("read table count: %w", err)
	}
	if tableCount > MaxTables {
		return nil, fmt.Errorf("corrupt catalog: table count %d exceeds max %d", tableCount, MaxTables)
	}

	dc := &DatabaseCatalog{
		Name:   trimTrailingZero(nameBuf),
		Tables: make([]string, 0, tableCount),
	}
	for i := uint32(0); i < tableCount; i++ {
		slot := make([]byte, MaxNameLen)
		if _, err := r.Read(slot); err != nil {
			return nil, fmt.Errorf("read table name slot %d: %w", i, err)
		}
		dc.Tables = append(dc.Tables, trimTrailingZero(slot))
	}
	return dc, nil
}

// Save writes the catalog atomically: write to a temp file in the same
// directory, then rename over the final path.
func (dc *DatabaseCatalog) Save(dir string) error {
	if len(dc.Name) > MaxNameLen {
		return ErrNameTooLong
	}
	if len(dc.Tables) > MaxTables {
		return ErrTooManyTables
	}
	for _, t := range dc.Tables {
		if len(t) > MaxNameLen {
			return ErrNameTooLong
		}
	}

	var buf bytes.Buffer
	buf.Write(fixedField(dc.Name, MaxNameLen))
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(dc.Tables))); err != nil {
		return err
	}
	for _, t := range dc.Tables {
		buf.Write(fixedField(t, MaxNameLen))
	}

	path := databaseCatalogPath(dir, dc.Name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write temp catalog: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename catalog into place: %w", err)
	}
	return nil
}

// AddTable appends a table name if not already present.
func (dc *DatabaseCatalog) AddTable(name string) error {
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	for _, t := range dc.Tables {
		if t == name {
			return nil
		}
	}
	if len(dc.Tables) >= MaxTables {
		return ErrTooManyTables
	}
	dc.Tables = append(dc.Tables, name)
	return nil
}

// RemoveTable deletes a table name from the list, if present.
func (dc *DatabaseCatalog) RemoveTable(name string) {
	out := dc.Tables[:0]
	for _, t := range dc.Tables {
		if t != name {
			out = append(out, t)
		}
	}
	dc.Tables = out
}

func fixedField(s string, width int) []byte {
	b := make([]byte, width)
	copy(b, s)
	return b
}
