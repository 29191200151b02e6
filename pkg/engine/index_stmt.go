package engine

import (
	"fmt"

	"github.com/JayabrataBasu/VeridicalDB/pkg/sql"
)

// ExecuteCreateIndex builds a B+ tree index over a column by scanning every
// existing record (§4.2's CREATE INDEX).
func ExecuteCreateIndex(db *Engine, stmt *sql.CreateIndexStmt) (*Result, error) {
	t, err := db.Table(stmt.Table)
	if err != nil {
		return nil, err
	}
	if err := t.BuildIndex(stmt.Column); err != nil {
		return nil, err
	}
	if db.log != nil {
		db.log.Info("index rebuilt", "database", db.CurrentDatabase(), "table", stmt.Table, "column", stmt.Column, "reason", "create index")
	}
	return &Result{Message: fmt.Sprintf("[Info] index created on %s.%s.", stmt.Table, stmt.Column)}, nil
}

// ExecuteDropIndex removes a column's index.
func ExecuteDropIndex(db *Engine, stmt *sql.DropIndexStmt) (*Result, error) {
	t, err := db.Table(stmt.Table)
	if err != nil {
		return nil, err
	}
	if err := t.DropIndex(stmt.Column); err != nil {
		return nil, err
	}
	if db.log != nil {
		db.log.Info("index dropped", "database", db.CurrentDatabase(), "table", stmt.Table, "column", stmt.Column)
	}
	return &Result{Message: fmt.Sprintf("[Info] index dropped on %s.%s.", stmt.Table, stmt.Column)}, nil
}
