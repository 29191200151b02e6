package engine

import (
	"fmt"
	"sort"

	"github.com/JayabrataBasu/VeridicalDB/pkg/catalog"
	"github.com/JayabrataBasu/VeridicalDB/pkg/sql"
)

// Execute dispatches a parsed statement to its handler and returns a Result
// a caller (the REPL, a driver) can render.
func Execute(db *Engine, stmt sql.Statement) (*Result, error) {
	switch s := stmt.(type) {
	case *sql.SelectStmt:
		return ExecuteSelect(db, s)
	case *sql.InsertStmt:
		return ExecuteInsert(db, s)
	case *sql.UpdateStmt:
		return ExecuteUpdate(db, s)
	case *sql.DeleteStmt:
		return ExecuteDelete(db, s)
	case *sql.CreateTableStmt:
		return executeCreateTable(db, s)
	case *sql.DropTableStmt:
		return executeDropTable(db, s)
	case *sql.CreateIndexStmt:
		return ExecuteCreateIndex(db, s)
	case *sql.DropIndexStmt:
		return ExecuteDropIndex(db, s)
	case *sql.CreateDatabaseStmt:
		return executeCreateDatabase(db, s)
	case *sql.DropDatabaseStmt:
		return executeDropDatabase(db, s)
	case *sql.UseDatabaseStmt:
		return executeUseDatabase(db, s)
	case *sql.ShowStmt:
		return executeShow(db, s)
	default:
		return nil, errSchema("unsupported statement type %T", stmt)
	}
}

func executeCreateTable(db *Engine, stmt *sql.CreateTableStmt) (*Result, error) {
	cols := make([]catalog.Column, len(stmt.Columns))
	for i, cd := range stmt.Columns {
		col := catalog.Column{
			Name:       cd.Name,
			Type:       cd.Type,
			Width:      cd.Width,
			NotNull:    cd.NotNull || cd.PrimaryKey,
			PrimaryKey: cd.PrimaryKey,
			HasDefault: cd.HasDefault,
		}
		if cd.HasDefault {
			v := cd.Default
			col.Default = &v
		}
		cols[i] = col
	}
	if err := db.CreateTable(stmt.Table, cols); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("[Info] table %q created.", stmt.Table)}, nil
}

func executeDropTable(db *Engine, stmt *sql.DropTableStmt) (*Result, error) {
	if err := db.DropTable(stmt.Table); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("[Info] table %q dropped.", stmt.Table)}, nil
}

func executeCreateDatabase(db *Engine, stmt *sql.CreateDatabaseStmt) (*Result, error) {
	if err := db.CreateDatabase(stmt.Name, stmt.Owner, stmt.Password); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("[Info] database %q created.", stmt.Name)}, nil
}

func executeDropDatabase(db *Engine, stmt *sql.DropDatabaseStmt) (*Result, error) {
	if err := db.DropDatabase(stmt.Name, stmt.IfExists); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("[Info] database %q dropped.", stmt.Name)}, nil
}

func executeUseDatabase(db *Engine, stmt *sql.UseDatabaseStmt) (*Result, error) {
	if err := db.UseDatabase(stmt.Name, stmt.Password); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("[Info] using database %q.", stmt.Name)}, nil
}

func executeShow(db *Engine, stmt *sql.ShowStmt) (*Result, error) {
	var names []string
	var header string
	switch stmt.Kind {
	case sql.ShowDatabases:
		names = db.ListDatabases()
		header = "database"
	case sql.ShowTables:
		names = db.ListTables()
		header = "table"
	default:
		return nil, errSchema("unknown SHOW kind")
	}
	sort.Strings(names)

	rows := make([][]catalog.Value, len(names))
	for i, n := range names {
		rows[i] = []catalog.Value{catalog.NewChar(n)}
	}
	return &Result{
		Headers: []string{header},
		Rows:    rows,
		Message: fmt.Sprintf("[Info] %d row(s) selected.", len(rows)),
	}, nil
}
