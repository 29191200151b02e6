package engine

import (
	"strings"
	"testing"

	"github.com/JayabrataBasu/VeridicalDB/internal/logger"
	"github.com/JayabrataBasu/VeridicalDB/pkg/sql"
)

func TestSetLoggerWiresStructuralEvents(t *testing.T) {
	eng := newTestEngine(t)
	eng.SetLogger(logger.NewNop())

	exec(t, eng, `CREATE TABLE t (id INT PRIMARY KEY, v INT)`)
	exec(t, eng, `CREATE INDEX ON t (v)`)
	exec(t, eng, `DROP INDEX ON t (v)`)
}

func TestThreeTablePlannerPath(t *testing.T) {
	eng := newTestEngine(t)
	exec(t, eng, `CREATE TABLE regions (id INT PRIMARY KEY, name CHAR(16))`)
	exec(t, eng, `CREATE TABLE customers (id INT PRIMARY KEY, region INT)`)
	exec(t, eng, `CREATE TABLE orders (id INT PRIMARY KEY, customer INT)`)
	// regions.id and customers.id are indexed by their PRIMARY KEY declarations.

	exec(t, eng, `INSERT INTO regions VALUES (1, 'West')`)
	exec(t, eng, `INSERT INTO customers VALUES (10, 1)`)
	exec(t, eng, `INSERT INTO orders VALUES (100, 10)`)

	res := exec(t, eng, `SELECT o.id, r.name FROM orders o, customers c, regions r WHERE o.customer = c.id AND c.region = r.id`)
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 joined row across 3 tables, got %d: %+v", len(res.Rows), res.Rows)
	}
	if len(res.Diagnostics) == 0 {
		t.Error("expected planner diagnostics to be populated for a 3-table join")
	}
}

func TestWriteResultSetFormatting(t *testing.T) {
	eng := newTestEngine(t)
	exec(t, eng, `CREATE TABLE t (id INT PRIMARY KEY, active BOOL)`)
	exec(t, eng, `INSERT INTO t VALUES (1, TRUE)`)
	exec(t, eng, `INSERT INTO t VALUES (2, FALSE)`)

	res := exec(t, eng, `SELECT id, active FROM t`)

	var buf strings.Builder
	if err := WriteResultSet(&buf, res.Headers, res.Rows); err != nil {
		t.Fatalf("WriteResultSet error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "id,active") {
		t.Errorf("expected header line, got %q", out)
	}
	if !strings.Contains(out, "2 row(s) selected.") {
		t.Errorf("expected trailing summary line, got %q", out)
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := NewEngine(t.TempDir(), 8192)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	return eng
}

func exec(t *testing.T, eng *Engine, stmtText string) *Result {
	t.Helper()
	stmt, err := sql.Parse(stmtText)
	if err != nil {
		t.Fatalf("parse %q: %v", stmtText, err)
	}
	res, err := Execute(eng, stmt)
	if err != nil {
		t.Fatalf("execute %q: %v", stmtText, err)
	}
	return res
}

func TestSingleTableScanAndSelect(t *testing.T) {
	eng := newTestEngine(t)
	exec(t, eng, `CREATE TABLE users (id INT PRIMARY KEY, name CHAR(16), age INT)`)
	exec(t, eng, `INSERT INTO users VALUES (1, 'Alice', 30)`)
	exec(t, eng, `INSERT INTO users VALUES (2, 'Bob', 25)`)
	exec(t, eng, `INSERT INTO users VALUES (3, 'Carol', 40)`)

	res := exec(t, eng, `SELECT name FROM users WHERE age > 26`)
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(res.Rows), res.Rows)
	}
}

func TestInsertCountsPerTupleFailures(t *testing.T) {
	eng := newTestEngine(t)
	exec(t, eng, `CREATE TABLE t (id INT PRIMARY KEY, v INT NOT NULL)`)

	res := exec(t, eng, `INSERT INTO t VALUES (1, 10)`)
	if !strings.Contains(res.Message, "1 row(s) inserted") {
		t.Errorf("expected 1 row inserted, got %q", res.Message)
	}

	// second tuple puts a string into the INT column v: it fails alone and
	// the first tuple is still inserted
	stmt, err := sql.Parse(`INSERT INTO t VALUES (2, 20), (3, 'thirty')`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res2, err := Execute(eng, stmt)
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}
	if !strings.Contains(res2.Message, "1 row(s) inserted, 1 failed") {
		t.Errorf("expected 1 row inserted and 1 failed, got %q", res2.Message)
	}
}

func TestInsertRejectsDuplicatePrimaryKey(t *testing.T) {
	eng := newTestEngine(t)
	exec(t, eng, `CREATE TABLE t (id INT PRIMARY KEY, v INT)`)
	exec(t, eng, `INSERT INTO t VALUES (1, 10)`)

	res := exec(t, eng, `INSERT INTO t VALUES (1, 20)`)
	if !strings.Contains(res.Message, "0 row(s) inserted, 1 failed") {
		t.Fatalf("expected duplicate primary key to fail, got %q", res.Message)
	}

	res = exec(t, eng, `SELECT id FROM t`)
	if len(res.Rows) != 1 {
		t.Fatalf("expected duplicate insert to leave exactly 1 row, got %d", len(res.Rows))
	}
}

func TestUpdateAndDelete(t *testing.T) {
	eng := newTestEngine(t)
	exec(t, eng, `CREATE TABLE t (id INT PRIMARY KEY, v INT)`)
	exec(t, eng, `INSERT INTO t VALUES (1, 10)`)
	exec(t, eng, `INSERT INTO t VALUES (2, 20)`)

	exec(t, eng, `UPDATE t SET v = 99 WHERE id = 1`)
	res := exec(t, eng, `SELECT v FROM t WHERE id = 1`)
	if len(res.Rows) != 1 || res.Rows[0][0].Int32 != 99 {
		t.Fatalf("expected updated value 99, got %+v", res.Rows)
	}

	exec(t, eng, `DELETE FROM t WHERE id = 2`)
	res = exec(t, eng, `SELECT id FROM t`)
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row after delete, got %d", len(res.Rows))
	}
}

func TestTwoTableIndexJoin(t *testing.T) {
	eng := newTestEngine(t)
	exec(t, eng, `CREATE TABLE orders (id INT PRIMARY KEY, customer INT)`)
	exec(t, eng, `CREATE TABLE customers (id INT PRIMARY KEY, name CHAR(16))`)
	// customers.id is indexed by its PRIMARY KEY declaration.

	exec(t, eng, `INSERT INTO customers VALUES (1, 'Alice')`)
	exec(t, eng, `INSERT INTO customers VALUES (2, 'Bob')`)
	exec(t, eng, `INSERT INTO orders VALUES (100, 1)`)
	exec(t, eng, `INSERT INTO orders VALUES (101, 2)`)

	res := exec(t, eng, `SELECT o.id, c.name FROM orders o, customers c WHERE o.customer = c.id`)
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 joined rows, got %d: %+v", len(res.Rows), res.Rows)
	}
}

func TestAggregateCount(t *testing.T) {
	eng := newTestEngine(t)
	exec(t, eng, `CREATE TABLE t (id INT PRIMARY KEY, v INT)`)
	exec(t, eng, `INSERT INTO t VALUES (1, 10)`)
	exec(t, eng, `INSERT INTO t VALUES (2, 20)`)
	exec(t, eng, `INSERT INTO t VALUES (3, 30)`)

	res := exec(t, eng, `SELECT COUNT(*) FROM t WHERE v > 10`)
	if len(res.Rows) != 1 || res.Rows[0][0].Int32 != 2 {
		t.Fatalf("expected COUNT=2, got %+v", res.Rows)
	}
}

func TestCreateAndDropIndex(t *testing.T) {
	eng := newTestEngine(t)
	exec(t, eng, `CREATE TABLE t (id INT PRIMARY KEY, v INT)`)
	exec(t, eng, `INSERT INTO t VALUES (1, 10)`)

	exec(t, eng, `CREATE INDEX ON t (v)`)
	exec(t, eng, `DROP INDEX ON t (v)`)
}

func TestCreateDatabaseWithOwnerCredential(t *testing.T) {
	eng := newTestEngine(t)
	exec(t, eng, `CREATE DATABASE shop OWNER alice PASSWORD 's3cret'`)

	stmt, _ := sql.Parse(`USE shop PASSWORD 'wrong'`)
	if _, err := Execute(eng, stmt); err == nil {
		t.Error("expected authentication failure with wrong password")
	}

	stmt, _ = sql.Parse(`USE shop PASSWORD 's3cret'`)
	if _, err := Execute(eng, stmt); err != nil {
		t.Errorf("expected successful USE, got %v", err)
	}
}

func TestShowTablesAndDatabases(t *testing.T) {
	eng := newTestEngine(t)
	exec(t, eng, `CREATE TABLE t (id INT PRIMARY KEY)`)
	exec(t, eng, `CREATE DATABASE extra`)

	res := exec(t, eng, `SHOW TABLES`)
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 table, got %d", len(res.Rows))
	}

	res = exec(t, eng, `SHOW DATABASES`)
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 databases, got %d", len(res.Rows))
	}
}
