// Package sql provides the lexer, parser, and statement/expression trees
// consumed by pkg/engine. It has no knowledge of storage or execution.
package sql

import "github.com/JayabrataBasu/VeridicalDB/pkg/catalog"

// Statement is the root of any parsed statement.
type Statement interface {
	statementNode()
}

// Expr is the root of any parsed expression.
type Expr interface {
	exprNode()
}

// --- Expressions ---

// Literal is a constant value of one of the evaluator's tagged variants.
type Literal struct {
	Value catalog.Value
}

func (*Literal) exprNode() {}

// ColumnRef names a column, optionally qualified by table.
type ColumnRef struct {
	Table  string // empty when unqualified
	Column string
}

func (*ColumnRef) exprNode() {}

// Star represents the `*` projection wildcard.
type Star struct{}

func (*Star) exprNode() {}

// BinaryOp is an arithmetic, comparison, or logical binary operator.
type BinaryOp struct {
	Op    string // "+","-","*","/","=","<>","<","<=",">",">=","AND","OR","LIKE"
	Left  Expr
	Right Expr
}

func (*BinaryOp) exprNode() {}

// UnaryOp is a prefix operator: NOT, unary minus, IS NULL (postfix modeled
// as unary wrapping its operand for simplicity of the evaluator).
type UnaryOp struct {
	Op      string // "NOT", "-", "IS NULL"
	Operand Expr
}

func (*UnaryOp) exprNode() {}

// AggregateExpr is COUNT(*)/MIN/MAX/SUM/AVG applied to an expression
// (Arg is nil for COUNT(*)).
type AggregateExpr struct {
	Func string // "COUNT","MIN","MAX","SUM","AVG"
	Arg  Expr   // nil means "*"
}

func (*AggregateExpr) exprNode() {}

// --- Statements ---

// TableRef names a table in a FROM list, with an optional alias.
type TableRef struct {
	Name  string
	Alias string
}

// SelectStmt represents SELECT ... FROM ... [WHERE ...].
type SelectStmt struct {
	Projection []Expr // empty means SELECT *
	From       []TableRef
	Where      Expr // nil means no predicate
}

func (*SelectStmt) statementNode() {}

// ColumnDef is a parsed CREATE TABLE column declaration.
type ColumnDef struct {
	Name       string
	Type       catalog.DataType
	Width      int // CHAR(n)
	NotNull    bool
	PrimaryKey bool
	HasDefault bool
	Default    catalog.Value
}

// InsertStmt represents INSERT INTO table(cols) VALUES (...), (...).
type InsertStmt struct {
	Table   string
	Columns []string // empty means all user columns in schema order
	Rows    [][]Expr
}

func (*InsertStmt) statementNode() {}

// UpdateStmt represents UPDATE table SET column = expr [WHERE ...].
type UpdateStmt struct {
	Table  string
	Column string
	Value  Expr
	Where  Expr
}

func (*UpdateStmt) statementNode() {}

// DeleteStmt represents DELETE FROM table [WHERE ...].
type DeleteStmt struct {
	Table string
	Where Expr
}

func (*DeleteStmt) statementNode() {}

// CreateTableStmt represents CREATE TABLE name (col defs...).
type CreateTableStmt struct {
	Table   string
	Columns []ColumnDef
}

func (*CreateTableStmt) statementNode() {}

// DropTableStmt represents DROP TABLE name.
type DropTableStmt struct {
	Table string
}

func (*DropTableStmt) statementNode() {}

// CreateIndexStmt represents CREATE INDEX ON table(column).
type CreateIndexStmt struct {
	Table  string
	Column string
}

func (*CreateIndexStmt) statementNode() {}

// DropIndexStmt represents DROP INDEX ON table(column).
type DropIndexStmt struct {
	Table  string
	Column string
}

func (*DropIndexStmt) statementNode() {}

// CreateDatabaseStmt represents CREATE DATABASE name [OWNER owner]
// [PASSWORD 'pw']. Owner/Password are optional; an empty Password means
// the database's owner credential is left unset.
type CreateDatabaseStmt struct {
	Name     string
	Owner    string
	Password string
}

func (*CreateDatabaseStmt) statementNode() {}

// DropDatabaseStmt represents DROP DATABASE name.
type DropDatabaseStmt struct {
	Name     string
	IfExists bool
}

func (*DropDatabaseStmt) statementNode() {}

// UseDatabaseStmt represents USE name [PASSWORD 'pw']. Password must be
// supplied when the target database has an owner credential set.
type UseDatabaseStmt struct {
	Name     string
	Password string
}

func (*UseDatabaseStmt) statementNode() {}

// ShowKind distinguishes the object SHOW lists.
type ShowKind int

const (
	ShowDatabases ShowKind = iota
	ShowTables
)

// ShowStmt represents SHOW DATABASES or SHOW TABLES.
type ShowStmt struct {
	Kind ShowKind
}

func (*ShowStmt) statementNode() {}
