package sql

import (
	"fmt"
	"strconv"
	"time"

	"github.com/JayabrataBasu/VeridicalDB/pkg/catalog"
)

// Parser is a recursive-descent parser over a token stream produced by a
// Lexer. One Parser parses exactly one statement.
type Parser struct {
	lex  *Lexer
	cur  Token
	peek Token
}

// Parse parses a single SQL statement from src.
func Parse(src string) (Statement, error) {
	p := &Parser{lex: NewLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	// allow a trailing semicolon
	if p.curIsOp(";") {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.cur.Type != TokenEOF {
		return nil, fmt.Errorf("unexpected trailing input near %q", p.cur.Text)
	}
	return stmt, nil
}

func (p *Parser) advance() error {
	p.cur = p.peek
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.peek = tok
	return nil
}

func (p *Parser) curIsKeyword(kw string) bool {
	return p.cur.Type == TokenKeyword && p.cur.Text == kw
}

func (p *Parser) curIsOp(op string) bool {
	return p.cur.Type == TokenOp && p.cur.Text == op
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.curIsKeyword(kw) {
		return fmt.Errorf("expected keyword %s, got %q", kw, p.cur.Text)
	}
	return p.advance()
}

func (p *Parser) expectOp(op string) error {
	if !p.curIsOp(op) {
		return fmt.Errorf("expected %q, got %q", op, p.cur.Text)
	}
	return p.advance()
}

func (p *Parser) expectIdent() (string, error) {
	if p.cur.Type != TokenIdent {
		return "", fmt.Errorf("expected identifier, got %q", p.cur.Text)
	}
	name := p.cur.Text
	return name, p.advance()
}

func (p *Parser) parseStatement() (Statement, error) {
	switch {
	case p.curIsKeyword("SELECT"):
		return p.parseSelect()
	case p.curIsKeyword("INSERT"):
		return p.parseInsert()
	case p.curIsKeyword("UPDATE"):
		return p.parseUpdate()
	case p.curIsKeyword("DELETE"):
		return p.parseDelete()
	case p.curIsKeyword("CREATE"):
		return p.parseCreate()
	case p.curIsKeyword("DROP"):
		return p.parseDrop()
	case p.curIsKeyword("USE"):
		return p.parseUse()
	case p.curIsKeyword("SHOW"):
		return p.parseShow()
	default:
		return nil, fmt.Errorf("unrecognized statement starting with %q", p.cur.Text)
	}
}

// --- SELECT ---

func (p *Parser) parseSelect() (Statement, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}

	stmt := &SelectStmt{}

	if p.curIsOp("*") {
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else {
		for {
			e, err := p.parseProjectionExpr()
			if err != nil {
				return nil, err
			}
			stmt.Projection = append(stmt.Projection, e)
			if p.curIsOp(",") {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	for {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		ref := TableRef{Name: name}
		// optional alias (bare identifier, no AS keyword in this grammar)
		if p.cur.Type == TokenIdent {
			ref.Alias = p.cur.Text
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		stmt.From = append(stmt.From, ref)
		if p.curIsOp(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	if p.curIsKeyword("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}

	return stmt, nil
}

func (p *Parser) parseProjectionExpr() (Expr, error) {
	if p.cur.Type == TokenKeyword {
		switch p.cur.Text {
		case "COUNT", "MIN", "MAX", "SUM", "AVG":
			return p.parseAggregate()
		}
	}
	return p.parseExpr()
}

func (p *Parser) parseAggregate() (Expr, error) {
	fn := p.cur.Text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	agg := &AggregateExpr{Func: fn}
	if fn == "COUNT" && p.curIsOp("*") {
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		agg.Arg = arg
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return agg, nil
}

// --- INSERT ---

func (p *Parser) parseInsert() (Statement, error) {
	if err := p.expectKeyword("INSERT"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	stmt := &InsertStmt{Table: table}

	if p.curIsOp("(") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		for {
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, name)
			if p.curIsOp(",") {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
	}

	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	for {
		if err := p.expectOp("("); err != nil {
			return nil, err
		}
		var row []Expr
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			row = append(row, e)
			if p.curIsOp(",") {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		stmt.Rows = append(stmt.Rows, row)
		if p.curIsOp(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	return stmt, nil
}

// --- UPDATE ---

func (p *Parser) parseUpdate() (Statement, error) {
	if err := p.expectKeyword("UPDATE"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	col, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp("="); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	stmt := &UpdateStmt{Table: table, Column: col, Value: val}
	if p.curIsKeyword("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	return stmt, nil
}

// --- DELETE ---

func (p *Parser) parseDelete() (Statement, error) {
	if err := p.expectKeyword("DELETE"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	stmt := &DeleteStmt{Table: table}
	if p.curIsKeyword("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	return stmt, nil
}

// --- CREATE / DROP ---

func (p *Parser) parseCreate() (Statement, error) {
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	switch {
	case p.curIsKeyword("DATABASE"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		stmt := &CreateDatabaseStmt{Name: name}
		if p.curIsKeyword("OWNER") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			owner, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			stmt.Owner = owner
		}
		if p.curIsKeyword("PASSWORD") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.Type != TokenString {
				return nil, fmt.Errorf("expected string literal after PASSWORD, got %q", p.cur.Text)
			}
			stmt.Password = p.cur.Text
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		return stmt, nil

	case p.curIsKeyword("TABLE"):
		return p.parseCreateTable()

	case p.curIsKeyword("INDEX"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("ON"); err != nil {
			return nil, err
		}
		table, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("("); err != nil {
			return nil, err
		}
		col, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return &CreateIndexStmt{Table: table, Column: col}, nil

	default:
		return nil, fmt.Errorf("expected DATABASE, TABLE, or INDEX after CREATE, got %q", p.cur.Text)
	}
}

func (p *Parser) parseCreateTable() (Statement, error) {
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	stmt := &CreateTableStmt{Table: table}
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col)
		if p.curIsOp(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseColumnDef() (ColumnDef, error) {
	name, err := p.expectIdent()
	if err != nil {
		return ColumnDef{}, err
	}
	col := ColumnDef{Name: name}

	if p.cur.Type != TokenKeyword {
		return col, fmt.Errorf("expected column type, got %q", p.cur.Text)
	}
	typeName := p.cur.Text
	if err := p.advance(); err != nil {
		return col, err
	}
	col.Type = catalog.ParseDataType(typeName)
	if col.Type == catalog.TypeUnknown {
		return col, fmt.Errorf("unknown column type %q", typeName)
	}
	if col.Type == catalog.TypeChar {
		col.Width = 32 // default width unless overridden by (n)
		if p.curIsOp("(") {
			if err := p.advance(); err != nil {
				return col, err
			}
			if p.cur.Type != TokenNumber {
				return col, fmt.Errorf("expected width for CHAR, got %q", p.cur.Text)
			}
			width, err := strconv.Atoi(p.cur.Text)
			if err != nil {
				return col, err
			}
			col.Width = width
			if err := p.advance(); err != nil {
				return col, err
			}
			if err := p.expectOp(")"); err != nil {
				return col, err
			}
		}
	}

	for {
		switch {
		case p.curIsKeyword("NOT"):
			if err := p.advance(); err != nil {
				return col, err
			}
			if err := p.expectKeyword("NULL"); err != nil {
				return col, err
			}
			col.NotNull = true
		case p.curIsKeyword("PRIMARY"):
			if err := p.advance(); err != nil {
				return col, err
			}
			if err := p.expectKeyword("KEY"); err != nil {
				return col, err
			}
			col.PrimaryKey = true
			col.NotNull = true
		case p.curIsKeyword("DEFAULT"):
			if err := p.advance(); err != nil {
				return col, err
			}
			lit, err := p.parseLiteralValue()
			if err != nil {
				return col, err
			}
			litExpr, ok := lit.(*Literal)
			if !ok {
				return col, fmt.Errorf("expected literal value for DEFAULT")
			}
			col.HasDefault = true
			col.Default = litExpr.Value
		default:
			return col, nil
		}
	}
}

func (p *Parser) parseDrop() (Statement, error) {
	if err := p.expectKeyword("DROP"); err != nil {
		return nil, err
	}
	switch {
	case p.curIsKeyword("DATABASE"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		ifExists := false
		if p.curIsKeyword("IF") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expectKeyword("EXISTS"); err != nil {
				return nil, err
			}
			ifExists = true
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &DropDatabaseStmt{Name: name, IfExists: ifExists}, nil

	case p.curIsKeyword("TABLE"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &DropTableStmt{Table: name}, nil

	case p.curIsKeyword("INDEX"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("ON"); err != nil {
			return nil, err
		}
		table, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("("); err != nil {
			return nil, err
		}
		col, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return &DropIndexStmt{Table: table, Column: col}, nil

	default:
		return nil, fmt.Errorf("expected DATABASE, TABLE, or INDEX after DROP, got %q", p.cur.Text)
	}
}

func (p *Parser) parseUse() (Statement, error) {
	if err := p.expectKeyword("USE"); err != nil {
		return nil, err
	}
	if p.curIsKeyword("DATABASE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	stmt := &UseDatabaseStmt{Name: name}
	if p.curIsKeyword("PASSWORD") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Type != TokenString {
			return nil, fmt.Errorf("expected string literal after PASSWORD, got %q", p.cur.Text)
		}
		stmt.Password = p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseShow() (Statement, error) {
	if err := p.expectKeyword("SHOW"); err != nil {
		return nil, err
	}
	switch {
	case p.curIsKeyword("DATABASES"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ShowStmt{Kind: ShowDatabases}, nil
	case p.curIsKeyword("TABLES"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ShowStmt{Kind: ShowTables}, nil
	default:
		return nil, fmt.Errorf("expected DATABASES or TABLES after SHOW, got %q", p.cur.Text)
	}
}

// --- Expressions (precedence climbing) ---
//
// OR
//  AND
//   NOT
//    comparison (= <> < <= > >= LIKE IS NULL)
//     additive (+ -)
//      multiplicative (* /)
//       unary (-)
//        primary

func (p *Parser) parseExpr() (Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.curIsKeyword("OR") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.curIsKeyword("AND") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.curIsKeyword("NOT") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: "NOT", Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	if p.curIsKeyword("IS") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("NULL"); err != nil {
			return nil, err
		}
		return &UnaryOp{Op: "IS NULL", Operand: left}, nil
	}
	if p.curIsKeyword("LIKE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &BinaryOp{Op: "LIKE", Left: left, Right: right}, nil
	}

	if p.cur.Type == TokenOp {
		switch p.cur.Text {
		case "=", "<>", "<", "<=", ">", ">=":
			op := p.cur.Text
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return &BinaryOp{Op: op, Left: left, Right: right}, nil
		}
	}

	return left, nil
}

func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TokenOp && (p.cur.Text == "+" || p.cur.Text == "-") {
		op := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TokenOp && (p.cur.Text == "*" || p.cur.Text == "/") {
		op := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.curIsOp("-") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: "-", Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	switch {
	case p.curIsOp("("):
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return e, nil

	case p.cur.Type == TokenKeyword:
		switch p.cur.Text {
		case "COUNT", "MIN", "MAX", "SUM", "AVG":
			return p.parseAggregate()
		case "NULL":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &Literal{Value: catalog.Null(catalog.TypeUnknown)}, nil
		case "TRUE", "FALSE":
			v := p.cur.Text == "TRUE"
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &Literal{Value: catalog.NewBool(v)}, nil
		}
		return nil, fmt.Errorf("unexpected keyword %q in expression", p.cur.Text)

	case p.cur.Type == TokenNumber:
		return p.parseLiteralValue()

	case p.cur.Type == TokenString:
		s := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Literal{Value: catalog.NewChar(s)}, nil

	case p.cur.Type == TokenIdent:
		first := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.curIsOp(".") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			col, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			return &ColumnRef{Table: first, Column: col}, nil
		}
		return &ColumnRef{Column: first}, nil

	default:
		return nil, fmt.Errorf("unexpected token %q in expression", p.cur.Text)
	}
}

// parseLiteralValue parses a numeric, string, or DATE literal as used in
// DEFAULT clauses and VALUES lists. Numbers without a '.' are INT.
func (p *Parser) parseLiteralValue() (Expr, error) {
	switch p.cur.Type {
	case TokenNumber:
		text := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if containsDot(text) {
			f, err := strconv.ParseFloat(text, 32)
			if err != nil {
				return nil, err
			}
			return &Literal{Value: catalog.NewFloat32(float32(f))}, nil
		}
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return nil, err
		}
		return &Literal{Value: catalog.NewInt32(int32(n))}, nil

	case TokenString:
		text := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if t, err := time.Parse(catalog.DateTemplate, text); err == nil {
			return &Literal{Value: catalog.NewDate(t)}, nil
		}
		return &Literal{Value: catalog.NewChar(text)}, nil

	case TokenKeyword:
		switch p.cur.Text {
		case "TRUE", "FALSE":
			v := p.cur.Text == "TRUE"
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &Literal{Value: catalog.NewBool(v)}, nil
		case "NULL":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &Literal{Value: catalog.Null(catalog.TypeUnknown)}, nil
		}
	}
	return nil, fmt.Errorf("expected literal value, got %q", p.cur.Text)
}

func containsDot(s string) bool {
	for _, r := range s {
		if r == '.' {
			return true
		}
	}
	return false
}
