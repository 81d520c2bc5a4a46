package parser

import (
	"fmt"
	"strings"

	"github.com/zakazai/flatdb/internal/lexer"
	"github.com/zakazai/flatdb/internal/types"
)

// trimSet holds the characters stripped from both ends of every extracted
// name or value.
const trimSet = " '\"()"

// TrimField strips leading and trailing spaces, quotes and parentheses.
// Interior characters are left alone.
func TrimField(s string) string {
	return strings.Trim(s, trimSet)
}

// Parser represents a SQL parser
type Parser struct {
	input  string
	tokens []lexer.Token
	pos    int
}

// New creates a new parser with the given lexer
func New(l *lexer.Lexer) *Parser {
	return &Parser{input: l.Input(), tokens: l.Tokenize()}
}

// Parse parses a single statement and returns its AST.
func Parse(sql string) (Statement, error) {
	return New(lexer.New(strings.TrimSpace(sql))).Parse()
}

// Parse parses the input SQL statement
func (p *Parser) Parse() (Statement, error) {
	tok := p.cur()
	if tok.Type == lexer.EOF {
		return nil, fmt.Errorf("%w: empty statement", types.ErrParse)
	}
	if tok.Type != lexer.KEYWORD {
		return nil, p.unexpected("statement keyword")
	}

	var (
		stmt Statement
		err  error
	)
	switch tok.Literal {
	case "SELECT":
		stmt, err = p.parseSelect()
	case "INSERT":
		stmt, err = p.parseInsert()
	case "UPDATE":
		stmt, err = p.parseUpdate()
	case "DELETE":
		stmt, err = p.parseDelete()
	case "CREATE":
		stmt, err = p.parseCreate()
	default:
		return nil, p.unexpected("statement keyword")
	}
	if err != nil {
		return nil, err
	}

	if p.atTerminator() {
		p.advance()
	}
	if p.cur().Type != lexer.EOF {
		return nil, p.unexpected("end of statement")
	}
	return stmt, nil
}

func (p *Parser) cur() lexer.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peek() lexer.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
}

func (p *Parser) isKeyword(kw string) bool {
	tok := p.cur()
	return tok.Type == lexer.KEYWORD && tok.Literal == kw
}

// atTerminator reports whether the current token is a trailing semicolon.
func (p *Parser) atTerminator() bool {
	return p.cur().Type == lexer.SEMICOLON && p.peek().Type == lexer.EOF
}

func (p *Parser) atEnd() bool {
	return p.cur().Type == lexer.EOF || p.atTerminator()
}

func (p *Parser) unexpected(want string) error {
	tok := p.cur()
	if tok.Type == lexer.EOF {
		return fmt.Errorf("%w: expected %s, got end of input", types.ErrParse, want)
	}
	if tok.Type == lexer.ILLEGAL {
		return fmt.Errorf("%w: unterminated string %s", types.ErrParse, tok.Literal)
	}
	return fmt.Errorf("%w: expected %s, got %q", types.ErrParse, want, tok.Literal)
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return p.unexpected(kw)
	}
	p.advance()
	return nil
}

func (p *Parser) expect(typ lexer.TokenType, want string) error {
	if p.cur().Type != typ {
		return p.unexpected(want)
	}
	p.advance()
	return nil
}

// parseTableName reads a bare or quoted table name.
func (p *Parser) parseTableName() (string, error) {
	tok := p.cur()
	if tok.Type != lexer.IDENTIFIER && tok.Type != lexer.STRING {
		return "", p.unexpected("table name")
	}
	name := TrimField(tok.Literal)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: invalid table name %q", types.ErrParse, tok.Literal)
	}
	p.advance()
	return name, nil
}

// parseColumnName reads a column name, optionally qualified as table.column.
func (p *Parser) parseColumnName() (string, error) {
	tok := p.cur()
	if tok.Type != lexer.IDENTIFIER && tok.Type != lexer.STRING {
		return "", p.unexpected("column name")
	}
	name := TrimField(tok.Literal)
	p.advance()

	// table.column, written without spaces
	dot := p.cur()
	if dot.Type == lexer.SYMBOL && dot.Literal == "." && dot.Pos == tok.End() {
		next := p.peek()
		if next.Type == lexer.IDENTIFIER && next.Pos == dot.End() {
			p.advance()
			p.advance()
			name = name + "." + next.Literal
		}
	}

	if name == "" {
		return "", fmt.Errorf("%w: empty column name", types.ErrParse)
	}
	return name, nil
}

func (p *Parser) parseColumnList() ([]string, error) {
	var columns []string
	for {
		col, err := p.parseColumnName()
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)

		if p.cur().Type != lexer.COMMA {
			return columns, nil
		}
		p.advance()
	}
}

// rawValue consumes tokens until stop matches (or the statement ends) and
// returns the trimmed source text they span.
func (p *Parser) rawValue(stop func(lexer.Token) bool) (string, error) {
	start, end := -1, -1
	for !p.atEnd() && !stop(p.cur()) {
		tok := p.cur()
		if tok.Type == lexer.ILLEGAL {
			return "", p.unexpected("value")
		}
		if start < 0 {
			start = tok.Pos
		}
		end = tok.End()
		p.advance()
	}
	if start < 0 {
		return "", nil
	}
	return TrimField(p.input[start:end]), nil
}

func (p *Parser) parseCreate() (*CreateStatement, error) {
	stmt := &CreateStatement{}
	p.advance()

	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}

	// Parse table name
	name, err := p.parseTableName()
	if err != nil {
		return nil, err
	}
	stmt.Table = name

	// Parse column names
	if err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	columns, err := p.parseColumnList()
	if err != nil {
		return nil, err
	}
	for _, col := range columns {
		if strings.Contains(col, ".") {
			return nil, fmt.Errorf("%w: column %q cannot be qualified", types.ErrParse, col)
		}
	}
	stmt.Columns = columns
	if err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *Parser) parseInsert() (*InsertStatement, error) {
	stmt := &InsertStatement{}
	p.advance()

	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}

	// Parse table name
	name, err := p.parseTableName()
	if err != nil {
		return nil, err
	}
	stmt.Table = name

	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}

	// One or more value tuples
	for {
		row, err := p.parseTuple()
		if err != nil {
			return nil, err
		}
		stmt.Rows = append(stmt.Rows, row)

		if p.cur().Type != lexer.COMMA {
			break
		}
		p.advance()
	}

	return stmt, nil
}

func (p *Parser) parseTuple() ([]string, error) {
	if err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, err
	}

	values := []string{}
	if p.cur().Type == lexer.RPAREN {
		p.advance()
		return values, nil
	}

	stop := func(tok lexer.Token) bool {
		return tok.Type == lexer.COMMA || tok.Type == lexer.RPAREN
	}
	for {
		value, err := p.rawValue(stop)
		if err != nil {
			return nil, err
		}
		values = append(values, value)

		switch p.cur().Type {
		case lexer.COMMA:
			p.advance()
		case lexer.RPAREN:
			p.advance()
			return values, nil
		default:
			return nil, p.unexpected(", or )")
		}
	}
}

func (p *Parser) parseUpdate() (*UpdateStatement, error) {
	stmt := &UpdateStatement{}
	p.advance()

	// Parse table name
	name, err := p.parseTableName()
	if err != nil {
		return nil, err
	}
	stmt.Table = name

	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}

	// Parse SET clause
	stop := func(tok lexer.Token) bool {
		return tok.Type == lexer.COMMA || (tok.Type == lexer.KEYWORD && tok.Literal == "WHERE")
	}
	for {
		col, err := p.parseColumnName()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lexer.EQUALS, "="); err != nil {
			return nil, err
		}
		value, err := p.rawValue(stop)
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, Assignment{Column: col, Value: value})

		if p.cur().Type != lexer.COMMA {
			break
		}
		p.advance()
	}

	// Parse WHERE clause if present
	if p.isKeyword("WHERE") {
		p.advance()
		where, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}

	return stmt, nil
}

func (p *Parser) parseDelete() (*DeleteStatement, error) {
	stmt := &DeleteStatement{}
	p.advance()

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}

	// Parse table name
	name, err := p.parseTableName()
	if err != nil {
		return nil, err
	}
	stmt.Table = name

	// Parse WHERE clause if present
	if p.isKeyword("WHERE") {
		p.advance()
		where, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}

	return stmt, nil
}

func (p *Parser) parseSelect() (*SelectStatement, error) {
	stmt := &SelectStatement{}
	p.advance()

	// Parse columns
	if p.cur().Type == lexer.ASTERISK {
		p.advance()
	} else {
		columns, err := p.parseColumnList()
		if err != nil {
			return nil, err
		}
		stmt.Columns = columns
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}

	// Parse one or more table names
	for {
		name, err := p.parseTableName()
		if err != nil {
			return nil, err
		}
		stmt.Tables = append(stmt.Tables, name)

		if p.cur().Type != lexer.COMMA {
			break
		}
		p.advance()
	}

	if p.isKeyword("WHERE") {
		p.advance()
		where, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}

	if p.isKeyword("GROUP") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		groupBy, err := p.parseColumnList()
		if err != nil {
			return nil, err
		}
		stmt.GroupBy = groupBy
	}

	return stmt, nil
}

// parsePredicate parses the text after WHERE: column = 'value' [AND ...].
func (p *Parser) parsePredicate() (*Predicate, error) {
	if p.atEnd() || p.isKeyword("GROUP") {
		return nil, fmt.Errorf("%w: empty WHERE clause", types.ErrIllegalPredicate)
	}

	stop := func(tok lexer.Token) bool {
		if tok.Type != lexer.KEYWORD {
			return false
		}
		return tok.Literal == "AND" || tok.Literal == "OR" || tok.Literal == "GROUP"
	}

	pred := &Predicate{}
	for {
		tok := p.cur()
		if tok.Type != lexer.IDENTIFIER && tok.Type != lexer.STRING {
			return nil, fmt.Errorf("%w: expected column name, got %s", types.ErrIllegalPredicate, describe(tok))
		}
		col, err := p.parseColumnName()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrIllegalPredicate, err)
		}

		if p.cur().Type != lexer.EQUALS {
			return nil, fmt.Errorf("%w: only = comparisons are supported, got %s after %s",
				types.ErrIllegalPredicate, describe(p.cur()), col)
		}
		p.advance()

		value, err := p.rawValue(stop)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrIllegalPredicate, err)
		}
		pred.Conditions = append(pred.Conditions, Condition{Column: col, Value: value})

		if p.isKeyword("OR") {
			return nil, fmt.Errorf("%w: OR is not supported", types.ErrIllegalPredicate)
		}
		if !p.isKeyword("AND") {
			break
		}
		p.advance()
	}

	return pred, nil
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", tok.Literal)
}
