package parser

// Statement is one parsed statement. The concrete type is one of
// *CreateStatement, *InsertStatement, *UpdateStatement, *DeleteStatement or
// *SelectStatement.
type Statement interface {
	statementNode()
	// TableName returns the first table the statement refers to.
	TableName() string
}

// CreateStatement represents CREATE TABLE <name> (<col>, ...)
type CreateStatement struct {
	Table   string
	Columns []string
}

// InsertStatement represents INSERT INTO <name> VALUES (<v>, ...)[, (...)]
type InsertStatement struct {
	Table string
	Rows  [][]string
}

// Assignment is one `column = value` pair of an UPDATE SET clause.
type Assignment struct {
	Column string
	Value  string
}

// UpdateStatement represents UPDATE <name> SET ... [WHERE ...]
type UpdateStatement struct {
	Table       string
	Assignments []Assignment
	Where       *Predicate
}

// DeleteStatement represents DELETE FROM <name> [WHERE ...]
type DeleteStatement struct {
	Table string
	Where *Predicate
}

// SelectStatement represents SELECT <cols|*> FROM <name>[, ...] [WHERE ...] [GROUP BY ...]
type SelectStatement struct {
	Columns []string // nil for *
	Tables  []string
	Where   *Predicate
	GroupBy []string
}

// Condition is a single `column = 'value'` test.
type Condition struct {
	Column string
	Value  string
}

// Predicate is an AND-chain of equality conditions.
type Predicate struct {
	Conditions []Condition
}

func (*CreateStatement) statementNode() {}
func (*InsertStatement) statementNode() {}
func (*UpdateStatement) statementNode() {}
func (*DeleteStatement) statementNode() {}
func (*SelectStatement) statementNode() {}

func (s *CreateStatement) TableName() string { return s.Table }
func (s *InsertStatement) TableName() string { return s.Table }
func (s *UpdateStatement) TableName() string { return s.Table }
func (s *DeleteStatement) TableName() string { return s.Table }

func (s *SelectStatement) TableName() string {
	if len(s.Tables) == 0 {
		return ""
	}
	return s.Tables[0]
}

// SelectAll reports whether the statement projects every column.
func (s *SelectStatement) SelectAll() bool {
	return s.Columns == nil
}
