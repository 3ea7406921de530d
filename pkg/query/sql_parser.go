package query

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/bisegni/ixscan/pkg/expr"
)

// Bound is one end of a key range over a prefix of the index columns.
type Bound struct {
	Values    []expr.Expression
	Inclusive bool
}

// OrderItem requests one column in one direction.
type OrderItem struct {
	Column    string
	Ascending bool
}

// ScanStatement is the parsed form of a SCAN statement.
type ScanStatement struct {
	Index   string
	Low     *Bound
	High    *Bound
	OrderBy []OrderItem
	Select  []string
	Offset  int
	Count   int // -1 when there is no LIMIT
}

func (s *ScanStatement) String() string {
	var sb strings.Builder
	sb.WriteString("SCAN " + s.Index)
	if s.Low != nil || s.High != nil {
		sb.WriteString(" WHERE KEY")
		if s.Low != nil {
			op := "AFTER"
			if s.Low.Inclusive {
				op = "FROM"
			}
			sb.WriteString(" " + op + " " + expr.Join(s.Low.Values))
		}
		if s.High != nil {
			op := "BEFORE"
			if s.High.Inclusive {
				op = "TO"
			}
			sb.WriteString(" " + op + " " + expr.Join(s.High.Values))
		}
	}
	if len(s.OrderBy) > 0 {
		parts := make([]string, len(s.OrderBy))
		for i, o := range s.OrderBy {
			dir := "ASC"
			if !o.Ascending {
				dir = "DESC"
			}
			parts[i] = o.Column + " " + dir
		}
		sb.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}
	if len(s.Select) > 0 {
		sb.WriteString(" SELECT " + strings.Join(s.Select, ", "))
	}
	if s.Count >= 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", s.Count))
		if s.Offset > 0 {
			sb.WriteString(fmt.Sprintf(" OFFSET %d", s.Offset))
		}
	}
	return sb.String()
}

// Lexer definition
var (
	scanLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Keyword", Pattern: `(?i)\b(SCAN|WHERE|KEY|FROM|AFTER|TO|BEFORE|ORDER|BY|ASC|DESC|SELECT|LIMIT|OFFSET|TRUE|FALSE|NULL)\b`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Param", Pattern: `\$\d+`},
		{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
		{Name: "String", Pattern: `'[^']*'|"[^"]*"`},
		{Name: "Punct", Pattern: `[,()]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	// Participle Parser
	scanParser = participle.MustBuild[ASTScan](
		participle.Lexer(scanLexer),
		participle.Unquote("String"),
		participle.CaseInsensitive("Keyword"),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
)

// ParseScan parses a SCAN statement using Participle
func ParseScan(input string) (*ScanStatement, error) {
	input = strings.TrimSuffix(strings.TrimSpace(input), ";")
	if input == "" {
		return nil, fmt.Errorf("empty statement")
	}

	ast, err := scanParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return ast.ToStatement()
}
