package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bisegni/ixscan/pkg/expr"
)

// AST for Participle Parser

type ASTScan struct {
	Index   string          `parser:"'SCAN' @Ident"`
	Where   *ASTKeyRange    `parser:"('WHERE' 'KEY' @@)?"`
	OrderBy []*ASTOrderItem `parser:"('ORDER' 'BY' @@ (',' @@)*)?"`
	Select  []string        `parser:"('SELECT' @Ident (',' @Ident)*)?"`
	Limit   *ASTLimit       `parser:"@@?"`
}

type ASTKeyRange struct {
	Low  *ASTLowBound  `parser:"@@?"`
	High *ASTHighBound `parser:"@@?"`
}

type ASTLowBound struct {
	Op     string      `parser:"@('FROM'|'AFTER')"`
	Values []*ASTValue `parser:"'(' @@ (',' @@)* ')'"`
}

type ASTHighBound struct {
	Op     string      `parser:"@('TO'|'BEFORE')"`
	Values []*ASTValue `parser:"'(' @@ (',' @@)* ')'"`
}

type ASTOrderItem struct {
	Column    string `parser:"@Ident"`
	Direction string `parser:"@('ASC'|'DESC')?"`
}

type ASTLimit struct {
	Count  string  `parser:"'LIMIT' @Number"`
	Offset *string `parser:"('OFFSET' @Number)?"`
}

type ASTValue struct {
	Param  *string `parser:"  @Param"`
	Number *string `parser:"| @Number"`
	StrVal *string `parser:"| @String"`
	Bool   *string `parser:"| @('TRUE'|'FALSE')"`
	Null   bool    `parser:"| @'NULL'"`
}

// Helpers

func (s *ASTScan) ToStatement() (*ScanStatement, error) {
	st := &ScanStatement{Index: s.Index, Select: s.Select, Count: -1}

	if s.Where != nil {
		if s.Where.Low == nil && s.Where.High == nil {
			return nil, fmt.Errorf("WHERE KEY needs a FROM, AFTER, TO or BEFORE bound")
		}
		if lo := s.Where.Low; lo != nil {
			values, err := toExpressions(lo.Values)
			if err != nil {
				return nil, err
			}
			st.Low = &Bound{Values: values, Inclusive: strings.EqualFold(lo.Op, "FROM")}
		}
		if hi := s.Where.High; hi != nil {
			values, err := toExpressions(hi.Values)
			if err != nil {
				return nil, err
			}
			st.High = &Bound{Values: values, Inclusive: strings.EqualFold(hi.Op, "TO")}
		}
	}

	for _, o := range s.OrderBy {
		st.OrderBy = append(st.OrderBy, OrderItem{
			Column:    o.Column,
			Ascending: !strings.EqualFold(o.Direction, "DESC"),
		})
	}

	if s.Limit != nil {
		n, err := strconv.Atoi(s.Limit.Count)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid LIMIT %q", s.Limit.Count)
		}
		st.Count = n
		if s.Limit.Offset != nil {
			off, err := strconv.Atoi(*s.Limit.Offset)
			if err != nil || off < 0 {
				return nil, fmt.Errorf("invalid OFFSET %q", *s.Limit.Offset)
			}
			st.Offset = off
		}
	}
	return st, nil
}

func toExpressions(values []*ASTValue) ([]expr.Expression, error) {
	out := make([]expr.Expression, len(values))
	for i, v := range values {
		e, err := v.ToExpression()
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (v *ASTValue) ToExpression() (expr.Expression, error) {
	switch {
	case v.Param != nil:
		n, err := strconv.Atoi(strings.TrimPrefix(*v.Param, "$"))
		if err != nil {
			return nil, fmt.Errorf("invalid parameter %q", *v.Param)
		}
		return expr.Param{Position: n}, nil
	case v.Number != nil:
		return expr.Literal{Value: parseNumber(*v.Number)}, nil
	case v.StrVal != nil:
		return expr.Literal{Value: *v.StrVal}, nil
	case v.Bool != nil:
		return expr.Literal{Value: strings.EqualFold(*v.Bool, "TRUE")}, nil
	default:
		return expr.Literal{}, nil
	}
}

// parseNumber keeps integers exact and falls back to float64.
func parseNumber(s string) interface{} {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
