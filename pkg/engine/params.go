package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bisegni/ixscan/pkg/expr"
)

var positionalParam = regexp.MustCompile(`^\$?(\d+)=`)

// ParseParams turns command line parameter values into bindings. A plain
// value binds its place in the list, so "a b" binds $0 and $1. A value
// written N=v or $N=v binds position N, which lets parameters arrive out of
// order or with gaps; the result is then sparse.
//
// NULL, TRUE and FALSE are recognised in any case, numbers become int64 or
// float64, quoted text has its quotes removed and anything else is a string.
func ParseParams(values []string) (expr.Bindings, error) {
	dense := make(expr.ArrayBindings, len(values))
	sparse := make(expr.SparseBindings, len(values))
	isSparse := false
	for i, v := range values {
		pos := i
		if m := positionalParam.FindStringSubmatch(v); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("invalid parameter position in %q", v)
			}
			pos, v, isSparse = n, v[len(m[0]):], true
		}
		if _, dup := sparse[pos]; dup {
			return nil, fmt.Errorf("parameter $%d bound twice", pos)
		}
		sparse[pos] = parseParam(v)
		dense[i] = sparse[pos]
	}
	if isSparse {
		return sparse, nil
	}
	return dense, nil
}

func parseParam(s string) interface{} {
	switch strings.ToUpper(s) {
	case "NULL":
		return nil
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	if n := len(s); n >= 2 && (s[0] == '\'' || s[0] == '"') && s[n-1] == s[0] {
		return s[1 : n-1]
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// SplitParams splits a line of parameter values on whitespace. Text quoted
// with ' or " stays one value, quotes included, so ParseParams still sees it
// as text.
func SplitParams(line string) ([]string, error) {
	var (
		out   []string
		cur   strings.Builder
		quote byte
		open  bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote, open = c, true
			cur.WriteByte(c)
		case c == ' ' || c == '\t':
			if open {
				out = append(out, cur.String())
				cur.Reset()
				open = false
			}
		default:
			open = true
			cur.WriteByte(c)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if open {
		out = append(out, cur.String())
	}
	return out, nil
}
