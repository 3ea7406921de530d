package database

import (
	"fmt"
	"strings"
)

// TypesTranslator maps SQL type names onto field types. It is built once and
// handed to whoever resolves column definitions.
type TypesTranslator struct {
	byName map[string]FieldType
}

func NewTypesTranslator() *TypesTranslator {
	return &TypesTranslator{byName: map[string]FieldType{
		"bigint":    TypeBigint,
		"int8":      TypeBigint,
		"long":      TypeBigint,
		"int":       TypeInteger,
		"integer":   TypeInteger,
		"int4":      TypeInteger,
		"mediumint": TypeInteger,
		"smallint":  TypeSmallint,
		"int2":      TypeSmallint,
		"tinyint":   TypeSmallint,
		"double":    TypeDouble,
		"float8":    TypeDouble,
		"float":     TypeDouble,
		"real":      TypeDouble,
		"varchar":   TypeVarchar,
		"char":      TypeVarchar,
		"text":      TypeVarchar,
		"string":    TypeVarchar,
		"boolean":   TypeBoolean,
		"bool":      TypeBoolean,
		"varbinary": TypeVarbinary,
		"binary":    TypeVarbinary,
		"blob":      TypeVarbinary,
		"bytea":     TypeVarbinary,
	}}
}

// TypeForName resolves a SQL type name, ignoring case and any length suffix
// such as VARCHAR(32).
func (tt *TypesTranslator) TypeForName(name string) (FieldType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexByte(key, '('); i >= 0 {
		key = strings.TrimSpace(key[:i])
	}
	t, ok := tt.byName[key]
	if !ok {
		return 0, fmt.Errorf("unknown data type %q", name)
	}
	return t, nil
}

// GoType names the Go type carrying values of t.
func (tt *TypesTranslator) GoType(t FieldType) string {
	switch {
	case t.IsInteger():
		return "int64"
	case t == TypeDouble:
		return "float64"
	case t == TypeVarchar:
		return "string"
	case t == TypeBoolean:
		return "bool"
	case t == TypeVarbinary:
		return "[]byte"
	}
	return "unknown"
}
