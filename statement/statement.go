// Package statement builds parameterized SQL for reading and writing the rows
// of one table. Values are always passed as bind arguments; identifiers are
// quoted by the [ddl.Dialect].
package statement

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/modelfactory/modelfactory/ddl"
)

var (
	// ErrNoKeys is returned when a statement that must target specific rows
	// is built without key columns.
	ErrNoKeys = errors.New("no key columns")
	// ErrUnknownColumn is returned when a key column is not one of the
	// record's columns.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNoColumns is returned when every column of an UPDATE is excluded.
	ErrNoColumns = errors.New("no columns to set")
)

// ColumnValue is one column of a record and its current value.
type ColumnValue struct {
	Name  string
	Value any
}

// Statement is SQL text and the arguments for its placeholders, in order.
type Statement struct {
	SQL  string
	Args []any
}

// Query describes a SELECT or COUNT. All fields are optional.
//
// Where is copied into the statement verbatim and must use the dialect's
// placeholders for Values. Values are bound before any Filter values, so
// with PostgreSQL a Where written as `"a" = $1 OR "b" = $2` keeps its
// numbering and Filter placeholders continue from $3.
type Query struct {
	Columns []string
	Filter  []ColumnValue
	Where   string
	Values  []any
	OrderBy string
	Offset  int
	Limit   int
}

// Builder builds statements against one table. It holds no per-statement
// state and can be reused.
type Builder struct {
	Dialect ddl.Dialect
	Table   string
	// Schema, if set, qualifies Table.
	Schema  string
	Columns []ColumnValue
}

// New returns a Builder for table whose records have the given columns.
func New(dialect ddl.Dialect, table string, columns []ColumnValue) *Builder {
	return &Builder{Dialect: dialect, Table: table, Columns: columns}
}

// args numbers placeholders for a single statement.
type args struct {
	dialect ddl.Dialect
	values  []any
}

func (a *args) bind(value any) string {
	a.values = append(a.values, value)
	return a.dialect.Placeholder(len(a.values))
}

func (b *Builder) table() string {
	if b.Schema == "" {
		return b.Dialect.QuoteIdentifier(b.Table)
	}
	return b.Dialect.QuoteIdentifier(b.Schema, b.Table)
}

func (b *Builder) column(name string) string {
	return b.Dialect.QuoteIdentifier("", name)
}

// Insert builds an INSERT of every column except those in autofill.
func (b *Builder) Insert(autofill []string) Statement {
	a := &args{dialect: b.Dialect}
	var names, placeholders []string
	for _, col := range b.Columns {
		if slices.Contains(autofill, col.Name) {
			continue
		}
		names = append(names, b.column(col.Name))
		placeholders = append(placeholders, a.bind(col.Value))
	}
	if len(names) == 0 {
		return Statement{SQL: fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", b.table())}
	}
	return Statement{
		SQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			b.table(), strings.Join(names, ", "), strings.Join(placeholders, ", "),
		),
		Args: a.values,
	}
}

// Update builds an UPDATE that sets every column except those in autofill,
// on the rows whose keys equal the record's current key values.
func (b *Builder) Update(keys, autofill []string) (Statement, error) {
	a := &args{dialect: b.Dialect}
	var sets []string
	for _, col := range b.Columns {
		if slices.Contains(autofill, col.Name) {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = %s", b.column(col.Name), a.bind(col.Value)))
	}
	if len(sets) == 0 {
		return Statement{}, fmt.Errorf("update %s: %w", b.Table, ErrNoColumns)
	}
	where, err := b.keyPredicates(a, keys)
	if err != nil {
		return Statement{}, fmt.Errorf("update %s: %w", b.Table, err)
	}
	return Statement{
		SQL:  fmt.Sprintf("UPDATE %s SET %s WHERE %s", b.table(), strings.Join(sets, ", "), where),
		Args: a.values,
	}, nil
}

// Delete builds a DELETE of the rows whose keys equal the record's values.
func (b *Builder) Delete(keys []string) (Statement, error) {
	a := &args{dialect: b.Dialect}
	where, err := b.keyPredicates(a, keys)
	if err != nil {
		return Statement{}, fmt.Errorf("delete %s: %w", b.Table, err)
	}
	return Statement{
		SQL:  fmt.Sprintf("DELETE FROM %s WHERE %s", b.table(), where),
		Args: a.values,
	}, nil
}

// Exists builds a query returning a single integer, 1 if a row with the
// record's keys exists and 0 otherwise.
func (b *Builder) Exists(keys []string) (Statement, error) {
	a := &args{dialect: b.Dialect}
	where, err := b.keyPredicates(a, keys)
	if err != nil {
		return Statement{}, fmt.Errorf("exists %s: %w", b.Table, err)
	}
	return Statement{
		SQL:  fmt.Sprintf("SELECT CASE WHEN EXISTS (SELECT 1 FROM %s WHERE %s) THEN 1 ELSE 0 END", b.table(), where),
		Args: a.values,
	}, nil
}

// Select builds a SELECT of q.Columns, or of every column when empty.
func (b *Builder) Select(q Query) Statement {
	a := &args{dialect: b.Dialect}
	columns := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, 0, len(q.Columns))
		for _, name := range q.Columns {
			quoted = append(quoted, b.column(name))
		}
		columns = strings.Join(quoted, ", ")
	}
	sql := fmt.Sprintf("SELECT %s FROM %s", columns, b.table())
	sql += b.where(a, q)
	page := b.Dialect.Paginate(q.Offset, q.Limit)
	orderBy := q.OrderBy
	if orderBy == "" && page != "" {
		if orderer, ok := b.Dialect.(ddl.PageOrderer); ok {
			orderBy = orderer.PageOrder()
		}
	}
	if orderBy != "" {
		sql += " ORDER BY " + orderBy
	}
	sql += page
	return Statement{SQL: sql, Args: a.values}
}

// Count builds a SELECT COUNT(*) of the rows matching q. Columns, OrderBy and
// pagination are ignored.
func (b *Builder) Count(q Query) Statement {
	a := &args{dialect: b.Dialect}
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s", b.table())
	sql += b.where(a, q)
	return Statement{SQL: sql, Args: a.values}
}

func (b *Builder) where(a *args, q Query) string {
	a.values = append(a.values, q.Values...)
	var predicates []string
	if q.Where != "" {
		predicates = append(predicates, "("+q.Where+")")
	}
	for _, f := range q.Filter {
		predicates = append(predicates, b.predicate(a, f.Name, f.Value))
	}
	if len(predicates) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(predicates, " AND ")
}

func (b *Builder) predicate(a *args, name string, value any) string {
	if value == nil {
		return fmt.Sprintf("%s IS NULL", b.column(name))
	}
	return fmt.Sprintf("%s = %s", b.column(name), a.bind(value))
}

func (b *Builder) keyPredicates(a *args, keys []string) (string, error) {
	if len(keys) == 0 {
		return "", ErrNoKeys
	}
	predicates := make([]string, 0, len(keys))
	for _, key := range keys {
		idx := slices.IndexFunc(b.Columns, func(c ColumnValue) bool { return c.Name == key })
		if idx < 0 {
			return "", fmt.Errorf("%w: %s", ErrUnknownColumn, key)
		}
		predicates = append(predicates, b.predicate(a, key, b.Columns[idx].Value))
	}
	return strings.Join(predicates, " AND "), nil
}
