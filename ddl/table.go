// Package ddl describes schema changes in a dialect-neutral form. A
// [Generator] turns the definitions in this package into literal SQL for one
// database engine.
package ddl

import "fmt"

// ColumnType is the dialect-neutral type of a column. Each [Generator] owns
// the mapping from ColumnType to a concrete SQL type name.
type ColumnType string

const (
	Serial       ColumnType = "serial"
	BigSerial    ColumnType = "bigserial"
	Integer      ColumnType = "integer"
	BigInt       ColumnType = "bigint"
	Double       ColumnType = "double"
	Decimal      ColumnType = "decimal"
	Boolean      ColumnType = "boolean"
	Text         ColumnType = "text"
	Varchar      ColumnType = "varchar"
	Date         ColumnType = "date"
	DateTime     ColumnType = "datetime"
	TimestampTZ  ColumnType = "timestamptz"
	JSON         ColumnType = "json"
	JSONB        ColumnType = "jsonb"
	TextArray    ColumnType = "text_array"
	IntegerArray ColumnType = "integer_array"
	UUID         ColumnType = "uuid"
	Blob         ColumnType = "blob"
)

// IsSerial reports whether the engine generates values for the column.
func (t ColumnType) IsSerial() bool {
	return t == Serial || t == BigSerial
}

// TableAction is what a [TableDefinition] asks the generator to do.
type TableAction string

const (
	CreateTable    TableAction = "create"
	AlterTable     TableAction = "alter"
	DropTable      TableAction = "drop"
	CreateSequence TableAction = "createSequence"
	DropSequence   TableAction = "dropSequence"
	ExecuteSQL     TableAction = "execute"
)

// Expr is a default value that is rendered verbatim instead of as a literal,
// for instance Expr("CURRENT_TIMESTAMP").
type Expr string

// ColumnDefinition describes one column of a table. The setters return the
// receiver so that calls can be chained:
//
//	t.Column("id", ddl.Serial).PrimaryKey().NotNull()
type ColumnDefinition struct {
	Name       string
	Type       ColumnType
	Size       int
	IsPrimary  bool
	IsUnique   bool
	IsNotNull  bool
	HasDefault bool
	Default    any
}

func (c *ColumnDefinition) PrimaryKey() *ColumnDefinition {
	c.IsPrimary = true
	return c
}

func (c *ColumnDefinition) Unique() *ColumnDefinition {
	c.IsUnique = true
	return c
}

func (c *ColumnDefinition) NotNull() *ColumnDefinition {
	c.IsNotNull = true
	return c
}

// Defaults sets the column default. Strings are rendered as quoted literals;
// use [Expr] for an expression.
func (c *ColumnDefinition) Defaults(value any) *ColumnDefinition {
	c.HasDefault = true
	c.Default = value
	return c
}

// Length sets the size of a varchar column.
func (c *ColumnDefinition) Length(n int) *ColumnDefinition {
	c.Size = n
	return c
}

// TableDefinition is built inside a migration and handed to a [Generator]
// once complete.
type TableDefinition struct {
	Action  TableAction
	Name    string
	Columns []*ColumnDefinition
	Dropped []string
	SQL     string
}

// NewTable returns a definition for the given action and table (or sequence)
// name.
func NewTable(action TableAction, name string) *TableDefinition {
	return &TableDefinition{Action: action, Name: name}
}

// Raw returns a definition that executes sql as-is.
func Raw(sql string) *TableDefinition {
	return &TableDefinition{Action: ExecuteSQL, SQL: sql}
}

// Column appends a column and returns it for further configuration.
func (t *TableDefinition) Column(name string, typ ColumnType) *ColumnDefinition {
	col := &ColumnDefinition{Name: name, Type: typ}
	t.Columns = append(t.Columns, col)
	return col
}

// DropColumn records a column to remove; only meaningful for [AlterTable].
func (t *TableDefinition) DropColumn(name string) {
	t.Dropped = append(t.Dropped, name)
}

// PrimaryKeys returns the names of the columns marked as primary keys, in
// declaration order.
func (t *TableDefinition) PrimaryKeys() []string {
	var keys []string
	for _, col := range t.Columns {
		if col.IsPrimary {
			keys = append(keys, col.Name)
		}
	}
	return keys
}

// Validate checks the parts of a definition that every dialect relies on.
func (t *TableDefinition) Validate() error {
	switch t.Action {
	case ExecuteSQL:
		if t.SQL == "" {
			return fmt.Errorf("%w: empty sql", ErrInvalidDefinition)
		}
		return nil
	case CreateTable, AlterTable, DropTable, CreateSequence, DropSequence:
	default:
		return fmt.Errorf("%w: unknown table action %q", ErrInvalidDefinition, t.Action)
	}
	if t.Name == "" {
		return fmt.Errorf("%w: %s requires a name", ErrInvalidDefinition, t.Action)
	}
	if t.Action == CreateTable && len(t.Columns) == 0 {
		return fmt.Errorf("%w: table %s has no columns", ErrInvalidDefinition, t.Name)
	}
	if t.Action == AlterTable && len(t.Columns) == 0 && len(t.Dropped) == 0 {
		return fmt.Errorf("%w: alter %s changes nothing", ErrInvalidDefinition, t.Name)
	}
	for _, col := range t.Columns {
		if col.Name == "" {
			return fmt.Errorf("%w: table %s has a column without a name", ErrInvalidDefinition, t.Name)
		}
	}
	return nil
}

// SequenceName is the name of the sequence backing a serial column on
// engines that model serials with sequences.
func SequenceName(table, column string) string {
	return fmt.Sprintf("%s_%s_seq", table, column)
}
