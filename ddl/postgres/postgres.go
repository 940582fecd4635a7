// Package postgres generates PostgreSQL DDL from [ddl] definitions.
//
// Serial columns are modeled the way PostgreSQL itself does it: an integer
// column whose default is nextval() on a sequence owned by the column. The
// sequence is created and owned explicitly so that its name is predictable
// ("<table>_<column>_seq").
package postgres

import (
	"fmt"
	"strings"

	"github.com/modelfactory/modelfactory/ddl"
	"github.com/modelfactory/modelfactory/internal/pgtools"
)

// Engine is the engine name this package generates SQL for.
const Engine = "PostgreSQL"

var (
	_ ddl.Generator = (*Generator)(nil)
	_ ddl.Inspector = (*Generator)(nil)
)

var types = map[ddl.ColumnType]string{
	ddl.Serial:       "integer",
	ddl.BigSerial:    "bigint",
	ddl.Integer:      "integer",
	ddl.BigInt:       "bigint",
	ddl.Double:       "double precision",
	ddl.Decimal:      "numeric",
	ddl.Boolean:      "boolean",
	ddl.Text:         "text",
	ddl.Varchar:      "varchar",
	ddl.Date:         "date",
	ddl.DateTime:     "timestamp",
	ddl.TimestampTZ:  "timestamp with time zone",
	ddl.JSON:         "json",
	ddl.JSONB:        "jsonb",
	ddl.TextArray:    "text[]",
	ddl.IntegerArray: "integer[]",
	ddl.UUID:         "uuid",
	ddl.Blob:         "bytea",
}

var literals = ddl.Literals{Quote: pgtools.Literal, True: "TRUE", False: "FALSE"}

// Generator should be instantiated with [New].
type Generator struct {
	// VersionTable is the (optionally schema-qualified) name of the version
	// log table.
	VersionTable string
	drop         bool
}

// New returns a Generator that keeps its version log in
// [ddl.DefaultVersionTable].
func New() *Generator {
	return &Generator{VersionTable: ddl.DefaultVersionTable}
}

func (g *Generator) Engine() string {
	return Engine
}

func (g *Generator) QuoteIdentifier(parts ...string) string {
	return pgtools.QuoteIdentifier(parts...)
}

func (g *Generator) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (g *Generator) Paginate(offset, limit int) string {
	var clause string
	if limit > 0 {
		clause += fmt.Sprintf(" LIMIT %d", limit)
	}
	if offset > 0 {
		clause += fmt.Sprintf(" OFFSET %d", offset)
	}
	return clause
}

func (g *Generator) SetDropBeforeCreate(drop bool) {
	g.drop = drop
}

func (g *Generator) DropBeforeCreate() bool {
	return g.drop
}

func (g *Generator) SetVersionTable(name string) {
	g.VersionTable = name
}

func (g *Generator) TransformTable(def *ddl.TableDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	name := pgtools.QuoteIdentifier(def.Name)
	switch def.Action {
	case ddl.CreateTable:
		return g.createTable(def)
	case ddl.AlterTable:
		return g.alterTable(def)
	case ddl.DropTable:
		return []string{fmt.Sprintf("DROP TABLE IF EXISTS %s", name)}, nil
	case ddl.CreateSequence:
		var stmts []string
		if g.drop {
			stmts = append(stmts, fmt.Sprintf("DROP SEQUENCE IF EXISTS %s", name))
		}
		return append(stmts, fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s", name)), nil
	case ddl.DropSequence:
		return []string{fmt.Sprintf("DROP SEQUENCE IF EXISTS %s", name)}, nil
	default: // ddl.ExecuteSQL
		return []string{def.SQL}, nil
	}
}

func (g *Generator) createTable(def *ddl.TableDefinition) ([]string, error) {
	table := pgtools.QuoteIdentifier(def.Name)
	var before, after []string
	if g.drop {
		before = append(before, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table))
	}
	columns := make([]string, 0, len(def.Columns)+1)
	for _, col := range def.Columns {
		column, err := g.column(def.Name, col, false)
		if err != nil {
			return nil, err
		}
		columns = append(columns, column)
		if col.Type.IsSerial() {
			seq := g.sequence(def.Name, col.Name)
			if g.drop {
				before = append(before, fmt.Sprintf("DROP SEQUENCE IF EXISTS %s", seq))
			}
			before = append(before, fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s", seq))
			after = append(after, fmt.Sprintf("ALTER SEQUENCE %s OWNED BY %s.%s",
				seq, table, pgtools.QuoteIdentifier(col.Name),
			))
		}
	}
	if keys := def.PrimaryKeys(); len(keys) > 0 {
		columns = append(columns, fmt.Sprintf("PRIMARY KEY (%s)", quoteList(keys)))
	}
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", table, strings.Join(columns, ",\n\t"))
	stmts := append(before, create)
	return append(stmts, after...), nil
}

func (g *Generator) alterTable(def *ddl.TableDefinition) ([]string, error) {
	table := pgtools.QuoteIdentifier(def.Name)
	var stmts []string
	for _, col := range def.Columns {
		column, err := g.column(def.Name, col, true)
		if err != nil {
			return nil, err
		}
		if col.Type.IsSerial() {
			stmts = append(stmts, fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s", g.sequence(def.Name, col.Name)))
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s", table, column))
	}
	for _, name := range def.Dropped {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP COLUMN IF EXISTS %s", table, pgtools.QuoteIdentifier(name)))
	}
	return stmts, nil
}

// column renders a column for CREATE TABLE or ADD COLUMN. Primary keys are
// declared at the table level when creating, and inline when altering.
func (g *Generator) column(table string, col *ddl.ColumnDefinition, inlineKey bool) (string, error) {
	typ, ok := types[col.Type]
	if !ok {
		return "", fmt.Errorf("%w: unknown column type %q for %s.%s", ddl.ErrInvalidDefinition, col.Type, table, col.Name)
	}
	if col.Type == ddl.Varchar && col.Size > 0 {
		typ = fmt.Sprintf("varchar(%d)", col.Size)
	}
	parts := []string{pgtools.QuoteIdentifier(col.Name), typ}
	if col.IsPrimary && inlineKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if col.IsNotNull || col.Type.IsSerial() {
		parts = append(parts, "NOT NULL")
	}
	if col.IsUnique && !col.IsPrimary {
		parts = append(parts, "UNIQUE")
	}
	switch {
	case col.Type.IsSerial():
		seq := pgtools.Literal(g.sequence(table, col.Name))
		parts = append(parts, fmt.Sprintf("DEFAULT nextval(%s::regclass)", seq))
	case col.HasDefault:
		value, err := literals.Render(col.Default)
		if err != nil {
			return "", fmt.Errorf("%s.%s: %w", table, col.Name, err)
		}
		parts = append(parts, "DEFAULT "+value)
	}
	return strings.Join(parts, " "), nil
}

// sequence returns the quoted name of the sequence backing a serial column,
// in the same schema as the table.
func (g *Generator) sequence(table, column string) string {
	schema, name := pgtools.ParseTableName(table)
	return pgtools.QuoteIdentifier(schema, ddl.SequenceName(name, column))
}

func (g *Generator) TransformTrigger(def *ddl.TriggerDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	name := pgtools.QuoteIdentifier(def.Name)
	table := pgtools.QuoteIdentifier(def.Table)
	switch def.Action {
	case ddl.CreateTrigger:
		fn := def.FunctionName
		if fn == "" {
			fn = def.Name + "_fn"
		}
		function := pgtools.QuoteIdentifier(fn)
		var stmts []string
		if g.drop {
			stmts = append(stmts, fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s", name, table))
		}
		stmts = append(stmts,
			fmt.Sprintf("CREATE OR REPLACE FUNCTION %s() RETURNS trigger AS $function$\n%s\n$function$ LANGUAGE plpgsql", function, def.Body),
			fmt.Sprintf("CREATE OR REPLACE TRIGGER %s %s %s ON %s %s EXECUTE FUNCTION %s()", name, def.When, def.Event, table, def.Level, function),
		)
		return stmts, nil
	case ddl.DropTrigger:
		return []string{fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s", name, table)}, nil
	case ddl.EnableTrigger:
		return []string{fmt.Sprintf("ALTER TABLE %s ENABLE TRIGGER %s", table, name)}, nil
	default: // ddl.DisableTrigger
		return []string{fmt.Sprintf("ALTER TABLE %s DISABLE TRIGGER %s", table, name)}, nil
	}
}

func (g *Generator) Initialise() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	"version" text PRIMARY KEY,
	"applied_at" timestamp with time zone NOT NULL DEFAULT now(),
	"seq" bigint GENERATED BY DEFAULT AS IDENTITY
)`, pgtools.QuoteIdentifier(g.VersionTable))
}

func (g *Generator) Exists(version string) string {
	return fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE "version" = %s`, pgtools.QuoteIdentifier(g.VersionTable), pgtools.Literal(version))
}

func (g *Generator) CleanVersions() string {
	return fmt.Sprintf(`DELETE FROM %s`, pgtools.QuoteIdentifier(g.VersionTable))
}

func (g *Generator) Add(version string) string {
	return fmt.Sprintf(`INSERT INTO %s ("version") VALUES (%s)`, pgtools.QuoteIdentifier(g.VersionTable), pgtools.Literal(version))
}

func (g *Generator) Remove(version string) string {
	return fmt.Sprintf(`DELETE FROM %s WHERE "version" = %s`, pgtools.QuoteIdentifier(g.VersionTable), pgtools.Literal(version))
}

func (g *Generator) Applied() string {
	return fmt.Sprintf(`SELECT "version", "applied_at" FROM %s ORDER BY "seq"`, pgtools.QuoteIdentifier(g.VersionTable))
}

func (g *Generator) TablesQuery(schema string) (string, []any) {
	return `
SELECT table_name::text
FROM information_schema.tables
WHERE table_schema = $1 AND table_type = 'BASE TABLE'
ORDER BY table_name`, []any{defaultSchema(schema)}
}

func (g *Generator) ColumnsQuery(schema, table string) (string, []any) {
	return `
SELECT
	column_name::text AS column_name,
	data_type::text AS data_type,
	is_nullable::text AS is_nullable,
	is_identity::text AS is_identity,
	character_maximum_length::integer AS character_maximum_length,
	numeric_precision::integer AS numeric_precision,
	numeric_precision_radix::integer AS numeric_precision_radix,
	ordinal_position::integer AS ordinal_position,
	column_default::text AS column_default,
	udt_name::text AS udt_name
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`, []any{defaultSchema(schema), table}
}

func defaultSchema(schema string) string {
	if schema == "" {
		return "public"
	}
	return schema
}

func quoteList(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, pgtools.QuoteIdentifier(name))
	}
	return strings.Join(quoted, ", ")
}
