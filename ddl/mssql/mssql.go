// Package mssql generates SQL Server (2016 or newer) DDL from [ddl]
// definitions.
//
// SQL Server triggers only fire after (or instead of) a statement and see
// all affected rows at once, so only AFTER and FOR EACH STATEMENT triggers
// can be expressed. Paginated selects need an ORDER BY.
package mssql

import (
	"fmt"
	"strings"

	"github.com/modelfactory/modelfactory/ddl"
)

const Engine = "SQLServer"

var (
	_ ddl.Generator = (*Generator)(nil)
	_ ddl.Inspector = (*Generator)(nil)
)

var types = map[ddl.ColumnType]string{
	ddl.Serial:       "INT",
	ddl.BigSerial:    "BIGINT",
	ddl.Integer:      "INT",
	ddl.BigInt:       "BIGINT",
	ddl.Double:       "FLOAT",
	ddl.Decimal:      "DECIMAL(38,10)",
	ddl.Boolean:      "BIT",
	ddl.Text:         "NVARCHAR(MAX)",
	ddl.Varchar:      "NVARCHAR(255)",
	ddl.Date:         "DATE",
	ddl.DateTime:     "DATETIME2",
	ddl.TimestampTZ:  "DATETIMEOFFSET",
	ddl.JSON:         "NVARCHAR(MAX)",
	ddl.JSONB:        "NVARCHAR(MAX)",
	ddl.TextArray:    "NVARCHAR(MAX)",
	ddl.IntegerArray: "NVARCHAR(MAX)",
	ddl.UUID:         "UNIQUEIDENTIFIER",
	ddl.Blob:         "VARBINARY(MAX)",
}

var literals = ddl.Literals{Quote: Literal, True: "1", False: "0"}

// Literal quotes s as a unicode string literal.
func Literal(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdentifier bracket-quotes every part of a possibly dotted identifier.
func QuoteIdentifier(parts ...string) string {
	if len(parts) == 1 {
		parts = strings.Split(parts[0], ".")
	}
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		out = append(out, "["+strings.ReplaceAll(part, "]", "]]")+"]")
	}
	return strings.Join(out, ".")
}

type Generator struct {
	VersionTable string
	drop         bool
}

func New() *Generator {
	return &Generator{VersionTable: ddl.DefaultVersionTable}
}

func (g *Generator) Engine() string                         { return Engine }
func (g *Generator) QuoteIdentifier(parts ...string) string { return QuoteIdentifier(parts...) }
func (g *Generator) Placeholder(n int) string               { return fmt.Sprintf("@p%d", n) }
func (g *Generator) SetDropBeforeCreate(drop bool)          { g.drop = drop }
func (g *Generator) DropBeforeCreate() bool                 { return g.drop }
func (g *Generator) SetVersionTable(name string)            { g.VersionTable = name }

func (g *Generator) Paginate(offset, limit int) string {
	if offset <= 0 && limit <= 0 {
		return ""
	}
	clause := fmt.Sprintf(" OFFSET %d ROWS", max(offset, 0))
	if limit > 0 {
		clause += fmt.Sprintf(" FETCH NEXT %d ROWS ONLY", limit)
	}
	return clause
}

// PageOrder satisfies OFFSET ... FETCH, which needs an ORDER BY, without
// imposing an order.
func (g *Generator) PageOrder() string { return "(SELECT NULL)" }

// ifMissing guards a CREATE with an OBJECT_ID check, since SQL Server has no
// CREATE ... IF NOT EXISTS.
func ifMissing(name, kind, create string) string {
	return fmt.Sprintf("IF OBJECT_ID(%s, N'%s') IS NULL %s", Literal(QuoteIdentifier(name)), kind, create)
}

func (g *Generator) TransformTable(def *ddl.TableDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	name := QuoteIdentifier(def.Name)
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
		return append(stmts, ifMissing(def.Name, "SO", fmt.Sprintf("CREATE SEQUENCE %s", name))), nil
	case ddl.DropSequence:
		return []string{fmt.Sprintf("DROP SEQUENCE IF EXISTS %s", name)}, nil
	default: // ddl.ExecuteSQL
		return []string{def.SQL}, nil
	}
}

func (g *Generator) createTable(def *ddl.TableDefinition) ([]string, error) {
	table := QuoteIdentifier(def.Name)
	var stmts []string
	if g.drop {
		stmts = append(stmts, fmt.Sprintf("DROP TABLE IF EXISTS %s", table))
	}
	columns := make([]string, 0, len(def.Columns)+1)
	for _, col := range def.Columns {
		column, err := g.column(def.Name, col, false)
		if err != nil {
			return nil, err
		}
		columns = append(columns, column)
	}
	if keys := def.PrimaryKeys(); len(keys) > 0 {
		quoted := make([]string, 0, len(keys))
		for _, key := range keys {
			quoted = append(quoted, QuoteIdentifier(key))
		}
		columns = append(columns, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}
	create := fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", table, strings.Join(columns, ",\n\t"))
	return append(stmts, ifMissing(def.Name, "U", create)), nil
}

func (g *Generator) alterTable(def *ddl.TableDefinition) ([]string, error) {
	table := QuoteIdentifier(def.Name)
	var stmts []string
	for _, col := range def.Columns {
		column, err := g.column(def.Name, col, true)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD %s", table, column))
	}
	for _, name := range def.Dropped {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP COLUMN IF EXISTS %s", table, QuoteIdentifier(name)))
	}
	return stmts, nil
}

func (g *Generator) column(table string, col *ddl.ColumnDefinition, inlineKey bool) (string, error) {
	typ, ok := types[col.Type]
	if !ok {
		return "", fmt.Errorf("%w: unknown column type %q for %s.%s", ddl.ErrInvalidDefinition, col.Type, table, col.Name)
	}
	if col.Type == ddl.Varchar && col.Size > 0 {
		typ = fmt.Sprintf("NVARCHAR(%d)", col.Size)
	}
	parts := []string{QuoteIdentifier(col.Name), typ}
	if col.Type.IsSerial() {
		parts = append(parts, "IDENTITY(1,1)")
	}
	if col.IsNotNull || col.IsPrimary || col.Type.IsSerial() {
		parts = append(parts, "NOT NULL")
	}
	if col.IsPrimary && inlineKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if col.IsUnique && !col.IsPrimary {
		parts = append(parts, "UNIQUE")
	}
	if col.HasDefault && !col.Type.IsSerial() {
		value, err := literals.Render(col.Default)
		if err != nil {
			return "", fmt.Errorf("%s.%s: %w", table, col.Name, err)
		}
		parts = append(parts, "DEFAULT "+value)
	}
	return strings.Join(parts, " "), nil
}

func (g *Generator) TransformTrigger(def *ddl.TriggerDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	name := QuoteIdentifier(def.Name)
	table := QuoteIdentifier(def.Table)
	switch def.Action {
	case ddl.CreateTrigger:
		if def.When == ddl.Before || def.Level == ddl.ForEachRow || def.Event == ddl.OnTruncate {
			return nil, fmt.Errorf("%w: %s %s %s trigger %s", ddl.ErrUnsupported, def.When, def.Event, def.Level, def.Name)
		}
		var stmts []string
		if g.drop {
			stmts = append(stmts, fmt.Sprintf("DROP TRIGGER IF EXISTS %s", name))
		}
		return append(stmts, fmt.Sprintf("CREATE OR ALTER TRIGGER %s ON %s AFTER %s AS\nBEGIN\n%s\nEND",
			name, table, def.Event, strings.TrimSpace(def.Body),
		)), nil
	case ddl.DropTrigger:
		return []string{fmt.Sprintf("DROP TRIGGER IF EXISTS %s", name)}, nil
	case ddl.EnableTrigger:
		return []string{fmt.Sprintf("ENABLE TRIGGER %s ON %s", name, table)}, nil
	default: // ddl.DisableTrigger
		return []string{fmt.Sprintf("DISABLE TRIGGER %s ON %s", name, table)}, nil
	}
}

func (g *Generator) Initialise() string {
	return ifMissing(g.VersionTable, "U", fmt.Sprintf(`CREATE TABLE %s (
	[version] NVARCHAR(255) NOT NULL PRIMARY KEY,
	[applied_at] DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
	[seq] BIGINT IDENTITY(1,1) NOT NULL
)`, QuoteIdentifier(g.VersionTable)))
}

func (g *Generator) Exists(version string) string {
	return fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE [version] = %s`, QuoteIdentifier(g.VersionTable), Literal(version))
}

func (g *Generator) CleanVersions() string {
	return fmt.Sprintf(`DELETE FROM %s`, QuoteIdentifier(g.VersionTable))
}

func (g *Generator) Add(version string) string {
	return fmt.Sprintf(`INSERT INTO %s ([version]) VALUES (%s)`, QuoteIdentifier(g.VersionTable), Literal(version))
}

func (g *Generator) Remove(version string) string {
	return fmt.Sprintf(`DELETE FROM %s WHERE [version] = %s`, QuoteIdentifier(g.VersionTable), Literal(version))
}

func (g *Generator) Applied() string {
	return fmt.Sprintf(`SELECT [version], [applied_at] FROM %s ORDER BY [seq]`, QuoteIdentifier(g.VersionTable))
}

func (g *Generator) TablesQuery(schema string) (string, []any) {
	return `
SELECT table_name AS table_name
FROM information_schema.tables
WHERE table_schema = @p1 AND table_type = 'BASE TABLE'
ORDER BY table_name`, []any{defaultSchema(schema)}
}

func (g *Generator) ColumnsQuery(schema, table string) (string, []any) {
	return `
SELECT
	column_name AS column_name,
	data_type AS data_type,
	is_nullable AS is_nullable,
	CASE WHEN COLUMNPROPERTY(OBJECT_ID(QUOTENAME(table_schema) + '.' + QUOTENAME(table_name)), column_name, 'IsIdentity') = 1
		THEN 'YES' ELSE 'NO'
	END AS is_identity,
	character_maximum_length AS character_maximum_length,
	CAST(numeric_precision AS INT) AS numeric_precision,
	CAST(numeric_precision_radix AS INT) AS numeric_precision_radix,
	ordinal_position AS ordinal_position,
	column_default AS column_default,
	data_type AS udt_name
FROM information_schema.columns
WHERE table_schema = @p1 AND table_name = @p2
ORDER BY ordinal_position`, []any{defaultSchema(schema), table}
}

func defaultSchema(schema string) string {
	if schema == "" {
		return "dbo"
	}
	return schema
}
