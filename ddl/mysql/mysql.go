// Package mysql generates MySQL (8.0.29 or newer) DDL from [ddl] definitions.
package mysql

import (
	"fmt"
	"strings"

	"github.com/modelfactory/modelfactory/ddl"
)

const Engine = "MySQL"

var (
	_ ddl.Generator = (*Generator)(nil)
	_ ddl.Inspector = (*Generator)(nil)
)

var types = map[ddl.ColumnType]string{
	ddl.Serial:       "INT",
	ddl.BigSerial:    "BIGINT",
	ddl.Integer:      "INT",
	ddl.BigInt:       "BIGINT",
	ddl.Double:       "DOUBLE",
	ddl.Decimal:      "DECIMAL(65,30)",
	ddl.Boolean:      "BOOLEAN",
	ddl.Text:         "TEXT",
	ddl.Varchar:      "VARCHAR(255)",
	ddl.Date:         "DATE",
	ddl.DateTime:     "DATETIME",
	ddl.TimestampTZ:  "TIMESTAMP",
	ddl.JSON:         "JSON",
	ddl.JSONB:        "JSON",
	ddl.TextArray:    "JSON",
	ddl.IntegerArray: "JSON",
	ddl.UUID:         "CHAR(36)",
	ddl.Blob:         "LONGBLOB",
}

// MySQL only accepts defaults for these types as parenthesized expressions.
var expressionDefaults = map[ddl.ColumnType]bool{
	ddl.Text:         true,
	ddl.JSON:         true,
	ddl.JSONB:        true,
	ddl.TextArray:    true,
	ddl.IntegerArray: true,
	ddl.Blob:         true,
}

var literals = ddl.Literals{Quote: Literal, True: "TRUE", False: "FALSE"}

// Literal quotes s as a MySQL string literal, escaping backslashes as well as
// single quotes.
func Literal(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdentifier backtick-quotes every part of a possibly dotted identifier.
func QuoteIdentifier(parts ...string) string {
	if len(parts) == 1 {
		parts = strings.Split(parts[0], ".")
	}
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		out = append(out, "`"+strings.ReplaceAll(part, "`", "``")+"`")
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
func (g *Generator) Placeholder(_ int) string               { return "?" }
func (g *Generator) SetDropBeforeCreate(drop bool)          { g.drop = drop }
func (g *Generator) DropBeforeCreate() bool                 { return g.drop }
func (g *Generator) SetVersionTable(name string)            { g.VersionTable = name }

func (g *Generator) Paginate(offset, limit int) string {
	switch {
	case limit > 0 && offset > 0:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	case limit > 0:
		return fmt.Sprintf(" LIMIT %d", limit)
	case offset > 0:
		// the documented way of saying "no limit"
		return fmt.Sprintf(" LIMIT 18446744073709551615 OFFSET %d", offset)
	default:
		return ""
	}
}

func (g *Generator) TransformTable(def *ddl.TableDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	table := QuoteIdentifier(def.Name)
	switch def.Action {
	case ddl.CreateTable:
		return g.createTable(def)
	case ddl.AlterTable:
		return g.alterTable(def)
	case ddl.DropTable:
		return []string{fmt.Sprintf("DROP TABLE IF EXISTS %s", table)}, nil
	case ddl.CreateSequence, ddl.DropSequence:
		return nil, fmt.Errorf("%w: sequences (%s)", ddl.ErrUnsupported, def.Name)
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
	stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", table, strings.Join(columns, ",\n\t")))
	return stmts, nil
}

func (g *Generator) alterTable(def *ddl.TableDefinition) ([]string, error) {
	table := QuoteIdentifier(def.Name)
	var stmts []string
	for _, col := range def.Columns {
		column, err := g.column(def.Name, col, true)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, column))
	}
	for _, name := range def.Dropped {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, QuoteIdentifier(name)))
	}
	return stmts, nil
}

func (g *Generator) column(table string, col *ddl.ColumnDefinition, inlineKey bool) (string, error) {
	typ, ok := types[col.Type]
	if !ok {
		return "", fmt.Errorf("%w: unknown column type %q for %s.%s", ddl.ErrInvalidDefinition, col.Type, table, col.Name)
	}
	if col.Type == ddl.Varchar && col.Size > 0 {
		typ = fmt.Sprintf("VARCHAR(%d)", col.Size)
	}
	parts := []string{QuoteIdentifier(col.Name), typ}
	if col.IsNotNull || col.Type.IsSerial() {
		parts = append(parts, "NOT NULL")
	}
	if col.Type.IsSerial() {
		parts = append(parts, "AUTO_INCREMENT")
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
		_, isExpr := col.Default.(ddl.Expr)
		if expressionDefaults[col.Type] || isExpr {
			value = "(" + value + ")"
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
	switch def.Action {
	case ddl.CreateTrigger:
		if def.Level == ddl.ForEachStatement || def.Event == ddl.OnTruncate {
			return nil, fmt.Errorf("%w: %s %s trigger %s", ddl.ErrUnsupported, def.Level, def.Event, def.Name)
		}
		var stmts []string
		if g.drop {
			stmts = append(stmts, fmt.Sprintf("DROP TRIGGER IF EXISTS %s", name))
		}
		return append(stmts, fmt.Sprintf("CREATE TRIGGER IF NOT EXISTS %s %s %s ON %s FOR EACH ROW\n%s",
			name, def.When, def.Event, QuoteIdentifier(def.Table), strings.TrimSpace(def.Body),
		)), nil
	case ddl.DropTrigger:
		return []string{fmt.Sprintf("DROP TRIGGER IF EXISTS %s", name)}, nil
	default:
		return nil, fmt.Errorf("%w: %s trigger %s", ddl.ErrUnsupported, def.Action, def.Name)
	}
}

func (g *Generator) Initialise() string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n"+
		"\t`version` VARCHAR(255) NOT NULL PRIMARY KEY,\n"+
		"\t`applied_at` TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),\n"+
		"\t`seq` BIGINT NOT NULL AUTO_INCREMENT UNIQUE\n"+
		")", QuoteIdentifier(g.VersionTable))
}

func (g *Generator) Exists(version string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE `version` = %s", QuoteIdentifier(g.VersionTable), Literal(version))
}

func (g *Generator) CleanVersions() string {
	return fmt.Sprintf("DELETE FROM %s", QuoteIdentifier(g.VersionTable))
}

func (g *Generator) Add(version string) string {
	return fmt.Sprintf("INSERT INTO %s (`version`) VALUES (%s)", QuoteIdentifier(g.VersionTable), Literal(version))
}

func (g *Generator) Remove(version string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE `version` = %s", QuoteIdentifier(g.VersionTable), Literal(version))
}

func (g *Generator) Applied() string {
	return fmt.Sprintf("SELECT `version`, `applied_at` FROM %s ORDER BY `seq`", QuoteIdentifier(g.VersionTable))
}

// TablesQuery lists the tables of schema, or of the connection's database
// when schema is empty.
func (g *Generator) TablesQuery(schema string) (string, []any) {
	return `
SELECT table_name AS table_name
FROM information_schema.tables
WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND table_type = 'BASE TABLE'
ORDER BY table_name`, []any{schema}
}

func (g *Generator) ColumnsQuery(schema, table string) (string, []any) {
	return `
SELECT
	column_name AS column_name,
	data_type AS data_type,
	is_nullable AS is_nullable,
	CASE WHEN extra LIKE '%auto_increment%' THEN 'YES' ELSE 'NO' END AS is_identity,
	character_maximum_length AS character_maximum_length,
	numeric_precision AS numeric_precision,
	CASE WHEN numeric_precision IS NULL THEN NULL ELSE 10 END AS numeric_precision_radix,
	ordinal_position AS ordinal_position,
	column_default AS column_default,
	column_type AS udt_name
FROM information_schema.columns
WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND table_name = ?
ORDER BY ordinal_position`, []any{schema, table}
}
