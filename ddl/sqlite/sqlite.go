// Package sqlite generates SQLite DDL from [ddl] definitions.
//
// SQLite has no sequences; a serial column becomes the table's
// INTEGER PRIMARY KEY AUTOINCREMENT rowid alias, so it must be the only
// primary key. Triggers inline their body and cannot be enabled or disabled.
package sqlite

import (
	"fmt"
	"strings"

	"github.com/modelfactory/modelfactory/ddl"
)

const Engine = "SQLite"

var (
	_ ddl.Generator = (*Generator)(nil)
	_ ddl.Inspector = (*Generator)(nil)
)

var types = map[ddl.ColumnType]string{
	ddl.Serial:       "INTEGER",
	ddl.BigSerial:    "INTEGER",
	ddl.Integer:      "INTEGER",
	ddl.BigInt:       "INTEGER",
	ddl.Double:       "REAL",
	ddl.Decimal:      "NUMERIC",
	ddl.Boolean:      "BOOLEAN",
	ddl.Text:         "TEXT",
	ddl.Varchar:      "VARCHAR",
	ddl.Date:         "DATE",
	ddl.DateTime:     "DATETIME",
	ddl.TimestampTZ:  "DATETIME",
	ddl.JSON:         "TEXT",
	ddl.JSONB:        "TEXT",
	ddl.TextArray:    "TEXT",
	ddl.IntegerArray: "TEXT",
	ddl.UUID:         "TEXT",
	ddl.Blob:         "BLOB",
}

var literals = ddl.Literals{Quote: Literal, True: "1", False: "0"}

// Literal quotes s as a SQLite string literal.
func Literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdentifier double-quotes every part of a possibly dotted identifier.
func QuoteIdentifier(parts ...string) string {
	if len(parts) == 1 {
		parts = strings.Split(parts[0], ".")
	}
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		out = append(out, `"`+strings.ReplaceAll(part, `"`, `""`)+`"`)
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
func (g *Generator) Placeholder(n int) string               { return fmt.Sprintf("?%d", n) }
func (g *Generator) SetDropBeforeCreate(drop bool)          { g.drop = drop }
func (g *Generator) DropBeforeCreate() bool                 { return g.drop }
func (g *Generator) SetVersionTable(name string)            { g.VersionTable = name }

// Paginate always emits a LIMIT when an offset is given; SQLite does not
// accept OFFSET on its own.
func (g *Generator) Paginate(offset, limit int) string {
	switch {
	case limit > 0 && offset > 0:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	case limit > 0:
		return fmt.Sprintf(" LIMIT %d", limit)
	case offset > 0:
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", offset)
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
	keys := def.PrimaryKeys()
	var stmts []string
	if g.drop {
		stmts = append(stmts, fmt.Sprintf("DROP TABLE IF EXISTS %s", table))
	}
	columns := make([]string, 0, len(def.Columns)+1)
	rowid := false
	for _, col := range def.Columns {
		if col.Type.IsSerial() {
			if !col.IsPrimary || len(keys) != 1 {
				return nil, fmt.Errorf("%w: serial column %s.%s must be the only primary key", ddl.ErrUnsupported, def.Name, col.Name)
			}
			rowid = true
		}
		column, err := g.column(def.Name, col)
		if err != nil {
			return nil, err
		}
		columns = append(columns, column)
	}
	if len(keys) > 0 && !rowid {
		quoted := make([]string, 0, len(keys))
		for _, key := range keys {
			quoted = append(quoted, QuoteIdentifier(key))
		}
		columns = append(columns, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}
	stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", table, strings.Join(columns, ",\n\t")))
	return stmts, nil
}

// alterTable is limited by what SQLite's ALTER TABLE can add: no keys, no
// unique columns.
func (g *Generator) alterTable(def *ddl.TableDefinition) ([]string, error) {
	table := QuoteIdentifier(def.Name)
	var stmts []string
	for _, col := range def.Columns {
		if col.IsPrimary || col.IsUnique || col.Type.IsSerial() {
			return nil, fmt.Errorf("%w: adding key, unique or serial column %s.%s", ddl.ErrUnsupported, def.Name, col.Name)
		}
		column, err := g.column(def.Name, col)
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

func (g *Generator) column(table string, col *ddl.ColumnDefinition) (string, error) {
	typ, ok := types[col.Type]
	if !ok {
		return "", fmt.Errorf("%w: unknown column type %q for %s.%s", ddl.ErrInvalidDefinition, col.Type, table, col.Name)
	}
	if col.Type == ddl.Varchar && col.Size > 0 {
		typ = fmt.Sprintf("VARCHAR(%d)", col.Size)
	}
	parts := []string{QuoteIdentifier(col.Name), typ}
	if col.Type.IsSerial() {
		return strings.Join(append(parts, "PRIMARY KEY AUTOINCREMENT"), " "), nil
	}
	if col.IsNotNull {
		parts = append(parts, "NOT NULL")
	}
	if col.IsUnique && !col.IsPrimary {
		parts = append(parts, "UNIQUE")
	}
	if col.HasDefault {
		value, err := literals.Render(col.Default)
		if err != nil {
			return "", fmt.Errorf("%s.%s: %w", table, col.Name, err)
		}
		if _, isExpr := col.Default.(ddl.Expr); isExpr {
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
		body := strings.TrimSpace(def.Body)
		if !strings.HasSuffix(body, ";") {
			body += ";"
		}
		var stmts []string
		if g.drop {
			stmts = append(stmts, fmt.Sprintf("DROP TRIGGER IF EXISTS %s", name))
		}
		return append(stmts, fmt.Sprintf("CREATE TRIGGER IF NOT EXISTS %s %s %s ON %s FOR EACH ROW\nBEGIN\n%s\nEND",
			name, def.When, def.Event, QuoteIdentifier(def.Table), body,
		)), nil
	case ddl.DropTrigger:
		return []string{fmt.Sprintf("DROP TRIGGER IF EXISTS %s", name)}, nil
	default:
		return nil, fmt.Errorf("%w: %s trigger %s", ddl.ErrUnsupported, def.Action, def.Name)
	}
}

func (g *Generator) Initialise() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	"version" TEXT PRIMARY KEY,
	"applied_at" DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, QuoteIdentifier(g.VersionTable))
}

func (g *Generator) Exists(version string) string {
	return fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE "version" = %s`, QuoteIdentifier(g.VersionTable), Literal(version))
}

func (g *Generator) CleanVersions() string {
	return fmt.Sprintf(`DELETE FROM %s`, QuoteIdentifier(g.VersionTable))
}

func (g *Generator) Add(version string) string {
	return fmt.Sprintf(`INSERT INTO %s ("version") VALUES (%s)`, QuoteIdentifier(g.VersionTable), Literal(version))
}

func (g *Generator) Remove(version string) string {
	return fmt.Sprintf(`DELETE FROM %s WHERE "version" = %s`, QuoteIdentifier(g.VersionTable), Literal(version))
}

// Applied orders by rowid: applied_at only has second resolution, and a new
// rowid is always larger than every remaining one.
func (g *Generator) Applied() string {
	return fmt.Sprintf(`SELECT "version", "applied_at" FROM %s ORDER BY rowid`, QuoteIdentifier(g.VersionTable))
}

// TablesQuery ignores schema; attached databases are not listed.
func (g *Generator) TablesQuery(_ string) (string, []any) {
	return `
SELECT name
FROM sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
ORDER BY name`, nil
}

// ColumnsQuery reports a lone INTEGER primary key as an identity column,
// since it is an alias for the rowid and filled in by SQLite.
func (g *Generator) ColumnsQuery(_ string, table string) (string, []any) {
	return `
SELECT
	name AS column_name,
	lower(type) AS data_type,
	CASE WHEN "notnull" = 1 THEN 'NO' ELSE 'YES' END AS is_nullable,
	CASE
		WHEN pk = 1 AND lower(type) = 'integer'
			AND (SELECT COUNT(*) FROM pragma_table_info(?1) WHERE pk > 0) = 1
		THEN 'YES' ELSE 'NO'
	END AS is_identity,
	NULL AS character_maximum_length,
	NULL AS numeric_precision,
	NULL AS numeric_precision_radix,
	cid + 1 AS ordinal_position,
	dflt_value AS column_default,
	lower(type) AS udt_name
FROM pragma_table_info(?1)
ORDER BY cid`, []any{table}
}
