package modelfactory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/modelfactory/modelfactory/ddl"
)

// TableInfoConcurrency bounds the number of tables [DB.TableInfos] describes
// at the same time.
var TableInfoConcurrency = 4

// ColumnInfo is one column of an existing table, as reported by the engine's
// information schema (or its equivalent).
type ColumnInfo struct {
	Name                   string         `db:"column_name" json:"column_name"`
	DataType               string         `db:"data_type" json:"data_type"`
	IsNullable             string         `db:"is_nullable" json:"is_nullable"`
	IsIdentity             string         `db:"is_identity" json:"is_identity"`
	CharacterMaximumLength sql.NullInt64  `db:"character_maximum_length" json:"character_maximum_length"`
	NumericPrecision       sql.NullInt64  `db:"numeric_precision" json:"numeric_precision"`
	NumericPrecisionRadix  sql.NullInt64  `db:"numeric_precision_radix" json:"numeric_precision_radix"`
	OrdinalPosition        int64          `db:"ordinal_position" json:"ordinal_position"`
	Default                sql.NullString `db:"column_default" json:"column_default"`
	UDTName                string         `db:"udt_name" json:"udt_name"`
}

func (c ColumnInfo) Nullable() bool {
	return c.IsNullable == "YES"
}

func (c ColumnInfo) Identity() bool {
	return c.IsIdentity == "YES"
}

func (c ColumnInfo) HasDefault() bool {
	return c.Default.Valid
}

// UsesNextval reports whether the column's default takes the next value of a
// sequence, the way a PostgreSQL serial column does.
func (c ColumnInfo) UsesNextval() bool {
	if !c.Default.Valid {
		return false
	}
	def := strings.TrimSpace(c.Default.String)
	return strings.HasPrefix(def, "nextval('") && strings.HasSuffix(def, "'::regclass)")
}

// IsSerial reports whether the column is an integer filled in by the
// database: sequence backed, or an identity column.
//
// This is a guess based on the column's default and is only used for records
// that do not declare their keys with [KeyedRecord].
func (c ColumnInfo) IsSerial() bool {
	return c.integer() && (c.UsesNextval() || c.Identity())
}

func (c ColumnInfo) integer() bool {
	for _, typ := range []string{c.UDTName, c.DataType} {
		// mysql reports e.g. "int unsigned" or "bigint(20)"
		typ, _, _ = strings.Cut(strings.ToLower(typ), " ")
		typ, _, _ = strings.Cut(typ, "(")
		switch typ {
		case "int2", "int4", "int8", "smallint", "mediumint", "int", "integer", "bigint":
			return true
		}
	}
	return false
}

// Type returns the closest [ddl.ColumnType], or "" if there is none.
func (c ColumnInfo) Type() ddl.ColumnType {
	switch strings.ToLower(c.DataType) {
	case "integer", "int", "int4", "smallint", "mediumint", "tinyint":
		if c.IsSerial() {
			return ddl.Serial
		}
		return ddl.Integer
	case "bigint", "int8":
		if c.IsSerial() {
			return ddl.BigSerial
		}
		return ddl.BigInt
	case "double precision", "double", "real", "float":
		return ddl.Double
	case "numeric", "decimal":
		return ddl.Decimal
	case "boolean", "bool", "bit":
		return ddl.Boolean
	case "text", "longtext", "mediumtext", "nvarchar", "ntext":
		return ddl.Text
	case "character varying", "varchar":
		return ddl.Varchar
	case "date":
		return ddl.Date
	case "timestamp without time zone", "timestamp", "datetime", "datetime2":
		return ddl.DateTime
	case "timestamp with time zone", "datetimeoffset":
		return ddl.TimestampTZ
	case "json":
		return ddl.JSON
	case "jsonb":
		return ddl.JSONB
	case "uuid", "uniqueidentifier":
		return ddl.UUID
	case "bytea", "blob", "longblob", "varbinary":
		return ddl.Blob
	case "array":
		switch c.UDTName {
		case "_text", "_varchar":
			return ddl.TextArray
		case "_int4", "_int8":
			return ddl.IntegerArray
		}
	}
	return ""
}

// TableInfo describes an existing table. Its key lists are computed on first
// use and then cached.
type TableInfo struct {
	Schema  string
	Name    string
	Columns []ColumnInfo

	byName   map[string]ColumnInfo
	keysOnce sync.Once
	keys     []string
	autofill []string
}

func NewTableInfo(schema, name string, columns []ColumnInfo) *TableInfo {
	byName := make(map[string]ColumnInfo, len(columns))
	for _, col := range columns {
		byName[col.Name] = col
	}
	return &TableInfo{Schema: schema, Name: name, Columns: columns, byName: byName}
}

func (t *TableInfo) Column(name string) (ColumnInfo, bool) {
	col, ok := t.byName[name]
	return col, ok
}

func (t *TableInfo) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		names = append(names, col.Name)
	}
	return names
}

// PrimaryKeys returns the serial columns, which are assumed to be the keys.
func (t *TableInfo) PrimaryKeys() []string {
	t.inferKeys()
	return t.keys
}

// AutofillColumns returns the columns the database fills in by itself.
func (t *TableInfo) AutofillColumns() []string {
	t.inferKeys()
	return t.autofill
}

func (t *TableInfo) inferKeys() {
	t.keysOnce.Do(func() {
		for _, col := range t.Columns {
			if col.IsSerial() {
				t.keys = append(t.keys, col.Name)
			}
			if col.UsesNextval() || col.Identity() {
				t.autofill = append(t.autofill, col.Name)
			}
		}
	})
}

// TableInfo describes table, loading it from the database the first time it
// is asked for. An empty schema means db.Schema.
func (db *DB) TableInfo(ctx context.Context, schema, table string) (*TableInfo, error) {
	if schema == "" {
		schema = db.Schema
	}
	key := schema + "." + table
	db.mu.Lock()
	info, ok := db.tables[key]
	db.mu.Unlock()
	if ok {
		return info, nil
	}

	inspector, err := db.inspector()
	if err != nil {
		return nil, err
	}
	query, args := inspector.ColumnsQuery(schema, table)
	var columns []ColumnInfo
	if err := db.selectInto(ctx, &columns, query, args...); err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("describe %s: %w", table, ErrUnknownTable)
	}
	info = NewTableInfo(schema, table, columns)

	db.mu.Lock()
	defer db.mu.Unlock()
	if cached, ok := db.tables[key]; ok {
		return cached, nil
	}
	db.tables[key] = info
	return info, nil
}

// TableInfos describes every table in schema. Tables are loaded concurrently,
// at most [TableInfoConcurrency] at a time.
func (db *DB) TableInfos(ctx context.Context, schema string) ([]*TableInfo, error) {
	if schema == "" {
		schema = db.Schema
	}
	inspector, err := db.inspector()
	if err != nil {
		return nil, err
	}
	query, args := inspector.TablesQuery(schema)
	var names []string
	if err := db.selectInto(ctx, &names, query, args...); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	infos := make([]*TableInfo, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(TableInfoConcurrency)
	for i, name := range names {
		g.Go(func() error {
			info, err := db.TableInfo(ctx, schema, name)
			if err != nil {
				return err
			}
			infos[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return infos, nil
}

// ForgetTableInfo drops every cached [TableInfo], for example after a
// migration changed the schema.
func (db *DB) ForgetTableInfo() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tables = map[string]*TableInfo{}
}

func (db *DB) inspector() (ddl.Inspector, error) {
	inspector, ok := db.Generator.(ddl.Inspector)
	if !ok {
		return nil, fmt.Errorf("%w: introspection on %s", ddl.ErrUnsupported, db.Generator.Engine())
	}
	return inspector, nil
}
