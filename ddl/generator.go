package ddl

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidDefinition is returned when a definition is missing something
	// every dialect needs, such as a table name.
	ErrInvalidDefinition = errors.New("invalid definition")
	// ErrUnsupported is returned when a definition asks for a feature the
	// target engine does not have.
	ErrUnsupported = errors.New("not supported by this engine")
	// ErrEmptyTransform is returned by callers of a [Generator] when it
	// produced no statements for a definition. Generators should never do
	// this, so it indicates a bug in the generator.
	ErrEmptyTransform = errors.New("generator produced no statements")
)

// DefaultVersionTable is the name of the table that records applied
// migration versions.
const DefaultVersionTable = "schema_versions"

// Dialect is the part of a [Generator] that the statement builder needs.
type Dialect interface {
	// Engine is the canonical name of the engine, e.g. "PostgreSQL".
	Engine() string
	// QuoteIdentifier quotes a possibly schema-qualified identifier. A single
	// argument containing a "." is split into its parts.
	QuoteIdentifier(parts ...string) string
	// Placeholder returns the bind parameter for the n-th (1-based) argument.
	Placeholder(n int) string
	// Paginate returns the clause appended to a SELECT for the given offset
	// and limit. A value <= 0 means "not set". The result has a leading
	// space, or is empty.
	Paginate(offset, limit int) string
}

// PageOrderer is implemented by dialects that only paginate an ordered
// result. PageOrder is the ORDER BY expression used when a paginated query
// has none.
type PageOrderer interface {
	PageOrder() string
}

// Generator translates definitions into SQL for one engine and owns the SQL
// used to maintain the version log.
type Generator interface {
	Dialect
	TransformTable(def *TableDefinition) ([]string, error)
	TransformTrigger(def *TriggerDefinition) ([]string, error)
	// Exists counts version-log rows for version.
	Exists(version string) string
	// Initialise creates the version log if it does not exist.
	Initialise() string
	// CleanVersions deletes every row of the version log.
	CleanVersions() string
	// Add inserts one version-log row.
	Add(version string) string
	// Remove deletes the version-log row for version.
	Remove(version string) string
	// Applied selects version and applied_at for every row of the version
	// log, oldest first.
	Applied() string
	SetDropBeforeCreate(drop bool)
	DropBeforeCreate() bool
	// SetVersionTable changes the (optionally schema-qualified) name of the
	// version log table from [DefaultVersionTable].
	SetVersionTable(name string)
}

// Inspector is implemented by generators that can describe existing tables.
// ColumnsQuery must select the columns scanned by modelfactory.ColumnInfo,
// using the same names.
type Inspector interface {
	TablesQuery(schema string) (string, []any)
	ColumnsQuery(schema, table string) (string, []any)
}

// Literals renders Go values as SQL literals for one dialect.
type Literals struct {
	Quote func(string) string
	True  string
	False string
}

// Render returns value as a SQL literal.
func (l Literals) Render(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "NULL", nil
	case Expr:
		return string(v), nil
	case string:
		return l.Quote(v), nil
	case bool:
		if v {
			return l.True, nil
		}
		return l.False, nil
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: unsupported default value of type %T", ErrInvalidDefinition, value)
	}
}
