package modelfactory

import (
	"errors"
	"fmt"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	mssqldb "github.com/microsoft/go-mssqldb"
	"golang.org/x/exp/slices"
	sqlitelib "modernc.org/sqlite"

	"github.com/modelfactory/modelfactory/internal/pgtools"
)

var (
	// ErrUnsupportedEngine is wrapped by the [ConfigurationError] returned
	// for an engine name modelfactory does not know.
	ErrUnsupportedEngine = errors.New("unsupported database engine")
	// ErrNoRecord is returned by [FetchOne] when nothing matches.
	ErrNoRecord = errors.New("no record found")
	// ErrUnknownTable is returned when introspection finds no columns for a
	// table.
	ErrUnknownTable = errors.New("unknown table")
	// ErrNilMigration is wrapped by the [LogicError] returned by
	// [Migrator.Migrate] when a version was registered without a function.
	ErrNilMigration = errors.New("version has no migration function")
)

// ExecutionError is returned whenever the database fails to run a statement.
// The driver's error is available with errors.As / errors.Unwrap.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute %q: %s", oneLine(e.SQL), e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Fields returns structured information about the failure, including any
// details the driver reported, for logging.
func (e *ExecutionError) Fields() []LogField {
	fields := []LogField{{Key: "sql", Value: e.SQL}}
	data := driverErrorData(e.Err)
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		fields = append(fields, LogField{Key: key, Value: data[key]})
	}
	return fields
}

// ConfigurationError is returned when a [Profile] or engine name cannot be
// used. It is not worth retrying.
type ConfigurationError struct {
	Setting string
	Value   string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Setting, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// LogicError indicates a bug in the calling code or in a generator, such as
// a generator that produced no SQL for a definition or a record without any
// key columns.
type LogicError struct {
	Op  string
	Err error
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *LogicError) Unwrap() error {
	return e.Err
}

// Steps of [Migrator.Migrate], as reported by [MigrationError].
const (
	StepInitialise = "initialise"
	StepClean      = "clean"
	StepExists     = "exists"
	StepApply      = "apply"
	StepAdd        = "add"
)

// MigrationError is returned by [Migrator.Migrate] and reports which version
// and which step failed. Version is empty for the initialise and clean steps.
type MigrationError struct {
	Version string
	Step    string
	Err     error
}

func (e *MigrationError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("migrate (%s): %s", e.Step, e.Err)
	}
	return fmt.Sprintf("migrate %s (%s): %s", e.Version, e.Step, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// driverErrorData returns whatever structured information the database
// driver attached to err.
func driverErrorData(err error) map[string]any {
	data := pgtools.ErrorData(err)
	if len(data) > 0 {
		return data
	}
	var myerr *gomysql.MySQLError
	if errors.As(err, &myerr) {
		data["mysql_code"] = myerr.Number
		if myerr.SQLState != [5]byte{} {
			data["mysql_state"] = string(myerr.SQLState[:])
		}
		return data
	}
	var liteerr *sqlitelib.Error
	if errors.As(err, &liteerr) {
		data["sqlite_code"] = liteerr.Code()
		return data
	}
	var mserr mssqldb.Error
	if errors.As(err, &mserr) {
		data["mssql_number"] = mserr.Number
		data["mssql_state"] = mserr.State
		data["mssql_class"] = mserr.Class
		if mserr.ProcName != "" {
			data["mssql_proc"] = mserr.ProcName
		}
	}
	return data
}

func oneLine(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
