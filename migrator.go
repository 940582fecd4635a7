package modelfactory

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slices"

	"github.com/modelfactory/modelfactory/ddl"
)

// MigrationFunc describes the schema changes of one version. It should only
// touch the database through db.
type MigrationFunc func(ctx context.Context, db *Change) error

// Migrator should be instantiated with [NewMigrator] rather than used directly.
// Versions are registered with [Migrator.Version] and applied with
// [Migrator.Migrate].
type Migrator struct {
	// Generator produces the SQL for schema changes and for the version log.
	Generator ddl.Generator
	// Executor runs that SQL.
	Executor Executor
	// Logger is used by the Migrator to log messages as it operates. It is
	// designed to be easy to adapt to whatever logging system you use.
	//
	// [NewMigrator] defaults it to `nil`, which will prevent any messages from
	// being logged.
	Logger Logger

	versions   []string
	migrations map[string]MigrationFunc
	clean      bool
}

// NewMigrator creates a [Migrator] with no versions and no logger.
func NewMigrator(generator ddl.Generator, executor Executor) *Migrator {
	return &Migrator{
		Generator:  generator,
		Executor:   executor,
		migrations: map[string]MigrationFunc{},
	}
}

// Version registers fn as the migration for id. Versions run in the order in
// which they were first registered, regardless of how their ids sort.
// Registering an id again replaces its function but keeps its position.
func (m *Migrator) Version(id string, fn MigrationFunc) *Migrator {
	if _, ok := m.migrations[id]; !ok {
		m.versions = append(m.versions, id)
	}
	m.migrations[id] = fn
	return m
}

// DropBeforeCreate makes every created table and sequence be dropped first.
// This destroys data and is meant for tests and development databases.
func (m *Migrator) DropBeforeCreate(drop bool) *Migrator {
	m.Generator.SetDropBeforeCreate(drop)
	return m
}

// CleanVersions makes the next [Migrator.Migrate] forget every applied
// version before it starts, so that every registered version runs again.
func (m *Migrator) CleanVersions(clean bool) *Migrator {
	m.clean = clean
	return m
}

// Versions returns the registered version ids in execution order.
func (m *Migrator) Versions() []string {
	return slices.Clone(m.versions)
}

// Migrate applies every registered version that the version log does not
// already list.
//
// If no versions are registered it does nothing at all. Otherwise it creates
// the version log if needed, empties it if [Migrator.CleanVersions] was set,
// and then for each version in registration order:
//
//   - counts the log rows for the version, skipping it if there are any
//   - calls the version's [MigrationFunc]
//   - adds the version to the log
//
// The first error stops the run and is returned as a [*MigrationError]. A
// version is only logged after its function returns without error, so a
// later call to Migrate retries exactly the versions that have not been
// logged. Statements are not wrapped in a transaction: a function that fails
// halfway may leave some of its changes behind and should be written to
// tolerate running again.
//
// Migrate does not lock; see [DB.WithLock].
func (m *Migrator) Migrate(ctx context.Context) error {
	if len(m.versions) == 0 {
		m.debug(ctx, "no versions registered")
		return nil
	}
	for _, id := range m.versions {
		if m.migrations[id] == nil {
			return &LogicError{Op: fmt.Sprintf("version %q", id), Err: ErrNilMigration}
		}
	}
	if err := m.initialise(ctx); err != nil {
		return err
	}
	if m.clean {
		m.info(ctx, "cleaning version log")
		if err := m.Executor.Execute(ctx, m.Generator.CleanVersions()); err != nil {
			m.error(ctx, err, "failed to clean version log")
			return &MigrationError{Step: StepClean, Err: err}
		}
	}
	for _, id := range m.versions {
		if err := m.apply(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) initialise(ctx context.Context) error {
	m.debug(ctx, "ensuring version log exists")
	if err := m.Executor.Execute(ctx, m.Generator.Initialise()); err != nil {
		m.error(ctx, err, "failed to create version log")
		return &MigrationError{Step: StepInitialise, Err: err}
	}
	return nil
}

func (m *Migrator) apply(ctx context.Context, id string) error {
	fields := []LogField{{Key: "version", Value: id}}
	count, err := m.Executor.Count(ctx, m.Generator.Exists(id))
	if err != nil {
		m.error(ctx, err, "failed to check version", fields...)
		return &MigrationError{Version: id, Step: StepExists, Err: err}
	}
	if count > 0 {
		m.debug(ctx, "skipping applied version", fields...)
		return nil
	}

	startedAt := time.Now().UTC()
	m.info(ctx, "applying version", fields...)
	change := &Change{generator: m.Generator, executor: m.Executor, logger: m.Logger}
	if err := m.migrations[id](ctx, change); err != nil {
		m.error(ctx, err, "failed to apply version", fields...)
		return &MigrationError{Version: id, Step: StepApply, Err: err}
	}
	if err := m.Executor.Execute(ctx, m.Generator.Add(id)); err != nil {
		m.error(ctx, err, "failed to record version", fields...)
		return &MigrationError{Version: id, Step: StepAdd, Err: err}
	}
	fields = append(fields, LogField{Key: "execution_time_ms", Value: time.Since(startedAt).Milliseconds()})
	m.info(ctx, "version applied", fields...)
	return nil
}

// Plan returns the registered versions that [Migrator.Migrate] would apply,
// in the order it would apply them. It creates the version log if needed.
// Plan ignores [Migrator.CleanVersions].
func (m *Migrator) Plan(ctx context.Context) ([]string, error) {
	if err := m.initialise(ctx); err != nil {
		return nil, err
	}
	var plan []string
	for _, id := range m.versions {
		count, err := m.Executor.Count(ctx, m.Generator.Exists(id))
		if err != nil {
			return nil, &MigrationError{Version: id, Step: StepExists, Err: err}
		}
		if count == 0 {
			plan = append(plan, id)
		}
	}
	return plan, nil
}

// AppliedVersion is a row of the version log.
type AppliedVersion struct {
	Version   string
	AppliedAt time.Time
}

// Applied returns the contents of the version log, oldest first. It creates
// the version log if needed. Versions that are logged but not registered
// with this Migrator are included.
func (m *Migrator) Applied(ctx context.Context) ([]AppliedVersion, error) {
	if err := m.initialise(ctx); err != nil {
		return nil, err
	}
	rows, err := m.Executor.Query(ctx, m.Generator.Applied())
	if err != nil {
		return nil, fmt.Errorf("applied: %w", err)
	}
	applied := make([]AppliedVersion, 0, len(rows))
	for _, row := range rows {
		if len(row) != 2 {
			return nil, fmt.Errorf("applied: expected 2 columns, got %d", len(row))
		}
		appliedAt, err := asTime(row[1])
		if err != nil {
			return nil, fmt.Errorf("applied: %w", err)
		}
		applied = append(applied, AppliedVersion{Version: asString(row[0]), AppliedAt: appliedAt})
	}
	return applied, nil
}

func (m *Migrator) debug(ctx context.Context, msg string, fields ...LogField) {
	if helper, ok := m.Logger.(Helper); ok {
		helper.Helper()
	}
	logTo(ctx, m.Logger, LogLevelDebug, msg, fields...)
}

func (m *Migrator) info(ctx context.Context, msg string, fields ...LogField) {
	if helper, ok := m.Logger.(Helper); ok {
		helper.Helper()
	}
	logTo(ctx, m.Logger, LogLevelInfo, msg, fields...)
}

func (m *Migrator) warn(ctx context.Context, msg string, fields ...LogField) {
	if helper, ok := m.Logger.(Helper); ok {
		helper.Helper()
	}
	logTo(ctx, m.Logger, LogLevelWarning, msg, fields...)
}

func (m *Migrator) error(ctx context.Context, err error, msg string, fields ...LogField) {
	if helper, ok := m.Logger.(Helper); ok {
		helper.Helper()
	}
	logError(ctx, m.Logger, err, msg, fields...)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// asTime converts a timestamp column as returned by any of the supported
// drivers.
func asTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case nil:
		return time.Time{}, nil
	case []byte:
		return asTime(string(v))
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", value)
	}
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
