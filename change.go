package modelfactory

import (
	"context"
	"fmt"

	"github.com/modelfactory/modelfactory/ddl"
)

// Change is passed to every [MigrationFunc]. Each method builds a definition,
// turns it into SQL with the migrator's generator and executes the resulting
// statements in order, stopping at the first error.
type Change struct {
	generator ddl.Generator
	executor  Executor
	logger    Logger
}

// NewChange returns a Change outside of a [Migrator], for example to apply
// definitions loaded from a file.
func NewChange(generator ddl.Generator, executor Executor, logger Logger) *Change {
	return &Change{generator: generator, executor: executor, logger: logger}
}

// Generator returns the generator used to build SQL, which is useful for
// migrations that need to branch on [ddl.Dialect.Engine].
func (c *Change) Generator() ddl.Generator {
	return c.generator
}

func (c *Change) CreateSequence(ctx context.Context, name string) error {
	return c.Table(ctx, ddl.NewTable(ddl.CreateSequence, name))
}

func (c *Change) DropSequence(ctx context.Context, name string) error {
	return c.Table(ctx, ddl.NewTable(ddl.DropSequence, name))
}

// Create creates table with the columns body adds to the definition.
//
//	db.Create(ctx, "image", func(t *ddl.TableDefinition) {
//		t.Column("id", ddl.Serial).PrimaryKey()
//		t.Column("url", ddl.Text).NotNull()
//	})
func (c *Change) Create(ctx context.Context, table string, body func(t *ddl.TableDefinition)) error {
	def := ddl.NewTable(ddl.CreateTable, table)
	body(def)
	return c.Table(ctx, def)
}

// Alter adds the columns body adds, and drops the columns body passes to
// [ddl.TableDefinition.DropColumn].
func (c *Change) Alter(ctx context.Context, table string, body func(t *ddl.TableDefinition)) error {
	def := ddl.NewTable(ddl.AlterTable, table)
	body(def)
	return c.Table(ctx, def)
}

func (c *Change) Drop(ctx context.Context, table string) error {
	return c.Table(ctx, ddl.NewTable(ddl.DropTable, table))
}

// Execute runs sql as is. It is the escape hatch for anything the
// definitions cannot express; it is not portable between engines.
func (c *Change) Execute(ctx context.Context, sql string) error {
	return c.Table(ctx, ddl.Raw(sql))
}

// CreateTrigger creates (or replaces) a trigger on table. body must at least
// set the event and the function body; see [ddl.TriggerDefinition].
func (c *Change) CreateTrigger(ctx context.Context, name, table string, body func(t *ddl.TriggerDefinition)) error {
	def := ddl.NewTrigger(ddl.CreateTrigger, name, table)
	body(def)
	return c.Trigger(ctx, def)
}

func (c *Change) DropTrigger(ctx context.Context, name, table string) error {
	return c.Trigger(ctx, ddl.NewTrigger(ddl.DropTrigger, name, table))
}

func (c *Change) EnableTrigger(ctx context.Context, name, table string) error {
	return c.Trigger(ctx, ddl.NewTrigger(ddl.EnableTrigger, name, table))
}

func (c *Change) DisableTrigger(ctx context.Context, name, table string) error {
	return c.Trigger(ctx, ddl.NewTrigger(ddl.DisableTrigger, name, table))
}

// Table applies a table definition built by hand.
func (c *Change) Table(ctx context.Context, def *ddl.TableDefinition) error {
	stmts, err := c.generator.TransformTable(def)
	if err != nil {
		return fmt.Errorf("%s %s: %w", def.Action, def.Name, err)
	}
	return c.run(ctx, fmt.Sprintf("%s %s", def.Action, def.Name), stmts)
}

// Trigger applies a trigger definition built by hand.
func (c *Change) Trigger(ctx context.Context, def *ddl.TriggerDefinition) error {
	stmts, err := c.generator.TransformTrigger(def)
	if err != nil {
		return fmt.Errorf("%s trigger %s: %w", def.Action, def.Name, err)
	}
	return c.run(ctx, fmt.Sprintf("%s trigger %s", def.Action, def.Name), stmts)
}

func (c *Change) run(ctx context.Context, op string, stmts []string) error {
	if len(stmts) == 0 {
		return &LogicError{Op: op, Err: ddl.ErrEmptyTransform}
	}
	for _, stmt := range stmts {
		logTo(ctx, c.logger, LogLevelDebug, "executing", LogField{"op", op}, LogField{"sql", stmt})
		if err := c.executor.Execute(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
