package modelfactory

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelfactory/modelfactory/statement"
)

// Save writes rec, inserting it if no row with its primary keys exists and
// updating that row otherwise. Autofill columns are left out of both.
//
// The existence probe and the write are separate statements; two concurrent
// saves of a new record can both decide to insert.
func (db *DB) Save(ctx context.Context, rec Record) error {
	table := rec.TableName()
	keys, autofill, err := db.recordKeys(ctx, rec)
	if err != nil {
		return err
	}
	builder := db.builder(rec)
	probe, err := builder.Exists(keys)
	if err != nil {
		return &LogicError{Op: "save " + table, Err: err}
	}
	count, err := db.Count(ctx, probe.SQL, probe.Args...)
	if err != nil {
		return fmt.Errorf("save %s: %w", table, err)
	}

	var stmt statement.Statement
	if count > 0 {
		stmt, err = builder.Update(keys, autofill)
		if err != nil {
			return &LogicError{Op: "save " + table, Err: err}
		}
		logTo(ctx, db.Logger, LogLevelDebug, "updating record", LogField{"table", table}, LogField{"sql", stmt.SQL})
	} else {
		stmt = builder.Insert(autofill)
		logTo(ctx, db.Logger, LogLevelDebug, "inserting record", LogField{"table", table}, LogField{"sql", stmt.SQL})
	}
	if err := db.Execute(ctx, stmt.SQL, stmt.Args...); err != nil {
		return fmt.Errorf("save %s: %w", table, err)
	}
	return nil
}

// Delete removes the row with rec's primary keys. Deleting a row that does
// not exist is not an error.
func (db *DB) Delete(ctx context.Context, rec Record) error {
	table := rec.TableName()
	keys, _, err := db.recordKeys(ctx, rec)
	if err != nil {
		return err
	}
	stmt, err := db.builder(rec).Delete(keys)
	if err != nil {
		return &LogicError{Op: "delete " + table, Err: err}
	}
	if err := db.Execute(ctx, stmt.SQL, stmt.Args...); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// CountRecords counts the rows of table matching q.
func (db *DB) CountRecords(ctx context.Context, table string, q statement.Query) (int64, error) {
	stmt := db.tableBuilder(table).Count(q)
	count, err := db.Count(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// FetchAll selects the rows of T's table matching q. T is scanned with sqlx,
// so its fields are matched to columns by their `db` tags; every selected
// column must have a matching field. T is usually a struct type whose
// TableName has a value receiver, since it is called on T's zero value.
func FetchAll[T Record](ctx context.Context, db *DB, q statement.Query) ([]T, error) {
	var zero T
	table := zero.TableName()
	stmt := db.tableBuilder(table).Select(q)
	var records []T
	if err := db.selectInto(ctx, &records, stmt.SQL, stmt.Args...); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", table, err)
	}
	return records, nil
}

// FetchOne is [FetchAll] for the first matching row. It returns
// [ErrNoRecord] when nothing matches.
func FetchOne[T Record](ctx context.Context, db *DB, q statement.Query) (T, error) {
	q.Limit = 1
	records, err := FetchAll[T](ctx, db, q)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(records) == 0 {
		var zero T
		return zero, fmt.Errorf("fetch %s: %w", zero.TableName(), ErrNoRecord)
	}
	return records[0], nil
}

func (db *DB) builder(rec Record) *statement.Builder {
	builder := statement.New(db.Generator, rec.TableName(), rec.ColumnValues())
	builder.Schema = db.Schema
	return builder
}

func (db *DB) tableBuilder(table string) *statement.Builder {
	builder := statement.New(db.Generator, table, nil)
	builder.Schema = db.Schema
	return builder
}

// recordKeys resolves the key and autofill columns of rec. What the record
// declares wins; the table's inferred serial columns are the fallback.
func (db *DB) recordKeys(ctx context.Context, rec Record) (keys, autofill []string, err error) {
	keyed, hasKeys := rec.(KeyedRecord)
	filled, hasAutofill := rec.(AutofillRecord)
	if hasKeys {
		keys = keyed.PrimaryKeys()
	}
	if hasAutofill {
		autofill = filled.AutofillColumns()
	} else if hasKeys {
		autofill = keys
	}
	if len(keys) > 0 {
		return keys, autofill, nil
	}

	info, err := db.TableInfo(ctx, "", rec.TableName())
	if err != nil {
		if errors.Is(err, ErrUnknownTable) {
			return nil, nil, &LogicError{Op: "keys of " + rec.TableName(), Err: err}
		}
		return nil, nil, err
	}
	keys = info.PrimaryKeys()
	if !hasAutofill {
		autofill = info.AutofillColumns()
	}
	return keys, autofill, nil
}
