package modelfactory

import "github.com/modelfactory/modelfactory/statement"

// Record is implemented by every type that [DB.Save] and [DB.Delete] can
// write. ColumnValues must list the columns in a stable order; the values
// are bound as statement arguments, so they must be types the database
// driver accepts.
type Record interface {
	TableName() string
	ColumnValues() []statement.ColumnValue
}

// KeyedRecord declares the primary key columns of a record. Without it the
// keys are inferred from the table's serial columns, which only works for
// tables with a generated key.
type KeyedRecord interface {
	Record
	PrimaryKeys() []string
}

// AutofillRecord declares the columns the database fills in by itself, which
// are left out of INSERT and UPDATE statements. A record that declares its
// primary keys but not its autofill columns is assumed to have generated
// keys; a record with a natural key should return an empty list here.
type AutofillRecord interface {
	Record
	AutofillColumns() []string
}
