package pgtools

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorData returns as much information as possible about an error reported by
// the PostgreSQL server, for logging purposes. Errors from both pgx and lib/pq
// are understood; anything else results in an empty map.
func ErrorData(err error) map[string]any {
	data := make(map[string]any)
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		data["pg_code"] = pgerr.Code
		setIf(data, "pg_detail", pgerr.Detail)
		setIf(data, "pg_hint", pgerr.Hint)
		setIf(data, "pg_schema", pgerr.SchemaName)
		setIf(data, "pg_table", pgerr.TableName)
		setIf(data, "pg_column", pgerr.ColumnName)
		setIf(data, "pg_constraint", pgerr.ConstraintName)
		setIf(data, "pg_where", pgerr.Where)
		setIf(data, "pg_severity", pgerr.Severity)
		return data
	}
	var pqerr *pq.Error
	if errors.As(err, &pqerr) {
		data["pg_code"] = string(pqerr.Code)
		setIf(data, "pg_detail", pqerr.Detail)
		setIf(data, "pg_hint", pqerr.Hint)
		setIf(data, "pg_schema", pqerr.Schema)
		setIf(data, "pg_table", pqerr.Table)
		setIf(data, "pg_column", pqerr.Column)
		setIf(data, "pg_constraint", pqerr.Constraint)
		setIf(data, "pg_where", pqerr.Where)
		setIf(data, "pg_severity", pqerr.Severity)
	}
	return data
}

func setIf(data map[string]any, key, value string) {
	if value != "" {
		data[key] = value
	}
}
