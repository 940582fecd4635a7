package pgtools_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/peterldowns/testy/check"

	"github.com/modelfactory/modelfactory/internal/pgtools"
)

func TestErrorDataFromPgx(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("wrapped: %w", &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23505",
		TableName:      "Image",
		ConstraintName: "Image_pkey",
	})
	data := pgtools.ErrorData(err)
	check.Equal(t, map[string]any{
		"pg_code":       "23505",
		"pg_severity":   "ERROR",
		"pg_table":      "Image",
		"pg_constraint": "Image_pkey",
	}, data)
}

func TestErrorDataFromPq(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("wrapped: %w", &pq.Error{Code: "42P01", Message: "relation does not exist"})
	data := pgtools.ErrorData(err)
	check.Equal(t, map[string]any{"pg_code": "42P01"}, data)
}

func TestErrorDataFromOtherErrors(t *testing.T) {
	t.Parallel()
	check.Equal(t, map[string]any{}, pgtools.ErrorData(errors.New("boom")))
	check.Equal(t, map[string]any{}, pgtools.ErrorData(nil))
}
