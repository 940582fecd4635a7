package pgtools_test

import (
	"testing"

	"github.com/peterldowns/testy/check"

	"github.com/modelfactory/modelfactory/internal/pgtools"
)

func TestLiteral(t *testing.T) {
	t.Parallel()
	check.Equal(t, `'hello'`, pgtools.Literal(`hello`))
	check.Equal(t, `'''hello'''`, pgtools.Literal(`'hello'`))
	check.Equal(t, `'"hello"'`, pgtools.Literal(`"hello"`))
	check.Equal(t, ` E'abc\\def'`, pgtools.Literal(`abc\def`)) // literal \, not an escape character
	check.Equal(t, `'schema.table'`, pgtools.Literal(`schema.table`))
}

func TestQuoteIdentifier(t *testing.T) {
	t.Parallel()
	check.Equal(t, `"hello"`, pgtools.QuoteIdentifier(`hello`))
	// mixed case is preserved
	check.Equal(t, `"Image"`, pgtools.QuoteIdentifier(`Image`))
	check.Equal(t, `"photoYear"`, pgtools.QuoteIdentifier(`photoYear`))
	// dotted identifiers are split, whether passed as one string or as parts
	check.Equal(t, `"public"."Image"`, pgtools.QuoteIdentifier(`public.Image`))
	check.Equal(t, `"public"."Image"`, pgtools.QuoteIdentifier(`public`, `Image`))
	// an empty schema is skipped
	check.Equal(t, `"Image"`, pgtools.QuoteIdentifier(``, `Image`))
}

func TestQuoteIdentifierGarbageInputs(t *testing.T) {
	t.Parallel()
	// any literal single quote ' is not escaped
	check.Equal(t, `"some'ide'ntifier"`, pgtools.QuoteIdentifier(`some'ide'ntifier`))
	// any literal double quote " gets escaped by doubling `"` -> `""`
	check.Equal(t, `"""schema"""."""tablename"""`, pgtools.QuoteIdentifier(`"schema"."tablename"`))
	check.Equal(t, `"""schema"."tablename"""`, pgtools.QuoteIdentifier(`"schema.tablename"`))
}

func TestParseTableName(t *testing.T) {
	t.Parallel()
	schema, tablename := pgtools.ParseTableName("users")
	check.Equal(t, "", schema)
	check.Equal(t, "users", tablename)

	schema, tablename = pgtools.ParseTableName("custom.users")
	check.Equal(t, "custom", schema)
	check.Equal(t, "users", tablename)

	schema, tablename = pgtools.ParseTableName(".users")
	check.Equal(t, "", schema)
	check.Equal(t, "users", tablename)

	schema, tablename = pgtools.ParseTableName("a.b.c")
	check.Equal(t, "a", schema)
	check.Equal(t, "b.c", tablename)
}
