package root

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/modelfactory/modelfactory/ddl"
	"github.com/modelfactory/modelfactory/ddl/sqlite"
)

func TestRenderDDL(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	err := renderDDL(&out, sqlite.New(), []byte(`
tables:
  - name: Image
    columns:
      - {name: id, type: serial, primary_key: true}
      - {name: photoYear, type: integer, not_null: true, default: 0}
  - name: Image
    action: drop
`))
	assert.Nil(t, err)
	check.Equal(t, `CREATE TABLE IF NOT EXISTS "Image" (
	"id" INTEGER PRIMARY KEY AUTOINCREMENT,
	"photoYear" INTEGER NOT NULL DEFAULT 0
);
DROP TABLE IF EXISTS "Image";
`, out.String())
}

func TestRenderDDLReportsTable(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	err := renderDDL(&out, sqlite.New(), []byte(`
tables:
  - name: broken
    columns:
      - {name: id, type: serial}
`))
	check.True(t, errors.Is(err, ddl.ErrUnsupported))
	check.True(t, strings.HasPrefix(err.Error(), "create broken: "))
	check.Equal(t, "", out.String())
}

func TestReadFileFromStdin(t *testing.T) {
	t.Parallel()
	data, err := readFile(strings.NewReader("tables: []"), "-")
	assert.Nil(t, err)
	check.Equal(t, "tables: []", string(data))
}
