package shared

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/modelfactory/modelfactory/ddl"
)

// TableFile is the YAML form of a list of table definitions, as read by the
// "ddl" command:
//
//	tables:
//	  - name: Image
//	    columns:
//	      - {name: id, type: serial, primary_key: true}
//	      - {name: photoYear, type: integer, default: 0}
//	      - {name: taken, type: timestamptz, default_expr: CURRENT_TIMESTAMP}
//	  - name: Image
//	    action: alter
//	    drop_columns: [taken]
type TableFile struct {
	Tables []TableSpec `yaml:"tables"`
}

type TableSpec struct {
	// Action defaults to "create".
	Action      ddl.TableAction `yaml:"action"`
	Name        string          `yaml:"name"`
	Columns     []ColumnSpec    `yaml:"columns"`
	DropColumns []string        `yaml:"drop_columns"`
	SQL         string          `yaml:"sql"`
}

type ColumnSpec struct {
	Name        string         `yaml:"name"`
	Type        ddl.ColumnType `yaml:"type"`
	Length      int            `yaml:"length"`
	PrimaryKey  bool           `yaml:"primary_key"`
	Unique      bool           `yaml:"unique"`
	NotNull     bool           `yaml:"not_null"`
	Default     any            `yaml:"default"`
	DefaultExpr string         `yaml:"default_expr"`
}

// ParseTables decodes a [TableFile] into definitions, in file order, and
// validates each of them.
func ParseTables(data []byte) ([]*ddl.TableDefinition, error) {
	var file TableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tables: %w", err)
	}
	defs := make([]*ddl.TableDefinition, 0, len(file.Tables))
	for i, spec := range file.Tables {
		def, err := spec.definition()
		if err != nil {
			return nil, fmt.Errorf("table %d (%s): %w", i, spec.Name, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (spec TableSpec) definition() (*ddl.TableDefinition, error) {
	action := spec.Action
	if action == "" {
		action = ddl.CreateTable
	}
	def := ddl.NewTable(action, spec.Name)
	if action == ddl.ExecuteSQL {
		def = ddl.Raw(spec.SQL)
	}
	for _, c := range spec.Columns {
		col := def.Column(c.Name, c.Type).Length(c.Length)
		if c.PrimaryKey {
			col.PrimaryKey()
		}
		if c.Unique {
			col.Unique()
		}
		if c.NotNull {
			col.NotNull()
		}
		switch {
		case c.DefaultExpr != "":
			col.Defaults(ddl.Expr(c.DefaultExpr))
		case c.Default != nil:
			col.Defaults(c.Default)
		}
	}
	for _, name := range spec.DropColumns {
		def.DropColumn(name)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}
