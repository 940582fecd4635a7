package mysql_test

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/modelfactory/modelfactory/ddl"
	"github.com/modelfactory/modelfactory/ddl/mysql"
)

func TestCreateTable(t *testing.T) {
	t.Parallel()
	def := ddl.NewTable(ddl.CreateTable, "Image")
	def.Column("id", ddl.Serial).PrimaryKey()
	def.Column("owner", ddl.Text).Defaults("")
	def.Column("photoYear", ddl.Integer).NotNull().Defaults(0)
	stmts, err := mysql.New().TransformTable(def)
	assert.Nil(t, err)
	check.Equal(t, []string{"CREATE TABLE IF NOT EXISTS `Image` (\n" +
		"\t`id` INT NOT NULL AUTO_INCREMENT,\n" +
		"\t`owner` TEXT DEFAULT (''),\n" +
		"\t`photoYear` INT NOT NULL DEFAULT 0,\n" +
		"\tPRIMARY KEY (`id`)\n" +
		")"}, stmts)
}

func TestAlterAndDrop(t *testing.T) {
	t.Parallel()
	g := mysql.New()
	def := ddl.NewTable(ddl.AlterTable, "Image")
	def.Column("path", ddl.Varchar).NotNull().Defaults(`c:\photos`)
	def.DropColumn("owner")
	stmts, err := g.TransformTable(def)
	assert.Nil(t, err)
	check.Equal(t, []string{
		"ALTER TABLE `Image` ADD COLUMN `path` VARCHAR(255) NOT NULL DEFAULT 'c:\\\\photos'",
		"ALTER TABLE `Image` DROP COLUMN `owner`",
	}, stmts)

	_, err = g.TransformTable(ddl.NewTable(ddl.DropSequence, "counter"))
	check.True(t, errors.Is(err, ddl.ErrUnsupported))
}

func TestTrigger(t *testing.T) {
	t.Parallel()
	g := mysql.New()
	g.SetDropBeforeCreate(true)
	def := ddl.NewTrigger(ddl.CreateTrigger, "image_year", "Image").
		On(ddl.Before, ddl.OnInsert).
		Function("", "SET NEW.`photoYear` = YEAR(NEW.`photoDate`)")
	stmts, err := g.TransformTrigger(def)
	assert.Nil(t, err)
	check.Equal(t, []string{
		"DROP TRIGGER IF EXISTS `image_year`",
		"CREATE TRIGGER IF NOT EXISTS `image_year` BEFORE INSERT ON `Image` FOR EACH ROW\nSET NEW.`photoYear` = YEAR(NEW.`photoDate`)",
	}, stmts)

	_, err = g.TransformTrigger(ddl.NewTrigger(ddl.DisableTrigger, "image_year", "Image"))
	check.True(t, errors.Is(err, ddl.ErrUnsupported))
}

func TestDialect(t *testing.T) {
	t.Parallel()
	g := mysql.New()
	check.Equal(t, "?", g.Placeholder(7))
	check.Equal(t, "`a`.`b`", g.QuoteIdentifier("a.b"))
	check.Equal(t, " LIMIT 10 OFFSET 30", g.Paginate(30, 10))
	check.Equal(t, "SELECT COUNT(*) FROM `schema_versions` WHERE `version` = 'v1'", g.Exists("v1"))
}
