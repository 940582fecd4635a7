package modelfactory

import (
	"errors"
	"net/url"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"gopkg.in/yaml.v3"
)

func TestParseProfile(t *testing.T) {
	t.Parallel()
	p, err := ParseProfile([]byte(`{
		"engine": "postgresql",
		"host": "db.internal",
		"port": 6543,
		"user": "app",
		"password": "secret",
		"nopsw": true,
		"database": "photos",
		"schema": "media",
		"ssl": true,
		"socketTimeoutInSeconds": 30
	}`))
	assert.Nil(t, err)
	check.Equal(t, Profile{
		Engine:               "postgresql",
		Host:                 "db.internal",
		Port:                 6543,
		User:                 "app",
		Password:             "secret",
		NoPassword:           true,
		Database:             "photos",
		Schema:               "media",
		SSL:                  true,
		SocketTimeoutSeconds: 30,
	}, p)
	check.Equal(t, "postgresql:db.internal:6543:photos:media", p.ID())

	data, err := p.JSON()
	assert.Nil(t, err)
	again, err := ParseProfile(data)
	assert.Nil(t, err)
	check.Equal(t, p, again)

	_, err = ParseProfile([]byte(`{"engine":`))
	check.Error(t, err)
}

func TestProfileYAML(t *testing.T) {
	t.Parallel()
	var p Profile
	assert.Nil(t, yaml.Unmarshal([]byte(`
engine: sqlite
database: ./photos.db
socketTimeoutInSeconds: 2
`), &p))
	check.Equal(t, Profile{Engine: "sqlite", Database: "./photos.db", SocketTimeoutSeconds: 2}, p)
	check.Nil(t, p.Validate())
}

func TestProfileValidate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		profile Profile
		setting string
	}{
		{"unknown engine", Profile{Engine: "oracle", Host: "h", Database: "d"}, "engine"},
		{"wrong driver", Profile{Engine: "mysql", Driver: "pgx", Host: "h", Database: "d"}, "driver"},
		{"no database", Profile{Engine: "postgres", Host: "h"}, "database"},
		{"no host", Profile{Engine: "mssql", Database: "d"}, "host"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var cerr *ConfigurationError
			if check.True(t, errors.As(tc.profile.Validate(), &cerr)) {
				check.Equal(t, tc.setting, cerr.Setting)
			}
		})
	}

	check.Nil(t, Profile{Engine: "sqlite", Database: ":memory:"}.Validate())
	check.Nil(t, Profile{Engine: "postgres", URL: "postgres://localhost/app"}.Validate())
}

func TestProfileDriverName(t *testing.T) {
	t.Parallel()
	cases := map[string]Profile{
		"pgx":       {Engine: "postgres"},
		"postgres":  {Engine: "pg", Driver: "pq"},
		"sqlite":    {Engine: "sqlite3"},
		"mysql":     {Engine: "mariadb"},
		"sqlserver": {Engine: "mssql"},
	}
	for want, p := range cases {
		got, err := p.DriverName()
		assert.Nil(t, err)
		check.Equal(t, want, got)
	}
}

func TestPostgresDSN(t *testing.T) {
	t.Parallel()
	p := Profile{
		Engine:               "postgres",
		Host:                 "db",
		User:                 "app",
		Password:             "p@ss",
		Database:             "photos",
		Schema:               "media",
		SocketTimeoutSeconds: 5,
	}
	dsn, err := p.DSN()
	assert.Nil(t, err)
	check.Equal(t, "postgres://app:p%40ss@db:5432/photos?connect_timeout=5&default_query_exec_mode=exec&search_path=media&sslmode=disable", dsn)

	p.Driver = "pq"
	p.SSL = true
	p.NoPassword = true
	p.SocketTimeoutSeconds = 0
	p.Schema = ""
	dsn, err = p.DSN()
	assert.Nil(t, err)
	check.Equal(t, "postgres://app@db:5432/photos?sslmode=require", dsn)

	p.URL = "postgres://elsewhere/db"
	dsn, err = p.DSN()
	assert.Nil(t, err)
	check.Equal(t, p.URL, dsn)
}

func TestSQLiteDSN(t *testing.T) {
	t.Parallel()
	dsn, err := Profile{Engine: "sqlite", Database: "/tmp/photos.db"}.DSN()
	assert.Nil(t, err)
	check.Equal(t, "/tmp/photos.db?_pragma=busy_timeout(5000)", dsn)

	dsn, err = Profile{Engine: "sqlite", Database: "/tmp/photos.db", SocketTimeoutSeconds: 1}.DSN()
	assert.Nil(t, err)
	check.Equal(t, "/tmp/photos.db?_pragma=busy_timeout(1000)", dsn)

	dsn, err = Profile{Engine: "sqlite", Database: ":memory:"}.DSN()
	assert.Nil(t, err)
	check.Equal(t, ":memory:", dsn)
}

func TestMySQLDSN(t *testing.T) {
	t.Parallel()
	dsn, err := Profile{
		Engine:               "mysql",
		Host:                 "db",
		Port:                 3307,
		User:                 "app",
		Password:             "secret",
		Database:             "photos",
		SocketTimeoutSeconds: 10,
	}.DSN()
	assert.Nil(t, err)
	cfg, err := gomysql.ParseDSN(dsn)
	assert.Nil(t, err)
	check.Equal(t, "app", cfg.User)
	check.Equal(t, "secret", cfg.Passwd)
	check.Equal(t, "db:3307", cfg.Addr)
	check.Equal(t, "photos", cfg.DBName)
	check.True(t, cfg.ParseTime)
	check.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestSQLServerDSN(t *testing.T) {
	t.Parallel()
	dsn, err := Profile{
		Engine:               "sqlserver",
		Host:                 "db",
		User:                 "sa",
		Password:             "secret",
		Database:             "photos",
		SocketTimeoutSeconds: 3,
	}.DSN()
	assert.Nil(t, err)
	u, err := url.Parse(dsn)
	assert.Nil(t, err)
	check.Equal(t, "sqlserver", u.Scheme)
	check.Equal(t, "db:1433", u.Host)
	check.Equal(t, "sa", u.User.Username())
	query := u.Query()
	check.Equal(t, "photos", query.Get("database"))
	check.Equal(t, "disable", query.Get("encrypt"))
	check.Equal(t, "3", query.Get("dial timeout"))
}
