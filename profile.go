package modelfactory

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/modelfactory/modelfactory/ddl/mssql"
	"github.com/modelfactory/modelfactory/ddl/mysql"
	"github.com/modelfactory/modelfactory/ddl/postgres"
	"github.com/modelfactory/modelfactory/ddl/sqlite"
)

var (
	errMissingHost     = errors.New("a host is required")
	errMissingDatabase = errors.New("a database is required")
	errUnknownDriver   = errors.New("driver does not match engine")
)

// Profile describes how to connect to one database. It can be loaded from
// JSON or YAML.
type Profile struct {
	// Engine is one of the names accepted by [Engine].
	Engine string `json:"engine" yaml:"engine"`
	// Driver picks between drivers for the same engine. The only choice is
	// for PostgreSQL: "pgx" (the default) or "pq".
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`
	// URL, if set, is passed to the driver as is and the connection fields
	// below are ignored.
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	Host       string `json:"host,omitempty" yaml:"host,omitempty"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`
	User       string `json:"user,omitempty" yaml:"user,omitempty"`
	Password   string `json:"password,omitempty" yaml:"password,omitempty"`
	NoPassword bool   `json:"nopsw,omitempty" yaml:"nopsw,omitempty"`
	// Database is the database name, or the file path for SQLite.
	Database string `json:"database" yaml:"database"`
	Schema   string `json:"schema,omitempty" yaml:"schema,omitempty"`
	SSL      bool   `json:"ssl,omitempty" yaml:"ssl,omitempty"`
	// SocketTimeoutSeconds bounds connecting (and, where the driver supports
	// it, reading). Zero means the driver default.
	SocketTimeoutSeconds int `json:"socketTimeoutInSeconds,omitempty" yaml:"socketTimeoutInSeconds,omitempty"`
}

// ParseProfile decodes a profile from JSON.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	return p, nil
}

// JSON encodes the profile, including its password.
func (p Profile) JSON() ([]byte, error) {
	return json.Marshal(p)
}

// ID identifies the database the profile points at. It does not include
// credentials.
func (p Profile) ID() string {
	return fmt.Sprintf("%s:%s:%d:%s:%s", p.Engine, p.Host, p.Port, p.Database, p.Schema)
}

func (p Profile) Validate() error {
	engine, err := Engine(p.Engine)
	if err != nil {
		return err
	}
	if _, err := p.DriverName(); err != nil {
		return err
	}
	if p.URL != "" {
		return nil
	}
	if p.Database == "" {
		return &ConfigurationError{Setting: "database", Value: p.ID(), Err: errMissingDatabase}
	}
	if engine != sqlite.Engine && p.Host == "" {
		return &ConfigurationError{Setting: "host", Value: p.ID(), Err: errMissingHost}
	}
	return nil
}

// DriverName returns the database/sql driver name to open the profile with.
func (p Profile) DriverName() (string, error) {
	engine, err := Engine(p.Engine)
	if err != nil {
		return "", err
	}
	switch engine {
	case postgres.Engine:
		switch p.Driver {
		case "", "pgx":
			return "pgx", nil
		case "pq", "postgres", "lib/pq":
			return "postgres", nil
		}
	case sqlite.Engine:
		if p.Driver == "" || p.Driver == "sqlite" {
			return "sqlite", nil
		}
	case mysql.Engine:
		if p.Driver == "" || p.Driver == "mysql" {
			return "mysql", nil
		}
	case mssql.Engine:
		if p.Driver == "" || p.Driver == "sqlserver" {
			return "sqlserver", nil
		}
	}
	return "", &ConfigurationError{Setting: "driver", Value: p.Driver, Err: errUnknownDriver}
}

// DSN returns the connection string for the profile's driver.
func (p Profile) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	engine, err := Engine(p.Engine)
	if err != nil {
		return "", err
	}
	timeout := time.Duration(p.SocketTimeoutSeconds) * time.Second
	switch engine {
	case postgres.Engine:
		return p.postgresDSN(), nil
	case sqlite.Engine:
		if p.Database == ":memory:" {
			return p.Database, nil
		}
		busy := 5 * time.Second
		if timeout > 0 {
			busy = timeout
		}
		return fmt.Sprintf("%s?_pragma=busy_timeout(%d)", p.Database, busy.Milliseconds()), nil
	case mysql.Engine:
		cfg := gomysql.NewConfig()
		cfg.User = p.User
		if !p.NoPassword {
			cfg.Passwd = p.Password
		}
		cfg.Net = "tcp"
		cfg.Addr = p.hostPort(3306)
		cfg.DBName = p.Database
		cfg.ParseTime = true
		cfg.Timeout = timeout
		cfg.ReadTimeout = timeout
		if p.SSL {
			cfg.TLSConfig = "true"
		}
		return cfg.FormatDSN(), nil
	default:
		query := url.Values{}
		query.Set("database", p.Database)
		if p.SSL {
			query.Set("encrypt", "true")
		} else {
			query.Set("encrypt", "disable")
		}
		if p.SocketTimeoutSeconds > 0 {
			query.Set("dial timeout", strconv.Itoa(p.SocketTimeoutSeconds))
		}
		u := url.URL{Scheme: "sqlserver", User: p.userinfo(), Host: p.hostPort(1433), RawQuery: query.Encode()}
		return u.String(), nil
	}
}

func (p Profile) postgresDSN() string {
	query := url.Values{}
	if p.SSL {
		query.Set("sslmode", "require")
	} else {
		query.Set("sslmode", "disable")
	}
	if p.SocketTimeoutSeconds > 0 {
		query.Set("connect_timeout", strconv.Itoa(p.SocketTimeoutSeconds))
	}
	if p.Schema != "" {
		query.Set("search_path", p.Schema)
	}
	if driver, _ := p.DriverName(); driver == "pgx" {
		// no prepared statement cache, so schema changes made by migrations
		// cannot invalidate cached plans
		query.Set("default_query_exec_mode", "exec")
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     p.userinfo(),
		Host:     p.hostPort(5432),
		Path:     "/" + p.Database,
		RawQuery: query.Encode(),
	}
	return u.String()
}

func (p Profile) userinfo() *url.Userinfo {
	if p.User == "" {
		return nil
	}
	if p.NoPassword || p.Password == "" {
		return url.User(p.User)
	}
	return url.UserPassword(p.User, p.Password)
}

func (p Profile) hostPort(defaultPort int) string {
	port := p.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(p.Host, strconv.Itoa(port))
}
