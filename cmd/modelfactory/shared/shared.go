package shared

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/modelfactory/modelfactory"
	"github.com/modelfactory/modelfactory/ddl"
)

type Flags struct {
	LogFormat    *string // see root.go
	Verbose      *bool   // see root.go
	Engine       *string // see root.go
	Database     *string // see root.go
	Schema       *string // see root.go
	Migrations   *string // see root.go
	VersionTable *string // see root.go
	ConfigFile   *string // see root.go
	EnvFile      *string // see root.go
}

type Config struct {
	// Profile holds the connection settings. The engine, database and
	// schema flags override the matching fields.
	Profile      modelfactory.Profile `yaml:"profile"`
	Migrations   string               `yaml:"migrations"`
	LogFormat    LogFormat            `yaml:"log_format"`
	VersionTable string               `yaml:"version_table"`
}

type StateT struct {
	Flags  Flags
	Config Config
}

var State StateT //nolint:gochecknoglobals

// Parse loads the environment file, if there is one, and then the
// configuration file. Variables already set in the environment are not
// overwritten by the environment file.
func (state *StateT) Parse() {
	envfile := state.EnvFile()
	if err := godotenv.Load(envfile.Value()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Errorf("load %s: %w", envfile.Value(), err))
	}

	cf := state.Configfile()
	if !cf.IsSet() {
		return
	}
	file, err := os.Open(cf.Value())
	if err != nil {
		panic(fmt.Errorf("open config: %w", err))
	}
	defer file.Close()

	contents, err := io.ReadAll(file)
	if err != nil {
		panic(fmt.Errorf("read config: %w", err))
	}
	if err := yaml.Unmarshal(contents, &state.Config); err != nil {
		panic(fmt.Errorf("parse config: %w", err))
	}
}

func (state StateT) EnvFile() Variable[string] {
	return NewVariable(
		"env-file",
		*state.Flags.EnvFile,
		".env", // default, ignored if missing
	)
}

func (state StateT) Configfile() Variable[string] {
	return NewVariable(
		"config-file",
		*state.Flags.ConfigFile,
		os.Getenv("MF_CONFIGFILE"),
		CheckPath(".modelfactory.yaml"), // in cwd
		RepoPath(".modelfactory.yaml"),  // in repo root
		"",                              // default to missing
	)
}

func (state StateT) Engine() Variable[string] {
	return NewVariable(
		"engine",
		*state.Flags.Engine,
		os.Getenv("MF_ENGINE"),
		state.Config.Profile.Engine,
		"", // default to missing
	)
}

func (state StateT) Database() Variable[string] {
	return NewVariable(
		"database",
		*state.Flags.Database,
		os.Getenv("MF_DATABASE"),
		state.Config.Profile.URL,
		"", // default to missing
	)
}

func (state StateT) Schema() Variable[string] {
	return NewVariable(
		"schema",
		*state.Flags.Schema,
		os.Getenv("MF_SCHEMA"),
		state.Config.Profile.Schema,
		"", // default to the engine's default schema
	)
}

func (state StateT) Migrations() Variable[string] {
	return NewVariable(
		"migrations",
		*state.Flags.Migrations,
		os.Getenv("MF_MIGRATIONS"),
		state.Config.Migrations,
		"", // default to missing
	)
}

func (state StateT) VersionTable() Variable[string] {
	return NewVariable(
		"version-table",
		*state.Flags.VersionTable,
		os.Getenv("MF_VERSION_TABLE"),
		state.Config.VersionTable,
		ddl.DefaultVersionTable, // default
	)
}

func (state StateT) LogFormat() Variable[LogFormat] {
	return NewVariable(
		"log-format",
		LogFormat(*state.Flags.LogFormat),
		LogFormat(os.Getenv("MF_LOG_FORMAT")),
		state.Config.LogFormat,
		LogFormatText, // default
	)
}

// Profile merges the configured profile with the engine, database and
// schema settings.
func (state StateT) Profile() modelfactory.Profile {
	profile := state.Config.Profile
	profile.Engine = state.Engine().Value()
	profile.URL = state.Database().Value()
	profile.Schema = state.Schema().Value()
	return profile
}

func (state StateT) Logger() (*log.Logger, LogAdapter) {
	var logger *log.Logger
	format := state.LogFormat().Value()
	switch format {
	case LogFormatText:
		logger = log.NewWithOptions(os.Stdout, log.Options{Formatter: log.TextFormatter})
	case LogFormatJSON:
		logger = log.NewWithOptions(os.Stdout, log.Options{Formatter: log.JSONFormatter})
	default:
		panic(fmt.Errorf("unknown log format: %s", format))
	}
	if state.Flags.Verbose != nil && *state.Flags.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger, LogAdapter{logger}
}

func RepoPath(p string) string {
	root, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return ""
	}
	rootConfig := path.Join(strings.TrimSpace(string(root)), p)
	return CheckPath(rootConfig)
}

func CheckPath(p string) string {
	p, err := filepath.Abs(p)
	if err != nil {
		return ""
	}
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}
