package podrm

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config selects and tunes the database a Connection is opened on.
type Config struct {
	// Path is the database file. Empty opens an in-memory database.
	Path string `yaml:"path"`
	// MemoryName labels the in-memory database when Path is empty.
	MemoryName  string        `yaml:"memory_name"`
	ForeignKeys bool          `yaml:"foreign_keys"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.RegisterFlagsWithPrefix("db.", f)
}

func (cfg *Config) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Path, prefix+"path", "", "Database file to open. Empty opens an in-memory database.")
	f.StringVar(&cfg.MemoryName, prefix+"memory-name", "podrm", "Name of the in-memory database.")
	f.BoolVar(&cfg.ForeignKeys, prefix+"foreign-keys", true, "Enforce foreign key constraints.")
	f.DurationVar(&cfg.BusyTimeout, prefix+"busy-timeout", 5*time.Second, "How long a statement waits on a locked database before failing.")
}

func (cfg *Config) Validate() error {
	if cfg.BusyTimeout < 0 {
		return errors.Wrapf(ErrInvalidConfig, "negative busy timeout %s", cfg.BusyTimeout)
	}

	return nil
}

// LoadConfig overlays the YAML file at filename onto cfg.
func LoadConfig(filename string, cfg *Config) error {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrap(err, "reading config file")
	}

	if err := yaml.UnmarshalStrict(buf, cfg); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "%s: %v", filename, err)
	}

	return nil
}

// Open opens the database cfg selects.
func Open(cfg Config, opts ...Option) (*Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		conn *Connection
		err  error
	)
	if cfg.Path == "" {
		conn, err = InMemory(cfg.MemoryName, opts...)
	} else {
		conn, err = InFile(cfg.Path, opts...)
	}
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d;", cfg.BusyTimeout.Milliseconds()),
	}
	if !cfg.ForeignKeys {
		pragmas = append(pragmas, "PRAGMA foreign_keys = OFF;")
	}

	for _, pragma := range pragmas {
		if err := conn.Execute(pragma); err != nil {
			_ = conn.Close()
			return nil, errors.Wrap(err, "configuring connection")
		}
	}

	return conn, nil
}
