package models

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"
)

type Config struct {
	// physical memory size in pages
	PhysPages int `toml:"phys_pages" envconfig:"PHYS_PAGES"`
	// environment table capacity, at most NENV
	MaxEnvs int `toml:"max_envs" envconfig:"MAX_ENVS"`
	// a user access that keeps faulting after this many upcalls kills the environment
	FaultRetries int `toml:"fault_retries" envconfig:"FAULT_RETRIES"`

	Color        bool   `toml:"color" envconfig:"COLOR"`
	CleanConsole bool   `toml:"clean_console" envconfig:"CLEAN_CONSOLE"`
	TraceSys     bool   `toml:"trace_sys" envconfig:"TRACE_SYS"`
	TraceFile    string `toml:"trace_file" envconfig:"TRACE_FILE"`
	Strsize      int    `toml:"strsize" envconfig:"STRSIZE"`
	Verbose      bool   `toml:"verbose" envconfig:"VERBOSE"`

	LogLevel    string `toml:"log_level" envconfig:"LOG_LEVEL"`
	LogDev      bool   `toml:"log_dev" envconfig:"LOG_DEV"`
	MetricsAddr string `toml:"metrics_addr" envconfig:"METRICS_ADDR"`

	Output io.Writer `toml:"-" ignored:"true"`
}

const EnvPrefix = "EXOCORN"

func DefaultConfig() *Config {
	return &Config{
		PhysPages:    4096,
		MaxEnvs:      NENV,
		FaultRetries: 8,
		Strsize:      30,
		LogLevel:     "info",
		Output:       os.Stderr,
	}
}

// LoadConfig layers the defaults, a TOML file and EXOCORN_* environment variables.
// An empty path searches the per-user config dirs for config.toml.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	var data []byte
	var err error
	if path != "" {
		if data, err = os.ReadFile(path); err != nil {
			return nil, errors.Wrap(err, "reading config")
		}
	} else {
		dirs := configdir.New("exocorn", "exocorn")
		if dir := dirs.QueryFolderContainsFile("config.toml"); dir != nil {
			if data, err = dir.ReadFile("config.toml"); err != nil {
				return nil, errors.Wrap(err, "reading config")
			}
		}
	}
	if data != nil {
		if _, err := toml.Decode(string(data), c); err != nil {
			return nil, errors.Wrap(err, "parsing config")
		}
	}
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return nil, errors.Wrap(err, "environment overrides")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.PhysPages < 16 {
		return errors.Errorf("phys_pages too small: %d", c.PhysPages)
	}
	if c.MaxEnvs < 1 || c.MaxEnvs > NENV {
		return errors.Errorf("max_envs out of range: %d (1-%d)", c.MaxEnvs, NENV)
	}
	if c.FaultRetries < 1 {
		return errors.Errorf("fault_retries must be positive: %d", c.FaultRetries)
	}
	return nil
}
