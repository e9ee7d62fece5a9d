package core

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	AppName = "job-status"

	DefaultLogOutFile = "log.out"
	DefaultLogErrFile = "log.err"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the operator identity and the log file names probed in each
// job's working directory. It is fixed for the lifetime of a monitor run.
type Config struct {
	Username   string `yaml:"username"`
	LogOutFile string `yaml:"log_out_file"`
	LogErrFile string `yaml:"log_err_file"`
}

// Overrides are command-line values that replace config entries when non-empty.
type Overrides struct {
	Username   string
	LogOutFile string
	LogErrFile string
}

// DefaultConfig returns the config used when no file exists.
func DefaultConfig() Config {
	return Config{
		Username:   currentUsername(),
		LogOutFile: DefaultLogOutFile,
		LogErrFile: DefaultLogErrFile,
	}
}

func currentUsername() string {
	if name := strings.TrimSpace(os.Getenv("USER")); name != "" {
		return name
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

// ConfigPath returns the config file location. JOB_STATUS_CONFIG overrides
// the default of ~/.config/job-status/config.yaml.
func ConfigPath() (string, error) {
	if path := strings.TrimSpace(os.Getenv("JOB_STATUS_CONFIG")); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.yaml"), nil
}

// ReadConfig reads the config file if present. It returns nil, nil when the
// file does not exist.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &config, nil
}

// LoadConfig reads the config file and fills unset entries from DefaultConfig.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	stored, err := ReadConfig(path)
	if err != nil {
		return Config{}, err
	}
	if stored == nil {
		return config, nil
	}
	if stored.Username != "" {
		config.Username = stored.Username
	}
	if stored.LogOutFile != "" {
		config.LogOutFile = stored.LogOutFile
	}
	if stored.LogErrFile != "" {
		config.LogErrFile = stored.LogErrFile
	}
	return config, nil
}

// WriteConfig writes config to path, creating the parent directory.
func WriteConfig(path string, config Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Apply copies non-empty overrides into config and reports whether anything changed.
func (o Overrides) Apply(config *Config) bool {
	updated := false
	if o.Username != "" && o.Username != config.Username {
		config.Username = o.Username
		updated = true
	}
	if o.LogOutFile != "" && o.LogOutFile != config.LogOutFile {
		config.LogOutFile = o.LogOutFile
		updated = true
	}
	if o.LogErrFile != "" && o.LogErrFile != config.LogErrFile {
		config.LogErrFile = o.LogErrFile
		updated = true
	}
	return updated
}

// Validate checks that every value needed by the monitor is set.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("%w: username is not set. Use --username", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.LogOutFile) == "" {
		return fmt.Errorf("%w: log_out_file cannot be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.LogErrFile) == "" {
		return fmt.Errorf("%w: log_err_file cannot be empty", ErrInvalidConfig)
	}
	return nil
}
