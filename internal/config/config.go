// Package config loads the installation's configuration file.
//
// The file is YAML. Values are applied in order of increasing precedence:
//  1. Hardcoded defaults (NewConfig)
//  2. The installation's config.yaml
//  3. Environment variables (VALIDATE_*)
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	verrors "github.com/Aman-CERP/validate/internal/errors"
)

const (
	// FileName is the configuration file looked up in the install directory.
	FileName = "config.yaml"
	// ExampleFileName is the template shipped with the installation.
	ExampleFileName = "config.yaml.example"
)

// Config represents the installation configuration consumed by checks.
type Config struct {
	Version      int                `yaml:"version" json:"version"`
	InstallDir   string             `yaml:"install_dir" json:"install_dir"`
	User         string             `yaml:"user" json:"user"`
	Group        string             `yaml:"group" json:"group"`
	BaseURL      string             `yaml:"base_url" json:"base_url"`
	RRDDir       string             `yaml:"rrd_dir" json:"rrd_dir"`
	LogDir       string             `yaml:"log_dir" json:"log_dir"`
	Database     DatabaseConfig     `yaml:"database" json:"database"`
	Poller       PollerConfig       `yaml:"poller" json:"poller"`
	Programs     ProgramsConfig     `yaml:"programs" json:"programs"`
	Disk         DiskConfig         `yaml:"disk" json:"disk"`
	Dependencies DependenciesConfig `yaml:"dependencies" json:"dependencies"`
	Mail         MailConfig         `yaml:"mail" json:"mail"`
	// Run holds the settings of the validator itself (the validate section).
	Run          ValidateConfig     `yaml:"validate" json:"validate"`
}

// DatabaseConfig configures the data store connection.
type DatabaseConfig struct {
	// Driver selects the database/sql driver: "sqlite" (pure Go) or "sqlite3" (cgo).
	Driver string `yaml:"driver" json:"driver"`
	// DSN is the data source name; for SQLite a file path, relative to install_dir.
	DSN string `yaml:"dsn" json:"dsn"`
	// ConnectRetries is the number of retries after the first failed attempt (default: 0).
	ConnectRetries int `yaml:"connect_retries" json:"connect_retries"`
	// ConnectTimeout bounds each connection attempt (default: "5s").
	ConnectTimeout string `yaml:"connect_timeout" json:"connect_timeout"`
	// MinSchema is the lowest schema version the application runs against.
	MinSchema int `yaml:"min_schema" json:"min_schema"`
}

// PollerConfig describes where the poller leaves evidence of activity.
type PollerConfig struct {
	LockFile      string `yaml:"lock_file" json:"lock_file"`
	HeartbeatFile string `yaml:"heartbeat_file" json:"heartbeat_file"`
	// MaxAge is how old the heartbeat may be before the poller is considered stalled.
	MaxAge string `yaml:"max_age" json:"max_age"`
}

// ProgramsConfig lists the external programs the installation shells out to.
// Each value is a command name resolved via PATH or an absolute path.
type ProgramsConfig struct {
	RRDTool  string `yaml:"rrdtool" json:"rrdtool"`
	SNMPGet  string `yaml:"snmpget" json:"snmpget"`
	SNMPWalk string `yaml:"snmpwalk" json:"snmpwalk"`
	FPing    string `yaml:"fping" json:"fping"`
	Git      string `yaml:"git" json:"git"`
}

// DiskConfig sets free space thresholds for the install and RRD directories.
type DiskConfig struct {
	MinFreeMB       int `yaml:"min_free_mb" json:"min_free_mb"`
	WarnFreePercent int `yaml:"warn_free_percent" json:"warn_free_percent"`
}

// DependenciesConfig points at the resolved dependency manifest.
type DependenciesConfig struct {
	// Manifest lists required dependencies and their versions.
	Manifest string `yaml:"manifest" json:"manifest"`
	// VendorDir holds installed dependencies, one directory per dependency.
	VendorDir string `yaml:"vendor_dir" json:"vendor_dir"`
	// InstallCommand is suggested when dependencies are missing or outdated.
	InstallCommand string `yaml:"install_command" json:"install_command"`
}

// MailConfig configures outbound alert mail.
type MailConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	SMTPHost  string `yaml:"smtp_host" json:"smtp_host"`
	SMTPPort  int    `yaml:"smtp_port" json:"smtp_port"`
	From      string `yaml:"from" json:"from"`
}

// ValidateConfig tunes the validator itself.
type ValidateConfig struct {
	// CheckTimeout bounds each standard check; empty or "0" disables the bound.
	CheckTimeout string `yaml:"check_timeout" json:"check_timeout"`
	// Parallel runs standard checks concurrently; report order is unchanged.
	Parallel bool `yaml:"parallel" json:"parallel"`
	// LogLevel is the minimum level written to the debug log (default: "debug").
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		User:    "netmon",
		Group:   "netmon",
		RRDDir:  "rrd",
		LogDir:  "logs",
		Database: DatabaseConfig{
			Driver:         "sqlite",
			DSN:            "netmon.db",
			ConnectRetries: 0, // one-shot; operators opt in to retries
			ConnectTimeout: "5s",
			MinSchema:      1,
		},
		Poller: PollerConfig{
			LockFile:      ".poller.lock",
			HeartbeatFile: "logs/poller.heartbeat",
			MaxAge:        "10m",
		},
		Programs: ProgramsConfig{
			RRDTool:  "rrdtool",
			SNMPGet:  "snmpget",
			SNMPWalk: "snmpwalk",
			FPing:    "fping",
			Git:      "git",
		},
		Disk: DiskConfig{
			MinFreeMB:       100,
			WarnFreePercent: 10,
		},
		Dependencies: DependenciesConfig{
			Manifest:       "dependencies.yaml",
			VendorDir:      "vendor",
			InstallCommand: "./scripts/install-deps --no-dev",
		},
		Mail: MailConfig{
			Transport: "smtp",
			SMTPPort:  25,
		},
		Run: ValidateConfig{
			CheckTimeout: "",
			Parallel:     false,
			LogLevel:     "debug",
		},
	}
}

// Load reads the configuration at path, applies environment overrides and validates it.
// A missing file yields ErrCodeConfigNotFound, a file that does not parse yields
// ErrCodeConfigInvalid; both carry a suggestion for the operator.
func Load(path string) (*Config, error) {
	data, err := Read(path)
	if err != nil {
		return nil, err
	}

	cfg := NewConfig()
	if err := cfg.parse(path, data); err != nil {
		return nil, err
	}
	if cfg.InstallDir == "" {
		cfg.InstallDir = filepath.Dir(path)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, verrors.New(verrors.ErrCodeConfigInvalid,
			fmt.Sprintf("invalid configuration in %s: %v", path, err), err)
	}

	return cfg, nil
}

// Read returns the raw bytes of the configuration file.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, verrors.New(verrors.ErrCodeConfigNotFound,
			fmt.Sprintf("%s does not exist, please copy %s to %s", path, ExampleFileName, FileName), err).
			WithSuggestion(fmt.Sprintf("cp %s %s",
				filepath.Join(filepath.Dir(path), ExampleFileName), path))
	case errors.Is(err, fs.ErrPermission):
		return nil, verrors.New(verrors.ErrCodeConfigPermission,
			fmt.Sprintf("%s is not readable by the current user", path), err).
			WithSuggestion("chmod 640 " + path)
	default:
		return nil, verrors.New(verrors.ErrCodeConfigInvalid,
			fmt.Sprintf("failed to read config file %s", path), err)
	}
}

// parse overlays YAML data on top of the current values.
func (c *Config) parse(path string, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return verrors.New(verrors.ErrCodeConfigInvalid, path+" is empty", nil).
			WithSuggestion(fmt.Sprintf("cp %s %s",
				filepath.Join(filepath.Dir(path), ExampleFileName), path))
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return verrors.New(verrors.ErrCodeConfigInvalid,
			fmt.Sprintf("syntax error in %s: %v", filepath.Base(path), err), err)
	}
	return nil
}

// applyEnvOverrides applies VALIDATE_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("VALIDATE_INSTALL_DIR"); v != "" {
		c.InstallDir = v
	}
	if v := os.Getenv("VALIDATE_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("VALIDATE_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("VALIDATE_CHECK_TIMEOUT"); v != "" {
		c.Run.CheckTimeout = v
	}
	if v := os.Getenv("VALIDATE_PARALLEL"); v != "" {
		c.Run.Parallel = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("VALIDATE_LOG_LEVEL"); v != "" {
		c.Run.LogLevel = v
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Version < 1 {
		return fmt.Errorf("version must be at least 1, got %d", c.Version)
	}

	validDrivers := map[string]bool{"sqlite": true, "sqlite3": true}
	if !validDrivers[strings.ToLower(c.Database.Driver)] {
		return fmt.Errorf("database.driver must be 'sqlite' or 'sqlite3', got %s", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn must not be empty")
	}
	if c.Database.ConnectRetries < 0 {
		return fmt.Errorf("database.connect_retries must be non-negative, got %d", c.Database.ConnectRetries)
	}

	durations := map[string]string{
		"database.connect_timeout": c.Database.ConnectTimeout,
		"poller.max_age":           c.Poller.MaxAge,
		"validate.check_timeout":   c.Run.CheckTimeout,
	}
	for _, key := range sortedKeys(durations) {
		if _, err := ParseDuration(durations[key]); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	if c.Disk.MinFreeMB < 0 {
		return fmt.Errorf("disk.min_free_mb must be non-negative, got %d", c.Disk.MinFreeMB)
	}
	if c.Disk.WarnFreePercent < 0 || c.Disk.WarnFreePercent > 100 {
		return fmt.Errorf("disk.warn_free_percent must be between 0 and 100, got %d", c.Disk.WarnFreePercent)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Run.LogLevel)] {
		return fmt.Errorf("validate.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Run.LogLevel)
	}

	return nil
}

// Path resolves p against the install directory. Absolute paths are returned unchanged.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.InstallDir, p)
}

// CheckTimeout returns the configured per-check timeout; zero means unbounded.
func (c *Config) CheckTimeout() time.Duration {
	d, _ := ParseDuration(c.Run.CheckTimeout)
	return d
}

// ParseDuration parses a duration setting. Empty and "0" are zero.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", s)
	}
	return d, nil
}

// Flatten returns the configuration as a flat key-value map with dotted keys
// (e.g. "database.dsn"). Lists are joined with commas.
func (c *Config) Flatten() (map[string]string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	out := make(map[string]string)
	flattenInto(out, "", tree)
	return out, nil
}

func flattenInto(out map[string]string, prefix string, v any) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flattenInto(out, key, child)
		}
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
		out[prefix] = strings.Join(parts, ",")
	case nil:
		out[prefix] = ""
	case string:
		out[prefix] = val
	case bool:
		out[prefix] = strconv.FormatBool(val)
	default:
		out[prefix] = fmt.Sprint(val)
	}
}

// UnknownKeys returns the dotted paths of keys in data that no Config field
// consumes, sorted. Such keys are usually typos that silently fall back to defaults.
func UnknownKeys(data []byte) ([]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	var unknown []string
	walkKeys(doc.Content[0], reflect.TypeOf(Config{}), "", &unknown)
	sort.Strings(unknown)
	return unknown, nil
}

func walkKeys(node *yaml.Node, typ reflect.Type, prefix string, unknown *[]string) {
	if node.Kind != yaml.MappingNode || typ.Kind() != reflect.Struct {
		return
	}

	fields := make(map[string]reflect.Type, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		name := strings.Split(f.Tag.Get("yaml"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		fields[name] = f.Type
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		fieldType, ok := fields[key]
		if !ok {
			*unknown = append(*unknown, path)
			continue
		}
		walkKeys(node.Content[i+1], fieldType, path, unknown)
	}
}

// FindInstallDir finds the installation directory by walking up from startDir
// looking for config.yaml or config.yaml.example.
// Returns the absolute startDir when neither is found.
func FindInstallDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if fileExists(filepath.Join(currentDir, FileName)) ||
			fileExists(filepath.Join(currentDir, ExampleFileName)) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
