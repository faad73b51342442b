package domain

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"text/template"
)

//go:embed config_template.toml
var configTemplateContent string

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings []string     `toml:"-"`
	Store    StoreConfig  `toml:"store"`
	Review   ReviewConfig `toml:"review"`
	Log      LogConfig    `toml:"log"`
}

// StoreBackend names a BlobStore implementation.
type StoreBackend string

// Supported store backends.
const (
	BackendJSON   StoreBackend = "json"
	BackendGit    StoreBackend = "git"
	BackendSQLite StoreBackend = "sqlite"
)

// AllBackends returns every supported backend in display order.
func AllBackends() []StoreBackend {
	return []StoreBackend{BackendJSON, BackendGit, BackendSQLite}
}

// IsValid reports whether b is a supported backend.
func (b StoreBackend) IsValid() bool {
	switch b {
	case BackendJSON, BackendGit, BackendSQLite:
		return true
	}
	return false
}

// StoreConfig holds persistence settings from [store] section.
type StoreConfig struct {
	Backend   StoreBackend `toml:"backend,omitempty"`   // Storage backend: "json" (default), "git" or "sqlite"
	Path      string       `toml:"path,omitempty"`      // State file or repository path (default depends on backend)
	Namespace string       `toml:"namespace,omitempty"` // Git ref namespace (default: "planreview")
}

// ReviewConfig holds review settings from [review] section.
type ReviewConfig struct {
	Actor string `toml:"actor,omitempty"` // Recorded as "by" in audit entries and approved_by
}

// LogConfig holds logging settings from [log] section.
type LogConfig struct {
	Level string `toml:"level,omitempty"` // Log level: debug, info, warn, error
}

// Default configuration values.
const (
	DefaultBackend   = BackendJSON
	DefaultNamespace = "planreview"
	DefaultLogLevel  = "info"
)

// Directory and file names for planreview.
const (
	DirName         = ".planreview"    // Directory holding config, state and logs
	ConfigFileName  = "config.toml"    // Config file name
	JSONStateFile   = "state.json"     // Default state file for the json backend
	SQLiteStateFile = "state.db"       // Default state file for the sqlite backend
	LogDirName      = "logs"           // Log directory under DirName
	LogFileName     = "planreview.log" // Log file name
	GlobalDirName   = "planreview"     // Directory name under XDG_CONFIG_HOME
)

// RepoDir returns the planreview directory for a project root.
func RepoDir(root string) string {
	return filepath.Join(root, DirName)
}

// RepoConfigPath returns the project config path.
func RepoConfigPath(root string) string {
	return filepath.Join(RepoDir(root), ConfigFileName)
}

// GlobalDir returns the global planreview directory.
// configHome is typically XDG_CONFIG_HOME or ~/.config (resolved by caller).
func GlobalDir(configHome string) string {
	return filepath.Join(configHome, GlobalDirName)
}

// GlobalConfigPath returns the global config path.
func GlobalConfigPath(configHome string) string {
	return filepath.Join(GlobalDir(configHome), ConfigFileName)
}

// LogPath returns the log file path under a planreview directory.
func LogPath(dir string) string {
	return filepath.Join(dir, LogDirName, LogFileName)
}

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:   DefaultBackend,
			Namespace: DefaultNamespace,
		},
		Review: ReviewConfig{
			Actor: DefaultActor,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// StorePath returns the configured store location, resolving defaults and
// relative paths against the project root.
func (c *Config) StorePath(root string) string {
	path := c.Store.Path
	if path == "" {
		switch c.Store.Backend {
		case BackendGit:
			return root
		case BackendSQLite:
			return filepath.Join(RepoDir(root), SQLiteStateFile)
		default:
			return filepath.Join(RepoDir(root), JSONStateFile)
		}
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// templateData holds all data for rendering the config template.
type templateData struct {
	Backend   string
	Namespace string
	Actor     string
	LogLevel  string
	Backends  []StoreBackend
}

// RenderConfigTemplate renders the commented config file written by init.
func RenderConfigTemplate(cfg *Config) string {
	data := templateData{
		Backend:   string(cfg.Store.Backend),
		Namespace: cfg.Store.Namespace,
		Actor:     cfg.Review.Actor,
		LogLevel:  cfg.Log.Level,
		Backends:  AllBackends(),
	}

	tmpl, err := template.New("config").Delims("<<", ">>").Parse(configTemplateContent)
	if err != nil {
		// Should never happen with embedded template
		panic(fmt.Sprintf("failed to parse config template: %v", err))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		// Should never happen with valid data
		panic(fmt.Sprintf("failed to execute config template: %v", err))
	}

	return buf.String()
}
