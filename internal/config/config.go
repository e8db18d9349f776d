// Package config loads flexchat settings.
//
// Sources, lowest priority first: built-in defaults, config.yaml in the
// config directory, the config directory .env, the working directory .env,
// FLEXCHAT_* environment variables and finally bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"flexchat/internal/prefs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read as settings.
const EnvPrefix = "FLEXCHAT"

// Setting keys. Flags bound to viper use the same names.
const (
	KeyServerURL      = "server_url"
	KeyRequestTimeout = "request_timeout"
	KeyPrefsBackend   = "prefs_backend"
	KeyPrefsPath      = "prefs_path"
	KeyTheme          = "theme"
	KeyCompactWidth   = "compact_width"
	KeyStatusDelay    = "status_delay"
)

// Default setting values.
const (
	DefaultServerURL    = "http://localhost:5001"
	DefaultTheme        = "dark"
	DefaultCompactWidth = 100
	DefaultStatusDelay  = 5 * time.Second
)

// Settings is the resolved configuration.
type Settings struct {
	ServerURL      string
	RequestTimeout time.Duration
	PrefsBackend   string
	PrefsPath      string
	Theme          string
	CompactWidth   int
	StatusDelay    time.Duration
	Paths          Paths
}

// Paths records where configuration was looked for and what was found.
type Paths struct {
	ConfigDir        string
	ConfigFile       string
	ConfigFileLoaded bool
	ConfigEnvPath    string
	ConfigEnvLoaded  bool
	LocalEnvPath     string
	LocalEnvLoaded   bool
}

// Loader resolves Settings from a viper instance.
type Loader struct {
	v          *viper.Viper
	configDir  string
	workingDir string
}

// Option customizes a Loader.
type Option func(*Loader)

// WithConfigDir overrides the config directory (default $XDG_CONFIG_HOME/flexchat
// or ~/.config/flexchat).
func WithConfigDir(dir string) Option {
	return func(l *Loader) { l.configDir = dir }
}

// WithWorkingDir overrides the directory searched for a local .env.
func WithWorkingDir(dir string) Option {
	return func(l *Loader) { l.workingDir = dir }
}

// NewLoader creates a loader over v. A nil v uses a fresh viper instance.
func NewLoader(v *viper.Viper, opts ...Option) *Loader {
	if v == nil {
		v = viper.New()
	}
	l := &Loader{v: v}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyServerURL, DefaultServerURL)
	v.SetDefault(KeyRequestTimeout, time.Duration(0))
	v.SetDefault(KeyPrefsBackend, prefs.BackendFile)
	v.SetDefault(KeyPrefsPath, "")
	v.SetDefault(KeyTheme, DefaultTheme)
	v.SetDefault(KeyCompactWidth, DefaultCompactWidth)
	v.SetDefault(KeyStatusDelay, DefaultStatusDelay)
}

// UserConfigDir returns the flexchat config directory.
func UserConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configHome, "flexchat"), nil
}

// Load reads every source and validates the result.
func (l *Loader) Load() (*Settings, error) {
	SetDefaults(l.v)

	paths, err := l.resolvePaths()
	if err != nil {
		return nil, err
	}

	if fileExists(paths.ConfigFile) {
		l.v.SetConfigFile(paths.ConfigFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", paths.ConfigFile, err)
		}
		paths.ConfigFileLoaded = true
	}

	if paths.ConfigEnvLoaded, err = l.mergeDotEnv(paths.ConfigEnvPath); err != nil {
		return nil, err
	}
	if paths.LocalEnvLoaded, err = l.mergeDotEnv(paths.LocalEnvPath); err != nil {
		return nil, err
	}

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	l.v.AutomaticEnv()

	s := &Settings{
		ServerURL:      strings.TrimSpace(l.v.GetString(KeyServerURL)),
		RequestTimeout: l.v.GetDuration(KeyRequestTimeout),
		PrefsBackend:   strings.ToLower(strings.TrimSpace(l.v.GetString(KeyPrefsBackend))),
		PrefsPath:      strings.TrimSpace(l.v.GetString(KeyPrefsPath)),
		Theme:          strings.ToLower(strings.TrimSpace(l.v.GetString(KeyTheme))),
		CompactWidth:   l.v.GetInt(KeyCompactWidth),
		StatusDelay:    l.v.GetDuration(KeyStatusDelay),
		Paths:          paths,
	}

	if s.PrefsPath == "" {
		s.PrefsPath = defaultPrefsPath(paths.ConfigDir, s.PrefsBackend)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the settings for values no component can use.
func (s *Settings) Validate() error {
	var errs []error
	if s.ServerURL == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", KeyServerURL))
	}
	if s.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyRequestTimeout))
	}
	if !slices.Contains([]string{prefs.BackendFile, prefs.BackendSQLite, prefs.BackendMemory}, s.PrefsBackend) {
		errs = append(errs, fmt.Errorf("%s must be one of file, sqlite or memory, got %q", KeyPrefsBackend, s.PrefsBackend))
	}
	if s.CompactWidth <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyCompactWidth))
	}
	if s.StatusDelay <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyStatusDelay))
	}
	return errors.Join(errs...)
}

func (l *Loader) resolvePaths() (Paths, error) {
	configDir := l.configDir
	if configDir == "" {
		dir, err := UserConfigDir()
		if err != nil {
			return Paths{}, err
		}
		configDir = dir
	}

	workDir := l.workingDir
	if workDir == "" {
		dir, err := os.Getwd()
		if err != nil {
			return Paths{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		workDir = dir
	}

	return Paths{
		ConfigDir:     configDir,
		ConfigFile:    filepath.Join(configDir, "config.yaml"),
		ConfigEnvPath: filepath.Join(configDir, ".env"),
		LocalEnvPath:  filepath.Join(workDir, ".env"),
	}, nil
}

// mergeDotEnv folds FLEXCHAT_* entries of a .env file into the config layer,
// above config.yaml and below the process environment.
func (l *Loader) mergeDotEnv(envPath string) (bool, error) {
	if !fileExists(envPath) {
		return false, nil
	}

	data, err := os.ReadFile(envPath)
	if err != nil {
		return false, fmt.Errorf("failed to read .env file %s: %w", envPath, err)
	}

	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return false, fmt.Errorf("failed to parse .env file %s: %w", envPath, err)
	}

	values := make(map[string]any)
	for key, value := range envMap {
		name, ok := strings.CutPrefix(key, EnvPrefix+"_")
		if !ok || name == "" {
			continue
		}
		values[strings.ToLower(name)] = value
	}
	if len(values) == 0 {
		return true, nil
	}

	if err := l.v.MergeConfigMap(values); err != nil {
		return false, fmt.Errorf("failed to merge .env file %s: %w", envPath, err)
	}
	return true, nil
}

func defaultPrefsPath(configDir, backend string) string {
	switch backend {
	case prefs.BackendSQLite:
		return filepath.Join(configDir, "prefs.db")
	case prefs.BackendMemory:
		return ""
	default:
		return filepath.Join(configDir, "prefs.yaml")
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
