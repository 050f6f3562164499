package config

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultIDPrefix      = "nt"
	DefaultAPIURL        = "http://127.0.0.1:7433"
	DefaultDBFileName    = ".novatask.db"
	DefaultLogLevel      = "debug"
	DefaultAvatarBaseURL = "https://api.dicebear.com/9.x/micah/svg"

	DefaultImageMaxUploadBytes int64 = 10 * 1024 * 1024

	configFileName           = ".novatask.toml"
	configDirEnvKey          = "NOVATASK_CONFIG_DIR"
	trustProjectConfigEnvKey = "NOVATASK_TRUST_PROJECT_CONFIG"
)

// DefaultProjects is the project list used when none is configured.
var DefaultProjects = []string{"低空安全系统", "大思政系统"}

// DefaultImageMediaTypes is the image allow-list used when none is configured.
var DefaultImageMediaTypes = []string{"image/gif", "image/jpeg", "image/png", "image/webp"}

// ImageConfig defines limits for uploaded task images.
type ImageConfig struct {
	MaxUploadBytes    int64    `toml:"max_upload_bytes"`
	AllowedMediaTypes []string `toml:"allowed_media_types"`
}

// UserSeed is a user created at server start when missing.
type UserSeed struct {
	Name string `toml:"name"`
	Role string `toml:"role"`
}

// TaskSeed is a demo task created at server start when the task table is
// empty. Verifier and executors are user names, usually from [[users]].
type TaskSeed struct {
	Title       string   `toml:"title"`
	Project     string   `toml:"project"`
	Priority    string   `toml:"priority"`
	Description string   `toml:"description"`
	Verifier    string   `toml:"verifier"`
	Executors   []string `toml:"executors"`
}

// Config defines runtime configuration for novatask.
type Config struct {
	IDPrefix                 string      `toml:"id_prefix"`
	APIURL                   string      `toml:"api_url"`
	DBPath                   string      `toml:"db_path"`
	LogLevel                 string      `toml:"log_level"`
	Projects                 []string    `toml:"projects"`
	DefaultVerifier          string      `toml:"default_verifier"`
	AvatarBaseURL            string      `toml:"avatar_base_url"`
	APITokenHash             string      `toml:"api_token_hash"`
	Images                   ImageConfig `toml:"images"`
	Users                    []UserSeed  `toml:"users"`
	Tasks                    []TaskSeed  `toml:"tasks"`
	TrustedProjectConfigPath string      `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		IDPrefix:      DefaultIDPrefix,
		APIURL:        DefaultAPIURL,
		DBPath:        "",
		LogLevel:      DefaultLogLevel,
		Projects:      append([]string(nil), DefaultProjects...),
		AvatarBaseURL: DefaultAvatarBaseURL,
		Images: ImageConfig{
			MaxUploadBytes:    DefaultImageMaxUploadBytes,
			AllowedMediaTypes: append([]string(nil), DefaultImageMediaTypes...),
		},
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"id_prefix",
	"api_url",
	"db_path",
	"log_level",
	"projects",
	"default_verifier",
	"avatar_base_url",
	"api_token_hash",
	"images.max_upload_bytes",
	"images.allowed_media_types",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "id_prefix":
		return c.IDPrefix, nil
	case "api_url":
		return c.APIURL, nil
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "projects":
		return strings.Join(c.Projects, ","), nil
	case "default_verifier":
		return c.DefaultVerifier, nil
	case "avatar_base_url":
		return c.AvatarBaseURL, nil
	case "api_token_hash":
		return c.APITokenHash, nil
	case "images.max_upload_bytes":
		return strconv.FormatInt(c.Images.MaxUploadBytes, 10), nil
	case "images.allowed_media_types":
		return strings.Join(c.Images.AllowedMediaTypes, ","), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, configFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}

	if apiURL := os.Getenv("NOVATASK_API_URL"); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if dbPath := os.Getenv("NOVATASK_DB"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if raw := strings.TrimSpace(os.Getenv("NOVATASK_PROJECTS")); raw != "" {
		cfg.Projects = splitCSV(raw)
	}
	if verifier := strings.TrimSpace(os.Getenv("NOVATASK_DEFAULT_VERIFIER")); verifier != "" {
		cfg.DefaultVerifier = verifier
	}

	cfg.normalize()

	return &cfg, nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "images.max_upload_bytes":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "projects", "images.allowed_media_types":
		return splitCSV(value), nil
	case "id_prefix":
		if value == "" || strings.ContainsAny(value, " -") {
			return nil, fmt.Errorf("%s must be non-empty without spaces or dashes", key)
		}
		return value, nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func splitCSV(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.IDPrefix) == "" {
		c.IDPrefix = DefaultIDPrefix
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if strings.TrimSpace(c.AvatarBaseURL) == "" {
		c.AvatarBaseURL = DefaultAvatarBaseURL
	}
	c.Projects = normalizeProjects(c.Projects)
	if len(c.Projects) == 0 {
		c.Projects = append([]string(nil), DefaultProjects...)
	}
	if c.Images.MaxUploadBytes <= 0 {
		c.Images.MaxUploadBytes = DefaultImageMaxUploadBytes
	}
	c.Images.AllowedMediaTypes = normalizeConfiguredMediaTypes(c.Images.AllowedMediaTypes)
	if len(c.Images.AllowedMediaTypes) == 0 {
		c.Images.AllowedMediaTypes = append([]string(nil), DefaultImageMediaTypes...)
	}
	seeds := make([]UserSeed, 0, len(c.Users))
	for _, seed := range c.Users {
		seed.Name = strings.TrimSpace(seed.Name)
		seed.Role = strings.TrimSpace(seed.Role)
		if seed.Name == "" {
			continue
		}
		seeds = append(seeds, seed)
	}
	c.Users = seeds

	tasks := make([]TaskSeed, 0, len(c.Tasks))
	for _, seed := range c.Tasks {
		seed.Title = strings.TrimSpace(seed.Title)
		if seed.Title == "" {
			continue
		}
		seed.Project = strings.TrimSpace(seed.Project)
		seed.Verifier = strings.TrimSpace(seed.Verifier)
		tasks = append(tasks, seed)
	}
	c.Tasks = tasks
}

// normalizeProjects trims names and drops blanks and duplicates, keeping order.
func normalizeProjects(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := map[string]struct{}{}
	for _, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func normalizeConfiguredMediaTypes(rawValues []string) []string {
	if len(rawValues) == 0 {
		return nil
	}
	out := make([]string, 0, len(rawValues))
	seen := map[string]struct{}{}
	for _, raw := range rawValues {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parsed, _, err := mime.ParseMediaType(raw)
		if err != nil {
			continue
		}
		normalized := strings.ToLower(strings.TrimSpace(parsed))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
