package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectConfigName is the per-project configuration file.
const ProjectConfigName = ".zenith.yaml"

// Config represents the complete zen configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Paths      PathsConfig      `yaml:"paths" json:"paths"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Server     ServerConfig     `yaml:"server" json:"server"`
}

// PathsConfig locates zen's on-disk state.
type PathsConfig struct {
	// DataDir holds zenith.db, symbols.db, vectors.hnsw and the bleve index.
	// Relative paths resolve against the project root.
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// SearchConfig configures hybrid search.
// Precedence: user config, then .zenith.yaml, then ZENITH_* env vars.
type SearchConfig struct {
	// Alpha weights the vector signal against the lexical one (0.0-1.0).
	Alpha float64 `yaml:"alpha" json:"alpha"`

	// Limit is the default number of results.
	Limit int `yaml:"limit" json:"limit"`

	// FTSBackend selects the lexical engine: "sqlite" (FTS5) or "bleve".
	FTSBackend string `yaml:"fts_backend" json:"fts_backend"`

	// CentralityMaxNodes skips betweenness centrality above this node count.
	CentralityMaxNodes int `yaml:"centrality_max_nodes" json:"centrality_max_nodes"`

	// VectorCandidates is the kNN fan-out fetched before fusion.
	VectorCandidates int `yaml:"vector_candidates" json:"vector_candidates"`
}

// EmbeddingsConfig configures the static embedder and its cache.
type EmbeddingsConfig struct {
	Dimensions int `yaml:"dimensions" json:"dimensions"`
	CacheSize  int `yaml:"cache_size" json:"cache_size"`
}

// ServerConfig configures `zen serve`.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			DataDir: ".zenith",
		},
		Search: SearchConfig{
			Alpha:              0.7,
			Limit:              20,
			FTSBackend:         "sqlite",
			CentralityMaxNodes: 500,
			VectorCandidates:   50,
		},
		Embeddings: EmbeddingsConfig{
			Dimensions: 256,
			CacheSize:  1000,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// GetUserConfigPath returns the user configuration file path,
// $XDG_CONFIG_HOME/zenith/config.yaml or ~/.config/zenith/config.yaml.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "zenith", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "zenith", "config.yaml")
	}
	return filepath.Join(home, ".config", "zenith", "config.yaml")
}

// Load loads configuration for the project rooted at dir.
// Layers, lowest precedence first:
//  1. Defaults
//  2. User config
//  3. Project config (.zenith.yaml)
//  4. Environment variables (ZENITH_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadYAML(GetUserConfigPath()); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	if err := cfg.loadYAML(filepath.Join(dir, ProjectConfigName)); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadYAML decodes path over c. Keys absent from the file keep their current
// values, so an explicit zero (alpha: 0) still overrides. A missing file is
// not an error.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies ZENITH_* environment variable overrides.
// Malformed values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ZENITH_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("ZENITH_SEARCH_ALPHA"); v != "" {
		if a, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			c.Search.Alpha = a
		}
	}
	if v := os.Getenv("ZENITH_SEARCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.Limit = n
		}
	}
	if v := os.Getenv("ZENITH_FTS_BACKEND"); v != "" {
		c.Search.FTSBackend = v
	}
	if v := os.Getenv("ZENITH_CENTRALITY_MAX_NODES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.CentralityMaxNodes = n
		}
	}
	if v := os.Getenv("ZENITH_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("ZENITH_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Search.Alpha < 0 || c.Search.Alpha > 1 {
		return fmt.Errorf("search.alpha must be between 0 and 1, got %g", c.Search.Alpha)
	}
	if c.Search.Limit <= 0 {
		return fmt.Errorf("search.limit must be positive, got %d", c.Search.Limit)
	}
	switch strings.ToLower(c.Search.FTSBackend) {
	case "sqlite", "bleve":
	default:
		return fmt.Errorf("search.fts_backend must be 'sqlite' or 'bleve', got %q", c.Search.FTSBackend)
	}
	if c.Search.CentralityMaxNodes < 0 {
		return fmt.Errorf("search.centrality_max_nodes must be non-negative, got %d", c.Search.CentralityMaxNodes)
	}
	if c.Search.VectorCandidates <= 0 {
		return fmt.Errorf("search.vector_candidates must be positive, got %d", c.Search.VectorCandidates)
	}
	if c.Embeddings.Dimensions <= 0 {
		return fmt.Errorf("embeddings.dimensions must be positive, got %d", c.Embeddings.Dimensions)
	}
	if c.Embeddings.CacheSize < 0 {
		return fmt.Errorf("embeddings.cache_size must be non-negative, got %d", c.Embeddings.CacheSize)
	}
	if strings.ToLower(c.Server.Transport) != "stdio" {
		return fmt.Errorf("server.transport must be 'stdio', got %q", c.Server.Transport)
	}
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %q", c.Server.LogLevel)
	}
	return nil
}

// DataDir resolves Paths.DataDir against root.
func (c *Config) DataDir(root string) string {
	if filepath.IsAbs(c.Paths.DataDir) {
		return c.Paths.DataDir
	}
	return filepath.Join(root, c.Paths.DataDir)
}

// FindProjectRoot walks up from startDir looking for .git or .zenith.yaml.
// It returns startDir (absolute) when neither is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	current := absDir
	for {
		if dirExists(filepath.Join(current, ".git")) || fileExists(filepath.Join(current, ProjectConfigName)) {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return absDir, nil
		}
		current = parent
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
