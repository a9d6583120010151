package stockreport

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the stockreport engine and commands.
type Config struct {
	// DBPath is the full path to the SQLite history database.
	// If empty, defaults to ~/.stockreport/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath
	// is not explicitly set. Options: "home" (default) uses ~/.stockreport/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// History records every successful parse. When false no database is
	// opened and history operations return ErrHistoryDisabled.
	History bool `json:"history" yaml:"history"`

	// MaxFileSize bounds uploaded and parsed files, in bytes.
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// ProductOrder is the default product priority. It seeds the stored
	// order when none has been saved yet.
	ProductOrder []string `json:"product_order" yaml:"product_order"`

	// Server
	Listen      string `json:"listen" yaml:"listen"`
	APIKey      string `json:"api_key" yaml:"api_key"`
	CORSOrigins string `json:"cors_origins" yaml:"cors_origins"`
}

// DefaultConfig returns a Config with history enabled in ~/.stockreport.
func DefaultConfig() Config {
	return Config{
		DBName:      "stockreport",
		StorageDir:  "home",
		History:     true,
		MaxFileSize: 50 << 20,
		Listen:      ":8080",
	}
}

// LoadConfig reads a YAML (or JSON) file on top of DefaultConfig and
// validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch c.StorageDir {
	case "", "home", "local", "cwd":
	default:
		return fmt.Errorf("%w: storage_dir %q", ErrInvalidConfig, c.StorageDir)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("%w: max_file_size must be positive", ErrInvalidConfig)
	}
	return nil
}

// ApplyEnv overrides fields from STOCKREPORT_* variables looked up with
// getenv (os.Getenv in the commands).
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("STOCKREPORT_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := getenv("STOCKREPORT_DB_NAME"); v != "" {
		c.DBName = v
	}
	if v := getenv("STOCKREPORT_STORAGE_DIR"); v != "" {
		c.StorageDir = v
	}
	if v := getenv("STOCKREPORT_HISTORY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: STOCKREPORT_HISTORY=%q", ErrInvalidConfig, v)
		}
		c.History = b
	}
	if v := getenv("STOCKREPORT_MAX_FILE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: STOCKREPORT_MAX_FILE_SIZE=%q", ErrInvalidConfig, v)
		}
		c.MaxFileSize = n
	}
	if v := getenv("STOCKREPORT_PRODUCT_ORDER"); v != "" {
		c.ProductOrder = SplitCodes(v)
	}
	if v := getenv("STOCKREPORT_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := getenv("STOCKREPORT_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := getenv("STOCKREPORT_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = v
	}
	return c.Validate()
}

// SplitCodes parses a comma-separated product code list, dropping blanks.
func SplitCodes(s string) []string {
	var codes []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			codes = append(codes, part)
		}
	}
	return codes
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "stockreport"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db"
		}
		return filepath.Join(home, ".stockreport", name+".db")
	}
}
