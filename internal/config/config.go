package config

import (
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"

	"github.com/Lumos-Labs-HQ/provision/internal/database/common"
)

type Config struct {
	SchemaDir string   `json:"schema_dir" mapstructure:"schema_dir"`
	Database  Database `json:"database" mapstructure:"database"`
	Seed      Seed     `json:"seed" mapstructure:"seed"`
}

type Database struct {
	Provider    string `json:"provider" mapstructure:"provider"`
	URLEnv      string `json:"url_env" mapstructure:"url_env"`
	User        string `json:"user" mapstructure:"user"`
	Password    string `json:"password" mapstructure:"password"`
	Host        string `json:"host" mapstructure:"host"`
	Name        string `json:"name" mapstructure:"name"`
	Port        int    `json:"port" mapstructure:"port"` // 0 picks the provider default
	PoolSize    int    `json:"pool_size" mapstructure:"pool_size"`
	MaxOverflow int    `json:"max_overflow" mapstructure:"max_overflow"`
}

type Seed struct {
	Rows        int            `json:"rows" mapstructure:"rows"`
	Tables      map[string]int `json:"tables" mapstructure:"tables"`
	Concurrency int            `json:"concurrency" mapstructure:"concurrency"`
}

var supportedProviders = []string{"postgresql", "postgres", "mysql", "sqlite", "sqlite3"}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"database.provider":     "DATABASE_PROVIDER",
	"database.user":         "DATABASE_USER",
	"database.password":     "DATABASE_PASSWORD",
	"database.host":         "DATABASE_HOST",
	"database.name":         "DATABASE_NAME",
	"database.port":         "DATABASE_PORT",
	"database.pool_size":    "DATABASE_POOL_SIZE",
	"database.max_overflow": "DATABASE_MAX_OVERFLOW",
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("schema_dir", ".")
	v.SetDefault("database.provider", "postgresql")
	v.SetDefault("database.url_env", "DATABASE_URL")
	v.SetDefault("database.user", "app_user")
	v.SetDefault("database.password", "app_password")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.name", "sensor")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.pool_size", 5)
	v.SetDefault("database.max_overflow", 50)
	v.SetDefault("seed.rows", 5)
	v.SetDefault("seed.tables", map[string]int{})
	v.SetDefault("seed.concurrency", 4)

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
}

// Load reads the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = "DATABASE_URL"
	}
	if cfg.SchemaDir == "" {
		cfg.SchemaDir = "."
	}
	if cfg.Seed.Tables == nil {
		cfg.Seed.Tables = map[string]int{}
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if !slices.Contains(supportedProviders, c.Database.Provider) {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, supportedProviders)
	}
	if c.Seed.Rows < 0 {
		return fmt.Errorf("seed.rows cannot be negative: %d", c.Seed.Rows)
	}
	for table, rows := range c.Seed.Tables {
		if rows < 0 {
			return fmt.Errorf("seed.tables.%s cannot be negative: %d", table, rows)
		}
	}
	if c.Seed.Concurrency <= 0 {
		return fmt.Errorf("seed.concurrency must be positive: %d", c.Seed.Concurrency)
	}
	if c.Database.PoolSize <= 0 {
		return fmt.Errorf("database.pool_size must be positive: %d", c.Database.PoolSize)
	}
	if c.Database.MaxOverflow < 0 {
		return fmt.Errorf("database.max_overflow cannot be negative: %d", c.Database.MaxOverflow)
	}
	return nil
}

// Provider returns the canonical provider name.
func (c *Config) Provider() string {
	switch c.Database.Provider {
	case "postgres":
		return "postgresql"
	case "sqlite3":
		return "sqlite"
	default:
		return c.Database.Provider
	}
}

// PoolOptions keeps pool_size connections open and allows max_overflow more under load.
func (c *Config) PoolOptions() common.PoolOptions {
	return common.PoolOptions{
		MinConns: c.Database.PoolSize,
		MaxConns: c.Database.PoolSize + c.Database.MaxOverflow,
	}
}

func (c *Config) port() int {
	if c.Database.Port > 0 {
		return c.Database.Port
	}
	if c.Provider() == "mysql" {
		return 3306
	}
	return 5432
}

// GetDatabaseURL returns the URL from the url_env variable when set, otherwise one
// assembled from the individual database settings.
func (c *Config) GetDatabaseURL() (string, error) {
	if dbURL := os.Getenv(c.Database.URLEnv); dbURL != "" {
		return dbURL, nil
	}

	if c.Database.Name == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s and database.name is empty", c.Database.URLEnv)
	}

	addr := net.JoinHostPort(c.Database.Host, strconv.Itoa(c.port()))

	switch c.Provider() {
	case "mysql":
		cfg := mysql.NewConfig()
		cfg.User = c.Database.User
		cfg.Passwd = c.Database.Password
		cfg.Net = "tcp"
		cfg.Addr = addr
		cfg.DBName = c.Database.Name
		return cfg.FormatDSN(), nil
	case "sqlite":
		name := c.Database.Name
		if filepath.Ext(name) == "" {
			name += ".db"
		}
		return "sqlite://" + name, nil
	default:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.Database.User, c.Database.Password),
			Host:   addr,
			Path:   "/" + c.Database.Name,
		}
		return u.String(), nil
	}
}

// GetSchemaFiles returns every .sql file under the schema directory, recursively,
// in lexical path order.
func (c *Config) GetSchemaFiles() ([]string, error) {
	var files []string

	err := filepath.WalkDir(c.SchemaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".sql") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory %s: %w", c.SchemaDir, err)
	}

	sort.Strings(files)
	return files, nil
}
