package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/claude/liftlog/internal/progression"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Auth        AuthConfig        `yaml:"auth"`
	Tailscale   TailscaleConfig   `yaml:"tailscale"`
	LocalState  LocalStateConfig  `yaml:"local_state"`
	Progression ProgressionConfig `yaml:"progression"`
	Templates   TemplatesConfig   `yaml:"templates"`
	Units       UnitsConfig       `yaml:"units"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// LocalStateConfig selects where in-progress sessions are kept between requests.
type LocalStateConfig struct {
	Driver string `yaml:"driver"` // sqlite, bolt or memory
	Path   string `yaml:"path"`
}

// ProgressionConfig tunes next-set targets. Zero values take the defaults.
type ProgressionConfig struct {
	MinReps        int      `yaml:"min_reps"`
	MaxReps        int      `yaml:"max_reps"`
	Step           float64  `yaml:"step"`
	OneRMIncrement *float64 `yaml:"one_rm_increment"`
}

type TemplatesConfig struct {
	Path string `yaml:"path"`
}

type UnitsConfig struct {
	Weight string `yaml:"weight"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Policy returns the progression policy, filling unset fields with defaults.
// An explicit one_rm_increment of 0 is kept.
func (p ProgressionConfig) Policy() progression.Policy {
	pol := progression.Default()
	if p.MinReps > 0 {
		pol.MinReps = p.MinReps
	}
	if p.MaxReps > 0 {
		pol.MaxReps = p.MaxReps
	}
	if p.Step > 0 {
		pol.Step = p.Step
	}
	if p.OneRMIncrement != nil {
		pol.OneRMIncrement = *p.OneRMIncrement
	}
	return pol
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix LIFTLOG_ and underscore-separated paths:
//
//	LIFTLOG_SERVER_HOST, LIFTLOG_SERVER_PORT,
//	LIFTLOG_DB_HOST, LIFTLOG_DB_PORT, LIFTLOG_DB_NAME,
//	LIFTLOG_DB_USER, LIFTLOG_DB_PASSWORD, LIFTLOG_DB_SSLMODE,
//	LIFTLOG_AUTH_API_KEY, LIFTLOG_TAILSCALE_ENABLED, LIFTLOG_TAILSCALE_HOSTNAME,
//	LIFTLOG_LOCAL_STATE_DRIVER, LIFTLOG_LOCAL_STATE_PATH,
//	LIFTLOG_TEMPLATES_PATH, LIFTLOG_UNITS_WEIGHT
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIFTLOG_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("LIFTLOG_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LIFTLOG_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("LIFTLOG_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("LIFTLOG_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("LIFTLOG_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("LIFTLOG_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("LIFTLOG_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("LIFTLOG_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("LIFTLOG_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("LIFTLOG_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("LIFTLOG_LOCAL_STATE_DRIVER"); v != "" {
		cfg.LocalState.Driver = v
	}
	if v := os.Getenv("LIFTLOG_LOCAL_STATE_PATH"); v != "" {
		cfg.LocalState.Path = v
	}
	if v := os.Getenv("LIFTLOG_TEMPLATES_PATH"); v != "" {
		cfg.Templates.Path = v
	}
	if v := os.Getenv("LIFTLOG_UNITS_WEIGHT"); v != "" {
		cfg.Units.Weight = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.LocalState.Driver == "" {
		cfg.LocalState.Driver = "sqlite"
	}
	if cfg.LocalState.Path == "" && cfg.LocalState.Driver != "memory" {
		cfg.LocalState.Path = "data/sessions.db"
	}
	if cfg.Units.Weight == "" {
		cfg.Units.Weight = "lb"
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "liftlog"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	switch c.LocalState.Driver {
	case "sqlite", "bolt", "memory":
	default:
		return fmt.Errorf("local_state.driver %q must be sqlite, bolt or memory", c.LocalState.Driver)
	}
	switch c.Units.Weight {
	case "lb", "kg":
	default:
		return fmt.Errorf("units.weight %q must be lb or kg", c.Units.Weight)
	}
	p := c.Progression.Policy()
	if p.MinReps >= p.MaxReps {
		return fmt.Errorf("progression.min_reps (%d) must be below max_reps (%d)", p.MinReps, p.MaxReps)
	}
	if p.MaxReps >= 37 {
		return fmt.Errorf("progression.max_reps must be below 37")
	}
	return nil
}
