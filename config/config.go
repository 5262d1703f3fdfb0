// Package config loads the runtime's YAML configuration file,
// following the teacher's small-typed-struct convention
// (examples/configuration/main.go) rather than a generic config
// framework, with environment variables overriding individual fields
// the way showcases/ai-pdf-chatbot/backend/config.go's LoadConfig
// layers os.Getenv over defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration: where CSV graph
// definitions and compiled bundles live, which checkpoint backend
// persists suspend/resume state, which LLM provider agents call
// through, and how the runtime logs.
type Config struct {
	CSVPath     string `yaml:"csv_path"`
	BundleDir   string `yaml:"bundle_dir"`
	ScaffoldDir string `yaml:"scaffold_dir"`
	SkillsDir   string `yaml:"skills_dir"`

	Logging    LoggingConfig    `yaml:"logging"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	LLM        LLMConfig        `yaml:"llm"`
	Storage    StorageConfig    `yaml:"storage"`
}

// LoggingConfig selects the logging backend and minimum level.
type LoggingConfig struct {
	Backend string `yaml:"backend"` // "default" or "golog"
	Level   string `yaml:"level"`   // debug|info|warn|error|none
}

// CheckpointConfig selects the suspend/resume persistence backend and
// its connection parameters. Kind selects one of "memory", "sqlite",
// "redis", "postgres"; only the matching sub-struct is consulted.
type CheckpointConfig struct {
	Kind     string         `yaml:"kind"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig configures the sqlite-backed checkpoint store. The
// "kv" storage provider uses StorageConfig.KVPath instead.
type SQLiteConfig struct {
	Path      string `yaml:"path"`
	TableName string `yaml:"table_name"`
}

// RedisConfig configures the redis-backed checkpoint store.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// PostgresConfig configures the postgres-backed checkpoint store.
type PostgresConfig struct {
	ConnString string `yaml:"conn_string"`
	TableName  string `yaml:"table_name"`
}

// LLMConfig selects the LLM provider wired into LLMAgent instances.
// Mode is "direct" (OpenAIProvider) or "routed" (RoutedProvider over
// langchaingo backends); routed backend wiring happens in the CLI
// composition root since langchaingo models aren't YAML-expressible.
type LLMConfig struct {
	Mode         string `yaml:"mode"`
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	DefaultModel string `yaml:"default_model"`
}

// StorageConfig configures the sqlite path backing the "kv" storage
// provider, kept separate from CheckpointConfig.SQLite since the two
// serve distinct tables/databases even when they share a backend kind.
type StorageConfig struct {
	KVPath string `yaml:"kv_path"`
}

// Load reads and parses path, then applies environment-variable
// overrides via Override.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
	}

	applyDefaults(&cfg)
	Override(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.BundleDir == "" {
		cfg.BundleDir = "./bundles"
	}
	if cfg.ScaffoldDir == "" {
		cfg.ScaffoldDir = "./scaffold"
	}
	if cfg.SkillsDir == "" {
		cfg.SkillsDir = "./skills"
	}
	if cfg.Logging.Backend == "" {
		cfg.Logging.Backend = "default"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Checkpoint.Kind == "" {
		cfg.Checkpoint.Kind = "memory"
	}
	if cfg.Checkpoint.SQLite.TableName == "" {
		cfg.Checkpoint.SQLite.TableName = "checkpoints"
	}
	if cfg.Checkpoint.Redis.Prefix == "" {
		cfg.Checkpoint.Redis.Prefix = "agentmap:"
	}
	if cfg.Checkpoint.Postgres.TableName == "" {
		cfg.Checkpoint.Postgres.TableName = "checkpoints"
	}
	if cfg.LLM.Mode == "" {
		cfg.LLM.Mode = "direct"
	}
	if cfg.LLM.DefaultModel == "" {
		cfg.LLM.DefaultModel = "gpt-4o-mini"
	}
}

// Override layers environment variables on top of an already-loaded
// Config, matching getEnv's "non-empty env wins" precedence.
func Override(cfg *Config) {
	overrideString(&cfg.CSVPath, "AGENTMAP_CSV_PATH")
	overrideString(&cfg.BundleDir, "AGENTMAP_BUNDLE_DIR")
	overrideString(&cfg.ScaffoldDir, "AGENTMAP_SCAFFOLD_DIR")
	overrideString(&cfg.SkillsDir, "AGENTMAP_SKILLS_DIR")

	overrideString(&cfg.Logging.Backend, "AGENTMAP_LOG_BACKEND")
	overrideString(&cfg.Logging.Level, "AGENTMAP_LOG_LEVEL")

	overrideString(&cfg.Checkpoint.Kind, "AGENTMAP_CHECKPOINT_KIND")
	overrideString(&cfg.Checkpoint.SQLite.Path, "AGENTMAP_SQLITE_PATH")
	overrideString(&cfg.Checkpoint.Redis.Addr, "AGENTMAP_REDIS_ADDR")
	overrideString(&cfg.Checkpoint.Redis.Password, "AGENTMAP_REDIS_PASSWORD")
	overrideString(&cfg.Checkpoint.Postgres.ConnString, "AGENTMAP_POSTGRES_CONN_STRING")

	overrideString(&cfg.LLM.Mode, "AGENTMAP_LLM_MODE")
	overrideString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	overrideString(&cfg.LLM.BaseURL, "OPENAI_BASE_URL")
	overrideString(&cfg.LLM.DefaultModel, "AGENTMAP_LLM_MODEL")

	overrideString(&cfg.Storage.KVPath, "AGENTMAP_KV_PATH")
}

func overrideString(field *string, envVar string) {
	if v := os.Getenv(envVar); v != "" {
		*field = v
	}
}

// Validate checks that the fields required to run the configured
// checkpoint and LLM backends are present, mirroring ValidateConfig's
// fail-fast shape (returning an error here instead of log.Fatal, since
// this package is a library, not a command entry point).
func Validate(cfg Config) error {
	switch cfg.Checkpoint.Kind {
	case "memory":
	case "sqlite":
		if cfg.Checkpoint.SQLite.Path == "" {
			return fmt.Errorf("config: checkpoint.sqlite.path is required when checkpoint.kind is 'sqlite'")
		}
	case "redis":
		if cfg.Checkpoint.Redis.Addr == "" {
			return fmt.Errorf("config: checkpoint.redis.addr is required when checkpoint.kind is 'redis'")
		}
	case "postgres":
		if cfg.Checkpoint.Postgres.ConnString == "" {
			return fmt.Errorf("config: checkpoint.postgres.conn_string is required when checkpoint.kind is 'postgres'")
		}
	default:
		return fmt.Errorf("config: unknown checkpoint.kind %q", cfg.Checkpoint.Kind)
	}

	switch cfg.LLM.Mode {
	case "direct":
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("config: llm.api_key (or OPENAI_API_KEY) is required when llm.mode is 'direct'")
		}
	case "routed":
	default:
		return fmt.Errorf("config: unknown llm.mode %q", cfg.LLM.Mode)
	}

	return nil
}
