package main

import (
	"context"
	"fmt"

	langchainopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/agentmap-go/agentmap/adapter/goskills"
	"github.com/agentmap-go/agentmap/agentlog"
	"github.com/agentmap-go/agentmap/checkpoint"
	"github.com/agentmap-go/agentmap/checkpoint/memory"
	"github.com/agentmap-go/agentmap/checkpoint/pgstore"
	"github.com/agentmap-go/agentmap/checkpoint/redisstore"
	"github.com/agentmap-go/agentmap/checkpoint/sqlitestore"
	"github.com/agentmap-go/agentmap/config"
	"github.com/agentmap-go/agentmap/funcresolver"
	"github.com/agentmap-go/agentmap/graphrunner"
	"github.com/agentmap-go/agentmap/llmprovider"
	"github.com/agentmap-go/agentmap/registry"
	"github.com/agentmap-go/agentmap/storageprovider"
	"github.com/agentmap-go/agentmap/storageprovider/html"
	"github.com/agentmap-go/agentmap/storageprovider/kv"
	"github.com/agentmap-go/agentmap/storageprovider/markdown"
	"github.com/tmc/langchaingo/llms"
)

// app bundles the wired services one CLI invocation shares across its
// subcommand logic, built once per run by newApp.
type app struct {
	cfg      config.Config
	logger   agentlog.Logger
	resolver *funcresolver.Resolver
	store    checkpoint.Store
	runner   *graphrunner.Service
	bundles  *graphrunner.BundleResolver
	registry *registry.Registry
}

// newApp loads configuration, validates it, and wires every service
// the registry's built-in capabilities expect (spec §4.2), following
// the composition-root shape liuprestin-relurpify's app/cmd package
// builds once in its root command's PersistentPreRunE and threads
// through every subcommand.
func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg.Logging)
	resolver := funcresolver.New()

	store, err := newCheckpointStore(ctx, cfg.Checkpoint)
	if err != nil {
		return nil, fmt.Errorf("building checkpoint store: %w", err)
	}

	reg := newRegistry(resolver)
	if err := registerLLMProvider(reg, cfg.LLM); err != nil {
		return nil, fmt.Errorf("registering LLM provider: %w", err)
	}
	registerStorageProviders(reg, cfg.Storage)

	tools, err := goskills.LoadTools(cfg.SkillsDir)
	if err != nil {
		return nil, fmt.Errorf("loading skills: %w", err)
	}

	deps := newDeps(logger, reg, resolver)
	factories := builtinFactories(tools)
	runner := graphrunner.New(factories, deps, store)

	bundleResolver := graphrunner.NewBundleResolver(cfg.BundleDir)
	reg.Register("graph_runner", func() (any, error) { return runner, nil }, nil, nil)
	reg.Register("graph_bundle", func() (any, error) { return bundleResolver, nil }, nil, nil)

	return &app{
		cfg:      cfg,
		logger:   logger,
		resolver: resolver,
		store:    store,
		runner:   runner,
		bundles:  bundleResolver,
		registry: reg,
	}, nil
}

func newCheckpointStore(ctx context.Context, cfg config.CheckpointConfig) (checkpoint.Store, error) {
	switch cfg.Kind {
	case "", "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlitestore.New(sqlitestore.Options{Path: cfg.SQLite.Path, TableName: cfg.SQLite.TableName})
	case "redis":
		return redisstore.New(redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Redis.TTL,
		}), nil
	case "postgres":
		return pgstore.New(ctx, pgstore.Options{ConnString: cfg.Postgres.ConnString, TableName: cfg.Postgres.TableName})
	default:
		return nil, fmt.Errorf("unknown checkpoint kind %q", cfg.Kind)
	}
}

// registerLLMProvider wires the "llm" capability per config.LLMConfig.Mode.
// Routed mode registers one langchaingo openai.LLM backend under the
// configured default model name; a host wanting several distinct
// routed backends would extend this with more langchainopenai.New(...)
// calls keyed by task type, the same way
// examples/chat_agent/main.go/examples/supervisor/main.go construct
// theirs.
func registerLLMProvider(reg *registry.Registry, cfg config.LLMConfig) error {
	switch cfg.Mode {
	case "", "direct":
		reg.Register("llm", func() (any, error) {
			if cfg.BaseURL != "" {
				return llmprovider.NewOpenAIProviderWithConfig(cfg.APIKey, cfg.BaseURL), nil
			}
			return llmprovider.NewOpenAIProvider(cfg.APIKey), nil
		}, nil, nil)
		return nil
	case "routed":
		reg.Register("llm", func() (any, error) {
			opts := []langchainopenai.Option{langchainopenai.WithModel(cfg.DefaultModel)}
			if cfg.APIKey != "" {
				opts = append(opts, langchainopenai.WithToken(cfg.APIKey))
			}
			if cfg.BaseURL != "" {
				opts = append(opts, langchainopenai.WithBaseURL(cfg.BaseURL))
			}
			backend, err := langchainopenai.New(opts...)
			if err != nil {
				return nil, fmt.Errorf("building routed llm backend: %w", err)
			}
			backends := map[string]llms.Model{cfg.DefaultModel: backend}
			return llmprovider.NewRoutedProvider(cfg.DefaultModel, backends), nil
		}, nil, nil)
		return nil
	default:
		return fmt.Errorf("unknown llm mode %q", cfg.Mode)
	}
}

// registerStorageProviders wires every storage sub-kind the CLI knows
// how to serve. Each is registered under its own storage.<kind>
// capability id so the registry's per-kind markers (registry/capabilities.go)
// resolve independently; StorageAgent's kind gate (agent/builtin/storage.go)
// keeps an agent bound to one kind from picking up another's provider.
func registerStorageProviders(reg *registry.Registry, cfg config.StorageConfig) {
	reg.Register("storage.csv", func() (any, error) { return storageprovider.NewCSVProvider(), nil }, nil, nil)
	reg.Register("storage.json", func() (any, error) { return storageprovider.NewJSONProvider(), nil }, nil, nil)
	reg.Register("storage.file", func() (any, error) { return storageprovider.NewFileProvider(), nil }, nil, nil)
	reg.Register("storage.html", func() (any, error) { return html.New(), nil }, nil, nil)
	reg.Register("storage.markdown", func() (any, error) { return markdown.New(), nil }, nil, nil)

	kvPath := cfg.KVPath
	if kvPath == "" {
		kvPath = "./agentmap-kv.db"
	}
	reg.Register("storage.kv", func() (any, error) {
		return kv.New(kv.Options{Path: kvPath})
	}, nil, nil)
}
