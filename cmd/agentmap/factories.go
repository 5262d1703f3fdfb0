// Package main wires AgentMap's packages into a runnable CLI (spec §6
// CLI surface), the composition root that supplies concrete
// assembler.AgentFactory implementations and registers business
// services into a registry.Registry. Grounded on
// liuprestin-relurpify/app/cmd's cobra command-tree shape
// (NewRootCmd + one file per command group) and its
// buildRegistry-style helper that constructs shared infrastructure
// once per invocation.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/agentmap-go/agentmap/agent"
	"github.com/agentmap-go/agentmap/agent/builtin"
	"github.com/agentmap-go/agentmap/agentlog"
	"github.com/agentmap-go/agentmap/assembler"
	"github.com/agentmap-go/agentmap/config"
	"github.com/agentmap-go/agentmap/funcresolver"
	"github.com/agentmap-go/agentmap/graphbundle"
	"github.com/agentmap-go/agentmap/registry"
	"github.com/agentmap-go/agentmap/state"
)

// builtinFactories returns the AgentType -> factory table this CLI
// wires at assembly time. AgentType strings mirror
// original_source's builtin agent module names
// (default_agent/echo_agent/... -> "default"/"echo"/...). tools is the
// goskills-backed catalog every "tool" node shares, loaded once in
// newApp from cfg.SkillsDir.
func builtinFactories(tools []builtin.Tool) map[string]assembler.AgentFactory {
	return map[string]assembler.AgentFactory{
		"default": func(n *graphbundle.Node, deps assembler.Deps) (agent.Runner, error) {
			return builtin.NewDefaultAgent(n.Name, n.Prompt, n.Context, deps.Logger, deps.Adapter), nil
		},
		"echo": func(n *graphbundle.Node, deps assembler.Deps) (agent.Runner, error) {
			return builtin.NewEchoAgent(n.Name, n.Prompt, n.Context, deps.Logger, deps.Adapter), nil
		},
		"failure": func(n *graphbundle.Node, deps assembler.Deps) (agent.Runner, error) {
			return builtin.NewFailureAgent(n.Name, n.Prompt, n.Context, deps.Logger, deps.Adapter), nil
		},
		"input": func(n *graphbundle.Node, deps assembler.Deps) (agent.Runner, error) {
			return builtin.NewInputAgent(n.Name, n.Prompt, n.Context, deps.Logger, deps.Adapter, stdinReader), nil
		},
		"summary": func(n *graphbundle.Node, deps assembler.Deps) (agent.Runner, error) {
			return builtin.NewSummaryAgent(n.Name, n.Prompt, n.Context, deps.Logger, deps.Adapter), nil
		},
		"suspend": func(n *graphbundle.Node, deps assembler.Deps) (agent.Runner, error) {
			return builtin.NewSuspendAgent(n.Name, n.Prompt, n.Context, deps.Logger, deps.Adapter), nil
		},
		"graph": func(n *graphbundle.Node, deps assembler.Deps) (agent.Runner, error) {
			return builtin.NewGraphAgent(n.Name, n.Prompt, n.Context, deps.Logger, deps.Adapter), nil
		},
		"llm": func(n *graphbundle.Node, deps assembler.Deps) (agent.Runner, error) {
			return builtin.NewLLMAgent(n.Name, n.Prompt, n.Context, deps.Logger, deps.Adapter), nil
		},
		"orchestrator": func(n *graphbundle.Node, deps assembler.Deps) (agent.Runner, error) {
			return builtin.NewOrchestratorAgent(n.Name, n.Prompt, n.Context, deps.Logger, deps.Adapter), nil
		},
		"tool": func(n *graphbundle.Node, deps assembler.Deps) (agent.Runner, error) {
			return builtin.NewToolAgent(n.Name, n.Prompt, n.Context, deps.Logger, deps.Adapter, tools), nil
		},
		"csv_reader": storageFactory("csv", "reader"),
		"csv_writer": storageFactory("csv", "writer"),
		"json_reader": storageFactory("json", "reader"),
		"json_writer": storageFactory("json", "writer"),
		"file_reader": storageFactory("file", "reader"),
		"file_writer": storageFactory("file", "writer"),
		"kv_reader":   storageFactory("kv", "reader"),
		"kv_writer":   storageFactory("kv", "writer"),
		"html_reader": storageFactory("html", "reader"),
		"html_writer": storageFactory("html", "writer"),
		"markdown_reader": storageFactory("markdown", "reader"),
		"markdown_writer": storageFactory("markdown", "writer"),
	}
}

func storageFactory(kind, operation string) assembler.AgentFactory {
	return func(n *graphbundle.Node, deps assembler.Deps) (agent.Runner, error) {
		return builtin.NewStorageAgent(kind, operation, n.Name, n.Prompt, n.Context, deps.Logger, deps.Adapter), nil
	}
}

func stdinReader(prompt string) (string, error) {
	fmt.Fprint(os.Stdout, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return line, nil
}

// newLogger builds the logger backend selected by cfg.Logging: the
// stdlib-backed agentlog.DefaultLogger, or kataras/golog through
// agentlog.GologLogger for richer leveled/colorized output.
func newLogger(cfg config.LoggingConfig) agentlog.Logger {
	level := parseLogLevel(cfg.Level)
	if cfg.Backend == "golog" {
		logger := agentlog.NewDefaultGologLogger()
		logger.SetLevel(level)
		return logger
	}
	return agentlog.NewDefaultLogger(level)
}

func parseLogLevel(level string) agentlog.Level {
	switch level {
	case "debug":
		return agentlog.LevelDebug
	case "warn":
		return agentlog.LevelWarn
	case "error":
		return agentlog.LevelError
	case "none":
		return agentlog.LevelNone
	default:
		return agentlog.LevelInfo
	}
}

// newRegistry builds a registry with the function resolver already
// bound; storage/LLM providers are registered by the caller once it
// knows which backends config selects.
func newRegistry(resolver *funcresolver.Resolver) *registry.Registry {
	r := registry.New()
	r.Register("function_resolution", func() (any, error) { return resolver, nil }, nil, nil)
	return r
}

func newDeps(logger agentlog.Logger, reg *registry.Registry, resolver *funcresolver.Resolver) assembler.Deps {
	return assembler.Deps{
		Logger:       logger,
		Adapter:      state.MapAdapter{},
		Registry:     reg,
		FuncResolver: resolver,
	}
}
