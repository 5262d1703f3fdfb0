// Package agentmap implements AgentMap, a CSV-defined directed graph
// agent execution runtime.
//
// A graph's nodes and edges are declared as rows in a CSV file (no Go
// code required to wire a new graph); AgentMap parses that CSV into a
// graphbundle.Bundle, dry-assembles it into an executable
// assembler.CompiledGraph by constructing every agent through a
// registered assembler.AgentFactory, and drives it node by node
// through graphrunner.Service.
//
// # Core concepts
//
//   - agent: one node's business logic. agent.Run implements the fixed
//     lifecycle (pre-process, input projection, Process, output
//     projection, post-process, state merge) every agent goes through;
//     agent/builtin supplies a catalog of ready-to-use agent types
//     (echo, failure, input, summary, suspend, sub-graph, LLM,
//     orchestrator, tool, and per-kind storage agents).
//   - registry: lazily-materialized, capability-keyed service
//     injection (an LLM client, a storage backend, the function
//     resolver, the graph runner itself) configured onto whichever
//     agent instances declare they accept it.
//   - graphbundle: the compiled, hashable, persistable representation
//     of a parsed graph, independent of any particular CSV file on
//     disk.
//   - assembler: turns a graphbundle.Bundle into a CompiledGraph,
//     failing fast on unknown agent types, unknown edge labels,
//     ambiguous conditional routing, and unresolved functions.
//   - tracker: records per-node execution outcomes and the graph's
//     cumulative success policy for the run summary.
//   - checkpoint: the suspend/resume persistence contract, with
//     in-memory, sqlite, redis, and postgres backends.
//
// # Suspend and resume
//
// A node may suspend execution instead of completing (agent.Suspended);
// graphrunner.Service.Run detects this, persists a checkpoint.Checkpoint
// keyed by a thread ID, and returns a Result with StatusSuspended.
// graphrunner.Service.Resume restores that checkpoint and re-drives
// execution from the suspended node with the caller-supplied resume
// value.
//
// # Command-line interface
//
// cmd/agentmap is the composition root: it wires every built-in agent
// factory and registry capability into one CLI exposing run, compile,
// scaffold, validate-csv, validate-config, validate-all, diagnose, and
// config subcommands.
package agentmap
