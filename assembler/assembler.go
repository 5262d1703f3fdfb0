// Package assembler implements the Graph Assembly Engine (spec §4.3):
// node→agent instantiation via a type-keyed factory, infrastructure
// and service-injection wiring, entry-point determination, and the
// fixed edge-resolution priority (function edges supersede; a
// success+failure pair; a single label; default; otherwise terminal).
// Unknown edge labels and missing routing functions fail assembly,
// never a run.
//
// Grounded on original_source/agentmap/graph/assembler.py's
// GraphAssembler (add_node/process_node_edges/compile) and the
// teacher's graph/state_graph.go conditional-edge priority ordering,
// reworked against agentmap/graphbundle.Bundle instead of a LangGraph
// StateGraph builder.
package assembler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agentmap-go/agentmap/agent"
	"github.com/agentmap-go/agentmap/agentlog"
	"github.com/agentmap-go/agentmap/agerr"
	"github.com/agentmap-go/agentmap/graphbundle"
	"github.com/agentmap-go/agentmap/registry"
	"github.com/agentmap-go/agentmap/state"
)

// AgentFactory constructs the agent instance for a compiled node. The
// factory is responsible for parsing n.Context into whatever shape its
// concrete agent type needs and wiring n's identity fields
// (name/prompt/input_fields/output_field) via agent.NewBaseAgent.
type AgentFactory func(n *graphbundle.Node, deps Deps) (agent.Runner, error)

// Deps carries the infrastructure handles every constructed agent and
// the assembler itself need. FuncResolver may be nil when a graph
// declares no func: references.
type Deps struct {
	Logger       agentlog.Logger
	Adapter      state.Adapter
	Registry     *registry.Registry
	FuncResolver agent.FuncResolutionService
}

// RouterFunc is the compiled, bound edge-resolution closure for one
// node: given the state after the node ran, it returns the next node
// name and whether to continue (false means the run terminates here).
type RouterFunc func(s state.State) (next string, cont bool)

// subgraphResolver is implemented by GraphAgent nodes (agent/builtin):
// it performs the spec §4.4 "done once by the assembler" eager
// sub-graph bundle resolution once its graph-bundle capability is
// configured. Declared locally (rather than imported from
// agent/builtin) so assembler has no dependency on the concrete
// built-in agent package — factories are supplied by the composition
// root, never constructed here.
type subgraphResolver interface {
	ResolveSubgraphBundle() error
}

// CompiledGraph is the assembler's output: the agent instances bound
// to their node names, each with a pre-computed router, and the
// bundle's declared entry point.
type CompiledGraph struct {
	Name       string
	EntryPoint string
	Agents     map[string]agent.Runner
	Routers    map[string]RouterFunc
}

// Assemble instantiates every node in b via factories keyed by
// AgentType, wires infrastructure and business services, and compiles
// each node's edge map into a RouterFunc. Returns *agerr.ValidationError
// for an unknown agent type, unknown edge label, ambiguous function
// edge, or missing routing function; returns *agerr.ConfigurationError
// only when a GraphAgent's eager sub-graph resolution fails (every
// other service-injection failure degrades gracefully per §4.2).
func Assemble(b *graphbundle.Bundle, factories map[string]AgentFactory, deps Deps) (*CompiledGraph, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = agentlog.NoOpLogger{}
	}

	cg := &CompiledGraph{
		Name:       b.Name,
		EntryPoint: b.EntryPoint,
		Agents:     make(map[string]agent.Runner, len(b.NodeMap)),
		Routers:    make(map[string]RouterFunc, len(b.NodeMap)),
	}

	names := make([]string, 0, len(b.NodeMap))
	for name := range b.NodeMap {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		n := b.NodeMap[name]

		factory, ok := factories[n.AgentType]
		if !ok {
			return nil, &agerr.ValidationError{Node: n.Name, Reason: fmt.Sprintf("%s: %q", agerr.ErrUnknownAgentType, n.AgentType)}
		}

		instance, err := factory(n, deps)
		if err != nil {
			return nil, err
		}

		if deps.Registry != nil {
			deps.Registry.Configure(instance, logger)
		}

		if sr, ok := instance.(subgraphResolver); ok {
			if err := sr.ResolveSubgraphBundle(); err != nil {
				return nil, &agerr.ConfigurationError{Agent: n.Name, Capability: "graph_bundle", Reason: err.Error()}
			}
		}

		router, err := buildRouter(n.Name, n.Edges, deps.FuncResolver)
		if err != nil {
			return nil, err
		}

		cg.Agents[n.Name] = instance
		cg.Routers[n.Name] = router
		logger.Debug("assembler: added node %q (agent_type=%s)", n.Name, n.AgentType)
	}

	logger.Info("assembler: compiled graph %q with %d nodes, entry point %q", b.Name, len(names), b.EntryPoint)
	return cg, nil
}

const (
	labelSuccess = "success"
	labelFailure = "failure"
	labelDefault = "default"
)

// buildRouter compiles one node's edge map into a bound RouterFunc,
// implementing spec §4.3's priority: function edges supersede;
// success+failure pair; single label; default; else terminal.
func buildRouter(nodeName string, edges map[string]string, resolver agent.FuncResolutionService) (RouterFunc, error) {
	for label := range edges {
		if label != labelSuccess && label != labelFailure && label != labelDefault {
			return nil, &agerr.ValidationError{Node: nodeName, Reason: fmt.Sprintf("%s: %q", agerr.ErrUnknownEdgeLabel, label)}
		}
	}

	funcName, funcLabel := "", ""
	for label, target := range edges {
		if name, ok := strings.CutPrefix(target, "func:"); ok {
			if funcName != "" {
				return nil, &agerr.ValidationError{Node: nodeName, Reason: fmt.Sprintf("%s: more than one function edge (%q and %q)", agerr.ErrAmbiguousOutDegree, funcLabel, label)}
			}
			funcName = strings.TrimSpace(name)
			funcLabel = label
		}
	}

	if funcName != "" {
		if resolver == nil {
			return nil, &agerr.ValidationError{Node: nodeName, Reason: fmt.Sprintf("%s: %q (no function resolver configured)", agerr.ErrFunctionNotFound, funcName)}
		}
		routeFn, ok := resolver.ResolveRouteFunc(funcName)
		if !ok {
			return nil, &agerr.ValidationError{Node: nodeName, Reason: fmt.Sprintf("%s: %q", agerr.ErrFunctionNotFound, funcName)}
		}
		successTarget := literalTarget(edges[labelSuccess])
		failureTarget := literalTarget(edges[labelFailure])
		return func(s state.State) (string, bool) {
			return routeFn(s, successTarget, failureTarget)
		}, nil
	}

	success, hasSuccess := edges[labelSuccess]
	failure, hasFailure := edges[labelFailure]
	def, hasDefault := edges[labelDefault]

	switch {
	case hasSuccess && hasFailure:
		return func(s state.State) (string, bool) {
			if lastActionSuccess(s) {
				return success, true
			}
			return failure, true
		}, nil
	case hasSuccess:
		return func(s state.State) (string, bool) {
			if lastActionSuccess(s) {
				return success, true
			}
			return "", false
		}, nil
	case hasFailure:
		return func(s state.State) (string, bool) {
			if !lastActionSuccess(s) {
				return failure, true
			}
			return "", false
		}, nil
	case hasDefault:
		return func(s state.State) (string, bool) {
			return def, true
		}, nil
	default:
		return func(s state.State) (string, bool) {
			return "", false
		}, nil
	}
}

// literalTarget returns target unless it is itself a func: reference,
// in which case there is no literal candidate to hand the routing
// function (mirrors original assembler.py passing edges.get(label)
// through verbatim, which is only ever a literal name in practice
// since a node has at most one function edge).
func literalTarget(target string) string {
	if strings.HasPrefix(target, "func:") {
		return ""
	}
	return target
}

// lastActionSuccess reads the reserved flag, defaulting to true when
// absent (mirrors original's state.get("last_action_success", True)).
func lastActionSuccess(s state.State) bool {
	v, ok := s[state.KeyLastActionSuccess]
	if !ok {
		return true
	}
	b, ok := v.(bool)
	if !ok {
		return true
	}
	return b
}
