// Package funcresolver implements the function-resolution business
// service (spec §4.2/§4.3): locating a named input-projection or
// routing function referenced from a CSV cell as `func:NAME`.
//
// original_source/agentmap/graph/assembler.py resolves these by
// importing a same-named .py file from a configured functions
// directory at assembly time. Go has no equivalent dynamic-source-load
// facility the teacher's stack ever reaches for, so this package
// redesigns the mechanism as an explicit registration API: host code
// registers real Go closures under a name before a graph is compiled,
// and the assembler's fail-fast check runs against this registry
// instead of a filesystem probe (see DESIGN.md Open Question 4).
package funcresolver

import (
	"fmt"
	"strings"
	"sync"

	"github.com/agentmap-go/agentmap/state"
)

// InputFunc projects a subset (or transformation) of state into an
// agent's input map (spec §3 `func:NAME` input field).
type InputFunc func(s state.State) (map[string]any, error)

// OutputFunc is the GraphAgent function-mapping analog (spec §4.4
// rule 1): transforms parent inputs into the child graph's initial
// state.
type OutputFunc func(parentInputs map[string]any) (map[string]any, error)

// Resolver is the concrete, in-process implementation of
// agent.FuncResolutionService. It holds three independent namespaces
// (input, route, mapping) since a single name may sensibly mean
// different things depending on which CSV column references it.
type Resolver struct {
	mu          sync.RWMutex
	inputFuncs  map[string]InputFunc
	routeFuncs  map[string]state.RouteFunc
	mappingFn   map[string]OutputFunc
	genericFunc map[string]func(map[string]any) (map[string]any, error)
}

// New creates an empty resolver. Call the Register* methods before
// assembling any graph that references a func: name.
func New() *Resolver {
	return &Resolver{
		inputFuncs:  make(map[string]InputFunc),
		routeFuncs:  make(map[string]state.RouteFunc),
		mappingFn:   make(map[string]OutputFunc),
		genericFunc: make(map[string]func(map[string]any) (map[string]any, error)),
	}
}

// RegisterInputFunc registers fn under name for input-field projection.
func (r *Resolver) RegisterInputFunc(name string, fn InputFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputFuncs[name] = fn
}

// RegisterRouteFunc registers fn under name for function-edge routing.
func (r *Resolver) RegisterRouteFunc(name string, fn state.RouteFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routeFuncs[name] = fn
}

// RegisterMappingFunc registers fn under name for GraphAgent's
// function-mapping input rule (spec §4.4 rule 1).
func (r *Resolver) RegisterMappingFunc(name string, fn OutputFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappingFn[name] = fn
}

// RegisterFunction registers fn as a generic map-to-map transform,
// satisfying agent.FuncResolutionService.ImportFunction for callers
// that just want "a function by name" without committing to one of
// the three specialized shapes above.
func (r *Resolver) RegisterFunction(name string, fn func(map[string]any) (map[string]any, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.genericFunc[name] = fn
}

// ExtractFuncRef reports whether s has the form "func:NAME", returning
// the trimmed NAME.
func (r *Resolver) ExtractFuncRef(s string) (string, bool) {
	name, ok := strings.CutPrefix(strings.TrimSpace(s), "func:")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(name), true
}

// ImportFunction returns the registered generic function for name.
func (r *Resolver) ImportFunction(name string) (func(map[string]any) (map[string]any, error), error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.genericFunc[name]
	if !ok {
		return nil, fmt.Errorf("function %q not registered", name)
	}
	return fn, nil
}

// ResolveInputFunc implements state.FuncResolver / agent.FuncResolutionService.
func (r *Resolver) ResolveInputFunc(name string) (func(state.State) (map[string]any, error), bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.inputFuncs[name]
	if !ok {
		return nil, false
	}
	return fn, true
}

// ResolveRouteFunc implements agent.FuncResolutionService.
func (r *Resolver) ResolveRouteFunc(name string) (state.RouteFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.routeFuncs[name]
	if !ok {
		return nil, false
	}
	return fn, true
}

// ResolveMappingFunc looks up a GraphAgent input-mapping function.
func (r *Resolver) ResolveMappingFunc(name string) (OutputFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.mappingFn[name]
	if !ok {
		return nil, false
	}
	return fn, true
}
