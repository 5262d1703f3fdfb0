// Package registry implements the Service Injection Layer (spec
// §4.2): a capability-discovery mechanism that, at graph-build time,
// inspects each agent for the capability markers it advertises and
// wires concrete service providers into it without the agent knowing
// about construction.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/agentmap-go/agentmap/agentlog"
)

// ProviderFactory materializes a service instance. Providers may be
// eager singletons (a factory that always returns the same instance)
// or lazy (constructing on first call); the registry does not
// materialize until the first GetProvider(...)() call, matching spec
// §4.2's "the registry does not materialise them until the first
// get_provider(...)() call."
type ProviderFactory func() (any, error)

// Binding is a capability a concrete agent type may declare. Probe
// reports whether an agent instance carries this capability's marker
// (in Go: whether it implements the matching XCapableAgent
// interface); Configure invokes the agent's configuration method with
// the materialized service.
type Binding struct {
	CapabilityID string
	Probe        func(agentInstance any) bool
	Configure    func(agentInstance any, service any) error
}

type registration struct {
	factory  ProviderFactory
	markers  map[string]bool
	metadata map[string]any
	// cached holds a materialized singleton once materialize (run by
	// Configure) has succeeded, per §4.2's lazy-materialization note. Most
	// providers are naturally idempotent factories already, but
	// caching keeps repeated configuration passes across many agents
	// from re-running expensive provider construction.
	cached    any
	cachedSet bool
}

// Registry is the capability-id -> provider table plus the
// capability-id -> binder table. It is read-mostly after graph
// assembly (spec §5): concurrent reads are safe, writes are expected
// only at startup/test setup.
type Registry struct {
	mu sync.RWMutex

	providers map[string]*registration
	bindings  map[string]Binding
}

// New creates an empty registry pre-loaded with the built-in
// capability bindings (spec §4.2's "Built-in capabilities").
func New() *Registry {
	r := &Registry{
		providers: make(map[string]*registration),
		bindings:  make(map[string]Binding),
	}
	for _, b := range builtinBindings() {
		r.RegisterCapability(b)
	}
	return r
}

// RegisterCapability adds (or replaces) a capability binding. Host
// applications use this to extend the layer with their own
// capabilities (spec §4.2: "Host applications may register additional
// capabilities; the layer is open"), grounded on
// original_source/examples/host_integration/host_protocols.py.
func (r *Registry) RegisterCapability(b Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[b.CapabilityID] = b
}

// Register adds a provider for capabilityID. protocolMarkers is the
// set of capability markers this provider satisfies; for built-in
// capabilities this is normally just {capabilityID} itself, but a
// single provider may satisfy more than one marker (e.g. a generic
// storage backend satisfying both "storage" and "storage.kv").
func (r *Registry) Register(capabilityID string, factory ProviderFactory, protocolMarkers []string, metadata map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	markers := make(map[string]bool, len(protocolMarkers)+1)
	markers[capabilityID] = true
	for _, m := range protocolMarkers {
		markers[m] = true
	}
	r.providers[capabilityID] = &registration{factory: factory, markers: markers, metadata: metadata}
}

// IsRegistered reports whether a provider is registered for capabilityID.
func (r *Registry) IsRegistered(capabilityID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[capabilityID]
	return ok
}

// GetProvider returns the factory registered for capabilityID.
func (r *Registry) GetProvider(capabilityID string) (ProviderFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.providers[capabilityID]
	if !ok {
		return nil, false
	}
	return reg.factory, true
}

// materialize resolves and caches the service instance for capabilityID.
func (r *Registry) materialize(capabilityID string) (any, error) {
	r.mu.Lock()
	reg, ok := r.providers[capabilityID]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("no provider registered for capability %q", capabilityID)
	}
	if reg.cachedSet {
		svc := reg.cached
		r.mu.Unlock()
		return svc, nil
	}
	factory := reg.factory
	r.mu.Unlock()

	svc, err := factory()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	reg.cached = svc
	reg.cachedSet = true
	r.mu.Unlock()
	return svc, nil
}

// DiscoverByProtocol returns the capability ids whose marker set
// contains marker.
func (r *Registry) DiscoverByProtocol(marker string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for id, reg := range r.providers {
		if reg.markers[marker] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Unregister removes a provider registration.
func (r *Registry) Unregister(capabilityID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.providers, capabilityID)
}

// Clear removes every provider registration (bindings are untouched).
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = make(map[string]*registration)
}

// Summary reports registry composition for diagnostics (spec §4.2).
type Summary struct {
	TotalServices int
	Services      []string
	Protocols     map[string][]string
	HealthFlags   map[string]bool
}

// Summary implements Registry.summary().
func (r *Registry) Summary() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	services := make([]string, 0, len(r.providers))
	protocols := make(map[string][]string)
	health := make(map[string]bool, len(r.providers))
	for id, reg := range r.providers {
		services = append(services, id)
		health[id] = true
		for marker := range reg.markers {
			protocols[marker] = append(protocols[marker], id)
		}
	}
	sort.Strings(services)
	for m := range protocols {
		sort.Strings(protocols[m])
	}

	return Summary{
		TotalServices: len(services),
		Services:      services,
		Protocols:     protocols,
		HealthFlags:   health,
	}
}

// Configure runs the configuration algorithm (spec §4.2) for a single
// agent instance: for each known capability binding, probe whether
// the agent carries the marker; if so and a provider is registered,
// materialize it and invoke the configuration method. Configuration
// failures degrade gracefully — a missing provider or probe mismatch
// is skipped, not an error; the agent will raise a clear error only if
// it actually touches the service during run. Returns the count of
// successful configurations.
func (r *Registry) Configure(agentInstance any, logger agentlog.Logger) int {
	if logger == nil {
		logger = agentlog.NoOpLogger{}
	}
	r.mu.RLock()
	bindings := make([]Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		bindings = append(bindings, b)
	}
	r.mu.RUnlock()

	sort.Slice(bindings, func(i, j int) bool { return bindings[i].CapabilityID < bindings[j].CapabilityID })

	count := 0
	for _, b := range bindings {
		if !b.Probe(agentInstance) {
			continue
		}
		if !r.IsRegistered(b.CapabilityID) {
			logger.Debug("capability %q not registered, skipping (agent will error only if it uses the service)", b.CapabilityID)
			continue
		}
		svc, err := r.materialize(b.CapabilityID)
		if err != nil {
			logger.Warn("failed to materialize provider for capability %q: %s", b.CapabilityID, err)
			continue
		}
		if err := b.Configure(agentInstance, svc); err != nil {
			logger.Warn("failed to configure capability %q: %s", b.CapabilityID, err)
			continue
		}
		count++
		logger.Debug("configured capability %q", b.CapabilityID)
	}
	return count
}
