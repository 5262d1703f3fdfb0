package graphrunner

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/agentmap-go/agentmap/graphbundle"
)

// BundleResolver implements the bundleResolver surface
// agent/builtin.GraphAgent depends on (ResolveBundle(ref) ->
// *graphbundle.Bundle): it resolves a sub-graph's `workflow` reference
// to a previously compiled bundle, either preloaded directly (Register)
// or lazily read from a directory of `<name>.json` bundle files
// (graphbundle.Save's output), mirroring
// compilation_service.py's cached graph-by-name lookup without its
// CSV-staleness recompilation path, which belongs to the `compile`/
// `run` CLI commands, not to sub-graph resolution at assembly time.
type BundleResolver struct {
	mu    sync.RWMutex
	dir   string
	cache map[string]*graphbundle.Bundle
}

// NewBundleResolver creates a resolver that loads `<ref>.json` bundle
// files from dir on first reference, caching them thereafter. dir may
// be empty if every bundle is registered directly via Register.
func NewBundleResolver(dir string) *BundleResolver {
	return &BundleResolver{dir: dir, cache: make(map[string]*graphbundle.Bundle)}
}

// Register preloads a compiled bundle under name, bypassing disk
// lookup entirely. The CLI does not call it (it resolves sub-graphs
// from the bundle directory); this package's tests do.
func (r *BundleResolver) Register(name string, bundle *graphbundle.Bundle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[name] = bundle
}

// ResolveBundle implements bundleResolver.
func (r *BundleResolver) ResolveBundle(ref string) (*graphbundle.Bundle, error) {
	r.mu.RLock()
	if b, ok := r.cache[ref]; ok {
		r.mu.RUnlock()
		return b, nil
	}
	r.mu.RUnlock()

	if r.dir == "" {
		return nil, fmt.Errorf("graphrunner: no bundle registered for workflow %q and no bundle directory configured", ref)
	}

	path := ref
	if filepath.Ext(path) == "" {
		path = ref + ".json"
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.dir, path)
	}

	bundle, err := graphbundle.Load(path)
	if err != nil {
		return nil, fmt.Errorf("graphrunner: resolving workflow %q: %w", ref, err)
	}

	r.mu.Lock()
	r.cache[ref] = bundle
	r.mu.Unlock()
	return bundle, nil
}
