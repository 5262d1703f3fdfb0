package graphrunner_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmap-go/agentmap/graphbundle"
	"github.com/agentmap-go/agentmap/graphrunner"
)

func TestBundleResolverReturnsRegisteredBundle(t *testing.T) {
	r := graphrunner.NewBundleResolver("")
	b := graphbundle.New("preloaded")
	b.EntryPoint = "A"
	b.AddNode(&graphbundle.Node{Name: "A", AgentType: "default"})
	r.Register("preloaded", b)

	got, err := r.ResolveBundle("preloaded")
	require.NoError(t, err)
	assert.Same(t, b, got)
}

func TestBundleResolverErrorsWithoutRegistrationOrDirectory(t *testing.T) {
	r := graphrunner.NewBundleResolver("")
	_, err := r.ResolveBundle("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no bundle registered")
}

func TestBundleResolverLoadsFromDiskAndCaches(t *testing.T) {
	dir := t.TempDir()
	b := graphbundle.New("on-disk")
	b.EntryPoint = "A"
	b.AddNode(&graphbundle.Node{Name: "A", AgentType: "default"})
	require.NoError(t, graphbundle.Save(b, filepath.Join(dir, "on-disk.json"), nil))

	r := graphrunner.NewBundleResolver(dir)

	got, err := r.ResolveBundle("on-disk")
	require.NoError(t, err)
	assert.Equal(t, "on-disk", got.Name)
	assert.Equal(t, "A", got.EntryPoint)

	again, err := r.ResolveBundle("on-disk")
	require.NoError(t, err)
	assert.Same(t, got, again)
}

func TestBundleResolverErrorsOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	r := graphrunner.NewBundleResolver(dir)

	_, err := r.ResolveBundle("does-not-exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolving workflow")
}
