package storageprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/agentmap-go/agentmap/agent/builtin"
)

// JSONProvider implements storageReader/storageWriter over a single
// JSON document per collection (a file path). Read returns the
// decoded value as-is (object, array, or scalar); an optional "path"
// param drills into a top-level object key before returning, mirroring
// a document-store "get sub-document" read.
type JSONProvider struct{}

// NewJSONProvider creates a JSON storage provider.
func NewJSONProvider() *JSONProvider { return &JSONProvider{} }

func (p *JSONProvider) Read(_ context.Context, collection string, params map[string]any) (any, error) {
	data, err := os.ReadFile(collection)
	if err != nil {
		return nil, fmt.Errorf("storageprovider: read json %q: %w", collection, err)
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("storageprovider: decode json %q: %w", collection, err)
	}

	if path, ok := params["path"].(string); ok && path != "" {
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("storageprovider: json %q is not an object, cannot resolve path %q", collection, path)
		}
		v, ok := obj[path]
		if !ok {
			return nil, fmt.Errorf("storageprovider: json %q has no key %q", collection, path)
		}
		return v, nil
	}
	return value, nil
}

// Write encodes data to collection. mode "append" is only meaningful
// when the existing document is a JSON array: data is appended as a
// new element; any other mode overwrites the file with data verbatim.
func (p *JSONProvider) Write(_ context.Context, collection string, data any, mode string, _ map[string]any) (builtin.DocumentResult, error) {
	out := data
	if mode == "append" {
		existing, err := p.readArrayOrEmpty(collection)
		if err != nil {
			return builtin.DocumentResult{}, err
		}
		out = append(existing, data)
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return builtin.DocumentResult{}, fmt.Errorf("storageprovider: encode json for %q: %w", collection, err)
	}
	if err := os.WriteFile(collection, encoded, 0o644); err != nil {
		return builtin.DocumentResult{}, fmt.Errorf("storageprovider: write json %q: %w", collection, err)
	}

	return builtin.DocumentResult{Success: true, FilePath: collection, Mode: mode}, nil
}

func (p *JSONProvider) readArrayOrEmpty(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storageprovider: read json %q: %w", path, err)
	}
	var arr []any
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, fmt.Errorf("storageprovider: %q is not a JSON array, cannot append: %w", path, err)
	}
	return arr, nil
}
