package storageprovider

import (
	"context"
	"fmt"
	"os"

	"github.com/agentmap-go/agentmap/agent/builtin"
)

// FileProvider implements storageReader/storageWriter over a plain
// text file per collection; data is written/read verbatim as a
// string, with no structured parsing. This is the fallback used when
// a node's Context neither names a structured format nor needs one.
type FileProvider struct{}

// NewFileProvider creates a flat-file storage provider.
func NewFileProvider() *FileProvider { return &FileProvider{} }

func (p *FileProvider) Read(_ context.Context, collection string, _ map[string]any) (any, error) {
	data, err := os.ReadFile(collection)
	if err != nil {
		return nil, fmt.Errorf("storageprovider: read file %q: %w", collection, err)
	}
	return string(data), nil
}

// Write writes data (converted to its string form) to collection.
// mode "append" adds to the end of the existing file; any other mode
// overwrites it.
func (p *FileProvider) Write(_ context.Context, collection string, data any, mode string, _ map[string]any) (builtin.DocumentResult, error) {
	content := toFileString(data)

	if mode == "append" {
		f, err := os.OpenFile(collection, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return builtin.DocumentResult{}, fmt.Errorf("storageprovider: open file %q for append: %w", collection, err)
		}
		defer f.Close()
		if _, err := f.WriteString(content); err != nil {
			return builtin.DocumentResult{}, fmt.Errorf("storageprovider: append to file %q: %w", collection, err)
		}
	} else {
		if err := os.WriteFile(collection, []byte(content), 0o644); err != nil {
			return builtin.DocumentResult{}, fmt.Errorf("storageprovider: write file %q: %w", collection, err)
		}
	}

	return builtin.DocumentResult{Success: true, FilePath: collection, Mode: mode}, nil
}

func toFileString(data any) string {
	switch v := data.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
