// Package markdown implements the "markdown" storage provider: reads
// render Markdown source to sanitized HTML via gomarkdown, the pack's
// chosen Markdown engine; writes store Markdown source verbatim.
package markdown

import (
	"context"
	"fmt"
	"os"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/agentmap-go/agentmap/agent/builtin"
)

// Provider implements storageReader/storageWriter over Markdown files.
// Read returns the rendered, sanitized HTML by default, or the raw
// Markdown source when params["raw"] is true.
type Provider struct {
	policy *bluemonday.Policy
}

// New creates a Markdown storage provider.
func New() *Provider {
	return &Provider{policy: bluemonday.UGCPolicy()}
}

func (p *Provider) Read(_ context.Context, collection string, params map[string]any) (any, error) {
	data, err := os.ReadFile(collection)
	if err != nil {
		return nil, fmt.Errorf("storageprovider/markdown: read %q: %w", collection, err)
	}

	if raw, _ := params["raw"].(bool); raw {
		return string(data), nil
	}

	return p.render(data), nil
}

func (p *Provider) render(source []byte) string {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	pr := parser.NewWithExtensions(extensions)

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	rendered := markdown.ToHTML(source, pr, renderer)

	return p.policy.Sanitize(string(rendered))
}

// Write stores data (rendered to its Markdown string form) verbatim;
// mode "append" adds to the end of the existing file.
func (p *Provider) Write(_ context.Context, collection string, data any, mode string, _ map[string]any) (builtin.DocumentResult, error) {
	content := toMarkdownString(data)

	if mode == "append" {
		f, err := os.OpenFile(collection, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return builtin.DocumentResult{}, fmt.Errorf("storageprovider/markdown: open %q for append: %w", collection, err)
		}
		defer f.Close()
		if _, err := f.WriteString(content); err != nil {
			return builtin.DocumentResult{}, fmt.Errorf("storageprovider/markdown: append to %q: %w", collection, err)
		}
	} else {
		if err := os.WriteFile(collection, []byte(content), 0o644); err != nil {
			return builtin.DocumentResult{}, fmt.Errorf("storageprovider/markdown: write %q: %w", collection, err)
		}
	}

	return builtin.DocumentResult{Success: true, FilePath: collection, Mode: mode}, nil
}

func toMarkdownString(data any) string {
	switch v := data.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
