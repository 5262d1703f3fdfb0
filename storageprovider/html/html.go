// Package html implements the "html" storage provider: a document
// fetcher/scraper over goquery (DOM selection, in the style of the
// rest of the pack's scraping tools), whose Write saves sanitized HTML
// to local files, with bluemonday sanitizing
// any HTML fragment before it is handed back as extracted text or
// re-embedded, since node output can end up rendered elsewhere.
package html

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/agentmap-go/agentmap/agent/builtin"
)

// Provider implements storageReader/storageWriter over HTML documents.
// collection is either a local file path or an http(s) URL; Read
// selects nodes with an optional CSS selector ("selector" param) and
// returns either their sanitized text or sanitized inner HTML
// ("mode": "text" default, or "html").
type Provider struct {
	client *http.Client
	policy *bluemonday.Policy
}

// New creates an HTML storage provider using bluemonday's UGC policy
// (strips scripts/event handlers, keeps ordinary formatting markup).
func New() *Provider {
	return &Provider{
		client: http.DefaultClient,
		policy: bluemonday.UGCPolicy(),
	}
}

func (p *Provider) Read(ctx context.Context, collection string, params map[string]any) (any, error) {
	doc, err := p.load(ctx, collection)
	if err != nil {
		return nil, err
	}

	selection := doc.Selection
	if selector, ok := params["selector"].(string); ok && selector != "" {
		selection = doc.Find(selector)
		if selection.Length() == 0 {
			return nil, fmt.Errorf("storageprovider/html: selector %q matched no elements in %q", selector, collection)
		}
	}

	mode, _ := params["mode"].(string)
	if mode == "html" {
		return p.extractHTML(selection)
	}
	return p.extractText(selection), nil
}

func (p *Provider) extractText(selection *goquery.Selection) []string {
	var out []string
	selection.Each(func(_ int, s *goquery.Selection) {
		clone := s.Clone()
		clone.Find("script, style").Remove()
		text := strings.TrimSpace(p.policy.Sanitize(clone.Text()))
		if text != "" {
			out = append(out, text)
		}
	})
	return out
}

func (p *Provider) extractHTML(selection *goquery.Selection) ([]string, error) {
	out := make([]string, 0, selection.Length())
	var firstErr error
	selection.Each(func(_ int, s *goquery.Selection) {
		raw, err := goquery.OuterHtml(s)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("storageprovider/html: render element: %w", err)
			}
			return
		}
		out = append(out, p.policy.Sanitize(raw))
	})
	return out, firstErr
}

func (p *Provider) load(ctx context.Context, collection string) (*goquery.Document, error) {
	if strings.HasPrefix(collection, "http://") || strings.HasPrefix(collection, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, collection, nil)
		if err != nil {
			return nil, fmt.Errorf("storageprovider/html: build request for %q: %w", collection, err)
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("storageprovider/html: fetch %q: %w", collection, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("storageprovider/html: fetch %q: status %d", collection, resp.StatusCode)
		}
		doc, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("storageprovider/html: parse %q: %w", collection, err)
		}
		return doc, nil
	}

	f, err := os.Open(collection)
	if err != nil {
		return nil, fmt.Errorf("storageprovider/html: open %q: %w", collection, err)
	}
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("storageprovider/html: parse %q: %w", collection, err)
	}
	return doc, nil
}

// Write sanitizes data (rendered to its HTML string form) through the
// same UGC policy and writes it to the local file at collection;
// writing to a remote URL is not supported.
func (p *Provider) Write(_ context.Context, collection string, data any, mode string, _ map[string]any) (builtin.DocumentResult, error) {
	if strings.HasPrefix(collection, "http://") || strings.HasPrefix(collection, "https://") {
		return builtin.DocumentResult{}, fmt.Errorf("storageprovider/html: write to a remote URL is not supported")
	}

	content := p.policy.Sanitize(toHTMLString(data))

	if mode == "append" {
		f, err := os.OpenFile(collection, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return builtin.DocumentResult{}, fmt.Errorf("storageprovider/html: open %q for append: %w", collection, err)
		}
		defer f.Close()
		if _, err := f.WriteString(content); err != nil {
			return builtin.DocumentResult{}, fmt.Errorf("storageprovider/html: append to %q: %w", collection, err)
		}
	} else {
		if err := os.WriteFile(collection, []byte(content), 0o644); err != nil {
			return builtin.DocumentResult{}, fmt.Errorf("storageprovider/html: write %q: %w", collection, err)
		}
	}

	return builtin.DocumentResult{Success: true, FilePath: collection, Mode: mode}, nil
}

func toHTMLString(data any) string {
	switch v := data.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
