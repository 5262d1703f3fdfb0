package builtin

import (
	"context"
	"fmt"

	"github.com/agentmap-go/agentmap/agent"
	"github.com/agentmap-go/agentmap/agentlog"
	"github.com/agentmap-go/agentmap/state"
)

// DocumentResult is the uniform result record every storage builtin
// agent returns (spec §4.8): {success, data|error, file_path?, mode?,
// counts?}. Grounded on
// original_source/src/agentmap/agents/builtins/storage/base_storage_agent.py's
// DocumentResult (referenced throughout csv/base_agent.py,
// vector/base_agent.py) and csv/reader.py's format-handling paths.
type DocumentResult struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	FilePath string         `json:"file_path,omitempty"`
	Mode     string         `json:"mode,omitempty"`
	Counts   map[string]int `json:"counts,omitempty"`
}

// storageReader is the minimal read surface a storage provider
// exposes, mirroring spec §6's Storage provider contract
// (`read(collection, document_id?, query?, path?, format?, id_field?)`).
type storageReader interface {
	Read(ctx context.Context, collection string, params map[string]any) (any, error)
}

// storageWriter mirrors spec §6's `write(collection, data, mode, …)`.
type storageWriter interface {
	Write(ctx context.Context, collection string, data any, mode string, params map[string]any) (DocumentResult, error)
}

// StorageAgent is a thin adapter that projects inputs into a
// per-kind storage provider's read/write operation and returns a
// DocumentResult (spec §4.8's "Storage (reader/writer per kind)"
// summary). One concrete Go type serves every storage kind
// (csv/json/file/kv/blob/vector/html/markdown); the kind only determines which
// registry capability marker wires a provider in, matching
// original_source's shared BaseStorageAgent design where CSVAgent,
// VectorAgent etc. differ only in the client they initialize, not in
// the request/response shape.
type StorageAgent struct {
	*agent.BaseAgent

	kind      string
	operation string // "reader" or "writer"
	collection string

	provider any
}

// NewStorageAgent constructs a storage agent bound to kind (one of
// "csv", "json", "file", "kv", "blob", "vector", "html", "markdown") and operation
// ("reader" or "writer"). collection defaults to the CSV `Context`'s
// `collection` entry, falling back to inputs["collection"] at
// process time.
func NewStorageAgent(kind, operation, name, prompt string, ctx map[string]any, logger agentlog.Logger, adapter state.Adapter) *StorageAgent {
	if ctx == nil {
		ctx = map[string]any{}
	}
	a := &StorageAgent{
		BaseAgent: agent.NewBaseAgent(name, prompt, ctx, logger, adapter),
		kind:      kind,
		operation: operation,
	}
	if v, ok := ctx["collection"].(string); ok {
		a.collection = v
	}
	return a
}

// configure accepts svc only when forKind matches this agent's own
// kind: StorageAgent structurally implements every per-kind marker
// interface at once (one concrete Go type serves every storage kind),
// so without this gate an agent would accept whichever sub-kind
// happens to sort last among the capabilities a host registers,
// silently overwriting the provider it actually asked for.
func (a *StorageAgent) configure(forKind string, svc any) error {
	if a.kind != forKind {
		return nil
	}
	a.provider = svc
	a.LogDebug("%s storage service configured", a.kind)
	return nil
}

// ConfigureCSVService implements registry.CSVCapableAgent.
func (a *StorageAgent) ConfigureCSVService(svc any) error { return a.configure("csv", svc) }

// ConfigureJSONService implements registry.JSONCapableAgent.
func (a *StorageAgent) ConfigureJSONService(svc any) error { return a.configure("json", svc) }

// ConfigureFileService implements registry.FileCapableAgent.
func (a *StorageAgent) ConfigureFileService(svc any) error { return a.configure("file", svc) }

// ConfigureKVService implements registry.KVCapableAgent.
func (a *StorageAgent) ConfigureKVService(svc any) error { return a.configure("kv", svc) }

// ConfigureBlobService implements registry.BlobCapableAgent.
func (a *StorageAgent) ConfigureBlobService(svc any) error { return a.configure("blob", svc) }

// ConfigureVectorService implements registry.VectorCapableAgent.
func (a *StorageAgent) ConfigureVectorService(svc any) error { return a.configure("vector", svc) }

// ConfigureHTMLService implements registry.HTMLCapableAgent.
func (a *StorageAgent) ConfigureHTMLService(svc any) error { return a.configure("html", svc) }

// ConfigureMarkdownService implements registry.MarkdownCapableAgent.
func (a *StorageAgent) ConfigureMarkdownService(svc any) error { return a.configure("markdown", svc) }

func (a *StorageAgent) resolveCollection(inputs map[string]any) string {
	if v, ok := inputs["collection"].(string); ok && v != "" {
		return v
	}
	return a.collection
}

func (a *StorageAgent) Process(ctx context.Context, inputs map[string]any) (agent.Outcome, error) {
	collection := a.resolveCollection(inputs)
	if collection == "" {
		return a.failure(fmt.Errorf("storage agent %q: missing required 'collection' parameter", a.AgentName()), "")
	}

	if a.provider == nil {
		return a.failure(fmt.Errorf("%s storage service not configured for agent %q", a.kind, a.AgentName()), collection)
	}

	switch a.operation {
	case "writer":
		return a.processWrite(ctx, collection, inputs)
	default:
		return a.processRead(ctx, collection, inputs)
	}
}

func (a *StorageAgent) processRead(ctx context.Context, collection string, inputs map[string]any) (agent.Outcome, error) {
	reader, ok := a.provider.(storageReader)
	if !ok {
		return a.failure(fmt.Errorf("%s storage provider does not implement Read(...)", a.kind), collection)
	}
	a.LogInfo("reading from %s", collection)
	data, err := reader.Read(ctx, collection, inputs)
	if err != nil {
		return a.failure(err, collection)
	}
	return agent.Completed(DocumentResult{Success: true, Data: data, FilePath: collection}), nil
}

func (a *StorageAgent) processWrite(ctx context.Context, collection string, inputs map[string]any) (agent.Outcome, error) {
	writer, ok := a.provider.(storageWriter)
	if !ok {
		return a.failure(fmt.Errorf("%s storage provider does not implement Write(...)", a.kind), collection)
	}
	data := inputs["data"]
	mode, _ := inputs["mode"].(string)
	if mode == "" {
		mode = "write"
	}
	a.LogInfo("writing to %s (mode: %s)", collection, mode)
	result, err := writer.Write(ctx, collection, data, mode, inputs)
	if err != nil {
		return a.failure(err, collection)
	}
	if result.FilePath == "" {
		result.FilePath = collection
	}
	return agent.Completed(result), nil
}

func (a *StorageAgent) failure(err error, collection string) (agent.Outcome, error) {
	a.LogError("storage operation failed: %s", err)
	return agent.Completed(DocumentResult{
		Success:  false,
		Error:    err.Error(),
		FilePath: collection,
	}), nil
}
