package registry

// This file declares the built-in capability markers (spec §4.2). Each
// marker is a small structural interface an agent implements to
// advertise "I use service X" — mirroring the duck-typed Protocol
// classes referenced throughout original_source's builtin agents
// (LLMCapableAgent, GraphBundleCapableAgent, GraphRunnerCapableAgent,
// MessagingCapableAgent, StorageCapableAgent, CSVCapableAgent, ...)
// without requiring agents to import this package: Go's structural
// typing makes the method signature itself the contract.
//
// Every configure method takes the service as `any` rather than a
// concrete provider type, so this package never needs to import
// llmprovider/storageprovider/graphrunner/etc; the concrete agent
// packages perform the final type assertion to the provider interface
// they actually need.

// LLMCapableAgent is implemented by agents that need a language-model
// provider (spec §6 LLM agent contract).
type LLMCapableAgent interface {
	ConfigureLLMService(svc any) error
}

// StorageCapableAgent is implemented by agents that need the generic,
// kind-unscoped storage capability (spec §4.2's "storage" marker).
type StorageCapableAgent interface {
	ConfigureStorageService(svc any) error
}

// The per-kind storage capability markers mirror original_source's
// separate CSVCapableAgent/FileCapableAgent/etc. protocol classes
// (each with its own configure_<kind>_service method) rather than one
// generic protocol parameterized on a kind string.

// CSVCapableAgent is implemented by agents bound to the csv storage sub-kind.
type CSVCapableAgent interface {
	ConfigureCSVService(svc any) error
}

// JSONCapableAgent is implemented by agents bound to the json storage sub-kind.
type JSONCapableAgent interface {
	ConfigureJSONService(svc any) error
}

// VectorCapableAgent is implemented by agents bound to the vector storage sub-kind.
type VectorCapableAgent interface {
	ConfigureVectorService(svc any) error
}

// FileCapableAgent is implemented by agents bound to the file storage sub-kind.
type FileCapableAgent interface {
	ConfigureFileService(svc any) error
}

// BlobCapableAgent is implemented by agents bound to the blob storage sub-kind.
type BlobCapableAgent interface {
	ConfigureBlobService(svc any) error
}

// KVCapableAgent is implemented by agents bound to the kv storage sub-kind.
type KVCapableAgent interface {
	ConfigureKVService(svc any) error
}

// HTMLCapableAgent is implemented by agents bound to the html storage sub-kind.
type HTMLCapableAgent interface {
	ConfigureHTMLService(svc any) error
}

// MarkdownCapableAgent is implemented by agents bound to the markdown storage sub-kind.
type MarkdownCapableAgent interface {
	ConfigureMarkdownService(svc any) error
}

// GraphRunnerCapableAgent is implemented by agents that invoke nested
// graph execution, such as GraphAgent running its pre-resolved
// sub-graph bundle.
type GraphRunnerCapableAgent interface {
	ConfigureGraphRunnerService(svc any) error
}

// GraphBundleCapableAgent is implemented by GraphAgent: it needs the
// pre-resolved compiled bundle for the sub-graph it composes (spec
// §4.4).
type GraphBundleCapableAgent interface {
	ConfigureGraphBundleService(svc any) error
}

// FunctionResolutionCapableAgent is implemented by agents that resolve
// func: input-field projections or routing functions by name (spec
// §4.2). BaseAgent's own ConfigureFunctionResolutionService takes the
// narrower agent.FuncResolutionService type and so does not satisfy
// this marker; GraphAgent does.
type FunctionResolutionCapableAgent interface {
	ConfigureFunctionResolutionService(svc any)
}

// MessagingCapableAgent is implemented by agents that publish
// notifications about graph progress to a host-supplied channel.
type MessagingCapableAgent interface {
	ConfigureMessagingService(svc any) error
}

// ToolCapableAgent is implemented by the tool agent, which needs a
// registry of callable tool implementations (spec §6).
type ToolCapableAgent interface {
	ConfigureToolSelectionService(svc any) error
}

func builtinBindings() []Binding {
	bindings := []Binding{
		{
			CapabilityID: "llm",
			Probe: func(a any) bool {
				_, ok := a.(LLMCapableAgent)
				return ok
			},
			Configure: func(a any, svc any) error {
				return a.(LLMCapableAgent).ConfigureLLMService(svc)
			},
		},
		{
			CapabilityID: "graph_runner",
			Probe: func(a any) bool {
				_, ok := a.(GraphRunnerCapableAgent)
				return ok
			},
			Configure: func(a any, svc any) error {
				return a.(GraphRunnerCapableAgent).ConfigureGraphRunnerService(svc)
			},
		},
		{
			CapabilityID: "graph_bundle",
			Probe: func(a any) bool {
				_, ok := a.(GraphBundleCapableAgent)
				return ok
			},
			Configure: func(a any, svc any) error {
				return a.(GraphBundleCapableAgent).ConfigureGraphBundleService(svc)
			},
		},
		{
			CapabilityID: "function_resolution",
			Probe: func(a any) bool {
				_, ok := a.(FunctionResolutionCapableAgent)
				return ok
			},
			Configure: func(a any, svc any) error {
				a.(FunctionResolutionCapableAgent).ConfigureFunctionResolutionService(svc)
				return nil
			},
		},
		{
			CapabilityID: "messaging",
			Probe: func(a any) bool {
				_, ok := a.(MessagingCapableAgent)
				return ok
			},
			Configure: func(a any, svc any) error {
				return a.(MessagingCapableAgent).ConfigureMessagingService(svc)
			},
		},
		{
			CapabilityID: "tool_selection",
			Probe: func(a any) bool {
				_, ok := a.(ToolCapableAgent)
				return ok
			},
			Configure: func(a any, svc any) error {
				return a.(ToolCapableAgent).ConfigureToolSelectionService(svc)
			},
		},
		{
			CapabilityID: "storage",
			Probe: func(a any) bool {
				_, ok := a.(StorageCapableAgent)
				return ok
			},
			Configure: func(a any, svc any) error {
				return a.(StorageCapableAgent).ConfigureStorageService(svc)
			},
		},
		{
			CapabilityID: "storage.csv",
			Probe: func(a any) bool {
				_, ok := a.(CSVCapableAgent)
				return ok
			},
			Configure: func(a any, svc any) error {
				return a.(CSVCapableAgent).ConfigureCSVService(svc)
			},
		},
		{
			CapabilityID: "storage.json",
			Probe: func(a any) bool {
				_, ok := a.(JSONCapableAgent)
				return ok
			},
			Configure: func(a any, svc any) error {
				return a.(JSONCapableAgent).ConfigureJSONService(svc)
			},
		},
		{
			CapabilityID: "storage.vector",
			Probe: func(a any) bool {
				_, ok := a.(VectorCapableAgent)
				return ok
			},
			Configure: func(a any, svc any) error {
				return a.(VectorCapableAgent).ConfigureVectorService(svc)
			},
		},
		{
			CapabilityID: "storage.file",
			Probe: func(a any) bool {
				_, ok := a.(FileCapableAgent)
				return ok
			},
			Configure: func(a any, svc any) error {
				return a.(FileCapableAgent).ConfigureFileService(svc)
			},
		},
		{
			CapabilityID: "storage.blob",
			Probe: func(a any) bool {
				_, ok := a.(BlobCapableAgent)
				return ok
			},
			Configure: func(a any, svc any) error {
				return a.(BlobCapableAgent).ConfigureBlobService(svc)
			},
		},
		{
			CapabilityID: "storage.kv",
			Probe: func(a any) bool {
				_, ok := a.(KVCapableAgent)
				return ok
			},
			Configure: func(a any, svc any) error {
				return a.(KVCapableAgent).ConfigureKVService(svc)
			},
		},
		{
			CapabilityID: "storage.html",
			Probe: func(a any) bool {
				_, ok := a.(HTMLCapableAgent)
				return ok
			},
			Configure: func(a any, svc any) error {
				return a.(HTMLCapableAgent).ConfigureHTMLService(svc)
			},
		},
		{
			CapabilityID: "storage.markdown",
			Probe: func(a any) bool {
				_, ok := a.(MarkdownCapableAgent)
				return ok
			},
			Configure: func(a any, svc any) error {
				return a.(MarkdownCapableAgent).ConfigureMarkdownService(svc)
			},
		},
	}

	return bindings
}
