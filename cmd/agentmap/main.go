// Command agentmap is the composition root and CLI entry point (spec
// §6): it parses an AgentMap CSV, assembles and runs (or compiles,
// scaffolds, validates, diagnoses) the named graph.
package main

func main() {
	Execute()
}
