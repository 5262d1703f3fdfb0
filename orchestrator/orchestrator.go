// Package orchestrator implements the node-selection business service
// consumed by the builtin Orchestrator and Tool agents (spec §4.8,
// §6's Orchestrator provider contract: select_best_node). No pack
// example implements node-selection scoring, so the algorithmic
// strategy below (token-overlap against each candidate's description
// and prompt) is new code written in the teacher's idiom; the llm and
// tiered strategies are grounded on spec §4.8's three-strategy
// description directly.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Candidate describes one node (or, when Tool is doing the selecting,
// one tool) eligible for selection.
type Candidate struct {
	Description string
	Prompt      string
}

// Strategy selects among strategies named in CSV Context.
type Strategy string

const (
	StrategyAlgorithm Strategy = "algorithm"
	StrategyLLM       Strategy = "llm"
	StrategyTiered    Strategy = "tiered"
)

// llmChooser is the minimal surface the llm strategy needs, declared
// locally per the corpus's duck-typed-capability convention.
type llmChooser interface {
	Choose(ctx context.Context, inputText string, candidates map[string]Candidate) (string, error)
}

// Service implements the Orchestrator provider contract
// (select_best_node). Zero value is usable for the algorithm strategy;
// WithLLM wires an llm chooser for the llm/tiered strategies.
type Service struct {
	llm llmChooser
}

// New creates an orchestrator service with no LLM chooser configured;
// the llm and tiered strategies fall back to pure algorithmic scoring
// until one is wired via WithLLM.
func New() *Service {
	return &Service{}
}

// WithLLM returns a copy of the service with an LLM-backed chooser
// wired in, used by the llm strategy directly and by tiered when the
// algorithmic top score falls below the confidence threshold.
func (s *Service) WithLLM(chooser llmChooser) *Service {
	return &Service{llm: chooser}
}

// SelectBestNode implements the spec §6 Orchestrator provider
// contract. strategy defaults to "tiered" when empty.
func (s *Service) SelectBestNode(ctx context.Context, inputText string, candidates map[string]Candidate, strategy string, confidenceThreshold float64) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("orchestrator: no candidate nodes to select from")
	}
	if len(candidates) == 1 {
		for name := range candidates {
			return name, nil
		}
	}

	switch Strategy(strategy) {
	case StrategyAlgorithm:
		name, _ := s.scoreAlgorithmically(inputText, candidates)
		return name, nil

	case StrategyLLM:
		if s.llm != nil {
			return s.llm.Choose(ctx, inputText, candidates)
		}
		name, _ := s.scoreAlgorithmically(inputText, candidates)
		return name, nil

	case StrategyTiered, "":
		name, score := s.scoreAlgorithmically(inputText, candidates)
		if score >= confidenceThreshold || s.llm == nil {
			return name, nil
		}
		return s.llm.Choose(ctx, inputText, candidates)

	default:
		return "", fmt.Errorf("orchestrator: unknown matching strategy %q", strategy)
	}
}

// scoreAlgorithmically ranks candidates by normalized token overlap
// between inputText and each candidate's description+prompt, breaking
// ties by name for determinism.
func (s *Service) scoreAlgorithmically(inputText string, candidates map[string]Candidate) (string, float64) {
	inputTokens := tokenize(inputText)

	type scored struct {
		name  string
		score float64
	}
	results := make([]scored, 0, len(candidates))
	for name, c := range candidates {
		candidateTokens := tokenize(c.Description + " " + c.Prompt + " " + name)
		results = append(results, scored{name: name, score: overlapScore(inputTokens, candidateTokens)})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].name < results[j].name
	})
	return results[0].name, results[0].score
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?()\"'")
		if w != "" {
			tokens[w] = true
		}
	}
	return tokens
}

// overlapScore is the Jaccard similarity of the two token sets, 0 when
// either is empty.
func overlapScore(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
