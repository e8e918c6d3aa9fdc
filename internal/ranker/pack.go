package ranker

import (
	"math"
	"strings"
)

// Strategy selects the context-packing algorithm (spec.md §4.7).
type Strategy string

const (
	StrategyGreedy Strategy = "greedy"
	StrategyMMR    Strategy = "mmr"
)

// PackOptions configures Pack.
type PackOptions struct {
	Strategy      Strategy
	TokenBudget   int
	CharsPerToken int
	MMRLambda     float64
	EffectiveTopK int
}

// tokenCost estimates a snippet's token count: max(1, ceil(len/charsPerToken)).
func tokenCost(snippet string, charsPerToken int) int {
	if charsPerToken <= 0 {
		charsPerToken = 4
	}
	cost := (len(snippet) + charsPerToken - 1) / charsPerToken
	if cost < 1 {
		cost = 1
	}
	return cost
}

// Pack selects a subset of ranked into opts.TokenBudget tokens using the
// configured strategy. It never returns an empty slice when ranked is
// non-empty and opts.EffectiveTopK >= 1: if the chosen strategy would
// otherwise select nothing (e.g. a budget smaller than any single
// candidate), it falls back to ranked[:effectiveTopK] (spec.md §4.7).
func Pack(ranked []ScoredCandidate, opts PackOptions) []ScoredCandidate {
	if len(ranked) == 0 {
		return nil
	}

	var packed []ScoredCandidate
	switch opts.Strategy {
	case StrategyMMR:
		packed = packMMR(ranked, opts.TokenBudget, opts.CharsPerToken, opts.MMRLambda)
	default:
		packed = packGreedy(ranked, opts.TokenBudget, opts.CharsPerToken)
	}

	if len(packed) == 0 && opts.EffectiveTopK >= 1 {
		n := opts.EffectiveTopK
		if n > len(ranked) {
			n = len(ranked)
		}
		packed = append([]ScoredCandidate{}, ranked[:n]...)
	}
	return packed
}

// packGreedy implements the default strategy: a first pass selects in rank
// order skipping any candidate whose file is already represented, until
// the budget is exhausted; a second pass then fills remaining budget
// ignoring the one-per-file rule.
func packGreedy(ranked []ScoredCandidate, budget, charsPerToken int) []ScoredCandidate {
	var result []ScoredCandidate
	chosen := make([]bool, len(ranked))
	seenFile := make(map[string]bool, len(ranked))
	used := 0

	for i, c := range ranked {
		if seenFile[c.File] {
			continue
		}
		cost := tokenCost(c.Snippet, charsPerToken)
		if used+cost > budget {
			continue
		}
		result = append(result, c)
		chosen[i] = true
		seenFile[c.File] = true
		used += cost
	}

	for i, c := range ranked {
		if chosen[i] {
			continue
		}
		cost := tokenCost(c.Snippet, charsPerToken)
		if used+cost > budget {
			continue
		}
		result = append(result, c)
		chosen[i] = true
		used += cost
	}
	return result
}

// packMMR greedily picks, at each step, the candidate maximizing
// λ·score − (1−λ)·max jaccard(snippet, chosen) among candidates that still
// fit the remaining budget, stopping when none do or the pool is empty.
func packMMR(ranked []ScoredCandidate, budget, charsPerToken int, lambda float64) []ScoredCandidate {
	remaining := append([]ScoredCandidate{}, ranked...)
	var chosen []ScoredCandidate
	used := 0

	for len(remaining) > 0 {
		bestIdx := -1
		bestVal := math.Inf(-1)
		for i, c := range remaining {
			cost := tokenCost(c.Snippet, charsPerToken)
			if used+cost > budget {
				continue
			}
			maxJac := 0.0
			for _, ch := range chosen {
				if j := jaccard(c.Snippet, ch.Snippet); j > maxJac {
					maxJac = j
				}
			}
			val := lambda*c.Score - (1-lambda)*maxJac
			if val > bestVal {
				bestVal = val
				bestIdx = i
			}
		}
		if bestIdx == -1 {
			break
		}
		chosen = append(chosen, remaining[bestIdx])
		used += tokenCost(remaining[bestIdx].Snippet, charsPerToken)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return chosen
}

// jaccard computes word-token-set similarity over lowercase snippets.
func jaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}
	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		isWord := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
		return !isWord
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f != "" {
			set[f] = true
		}
	}
	return set
}
