// Package profiler classifies a free-text query into an intent and derives
// the token budget and effective top-K that the rest of the query pipeline
// should use (spec.md §4.8).
package profiler

import "regexp"

// Intent is one of the fixed classification buckets.
type Intent string

const (
	IntentRefactor    Intent = "refactor"
	IntentTest        Intent = "test"
	IntentPerformance Intent = "performance"
	IntentDocs        Intent = "docs"
	IntentDataflow    Intent = "dataflow"
	IntentGeneral     Intent = "general"
)

// Preset is the per-intent token budget and result-count ceiling.
type Preset struct {
	TokenBudget int
	TopK        int
	Note        string
}

var presets = map[Intent]Preset{
	IntentRefactor:    {TokenBudget: 1200, TopK: 8, Note: "refactor: wider context for call sites and dependents"},
	IntentTest:        {TokenBudget: 900, TopK: 6, Note: "test: focus on the target symbol and its direct collaborators"},
	IntentPerformance: {TokenBudget: 1000, TopK: 6, Note: "performance: hot-path functions and their callers"},
	IntentDocs:        {TokenBudget: 700, TopK: 5, Note: "docs: public surface and existing doc comments"},
	IntentDataflow:    {TokenBudget: 1100, TopK: 7, Note: "dataflow: producers and consumers of the named value"},
	IntentGeneral:     {TokenBudget: 600, TopK: 5, Note: "general: no intent matched, default budget"},
}

// classifiers are tried in order; the first match wins. Order matters: more
// specific intents are checked before general fallback.
var classifiers = []struct {
	intent  Intent
	pattern *regexp.Regexp
}{
	{IntentRefactor, regexp.MustCompile(`(?i)\b(refactor|rename|extract|restructure|reorganize|split up|clean up)\b`)},
	{IntentTest, regexp.MustCompile(`(?i)\b(test|spec|unit test|coverage|assert|mock)\b`)},
	{IntentPerformance, regexp.MustCompile(`(?i)\b(perf|performance|slow|latency|bottleneck|optimi[sz]e|benchmark|hot path)\b`)},
	{IntentDocs, regexp.MustCompile(`(?i)\b(doc|docs|documentation|readme|comment|explain)\b`)},
	{IntentDataflow, regexp.MustCompile(`(?i)\b(dataflow|data flow|trace|flows? (into|through|from)|propagat|pipeline)\b`)},
}

// Classify returns the first matching intent, or IntentGeneral if none match.
func Classify(query string) Intent {
	for _, c := range classifiers {
		if c.pattern.MatchString(query) {
			return c.intent
		}
	}
	return IntentGeneral
}

// PresetFor returns the preset for an intent, falling back to the general
// preset for an unrecognized intent value.
func PresetFor(intent Intent) Preset {
	if p, ok := presets[intent]; ok {
		return p
	}
	return presets[IntentGeneral]
}

// ContextProfile is the result of profiling a query: its classified intent,
// the preset it maps to, and the effective top-K after clamping the caller's
// requested value against the preset's ceiling.
type ContextProfile struct {
	Intent        Intent
	Preset        Preset
	EffectiveTopK int
}

// Profile classifies query and computes effectiveTopK = clamp(1,
// min(preset.topK, requested or preset.topK), preset.topK). requested <= 0
// means "no explicit request", so the preset's topK is used directly.
func Profile(query string, requested int) ContextProfile {
	intent := Classify(query)
	preset := PresetFor(intent)

	want := preset.TopK
	if requested > 0 {
		want = requested
	}
	effective := clamp(1, min(preset.TopK, want), preset.TopK)

	return ContextProfile{Intent: intent, Preset: preset, EffectiveTopK: effective}
}

func clamp(lo, v, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
