package manifest

import (
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// EmbeddingDim is the fixed dimension of the deterministic hash-bucket
// vector produced for the optional ANN sink (spec.md §4.3).
const EmbeddingDim = 96

// Embed produces a deterministic hash-bucket embedding of text: every
// lowercase word token is hashed with xxhash (grounded on the teacher's use
// of xxhash for content fingerprints in internal/core/file_content_store.go)
// into one of EmbeddingDim buckets, incrementing that bucket; the resulting
// vector is then normalized to unit L2 length.
func Embed(text string) [EmbeddingDim]float32 {
	var vec [EmbeddingDim]float32
	for _, tok := range tokenize(text) {
		h := xxhash.Sum64String(tok)
		bucket := h % uint64(EmbeddingDim)
		vec[bucket]++
	}
	normalize(&vec)
	return vec
}

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec *[EmbeddingDim]float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
}
