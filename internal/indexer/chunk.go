package indexer

import "strings"

// Chunk is one token-bounded window of a symbol's source text.
type Chunk struct {
	StartLine int
	EndLine   int
	Text      string
}

// chunkSymbol splits a symbol's [startLine, endLine] source text into
// token-bounded windows per spec.md §4.4 step 4: each chunk targets
// tokenLimit tokens, consecutive chunks overlap by overlapTokens, and a
// line's token cost is estimated as max(1, ceil(len(line)/charsPerToken)).
// Every chunk advances at least one line past the previous chunk's start,
// so the loop always terminates even when overlapTokens >= tokenLimit.
func chunkSymbol(content string, startLine, tokenLimit, overlapTokens, charsPerToken int) []Chunk {
	if tokenLimit <= 0 {
		tokenLimit = 1
	}
	if charsPerToken <= 0 {
		charsPerToken = 1
	}
	lines := strings.Split(content, "\n")
	n := len(lines)
	if n == 0 {
		return nil
	}

	tokensOf := func(i int) int {
		cost := ceilDiv(len(lines[i]), charsPerToken)
		if cost < 1 {
			cost = 1
		}
		return cost
	}

	var chunks []Chunk
	start := 0
	for start < n {
		sum := 0
		end := start
		for end < n && sum < tokenLimit {
			sum += tokensOf(end)
			end++
		}
		chunks = append(chunks, Chunk{
			StartLine: startLine + start,
			EndLine:   startLine + end - 1,
			Text:      strings.Join(lines[start:end], "\n"),
		})
		if end >= n {
			break
		}

		back := end
		overlapSum := 0
		for back > start && overlapSum < overlapTokens {
			back--
			overlapSum += tokensOf(back)
		}
		next := back
		if next <= start {
			next = start + 1 // guarantee forward progress, no zero-width chunks
		}
		start = next
	}
	return chunks
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
