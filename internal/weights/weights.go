// Package weights manages the persisted ranking weights
// {semantic, lexical, graph, reranker} and the feedback nudge that adjusts
// them after a search result is marked useful or not (spec.md §4.11).
package weights

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/codectx-dev/codectx/internal/ranker"
)

const fileName = "weights.json"

// Default mirrors the spec's default weight split.
func Default() ranker.Weights {
	return ranker.Weights{Semantic: 0.6, Lexical: 0.25, Graph: 0.1, Reranker: 0.05}
}

const (
	semanticStep = 0.01
	lexicalStep  = 0.005
)

// Feedback is the polarity a caller reports for a search result.
type Feedback string

const (
	FeedbackUp   Feedback = "up"
	FeedbackDown Feedback = "down"
)

// Manager loads, persists, and nudges the weights file under dataDir. All
// mutating operations are serialized with an exclusive file lock on
// weights.json.lock, grounded on the same gofrs/flock lock-per-data-file
// convention used elsewhere in the retrieved pack for a JSON-backed store.
type Manager struct {
	path string
	lock *flock.Flock
}

// New builds a Manager rooted at dataDir, creating the weights file with
// defaults if it does not already exist.
func New(dataDir string) (*Manager, error) {
	path := filepath.Join(dataDir, fileName)
	m := &Manager{path: path, lock: flock.New(path + ".lock")}

	if err := m.withLock(func() error {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return m.writeLocked(Default())
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("init weights file: %w", err)
	}
	return m, nil
}

// Current reads the weights file under a shared view (acquired the same
// way as writes, since flock on this platform set has no separate
// shared-lock requirement for a file this small).
func (m *Manager) Current() (ranker.Weights, error) {
	var w ranker.Weights
	err := m.withLock(func() error {
		var readErr error
		w, readErr = m.readLocked()
		return readErr
	})
	return w, err
}

// Feedback nudges semantic by +/-semanticStep and lexical by the opposite
// sign's lexicalStep, clamps each of the four weights to [0,1], renormalizes
// them to sum to 1, and persists the result. Updates take effect for
// subsequent queries only; callers that already fetched a Weights value for
// an in-flight query keep using that value.
func (m *Manager) Feedback(fb Feedback) (ranker.Weights, error) {
	var updated ranker.Weights
	err := m.withLock(func() error {
		current, err := m.readLocked()
		if err != nil {
			return err
		}

		var semanticDelta, lexicalDelta float64
		switch fb {
		case FeedbackUp:
			semanticDelta, lexicalDelta = semanticStep, -lexicalStep
		case FeedbackDown:
			semanticDelta, lexicalDelta = -semanticStep, lexicalStep
		default:
			return fmt.Errorf("unknown feedback polarity: %q", fb)
		}

		current.Semantic = clamp01(current.Semantic + semanticDelta)
		current.Lexical = clamp01(current.Lexical + lexicalDelta)
		current.Graph = clamp01(current.Graph)
		current.Reranker = clamp01(current.Reranker)

		updated = renormalize(current)
		return m.writeLocked(updated)
	})
	return updated, err
}

func (m *Manager) withLock(fn func() error) error {
	if err := m.lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", m.path, err)
	}
	defer func() { _ = m.lock.Unlock() }()
	return fn()
}

func (m *Manager) readLocked() (ranker.Weights, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return ranker.Weights{}, fmt.Errorf("read %s: %w", m.path, err)
	}
	var w ranker.Weights
	if err := json.Unmarshal(data, &w); err != nil {
		return Default(), nil // malformed weights file resets to defaults rather than failing queries
	}
	return w, nil
}

func (m *Manager) writeLocked(w ranker.Weights) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, m.path)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func renormalize(w ranker.Weights) ranker.Weights {
	sum := w.Semantic + w.Lexical + w.Graph + w.Reranker
	if sum <= 0 {
		return Default()
	}
	return ranker.Weights{
		Semantic: w.Semantic / sum,
		Lexical:  w.Lexical / sum,
		Graph:    w.Graph / sum,
		Reranker: w.Reranker / sum,
	}
}
