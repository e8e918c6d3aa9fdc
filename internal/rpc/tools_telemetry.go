package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/codectx-dev/codectx/internal/errs"
)

const telemetryDirName = "logs"

// telemetryTools writes a point-in-time snapshot of indexed counts and
// current ranking weights to disk in three forms. Rendering that snapshot
// as HTML or serving it over Prometheus scrape is out of scope (spec.md's
// Non-goals name "the telemetry HTML/Prometheus renderers"); these
// handlers only produce the files a renderer would consume.
func telemetryTools(svc *Services) []Tool {
	return []Tool{
		{
			Name:        "generate_telemetry_panel",
			Description: "Snapshot current index counts and ranking weights to logs/telemetry.log, logs/telemetry_latest.json, and logs/telemetry.prom.",
			InputSchema: objectSchema(nil),
			Handler:     handleGenerateTelemetryPanel(svc),
		},
		{
			Name:        "open_telemetry_webview",
			Description: "Report the filesystem paths of the telemetry snapshot files (no HTML view is rendered by this server).",
			InputSchema: objectSchema(nil),
			Handler:     handleOpenTelemetryWebview(svc),
		},
	}
}

type telemetrySnapshot struct {
	Files         int     `json:"files"`
	Symbols       int     `json:"symbols"`
	Edges         int     `json:"edges"`
	WeightSemantic float64 `json:"weightSemantic"`
	WeightLexical  float64 `json:"weightLexical"`
	WeightGraph    float64 `json:"weightGraph"`
	WeightReranker float64 `json:"weightReranker"`
}

func handleGenerateTelemetryPanel(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		snap, err := buildTelemetrySnapshot(ctx, svc)
		if err != nil {
			return nil, err
		}

		dir := filepath.Join(svc.ProjectRoot, telemetryDirName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &errs.IOError{Op: "generate_telemetry_panel.mkdir", Err: err}
		}

		logPath := filepath.Join(dir, "telemetry.log")
		jsonPath := filepath.Join(dir, "telemetry_latest.json")
		promPath := filepath.Join(dir, "telemetry.prom")

		if err := appendTelemetryLog(logPath, snap); err != nil {
			return nil, err
		}
		if err := writeTelemetryJSON(jsonPath, snap); err != nil {
			return nil, err
		}
		if err := writeTelemetryProm(promPath, snap); err != nil {
			return nil, err
		}

		return map[string]any{
			"log":  logPath,
			"json": jsonPath,
			"prom": promPath,
		}, nil
	}
}

func handleOpenTelemetryWebview(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		dir := filepath.Join(svc.ProjectRoot, telemetryDirName)
		return map[string]any{
			"note": "this server does not render an HTML telemetry view; read the files below directly",
			"log":  filepath.Join(dir, "telemetry.log"),
			"json": filepath.Join(dir, "telemetry_latest.json"),
			"prom": filepath.Join(dir, "telemetry.prom"),
		}, nil
	}
}

func buildTelemetrySnapshot(ctx context.Context, svc *Services) (telemetrySnapshot, error) {
	counts, err := svc.Graph.Counts(ctx)
	if err != nil {
		return telemetrySnapshot{}, &errs.IOError{Op: "telemetry.counts", Err: err}
	}
	w, err := svc.Weights.Current()
	if err != nil {
		return telemetrySnapshot{}, &errs.IOError{Op: "telemetry.weights", Err: err}
	}
	return telemetrySnapshot{
		Files:          counts.Files,
		Symbols:        counts.Symbols,
		Edges:          counts.Edges,
		WeightSemantic: w.Semantic,
		WeightLexical:  w.Lexical,
		WeightGraph:    w.Graph,
		WeightReranker: w.Reranker,
	}, nil
}

func appendTelemetryLog(path string, snap telemetrySnapshot) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return &errs.IOError{Op: "telemetry.log", Err: err}
	}
	defer f.Close()

	record := struct {
		Timestamp string `json:"timestamp"`
		telemetrySnapshot
	}{time.Now().UTC().Format(time.RFC3339), snap}
	line, err := json.Marshal(record)
	if err != nil {
		return &errs.IOError{Op: "telemetry.log", Err: err}
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return &errs.IOError{Op: "telemetry.log", Err: err}
	}
	return nil
}

func writeTelemetryJSON(path string, snap telemetrySnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return &errs.IOError{Op: "telemetry.json", Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &errs.IOError{Op: "telemetry.json", Err: err}
	}
	return nil
}

// writeTelemetryProm renders snap as Prometheus text exposition format
// using a scratch registry that is never served over HTTP, only encoded
// to a file.
func writeTelemetryProm(path string, snap telemetrySnapshot) error {
	reg := prometheus.NewRegistry()

	filesGauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "codectx_indexed_files", Help: "Indexed file count."})
	symbolsGauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "codectx_indexed_symbols", Help: "Indexed symbol count."})
	edgesGauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "codectx_graph_edges", Help: "Import graph edge count."})
	weightsGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "codectx_ranker_weight", Help: "Current ranking signal weight."}, []string{"signal"})

	reg.MustRegister(filesGauge, symbolsGauge, edgesGauge, weightsGauge)

	filesGauge.Set(float64(snap.Files))
	symbolsGauge.Set(float64(snap.Symbols))
	edgesGauge.Set(float64(snap.Edges))
	weightsGauge.WithLabelValues("semantic").Set(snap.WeightSemantic)
	weightsGauge.WithLabelValues("lexical").Set(snap.WeightLexical)
	weightsGauge.WithLabelValues("graph").Set(snap.WeightGraph)
	weightsGauge.WithLabelValues("reranker").Set(snap.WeightReranker)

	families, err := reg.Gather()
	if err != nil {
		return &errs.IOError{Op: "telemetry.prom.gather", Err: err}
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			return &errs.IOError{Op: "telemetry.prom.encode", Err: err}
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &errs.IOError{Op: "telemetry.prom.write", Err: err}
	}
	return nil
}
