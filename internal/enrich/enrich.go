// Package enrich talks to the optional image-analysis sidecar. The sidecar
// is a separate process that takes an image path and prints a JSON analysis
// on stdout. Enrichment is gated behind a configuration flag and always
// runs after capture; it never blocks the pipeline.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/clipkeep/clipkeep/internal/config"
)

// Result is the sidecar's analysis of one image.
type Result struct {
	Status         string   `json:"status"`
	Caption        string   `json:"caption"`
	Tags           []string `json:"tags"`
	Analysis       Analysis `json:"analysis"`
	ProcessingTime float64  `json:"processing_time"`
	Error          string   `json:"error,omitempty"`
}

// Analysis carries the structured part of the sidecar output.
type Analysis struct {
	Objects []string `json:"objects"`
	Scene   string   `json:"scene"`
	Colors  []string `json:"colors"`
	Actions []string `json:"actions"`
}

// Labels flattens a result into the label list attached to an item.
func (r *Result) Labels() []string {
	labels := make([]string, 0, len(r.Tags)+len(r.Analysis.Objects))
	labels = append(labels, r.Tags...)
	labels = append(labels, r.Analysis.Objects...)
	return labels
}

// Service shells out to the analysis sidecar.
type Service struct {
	cfg    config.EnrichConfig
	logger *zap.Logger
}

func NewService(cfg config.EnrichConfig, logger *zap.Logger) *Service {
	return &Service{cfg: cfg, logger: logger}
}

// Enabled reports whether enrichment is configured and usable.
func (s *Service) Enabled() bool {
	return s.cfg.Enabled && s.cfg.SidecarPath != ""
}

// AnalyzePath runs one analysis of the image at path.
func (s *Service) AnalyzePath(ctx context.Context, path string) (*Result, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("enrichment is disabled")
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, s.cfg.SidecarPath, "--mode", "analyze", "--image", path)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("sidecar execution failed: %w", err)
	}

	result, err := ParseResult(out)
	if err != nil {
		return nil, err
	}
	if result.Status != "success" {
		return nil, fmt.Errorf("sidecar analysis failed: %s", result.Error)
	}

	s.logger.Debug("image analyzed",
		zap.String("path", path),
		zap.Int("tags", len(result.Tags)),
		zap.Float64("seconds", result.ProcessingTime))

	return result, nil
}

// AnalyzeBytes writes raw image bytes to a temp file and analyzes that.
func (s *Service) AnalyzeBytes(ctx context.Context, raw []byte) (*Result, error) {
	tmp, err := os.CreateTemp("", "clipkeep-enrich-*")
	if err != nil {
		return nil, fmt.Errorf("failed to stage image for analysis: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to stage image for analysis: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to stage image for analysis: %w", err)
	}

	return s.AnalyzePath(ctx, filepath.Clean(path))
}

// ParseResult decodes the sidecar's JSON output. The sidecar may print
// debug noise before the JSON object, so decoding starts at the first '{'.
func ParseResult(out []byte) (*Result, error) {
	start := -1
	for i, b := range out {
		if b == '{' {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("sidecar produced no JSON output")
	}

	var result Result
	if err := json.Unmarshal(out[start:], &result); err != nil {
		return nil, fmt.Errorf("failed to decode sidecar output: %w", err)
	}
	return &result, nil
}
