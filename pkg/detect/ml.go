package detect

// ml.go - optional ML text-classification channel backed by Hugot/ONNX.
//
// The ML channel is a fifth signal source alongside the four heuristic
// analyzers. It is disabled by default and degrades gracefully: a missing
// model, a failed session, or an inference error simply removes the channel
// from the fused result, it never fails an assessment.
//
// Build:
// - Standard: go build (pure Go backend, slower but no dependencies)
// - With ORT: go build -tags ORT (ONNX Runtime, faster)

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/phishzil/threatscan/pkg/threat"
)

// Prediction is one ML classification verdict.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// MLClassifier supplies the optional fifth signal channel.
type MLClassifier interface {
	Classify(ctx context.Context, text string) (Prediction, error)
}

// isPhishingLabel reports whether a model label indicates phishing.
// Different models use different label conventions:
// - phishing-specific models: "phishing" vs "benign"/"legitimate"
// - generic binary heads: "LABEL_1" (threat) vs "LABEL_0" (safe)
func isPhishingLabel(label string) bool {
	switch label {
	case "phishing", "malicious", "spam", "LABEL_1":
		return true
	default:
		return false
	}
}

// HugotClassifier runs a local ONNX text-classification model.
type HugotClassifier struct {
	mu       sync.RWMutex
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	ready    bool
}

// NewHugotClassifier loads the model at modelPath. Returns an error if the
// session or pipeline cannot be created; callers wanting graceful degradation
// should treat the error as "channel disabled".
func NewHugotClassifier(modelPath string) (*HugotClassifier, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("no model path specified")
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model path %s: %w", modelPath, err)
	}

	session, err := createSession()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "phishing-classifier",
	})
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	log.Printf("ML classifier initialized (model: %s)", modelPath)
	return &HugotClassifier{session: session, pipeline: pipeline, ready: true}, nil
}

// createSession prefers the ONNX Runtime backend and falls back to pure Go.
func createSession() (*hugot.Session, error) {
	if libPath := os.Getenv("THREATSCAN_ONNX_LIB_PATH"); libPath != "" {
		session, err := hugot.NewORTSession(options.WithOnnxLibraryPath(libPath))
		if err == nil {
			log.Printf("ML classifier using ONNX Runtime backend")
			return session, nil
		}
		log.Printf("[WARN] ONNX Runtime unavailable, falling back to Go backend: %v", err)
	}
	return hugot.NewGoSession()
}

// Classify runs inference on one text.
func (h *HugotClassifier) Classify(ctx context.Context, text string) (Prediction, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.ready || h.pipeline == nil {
		return Prediction{}, fmt.Errorf("classifier not ready")
	}

	result, err := h.pipeline.RunPipeline([]string{text})
	if err != nil {
		return Prediction{}, fmt.Errorf("classification failed: %w", err)
	}
	if len(result.ClassificationOutputs) == 0 || len(result.ClassificationOutputs[0]) == 0 {
		return Prediction{}, fmt.Errorf("no classification output")
	}

	out := result.ClassificationOutputs[0][0]
	return Prediction{Label: out.Label, Score: float64(out.Score)}, nil
}

// Close releases the underlying ONNX session.
func (h *HugotClassifier) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ready = false
	if h.session != nil {
		if err := h.session.Destroy(); err != nil {
			return fmt.Errorf("destroy session: %w", err)
		}
	}
	return nil
}

// mlChannelResult converts a prediction into an analyzer result. The risk
// contribution is the model score scaled by the configured channel weight,
// and only phishing-class labels score at all.
func mlChannelResult(pred Prediction, weight float64) threat.AnalyzerResult {
	result := threat.NewAnalyzerResult(threat.ChannelML)
	result.SetMetadata("label", pred.Label)
	result.SetMetadata("model_score", pred.Score)

	if isPhishingLabel(pred.Label) {
		result.AddScore(threat.Clamp01(pred.Score * weight))
		result.AddThreatType(threat.TagMLClassification)
		result.AddIndicator(fmt.Sprintf("ML model classified content as %s (%.2f)", pred.Label, pred.Score))
	}
	return result
}
