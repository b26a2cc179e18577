package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/datasets"
	"github.com/bench-arena/bench-arena/pkg/api"
)

const (
	// Artifacts write their findings into the output mount under these names.
	patternsFile   = "patterns.json"
	riskScoresFile = "risk_scores.json"

	// A ground-truth pattern counts as found when at least this share of
	// its addresses appears in one reported pattern.
	patternOverlapThreshold = 0.8

	recallTarget = 0.80
)

// groundTruth is the staged label set for one dataset cell. The known
// address and connection sets back the data-correctness checks; the
// labeled addresses are the positives for the ml category.
type groundTruth struct {
	Patterns         []groundTruthPattern `json:"patterns"`
	LabeledAddresses []string             `json:"labeled_addresses"`
	KnownAddresses   []string             `json:"known_addresses"`
	KnownConnections []connection         `json:"known_connections"`
}

type groundTruthPattern struct {
	PatternID string   `json:"pattern_id"`
	Addresses []string `json:"addresses"`
}

type connection struct {
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
}

// reportedPattern is one finding emitted by an analytics artifact.
type reportedPattern struct {
	PatternID    string       `json:"pattern_id"`
	PatternType  string       `json:"pattern_type"`
	Addresses    []string     `json:"addresses"`
	Transactions []connection `json:"transactions"`
	Confidence   float64      `json:"confidence"`
}

// riskScore is one scored address emitted by an ml artifact.
type riskScore struct {
	Address   string  `json:"address"`
	RiskScore float64 `json:"risk_score"`
}

// Validator computes the per-run domain metrics by comparing an artifact's
// output files against the staged ground truth.
type Validator struct {
	logger *slog.Logger
}

func NewValidator(logger *slog.Logger) abstractions.OutputValidator {
	return &Validator{logger: logger}
}

func (v *Validator) ValidateRun(ctx context.Context, category api.ArtifactCategory, outputPath string, datasetPath string, network string, windowDays int) (*api.RunMetrics, error) {
	truth, err := loadGroundTruth(datasetPath)
	if err != nil {
		return nil, err
	}

	switch category {
	case api.CategoryAnalytics:
		return v.validateAnalytics(outputPath, truth)
	case api.CategoryML:
		return v.validateML(outputPath, truth)
	default:
		return nil, fmt.Errorf("unknown artifact category %q", category)
	}
}

// validateAnalytics scores pattern recall against the labeled patterns and
// validates the novel patterns against the known address and connection
// sets. Data correctness requires every reported address and connection to
// exist in the window.
func (v *Validator) validateAnalytics(outputPath string, truth *groundTruth) (*api.RunMetrics, error) {
	var patterns []reportedPattern
	if err := readJSONFile(filepath.Join(outputPath, patternsFile), &patterns); err != nil {
		return nil, fmt.Errorf("reading reported patterns: %w", err)
	}

	expected := len(truth.Patterns)
	found := 0
	for _, gt := range truth.Patterns {
		if patternFound(gt, patterns) {
			found++
		}
	}
	recall := 0.0
	if expected > 0 {
		recall = float64(found) / float64(expected)
	}

	knownAddresses := toSet(truth.KnownAddresses)
	knownConnections := connectionSet(truth.KnownConnections)
	labeledIDs := map[string]bool{}
	for _, gt := range truth.Patterns {
		labeledIDs[gt.PatternID] = true
	}

	addressesValid := true
	connectionsValid := true
	noveltyReported := 0
	noveltyValidated := 0
	for _, pattern := range patterns {
		patternValid := true
		for _, address := range pattern.Addresses {
			if !knownAddresses[address] {
				addressesValid = false
				patternValid = false
			}
		}
		for _, tx := range pattern.Transactions {
			if !knownConnections[tx] {
				connectionsValid = false
				patternValid = false
			}
		}
		if labeledIDs[pattern.PatternID] {
			continue
		}
		noveltyReported++
		if patternValid {
			noveltyValidated++
		}
	}

	metrics := &api.RunMetrics{
		PatternsExpected:      expected,
		PatternsFound:         found,
		PatternRecall:         recall,
		NoveltyReported:       noveltyReported,
		NoveltyValidated:      noveltyValidated,
		AddressesValid:        addressesValid,
		ConnectionsValid:      connectionsValid,
		DataCorrectnessPassed: addressesValid && connectionsValid,
	}

	v.logger.Info("Analytics run validated",
		"patterns_expected", expected, "patterns_found", found, "recall", recall,
		"novelty_reported", noveltyReported, "novelty_validated", noveltyValidated,
		"data_correctness", metrics.DataCorrectnessPassed)
	return metrics, nil
}

// validateML scores the reported risk scores as a ranking problem against
// the labeled addresses. Data correctness requires every scored address to
// exist in the window.
func (v *Validator) validateML(outputPath string, truth *groundTruth) (*api.RunMetrics, error) {
	var scores []riskScore
	if err := readJSONFile(filepath.Join(outputPath, riskScoresFile), &scores); err != nil {
		return nil, fmt.Errorf("reading risk scores: %w", err)
	}

	knownAddresses := toSet(truth.KnownAddresses)
	addressesValid := true
	for _, score := range scores {
		if !knownAddresses[score.Address] {
			addressesValid = false
			break
		}
	}

	labeled := toSet(truth.LabeledAddresses)
	labels := make([]bool, len(scores))
	values := make([]float64, len(scores))
	for i, score := range scores {
		labels[i] = labeled[score.Address]
		values[i] = score.RiskScore
	}

	aucROC, precision := rankingMetrics(labels, values)

	metrics := &api.RunMetrics{
		AUCROC:                aucROC,
		PrecisionAtRecall80:   precision,
		AddressesValid:        addressesValid,
		ConnectionsValid:      true,
		DataCorrectnessPassed: addressesValid,
	}

	v.logger.Info("ML run validated",
		"scored_addresses", len(scores), "auc_roc", aucROC,
		"precision_at_recall_80", precision, "data_correctness", addressesValid)
	return metrics, nil
}

// patternFound reports whether any reported pattern covers enough of the
// ground-truth pattern's addresses.
func patternFound(gt groundTruthPattern, patterns []reportedPattern) bool {
	if len(gt.Addresses) == 0 {
		return false
	}
	required := patternOverlapThreshold * float64(len(gt.Addresses))
	gtAddresses := toSet(gt.Addresses)

	for _, pattern := range patterns {
		overlap := 0
		for _, address := range pattern.Addresses {
			if gtAddresses[address] {
				overlap++
			}
		}
		if float64(overlap) >= required {
			return true
		}
	}
	return false
}

func loadGroundTruth(datasetPath string) (*groundTruth, error) {
	truth := &groundTruth{}
	path := filepath.Join(datasetPath, datasets.GroundTruthFile)
	if err := readJSONFile(path, truth); err != nil {
		return nil, fmt.Errorf("reading ground truth: %w", err)
	}
	return truth, nil
}

func readJSONFile(path string, v any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(content, v)
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, value := range values {
		set[value] = true
	}
	return set
}

func connectionSet(connections []connection) map[connection]bool {
	set := make(map[connection]bool, len(connections))
	for _, c := range connections {
		set[c] = true
	}
	return set
}
