package model

import (
	"fmt"
	"time"
)

// Category is a usage-intent class used as evaluation ground truth.
type Category string

const (
	CategoryGaming      Category = "Gaming"
	CategoryPhotography Category = "Photography"
	CategoryDaily       Category = "Daily use"
)

// Categories lists every class in canonical confusion-matrix order.
var Categories = []Category{CategoryGaming, CategoryPhotography, CategoryDaily}

// Index returns the canonical position of the category, or -1.
func (c Category) Index() int {
	for i, cat := range Categories {
		if cat == c {
			return i
		}
	}
	return -1
}

// SplitRatio is a train/test percentage pair, e.g. 70/30.
type SplitRatio struct {
	Train int `json:"train"`
	Test  int `json:"test"`
}

// Name returns the scenario name, e.g. "70-30".
func (s SplitRatio) Name() string {
	return fmt.Sprintf("%d-%d", s.Train, s.Test)
}

// Validate checks that both shares are positive percentages summing to 100.
func (s SplitRatio) Validate() error {
	if s.Train <= 0 || s.Test <= 0 || s.Train >= 100 || s.Test >= 100 || s.Train+s.Test != 100 {
		return fmt.Errorf("split ratio %s must be two positive percentages summing to 100", s.Name())
	}
	return nil
}

// ParseSplitRatio parses a scenario name such as "80-20".
func ParseSplitRatio(name string) (SplitRatio, error) {
	var s SplitRatio
	if _, err := fmt.Sscanf(name, "%d-%d", &s.Train, &s.Test); err != nil {
		return SplitRatio{}, fmt.Errorf("invalid scenario %q: expected <train>-<test>", name)
	}
	if err := s.Validate(); err != nil {
		return SplitRatio{}, err
	}
	return s, nil
}

// DefaultScenarios are evaluated when a run names none.
var DefaultScenarios = []SplitRatio{{Train: 70, Test: 30}, {Train: 80, Test: 20}}

// ClassMetrics holds the per-class scores.
type ClassMetrics struct {
	Category  Category `json:"category"`
	Precision float64  `json:"precision"`
	Recall    float64  `json:"recall"`
	F1        float64  `json:"f1_score"`
	Support   int      `json:"support"`
}

// AverageMetrics holds support-weighted averages.
type AverageMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
}

// EvaluationResult is the outcome of one split scenario.
type EvaluationResult struct {
	RunID           string         `json:"run_id"`
	Scenario        string         `json:"scenario"`
	TrainSize       int            `json:"train_size"`
	TestSize        int            `json:"test_size"`
	TrainPercentage float64        `json:"train_percentage"`
	TestPercentage  float64        `json:"test_percentage"`
	K               int            `json:"k"`
	Labels          []Category     `json:"labels"`
	ConfusionMatrix [][]int        `json:"confusion_matrix"`
	Accuracy        float64        `json:"accuracy"`
	PerClass        []ClassMetrics `json:"per_class"`
	Weighted        AverageMetrics `json:"weighted"`
	WeightsUsed     WeightVector   `json:"weights_used"`
	CatalogVersion  uint64         `json:"catalog_version"`
	EvaluatedAt     time.Time      `json:"evaluated_at"`
	Took            int64          `json:"took_ms"`
}

// EvaluationRunRequest selects scenarios and overrides for an evaluation run.
type EvaluationRunRequest struct {
	Scenarios []SplitRatio  `json:"scenarios,omitempty"`
	K         int           `json:"k"`
	Weights   *WeightVector `json:"weights,omitempty"`
}

// EvaluationRunResponse holds every scenario result of a run.
type EvaluationRunResponse struct {
	RunID        string              `json:"run_id"`
	Results      []*EvaluationResult `json:"results"`
	BestScenario string              `json:"best_scenario"`
	Took         int64               `json:"took_ms"`
}

// MetricDelta compares one metric across two scenarios.
type MetricDelta struct {
	Metric string  `json:"metric"`
	First  float64 `json:"first"`
	Second float64 `json:"second"`
	Delta  float64 `json:"delta"`
}

// EvaluationComparison compares two scenarios.
type EvaluationComparison struct {
	First  *EvaluationResult `json:"first"`
	Second *EvaluationResult `json:"second"`
	Deltas []MetricDelta     `json:"deltas"`
	Better string            `json:"better"`
}

// ChartBar is one bar of a metric chart.
type ChartBar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// HeatCell is one cell of a confusion-matrix heat map.
type HeatCell struct {
	Actual    Category `json:"actual"`
	Predicted Category `json:"predicted"`
	Count     int      `json:"count"`
	Share     float64  `json:"share"`
}

// VisualizationData is chart-ready evaluation output.
type VisualizationData struct {
	Scenario   string     `json:"scenario"`
	Metrics    []ChartBar `json:"metrics"`
	PerClassF1 []ChartBar `json:"per_class_f1"`
	Heatmap    []HeatCell `json:"heatmap"`
}
