package service

import (
	"context"
	"sync"
	"time"

	"phonecbr/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventCallback is called for streamed run events.
type EventCallback func(event string, data any) error

// EvaluationService runs evaluation scenarios against the current catalog.
// Results are returned to the caller and not persisted.
type EvaluationService struct {
	catalog   *Catalog
	weights   *WeightService
	evaluator *Evaluator
	defaultK  int
	logger    zerolog.Logger
}

// NewEvaluationService creates an evaluation service.
func NewEvaluationService(
	catalog *Catalog,
	weights *WeightService,
	evaluator *Evaluator,
	defaultK int,
	logger zerolog.Logger,
) *EvaluationService {
	if defaultK <= 0 {
		defaultK = 5
	}
	return &EvaluationService{
		catalog:   catalog,
		weights:   weights,
		evaluator: evaluator,
		defaultK:  defaultK,
		logger:    logger.With().Str("component", "evaluation").Logger(),
	}
}

// Run evaluates every requested scenario and picks the one with the highest
// weighted F1. Ties keep the earlier scenario.
func (s *EvaluationService) Run(ctx context.Context, req *model.EvaluationRunRequest) (*model.EvaluationRunResponse, error) {
	return s.run(ctx, req, nil)
}

// RunStream is Run with progress events: "started", "progress", "scenario"
// and "completed".
func (s *EvaluationService) RunStream(ctx context.Context, req *model.EvaluationRunRequest, callback EventCallback) (*model.EvaluationRunResponse, error) {
	return s.run(ctx, req, callback)
}

func (s *EvaluationService) run(ctx context.Context, req *model.EvaluationRunRequest, callback EventCallback) (*model.EvaluationRunResponse, error) {
	start := time.Now()
	weights, err := s.weights.Resolve(req.Weights)
	if err != nil {
		return nil, err
	}
	k := req.K
	if k == 0 {
		k = s.defaultK
	}
	scenarios := req.Scenarios
	if len(scenarios) == 0 {
		scenarios = model.DefaultScenarios
	}
	for _, ratio := range scenarios {
		if err := ratio.Validate(); err != nil {
			return nil, &ConfigurationError{Reason: err.Error()}
		}
	}

	snap := s.catalog.Snapshot()
	resp := &model.EvaluationRunResponse{
		RunID:   uuid.NewString(),
		Results: make([]*model.EvaluationResult, 0, len(scenarios)),
	}
	if callback != nil {
		if err := callback("started", map[string]any{
			"run_id":          resp.RunID,
			"scenarios":       scenarioNames(scenarios),
			"catalog_version": snap.Version,
		}); err != nil {
			return nil, err
		}
	}

	bestF1 := -1.0
	for _, ratio := range scenarios {
		ev := s.evaluator
		if callback != nil {
			ev = ev.WithProgress(s.progressReporter(ratio, len(snap.Phones), callback))
		}
		res, err := ev.Evaluate(ctx, snap, ratio, k, weights)
		if err != nil {
			return nil, err
		}
		res.RunID = resp.RunID
		resp.Results = append(resp.Results, res)
		if res.Weighted.F1 > bestF1 {
			bestF1 = res.Weighted.F1
			resp.BestScenario = res.Scenario
		}
		if callback != nil {
			if err := callback("scenario", res); err != nil {
				return nil, err
			}
		}
	}
	resp.Took = time.Since(start).Milliseconds()

	s.logger.Info().
		Str("run_id", resp.RunID).
		Int("scenarios", len(resp.Results)).
		Str("best", resp.BestScenario).
		Int64("took_ms", resp.Took).
		Msg("Evaluation run complete")

	if callback != nil {
		if err := callback("completed", resp); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// progressReporter emits a "progress" event every tenth of the expected test
// set. It is called from evaluator workers.
func (s *EvaluationService) progressReporter(ratio model.SplitRatio, total int, callback EventCallback) func(int) {
	expected := total - total*ratio.Train/(ratio.Train+ratio.Test)
	step := max(expected/10, 1)
	var mu sync.Mutex
	done := 0
	return func(n int) {
		mu.Lock()
		defer mu.Unlock()
		done += n
		if done%step != 0 && done != expected {
			return
		}
		if err := callback("progress", map[string]any{
			"scenario": ratio.Name(),
			"done":     done,
			"total":    expected,
		}); err != nil {
			s.logger.Debug().Err(err).Msg("Progress event dropped")
		}
	}
}

// Compare evaluates two scenarios under the same weights and k.
func (s *EvaluationService) Compare(ctx context.Context, first, second string, k int) (*model.EvaluationComparison, error) {
	r1, err := parseScenario(first)
	if err != nil {
		return nil, err
	}
	r2, err := parseScenario(second)
	if err != nil {
		return nil, err
	}
	resp, err := s.Run(ctx, &model.EvaluationRunRequest{Scenarios: []model.SplitRatio{r1, r2}, K: k})
	if err != nil {
		return nil, err
	}
	a, b := resp.Results[0], resp.Results[1]
	cmp := &model.EvaluationComparison{
		First:  a,
		Second: b,
		Deltas: []model.MetricDelta{
			delta("accuracy", a.Accuracy, b.Accuracy),
			delta("precision", a.Weighted.Precision, b.Weighted.Precision),
			delta("recall", a.Weighted.Recall, b.Weighted.Recall),
			delta("f1_score", a.Weighted.F1, b.Weighted.F1),
		},
		Better: a.Scenario,
	}
	if b.Weighted.F1 > a.Weighted.F1 {
		cmp.Better = b.Scenario
	}
	return cmp, nil
}

// Visualization evaluates one scenario and shapes it for charts.
func (s *EvaluationService) Visualization(ctx context.Context, scenario string, k int) (*model.VisualizationData, error) {
	ratio, err := parseScenario(scenario)
	if err != nil {
		return nil, err
	}
	resp, err := s.Run(ctx, &model.EvaluationRunRequest{Scenarios: []model.SplitRatio{ratio}, K: k})
	if err != nil {
		return nil, err
	}
	return Visualize(resp.Results[0]), nil
}

// Visualize converts a scenario result to chart bars and heat map cells.
// Heat map shares are relative to the actual class row.
func Visualize(res *model.EvaluationResult) *model.VisualizationData {
	v := &model.VisualizationData{
		Scenario: res.Scenario,
		Metrics: []model.ChartBar{
			{Label: "Accuracy", Value: res.Accuracy},
			{Label: "Precision", Value: res.Weighted.Precision},
			{Label: "Recall", Value: res.Weighted.Recall},
			{Label: "F1-Score", Value: res.Weighted.F1},
		},
	}
	for _, c := range res.PerClass {
		v.PerClassF1 = append(v.PerClassF1, model.ChartBar{Label: string(c.Category), Value: c.F1})
	}
	for a, row := range res.ConfusionMatrix {
		support := 0
		for _, n := range row {
			support += n
		}
		for p, n := range row {
			v.Heatmap = append(v.Heatmap, model.HeatCell{
				Actual:    res.Labels[a],
				Predicted: res.Labels[p],
				Count:     n,
				Share:     safeDiv(n, support),
			})
		}
	}
	return v
}

func parseScenario(name string) (model.SplitRatio, error) {
	r, err := model.ParseSplitRatio(name)
	if err != nil {
		return r, &ConfigurationError{Reason: err.Error()}
	}
	return r, nil
}

func delta(metric string, a, b float64) model.MetricDelta {
	return model.MetricDelta{Metric: metric, First: a, Second: b, Delta: b - a}
}

func scenarioNames(ratios []model.SplitRatio) []string {
	out := make([]string, len(ratios))
	for i, r := range ratios {
		out[i] = r.Name()
	}
	return out
}
