package service

import (
	"context"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"phonecbr/internal/metrics"
	"phonecbr/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultSplitSeed seeds the reproducible train/test shuffle.
const DefaultSplitSeed = 42

// Evaluator measures the distance metric as a k-NN classifier against the
// rule-derived category labels.
type Evaluator struct {
	workers  int
	seed     int64
	logger   zerolog.Logger
	progress func(done int)
}

// NewEvaluator creates an evaluator. The seed fixes the split so repeated runs
// against an unchanged catalog use the same partition.
func NewEvaluator(workers int, seed int64, logger zerolog.Logger) *Evaluator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Evaluator{
		workers: workers,
		seed:    seed,
		logger:  logger.With().Str("component", "evaluator").Logger(),
	}
}

// WithProgress returns a copy that reports each classified test record. fn is
// called from worker goroutines.
func (e *Evaluator) WithProgress(fn func(done int)) *Evaluator {
	cp := *e
	cp.progress = fn
	return &cp
}

type labeledCase struct {
	id    int64
	c     model.Case
	label model.Category
}

type neighbour struct {
	id    int64
	dist  float64
	label model.Category
}

// Split partitions phones into training and testing subsets: records are
// ordered by ID, shuffled with the evaluator's seed and cut at
// floor(n*train/(train+test)).
func (e *Evaluator) Split(phones []model.Phone, ratio model.SplitRatio) (train, test []model.Phone, err error) {
	if err := ratio.Validate(); err != nil {
		return nil, nil, &ConfigurationError{Reason: err.Error()}
	}
	ordered := make([]model.Phone, len(phones))
	copy(ordered, phones)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	rng := rand.New(rand.NewSource(e.seed))
	rng.Shuffle(len(ordered), func(i, j int) { ordered[i], ordered[j] = ordered[j], ordered[i] })

	cut := len(ordered) * ratio.Train / (ratio.Train + ratio.Test)
	return ordered[:cut], ordered[cut:], nil
}

// Evaluate runs one split scenario over the snapshot.
func (e *Evaluator) Evaluate(
	ctx context.Context,
	snap *Snapshot,
	ratio model.SplitRatio,
	k int,
	weights model.WeightVector,
) (*model.EvaluationResult, error) {
	start := time.Now()
	res, err := e.evaluate(ctx, snap, ratio, k, weights)
	if err != nil {
		metrics.RecordEvaluation(ratio.Name(), time.Since(start), 0, err)
		return nil, err
	}
	res.Took = time.Since(start).Milliseconds()
	metrics.RecordEvaluation(ratio.Name(), time.Since(start), res.Accuracy, nil)
	e.logger.Info().
		Str("scenario", res.Scenario).
		Int("train", res.TrainSize).
		Int("test", res.TestSize).
		Int("k", k).
		Float64("accuracy", res.Accuracy).
		Float64("f1", res.Weighted.F1).
		Msg("Scenario evaluated")
	return res, nil
}

func (e *Evaluator) evaluate(
	ctx context.Context,
	snap *Snapshot,
	ratio model.SplitRatio,
	k int,
	weights model.WeightVector,
) (*model.EvaluationResult, error) {
	if err := checkWeights(weights); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, configErrorf("k must be positive, got %d", k)
	}
	trainSet, testSet, err := e.Split(snap.Phones, ratio)
	if err != nil {
		return nil, err
	}
	if len(trainSet) == 0 {
		return nil, configErrorf("training subset empty (catalog has %d phones, scenario %s)", len(snap.Phones), ratio.Name())
	}
	if len(testSet) == 0 {
		return nil, configErrorf("testing subset empty (catalog has %d phones, scenario %s)", len(snap.Phones), ratio.Name())
	}

	train := labelCases(trainSet)
	test := labelCases(testSet)
	predicted := make([]model.Category, len(test))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range test {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			predicted[i] = predict(test[i].c, train, k, weights, snap.Normalizer)
			if e.progress != nil {
				e.progress(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	actual := make([]model.Category, len(test))
	for i := range test {
		actual[i] = test[i].label
	}
	res := Score(actual, predicted)
	res.RunID = uuid.NewString()
	res.Scenario = ratio.Name()
	res.TrainSize = len(trainSet)
	res.TestSize = len(testSet)
	res.TrainPercentage = float64(ratio.Train) * 100 / float64(ratio.Train+ratio.Test)
	res.TestPercentage = 100 - res.TrainPercentage
	res.K = k
	res.WeightsUsed = weights
	res.CatalogVersion = snap.Version
	res.EvaluatedAt = time.Now().UTC()
	return res, nil
}

func labelCases(phones []model.Phone) []labeledCase {
	out := make([]labeledCase, len(phones))
	for i := range phones {
		out[i] = labeledCase{id: phones[i].ID, c: phones[i].Case(), label: Label(&phones[i])}
	}
	return out
}

// predict takes the k nearest training cases (distance ties by ID) and returns
// the majority label. Label ties go to the label whose nearest member is
// closest.
func predict(q model.Case, train []labeledCase, k int, w model.WeightVector, n *Normalizer) model.Category {
	ns := make([]neighbour, len(train))
	for i := range train {
		ns[i] = neighbour{id: train[i].id, dist: Distance(q, train[i].c, w, n), label: train[i].label}
	}
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].dist != ns[j].dist {
			return ns[i].dist < ns[j].dist
		}
		return ns[i].id < ns[j].id
	})
	if k > len(ns) {
		k = len(ns)
	}

	counts := make(map[model.Category]int, len(model.Categories))
	first := make(map[model.Category]int, len(model.Categories))
	for pos, nb := range ns[:k] {
		if _, seen := first[nb.label]; !seen {
			first[nb.label] = pos
		}
		counts[nb.label]++
	}

	var best model.Category
	bestCount, bestFirst := -1, 0
	for label, c := range counts {
		if c > bestCount || (c == bestCount && first[label] < bestFirst) {
			best, bestCount, bestFirst = label, c, first[label]
		}
	}
	return best
}

// Score builds the confusion matrix and derived metrics. Classes without
// support or without predictions score 0 instead of failing.
func Score(actual, predicted []model.Category) *model.EvaluationResult {
	nc := len(model.Categories)
	cm := make([][]int, nc)
	for i := range cm {
		cm[i] = make([]int, nc)
	}
	for i := range actual {
		a, p := actual[i].Index(), predicted[i].Index()
		if a < 0 || p < 0 {
			continue
		}
		cm[a][p]++
	}

	total, trace := 0, 0
	rowSum := make([]int, nc)
	colSum := make([]int, nc)
	for a := 0; a < nc; a++ {
		for p := 0; p < nc; p++ {
			total += cm[a][p]
			rowSum[a] += cm[a][p]
			colSum[p] += cm[a][p]
		}
		trace += cm[a][a]
	}

	res := &model.EvaluationResult{
		Labels:          append([]model.Category(nil), model.Categories...),
		ConfusionMatrix: cm,
		PerClass:        make([]model.ClassMetrics, nc),
	}
	res.Accuracy = safeDiv(trace, total)
	for c := 0; c < nc; c++ {
		precision := safeDiv(cm[c][c], colSum[c])
		recall := safeDiv(cm[c][c], rowSum[c])
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		res.PerClass[c] = model.ClassMetrics{
			Category:  model.Categories[c],
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   rowSum[c],
		}
		if total > 0 {
			share := float64(rowSum[c]) / float64(total)
			res.Weighted.Precision += share * precision
			res.Weighted.Recall += share * recall
			res.Weighted.F1 += share * f1
		}
	}
	return res
}

func safeDiv(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
