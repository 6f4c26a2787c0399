package service

import (
	"context"
	"runtime"
	"sort"
	"strings"
	"time"

	"phonecbr/internal/metrics"
	"phonecbr/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// minChunk is the smallest slice of candidates handed to one scoring worker.
const minChunk = 256

// Ranker scores catalog snapshots against queries.
type Ranker struct {
	workers int
	logger  zerolog.Logger
}

// NewRanker creates a ranker that scores with up to workers goroutines.
func NewRanker(workers int, logger zerolog.Logger) *Ranker {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ranker{
		workers: workers,
		logger:  logger.With().Str("component", "ranker").Logger(),
	}
}

// Retrieval is the output of one retrieval pass.
type Retrieval struct {
	Results    []model.RankedResult
	Candidates int
	Warning    DegenerateDataWarning
}

// Retrieve filters, scores, ranks and truncates the snapshot for query. Invalid
// weights fail before any scoring. An empty catalog or no surviving candidate
// is an empty result, not an error.
func (r *Ranker) Retrieve(
	ctx context.Context,
	snap *Snapshot,
	query *model.QuerySpec,
	weights model.WeightVector,
	topK int,
	minSimilarity float64,
) (*Retrieval, error) {
	start := time.Now()
	out, err := r.retrieve(ctx, snap, query, weights, topK, minSimilarity)
	if err != nil {
		metrics.RecordRetrieval(time.Since(start), 0, err)
		return nil, err
	}
	metrics.RecordRetrieval(time.Since(start), out.Candidates, nil)
	return out, nil
}

func (r *Ranker) retrieve(
	ctx context.Context,
	snap *Snapshot,
	query *model.QuerySpec,
	weights model.WeightVector,
	topK int,
	minSimilarity float64,
) (*Retrieval, error) {
	if err := checkWeights(weights); err != nil {
		return nil, err
	}

	out := &Retrieval{Results: []model.RankedResult{}, Warning: snap.Normalizer.Warning()}
	if len(out.Warning.Attributes) > 0 {
		r.logger.Warn().Str("warning", out.Warning.String()).Uint64("catalog_version", snap.Version).Msg("Degenerate attributes")
	}

	candidates := make([]*model.Phone, 0, len(snap.Phones))
	for i := range snap.Phones {
		if passesHardFilters(&snap.Phones[i], query) {
			candidates = append(candidates, &snap.Phones[i])
		}
	}
	out.Candidates = len(candidates)
	if len(candidates) == 0 || topK <= 0 {
		return out, nil
	}

	scored, err := r.score(ctx, snap.Normalizer, query.Case(), weights, candidates)
	if err != nil {
		return nil, err
	}

	kept := scored[:0]
	for _, s := range scored {
		if s.Similarity >= minSimilarity {
			kept = append(kept, s)
		}
	}
	sortResults(kept)
	if len(kept) > topK {
		kept = kept[:topK]
	}
	for i := range kept {
		kept[i].Rank = i + 1
		kept[i].Explanations = Explain(query, &kept[i].Phone)
	}
	out.Results = kept

	r.logger.Debug().
		Int("candidates", out.Candidates).
		Int("results", len(kept)).
		Uint64("catalog_version", snap.Version).
		Msg("Retrieval complete")
	return out, nil
}

// score computes distance and similarity for every candidate, splitting the
// work into chunks across the worker pool. Each worker writes a disjoint range
// of the output slice.
func (r *Ranker) score(
	ctx context.Context,
	n *Normalizer,
	q model.Case,
	weights model.WeightVector,
	candidates []*model.Phone,
) ([]model.RankedResult, error) {
	results := make([]model.RankedResult, len(candidates))
	chunk := (len(candidates) + r.workers - 1) / r.workers
	if chunk < minChunk {
		chunk = minChunk
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for lo := 0; lo < len(candidates); lo += chunk {
		lo, hi := lo, min(lo+chunk, len(candidates))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				p := candidates[i]
				d := Distance(q, p.Case(), weights, n)
				results[i] = model.RankedResult{
					Phone:      *p,
					Distance:   d,
					Similarity: Similarity(d),
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// sortResults orders by similarity desc, then rating desc, price asc and ID
// asc, which is a total order.
func sortResults(results []model.RankedResult) {
	sort.Slice(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.Phone.Rating != b.Phone.Rating {
			return a.Phone.Rating > b.Phone.Rating
		}
		if a.Phone.Price != b.Phone.Price {
			return a.Phone.Price < b.Phone.Price
		}
		return a.Phone.ID < b.Phone.ID
	})
}

// passesHardFilters applies the binary constraints of the query.
func passesHardFilters(p *model.Phone, q *model.QuerySpec) bool {
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	if q.MinRating != nil && p.Rating < *q.MinRating {
		return false
	}
	if q.MinBattery != nil && p.Battery < *q.MinBattery {
		return false
	}
	if os := strings.TrimSpace(q.PreferredOS); os != "" && !strings.EqualFold(os, p.OS) {
		return false
	}
	if len(q.PreferredBrands) > 0 && !containsFold(q.PreferredBrands, p.Brand) {
		return false
	}
	if q.InStockOnly && !p.InStock {
		return false
	}
	return true
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return true
		}
	}
	return false
}
