package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"phonecbr/internal/model"
	"phonecbr/internal/utils"

	"github.com/rs/zerolog"
)

// RecommendationLogger records served recommendations.
type RecommendationLogger interface {
	LogRecommendation(ctx context.Context, entry model.RecommendationLog) error
}

// RecommendSettings holds the request defaults.
type RecommendSettings struct {
	DefaultTopK   int
	MaxTopK       int
	MinSimilarity float64
}

// RecommendationService handles recommendation business logic
type RecommendationService struct {
	catalog  *Catalog
	weights  *WeightService
	ranker   *Ranker
	intent   *IntentParser
	audit    RecommendationLogger
	settings RecommendSettings
	logger   zerolog.Logger
}

// NewRecommendationService creates a new recommendation service. audit may be
// nil.
func NewRecommendationService(
	catalog *Catalog,
	weights *WeightService,
	ranker *Ranker,
	intentParser *IntentParser,
	audit RecommendationLogger,
	settings RecommendSettings,
	logger zerolog.Logger,
) *RecommendationService {
	if settings.DefaultTopK <= 0 {
		settings.DefaultTopK = 10
	}
	if settings.MaxTopK < settings.DefaultTopK {
		settings.MaxTopK = settings.DefaultTopK
	}
	return &RecommendationService{
		catalog:  catalog,
		weights:  weights,
		ranker:   ranker,
		intent:   intentParser,
		audit:    audit,
		settings: settings,
		logger:   logger.With().Str("component", "recommend").Logger(),
	}
}

// Recommend ranks the catalog against the query. Weights in the request
// override the active vector for this call only.
func (s *RecommendationService) Recommend(ctx context.Context, req *model.RecommendRequest) (*model.RecommendResponse, error) {
	startTime := time.Now()

	weights, err := s.weights.Resolve(req.Weights)
	if err != nil {
		return nil, err
	}

	topK, minSim := s.settings.DefaultTopK, s.settings.MinSimilarity
	if req.Options != nil {
		if req.Options.TopK > 0 {
			topK = req.Options.TopK
		}
		if req.Options.MinSimilarity != nil {
			minSim = *req.Options.MinSimilarity
		}
	}
	if minSim < 0 || minSim > 1 {
		return nil, configErrorf("min_similarity %g must be within [0, 1]", minSim)
	}
	topK = min(topK, s.settings.MaxTopK)

	query := req.Query
	query.PreferredBrands = utils.CanonicalBrands(query.PreferredBrands)
	query.PreferredOS = utils.NormalizeOS(query.PreferredOS)
	query.Brand = utils.NormalizeBrand(query.Brand)
	query.OS = utils.NormalizeOS(query.OS)

	return s.retrieve(ctx, &query, weights, topK, minSim, nil, startTime)
}

// QuickRecommend builds a query from a budget, a few hard limits and a usage
// description. The usage profile picks the weight preset and soft targets.
func (s *RecommendationService) QuickRecommend(ctx context.Context, req *model.QuickRecommendRequest) (*model.RecommendResponse, error) {
	startTime := time.Now()
	snap := s.catalog.Snapshot()

	query := model.QuerySpec{
		RAM:         req.RAM,
		Storage:     req.Storage,
		MaxPrice:    req.MaxPrice,
		MinBattery:  req.MinBattery,
		PreferredOS: utils.NormalizeOS(req.PreferredOS),
	}
	if req.PreferredBrand != "" {
		query.PreferredBrands = matchBrands(snap, req.PreferredBrand)
		query.Brand = utils.NormalizeBrand(req.PreferredBrand)
	}

	intent := s.intent.Parse(req.Usage)
	if query.MaxPrice == nil && intent.MaxPrice != nil {
		query.MaxPrice = intent.MaxPrice
	}
	// Aim for the top of the budget.
	if query.MaxPrice != nil {
		query.Price = query.MaxPrice
	}
	preset := s.intent.Apply(intent, &query)

	weights := s.weights.Active()
	if strings.TrimSpace(req.Usage) != "" {
		p, err := Preset(preset)
		if err != nil {
			return nil, err
		}
		weights = p.Weights
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.settings.DefaultTopK
	}
	topK = min(topK, s.settings.MaxTopK)

	return s.retrieve(ctx, &query, weights, topK, s.settings.MinSimilarity, intent, startTime)
}

// Explain lists the match reasons of one stored phone against a query.
func (s *RecommendationService) Explain(ctx context.Context, req *model.ExplainRequest) (*model.ExplainResponse, error) {
	p, ok := s.catalog.Snapshot().Find(req.PhoneID)
	if !ok {
		return nil, phoneNotFound(req.PhoneID)
	}
	return &model.ExplainResponse{
		PhoneID:      p.ID,
		Explanations: Explain(&req.Query, p),
	}, nil
}

func (s *RecommendationService) retrieve(
	ctx context.Context,
	query *model.QuerySpec,
	weights model.WeightVector,
	topK int,
	minSim float64,
	intent *model.UsageIntent,
	startTime time.Time,
) (*model.RecommendResponse, error) {
	snap := s.catalog.Snapshot()
	res, err := s.ranker.Retrieve(ctx, snap, query, weights, topK, minSim)
	if err != nil {
		return nil, err
	}

	took := time.Since(startTime).Milliseconds()

	// Log recommendation (non-blocking)
	if s.audit != nil {
		entry, err := auditEntry(query, res.Results, snap.Version, took)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Recommendation query not recorded")
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.audit.LogRecommendation(ctx, entry); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to log recommendation")
			}
		}()
	}

	return &model.RecommendResponse{
		Results:        res.Results,
		Total:          len(res.Results),
		Candidates:     res.Candidates,
		CatalogVersion: snap.Version,
		WeightsUsed:    weights,
		Warnings:       res.Warning.Warnings(),
		Usage:          intent,
		Took:           took,
	}, nil
}

// matchBrands resolves a typed brand to the catalog brands it refers to. A
// term matching nothing is kept as is so the filter still applies.
func matchBrands(snap *Snapshot, term string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range snap.Phones {
		if !seen[p.Brand] && utils.FuzzyMatchBrand(term, p.Brand) {
			seen[p.Brand] = true
			out = append(out, p.Brand)
		}
	}
	if len(out) == 0 {
		out = utils.CanonicalBrands([]string{term})
	}
	return out
}

// auditEntry builds the audit row for a recommendation. When the query cannot
// be encoded the row is still returned, without the query.
func auditEntry(query *model.QuerySpec, results []model.RankedResult, version uint64, took int64) (model.RecommendationLog, error) {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = strconv.FormatInt(r.Phone.ID, 10)
	}
	entry := model.RecommendationLog{
		ResultCount:    len(results),
		PhoneIDs:       strings.Join(ids, ","),
		CatalogVersion: int64(version),
		ResponseTimeMs: int(took),
	}

	raw, err := json.Marshal(query)
	if err != nil {
		return entry, fmt.Errorf("failed to encode query: %w", err)
	}
	if err := json.Unmarshal(raw, &entry.Query); err != nil {
		return entry, fmt.Errorf("failed to decode query: %w", err)
	}
	return entry, nil
}
