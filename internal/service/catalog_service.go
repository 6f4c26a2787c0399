package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"phonecbr/internal/metrics"
	"phonecbr/internal/model"
	"phonecbr/internal/utils"

	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	topRatedCount   = 5
	importBatchSize = 100
)

// CatalogStore persists phone records.
type CatalogStore interface {
	ListPhones(ctx context.Context) ([]model.Phone, error)
	QueryPhones(ctx context.Context, filter *model.PhoneFilter, sortBy, sortOrder string, limit, offset int) ([]model.Phone, int, error)
	GetPhone(ctx context.Context, id int64) (*model.Phone, error)
	InsertPhone(ctx context.Context, p *model.Phone) error
	InsertPhones(ctx context.Context, phones []model.Phone) (int, []string)
	ReplacePhone(ctx context.Context, p *model.Phone) (bool, error)
	DeletePhone(ctx context.Context, id int64) (bool, error)
}

// FeatureStore persists normalized feature vectors per catalog version.
type FeatureStore interface {
	SyncFeatures(ctx context.Context, version uint64, items []model.FeatureItem) (int, []string)
	NearestByFeatures(ctx context.Context, features []float32, limit int) ([]int64, error)
}

// priceBuckets are the browse price ranges in rupiah. A zero max is open ended.
var priceBuckets = []struct {
	label    string
	min, max float64
}{
	{"Under 2 million", 0, 2_000_000},
	{"2 - 4 million", 2_000_000, 4_000_000},
	{"4 - 6 million", 4_000_000, 6_000_000},
	{"6 - 10 million", 6_000_000, 10_000_000},
	{"10 million and above", 10_000_000, 0},
}

// CatalogService keeps the persisted catalog and the in-memory snapshot in
// step. Every successful mutation is written to the store first, then applied
// to the in-memory catalog, which bumps the version.
type CatalogService struct {
	store    CatalogStore
	catalog  *Catalog
	ranker   *Ranker
	weights  *WeightService
	features FeatureStore
	logger   zerolog.Logger

	syncMu sync.Mutex
}

// NewCatalogService creates a catalog service.
func NewCatalogService(
	store CatalogStore,
	catalog *Catalog,
	ranker *Ranker,
	weights *WeightService,
	logger zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		store:   store,
		catalog: catalog,
		ranker:  ranker,
		weights: weights,
		logger:  logger.With().Str("component", "catalog").Logger(),
	}
}

// WithFeatureStore enables feature vector sync after each catalog change.
func (s *CatalogService) WithFeatureStore(fs FeatureStore) *CatalogService {
	s.features = fs
	return s
}

// Catalog exposes the in-memory catalog.
func (s *CatalogService) Catalog() *Catalog {
	return s.catalog
}

// Reload replaces the in-memory catalog with the stored records.
func (s *CatalogService) Reload(ctx context.Context) (uint64, error) {
	phones, err := s.store.ListPhones(ctx)
	if err != nil {
		return 0, err
	}
	version := s.catalog.Load(phones)
	s.changed(version)
	s.logger.Info().Int("phones", len(phones)).Uint64("catalog_version", version).Msg("Catalog loaded")
	return version, nil
}

// List returns one page of stored phones.
func (s *CatalogService) List(ctx context.Context, req *model.PhoneListRequest) (*model.PhoneListResponse, error) {
	page, size := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	offset := (page - 1) * size

	phones, total, err := s.store.QueryPhones(ctx, &req.PhoneFilter, req.SortBy, req.SortOrder, size, offset)
	if err != nil {
		return nil, err
	}
	return &model.PhoneListResponse{
		Phones:     phones,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: (total + size - 1) / size,
		HasMore:    offset+len(phones) < total,
	}, nil
}

// Get returns one phone from the current snapshot.
func (s *CatalogService) Get(ctx context.Context, id int64) (*model.Phone, error) {
	p, ok := s.catalog.Snapshot().Find(id)
	if !ok {
		return nil, phoneNotFound(id)
	}
	cp := *p
	return &cp, nil
}

// Add validates and stores a new phone. A zero ID is assigned by the store.
func (s *CatalogService) Add(ctx context.Context, p *model.Phone) (*model.Phone, error) {
	if err := prepare(p); err != nil {
		return nil, err
	}
	if p.ID != 0 {
		if _, exists := s.catalog.Snapshot().Find(p.ID); exists {
			return nil, &PhoneValidationError{Err: fmt.Errorf("id %d already exists", p.ID)}
		}
	}
	if err := s.store.InsertPhone(ctx, p); err != nil {
		return nil, err
	}
	s.changed(s.catalog.Put(*p))
	s.logger.Info().Int64("phone_id", p.ID).Str("name", p.Name).Msg("Phone added")
	return p, nil
}

// Import stores phones in batches and reloads the catalog once. progress,
// when set, receives the size of each stored batch.
func (s *CatalogService) Import(ctx context.Context, phones []model.Phone, progress func(n int)) (int, []string, error) {
	valid := make([]model.Phone, 0, len(phones))
	var errs []string
	for i := range phones {
		p := phones[i]
		if err := prepare(&p); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", p.Name, err))
			continue
		}
		valid = append(valid, p)
	}

	inserted := 0
	for lo := 0; lo < len(valid); lo += importBatchSize {
		if err := ctx.Err(); err != nil {
			return inserted, errs, err
		}
		batch := valid[lo:min(lo+importBatchSize, len(valid))]
		n, batchErrs := s.store.InsertPhones(ctx, batch)
		inserted += n
		errs = append(errs, batchErrs...)
		if progress != nil {
			progress(len(batch))
		}
	}
	if _, err := s.Reload(ctx); err != nil {
		return inserted, errs, err
	}
	return inserted, errs, nil
}

// Replace overwrites the stored phone with the given ID.
func (s *CatalogService) Replace(ctx context.Context, id int64, p *model.Phone) (*model.Phone, error) {
	p.ID = id
	if err := prepare(p); err != nil {
		return nil, err
	}
	ok, err := s.store.ReplacePhone(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, phoneNotFound(id)
	}
	s.changed(s.catalog.Put(*p))
	return p, nil
}

// Delete removes a phone.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	ok, err := s.store.DeletePhone(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return phoneNotFound(id)
	}
	if version, removed := s.catalog.Remove(id); removed {
		s.changed(version)
	}
	s.logger.Info().Int64("phone_id", id).Msg("Phone deleted")
	return nil
}

// Similar retrieves the phones closest to a stored phone under the active
// weights, excluding the phone itself.
func (s *CatalogService) Similar(ctx context.Context, id int64, topK int) (*model.SimilarResponse, error) {
	snap := s.catalog.Snapshot()
	p, ok := snap.Find(id)
	if !ok {
		return nil, phoneNotFound(id)
	}
	// Every other phone is the most there can be.
	topK = min(topK, len(snap.Phones)-1)
	query := model.QueryFromPhone(p)
	res, err := s.ranker.Retrieve(ctx, snap, &query, s.weights.Active(), topK+1, 0)
	if err != nil {
		return nil, err
	}
	similar := make([]model.RankedResult, 0, len(res.Results))
	for _, r := range res.Results {
		if r.Phone.ID == id || len(similar) == topK {
			continue
		}
		r.Rank = len(similar) + 1
		similar = append(similar, r)
	}
	return &model.SimilarResponse{Phone: *p, Similar: similar}, nil
}

// Statistics summarizes the current snapshot.
func (s *CatalogService) Statistics(ctx context.Context) *model.CatalogStatistics {
	snap := s.catalog.Snapshot()
	stats := &model.CatalogStatistics{
		CatalogVersion: snap.Version,
		TotalPhones:    len(snap.Phones),
		Brands:         []string{},
		OperatingSys:   []string{},
		RAMOptions:     []float64{},
		StorageOptions: []float64{},
		Labels:         LabelCounts(snap.Phones),
		Degenerate:     snap.Normalizer.Degenerate(),
	}
	if len(snap.Phones) == 0 {
		return stats
	}

	brands := map[string]bool{}
	oses := map[string]bool{}
	rams := map[float64]bool{}
	storages := map[float64]bool{}
	stats.Price.Min = math.Inf(1)
	stats.Price.Max = math.Inf(-1)
	var sum float64
	for _, p := range snap.Phones {
		if p.InStock {
			stats.InStock++
		}
		brands[p.Brand] = true
		oses[p.OS] = true
		rams[p.RAM] = true
		storages[p.Storage] = true
		stats.Price.Min = math.Min(stats.Price.Min, p.Price)
		stats.Price.Max = math.Max(stats.Price.Max, p.Price)
		sum += p.Price
	}
	stats.Price.Mean = sum / float64(len(snap.Phones))
	stats.Brands = sortedKeys(brands)
	stats.OperatingSys = sortedKeys(oses)
	stats.RAMOptions = sortedFloats(rams)
	stats.StorageOptions = sortedFloats(storages)
	return stats
}

// Brands counts phones per brand, most common first.
func (s *CatalogService) Brands(ctx context.Context) []model.BrandCount {
	counts := map[string]int{}
	for _, p := range s.catalog.Snapshot().Phones {
		counts[p.Brand]++
	}
	out := make([]model.BrandCount, 0, len(counts))
	for b, c := range counts {
		out = append(out, model.BrandCount{Brand: b, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Brand < out[j].Brand
	})
	return out
}

// PriceRanges counts phones per price bucket.
func (s *CatalogService) PriceRanges(ctx context.Context) []model.PriceRange {
	out := make([]model.PriceRange, len(priceBuckets))
	for i, b := range priceBuckets {
		out[i] = model.PriceRange{Label: b.label, Min: b.min}
		if b.max > 0 {
			max := b.max
			out[i].Max = &max
		}
	}
	for _, p := range s.catalog.Snapshot().Phones {
		for i, b := range priceBuckets {
			if p.Price >= b.min && (b.max == 0 || p.Price < b.max) {
				out[i].Count++
				break
			}
		}
	}
	return out
}

// Dashboard aggregates the admin overview.
func (s *CatalogService) Dashboard(ctx context.Context) *model.Dashboard {
	snap := s.catalog.Snapshot()
	d := &model.Dashboard{
		CatalogVersion: snap.Version,
		TotalPhones:    len(snap.Phones),
		Brands:         s.Brands(ctx),
		OS:             map[string]int{},
		PriceRanges:    s.PriceRanges(ctx),
		Categories:     LabelCounts(snap.Phones),
		ActiveWeights:  s.weights.Active(),
	}
	for _, p := range snap.Phones {
		d.OS[p.OS]++
	}

	top := make([]model.Phone, len(snap.Phones))
	copy(top, snap.Phones)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Rating > top[j].Rating })
	if len(top) > topRatedCount {
		top = top[:topRatedCount]
	}
	d.TopRated = top
	return d
}

// SyncFeatures writes the normalized feature vectors of the current snapshot.
func (s *CatalogService) SyncFeatures(ctx context.Context) (*model.FeatureSyncResponse, error) {
	if s.features == nil {
		return nil, configErrorf("feature vector store is not enabled")
	}
	return s.syncSnapshot(ctx, s.catalog.Snapshot()), nil
}

// NearestStored looks up the phones whose stored feature vectors are closest
// to the given phone's.
func (s *CatalogService) NearestStored(ctx context.Context, id int64, limit int) ([]model.Phone, error) {
	if s.features == nil {
		return nil, configErrorf("feature vector store is not enabled")
	}
	snap := s.catalog.Snapshot()
	p, ok := snap.Find(id)
	if !ok {
		return nil, phoneNotFound(id)
	}
	limit = min(limit, len(snap.Phones)-1)
	if limit <= 0 {
		return []model.Phone{}, nil
	}
	ids, err := s.features.NearestByFeatures(ctx, snap.Normalizer.Vector(p), limit+1)
	if err != nil {
		return nil, err
	}
	out := make([]model.Phone, 0, len(ids))
	for _, nid := range ids {
		if nid == id || len(out) == limit {
			continue
		}
		if n, ok := snap.Find(nid); ok {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (s *CatalogService) syncSnapshot(ctx context.Context, snap *Snapshot) *model.FeatureSyncResponse {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	resp := &model.FeatureSyncResponse{CatalogVersion: snap.Version}
	// A newer version may already have been synced.
	if snap.Version < s.catalog.Version() {
		return resp
	}
	items := make([]model.FeatureItem, len(snap.Phones))
	for i := range snap.Phones {
		items[i] = model.FeatureItem{
			PhoneID:        snap.Phones[i].ID,
			CatalogVersion: snap.Version,
			Features:       snap.Normalizer.Vector(&snap.Phones[i]),
		}
	}
	resp.Success, resp.Errors = s.features.SyncFeatures(ctx, snap.Version, items)
	resp.Failed = len(items) - resp.Success
	return resp
}

// changed publishes catalog metrics and schedules a feature sync for version.
func (s *CatalogService) changed(version uint64) {
	snap := s.catalog.Snapshot()
	metrics.RecordCatalog(snap.Version, len(snap.Phones), len(snap.Normalizer.Degenerate()))
	if s.features == nil || snap.Version != version {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		resp := s.syncSnapshot(ctx, snap)
		if len(resp.Errors) > 0 {
			s.logger.Warn().Strs("errors", resp.Errors).Uint64("catalog_version", version).Msg("Feature sync incomplete")
		}
	}()
}

// prepare canonicalizes and validates a phone before it is stored.
func prepare(p *model.Phone) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Brand = utils.NormalizeBrand(p.Brand)
	p.OS = utils.NormalizeOS(p.OS)
	if p.CameraMP == 0 && p.CameraSpec != "" {
		p.CameraMP = utils.ParseCameraMP(p.CameraSpec)
	}
	if err := p.Validate(); err != nil {
		return &PhoneValidationError{Err: err}
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedFloats(m map[float64]bool) []float64 {
	out := make([]float64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Float64s(out)
	return out
}
