package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"phonecbr/internal/metrics"
	"phonecbr/internal/model"

	"github.com/rs/zerolog"
)

const (
	weightMin   = 0.0
	weightMax   = 100.0
	totalLow    = 99.0
	totalHigh   = 101.0
	presetCount = 5
)

// ValidateWeights checks that every attribute carries a weight in (0,100] and
// that the weights sum to 100 within a one point tolerance.
func ValidateWeights(w model.WeightVector) model.WeightValidation {
	total := w.Total()
	res := model.WeightValidation{Total: math.Round(total*1000) / 1000}
	for _, a := range model.Attributes {
		v := w.Get(a)
		if math.IsNaN(v) || v <= weightMin || v > weightMax {
			res.Reason = fmt.Sprintf("%s weight must be in (0,100], got %g", a, v)
			return res
		}
	}
	if total < totalLow || total > totalHigh {
		res.Reason = fmt.Sprintf("weights must sum to 100 (±1), got %g", res.Total)
		return res
	}
	res.Valid = true
	return res
}

func checkWeights(w model.WeightVector) error {
	if v := ValidateWeights(w); !v.Valid {
		return &ConfigurationError{Reason: v.Reason}
	}
	return nil
}

// WeightsFromMap builds a vector from attribute keys, rejecting unknown and
// missing attributes.
func WeightsFromMap(raw map[string]float64) (model.WeightVector, error) {
	w, err := model.WeightsFromMap(raw)
	if err != nil {
		return w, &ConfigurationError{Reason: err.Error()}
	}
	return w, nil
}

var presets = [presetCount]model.WeightPreset{
	{
		Name:        "balanced",
		Description: "Roughly equal weight on every attribute",
		Weights:     model.WeightVector{Price: 12, RAM: 12, Storage: 11, Battery: 11, Camera: 11, Screen: 11, Rating: 12, Brand: 10, OS: 10},
	},
	{
		Name:        "budget_focused",
		Description: "Price dominates the match",
		Weights:     model.WeightVector{Price: 40, RAM: 12, Storage: 8, Battery: 10, Camera: 8, Screen: 4, Rating: 10, Brand: 4, OS: 4},
	},
	{
		Name:        "performance",
		Description: "RAM and storage dominate the match",
		Weights:     model.WeightVector{Price: 10, RAM: 28, Storage: 22, Battery: 14, Camera: 5, Screen: 5, Rating: 8, Brand: 4, OS: 4},
	},
	{
		Name:        "photography",
		Description: "Camera resolution dominates the match",
		Weights:     model.WeightVector{Price: 14, RAM: 10, Storage: 14, Battery: 13, Camera: 33, Screen: 4, Rating: 4, Brand: 4, OS: 4},
	},
	{
		Name:        "battery_life",
		Description: "Battery capacity dominates the match",
		Weights:     model.WeightVector{Price: 14, RAM: 10, Storage: 9, Battery: 33, Camera: 9, Screen: 9, Rating: 8, Brand: 4, OS: 4},
	},
}

// Presets returns the named weight presets.
func Presets() []model.WeightPreset {
	out := make([]model.WeightPreset, len(presets))
	copy(out, presets[:])
	return out
}

// Preset looks up a named preset.
func Preset(name string) (model.WeightPreset, error) {
	for _, p := range presets {
		if p.Name == name {
			return p, nil
		}
	}
	return model.WeightPreset{}, &NotFoundError{Kind: "preset", ID: name}
}

// WeightStore persists the active weight vector.
type WeightStore interface {
	Load(ctx context.Context) (model.WeightVector, bool, error)
	Save(ctx context.Context, w model.WeightVector) error
}

// WeightService owns the active weight vector.
type WeightService struct {
	store  WeightStore
	logger zerolog.Logger

	mu     sync.RWMutex
	active model.WeightVector
	source string
}

// NewWeightService loads the persisted vector, falling back to the defaults
// when nothing valid is stored.
func NewWeightService(ctx context.Context, store WeightStore, logger zerolog.Logger) (*WeightService, error) {
	s := &WeightService{
		store:  store,
		logger: logger.With().Str("component", "weights").Logger(),
		active: model.DefaultWeights(),
		source: "default",
	}
	w, found, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load weights: %w", err)
	}
	if !found {
		return s, nil
	}
	if err := checkWeights(w); err != nil {
		s.logger.Warn().Err(err).Msg("Stored weights invalid, using defaults")
		return s, nil
	}
	s.active = w
	s.source = "store"
	return s, nil
}

// Active returns the active weight vector.
func (s *WeightService) Active() model.WeightVector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Describe returns the active vector with its total and origin.
func (s *WeightService) Describe() model.WeightsResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.WeightsResponse{Weights: s.active, Total: s.active.Total(), Source: s.source}
}

// Update validates and persists a new vector. An invalid vector is rejected
// with a ConfigurationError and nothing is saved.
func (s *WeightService) Update(ctx context.Context, w model.WeightVector) (model.WeightValidation, error) {
	v := ValidateWeights(w)
	if !v.Valid {
		metrics.RecordWeightUpdate(false)
		return v, &ConfigurationError{Reason: v.Reason}
	}
	if err := s.set(ctx, w, "custom"); err != nil {
		return v, err
	}
	metrics.RecordWeightUpdate(true)
	return v, nil
}

// Reset restores the default vector.
func (s *WeightService) Reset(ctx context.Context) (model.WeightVector, error) {
	w := model.DefaultWeights()
	if err := s.set(ctx, w, "default"); err != nil {
		return w, err
	}
	return w, nil
}

// ApplyPreset activates a named preset.
func (s *WeightService) ApplyPreset(ctx context.Context, name string) (model.WeightVector, error) {
	p, err := Preset(name)
	if err != nil {
		return model.WeightVector{}, err
	}
	if err := s.set(ctx, p.Weights, "preset:"+p.Name); err != nil {
		return model.WeightVector{}, err
	}
	return p.Weights, nil
}

func (s *WeightService) set(ctx context.Context, w model.WeightVector, source string) error {
	if err := s.store.Save(ctx, w); err != nil {
		return fmt.Errorf("failed to save weights: %w", err)
	}
	s.mu.Lock()
	s.active = w
	s.source = source
	s.mu.Unlock()
	s.logger.Info().Str("source", source).Float64("total", w.Total()).Msg("Weights updated")
	return nil
}

// Resolve returns the override when given (validated) or the active vector.
func (s *WeightService) Resolve(override *model.WeightVector) (model.WeightVector, error) {
	if override == nil {
		return s.Active(), nil
	}
	if err := checkWeights(*override); err != nil {
		return model.WeightVector{}, err
	}
	return *override, nil
}

// PresetNames lists preset names in alphabetical order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for _, p := range presets {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}
