package service

import (
	"context"
	"errors"
	"testing"

	"phonecbr/internal/model"
	"phonecbr/internal/weights"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWeights(t *testing.T) {
	scaled := func(f float64) model.WeightVector {
		w := model.DefaultWeights()
		w.Price *= f
		w.RAM *= f
		w.Storage *= f
		w.Battery *= f
		w.Camera *= f
		w.Screen *= f
		w.Rating *= f
		w.Brand *= f
		w.OS *= f
		return w
	}
	withPrice := func(v float64) model.WeightVector {
		w := model.DefaultWeights()
		w.Price = v
		return w
	}

	tests := []struct {
		name  string
		w     model.WeightVector
		valid bool
	}{
		{"defaults", model.DefaultWeights(), true},
		{"sum 90", scaled(0.9), false},
		{"sum 110", scaled(1.1), false},
		{"sum 100.2 within tolerance", withPrice(25.2), true},
		{"sum 101 at upper bound", withPrice(26), true},
		{"zero weight", withPrice(0), false},
		{"negative weight", withPrice(-5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidateWeights(tt.w)
			assert.Equal(t, tt.valid, v.Valid, v.Reason)
			if !tt.valid {
				assert.NotEmpty(t, v.Reason)
			}
		})
	}
}

func TestPresetsAreValid(t *testing.T) {
	require.Len(t, Presets(), 5)
	for _, p := range Presets() {
		v := ValidateWeights(p.Weights)
		assert.True(t, v.Valid, "%s: %s", p.Name, v.Reason)
		assert.InDelta(t, 100, p.Weights.Total(), 1e-9, p.Name)
	}

	_, err := Preset("nope")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "preset", nf.Kind)
	assert.Equal(t, []string{"balanced", "battery_life", "budget_focused", "performance", "photography"}, PresetNames())
}

func TestWeightsFromMap(t *testing.T) {
	raw := map[string]float64{
		"price": 25, "ram": 15, "storage": 10, "battery": 15, "camera": 10,
		"screen": 5, "rating": 10, "brand": 5, "os": 5,
	}
	w, err := WeightsFromMap(raw)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultWeights(), w)

	raw["weight"] = 1
	_, err = WeightsFromMap(raw)
	assert.True(t, errors.Is(err, ErrConfiguration))

	delete(raw, "weight")
	delete(raw, "os")
	_, err = WeightsFromMap(raw)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "os")
}

func TestWeightService(t *testing.T) {
	ctx := context.Background()
	store := weights.NewMemoryStore()
	ws, err := NewWeightService(ctx, store, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultWeights(), ws.Active())
	assert.Equal(t, "default", ws.Describe().Source)

	t.Run("invalid update is rejected and not persisted", func(t *testing.T) {
		bad := model.DefaultWeights()
		bad.Price = 40
		v, err := ws.Update(ctx, bad)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.False(t, v.Valid)
		assert.Equal(t, model.DefaultWeights(), ws.Active())
		_, saved, _ := store.Load(ctx)
		assert.False(t, saved)
	})

	t.Run("valid update persists", func(t *testing.T) {
		good := model.DefaultWeights()
		good.Price, good.RAM = 30, 10
		_, err := ws.Update(ctx, good)
		require.NoError(t, err)
		assert.Equal(t, good, ws.Active())

		reloaded, err := NewWeightService(ctx, store, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, good, reloaded.Active())
	})

	t.Run("preset and reset", func(t *testing.T) {
		w, err := ws.ApplyPreset(ctx, "photography")
		require.NoError(t, err)
		assert.Equal(t, w, ws.Active())
		assert.Equal(t, "preset:photography", ws.Describe().Source)

		_, err = ws.ApplyPreset(ctx, "unknown")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = ws.Reset(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.DefaultWeights(), ws.Active())
	})

	t.Run("resolve override", func(t *testing.T) {
		w, err := ws.Resolve(nil)
		require.NoError(t, err)
		assert.Equal(t, ws.Active(), w)

		bad := model.WeightVector{Price: 100}
		_, err = ws.Resolve(&bad)
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestWeightServiceIgnoresInvalidStoredVector(t *testing.T) {
	ctx := context.Background()
	store := weights.NewMemoryStore()
	require.NoError(t, store.Save(ctx, model.WeightVector{Price: 50}))

	ws, err := NewWeightService(ctx, store, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultWeights(), ws.Active())
}
