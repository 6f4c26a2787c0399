package service

import (
	"testing"

	"phonecbr/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentParse(t *testing.T) {
	p := NewIntentParser()

	tests := []struct {
		name       string
		text       string
		profile    string
		confidence float64
		maxPrice   *float64
	}{
		{"gaming with budget", "HP gaming murah buat main PUBG 5 juta", ProfileGaming, 1, ptr(5_000_000)},
		{"photography", "kamera bagus untuk foto", ProfilePhotography, 1, nil},
		{"battery phrase", "yang tahan lama", ProfileBattery, 0.75, nil},
		{"tie goes to earlier profile", "gaming and camera", ProfileGaming, 0.75, nil},
		{"short budget", "budget 3.5jt", ProfileBudget, 0.75, ptr(3_500_000)},
		{"thousands", "under 1500k", ProfileDaily, 0, ptr(1_500_000)},
		{"no keywords", "something nice", ProfileDaily, 0, nil},
		{"empty", "  ", ProfileDaily, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.text)
			assert.Equal(t, tt.profile, got.Profile)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
			if tt.maxPrice == nil {
				assert.Nil(t, got.MaxPrice)
			} else {
				require.NotNil(t, got.MaxPrice)
				assert.InDelta(t, *tt.maxPrice, *got.MaxPrice, 1e-6)
			}
		})
	}
}

func TestIntentKeywordsMatchWholeWords(t *testing.T) {
	got := NewIntentParser().Parse("videography")
	assert.Equal(t, ProfileDaily, got.Profile)
	assert.Empty(t, got.Keywords)
}

func TestIntentApply(t *testing.T) {
	p := NewIntentParser()

	q := model.QuerySpec{RAM: ptr(8)}
	preset := p.Apply(&model.UsageIntent{Profile: ProfileGaming}, &q)
	assert.Equal(t, "performance", preset)
	assert.Equal(t, 8.0, *q.RAM, "explicit values are kept")
	require.NotNil(t, q.Battery)
	assert.Equal(t, 5000.0, *q.Battery)
	assert.Equal(t, 6.6, *q.ScreenSize)

	q = model.QuerySpec{}
	assert.Equal(t, "photography", p.Apply(&model.UsageIntent{Profile: ProfilePhotography}, &q))
	assert.Equal(t, 64.0, *q.CameraMP)

	q = model.QuerySpec{}
	assert.Equal(t, "balanced", p.Apply(&model.UsageIntent{Profile: "unknown"}, &q))
	assert.Equal(t, model.QuerySpec{}, q)

	for _, prof := range usageProfiles {
		_, err := Preset(prof.preset)
		assert.NoError(t, err, prof.name)
	}
}
