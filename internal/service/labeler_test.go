package service

import (
	"testing"

	"phonecbr/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestLabelWithRule(t *testing.T) {
	tests := []struct {
		name     string
		p        model.Phone
		category model.Category
		rule     string
	}{
		{"flagship gaming", model.Phone{RAM: 12, Battery: 5000, ScreenSize: 6.5, CameraMP: 200}, model.CategoryGaming, "flagship-gaming"},
		{"camera before memory", model.Phone{RAM: 16, Battery: 4800, ScreenSize: 6.1, CameraMP: 64}, model.CategoryPhotography, "high-resolution-camera"},
		{"high memory gaming", model.Phone{RAM: 16, Battery: 4500, ScreenSize: 6.1, CameraMP: 50}, model.CategoryGaming, "high-memory-gaming"},
		{"large screen camera", model.Phone{RAM: 8, Battery: 5000, ScreenSize: 6.4, CameraMP: 50}, model.CategoryPhotography, "large-screen-camera"},
		{"small screen 50 MP", model.Phone{RAM: 8, Battery: 5000, ScreenSize: 6.1, CameraMP: 50}, model.CategoryDaily, "default"},
		{"entry level", model.Phone{RAM: 4, Battery: 5000, ScreenSize: 6.6, CameraMP: 13}, model.CategoryDaily, "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rule := LabelWithRule(&tt.p)
			assert.Equal(t, tt.category, c)
			assert.Equal(t, tt.rule, rule)
			assert.Equal(t, c, Label(&tt.p))
		})
	}
}

func TestLabelCounts(t *testing.T) {
	counts := LabelCounts(samplePhones())
	assert.Equal(t, map[model.Category]int{
		model.CategoryGaming:      2, // ROG Phone 8, Poco X6 Pro
		model.CategoryPhotography: 2, // Galaxy A15, Redmi Note 13
		model.CategoryDaily:       2, // iPhone 15, Itel A70
	}, counts)

	empty := LabelCounts(nil)
	assert.Len(t, empty, len(model.Categories))
	for _, c := range model.Categories {
		assert.Zero(t, empty[c])
	}
}
