package service

import "phonecbr/internal/model"

// labelRule assigns Category when Match holds. The first matching rule wins.
type labelRule struct {
	Name     string
	Category model.Category
	Match    func(p *model.Phone) bool
}

// labelRules is the ground-truth policy for evaluation. It depends only on the
// record's own attributes.
var labelRules = []labelRule{
	{
		Name:     "flagship-gaming",
		Category: model.CategoryGaming,
		Match: func(p *model.Phone) bool {
			return p.RAM >= 12 && p.Battery >= 5000 && p.ScreenSize >= 6.5
		},
	},
	{
		Name:     "high-resolution-camera",
		Category: model.CategoryPhotography,
		Match:    func(p *model.Phone) bool { return p.CameraMP >= 64 },
	},
	{
		Name:     "high-memory-gaming",
		Category: model.CategoryGaming,
		Match: func(p *model.Phone) bool {
			return p.RAM >= 16 && p.Battery >= 4500
		},
	},
	{
		Name:     "large-screen-camera",
		Category: model.CategoryPhotography,
		Match: func(p *model.Phone) bool {
			return p.CameraMP >= 50 && p.ScreenSize >= 6.4
		},
	},
}

// Label returns the usage category of a record.
func Label(p *model.Phone) model.Category {
	c, _ := LabelWithRule(p)
	return c
}

// LabelWithRule returns the category and the name of the rule that produced
// it.
func LabelWithRule(p *model.Phone) (model.Category, string) {
	for _, r := range labelRules {
		if r.Match(p) {
			return r.Category, r.Name
		}
	}
	return model.CategoryDaily, "default"
}

// LabelCounts counts the category of every phone.
func LabelCounts(phones []model.Phone) map[model.Category]int {
	counts := make(map[model.Category]int, len(model.Categories))
	for _, c := range model.Categories {
		counts[c] = 0
	}
	for i := range phones {
		counts[Label(&phones[i])]++
	}
	return counts
}
