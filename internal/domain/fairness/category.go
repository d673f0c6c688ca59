package fairness

// Category buckets an overall score
type Category string

const (
	CategoryExcellent Category = "excellent"
	CategoryGood      Category = "good"
	CategoryFair      Category = "fair"
	CategoryPoor      Category = "poor"
)

// CategoryThresholds are the lower bounds for each category
type CategoryThresholds struct {
	Excellent float64
	Good      float64
	Fair      float64
}

// DefaultThresholds matches the documented defaults of 90/75/60
var DefaultThresholds = CategoryThresholds{Excellent: 90, Good: 75, Fair: 60}

// Categorize maps a score to its category
func (t CategoryThresholds) Categorize(score float64) Category {
	switch {
	case score >= t.Excellent:
		return CategoryExcellent
	case score >= t.Good:
		return CategoryGood
	case score >= t.Fair:
		return CategoryFair
	default:
		return CategoryPoor
	}
}

// ClampScore bounds a score to [0, 100]
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
