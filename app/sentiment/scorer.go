package sentiment

import (
	"fmt"
	"math"

	"github.com/jonreiter/govader"
)

// Scorer computes the VADER compound sentiment of a text, in [-1, 1].
type Scorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func New() *Scorer {
	return &Scorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the compound score rounded to four decimals.
func (s *Scorer) Score(text string) (float64, error) {
	compound := s.analyzer.PolarityScores(text).Compound
	if math.IsNaN(compound) || math.IsInf(compound, 0) {
		return 0, fmt.Errorf("invalid compound score for %q", text)
	}
	return math.Round(compound*10000) / 10000, nil
}
