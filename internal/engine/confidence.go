package engine

import (
	"math"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

// ConfidenceOptions feed the guideline-currency half of the confidence
// blend. GuidelineAgesDays maps guideline version refs to their age; the
// oldest guideline in play drives the currency score.
type ConfidenceOptions struct {
	CatalogAvailable      bool
	GuidelineAgesDays     map[string]int
	HasPlaceholderResults bool
}

// CalculateConfidence blends input completeness and guideline currency,
// weighted evenly. Any placeholder result in the set caps currency at 0.75;
// an estimate can never carry full confidence.
func CalculateConfidence(s *model.Scenario, opts ConfidenceOptions) model.Confidence {
	completenessWeight := s.CompletenessScore * 0.50

	currency := 1.0
	if !opts.CatalogAvailable {
		currency = 0.70
	} else if len(opts.GuidelineAgesDays) > 0 {
		maxAge := 0
		for _, age := range opts.GuidelineAgesDays {
			if age > maxAge {
				maxAge = age
			}
		}
		switch {
		case maxAge <= 30:
			currency = 1.0
		case maxAge <= 90:
			currency = 0.85
		case maxAge <= 180:
			currency = 0.70
		default:
			currency = 0.55
		}
	}

	if opts.HasPlaceholderResults {
		currency = math.Min(currency, 0.75)
	}

	total := math.Round((completenessWeight+currency*0.50)*100) / 100

	var level model.ConfidenceLevel
	var message string
	switch {
	case total >= 0.85:
		level = model.ConfidenceHigh
		message = "All inputs provided. Guidelines current."
	case total >= 0.60:
		level = model.ConfidenceModerate
		message = "Some inputs estimated or guidelines may need verification."
	default:
		level = model.ConfidenceLow
		message = "Significant inputs missing or guideline data may be outdated. Verify with lender."
	}

	return model.Confidence{Score: total, Level: level, Message: message}
}
