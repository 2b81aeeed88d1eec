package engine

import (
	"fmt"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

// TierIndicator is the display-safe tier for a lender result. The display
// label never carries pricing language; it reads platform strength for
// agency lenders and guideline posture for non-QM profiles.
type TierIndicator struct {
	Display string
	Basis   string
}

var agencyTierDisplay = map[string]string{
	"A+": "Premier Platform",
	"A":  "Solid Platform",
	"B+": "Good Platform",
	"B":  "Standard Platform",
	"C":  "Specialty Platform",
}

// AgencyTier maps the lender's grade to its display label.
func AgencyTier(lender *model.AgencyLender) TierIndicator {
	display, ok := agencyTierDisplay[lender.Tier]
	if !ok {
		display = "Verified Lender"
	}
	return TierIndicator{Display: display, Basis: lender.Tier}
}

// NonQMTier labels verified records by lender name and placeholder records
// by their guideline posture.
func NonQMTier(lender *model.NonQMLender) TierIndicator {
	var display string
	if lender.DataSource == model.DataSourceReal {
		display = fmt.Sprintf("Verified - %s", lender.ShortName)
	} else {
		display = fmt.Sprintf("%s Profile", lender.TierBasis)
	}
	return TierIndicator{Display: display, Basis: string(lender.TierBasis)}
}

// EligibilityLabel is the display label for a result status. Placeholder
// eligibility is always qualified as an estimate.
func EligibilityLabel(status model.EligibilityStatus, source model.DataSource) string {
	switch status {
	case model.StatusIneligible:
		return "Ineligible"
	case model.StatusConditional:
		return "Conditional"
	case model.StatusEligible:
		if source == model.DataSourcePlaceholder {
			return "Eligible (Profile-Based Estimate)"
		}
		return "Eligible"
	}
	return "Unknown"
}
