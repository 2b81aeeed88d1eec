package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

// maxResultsPerSection caps how many eligible lenders each section shows.
const maxResultsPerSection = 10

// RankAndPackage splits results into eligible and ineligible, sorts eligible
// lenders by fit score, and assembles the presentation payload for the
// requested mode. Ties keep evaluation order so identical inputs always
// produce identical output.
func RankAndPackage(agencyResults, nonQMResults []model.LenderResult, s *model.Scenario,
	overlay model.OverlayAssessment, confidence model.Confidence, mode model.PresentationMode, now time.Time) model.MatchPayload {

	agencyEligible, agencyIneligible := splitEligible(agencyResults)
	nonQMEligible, nonQMIneligible := splitEligible(nonQMResults)

	sortByFit(agencyEligible)
	sortByFit(nonQMEligible)

	agencySection := model.SectionSummary{
		Type:            "Agency",
		Eligible:        capResults(agencyEligible),
		Ineligible:      agencyIneligible,
		TotalEligible:   len(agencyEligible),
		TotalIneligible: len(agencyIneligible),
		NoMatch:         len(agencyEligible) == 0,
		Visible:         true,
	}
	if agencySection.NoMatch {
		agencySection.NoMatchMessage = noAgencyMatchMessage(s)
	}

	hasPlaceholders := anyPlaceholder(nonQMEligible)
	nonQMSection := model.SectionSummary{
		Type:                   "NonQM",
		Eligible:               capResults(nonQMEligible),
		Ineligible:             nonQMIneligible,
		TotalEligible:          len(nonQMEligible),
		TotalIneligible:        len(nonQMIneligible),
		NoMatch:                len(nonQMEligible) == 0,
		IsHero:                 len(agencyEligible) == 0,
		HasPlaceholders:        hasPlaceholders,
		ShowPlaceholderWarning: hasPlaceholders,
		Visible:                true,
	}
	if nonQMSection.NoMatch {
		nonQMSection.NoMatchMessage = noNonQMMatchMessage(s)
	}

	var combined *model.SectionSummary
	switch mode {
	case model.ModeCombinedRanked:
		// Placeholders never compete head-to-head with verified lenders.
		merged := append([]model.LenderResult{}, agencyEligible...)
		for _, r := range nonQMEligible {
			if !r.ExcludeFromCombined {
				merged = append(merged, r)
			}
		}
		sortByFit(merged)
		combined = &model.SectionSummary{
			Type:          "Combined",
			Eligible:      capResults(merged),
			TotalEligible: len(merged),
			Visible:       true,
		}
	case model.ModeFallbackOnly:
		if len(agencyEligible) > 0 {
			nonQMSection.Visible = false
		}
	}

	return model.MatchPayload{
		Mode:                  mode,
		Intent:                s.Intent,
		ScenarioSummary:       scenarioSummary(s),
		Scenario:              s.Clone(),
		Confidence:            confidence,
		OverlayRisk:           overlay,
		AgencySection:         agencySection,
		NonQMSection:          nonQMSection,
		CombinedSection:       combined,
		HasPlaceholderResults: hasPlaceholders,
		TotalEligible:         len(agencyEligible) + len(nonQMEligible),
		Timestamp:             now.UTC(),
	}
}

func splitEligible(results []model.LenderResult) (eligible, ineligible []model.LenderResult) {
	for _, r := range results {
		if r.Eligible {
			eligible = append(eligible, r)
		} else {
			ineligible = append(ineligible, r)
		}
	}
	return eligible, ineligible
}

func sortByFit(results []model.LenderResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FitScore > results[j].FitScore
	})
}

func capResults(results []model.LenderResult) []model.LenderResult {
	if len(results) > maxResultsPerSection {
		return results[:maxResultsPerSection]
	}
	return results
}

func anyPlaceholder(results []model.LenderResult) bool {
	for _, r := range results {
		if r.DataSource == model.DataSourcePlaceholder {
			return true
		}
	}
	return false
}

func scenarioSummary(s *model.Scenario) string {
	var parts []string
	if s.LoanType != "" {
		parts = append(parts, s.LoanType)
	}
	parts = append(parts, FormatTransaction(s.TransactionType))
	if s.LoanAmount > 0 {
		parts = append(parts, formatMoney(s.LoanAmount))
	}
	if s.CreditScore > 0 {
		parts = append(parts, fmt.Sprintf("%d FICO", s.CreditScore))
	}
	if s.LTV > 0 {
		parts = append(parts, fmt.Sprintf("%s%% LTV", formatPercent(s.LTV)))
	}
	if s.PropertyType != "" {
		parts = append(parts, string(s.PropertyType))
	}
	if s.Occupancy != "" {
		parts = append(parts, string(s.Occupancy))
	}
	if s.State != "" {
		parts = append(parts, s.State)
	}
	return strings.Join(parts, " | ")
}

func noAgencyMatchMessage(s *model.Scenario) string {
	var reasons []string
	if s.CreditScore < 580 {
		reasons = append(reasons, fmt.Sprintf("FICO %d is below most Agency minimums", s.CreditScore))
	}
	if s.CreditEvent != model.CreditEventNone {
		reasons = append(reasons, fmt.Sprintf("%s seasoning may not be satisfied", s.CreditEvent))
	}
	if s.IncomeDocType != model.IncomeDocFullDoc {
		reasons = append(reasons, fmt.Sprintf("Income type %q is not accepted by Agency lenders", s.IncomeDocType))
	}
	if s.LTV > 97 {
		reasons = append(reasons, fmt.Sprintf("LTV %s%% exceeds all Agency maximums", formatPercent(s.LTV)))
	}

	common := "Review FICO, LTV, DTI, and credit event seasoning"
	if len(reasons) > 0 {
		common = strings.Join(reasons, " | ")
	}
	return fmt.Sprintf("No Agency lenders matched this scenario. %s. See Alternative Path below.", common)
}

func noNonQMMatchMessage(s *model.Scenario) string {
	if s.IncomeDocType == model.IncomeDocFullDoc {
		return "Non-QM results are not shown for full documentation scenarios."
	}
	if s.CreditScore < 500 {
		return fmt.Sprintf("FICO %d is below all Non-QM minimums. Credit rehabilitation may be needed.", s.CreditScore)
	}
	if s.DSCR != nil && *s.DSCR < 0.75 {
		return fmt.Sprintf("DSCR %s is below all DSCR program minimums. Review rental income or reduce loan amount.", formatRatio(*s.DSCR))
	}
	return "No Non-QM profiles matched this scenario. Consider adjusting FICO, LTV, or loan amount."
}
