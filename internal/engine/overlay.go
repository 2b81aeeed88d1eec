package engine

import (
	"fmt"

	"github.com/loanbeacons/lendermatch-cli/internal/catalog"
	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

type overlaySignal struct {
	label  string
	weight int
}

// AssessOverlayRisk reads stacked risk factors off the scenario. Each signal
// carries a weight; compounding weight-2 signals push the level up. The
// assessment is scenario-level and identical for every lender result.
func AssessOverlayRisk(s *model.Scenario) model.OverlayAssessment {
	var signals []overlaySignal

	switch {
	case s.CreditScore < 620:
		signals = append(signals, overlaySignal{"FICO below 620", 2})
	case s.CreditScore < 660:
		signals = append(signals, overlaySignal{"FICO below 660", 1})
	}

	switch {
	case s.LTV > 95:
		signals = append(signals, overlaySignal{"LTV above 95%", 2})
	case s.LTV > 90:
		signals = append(signals, overlaySignal{"LTV above 90%", 1})
	}

	switch {
	case s.DTI > 50:
		signals = append(signals, overlaySignal{"DTI above 50%", 2})
	case s.DTI > 43:
		signals = append(signals, overlaySignal{"DTI above 43%", 1})
	}

	if s.CreditEvent != model.CreditEventNone {
		recentThreshold := 84
		if s.CreditEvent == model.CreditEventBankruptcy {
			recentThreshold = 48
		}
		if s.CreditEventMonths < recentThreshold {
			signals = append(signals, overlaySignal{
				fmt.Sprintf("Recent %s (%d mo)", s.CreditEvent, s.CreditEventMonths), 2})
		}
	}

	if s.SelfEmployed {
		signals = append(signals, overlaySignal{"Self-employed borrower", 1})
	}
	if s.IncomeDocType != model.IncomeDocFullDoc {
		signals = append(signals, overlaySignal{
			fmt.Sprintf("Non-standard income documentation (%s)", s.IncomeDocType), 1})
	}
	if s.Occupancy == model.OccupancyInvestment {
		signals = append(signals, overlaySignal{"Investment property", 1})
	}
	if s.LoanAmount > catalog.ConformingLimit {
		signals = append(signals, overlaySignal{"Loan exceeds conforming limit", 1})
	}

	totalWeight := 0
	highWeightCount := 0
	labels := make([]string, len(signals))
	for i, sig := range signals {
		totalWeight += sig.weight
		if sig.weight >= 2 {
			highWeightCount++
		}
		labels[i] = sig.label
	}

	var level model.OverlayRiskLevel
	switch {
	case totalWeight == 0:
		level = model.OverlayLow
	case totalWeight <= 2 && highWeightCount == 0:
		level = model.OverlayLow
	case totalWeight <= 4 && highWeightCount <= 1:
		level = model.OverlayModerate
	default:
		level = model.OverlayHigh
	}

	return model.OverlayAssessment{
		Level:           level,
		Signals:         labels,
		SignalCount:     len(signals),
		TotalWeight:     totalWeight,
		HighWeightCount: highWeightCount,
	}
}
