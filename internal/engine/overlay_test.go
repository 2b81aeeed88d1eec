package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

func cleanScenario() model.Scenario {
	return model.Scenario{
		CreditScore:   740,
		LTV:           75,
		DTI:           36,
		LoanAmount:    400000,
		PropertyType:  model.PropertySFR,
		Occupancy:     model.OccupancyPrimary,
		IncomeDocType: model.IncomeDocFullDoc,
		CreditEvent:   model.CreditEventNone,
	}
}

func TestAssessOverlayRisk(t *testing.T) {
	t.Parallel()

	t.Run("clean file is low with no signals", func(t *testing.T) {
		s := cleanScenario()
		got := AssessOverlayRisk(&s)
		assert.Equal(t, model.OverlayLow, got.Level)
		assert.Zero(t, got.SignalCount)
		assert.Zero(t, got.TotalWeight)
	})

	t.Run("two mild signals stay low", func(t *testing.T) {
		s := cleanScenario()
		s.SelfEmployed = true
		s.IncomeDocType = model.IncomeDocBankStatement12
		got := AssessOverlayRisk(&s)
		assert.Equal(t, model.OverlayLow, got.Level)
		assert.Equal(t, 2, got.TotalWeight)
		assert.Zero(t, got.HighWeightCount)
	})

	t.Run("recent bankruptcy alone is moderate", func(t *testing.T) {
		s := cleanScenario()
		s.CreditScore = 690
		s.CreditEvent = model.CreditEventBankruptcy
		s.CreditEventMonths = 18
		got := AssessOverlayRisk(&s)
		assert.Equal(t, model.OverlayModerate, got.Level)
		assert.Equal(t, 2, got.TotalWeight)
		assert.Equal(t, 1, got.HighWeightCount)
		assert.Contains(t, got.Signals, "Recent BK (18 mo)")
	})

	t.Run("seasoned bankruptcy carries no signal", func(t *testing.T) {
		s := cleanScenario()
		s.CreditEvent = model.CreditEventBankruptcy
		s.CreditEventMonths = 60
		got := AssessOverlayRisk(&s)
		assert.Equal(t, model.OverlayLow, got.Level)
		assert.Zero(t, got.SignalCount)
	})

	t.Run("foreclosure seasons at 84 months", func(t *testing.T) {
		s := cleanScenario()
		s.CreditEvent = model.CreditEventForeclosure
		s.CreditEventMonths = 60
		got := AssessOverlayRisk(&s)
		assert.Equal(t, 1, got.HighWeightCount)
	})

	t.Run("three mild signals are moderate", func(t *testing.T) {
		s := cleanScenario()
		s.CreditScore = 640
		s.LTV = 92
		s.DTI = 44
		got := AssessOverlayRisk(&s)
		assert.Equal(t, model.OverlayModerate, got.Level)
		assert.Equal(t, 3, got.TotalWeight)
		assert.Zero(t, got.HighWeightCount)
	})

	t.Run("stacked heavy signals are high", func(t *testing.T) {
		s := cleanScenario()
		s.CreditScore = 600
		s.LTV = 96
		s.DTI = 52
		got := AssessOverlayRisk(&s)
		assert.Equal(t, model.OverlayHigh, got.Level)
		assert.Equal(t, 6, got.TotalWeight)
		assert.Equal(t, 3, got.HighWeightCount)
	})

	t.Run("boundary values carry no signal", func(t *testing.T) {
		s := cleanScenario()
		s.CreditScore = 660
		s.LTV = 90
		s.DTI = 43
		got := AssessOverlayRisk(&s)
		assert.Equal(t, model.OverlayLow, got.Level)
		assert.Zero(t, got.SignalCount)
	})

	t.Run("investment and jumbo stack as mild signals", func(t *testing.T) {
		s := cleanScenario()
		s.Occupancy = model.OccupancyInvestment
		s.LoanAmount = 900000
		got := AssessOverlayRisk(&s)
		assert.Equal(t, model.OverlayLow, got.Level)
		assert.Equal(t, 2, got.TotalWeight)
		assert.Contains(t, got.Signals, "Investment property")
		assert.Contains(t, got.Signals, "Loan exceeds conforming limit")
	})
}
