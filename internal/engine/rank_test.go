package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

func eligibleResult(id string, fit float64, source model.DataSource) model.LenderResult {
	return model.LenderResult{
		LenderID:            id,
		Eligible:            true,
		FitScore:            fit,
		DataSource:          source,
		IsPlaceholder:       source == model.DataSourcePlaceholder,
		ExcludeFromCombined: source == model.DataSourcePlaceholder,
	}
}

func TestRankAndPackageSeparateSections(t *testing.T) {
	t.Parallel()

	agency := []model.LenderResult{
		eligibleResult("a_low", 40, model.DataSourceReal),
		eligibleResult("a_high", 80, model.DataSourceReal),
		{LenderID: "a_out", FailReason: "DTI too high", DataSource: model.DataSourceReal},
	}
	nonQM := []model.LenderResult{
		eligibleResult("n_mid", 60, model.DataSourcePlaceholder),
	}
	s := cleanScenario()

	payload := RankAndPackage(agency, nonQM, &s, model.OverlayAssessment{Level: model.OverlayLow},
		model.Confidence{Score: 1, Level: model.ConfidenceHigh}, model.ModeSeparateSections, time.Now())

	require.Len(t, payload.AgencySection.Eligible, 2)
	assert.Equal(t, "a_high", payload.AgencySection.Eligible[0].LenderID)
	assert.Equal(t, "a_low", payload.AgencySection.Eligible[1].LenderID)
	assert.Len(t, payload.AgencySection.Ineligible, 1)
	assert.Equal(t, 2, payload.AgencySection.TotalEligible)
	assert.False(t, payload.AgencySection.NoMatch)

	assert.False(t, payload.NonQMSection.IsHero)
	assert.True(t, payload.NonQMSection.HasPlaceholders)
	assert.True(t, payload.NonQMSection.ShowPlaceholderWarning)
	assert.True(t, payload.NonQMSection.Visible)
	assert.Nil(t, payload.CombinedSection)
	assert.True(t, payload.HasPlaceholderResults)
	assert.Equal(t, 3, payload.TotalEligible)
}

func TestRankAndPackageHeroSection(t *testing.T) {
	t.Parallel()

	agency := []model.LenderResult{
		{LenderID: "a_out", FailReason: "seasoning", DataSource: model.DataSourceReal},
	}
	nonQM := []model.LenderResult{
		eligibleResult("n_1", 60, model.DataSourcePlaceholder),
	}
	s := cleanScenario()
	s.IncomeDocType = model.IncomeDocBankStatement12

	payload := RankAndPackage(agency, nonQM, &s, model.OverlayAssessment{},
		model.Confidence{}, model.ModeSeparateSections, time.Now())

	assert.True(t, payload.AgencySection.NoMatch)
	assert.NotEmpty(t, payload.AgencySection.NoMatchMessage)
	assert.True(t, payload.NonQMSection.IsHero)
}

func TestRankAndPackageSectionCap(t *testing.T) {
	t.Parallel()

	var agency []model.LenderResult
	for i := 0; i < 14; i++ {
		agency = append(agency, eligibleResult(fmt.Sprintf("a_%02d", i), float64(i), model.DataSourceReal))
	}
	s := cleanScenario()

	payload := RankAndPackage(agency, nil, &s, model.OverlayAssessment{},
		model.Confidence{}, model.ModeSeparateSections, time.Now())

	assert.Len(t, payload.AgencySection.Eligible, 10)
	assert.Equal(t, 14, payload.AgencySection.TotalEligible)
	assert.Equal(t, "a_13", payload.AgencySection.Eligible[0].LenderID)
}

func TestRankAndPackageStableTies(t *testing.T) {
	t.Parallel()

	agency := []model.LenderResult{
		eligibleResult("first", 50, model.DataSourceReal),
		eligibleResult("second", 50, model.DataSourceReal),
		eligibleResult("third", 50, model.DataSourceReal),
	}
	s := cleanScenario()

	payload := RankAndPackage(agency, nil, &s, model.OverlayAssessment{},
		model.Confidence{}, model.ModeSeparateSections, time.Now())

	assert.Equal(t, "first", payload.AgencySection.Eligible[0].LenderID)
	assert.Equal(t, "second", payload.AgencySection.Eligible[1].LenderID)
	assert.Equal(t, "third", payload.AgencySection.Eligible[2].LenderID)
}

func TestRankAndPackageCombinedRanked(t *testing.T) {
	t.Parallel()

	agency := []model.LenderResult{
		eligibleResult("a_1", 70, model.DataSourceReal),
	}
	nonQM := []model.LenderResult{
		eligibleResult("n_real", 85, model.DataSourceReal),
		eligibleResult("n_placeholder", 90, model.DataSourcePlaceholder),
	}
	s := cleanScenario()

	payload := RankAndPackage(agency, nonQM, &s, model.OverlayAssessment{},
		model.Confidence{}, model.ModeCombinedRanked, time.Now())

	require.NotNil(t, payload.CombinedSection)
	require.Len(t, payload.CombinedSection.Eligible, 2)
	assert.Equal(t, "n_real", payload.CombinedSection.Eligible[0].LenderID)
	assert.Equal(t, "a_1", payload.CombinedSection.Eligible[1].LenderID)
}

func TestRankAndPackageFallbackOnly(t *testing.T) {
	t.Parallel()

	s := cleanScenario()
	nonQM := []model.LenderResult{eligibleResult("n_1", 60, model.DataSourcePlaceholder)}

	t.Run("hidden when agency matches exist", func(t *testing.T) {
		agency := []model.LenderResult{eligibleResult("a_1", 70, model.DataSourceReal)}
		payload := RankAndPackage(agency, nonQM, &s, model.OverlayAssessment{},
			model.Confidence{}, model.ModeFallbackOnly, time.Now())
		assert.False(t, payload.NonQMSection.Visible)
	})

	t.Run("shown when agency has no matches", func(t *testing.T) {
		payload := RankAndPackage(nil, nonQM, &s, model.OverlayAssessment{},
			model.Confidence{}, model.ModeFallbackOnly, time.Now())
		assert.True(t, payload.NonQMSection.Visible)
	})
}

func TestScenarioSummary(t *testing.T) {
	t.Parallel()

	s := model.Scenario{
		LoanType:        "Conventional",
		TransactionType: model.TransactionPurchase,
		LoanAmount:      400000,
		CreditScore:     720,
		LTV:             85,
		PropertyType:    model.PropertySFR,
		Occupancy:       model.OccupancyPrimary,
		State:           "TX",
	}
	assert.Equal(t, "Conventional | Purchase | $400,000 | 720 FICO | 85% LTV | SFR | Primary | TX",
		scenarioSummary(&s))
}

func TestNoMatchMessages(t *testing.T) {
	t.Parallel()

	t.Run("full doc scenarios hide the non-QM path", func(t *testing.T) {
		s := cleanScenario()
		assert.Equal(t, "Non-QM results are not shown for full documentation scenarios.", noNonQMMatchMessage(&s))
	})

	t.Run("deep subprime credit", func(t *testing.T) {
		s := cleanScenario()
		s.IncomeDocType = model.IncomeDocBankStatement12
		s.CreditScore = 480
		assert.Contains(t, noNonQMMatchMessage(&s), "below all Non-QM minimums")
	})

	t.Run("agency no-match cites the income type", func(t *testing.T) {
		s := cleanScenario()
		s.IncomeDocType = model.IncomeDocDSCR
		msg := noAgencyMatchMessage(&s)
		assert.Contains(t, msg, `Income type "dscr" is not accepted by Agency lenders`)
		assert.Contains(t, msg, "See Alternative Path below.")
	})
}
