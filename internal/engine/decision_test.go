package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

func TestBuildDecisionRecord(t *testing.T) {
	t.Parallel()

	selectedAt := time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)
	s := dscrScenario()
	confidence := model.Confidence{Score: 0.88, Level: model.ConfidenceHigh}

	selected := &model.LenderResult{
		LenderID:            "nonqm_placeholder_003",
		LenderName:          "Aggressive DSCR Profile",
		Program:             model.ProgramDSCR,
		Eligible:            true,
		EligibilityStatus:   model.StatusEligible,
		FitScore:            68,
		OverlayRisk:         model.OverlayLow,
		PassReasons:         []string{"FICO 700 meets minimum (620) with 80pt cushion"},
		ConditionalFlags:    []string{"SHORT_TERM_RENTAL_NOT_ACCEPTED"},
		TierBasis:           "Aggressive",
		Tier:                "Aggressive Profile",
		DataSource:          model.DataSourcePlaceholder,
		Version:             0,
		GuidelineVersionRef: "PLACEHOLDER-v0",
		Disclaimer:          "Estimated guidelines. Verify with lender before locking.",
		Narrative:           "Strong DSCR coverage with equity cushion.",
	}

	record, err := BuildDecisionRecord(selected, &s, confidence, selectedAt)
	require.NoError(t, err)

	assert.Equal(t, model.RecordTypeLenderMatch, record.RecordType)
	assert.Equal(t, "nonqm_placeholder_003", record.SelectedLenderID)
	assert.Equal(t, "nonqm_placeholder_003_DSCR", record.SelectedProgramID)
	assert.Equal(t, "Aggressive DSCR Profile", record.ProfileName)
	assert.Equal(t, model.DataSourcePlaceholder, record.DataSource)
	assert.Zero(t, record.RulesetVersion)
	assert.Equal(t, "PLACEHOLDER-v0", record.GuidelineVersionRef)
	assert.Equal(t, 68.0, record.FitScore)
	assert.Equal(t, 0.88, record.ConfidenceScore)
	assert.Equal(t, selectedAt, record.SelectedAt)

	assert.Equal(t, []string{
		"FICO 700 meets minimum (620) with 80pt cushion",
		"FLAG: SHORT_TERM_RENTAL_NOT_ACCEPTED",
	}, record.ReasonsSnapshot)

	require.NotNil(t, record.Placeholder)
	assert.Equal(t, "PLACEHOLDER-v0", record.Placeholder.CreatedDate)
	assert.Equal(t, "Estimated guidelines. Verify with lender before locking.", record.Placeholder.Disclaimer)
}

func TestBuildDecisionRecordRejectsIneligible(t *testing.T) {
	t.Parallel()

	s := dscrScenario()
	selected := &model.LenderResult{
		LenderID:   "nonqm_placeholder_004",
		Eligible:   false,
		FailReason: "FICO below minimum",
	}

	record, err := BuildDecisionRecord(selected, &s, model.Confidence{}, time.Now())
	assert.Nil(t, record)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonqm_placeholder_004")
}

func TestBuildDecisionRecordVerifiedLender(t *testing.T) {
	t.Parallel()

	s := agencyScenario()
	selected := &model.LenderResult{
		LenderID:            "agency_001",
		LenderName:          "United Wholesale Mortgage",
		Program:             model.ProgramConventional,
		Eligible:            true,
		EligibilityStatus:   model.StatusEligible,
		FitScore:            67,
		DataSource:          model.DataSourceReal,
		Version:             3,
		GuidelineVersionRef: "2026-07",
	}

	record, err := BuildDecisionRecord(selected, &s, model.Confidence{Score: 1}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, record.RulesetVersion)
	assert.Nil(t, record.Placeholder)
	assert.Equal(t, "agency_001_Conventional", record.SelectedProgramID)
}

func TestBuildDecisionRecordSnapshotIsIndependent(t *testing.T) {
	t.Parallel()

	s := dscrScenario()
	selected := &model.LenderResult{
		LenderID:   "nonqm_placeholder_003",
		Eligible:   true,
		DataSource: model.DataSourcePlaceholder,
	}

	record, err := BuildDecisionRecord(selected, &s, model.Confidence{}, time.Now())
	require.NoError(t, err)

	*s.DSCR = 0.5
	s.CreditScore = 0
	assert.Equal(t, 1.3, *record.ScenarioSnapshot.DSCR)
	assert.Equal(t, 700, record.ScenarioSnapshot.CreditScore)
}
