package engine

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

// BuildDecisionRecord seals a lender selection into an immutable record.
// Everything the record says is copied from the result and scenario at
// selection time; later catalog changes never alter it. Only a result that
// passed eligibility gating can be sealed.
func BuildDecisionRecord(selected *model.LenderResult, s *model.Scenario, confidence model.Confidence, now time.Time) (*model.DecisionRecord, error) {
	if !selected.Eligible {
		return nil, eris.Errorf("engine: cannot build decision record for ineligible lender %s", selected.LenderID)
	}

	isPlaceholder := selected.DataSource == model.DataSourcePlaceholder

	rulesetVersion := selected.Version
	if isPlaceholder {
		rulesetVersion = 0
	} else if rulesetVersion == 0 {
		rulesetVersion = 1
	}

	reasons := make([]string, 0, len(selected.PassReasons)+len(selected.ConditionalFlags))
	reasons = append(reasons, selected.PassReasons...)
	for _, flag := range selected.ConditionalFlags {
		reasons = append(reasons, "FLAG: "+flag)
	}

	record := &model.DecisionRecord{
		RecordType:       model.RecordTypeLenderMatch,
		ScenarioSnapshot: s.Clone(),

		SelectedLenderID:  selected.LenderID,
		SelectedProgramID: selected.LenderID + "_" + string(selected.Program),
		ProfileName:       selected.LenderName,

		DataSource:          selected.DataSource,
		RulesetVersion:      rulesetVersion,
		GuidelineVersionRef: selected.GuidelineVersionRef,

		FitScore:          selected.FitScore,
		EligibilityStatus: selected.EligibilityStatus,
		OverlayRisk:       selected.OverlayRisk,
		ConfidenceScore:   confidence.Score,

		TierBasis: selected.TierBasis,
		Tier:      selected.Tier,

		ReasonsSnapshot:   reasons,
		NarrativeSnapshot: selected.Narrative,

		SelectedAt: now.UTC(),
	}

	if isPlaceholder {
		record.Placeholder = &model.PlaceholderProvenance{
			CreatedDate: selected.GuidelineVersionRef,
			Disclaimer:  selected.Disclaimer,
		}
	}

	return record, nil
}
