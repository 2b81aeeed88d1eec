// Package engine evaluates loan scenarios against the agency and non-QM
// lender catalogs: normalize, gate, score, assess overlay risk, label, and
// package ranked results. All logic is deterministic and pricing-free;
// ranking reads guideline fit only.
package engine

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/loanbeacons/lendermatch-cli/internal/catalog"
	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

// Engine evaluates scenarios against a fixed pair of catalogs. Safe for
// concurrent use; Run never mutates the catalogs.
type Engine struct {
	agency []model.AgencyLender
	nonQM  []model.NonQMLender
}

// Options tune a single match run.
type Options struct {
	// Mode selects the presentation packaging. Empty means SEPARATE_SECTIONS.
	Mode model.PresentationMode

	// AgencyOverrides and NonQMOverrides are raw override records merged
	// onto the catalogs before evaluation.
	AgencyOverrides []json.RawMessage
	NonQMOverrides  []json.RawMessage

	// CatalogUnavailable marks override data as unreachable, which reduces
	// guideline currency in the confidence blend.
	CatalogUnavailable bool

	// GuidelineAgesDays maps guideline version refs to their age in days.
	GuidelineAgesDays map[string]int

	// Now overrides the clock for testing.
	Now func() time.Time
}

// New builds an engine over the embedded catalogs.
func New() (*Engine, error) {
	agency, err := catalog.LoadAgency()
	if err != nil {
		return nil, err
	}
	nonQM, err := catalog.LoadNonQM()
	if err != nil {
		return nil, err
	}
	return &Engine{agency: agency, nonQM: nonQM}, nil
}

// NewWithCatalogs builds an engine over explicit catalogs.
func NewWithCatalogs(agency []model.AgencyLender, nonQM []model.NonQMLender) *Engine {
	return &Engine{agency: agency, nonQM: nonQM}
}

// Run executes the full evaluation pipeline for one scenario.
func (e *Engine) Run(raw RawScenario, opts Options) model.MatchPayload {
	mode := opts.Mode
	if mode == "" {
		mode = model.ModeSeparateSections
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	s := Normalize(raw)

	agencyLenders := catalog.MergeAgencyOverrides(e.agency, opts.AgencyOverrides)
	nonQMLenders := catalog.MergeNonQMOverrides(e.nonQM, opts.NonQMOverrides)

	overlay := AssessOverlayRisk(&s)

	// Provisional confidence feeds the controlled exception before the
	// placeholder penalty can apply; final confidence is computed after the
	// result set is known.
	confOpts := ConfidenceOptions{
		CatalogAvailable:  !opts.CatalogUnavailable,
		GuidelineAgesDays: opts.GuidelineAgesDays,
	}
	provisional := CalculateConfidence(&s, confOpts)

	agencyResults := e.evaluateAgency(agencyLenders, &s, overlay)

	agencyHasEligible := false
	for _, r := range agencyResults {
		if r.Eligible {
			agencyHasEligible = true
			break
		}
	}

	nonQMResults := e.evaluateNonQM(nonQMLenders, &s, overlay, provisional.Score, agencyHasEligible)

	hasPlaceholderResults := false
	for _, r := range nonQMResults {
		if r.Eligible && r.DataSource == model.DataSourcePlaceholder {
			hasPlaceholderResults = true
			break
		}
	}
	confOpts.HasPlaceholderResults = hasPlaceholderResults
	confidence := CalculateConfidence(&s, confOpts)

	payload := RankAndPackage(agencyResults, nonQMResults, &s, overlay, confidence, mode, now())

	zap.L().Debug("lender match completed",
		zap.String("summary", payload.ScenarioSummary),
		zap.Int("totalEligible", payload.TotalEligible),
		zap.String("overlayRisk", string(overlay.Level)),
		zap.Float64("confidence", confidence.Score))

	return payload
}

// resolveAgencyPrograms picks which agency programs to evaluate. A specific
// loan type narrows to that program; otherwise all three are tried.
func resolveAgencyPrograms(s *model.Scenario) []model.Program {
	if s.LoanType != "" && s.LoanType != "All" {
		return []model.Program{model.Program(s.LoanType)}
	}
	return model.AgencyProgramList
}

// resolveNonQMProgram maps the income documentation type to the non-QM
// program it routes to. Full documentation has no non-QM route.
func resolveNonQMProgram(s *model.Scenario) (model.Program, bool) {
	switch s.IncomeDocType {
	case model.IncomeDocBankStatement12:
		return model.ProgramBankStatement12, true
	case model.IncomeDocBankStatement24:
		return model.ProgramBankStatement24, true
	case model.IncomeDocDSCR:
		return model.ProgramDSCR, true
	case model.IncomeDocAssetDepletion:
		return model.ProgramAssetDepletion, true
	case model.IncomeDocNinetyNineOnly:
		return model.ProgramNinetyNineOnly, true
	case model.IncomeDocNoDoc:
		return model.ProgramNoDoc, true
	}
	return "", false
}

func (e *Engine) evaluateAgency(lenders []model.AgencyLender, s *model.Scenario, overlay model.OverlayAssessment) []model.LenderResult {
	var results []model.LenderResult

	if s.IsNonQMPath {
		// Agency lenders are full documentation only; suppress the whole
		// section with a pointer at the alternative path.
		for i := range lenders {
			lender := &lenders[i]
			results = append(results, model.LenderResult{
				LenderID:          lender.ID,
				LenderName:        lender.Name,
				ShortName:         lender.ShortName,
				Program:           "Agency",
				EligibilityStatus: model.StatusIneligible,
				FailReason: "Agency lenders require full income documentation. Selected: " +
					string(s.IncomeDocType) + ". See Alternative Path below.",
				DataSource:          lender.DataSource,
				Version:             lender.Version,
				GuidelineVersionRef: lender.GuidelineVersionRef,
			})
		}
		return results
	}

	programs := resolveAgencyPrograms(s)
	for i := range lenders {
		lender := &lenders[i]
		for _, program := range programs {
			if !lender.OffersProgram(program) {
				continue
			}

			gate := CheckAgencyEligibility(lender, program, s)
			tier := AgencyTier(lender)

			result := model.LenderResult{
				LenderID:            lender.ID,
				LenderName:          lender.Name,
				ShortName:           lender.ShortName,
				AccentColor:         lender.AccentColor,
				Program:             program,
				Eligible:            gate.Eligible,
				EligibilityStatus:   model.StatusIneligible,
				FailReason:          gate.FailReason,
				PassReasons:         gate.PassReasons,
				OverlayRisk:         overlay.Level,
				OverlaySignals:      overlay.Signals,
				Tier:                tier.Display,
				TierBasis:           tier.Basis,
				Strengths:           lender.Strengths,
				Weaknesses:          lender.Weaknesses,
				TierNotes:           lender.TierNotes,
				DataSource:          lender.DataSource,
				Version:             lender.Version,
				GuidelineVersionRef: lender.GuidelineVersionRef,
				Notes:               lender.Guidelines[program].Notes,
			}

			if gate.Eligible {
				scored := ScoreAgency(lender, program, s)
				result.EligibilityStatus = model.StatusEligible
				result.FitScore = scored.FitScore
				result.MaxPossible = scored.MaxPossible
				result.Breakdown = scored.Breakdown
				result.Narrative = buildAgencyNarrative(lender, program, s, scored.FitScore, scored.Breakdown)
			}
			result.EligibilityLabel = EligibilityLabel(result.EligibilityStatus, lender.DataSource)

			results = append(results, result)
		}
	}
	return results
}

func (e *Engine) evaluateNonQM(lenders []model.NonQMLender, s *model.Scenario, overlay model.OverlayAssessment,
	provisionalConfidence float64, agencyAlsoWorks bool) []model.LenderResult {

	program, ok := resolveNonQMProgram(s)
	if !ok {
		return nil
	}

	var results []model.LenderResult
	for i := range lenders {
		lender := &lenders[i]
		if !lender.Active || !lender.OffersProgram(program) {
			continue
		}

		gate := CheckNonQMEligibility(lender, program, s)
		tier := NonQMTier(lender)

		result := model.LenderResult{
			LenderID:            lender.ID,
			LenderName:          lender.ProfileName,
			ShortName:           lender.ShortName,
			AccentColor:         lender.AccentColor,
			Program:             program,
			Eligible:            gate.Eligible,
			EligibilityStatus:   model.StatusIneligible,
			FailReason:          gate.FailReason,
			PassReasons:         gate.PassReasons,
			ConditionalFlags:    gate.ConditionalFlags,
			SeasoningViolation:  gate.SeasoningViolation,
			OverlayRisk:         overlay.Level,
			OverlaySignals:      overlay.Signals,
			Tier:                tier.Display,
			TierBasis:           tier.Basis,
			Strengths:           lender.Strengths,
			Weaknesses:          lender.Weaknesses,
			TierNotes:           lender.TierNotes,
			TypicalUseCase:      lender.TypicalUseCase,
			DataSource:          lender.DataSource,
			Version:             lender.Version,
			GuidelineVersionRef: lender.GuidelineVersionRef,
			IsPlaceholder:       lender.IsPlaceholder(),
			ExcludeFromCombined: lender.IsPlaceholder(),
			Disclaimer:          lender.Disclaimer,
		}

		if gate.Eligible {
			scored := ScoreNonQM(lender, program, s)
			result.FitScore = scored.FitScore
			result.MaxPossible = scored.MaxPossible
			result.Breakdown = scored.Breakdown

			if lender.IsPlaceholder() {
				g := lender.Guidelines[program]
				meets := meetsControlledException(s, exceptionInput{
					overlayRisk:        overlay.Level,
					confidenceScore:    provisionalConfidence,
					seasoningViolation: gate.SeasoningViolation,
					conditionalFlags:   gate.ConditionalFlags,
					applicableMaxLTV:   scored.Breakdown["applicableMaxLTV"],
					matchedProgram:     program,
				}, &g)
				if meets {
					result.EligibilityStatus = model.StatusEligible
				} else {
					result.EligibilityStatus = model.StatusConditional
				}
			} else {
				result.EligibilityStatus = model.StatusEligible
			}
			result.Narrative = buildNonQMNarrative(lender, program, s, scored.Breakdown, agencyAlsoWorks)
		}
		result.EligibilityLabel = EligibilityLabel(result.EligibilityStatus, lender.DataSource)

		results = append(results, result)
	}
	return results
}
