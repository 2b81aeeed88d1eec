package engine

import (
	"fmt"
	"strings"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

// buildAgencyNarrative writes the "why this lender" paragraph for an
// eligible agency result. Pure template logic over the score breakdown.
func buildAgencyNarrative(lender *model.AgencyLender, program model.Program, s *model.Scenario, fitScore float64, breakdown map[string]float64) string {
	var parts []string

	txLabel := strings.ToLower(FormatTransaction(s.TransactionType))
	switch {
	case fitScore >= 80:
		parts = append(parts, fmt.Sprintf("%s is an excellent match for this %s %s.",
			lender.ShortName, program, txLabel))
	case fitScore >= 65:
		parts = append(parts, fmt.Sprintf("%s is a solid match for this %s %s.",
			lender.ShortName, program, txLabel))
	default:
		parts = append(parts, fmt.Sprintf("%s qualifies for this %s scenario but offers less cushion than top-ranked options.",
			lender.ShortName, program))
	}

	ficoCushion := int(breakdown["ficoCushion"])
	switch {
	case ficoCushion >= 100:
		parts = append(parts, fmt.Sprintf("Your %d FICO is %d points above their minimum, a strong cushion.",
			s.CreditScore, ficoCushion))
	case ficoCushion >= 40:
		parts = append(parts, fmt.Sprintf("Your %d FICO meets their %d minimum with a %d-point cushion.",
			s.CreditScore, s.CreditScore-ficoCushion, ficoCushion))
	default:
		parts = append(parts, fmt.Sprintf("Your %d FICO is close to their minimum, so expect possible file scrutiny.",
			s.CreditScore))
	}

	switch lender.Tier {
	case "A+":
		parts = append(parts, "Their premier platform typically delivers competitive execution for this loan type.")
	case "A":
		parts = append(parts, lender.TierNotes)
	}

	if breakdown["ltvCushion"] < 5 {
		parts = append(parts, "Note: LTV is close to their ceiling, so strong documentation will be important.")
	}

	return strings.Join(parts, " ")
}

// buildNonQMNarrative writes the narrative for an eligible non-QM result.
// agencyAlsoWorks flips the framing between alternative and primary path.
func buildNonQMNarrative(lender *model.NonQMLender, program model.Program, s *model.Scenario, breakdown map[string]float64, agencyAlsoWorks bool) string {
	var parts []string
	g := lender.Guidelines[program]
	programLabel := FormatProgramLabel(program)

	if agencyAlsoWorks {
		parts = append(parts, fmt.Sprintf("%s's %s program is available as an alternative to Agency financing.",
			lender.ShortName, programLabel))
	} else {
		parts = append(parts, fmt.Sprintf("%s's %s program offers a viable path where Agency lending is not available.",
			lender.ShortName, programLabel))
	}

	switch {
	case program == model.ProgramDSCR && s.DSCR != nil && g.MinDSCR != nil:
		parts = append(parts, fmt.Sprintf("Your DSCR of %s meets their minimum of %s with no personal income documentation required.",
			formatRatio(*s.DSCR), formatPercent(*g.MinDSCR)))
	case (program == model.ProgramBankStatement12 || program == model.ProgramBankStatement24) && s.SelfEmployed:
		parts = append(parts, "Bank statement qualification uses your deposit history rather than tax returns, which suits self-employed borrowers with strong cash flow.")
	case program == model.ProgramAssetDepletion && s.TotalAssets > 0 && g.DepletionMonths != nil && *g.DepletionMonths > 0:
		monthly := int64(s.TotalAssets / *g.DepletionMonths)
		parts = append(parts, fmt.Sprintf("Your %s in assets qualifies as ~%s/month income using the %s-month depletion method.",
			formatMoney(s.TotalAssets), formatMoney(float64(monthly)), formatPercent(*g.DepletionMonths)))
	}

	if cushion := s.CreditScore - g.MinFICO; cushion >= 40 {
		parts = append(parts, fmt.Sprintf("Your %d FICO provides a %d-point cushion above their minimum.",
			s.CreditScore, cushion))
	}

	if lender.IsPlaceholder() {
		parts = append(parts, "Verify current guidelines directly with this lender type before quoting.")
	}

	return strings.Join(parts, " ")
}
