package engine

import (
	"fmt"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

// CheckNonQMEligibility runs the non-QM gates: program offered, FICO, loan
// amount, per-occupancy LTV ceiling, property type, the DSCR investment-only
// rule, program-specific metric floors, seasoning, and state licensing.
// Short-term rental acceptance, reserve shortfalls, and cash-out caps do not
// block eligibility; they surface as conditional flags.
func CheckNonQMEligibility(lender *model.NonQMLender, program model.Program, s *model.Scenario) GateResult {
	g, ok := lender.Guidelines[program]
	if !ok {
		return fail(fmt.Sprintf("Lender does not offer %s", program))
	}
	if !lender.OffersProgram(program) {
		return fail(fmt.Sprintf("%s does not offer %s", lender.ShortName, program))
	}

	if s.CreditScore < g.MinFICO {
		return fail(fmt.Sprintf("FICO %d below %s %s minimum of %d",
			s.CreditScore, lender.ShortName, program, g.MinFICO))
	}

	if s.LoanAmount > g.MaxLoanAmount {
		return fail(fmt.Sprintf("Loan amount %s exceeds %s %s limit of %s",
			formatMoney(s.LoanAmount), lender.ShortName, program, formatMoney(g.MaxLoanAmount)))
	}

	ltvBlock := g.MaxLTV.ForOccupancy(s.Occupancy)
	if ltvBlock == nil {
		return fail(fmt.Sprintf("%s %s does not allow %s occupancy",
			lender.ShortName, program, s.Occupancy))
	}
	maxLTV := ltvBlock.ForTransaction(s.TransactionType)
	if maxLTV == 0 {
		maxLTV = ltvBlock.Purchase
	}
	if s.LTV > maxLTV {
		return fail(fmt.Sprintf("LTV %s%% exceeds %s %s %s %s limit of %s%%",
			formatPercent(s.LTV), lender.ShortName, program, s.Occupancy,
			s.TransactionType, formatPercent(maxLTV)))
	}

	if !g.AllowsPropertyType(s.PropertyType) {
		return fail(fmt.Sprintf("%s %s does not allow %s", lender.ShortName, program, s.PropertyType))
	}

	if program == model.ProgramDSCR {
		if s.Occupancy == model.OccupancyPrimary {
			return fail("DSCR programs are for investment properties only")
		}
		if s.DSCR == nil {
			return fail("DSCR ratio is required for DSCR programs. Enter gross rent and property details.")
		}
		if g.MinDSCR != nil && *s.DSCR < *g.MinDSCR {
			return fail(fmt.Sprintf("DSCR %s is below %s minimum of %s",
				formatRatio(*s.DSCR), lender.ShortName, formatPercent(*g.MinDSCR)))
		}
	}

	if program == model.ProgramAssetDepletion && g.MinAssets != nil {
		if s.TotalAssets == 0 || s.TotalAssets < *g.MinAssets {
			return fail(fmt.Sprintf("Documented assets %s below %s minimum of %s",
				formatMoney(s.TotalAssets), lender.ShortName, formatMoney(*g.MinAssets)))
		}
	}

	if reason := checkSeasoning(g.BKSeasoning, g.FCSeasoning, g.ShortSaleSeasoning,
		s.CreditEvent, s.CreditEventMonths, lender.ShortName, program); reason != "" {
		return GateResult{FailReason: reason, SeasoningViolation: true}
	}

	if len(g.States) > 0 && !containsString(g.States, "ALL") && s.State != "" {
		if !containsString(g.States, s.State) {
			return fail(fmt.Sprintf("%s is not licensed in %s", lender.ShortName, s.State))
		}
	}

	var flags []string
	if s.IsShortTermRental && (g.AllowsShortTermRental == nil || !*g.AllowsShortTermRental) {
		flags = append(flags, "SHORT_TERM_RENTAL_NOT_ACCEPTED")
	}
	if g.MinReserveMonths > 0 && s.ReservesMonths < g.MinReserveMonths {
		flags = append(flags, fmt.Sprintf("RESERVES_BELOW_MINIMUM_%sMO", formatPercent(g.MinReserveMonths)))
	}
	if s.TransactionType == model.TransactionCashOut && g.CashOutMax != nil {
		cashOutAmount := s.LoanAmount - s.PropertyValue*(1-s.LTV/100)
		if cashOutAmount > *g.CashOutMax {
			flags = append(flags, fmt.Sprintf("CASH_OUT_MAY_EXCEED_CAP_%s", formatNumber(int64(*g.CashOutMax))))
		}
	}

	reasons := []string{
		fmt.Sprintf("FICO %d meets minimum (%d) with %dpt cushion",
			s.CreditScore, g.MinFICO, s.CreditScore-g.MinFICO),
		fmt.Sprintf("LTV %s%% within %s %s limit (%s%%)",
			formatPercent(s.LTV), s.Occupancy, s.TransactionType, formatPercent(maxLTV)),
	}
	if program == model.ProgramDSCR && s.DSCR != nil && g.MinDSCR != nil {
		reasons = append(reasons, fmt.Sprintf("DSCR %s meets minimum (%s)",
			formatRatio(*s.DSCR), formatPercent(*g.MinDSCR)))
	}
	if program == model.ProgramAssetDepletion && g.DepletionMonths != nil && *g.DepletionMonths > 0 {
		monthly := int64(s.TotalAssets / *g.DepletionMonths)
		reasons = append(reasons, fmt.Sprintf("%s assets / %smo = %s/mo qualifying income",
			formatMoney(s.TotalAssets), formatPercent(*g.DepletionMonths), formatMoney(float64(monthly))))
	}

	return GateResult{Eligible: true, PassReasons: reasons, ConditionalFlags: flags}
}
