package engine

import (
	"fmt"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

// GateResult is the outcome of the hard eligibility gates for one
// lender/program pair. One gate failure makes the pair ineligible; the
// first failing gate's reason is reported.
type GateResult struct {
	Eligible           bool
	FailReason         string
	PassReasons        []string
	SeasoningViolation bool
	ConditionalFlags   []string
}

func fail(reason string) GateResult {
	return GateResult{FailReason: reason}
}

// CheckAgencyEligibility runs the agency gates in order: program offered,
// loan amount, FICO, FHA reduced-LTV cutoff, LTV ceiling, DTI, property
// type, occupancy, state licensing, credit event seasoning, income
// documentation, and the VA primary residence rule.
func CheckAgencyEligibility(lender *model.AgencyLender, program model.Program, s *model.Scenario) GateResult {
	g, ok := lender.Guidelines[program]
	if !ok {
		return fail(fmt.Sprintf("Lender does not offer %s", program))
	}
	if !lender.OffersProgram(program) {
		return fail(fmt.Sprintf("%s does not offer %s", lender.ShortName, program))
	}

	if s.LoanAmount > g.MaxLoanAmount {
		return fail(fmt.Sprintf("Loan amount %s exceeds %s %s limit of %s",
			formatMoney(s.LoanAmount), lender.ShortName, program, formatMoney(g.MaxLoanAmount)))
	}

	if s.CreditScore < g.MinFICO {
		return fail(fmt.Sprintf("FICO %d is below %s minimum of %d for %s",
			s.CreditScore, lender.ShortName, g.MinFICO, program))
	}

	// FHA allows FICO below the cutoff only at reduced LTV.
	if program == model.ProgramFHA && g.FICOCutoffForReducedLTV > 0 && s.CreditScore < g.FICOCutoffForReducedLTV {
		reducedMax := g.ReducedLTVBelowCutoff
		if reducedMax == 0 {
			reducedMax = 90
		}
		if s.LTV > reducedMax {
			return fail(fmt.Sprintf("FHA requires FICO %d+ for %s%% LTV. With FICO %d, maximum LTV is %s%%.",
				g.FICOCutoffForReducedLTV, formatPercent(s.LTV), s.CreditScore, formatPercent(reducedMax)))
		}
	}

	maxLTV := g.MaxLTV.ForTransaction(s.TransactionType)
	if maxLTV > 0 && s.LTV > maxLTV {
		return fail(fmt.Sprintf("LTV %s%% exceeds %s %s %s maximum of %s%%",
			formatPercent(s.LTV), lender.ShortName, program, s.TransactionType, formatPercent(maxLTV)))
	}

	if s.DTI > g.MaxDTI {
		return fail(fmt.Sprintf("DTI %s%% exceeds %s %s maximum of %s%%",
			formatPercent(s.DTI), lender.ShortName, program, formatPercent(g.MaxDTI)))
	}

	if reason := checkAgencyPropertyType(&g, s.PropertyType, program); reason != "" {
		return fail(reason)
	}

	if reason := checkAgencyOccupancy(&g, lender, program, s); reason != "" {
		return fail(reason)
	}

	if len(lender.States) > 0 && !containsString(lender.States, "ALL") && s.State != "" {
		if !containsString(lender.States, s.State) {
			return fail(fmt.Sprintf("%s is not licensed in %s", lender.ShortName, s.State))
		}
	}

	if reason := checkSeasoning(g.BKSeasoning, g.FCSeasoning, g.ShortSaleSeasoning,
		s.CreditEvent, s.CreditEventMonths, lender.ShortName, program); reason != "" {
		return fail(reason)
	}

	if len(g.IncomeTypes) > 0 && !containsDocType(g.IncomeTypes, s.IncomeDocType) &&
		s.IncomeDocType != model.IncomeDocFullDoc {
		return fail(fmt.Sprintf("%s %s requires full documentation. Selected: %s",
			lender.ShortName, program, s.IncomeDocType))
	}

	if program == model.ProgramVA && g.RequiresPrimaryResidence && s.Occupancy != model.OccupancyPrimary {
		return fail("VA loans require primary residence occupancy")
	}

	reasons := []string{
		fmt.Sprintf("FICO %d meets %s minimum (%d)", s.CreditScore, lender.ShortName, g.MinFICO),
		fmt.Sprintf("LTV %s%% within %s ceiling (%s%%)", formatPercent(s.LTV), lender.ShortName, formatPercent(maxLTV)),
		fmt.Sprintf("DTI %s%% within %s limit (%s%%)", formatPercent(s.DTI), lender.ShortName, formatPercent(g.MaxDTI)),
	}
	if s.CreditEvent != model.CreditEventNone {
		reasons = append(reasons, fmt.Sprintf("%s seasoning satisfied (%d mo provided)",
			s.CreditEvent, s.CreditEventMonths))
	}

	return GateResult{Eligible: true, PassReasons: reasons}
}

func checkAgencyPropertyType(g *model.AgencyGuidelines, pt model.PropertyType, program model.Program) string {
	switch {
	case pt == model.PropertyManufactured && !g.AllowsManufactured:
		return fmt.Sprintf("Manufactured housing not accepted for %s", program)
	case pt == model.PropertyCondoNonWarrantable && !g.AllowsNonWarrantableCondo:
		return fmt.Sprintf("Non-warrantable condos not accepted for %s", program)
	case (pt == model.PropertyTwoUnit || pt == model.PropertyThreeUnit || pt == model.PropertyFourUnit) && !g.Allows2to4Unit:
		return fmt.Sprintf("2-4 unit properties not accepted for %s", program)
	}
	return ""
}

func checkAgencyOccupancy(g *model.AgencyGuidelines, lender *model.AgencyLender, program model.Program, s *model.Scenario) string {
	if s.Occupancy != model.OccupancyInvestment {
		return ""
	}
	if !g.AllowsInvestment {
		return fmt.Sprintf("%s %s does not allow investment properties", lender.ShortName, program)
	}
	if g.InvestmentMaxLTV != nil {
		invMax := g.InvestmentMaxLTV.ForTransaction(s.TransactionType)
		if invMax > 0 && s.LTV > invMax {
			return fmt.Sprintf("Investment property LTV %s%% exceeds %s investment %s limit of %s%%",
				formatPercent(s.LTV), lender.ShortName, s.TransactionType, formatPercent(invMax))
		}
	}
	return ""
}

// checkSeasoning is shared by both catalogs. Short sale falls back to the
// foreclosure requirement when no dedicated value is set.
func checkSeasoning(bk, fc, shortSale int, event model.CreditEventType, months int, lenderName string, program model.Program) string {
	if event == "" || event == model.CreditEventNone {
		return ""
	}

	var required int
	var label string
	switch event {
	case model.CreditEventBankruptcy:
		required, label = bk, "BK"
	case model.CreditEventForeclosure:
		required, label = fc, "Foreclosure"
	case model.CreditEventShortSale:
		required, label = shortSale, "Short Sale"
		if required == 0 {
			required = fc
		}
	}

	if months < required {
		return fmt.Sprintf("%s seasoning: %d months provided, %d months required by %s for %s",
			label, months, required, lenderName, program)
	}
	return ""
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsDocType(list []model.IncomeDocType, v model.IncomeDocType) bool {
	for _, d := range list {
		if d == v {
			return true
		}
	}
	return false
}
