package engine

import (
	"strings"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

// exceptionInput carries the evaluation context the controlled exception
// reads alongside the scenario.
type exceptionInput struct {
	overlayRisk        model.OverlayRiskLevel
	confidenceScore    float64
	seasoningViolation bool
	conditionalFlags   []string
	applicableMaxLTV   float64
	matchedProgram     model.Program
}

// meetsControlledException decides whether a gate-passing placeholder result
// may be labeled ELIGIBLE instead of CONDITIONAL. All seven criteria must
// hold; a single miss keeps the conservative label. Verified lender records
// never go through this path.
func meetsControlledException(s *model.Scenario, in exceptionInput, g *model.NonQMGuidelines) bool {
	// 1. Overlay risk is LOW.
	if in.overlayRisk != model.OverlayLow {
		return false
	}

	// 2. Confidence at least 0.80.
	if in.confidenceScore < 0.80 {
		return false
	}

	// 3. Every required scenario field present.
	if s.CreditScore == 0 || s.LTV == 0 || s.LoanAmount == 0 ||
		s.PropertyType == "" || s.Occupancy == "" || s.IncomeDocType == "" ||
		s.ReservesMonths == 0 {
		return false
	}
	if strings.Contains(string(in.matchedProgram), "DSCR") && s.DSCR == nil {
		return false
	}

	// 4. No seasoning violation.
	if in.seasoningViolation {
		return false
	}

	// 5. No conditional flags.
	if len(in.conditionalFlags) > 0 {
		return false
	}

	// 6. LTV at least 5 points under the program ceiling.
	if in.applicableMaxLTV-s.LTV < 5 {
		return false
	}

	// 7. FICO at least 20 points over the program floor.
	if float64(s.CreditScore-g.MinFICO) < 20 {
		return false
	}

	return true
}
