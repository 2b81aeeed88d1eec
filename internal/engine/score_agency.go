package engine

import (
	"math"
	"strings"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

// Score is a fit score with its component breakdown. Breakdown keys record
// both the awarded points and the cushions they were derived from.
type Score struct {
	FitScore    float64
	MaxPossible float64
	Breakdown   map[string]float64
}

// Agency scoring weights. Fit is cushion above guideline floors plus lender
// platform strength; nothing here reads pricing.
const (
	agencyFICOMax     = 25
	agencyLTVMax      = 20
	agencyDTIMax      = 20
	agencyStrengthMax = 20
	agencyPriorityMax = 15
	agencyTotalMax    = 100
)

// ScoreAgency scores an eligible agency lender/program pair on a 100-point
// scale. Call only after the pair has passed eligibility gating.
func ScoreAgency(lender *model.AgencyLender, program model.Program, s *model.Scenario) Score {
	g := lender.Guidelines[program]

	maxLTV := g.MaxLTV.ForTransaction(s.TransactionType)
	if maxLTV == 0 {
		maxLTV = 97
	}

	breakdown := make(map[string]float64)
	score := 0.0

	// FICO cushion, full points at a 200-point spread above the minimum.
	ficoCushion := float64(s.CreditScore - g.MinFICO)
	ficoScore := math.Min(agencyFICOMax, math.Round(ficoCushion/200*agencyFICOMax))
	score += ficoScore
	breakdown["ficoScore"] = ficoScore
	breakdown["ficoCushion"] = ficoCushion

	ltvCushion := maxLTV - s.LTV
	ltvScore := math.Max(0, math.Min(agencyLTVMax, math.Round(ltvCushion/30*agencyLTVMax)))
	score += ltvScore
	breakdown["ltvScore"] = ltvScore
	breakdown["ltvCushion"] = ltvCushion

	dtiCushion := g.MaxDTI - s.DTI
	dtiScore := math.Max(0, math.Min(agencyDTIMax, math.Round(dtiCushion/20*agencyDTIMax)))
	score += dtiScore
	breakdown["dtiScore"] = dtiScore
	breakdown["dtiCushion"] = dtiCushion

	strengthScore := programStrengthScore(lender, program)
	score += strengthScore
	breakdown["programStrengthScore"] = strengthScore

	priorityScore := math.Round(lender.PriorityWeight / 100 * agencyPriorityMax)
	score += priorityScore
	breakdown["priorityScore"] = priorityScore

	return Score{
		FitScore:    math.Min(agencyTotalMax, math.Max(0, score)),
		MaxPossible: agencyTotalMax,
		Breakdown:   breakdown,
	}
}

// programStrengthScore maps the lender tier to points, with a small bonus
// when the lender's stated strengths mention the program.
func programStrengthScore(lender *model.AgencyLender, program model.Program) float64 {
	tierScores := map[string]float64{"A+": 20, "A": 16, "B+": 12, "B": 8, "C": 4}
	base, ok := tierScores[lender.Tier]
	if !ok {
		base = 10
	}

	strengthText := strings.ToLower(strings.Join(lender.Strengths, " "))
	if strings.Contains(strengthText, strings.ToLower(string(program))) {
		base += 2
	}
	return math.Min(agencyStrengthMax, base)
}
