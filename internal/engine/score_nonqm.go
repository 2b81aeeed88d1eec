package engine

import (
	"math"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

// Non-QM scoring weights. Placeholder profiles are capped at 90 points so a
// verified lender record always has headroom to outrank an estimate.
const (
	nonQMProgramMatchMax = 30
	nonQMFICOMax         = 20
	nonQMLTVMax          = 25

	nonQMStrengthMaxPlaceholder = 10
	nonQMStrengthMaxReal        = 15
	nonQMPriorityMaxPlaceholder = 5
	nonQMPriorityMaxReal        = 10

	nonQMTotalMaxPlaceholder = 90
	nonQMTotalMaxReal        = 100
)

// ScoreNonQM scores an eligible non-QM lender/program pair. Call only after
// the pair has passed eligibility gating.
func ScoreNonQM(lender *model.NonQMLender, program model.Program, s *model.Scenario) Score {
	g := lender.Guidelines[program]
	isPlaceholder := lender.IsPlaceholder()

	ltvBlock := g.MaxLTV.ForOccupancy(s.Occupancy)
	if ltvBlock == nil {
		ltvBlock = g.MaxLTV.Investment
	}
	maxLTV := 80.0
	if ltvBlock != nil {
		maxLTV = ltvBlock.ForTransaction(s.TransactionType)
		if maxLTV == 0 {
			maxLTV = ltvBlock.Purchase
		}
	}

	strengthMax := nonQMStrengthMaxReal
	priorityMax := nonQMPriorityMaxReal
	totalMax := float64(nonQMTotalMaxReal)
	if isPlaceholder {
		strengthMax = nonQMStrengthMaxPlaceholder
		priorityMax = nonQMPriorityMaxPlaceholder
		totalMax = nonQMTotalMaxPlaceholder
	}

	breakdown := make(map[string]float64)
	score := 0.0

	pmqScore := programMatchScore(lender.TierBasis)
	score += pmqScore
	breakdown["programMatchScore"] = pmqScore

	ficoCushion := float64(s.CreditScore - g.MinFICO)
	ficoScore := math.Max(0, math.Min(nonQMFICOMax, math.Round(ficoCushion/150*nonQMFICOMax)))
	score += ficoScore
	breakdown["ficoScore"] = ficoScore
	breakdown["ficoCushion"] = ficoCushion

	// LTV carries more weight than in agency scoring; non-QM approvals live
	// and die on equity position.
	ltvCushion := maxLTV - s.LTV
	ltvScore := math.Max(0, math.Min(nonQMLTVMax, math.Round(ltvCushion/25*nonQMLTVMax)))
	score += ltvScore
	breakdown["ltvScore"] = ltvScore
	breakdown["ltvCushion"] = ltvCushion
	breakdown["applicableMaxLTV"] = maxLTV

	strengthScore := profileStrengthScore(lender.TierBasis, isPlaceholder, float64(strengthMax))
	score += strengthScore
	breakdown["profileStrengthScore"] = strengthScore

	priorityScore := math.Round(lender.PriorityWeight / 100 * float64(priorityMax))
	score += priorityScore
	breakdown["priorityScore"] = priorityScore

	if program == model.ProgramDSCR && s.DSCR != nil && g.MinDSCR != nil {
		cushion := *s.DSCR - *g.MinDSCR
		bonus := 0.0
		switch {
		case cushion >= 0.25:
			bonus = 3
		case cushion >= 0.10:
			bonus = 1
		}
		score = math.Min(totalMax, score+bonus)
		breakdown["dscrBonus"] = bonus
	}

	if program == model.ProgramAssetDepletion && s.TotalAssets > 0 && g.MinAssets != nil {
		ratio := s.TotalAssets / *g.MinAssets
		bonus := 0.0
		switch {
		case ratio >= 3:
			bonus = 3
		case ratio >= 2:
			bonus = 2
		}
		score = math.Min(totalMax, score+bonus)
		breakdown["assetBonus"] = bonus
	}

	return Score{
		FitScore:    math.Min(totalMax, math.Max(0, score)),
		MaxPossible: totalMax,
		Breakdown:   breakdown,
	}
}

// programMatchScore favors aggressive profiles: a scenario routed to non-QM
// needs flexibility, so the flexible profile is the better program match.
func programMatchScore(basis model.TierBasis) float64 {
	switch basis {
	case model.TierBasisAggressive:
		return 30
	case model.TierBasisMarket:
		return 22
	default:
		return 15
	}
}

func profileStrengthScore(basis model.TierBasis, isPlaceholder bool, max float64) float64 {
	var v float64
	switch basis {
	case model.TierBasisAggressive:
		v = 14
		if isPlaceholder {
			v = 10
		}
	case model.TierBasisMarket:
		v = 10
		if isPlaceholder {
			v = 7
		}
	case model.TierBasisConservative:
		v = 7
		if isPlaceholder {
			v = 5
		}
	default:
		v = 7
	}
	return math.Min(max, v)
}
