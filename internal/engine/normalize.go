package engine

import (
	"strings"

	"github.com/loanbeacons/lendermatch-cli/internal/catalog"
	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

// Conservative defaults applied when inputs are missing. A thin file is
// evaluated as the hardest version of itself, never the easiest.
const (
	defaultFICO = 580
	defaultLTV  = 100
	defaultDTI  = 50
)

// estimatedPITIARate approximates a monthly housing payment as a fraction
// of the loan amount when deriving DSCR from gross rent.
const estimatedPITIARate = 0.006

// RawScenario holds unvalidated scenario inputs. Zero values mean the field
// was not provided; the normalizer fills gaps with conservative defaults or
// derives the value from related inputs.
type RawScenario struct {
	LoanType        string  `json:"loanType" yaml:"loanType"`
	TransactionType string  `json:"transactionType" yaml:"transactionType"`
	Intent          string  `json:"intent" yaml:"intent"`
	LoanAmount      float64 `json:"loanAmount" yaml:"loanAmount"`
	PropertyValue   float64 `json:"propertyValue" yaml:"propertyValue"`

	CreditScore int     `json:"creditScore" yaml:"creditScore"`
	LTV         float64 `json:"ltv" yaml:"ltv"`

	DTI           float64 `json:"dti" yaml:"dti"`
	MonthlyIncome float64 `json:"monthlyIncome" yaml:"monthlyIncome"`
	MonthlyDebts  float64 `json:"monthlyDebts" yaml:"monthlyDebts"`

	DSCR              float64 `json:"dscr" yaml:"dscr"`
	GrossRentalIncome float64 `json:"grossRentalIncome" yaml:"grossRentalIncome"`

	PropertyType  string `json:"propertyType" yaml:"propertyType"`
	Occupancy     string `json:"occupancy" yaml:"occupancy"`
	State         string `json:"state" yaml:"state"`
	SelfEmployed  bool   `json:"selfEmployed" yaml:"selfEmployed"`
	IncomeDocType string `json:"incomeDocType" yaml:"incomeDocType"`

	CreditEvent       string `json:"creditEvent" yaml:"creditEvent"`
	CreditEventMonths int    `json:"creditEventMonths" yaml:"creditEventMonths"`

	ReservesMonths    float64 `json:"reservesMonths" yaml:"reservesMonths"`
	TotalAssets       float64 `json:"totalAssets" yaml:"totalAssets"`
	IsShortTermRental bool    `json:"isShortTermRental" yaml:"isShortTermRental"`

	VAEntitlement string `json:"vaEntitlement" yaml:"vaEntitlement"`
}

// Normalize turns raw inputs into a complete scenario. Missing metrics get
// conservative defaults, derivable metrics are computed, and the input
// completeness fraction is recorded for the confidence calculation.
func Normalize(raw RawScenario) model.Scenario {
	s := model.Scenario{
		LoanType:        normalizeLoanType(raw.LoanType),
		TransactionType: normalizeTransaction(raw.TransactionType),
		Intent:          normalizeIntent(raw.Intent),
		LoanAmount:      raw.LoanAmount,
		PropertyValue:   raw.PropertyValue,
	}

	s.LTV = raw.LTV
	if s.LTV == 0 && raw.LoanAmount > 0 && raw.PropertyValue > 0 {
		s.LTV = round2(raw.LoanAmount / raw.PropertyValue * 100)
	}
	if s.LTV == 0 {
		s.LTV = defaultLTV
	}

	s.CreditScore = raw.CreditScore
	if s.CreditScore == 0 {
		s.CreditScore = defaultFICO
	}

	s.PropertyType = model.PropertyType(raw.PropertyType)
	if s.PropertyType == "" {
		s.PropertyType = model.PropertySFR
	}
	s.Occupancy = normalizeOccupancy(raw.Occupancy)
	s.State = raw.State
	s.SelfEmployed = raw.SelfEmployed
	s.IncomeDocType = model.IncomeDocType(raw.IncomeDocType)
	if s.IncomeDocType == "" {
		s.IncomeDocType = model.IncomeDocFullDoc
	}

	s.DTI = raw.DTI
	if s.DTI == 0 && raw.MonthlyIncome > 0 {
		s.DTI = round2(raw.MonthlyDebts / raw.MonthlyIncome * 100)
	}
	if s.DTI == 0 {
		s.DTI = defaultDTI
	}

	if raw.DSCR != 0 {
		v := raw.DSCR
		s.DSCR = &v
	} else if raw.GrossRentalIncome > 0 && raw.LoanAmount > 0 {
		v := round2(raw.GrossRentalIncome / (raw.LoanAmount * estimatedPITIARate))
		s.DSCR = &v
	}

	s.CreditEvent, _ = ParseCreditEvent(raw.CreditEvent)
	s.CreditEventMonths = raw.CreditEventMonths

	s.ReservesMonths = raw.ReservesMonths
	s.TotalAssets = raw.TotalAssets
	s.IsShortTermRental = raw.IsShortTermRental

	s.VAEntitlement = raw.VAEntitlement
	if s.VAEntitlement == "" {
		s.VAEntitlement = "Full"
	}

	s.CompletenessScore = completeness(raw, s.IncomeDocType)
	s.IsNonQMPath = s.IncomeDocType != model.IncomeDocFullDoc
	s.HighBalance = raw.LoanAmount > catalog.ConformingLimit
	s.PMIRequired = s.LTV > 80 && (s.LoanType == "Conventional" || s.LoanType == "")

	return s
}

// foldKey lowercases an input label and strips separators so that user
// spellings like "short-sale", "Short Sale", and "shortSale" all compare
// equal.
func foldKey(v string) string {
	v = strings.ToLower(v)
	v = strings.ReplaceAll(v, " ", "")
	v = strings.ReplaceAll(v, "-", "")
	v = strings.ReplaceAll(v, "_", "")
	return v
}

// ParseCreditEvent maps a user-supplied credit event label to its canonical
// type. Both the canonical enum values and the spelled-out names are
// accepted. An empty input means no credit event. The second return is false
// when the label is not recognized, in which case callers that validate
// input should reject it rather than let the seasoning gates pass vacuously.
func ParseCreditEvent(ev string) (model.CreditEventType, bool) {
	switch foldKey(ev) {
	case "", "none":
		return model.CreditEventNone, true
	case "bk", "bankruptcy":
		return model.CreditEventBankruptcy, true
	case "fc", "foreclosure":
		return model.CreditEventForeclosure, true
	case "shortsale":
		return model.CreditEventShortSale, true
	default:
		return model.CreditEventNone, false
	}
}

// normalizeLoanType canonicalizes the program filter. An empty result means
// no filter, so every agency program is evaluated.
func normalizeLoanType(lt string) string {
	switch foldKey(lt) {
	case "conventional":
		return "Conventional"
	case "fha":
		return "FHA"
	case "va":
		return "VA"
	default:
		return ""
	}
}

func normalizeOccupancy(occ string) model.Occupancy {
	switch foldKey(occ) {
	case "secondhome":
		return model.OccupancySecondHome
	case "investment", "investor", "investmentproperty":
		return model.OccupancyInvestment
	default:
		return model.OccupancyPrimary
	}
}

func normalizeTransaction(tx string) model.TransactionType {
	switch strings.ToLower(strings.ReplaceAll(tx, "-", "")) {
	case "rateterm":
		return model.TransactionRateTerm
	case "cashout":
		return model.TransactionCashOut
	default:
		return model.TransactionPurchase
	}
}

func normalizeIntent(intent string) model.Intent {
	switch model.Intent(intent) {
	case model.IntentAlternativeFocus:
		return model.IntentAlternativeFocus
	case model.IntentSpeedFocus:
		return model.IntentSpeedFocus
	default:
		return model.IntentAgencyFirst
	}
}

// completeness is the fraction of consumed fields the caller actually
// provided, before defaulting. DSCR scenarios additionally require the DSCR
// ratio, asset depletion scenarios the documented asset total.
func completeness(raw RawScenario, docType model.IncomeDocType) float64 {
	provided := 0
	total := 0

	check := func(present bool) {
		total++
		if present {
			provided++
		}
	}

	check(raw.CreditScore != 0)
	check(raw.LTV != 0)
	check(raw.LoanAmount != 0)
	check(raw.PropertyType != "")
	check(raw.Occupancy != "")
	check(raw.IncomeDocType != "")
	check(raw.State != "")

	switch docType {
	case model.IncomeDocDSCR:
		check(raw.DSCR != 0)
	case model.IncomeDocAssetDepletion:
		check(raw.TotalAssets != 0)
	}

	return float64(provided) / float64(total)
}
