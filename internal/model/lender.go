package model

// DataSource marks the provenance of a lender record.
type DataSource string

const (
	DataSourceReal        DataSource = "REAL"
	DataSourcePlaceholder DataSource = "PLACEHOLDER"
)

// TierBasis classifies a placeholder profile's guideline posture.
type TierBasis string

const (
	TierBasisAggressive   TierBasis = "Aggressive"
	TierBasisMarket       TierBasis = "Market"
	TierBasisConservative TierBasis = "Conservative"
)

// Program identifies a loan program offered by a lender.
type Program string

const (
	ProgramConventional Program = "Conventional"
	ProgramFHA          Program = "FHA"
	ProgramVA           Program = "VA"

	ProgramBankStatement12 Program = "BankStatement12"
	ProgramBankStatement24 Program = "BankStatement24"
	ProgramDSCR            Program = "DSCR"
	ProgramAssetDepletion  Program = "AssetDepletion"
	ProgramNinetyNineOnly  Program = "NinetyNineOnly"
	ProgramNoDoc           Program = "NoDoc"
)

// AgencyProgramList is every program in the agency catalog.
var AgencyProgramList = []Program{ProgramConventional, ProgramFHA, ProgramVA}

// NonQMProgramList is every program the non-QM catalog may offer.
var NonQMProgramList = []Program{
	ProgramBankStatement12, ProgramBankStatement24, ProgramDSCR,
	ProgramAssetDepletion, ProgramNinetyNineOnly, ProgramNoDoc,
}

// LTVLimits holds maximum LTV ceilings keyed by transaction type.
type LTVLimits struct {
	Purchase float64 `json:"purchase"`
	RateTerm float64 `json:"rateTerm"`
	CashOut  float64 `json:"cashOut"`
}

// ForTransaction returns the ceiling for the given transaction type,
// falling back to purchase when the type is unrecognized.
func (l LTVLimits) ForTransaction(tx TransactionType) float64 {
	switch tx {
	case TransactionRateTerm:
		return l.RateTerm
	case TransactionCashOut:
		return l.CashOut
	default:
		return l.Purchase
	}
}

// OccupancyLTV holds per-occupancy LTV ceilings. A nil block means the
// occupancy is not offered under the program.
type OccupancyLTV struct {
	Primary    *LTVLimits `json:"primary,omitempty"`
	SecondHome *LTVLimits `json:"secondHome,omitempty"`
	Investment *LTVLimits `json:"investment,omitempty"`
}

// ForOccupancy returns the ceiling block for the given occupancy, or nil.
func (o OccupancyLTV) ForOccupancy(occ Occupancy) *LTVLimits {
	switch occ {
	case OccupancySecondHome:
		return o.SecondHome
	case OccupancyInvestment:
		return o.Investment
	default:
		return o.Primary
	}
}

// ReserveMonths holds per-occupancy reserve requirements in months of
// housing payment. A nil entry means the occupancy is not offered.
type ReserveMonths struct {
	Primary    *float64 `json:"primary"`
	SecondHome *float64 `json:"secondHome"`
	Investment *float64 `json:"investment"`
}

// AgencyGuidelines is one agency program's guideline block.
type AgencyGuidelines struct {
	MinFICO                 int     `json:"minFICO"`
	FICOCutoffForReducedLTV int     `json:"ficoCutoffForReducedLTV,omitempty"`
	ReducedLTVBelowCutoff   float64 `json:"reducedLTVBelowCutoff,omitempty"`

	MaxLTV        LTVLimits `json:"maxLTV"`
	MaxDTI        float64   `json:"maxDTI"`
	MaxLoanAmount float64   `json:"maxLoanAmount"`

	AllowsCondos              bool `json:"allowsCondos"`
	AllowsNonWarrantableCondo bool `json:"allowsNonWarrantableCondo"`
	AllowsManufactured        bool `json:"allowsManufactured"`
	Allows2to4Unit            bool `json:"allows2to4Unit"`

	AllowsInvestment bool       `json:"allowsInvestment"`
	InvestmentMaxLTV *LTVLimits `json:"investmentMaxLTV,omitempty"`

	AllowsSelfEmployed bool `json:"allowsSelfEmployed"`

	BKSeasoning        int `json:"bkSeasoning"`
	FCSeasoning        int `json:"fcSeasoning"`
	ShortSaleSeasoning int `json:"shortSaleSeasoning"`

	IncomeTypes    []IncomeDocType `json:"incomeTypes"`
	ReservesMonths ReserveMonths   `json:"reservesMonths"`

	RequiresPrimaryResidence bool `json:"requiresPrimaryResidence,omitempty"`

	Notes []string `json:"notes,omitempty"`
}

// AgencyLender is one lender in the agency catalog.
type AgencyLender struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	ShortName      string     `json:"shortName"`
	AccentColor    string     `json:"accentColor"`
	DataSource     DataSource `json:"dataSource"`
	PriorityWeight float64    `json:"priorityWeight"`
	Active         bool       `json:"active"`

	Version             int     `json:"version"`
	GuidelineVersionRef string  `json:"guidelineVersionRef"`
	EffectiveDate       string  `json:"effectiveDate"`
	EndDate             *string `json:"endDate"`

	Programs   []Program                    `json:"programs"`
	Guidelines map[Program]AgencyGuidelines `json:"guidelines"`

	Tier      string   `json:"tier"`
	TierNotes string   `json:"tierNotes"`
	Strengths []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`

	States []string `json:"states"`
}

// OffersProgram reports whether the lender offers the given program.
func (l *AgencyLender) OffersProgram(p Program) bool {
	for _, prog := range l.Programs {
		if prog == p {
			return true
		}
	}
	return false
}

// NonQMGuidelines is one non-QM program's guideline block. Program-specific
// metrics (ExpenseFactor, MinDSCR, MinAssets, DepletionMonths) are pointers;
// schema validation guarantees the ones the program requires are present, so
// the engine dereferences them without re-checking.
type NonQMGuidelines struct {
	MinFICO int `json:"minFICO"`

	ExpenseFactor   *float64 `json:"expenseFactor,omitempty"`
	MinDSCR         *float64 `json:"minDSCR,omitempty"`
	MinAssets       *float64 `json:"minAssets,omitempty"`
	DepletionMonths *float64 `json:"depletionMonths,omitempty"`

	MaxLTV        OccupancyLTV `json:"maxLTV"`
	MaxDTI        *float64     `json:"maxDTI,omitempty"`
	MaxLoanAmount float64      `json:"maxLoanAmount"`

	MinReserveMonths float64 `json:"minReserveMonths"`

	AllowedPropertyTypes  []PropertyType `json:"allowedPropertyTypes"`
	AllowsShortTermRental *bool          `json:"allowsShortTermRental,omitempty"`

	BKSeasoning        int `json:"bkSeasoning"`
	FCSeasoning        int `json:"fcSeasoning"`
	ShortSaleSeasoning int `json:"shortSaleSeasoning"`

	States     []string `json:"states"`
	CashOutMax *float64 `json:"cashOutMax"`
}

// AllowsPropertyType reports whether the guideline block accepts the given
// property type. A leading "ALL" entry accepts everything.
func (g *NonQMGuidelines) AllowsPropertyType(pt PropertyType) bool {
	if len(g.AllowedPropertyTypes) > 0 && g.AllowedPropertyTypes[0] == "ALL" {
		return true
	}
	for _, allowed := range g.AllowedPropertyTypes {
		if allowed == pt {
			return true
		}
	}
	return false
}

// NonQMLender is one lender profile in the non-QM catalog.
type NonQMLender struct {
	ID             string     `json:"id"`
	ProfileName    string     `json:"profileName"`
	ShortName      string     `json:"shortName"`
	AccentColor    string     `json:"accentColor"`
	DataSource     DataSource `json:"dataSource"`
	PriorityWeight float64    `json:"priorityWeight"`
	Active         bool       `json:"active"`

	Version             int     `json:"version"`
	GuidelineVersionRef string  `json:"guidelineVersionRef"`
	EffectiveDate       string  `json:"effectiveDate"`
	EndDate             *string `json:"endDate"`

	Programs   []Program                   `json:"programs"`
	Guidelines map[Program]NonQMGuidelines `json:"guidelines"`

	TierBasis      TierBasis `json:"tierBasis"`
	TierNotes      string    `json:"tierNotes"`
	Strengths      []string  `json:"strengths"`
	Weaknesses     []string  `json:"weaknesses"`
	TypicalUseCase string    `json:"typicalUseCase"`

	Disclaimer string `json:"disclaimer,omitempty"`
}

// OffersProgram reports whether the profile offers the given program.
func (l *NonQMLender) OffersProgram(p Program) bool {
	for _, prog := range l.Programs {
		if prog == p {
			return true
		}
	}
	return false
}

// IsPlaceholder reports whether the profile is estimated rather than
// verified lender data.
func (l *NonQMLender) IsPlaceholder() bool {
	return l.DataSource == DataSourcePlaceholder
}
