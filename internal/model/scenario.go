package model

// TransactionType is the kind of transaction being financed.
type TransactionType string

const (
	TransactionPurchase TransactionType = "purchase"
	TransactionRateTerm TransactionType = "rateTerm"
	TransactionCashOut  TransactionType = "cashOut"
)

// Occupancy describes how the borrower will occupy the property.
type Occupancy string

const (
	OccupancyPrimary    Occupancy = "Primary"
	OccupancySecondHome Occupancy = "SecondHome"
	OccupancyInvestment Occupancy = "Investment"
)

// CreditEventType is a derogatory credit event on the borrower's history.
type CreditEventType string

const (
	CreditEventNone        CreditEventType = "none"
	CreditEventBankruptcy  CreditEventType = "BK"
	CreditEventForeclosure CreditEventType = "FC"
	CreditEventShortSale   CreditEventType = "shortSale"
)

// IncomeDocType is the income documentation the borrower can provide.
// Anything other than full documentation routes the scenario to the
// non-QM catalog.
type IncomeDocType string

const (
	IncomeDocFullDoc         IncomeDocType = "fullDoc"
	IncomeDocBankStatement12 IncomeDocType = "bankStatement12"
	IncomeDocBankStatement24 IncomeDocType = "bankStatement24"
	IncomeDocDSCR            IncomeDocType = "dscr"
	IncomeDocAssetDepletion  IncomeDocType = "assetDepletion"
	IncomeDocNinetyNineOnly  IncomeDocType = "ninetyNineOnly"
	IncomeDocNoDoc           IncomeDocType = "noDoc"
)

// Intent steers how results are framed for the loan officer.
type Intent string

const (
	IntentAgencyFirst      Intent = "AGENCY_FIRST"
	IntentAlternativeFocus Intent = "ALTERNATIVE_FOCUS"
	IntentSpeedFocus       Intent = "SPEED_FOCUS"
)

// PropertyType enumerates the accepted collateral types.
type PropertyType string

const (
	PropertySFR                 PropertyType = "SFR"
	PropertyCondo               PropertyType = "Condo"
	PropertyCondoNonWarrantable PropertyType = "Condo_NonWarrantable"
	PropertyTwoUnit             PropertyType = "TwoUnit"
	PropertyThreeUnit           PropertyType = "ThreeUnit"
	PropertyFourUnit            PropertyType = "FourUnit"
	PropertyManufactured        PropertyType = "Manufactured"
	PropertyMixedUse            PropertyType = "MixedUse"
)

// ValidPropertyTypes lists every accepted property type value.
var ValidPropertyTypes = []PropertyType{
	PropertySFR, PropertyCondo, PropertyCondoNonWarrantable,
	PropertyTwoUnit, PropertyThreeUnit, PropertyFourUnit,
	PropertyManufactured, PropertyMixedUse,
}

// Scenario is a normalized loan scenario. Every numeric field is either a
// supplied value or a documented conservative default; the normalizer never
// leaves a consumed field unset. DSCR is the one nullable metric: nil means
// it was neither provided nor derivable.
type Scenario struct {
	LoanType        string          `json:"loanType,omitempty"`
	TransactionType TransactionType `json:"transactionType"`
	Intent          Intent          `json:"intent"`
	LoanAmount      float64         `json:"loanAmount"`
	PropertyValue   float64         `json:"propertyValue"`

	CreditScore   int           `json:"creditScore"`
	LTV           float64       `json:"ltv"`
	DTI           float64       `json:"dti"`
	DSCR          *float64      `json:"dscr,omitempty"`
	PropertyType  PropertyType  `json:"propertyType"`
	Occupancy     Occupancy     `json:"occupancy"`
	State         string        `json:"state,omitempty"`
	SelfEmployed  bool          `json:"selfEmployed"`
	IncomeDocType IncomeDocType `json:"incomeDocType"`

	CreditEvent       CreditEventType `json:"creditEvent"`
	CreditEventMonths int             `json:"creditEventMonths"`

	ReservesMonths    float64 `json:"reservesMonths"`
	TotalAssets       float64 `json:"totalAssets"`
	IsShortTermRental bool    `json:"isShortTermRental,omitempty"`

	VAEntitlement string `json:"vaEntitlement,omitempty"`

	CompletenessScore float64 `json:"completenessScore"`
	IsNonQMPath       bool    `json:"isNonQMPath"`
	HighBalance       bool    `json:"highBalance"`
	PMIRequired       bool    `json:"pmiRequired"`
}

// Clone returns a structurally independent copy of the scenario.
func (s Scenario) Clone() Scenario {
	out := s
	if s.DSCR != nil {
		v := *s.DSCR
		out.DSCR = &v
	}
	return out
}
