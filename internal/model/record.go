package model

import "time"

// RecordTypeLenderMatch is the record type stamped on every sealed
// lender selection.
const RecordTypeLenderMatch = "LENDER_MATCH_SELECTION"

// RecordStatus is the lifecycle state of a sealed decision record.
// Records are never deleted; superseding and voiding are status changes.
type RecordStatus string

const (
	RecordStatusActive RecordStatus = "ACTIVE"
	RecordStatusVoided RecordStatus = "VOIDED"
)

// PlaceholderProvenance pins the estimated-data disclaimer onto records
// built from placeholder profiles.
type PlaceholderProvenance struct {
	CreatedDate string `json:"createdDate"`
	Disclaimer  string `json:"disclaimer"`
}

// DecisionRecord is an immutable snapshot of a lender selection. Every
// field is copied at selection time so later catalog updates cannot
// change what the record says.
type DecisionRecord struct {
	RecordType string `json:"recordType"`

	ScenarioSnapshot Scenario `json:"scenarioSnapshot"`

	SelectedLenderID  string `json:"selectedLenderId"`
	SelectedProgramID string `json:"selectedProgramId"`
	ProfileName       string `json:"profileName"`

	DataSource          DataSource `json:"dataSource"`
	RulesetVersion      int        `json:"rulesetVersion"`
	GuidelineVersionRef string     `json:"guidelineVersionRef"`

	FitScore          float64           `json:"fitScore"`
	EligibilityStatus EligibilityStatus `json:"eligibilityStatus"`
	OverlayRisk       OverlayRiskLevel  `json:"overlayRisk"`
	ConfidenceScore   float64           `json:"confidenceScore"`

	TierBasis string `json:"tierBasis,omitempty"`
	Tier      string `json:"tier,omitempty"`

	ReasonsSnapshot   []string `json:"reasonsSnapshot"`
	NarrativeSnapshot string   `json:"narrativeSnapshot,omitempty"`

	Placeholder *PlaceholderProvenance `json:"placeholderProvenance,omitempty"`

	SelectedAt time.Time `json:"selectedAt"`
}

// StoredRecord wraps a sealed decision record with its storage identity
// and lifecycle status.
type StoredRecord struct {
	ID         string         `json:"id"`
	Status     RecordStatus   `json:"status"`
	VoidReason string         `json:"voidReason,omitempty"`
	Record     DecisionRecord `json:"record"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}
