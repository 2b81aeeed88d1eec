package model

import "time"

// EligibilityStatus is the outcome of gating a scenario against one
// lender/program pair.
type EligibilityStatus string

const (
	StatusEligible    EligibilityStatus = "ELIGIBLE"
	StatusConditional EligibilityStatus = "CONDITIONAL"
	StatusIneligible  EligibilityStatus = "INELIGIBLE"
)

// OverlayRiskLevel grades the likelihood of lender-specific overlays
// complicating an otherwise eligible file.
type OverlayRiskLevel string

const (
	OverlayLow      OverlayRiskLevel = "LOW"
	OverlayModerate OverlayRiskLevel = "MODERATE"
	OverlayHigh     OverlayRiskLevel = "HIGH"
)

// ConfidenceLevel buckets the blended confidence score.
type ConfidenceLevel string

const (
	ConfidenceHigh     ConfidenceLevel = "HIGH"
	ConfidenceModerate ConfidenceLevel = "MODERATE"
	ConfidenceLow      ConfidenceLevel = "LOW"
)

// PresentationMode selects how the two catalog sections are packaged.
type PresentationMode string

const (
	ModeSeparateSections PresentationMode = "SEPARATE_SECTIONS"
	ModeFallbackOnly     PresentationMode = "FALLBACK_ONLY"
	ModeCombinedRanked   PresentationMode = "COMBINED_RANKED"
)

// OverlayAssessment is the scenario-level overlay risk read.
type OverlayAssessment struct {
	Level           OverlayRiskLevel `json:"level"`
	Signals         []string         `json:"signals"`
	SignalCount     int              `json:"signalCount"`
	TotalWeight     int              `json:"totalWeight"`
	HighWeightCount int              `json:"highWeightCount"`
}

// Confidence is the blended confidence in the overall recommendation.
type Confidence struct {
	Score   float64         `json:"score"`
	Level   ConfidenceLevel `json:"level"`
	Message string          `json:"message"`
}

// LenderResult is the full evaluation of a scenario against one
// lender/program pair.
type LenderResult struct {
	LenderID    string  `json:"lenderId"`
	LenderName  string  `json:"lenderName"`
	ShortName   string  `json:"shortName"`
	AccentColor string  `json:"accentColor,omitempty"`
	Program     Program `json:"program"`

	Eligible          bool              `json:"eligible"`
	EligibilityStatus EligibilityStatus `json:"eligibilityStatus"`
	EligibilityLabel  string            `json:"eligibilityLabel,omitempty"`
	SeasoningViolation bool             `json:"seasoningViolation,omitempty"`
	FailReason        string            `json:"failReason,omitempty"`
	PassReasons       []string          `json:"passReasons,omitempty"`
	ConditionalFlags  []string          `json:"conditionalFlags,omitempty"`

	FitScore    float64            `json:"fitScore"`
	MaxPossible float64            `json:"maxPossible,omitempty"`
	Breakdown   map[string]float64 `json:"breakdown,omitempty"`

	OverlayRisk    OverlayRiskLevel `json:"overlayRisk,omitempty"`
	OverlaySignals []string         `json:"overlaySignals,omitempty"`

	Tier      string `json:"tier,omitempty"`
	TierBasis string `json:"tierBasis,omitempty"`
	TierNotes string `json:"tierNotes,omitempty"`

	Strengths      []string `json:"strengths,omitempty"`
	Weaknesses     []string `json:"weaknesses,omitempty"`
	TypicalUseCase string   `json:"typicalUseCase,omitempty"`
	Notes          []string `json:"notes,omitempty"`

	DataSource          DataSource `json:"dataSource"`
	Version             int        `json:"version"`
	GuidelineVersionRef string     `json:"guidelineVersionRef"`
	IsPlaceholder       bool       `json:"isPlaceholder,omitempty"`
	ExcludeFromCombined bool       `json:"excludeFromCombined,omitempty"`
	Disclaimer          string     `json:"disclaimer,omitempty"`

	Narrative string `json:"narrative,omitempty"`
}

// SectionSummary packages one catalog's results for presentation.
type SectionSummary struct {
	Type            string         `json:"type"`
	Eligible        []LenderResult `json:"eligible"`
	Ineligible      []LenderResult `json:"ineligible"`
	TotalEligible   int            `json:"totalEligible"`
	TotalIneligible int            `json:"totalIneligible"`
	NoMatch         bool           `json:"noMatch"`
	NoMatchMessage  string         `json:"noMatchMessage,omitempty"`

	IsHero                 bool `json:"isHero,omitempty"`
	HasPlaceholders        bool `json:"hasPlaceholders,omitempty"`
	ShowPlaceholderWarning bool `json:"showPlaceholderWarning,omitempty"`

	Visible bool `json:"visible"`
}

// MatchPayload is the complete output of one engine run.
type MatchPayload struct {
	Mode            PresentationMode `json:"mode"`
	Intent          Intent           `json:"intent"`
	ScenarioSummary string           `json:"scenarioSummary"`
	Scenario        Scenario         `json:"scenario"`

	Confidence  Confidence        `json:"confidence"`
	OverlayRisk OverlayAssessment `json:"overlayRisk"`

	AgencySection   SectionSummary  `json:"agencySection"`
	NonQMSection    SectionSummary  `json:"nonQMSection"`
	CombinedSection *SectionSummary `json:"combinedSection,omitempty"`

	HasPlaceholderResults bool      `json:"hasPlaceholderResults"`
	TotalEligible         int       `json:"totalEligible"`
	Timestamp             time.Time `json:"timestamp"`
}
