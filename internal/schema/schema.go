// Package schema validates non-QM lender records before they enter the
// catalog. Validation happens once at the boundary; downstream code trusts
// the typed records it receives.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

const placeholderVersionRef = "PLACEHOLDER-v0"

// ValidateNonQMLender checks one raw non-QM lender record. The banned-field
// scan runs first and is terminal: a record carrying pricing data is
// rejected without further validation. On success the typed record is
// returned and may be trusted without re-checking.
func ValidateNonQMLender(raw []byte) (*model.NonQMLender, error) {
	var node map[string]any
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, eris.Wrap(err, "schema: decode record")
	}

	if errs := scanBannedFields("", node); len(errs) > 0 {
		return nil, eris.New("schema: " + strings.Join(errs, "; "))
	}

	var lender model.NonQMLender
	if err := json.Unmarshal(raw, &lender); err != nil {
		return nil, eris.Wrap(err, "schema: decode record")
	}

	var errs []string
	validateIdentity(&lender, &errs)
	validateVersioning(&lender, &errs)
	validatePrograms(&lender, &errs)
	validateDisplay(&lender, &errs)
	if len(errs) > 0 {
		return nil, eris.New("schema: " + strings.Join(errs, "; "))
	}
	return &lender, nil
}

// ValidateCatalog validates a JSON array of non-QM lender records and
// returns only the valid ones. Rejections are logged with the record index
// and lender id; a rejected record never reaches the engine.
func ValidateCatalog(raw []byte) ([]model.NonQMLender, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(raw, &raws); err != nil {
		return nil, eris.Wrap(err, "schema: decode catalog")
	}

	valid := make([]model.NonQMLender, 0, len(raws))
	rejected := 0
	for i, rec := range raws {
		lender, err := ValidateNonQMLender(rec)
		if err != nil {
			rejected++
			zap.L().Warn("rejected non-QM lender record",
				zap.Int("index", i),
				zap.String("lenderId", peekID(rec)),
				zap.String("errors", err.Error()))
			continue
		}
		valid = append(valid, *lender)
	}

	zap.L().Info("validated non-QM catalog",
		zap.Int("valid", len(valid)),
		zap.Int("rejected", rejected))
	return valid, nil
}

func peekID(raw json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || probe.ID == "" {
		return "unknown"
	}
	return probe.ID
}

func validateIdentity(l *model.NonQMLender, errs *[]string) {
	if l.ID == "" {
		*errs = append(*errs, "id is required")
	}
	if l.ProfileName == "" {
		*errs = append(*errs, "profileName is required")
	}
	if l.ShortName == "" {
		*errs = append(*errs, "shortName is required")
	}
	switch l.DataSource {
	case model.DataSourceReal, model.DataSourcePlaceholder:
	default:
		*errs = append(*errs, fmt.Sprintf("dataSource must be REAL or PLACEHOLDER, got %q", l.DataSource))
	}
	if !strings.HasPrefix(l.AccentColor, "#") {
		*errs = append(*errs, "accentColor must be a hex color")
	}
	if l.PriorityWeight < 0 || l.PriorityWeight > 100 {
		*errs = append(*errs, fmt.Sprintf("priorityWeight must be 0-100, got %v", l.PriorityWeight))
	}
}

func validateVersioning(l *model.NonQMLender, errs *[]string) {
	if l.Version < 0 {
		*errs = append(*errs, "version must be >= 0")
	}
	if l.GuidelineVersionRef == "" {
		*errs = append(*errs, "guidelineVersionRef is required")
	}
	if l.EffectiveDate == "" {
		*errs = append(*errs, "effectiveDate is required")
	}
	switch l.DataSource {
	case model.DataSourcePlaceholder:
		if l.Version != 0 {
			*errs = append(*errs, "placeholder records must have version 0")
		}
		if l.GuidelineVersionRef != placeholderVersionRef {
			*errs = append(*errs, fmt.Sprintf("placeholder records must reference %s", placeholderVersionRef))
		}
	case model.DataSourceReal:
		if l.Version < 1 {
			*errs = append(*errs, "verified records must have version >= 1")
		}
	}
}

func validatePrograms(l *model.NonQMLender, errs *[]string) {
	if len(l.Programs) == 0 {
		*errs = append(*errs, "programs must not be empty")
		return
	}
	for _, p := range l.Programs {
		if !isNonQMProgram(p) {
			*errs = append(*errs, fmt.Sprintf("unknown program %q", p))
			continue
		}
		g, ok := l.Guidelines[p]
		if !ok {
			*errs = append(*errs, fmt.Sprintf("program %s has no guideline block", p))
			continue
		}
		prefix := string(p)
		switch p {
		case model.ProgramDSCR:
			validateDSCRGuidelines(prefix, &g, errs)
		case model.ProgramAssetDepletion:
			validateAssetDepletionGuidelines(prefix, &g, errs)
		case model.ProgramNoDoc:
			validateNoDocGuidelines(prefix, &g, errs)
		default:
			// BankStatement12/24 and NinetyNineOnly share one shape.
			validateBankStatementGuidelines(prefix, &g, errs)
		}
	}
}

func isNonQMProgram(p model.Program) bool {
	for _, known := range model.NonQMProgramList {
		if p == known {
			return true
		}
	}
	return false
}

func validateBankStatementGuidelines(prefix string, g *model.NonQMGuidelines, errs *[]string) {
	validateFICO(prefix, g.MinFICO, errs)
	if g.ExpenseFactor == nil || *g.ExpenseFactor <= 0 || *g.ExpenseFactor >= 1 {
		*errs = append(*errs, prefix+": expenseFactor must be between 0 and 1")
	}
	if g.MaxDTI == nil || *g.MaxDTI < 1 || *g.MaxDTI > 100 {
		*errs = append(*errs, prefix+": maxDTI must be 1-100")
	}
	if g.AllowsShortTermRental == nil {
		*errs = append(*errs, prefix+": allowsShortTermRental is required")
	}
	validateCommonGuidelines(prefix, g, errs)
	validateOccupancyLTV(prefix, &g.MaxLTV, errs)
}

func validateDSCRGuidelines(prefix string, g *model.NonQMGuidelines, errs *[]string) {
	validateFICO(prefix, g.MinFICO, errs)
	if g.MinDSCR == nil || *g.MinDSCR < 0 {
		*errs = append(*errs, prefix+": minDSCR must be >= 0")
	}
	validateCommonGuidelines(prefix, g, errs)
	// DSCR lends on investment properties only.
	if g.MaxLTV.Investment == nil {
		*errs = append(*errs, prefix+": maxLTV.investment block is required")
	} else {
		validateLTVBlock(prefix+".maxLTV.investment", g.MaxLTV.Investment, errs)
	}
}

func validateAssetDepletionGuidelines(prefix string, g *model.NonQMGuidelines, errs *[]string) {
	validateFICO(prefix, g.MinFICO, errs)
	if g.MinAssets == nil || *g.MinAssets <= 0 {
		*errs = append(*errs, prefix+": minAssets must be > 0")
	}
	if g.DepletionMonths == nil || *g.DepletionMonths <= 0 {
		*errs = append(*errs, prefix+": depletionMonths must be > 0")
	}
	validateCommonGuidelines(prefix, g, errs)
	validateOccupancyLTV(prefix, &g.MaxLTV, errs)
}

func validateNoDocGuidelines(prefix string, g *model.NonQMGuidelines, errs *[]string) {
	validateFICO(prefix, g.MinFICO, errs)
	validateCommonGuidelines(prefix, g, errs)
	if g.MaxLTV.Primary == nil && g.MaxLTV.Investment == nil {
		*errs = append(*errs, prefix+": maxLTV must define at least one occupancy block")
	}
	for occ, block := range map[string]*model.LTVLimits{
		"primary":    g.MaxLTV.Primary,
		"secondHome": g.MaxLTV.SecondHome,
		"investment": g.MaxLTV.Investment,
	} {
		if block != nil {
			validateLTVBlock(prefix+".maxLTV."+occ, block, errs)
		}
	}
}

func validateFICO(prefix string, minFICO int, errs *[]string) {
	if minFICO < 300 || minFICO > 850 {
		*errs = append(*errs, prefix+": minFICO must be 300-850")
	}
}

// validateCommonGuidelines checks the fields every program shares.
func validateCommonGuidelines(prefix string, g *model.NonQMGuidelines, errs *[]string) {
	if g.MaxLoanAmount <= 0 {
		*errs = append(*errs, prefix+": maxLoanAmount must be > 0")
	}
	if g.MinReserveMonths < 0 {
		*errs = append(*errs, prefix+": minReserveMonths must be >= 0")
	}
	if g.BKSeasoning < 0 || g.FCSeasoning < 0 || g.ShortSaleSeasoning < 0 {
		*errs = append(*errs, prefix+": seasoning months must be >= 0")
	}
	validatePropertyTypes(prefix, g.AllowedPropertyTypes, errs)
	validateStates(prefix, g.States, errs)
	if g.CashOutMax != nil && *g.CashOutMax <= 0 {
		*errs = append(*errs, prefix+": cashOutMax must be null or > 0")
	}
}

// validateOccupancyLTV requires primary and investment blocks; secondHome is
// optional everywhere it appears.
func validateOccupancyLTV(prefix string, ltv *model.OccupancyLTV, errs *[]string) {
	if ltv.Primary == nil {
		*errs = append(*errs, prefix+": maxLTV.primary block is required")
	}
	if ltv.Investment == nil {
		*errs = append(*errs, prefix+": maxLTV.investment block is required")
	}
	for occ, block := range map[string]*model.LTVLimits{
		"primary":    ltv.Primary,
		"secondHome": ltv.SecondHome,
		"investment": ltv.Investment,
	} {
		if block != nil {
			validateLTVBlock(prefix+".maxLTV."+occ, block, errs)
		}
	}
}

func validateLTVBlock(prefix string, block *model.LTVLimits, errs *[]string) {
	for name, v := range map[string]float64{
		"purchase": block.Purchase,
		"rateTerm": block.RateTerm,
		"cashOut":  block.CashOut,
	} {
		if v < 1 || v > 100 {
			*errs = append(*errs, fmt.Sprintf("%s.%s must be 1-100, got %v", prefix, name, v))
		}
	}
}

func validatePropertyTypes(prefix string, types []model.PropertyType, errs *[]string) {
	if len(types) == 0 {
		*errs = append(*errs, prefix+": allowedPropertyTypes must not be empty")
		return
	}
	if types[0] == "ALL" {
		return
	}
	for _, pt := range types {
		if !isValidPropertyType(pt) {
			*errs = append(*errs, fmt.Sprintf("%s: unknown property type %q", prefix, pt))
		}
	}
}

func isValidPropertyType(pt model.PropertyType) bool {
	for _, known := range model.ValidPropertyTypes {
		if pt == known {
			return true
		}
	}
	return false
}

func validateStates(prefix string, states []string, errs *[]string) {
	if len(states) == 0 {
		*errs = append(*errs, prefix+": states must not be empty")
		return
	}
	if len(states) == 1 && states[0] == "ALL" {
		return
	}
	for _, st := range states {
		if len(st) != 2 || st != strings.ToUpper(st) {
			*errs = append(*errs, fmt.Sprintf("%s: state must be a 2-letter code, got %q", prefix, st))
		}
	}
}

func validateDisplay(l *model.NonQMLender, errs *[]string) {
	switch l.TierBasis {
	case model.TierBasisAggressive, model.TierBasisMarket, model.TierBasisConservative:
	default:
		*errs = append(*errs, fmt.Sprintf("tierBasis must be Aggressive, Market, or Conservative, got %q", l.TierBasis))
	}
	if l.TierNotes == "" {
		*errs = append(*errs, "tierNotes is required")
	}
	if l.TypicalUseCase == "" {
		*errs = append(*errs, "typicalUseCase is required")
	}
	validateProse("strengths", l.Strengths, errs)
	validateProse("weaknesses", l.Weaknesses, errs)
}

func validateProse(name string, entries []string, errs *[]string) {
	if len(entries) < 1 || len(entries) > 3 {
		*errs = append(*errs, name+" must have 1-3 entries")
		return
	}
	for _, e := range entries {
		if strings.TrimSpace(e) == "" {
			*errs = append(*errs, name+" entries must be non-empty")
		}
	}
}
