// Package catalog loads the embedded lender catalogs and applies override
// records on top of them. The agency catalog ships verified guideline data;
// the non-QM catalog ships placeholder profiles that real lender records
// supersede through overrides.
package catalog

import (
	_ "embed"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
	"github.com/loanbeacons/lendermatch-cli/internal/schema"
)

// Conforming and program loan limits, 2025/2026.
const (
	ConformingLimit      = 806500
	FHAFloor             = 524225
	HighBalanceThreshold = 806500
)

//go:embed data/agency.json
var agencyData []byte

//go:embed data/nonqm.json
var nonQMData []byte

// LoadAgency decodes the embedded agency catalog.
func LoadAgency() ([]model.AgencyLender, error) {
	var lenders []model.AgencyLender
	if err := json.Unmarshal(agencyData, &lenders); err != nil {
		return nil, eris.Wrap(err, "catalog: decode agency catalog")
	}
	return active(lenders, func(l model.AgencyLender) bool { return l.Active }), nil
}

// LoadNonQM decodes and schema-validates the embedded non-QM catalog.
// Records that fail validation are logged and dropped.
func LoadNonQM() ([]model.NonQMLender, error) {
	lenders, err := schema.ValidateCatalog(nonQMData)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: load non-QM catalog")
	}
	return active(lenders, func(l model.NonQMLender) bool { return l.Active }), nil
}

func active[T any](lenders []T, keep func(T) bool) []T {
	out := make([]T, 0, len(lenders))
	for _, l := range lenders {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

// LoadOverrideFile decodes a JSON file of raw override records. Overrides
// are kept raw until merge time so partial records merge field by field.
func LoadOverrideFile(data []byte) ([]json.RawMessage, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, eris.Wrap(err, "catalog: decode overrides")
	}
	return raws, nil
}

func peekOverrideHeader(raw json.RawMessage) (id string, source model.DataSource, version int) {
	var probe struct {
		ID         string           `json:"id"`
		DataSource model.DataSource `json:"dataSource"`
		Version    int              `json:"version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", "", 0
	}
	return probe.ID, probe.DataSource, probe.Version
}

// MergeAgencyOverrides applies override records onto the agency catalog by
// lender id. Override fields win; lenders without an override pass through
// untouched. Returns a new slice.
func MergeAgencyOverrides(lenders []model.AgencyLender, overrides []json.RawMessage) []model.AgencyLender {
	if len(overrides) == 0 {
		return lenders
	}
	byID := make(map[string]json.RawMessage, len(overrides))
	for _, o := range overrides {
		if id, _, _ := peekOverrideHeader(o); id != "" {
			byID[id] = o
		}
	}

	out := make([]model.AgencyLender, 0, len(lenders))
	for _, lender := range lenders {
		raw, ok := byID[lender.ID]
		if !ok {
			out = append(out, lender)
			continue
		}
		merged := lender
		if err := json.Unmarshal(raw, &merged); err != nil {
			zap.L().Warn("skipping malformed agency override",
				zap.String("lenderId", lender.ID), zap.Error(err))
			out = append(out, lender)
			continue
		}
		zap.L().Info("agency override applied", zap.String("lenderId", lender.ID))
		out = append(out, merged)
	}
	return out
}

// MergeNonQMOverrides applies override records onto the non-QM catalog.
// A REAL override with version >= 1 supersedes the placeholder outright; a
// PLACEHOLDER override is a partial update that stays version 0. Merged
// records are re-validated; a merge that produces an invalid record is
// dropped and the original kept, so a bad override can never degrade the
// catalog. Returns a new slice.
func MergeNonQMOverrides(lenders []model.NonQMLender, overrides []json.RawMessage) []model.NonQMLender {
	if len(overrides) == 0 {
		return lenders
	}
	byID := make(map[string]json.RawMessage, len(overrides))
	for _, o := range overrides {
		if id, _, _ := peekOverrideHeader(o); id != "" {
			byID[id] = o
		}
	}

	out := make([]model.NonQMLender, 0, len(lenders))
	for _, lender := range lenders {
		raw, ok := byID[lender.ID]
		if !ok {
			out = append(out, lender)
			continue
		}
		_, source, version := peekOverrideHeader(raw)
		switch {
		case source == model.DataSourceReal && version >= 1:
		case source == model.DataSourcePlaceholder:
		default:
			// Unrecognized override format, keep the placeholder.
			out = append(out, lender)
			continue
		}

		merged, err := mergeNonQM(lender, raw)
		if err != nil {
			zap.L().Warn("skipping invalid non-QM override",
				zap.String("lenderId", lender.ID), zap.Error(err))
			out = append(out, lender)
			continue
		}
		if source == model.DataSourceReal {
			zap.L().Info("placeholder superseded by verified lender record",
				zap.String("lenderId", lender.ID),
				zap.Int("version", merged.Version),
				zap.String("guidelineVersionRef", merged.GuidelineVersionRef))
		}
		out = append(out, *merged)
	}
	return out
}

// mergeNonQM overlays the override's fields onto a copy of the lender and
// re-validates the result. Top-level fields present in the override replace
// the originals wholesale; in particular a guidelines block in the override
// replaces the entire original block.
func mergeNonQM(lender model.NonQMLender, raw json.RawMessage) (*model.NonQMLender, error) {
	if err := schema.ScanPricingFields(raw); err != nil {
		return nil, err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, eris.Wrap(err, "catalog: decode override")
	}
	merged := lender
	if _, ok := keys["guidelines"]; ok {
		merged.Guidelines = nil
	}
	if _, ok := keys["programs"]; ok {
		merged.Programs = nil
	}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, eris.Wrap(err, "catalog: apply override")
	}

	full, err := json.Marshal(merged)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: encode merged record")
	}
	return schema.ValidateNonQMLender(full)
}
