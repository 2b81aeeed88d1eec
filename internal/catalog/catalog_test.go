package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

func TestLoadAgency(t *testing.T) {
	t.Parallel()

	lenders, err := LoadAgency()
	require.NoError(t, err)
	require.Len(t, lenders, 8)

	byID := make(map[string]model.AgencyLender, len(lenders))
	for _, l := range lenders {
		assert.True(t, l.Active)
		assert.Equal(t, model.DataSourceReal, l.DataSource)
		assert.NotEmpty(t, l.Programs)
		byID[l.ID] = l
	}

	uwm, ok := byID["agency_001"]
	require.True(t, ok)
	assert.Equal(t, "UWM", uwm.ShortName)
	assert.Equal(t, 620, uwm.Guidelines[model.ProgramConventional].MinFICO)
	assert.Equal(t, 97.0, uwm.Guidelines[model.ProgramConventional].MaxLTV.Purchase)
}

func TestLoadNonQM(t *testing.T) {
	t.Parallel()

	lenders, err := LoadNonQM()
	require.NoError(t, err)
	require.Len(t, lenders, 6)

	for _, l := range lenders {
		assert.True(t, l.Active)
		assert.Equal(t, model.DataSourcePlaceholder, l.DataSource)
		assert.Zero(t, l.Version)
		assert.Equal(t, "PLACEHOLDER-v0", l.GuidelineVersionRef)
		assert.NotEmpty(t, l.Disclaimer)
	}
}

func TestMergeAgencyOverrides(t *testing.T) {
	t.Parallel()

	lenders, err := LoadAgency()
	require.NoError(t, err)

	t.Run("field override by id", func(t *testing.T) {
		merged := MergeAgencyOverrides(lenders, []json.RawMessage{
			json.RawMessage(`{"id":"agency_001","priorityWeight":40}`),
		})
		require.Len(t, merged, len(lenders))
		assert.Equal(t, 40.0, merged[0].PriorityWeight)
		assert.Equal(t, "UWM", merged[0].ShortName)
		assert.Equal(t, 90.0, lenders[0].PriorityWeight)
	})

	t.Run("unknown id passes through", func(t *testing.T) {
		merged := MergeAgencyOverrides(lenders, []json.RawMessage{
			json.RawMessage(`{"id":"agency_999","priorityWeight":40}`),
		})
		assert.Equal(t, lenders, merged)
	})

	t.Run("empty overrides return the catalog unchanged", func(t *testing.T) {
		assert.Equal(t, lenders, MergeAgencyOverrides(lenders, nil))
	})
}

func realDSCROverride(t *testing.T) json.RawMessage {
	t.Helper()
	override := map[string]any{
		"id":                  "nonqm_placeholder_003",
		"profileName":         "Verified DSCR Lender",
		"shortName":           "VerifiedDSCR",
		"accentColor":         "#0ea5e9",
		"dataSource":          "REAL",
		"priorityWeight":      80,
		"active":              true,
		"version":             2,
		"guidelineVersionRef": "2026-06",
		"effectiveDate":       "2026-06-01",
		"programs":            []string{"DSCR"},
		"guidelines": map[string]any{
			"DSCR": map[string]any{
				"minFICO": 640,
				"minDSCR": 1.05,
				"maxLTV": map[string]any{
					"investment": map[string]any{"purchase": 80, "rateTerm": 75, "cashOut": 70},
				},
				"maxLoanAmount":        2500000,
				"minReserveMonths":     3,
				"allowedPropertyTypes": []string{"SFR", "Condo"},
				"bkSeasoning":          24,
				"fcSeasoning":          36,
				"shortSaleSeasoning":   36,
				"states":               []string{"ALL"},
			},
		},
		"tierBasis":      "Market",
		"tierNotes":      "Verified guideline data",
		"typicalUseCase": "Investors needing verified DSCR terms",
		"strengths":      []string{"Verified guidelines"},
		"weaknesses":     []string{"Higher FICO floor"},
	}
	raw, err := json.Marshal(override)
	require.NoError(t, err)
	return raw
}

func TestMergeNonQMOverrides(t *testing.T) {
	t.Parallel()

	lenders, err := LoadNonQM()
	require.NoError(t, err)

	find := func(list []model.NonQMLender, id string) *model.NonQMLender {
		for i := range list {
			if list[i].ID == id {
				return &list[i]
			}
		}
		return nil
	}

	t.Run("verified record supersedes the placeholder", func(t *testing.T) {
		merged := MergeNonQMOverrides(lenders, []json.RawMessage{realDSCROverride(t)})
		got := find(merged, "nonqm_placeholder_003")
		require.NotNil(t, got)
		assert.Equal(t, model.DataSourceReal, got.DataSource)
		assert.Equal(t, 2, got.Version)
		assert.Equal(t, "2026-06", got.GuidelineVersionRef)
		assert.Equal(t, 640, got.Guidelines[model.ProgramDSCR].MinFICO)
		assert.False(t, got.IsPlaceholder())
	})

	t.Run("placeholder override merges partially", func(t *testing.T) {
		merged := MergeNonQMOverrides(lenders, []json.RawMessage{
			json.RawMessage(`{"id":"nonqm_placeholder_003","dataSource":"PLACEHOLDER","priorityWeight":30}`),
		})
		got := find(merged, "nonqm_placeholder_003")
		require.NotNil(t, got)
		assert.Equal(t, 30.0, got.PriorityWeight)
		assert.Zero(t, got.Version)
		assert.Equal(t, model.DataSourcePlaceholder, got.DataSource)
		// Untouched fields survive the merge.
		original := find(lenders, "nonqm_placeholder_003")
		assert.Equal(t, original.Guidelines, got.Guidelines)
	})

	t.Run("invalid merge keeps the original", func(t *testing.T) {
		merged := MergeNonQMOverrides(lenders, []json.RawMessage{
			json.RawMessage(`{"id":"nonqm_placeholder_003","dataSource":"PLACEHOLDER","accentColor":"not-a-color"}`),
		})
		got := find(merged, "nonqm_placeholder_003")
		require.NotNil(t, got)
		assert.NotEqual(t, "not-a-color", got.AccentColor)
	})

	t.Run("unrecognized format keeps the placeholder", func(t *testing.T) {
		merged := MergeNonQMOverrides(lenders, []json.RawMessage{
			json.RawMessage(`{"id":"nonqm_placeholder_003","dataSource":"REAL","version":0}`),
		})
		got := find(merged, "nonqm_placeholder_003")
		require.NotNil(t, got)
		assert.Equal(t, model.DataSourcePlaceholder, got.DataSource)
	})

	t.Run("pricing data in an override is rejected", func(t *testing.T) {
		merged := MergeNonQMOverrides(lenders, []json.RawMessage{
			json.RawMessage(`{"id":"nonqm_placeholder_003","dataSource":"PLACEHOLDER","rate":6.5}`),
		})
		got := find(merged, "nonqm_placeholder_003")
		require.NotNil(t, got)
		assert.Equal(t, *find(lenders, "nonqm_placeholder_003"), *got)
	})
}

func TestLoadOverrideFile(t *testing.T) {
	t.Parallel()

	raws, err := LoadOverrideFile([]byte(`[{"id":"a"},{"id":"b"}]`))
	require.NoError(t, err)
	assert.Len(t, raws, 2)

	_, err = LoadOverrideFile([]byte(`{"id":"a"}`))
	assert.Error(t, err)
}
