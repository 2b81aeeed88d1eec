package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanbeacons/lendermatch-cli/internal/engine"
	"github.com/loanbeacons/lendermatch-cli/internal/store"
)

func TestOverrideCatalogName(t *testing.T) {
	for _, valid := range []string{"agency", "nonqm"} {
		got, err := overrideCatalogName(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, got)
	}

	_, err := overrideCatalogName("jumbo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown catalog "jumbo"`)
}

func TestAppendStoredOverrides(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "ovr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	_, err = st.SaveOverride(context.Background(), store.CatalogAgency, json.RawMessage(`{"id":"agency_001","priorityWeight":40}`))
	require.NoError(t, err)
	_, err = st.SaveOverride(context.Background(), store.CatalogNonQM, json.RawMessage(`{"id":"nonqm_placeholder_001","priorityWeight":20}`))
	require.NoError(t, err)

	opts := engine.Options{AgencyOverrides: []json.RawMessage{json.RawMessage(`{"id":"agency_002"}`)}}
	require.NoError(t, appendStoredOverrides(context.Background(), st, &opts))

	require.Len(t, opts.AgencyOverrides, 2, "stored fragments append after file-based ones")
	assert.JSONEq(t, `{"id":"agency_002"}`, string(opts.AgencyOverrides[0]))
	assert.JSONEq(t, `{"id":"agency_001","priorityWeight":40}`, string(opts.AgencyOverrides[1]))
	require.Len(t, opts.NonQMOverrides, 1)
}

func TestFormatOverridesList(t *testing.T) {
	overrides := []store.StoredOverride{{
		ID:        "3f8a9c21-1111-4222-8333-944455566677",
		Catalog:   store.CatalogNonQM,
		Patch:     json.RawMessage(`{"id":"nonqm_placeholder_003","priorityWeight":30}`),
		CreatedAt: time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
	}}

	var buf bytes.Buffer
	formatOverridesList(&buf, overrides)
	out := buf.String()

	assert.Contains(t, out, "3f8a9c21")
	assert.Contains(t, out, "nonqm")
	assert.Contains(t, out, "nonqm_placeholder_003")
	assert.Contains(t, out, "2026-08-20 09:00")
}
