package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

func TestListScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.json", "c.yml", "notes.txt", "readme.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))

	paths, err := listScenarioFiles(dir)
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "c.yml"),
	}
	assert.Equal(t, want, paths)
}

func TestListScenarioFilesMissingDir(t *testing.T) {
	_, err := listScenarioFiles(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read scenario dir")
}

func TestReadScenarioFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "s.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"creditScore": 680, "ltv": 80}`), 0o644))

		raw, err := readScenarioFile(path)
		require.NoError(t, err)
		assert.Equal(t, 680, raw.CreditScore)
		assert.Equal(t, 80.0, raw.LTV)
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "s.yml")
		require.NoError(t, os.WriteFile(path, []byte("creditScore: 650\nselfEmployed: true\n"), 0o644))

		raw, err := readScenarioFile(path)
		require.NoError(t, err)
		assert.Equal(t, 650, raw.CreditScore)
		assert.True(t, raw.SelfEmployed)
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

		_, err := readScenarioFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse scenario")
	})
}

func TestProcessScenarioBatch(t *testing.T) {
	paths := []string{"a.json", "b.json", "c.json", "d.json"}

	var calls atomic.Int64
	err := processScenarioBatch(paths, 2, func(path string) (*model.MatchPayload, error) {
		calls.Add(1)
		if path == "c.json" {
			return nil, eris.New("boom")
		}
		return &model.MatchPayload{
			TotalEligible: 1,
			OverlayRisk:   model.OverlayAssessment{Level: model.OverlayLow},
		}, nil
	})

	require.NoError(t, err, "individual failures do not abort the batch")
	assert.Equal(t, int64(4), calls.Load())
}

func TestProcessScenarioBatchZeroConcurrency(t *testing.T) {
	var calls atomic.Int64
	err := processScenarioBatch([]string{"a.json"}, 0, func(string) (*model.MatchPayload, error) {
		calls.Add(1)
		return &model.MatchPayload{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestWritePayload(t *testing.T) {
	outDir := t.TempDir()
	payload := &model.MatchPayload{
		ScenarioSummary: "FHA | Purchase | $300,000 | 640 FICO | 90% LTV | SFR | Primary",
		TotalEligible:   6,
	}

	require.NoError(t, writePayload(outDir, "/scenarios/first-time-buyer.yaml", payload))

	data, err := os.ReadFile(filepath.Join(outDir, "first-time-buyer.result.json"))
	require.NoError(t, err)

	var got model.MatchPayload
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, payload.ScenarioSummary, got.ScenarioSummary)
	assert.Equal(t, 6, got.TotalEligible)
}
