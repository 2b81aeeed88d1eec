package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanbeacons/lendermatch-cli/internal/engine"
	"github.com/loanbeacons/lendermatch-cli/internal/model"
	"github.com/loanbeacons/lendermatch-cli/internal/store"
)

func newTestAPI(t *testing.T) http.Handler {
	t.Helper()
	testConfig(t)

	eng, err := engine.New()
	require.NoError(t, err)

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	api := &apiServer{eng: eng, store: st, opts: engine.Options{Mode: model.ModeSeparateSections}}
	return api.router()
}

func doJSON(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

const dscrScenarioBody = `{
	"creditScore": 700,
	"ltv": 70,
	"loanAmount": 400000,
	"transactionType": "purchase",
	"propertyType": "SFR",
	"occupancy": "Investment",
	"incomeDocType": "dscr",
	"dscr": 1.3,
	"reservesMonths": 6,
	"state": "TX"
}`

func TestServeHealth(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeMatch(t *testing.T) {
	handler := newTestAPI(t)

	t.Run("full doc scenario", func(t *testing.T) {
		body := `{"creditScore": 720, "ltv": 85, "dti": 38, "loanAmount": 400000, "state": "TX"}`
		rec := doJSON(t, handler, http.MethodPost, "/api/match", body)
		require.Equal(t, http.StatusOK, rec.Code)

		var payload model.MatchPayload
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Positive(t, payload.TotalEligible)
		assert.NotEmpty(t, payload.AgencySection.Eligible)
		assert.Equal(t, model.ModeSeparateSections, payload.Mode)
	})

	t.Run("mode query override", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/match?mode=COMBINED_RANKED", dscrScenarioBody)
		require.Equal(t, http.StatusOK, rec.Code)

		var payload model.MatchPayload
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.NotNil(t, payload.CombinedSection)
	})

	t.Run("unknown mode", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/match?mode=LEADERBOARD", dscrScenarioBody)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/match", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServeSealGetVoidFlow(t *testing.T) {
	handler := newTestAPI(t)

	sealBody := `{"scenario": ` + dscrScenarioBody + `, "lenderId": "nonqm_placeholder_003"}`
	rec := doJSON(t, handler, http.MethodPost, "/api/records", sealBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	var stored model.StoredRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	require.NotEmpty(t, stored.ID)
	assert.Equal(t, model.RecordStatusActive, stored.Status)
	assert.Equal(t, "nonqm_placeholder_003", stored.Record.SelectedLenderID)
	assert.Equal(t, model.DataSourcePlaceholder, stored.Record.DataSource)
	require.NotNil(t, stored.Record.Placeholder)
	assert.NotEmpty(t, stored.Record.Placeholder.Disclaimer)

	rec = doJSON(t, handler, http.MethodGet, "/api/records/"+stored.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched model.StoredRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, stored.ID, fetched.ID)
	assert.Equal(t, stored.Record.SelectedProgramID, fetched.Record.SelectedProgramID)

	rec = doJSON(t, handler, http.MethodGet, "/api/records?source=PLACEHOLDER", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var records []model.StoredRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)

	rec = doJSON(t, handler, http.MethodPost, "/api/records/"+stored.ID+"/void", `{"reason": "borrower chose another lender"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/records/"+stored.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, model.RecordStatusVoided, fetched.Status)
	assert.Equal(t, "borrower chose another lender", fetched.VoidReason)

	// Voiding is terminal.
	rec = doJSON(t, handler, http.MethodPost, "/api/records/"+stored.ID+"/void", `{"reason": "again"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeSealRejections(t *testing.T) {
	handler := newTestAPI(t)

	t.Run("missing lender id", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/records", `{"scenario": `+dscrScenarioBody+`}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("lender not eligible", func(t *testing.T) {
		sealBody := `{"scenario": ` + dscrScenarioBody + `, "lenderId": "agency_001"}`
		rec := doJSON(t, handler, http.MethodPost, "/api/records", sealBody)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown record lookup", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/records/no-such-id", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("void without reason", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/records/some-id/void", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServeListRecordsEmpty(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/records", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestServeRateLimit(t *testing.T) {
	limited := rateLimit(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	limited.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	limited.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestDrainOnCancelFinishesInFlightRequests(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			close(entered)
			<-release
			w.WriteHeader(http.StatusOK)
		}),
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	ctx, cancel := context.WithCancel(context.Background())
	drained := make(chan struct{})
	go func() {
		drainOnCancel(ctx, srv, 5*time.Second)
		close(drained)
	}()

	type response struct {
		code int
		err  error
	}
	got := make(chan response, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			got <- response{err: err}
			return
		}
		resp.Body.Close()
		got <- response{code: resp.StatusCode}
	}()

	<-entered
	cancel()
	close(release)

	// The canceled signal context must not cut the drain short: the
	// in-flight request still completes and Serve exits cleanly.
	res := <-got
	require.NoError(t, res.err)
	assert.Equal(t, http.StatusOK, res.code)

	select {
	case <-drained:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	assert.ErrorIs(t, <-serveErr, http.ErrServerClosed)
}
