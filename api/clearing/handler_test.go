package clearing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/gridmatch/core/batch"
	coreclearing "github.com/kilianp07/gridmatch/core/clearing"
	"github.com/kilianp07/gridmatch/core/factory"
	"github.com/kilianp07/gridmatch/core/store"
)

func init() { gin.SetMode(gin.TestMode) }

func newTestRouter(t *testing.T, s store.Store, token string) http.Handler {
	t.Helper()
	reg := coreclearing.NewRegistry(nil)
	runners := func(name string) (*batch.Runner, error) {
		if name == "" {
			name = coreclearing.PayAsClearName
		}
		strat, err := reg.Create(factory.ModuleConfig{Type: name})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, ErrUnknownStrategy)
		}
		return batch.NewRunner(strat, batch.WithStore(s)), nil
	}
	return NewRouter(NewHandler(runners, s, reg.Names()), token, nil)
}

const pacBook = `{"m1": {"2021-01-01T00:00": {
	"bids": [
		{"id": "1", "buyer": "H1", "energy": 10, "energy_rate": 25},
		{"id": "2", "buyer": "H2", "energy": 10, "energy_rate": 15}
	],
	"offers": [{"id": "1", "seller": "P1", "energy": 15, "energy_rate": 10}]
}}}`

func post(h http.Handler, path, body, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestMatch_PayAsClear(t *testing.T) {
	st := store.NewMemoryStore()
	h := newTestRouter(t, st, "")

	rr := post(h, "/api/clearing/match", pacBook, "application/json")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res MatchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, "pay_as_clear", res.Strategy)
	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, 10.0, res.Recommendations[0].SelectedEnergy)
	assert.Equal(t, 5.0, res.Recommendations[1].SelectedEnergy)
	assert.Equal(t, res.Recommendations[0].TradeRate, res.Recommendations[1].TradeRate)
	assert.Empty(t, res.Failures)

	recs, err := st.Query(context.Background(), store.Query{RunID: res.RunID})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 15.0, recs[0].ClearedEnergy)
}

func TestMatch_StrategyAliasAndYAML(t *testing.T) {
	h := newTestRouter(t, nil, "")
	yamlBody := `m1:
  s1:
    bids:
      - {id: b, buyer: H1, energy: 5, energy_rate: 30}
    offers:
      - {id: o, seller: P1, energy: 5, energy_rate: 20}
`
	rr := post(h, "/api/clearing/match?strategy=best_pab", yamlBody, "application/x-yaml")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res MatchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, "pay_as_bid", res.Strategy)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, 30.0, res.Recommendations[0].TradeRate)
}

func TestMatch_BadRequests(t *testing.T) {
	h := newTestRouter(t, nil, "")
	assert.Equal(t, http.StatusBadRequest, post(h, "/api/clearing/match", `[1, 2]`, "application/json").Code)
	assert.Equal(t, http.StatusBadRequest, post(h, "/api/clearing/match?strategy=lowest", pacBook, "application/json").Code)
}

func TestMatch_RejectedOrdersAreReported(t *testing.T) {
	h := newTestRouter(t, nil, "")
	body := `{"m": {"s": {"bids": [{"id": "1", "buyer": "H", "energy_rate": 1}], "offers": []}}}`
	rr := post(h, "/api/clearing/match", body, "application/json")
	require.Equal(t, http.StatusOK, rr.Code)
	var res MatchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "bid", res.Rejected[0].Side)
	assert.Contains(t, res.Rejected[0].Reason, "energy")
	assert.Empty(t, res.Recommendations)
	assert.Contains(t, rr.Body.String(), `"recommendations":[]`)
}

func TestLogs_AuthAndFilters(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Now()
	for i, market := range []string{"m1", "m2", "m1"} {
		require.NoError(t, st.Append(context.Background(), store.SlotRecord{
			Timestamp: now.Add(time.Duration(i) * time.Minute),
			RunID:     "run",
			MarketID:  market,
			TimeSlot:  fmt.Sprintf("s%d", i),
			Strategy:  "pay_as_bid",
		}))
	}
	h := newTestRouter(t, st, "tok")

	req := httptest.NewRequest(http.MethodGet, "/api/clearing/logs?market_id=m1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/clearing/logs?market_id=m1&limit=1", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var recs []store.SlotRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "s2", recs[0].TimeSlot)

	req = httptest.NewRequest(http.MethodGet, "/api/clearing/logs?limit=-1", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLogs_DisabledStore(t *testing.T) {
	h := newTestRouter(t, nil, "")
	req := httptest.NewRequest(http.MethodGet, "/api/clearing/logs", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStrategies(t *testing.T) {
	h := newTestRouter(t, nil, "")
	req := httptest.NewRequest(http.MethodGet, "/api/clearing/strategies", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Strategies []string `json:"strategies"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.ElementsMatch(t, []string{"cluster_fair", "pay_as_bid", "pay_as_clear"}, body.Strategies)
}
