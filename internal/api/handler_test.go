package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bayesim/domain/scenario"
	"bayesim/internal/errors"
	"bayesim/internal/testkit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *testkit.TestKit, *SSEHub) {
	t.Helper()
	kit := testkit.NewTestKit()
	hub := NewSSEHub(kit.Logger())
	t.Cleanup(hub.Stop)

	handler := NewSimulationHandler(kit.SimulationService(), hub, Defaults{
		Inputs:  scenario.Defaults(),
		Samples: 400,
		Seed:    testkit.DefaultSeed,
		Workers: 1,
	}, kit.Logger())
	return NewRouter(gin.TestMode, handler, hub), kit, hub
}

func do(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type simulateBody struct {
	RunID   string `json:"run_id"`
	Record  struct {
		SampleCount int    `json:"sample_count"`
		Seed        int64  `json:"seed"`
		Fingerprint string `json:"fingerprint"`
	} `json:"record"`
	Summary struct {
		Total int `json:"total"`
	} `json:"summary"`
	Samples *struct {
		Variables []string            `json:"variables"`
		Samples   []map[string]string `json:"samples"`
	} `json:"samples"`
}

func TestSimulate_Defaults(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/api/simulate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body simulateBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.RunID)
	assert.Equal(t, 400, body.Record.SampleCount)
	assert.Equal(t, int64(42), body.Record.Seed)
	assert.Equal(t, 400, body.Summary.Total)
	assert.Nil(t, body.Samples)
}

func TestSimulate_ScalarsAndSamples(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/api/simulate", map[string]interface{}{
		"smoking": 0.5, "cancer": 0.2, "breath": 0.4,
		"samples": 25, "seed": 11, "include_samples": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body simulateBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Samples)
	assert.Equal(t, []string{scenario.Smoking, scenario.LungCancer, scenario.ShortnessOfBreath}, body.Samples.Variables)
	assert.Len(t, body.Samples.Samples, 25)
}

func TestSimulate_SameSeedSameFingerprint(t *testing.T) {
	router, _, _ := newTestRouter(t)
	req := map[string]interface{}{"samples": 300, "seed": 77, "workers": 2}

	var a, b simulateBody
	require.NoError(t, json.Unmarshal(do(router, http.MethodPost, "/api/simulate", req).Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(do(router, http.MethodPost, "/api/simulate", req).Body.Bytes(), &b))
	assert.Equal(t, a.Record.Fingerprint, b.Record.Fingerprint)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestSimulate_Errors(t *testing.T) {
	router, _, _ := newTestRouter(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"probability out of range", map[string]interface{}{"smoking": 1.5, "cancer": 0.1, "breath": 0.1}, http.StatusBadRequest, errors.CodeInvalidInput},
		{"partial scalars", map[string]interface{}{"smoking": 0.5}, http.StatusBadRequest, errors.CodeInvalidInput},
		{"negative samples", map[string]interface{}{"samples": -1}, http.StatusBadRequest, errors.CodeInvalidInput},
		{"samples above limit", map[string]interface{}{"samples": 1 << 55}, http.StatusBadRequest, errors.CodeInvalidInput},
		{"workers above limit", map[string]interface{}{"samples": 1, "workers": 10_000_000}, http.StatusBadRequest, errors.CodeInvalidInput},
		{"both forms", map[string]interface{}{"inputs": scenario.Defaults(), "smoking": 0.5}, http.StatusBadRequest, errors.CodeInvalidInput},
		{"malformed", "not an object", http.StatusBadRequest, errors.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, http.MethodPost, "/api/simulate", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSimulate_OversizedRequestRecordsNothing(t *testing.T) {
	router, kit, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/api/simulate", map[string]interface{}{"samples": 1 << 55})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid sample count")

	runs, err := kit.LedgerAdapter().ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRuns(t *testing.T) {
	router, kit, _ := newTestRouter(t)
	results := kit.RecordRuns(t, 3, 50)

	rec := do(router, http.MethodGet, "/api/runs?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)

	id := results[1].RunID.String()
	rec = do(router, http.MethodGet, "/api/runs/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)

	rec = do(router, http.MethodGet, "/api/runs/"+id+"/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# Simulation report")

	rec = do(router, http.MethodGet, "/api/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(router, http.MethodGet, "/api/runs?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSimulate_BroadcastsEvent(t *testing.T) {
	router, _, hub := newTestRouter(t)
	events, cancel := hub.Subscribe()
	defer cancel()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	rec := do(router, http.MethodPost, "/api/simulate", map[string]interface{}{"samples": 10})
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case event := <-events:
		assert.Equal(t, "run.completed", event.EventType)
		assert.Equal(t, 10, event.SampleCount)
	case <-time.After(time.Second):
		t.Fatal("no run event received")
	}
}
