package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mikey/llm-phish-detector/internal/core"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verdict(v bool) *core.AnalysisResult {
	return core.AssembleResult(core.ParsedFields{IsPhishing: &v}, nil, "")
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name   string
		result *core.AnalysisResult
		want   string
	}{
		{"phishing", verdict(true), OutcomePhishing},
		{"not phishing", verdict(false), OutcomeNotPhishing},
		{"undetermined", core.AssembleResult(core.ParsedFields{}, nil, ""), OutcomeUndetermined},
		{"error", core.FailureResult(errors.New("boom")), OutcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.result))
		})
	}
}

func TestObserve(t *testing.T) {
	m := New()

	m.ObserveAnalysis(verdict(true), 200*time.Millisecond)
	m.ObserveAnalysis(verdict(true), 300*time.Millisecond)
	m.ObserveAnalysis(core.FailureResult(errors.New("boom")), time.Second)
	m.ObserveCacheHit()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues(OutcomePhishing)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues(OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveCacheHit()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "phish_detector_cache_hits_total 1")
}
