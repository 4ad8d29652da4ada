package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sog"
	"github.com/hupe1980/sog/resource"
)

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusCollector(reg)

	p.RecordStage(sog.StageMeans, 20*time.Millisecond, nil)
	p.RecordStage(sog.StageColors, time.Second, nil)
	p.RecordStage(sog.StageColors, time.Second, errors.New("boom"))
	p.RecordExport(100, 4096, 2*time.Second, nil)
	p.RecordExport(50, 0, time.Second, errors.New("boom"))

	assert.Equal(t, 3, promtest.CollectAndCount(p.stageLatency))
	assert.Equal(t, float64(1), promtest.ToFloat64(p.exports.WithLabelValues("success")))
	assert.Equal(t, float64(1), promtest.ToFloat64(p.exports.WithLabelValues("error")))
	assert.Equal(t, float64(100), promtest.ToFloat64(p.rows))
	assert.Equal(t, float64(4096), promtest.ToFloat64(p.bytes))

	// registering twice on the same registry panics
	assert.Panics(t, func() { NewPrometheusCollector(reg) })
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusCollector(reg)
	RegisterController(reg, resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20}))
	p.RecordStage(sog.StageSH, time.Millisecond, nil)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `sog_stage_duration_seconds_count{stage="sh",status="success"} 1`), text)
	assert.Contains(t, text, "sog_memory_reserved_bytes 0")
	assert.Contains(t, text, "sog_compute_waiting 0")
}
