package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/sweep/core/metrics"
)

type lineServer struct {
	mu     sync.Mutex
	bodies []string
	srv    *httptest.Server
}

func newLineServer(t *testing.T) *lineServer {
	ls := &lineServer{}
	ls.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		ls.mu.Lock()
		ls.bodies = append(ls.bodies, strings.TrimSpace(string(b)))
		ls.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(ls.srv.Close)
	return ls
}

func (ls *lineServer) got() []string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return append([]string(nil), ls.bodies...)
}

func TestInfluxSink_RecordRun(t *testing.T) {
	ls := newLineServer(t)
	sink := NewInfluxSink(ls.srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	rec := coremetrics.RunRecord{
		Session: "s1", Campaign: "reward_spec=AllTrue", Method: "spudd",
		Cost: 1.23456, Known: true, Estimate: 1.5, Elapsed: 1200 * time.Millisecond, Time: now,
	}
	require.NoError(t, sink.RecordRun(rec))

	p := write.NewPointWithMeasurement("sweep_run").
		AddTag("session", "s1").
		AddTag("campaign", "reward_spec=AllTrue").
		AddTag("method", "spudd").
		AddTag("known", "true").
		AddTag("cached", "false").
		AddField("estimate", 1.5).
		AddField("elapsed_ms", int64(1200)).
		AddField("cost", 1.235).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	assert.Equal(t, []string{exp}, ls.got())
}

func TestInfluxSink_RecordRunUnknownHasNoCost(t *testing.T) {
	ls := newLineServer(t)
	sink := NewInfluxSink(ls.srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()

	require.NoError(t, sink.RecordRun(coremetrics.RunRecord{Method: "spudd", Time: time.Now()}))
	bodies := ls.got()
	require.Len(t, bodies, 1)
	assert.NotContains(t, bodies[0], "cost=")
	assert.Contains(t, bodies[0], "known=false")
}

func TestInfluxSink_RecordCampaign(t *testing.T) {
	ls := newLineServer(t)
	sink := NewInfluxSink(ls.srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	require.NoError(t, sink.RecordCampaign(coremetrics.CampaignRecord{
		Session: "s1", Campaign: "c", Method: "valIt", Runs: 2, Size: 5, Completed: false, Time: now,
	}))
	p := write.NewPointWithMeasurement("sweep_campaign").
		AddTag("session", "s1").
		AddTag("campaign", "c").
		AddTag("method", "valIt").
		AddTag("completed", "false").
		AddField("runs", 2).
		AddField("size", 5).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	assert.Equal(t, []string{exp}, ls.got())
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	assert.IsType(t, coremetrics.NopSink{}, sink)
	assert.True(t, called)
}
