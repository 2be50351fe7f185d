// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/titles", "200"))
	RecordAPIRequest("GET", "/api/v1/titles", "200", 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/titles", "200"))

	if after-before != 1 {
		t.Errorf("APIRequestsTotal delta = %v, want 1", after-before)
	}
}

func TestRecordAggregateUpdate(t *testing.T) {
	before := testutil.ToFloat64(AggregateUpdates.WithLabelValues("created", "ok"))
	RecordAggregateUpdate("created", "ok", time.Millisecond)
	RecordAggregateUpdate("created", "ok", time.Millisecond)

	if got := testutil.ToFloat64(AggregateUpdates.WithLabelValues("created", "ok")) - before; got != 2 {
		t.Errorf("AggregateUpdates delta = %v, want 2", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	start := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)

	if got := testutil.ToFloat64(APIActiveRequests) - start; got != 1 {
		t.Errorf("APIActiveRequests delta = %v, want 1", got)
	}
}

func TestDurationHistogramObserves(t *testing.T) {
	RecordAggregateUpdate("deleted", "ok", 20*time.Millisecond)

	m := &dto.Metric{}
	if err := AggregateUpdateDuration.Write(m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if m.GetHistogram().GetSampleCount() == 0 {
		t.Error("histogram sample count = 0, want at least 1")
	}
}

func TestMetricsLint(t *testing.T) {
	RecordAuthzDecision("review", "update", "forbidden")
	RecordMailDispatch("log", "sent")

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("GatherAndLint() error = %v", err)
	}
	for _, p := range problems {
		if len(p.Metric) > 9 && p.Metric[:9] == "critique_" {
			t.Errorf("lint problem %s: %s", p.Metric, p.Text)
		}
	}
}
