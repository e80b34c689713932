package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ivlev/forestscroll/internal/loop"
	"github.com/ivlev/forestscroll/internal/player"
)

func TestSample(t *testing.T) {
	s, err := NewSampler(context.Background())
	if err != nil {
		t.Fatalf("NewSampler failed: %v", err)
	}
	r, err := s.Sample(context.Background(), player.Metrics{CurrentFrame: 7, TotalFrames: 120})
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if r.RSS == 0 {
		t.Error("Expected a nonzero resident set size")
	}
	if r.Threads < 1 {
		t.Errorf("Expected at least one thread, got %d", r.Threads)
	}
	if r.CurrentFrame != 7 {
		t.Errorf("Expected the metrics to be carried, got %+v", r.Metrics)
	}
}

func TestSampleConcurrent(t *testing.T) {
	s, err := NewSampler(context.Background())
	if err != nil {
		t.Fatalf("NewSampler failed: %v", err)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Sample(context.Background(), player.Metrics{}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Sample failed: %v", err)
	}
}

func TestReportFields(t *testing.T) {
	r := Report{
		Metrics: player.Metrics{FPS: 59.94, CurrentFrame: 3, TotalFrames: 60, LoadedFrames: 12, IsMobile: true},
		RSS:     3 << 20,
		CPU:     12.345,
		Uptime:  90*time.Second + 300*time.Millisecond,
	}
	f := r.Fields()
	expected := logrus.Fields{
		"fps":    "59.9",
		"loaded": "12/60",
		"rss_mb": "3.0",
		"cpu":    "12.3%",
		"mobile": true,
		"uptime": 90 * time.Second,
	}
	for k, v := range expected {
		if f[k] != v {
			t.Errorf("Field %s: expected %v, got %v", k, v, f[k])
		}
	}
}

func TestReporterEvery(t *testing.T) {
	s, err := NewSampler(context.Background())
	if err != nil {
		t.Fatalf("NewSampler failed: %v", err)
	}
	log, hook := test.NewNullLogger()
	start := time.Unix(0, 0)
	lp := loop.New(start)

	calls := 0
	r := s.Every(lp, time.Second, func() player.Metrics {
		calls++
		return player.Metrics{CurrentFrame: calls}
	}, log)

	lp.Advance(start.Add(500 * time.Millisecond))
	if calls != 0 {
		t.Fatalf("Reported before the interval")
	}
	lp.Advance(start.Add(time.Second))
	lp.Advance(start.Add(2 * time.Second))
	r.Stop()
	lp.Advance(start.Add(5 * time.Second))

	if calls != 2 {
		t.Errorf("Expected 2 reports, got %d", calls)
	}
	if n := len(hook.AllEntries()); n != 2 {
		t.Errorf("Expected 2 log entries, got %d", n)
	}
}
