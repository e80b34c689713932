// Package telemetry samples the process while the journey runs and logs
// the samples next to the player metrics.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/sirupsen/logrus"

	"github.com/ivlev/forestscroll/internal/loop"
	"github.com/ivlev/forestscroll/internal/player"
)

// Report is one sample of the process together with the player metrics
// taken at the same loop frame.
type Report struct {
	player.Metrics
	RSS     uint64  // Resident set size in bytes
	CPU     float64 // Percent since the previous sample
	Threads int32
	Uptime  time.Duration
}

// Fields renders the report for a structured log line.
func (r Report) Fields() logrus.Fields {
	return logrus.Fields{
		"fps":     fmt.Sprintf("%.1f", r.FPS),
		"frame":   r.CurrentFrame,
		"loaded":  fmt.Sprintf("%d/%d", r.LoadedFrames, r.TotalFrames),
		"mobile":  r.IsMobile,
		"rss_mb":  fmt.Sprintf("%.1f", float64(r.RSS)/(1<<20)),
		"cpu":     fmt.Sprintf("%.1f%%", r.CPU),
		"threads": r.Threads,
		"uptime":  r.Uptime.Truncate(time.Second),
	}
}

// Sampler reads resource usage of the current process. It is safe for
// concurrent use; samples are taken one at a time.
type Sampler struct {
	mu      sync.Mutex // process caches counters between calls
	proc    *process.Process
	started time.Time
}

func NewSampler(ctx context.Context) (*Sampler, error) {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("open process: %w", err)
	}
	s := &Sampler{proc: proc, started: time.Now()}
	// The first call only primes the CPU counters.
	_, _ = proc.PercentWithContext(ctx, 0)
	return s, nil
}

// Sample combines the current resource usage with m.
func (s *Sampler) Sample(ctx context.Context, m player.Metrics) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := Report{Metrics: m, Uptime: time.Since(s.started)}

	mem, err := s.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return r, fmt.Errorf("memory info: %w", err)
	}
	r.RSS = mem.RSS

	if r.CPU, err = s.proc.PercentWithContext(ctx, 0); err != nil {
		return r, fmt.Errorf("cpu percent: %w", err)
	}
	if r.Threads, err = s.proc.NumThreadsWithContext(ctx); err != nil {
		return r, fmt.Errorf("threads: %w", err)
	}
	return r, nil
}

// Reporter logs a Report on a fixed interval of loop time. Metrics are
// read on the loop goroutine; the process is sampled off it.
type Reporter struct {
	sampler  *Sampler
	lp       *loop.Loop
	interval time.Duration
	metrics  func() player.Metrics
	log      logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
	timer  loop.Handle
	wg     sync.WaitGroup
}

// Every starts reporting. Call it and Stop on the loop goroutine.
func (s *Sampler) Every(lp *loop.Loop, interval time.Duration, metrics func() player.Metrics, log logrus.FieldLogger) *Reporter {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reporter{
		sampler:  s,
		lp:       lp,
		interval: interval,
		metrics:  metrics,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	r.timer = lp.AfterFunc(interval, r.fire)
	return r
}

func (r *Reporter) fire() {
	m := r.metrics()
	r.timer = r.lp.AfterFunc(r.interval, r.fire)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		report, err := r.sampler.Sample(r.ctx, m)
		if err != nil {
			r.log.Debugf("[!] Telemetry sample failed: %v", err)
			return
		}
		r.log.WithFields(report.Fields()).Info("[*] Telemetry")
	}()
}

// Stop cancels the timer and waits for in-flight samples to be logged.
func (r *Reporter) Stop() {
	r.lp.CancelTimer(r.timer)
	r.wg.Wait()
	r.cancel()
}
