package activity

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/123ice/Drink-Reminder/internal/clock"
)

const (
	eventRetention = 10 * time.Minute
	statsRetention = 3 * time.Hour
)

// ProcessSample is the CPU time consumed so far by every process sharing a name.
type ProcessSample struct {
	Name    string
	CPUTime time.Duration
}

// ProcessLister enumerates running processes.
type ProcessLister func(ctx context.Context) ([]ProcessSample, error)

// SamplerConfig tunes the process-table sampler.
type SamplerConfig struct {
	Every time.Duration
	// MinCPU is the CPU time a process must burn between two samples to count as in use.
	MinCPU time.Duration
	// Granted mirrors the host's usage-access grant.
	Granted bool
}

// Sampler turns periodic process-table snapshots into foreground events and
// usage stats. A process that starts burning CPU after being idle produces a
// foreground event; every sample in which it burns CPU extends its last-used
// time and foreground duration.
type Sampler struct {
	list  ProcessLister
	clock clock.Clock
	cfg   SamplerConfig
	log   *zap.Logger

	mu         sync.Mutex
	primed     bool
	healthy    bool
	lastSample time.Time
	procs      map[string]*procUsage
	events     []UsageEvent
}

type procUsage struct {
	cpu      time.Duration
	active   bool
	lastUsed time.Time
	fg       time.Duration
}

func NewSampler(list ProcessLister, clk clock.Clock, cfg SamplerConfig, log *zap.Logger) *Sampler {
	if list == nil {
		list = GopsutilProcesses
	}
	if cfg.Every <= 0 {
		cfg.Every = 15 * time.Second
	}
	if cfg.MinCPU <= 0 {
		cfg.MinCPU = 50 * time.Millisecond
	}
	return &Sampler{
		list:  list,
		clock: clk,
		cfg:   cfg,
		log:   log.Named("sampler"),
		procs: make(map[string]*procUsage),
	}
}

// Run samples until ctx is canceled.
func (s *Sampler) Run(ctx context.Context) {
	if !s.cfg.Granted {
		s.log.Info("usage access not granted, sampler disabled")
		return
	}
	ticker := time.NewTicker(s.cfg.Every)
	defer ticker.Stop()

	if err := s.Sample(ctx); err != nil {
		s.log.Warn("initial sample failed", zap.Error(err))
	}
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sampler stopping")
			return
		case <-ticker.C:
			if err := s.Sample(ctx); err != nil {
				s.log.Warn("sample failed", zap.Error(err))
			}
		}
	}
}

// Sample takes one snapshot of the process table.
func (s *Sampler) Sample(ctx context.Context) error {
	samples, err := s.list(ctx)
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.healthy = false
		return err
	}
	s.healthy = true

	totals := make(map[string]time.Duration, len(samples))
	for _, p := range samples {
		if p.Name == "" {
			continue
		}
		totals[p.Name] += p.CPUTime
	}

	elapsed := now.Sub(s.lastSample)
	for name, total := range totals {
		u, ok := s.procs[name]
		if !ok {
			s.procs[name] = &procUsage{cpu: total}
			if s.primed && total >= s.cfg.MinCPU {
				s.markUsed(s.procs[name], name, now, 0)
			}
			continue
		}
		if total-u.cpu >= s.cfg.MinCPU {
			s.markUsed(u, name, now, elapsed)
		} else {
			u.active = false
		}
		u.cpu = total
	}
	for name, u := range s.procs {
		if _, alive := totals[name]; !alive && now.Sub(u.lastUsed) > statsRetention {
			delete(s.procs, name)
		} else if !alive {
			u.active = false
		}
	}

	s.trimEvents(now)
	s.primed = true
	s.lastSample = now
	return nil
}

func (s *Sampler) markUsed(u *procUsage, name string, now time.Time, elapsed time.Duration) {
	if !u.active {
		s.events = append(s.events, UsageEvent{Package: name, At: now})
	} else {
		u.fg += elapsed
	}
	if u.fg == 0 {
		u.fg = s.cfg.Every
	}
	u.active = true
	u.lastUsed = now
}

func (s *Sampler) trimEvents(now time.Time) {
	cut := 0
	for cut < len(s.events) && now.Sub(s.events[cut].At) > eventRetention {
		cut++
	}
	s.events = s.events[cut:]
}

// HasAccess is true when access was granted and the last sample succeeded.
func (s *Sampler) HasAccess() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Granted && s.healthy
}

func (s *Sampler) QueryEvents(_ context.Context, from, to time.Time) ([]UsageEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []UsageEvent
	for _, ev := range s.events {
		if !ev.At.Before(from) && !ev.At.After(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *Sampler) QueryStats(_ context.Context, from, to time.Time) ([]UsageStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []UsageStat
	for name, u := range s.procs {
		if u.lastUsed.IsZero() || u.lastUsed.Before(from) || u.lastUsed.After(to) {
			continue
		}
		out = append(out, UsageStat{Package: name, LastUsed: u.lastUsed, ForegroundTime: u.fg})
	}
	return out, nil
}

// GopsutilProcesses lists processes through gopsutil. Processes that vanish
// or deny inspection mid-scan are skipped.
func GopsutilProcesses(ctx context.Context) ([]ProcessSample, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProcessSample, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		times, err := p.TimesWithContext(ctx)
		if err != nil {
			continue
		}
		cpu := time.Duration((times.User + times.System) * float64(time.Second))
		out = append(out, ProcessSample{Name: name, CPUTime: cpu})
	}
	return out, nil
}

var _ UsageSource = (*Sampler)(nil)
