package health

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Probe timeouts are short and fixed so a stalled dependency is reported as
// failing instead of hanging the health surface.
const (
	storeProbeTimeout = 1 * time.Second
	busProbeTimeout   = 3 * time.Second

	memoryWarnPercent = 75.0
)

type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Check is the result of one monitor.
type Check struct {
	Status        Status  `json:"status"`
	ObservedValue float64 `json:"observed_value,omitempty"`
	ObservedUnit  string  `json:"observed_unit,omitempty"`
	Output        string  `json:"output,omitempty"`
}

// Report aggregates all monitors into one pass/warn/fail verdict.
type Report struct {
	Status Status           `json:"status"`
	Checks map[string]Check `json:"checks"`
}

// StorePinger is the slice of the coordination store the checker probes.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// BusProber is the slice of the bus gateway the checker probes.
type BusProber interface {
	Metadata(ctx context.Context) error
}

// Checker independently probes the store, the bus, process memory, and
// uptime. It holds its own dependency handles and exposes nothing back to the
// components it watches.
type Checker struct {
	store     StorePinger
	bus       BusProber
	startedAt time.Time
}

func NewChecker(store StorePinger, bus BusProber) *Checker {
	return &Checker{store: store, bus: bus, startedAt: time.Now()}
}

// Run executes every monitor and aggregates the results. A failing dependency
// makes the whole report fail; memory pressure only warns.
func (c *Checker) Run(ctx context.Context) Report {
	checks := map[string]Check{
		"redis:accessibility": c.checkStore(ctx),
		"kafka:accessibility": c.checkBus(ctx),
		"memory:utilization":  c.checkMemory(),
		"uptime":              c.checkUptime(),
	}

	status := StatusPass
	for _, check := range checks {
		switch check.Status {
		case StatusFail:
			status = StatusFail
		case StatusWarn:
			if status == StatusPass {
				status = StatusWarn
			}
		}
	}

	return Report{Status: status, Checks: checks}
}

func (c *Checker) checkStore(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, storeProbeTimeout)
	defer cancel()

	if err := c.store.Ping(ctx); err != nil {
		return Check{Status: StatusFail, Output: err.Error()}
	}
	return Check{Status: StatusPass, ObservedValue: 1, ObservedUnit: "boolean"}
}

func (c *Checker) checkBus(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, busProbeTimeout)
	defer cancel()

	if err := c.bus.Metadata(ctx); err != nil {
		return Check{Status: StatusFail, Output: err.Error()}
	}
	return Check{Status: StatusPass, ObservedValue: 1, ObservedUnit: "boolean"}
}

func (c *Checker) checkMemory() Check {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	if stats.Sys == 0 {
		return Check{Status: StatusPass, ObservedUnit: "percent"}
	}
	percent := 100 * float64(stats.HeapAlloc) / float64(stats.Sys)
	check := Check{
		Status:        StatusPass,
		ObservedValue: percent,
		ObservedUnit:  "percent",
	}
	if percent > memoryWarnPercent {
		check.Status = StatusWarn
		check.Output = fmt.Sprintf("heap uses %.1f%% of reserved memory", percent)
	}
	return check
}

func (c *Checker) checkUptime() Check {
	return Check{
		Status:        StatusPass,
		ObservedValue: time.Since(c.startedAt).Seconds(),
		ObservedUnit:  "s",
	}
}
