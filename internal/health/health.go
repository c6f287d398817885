// Package health reports process and session status for the web surface.
package health

import (
	"runtime"
	"time"
)

// Options describes what the caller knows beyond the process itself.
type Options struct {
	Started  time.Time
	Sessions SessionCounts
}

// SessionCounts summarises the visitor sessions a surface is hosting.
type SessionCounts struct {
	Active   int `json:"active"`
	Finished int `json:"finished"`
	Total    int `json:"total"` // sessions opened since start
}

// Snapshot is the health document served to monitors.
type Snapshot struct {
	Status     string        `json:"status"`
	Uptime     string        `json:"uptime,omitempty"`
	Goroutines int           `json:"goroutines"`
	Memory     MemoryInfo    `json:"memory"`
	Runtime    RuntimeInfo   `json:"runtime"`
	Sessions   SessionCounts `json:"sessions"`
	Timestamp  string        `json:"timestamp"`
}

type MemoryInfo struct {
	AllocMB      float64 `json:"allocMB"`
	TotalAllocMB float64 `json:"totalAllocMB"`
	SysMB        float64 `json:"sysMB"`
	NumGC        uint32  `json:"numGC"`
}

type RuntimeInfo struct {
	Version string `json:"version"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
	CPUs    int    `json:"cpus"`
}

// Collect returns a health snapshot for the current process.
func Collect(opts Options) Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	now := time.Now()
	s := Snapshot{
		Status:     "healthy",
		Goroutines: runtime.NumGoroutine(),
		Memory: MemoryInfo{
			AllocMB:      float64(mem.Alloc) / 1024 / 1024,
			TotalAllocMB: float64(mem.TotalAlloc) / 1024 / 1024,
			SysMB:        float64(mem.Sys) / 1024 / 1024,
			NumGC:        mem.NumGC,
		},
		Runtime: RuntimeInfo{
			Version: runtime.Version(),
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
			CPUs:    runtime.NumCPU(),
		},
		Sessions:  opts.Sessions,
		Timestamp: now.Format(time.RFC3339),
	}
	if !opts.Started.IsZero() {
		s.Uptime = now.Sub(opts.Started).Truncate(time.Second).String()
	}
	return s
}
