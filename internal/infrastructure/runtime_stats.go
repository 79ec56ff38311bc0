package infrastructure

import (
	"runtime"
	"time"
)

// RuntimeStats is a snapshot of the Go runtime reported by the health API.
type RuntimeStats struct {
	GoRoutines    int           `json:"goroutines"`
	HeapAllocMB   uint64        `json:"heap_alloc_mb"`
	SystemMB      uint64        `json:"system_mb"`
	GCCount       uint32        `json:"gc_count"`
	LastGCPause   time.Duration `json:"last_gc_pause_ns"`
	CPUCount      int           `json:"cpu_count"`
	ProcessUptime time.Duration `json:"uptime_ns"`
	Timestamp     time.Time     `json:"timestamp"`
}

// ReadRuntimeStats samples memory, goroutine and GC figures
func ReadRuntimeStats(startTime time.Time) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		GoRoutines:    runtime.NumGoroutine(),
		HeapAllocMB:   mem.HeapAlloc / 1024 / 1024,
		SystemMB:      mem.Sys / 1024 / 1024,
		GCCount:       mem.NumGC,
		LastGCPause:   time.Duration(mem.PauseNs[(mem.NumGC+255)%256]),
		CPUCount:      runtime.NumCPU(),
		ProcessUptime: time.Since(startTime),
		Timestamp:     time.Now(),
	}
}

// Format returns the stats in human units
func (s RuntimeStats) Format() map[string]any {
	return map[string]any{
		"goroutines":       s.GoRoutines,
		"heap_alloc_mb":    s.HeapAllocMB,
		"system_mb":        s.SystemMB,
		"gc_count":         s.GCCount,
		"last_gc_pause_ms": s.LastGCPause.Milliseconds(),
		"cpu_count":        s.CPUCount,
		"uptime_seconds":   int64(s.ProcessUptime.Seconds()),
		"timestamp":        s.Timestamp.Format(time.RFC3339),
	}
}
