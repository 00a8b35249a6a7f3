// Package system reports resource use of the detector process and its host
// for the health endpoint.
package system

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type Metrics struct {
	Process ProcessMetrics `json:"process"`
	Host    HostMetrics    `json:"host"`
}

// ProcessMetrics describes the detector itself. Each pending notification
// flow holds one goroutine.
type ProcessMetrics struct {
	PID        int32   `json:"pid"`
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
	Goroutines int     `json:"goroutines"`
}

type HostMetrics struct {
	CPUUsagePercent    float64 `json:"cpu_usage_percent"`
	MemoryUsagePercent float64 `json:"memory_usage_percent"`
}

// Collect gathers what the platform exposes. Missing values stay zero.
func Collect() *Metrics {
	m := &Metrics{
		Process: ProcessMetrics{
			PID:        int32(os.Getpid()),
			Goroutines: runtime.NumGoroutine(),
		},
	}

	if p, err := process.NewProcess(m.Process.PID); err == nil {
		if info, err := p.MemoryInfo(); err == nil {
			m.Process.RSSBytes = info.RSS
		}
		if pct, err := p.CPUPercent(); err == nil {
			m.Process.CPUPercent = pct
		}
	}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		m.Host.CPUUsagePercent = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		m.Host.MemoryUsagePercent = vm.UsedPercent
	}

	return m
}
