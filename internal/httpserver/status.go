package httpserver

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

var startTime = time.Now()

// StatusResponse — ответ GET /api/status
type StatusResponse struct {
	Status   string        `json:"status"`
	Runtime  RuntimeStatus `json:"runtime"`
	Memory   MemoryStatus  `json:"memory"`
	CPU      CPUStatus     `json:"cpu"`
	AIMode   string        `json:"ai_mode"`
	BlobMode string        `json:"blob_mode"`
}

type RuntimeStatus struct {
	Uptime     string `json:"uptime"`
	StartTime  string `json:"start_time"`
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
	OS         string `json:"os"`
	Platform   string `json:"platform"`
	Arch       string `json:"arch"`
}

type MemoryStatus struct {
	TotalMB     uint64  `json:"total_mb"`
	UsedMB      uint64  `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
	HeapAllocMB uint64  `json:"heap_alloc_mb"`
}

type CPUStatus struct {
	Cores        int     `json:"cores"`
	UsagePercent float64 `json:"usage_percent"`
}

// handleStatus собирает системные метрики процесса и хоста
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:   "online",
		AIMode:   s.config.AIMode,
		BlobMode: s.blobMode,
		Runtime: RuntimeStatus{
			Uptime:     time.Since(startTime).Round(time.Second).String(),
			StartTime:  startTime.UTC().Format(time.RFC3339),
			GoVersion:  runtime.Version(),
			Goroutines: runtime.NumGoroutine(),
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
		},
		CPU: CPUStatus{Cores: runtime.NumCPU()},
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	resp.Memory.HeapAllocMB = ms.HeapAlloc / 1024 / 1024

	// Host stats are best effort: sandboxes may hide /proc.
	if info, err := host.InfoWithContext(r.Context()); err == nil {
		resp.Runtime.Platform = info.Platform
	}
	if vm, err := mem.VirtualMemoryWithContext(r.Context()); err == nil {
		resp.Memory.TotalMB = vm.Total / 1024 / 1024
		resp.Memory.UsedMB = vm.Used / 1024 / 1024
		resp.Memory.UsedPercent = vm.UsedPercent
	}
	if pct, err := cpu.PercentWithContext(r.Context(), 0, false); err == nil && len(pct) > 0 {
		resp.CPU.UsagePercent = pct[0]
	}

	writeJSON(w, http.StatusOK, resp)
}
