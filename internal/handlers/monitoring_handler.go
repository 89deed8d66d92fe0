package handlers

import (
	"net/http"
	"runtime"
	"time"

	"rental-backend/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

type MonitoringHandler struct {
	pool    *pgxpool.Pool
	started time.Time
}

func NewMonitoringHandler(pool *pgxpool.Pool) *MonitoringHandler {
	return &MonitoringHandler{pool: pool, started: time.Now()}
}

type systemStats struct {
	UptimeSeconds int64   `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemUsed       uint64  `json:"mem_used"`
	MemTotal      uint64  `json:"mem_total"`
	MemPercent    float64 `json:"mem_percent"`
	DiskUsed      uint64  `json:"disk_used"`
	DiskTotal     uint64  `json:"disk_total"`
	DiskPercent   float64 `json:"disk_percent"`
	Goroutines    int     `json:"goroutines"`
	DBTotalConns  int32   `json:"db_total_conns"`
	DBIdleConns   int32   `json:"db_idle_conns"`
}

// Stats returns process and host metrics for the admin dashboard
// GET /api/admin/monitoring
func (h *MonitoringHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := systemStats{
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
	}

	if cpuPercents, err := cpu.Percent(0, false); err == nil && len(cpuPercents) > 0 {
		stats.CPUPercent = cpuPercents[0]
	}
	if memStats, err := mem.VirtualMemory(); err == nil {
		stats.MemUsed = memStats.Used
		stats.MemTotal = memStats.Total
		stats.MemPercent = memStats.UsedPercent
	}
	if diskStats, err := disk.Usage("/"); err == nil {
		stats.DiskUsed = diskStats.Used
		stats.DiskTotal = diskStats.Total
		stats.DiskPercent = diskStats.UsedPercent
	}
	if h.pool != nil {
		poolStats := h.pool.Stat()
		stats.DBTotalConns = poolStats.TotalConns()
		stats.DBIdleConns = poolStats.IdleConns()
	}

	utils.JSON(w, http.StatusOK, stats)
}
