package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/GiancarloEsposito06/Live-comments-overlay/observability"
	"github.com/shirou/gopsutil/process"
)

const defaultTelemetryInterval = 5 * time.Second

// TelemetryWorker periodically logs the overlay counters together
// with the process's own resource usage (RSS, CPU, OS status).
type TelemetryWorker struct {
	log      *slog.Logger
	monitor  *observability.Monitor
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, monitor *observability.Monitor, interval time.Duration) *TelemetryWorker {
	if interval <= 0 {
		interval = defaultTelemetryInterval
	}
	return &TelemetryWorker{log: log, monitor: monitor, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	w.log.Info("Starting telemetry worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			snap := w.monitor.GetLatest()
			w.log.Info("overlay telemetry",
				"received", snap.Received,
				"filtered", snap.Filtered,
				"dropped", snap.Dropped,
				"sent", snap.Sent,
				"reconnects", snap.Reconnects,
				"visible", snap.Visible,
				"queued", snap.Queued,
				"connected", snap.Connected,
				"rss_bytes", rss,
				"cpu_percent", cpu,
				"pid_status", status,
			)
		}
	}
}

// selfStats retrieves memory, CPU and OS status for the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}
	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
