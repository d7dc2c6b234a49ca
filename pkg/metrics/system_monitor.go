package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemMonitor 周期采集系统指标并写入Prometheus
type SystemMonitor struct {
	interval time.Duration

	cpuUsage   prometheus.Gauge
	memUsage   prometheus.Gauge
	memUsed    prometheus.Gauge
	goroutines prometheus.Gauge
}

// NewSystemMonitor 创建系统监控器
func NewSystemMonitor(interval time.Duration) *SystemMonitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	return &SystemMonitor{
		interval: interval,
		cpuUsage: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "system_cpu_usage_percent",
			Help: "System CPU usage percent",
		}),
		memUsage: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "system_memory_usage_percent",
			Help: "System memory usage percent",
		}),
		memUsed: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "system_memory_used_bytes",
			Help: "System memory used in bytes",
		}),
		goroutines: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "system_goroutines",
			Help: "Number of goroutines",
		}),
	}
}

// Run 启动采集循环，ctx取消后退出
func (sm *SystemMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(sm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.collect()
		}
	}
}

func (sm *SystemMonitor) collect() {
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		sm.cpuUsage.Set(percents[0])
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		sm.memUsage.Set(vm.UsedPercent)
		sm.memUsed.Set(float64(vm.Used))
	}

	sm.goroutines.Set(float64(runtime.NumGoroutine()))
}
