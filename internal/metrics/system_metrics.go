package metrics

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// MetricsManager is a singleton that owns the Prometheus registry and the
// system-level collectors.
type MetricsManager struct {
	systemCPUUsage    *prometheus.GaugeVec
	systemMemoryUsage *prometheus.GaugeVec

	goGoroutines prometheus.Gauge
	goHeapAlloc  prometheus.Gauge
	goHeapSys    prometheus.Gauge

	registry *prometheus.Registry

	initialized bool
	mu          sync.RWMutex
}

var (
	instance *MetricsManager
	once     sync.Once
)

// GetInstance returns the singleton instance of MetricsManager
func GetInstance() *MetricsManager {
	once.Do(func() {
		instance = &MetricsManager{
			registry: prometheus.NewRegistry(),
		}
	})
	return instance
}

// initializeSystemMetrics registers the system collectors (thread-safe).
func (mm *MetricsManager) initializeSystemMetrics() {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	if mm.initialized {
		return
	}

	mm.systemCPUUsage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "system_cpu_usage_percent",
			Help: "Current CPU usage percentage",
		},
		[]string{"core"},
	)

	mm.systemMemoryUsage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "system_memory_usage_bytes",
			Help: "Current memory usage in bytes",
		},
		[]string{"type"},
	)

	mm.goGoroutines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "go_goroutines",
			Help: "Number of goroutines that currently exist",
		},
	)

	mm.goHeapAlloc = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "go_heap_alloc_bytes",
			Help: "Heap memory usage in bytes",
		},
	)

	mm.goHeapSys = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "go_heap_sys_bytes",
			Help: "Heap memory reserved in bytes",
		},
	)

	mm.registry.MustRegister(
		mm.systemCPUUsage,
		mm.systemMemoryUsage,
		mm.goGoroutines,
		mm.goHeapAlloc,
		mm.goHeapSys,
	)

	mm.initialized = true
}

// StartSystemMetrics starts collecting system metrics on the given interval
// when ENABLE_SYSTEM_METRICS=true.
func StartSystemMetrics(interval time.Duration) {
	if os.Getenv("ENABLE_SYSTEM_METRICS") != "true" {
		return
	}

	mm := GetInstance()
	mm.initializeSystemMetrics()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			mm.collectSystemMetrics()
			mm.collectGoRuntimeMetrics()
		}
	}()
}

// collectSystemMetrics collects system-level metrics
func (mm *MetricsManager) collectSystemMetrics() {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	if !mm.initialized {
		return
	}

	if cpuPercentages, err := cpu.Percent(0, true); err == nil {
		for i, percentage := range cpuPercentages {
			mm.systemCPUUsage.WithLabelValues(fmt.Sprintf("cpu%d", i)).Set(percentage)
		}
	}

	if vmstat, err := mem.VirtualMemory(); err == nil {
		mm.systemMemoryUsage.WithLabelValues("total").Set(float64(vmstat.Total))
		mm.systemMemoryUsage.WithLabelValues("available").Set(float64(vmstat.Available))
		mm.systemMemoryUsage.WithLabelValues("used").Set(float64(vmstat.Used))
		mm.systemMemoryUsage.WithLabelValues("free").Set(float64(vmstat.Free))
	}
}

// collectGoRuntimeMetrics collects Go runtime metrics
func (mm *MetricsManager) collectGoRuntimeMetrics() {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	if !mm.initialized {
		return
	}

	mm.goGoroutines.Set(float64(runtime.NumGoroutine()))

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	mm.goHeapAlloc.Set(float64(memStats.HeapAlloc))
	mm.goHeapSys.Set(float64(memStats.HeapSys))
}
