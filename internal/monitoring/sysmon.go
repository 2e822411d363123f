package monitoring

import (
	"sync"
	"time"

	"github.com/jfelder/gatekeep-be/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemMonitor periodically samples host resource usage for the admin
// dashboard.
type SystemMonitor struct {
	mu     sync.RWMutex
	latest models.SystemSnapshot
	ticker *time.Ticker
	done   chan bool
}

// NewSystemMonitor creates a new SystemMonitor.
func NewSystemMonitor() *SystemMonitor {
	return &SystemMonitor{done: make(chan bool)}
}

// Run starts the periodic sampling.
func (m *SystemMonitor) Run() {
	log.Info().Msg("Starting background system monitor...")
	m.ticker = time.NewTicker(15 * time.Second)
	defer m.ticker.Stop()

	// Sample once immediately on start
	m.sample()

	for {
		select {
		case <-m.done:
			log.Info().Msg("Stopping background system monitor.")
			return
		case <-m.ticker.C:
			m.sample()
		}
	}
}

// Stop halts the periodic sampling.
func (m *SystemMonitor) Stop() {
	m.done <- true
}

// Latest returns the most recent snapshot.
func (m *SystemMonitor) Latest() models.SystemSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

func (m *SystemMonitor) sample() {
	snap := models.SystemSnapshot{SampledAt: time.Now().UTC()}

	if percents, err := cpu.Percent(0, false); err != nil {
		log.Warn().Err(err).Msg("SystemMonitor: failed to sample CPU")
	} else if len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		log.Warn().Err(err).Msg("SystemMonitor: failed to sample memory")
	} else {
		snap.MemoryTotal = vm.Total
		snap.MemoryUsed = vm.Used
		snap.MemoryPercent = vm.UsedPercent
	}

	if du, err := disk.Usage("/"); err != nil {
		log.Warn().Err(err).Msg("SystemMonitor: failed to sample disk")
	} else {
		snap.DiskTotal = du.Total
		snap.DiskUsed = du.Used
		snap.DiskPercent = du.UsedPercent
	}

	if up, err := host.Uptime(); err != nil {
		log.Warn().Err(err).Msg("SystemMonitor: failed to sample uptime")
	} else {
		snap.UptimeSeconds = up
	}

	m.mu.Lock()
	m.latest = snap
	m.mu.Unlock()
}
