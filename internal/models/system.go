package models

import "time"

// SystemSnapshot holds a point-in-time sample of host resource usage.
type SystemSnapshot struct {
	CPUPercent    float64   `json:"cpuPercent"`
	MemoryTotal   uint64    `json:"memoryTotal"`
	MemoryUsed    uint64    `json:"memoryUsed"`
	MemoryPercent float64   `json:"memoryPercent"`
	DiskTotal     uint64    `json:"diskTotal"`
	DiskUsed      uint64    `json:"diskUsed"`
	DiskPercent   float64   `json:"diskPercent"`
	UptimeSeconds uint64    `json:"uptimeSeconds"`
	SampledAt     time.Time `json:"sampledAt"`
}
