package metrics

import (
	"strings"
	"time"
)

// Snapshot is one assembled record handed to the sink. Memory and swap are
// in KiB, disk in MiB, traffic totals in bytes and rates in bytes per second.
type Snapshot struct {
	Timestamp      time.Time `json:"timestamp"`
	Version        string    `json:"version"`
	Vnstat         bool      `json:"vnstat"`
	Uptime         uint64    `json:"uptime"`
	Load1          float64   `json:"load_1"`
	Load5          float64   `json:"load_5"`
	Load15         float64   `json:"load_15"`
	MemoryTotal    uint64    `json:"memory_total"`
	MemoryUsed     uint64    `json:"memory_used"`
	SwapTotal      uint64    `json:"swap_total"`
	SwapUsed       uint64    `json:"swap_used"`
	HddTotal       uint64    `json:"hdd_total"`
	HddUsed        uint64    `json:"hdd_used"`
	NetworkIn      uint64    `json:"network_in"`
	NetworkOut     uint64    `json:"network_out"`
	LastNetworkIn  uint64    `json:"last_network_in"`
	LastNetworkOut uint64    `json:"last_network_out"`
	CPU            float64   `json:"cpu"`
	NetworkRx      uint64    `json:"network_rx"`
	NetworkTx      uint64    `json:"network_tx"`
	Online4        bool      `json:"online4"`
	Online6        bool      `json:"online6"`
}

// CPUCounters holds the user, nice, system and idle jiffies of the
// aggregate cpu line.
type CPUCounters [4]uint64

const cpuIdle = 3

func (c CPUCounters) sum() uint64 {
	var s uint64
	for _, v := range c {
		s += v
	}
	return s
}

// MemoryInfo values are in KiB.
type MemoryInfo struct {
	Total     uint64
	Used      uint64
	SwapTotal uint64
	SwapFree  uint64
}

// InterfaceFilter excludes virtual and loopback interfaces by substring.
type InterfaceFilter []string

func (f InterfaceFilter) Ignored(name string) bool {
	for _, pat := range f {
		if pat != "" && strings.Contains(name, pat) {
			return true
		}
	}
	return false
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
