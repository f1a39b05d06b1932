package metrics

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ErrFieldAbsent marks a counter source that lacks a field the engine
// cannot do without.
var ErrFieldAbsent = errors.New("required field absent")

// MissingFieldError names the absent field and its source.
type MissingFieldError struct {
	Source string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Source, e.Field, ErrFieldAbsent)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrFieldAbsent
}

var (
	memInfoPattern = regexp.MustCompile(`^(\S*):\s*(\d*)\s*kB`)
	netDevPattern  = regexp.MustCompile(`([^\s]+):\s*(\d+)` + strings.Repeat(`\s+(\d+)`, 10))
)

// ProcSource reads counters from a procfs mount.
type ProcSource struct {
	root   string
	filter InterfaceFilter
}

func NewProcSource(root string, filter InterfaceFilter) *ProcSource {
	return &ProcSource{root: root, filter: filter}
}

func (p *ProcSource) path(name string) string {
	return filepath.Join(p.root, name)
}

func (p *ProcSource) Uptime(context.Context) uint64 {
	data, err := os.ReadFile(p.path("uptime"))
	if err != nil {
		return 0
	}
	return ParseUptime(string(data))
}

func (p *ProcSource) LoadAverages(context.Context) (float64, float64, float64) {
	data, err := os.ReadFile(p.path("loadavg"))
	if err != nil {
		return 0, 0, 0
	}
	return ParseLoadAvg(string(data))
}

func (p *ProcSource) Memory(context.Context) (MemoryInfo, error) {
	file, err := os.Open(p.path("meminfo"))
	if err != nil {
		return MemoryInfo{}, err
	}
	defer file.Close()

	return ParseMemInfo(file)
}

func (p *ProcSource) InterfaceCounters(context.Context) (uint64, uint64, error) {
	file, err := os.Open(p.path("net/dev"))
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	return ParseNetDev(file, p.filter)
}

func (p *ProcSource) CPUCounters(context.Context) (CPUCounters, error) {
	file, err := os.Open(p.path("stat"))
	if err != nil {
		return CPUCounters{}, err
	}
	defer file.Close()

	return ParseCPUStat(file)
}

// ParseUptime returns the whole seconds of an uptime line, or 0.
func ParseUptime(contents string) uint64 {
	whole, _, _ := strings.Cut(strings.TrimSpace(contents), ".")
	secs, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0
	}
	return secs
}

// ParseLoadAvg returns the 1, 5 and 15 minute load figures, or zeros.
func ParseLoadAvg(contents string) (float64, float64, float64) {
	fields := strings.Fields(contents)
	if len(fields) < 3 {
		return 0, 0, 0
	}

	var loads [3]float64
	for i := range loads {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return 0, 0, 0
		}
		loads[i] = v
	}
	return loads[0], loads[1], loads[2]
}

// ParseMemInfo reads a "Key: value kB" table. Every key used to derive the
// result must be present.
func ParseMemInfo(r io.Reader) (MemoryInfo, error) {
	values := make(map[string]uint64)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m := memInfoPattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		v, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			continue
		}
		values[m[1]] = v
	}
	if err := scanner.Err(); err != nil {
		return MemoryInfo{}, fmt.Errorf("read meminfo: %w", err)
	}

	get := func(key string) (uint64, error) {
		v, ok := values[key]
		if !ok {
			return 0, &MissingFieldError{Source: "meminfo", Field: key}
		}
		return v, nil
	}

	var info MemoryInfo
	var free, buffers, cached, reclaimable uint64
	fields := []struct {
		key string
		dst *uint64
	}{
		{"MemTotal", &info.Total},
		{"MemFree", &free},
		{"Buffers", &buffers},
		{"Cached", &cached},
		{"SReclaimable", &reclaimable},
		{"SwapTotal", &info.SwapTotal},
		{"SwapFree", &info.SwapFree},
	}
	for _, f := range fields {
		v, err := get(f.key)
		if err != nil {
			return MemoryInfo{}, err
		}
		*f.dst = v
	}

	info.Used = saturatingSub(info.Total, free+buffers+cached+reclaimable)
	return info, nil
}

// ParseNetDev sums received and transmitted bytes over every interface the
// filter keeps. Lines that do not look like counter rows are skipped.
func ParseNetDev(r io.Reader, filter InterfaceFilter) (uint64, uint64, error) {
	var rx, tx uint64

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m := netDevPattern.FindStringSubmatch(scanner.Text())
		if m == nil || filter.Ignored(m[1]) {
			continue
		}

		in, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			continue
		}
		out, err := strconv.ParseUint(m[10], 10, 64)
		if err != nil {
			continue
		}
		rx += in
		tx += out
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, fmt.Errorf("read net/dev: %w", err)
	}

	return rx, tx, nil
}

// ParseCPUStat extracts the four leading counters of the first cpu line.
func ParseCPUStat(r io.Reader) (CPUCounters, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return CPUCounters{}, fmt.Errorf("read stat: %w", err)
		}
		return CPUCounters{}, fmt.Errorf("empty stat")
	}

	fields := strings.Fields(scanner.Text())
	if len(fields) < 5 || !strings.HasPrefix(fields[0], "cpu") {
		return CPUCounters{}, fmt.Errorf("invalid cpu line")
	}

	var counters CPUCounters
	for i := range counters {
		v, err := strconv.ParseUint(fields[i+1], 10, 64)
		if err != nil {
			return CPUCounters{}, fmt.Errorf("cpu field %d: %w", i+1, err)
		}
		counters[i] = v
	}
	return counters, nil
}
