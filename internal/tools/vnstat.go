package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrVnstat wraps every traffic-accounting failure.
var ErrVnstat = errors.New("vnstat traffic accounting failed")

// Traffic is in bytes. The month figures cover the current calendar month.
type Traffic struct {
	RxTotal uint64
	TxTotal uint64
	RxMonth uint64
	TxMonth uint64
}

type vnstatReport struct {
	JSONVersion string            `json:"jsonversion"`
	Interfaces  []vnstatInterface `json:"interfaces"`
}

type vnstatInterface struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	Traffic struct {
		Total  vnstatCounter `json:"total"`
		Month  []vnstatMonth `json:"month"`
		Months []vnstatMonth `json:"months"`
	} `json:"traffic"`
}

type vnstatCounter struct {
	Rx uint64 `json:"rx"`
	Tx uint64 `json:"tx"`
}

type vnstatMonth struct {
	Date struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	} `json:"date"`
	Rx uint64 `json:"rx"`
	Tx uint64 `json:"tx"`
}

// Vnstat reads monthly interface traffic from `vnstat --json m`.
type Vnstat struct {
	run    Commander
	path   string
	ignore func(name string) bool
}

func NewVnstat(run Commander, path string, ignore func(name string) bool) *Vnstat {
	return &Vnstat{run: run, path: path, ignore: ignore}
}

func (v *Vnstat) MonthlyTraffic(ctx context.Context, now time.Time) (Traffic, error) {
	out, err := v.run.Output(ctx, v.path, "--json", "m")
	if err != nil {
		return Traffic{}, fmt.Errorf("%w: %v", ErrVnstat, err)
	}
	return ParseVnstat(out, now, v.ignore)
}

// ParseVnstat totals all-time and current-month traffic over the interfaces
// ignore does not reject. jsonversion 1 reports KiB and is scaled to bytes.
func ParseVnstat(data []byte, now time.Time, ignore func(name string) bool) (Traffic, error) {
	var report vnstatReport
	if err := json.Unmarshal(data, &report); err != nil {
		return Traffic{}, fmt.Errorf("%w: decode: %v", ErrVnstat, err)
	}
	if report.Interfaces == nil {
		return Traffic{}, fmt.Errorf("%w: no interfaces in report", ErrVnstat)
	}

	var scale uint64 = 1
	if report.JSONVersion == "1" {
		scale = 1024
	}

	var t Traffic
	for _, iface := range report.Interfaces {
		name := iface.Name
		if name == "" {
			name = iface.ID
		}
		if ignore != nil && ignore(name) {
			continue
		}

		t.RxTotal += iface.Traffic.Total.Rx * scale
		t.TxTotal += iface.Traffic.Total.Tx * scale

		months := iface.Traffic.Month
		if months == nil {
			months = iface.Traffic.Months
		}
		for _, m := range months {
			if m.Date.Year != now.Year() || m.Date.Month != int(now.Month()) {
				continue
			}
			t.RxMonth += m.Rx * scale
			t.TxMonth += m.Tx * scale
		}
	}

	return t, nil
}
