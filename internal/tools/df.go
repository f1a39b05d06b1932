package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Disk reports the combined size of local real filesystems via df.
type Disk struct {
	run     Commander
	dfPath  string
	fsTypes []string
	log     *zap.Logger
}

func NewDisk(run Commander, dfPath string, fsTypes []string, log *zap.Logger) *Disk {
	return &Disk{run: run, dfPath: dfPath, fsTypes: fsTypes, log: log}
}

func (d *Disk) args() []string {
	args := []string{"-Tlm", "--total"}
	for _, t := range d.fsTypes {
		args = append(args, "-t", t)
	}
	return args
}

// DiskUsage returns total and used MiB, or zeros when df fails or prints
// something unexpected.
func (d *Disk) DiskUsage(ctx context.Context) (uint64, uint64) {
	out, runErr := d.run.Output(ctx, d.dfPath, d.args()...)

	total, used, err := ParseDiskUsage(string(out))
	if err != nil {
		d.log.Debug("disk usage unavailable", zap.Error(err), zap.NamedError("run", runErr))
		return 0, 0
	}
	return total, used
}

// ParseDiskUsage reads the total and used columns of df's last line.
func ParseDiskUsage(out string) (uint64, uint64, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return 0, 0, fmt.Errorf("empty df output")
	}

	lines := strings.Split(out, "\n")
	fields := strings.Fields(lines[len(lines)-1])
	if len(fields) < 4 {
		return 0, 0, fmt.Errorf("df summary has %d fields", len(fields))
	}

	total, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("df total: %w", err)
	}
	used, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("df used: %w", err)
	}
	return total, used, nil
}
