package storage

import (
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var filenamePattern = regexp.MustCompile(`^snapshots-(\d{4}-\d{2}-\d{2})\.ndjson$`)

func spoolFileName(date string) string {
	return "snapshots-" + date + ".ndjson"
}

// Rotator deletes spool files older than the retention window.
type Rotator struct {
	dir           string
	retentionDays int
	log           *zap.Logger
	now           func() time.Time
	stopCh        chan struct{}
	doneCh        chan struct{}
}

func NewRotator(dir string, retentionDays int, log *zap.Logger) *Rotator {
	return &Rotator{
		dir:           dir,
		retentionDays: retentionDays,
		log:           log,
		now:           time.Now,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

func (r *Rotator) Start() {
	go r.run()
}

func (r *Rotator) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

func (r *Rotator) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()

	r.Prune()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.Prune()
		}
	}
}

// Prune removes expired spool files and returns how many it deleted.
func (r *Rotator) Prune() int {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		r.log.Warn("spool prune failed", zap.String("dir", r.dir), zap.Error(err))
		return 0
	}

	cutoff := r.now().UTC().AddDate(0, 0, -r.retentionDays)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		matches := filenamePattern.FindStringSubmatch(entry.Name())
		if len(matches) != 2 {
			continue
		}

		fileDate, err := time.Parse(dateLayout, matches[1])
		if err != nil {
			continue
		}

		if fileDate.Before(cutoff) {
			if err := os.Remove(filepath.Join(r.dir, entry.Name())); err != nil {
				r.log.Warn("spool file not removed", zap.String("file", entry.Name()), zap.Error(err))
				continue
			}
			removed++
		}
	}

	return removed
}
