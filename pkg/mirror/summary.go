package mirror

import (
	"fmt"
	"sync/atomic"

	"github.com/docker/go-units"
)

// Summary holds the totals of one or more Mirror calls.
type Summary struct {
	ContainersCreated int64
	FilesUploaded     int64
	FilesFailed       int64
	EntriesSkipped    int64
	BytesUploaded     int64
}

// String formats the summary for a status line.
func (s Summary) String() string {
	return fmt.Sprintf(
		"%d folders created, %d files uploaded (%s), %d failed, %d skipped",
		s.ContainersCreated,
		s.FilesUploaded,
		units.HumanSize(float64(s.BytesUploaded)),
		s.FilesFailed,
		s.EntriesSkipped,
	)
}

type counters struct {
	containers atomic.Int64
	uploaded   atomic.Int64
	failed     atomic.Int64
	skipped    atomic.Int64
	bytes      atomic.Int64
}

func (c *counters) snapshot() Summary {
	return Summary{
		ContainersCreated: c.containers.Load(),
		FilesUploaded:     c.uploaded.Load(),
		FilesFailed:       c.failed.Load(),
		EntriesSkipped:    c.skipped.Load(),
		BytesUploaded:     c.bytes.Load(),
	}
}
