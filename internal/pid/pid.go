// Package pid samples the memory of a running process from procfs.
//
// PROC Reference - https://man7.org/linux/man-pages/man5/proc.5.html
package pid

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"cpp-scratchpad/internal/memory"
)

// ErrUnsupported is returned on platforms without procfs.
var ErrUnsupported = errors.New("process sampling is not supported on " + runtime.GOOS)

type State string

const (
	Running  State = "R"
	Sleeping State = "S"
	Waiting  State = "D"
	Zombie   State = "Z"
	Stopped  State = "T"
	Dead     State = "X"
)

// Stat is the part of /proc/[pid]/stat the daemon cares about.
type Stat struct {
	Pid   int64
	Comm  string
	State State
	Ppid  int64
	// Virtual memory size in bytes.
	Vsize memory.Memory
	// Resident set size, already multiplied by the page size.
	Rss memory.Memory
}

var (
	pageSize     int64 = 4096
	pageSizeOnce sync.Once
)

func systemPageSize() int64 {
	pageSizeOnce.Do(func() {
		if output, err := exec.Command("getconf", "PAGESIZE").Output(); err == nil {
			if value, err := strconv.ParseInt(strings.TrimSpace(string(output)), 10, 64); err == nil && value > 0 {
				pageSize = value
			}
		}
	})

	return pageSize
}

// ParseStat parses the contents of a /proc/[pid]/stat file. The command name
// may itself contain spaces and parentheses, so the fields are located from
// its last closing parenthesis.
func ParseStat(contents string, pageSize int64) (*Stat, error) {
	open := strings.IndexByte(contents, '(')
	closing := strings.LastIndexByte(contents, ')')

	if open < 0 || closing < open {
		return nil, errors.New("malformed stat line")
	}

	// fields[0] is the state, the third field of the stat line
	fields := strings.Fields(contents[closing+1:])

	if len(fields) < 22 {
		return nil, errors.Errorf("stat line has %d fields after the command", len(fields))
	}

	pid, err := strconv.ParseInt(strings.TrimSpace(contents[:open]), 10, 64)

	if err != nil {
		return nil, errors.Wrap(err, "failed to parse pid")
	}

	return &Stat{
		Pid:   pid,
		Comm:  contents[open+1 : closing],
		State: State(fields[0]),
		Ppid:  parseInt64(fields[1]),
		Vsize: memory.Memory(parseInt64(fields[20])),
		Rss:   memory.Memory(parseInt64(fields[21]) * pageSize),
	}, nil
}

// GetStat reads the current statistics of the process.
func GetStat(pid int) (*Stat, error) {
	if runtime.GOOS != "linux" {
		return nil, ErrUnsupported
	}

	contents, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))

	if err != nil {
		return nil, errors.Wrapf(err, "failed to read stat of pid %d", pid)
	}

	return ParseStat(string(contents), systemPageSize())
}

// PeakTracker samples a process until stopped and remembers the largest
// resident set size it saw.
type PeakTracker struct {
	done    chan struct{}
	stopped chan struct{}
	peak    memory.Memory
}

// TrackPeak starts sampling pid every interval.
func TrackPeak(pid int, interval time.Duration) *PeakTracker {
	tracker := &PeakTracker{done: make(chan struct{}), stopped: make(chan struct{})}

	go func() {
		defer close(tracker.stopped)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if stat, err := GetStat(pid); err == nil && stat.Rss > tracker.peak {
				tracker.peak = stat.Rss
			}

			select {
			case <-tracker.done:
				return
			case <-ticker.C:
			}
		}
	}()

	return tracker
}

// Stop ends the sampling and returns the peak, zero when no sample succeeded.
func (t *PeakTracker) Stop() memory.Memory {
	close(t.done)
	<-t.stopped

	return t.peak
}

func parseInt64(value string) int64 {
	parsed, _ := strconv.ParseInt(value, 10, 64)
	return parsed
}
