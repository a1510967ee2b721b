package pid

import (
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpp-scratchpad/internal/memory"
)

const statLine = "4242 (a.out (copy)) S 4200 4242 4200 0 -1 4194304 120 0 0 0 1 0 0 0 20 0 1 0 98765 11378688 352 18446744073709551615 1 1 0 0 0 0 0 0 0 0 0 0 17 3 0 0 0 0 0 0 0 0 0 0 0 0 0\n"

func TestParseStat(t *testing.T) {
	stat, err := ParseStat(statLine, 4096)

	require.NoError(t, err)
	assert.Equal(t, int64(4242), stat.Pid)
	assert.Equal(t, "a.out (copy)", stat.Comm)
	assert.Equal(t, Sleeping, stat.State)
	assert.Equal(t, int64(4200), stat.Ppid)
	assert.Equal(t, memory.Memory(11378688), stat.Vsize)
	assert.Equal(t, memory.Memory(352*4096), stat.Rss)
}

func TestParseStatMalformed(t *testing.T) {
	_, err := ParseStat("garbage", 4096)
	assert.Error(t, err)

	_, err = ParseStat("1 (x) S 0", 4096)
	assert.Error(t, err)
}

func TestGetStatOfSelf(t *testing.T) {
	if runtime.GOOS != "linux" {
		_, err := GetStat(os.Getpid())
		assert.ErrorIs(t, err, ErrUnsupported)

		return
	}

	stat, err := GetStat(os.Getpid())

	require.NoError(t, err)
	assert.Equal(t, int64(os.Getpid()), stat.Pid)
	assert.Greater(t, stat.Rss.Bytes(), int64(0))
}

func TestTrackPeak(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("procfs is only available on linux")
	}

	tracker := TrackPeak(os.Getpid(), time.Millisecond)
	time.Sleep(time.Millisecond * 10)

	assert.Greater(t, tracker.Stop().Bytes(), int64(0))
}
