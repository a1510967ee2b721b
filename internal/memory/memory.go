package memory

import (
	"fmt"
	"strconv"
)

type Memory int64

const (
	Byte     Memory = 1
	Kilobyte        = 1024 * Byte
	Megabyte        = 1024 * Kilobyte
	Gigabyte        = 1024 * Megabyte
)

func (d Memory) Bytes() int64 { return int64(d) }

func (d Memory) Kilobytes() int64 { return int64(d) / int64(Kilobyte) }

func (d Memory) Megabytes() int64 { return int64(d) / int64(Megabyte) }

func (d Memory) Gigabytes() int64 { return int64(d) / int64(Gigabyte) }

// String formats the memory for display in the terminal summary line. Values
// of at least a megabyte are shown in MB with up to two decimals, values of at
// least a kilobyte are rounded to whole KB, everything else is shown in bytes.
func (d Memory) String() string {
	switch {
	case d >= Megabyte:
		value := float64(d) / float64(Megabyte)
		return fmt.Sprintf("%s MB", strconv.FormatFloat(roundTo(value, 2), 'f', -1, 64))
	case d >= Kilobyte:
		value := float64(d) / float64(Kilobyte)
		return fmt.Sprintf("%d KB", int64(roundTo(value, 0)))
	default:
		return fmt.Sprintf("%d B", int64(d))
	}
}

func roundTo(value float64, places int) float64 {
	parsed, _ := strconv.ParseFloat(strconv.FormatFloat(value, 'f', places, 64), 64)
	return parsed
}

// LimitExceeded is the error returned by the daemon if and when the running
// program exceeded the memory ceiling of the compiler profile.
var LimitExceeded error = memoryLimitExceededError{}

type memoryLimitExceededError struct{}

func (memoryLimitExceededError) Error() string { return "memory limit exceeded" }
