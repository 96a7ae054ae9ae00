//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package runstats

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// peakRSSKB returns the maximum resident set size of the process in KiB.
func peakRSSKB() int64 {
	var usage unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &usage); err != nil {
		return heapSysKB()
	}
	// darwin reports bytes, the others KiB
	if runtime.GOOS == "darwin" {
		return int64(usage.Maxrss) / 1024
	}
	return int64(usage.Maxrss)
}
