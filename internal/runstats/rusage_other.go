//go:build !(aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris)

package runstats

func peakRSSKB() int64 {
	return heapSysKB()
}
