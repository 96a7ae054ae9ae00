package runstats

import "runtime"

// heapSysKB approximates peak memory with the memory obtained from the OS by
// the Go runtime.
func heapSysKB() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Sys / 1024)
}
