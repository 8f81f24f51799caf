// Package sysinfo reports the host platform and disk headroom, used to frame
// clean runs with free-space before/after numbers.
package sysinfo

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
)

// DiskFree returns the free bytes on the volume holding path.
func DiskFree(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, fmt.Errorf("disk usage for %s: %w", path, err)
	}
	return usage.Free, nil
}

// DiskUsage returns used/total bytes and the used percentage for the volume
// holding path.
func DiskUsage(path string) (used, total uint64, pct float64, err error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("disk usage for %s: %w", path, err)
	}
	return usage.Used, usage.Total, usage.UsedPercent, nil
}

// Platform returns a short human description of the host, e.g.
// "darwin 15.3 (arm64)".
func Platform() string {
	info, err := host.Info()
	if err != nil {
		return "unknown"
	}
	return fmt.Sprintf("%s %s (%s)", info.Platform, info.PlatformVersion, info.KernelArch)
}
