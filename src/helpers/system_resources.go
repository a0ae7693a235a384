package helpers

import "github.com/shirou/gopsutil/v3/mem"

// GetTotalSystemMemoryMB returns the total physical memory in MB, or 0 when
// the platform will not report it.
func GetTotalSystemMemoryMB() int {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return int(vm.Total / 1024 / 1024)
}

// GetRecommendedMemoryLimit picks a history cap for hosts where no explicit
// limit is configured: 75% of physical RAM, never below 512MB unless the
// machine itself has less. Falls back to 512MB when the total is unknown.
func GetRecommendedMemoryLimit() int {
	totalMB := GetTotalSystemMemoryMB()
	if totalMB == 0 {
		return 512
	}

	limit := int(float64(totalMB) * 0.75)
	if limit < 512 {
		if totalMB < 512 {
			return totalMB
		}
		return 512
	}
	return limit
}
