//go:build windows

package magic

import "golang.org/x/sys/windows"

// availableSpace returns the bytes available to the caller on the volume
// holding dir.
func availableSpace(dir string) (uint64, error) {
	p, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return 0, err
	}
	var free, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(p, &free, &total, &totalFree); err != nil {
		return 0, err
	}
	return free, nil
}
