//go:build linux || darwin

package magic

import "golang.org/x/sys/unix"

// availableSpace returns the bytes available to an unprivileged writer on the
// filesystem holding dir.
func availableSpace(dir string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, err
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}
