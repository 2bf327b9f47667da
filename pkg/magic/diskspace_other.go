//go:build !linux && !darwin && !windows

package magic

import "errors"

func availableSpace(string) (uint64, error) {
	return 0, errors.ErrUnsupported
}
