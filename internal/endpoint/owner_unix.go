//go:build unix

package endpoint

import (
	"errors"

	"golang.org/x/sys/unix"
)

const hasNumericOwners = true

func artifactOwner(path string) (int, bool, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return int(st.Uid), true, nil
}

// CurrentUID is the effective user id artifacts must belong to.
func CurrentUID() int {
	return unix.Geteuid()
}
