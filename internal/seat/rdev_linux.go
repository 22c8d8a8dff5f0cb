package seat

import (
	"golang.org/x/sys/unix"
)

// statRdev returns the major/minor device numbers for path, needed by
// logind's TakeDevice/ReleaseDevice calls.
func statRdev(path string) (major, minor uint32, err error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, 0, err
	}
	return unix.Major(st.Rdev), unix.Minor(st.Rdev), nil
}
