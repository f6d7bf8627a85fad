//go:build unix

package platform

import "golang.org/x/sys/unix"

func kernelMajor() int {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return 0
	}
	return parseMajor(unix.ByteSliceToString(uts.Release[:]))
}
