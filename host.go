//go:build linux

package razerdoctor

import "golang.org/x/sys/unix"

// Uname identifies the running kernel.
type Uname struct {
	Sysname string // e.g. "Linux"
	Release string // e.g. "6.17.0-1005-aws"
	Machine string // e.g. "x86_64"
}

// hostUname reads the kernel identification via uname(2).
func hostUname() (Uname, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return Uname{}, err
	}
	return Uname{
		Sysname: unix.ByteSliceToString(uts.Sysname[:]),
		Release: unix.ByteSliceToString(uts.Release[:]),
		Machine: unix.ByteSliceToString(uts.Machine[:]),
	}, nil
}
