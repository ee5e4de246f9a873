//go:build !linux

package razerdoctor

import "runtime"

// Uname identifies the running kernel.
// On non-Linux platforms Release is left empty.
type Uname struct {
	Sysname string
	Release string
	Machine string
}

func hostUname() (Uname, error) {
	return Uname{Sysname: runtime.GOOS, Machine: runtime.GOARCH}, nil
}
