//go:build !(linux || darwin || freebsd)

package truststore

import "runtime"

const permissionsSupported = runtime.GOOS != "windows"

func sameDevice(a, b string) (bool, error) {
	return false, ErrNotSupported
}

func freeSpace(dir string) (uint64, error) {
	return 0, ErrNotSupported
}
