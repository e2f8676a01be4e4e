//go:build linux || darwin || freebsd

package truststore

import "golang.org/x/sys/unix"

const permissionsSupported = true

// sameDevice reports whether both paths live on the same device, which is what
// rename(2) needs to replace the target atomically.
func sameDevice(a, b string) (bool, error) {
	var sa, sb unix.Stat_t
	if err := unix.Stat(a, &sa); err != nil {
		return false, err
	}
	if err := unix.Stat(b, &sb); err != nil {
		return false, err
	}
	return sa.Dev == sb.Dev, nil
}

// freeSpace returns the bytes available to an unprivileged user in dir
func freeSpace(dir string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return 0, err
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}
