package truststore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"buildenv/logging"

	"github.com/spf13/afero"
)

// PermissionOutcome reports what happened when copying permission bits
type PermissionOutcome int

const (
	PermissionsApplied PermissionOutcome = iota
	PermissionsUnsupported
	PermissionsFailed
)

func (p PermissionOutcome) String() string {
	switch p {
	case PermissionsApplied:
		return "applied"
	case PermissionsUnsupported:
		return "unsupported"
	case PermissionsFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (p PermissionOutcome) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *PermissionOutcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "applied":
		*p = PermissionsApplied
	case "unsupported":
		*p = PermissionsUnsupported
	case "failed":
		*p = PermissionsFailed
	default:
		return fmt.Errorf("unknown permission outcome %q", text)
	}
	return nil
}

// copyPermissions applies mode's permission bits to path
func copyPermissions(fs afero.Fs, mode os.FileMode, path string) (PermissionOutcome, error) {
	if !permissionsSupported {
		return PermissionsUnsupported, ErrNotSupported
	}
	if err := fs.Chmod(path, mode.Perm()); err != nil {
		if errors.Is(err, errors.ErrUnsupported) || errors.Is(err, ErrNotSupported) {
			return PermissionsUnsupported, err
		}
		return PermissionsFailed, err
	}
	return PermissionsApplied, nil
}

// checkSpace fails when dir cannot hold need more bytes.
// Filesystems without a free-space probe are not checked.
func checkSpace(fs afero.Fs, dir string, need int64) error {
	if _, ok := fs.(*afero.OsFs); !ok {
		return nil
	}
	free, err := freeSpace(dir)
	if err != nil {
		logging.LogDebug("⚠️  Skipping disk space check for %s: %v", dir, err)
		return nil
	}
	if uint64(need) > free {
		return fmt.Errorf("insufficient disk space in %s: need %d bytes, %d available", dir, need, free)
	}
	return nil
}

// moveIntoPlace replaces dst with src. It reports whether the replacement was atomic.
// On the OS filesystem a device probe picks rename or copy up front; elsewhere a
// failed rename falls back to copying.
func moveIntoPlace(fs afero.Fs, src, dst string) (bool, error) {
	if _, ok := fs.(*afero.OsFs); ok {
		target := dst
		if _, err := fs.Stat(dst); err != nil {
			target = filepath.Dir(dst)
		}
		same, err := sameDevice(src, target)
		switch {
		case err == nil && same:
			if err := fs.Rename(src, dst); err != nil {
				return false, fmt.Errorf("failed to rename %s to %s: %w", src, dst, err)
			}
			return true, nil
		case err == nil:
			logging.LogDebug("🔀 %s is on another device, copying instead of renaming", dst)
			return false, copyReplace(fs, src, dst)
		}
		logging.LogDebug("⚠️  Rename capability probe unavailable: %v", err)
	}

	if err := fs.Rename(src, dst); err != nil {
		logging.LogWarn("⚠️  Atomic rename to %s failed (%v), falling back to copy", dst, err)
		return false, copyReplace(fs, src, dst)
	}
	return true, nil
}

// copyReplace copies src over dst keeping mode and timestamps, then removes src.
// If the copy fails, dst gets its previous contents back (or is removed if it
// did not exist), so a failed replace never leaves a truncated store behind.
func copyReplace(fs afero.Fs, src, dst string) error {
	info, err := fs.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	previous, prevErr := afero.ReadFile(fs, dst)
	if prevErr != nil && !errors.Is(prevErr, os.ErrNotExist) {
		return fmt.Errorf("failed to read %s: %w", dst, prevErr)
	}

	if err := copyInto(fs, src, dst, info.Mode().Perm()); err != nil {
		restore(fs, dst, previous, prevErr == nil)
		return err
	}

	if permissionsSupported {
		if err := fs.Chmod(dst, info.Mode().Perm()); err != nil {
			logging.LogWarn("⚠️  Could not preserve permissions on %s: %v", dst, err)
		}
	}
	if err := fs.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		logging.LogWarn("⚠️  Could not preserve timestamps on %s: %v", dst, err)
	}

	if err := fs.Remove(src); err != nil {
		return fmt.Errorf("failed to remove %s: %w", src, err)
	}
	return nil
}

func copyInto(fs afero.Fs, src, dst string, perm os.FileMode) error {
	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy to %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}
	return nil
}

// restore puts back what copyInto overwrote
func restore(fs afero.Fs, dst string, previous []byte, existed bool) {
	var err error
	if existed {
		err = afero.WriteFile(fs, dst, previous, 0644)
	} else {
		err = fs.Remove(dst)
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.LogError("❌ Failed to restore %s after an interrupted copy: %v", dst, err)
	}
}
