package truststore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	"buildenv/logging"

	"github.com/spf13/afero"
)

// Status describes the outcome of a successful Augment call
type Status string

const (
	StatusAugmented     Status = "augmented"
	StatusUpToDate      Status = "up-to-date"
	StatusSourceMissing Status = "source-missing"
)

// Options are the inputs of one augmentation
type Options struct {
	SourcePath string
	CertPath   string
	OutputPath string
	// Password opens and saves the store. nil means unset.
	Password *string
}

// Result is returned by Augment. TrustStorePath is the absolute path callers
// should trust from now on; it is empty when there was no source to augment.
type Result struct {
	Status         Status             `json:"status"`
	TrustStorePath string             `json:"trust_store_path,omitempty"`
	Alias          string             `json:"alias,omitempty"`
	Aliases        []string           `json:"aliases,omitempty"`
	Permissions    *PermissionOutcome `json:"permissions,omitempty"`
	Atomic         bool               `json:"atomic,omitempty"`
}

// Augmenter writes a copy of a trust store with one extra trusted certificate
type Augmenter struct {
	fs afero.Fs
}

// NewAugmenter creates an Augmenter on fs; nil means the OS filesystem
func NewAugmenter(fs afero.Fs) *Augmenter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Augmenter{fs: fs}
}

// Augment copies the source store to the output path with the certificate added.
// Nothing is written when the source is missing or the output is not older than
// the source. All writes go to a temporary file next to the output, which then
// replaces it, so the output is never left half written.
func (a *Augmenter) Augment(opts Options) (Result, error) {
	srcInfo, err := a.fs.Stat(opts.SourcePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.LogInfo("ℹ️  No trust store at %s, nothing to augment", opts.SourcePath)
			return Result{Status: StatusSourceMissing}, nil
		}
		return Result{}, newError(StoreLoad, "stat", opts.SourcePath, err)
	}

	outPath, err := filepath.Abs(opts.OutputPath)
	if err != nil {
		return Result{}, newError(StoreWrite, "resolve", opts.OutputPath, err)
	}

	outInfo, outErr := a.fs.Stat(outPath)
	if a.sameFile(opts.SourcePath, outPath, srcInfo, outInfo) {
		logging.LogInfo("ℹ️  %s already is the augmented trust store", opts.SourcePath)
		return Result{Status: StatusUpToDate, TrustStorePath: outPath}, nil
	}
	if outErr == nil && !outInfo.ModTime().Before(srcInfo.ModTime()) {
		logging.LogDebug("✅ %s is up to date", outPath)
		return Result{Status: StatusUpToDate, TrustStorePath: outPath}, nil
	}

	logging.LogDebug("🔐 Augmenting %s into %s", opts.SourcePath, outPath)

	store, usedPassword, err := LoadStore(a.fs, opts.SourcePath, opts.Password)
	if err != nil {
		return Result{}, newError(StoreLoad, "load", opts.SourcePath, err)
	}

	cert, err := ReadCertificate(a.fs, opts.CertPath)
	if err != nil {
		return Result{}, newError(CertDecode, "decode", opts.CertPath, err)
	}

	alias := CertificateAlias(cert)
	if _, exists := store.Certificate(alias); exists {
		logging.LogDebug("♻️  Replacing existing entry '%s'", alias)
	}
	if err := store.SetTrustedCertificate(alias, cert); err != nil {
		return Result{}, newError(StoreWrite, "add certificate to", opts.SourcePath, err)
	}

	var buf bytes.Buffer
	if err := store.Encode(&buf, savePassword(store, opts.Password, usedPassword)); err != nil {
		return Result{}, newError(StoreWrite, "serialize", outPath, err)
	}

	dir := filepath.Dir(outPath)
	if err := a.fs.MkdirAll(dir, 0755); err != nil {
		return Result{}, newError(StoreWrite, "create directory", dir, err)
	}
	if err := checkSpace(a.fs, dir, int64(buf.Len())); err != nil {
		return Result{}, newError(StoreWrite, "write", outPath, err)
	}

	tmp, err := afero.TempFile(a.fs, dir, "."+filepath.Base(outPath)+"-*.tmp")
	if err != nil {
		return Result{}, newError(StoreWrite, "create temporary file in", dir, err)
	}
	tmpName := tmp.Name()
	defer a.removeIfExists(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return Result{}, newError(StoreWrite, "write", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return Result{}, newError(StoreWrite, "sync", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, newError(StoreWrite, "close", tmpName, err)
	}

	perms, err := copyPermissions(a.fs, srcInfo.Mode(), tmpName)
	if err != nil {
		logging.LogWarn("⚠️  Could not copy permissions from %s (%s): %v", opts.SourcePath, perms, err)
	}

	atomic, err := moveIntoPlace(a.fs, tmpName, outPath)
	if err != nil {
		return Result{}, newError(StoreWrite, "replace", outPath, err)
	}

	logging.LogInfo("✅ Added certificate '%s' to %s", alias, outPath)
	return Result{
		Status:         StatusAugmented,
		TrustStorePath: outPath,
		Alias:          alias,
		Aliases:        store.Aliases(),
		Permissions:    &perms,
		Atomic:         atomic,
	}, nil
}

// sameFile reports whether the source already is the output, e.g. because the
// build was pointed at the augmented copy by an earlier run.
func (a *Augmenter) sameFile(src, out string, srcInfo, outInfo os.FileInfo) bool {
	if abs, err := filepath.Abs(src); err == nil && abs == out {
		return true
	}
	return outInfo != nil && os.SameFile(srcInfo, outInfo)
}

func (a *Augmenter) removeIfExists(path string) {
	exists, err := afero.Exists(a.fs, path)
	if err != nil || !exists {
		return
	}
	if err := a.fs.Remove(path); err != nil {
		logging.LogWarn("⚠️  Failed to remove temporary file %s: %v", path, err)
	}
}
