package truststore

import (
	"errors"
	"fmt"
)

// ErrNotSupported is returned by platform probes that have no implementation here
var ErrNotSupported = errors.New("not supported on this platform")

// ErrorKind classifies augmentation failures
type ErrorKind int

const (
	// CertDecode: the certificate file is missing, empty, or not a single X.509 certificate
	CertDecode ErrorKind = iota + 1
	// StoreLoad: the source trust store is unreadable or the password is wrong
	StoreLoad
	// StoreWrite: serialization, disk space, or the final rename/copy failed
	StoreWrite
)

func (k ErrorKind) String() string {
	switch k {
	case CertDecode:
		return "certificate decode"
	case StoreLoad:
		return "trust store load"
	case StoreWrite:
		return "trust store write"
	default:
		return "unknown"
	}
}

// AugmentError is returned by Augment for every fatal failure.
// The output path keeps its previous contents whenever one is returned.
type AugmentError struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *AugmentError) Error() string {
	return fmt.Sprintf("%s error: failed to %s %s: %v", e.Kind, e.Op, e.Path, e.Err)
}

func (e *AugmentError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an AugmentError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var ae *AugmentError
	return errors.As(err, &ae) && ae.Kind == kind
}

func newError(kind ErrorKind, op, path string, err error) *AugmentError {
	return &AugmentError{Kind: kind, Op: op, Path: path, Err: err}
}
