// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"errors"
	"fmt"

	"github.com/bayarmunkh/sapling/lib/edenapi"
	"github.com/bayarmunkh/sapling/lib/repo"
)

// ErrorKind names the operation a resolver error came from.
type ErrorKind int

const (
	CommitLocationToHashRequestFailed ErrorKind = iota + 1
	CommitRevlogDataRequestFailed
	FileDataRequestFailed
	UploadHgFilenodeRequestFailed
	InvalidUploadToken
)

func (kind ErrorKind) String() string {
	switch kind {
	case CommitLocationToHashRequestFailed:
		return "commit location-to-hash request failed"
	case CommitRevlogDataRequestFailed:
		return "commit revlog data request failed"
	case FileDataRequestFailed:
		return "file data request failed"
	case UploadHgFilenodeRequestFailed:
		return "hg filenode upload failed"
	case InvalidUploadToken:
		return "invalid upload token"
	default:
		return fmt.Sprintf("unknown resolver error (%d)", int(kind))
	}
}

// Error is a resolver failure: the operation that failed and the
// underlying cause.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// HgIDNotFoundError reports a commit hash storage has no record of.
type HgIDNotFoundError struct {
	HgID edenapi.HgID
}

func (e *HgIDNotFoundError) Error() string {
	return "HgId not found: " + e.HgID.String()
}

// KeyNotFoundError reports a file key storage has no filenode for.
type KeyNotFoundError struct {
	Key edenapi.Key
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key not found: %s %s", e.Key.Path, e.Key.HgID)
}

// FilenodeMismatchError reports an upload whose claimed node ID does
// not match the hash of its parents and content.
type FilenodeMismatchError struct {
	Claimed  edenapi.HgID
	Computed edenapi.HgID
}

func (e *FilenodeMismatchError) Error() string {
	return fmt.Sprintf("filenode %s does not match its content (computed %s)", e.Claimed, e.Computed)
}

// ErrContentNotUploaded reports an upload token naming content the
// store does not have.
var ErrContentNotUploaded = errors.New("referenced content has not been uploaded")

// IsNotFound reports whether err means the requested item does not
// exist, as opposed to a failure to look it up. This includes a
// location whose descendant is unknown.
func IsNotFound(err error) bool {
	var hgIDNotFound *HgIDNotFoundError
	var keyNotFound *KeyNotFoundError
	return errors.As(err, &hgIDNotFound) ||
		errors.As(err, &keyNotFound) ||
		errors.Is(err, repo.ErrNotFound)
}

// IsInvalidInput reports whether err was caused by the request itself
// (a bad token, a location past the root, content that does not hash
// to the claimed node) rather than by storage.
func IsInvalidInput(err error) bool {
	var resolveErr *Error
	if errors.As(err, &resolveErr) && resolveErr.Kind == InvalidUploadToken {
		return true
	}
	var mismatch *FilenodeMismatchError
	return errors.As(err, &mismatch) ||
		errors.Is(err, repo.ErrInvalidLocation) ||
		errors.Is(err, ErrContentNotUploaded)
}
