// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package edenapi

// Key identifies one revision of one file: the repository-relative
// path plus the filenode hash. Keys are compared structurally.
type Key struct {
	Path string
	HgID HgID
}

// RevisionstoreMetadata is the per-revision metadata Mercurial stores
// alongside file content. Both fields are optional; a nil pointer
// means the value was never recorded, which is distinct from zero.
type RevisionstoreMetadata struct {
	Size  *uint64
	Flags *uint64
}

// FileContent is the content of a file revision: the raw Mercurial
// file blob (including any copy-metadata header) and its metadata.
// Content and metadata always travel together.
type FileContent struct {
	HgFileBlob []byte
	Metadata   RevisionstoreMetadata
}

// FileEntry is one result of a file request. Content is nil when the
// caller did not ask for it.
type FileEntry struct {
	Key     Key
	Content *FileContent
	Parents Parents
}

// FileAttributes is the set of facets a file request asks for. A false
// flag means "not requested".
type FileAttributes struct {
	Content bool
}

// FileSpec asks for the given attributes of one file revision.
type FileSpec struct {
	Key   Key
	Attrs FileAttributes
}

// FileRequest is a batch of file lookups. Keys is the legacy form and
// implies content was requested; Reqs carries explicit attributes.
type FileRequest struct {
	Keys []Key
	Reqs []FileSpec
}

// Specs returns every lookup in the request as a FileSpec, legacy keys
// first.
func (r FileRequest) Specs() []FileSpec {
	specs := make([]FileSpec, 0, len(r.Keys)+len(r.Reqs))
	for _, key := range r.Keys {
		specs = append(specs, FileSpec{Key: key, Attrs: FileAttributes{Content: true}})
	}
	return append(specs, r.Reqs...)
}

// HgFilenodeData describes a filenode a client wants the server to
// record. The file content itself was uploaded earlier; the token
// proves it.
type HgFilenodeData struct {
	NodeID                 HgID
	Parents                Parents
	FileContentUploadToken UploadToken
	// Metadata is the copy-metadata header that precedes the content
	// in the filenode hash, empty for files without copy information.
	Metadata []byte
}

// UploadHgFilenodeRequest is one element of a filenode upload batch.
type UploadHgFilenodeRequest struct {
	Data HgFilenodeData
}

// UploadHgFilenodeResponse acknowledges one uploaded filenode. Index
// is the position of the corresponding request in the upload batch;
// responses stream in completion order, so Index is how a client
// matches them up.
type UploadHgFilenodeResponse struct {
	Index int
	Token UploadToken
}
