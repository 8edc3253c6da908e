// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"math"

	"github.com/bayarmunkh/sapling/lib/edenapi"
)

// Key is the wire form of edenapi.Key.
type Key struct {
	Path string `cbor:"0,keyasint,omitempty"`
	HgID []byte `cbor:"1,keyasint,omitempty"`
}

// FromKey converts to wire form.
func FromKey(key edenapi.Key) Key {
	return Key{Path: key.Path, HgID: fromHgID(key.HgID)}
}

// ToAPI converts to the domain form.
func (w Key) ToAPI() (edenapi.Key, error) {
	id, err := hgIDToAPI("hgid", w.HgID)
	if err != nil {
		return edenapi.Key{}, err
	}
	return edenapi.Key{Path: w.Path, HgID: id}, nil
}

// RevisionstoreMetadata is the wire form of
// edenapi.RevisionstoreMetadata. Pointers distinguish "recorded as
// zero" from "not recorded".
type RevisionstoreMetadata struct {
	Size  *uint64 `cbor:"0,keyasint,omitempty"`
	Flags *uint64 `cbor:"1,keyasint,omitempty"`
}

// FromRevisionstoreMetadata converts to wire form.
func FromRevisionstoreMetadata(metadata edenapi.RevisionstoreMetadata) RevisionstoreMetadata {
	return RevisionstoreMetadata{
		Size:  cloneUint64(metadata.Size),
		Flags: cloneUint64(metadata.Flags),
	}
}

// ToAPI converts to the domain form.
func (w RevisionstoreMetadata) ToAPI() (edenapi.RevisionstoreMetadata, error) {
	return edenapi.RevisionstoreMetadata{
		Size:  cloneUint64(w.Size),
		Flags: cloneUint64(w.Flags),
	}, nil
}

func cloneUint64(value *uint64) *uint64 {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

// FileEntry is the wire form of edenapi.FileEntry. Data and Metadata
// are independent on the wire but not in the domain: content is the
// pair of them, and Data being present is what marks it.
type FileEntry struct {
	Key      Key                    `cbor:"0,keyasint,omitempty"`
	Data     *[]byte                `cbor:"1,keyasint,omitempty"`
	Parents  Parents                `cbor:"2,keyasint,omitempty"`
	Metadata *RevisionstoreMetadata `cbor:"3,keyasint,omitempty"`
}

// FromFileEntry converts to wire form. Content always produces both
// fields. An empty blob is sent as an empty byte string, not elided.
func FromFileEntry(entry edenapi.FileEntry) FileEntry {
	w := FileEntry{
		Key:     FromKey(entry.Key),
		Parents: FromParents(entry.Parents),
	}
	if entry.Content != nil {
		blob := append([]byte{}, entry.Content.HgFileBlob...)
		w.Data = &blob
		metadata := FromRevisionstoreMetadata(entry.Content.Metadata)
		w.Metadata = &metadata
	}
	return w
}

// ToAPI converts to the domain form. Data without metadata fails with
// CannotPopulateRequiredField("content.metadata"); metadata is never
// synthesized. Metadata without data is no content.
func (w FileEntry) ToAPI() (edenapi.FileEntry, error) {
	var content *edenapi.FileContent
	if w.Data != nil {
		if w.Metadata == nil {
			return edenapi.FileEntry{}, missingField("content.metadata")
		}
		metadata, err := w.Metadata.ToAPI()
		if err != nil {
			return edenapi.FileEntry{}, within("content.metadata", err)
		}
		content = &edenapi.FileContent{
			HgFileBlob: append([]byte{}, (*w.Data)...),
			Metadata:   metadata,
		}
	}

	key, err := w.Key.ToAPI()
	if err != nil {
		return edenapi.FileEntry{}, within("key", err)
	}
	parents, err := w.Parents.ToAPI()
	if err != nil {
		return edenapi.FileEntry{}, within("parents", err)
	}
	return edenapi.FileEntry{Key: key, Content: content, Parents: parents}, nil
}

// FileAttributes is the wire form of edenapi.FileAttributes: one tag
// per facet. Future facets take new tags.
type FileAttributes struct {
	Content bool `cbor:"0,keyasint,omitempty"`
}

// FromFileAttributes converts to wire form.
func FromFileAttributes(attrs edenapi.FileAttributes) FileAttributes {
	return FileAttributes{Content: attrs.Content}
}

// ToAPI converts to the domain form.
func (w FileAttributes) ToAPI() (edenapi.FileAttributes, error) {
	return edenapi.FileAttributes{Content: w.Content}, nil
}

// FileSpec is the wire form of edenapi.FileSpec.
type FileSpec struct {
	Key   Key            `cbor:"0,keyasint,omitempty"`
	Attrs FileAttributes `cbor:"1,keyasint,omitempty"`
}

// FromFileSpec converts to wire form.
func FromFileSpec(spec edenapi.FileSpec) FileSpec {
	return FileSpec{Key: FromKey(spec.Key), Attrs: FromFileAttributes(spec.Attrs)}
}

// ToAPI converts to the domain form.
func (w FileSpec) ToAPI() (edenapi.FileSpec, error) {
	key, err := w.Key.ToAPI()
	if err != nil {
		return edenapi.FileSpec{}, within("key", err)
	}
	attrs, err := w.Attrs.ToAPI()
	if err != nil {
		return edenapi.FileSpec{}, within("attrs", err)
	}
	return edenapi.FileSpec{Key: key, Attrs: attrs}, nil
}

// FileRequest is the wire form of edenapi.FileRequest.
type FileRequest struct {
	Keys []Key      `cbor:"0,keyasint,omitempty"`
	Reqs []FileSpec `cbor:"1,keyasint,omitempty"`
}

// FromFileRequest converts to wire form.
func FromFileRequest(request edenapi.FileRequest) FileRequest {
	return FileRequest{
		Keys: SliceFrom(request.Keys, FromKey),
		Reqs: SliceFrom(request.Reqs, FromFileSpec),
	}
}

// ToAPI converts to the domain form.
func (w FileRequest) ToAPI() (edenapi.FileRequest, error) {
	keys, err := SliceToAPI[edenapi.Key](w.Keys)
	if err != nil {
		return edenapi.FileRequest{}, within("keys", err)
	}
	reqs, err := SliceToAPI[edenapi.FileSpec](w.Reqs)
	if err != nil {
		return edenapi.FileRequest{}, within("reqs", err)
	}
	return edenapi.FileRequest{Keys: keys, Reqs: reqs}, nil
}

// HgFilenodeData is the wire form of edenapi.HgFilenodeData.
type HgFilenodeData struct {
	NodeID                 []byte      `cbor:"0,keyasint,omitempty"`
	Parents                Parents     `cbor:"1,keyasint,omitempty"`
	FileContentUploadToken UploadToken `cbor:"2,keyasint,omitempty"`
	Metadata               []byte      `cbor:"3,keyasint,omitempty"`
}

// FromHgFilenodeData converts to wire form.
func FromHgFilenodeData(data edenapi.HgFilenodeData) HgFilenodeData {
	return HgFilenodeData{
		NodeID:                 fromHgID(data.NodeID),
		Parents:                FromParents(data.Parents),
		FileContentUploadToken: FromUploadToken(data.FileContentUploadToken),
		Metadata:               cloneBytes(data.Metadata),
	}
}

// ToAPI converts to the domain form.
func (w HgFilenodeData) ToAPI() (edenapi.HgFilenodeData, error) {
	nodeID, err := hgIDToAPI("node_id", w.NodeID)
	if err != nil {
		return edenapi.HgFilenodeData{}, err
	}
	parents, err := w.Parents.ToAPI()
	if err != nil {
		return edenapi.HgFilenodeData{}, within("parents", err)
	}
	token, err := w.FileContentUploadToken.ToAPI()
	if err != nil {
		return edenapi.HgFilenodeData{}, within("file_content_upload_token", err)
	}
	return edenapi.HgFilenodeData{
		NodeID:                 nodeID,
		Parents:                parents,
		FileContentUploadToken: token,
		Metadata:               cloneBytes(w.Metadata),
	}, nil
}

// UploadHgFilenodeRequest is the wire form of
// edenapi.UploadHgFilenodeRequest.
type UploadHgFilenodeRequest struct {
	Data HgFilenodeData `cbor:"0,keyasint,omitempty"`
}

// FromUploadHgFilenodeRequest converts to wire form.
func FromUploadHgFilenodeRequest(request edenapi.UploadHgFilenodeRequest) UploadHgFilenodeRequest {
	return UploadHgFilenodeRequest{Data: FromHgFilenodeData(request.Data)}
}

// ToAPI converts to the domain form.
func (w UploadHgFilenodeRequest) ToAPI() (edenapi.UploadHgFilenodeRequest, error) {
	data, err := w.Data.ToAPI()
	if err != nil {
		return edenapi.UploadHgFilenodeRequest{}, within("data", err)
	}
	return edenapi.UploadHgFilenodeRequest{Data: data}, nil
}

// UploadHgFilenodeResponse is the wire form of
// edenapi.UploadHgFilenodeResponse. Tag 0 is unused. Index has no
// omitempty, so the default value encodes as {1: 0}: the index is the
// client's only way to correlate the response.
type UploadHgFilenodeResponse struct {
	Index uint64      `cbor:"1,keyasint"`
	Token UploadToken `cbor:"2,keyasint,omitempty"`
}

// FromUploadHgFilenodeResponse converts to wire form.
func FromUploadHgFilenodeResponse(response edenapi.UploadHgFilenodeResponse) UploadHgFilenodeResponse {
	return UploadHgFilenodeResponse{
		Index: uint64(response.Index),
		Token: FromUploadToken(response.Token),
	}
}

// ToAPI converts to the domain form.
func (w UploadHgFilenodeResponse) ToAPI() (edenapi.UploadHgFilenodeResponse, error) {
	if w.Index > math.MaxInt {
		return edenapi.UploadHgFilenodeResponse{}, &ConversionError{Kind: InvalidValue, Field: "index", Detail: "exceeds platform int"}
	}
	token, err := w.Token.ToAPI()
	if err != nil {
		return edenapi.UploadHgFilenodeResponse{}, within("token", err)
	}
	return edenapi.UploadHgFilenodeResponse{Index: int(w.Index), Token: token}, nil
}
