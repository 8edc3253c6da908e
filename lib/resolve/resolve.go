// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"fmt"

	"github.com/bayarmunkh/sapling/lib/edenapi"
	"github.com/bayarmunkh/sapling/lib/repo"
	"github.com/bayarmunkh/sapling/lib/uploadtoken"
)

// LocationToHash resolves up to request.Count ancestor hashes of a
// commit location. The response echoes the request's location and
// count verbatim so clients can match out-of-order responses to their
// requests.
func LocationToHash(ctx context.Context, rc repo.Context, request edenapi.CommitLocationToHashRequest) (edenapi.CommitLocationToHashResponse, error) {
	location := edenapi.MapDescendant(request.Location, repo.ChangesetIDFromHgID)
	ancestors, err := rc.ResolveAncestors(ctx, location, request.Count)
	if err != nil {
		return edenapi.CommitLocationToHashResponse{}, &Error{Kind: CommitLocationToHashRequestFailed, Err: err}
	}

	hgids := make([]edenapi.HgID, len(ancestors))
	for i, ancestor := range ancestors {
		hgids[i] = ancestor.HgID()
	}
	return edenapi.CommitLocationToHashResponse{
		Location: request.Location,
		Count:    request.Count,
		HgIDs:    hgids,
	}, nil
}

// RevlogData fetches the legacy-format bytes of one commit. The bytes
// are returned as stored, never parsed.
func RevlogData(ctx context.Context, rc repo.Context, id edenapi.HgID) (edenapi.CommitRevlogData, error) {
	data, found, err := rc.FetchLegacyCommitBytes(ctx, repo.ChangesetIDFromHgID(id))
	if err != nil {
		return edenapi.CommitRevlogData{}, &Error{Kind: CommitRevlogDataRequestFailed, Err: err}
	}
	if !found {
		return edenapi.CommitRevlogData{}, &HgIDNotFoundError{HgID: id}
	}
	return edenapi.CommitRevlogData{HgID: id, RevlogData: data}, nil
}

// FileEntry resolves one file key. Content is fetched only when the
// spec's attributes request it; otherwise the entry carries the key
// and parents alone.
func FileEntry(ctx context.Context, rc repo.Context, spec edenapi.FileSpec) (edenapi.FileEntry, error) {
	record, found, err := rc.FetchFile(ctx, spec.Key.HgID)
	if err != nil {
		return edenapi.FileEntry{}, &Error{Kind: FileDataRequestFailed, Err: err}
	}
	if !found {
		return edenapi.FileEntry{}, &KeyNotFoundError{Key: spec.Key}
	}

	entry := edenapi.FileEntry{Key: spec.Key, Parents: record.Parents}
	if !spec.Attrs.Content {
		return entry, nil
	}

	data, found, err := rc.FetchContent(ctx, record.Content)
	if err != nil {
		return edenapi.FileEntry{}, &Error{Kind: FileDataRequestFailed, Err: err}
	}
	if !found {
		return edenapi.FileEntry{}, &Error{
			Kind: FileDataRequestFailed,
			Err:  fmt.Errorf("filenode %s references missing content %s", record.Node, record.Content),
		}
	}
	size := uint64(len(data))
	entry.Content = &edenapi.FileContent{
		HgFileBlob: repo.HgFileBlob(record, data),
		Metadata:   edenapi.RevisionstoreMetadata{Size: &size, Flags: record.Flags},
	}
	return entry, nil
}

// UploadFilenode records one filenode whose content was uploaded
// earlier. The content upload token must verify under signer and name
// content the store holds, and the node ID must equal the filenode
// hash of the parents and the copy metadata followed by the content.
// On success the response carries index (the item's position in the
// request) and a newly minted token for the filenode.
func UploadFilenode(ctx context.Context, rc repo.Context, signer *uploadtoken.Signer, index int, request edenapi.UploadHgFilenodeRequest) (edenapi.UploadHgFilenodeResponse, error) {
	data := request.Data
	contentToken := data.FileContentUploadToken

	if err := signer.Verify(contentToken); err != nil {
		return edenapi.UploadHgFilenodeResponse{}, &Error{Kind: InvalidUploadToken, Err: err}
	}
	contentID, err := repo.ContentIDFromAnyID(contentToken.Data.ID)
	if err != nil {
		return edenapi.UploadHgFilenodeResponse{}, &Error{Kind: InvalidUploadToken, Err: err}
	}

	content, found, err := rc.FetchContent(ctx, contentID)
	if err != nil {
		return edenapi.UploadHgFilenodeResponse{}, &Error{Kind: UploadHgFilenodeRequestFailed, Err: err}
	}
	if !found {
		return edenapi.UploadHgFilenodeResponse{}, &Error{
			Kind: UploadHgFilenodeRequestFailed,
			Err:  fmt.Errorf("content %s: %w", contentID, ErrContentNotUploaded),
		}
	}

	record := repo.FileRecord{
		Node:         data.NodeID,
		Parents:      data.Parents,
		Content:      contentID,
		CopyMetadata: data.Metadata,
	}
	computed := edenapi.FilenodeID(data.Parents, repo.HgFileBlob(record, content))
	if computed != data.NodeID {
		return edenapi.UploadHgFilenodeResponse{}, &Error{
			Kind: UploadHgFilenodeRequestFailed,
			Err:  &FilenodeMismatchError{Claimed: data.NodeID, Computed: computed},
		}
	}

	if err := rc.StoreFilenode(ctx, record); err != nil {
		return edenapi.UploadHgFilenodeResponse{}, &Error{Kind: UploadHgFilenodeRequestFailed, Err: err}
	}

	token, err := signer.Mint(edenapi.UploadTokenData{
		ID:       edenapi.HgFilenodeAnyID(data.NodeID),
		BubbleID: contentToken.Data.BubbleID,
	})
	if err != nil {
		return edenapi.UploadHgFilenodeResponse{}, &Error{Kind: UploadHgFilenodeRequestFailed, Err: err}
	}
	return edenapi.UploadHgFilenodeResponse{Index: index, Token: token}, nil
}
