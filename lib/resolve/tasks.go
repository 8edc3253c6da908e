// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"iter"

	"github.com/bayarmunkh/sapling/lib/edenapi"
	"github.com/bayarmunkh/sapling/lib/repo"
	"github.com/bayarmunkh/sapling/lib/stream"
	"github.com/bayarmunkh/sapling/lib/uploadtoken"
)

// LocationToHashTasks binds each request to LocationToHash.
func LocationToHashTasks(rc repo.Context, requests []edenapi.CommitLocationToHashRequest) iter.Seq[stream.Task[edenapi.CommitLocationToHashResponse]] {
	return stream.Tasks(requests, func(ctx context.Context, request edenapi.CommitLocationToHashRequest) (edenapi.CommitLocationToHashResponse, error) {
		return LocationToHash(ctx, rc, request)
	})
}

// RevlogDataTasks binds each hash to RevlogData.
func RevlogDataTasks(rc repo.Context, ids []edenapi.HgID) iter.Seq[stream.Task[edenapi.CommitRevlogData]] {
	return stream.Tasks(ids, func(ctx context.Context, id edenapi.HgID) (edenapi.CommitRevlogData, error) {
		return RevlogData(ctx, rc, id)
	})
}

// FileTasks binds each spec to FileEntry.
func FileTasks(rc repo.Context, specs []edenapi.FileSpec) iter.Seq[stream.Task[edenapi.FileEntry]] {
	return stream.Tasks(specs, func(ctx context.Context, spec edenapi.FileSpec) (edenapi.FileEntry, error) {
		return FileEntry(ctx, rc, spec)
	})
}

// UploadFilenodeTasks binds each request to UploadFilenode, passing
// its position in requests as the response index.
func UploadFilenodeTasks(rc repo.Context, signer *uploadtoken.Signer, requests []edenapi.UploadHgFilenodeRequest) iter.Seq[stream.Task[edenapi.UploadHgFilenodeResponse]] {
	return func(yield func(stream.Task[edenapi.UploadHgFilenodeResponse]) bool) {
		for index, request := range requests {
			task := func(ctx context.Context) (edenapi.UploadHgFilenodeResponse, error) {
				return UploadFilenode(ctx, rc, signer, index, request)
			}
			if !yield(task) {
				return
			}
		}
	}
}
