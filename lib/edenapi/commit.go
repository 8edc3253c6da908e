// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package edenapi

// Location names a commit relative to a known descendant: the commit
// Distance first-parent steps behind Descendant. The descendant's type
// varies by layer (a wire hash here, a typed changeset id in storage),
// so Location is generic over it.
type Location[T any] struct {
	Descendant T
	Distance   uint64
}

// MapDescendant rewrites the descendant reference with f, keeping the
// distance. The rewrite is structural: the location still names the
// same commit.
func MapDescendant[T, U any](location Location[T], f func(T) U) Location[U] {
	return Location[U]{
		Descendant: f(location.Descendant),
		Distance:   location.Distance,
	}
}

// CommitLocation is a Location expressed with a Mercurial hash.
type CommitLocation = Location[HgID]

// CommitLocationToHashRequest asks for Count consecutive first-parent
// ancestors starting at Location.
type CommitLocationToHashRequest struct {
	Location CommitLocation
	Count    uint64
}

// CommitLocationToHashResponse answers one CommitLocationToHashRequest.
// It echoes the request's Location and Count so that a client can
// match responses that arrive out of order.
type CommitLocationToHashResponse struct {
	Location CommitLocation
	Count    uint64
	HgIDs    []HgID
}

// CommitLocationToHashRequestBatch is the body of a location-to-hash
// call.
type CommitLocationToHashRequestBatch struct {
	Requests []CommitLocationToHashRequest
}

// CommitRevlogDataRequest asks for the revlog-format bytes of each
// commit.
type CommitRevlogDataRequest struct {
	HgIDs []HgID
}

// CommitRevlogData is one commit's revlog-format record. RevlogData is
// opaque to this service and passed through unparsed.
type CommitRevlogData struct {
	HgID       HgID
	RevlogData []byte
}
