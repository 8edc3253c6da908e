// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"github.com/bayarmunkh/sapling/lib/edenapi"
)

// CommitLocation is the wire form of edenapi.CommitLocation.
type CommitLocation struct {
	Descendant []byte `cbor:"0,keyasint,omitempty"`
	Distance   uint64 `cbor:"1,keyasint,omitempty"`
}

// FromCommitLocation converts to wire form.
func FromCommitLocation(location edenapi.CommitLocation) CommitLocation {
	return CommitLocation{
		Descendant: fromHgID(location.Descendant),
		Distance:   location.Distance,
	}
}

// ToAPI converts to the domain form.
func (w CommitLocation) ToAPI() (edenapi.CommitLocation, error) {
	descendant, err := hgIDToAPI("descendant", w.Descendant)
	if err != nil {
		return edenapi.CommitLocation{}, err
	}
	return edenapi.CommitLocation{Descendant: descendant, Distance: w.Distance}, nil
}

// CommitLocationToHashRequest is the wire form of
// edenapi.CommitLocationToHashRequest.
type CommitLocationToHashRequest struct {
	Location CommitLocation `cbor:"0,keyasint,omitempty"`
	Count    uint64         `cbor:"1,keyasint,omitempty"`
}

// FromCommitLocationToHashRequest converts to wire form.
func FromCommitLocationToHashRequest(request edenapi.CommitLocationToHashRequest) CommitLocationToHashRequest {
	return CommitLocationToHashRequest{
		Location: FromCommitLocation(request.Location),
		Count:    request.Count,
	}
}

// ToAPI converts to the domain form.
func (w CommitLocationToHashRequest) ToAPI() (edenapi.CommitLocationToHashRequest, error) {
	location, err := w.Location.ToAPI()
	if err != nil {
		return edenapi.CommitLocationToHashRequest{}, within("location", err)
	}
	return edenapi.CommitLocationToHashRequest{Location: location, Count: w.Count}, nil
}

// CommitLocationToHashResponse is the wire form of
// edenapi.CommitLocationToHashResponse. Tags 0 and 1 mirror the
// request so the response identifies what it answers.
type CommitLocationToHashResponse struct {
	Location CommitLocation `cbor:"0,keyasint,omitempty"`
	Count    uint64         `cbor:"1,keyasint,omitempty"`
	HgIDs    [][]byte       `cbor:"2,keyasint,omitempty"`
}

// FromCommitLocationToHashResponse converts to wire form.
func FromCommitLocationToHashResponse(response edenapi.CommitLocationToHashResponse) CommitLocationToHashResponse {
	return CommitLocationToHashResponse{
		Location: FromCommitLocation(response.Location),
		Count:    response.Count,
		HgIDs:    SliceFrom(response.HgIDs, fromHgIDElement),
	}
}

// ToAPI converts to the domain form.
func (w CommitLocationToHashResponse) ToAPI() (edenapi.CommitLocationToHashResponse, error) {
	location, err := w.Location.ToAPI()
	if err != nil {
		return edenapi.CommitLocationToHashResponse{}, within("location", err)
	}
	ids, err := hgIDsToAPI(w.HgIDs)
	if err != nil {
		return edenapi.CommitLocationToHashResponse{}, within("hgids", err)
	}
	return edenapi.CommitLocationToHashResponse{Location: location, Count: w.Count, HgIDs: ids}, nil
}

// CommitLocationToHashRequestBatch is the wire form of
// edenapi.CommitLocationToHashRequestBatch.
type CommitLocationToHashRequestBatch struct {
	Requests []CommitLocationToHashRequest `cbor:"0,keyasint,omitempty"`
}

// FromCommitLocationToHashRequestBatch converts to wire form.
func FromCommitLocationToHashRequestBatch(batch edenapi.CommitLocationToHashRequestBatch) CommitLocationToHashRequestBatch {
	return CommitLocationToHashRequestBatch{
		Requests: SliceFrom(batch.Requests, FromCommitLocationToHashRequest),
	}
}

// ToAPI converts to the domain form.
func (w CommitLocationToHashRequestBatch) ToAPI() (edenapi.CommitLocationToHashRequestBatch, error) {
	requests, err := SliceToAPI[edenapi.CommitLocationToHashRequest](w.Requests)
	if err != nil {
		return edenapi.CommitLocationToHashRequestBatch{}, within("requests", err)
	}
	return edenapi.CommitLocationToHashRequestBatch{Requests: requests}, nil
}

// CommitRevlogDataRequest is the wire form of
// edenapi.CommitRevlogDataRequest. The revlog endpoint predates the
// numeric tag scheme and keys its maps by field name.
type CommitRevlogDataRequest struct {
	HgIDs [][]byte `cbor:"hgids,omitempty"`
}

// FromCommitRevlogDataRequest converts to wire form.
func FromCommitRevlogDataRequest(request edenapi.CommitRevlogDataRequest) CommitRevlogDataRequest {
	return CommitRevlogDataRequest{HgIDs: SliceFrom(request.HgIDs, fromHgIDElement)}
}

// ToAPI converts to the domain form.
func (w CommitRevlogDataRequest) ToAPI() (edenapi.CommitRevlogDataRequest, error) {
	ids, err := hgIDsToAPI(w.HgIDs)
	if err != nil {
		return edenapi.CommitRevlogDataRequest{}, within("hgids", err)
	}
	return edenapi.CommitRevlogDataRequest{HgIDs: ids}, nil
}

// CommitRevlogData is the wire form of edenapi.CommitRevlogData.
type CommitRevlogData struct {
	HgID       []byte `cbor:"hgid,omitempty"`
	RevlogData []byte `cbor:"revlog_data,omitempty"`
}

// FromCommitRevlogData converts to wire form.
func FromCommitRevlogData(data edenapi.CommitRevlogData) CommitRevlogData {
	return CommitRevlogData{
		HgID:       fromHgID(data.HgID),
		RevlogData: cloneBytes(data.RevlogData),
	}
}

// ToAPI converts to the domain form.
func (w CommitRevlogData) ToAPI() (edenapi.CommitRevlogData, error) {
	id, err := hgIDToAPI("hgid", w.HgID)
	if err != nil {
		return edenapi.CommitRevlogData{}, err
	}
	return edenapi.CommitRevlogData{HgID: id, RevlogData: cloneBytes(w.RevlogData)}, nil
}
