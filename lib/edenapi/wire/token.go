// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"fmt"

	"github.com/bayarmunkh/sapling/lib/edenapi"
)

// AnyID is the wire form of edenapi.AnyID.
type AnyID struct {
	Kind  uint8  `cbor:"0,keyasint,omitempty"`
	Value []byte `cbor:"1,keyasint,omitempty"`
}

// FromAnyID converts to wire form.
func FromAnyID(id edenapi.AnyID) AnyID {
	return AnyID{Kind: uint8(id.Kind), Value: cloneBytes(id.Value)}
}

// ToAPI converts to the domain form. Kinds this build does not know
// are rejected rather than passed through: the server cannot verify
// or act on an identifier it cannot interpret.
func (w AnyID) ToAPI() (edenapi.AnyID, error) {
	kind := edenapi.IDKind(w.Kind)
	length, known := kind.Length()
	if !known {
		return edenapi.AnyID{}, &ConversionError{
			Kind:   UnrecognizedVariant,
			Field:  "kind",
			Detail: fmt.Sprintf("id kind %d", w.Kind),
		}
	}
	if len(w.Value) != length {
		return edenapi.AnyID{}, invalidLength("value", len(w.Value), length)
	}
	return edenapi.AnyID{Kind: kind, Value: cloneBytes(w.Value)}, nil
}

// UploadTokenData is the wire form of edenapi.UploadTokenData.
type UploadTokenData struct {
	ID       AnyID  `cbor:"0,keyasint,omitempty"`
	BubbleID uint64 `cbor:"1,keyasint,omitempty"`
}

// FromUploadTokenData converts to wire form.
func FromUploadTokenData(data edenapi.UploadTokenData) UploadTokenData {
	return UploadTokenData{ID: FromAnyID(data.ID), BubbleID: data.BubbleID}
}

// ToAPI converts to the domain form.
func (w UploadTokenData) ToAPI() (edenapi.UploadTokenData, error) {
	id, err := w.ID.ToAPI()
	if err != nil {
		return edenapi.UploadTokenData{}, within("id", err)
	}
	return edenapi.UploadTokenData{ID: id, BubbleID: w.BubbleID}, nil
}

// UploadToken is the wire form of edenapi.UploadToken.
type UploadToken struct {
	Data      UploadTokenData `cbor:"0,keyasint,omitempty"`
	Signature []byte          `cbor:"1,keyasint,omitempty"`
}

// FromUploadToken converts to wire form.
func FromUploadToken(token edenapi.UploadToken) UploadToken {
	return UploadToken{
		Data:      FromUploadTokenData(token.Data),
		Signature: cloneBytes(token.Signature),
	}
}

// ToAPI converts to the domain form.
func (w UploadToken) ToAPI() (edenapi.UploadToken, error) {
	data, err := w.Data.ToAPI()
	if err != nil {
		return edenapi.UploadToken{}, within("data", err)
	}
	return edenapi.UploadToken{Data: data, Signature: cloneBytes(w.Signature)}, nil
}
