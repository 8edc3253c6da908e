// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"fmt"

	"github.com/bayarmunkh/sapling/lib/edenapi"
)

// Converter is implemented by every wire type: A is the domain type it
// converts to.
type Converter[A any] interface {
	ToAPI() (A, error)
}

// SliceToAPI converts every element, failing on the first element that
// does not convert. The error names the element index. A is given
// explicitly and W inferred: SliceToAPI[edenapi.Key](keys).
func SliceToAPI[A any, W Converter[A]](items []W) ([]A, error) {
	if items == nil {
		return nil, nil
	}
	converted := make([]A, 0, len(items))
	for i, item := range items {
		value, err := item.ToAPI()
		if err != nil {
			return nil, within(fmt.Sprintf("[%d]", i), err)
		}
		converted = append(converted, value)
	}
	return converted, nil
}

// SliceFrom converts every domain element to its wire form.
func SliceFrom[D, W any](items []D, from func(D) W) []W {
	if items == nil {
		return nil
	}
	converted := make([]W, len(items))
	for i, item := range items {
		converted[i] = from(item)
	}
	return converted
}

// fromHgID encodes a hash as a field value: the null hash is the
// default and is elided.
func fromHgID(id edenapi.HgID) []byte {
	if id.IsNull() {
		return nil
	}
	return append([]byte(nil), id[:]...)
}

// fromHgIDElement encodes a hash inside a list, where every position
// is significant and nothing is elided.
func fromHgIDElement(id edenapi.HgID) []byte {
	return append([]byte(nil), id[:]...)
}

// hgIDToAPI decodes a hash field. An absent field is the null hash.
func hgIDToAPI(field string, value []byte) (edenapi.HgID, error) {
	var id edenapi.HgID
	if len(value) == 0 {
		return id, nil
	}
	if len(value) != edenapi.HgIDLength {
		return id, invalidLength(field, len(value), edenapi.HgIDLength)
	}
	copy(id[:], value)
	return id, nil
}

func hgIDsToAPI(values [][]byte) ([]edenapi.HgID, error) {
	if values == nil {
		return nil, nil
	}
	ids := make([]edenapi.HgID, len(values))
	for i, value := range values {
		if len(value) != edenapi.HgIDLength {
			return nil, invalidLength(fmt.Sprintf("[%d]", i), len(value), edenapi.HgIDLength)
		}
		copy(ids[i][:], value)
	}
	return ids, nil
}

func cloneBytes(value []byte) []byte {
	if value == nil {
		return nil
	}
	return append([]byte{}, value...)
}

// Parents is the wire form of edenapi.Parents.
type Parents struct {
	P1 []byte `cbor:"0,keyasint,omitempty"`
	P2 []byte `cbor:"1,keyasint,omitempty"`
}

// FromParents converts to wire form.
func FromParents(parents edenapi.Parents) Parents {
	return Parents{
		P1: fromHgID(parents.P1),
		P2: fromHgID(parents.P2),
	}
}

// ToAPI converts to the domain form. A second parent without a first
// is rejected: P1 is required once P2 is present.
func (w Parents) ToAPI() (edenapi.Parents, error) {
	p1, err := hgIDToAPI("p1", w.P1)
	if err != nil {
		return edenapi.Parents{}, err
	}
	p2, err := hgIDToAPI("p2", w.P2)
	if err != nil {
		return edenapi.Parents{}, err
	}
	parents := edenapi.Parents{P1: p1, P2: p2}
	if !parents.Valid() {
		return edenapi.Parents{}, missingField("p1")
	}
	return parents, nil
}
