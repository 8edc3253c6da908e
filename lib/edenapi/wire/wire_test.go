// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bytes"
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/bayarmunkh/sapling/lib/codec"
	"github.com/bayarmunkh/sapling/lib/edenapi"
	"github.com/bayarmunkh/sapling/lib/edenapi/edenapitest"
)

// Encoding cannot tell a nil slice from an empty one; neither can
// these comparisons.
var equateEmpty = cmpopts.EquateEmpty()

func hashOf(b byte) edenapi.HgID {
	var id edenapi.HgID
	for i := range id {
		id[i] = b
	}
	return id
}

func uint64Pointer(value uint64) *uint64 {
	return &value
}

func blobPointer(value []byte) *[]byte {
	return &value
}

// checkSerializeRoundtrip checks decode(encode(w)) == w over generated
// wire values of type W.
func checkSerializeRoundtrip[W any](t *testing.T) {
	t.Helper()
	fuzzer := edenapitest.NewWireFuzzer(1)
	for i := 0; i < edenapitest.Iterations; i++ {
		var original W
		fuzzer.Fuzz(&original)

		data, err := codec.Marshal(original)
		if err != nil {
			t.Fatalf("iteration %d: Marshal(%+v): %v", i, original, err)
		}
		var decoded W
		if err := codec.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("iteration %d: Unmarshal: %v", i, err)
		}
		if diff := cmp.Diff(original, decoded, equateEmpty); diff != "" {
			t.Fatalf("iteration %d: serialize roundtrip mismatch (-original +decoded):\n%s", i, diff)
		}
	}
}

// checkWireRoundtrip checks ToAPI(decode(encode(From(v)))) == v over
// generated well-formed domain values of type D.
func checkWireRoundtrip[D any, W Converter[D]](t *testing.T, from func(D) W) {
	t.Helper()
	fuzzer := edenapitest.NewFuzzer(2)
	for i := 0; i < edenapitest.Iterations; i++ {
		var original D
		fuzzer.Fuzz(&original)

		direct, err := from(original).ToAPI()
		if err != nil {
			t.Fatalf("iteration %d: ToAPI(From(%+v)): %v", i, original, err)
		}
		if diff := cmp.Diff(original, direct, equateEmpty); diff != "" {
			t.Fatalf("iteration %d: wire roundtrip mismatch (-original +converted):\n%s", i, diff)
		}

		data, err := codec.Marshal(from(original))
		if err != nil {
			t.Fatalf("iteration %d: Marshal: %v", i, err)
		}
		var decoded W
		if err := codec.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("iteration %d: Unmarshal: %v", i, err)
		}
		converted, err := decoded.ToAPI()
		if err != nil {
			t.Fatalf("iteration %d: ToAPI after decode: %v", i, err)
		}
		if diff := cmp.Diff(original, converted, equateEmpty); diff != "" {
			t.Fatalf("iteration %d: encoded roundtrip mismatch (-original +converted):\n%s", i, diff)
		}
	}
}

func TestSerializeRoundtrip(t *testing.T) {
	t.Run("Key", checkSerializeRoundtrip[Key])
	t.Run("Parents", checkSerializeRoundtrip[Parents])
	t.Run("FileEntry", checkSerializeRoundtrip[FileEntry])
	t.Run("FileAttributes", checkSerializeRoundtrip[FileAttributes])
	t.Run("FileSpec", checkSerializeRoundtrip[FileSpec])
	t.Run("FileRequest", checkSerializeRoundtrip[FileRequest])
	t.Run("UploadToken", checkSerializeRoundtrip[UploadToken])
	t.Run("HgFilenodeData", checkSerializeRoundtrip[HgFilenodeData])
	t.Run("UploadHgFilenodeRequest", checkSerializeRoundtrip[UploadHgFilenodeRequest])
	t.Run("UploadHgFilenodeResponse", checkSerializeRoundtrip[UploadHgFilenodeResponse])
	t.Run("CommitLocationToHashRequest", checkSerializeRoundtrip[CommitLocationToHashRequest])
	t.Run("CommitLocationToHashResponse", checkSerializeRoundtrip[CommitLocationToHashResponse])
	t.Run("CommitLocationToHashRequestBatch", checkSerializeRoundtrip[CommitLocationToHashRequestBatch])
	t.Run("CommitRevlogDataRequest", checkSerializeRoundtrip[CommitRevlogDataRequest])
	t.Run("CommitRevlogData", checkSerializeRoundtrip[CommitRevlogData])
}

func TestWireRoundtrip(t *testing.T) {
	t.Run("Key", func(t *testing.T) { checkWireRoundtrip(t, FromKey) })
	t.Run("Parents", func(t *testing.T) { checkWireRoundtrip(t, FromParents) })
	t.Run("FileEntry", func(t *testing.T) { checkWireRoundtrip(t, FromFileEntry) })
	t.Run("FileSpec", func(t *testing.T) { checkWireRoundtrip(t, FromFileSpec) })
	t.Run("FileRequest", func(t *testing.T) { checkWireRoundtrip(t, FromFileRequest) })
	t.Run("UploadToken", func(t *testing.T) { checkWireRoundtrip(t, FromUploadToken) })
	t.Run("HgFilenodeData", func(t *testing.T) { checkWireRoundtrip(t, FromHgFilenodeData) })
	t.Run("UploadHgFilenodeRequest", func(t *testing.T) { checkWireRoundtrip(t, FromUploadHgFilenodeRequest) })
	t.Run("UploadHgFilenodeResponse", func(t *testing.T) { checkWireRoundtrip(t, FromUploadHgFilenodeResponse) })
	t.Run("CommitLocationToHashRequest", func(t *testing.T) { checkWireRoundtrip(t, FromCommitLocationToHashRequest) })
	t.Run("CommitLocationToHashResponse", func(t *testing.T) { checkWireRoundtrip(t, FromCommitLocationToHashResponse) })
	t.Run("CommitLocationToHashRequestBatch", func(t *testing.T) { checkWireRoundtrip(t, FromCommitLocationToHashRequestBatch) })
	t.Run("CommitRevlogDataRequest", func(t *testing.T) { checkWireRoundtrip(t, FromCommitRevlogDataRequest) })
	t.Run("CommitRevlogData", func(t *testing.T) { checkWireRoundtrip(t, FromCommitRevlogData) })
}

// checkDefaultElided checks that the domain default encodes to an
// empty map and that an empty map decodes back to the domain default.
func checkDefaultElided[D any, W Converter[D]](t *testing.T, from func(D) W) {
	t.Helper()
	var zero D
	data, err := codec.Marshal(from(zero))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(data, []byte{0xa0}) {
		notation, _ := codec.Diagnose(data)
		t.Errorf("default value encoded as %s, want {}", notation)
	}

	var decoded W
	if err := codec.Unmarshal([]byte{0xa0}, &decoded); err != nil {
		t.Fatalf("Unmarshal({}): %v", err)
	}
	converted, err := decoded.ToAPI()
	if err != nil {
		t.Fatalf("ToAPI({}): %v", err)
	}
	if diff := cmp.Diff(zero, converted, equateEmpty); diff != "" {
		t.Errorf("{} did not decode to the default (-want +got):\n%s", diff)
	}
}

// UploadHgFilenodeResponse is absent: its index is always encoded, see
// TestUploadResponseIndexAlwaysEncoded.
func TestDefaultElision(t *testing.T) {
	t.Run("Key", func(t *testing.T) { checkDefaultElided(t, FromKey) })
	t.Run("Parents", func(t *testing.T) { checkDefaultElided(t, FromParents) })
	t.Run("RevisionstoreMetadata", func(t *testing.T) { checkDefaultElided(t, FromRevisionstoreMetadata) })
	t.Run("FileEntry", func(t *testing.T) { checkDefaultElided(t, FromFileEntry) })
	t.Run("FileAttributes", func(t *testing.T) { checkDefaultElided(t, FromFileAttributes) })
	t.Run("FileSpec", func(t *testing.T) { checkDefaultElided(t, FromFileSpec) })
	t.Run("FileRequest", func(t *testing.T) { checkDefaultElided(t, FromFileRequest) })
	t.Run("AnyID", func(t *testing.T) { checkDefaultElided(t, FromAnyID) })
	t.Run("UploadToken", func(t *testing.T) { checkDefaultElided(t, FromUploadToken) })
	t.Run("HgFilenodeData", func(t *testing.T) { checkDefaultElided(t, FromHgFilenodeData) })
	t.Run("UploadHgFilenodeRequest", func(t *testing.T) { checkDefaultElided(t, FromUploadHgFilenodeRequest) })
	t.Run("CommitLocation", func(t *testing.T) { checkDefaultElided(t, FromCommitLocation) })
	t.Run("CommitLocationToHashRequest", func(t *testing.T) { checkDefaultElided(t, FromCommitLocationToHashRequest) })
	t.Run("CommitLocationToHashResponse", func(t *testing.T) { checkDefaultElided(t, FromCommitLocationToHashResponse) })
	t.Run("CommitLocationToHashRequestBatch", func(t *testing.T) { checkDefaultElided(t, FromCommitLocationToHashRequestBatch) })
	t.Run("CommitRevlogDataRequest", func(t *testing.T) { checkDefaultElided(t, FromCommitRevlogDataRequest) })
	t.Run("CommitRevlogData", func(t *testing.T) { checkDefaultElided(t, FromCommitRevlogData) })
}

func TestUploadResponseIndexAlwaysEncoded(t *testing.T) {
	data, err := codec.Marshal(FromUploadHgFilenodeResponse(edenapi.UploadHgFilenodeResponse{}))
	if err != nil {
		t.Fatal(err)
	}
	notation, err := codec.Diagnose(data)
	if err != nil {
		t.Fatal(err)
	}
	if notation != "{1: 0}" {
		t.Errorf("default upload response encoded as %s, want {1: 0}", notation)
	}
}

// topLevelTags returns the sorted integer keys of an encoded map.
func topLevelTags(t *testing.T, value any) []uint64 {
	t.Helper()
	data, err := codec.Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var fields map[uint64]codec.RawMessage
	if err := codec.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal into tag map: %v", err)
	}
	tags := make([]uint64, 0, len(fields))
	for tag := range fields {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

func TestTagTables(t *testing.T) {
	key := edenapi.Key{Path: "a/b", HgID: hashOf(1)}
	token := edenapi.UploadToken{
		Data:      edenapi.UploadTokenData{ID: edenapi.HgFilenodeAnyID(hashOf(9)), BubbleID: 4},
		Signature: []byte("sig"),
	}

	tests := []struct {
		name  string
		value any
		want  []uint64
	}{
		{"Key", FromKey(key), []uint64{0, 1}},
		{"Parents", FromParents(edenapi.Parents{P1: hashOf(2), P2: hashOf(3)}), []uint64{0, 1}},
		{"RevisionstoreMetadata", FromRevisionstoreMetadata(edenapi.RevisionstoreMetadata{
			Size: uint64Pointer(5), Flags: uint64Pointer(0),
		}), []uint64{0, 1}},
		{"FileEntry", FromFileEntry(edenapi.FileEntry{
			Key:     key,
			Content: &edenapi.FileContent{HgFileBlob: []byte("x")},
			Parents: edenapi.Parents{P1: hashOf(2)},
		}), []uint64{0, 1, 2, 3}},
		{"FileAttributes", FromFileAttributes(edenapi.FileAttributes{Content: true}), []uint64{0}},
		{"FileSpec", FromFileSpec(edenapi.FileSpec{Key: key, Attrs: edenapi.FileAttributes{Content: true}}), []uint64{0, 1}},
		{"FileRequest", FromFileRequest(edenapi.FileRequest{
			Keys: []edenapi.Key{key},
			Reqs: []edenapi.FileSpec{{Key: key}},
		}), []uint64{0, 1}},
		{"AnyID", FromAnyID(edenapi.HgFilenodeAnyID(hashOf(7))), []uint64{0, 1}},
		{"UploadTokenData", FromUploadTokenData(token.Data), []uint64{0, 1}},
		{"UploadToken", FromUploadToken(token), []uint64{0, 1}},
		{"HgFilenodeData", FromHgFilenodeData(edenapi.HgFilenodeData{
			NodeID:                 hashOf(1),
			Parents:                edenapi.Parents{P1: hashOf(2)},
			FileContentUploadToken: token,
			Metadata:               []byte("\x01\ncopy: a\n\x01\n"),
		}), []uint64{0, 1, 2, 3}},
		{"UploadHgFilenodeResponse", FromUploadHgFilenodeResponse(edenapi.UploadHgFilenodeResponse{Index: 3, Token: token}), []uint64{1, 2}},
		{"CommitLocation", FromCommitLocation(edenapi.CommitLocation{Descendant: hashOf(1), Distance: 2}), []uint64{0, 1}},
		{"CommitLocationToHashRequest", FromCommitLocationToHashRequest(edenapi.CommitLocationToHashRequest{
			Location: edenapi.CommitLocation{Descendant: hashOf(1)},
			Count:    3,
		}), []uint64{0, 1}},
		{"CommitLocationToHashResponse", FromCommitLocationToHashResponse(edenapi.CommitLocationToHashResponse{
			Location: edenapi.CommitLocation{Descendant: hashOf(1)},
			Count:    1,
			HgIDs:    []edenapi.HgID{hashOf(1)},
		}), []uint64{0, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := topLevelTags(t, tt.value); !slices.Equal(got, tt.want) {
				t.Errorf("tags = %v, want %v", got, tt.want)
			}
		})
	}
}

// The revlog endpoint keys its maps by field name rather than by tag.
func TestRevlogFieldNames(t *testing.T) {
	fieldNames := func(t *testing.T, value any) []string {
		t.Helper()
		data, err := codec.Marshal(value)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		var fields map[string]codec.RawMessage
		if err := codec.Unmarshal(data, &fields); err != nil {
			t.Fatalf("Unmarshal into field map: %v", err)
		}
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		slices.Sort(names)
		return names
	}

	request := FromCommitRevlogDataRequest(edenapi.CommitRevlogDataRequest{HgIDs: []edenapi.HgID{hashOf(1)}})
	if got := fieldNames(t, request); !slices.Equal(got, []string{"hgids"}) {
		t.Errorf("request fields = %v, want [hgids]", got)
	}
	response := FromCommitRevlogData(edenapi.CommitRevlogData{HgID: hashOf(1), RevlogData: []byte("r")})
	if got := fieldNames(t, response); !slices.Equal(got, []string{"hgid", "revlog_data"}) {
		t.Errorf("response fields = %v, want [hgid revlog_data]", got)
	}
}

func TestRevlogRequestByFieldName(t *testing.T) {
	ids := []edenapi.HgID{hashOf(1), hashOf(2)}
	data, err := codec.Marshal(map[string]any{"hgids": [][]byte{ids[0][:], ids[1][:]}})
	if err != nil {
		t.Fatal(err)
	}

	var request CommitRevlogDataRequest
	if err := codec.Unmarshal(data, &request); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	converted, err := request.ToAPI()
	if err != nil {
		t.Fatalf("ToAPI: %v", err)
	}
	if diff := cmp.Diff(ids, converted.HgIDs); diff != "" {
		t.Errorf("hgids (-want +got):\n%s", diff)
	}

	response, err := codec.Marshal(map[string]any{"hgid": ids[0][:], "revlog_data": []byte("commit")})
	if err != nil {
		t.Fatal(err)
	}
	var revlog CommitRevlogData
	if err := codec.Unmarshal(response, &revlog); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got, err := revlog.ToAPI()
	if err != nil {
		t.Fatalf("ToAPI: %v", err)
	}
	want := edenapi.CommitRevlogData{HgID: ids[0], RevlogData: []byte("commit")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("revlog data (-want +got):\n%s", diff)
	}
}

func TestUnknownTagsIgnored(t *testing.T) {
	original := FromFileEntry(edenapi.FileEntry{
		Key:     edenapi.Key{Path: "p", HgID: hashOf(1)},
		Content: &edenapi.FileContent{HgFileBlob: []byte("data")},
	})
	data, err := codec.Marshal(original)
	if err != nil {
		t.Fatal(err)
	}

	var fields map[uint64]codec.RawMessage
	if err := codec.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	fields[42] = codec.RawMessage{0x63, 'n', 'e', 'w'}
	extended, err := codec.Marshal(fields)
	if err != nil {
		t.Fatal(err)
	}

	var decoded FileEntry
	if err := codec.Unmarshal(extended, &decoded); err != nil {
		t.Fatalf("decoder rejected unknown tag: %v", err)
	}
	if diff := cmp.Diff(original, decoded, equateEmpty); diff != "" {
		t.Errorf("unknown tag changed the decoded value (-want +got):\n%s", diff)
	}
}

func TestFileEntryDataWithoutMetadata(t *testing.T) {
	entry := FileEntry{
		Key:  Key{Path: "foo", HgID: fromHgID(hashOf(1))},
		Data: blobPointer([]byte("contents")),
	}

	converted, err := entry.ToAPI()
	if err == nil {
		t.Fatal("ToAPI accepted data without metadata")
	}
	field, ok := MissingField(err)
	if !ok || field != "content.metadata" {
		t.Errorf("error = %v, want missing field content.metadata", err)
	}
	if !reflect.DeepEqual(converted, edenapi.FileEntry{}) {
		t.Errorf("ToAPI returned a partial value on error: %+v", converted)
	}
}

func TestFileEntryKeyOnly(t *testing.T) {
	key := edenapi.Key{Path: "dir/file.txt", HgID: hashOf(0x42)}
	data, err := codec.Marshal(map[uint64]any{0: FromKey(key)})
	if err != nil {
		t.Fatal(err)
	}

	var entry FileEntry
	if err := codec.Unmarshal(data, &entry); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	converted, err := entry.ToAPI()
	if err != nil {
		t.Fatalf("ToAPI: %v", err)
	}
	want := edenapi.FileEntry{Key: key}
	if diff := cmp.Diff(want, converted); diff != "" {
		t.Errorf("key-only entry (-want +got):\n%s", diff)
	}
}

func TestFileEntryEmptyContent(t *testing.T) {
	entry := FromFileEntry(edenapi.FileEntry{
		Key:     edenapi.Key{Path: "empty"},
		Content: &edenapi.FileContent{HgFileBlob: []byte{}},
	})
	data, err := codec.Marshal(entry)
	if err != nil {
		t.Fatal(err)
	}
	notation, err := codec.Diagnose(data)
	if err != nil {
		t.Fatal(err)
	}
	if want := `{0: {0: "empty"}, 1: h'', 3: {}}`; notation != want {
		t.Errorf("empty content encoded as %s, want %s", notation, want)
	}

	var decoded FileEntry
	if err := codec.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	converted, err := decoded.ToAPI()
	if err != nil {
		t.Fatalf("ToAPI: %v", err)
	}
	if converted.Content == nil || len(converted.Content.HgFileBlob) != 0 {
		t.Errorf("content = %+v, want present and empty", converted.Content)
	}
}

func TestFileEntryMetadataOnlyIsNoContent(t *testing.T) {
	size := uint64(3)
	entry := FileEntry{
		Key:      FromKey(edenapi.Key{Path: "p", HgID: hashOf(1)}),
		Metadata: &RevisionstoreMetadata{Size: &size},
	}
	converted, err := entry.ToAPI()
	if err != nil {
		t.Fatalf("ToAPI: %v", err)
	}
	if converted.Content != nil {
		t.Errorf("content = %+v, want none", converted.Content)
	}
}

func TestFileEntryContentAlwaysCarriesMetadata(t *testing.T) {
	entry := FromFileEntry(edenapi.FileEntry{
		Content: &edenapi.FileContent{HgFileBlob: []byte("blob")},
	})
	if entry.Metadata == nil {
		t.Fatal("content encoded without a metadata field")
	}
	if got := topLevelTags(t, entry); !slices.Equal(got, []uint64{1, 3}) {
		t.Errorf("tags = %v, want [1 3]", got)
	}
}

func TestConversionErrors(t *testing.T) {
	short := []byte("too-short")

	tests := []struct {
		name      string
		convert   func() error
		wantKind  ConversionErrorKind
		wantField string
	}{
		{
			name: "key hash length",
			convert: func() error {
				_, err := FileEntry{Key: Key{HgID: short}}.ToAPI()
				return err
			},
			wantKind:  InvalidLength,
			wantField: "key.hgid",
		},
		{
			name: "second parent without first",
			convert: func() error {
				_, err := FileEntry{Parents: Parents{P2: fromHgID(hashOf(1))}}.ToAPI()
				return err
			},
			wantKind:  CannotPopulateRequiredField,
			wantField: "parents.p1",
		},
		{
			name: "batch element location",
			convert: func() error {
				_, err := CommitLocationToHashRequestBatch{Requests: []CommitLocationToHashRequest{
					{Location: CommitLocation{Descendant: fromHgID(hashOf(1))}, Count: 1},
					{Location: CommitLocation{Descendant: short}, Count: 1},
				}}.ToAPI()
				return err
			},
			wantKind:  InvalidLength,
			wantField: "requests[1].location.descendant",
		},
		{
			name: "revlog request element",
			convert: func() error {
				_, err := CommitRevlogDataRequest{HgIDs: [][]byte{fromHgID(hashOf(1)), nil}}.ToAPI()
				return err
			},
			wantKind:  InvalidLength,
			wantField: "hgids[1]",
		},
		{
			name: "unknown id kind",
			convert: func() error {
				_, err := UploadHgFilenodeRequest{Data: HgFilenodeData{
					FileContentUploadToken: UploadToken{Data: UploadTokenData{ID: AnyID{Kind: 77}}},
				}}.ToAPI()
				return err
			},
			wantKind:  UnrecognizedVariant,
			wantField: "data.file_content_upload_token.data.id.kind",
		},
		{
			name: "id value length for kind",
			convert: func() error {
				_, err := UploadToken{Data: UploadTokenData{ID: AnyID{
					Kind:  uint8(edenapi.IDKindContentID),
					Value: make([]byte, 20),
				}}}.ToAPI()
				return err
			},
			wantKind:  InvalidLength,
			wantField: "data.id.value",
		},
		{
			name: "file request spec",
			convert: func() error {
				_, err := FileRequest{Reqs: []FileSpec{{}, {Key: Key{HgID: short}}}}.ToAPI()
				return err
			},
			wantKind:  InvalidLength,
			wantField: "reqs[1].key.hgid",
		},
		{
			name: "entry data without metadata",
			convert: func() error {
				_, err := FileEntry{Data: blobPointer([]byte{1})}.ToAPI()
				return err
			},
			wantKind:  CannotPopulateRequiredField,
			wantField: "content.metadata",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.convert()
			var conversion *ConversionError
			if !errors.As(err, &conversion) {
				t.Fatalf("error = %v, want *ConversionError", err)
			}
			if conversion.Kind != tt.wantKind || conversion.Field != tt.wantField {
				t.Errorf("got %s at %q, want %s at %q", conversion.Kind, conversion.Field, tt.wantKind, tt.wantField)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("error message %q does not name the field", err)
			}
		})
	}
}

func TestLocationToHashResponseEchoesRequest(t *testing.T) {
	request := edenapi.CommitLocationToHashRequest{
		Location: edenapi.CommitLocation{Descendant: hashOf(0xd0), Distance: 2},
		Count:    3,
	}
	response := edenapi.CommitLocationToHashResponse{
		Location: request.Location,
		Count:    request.Count,
		HgIDs:    []edenapi.HgID{hashOf(1), hashOf(2), hashOf(3)},
	}

	encodedRequest := FromCommitLocationToHashRequest(request)
	encodedResponse := FromCommitLocationToHashResponse(response)
	if diff := cmp.Diff(encodedRequest.Location, encodedResponse.Location); diff != "" {
		t.Errorf("response location differs from request (-request +response):\n%s", diff)
	}
	if encodedRequest.Count != encodedResponse.Count {
		t.Errorf("response count %d, request count %d", encodedResponse.Count, encodedRequest.Count)
	}
}

func TestFromDoesNotAlias(t *testing.T) {
	blob := []byte("mutable")
	entry := edenapi.FileEntry{Content: &edenapi.FileContent{HgFileBlob: blob}}
	encoded := FromFileEntry(entry)
	blob[0] = 'M'
	if string(*encoded.Data) != "mutable" {
		t.Errorf("wire value aliases the domain blob: %q", *encoded.Data)
	}
}
