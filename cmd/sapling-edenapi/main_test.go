// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zstd"

	"github.com/bayarmunkh/sapling/lib/codec"
	"github.com/bayarmunkh/sapling/lib/edenapi"
	"github.com/bayarmunkh/sapling/lib/edenapi/wire"
)

var (
	hashA = edenapi.MustParseHgID(strings.Repeat("aa", 20))
	hashB = edenapi.MustParseHgID(strings.Repeat("bb", 20))
	hashC = edenapi.MustParseHgID(strings.Repeat("cc", 20))
)

// runCLI executes the command tree with args and returns stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(strings.NewReader(stdin), &stdout, &stderr)
	err := a.root(context.Background()).execute(args, &stderr)
	return stdout.String(), err
}

// writeSequence answers with items as a CBOR sequence, zstd-compressed
// when the client asked for it. A non-empty streamErr is sent in the
// trailer after the items.
func writeSequence(t *testing.T, writer http.ResponseWriter, request *http.Request, items []any, streamErr string) {
	t.Helper()
	header := writer.Header()
	header.Set("Content-Type", codec.SequenceContentType)
	header.Set("Trailer", streamErrorTrailer)

	var out io.Writer = writer
	var compressor *zstd.Encoder
	if request.Header.Get("Accept-Encoding") == "zstd" {
		header.Set("Content-Encoding", "zstd")
		var err error
		compressor, err = zstd.NewWriter(writer)
		if err != nil {
			t.Errorf("zstd.NewWriter: %v", err)
			return
		}
		out = compressor
	}
	writer.WriteHeader(http.StatusOK)

	encoder := codec.NewEncoder(out)
	for _, item := range items {
		if err := encoder.Encode(item); err != nil {
			t.Errorf("Encode: %v", err)
		}
	}
	if compressor != nil {
		compressor.Close()
	}
	if streamErr != "" {
		header.Set(streamErrorTrailer, streamErr)
	}
}

func decodeBody[W any](t *testing.T, request *http.Request) W {
	t.Helper()
	var value W
	body, err := io.ReadAll(request.Body)
	if err != nil {
		t.Errorf("reading request: %v", err)
		return value
	}
	if err := codec.Unmarshal(body, &value); err != nil {
		t.Errorf("decoding request: %v", err)
	}
	return value
}

func TestLocationToHash(t *testing.T) {
	var (
		mu         sync.Mutex
		gotRequest edenapi.CommitLocationToHashRequestBatch
	)
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost || request.URL.Path != "/fbsource/commit/location_to_hash" {
			t.Errorf("request = %s %s", request.Method, request.URL.Path)
		}
		if agent := request.Header.Get("User-Agent"); !strings.HasPrefix(agent, "sapling-edenapi/") {
			t.Errorf("User-Agent = %q", agent)
		}
		batch, err := decodeBody[wire.CommitLocationToHashRequestBatch](t, request).ToAPI()
		if err != nil {
			t.Errorf("ToAPI: %v", err)
		}
		mu.Lock()
		gotRequest = batch
		mu.Unlock()

		// Completion order, not request order.
		writeSequence(t, writer, request, []any{
			wire.FromCommitLocationToHashResponse(edenapi.CommitLocationToHashResponse{
				Location: edenapi.CommitLocation{Descendant: hashB},
				Count:    2,
				HgIDs:    []edenapi.HgID{hashB, hashC},
			}),
			wire.FromCommitLocationToHashResponse(edenapi.CommitLocationToHashResponse{
				Location: edenapi.CommitLocation{Descendant: hashA, Distance: 3},
				Count:    2,
				HgIDs:    []edenapi.HgID{hashC, hashB},
			}),
		}, "")
	}))
	defer server.Close()

	stdout, err := runCLI(t, "", "location-to-hash", "--url", server.URL, "-R", "fbsource", "--count", "2",
		hashA.String()+"~3", hashB.String())
	if err != nil {
		t.Fatalf("location-to-hash: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	wantRequest := edenapi.CommitLocationToHashRequestBatch{Requests: []edenapi.CommitLocationToHashRequest{
		{Location: edenapi.CommitLocation{Descendant: hashA, Distance: 3}, Count: 2},
		{Location: edenapi.CommitLocation{Descendant: hashB}, Count: 2},
	}}
	if diff := cmp.Diff(wantRequest, gotRequest); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
	want := hashB.String() + "~0\t" + hashB.String() + " " + hashC.String() + "\n" +
		hashA.String() + "~3\t" + hashC.String() + " " + hashB.String() + "\n"
	if diff := cmp.Diff(want, stdout); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRevlogDataStreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if encoding := request.Header.Get("Accept-Encoding"); encoding != "" {
			t.Errorf("Accept-Encoding = %q with --no-compress", encoding)
		}
		writeSequence(t, writer, request, []any{
			wire.FromCommitRevlogData(edenapi.CommitRevlogData{HgID: hashA, RevlogData: []byte("revlog a")}),
		}, "HgId not found: "+hashB.String())
	}))
	defer server.Close()

	stdout, err := runCLI(t, "", "revlog-data", "--url", server.URL, "-R", "fbsource", "--no-compress",
		hashA.String(), hashB.String())
	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("error = %v, want *StreamError", err)
	}
	if streamErr.Message != "HgId not found: "+hashB.String() {
		t.Errorf("trailer message = %q", streamErr.Message)
	}
	if want := hashA.String() + "\t8 bytes\n"; stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestRevlogDataRaw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeSequence(t, writer, request, []any{
			wire.FromCommitRevlogData(edenapi.CommitRevlogData{HgID: hashA, RevlogData: []byte("tree 0\n")}),
		}, "")
	}))
	defer server.Close()

	stdout, err := runCLI(t, "", "revlog-data", "--url", server.URL, "-R", "fbsource", "--raw", hashA.String())
	if err != nil {
		t.Fatalf("revlog-data: %v", err)
	}
	if stdout != "tree 0\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		http.Error(writer, "HgId not found: "+hashA.String(), http.StatusNotFound)
	}))
	defer server.Close()

	_, err := runCLI(t, "", "revlog-data", "--url", server.URL, "-R", "fbsource", hashA.String())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.Code != http.StatusNotFound || statusErr.Message != "HgId not found: "+hashA.String() {
		t.Errorf("status error = %+v", statusErr)
	}
}

func TestFiles(t *testing.T) {
	size := uint64(6)
	entry := edenapi.FileEntry{
		Key:     edenapi.Key{Path: "dir/a@b.txt", HgID: hashA},
		Content: &edenapi.FileContent{HgFileBlob: []byte("hello\n"), Metadata: edenapi.RevisionstoreMetadata{Size: &size}},
		Parents: edenapi.Parents{P1: hashB},
	}
	var (
		mu         sync.Mutex
		gotRequest edenapi.FileRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/fbsource/files" {
			t.Errorf("path = %s", request.URL.Path)
		}
		fileRequest, err := decodeBody[wire.FileRequest](t, request).ToAPI()
		if err != nil {
			t.Errorf("ToAPI: %v", err)
		}
		mu.Lock()
		gotRequest = fileRequest
		mu.Unlock()
		writeSequence(t, writer, request, []any{wire.FromFileEntry(entry)}, "")
	}))
	defer server.Close()

	key := "dir/a@b.txt@" + hashA.String()
	stdout, err := runCLI(t, "", "files", "--url", server.URL, "-R", "fbsource", key)
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	mu.Lock()
	wantRequest := edenapi.FileRequest{Reqs: []edenapi.FileSpec{{
		Key:   entry.Key,
		Attrs: edenapi.FileAttributes{Content: true},
	}}}
	if diff := cmp.Diff(wantRequest, gotRequest); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
	mu.Unlock()
	want := hashA.String() + "\tdir/a@b.txt\tp1=" + hashB.String() + " p2=" + edenapi.NullID.String() + " size=6\n"
	if diff := cmp.Diff(want, stdout); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	stdout, err = runCLI(t, "", "files", "--url", server.URL, "-R", "fbsource", "--cat", key)
	if err != nil {
		t.Fatalf("files --cat: %v", err)
	}
	if stdout != "hello\n" {
		t.Errorf("--cat stdout = %q", stdout)
	}
}

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	contents := map[string][]byte{"a.txt": []byte("alpha\n"), "b.txt": []byte("beta\n")}
	var paths []string
	for _, name := range []string{"a.txt", "b.txt"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, contents[name], 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}
	parents := edenapi.Parents{P1: hashC}

	var (
		mu       sync.Mutex
		uploaded [][]byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch {
		case request.Method == http.MethodPut && request.URL.Path == "/fbsource/upload/file":
			if bubble := request.URL.Query().Get("bubble_id"); bubble != "7" {
				t.Errorf("bubble_id = %q, want 7", bubble)
			}
			body, _ := io.ReadAll(request.Body)
			mu.Lock()
			uploaded = append(uploaded, body)
			sequence := len(uploaded)
			mu.Unlock()
			token := edenapi.UploadToken{
				Data:      edenapi.UploadTokenData{ID: edenapi.ContentID([32]byte{byte(sequence)}), BubbleID: 7},
				Signature: []byte("signature"),
			}
			data, err := codec.Marshal(wire.FromUploadToken(token))
			if err != nil {
				t.Errorf("Marshal: %v", err)
			}
			writer.Header().Set("Content-Type", codec.ContentType)
			writer.Write(data)

		case request.Method == http.MethodPost && request.URL.Path == "/fbsource/upload/filenodes":
			if contentType := request.Header.Get("Content-Type"); contentType != codec.SequenceContentType {
				t.Errorf("Content-Type = %q", contentType)
			}
			items, err := codec.DecodeSequence[wire.UploadHgFilenodeRequest](request.Body)
			if err != nil {
				t.Errorf("DecodeSequence: %v", err)
			}
			requests, err := wire.SliceToAPI[edenapi.UploadHgFilenodeRequest](items)
			if err != nil {
				t.Errorf("SliceToAPI: %v", err)
			}
			var responses []any
			for index := len(requests) - 1; index >= 0; index-- {
				data := requests[index].Data
				if data.Parents != parents {
					t.Errorf("filenode %d parents = %+v", index, data.Parents)
				}
				if data.FileContentUploadToken.Data.ID.Value[0] != byte(index+1) {
					t.Errorf("filenode %d carries the token of another upload", index)
				}
				responses = append(responses, wire.FromUploadHgFilenodeResponse(edenapi.UploadHgFilenodeResponse{
					Index: index,
					Token: edenapi.UploadToken{
						Data:      edenapi.UploadTokenData{ID: edenapi.HgFilenodeAnyID(data.NodeID)},
						Signature: []byte("signature"),
					},
				}))
			}
			writeSequence(t, writer, request, responses, "")

		default:
			t.Errorf("unexpected request %s %s", request.Method, request.URL.Path)
			http.NotFound(writer, request)
		}
	}))
	defer server.Close()

	stdout, err := runCLI(t, "", "upload", "--url", server.URL, "-R", "fbsource",
		"--p1", hashC.String(), "--bubble", "7", paths[0], paths[1])
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	mu.Lock()
	if diff := cmp.Diff([][]byte{contents["a.txt"], contents["b.txt"]}, uploaded); diff != "" {
		t.Errorf("uploaded content mismatch (-want +got):\n%s", diff)
	}
	mu.Unlock()
	want := edenapi.FilenodeID(parents, contents["a.txt"]).String() + "\t" + paths[0] + "\n" +
		edenapi.FilenodeID(parents, contents["b.txt"]).String() + "\t" + paths[1] + "\n"
	if diff := cmp.Diff(want, stdout); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRepoRequired(t *testing.T) {
	t.Setenv("SAPLING_REPO", "")
	_, err := runCLI(t, "", "revlog-data", "--url", "http://127.0.0.1:1", hashA.String())
	if err == nil || !strings.Contains(err.Error(), "--repo is required") {
		t.Errorf("error = %v, want --repo is required", err)
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		arg     string
		want    edenapi.CommitLocation
		wantErr bool
	}{
		{arg: hashA.String(), want: edenapi.CommitLocation{Descendant: hashA}},
		{arg: hashA.String() + "~12", want: edenapi.CommitLocation{Descendant: hashA, Distance: 12}},
		{arg: hashA.String() + "~", wantErr: true},
		{arg: hashA.String() + "~-1", wantErr: true},
		{arg: "abc", wantErr: true},
	}
	for _, test := range tests {
		got, err := parseLocation(test.arg)
		if test.wantErr {
			if err == nil {
				t.Errorf("parseLocation(%q) succeeded", test.arg)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseLocation(%q): %v", test.arg, err)
			continue
		}
		if got != test.want {
			t.Errorf("parseLocation(%q) = %+v, want %+v", test.arg, got, test.want)
		}
	}
}

func TestParseKey(t *testing.T) {
	got, err := parseKey("a@b/c.txt@" + hashB.String())
	if err != nil {
		t.Fatalf("parseKey: %v", err)
	}
	if want := (edenapi.Key{Path: "a@b/c.txt", HgID: hashB}); got != want {
		t.Errorf("parseKey = %+v, want %+v", got, want)
	}
	for _, arg := range []string{"no-hash", "@" + hashB.String(), "path@short"} {
		if _, err := parseKey(arg); err == nil {
			t.Errorf("parseKey(%q) succeeded", arg)
		}
	}
}

func TestParseParents(t *testing.T) {
	// A lone second parent moves to the first slot.
	got, err := parseParents("", hashB.String())
	if err != nil {
		t.Fatalf("parseParents: %v", err)
	}
	if want := (edenapi.Parents{P1: hashB}); got != want {
		t.Errorf("parseParents = %+v, want %+v", got, want)
	}
	if _, err := parseParents("zz", ""); err == nil {
		t.Error("parseParents accepted a malformed hash")
	}
}
