// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/bayarmunkh/sapling/lib/codec"
	"github.com/bayarmunkh/sapling/lib/edenapi"
	"github.com/bayarmunkh/sapling/lib/edenapi/wire"
	"github.com/bayarmunkh/sapling/lib/version"
)

// streamErrorTrailer carries the error that ended a streamed response
// after some items were already sent.
const streamErrorTrailer = "X-Sapling-Stream-Error"

// maxErrorBody bounds how much of a non-200 response body is read into
// the returned error.
const maxErrorBody = 4096

// StatusError is a non-200 response from the service.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// StreamError is an error the service reported in the response
// trailer after streaming part of a batch.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "stream ended early: " + e.Message
}

// client talks to one repository on an EdenAPI service.
type client struct {
	baseURL    string
	repo       string
	httpClient *http.Client

	// compress requests zstd response compression.
	compress bool
}

func (c *client) endpoint(path string, query url.Values) string {
	endpoint := strings.TrimRight(c.baseURL, "/") + "/" + url.PathEscape(c.repo) + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint
}

// do sends a request and returns the response if the status is 200.
// Any other status is returned as a *StatusError with the body text.
func (c *client) do(ctx context.Context, method, endpoint, contentType string, body []byte) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", contentType)
	request.Header.Set("User-Agent", version.UserAgent("sapling-edenapi"))
	if c.compress {
		request.Header.Set("Accept-Encoding", "zstd")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	if response.StatusCode != http.StatusOK {
		defer response.Body.Close()
		message, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
		return nil, &StatusError{Code: response.StatusCode, Message: strings.TrimSpace(string(message))}
	}
	return response, nil
}

// responseBody returns a reader over the decoded response body. The
// returned close function releases any decompressor; the caller still
// closes response.Body.
func responseBody(response *http.Response) (io.Reader, func(), error) {
	switch encoding := response.Header.Get("Content-Encoding"); encoding {
	case "":
		return response.Body, func() {}, nil
	case "zstd":
		decoder, err := zstd.NewReader(response.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd response: %w", err)
		}
		return decoder, decoder.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported response encoding %q", encoding)
	}
}

// fetch posts body to path and yields each item of the CBOR sequence
// response as it arrives. A stream cut short by the service yields a
// final *StreamError.
func fetch[W any](ctx context.Context, c *client, path, contentType string, body []byte) iter.Seq2[W, error] {
	return func(yield func(W, error) bool) {
		var zero W
		response, err := c.do(ctx, http.MethodPost, c.endpoint(path, nil), contentType, body)
		if err != nil {
			yield(zero, err)
			return
		}
		defer response.Body.Close()

		reader, release, err := responseBody(response)
		if err != nil {
			yield(zero, err)
			return
		}
		defer release()

		decoder := codec.NewDecoder(reader)
		for count := 0; ; count++ {
			var item W
			err := decoder.Decode(&item)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				yield(zero, fmt.Errorf("decoding response item %d: %w", count, err))
				return
			}
			if !yield(item, nil) {
				return
			}
		}

		// Trailers are only populated once the body is fully read.
		io.Copy(io.Discard, response.Body)
		if message := response.Trailer.Get(streamErrorTrailer); message != "" {
			yield(zero, &StreamError{Message: message})
		}
	}
}

// fetchAPI is fetch with each item converted to its domain form.
func fetchAPI[A any, W wire.Converter[A]](ctx context.Context, c *client, path string, request any) iter.Seq2[A, error] {
	return func(yield func(A, error) bool) {
		var zero A
		body, err := codec.Marshal(request)
		if err != nil {
			yield(zero, fmt.Errorf("encoding request: %w", err))
			return
		}
		for item, err := range fetch[W](ctx, c, path, codec.ContentType, body) {
			if err != nil {
				yield(zero, err)
				return
			}
			converted, err := item.ToAPI()
			if err != nil {
				yield(zero, fmt.Errorf("invalid response item: %w", err))
				return
			}
			if !yield(converted, nil) {
				return
			}
		}
	}
}

func (c *client) locationToHash(ctx context.Context, requests []edenapi.CommitLocationToHashRequest) iter.Seq2[edenapi.CommitLocationToHashResponse, error] {
	batch := wire.FromCommitLocationToHashRequestBatch(edenapi.CommitLocationToHashRequestBatch{Requests: requests})
	return fetchAPI[edenapi.CommitLocationToHashResponse, wire.CommitLocationToHashResponse](ctx, c, "/commit/location_to_hash", batch)
}

func (c *client) revlogData(ctx context.Context, ids []edenapi.HgID) iter.Seq2[edenapi.CommitRevlogData, error] {
	request := wire.FromCommitRevlogDataRequest(edenapi.CommitRevlogDataRequest{HgIDs: ids})
	return fetchAPI[edenapi.CommitRevlogData, wire.CommitRevlogData](ctx, c, "/commit/revlog_data", request)
}

func (c *client) files(ctx context.Context, request edenapi.FileRequest) iter.Seq2[edenapi.FileEntry, error] {
	return fetchAPI[edenapi.FileEntry, wire.FileEntry](ctx, c, "/files", wire.FromFileRequest(request))
}

// uploadContent stores data in the repository's content store and
// returns the token proving the upload.
func (c *client) uploadContent(ctx context.Context, data []byte, bubbleID uint64) (edenapi.UploadToken, error) {
	query := url.Values{}
	if bubbleID != 0 {
		query.Set("bubble_id", strconv.FormatUint(bubbleID, 10))
	}
	response, err := c.do(ctx, http.MethodPut, c.endpoint("/upload/file", query), "application/octet-stream", data)
	if err != nil {
		return edenapi.UploadToken{}, err
	}
	defer response.Body.Close()

	reader, release, err := responseBody(response)
	if err != nil {
		return edenapi.UploadToken{}, err
	}
	defer release()
	body, err := io.ReadAll(reader)
	if err != nil {
		return edenapi.UploadToken{}, fmt.Errorf("reading upload response: %w", err)
	}

	var token wire.UploadToken
	if err := codec.Unmarshal(body, &token); err != nil {
		return edenapi.UploadToken{}, fmt.Errorf("decoding upload token: %w", err)
	}
	return token.ToAPI()
}

// uploadFilenodes sends the filenode records as one CBOR sequence.
func (c *client) uploadFilenodes(ctx context.Context, requests []edenapi.UploadHgFilenodeRequest) iter.Seq2[edenapi.UploadHgFilenodeResponse, error] {
	return func(yield func(edenapi.UploadHgFilenodeResponse, error) bool) {
		var body bytes.Buffer
		encoder := codec.NewEncoder(&body)
		for _, request := range requests {
			if err := encoder.Encode(wire.FromUploadHgFilenodeRequest(request)); err != nil {
				yield(edenapi.UploadHgFilenodeResponse{}, fmt.Errorf("encoding filenode: %w", err))
				return
			}
		}
		for item, err := range fetch[wire.UploadHgFilenodeResponse](ctx, c, "/upload/filenodes", codec.SequenceContentType, body.Bytes()) {
			if err != nil {
				yield(edenapi.UploadHgFilenodeResponse{}, err)
				return
			}
			converted, err := item.ToAPI()
			if !yield(converted, err) || err != nil {
				return
			}
		}
	}
}
