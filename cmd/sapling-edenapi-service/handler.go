// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/bayarmunkh/sapling/lib/codec"
	"github.com/bayarmunkh/sapling/lib/edenapi"
	"github.com/bayarmunkh/sapling/lib/edenapi/wire"
	"github.com/bayarmunkh/sapling/lib/repo"
	"github.com/bayarmunkh/sapling/lib/resolve"
	"github.com/bayarmunkh/sapling/lib/stream"
	"github.com/bayarmunkh/sapling/lib/uploadtoken"
)

const (
	// requestIDHeader carries the request ID in both directions. A
	// client-supplied UUID is kept so logs on both sides correlate.
	requestIDHeader = "X-Request-Id"

	healthCheckBody = "I_AM_ALIVE"

	// defaultMaxRequestBytes applies when serverConfig leaves
	// MaxRequestBytes zero.
	defaultMaxRequestBytes = 64 << 20
)

type serverConfig struct {
	Registry *repo.Registry
	Signer   *uploadtoken.Signer

	// Limit is the number of items of one batch resolved at once.
	// Zero means stream.DefaultLimit.
	Limit int

	MaxRequestBytes int64
	Logger          *slog.Logger
}

// server holds the state shared by every request. Per-request state
// (the acquired repository and a request-scoped logger) travels in a
// repoCall.
type server struct {
	registry        *repo.Registry
	signer          *uploadtoken.Signer
	limit           int
	maxRequestBytes int64
	logger          *slog.Logger
}

func newServer(cfg serverConfig) *server {
	maxRequestBytes := cfg.MaxRequestBytes
	if maxRequestBytes == 0 {
		maxRequestBytes = defaultMaxRequestBytes
	}
	return &server{
		registry:        cfg.Registry,
		signer:          cfg.Signer,
		limit:           cfg.Limit,
		maxRequestBytes: maxRequestBytes,
		logger:          cfg.Logger,
	}
}

// repoCall is the per-request context of a repository endpoint.
type repoCall struct {
	repo   repo.Context
	logger *slog.Logger
}

type repoHandler func(writer http.ResponseWriter, request *http.Request, call repoCall)

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health_check", s.handleHealthCheck)
	mux.HandleFunc("GET /repos", s.handleRepos)
	mux.HandleFunc("POST /{repo}/commit/location_to_hash", s.withRepo("commit_location_to_hash", s.handleLocationToHash))
	mux.HandleFunc("POST /{repo}/commit/revlog_data", s.withRepo("commit_revlog_data", s.handleRevlogData))
	mux.HandleFunc("POST /{repo}/files", s.withRepo("files", s.handleFiles))
	mux.HandleFunc("PUT /{repo}/upload/file", s.withRepo("upload_file", s.handleUploadFile))
	mux.HandleFunc("POST /{repo}/upload/filenodes", s.withRepo("upload_filenodes", s.handleUploadFilenodes))
	return s.withRequestID(mux)
}

type requestIDKey struct{}

// withRequestID assigns every request an ID, echoes it in the response
// headers, and makes it available to handlers through the context.
func (s *server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		id := request.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		writer.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(request.Context(), requestIDKey{}, id)
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withRepo acquires the repository named in the path for the duration
// of the handler, including the whole response stream.
func (s *server) withRepo(method string, handler repoHandler) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		name := request.PathValue("repo")
		logger := s.logger.With(
			"request_id", requestID(request.Context()),
			"repo", name,
			"method", method,
		)

		rc, release, err := s.registry.Acquire(request.Context(), name)
		if err != nil {
			switch {
			case errors.Is(err, repo.ErrUnknownRepo):
				writeError(writer, http.StatusNotFound, err)
			case errors.Is(err, repo.ErrClosed):
				writeError(writer, http.StatusServiceUnavailable, err)
			default:
				logger.Error("acquiring repository failed", "error", err)
				writeError(writer, http.StatusInternalServerError, err)
			}
			return
		}
		defer release()

		handler(writer, request, repoCall{repo: rc, logger: logger})
	}
}

func (s *server) handleHealthCheck(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(writer, healthCheckBody)
}

// handleRepos returns the configured repository names as a CBOR array.
func (s *server) handleRepos(writer http.ResponseWriter, request *http.Request) {
	data, err := codec.Marshal(s.registry.Names())
	if err != nil {
		writeError(writer, http.StatusInternalServerError, err)
		return
	}
	writer.Header().Set("Content-Type", codec.ContentType)
	writer.Write(data)
}

func (s *server) handleLocationToHash(writer http.ResponseWriter, request *http.Request, call repoCall) {
	batch, ok := decodeRequest[edenapi.CommitLocationToHashRequestBatch, wire.CommitLocationToHashRequestBatch](s, writer, request)
	if !ok {
		return
	}
	results := stream.BufferUnordered(request.Context(), resolve.LocationToHashTasks(call.repo, batch.Requests), s.limit)
	streamResults(writer, request, call, stream.Encode(results, wire.FromCommitLocationToHashResponse))
}

func (s *server) handleRevlogData(writer http.ResponseWriter, request *http.Request, call repoCall) {
	revlogRequest, ok := decodeRequest[edenapi.CommitRevlogDataRequest, wire.CommitRevlogDataRequest](s, writer, request)
	if !ok {
		return
	}
	results := stream.BufferUnordered(request.Context(), resolve.RevlogDataTasks(call.repo, revlogRequest.HgIDs), s.limit)
	streamResults(writer, request, call, stream.Encode(results, wire.FromCommitRevlogData))
}

func (s *server) handleFiles(writer http.ResponseWriter, request *http.Request, call repoCall) {
	fileRequest, ok := decodeRequest[edenapi.FileRequest, wire.FileRequest](s, writer, request)
	if !ok {
		return
	}
	results := stream.BufferUnordered(request.Context(), resolve.FileTasks(call.repo, fileRequest.Specs()), s.limit)
	streamResults(writer, request, call, stream.Encode(results, wire.FromFileEntry))
}

// handleUploadFile stores the raw request body as file content and
// returns a signed content token for use in a later filenode upload.
// The optional bubble_id query parameter scopes the token.
func (s *server) handleUploadFile(writer http.ResponseWriter, request *http.Request, call repoCall) {
	store, ok := call.repo.(repo.Store)
	if !ok {
		writeError(writer, http.StatusMethodNotAllowed, fmt.Errorf("repository %s does not accept uploads", call.repo.Name()))
		return
	}

	var bubbleID uint64
	if raw := request.URL.Query().Get("bubble_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(writer, http.StatusBadRequest, fmt.Errorf("invalid bubble_id %q", raw))
			return
		}
		bubbleID = parsed
	}

	content, ok := s.readBody(writer, request)
	if !ok {
		return
	}
	contentID, err := store.StoreContent(request.Context(), content)
	if err != nil {
		call.logger.Error("storing uploaded content failed", "error", err)
		writeError(writer, http.StatusInternalServerError, err)
		return
	}
	token, err := s.signer.Mint(edenapi.UploadTokenData{ID: contentID.AnyID(), BubbleID: bubbleID})
	if err != nil {
		writeError(writer, http.StatusInternalServerError, err)
		return
	}
	data, err := codec.Marshal(wire.FromUploadToken(token))
	if err != nil {
		writeError(writer, http.StatusInternalServerError, err)
		return
	}

	call.logger.Info("content uploaded", "content_id", contentID.String(), "size", len(content))
	writer.Header().Set("Content-Type", codec.ContentType)
	writer.Write(data)
}

// handleUploadFilenodes takes a CBOR sequence of filenode upload
// requests. Each response carries the index of its request in the
// sequence.
func (s *server) handleUploadFilenodes(writer http.ResponseWriter, request *http.Request, call repoCall) {
	body, ok := s.readBody(writer, request)
	if !ok {
		return
	}
	items, err := codec.DecodeSequence[wire.UploadHgFilenodeRequest](bytes.NewReader(body))
	if err != nil {
		writeError(writer, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	uploads, err := wire.SliceToAPI[edenapi.UploadHgFilenodeRequest](items)
	if err != nil {
		writeError(writer, http.StatusBadRequest, err)
		return
	}
	results := stream.BufferUnordered(request.Context(), resolve.UploadFilenodeTasks(call.repo, s.signer, uploads), s.limit)
	streamResults(writer, request, call, stream.Encode(results, wire.FromUploadHgFilenodeResponse))
}

// readBody reads the whole request body, enforcing maxRequestBytes.
// On failure the error response has been written.
func (s *server) readBody(writer http.ResponseWriter, request *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(writer, request.Body, s.maxRequestBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(writer, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		writeError(writer, http.StatusBadRequest, fmt.Errorf("reading request body: %w", err))
		return nil, false
	}
	return body, true
}

// decodeRequest reads a single CBOR item from the request body and
// converts it to its domain form. Every conversion failure is a 400,
// reported before any item is resolved.
func decodeRequest[A any, W wire.Converter[A]](s *server, writer http.ResponseWriter, request *http.Request) (A, bool) {
	var zero A
	body, ok := s.readBody(writer, request)
	if !ok {
		return zero, false
	}
	var wireValue W
	if err := codec.Unmarshal(body, &wireValue); err != nil {
		writeError(writer, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return zero, false
	}
	value, err := wireValue.ToAPI()
	if err != nil {
		writeError(writer, http.StatusBadRequest, err)
		return zero, false
	}
	return value, true
}

func writeError(writer http.ResponseWriter, status int, err error) {
	http.Error(writer, err.Error(), status)
}
