// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/bayarmunkh/sapling/lib/codec"
	"github.com/bayarmunkh/sapling/lib/repo"
	"github.com/bayarmunkh/sapling/lib/resolve"
)

// streamErrorTrailer reports an error that ended a response stream
// after its status line was sent. Clients that see it must treat the
// items they received as incomplete.
const streamErrorTrailer = "X-Sapling-Stream-Error"

// streamResults writes results as a CBOR sequence. The first result is
// pulled before anything is written, so a batch that fails immediately
// gets an error status instead of an empty 200. Later failures end the
// stream and are reported in the trailer.
func streamResults[W any](writer http.ResponseWriter, request *http.Request, call repoCall, results iter.Seq2[W, error]) {
	start := time.Now()
	next, stop := iter.Pull2(results)
	defer stop()

	item, err, ok := next()
	if ok && err != nil {
		status := statusFor(err)
		logFailure(call.logger, status, err)
		writeError(writer, status, err)
		return
	}

	header := writer.Header()
	header.Set("Content-Type", codec.SequenceContentType)
	header.Set("Trailer", streamErrorTrailer)
	header.Add("Vary", "Accept-Encoding")

	var body io.Writer = writer
	var compressor *zstd.Encoder
	if acceptsZstd(request.Header.Get("Accept-Encoding")) {
		header.Set("Content-Encoding", "zstd")
		compressor = acquireZstd(writer)
		defer releaseZstd(compressor, call.logger)
		body = compressor
	}
	writer.WriteHeader(http.StatusOK)

	controller := http.NewResponseController(writer)
	encoder := codec.NewEncoder(body)
	sent := 0
	for ; ok; item, err, ok = next() {
		if err != nil {
			header.Set(streamErrorTrailer, err.Error())
			call.logger.Error("batch failed after partial response",
				"items_sent", sent,
				"error", err,
			)
			return
		}
		if err := encoder.Encode(item); err != nil {
			call.logger.Info("client went away", "items_sent", sent, "error", err)
			return
		}
		sent++
		if compressor != nil {
			if err := compressor.Flush(); err != nil {
				call.logger.Info("client went away", "items_sent", sent, "error", err)
				return
			}
		}
		// Flush errors mean the client is gone; the next write
		// reports it.
		controller.Flush()
	}

	call.logger.Info("batch complete",
		"items", sent,
		"duration", time.Since(start),
	)
}

// statusFor maps an error from the first item of a batch to an HTTP
// status.
func statusFor(err error) int {
	switch {
	case resolve.IsNotFound(err):
		return http.StatusNotFound
	case resolve.IsInvalidInput(err):
		return http.StatusBadRequest
	case errors.Is(err, repo.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func logFailure(logger *slog.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("batch failed", "status", status, "error", err)
		return
	}
	logger.Info("batch rejected", "status", status, "error", err)
}

// acceptsZstd reports whether an Accept-Encoding header value allows
// zstd with a non-zero quality.
func acceptsZstd(acceptEncoding string) bool {
	for _, part := range strings.Split(acceptEncoding, ",") {
		coding, params, _ := strings.Cut(part, ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "zstd") {
			continue
		}
		quality, found := strings.CutPrefix(strings.TrimSpace(params), "q=")
		if !found {
			return true
		}
		value, err := strconv.ParseFloat(quality, 64)
		return err == nil && value > 0
	}
	return false
}

// zstdEncoders pools response compressors. An encoder allocates its
// window buffers on creation, which is too costly per request.
var zstdEncoders = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedFastest),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			panic("zstd encoder initialization failed: " + err.Error())
		}
		return encoder
	},
}

func acquireZstd(writer io.Writer) *zstd.Encoder {
	encoder := zstdEncoders.Get().(*zstd.Encoder)
	encoder.Reset(writer)
	return encoder
}

// releaseZstd finishes the frame and returns the encoder to the pool.
func releaseZstd(encoder *zstd.Encoder, logger *slog.Logger) {
	if err := encoder.Close(); err != nil {
		logger.Debug("closing zstd stream", "error", err)
	}
	zstdEncoders.Put(encoder)
}
