// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package stream runs a batch of independent lookups with bounded
// concurrency and delivers their results as they complete.
//
// [BufferUnordered] is the core: it pulls tasks lazily from an
// iterator, keeps at most a fixed number of them running, and yields
// each result in completion order (not submission order). Batch
// responses are self-describing, so clients correlate them without
// relying on position. The first failing task ends the stream: results
// already delivered stand, no further tasks are started, the tasks
// still running are cancelled, and the failure is the last thing the
// consumer sees.
//
// Stopping iteration early (break, or a dropped HTTP connection that
// cancels the parent context) cancels every outstanding task and
// waits for it to return before the range loop exits, so no goroutine
// outlives the stream.
//
//	results := stream.BufferUnordered(ctx, tasks, stream.DefaultLimit)
//	for item, err := range stream.Encode(results, wire.FromCommitRevlogData) {
//	    if err != nil {
//	        return err
//	    }
//	    encoder.Encode(item)
//	}
package stream
