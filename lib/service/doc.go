// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the process scaffolding shared by Sapling
// server binaries.
//
//   - [HTTPServer] binds a TCP listener, signals readiness, and drains
//     in-flight requests on shutdown. Responses may stream without a
//     write deadline, which batch endpoints rely on.
//   - [NewLogger] builds the standard JSON slog logger and installs it
//     as the default.
//
// Binaries compose these in their own main() rather than through a
// framework. The package provides building blocks, not a runtime.
package service
