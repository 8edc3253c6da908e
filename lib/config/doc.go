// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the EdenAPI
// service.
//
// Configuration is loaded from a single file specified by either the
// SAPLING_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks and no automatic file
// search.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production additionally requires a
// persistent upload-token secret.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${SAPLING_ROOT}, and ${VAR:-default} patterns are expanded,
// and relative repository paths are resolved against storage.root.
// No other environment variables override config values.
//
// A minimal file:
//
//	environment: development
//	server:
//	  listen: 127.0.0.1:8040
//	storage:
//	  root: ${HOME}/sapling
//	repos:
//	  - name: fbsource
//	    backend: sqlite
//	    path: fbsource.db
//
// This package depends on no other packages of this module.
package config
