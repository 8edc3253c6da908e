// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package uploadtoken mints and verifies upload tokens: server-signed
// references to content or filenodes a client has already uploaded, so
// later requests can point at those bytes instead of resending them.
//
// A token's signature is a BLAKE3 keyed hash, under a key derived from
// the server's secret, of the deterministic CBOR encoding of the
// token's data (its tagged identifier and bubble ID). Verification
// recomputes the hash and compares in constant time. Tokens carry no
// expiry; rotating the secret invalidates every outstanding token.
//
//	signer, err := uploadtoken.LoadSigner("/etc/sapling/upload-token.key")
//	token, err := signer.Mint(edenapi.UploadTokenData{ID: edenapi.HgFilenodeAnyID(node)})
//	err = signer.Verify(token)
package uploadtoken
