// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package uploadtoken

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"
	"os"

	"github.com/zeebo/blake3"

	"github.com/bayarmunkh/sapling/lib/codec"
	"github.com/bayarmunkh/sapling/lib/edenapi"
	"github.com/bayarmunkh/sapling/lib/edenapi/wire"
)

// keyContext is the BLAKE3 key-derivation context for signing keys.
// Changing it invalidates every issued token.
const keyContext = "sapling edenapi 2026 upload token signing key v1"

// MinSecretLength is the shortest secret NewSigner accepts.
const MinSecretLength = 16

var (
	// ErrInvalidSignature reports a token whose signature does not
	// match its data.
	ErrInvalidSignature = errors.New("upload token: invalid signature")

	// ErrUnsigned reports a token with no signature at all.
	ErrUnsigned = errors.New("upload token: missing signature")
)

// Signer mints and verifies upload tokens under one secret. It is safe
// for concurrent use.
type Signer struct {
	key [32]byte
}

// NewSigner derives a signing key from secret. The secret must be at
// least MinSecretLength bytes.
func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("upload token secret is %d bytes, need at least %d", len(secret), MinSecretLength)
	}
	signer := &Signer{}
	blake3.DeriveKey(keyContext, secret, signer.key[:])
	return signer, nil
}

// LoadSigner reads a secret from path and calls NewSigner. Surrounding
// whitespace (a trailing newline from an editor or `openssl rand -hex`)
// is ignored.
func LoadSigner(path string) (*Signer, error) {
	secret, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading upload token secret: %w", err)
	}
	signer, err := NewSigner(bytes.TrimSpace(secret))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return signer, nil
}

// Mint signs data and returns the complete token.
func (s *Signer) Mint(data edenapi.UploadTokenData) (edenapi.UploadToken, error) {
	signature, err := s.sign(data)
	if err != nil {
		return edenapi.UploadToken{}, err
	}
	return edenapi.UploadToken{Data: data, Signature: signature}, nil
}

// Verify checks that token was minted by a signer with the same
// secret and has not been altered.
func (s *Signer) Verify(token edenapi.UploadToken) error {
	if len(token.Signature) == 0 {
		return ErrUnsigned
	}
	expected, err := s.sign(token.Data)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(expected, token.Signature) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// sign computes the keyed hash of the canonical encoding of data.
func (s *Signer) sign(data edenapi.UploadTokenData) ([]byte, error) {
	encoded, err := codec.Marshal(wire.FromUploadTokenData(data))
	if err != nil {
		return nil, fmt.Errorf("encoding upload token data: %w", err)
	}
	hasher, err := blake3.NewKeyed(s.key[:])
	if err != nil {
		panic("uploadtoken: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(encoded)
	return hasher.Sum(nil), nil
}
