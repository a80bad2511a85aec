//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

// Package shamir splits and recombines a 32-byte master key using
// cloudflare/circl's Shamir secret sharing over the P256 scalar group.
// Each share is serialized as the marshaled share-ID scalar followed by
// the marshaled share-value scalar, base64-encoded for transport — the same
// marshal-then-base64 idiom the teacher uses to carry shards over the
// wire in app/nexus/internal/initialization/recovery/shard.go.
package shamir

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"github.com/cloudflare/circl/group"
	"github.com/cloudflare/circl/secretsharing"
)

// SecretSize is the only secret length salusd ever splits: a 32-byte
// AES-256 master key.
const SecretSize = 32

var curve = group.P256

// ErrInvalidSecretSize is returned when Split is given a secret whose
// length isn't SecretSize.
var ErrInvalidSecretSize = errors.New("shamir: secret must be 32 bytes")

// ErrInvalidShare is returned when a share string can't be decoded.
var ErrInvalidShare = errors.New("shamir: malformed share")

// Split divides secret into n shares, any t+1 of which reconstruct it.
// n and t follow circl's convention: t is the reconstruction threshold
// minus one, so callers asking for "threshold T" pass t = T-1.
func Split(secret []byte, n, t uint8) ([]string, error) {
	if len(secret) != SecretSize {
		return nil, ErrInvalidSecretSize
	}

	s := curve.NewScalar()
	if err := s.UnmarshalBinary(secret); err != nil {
		return nil, err
	}

	ss := secretsharing.New(rand.Reader, uint(t), s)
	shares := ss.Share(uint(n))

	out := make([]string, 0, len(shares))
	for _, sh := range shares {
		tok, err := encodeShare(sh)
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, nil
}

// Combine reconstructs the original secret from shares. If fewer than
// the original threshold of distinct valid shares are supplied, circl's
// Recover either errors or returns the wrong scalar; in the error case
// Combine substitutes cryptographically random bytes of the same
// length, so this function always returns SecretSize bytes and never an
// error — callers decide quorum sufficiency by attempting to use the
// result, not by inspecting Combine's return.
func Combine(shares []string) []byte {
	decoded := make([]secretsharing.Share, 0, len(shares))
	for _, tok := range shares {
		sh, err := decodeShare(tok)
		if err != nil {
			continue
		}
		decoded = append(decoded, sh)
	}

	if len(decoded) == 0 {
		return randomBytes(SecretSize)
	}

	t := uint(len(decoded) - 1)
	secret, err := secretsharing.Recover(t, decoded)
	if err != nil || secret == nil {
		return randomBytes(SecretSize)
	}

	out, err := secret.MarshalBinary()
	if err != nil {
		return randomBytes(SecretSize)
	}
	return out
}

// scalarLen is the marshaled byte length of a group.P256 scalar. Both the
// share ID and share value are scalars of this fixed length, so a share
// token is simply their concatenation — no separate length prefix needed.
var scalarLen = func() int {
	b, _ := curve.NewScalar().MarshalBinary()
	return len(b)
}()

func encodeShare(sh secretsharing.Share) (string, error) {
	id, err := sh.ID.MarshalBinary()
	if err != nil {
		return "", err
	}
	val, err := sh.Value.MarshalBinary()
	if err != nil {
		return "", err
	}

	buf := make([]byte, 0, len(id)+len(val))
	buf = append(buf, id...)
	buf = append(buf, val...)
	return base64.StdEncoding.EncodeToString(buf), nil
}

func decodeShare(tok string) (secretsharing.Share, error) {
	raw, err := base64.StdEncoding.DecodeString(tok)
	if err != nil || len(raw) != 2*scalarLen {
		return secretsharing.Share{}, ErrInvalidShare
	}

	id := curve.NewScalar()
	if err := id.UnmarshalBinary(raw[:scalarLen]); err != nil {
		return secretsharing.Share{}, ErrInvalidShare
	}
	val := curve.NewScalar()
	if err := val.UnmarshalBinary(raw[scalarLen:]); err != nil {
		return secretsharing.Share{}, ErrInvalidShare
	}

	return secretsharing.Share{ID: id, Value: val}, nil
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}
