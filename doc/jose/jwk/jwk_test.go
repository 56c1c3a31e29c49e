/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwk

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("test parse OKP key", func(t *testing.T) {
		key, err := Parse([]byte(`{"kty":"OKP","crv":"Ed25519","x":"O2onvM62pC1io6jQKm8Nc2UyFXcd4kOmOsBIoYtZ2ik"}`))
		require.NoError(t, err)
		require.Equal(t, "OKP", key.Kty)

		raw, err := key.ED25519PublicKeyBytes()
		require.NoError(t, err)
		require.Len(t, raw, ed25519.PublicKeySize)
	})

	t.Run("test parse missing kty", func(t *testing.T) {
		_, err := Parse([]byte(`{"crv":"Ed25519"}`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "missing kty")
	})

	t.Run("test parse malformed json", func(t *testing.T) {
		_, err := Parse([]byte(`{`))
		require.Error(t, err)
	})
}

func TestFromPublicKey(t *testing.T) {
	t.Run("test ed25519 round trip", func(t *testing.T) {
		pub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		key, err := FromPublicKey(pub)
		require.NoError(t, err)
		require.Equal(t, "OKP", key.Kty)
		require.Equal(t, "Ed25519", key.Crv)

		raw, err := key.ED25519PublicKeyBytes()
		require.NoError(t, err)
		require.Equal(t, pub, raw)
	})
}

func TestED25519PublicKeyBytes(t *testing.T) {
	t.Run("test wrong key type", func(t *testing.T) {
		key := &JWK{Kty: "EC", Crv: "P-256"}

		_, err := key.ED25519PublicKeyBytes()
		require.Error(t, err)
		require.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("test bad coordinate", func(t *testing.T) {
		key := &JWK{Kty: "OKP", Crv: "Ed25519", X: NewBuffer([]byte{1, 2})}

		_, err := key.ED25519PublicKeyBytes()
		require.Error(t, err)
		require.Contains(t, err.Error(), "bad Ed25519 x coordinate")
	})
}
