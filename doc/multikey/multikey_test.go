/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package multikey

import (
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	t.Run("test round trip", func(t *testing.T) {
		pubKey, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		encoded, err := Encode(pubKey)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(encoded, "z6Mk"))

		decoded, err := Decode(encoded)
		require.NoError(t, err)
		require.Equal(t, pubKey, decoded)
	})

	t.Run("test encode wrong length", func(t *testing.T) {
		_, err := Encode([]byte{1, 2, 3})
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid ed25519 public key length")
	})

	t.Run("test decode invalid multibase", func(t *testing.T) {
		_, err := Decode("not-a-key")
		require.Error(t, err)
	})

	t.Run("test decode wrong encoding", func(t *testing.T) {
		_, err := Decode("f00ed")
		require.Error(t, err)
		require.Contains(t, err.Error(), "not base58btc")
	})

	t.Run("test decode wrong codec", func(t *testing.T) {
		_, err := Decode("z6LSbysY2xFMRpGMhb7tFTLMpeuPRaqaWM1yECx2AtzE3KCc")
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported multikey codec")
	})
}
