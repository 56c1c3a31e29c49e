/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package key

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/decentralized-identity/didwebvh-go/doc/multikey"
)

func TestRead(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	encoded, err := multikey.Encode(pub)
	require.NoError(t, err)

	t.Run("test resolve success", func(t *testing.T) {
		resolution, err := New().Read("did:key:" + encoded)
		require.NoError(t, err)

		doc := resolution.DIDDocument
		require.Equal(t, "did:key:"+encoded, doc.ID)
		require.Len(t, doc.VerificationMethod, 1)

		raw, err := doc.VerificationMethod[0].PublicKeyBytes()
		require.NoError(t, err)
		require.Equal(t, []byte(pub), raw)
	})

	t.Run("test resolve wrong method", func(t *testing.T) {
		_, err := New().Read("did:web:example.com")
		require.Error(t, err)
	})

	t.Run("test resolve malformed key", func(t *testing.T) {
		_, err := New().Read("did:key:zNotAKey")
		require.Error(t, err)
	})

	t.Run("test accept", func(t *testing.T) {
		v := New()
		require.True(t, v.Accept("key"))
		require.False(t, v.Accept("web"))
		require.NoError(t, v.Close())
	})
}
