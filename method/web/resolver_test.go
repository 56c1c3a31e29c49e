/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	vdrapi "github.com/decentralized-identity/didwebvh-go/vdr/api"
)

const validDoc = `{
	"@context": ["https://www.w3.org/ns/did/v1"],
	"id": "%s"
}`

func TestParseDIDWeb(t *testing.T) {
	t.Run("test parse did success", func(t *testing.T) {
		address, host, err := parseDIDWeb("did:web:www.example.org", false)
		require.NoError(t, err)
		require.Equal(t, "https://www.example.org/.well-known/did.json", address)
		require.Equal(t, "www.example.org", host)

		address, host, err = parseDIDWeb("did:web:www.example.org:user:alice", false)
		require.NoError(t, err)
		require.Equal(t, "https://www.example.org/user/alice/did.json", address)
		require.Equal(t, "www.example.org", host)

		address, host, err = parseDIDWeb("did:web:localhost%3A8080", false)
		require.NoError(t, err)
		require.Equal(t, "http://localhost:8080/.well-known/did.json", address)
		require.Equal(t, "localhost", host)
	})

	t.Run("test parse did failure", func(t *testing.T) {
		for _, invalid := range []string{"did:example:123", "www.example.org", "did:web:", "did:web:a::b"} {
			_, _, err := parseDIDWeb(invalid, false)
			require.Error(t, err, invalid)
		}
	})
}

func TestRead(t *testing.T) {
	t.Run("test resolve success", func(t *testing.T) {
		s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := fmt.Fprintf(w, validDoc, "did:web:"+url.QueryEscape(r.Host))
			require.NoError(t, err)
		}))
		defer s.Close()

		didID := "did:web:" + url.QueryEscape(strings.TrimPrefix(s.URL, "http://"))

		resolution, err := New().Read(didID,
			vdrapi.WithOption(HTTPClientOpt, s.Client()), vdrapi.WithOption(UseHTTPOpt, true))
		require.NoError(t, err)
		require.Equal(t, didID, resolution.DIDDocument.ID)
	})

	t.Run("test resolve wrong doc id", func(t *testing.T) {
		s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := fmt.Fprintf(w, validDoc, "did:web:other.example.org")
			require.NoError(t, err)
		}))
		defer s.Close()

		didID := "did:web:" + url.QueryEscape(strings.TrimPrefix(s.URL, "http://"))

		_, err := New().Read(didID,
			vdrapi.WithOption(HTTPClientOpt, s.Client()), vdrapi.WithOption(UseHTTPOpt, true))
		require.Error(t, err)
		require.Contains(t, err.Error(), "not matching did")
	})

	t.Run("test resolve not found", func(t *testing.T) {
		s := httptest.NewServer(http.NotFoundHandler())
		defer s.Close()

		didID := "did:web:" + url.QueryEscape(strings.TrimPrefix(s.URL, "http://"))

		_, err := New().Read(didID,
			vdrapi.WithOption(HTTPClientOpt, s.Client()), vdrapi.WithOption(UseHTTPOpt, true))
		require.ErrorIs(t, err, vdrapi.ErrNotFound)
	})

	t.Run("test resolve invalid did", func(t *testing.T) {
		_, err := New().Read("did:example:123")
		require.Error(t, err)
		require.Contains(t, err.Error(), "does not conform to generic did standard")
	})

	t.Run("test accept", func(t *testing.T) {
		v := New()
		require.True(t, v.Accept("web"))
		require.False(t, v.Accept("webvh"))
		require.Error(t, v.Update(nil))
		require.Error(t, v.Deactivate(""))
		require.NoError(t, v.Close())
	})
}
