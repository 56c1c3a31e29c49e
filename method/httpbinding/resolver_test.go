/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package httpbinding

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	vdrapi "github.com/decentralized-identity/didwebvh-go/vdr/api"
)

const testDID = "did:example:334455"

const testDoc = `{
	"@context": ["https://www.w3.org/ns/did/v1"],
	"id": "` + testDID + `"
}`

func TestNew(t *testing.T) {
	t.Run("test invalid base url", func(t *testing.T) {
		_, err := New("not a url")
		require.Error(t, err)
		require.Contains(t, err.Error(), "base URL invalid")
	})

	t.Run("test accept predicate", func(t *testing.T) {
		v, err := New("https://resolver.example.com",
			WithAccept(func(method string) bool { return method == "webvh" }))
		require.NoError(t, err)
		require.True(t, v.Accept("webvh"))
		require.False(t, v.Accept("web"))
	})
}

func TestRead(t *testing.T) {
	t.Run("test resolve plain document", func(t *testing.T) {
		s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/"+testDID, r.URL.Path)
			w.Header().Set("Content-Type", didLDJson)
			_, err := fmt.Fprint(w, testDoc)
			require.NoError(t, err)
		}))
		defer s.Close()

		v, err := New(s.URL)
		require.NoError(t, err)

		resolution, err := v.Read(testDID)
		require.NoError(t, err)
		require.Equal(t, testDID, resolution.DIDDocument.ID)
	})

	t.Run("test resolve resolution result", func(t *testing.T) {
		s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := fmt.Fprintf(w, `{"didDocument":%s,"didDocumentMetadata":{"versionId":"1-z"}}`, testDoc)
			require.NoError(t, err)
		}))
		defer s.Close()

		v, err := New(s.URL)
		require.NoError(t, err)

		resolution, err := v.Read(testDID)
		require.NoError(t, err)
		require.Equal(t, testDID, resolution.DIDDocument.ID)
		require.Equal(t, "1-z", resolution.DocumentMetadata.VersionID)
	})

	t.Run("test resolve not found", func(t *testing.T) {
		s := httptest.NewServer(http.NotFoundHandler())
		defer s.Close()

		v, err := New(s.URL)
		require.NoError(t, err)

		_, err = v.Read(testDID)
		require.ErrorIs(t, err, vdrapi.ErrNotFound)
	})

	t.Run("test version selectors forwarded", func(t *testing.T) {
		s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "1-zQmHash", r.URL.Query().Get("versionId"))
			_, err := fmt.Fprint(w, testDoc)
			require.NoError(t, err)
		}))
		defer s.Close()

		v, err := New(s.URL)
		require.NoError(t, err)

		_, err = v.Read(testDID, vdrapi.WithOption(VersionIDOpt, "1-zQmHash"))
		require.NoError(t, err)
	})

	t.Run("test conflicting version selectors", func(t *testing.T) {
		v, err := New("https://resolver.example.com")
		require.NoError(t, err)

		_, err = v.Read(testDID,
			vdrapi.WithOption(VersionIDOpt, "1-z"),
			vdrapi.WithOption(VersionTimeOpt, "2025-03-01T00:00:00Z"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "can not set at same time")
	})

	t.Run("test auth token sent", func(t *testing.T) {
		s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
			_, err := fmt.Fprint(w, testDoc)
			require.NoError(t, err)
		}))
		defer s.Close()

		v, err := New(s.URL, WithResolveAuthToken("token123"))
		require.NoError(t, err)

		_, err = v.Read(testDID)
		require.NoError(t, err)
	})

	t.Run("test requests spread over endpoints", func(t *testing.T) {
		hits := make(map[string]int)

		newServer := func(name string) *httptest.Server {
			return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits[name]++
				_, err := fmt.Fprint(w, testDoc)
				require.NoError(t, err)
			}))
		}

		s1 := newServer("one")
		defer s1.Close()

		s2 := newServer("two")
		defer s2.Close()

		v, err := New(s1.URL, WithAdditionalEndpoints(s2.URL))
		require.NoError(t, err)

		for i := 0; i < 4; i++ {
			_, err = v.Read(testDID)
			require.NoError(t, err)
		}

		require.Equal(t, 2, hits["one"])
		require.Equal(t, 2, hits["two"])
	})
}
