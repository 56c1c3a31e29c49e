/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package hashing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMultihash(t *testing.T) {
	t.Run("test multihash has multibase prefix", func(t *testing.T) {
		encoded, err := Multihash([]byte("test data"))
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(encoded, "z"))
		require.True(t, IsMultihash(encoded))
	})

	t.Run("test multihash deterministic", func(t *testing.T) {
		first, err := Multihash([]byte("test data"))
		require.NoError(t, err)

		second, err := Multihash([]byte("test data"))
		require.NoError(t, err)

		require.Equal(t, first, second)

		other, err := Multihash([]byte("other data"))
		require.NoError(t, err)
		require.NotEqual(t, first, other)
	})
}

func TestMultihashModel(t *testing.T) {
	t.Run("test model hash independent of key order", func(t *testing.T) {
		first, err := MultihashModel(map[string]interface{}{"a": 1, "b": 2})
		require.NoError(t, err)

		second, err := MultihashModel(map[string]interface{}{"b": 2, "a": 1})
		require.NoError(t, err)

		require.Equal(t, first, second)
	})

	t.Run("test model hash fails on unmarshalable value", func(t *testing.T) {
		_, err := MultihashModel(map[string]interface{}{"fn": func() {}})
		require.Error(t, err)
	})
}

func TestIsMultihash(t *testing.T) {
	require.False(t, IsMultihash("not-multibase"))
	require.False(t, IsMultihash("zzz"))
	require.False(t, IsMultihash(""))
}
