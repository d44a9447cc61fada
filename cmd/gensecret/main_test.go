package main

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_run(t *testing.T) {
	t.Run("default size", func(t *testing.T) {
		var out bytes.Buffer

		err := run(&out, nil)

		require.NoError(t, err)
		secret, err := hex.DecodeString(strings.TrimSpace(out.String()))
		require.NoError(t, err)
		require.Len(t, secret, 32)
	})

	t.Run("custom size", func(t *testing.T) {
		var out bytes.Buffer

		err := run(&out, []string{"--bytes", "64"})

		require.NoError(t, err)
		require.Len(t, strings.TrimSpace(out.String()), 128)
	})

	t.Run("too short", func(t *testing.T) {
		var out bytes.Buffer

		err := run(&out, []string{"-b", "8"})

		require.Error(t, err)
		require.Empty(t, out.String())
	})
}
