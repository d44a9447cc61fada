package observability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitSentry(t *testing.T) {
	t.Run("empty dsn disables sentry", func(t *testing.T) {
		err := InitSentry("", "dev")

		require.NoError(t, err)
		FlushSentry()
	})

	t.Run("invalid dsn", func(t *testing.T) {
		err := InitSentry("not-a-dsn", "dev")

		require.Error(t, err)
	})
}
