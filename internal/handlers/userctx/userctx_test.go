package userctx

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUserCtx(t *testing.T) {
	t.Run("empty context", func(t *testing.T) {
		_, ok := FromContext(context.Background())

		require.False(t, ok)
	})

	t.Run("user id set", func(t *testing.T) {
		userID := uuid.New()

		got, ok := FromContext(New(context.Background(), userID))

		require.True(t, ok)
		require.Equal(t, userID, got)
	})
}
