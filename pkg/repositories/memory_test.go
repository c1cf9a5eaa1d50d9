package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	_, err := r.LoadLatestSnapshot(ctx)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	require.NoError(t, r.SaveSnapshot(ctx, 3, []byte("first")))
	require.NoError(t, r.SaveSnapshot(ctx, 9, []byte("latest")))

	record, err := r.LoadLatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), record.Version)
	assert.Equal(t, []byte("latest"), record.Data)
}
