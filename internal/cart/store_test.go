package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/repository/filestore"
)

func TestDocumentStore_RoundTrip(t *testing.T) {
	fs, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	store := NewDocumentStore(fs)
	ctx := context.Background()

	empty, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	empty.AddItem(domain.CartLineItem{ProductID: "poster-1", Size: "M", Quantity: 1})
	require.NoError(t, store.Save(ctx, empty))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)

	require.NoError(t, store.Delete(ctx, "s1"))
	require.NoError(t, store.Delete(ctx, "s1"))

	got, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}
