package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/budgetnest/internal/auth"
	"github.com/MrJamesThe3rd/budgetnest/internal/auth/store"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "user.json")
	s := store.NewFileStore(path)

	u, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	want := &auth.User{ID: "1", Name: "Ana", Email: "ana@example.com", IsNew: true}
	require.NoError(t, s.Save(ctx, want))

	got, err := store.NewFileStore(path).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := store.NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}
