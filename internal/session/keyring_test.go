package session

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/learnbell/internal/model"
)

func newTestStore() *KeyringStore {
	return NewKeyringStore(keyring.NewArrayKeyring(nil))
}

func TestKeyringStore_LoadEmpty(t *testing.T) {
	s := newTestStore()

	sess, err := s.Load()
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	assert.Empty(t, sess.Token)
}

func TestKeyringStore_SaveLoadClear(t *testing.T) {
	s := newTestStore()
	want := model.Session{Token: "tok", UserID: "u1", UserName: "Ada"}

	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, got.Authenticated())

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())

	got, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, model.Session{}, got)
}
