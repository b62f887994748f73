package users

import (
	"context"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap parameters keep the tests fast
var testParams = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newTestService() (*Service, *MemStore) {
	store := NewMemStore()
	return NewService(store, WithHashParams(testParams)), store
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ansh", " Ansh@Example.com ", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ansh@example.com", u.Email)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	got, err := svc.Authenticate(ctx, "ANSH@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	found, err := svc.Lookup(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ansh", found.Name)
}

func TestAuthenticate_Failures(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "Akhil", "akhil@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "akhil@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "a@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, "Anmol", "not-an-email", "password123")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, "Anmol", "anmol@example.com", "short")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, "Anmol", "anmol@example.com", "password123")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "Other", "ANMOL@example.com", "password456")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestMemStore_DeleteDropsLookups(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ansh", "ansh@example.com", "password123")
	require.NoError(t, err)
	require.NoError(t, store.remove(ctx, u.ID))

	_, err = store.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.FindByEmail(ctx, "ansh@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
