package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyhub-tz/studyhub/internal/client/localstore"
	"github.com/studyhub-tz/studyhub/internal/client/remote"
	"github.com/studyhub-tz/studyhub/internal/common"

	_ "modernc.org/sqlite"
)

func newTestService(t *testing.T) (AuthService, *remote.MemoryStore, *localstore.Store) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// a second connection would see a different in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, localstore.RunMigrations(context.Background(), db))

	local := localstore.NewStore(db)
	rs := remote.NewMemoryStore()
	return NewAuthService(rs, local), rs, local
}

func TestAuthService_LoginCachesAccount(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Login(ctx, "amina@example.tz", "secret")
	require.NoError(t, err)
	assert.Equal(t, "amina@example.tz", u.Email)
	assert.NotZero(t, u.LastLoginAt)

	got, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestAuthService_LoginReplacesPreviousAccount(t *testing.T) {
	svc, _, local := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "amina@example.tz", "secret")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "juma@example.tz", "secret")
	require.NoError(t, err)

	n, err := local.Users.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "one account per device")

	got, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "juma@example.tz", got.Email)
}

func TestAuthService_LoginFailureLeavesCacheAlone(t *testing.T) {
	svc, rs, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "amina@example.tz", "secret")
	require.NoError(t, err)

	rs.FailWith = common.ErrUnauthorized
	_, err = svc.Login(ctx, "amina@example.tz", "wrong")
	require.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = svc.CurrentUser(ctx)
	require.NoError(t, err, "a failed login must not wipe the cached account")
}

func TestAuthService_Logout(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "amina@example.tz", "secret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx))

	_, err = svc.CurrentUser(ctx)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestAuthService_CurrentUserEmptyDevice(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CurrentUser(context.Background())
	require.ErrorIs(t, err, common.ErrNotFound)
}
