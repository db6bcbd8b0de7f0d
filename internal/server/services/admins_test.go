package services

import (
	"context"
	"testing"

	"github.com/niendoo/cybercrime-hive-sub000/internal/common"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/auth"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAdminAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin, err := f.svc.Admins.CreateAdmin(ctx, " root@hive.example ", "Root", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "root@hive.example", admin.Email)
	assert.NotEqual(t, "correct horse", admin.PasswordHash)

	token, err := f.svc.Admins.Login(ctx, "root@hive.example", "correct horse")
	require.NoError(t, err)

	claims, err := auth.ParseToken(token, []byte("secretKey"))
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLogin_Unauthorized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Admins.CreateAdmin(ctx, "root@hive.example", "Root", "correct horse")
	require.NoError(t, err)

	_, err = f.svc.Admins.Login(ctx, "root@hive.example", "wrong password")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = f.svc.Admins.Login(ctx, "nobody@hive.example", "correct horse")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	// report owners have no password and are not admins
	_, err = f.svc.Admins.Login(ctx, f.owner.Email, "")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestCreateAdmin_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Admins.CreateAdmin(ctx, "not-an-email", "X", "long enough")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = f.svc.Admins.CreateAdmin(ctx, "a@hive.example", "X", "short")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = f.svc.Admins.CreateAdmin(ctx, f.owner.Email, "X", "long enough")
	assert.ErrorIs(t, err, common.ErrConflict)
}
