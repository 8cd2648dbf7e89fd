package account_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truber-app/truber-backend/internal/apperr"
	"github.com/truber-app/truber-backend/internal/models"
	"github.com/truber-app/truber-backend/internal/services/account"
	"github.com/truber-app/truber-backend/internal/testutil/pgtest"
)

func TestRegisterAndLogin(t *testing.T) {
	svc := account.NewAccountService(pgtest.Open(t))
	ctx := context.Background()

	user, err := svc.Register(ctx, account.RegisterInput{Name: "Sari", Email: " Sari@Truber.test ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "sari@truber.test", user.Email)
	assert.Equal(t, models.RoleClient, user.Role)
	assert.NotEqual(t, "secret1", user.Password)

	got, err := svc.Login(ctx, "SARI@truber.test", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Login(ctx, "sari@truber.test", "wrong")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = svc.Login(ctx, "nobody@truber.test", "secret1")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	me, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sari", me.Name)
	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRegister_Validation(t *testing.T) {
	svc := account.NewAccountService(pgtest.Open(t))
	ctx := context.Background()

	p, err := svc.Register(ctx, account.RegisterInput{Name: "Budi", Email: "budi@truber.test", Password: "secret1", Role: "provider"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleProvider, p.Role)

	_, err = svc.Register(ctx, account.RegisterInput{Name: "Budi 2", Email: "BUDI@truber.test", Password: "secret1"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Register(ctx, account.RegisterInput{Name: "Root", Email: "root@truber.test", Password: "secret1", Role: "admin"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Register(ctx, account.RegisterInput{Email: "x@truber.test", Password: "secret1"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
