package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/facturacion-app/internal/application/audit"
	"github.com/jhoicas/facturacion-app/internal/application/dto"
	"github.com/jhoicas/facturacion-app/internal/domain"
	"github.com/jhoicas/facturacion-app/internal/domain/entity"
	"github.com/jhoicas/facturacion-app/internal/infrastructure/memory"
	"github.com/jhoicas/facturacion-app/pkg/jwt"
)

const testSecret = "test-secret-key-for-unit-tests"

type fixture struct {
	store *memory.Store
	uc    *AuthUseCase
	audit *audit.Service
}

func newFixture(t *testing.T, users ...*entity.User) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repositories()
	role := &entity.Role{Name: entity.RoleUser}
	require.NoError(t, repos.Roles.Create(ctx, role))
	for _, u := range users {
		u.Roles = []entity.Role{*role}
		require.NoError(t, repos.Users.Create(ctx, u))
	}
	auditSvc := audit.NewService(repos.LoginAudits, nil)
	uc := NewAuthUseCase(repos.Users, auditSvc, JWTConfig{Secret: testSecret, ExpMinutes: 60, Issuer: "test"}, nil)
	uc.bcryptCost = bcrypt.MinCost
	return fixture{store: store, uc: uc, audit: auditSvc}
}

func hash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestLogin_OK(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &entity.User{Username: "ana", PasswordHash: hash(t, "secreta123"), Active: true, MustChangePassword: true})

	out, err := f.uc.Login(ctx, dto.LoginRequest{Username: "ana", Password: "secreta123"}, ClientInfo{IP: "10.0.0.1", UserAgent: "curl"})
	require.NoError(t, err)
	assert.True(t, out.MustChangePassword)
	assert.Equal(t, []string{"ROLE_USER"}, out.User.Roles)

	sub, err := jwt.Parse(testSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "ana", sub.Username)
	assert.True(t, sub.HasRole("ROLE_USER"))

	recent, err := f.audit.Recent(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.True(t, recent[0].Successful)
	assert.Equal(t, "10.0.0.1", recent[0].IPAddress)
}

func TestLogin_Fallos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t,
		&entity.User{Username: "ana", PasswordHash: hash(t, "secreta123"), Active: true},
		&entity.User{Username: "inactivo", PasswordHash: hash(t, "secreta123"), Active: false},
	)

	_, err := f.uc.Login(ctx, dto.LoginRequest{Username: "ana", Password: "mala"}, ClientInfo{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.uc.Login(ctx, dto.LoginRequest{Username: "nadie", Password: "x"}, ClientInfo{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.uc.Login(ctx, dto.LoginRequest{Username: "inactivo", Password: "secreta123"}, ClientInfo{})
	assert.ErrorIs(t, err, domain.ErrInactiveAccount)

	failed, err := f.audit.Failed(ctx)
	require.NoError(t, err)
	assert.Len(t, failed, 3, "todos los intentos fallidos quedan registrados")
}

func TestChangePassword_QuitaFlag(t *testing.T) {
	ctx := context.Background()
	u := &entity.User{Username: "ana", PasswordHash: hash(t, "ChangeMe123!"), Active: true, MustChangePassword: true}
	f := newFixture(t, u)

	err := f.uc.ChangePassword(ctx, u.ID, dto.ChangePasswordRequest{CurrentPassword: "mala", NewPassword: "nueva-clave-1"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, f.uc.ChangePassword(ctx, u.ID, dto.ChangePasswordRequest{CurrentPassword: "ChangeMe123!", NewPassword: "nueva-clave-1"}))

	out, err := f.uc.Login(ctx, dto.LoginRequest{Username: "ana", Password: "nueva-clave-1"}, ClientInfo{})
	require.NoError(t, err)
	assert.False(t, out.MustChangePassword)

	err = f.uc.ChangePassword(ctx, 9999, dto.ChangePasswordRequest{CurrentPassword: "x", NewPassword: "y"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
