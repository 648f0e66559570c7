package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/facturacion-app/internal/application/dto"
	"github.com/jhoicas/facturacion-app/internal/domain"
	"github.com/jhoicas/facturacion-app/internal/domain/entity"
	"github.com/jhoicas/facturacion-app/internal/domain/repository"
	"github.com/jhoicas/facturacion-app/pkg/jwt"
	"github.com/jhoicas/facturacion-app/pkg/logger"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// ClientInfo origen de la petición de login, para el registro de accesos.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// LoginRecorder registra cada intento de login.
type LoginRecorder interface {
	Record(ctx context.Context, username, ip, userAgent string, successful bool) error
}

// AuthUseCase casos de uso de autenticación: login y cambio de contraseña.
type AuthUseCase struct {
	userRepo   repository.UserRepository
	recorder   LoginRecorder
	jwtCfg     JWTConfig
	log        *logger.Logger
	bcryptCost int
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, recorder LoginRecorder, jwtCfg JWTConfig, log *logger.Logger) *AuthUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthUseCase{
		userRepo:   userRepo,
		recorder:   recorder,
		jwtCfg:     jwtCfg,
		log:        log.Named("auth"),
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Login verifica usuario/password, registra el intento y genera el JWT.
// Credenciales incorrectas devuelven domain.ErrUnauthorized; cuenta inactiva, domain.ErrInactiveAccount.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest, client ClientInfo) (*dto.LoginResponse, error) {
	username := strings.TrimSpace(in.Username)
	user, err := uc.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	ok := user != nil && bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) == nil
	if ok && !user.Active {
		uc.record(ctx, username, client, false)
		return nil, domain.ErrInactiveAccount
	}
	uc.record(ctx, username, client, ok)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	token, err := jwt.Generate(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes, jwt.Subject{
		UserID:   user.ID,
		Username: user.Username,
		Roles:    user.RoleNames(),
	})
	if err != nil {
		return nil, fmt.Errorf("generar token: %w", err)
	}
	return &dto.LoginResponse{
		Token:              token,
		MustChangePassword: user.MustChangePassword,
		User:               *ToUserResponse(user),
	}, nil
}

// ChangePassword valida la contraseña actual y guarda la nueva, quitando el flag de cambio obligatorio.
func (uc *AuthUseCase) ChangePassword(ctx context.Context, userID int64, in dto.ChangePasswordRequest) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)) != nil {
		return domain.ErrUnauthorized
	}
	if in.NewPassword == in.CurrentPassword {
		return fmt.Errorf("%w: la nueva contraseña debe ser distinta", domain.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), uc.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash de contraseña: %w", err)
	}
	if err := uc.userRepo.UpdatePassword(ctx, user.ID, string(hash), false); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	uc.log.Info().Int64("user_id", user.ID).Msg("contraseña cambiada")
	return nil
}

// record no bloquea el login si el registro de accesos falla.
func (uc *AuthUseCase) record(ctx context.Context, username string, client ClientInfo, ok bool) {
	if uc.recorder == nil {
		return
	}
	if err := uc.recorder.Record(ctx, username, client.IP, client.UserAgent, ok); err != nil {
		uc.log.Error().Err(err).Str("username", username).Msg("registro de acceso")
	}
}

// ToUserResponse convierte la entidad a su DTO de salida.
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Active:   u.Active,
		Roles:    u.RoleNames(),
	}
}
