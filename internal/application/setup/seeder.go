// Package setup prepara el almacén al arrancar: roles del sistema y cuenta de administrador.
package setup

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/facturacion-app/internal/domain/entity"
	"github.com/jhoicas/facturacion-app/internal/domain/repository"
	"github.com/jhoicas/facturacion-app/pkg/logger"
)

// AdminConfig cuenta de administrador creada si todavía no existe.
type AdminConfig struct {
	Username            string
	Email               string
	Password            string
	ForcePasswordChange bool
}

// Seeder crea de forma idempotente los datos mínimos para operar.
type Seeder struct {
	tx         repository.TxRunner
	admin      AdminConfig
	log        *logger.Logger
	bcryptCost int
}

// NewSeeder construye el seeder.
func NewSeeder(tx repository.TxRunner, admin AdminConfig, log *logger.Logger) *Seeder {
	if log == nil {
		log = logger.Nop()
	}
	return &Seeder{tx: tx, admin: admin, log: log.Named("setup"), bcryptCost: bcrypt.DefaultCost}
}

// Seed asegura los roles y el administrador en una sola transacción.
func (s *Seeder) Seed(ctx context.Context) error {
	return s.tx.RunInTx(ctx, repository.TxOptions{}, func(uow repository.UnitOfWork) error {
		repos := uow.Repos()
		adminRole, err := s.ensureRoles(ctx, repos.Roles)
		if err != nil {
			return err
		}
		if s.admin.Username == "" {
			return nil
		}
		return s.ensureAdmin(ctx, repos.Users, adminRole)
	})
}

func (s *Seeder) ensureRoles(ctx context.Context, roles repository.RoleRepository) (*entity.Role, error) {
	var admin *entity.Role
	for _, name := range entity.AllRoles() {
		role, err := roles.FindByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("buscar rol %s: %w", name, err)
		}
		if role == nil {
			role = &entity.Role{Name: name}
			if err := roles.Create(ctx, role); err != nil {
				return nil, fmt.Errorf("crear rol %s: %w", name, err)
			}
			s.log.Info().Str("role", string(name)).Msg("rol creado")
		}
		if name == entity.RoleAdmin {
			admin = role
		}
	}
	return admin, nil
}

func (s *Seeder) ensureAdmin(ctx context.Context, users repository.UserRepository, role *entity.Role) error {
	existing, err := users.GetByUsername(ctx, s.admin.Username)
	if err != nil {
		return fmt.Errorf("buscar administrador: %w", err)
	}
	if existing != nil {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s.admin.Password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash de contraseña: %w", err)
	}
	u := &entity.User{
		Username:           s.admin.Username,
		Email:              s.admin.Email,
		PasswordHash:       string(hash),
		Active:             true,
		MustChangePassword: s.admin.ForcePasswordChange,
		Roles:              []entity.Role{*role},
	}
	if err := users.Create(ctx, u); err != nil {
		return fmt.Errorf("crear administrador: %w", err)
	}
	s.log.Warn().Str("username", u.Username).Msg("administrador por defecto creado; cambie la contraseña")
	return nil
}
