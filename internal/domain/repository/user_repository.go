package repository

import (
	"context"

	"github.com/jhoicas/facturacion-app/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Los finders cargan los roles del usuario.
type UserRepository interface {
	// Create persiste el usuario y sus roles; devuelve domain.ErrDuplicate si username o email ya existen.
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	FindAll(ctx context.Context) ([]*entity.User, error)
	// UpdatePassword sustituye el hash y el flag mustChangePassword.
	UpdatePassword(ctx context.Context, id int64, hash string, mustChange bool) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
