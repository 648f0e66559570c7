package repository

import (
	"context"

	"github.com/jhoicas/facturacion-app/internal/domain/entity"
)

// RoleRepository define el puerto de persistencia para Role.
type RoleRepository interface {
	Create(ctx context.Context, role *entity.Role) error
	FindAll(ctx context.Context) ([]*entity.Role, error)
	FindByName(ctx context.Context, name entity.RoleName) (*entity.Role, error)
}
