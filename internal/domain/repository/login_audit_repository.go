package repository

import (
	"context"

	"github.com/jhoicas/facturacion-app/internal/domain/entity"
)

// LoginAuditRepository puerto del registro append-only de inicios de sesión.
type LoginAuditRepository interface {
	Create(ctx context.Context, audit *entity.LoginAudit) error
	// CreateBatch inserta los registros tal cual, en bloque.
	CreateBatch(ctx context.Context, audits []*entity.LoginAudit) error
	FindAll(ctx context.Context) ([]*entity.LoginAudit, error)
	FindByUsername(ctx context.Context, username string) ([]*entity.LoginAudit, error)
	FindRecent(ctx context.Context, limit int) ([]*entity.LoginAudit, error)
	FindFailed(ctx context.Context) ([]*entity.LoginAudit, error)
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
