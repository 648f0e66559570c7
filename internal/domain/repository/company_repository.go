package repository

import (
	"context"

	"github.com/jhoicas/facturacion-app/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure.
type CompanyRepository interface {
	// Get devuelve el registro activo o nil si todavía no existe.
	Get(ctx context.Context) (*entity.Company, error)
	Create(ctx context.Context, company *entity.Company) error
	Update(ctx context.Context, company *entity.Company) error
}
