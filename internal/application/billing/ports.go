package billing

import (
	"context"

	"github.com/jhoicas/facturacion-app/internal/domain/entity"
)

// InvoicePDFGenerator genera la representación gráfica de una factura.
// La factura llega con cliente e ítems cargados; company puede estar vacía pero nunca es nil.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, invoice *entity.Invoice, company *entity.Company) ([]byte, error)
}
