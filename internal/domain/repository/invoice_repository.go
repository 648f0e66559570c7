package repository

import (
	"context"
	"time"

	"github.com/jhoicas/facturacion-app/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para Invoice y sus ítems.
type InvoiceRepository interface {
	// Create persiste la cabecera (sin ítems). CustomerID se respeta si viene informado.
	Create(ctx context.Context, invoice *entity.Invoice) error
	// SetCustomer asigna (o quita, con nil) el cliente de una factura existente.
	SetCustomer(ctx context.Context, invoiceID int64, customerID *int64) error
	// AddItems inserta las líneas y les asigna ID e InvoiceID.
	AddItems(ctx context.Context, invoiceID int64, items []entity.InvoiceItem) ([]entity.InvoiceItem, error)
	// GetByID devuelve la factura con cliente e ítems, o nil si no existe.
	GetByID(ctx context.Context, id int64) (*entity.Invoice, error)
	// FindAll devuelve todas las facturas con cliente e ítems.
	FindAll(ctx context.Context) ([]*entity.Invoice, error)
	// CountByIssueMonth cuenta las facturas emitidas en el mes de month.
	CountByIssueMonth(ctx context.Context, month time.Time) (int, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
