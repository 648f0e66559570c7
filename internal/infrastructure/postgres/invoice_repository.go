package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/facturacion-app/internal/domain"
	"github.com/jhoicas/facturacion-app/internal/domain/entity"
	"github.com/jhoicas/facturacion-app/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera de la factura.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	inv.NormalizeStatus()
	query := `
		INSERT INTO invoices (invoice_number, issue_date, due_date, payment_method, status, notes, customer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		inv.InvoiceNumber, inv.IssueDate, inv.DueDate, inv.PaymentMethod, inv.Status, inv.Notes, inv.CustomerID,
	).Scan(&inv.ID)
	if err != nil {
		return translateErr("insert invoice", err)
	}
	return nil
}

// SetCustomer asigna o quita el cliente de la factura.
func (r *InvoiceRepo) SetCustomer(ctx context.Context, invoiceID int64, customerID *int64) error {
	cmd, err := r.q.Exec(ctx, `UPDATE invoices SET customer_id = $2 WHERE id = $1`, invoiceID, customerID)
	if err != nil {
		return translateErr("update invoice customer", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddItems persiste las líneas de una factura.
func (r *InvoiceRepo) AddItems(ctx context.Context, invoiceID int64, items []entity.InvoiceItem) ([]entity.InvoiceItem, error) {
	out := make([]entity.InvoiceItem, 0, len(items))
	for _, it := range items {
		it.InvoiceID = invoiceID
		err := r.q.QueryRow(ctx, `
			INSERT INTO invoice_items (invoice_id, product, quantity, price)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			it.InvoiceID, it.Product, it.Quantity, it.Price,
		).Scan(&it.ID)
		if err != nil {
			return nil, translateErr("insert invoice item", err)
		}
		out = append(out, it)
	}
	return out, nil
}

const invoiceSelect = `
	SELECT i.id, i.invoice_number, i.issue_date, i.due_date, i.payment_method, i.status, i.notes, i.customer_id,
	       c.name, c.address, c.tax_id, c.registration_id, c.email, c.phone
	FROM invoices i LEFT JOIN customers c ON c.id = i.customer_id`

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var name, address, taxID, regID, email, phone *string
	if err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.IssueDate, &inv.DueDate, &inv.PaymentMethod, &inv.Status, &inv.Notes,
		&inv.CustomerID, &name, &address, &taxID, &regID, &email, &phone,
	); err != nil {
		return nil, err
	}
	if inv.CustomerID != nil {
		inv.Customer = &entity.Customer{
			ID:             *inv.CustomerID,
			Name:           derefStr(name),
			Address:        derefStr(address),
			TaxID:          derefStr(taxID),
			RegistrationID: derefStr(regID),
			Email:          derefStr(email),
			Phone:          derefStr(phone),
		}
	}
	inv.NormalizeStatus()
	return &inv, nil
}

// GetByID obtiene una factura completa por ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, invoiceSelect+` WHERE i.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	items, err := r.itemsByInvoice(ctx, &inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items[inv.ID]
	return inv, nil
}

// FindAll lista todas las facturas con cliente e ítems.
func (r *InvoiceRepo) FindAll(ctx context.Context) ([]*entity.Invoice, error) {
	rows, err := r.q.Query(ctx, invoiceSelect+` ORDER BY i.id`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	items, err := r.itemsByInvoice(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, inv := range list {
		inv.Items = items[inv.ID]
	}
	return list, nil
}

// itemsByInvoice agrupa las líneas por factura; invoiceID nil carga todas.
func (r *InvoiceRepo) itemsByInvoice(ctx context.Context, invoiceID *int64) (map[int64][]entity.InvoiceItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, invoice_id, product, quantity, price
		FROM invoice_items
		WHERE $1::BIGINT IS NULL OR invoice_id = $1
		ORDER BY invoice_id, id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()
	out := make(map[int64][]entity.InvoiceItem)
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Product, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		out[it.InvoiceID] = append(out[it.InvoiceID], it)
	}
	return out, rows.Err()
}

// CountByIssueMonth cuenta facturas emitidas en el mes indicado.
func (r *InvoiceRepo) CountByIssueMonth(ctx context.Context, month time.Time) (int, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE issue_date >= $1 AND issue_date < $2`,
		start, start.AddDate(0, 1, 0),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count invoices by month: %w", err)
	}
	return n, nil
}

// ExistsByNumber indica si ya hay una factura con ese número.
func (r *InvoiceRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM invoices WHERE invoice_number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists invoice number: %w", err)
	}
	return exists, nil
}

// Delete elimina una factura; sus ítems caen en cascada.
func (r *InvoiceRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return nil
}

// DeleteAll elimina todas las facturas y sus ítems.
func (r *InvoiceRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM invoices`); err != nil {
		return fmt.Errorf("delete invoices: %w", err)
	}
	return nil
}

// Count número de facturas.
func (r *InvoiceRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.q, "invoices")
}
