package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/facturacion-app/internal/domain"
	"github.com/jhoicas/facturacion-app/internal/domain/entity"
	"github.com/jhoicas/facturacion-app/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// Get obtiene el registro de empresa con menor ID.
func (r *CompanyRepo) Get(ctx context.Context) (*entity.Company, error) {
	query := `
		SELECT id, name, address, tax_id, registration_id, email, phone,
		       website, bank_name, bank_account, additional_info, logo_path
		FROM company ORDER BY id LIMIT 1`
	var c entity.Company
	err := r.q.QueryRow(ctx, query).Scan(
		&c.ID, &c.Name, &c.Address, &c.TaxID, &c.RegistrationID, &c.Email, &c.Phone,
		&c.Website, &c.BankName, &c.BankAccount, &c.AdditionalInfo, &c.LogoPath,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

// Create persiste la empresa y asigna su ID.
func (r *CompanyRepo) Create(ctx context.Context, c *entity.Company) error {
	query := `
		INSERT INTO company (name, address, tax_id, registration_id, email, phone,
		                     website, bank_name, bank_account, additional_info, logo_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		c.Name, c.Address, c.TaxID, c.RegistrationID, c.Email, c.Phone,
		c.Website, c.BankName, c.BankAccount, c.AdditionalInfo, c.LogoPath,
	).Scan(&c.ID)
	if err != nil {
		return translateErr("insert company", err)
	}
	return nil
}

// Update sobrescribe todos los campos de la empresa.
func (r *CompanyRepo) Update(ctx context.Context, c *entity.Company) error {
	query := `
		UPDATE company SET name = $2, address = $3, tax_id = $4, registration_id = $5, email = $6,
		       phone = $7, website = $8, bank_name = $9, bank_account = $10, additional_info = $11, logo_path = $12
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		c.ID, c.Name, c.Address, c.TaxID, c.RegistrationID, c.Email,
		c.Phone, c.Website, c.BankName, c.BankAccount, c.AdditionalInfo, c.LogoPath,
	)
	if err != nil {
		return translateErr("update company", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
