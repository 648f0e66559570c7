package repository

import "context"

// Repositories agrupa los puertos atados a una misma transacción.
type Repositories struct {
	Companies   CompanyRepository
	Roles       RoleRepository
	Customers   CustomerRepository
	Users       UserRepository
	Invoices    InvoiceRepository
	LoginAudits LoginAuditRepository
}

// TxOptions opciones de la transacción.
type TxOptions struct {
	// ReadOnly abre una transacción de solo lectura con vista consistente (snapshot).
	ReadOnly bool
}

// UnitOfWork es la transacción en curso.
type UnitOfWork interface {
	Repos() Repositories
	// Savepoint ejecuta fn en un punto de guardado: si fn falla solo se deshace
	// lo hecho dentro de fn y la transacción externa sigue utilizable.
	Savepoint(ctx context.Context, fn func(repos Repositories) error) error
}

// TxRunner ejecuta fn dentro de una transacción: Commit si fn devuelve nil, Rollback si no.
type TxRunner interface {
	RunInTx(ctx context.Context, opts TxOptions, fn func(uow UnitOfWork) error) error
}
