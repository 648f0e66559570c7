package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/facturacion-app/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInTx inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Las transacciones de solo lectura usan REPEATABLE READ para leer todas las tablas desde la misma vista.
func (r *TxRunner) RunInTx(ctx context.Context, opts repository.TxOptions, fn func(uow repository.UnitOfWork) error) error {
	txOpts := pgx.TxOptions{}
	if opts.ReadOnly {
		txOpts.IsoLevel = pgx.RepeatableRead
		txOpts.AccessMode = pgx.ReadOnly
	}
	tx, err := r.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&unitOfWork{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Repositories devuelve repos sobre el pool, sin transacción explícita.
func Repositories(pool *pgxpool.Pool) repository.Repositories {
	return reposFor(pool)
}

type unitOfWork struct {
	tx pgx.Tx
}

func (u *unitOfWork) Repos() repository.Repositories {
	return reposFor(u.tx)
}

// Savepoint usa la transacción anidada de pgx (SAVEPOINT / RELEASE / ROLLBACK TO).
func (u *unitOfWork) Savepoint(ctx context.Context, fn func(repos repository.Repositories) error) error {
	sp, err := u.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", err)
	}
	defer func() { _ = sp.Rollback(ctx) }()

	if err := fn(reposFor(sp)); err != nil {
		return err
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

func reposFor(q Querier) repository.Repositories {
	return repository.Repositories{
		Companies:   NewCompanyRepository(q),
		Roles:       NewRoleRepository(q),
		Customers:   NewCustomerRepository(q),
		Users:       NewUserRepository(q),
		Invoices:    NewInvoiceRepository(q),
		LoginAudits: NewLoginAuditRepository(q),
	}
}
