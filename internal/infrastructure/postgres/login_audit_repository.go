package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/facturacion-app/internal/domain/entity"
	"github.com/jhoicas/facturacion-app/internal/domain/repository"
)

var _ repository.LoginAuditRepository = (*LoginAuditRepo)(nil)

// LoginAuditRepo implementación de LoginAuditRepository.
type LoginAuditRepo struct {
	q Querier
}

// NewLoginAuditRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLoginAuditRepository(q Querier) *LoginAuditRepo {
	return &LoginAuditRepo{q: q}
}

const loginAuditColumns = `id, username, login_time, ip_address, user_agent, successful`

// Create agrega un registro.
func (r *LoginAuditRepo) Create(ctx context.Context, a *entity.LoginAudit) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO login_audit (username, login_time, ip_address, user_agent, successful)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		a.Username, a.LoginTime, a.IPAddress, a.UserAgent, a.Successful,
	).Scan(&a.ID)
	if err != nil {
		return translateErr("insert login audit", err)
	}
	return nil
}

// CreateBatch inserta en bloque con COPY; los IDs los genera la base.
func (r *LoginAuditRepo) CreateBatch(ctx context.Context, audits []*entity.LoginAudit) error {
	if len(audits) == 0 {
		return nil
	}
	_, err := r.q.CopyFrom(ctx,
		pgx.Identifier{"login_audit"},
		[]string{"username", "login_time", "ip_address", "user_agent", "successful"},
		pgx.CopyFromSlice(len(audits), func(i int) ([]any, error) {
			a := audits[i]
			return []any{a.Username, a.LoginTime, a.IPAddress, a.UserAgent, a.Successful}, nil
		}),
	)
	if err != nil {
		return translateErr("copy login audits", err)
	}
	return nil
}

// FindAll lista todos los registros en orden cronológico.
func (r *LoginAuditRepo) FindAll(ctx context.Context) ([]*entity.LoginAudit, error) {
	return r.list(ctx, `SELECT `+loginAuditColumns+` FROM login_audit ORDER BY login_time, id`)
}

// FindByUsername historial de un usuario, más reciente primero.
func (r *LoginAuditRepo) FindByUsername(ctx context.Context, username string) ([]*entity.LoginAudit, error) {
	return r.list(ctx, `SELECT `+loginAuditColumns+` FROM login_audit WHERE username = $1 ORDER BY login_time DESC`, username)
}

// FindRecent últimos limit intentos.
func (r *LoginAuditRepo) FindRecent(ctx context.Context, limit int) ([]*entity.LoginAudit, error) {
	return r.list(ctx, `SELECT `+loginAuditColumns+` FROM login_audit ORDER BY login_time DESC LIMIT $1`, limit)
}

// FindFailed intentos fallidos, más reciente primero.
func (r *LoginAuditRepo) FindFailed(ctx context.Context) ([]*entity.LoginAudit, error) {
	return r.list(ctx, `SELECT `+loginAuditColumns+` FROM login_audit WHERE NOT successful ORDER BY login_time DESC`)
}

func (r *LoginAuditRepo) list(ctx context.Context, query string, args ...any) ([]*entity.LoginAudit, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list login audits: %w", err)
	}
	defer rows.Close()
	var list []*entity.LoginAudit
	for rows.Next() {
		var a entity.LoginAudit
		if err := rows.Scan(&a.ID, &a.Username, &a.LoginTime, &a.IPAddress, &a.UserAgent, &a.Successful); err != nil {
			return nil, fmt.Errorf("scan login audit: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

// DeleteAll vacía el registro (solo durante una restauración).
func (r *LoginAuditRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM login_audit`); err != nil {
		return fmt.Errorf("delete login audits: %w", err)
	}
	return nil
}

// Count número de registros.
func (r *LoginAuditRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.q, "login_audit")
}
