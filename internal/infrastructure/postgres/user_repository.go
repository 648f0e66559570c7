package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/facturacion-app/internal/domain"
	"github.com/jhoicas/facturacion-app/internal/domain/entity"
	"github.com/jhoicas/facturacion-app/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

const userColumns = `id, username, password_hash, COALESCE(email, ''), active, must_change_password`

// Create persiste un nuevo usuario junto con sus roles.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	query := `
		INSERT INTO users (username, password_hash, email, active, must_change_password)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		u.Username, u.PasswordHash, nullIfEmpty(u.Email), u.Active, u.MustChangePassword,
	).Scan(&u.ID)
	if err != nil {
		return translateErr("insert user", err)
	}
	for _, role := range u.Roles {
		if _, err := r.q.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			u.ID, role.ID,
		); err != nil {
			return translateErr("insert user role", err)
		}
	}
	return nil
}

// GetByID obtiene un usuario por ID con sus roles.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByUsername obtiene un usuario por nombre de usuario con sus roles.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepo) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	var u entity.User
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Active, &u.MustChangePassword,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	roles, err := r.rolesByUser(ctx, &u.ID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles[u.ID]
	return &u, nil
}

// FindAll lista todos los usuarios con sus roles.
func (r *UserRepo) FindAll(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var list []*entity.User
	for rows.Next() {
		var u entity.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Active, &u.MustChangePassword); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	roles, err := r.rolesByUser(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, u := range list {
		u.Roles = roles[u.ID]
	}
	return list, nil
}

// rolesByUser agrupa los roles por usuario; userID nil carga todos.
func (r *UserRepo) rolesByUser(ctx context.Context, userID *int64) (map[int64][]entity.Role, error) {
	rows, err := r.q.Query(ctx, `
		SELECT ur.user_id, ro.id, ro.name
		FROM user_roles ur JOIN roles ro ON ro.id = ur.role_id
		WHERE $1::BIGINT IS NULL OR ur.user_id = $1
		ORDER BY ur.user_id, ro.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	defer rows.Close()
	out := make(map[int64][]entity.Role)
	for rows.Next() {
		var uid int64
		var role entity.Role
		if err := rows.Scan(&uid, &role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("scan user role: %w", err)
		}
		out[uid] = append(out[uid], role)
	}
	return out, rows.Err()
}

// UpdatePassword sustituye el hash y el flag de cambio obligatorio.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, hash string, mustChange bool) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE users SET password_hash = $2, must_change_password = $3 WHERE id = $1`, id, hash, mustChange)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// SetActive activa o desactiva la cuenta.
func (r *UserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	cmd, err := r.q.Exec(ctx, `UPDATE users SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("update user active: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete elimina un usuario por ID.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// DeleteAll elimina todos los usuarios (user_roles cae en cascada).
func (r *UserRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("delete users: %w", err)
	}
	return nil
}

// Count número de usuarios.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.q, "users")
}
