package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/meetup-scheduler/internal/persistence"
)

const userColumns = `id, name, phone, is_approved, is_admin, created_at, updated_at`

// UserRepository implements persistence.UserRepository using SQLite
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	now    func() time.Time
}

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		now:    time.Now,
	}
}

// CreateUser inserts a member. The count of existing members, the phone
// uniqueness check and the insert share one immediate transaction so two
// concurrent registrations on an empty store cannot both become admin.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	if user.Name == "" || user.Phone == "" {
		return persistence.User{}, persistence.ErrConstraintViolation
	}

	now := r.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var count int
		if err := r.helper.QueryRowTx(ctx, tx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
			return r.mapper.MapError(err)
		}
		if count == 0 {
			user.IsApproved = true
			user.IsAdmin = true
		}

		var existing int64
		err := r.helper.QueryRowTx(ctx, tx, `SELECT id FROM users WHERE phone = ?`, user.Phone).Scan(&existing)
		switch {
		case err == nil:
			return persistence.ErrDuplicate
		case !errors.Is(err, sql.ErrNoRows):
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(ctx, tx, `
			INSERT INTO users (name, phone, is_approved, is_admin, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			user.Name,
			user.Phone,
			user.IsApproved,
			user.IsAdmin,
			formatTimestamp(user.CreatedAt),
			formatTimestamp(user.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		user.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read inserted id: %w", err)
		}
		return nil
	})
	if err != nil {
		return persistence.User{}, err
	}

	return user, nil
}

// GetUser retrieves a user by ID from the database
func (r *UserRepository) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	if id <= 0 {
		return persistence.User{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	return user, nil
}

// GetUserByCredentials retrieves the member matching both name and phone.
func (r *UserRepository) GetUserByCredentials(ctx context.Context, name, phone string) (persistence.User, error) {
	if name == "" || phone == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE name = ? AND phone = ?`, name, phone)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	return user, nil
}

// ListUsers returns all users, newest first.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	return r.listUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
}

// ListPendingUsers returns users awaiting approval, oldest first.
func (r *UserRepository) ListPendingUsers(ctx context.Context) ([]persistence.User, error) {
	return r.listUsers(ctx, `SELECT `+userColumns+` FROM users WHERE is_approved = 0 ORDER BY created_at ASC, id ASC`)
}

func (r *UserRepository) listUsers(ctx context.Context, query string, args ...any) ([]persistence.User, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	users := make([]persistence.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return users, nil
}

// UpdateUser applies the fields present in patch. The statement lists every
// patchable column and keeps the stored value for absent ones.
func (r *UserRepository) UpdateUser(ctx context.Context, id int64, patch persistence.UserPatch) (persistence.User, error) {
	if id <= 0 {
		return persistence.User{}, persistence.ErrNotFound
	}
	if patch.IsEmpty() {
		return r.GetUser(ctx, id)
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE users
		SET name = COALESCE(?, name),
			phone = COALESCE(?, phone),
			is_approved = COALESCE(?, is_approved),
			is_admin = COALESCE(?, is_admin),
			updated_at = ?
		WHERE id = ?
	`,
		nullableString(patch.Name),
		nullableString(patch.Phone),
		nullableBool(patch.IsApproved),
		nullableBool(patch.IsAdmin),
		formatTimestamp(r.now()),
		id,
	)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.User{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.User{}, persistence.ErrNotFound
	}

	return r.GetUser(ctx, id)
}

// DeleteUser removes a user. Their schedules and participations are removed
// by the foreign key cascades.
func (r *UserRepository) DeleteUser(ctx context.Context, id int64) error {
	if id <= 0 {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

func scanUser(row rowScanner) (persistence.User, error) {
	var user persistence.User
	var createdAtStr, updatedAtStr string

	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Phone,
		&user.IsApproved,
		&user.IsAdmin,
		&createdAtStr,
		&updatedAtStr,
	); err != nil {
		return persistence.User{}, err
	}

	var err error
	if user.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
		return persistence.User{}, err
	}

	return user, nil
}
