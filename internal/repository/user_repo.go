package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pdl-records/internal/model"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindActiveByUsername returns only Active accounts. Callers must not
// distinguish "no such user" from "inactive user" in anything
// client-visible.
func (r *UserRepository) FindActiveByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT u.user_id, u.username, u.password, u.fullname, u.role_id, r.role_name,
		        u.status, u.created_at, u.updated_at
		 FROM users u
		 JOIN roles r ON u.role_id = r.role_id
		 WHERE lower(u.username) = lower($1) AND u.status = 'Active'`,
		strings.TrimSpace(username)).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.RoleID, &u.RoleName,
			&u.Status, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find active user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT u.user_id, u.username, u.password, u.fullname, u.role_id, r.role_name,
		        u.status, u.created_at, u.updated_at
		 FROM users u
		 JOIN roles r ON u.role_id = r.role_id
		 WHERE u.user_id = $1`, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.RoleID, &u.RoleName,
			&u.Status, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// Exists checks username and full name together; full name comparison is
// case-insensitive.
func (r *UserRepository) Exists(ctx context.Context, username string, fullName string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM users
			WHERE lower(username) = lower($1) OR lower(fullname) = lower($2)
		)`,
		strings.TrimSpace(username), strings.TrimSpace(fullName)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, password, fullname, role_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING user_id`,
		u.Username, u.PasswordHash, u.FullName, u.RoleID, u.Status, u.CreatedAt, u.UpdatedAt).
		Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, model.ErrUserExists
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// UpdateStatus flips a user Active/Inactive. Accounts are never deleted.
func (r *UserRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET status = $2, updated_at = $3 WHERE user_id = $1`,
		id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int64, roleID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET role_id = $2, updated_at = $3 WHERE user_id = $1`,
		id, roleID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.UserSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.user_id, u.username, u.fullname, r.role_name, u.status
		 FROM users u
		 JOIN roles r ON u.role_id = r.role_id
		 ORDER BY u.username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.UserSummary, 0)
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.Role, &u.Status); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
