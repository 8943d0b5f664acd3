package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
)

type userRepo struct {
	db DBTX
}

var validate = validator.New()

func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	if err := validate.Struct(u); err != nil {
		var validationErr validator.ValidationErrors
		if errors.As(err, &validationErr) {
			switch validationErr[0].Field() {
			case "Email":
				return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
			case "Name":
				return fmt.Errorf("%w: name must be 2-150 characters", ErrInvalidInput)
			}
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("%w: password hash required", ErrInvalidInput)
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: invalid role '%s'", ErrInvalidInput, u.Role)
	}

	sql := `
		INSERT INTO users (
			name,
			email,
			password_hash,
			role,
			created_at
	) VALUES ($1, $2, $3, $4, $5)
	RETURNING user_id
	`

	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = time.Now().UTC()

	err := r.db.QueryRow(ctx, sql,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.CreatedAt,
	).Scan(&u.UserID)
	if err != nil {
		if pgErr, ok := isUniqueViolation(err); ok && strings.Contains(pgErr.ConstraintName, "email") {
			return fmt.Errorf("%w: email already exists", ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

const userColumns = `user_id, name, email, password_hash, role, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.UserID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}

	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}

	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email cannot be empty", ErrInvalidInput)
	}

	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return u, nil
}

func (r *userRepo) List(ctx context.Context, role models.Role) ([]models.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if role != "" {
		if !role.Valid() {
			return nil, fmt.Errorf("%w: invalid role '%s'", ErrInvalidInput, role)
		}
		sql += ` WHERE role = $1`
		args = append(args, role)
	}
	sql += ` ORDER BY user_id`

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return users, nil
}
