// Package userrepo manages repository layer of users.
package userrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-finance/internal/domain"
	"github.com/go-petr/pet-finance/pkg/dbpkg"
	"github.com/go-petr/pet-finance/pkg/errorspkg"
)

// RepoPGS facilitates user repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns user RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (domain.User, error) {
	var u domain.User

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.HashedPassword,
		&u.RoleID,
		&u.RoleName,
		&u.Balance,
		&u.PasswordChangedAt,
		&u.CreatedAt,
	)

	return u, err
}

func mapWriteError(err error) error {
	if pqErr, ok := dbpkg.PQError(err); ok {
		switch pqErr.Constraint {
		case "users_email_key":
			return domain.ErrEmailAlreadyExists
		case "users_role_id_fkey":
			return domain.ErrRoleNotFound
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrUserNotFound
	}

	return errorspkg.ErrInternal
}

// CreateQuery inserts into users table. New users always start with a zero balance.
const CreateQuery = `
WITH u AS (
    INSERT INTO users (
        name,
        email,
        phone,
        hashed_password,
        role_id
    ) VALUES (
        $1, $2, $3, $4, $5
    ) RETURNING *
)
SELECT
    u.id, u.name, u.email, u.phone, u.hashed_password, u.role_id, r.name,
    u.balance, u.password_changed_at, u.created_at
FROM u
JOIN roles r ON r.id = u.role_id
`

// Create creates the user and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, CreateQuery,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.HashedPassword,
		arg.RoleID,
	)

	u, err := scanUser(row)
	if err != nil {
		l.Error().Err(err).Send()
		return u, mapWriteError(err)
	}

	return u, nil
}

const selectUser = `
SELECT
    u.id, u.name, u.email, u.phone, u.hashed_password, u.role_id, r.name,
    u.balance, u.password_changed_at, u.created_at
FROM users u
JOIN roles r ON r.id = u.role_id
`

const getQuery = selectUser + `WHERE u.id = $1`

// Get returns the user with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int32) (domain.User, error) {
	return r.getOne(ctx, getQuery, id)
}

const getByEmailQuery = selectUser + `WHERE u.email = $1`

// GetByEmail returns the user with the given email.
func (r *RepoPGS) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, getByEmailQuery, email)
}

func (r *RepoPGS) getOne(ctx context.Context, query string, arg any) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.Info().Err(err).Send()
			return u, domain.ErrUserNotFound
		}

		l.Error().Err(err).Send()

		return u, errorspkg.ErrInternal
	}

	return u, nil
}

const listQuery = selectUser + `
ORDER BY u.id
LIMIT $1 OFFSET $2
`

// List returns a page of users ordered by id.
func (r *RepoPGS) List(ctx context.Context, limit, offset int32) ([]domain.User, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, limit, offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.User{}

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, u)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

// UpdateQuery changes the given user fields. NULL parameters keep the stored value.
// The balance is never touched here.
const UpdateQuery = `
WITH u AS (
    UPDATE users
    SET
        name = COALESCE($2::varchar, name),
        email = COALESCE($3::varchar, email),
        phone = COALESCE($4::varchar, phone),
        hashed_password = COALESCE($5::varchar, hashed_password),
        password_changed_at = CASE WHEN $5::varchar IS NULL THEN password_changed_at ELSE now() END,
        role_id = COALESCE($6::integer, role_id)
    WHERE id = $1
    RETURNING *
)
SELECT
    u.id, u.name, u.email, u.phone, u.hashed_password, u.role_id, r.name,
    u.balance, u.password_changed_at, u.created_at
FROM u
JOIN roles r ON r.id = u.role_id
`

// Update applies the non-nil fields of arg and returns the user.
func (r *RepoPGS) Update(ctx context.Context, arg domain.UpdateUserParams) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, UpdateQuery,
		arg.ID,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.HashedPassword,
		arg.RoleID,
	)

	u, err := scanUser(row)
	if err != nil {
		l.Error().Err(err).Int32("id", arg.ID).Send()
		return u, mapWriteError(err)
	}

	return u, nil
}

const deleteQuery = `
DELETE FROM users
WHERE id = $1
`

// Delete removes the user with the given id together with its transactions.
func (r *RepoPGS) Delete(ctx context.Context, id int32) error {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, deleteQuery, id)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	n, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if n == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}
