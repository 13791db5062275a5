// Package rolerepo manages repository layer of roles.
package rolerepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-finance/internal/domain"
	"github.com/go-petr/pet-finance/pkg/dbpkg"
	"github.com/go-petr/pet-finance/pkg/errorspkg"
)

// RepoPGS facilitates role repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns role RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

func mapWriteError(err error) error {
	if pqErr, ok := dbpkg.PQError(err); ok {
		switch {
		case pqErr.Constraint == "roles_name_key":
			return domain.ErrRoleAlreadyExists
		case pqErr.Code == dbpkg.CodeForeignKeyViolation:
			return domain.ErrRoleInUse
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrRoleNotFound
	}

	return errorspkg.ErrInternal
}

const createQuery = `
INSERT INTO roles (name)
VALUES ($1)
RETURNING id, name, created_at
`

// Create creates the role and then returns it.
func (r *RepoPGS) Create(ctx context.Context, name string) (domain.Role, error) {
	l := zerolog.Ctx(ctx)

	var role domain.Role

	err := r.db.QueryRowContext(ctx, createQuery, name).Scan(&role.ID, &role.Name, &role.CreatedAt)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, %q)", name)
		return role, mapWriteError(err)
	}

	return role, nil
}

const getQuery = `
SELECT id, name, created_at
FROM roles
WHERE id = $1
`

// Get returns the role with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int32) (domain.Role, error) {
	return r.getOne(ctx, getQuery, id)
}

const getByNameQuery = `
SELECT id, name, created_at
FROM roles
WHERE name = $1
`

// GetByName returns the role with the given name.
func (r *RepoPGS) GetByName(ctx context.Context, name string) (domain.Role, error) {
	return r.getOne(ctx, getByNameQuery, name)
}

func (r *RepoPGS) getOne(ctx context.Context, query string, arg any) (domain.Role, error) {
	l := zerolog.Ctx(ctx)

	var role domain.Role

	err := r.db.QueryRowContext(ctx, query, arg).Scan(&role.ID, &role.Name, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.Info().Err(err).Send()
			return role, domain.ErrRoleNotFound
		}

		l.Error().Err(err).Send()

		return role, errorspkg.ErrInternal
	}

	return role, nil
}

const listQuery = `
SELECT id, name, created_at
FROM roles
ORDER BY id
`

// List returns all roles.
func (r *RepoPGS) List(ctx context.Context) ([]domain.Role, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Role{}

	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, role)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const updateQuery = `
UPDATE roles
SET name = $2
WHERE id = $1
RETURNING id, name, created_at
`

// Update renames the role with the given id.
func (r *RepoPGS) Update(ctx context.Context, id int32, name string) (domain.Role, error) {
	l := zerolog.Ctx(ctx)

	var role domain.Role

	err := r.db.QueryRowContext(ctx, updateQuery, id, name).Scan(&role.ID, &role.Name, &role.CreatedAt)
	if err != nil {
		l.Error().Err(err).Msgf("Update(ctx, %d, %q)", id, name)
		return role, mapWriteError(err)
	}

	return role, nil
}

const deleteQuery = `
DELETE FROM roles
WHERE id = $1
RETURNING id, name, created_at
`

// Delete removes the role with the given id and returns it.
func (r *RepoPGS) Delete(ctx context.Context, id int32) (domain.Role, error) {
	l := zerolog.Ctx(ctx)

	var role domain.Role

	err := r.db.QueryRowContext(ctx, deleteQuery, id).Scan(&role.ID, &role.Name, &role.CreatedAt)
	if err != nil {
		l.Error().Err(err).Msgf("Delete(ctx, %d)", id)
		return role, mapWriteError(err)
	}

	return role, nil
}
