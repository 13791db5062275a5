// Package roleservice manages business logic layer of roles.
package roleservice

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-finance/internal/domain"
)

// Repo provides data access layer interface needed by role service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package roleservice
type Repo interface {
	Create(ctx context.Context, name string) (domain.Role, error)
	Get(ctx context.Context, id int32) (domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	Update(ctx context.Context, id int32, name string) (domain.Role, error)
	Delete(ctx context.Context, id int32) (domain.Role, error)
}

// Service facilitates role service layer logic.
type Service struct {
	repo Repo
}

// New returns role service struct to manage role bussines logic.
func New(repo Repo) *Service {
	return &Service{
		repo: repo,
	}
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrInvalidRoleName
	}

	return name, nil
}

// Create creates a role with the trimmed name.
func (s *Service) Create(ctx context.Context, name string) (domain.Role, error) {
	name, err := normalizeName(name)
	if err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Send()
		return domain.Role{}, err
	}

	return s.repo.Create(ctx, name)
}

// Get returns the role with the given id.
func (s *Service) Get(ctx context.Context, id int32) (domain.Role, error) {
	return s.repo.Get(ctx, id)
}

// List returns all roles.
func (s *Service) List(ctx context.Context) ([]domain.Role, error) {
	return s.repo.List(ctx)
}

// Update renames the role with the given id.
func (s *Service) Update(ctx context.Context, id int32, name string) (domain.Role, error) {
	name, err := normalizeName(name)
	if err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Send()
		return domain.Role{}, err
	}

	if err := s.checkMutable(ctx, id); err != nil {
		return domain.Role{}, err
	}

	return s.repo.Update(ctx, id, name)
}

// Delete removes the role with the given id. Roles still assigned to users
// cannot be deleted.
func (s *Service) Delete(ctx context.Context, id int32) (domain.Role, error) {
	if err := s.checkMutable(ctx, id); err != nil {
		return domain.Role{}, err
	}

	return s.repo.Delete(ctx, id)
}

// checkMutable rejects changes to the roles authorization is keyed on.
func (s *Service) checkMutable(ctx context.Context, id int32) error {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if domain.IsBuiltinRole(role.Name) {
		zerolog.Ctx(ctx).Info().Err(domain.ErrBuiltinRole).Str("role", role.Name).Send()
		return domain.ErrBuiltinRole
	}

	return nil
}
