// Package userservice manages business logic layer of users.
package userservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-finance/internal/domain"
	"github.com/go-petr/pet-finance/pkg/errorspkg"
	"github.com/go-petr/pet-finance/pkg/passpkg"
)

// Repo provides data access layer interface needed by user service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package userservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error)
	Get(ctx context.Context, id int32) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	List(ctx context.Context, limit, offset int32) ([]domain.User, error)
	Update(ctx context.Context, arg domain.UpdateUserParams) (domain.User, error)
	Delete(ctx context.Context, id int32) error
}

// RoleRepo resolves built-in roles by name.
type RoleRepo interface {
	GetByName(ctx context.Context, name string) (domain.Role, error)
}

// Ledger records the opening balance of new users.
type Ledger interface {
	Create(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error)
}

// Service facilitates user service layer logic.
type Service struct {
	repo   Repo
	roles  RoleRepo
	ledger Ledger
	now    func() time.Time
}

// New return user service struct to manage user bussines logic.
func New(ur Repo, rr RoleRepo, ledger Ledger) *Service {
	return &Service{
		repo:   ur,
		roles:  rr,
		ledger: ledger,
		now:    time.Now,
	}
}

// Register creates a user with the default role and a zero balance.
func (s *Service) Register(ctx context.Context, arg domain.NewUserParams) (domain.UserWithoutPassword, error) {
	l := zerolog.Ctx(ctx)

	role, err := s.roles.GetByName(ctx, domain.RoleUser)
	if err != nil {
		l.Error().Err(err).Msg("default role is missing")
		return domain.UserWithoutPassword{}, errorspkg.ErrInternal
	}

	arg.RoleID = role.ID
	arg.OpeningBalance = decimal.Zero

	return s.Create(ctx, arg)
}

// Create creates and returns user.
//
// A positive opening balance is posted as an income entry in its own ledger
// transaction after the user is stored. If it cannot be posted the user is
// removed again. When that removal fails too the returned error wraps
// domain.ErrOpeningBalanceNotPosted and the user is left with a zero balance.
func (s *Service) Create(ctx context.Context, arg domain.NewUserParams) (domain.UserWithoutPassword, error) {
	l := zerolog.Ctx(ctx)

	var result domain.UserWithoutPassword

	if !arg.OpeningBalance.IsZero() && domain.ValidateAmount(arg.OpeningBalance) != nil {
		l.Info().Err(domain.ErrInvalidAmount).Send()
		return result, domain.ErrInvalidAmount
	}

	hashedPassword, err := passpkg.Hash(arg.Password)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	u, err := s.repo.Create(ctx, domain.CreateUserParams{
		Name:           arg.Name,
		Email:          arg.Email,
		Phone:          arg.Phone,
		HashedPassword: hashedPassword,
		RoleID:         arg.RoleID,
	})
	if err != nil {
		return result, err
	}

	if arg.OpeningBalance.IsPositive() {
		_, err := s.ledger.Create(ctx, domain.CreateTransactionParams{
			UserID:  u.ID,
			Concept: domain.OpeningBalanceConcept,
			Amount:  arg.OpeningBalance,
			Type:    domain.Income,
			Date:    s.now().UTC().Truncate(24 * time.Hour),
		})
		if err != nil {
			l.Error().Err(err).Int32("user_id", u.ID).Msg("cannot post opening balance")

			if delErr := s.repo.Delete(ctx, u.ID); delErr != nil {
				l.Error().Err(delErr).Int32("user_id", u.ID).Msg("cannot remove user without opening balance")
				return result, fmt.Errorf("%w: user %d: %w", domain.ErrOpeningBalanceNotPosted, u.ID, err)
			}

			return result, err
		}

		u.Balance = arg.OpeningBalance
	}

	return domain.NewUserWithoutPassword(u), nil
}

// CheckPassword checks if the password is valid for the given email.
func (s *Service) CheckPassword(ctx context.Context, email, pass string) (domain.UserWithoutPassword, error) {
	l := zerolog.Ctx(ctx)

	var response domain.UserWithoutPassword

	gotUser, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return response, err
	}

	err = passpkg.Check(pass, gotUser.HashedPassword)
	if err != nil {
		l.Warn().Err(err).Send()
		return response, domain.ErrWrongPassword
	}

	response = domain.NewUserWithoutPassword(gotUser)

	return response, nil
}

// Get returns the user with the given id.
func (s *Service) Get(ctx context.Context, id int32) (domain.UserWithoutPassword, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.UserWithoutPassword{}, err
	}

	return domain.NewUserWithoutPassword(u), nil
}

// List returns the users of the given page. Pages start at 1.
func (s *Service) List(ctx context.Context, pageID, pageSize int32) ([]domain.UserWithoutPassword, error) {
	users, err := s.repo.List(ctx, pageSize, (pageID-1)*pageSize)
	if err != nil {
		return nil, err
	}

	result := make([]domain.UserWithoutPassword, len(users))
	for i, u := range users {
		result[i] = domain.NewUserWithoutPassword(u)
	}

	return result, nil
}

// Update changes the given user fields. A new password is hashed before storing.
func (s *Service) Update(ctx context.Context, arg domain.ChangeUserParams) (domain.UserWithoutPassword, error) {
	l := zerolog.Ctx(ctx)

	params := domain.UpdateUserParams{
		ID:     arg.ID,
		Name:   arg.Name,
		Email:  arg.Email,
		Phone:  arg.Phone,
		RoleID: arg.RoleID,
	}

	if arg.Password != nil {
		hashedPassword, err := passpkg.Hash(*arg.Password)
		if err != nil {
			l.Error().Err(err).Send()
			return domain.UserWithoutPassword{}, errorspkg.ErrInternal
		}

		params.HashedPassword = &hashedPassword
	}

	u, err := s.repo.Update(ctx, params)
	if err != nil {
		return domain.UserWithoutPassword{}, err
	}

	return domain.NewUserWithoutPassword(u), nil
}

// Delete removes the user and all its transactions.
func (s *Service) Delete(ctx context.Context, id int32) error {
	return s.repo.Delete(ctx, id)
}

// EnsureAdmin creates an administrator with the given credentials unless a
// user with that email already exists. It reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	l := zerolog.Ctx(ctx)

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, domain.ErrUserNotFound) {
		return false, err
	}

	role, err := s.roles.GetByName(ctx, domain.RoleAdmin)
	if err != nil {
		l.Error().Err(err).Msg("admin role is missing")
		return false, err
	}

	_, err = s.Create(ctx, domain.NewUserParams{
		Name:     name,
		Email:    email,
		Password: password,
		RoleID:   role.ID,
	})
	if err != nil {
		return false, err
	}

	l.Info().Str("email", email).Msg("admin user created")

	return true, nil
}
