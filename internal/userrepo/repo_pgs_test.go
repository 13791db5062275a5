//go:build integration

package userrepo_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-finance/internal/domain"
	"github.com/go-petr/pet-finance/internal/integrationtest"
	"github.com/go-petr/pet-finance/internal/middleware"
	"github.com/go-petr/pet-finance/internal/rolerepo"
	"github.com/go-petr/pet-finance/internal/test"
	"github.com/go-petr/pet-finance/internal/userrepo"
	"github.com/go-petr/pet-finance/pkg/configpkg"
	"github.com/go-petr/pet-finance/pkg/dbpkg"
	"github.com/go-petr/pet-finance/pkg/passpkg"
	"github.com/go-petr/pet-finance/pkg/randompkg"

	_ "github.com/lib/pq"
)

var (
	dbDriver string
	dbSource string
	ctx      context.Context
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	if err := dbpkg.Migrate(config.DBDriver, config.DBSource); err != nil {
		log.Fatal("cannot migrate db:", err)
	}

	dbDriver = config.DBDriver
	dbSource = config.DBSource

	logger := middleware.CreateLogger(config)
	ctx = logger.WithContext(context.Background())

	os.Exit(m.Run())
}

func TestCreate(t *testing.T) {
	t.Parallel()

	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	userRepo := userrepo.NewRepoPGS(tx)

	role, err := rolerepo.NewRepoPGS(tx).GetByName(ctx, domain.RoleUser)
	require.NoError(t, err)

	hashedPassword, err := passpkg.Hash(randompkg.String(10))
	require.NoError(t, err)

	arg := domain.CreateUserParams{
		Name:           randompkg.Owner(),
		Email:          randompkg.Email(),
		Phone:          randompkg.Phone(),
		HashedPassword: hashedPassword,
		RoleID:         role.ID,
	}

	got, err := userRepo.Create(ctx, arg)
	require.NoError(t, err)

	require.NotZero(t, got.ID)
	require.Equal(t, arg.Name, got.Name)
	require.Equal(t, arg.Email, got.Email)
	require.Equal(t, arg.Phone, got.Phone)
	require.Equal(t, arg.HashedPassword, got.HashedPassword)
	require.Equal(t, role.ID, got.RoleID)
	require.Equal(t, domain.RoleUser, got.RoleName)
	require.True(t, got.Balance.IsZero())
	require.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
}

func TestCreateConstraintViolations(t *testing.T) {
	testCases := []struct {
		name    string
		arg     func(t *testing.T, tx dbpkg.SQLInterface) domain.CreateUserParams
		wantErr error
	}{
		{
			name: "ErrEmailAlreadyExists",
			arg: func(t *testing.T, tx dbpkg.SQLInterface) domain.CreateUserParams {
				existing := test.SeedUser(t, tx)

				return domain.CreateUserParams{
					Name:           randompkg.Owner(),
					Email:          existing.Email,
					HashedPassword: existing.HashedPassword,
					RoleID:         existing.RoleID,
				}
			},
			wantErr: domain.ErrEmailAlreadyExists,
		},
		{
			name: "ErrRoleNotFound",
			arg: func(t *testing.T, tx dbpkg.SQLInterface) domain.CreateUserParams {
				return domain.CreateUserParams{
					Name:           randompkg.Owner(),
					Email:          randompkg.Email(),
					HashedPassword: randompkg.String(20),
					RoleID:         1_000_000,
				}
			},
			wantErr: domain.ErrRoleNotFound,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tx := integrationtest.SetupTX(t, dbDriver, dbSource)
			arg := tc.arg(t, tx)

			_, err := userrepo.NewRepoPGS(tx).Create(ctx, arg)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	userRepo := userrepo.NewRepoPGS(tx)
	want := test.SeedUser(t, tx)

	compareTime := cmpopts.EquateApproxTime(time.Second)

	got, err := userRepo.Get(ctx, want.ID)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, compareTime); diff != "" {
		t.Errorf("userRepo.Get(ctx, %v) returned unexpected difference (-want +got):\n%s", want.ID, diff)
	}

	got, err = userRepo.GetByEmail(ctx, want.Email)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, compareTime); diff != "" {
		t.Errorf("userRepo.GetByEmail(ctx, %v) returned unexpected difference (-want +got):\n%s", want.Email, diff)
	}

	_, err = userRepo.Get(ctx, 0)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = userRepo.GetByEmail(ctx, "missing-"+randompkg.Email())
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestList(t *testing.T) {
	t.Parallel()

	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	userRepo := userrepo.NewRepoPGS(tx)

	for i := 0; i < 3; i++ {
		test.SeedUser(t, tx)
	}

	got, err := userRepo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Less(t, got[0].ID, got[1].ID)
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	userRepo := userrepo.NewRepoPGS(tx)
	user := test.SeedUserWith1000Balance(t, tx)

	newName := randompkg.Owner()
	newPassword := randompkg.String(30)

	got, err := userRepo.Update(ctx, domain.UpdateUserParams{
		ID:             user.ID,
		Name:           &newName,
		HashedPassword: &newPassword,
	})
	require.NoError(t, err)
	require.Equal(t, newName, got.Name)
	require.Equal(t, user.Email, got.Email)
	require.Equal(t, newPassword, got.HashedPassword)
	require.True(t, got.PasswordChangedAt.After(user.PasswordChangedAt))
	require.True(t, got.Balance.Equal(user.Balance))

	admin, err := rolerepo.NewRepoPGS(tx).GetByName(ctx, domain.RoleAdmin)
	require.NoError(t, err)

	got, err = userRepo.Update(ctx, domain.UpdateUserParams{ID: user.ID, RoleID: &admin.ID})
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, got.RoleName)
	require.Equal(t, newName, got.Name)

	_, err = userRepo.Update(ctx, domain.UpdateUserParams{ID: 0, Name: &newName})
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	userRepo := userrepo.NewRepoPGS(tx)
	user := test.SeedUserWith1000Balance(t, tx)

	require.NoError(t, userRepo.Delete(ctx, user.ID))

	_, err := userRepo.Get(ctx, user.ID)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	err = userRepo.Delete(ctx, user.ID)
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}
