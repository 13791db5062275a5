package transactionservice

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-finance/internal/domain"
	"github.com/go-petr/pet-finance/pkg/errorspkg"
	"github.com/go-petr/pet-finance/pkg/randompkg"
)

type decimalMatcher struct {
	want decimal.Decimal
}

func (m decimalMatcher) Matches(x interface{}) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalMatcher) String() string {
	return fmt.Sprintf("is equal to decimal %s", m.want)
}

func eqDecimal(s string) gomock.Matcher {
	return decimalMatcher{want: decimal.RequireFromString(s)}
}

func randomAccount(balance string) domain.Account {
	return domain.Account{
		ID:      randompkg.IntBetween(1, 1000),
		Name:    randompkg.Owner(),
		Balance: decimal.RequireFromString(balance),
	}
}

func randomTransaction(acc domain.Account, amount string, tt domain.TransactionType) domain.Transaction {
	return domain.Transaction{
		ID:        int64(randompkg.IntBetween(1, 1000)),
		UserID:    acc.ID,
		Concept:   randompkg.Concept(),
		Amount:    decimal.RequireFromString(amount),
		Type:      tt,
		Date:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Now().Truncate(time.Second).UTC(),
	}
}

// runTx makes the repo mock execute the callback against tx.
func runTx(repo *MockRepo, tx *MockTx) *gomock.Call {
	return repo.EXPECT().ExecTx(gomock.Any(), gomock.Any()).
		Times(1).
		DoAndReturn(func(ctx context.Context, fn func(Tx) error) error {
			return fn(tx)
		})
}

func TestCreate(t *testing.T) {
	testAccount := randomAccount("100")
	testDate := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	newArg := func(amount string, tt domain.TransactionType) domain.CreateTransactionParams {
		return domain.CreateTransactionParams{
			UserID:  testAccount.ID,
			Concept: "salary",
			Amount:  decimal.RequireFromString(amount),
			Type:    tt,
			Date:    testDate,
		}
	}

	created := func(arg domain.CreateTransactionParams) domain.Transaction {
		return domain.Transaction{
			ID:      7,
			UserID:  arg.UserID,
			Concept: arg.Concept,
			Amount:  arg.Amount,
			Type:    arg.Type,
			Date:    arg.Date,
		}
	}

	testCases := []struct {
		name          string
		arg           domain.CreateTransactionParams
		buildStubs    func(repo *MockRepo, tx *MockTx, pub *MockPublisher, arg domain.CreateTransactionParams)
		checkResponse func(res domain.Transaction, err error)
	}{
		{
			name: "ZeroAmount",
			arg:  newArg("0", domain.Income),
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher, arg domain.CreateTransactionParams) {
				repo.EXPECT().ExecTx(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrInvalidAmount)
				require.Empty(t, res)
			},
		},
		{
			name: "NegativeAmount",
			arg:  newArg("-5", domain.Income),
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher, arg domain.CreateTransactionParams) {
				repo.EXPECT().ExecTx(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrInvalidAmount)
			},
		},
		{
			name: "TooManyDecimals",
			arg:  newArg("1.005", domain.Income),
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher, arg domain.CreateTransactionParams) {
				repo.EXPECT().ExecTx(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrInvalidAmount)
			},
		},
		{
			name: "InvalidType",
			arg:  newArg("10", domain.TransactionType("Transfer")),
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher, arg domain.CreateTransactionParams) {
				repo.EXPECT().ExecTx(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrInvalidTransactionType)
			},
		},
		{
			name: "AccountNotFound",
			arg:  newArg("10", domain.Income),
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher, arg domain.CreateTransactionParams) {
				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(domain.Account{}, domain.ErrAccountNotFound)
				tx.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrAccountNotFound)
				require.Empty(t, res)
			},
		},
		{
			name: "InsufficientFunds",
			arg:  newArg("100.01", domain.Expense),
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher, arg domain.CreateTransactionParams) {
				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				tx.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
				tx.EXPECT().SetBalance(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrInsufficientFunds)
				require.Empty(t, res)
			},
		},
		{
			name: "AmountAboveMax",
			arg:  newArg("10000000000000000", domain.Income),
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher, arg domain.CreateTransactionParams) {
				repo.EXPECT().ExecTx(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrInvalidAmount)
			},
		},
		{
			name: "BalanceOverflow",
			arg:  newArg("0.01", domain.Income),
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher, arg domain.CreateTransactionParams) {
				full := testAccount
				full.Balance = domain.MaxAmount

				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Eq(testAccount.ID)).Times(1).Return(full, nil)
				tx.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
				tx.EXPECT().SetBalance(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrInvalidAmount)
				require.Empty(t, res)
			},
		},
		{
			name: "ExpenseOfWholeBalance",
			arg:  newArg("100", domain.Expense),
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher, arg domain.CreateTransactionParams) {
				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				tx.EXPECT().Create(gomock.Any(), gomock.Eq(arg)).
					Times(1).
					Return(created(arg), nil)
				tx.EXPECT().SetBalance(gomock.Any(), gomock.Eq(testAccount.ID), eqDecimal("0")).
					Times(1).
					Return(domain.Account{ID: testAccount.ID, Name: testAccount.Name, Balance: decimal.Zero}, nil)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(1).Return(nil)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.NoError(t, err)
				require.Equal(t, domain.Expense, res.Type)
			},
		},
		{
			name: "OK",
			arg:  newArg("50", domain.Income),
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher, arg domain.CreateTransactionParams) {
				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				tx.EXPECT().Create(gomock.Any(), gomock.Eq(arg)).
					Times(1).
					Return(created(arg), nil)
				tx.EXPECT().SetBalance(gomock.Any(), gomock.Eq(testAccount.ID), eqDecimal("150")).
					Times(1).
					Return(domain.Account{ID: testAccount.ID, Name: testAccount.Name, Balance: decimal.RequireFromString("150")}, nil)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any()).
					Times(1).
					DoAndReturn(func(ctx context.Context, event domain.LedgerEvent) error {
						require.Equal(t, domain.EventTransactionCreated, event.Type)
						require.Equal(t, int64(7), event.TransactionID)
						require.Equal(t, testAccount.ID, event.UserID)
						require.True(t, event.Balance.Equal(decimal.RequireFromString("150")))
						return nil
					})
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.NoError(t, err)
				require.Equal(t, int64(7), res.ID)
				require.Equal(t, domain.TransactionOwner{ID: testAccount.ID, Name: testAccount.Name}, res.User)
			},
		},
		{
			name: "PublishFailureIsIgnored",
			arg:  newArg("50", domain.Income),
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher, arg domain.CreateTransactionParams) {
				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Any()).Times(1).Return(testAccount, nil)
				tx.EXPECT().Create(gomock.Any(), gomock.Any()).Times(1).Return(created(arg), nil)
				tx.EXPECT().SetBalance(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(testAccount, nil)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any()).
					Times(1).
					Return(errors.New("broker down"))
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.NoError(t, err)
				require.Equal(t, int64(7), res.ID)
			},
		},
		{
			name: "CreateError",
			arg:  newArg("50", domain.Income),
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher, arg domain.CreateTransactionParams) {
				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Any()).Times(1).Return(testAccount, nil)
				tx.EXPECT().Create(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.Transaction{}, errorspkg.ErrInternal)
				tx.EXPECT().SetBalance(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, errorspkg.ErrInternal)
				require.Empty(t, res)
			},
		},
		{
			name: "SetBalanceError",
			arg:  newArg("50", domain.Income),
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher, arg domain.CreateTransactionParams) {
				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Any()).Times(1).Return(testAccount, nil)
				tx.EXPECT().Create(gomock.Any(), gomock.Eq(arg)).Times(1).Return(created(arg), nil)
				tx.EXPECT().SetBalance(gomock.Any(), gomock.Eq(testAccount.ID), eqDecimal("150")).
					Times(1).
					Return(domain.Account{}, errorspkg.ErrInternal)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, errorspkg.ErrInternal)
				require.Empty(t, res)
			},
		},
		{
			name: "Conflict",
			arg:  newArg("50", domain.Income),
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher, arg domain.CreateTransactionParams) {
				repo.EXPECT().ExecTx(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.ErrConflict)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrConflict)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			tx := NewMockTx(ctrl)
			pub := NewMockPublisher(ctrl)
			tc.buildStubs(repo, tx, pub, tc.arg)

			service := New(repo, pub)
			res, err := service.Create(context.Background(), tc.arg)
			tc.checkResponse(res, err)
		})
	}
}

func TestUpdate(t *testing.T) {
	testAccount := randomAccount("100")
	income := randomTransaction(testAccount, "30", domain.Income)
	expense := randomTransaction(testAccount, "100", domain.Expense)

	amount := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	txType := func(tt domain.TransactionType) *domain.TransactionType {
		return &tt
	}

	concept := "groceries"
	badType := domain.TransactionType("Other")

	testCases := []struct {
		name          string
		arg           domain.UpdateTransactionParams
		buildStubs    func(repo *MockRepo, tx *MockTx, pub *MockPublisher)
		checkResponse func(res domain.Transaction, err error)
	}{
		{
			name: "InvalidAmount",
			arg:  domain.UpdateTransactionParams{ID: income.ID, UserID: testAccount.ID, Amount: amount("0")},
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher) {
				repo.EXPECT().ExecTx(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrInvalidAmount)
			},
		},
		{
			name: "InvalidType",
			arg:  domain.UpdateTransactionParams{ID: income.ID, UserID: testAccount.ID, Type: &badType},
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher) {
				repo.EXPECT().ExecTx(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrInvalidTransactionType)
			},
		},
		{
			name: "OwnerWithoutAccount",
			arg:  domain.UpdateTransactionParams{ID: income.ID, UserID: testAccount.ID, Concept: &concept},
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher) {
				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(domain.Account{}, domain.ErrAccountNotFound)
				tx.EXPECT().GetForUpdate(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrTransactionNotFound)
			},
		},
		{
			name: "NotOwned",
			arg:  domain.UpdateTransactionParams{ID: income.ID, UserID: testAccount.ID, Concept: &concept},
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher) {
				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Any()).Times(1).Return(testAccount, nil)
				tx.EXPECT().GetForUpdate(gomock.Any(), gomock.Eq(income.ID), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(domain.Transaction{}, domain.ErrTransactionNotFound)
				tx.EXPECT().Update(gomock.Any(), gomock.Any()).Times(0)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrTransactionNotFound)
				require.Empty(t, res)
			},
		},
		{
			name: "InsufficientFunds",
			arg:  domain.UpdateTransactionParams{ID: expense.ID, UserID: testAccount.ID, Amount: amount("200.01")},
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher) {
				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Any()).Times(1).Return(testAccount, nil)
				tx.EXPECT().GetForUpdate(gomock.Any(), gomock.Eq(expense.ID), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(expense, nil)
				tx.EXPECT().Update(gomock.Any(), gomock.Any()).Times(0)
				tx.EXPECT().SetBalance(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrInsufficientFunds)
			},
		},
		{
			name: "IncomeBecomesExpense",
			arg:  domain.UpdateTransactionParams{ID: income.ID, UserID: testAccount.ID, Type: txType(domain.Expense)},
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher) {
				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Any()).Times(1).Return(testAccount, nil)
				tx.EXPECT().GetForUpdate(gomock.Any(), gomock.Eq(income.ID), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(income, nil)

				updated := income
				updated.Type = domain.Expense

				tx.EXPECT().Update(gomock.Any(), gomock.Eq(updated)).Times(1).Return(updated, nil)
				tx.EXPECT().SetBalance(gomock.Any(), gomock.Eq(testAccount.ID), eqDecimal("40")).
					Times(1).
					Return(domain.Account{ID: testAccount.ID, Name: testAccount.Name, Balance: decimal.RequireFromString("40")}, nil)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any()).
					Times(1).
					DoAndReturn(func(ctx context.Context, event domain.LedgerEvent) error {
						require.Equal(t, domain.EventTransactionUpdated, event.Type)
						require.Equal(t, domain.Expense, event.TransactionType)
						return nil
					})
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.NoError(t, err)
				require.Equal(t, domain.Expense, res.Type)
				require.Equal(t, testAccount.Name, res.User.Name)
			},
		},
		{
			name: "SetBalanceError",
			arg:  domain.UpdateTransactionParams{ID: income.ID, UserID: testAccount.ID, Amount: amount("45")},
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher) {
				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Any()).Times(1).Return(testAccount, nil)
				tx.EXPECT().GetForUpdate(gomock.Any(), gomock.Eq(income.ID), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(income, nil)

				updated := income
				updated.Amount = decimal.RequireFromString("45")

				tx.EXPECT().Update(gomock.Any(), gomock.Eq(updated)).Times(1).Return(updated, nil)
				tx.EXPECT().SetBalance(gomock.Any(), gomock.Eq(testAccount.ID), eqDecimal("115")).
					Times(1).
					Return(domain.Account{}, domain.ErrConflict)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrConflict)
				require.Empty(t, res)
			},
		},
		{
			name: "ConceptOnly",
			arg:  domain.UpdateTransactionParams{ID: expense.ID, UserID: testAccount.ID, Concept: &concept},
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher) {
				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Any()).Times(1).Return(testAccount, nil)
				tx.EXPECT().GetForUpdate(gomock.Any(), gomock.Any(), gomock.Any()).Times(1).Return(expense, nil)

				updated := expense
				updated.Concept = concept

				tx.EXPECT().Update(gomock.Any(), gomock.Eq(updated)).Times(1).Return(updated, nil)
				tx.EXPECT().SetBalance(gomock.Any(), gomock.Eq(testAccount.ID), eqDecimal("100")).
					Times(1).
					Return(testAccount, nil)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(1).Return(nil)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.NoError(t, err)
				require.Equal(t, concept, res.Concept)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			tx := NewMockTx(ctrl)
			pub := NewMockPublisher(ctrl)
			tc.buildStubs(repo, tx, pub)

			service := New(repo, pub)
			res, err := service.Update(context.Background(), tc.arg)
			tc.checkResponse(res, err)
		})
	}
}

func TestDelete(t *testing.T) {
	testAccount := randomAccount("20")
	income := randomTransaction(testAccount, "50", domain.Income)

	testCases := []struct {
		name          string
		buildStubs    func(repo *MockRepo, tx *MockTx, pub *MockPublisher)
		checkResponse func(res domain.Transaction, err error)
	}{
		{
			name: "NotFound",
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher) {
				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Any()).Times(1).Return(testAccount, nil)
				tx.EXPECT().GetForUpdate(gomock.Any(), gomock.Eq(income.ID), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(domain.Transaction{}, domain.ErrTransactionNotFound)
				tx.EXPECT().Delete(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, domain.ErrTransactionNotFound)
			},
		},
		{
			name: "DeleteError",
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher) {
				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Any()).Times(1).Return(testAccount, nil)
				tx.EXPECT().GetForUpdate(gomock.Any(), gomock.Any(), gomock.Any()).Times(1).Return(income, nil)
				tx.EXPECT().Delete(gomock.Any(), gomock.Any(), gomock.Any()).Times(1).Return(errorspkg.ErrInternal)
				tx.EXPECT().SetBalance(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, errorspkg.ErrInternal)
			},
		},
		{
			name: "SetBalanceError",
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher) {
				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Any()).Times(1).Return(testAccount, nil)
				tx.EXPECT().GetForUpdate(gomock.Any(), gomock.Any(), gomock.Any()).Times(1).Return(income, nil)
				tx.EXPECT().Delete(gomock.Any(), gomock.Eq(income.ID), gomock.Eq(testAccount.ID)).Times(1).Return(nil)
				tx.EXPECT().SetBalance(gomock.Any(), gomock.Eq(testAccount.ID), eqDecimal("-30")).
					Times(1).
					Return(domain.Account{}, errorspkg.ErrInternal)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.ErrorIs(t, err, errorspkg.ErrInternal)
				require.Empty(t, res)
			},
		},
		{
			name: "IncomeBelowBalanceIsStillDeleted",
			buildStubs: func(repo *MockRepo, tx *MockTx, pub *MockPublisher) {
				runTx(repo, tx)
				tx.EXPECT().LockAccount(gomock.Any(), gomock.Any()).Times(1).Return(testAccount, nil)
				tx.EXPECT().GetForUpdate(gomock.Any(), gomock.Any(), gomock.Any()).Times(1).Return(income, nil)
				tx.EXPECT().Delete(gomock.Any(), gomock.Eq(income.ID), gomock.Eq(testAccount.ID)).Times(1).Return(nil)
				tx.EXPECT().SetBalance(gomock.Any(), gomock.Eq(testAccount.ID), eqDecimal("-30")).
					Times(1).
					Return(domain.Account{ID: testAccount.ID, Name: testAccount.Name, Balance: decimal.RequireFromString("-30")}, nil)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any()).
					Times(1).
					DoAndReturn(func(ctx context.Context, event domain.LedgerEvent) error {
						require.Equal(t, domain.EventTransactionDeleted, event.Type)
						require.Equal(t, income.ID, event.TransactionID)
						return nil
					})
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.NoError(t, err)
				require.Equal(t, income.ID, res.ID)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			tx := NewMockTx(ctrl)
			pub := NewMockPublisher(ctrl)
			tc.buildStubs(repo, tx, pub)

			service := New(repo, pub)
			res, err := service.Delete(context.Background(), income.ID, testAccount.ID)
			tc.checkResponse(res, err)
		})
	}
}

func TestGetAndList(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	testAccount := randomAccount("10")
	testTransaction := randomTransaction(testAccount, "10", domain.Income)

	repo := NewMockRepo(ctrl)
	repo.EXPECT().Get(gomock.Any(), gomock.Eq(testTransaction.ID), gomock.Eq(testAccount.ID)).
		Times(1).
		Return(testTransaction, nil)
	repo.EXPECT().Get(gomock.Any(), gomock.Eq(testTransaction.ID), gomock.Eq(testAccount.ID+1)).
		Times(1).
		Return(domain.Transaction{}, domain.ErrTransactionNotFound)
	repo.EXPECT().List(gomock.Any(), gomock.Eq(testAccount.ID)).
		Times(1).
		Return([]domain.Transaction{testTransaction}, nil)
	repo.EXPECT().List(gomock.Any(), gomock.Eq(testAccount.ID+1)).
		Times(1).
		Return(nil, errorspkg.ErrInternal)

	service := New(repo, NewMockPublisher(ctrl))
	ctx := context.Background()

	got, err := service.Get(ctx, testTransaction.ID, testAccount.ID)
	require.NoError(t, err)
	require.Equal(t, testTransaction, got)

	_, err = service.Get(ctx, testTransaction.ID, testAccount.ID+1)
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)

	items, err := service.List(ctx, testAccount.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = service.List(ctx, testAccount.ID+1)
	require.ErrorIs(t, err, errorspkg.ErrInternal)
	require.Nil(t, items)
}

func TestAudit(t *testing.T) {
	testAccount := randomAccount("70")
	entries := []domain.Transaction{
		randomTransaction(testAccount, "100", domain.Income),
		randomTransaction(testAccount, "30", domain.Expense),
	}

	testCases := []struct {
		name           string
		balance        string
		wantConsistent bool
	}{
		{name: "Consistent", balance: "70", wantConsistent: true},
		{name: "Drifted", balance: "75.5", wantConsistent: false},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			acc := testAccount
			acc.Balance = decimal.RequireFromString(tc.balance)

			repo := NewMockRepo(ctrl)
			tx := NewMockTx(ctrl)
			runTx(repo, tx)
			tx.EXPECT().LockAccount(gomock.Any(), gomock.Eq(acc.ID)).Times(1).Return(acc, nil)
			tx.EXPECT().List(gomock.Any(), gomock.Eq(acc.ID)).Times(1).Return(entries, nil)

			report, err := New(repo, NewMockPublisher(ctrl)).Audit(context.Background(), acc.ID)
			require.NoError(t, err)
			require.Equal(t, tc.wantConsistent, report.Consistent)
			require.Equal(t, 2, report.Entries)
			require.True(t, report.Computed.Equal(decimal.RequireFromString("70")))

			if !tc.wantConsistent {
				require.Contains(t, report.Problem, "75.50")
			}
		})
	}
}

func TestVerifyBalance(t *testing.T) {
	t.Parallel()

	acc := domain.Account{ID: 1, Balance: decimal.RequireFromString("12.50")}
	entries := []domain.Transaction{
		{ID: 1, UserID: 1, Amount: decimal.RequireFromString("20"), Type: domain.Income},
		{ID: 2, UserID: 1, Amount: decimal.RequireFromString("7.5"), Type: domain.Expense},
	}

	require.NoError(t, VerifyBalance(acc, entries))
	require.NoError(t, VerifyBalance(domain.Account{ID: 2}, nil))

	acc.Balance = decimal.RequireFromString("12.49")
	require.ErrorIs(t, VerifyBalance(acc, entries), domain.ErrBalanceMismatch)

	foreign := append(entries[:1:1], domain.Transaction{ID: 3, UserID: 2, Amount: decimal.RequireFromString("1"), Type: domain.Income})
	require.ErrorIs(t, VerifyBalance(domain.Account{ID: 1, Balance: decimal.RequireFromString("21")}, foreign), domain.ErrBalanceMismatch)
}

func TestNextBalance(t *testing.T) {
	t.Parallel()

	d := decimal.RequireFromString

	testCases := []struct {
		name    string
		balance string
		remove  string
		add     string
		want    string
	}{
		{name: "Credit", balance: "100", remove: "0", add: "50", want: "150"},
		{name: "Debit", balance: "150", remove: "0", add: "-100", want: "50"},
		{name: "ShrinkDebit", balance: "50", remove: "-100", add: "-40", want: "110"},
		{name: "DeleteCredit", balance: "110", remove: "50", add: "0", want: "60"},
		{name: "CreditToDebit", balance: "100", remove: "30", add: "-30", want: "40"},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := nextBalance(d(tc.balance), d(tc.remove), d(tc.add))
			require.True(t, got.Equal(d(tc.want)), "got %s, want %s", got, tc.want)
		})
	}
}
