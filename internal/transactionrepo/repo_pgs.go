// Package transactionrepo manages repository layer of ledger transactions.
package transactionrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-finance/internal/domain"
	"github.com/go-petr/pet-finance/internal/transactionservice"
	"github.com/go-petr/pet-finance/pkg/dbpkg"
	"github.com/go-petr/pet-finance/pkg/errorspkg"
)

// RepoPGS facilitates transaction repository layer logic.
type RepoPGS struct {
	db          dbpkg.SQLInterface
	conn        *sql.DB
	lockTimeout time.Duration
}

// NewTxRepoPGS returns transaction RepoPGS bound to an existing transaction.
//
// ExecTx on it runs the callback inside that transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns transaction RepoPGS wiht connection to start transactions.
//
// A positive lockTimeout bounds how long ExecTx waits for row locks.
func NewRepoPGS(db *sql.DB, lockTimeout time.Duration) *RepoPGS {
	return &RepoPGS{
		db:          db,
		conn:        db,
		lockTimeout: lockTimeout,
	}
}

// ExecTx executes fn within a database transaction.
//
// The transaction is committed when fn returns nil and rolled back otherwise.
func (r *RepoPGS) ExecTx(ctx context.Context, fn func(tx transactionservice.Tx) error) error {
	if r.conn == nil {
		return fn(r)
	}

	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	if r.lockTimeout > 0 {
		// SET does not accept bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", r.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			l.Error().Err(err).Send()
			return errorspkg.ErrInternal
		}
	}

	if err := fn(NewTxRepoPGS(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return mapError(err, errorspkg.ErrInternal)
	}

	return nil
}

// mapError translates lock and serialization failures into domain.ErrConflict,
// numeric overflow into domain.ErrInvalidAmount and everything else into fallback.
func mapError(err, fallback error) error {
	switch {
	case dbpkg.IsConflict(err):
		return domain.ErrConflict
	case dbpkg.IsOutOfRange(err):
		return domain.ErrInvalidAmount
	}

	return fallback
}

const lockAccountQuery = `
SELECT
	id, name, balance
FROM users
WHERE id = $1
FOR UPDATE
`

// LockAccount locks the account row of userID until the transaction ends and returns it.
func (r *RepoPGS) LockAccount(ctx context.Context, userID int32) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	var acc domain.Account

	err := r.db.QueryRowContext(ctx, lockAccountQuery, userID).Scan(
		&acc.ID,
		&acc.Name,
		&acc.Balance,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.Info().Err(err).Int32("user_id", userID).Send()
			return acc, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return acc, mapError(err, errorspkg.ErrInternal)
	}

	return acc, nil
}

const setBalanceQuery = `
UPDATE users
SET balance = $2
WHERE id = $1
RETURNING id, name, balance
`

// SetBalance stores the new balance of userID and returns the account.
func (r *RepoPGS) SetBalance(ctx context.Context, userID int32, balance decimal.Decimal) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	var acc domain.Account

	err := r.db.QueryRowContext(ctx, setBalanceQuery, userID, balance).Scan(
		&acc.ID,
		&acc.Name,
		&acc.Balance,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.Info().Err(err).Int32("user_id", userID).Send()
			return acc, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Msgf("SetBalance(ctx, %d, %s)", userID, balance)

		return acc, mapError(err, errorspkg.ErrInternal)
	}

	return acc, nil
}

const createQuery = `
INSERT INTO
    transactions (user_id, concept, amount, transaction_type, date)
VALUES
    ($1, $2, $3, $4, $5)
RETURNING id, user_id, concept, amount, transaction_type, date, created_at
`

// Create creates the transaction and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.UserID,
		arg.Concept,
		arg.Amount,
		string(arg.Type),
		arg.Date,
	)

	t, err := scanTransaction(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx context.Context, %+v)", arg)

		if pqErr, ok := dbpkg.PQError(err); ok {
			switch pqErr.Constraint {
			case "transactions_user_id_fkey":
				return t, domain.ErrAccountNotFound
			case "transactions_amount_check":
				return t, domain.ErrInvalidAmount
			}

			if pqErr.Code == dbpkg.CodeInvalidTextRepresentation {
				return t, domain.ErrInvalidTransactionType
			}
		}

		return t, mapError(err, errorspkg.ErrInternal)
	}

	return t, nil
}

const getForUpdateQuery = `
SELECT
	id, user_id, concept, amount, transaction_type, date, created_at
FROM transactions
WHERE id = $1 AND user_id = $2
FOR UPDATE
`

// GetForUpdate returns the transaction with the given id owned by userID and locks it.
func (r *RepoPGS) GetForUpdate(ctx context.Context, id int64, userID int32) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	t, err := scanTransaction(r.db.QueryRowContext(ctx, getForUpdateQuery, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.Info().Err(err).Int64("id", id).Int32("user_id", userID).Send()
			return t, domain.ErrTransactionNotFound
		}

		l.Error().Err(err).Send()

		return t, mapError(err, errorspkg.ErrInternal)
	}

	return t, nil
}

const updateQuery = `
UPDATE transactions
SET
	concept = $3,
	amount = $4,
	transaction_type = $5,
	date = $6
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, concept, amount, transaction_type, date, created_at
`

// Update overwrites the mutable fields of t and returns the stored transaction.
func (r *RepoPGS) Update(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, updateQuery,
		t.ID,
		t.UserID,
		t.Concept,
		t.Amount,
		string(t.Type),
		t.Date,
	)

	updated, err := scanTransaction(row)
	if err != nil {
		l.Error().Err(err).Msgf("Update(ctx context.Context, %+v)", t)

		if errors.Is(err, sql.ErrNoRows) {
			return updated, domain.ErrTransactionNotFound
		}

		if pqErr, ok := dbpkg.PQError(err); ok {
			if pqErr.Constraint == "transactions_amount_check" {
				return updated, domain.ErrInvalidAmount
			}

			if pqErr.Code == dbpkg.CodeInvalidTextRepresentation {
				return updated, domain.ErrInvalidTransactionType
			}
		}

		return updated, mapError(err, errorspkg.ErrInternal)
	}

	return updated, nil
}

const deleteQuery = `
DELETE FROM transactions
WHERE id = $1 AND user_id = $2
`

// Delete removes the transaction with the given id owned by userID.
func (r *RepoPGS) Delete(ctx context.Context, id int64, userID int32) error {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, deleteQuery, id, userID)
	if err != nil {
		l.Error().Err(err).Send()
		return mapError(err, errorspkg.ErrInternal)
	}

	n, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if n == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

const getQuery = `
SELECT
	t.id, t.user_id, t.concept, t.amount, t.transaction_type, t.date, t.created_at, u.name
FROM transactions t
JOIN users u ON u.id = t.user_id
WHERE t.id = $1 AND t.user_id = $2
`

// Get returns the transaction with the given id owned by userID.
func (r *RepoPGS) Get(ctx context.Context, id int64, userID int32) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	t, err := scanTransactionWithOwner(r.db.QueryRowContext(ctx, getQuery, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.Info().Err(err).Int64("id", id).Int32("user_id", userID).Send()
			return t, domain.ErrTransactionNotFound
		}

		l.Error().Err(err).Send()

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

const listQuery = `
SELECT
	t.id, t.user_id, t.concept, t.amount, t.transaction_type, t.date, t.created_at, u.name
FROM transactions t
JOIN users u ON u.id = t.user_id
WHERE t.user_id = $1
ORDER BY t.date, t.id
`

// List returns all transactions owned by userID.
func (r *RepoPGS) List(ctx context.Context, userID int32) ([]domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, userID)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, mapError(err, errorspkg.ErrInternal)
	}
	defer rows.Close()

	items := []domain.Transaction{}

	for rows.Next() {
		t, err := scanTransactionWithOwner(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, t)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (domain.Transaction, error) {
	var t domain.Transaction

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Concept,
		&t.Amount,
		&t.Type,
		&t.Date,
		&t.CreatedAt,
	)

	return t, err
}

func scanTransactionWithOwner(row scanner) (domain.Transaction, error) {
	var t domain.Transaction

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Concept,
		&t.Amount,
		&t.Type,
		&t.Date,
		&t.CreatedAt,
		&t.User.Name,
	)
	t.User.ID = t.UserID

	return t, err
}
