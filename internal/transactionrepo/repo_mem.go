package transactionrepo

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-finance/internal/domain"
	"github.com/go-petr/pet-finance/internal/transactionservice"
)

// RepoMem is an in-process ledger store with the same locking contract as RepoPGS.
//
// Writes made inside ExecTx are staged and become visible only on commit.
// Accounts are locked one by one with a per-account lock held until the end of ExecTx.
type RepoMem struct {
	mu       sync.RWMutex
	accounts map[int32]domain.Account
	entries  map[int64]domain.Transaction

	nextID atomic.Int64

	locksMu sync.Mutex
	locks   map[int32]chan struct{}
}

var (
	_ transactionservice.Repo = (*RepoMem)(nil)
	_ transactionservice.Repo = (*RepoPGS)(nil)
	_ transactionservice.Tx   = (*RepoPGS)(nil)
)

// NewRepoMem returns an empty in-memory repository.
func NewRepoMem() *RepoMem {
	return &RepoMem{
		accounts: make(map[int32]domain.Account),
		entries:  make(map[int64]domain.Transaction),
		locks:    make(map[int32]chan struct{}),
	}
}

// AddAccount registers an account. Its balance is taken as is.
func (r *RepoMem) AddAccount(acc domain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts[acc.ID] = acc
}

// Account returns the committed state of the account.
func (r *RepoMem) Account(id int32) (domain.Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.accounts[id]

	return acc, ok
}

func (r *RepoMem) accountLock(id int32) chan struct{} {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	lock, ok := r.locks[id]
	if !ok {
		lock = make(chan struct{}, 1)
		r.locks[id] = lock
	}

	return lock
}

// ExecTx runs fn against a staged view of the store and commits it when fn succeeds.
func (r *RepoMem) ExecTx(ctx context.Context, fn func(tx transactionservice.Tx) error) error {
	tx := &memTx{
		repo:     r,
		held:     make(map[int32]chan struct{}),
		accounts: make(map[int32]domain.Account),
		entries:  make(map[int64]*domain.Transaction),
	}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, acc := range tx.accounts {
		r.accounts[id] = acc
	}

	for id, t := range tx.entries {
		if t == nil {
			delete(r.entries, id)
			continue
		}

		r.entries[id] = *t
	}

	return nil
}

// Get returns the committed transaction with the given id owned by userID.
func (r *RepoMem) Get(_ context.Context, id int64, userID int32) (domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.entries[id]
	if !ok || t.UserID != userID {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}

	return r.withOwner(t), nil
}

// List returns the committed transactions owned by userID.
func (r *RepoMem) List(_ context.Context, userID int32) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := []domain.Transaction{}

	for _, t := range r.entries {
		if t.UserID == userID {
			items = append(items, r.withOwner(t))
		}
	}

	sortTransactions(items)

	return items, nil
}

func (r *RepoMem) withOwner(t domain.Transaction) domain.Transaction {
	t.User = domain.TransactionOwner{ID: t.UserID, Name: r.accounts[t.UserID].Name}
	return t
}

func sortTransactions(items []domain.Transaction) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}

		return items[i].ID < items[j].ID
	})
}

// memTx is the staged view handed to ExecTx callbacks. A nil entry marks a deletion.
type memTx struct {
	repo     *RepoMem
	held     map[int32]chan struct{}
	accounts map[int32]domain.Account
	entries  map[int64]*domain.Transaction
}

func (tx *memTx) release() {
	for id, lock := range tx.held {
		<-lock
		delete(tx.held, id)
	}
}

func (tx *memTx) account(id int32) (domain.Account, bool) {
	if acc, ok := tx.accounts[id]; ok {
		return acc, true
	}

	return tx.repo.Account(id)
}

func (tx *memTx) entry(id int64) (domain.Transaction, bool) {
	if t, ok := tx.entries[id]; ok {
		if t == nil {
			return domain.Transaction{}, false
		}

		return *t, true
	}

	tx.repo.mu.RLock()
	defer tx.repo.mu.RUnlock()

	t, ok := tx.repo.entries[id]

	return t, ok
}

func (tx *memTx) LockAccount(ctx context.Context, userID int32) (domain.Account, error) {
	if _, ok := tx.held[userID]; !ok {
		lock := tx.repo.accountLock(userID)

		select {
		case lock <- struct{}{}:
			tx.held[userID] = lock
		case <-ctx.Done():
			return domain.Account{}, domain.ErrConflict
		}
	}

	acc, ok := tx.account(userID)
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return acc, nil
}

func (tx *memTx) SetBalance(_ context.Context, userID int32, balance decimal.Decimal) (domain.Account, error) {
	acc, ok := tx.account(userID)
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	acc.Balance = balance
	tx.accounts[userID] = acc

	return acc, nil
}

func (tx *memTx) Create(_ context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	if _, ok := tx.account(arg.UserID); !ok {
		return domain.Transaction{}, domain.ErrAccountNotFound
	}

	t := domain.Transaction{
		ID:        tx.repo.nextID.Add(1),
		UserID:    arg.UserID,
		Concept:   arg.Concept,
		Amount:    arg.Amount,
		Type:      arg.Type,
		Date:      arg.Date,
		CreatedAt: time.Now().UTC(),
	}
	tx.entries[t.ID] = &t

	return t, nil
}

func (tx *memTx) GetForUpdate(_ context.Context, id int64, userID int32) (domain.Transaction, error) {
	t, ok := tx.entry(id)
	if !ok || t.UserID != userID {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}

	return t, nil
}

func (tx *memTx) Update(_ context.Context, t domain.Transaction) (domain.Transaction, error) {
	old, ok := tx.entry(t.ID)
	if !ok || old.UserID != t.UserID {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}

	t.CreatedAt = old.CreatedAt
	t.User = domain.TransactionOwner{}
	tx.entries[t.ID] = &t

	return t, nil
}

func (tx *memTx) Delete(_ context.Context, id int64, userID int32) error {
	t, ok := tx.entry(id)
	if !ok || t.UserID != userID {
		return domain.ErrTransactionNotFound
	}

	tx.entries[id] = nil

	return nil
}

func (tx *memTx) List(_ context.Context, userID int32) ([]domain.Transaction, error) {
	items := []domain.Transaction{}

	tx.repo.mu.RLock()
	for id, t := range tx.repo.entries {
		if _, staged := tx.entries[id]; !staged && t.UserID == userID {
			items = append(items, t)
		}
	}
	tx.repo.mu.RUnlock()

	for _, t := range tx.entries {
		if t != nil && t.UserID == userID {
			items = append(items, *t)
		}
	}

	sortTransactions(items)

	return items, nil
}
