package transactionservice

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-finance/internal/domain"
)

// SumSigned returns the balance implied by the given entries.
func SumSigned(entries []domain.Transaction) decimal.Decimal {
	sum := decimal.Zero

	for _, e := range entries {
		sum = sum.Add(e.SignedAmount())
	}

	return sum
}

// VerifyBalance checks that the stored balance of acc equals the sum of its entries.
//
// Entries of other accounts are an error too.
func VerifyBalance(acc domain.Account, entries []domain.Transaction) error {
	for _, e := range entries {
		if e.UserID != acc.ID {
			return fmt.Errorf("%w: transaction %d belongs to user %d, not %d",
				domain.ErrBalanceMismatch, e.ID, e.UserID, acc.ID)
		}
	}

	sum := SumSigned(entries)
	if !sum.Equal(acc.Balance) {
		return fmt.Errorf("%w: account %d has balance %s, entries sum to %s",
			domain.ErrBalanceMismatch, acc.ID, acc.Balance.StringFixed(domain.AmountScale), sum.StringFixed(domain.AmountScale))
	}

	return nil
}

// AuditReport is the result of checking one account against its entries.
type AuditReport struct {
	Account    domain.Account  `json:"account"`
	Entries    int             `json:"entries"`
	Computed   decimal.Decimal `json:"computed_balance"`
	Consistent bool            `json:"consistent"`
	Problem    string          `json:"problem,omitempty"`
}

// Audit reads the account of userID and all its entries under the account lock
// and reports whether the stored balance matches them.
func (s *Service) Audit(ctx context.Context, userID int32) (AuditReport, error) {
	l := zerolog.Ctx(ctx)

	var (
		acc     domain.Account
		entries []domain.Transaction
	)

	err := s.repo.ExecTx(ctx, func(tx Tx) error {
		var err error

		acc, err = tx.LockAccount(ctx, userID)
		if err != nil {
			return err
		}

		entries, err = tx.List(ctx, userID)

		return err
	})
	if err != nil {
		logFailure(l, err)
		return AuditReport{}, err
	}

	report := AuditReport{
		Account:    acc,
		Entries:    len(entries),
		Computed:   SumSigned(entries),
		Consistent: true,
	}

	if err := VerifyBalance(acc, entries); err != nil {
		l.Warn().Err(err).Int32("user_id", userID).Msg("ledger audit failed")

		report.Consistent = false
		report.Problem = err.Error()
	}

	return report, nil
}
