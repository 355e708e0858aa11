package model

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	// debitCommission is the fee rate applied on top of every outgoing
	// transfer amount.
	debitCommission = 0.005
	// dailyDebitLimit caps successful debits per account per UTC calendar day.
	dailyDebitLimit = 3
)

var (
	ErrInsufficientBalance           = errors.New("insufficient balance")
	ErrDailyTransactionLimitAchieved = errors.New("daily transaction limit achieved")
)

// timeNow is swapped out in tests that need to move across day boundaries.
var timeNow = time.Now

// Account is the aggregate root of the ledger. It owns its balance and
// transaction log and is the only place the business rules (currency
// matching, balance sufficiency, daily debit limit, commission) are
// enforced. ID and Currency never change after creation.
type Account struct {
	ID        uuid.UUID    `json:"id"`
	Currency  Currency     `json:"currency"`
	Balance   Money        `json:"balance"`
	Logs      []AccountLog `json:"-"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewAccount creates an account with a zero balance in the given currency.
func NewAccount(id uuid.UUID, currency Currency) *Account {
	return &Account{
		ID:       id,
		Currency: currency,
		Balance:  NewMoney(0, currency),
	}
}

// Credit adds money to the account and returns the new balance.
// There is no upper bound on credits.
func (a *Account) Credit(money Money) (Money, error) {
	if money.Currency != a.Currency {
		return Money{}, ErrInvalidCurrency
	}

	a.registerLog(TransactionCredit, timeNow())

	balance, err := a.Balance.Add(money)
	if err != nil {
		return Money{}, err
	}
	a.Balance = balance

	return a.Balance, nil
}

// Debit moves amount plus commission from this account to destination.
//
// The checks run in a fixed order (currency, balance, daily limit) so a
// caller always sees the cheapest applicable failure, and nothing is
// mutated until every check has passed. The balance check includes the
// commission: the account must cover principal and fee together.
//
// The destination is credited with principal plus commission: the fee
// is forwarded rather than collected anywhere. That mirrors the system
// this ledger replaces; see DESIGN.md before changing it.
func (a *Account) Debit(destination *Account, amount Money) error {
	// One timestamp for both the limit check and the log entry, so the
	// recorded event and the check agree on what "today" is.
	now := timeNow()

	commission := int64(math.Round(float64(amount.Amount) * debitCommission))
	total, err := amount.Add(NewMoney(commission, amount.Currency))
	if err != nil {
		return err
	}

	if destination.Currency != a.Currency || total.Currency != a.Currency {
		return ErrInvalidCurrency
	}
	if total.Amount > a.Balance.Amount {
		return ErrInsufficientBalance
	}
	if a.debitCountOn(now) >= dailyDebitLimit {
		return ErrDailyTransactionLimitAchieved
	}

	a.registerLog(TransactionDebit, now)

	balance, err := a.Balance.Reduce(total)
	if err != nil {
		return err
	}
	a.Balance = balance

	_, err = destination.Credit(total)
	return err
}

// debitCountOn counts successful debits on the same UTC calendar day as t.
func (a *Account) debitCountOn(t time.Time) int {
	year, month, day := t.UTC().Date()

	count := 0
	for _, log := range a.Logs {
		if log.TransactionType != TransactionDebit {
			continue
		}
		ly, lm, ld := log.CreatedAt.UTC().Date()
		if ly == year && lm == month && ld == day {
			count++
		}
	}
	return count
}

func (a *Account) registerLog(transactionType TransactionType, t time.Time) {
	a.Logs = append(a.Logs, AccountLog{
		AccountID:       a.ID,
		TransactionType: transactionType,
		CreatedAt:       t,
	})
}
